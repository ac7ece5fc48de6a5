package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/xrcube/internal/scene"
)

func (c *CLI) sceneCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Print the built-in scene as a scene file",
		Long: `Scene writes the built-in scene in TOML or YAML. Use it as a starting
point for 'xrcube render --scene'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := scene.Format(format)
			if output != "" && !cmd.Flags().Changed("format") {
				var err error
				if f, err = scene.FormatFromPath(output); err != nil {
					return err
				}
			}
			data, err := scene.Encode(scene.Default(), f)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = c.out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write scene: %w", err)
			}
			c.Logger.Info("Wrote", "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(scene.FormatTOML), "scene format: toml or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
