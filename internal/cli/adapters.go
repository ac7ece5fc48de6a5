package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/xrcube/gpu"
)

func (c *CLI) adaptersCommand() *cobra.Command {
	var device deviceOpts

	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "List GPU adapters and whether the renderer can use them",
		Long: `Adapters enumerates the adapters of the selected HAL backend without
opening a device. An adapter is usable when it satisfies a feature level
and can render one view per array slice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := device.gpuOptions()
			if err != nil {
				return err
			}
			reports, err := gpu.Adapters(opts...)
			if err != nil {
				return err
			}
			c.Logger.Debug("Enumerated adapters", "count", len(reports))
			for _, a := range reports {
				c.printAdapter(a)
			}
			return nil
		},
	}

	device.addFlags(cmd)
	return cmd
}

func (c *CLI) printAdapter(a gpu.AdapterReport) {
	title := a.Name
	if a.Selected {
		title += " (default)"
	}
	printTitle(c.out, title)

	rows := [][2]string{
		{"backend", a.Backend},
		{"type", a.Type.String()},
		{"pci", fmt.Sprintf("%04x:%04x", a.VendorID, a.DeviceID)},
	}
	if a.Driver != "" {
		rows = append(rows, [2]string{"driver", a.Driver})
	}
	if a.LevelErr != nil {
		rows = append(rows, [2]string{"level", status(false, a.LevelErr.Error())})
	} else {
		rows = append(rows, [2]string{"level", a.FeatureLevel.String()})
	}
	if a.LayeredErr != nil {
		rows = append(rows, [2]string{"stereo", status(false, a.LayeredErr.Error())})
	} else {
		rows = append(rows, [2]string{"stereo", status(true, "layered rendering")})
	}
	printRows(c.out, rows)
}
