package cli

import (
	"github.com/gogpu/gputypes"
	"github.com/spf13/cobra"

	"github.com/gogpu/xrcube"
)

func (c *CLI) formatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the swapchain formats the renderer accepts",
		Long: `Formats lists the color and depth swapchain formats in order of
preference. The first entry of each list is the default of 'xrcube render'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printFormats("Color formats", xrcube.SupportedColorFormats())
			c.printFormats("Depth formats", xrcube.SupportedDepthFormats())
			return nil
		},
	}
}

func (c *CLI) printFormats(title string, formats []gputypes.TextureFormat) {
	printTitle(c.out, title)
	for i, f := range formats {
		name := f.String()
		if i == 0 {
			name = styleDefault.Render(name) + styleDim.Render(" (default)")
		} else if f.HasStencil() {
			name += styleDim.Render(" (stencil)")
		}
		printItem(c.out, name)
	}
}
