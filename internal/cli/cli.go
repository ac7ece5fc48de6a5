// Package cli implements the xrcube command-line interface.
//
// The CLI drives the stereo cube renderer without an XR runtime: it opens a
// device, allocates an offscreen stereo swapchain, renders a scene into it
// and reads the eye images back.
//
// # Commands
//
//   - render: draw a scene and write the eyes side by side to a PNG
//   - bench: render many frames and report frame timings
//   - formats: list the color and depth formats the renderer accepts
//   - adapters: list GPU adapters and whether the renderer can use them
//   - scene: print the built-in scene as TOML or YAML
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The CLI
// logger is also installed as the xrcube library logger, so adapter
// selection and pipeline creation show up in the same stream.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gogpu/xrcube"
)

const appName = "xrcube"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "dev" // semantic version, set by SetVersion
	commit  string  // git commit SHA
	date    string  // build timestamp
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// out receives command results. Logs go to the logger's writer.
	out io.Writer
}

// New creates a CLI that logs to w at level and prints results to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command results.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "xrcube renders instanced cubes into stereo array targets",
		Long:         `xrcube draws a cube scene once per eye into the slices of a 2D array swapchain, the way an XR runtime consumes it, and writes the result to PNG.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			xrcube.SetLogger(slog.New(c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(appName + " {{.Version}}\ncommit: " + commit + "\nbuilt: " + date + "\n")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.benchCommand())
	root.AddCommand(c.formatsCommand())
	root.AddCommand(c.adaptersCommand())
	root.AddCommand(c.sceneCommand())

	return root
}
