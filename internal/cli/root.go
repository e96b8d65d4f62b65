package cli

import (
	"context"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Execute runs the fractal CLI with ctx as the root context.
// Logs go to stderr at info level, or debug level with --verbose.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "fractal",
		Short:         "Fractal builds Sierpinski tetrahedron scenes",
		Long:          `Fractal generates a Sierpinski tetrahedron as instances of one shared tetrahedron mesh, assembles it into a scene with a floor, lights and a camera, and can export the result as Wavefront OBJ.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newPlacementsCmd())
	root.AddCommand(newConfigCmd())

	return root
}
