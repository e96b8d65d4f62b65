package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gekko3d/fractal"
	"github.com/gekko3d/fractal/errors"
)

type generateOptions struct {
	configPath string
	depth      int
	size       float64
	color      []float32
	maxDepth   int
	clamp      bool
	objPath    string
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build a Sierpinski tetrahedron scene",
		Long: `Build a Sierpinski tetrahedron scene.

The scene is read from --config (or the defaults) and then overridden by any
flags given. With --obj the assembled scene is written as Wavefront OBJ with
every vertex in world space.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, &cfg); err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cmd.ErrOrStderr(), cfg, opts.objPath)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 0, "recursion level (overrides config)")
	cmd.Flags().Float64VarP(&opts.size, "size", "s", 0, "edge length of the whole tetrahedron (overrides config)")
	cmd.Flags().Float32SliceVar(&opts.color, "color", nil, "material colour as r,g,b in [0, 1] (overrides config)")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "depth cap (overrides config)")
	cmd.Flags().BoolVar(&opts.clamp, "clamp", false, "clamp depths above the cap instead of failing")
	cmd.Flags().StringVarP(&opts.objPath, "obj", "o", "", "write the scene as Wavefront OBJ to this file")

	return cmd
}

// apply overrides cfg with every flag the user set and revalidates it.
func (o generateOptions) apply(cmd *cobra.Command, cfg *fractal.Config) error {
	flags := cmd.Flags()
	if flags.Changed("depth") {
		cfg.Fractal.RecursionLevel = o.depth
	}
	if flags.Changed("size") {
		cfg.Fractal.Size = o.size
	}
	if flags.Changed("color") {
		if len(o.color) != 3 {
			return errors.New(errors.ErrCodeInvalidArgument, "--color wants 3 components, got %d", len(o.color))
		}
		cfg.Material.Color = [3]float32(o.color)
	}
	if flags.Changed("max-depth") {
		cfg.Fractal.MaxDepth = o.maxDepth
	}
	if o.clamp {
		cfg.Fractal.DepthPolicy = "clamp"
	}
	return cfg.Validate()
}

func runGenerate(ctx context.Context, logOut io.Writer, cfg fractal.Config, objPath string) error {
	logger := loggerFromContext(ctx)

	gen, err := cfg.Generator()
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	app := fractal.NewAppBuilder().
		UseModule(fractal.LoggingModule{
			Prefix: "engine",
			Debug:  logger.GetLevel() <= charmlog.DebugLevel,
			Output: logOut,
		}).
		UseModule(fractal.AssetServerModule{}).
		UseModule(fractal.HierarchyModule{}).
		UseModule(fractal.FractalModule{Scene: cfg.SceneDef(), Generator: gen}).
		Build()

	if err := ctx.Err(); err != nil {
		return err
	}
	app.Step()

	settings, _ := fractal.Resource[fractal.FractalSettings](app)
	if settings.LastError != nil {
		return settings.LastError
	}
	prog.done(fmt.Sprintf("Built %d instances at depth %d (%d entities)",
		settings.Current.Instances, settings.Current.Depth, app.EntityCount()))

	if objPath == "" {
		return nil
	}
	assets, _ := fractal.Resource[fractal.AssetServer](app)
	stats, err := writeOBJ(objPath, app, assets)
	if err != nil {
		return err
	}
	logger.Info("Wrote OBJ", "path", objPath, "objects", stats.Objects, "vertices", stats.Vertices, "faces", stats.Faces)
	return nil
}

func writeOBJ(path string, app *fractal.App, assets *fractal.AssetServer) (fractal.ExportStats, error) {
	f, err := os.Create(path)
	if err != nil {
		return fractal.ExportStats{}, fmt.Errorf("create %s: %w", path, err)
	}
	stats, err := fractal.ExportOBJ(f, app.Commands(), assets)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	return stats, err
}
