package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/gekko3d/fractal"
)

func newConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Print the effective configuration as TOML.

Without --config the built-in defaults are printed, which makes a good
starting point for a config file:

  fractal config > fractal.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")

	return cmd
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (fractal.Config, error) {
	if path == "" {
		return fractal.DefaultConfig(), nil
	}
	return fractal.LoadConfig(path)
}
