package cmd

import (
	"fmt"

	"github.com/samsaffron/mdstream/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show mdstream configuration",
	Long: `Print the effective configuration: defaults, the config file and
MDSTREAM_* environment overrides combined.

Examples:
  mdstream config          # show current config
  mdstream config path     # print the config file location`,
	Args: cobra.NoArgs,
	RunE: configShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	Args:  cobra.NoArgs,
	RunE:  configPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if cfg.Path == "" {
		path, err := config.GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		fmt.Fprintf(out, "# No config file (using defaults)\n")
		fmt.Fprintf(out, "# Create one at: %s\n\n", path)
	} else {
		fmt.Fprintf(out, "# %s\n\n", cfg.Path)
	}
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func configPath(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		fmt.Fprintln(cmd.OutOrStdout(), configFile)
		return nil
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
