package engram

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/engramkit/engram/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration the server would run with, after merging
defaults, the config file, and environment variables. Secrets are masked.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.Dump(os.Stdout)
}
