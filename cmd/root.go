package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daydream-data/domainwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "domainwatch",
	Short: "Suspicious-domain enrichment pipeline",
	Long:  "Enriches batches of domains with registration data, mail posture, site liveness, display names, and deliverability verdicts, and assembles a risk record per domain.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
