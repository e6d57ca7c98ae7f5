package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retaillab/markdown-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "markdown-cli",
	Short: "End-of-season markdown planning toolkit",
	Long:  "Fits log-log demand elasticities from weekly sales history, simulates inventory drawdown over a markdown horizon, and searches for the revenue-maximizing non-decreasing discount schedule.",
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
