package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retaillab/markdown-cli/internal/features"
	"github.com/retaillab/markdown-cli/internal/regress"
)

var (
	fitCSVPath string
	fitProduct string
	fitOutPath string
	fitAllRows bool
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit the demand elasticity model from weekly sales history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		obs, err := loadSeries(ctx, fitCSVPath, fitProduct)
		if err != nil {
			return err
		}

		rows, err := features.Build(obs)
		if err != nil {
			return err
		}

		if !fitAllRows {
			cutoff := features.Cutoff{Year: cfg.Planner.CutoffYear, Week: cfg.Planner.CutoffWeek}
			rows = features.Filter(rows, cutoff)
		}

		result, err := regress.Fit(rows)
		if err != nil {
			return err
		}

		zap.L().Info("model fitted",
			zap.Int("observations", len(obs)),
			zap.Int("training_rows", result.Diagnostics.N),
			zap.Float64("r_squared", result.Diagnostics.RSquared),
			zap.Strings("anomalies", result.Diagnostics.Anomalies),
		)

		if fitOutPath != "" {
			b, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return eris.Wrap(err, "marshal fit result")
			}
			if err := os.WriteFile(fitOutPath, b, 0o644); err != nil {
				return eris.Wrap(err, "write coefficients file")
			}
		}

		return printJSON(os.Stdout, result)
	},
}

func init() {
	fitCmd.Flags().StringVar(&fitCSVPath, "csv", "", "path to weekly sales CSV")
	fitCmd.Flags().StringVar(&fitProduct, "product", "", "product code to load from the warehouse")
	fitCmd.Flags().StringVar(&fitOutPath, "out", "", "write the fit result JSON to this file")
	fitCmd.Flags().BoolVar(&fitAllRows, "all-rows", false, "train on the full series instead of the configured cutoff window")
	rootCmd.AddCommand(fitCmd)
}
