package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retaillab/markdown-cli/internal/model"
	"github.com/retaillab/markdown-cli/internal/simulate"
)

var (
	simCoefPath  string
	simInventory float64
	simAge       float64
	simPrevSales float64
	simPrevDisc  float64
	simPrice     float64
	simLiq       float64
	simDiscounts []float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate revenue for a fixed discount schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		coef, err := loadCoefficients(simCoefPath)
		if err != nil {
			return err
		}

		liq := simLiq
		if liq < 0 {
			liq = cfg.Planner.Liquidation
		}

		inputs := model.ScenarioInputs{
			StartInventory: simInventory,
			StartAge:       simAge,
			PrevSales:      simPrevSales,
			PrevDiscount:   simPrevDisc,
			Price:          simPrice,
			Horizon:        len(simDiscounts),
			Liquidation:    liq,
		}
		params := simulate.Params{
			Coefficients: coef,
			Price:        inputs.Price,
			Horizon:      inputs.Horizon,
			Liquidation:  inputs.Liquidation,
		}

		result, err := simulate.Run(params, simulate.NewState(inputs), simDiscounts)
		if err != nil {
			return err
		}

		zap.L().Info("simulation complete",
			zap.Int("horizon", inputs.Horizon),
			zap.Float64("total_revenue", result.TotalRevenue),
			zap.Float64("residual_inventory", result.ResidualInventory),
		)

		return printJSON(os.Stdout, result)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simCoefPath, "coef", "", "path to fitted coefficients JSON (required)")
	simulateCmd.Flags().Float64Var(&simInventory, "inventory", 0, "starting inventory units (required)")
	simulateCmd.Flags().Float64Var(&simAge, "age", 0, "product age in weeks at the start of the horizon")
	simulateCmd.Flags().Float64Var(&simPrevSales, "prev-sales", 0, "previous week's sales units")
	simulateCmd.Flags().Float64Var(&simPrevDisc, "prev-discount", 0, "previous week's discount fraction")
	simulateCmd.Flags().Float64Var(&simPrice, "price", 0, "fixed sell price (required)")
	simulateCmd.Flags().Float64Var(&simLiq, "liquidation", -1, "liquidation discount for leftover stock (default from config)")
	simulateCmd.Flags().Float64SliceVar(&simDiscounts, "discounts", nil, "comma-separated weekly discount fractions (required)")
	_ = simulateCmd.MarkFlagRequired("coef")
	_ = simulateCmd.MarkFlagRequired("inventory")
	_ = simulateCmd.MarkFlagRequired("price")
	_ = simulateCmd.MarkFlagRequired("discounts")
	rootCmd.AddCommand(simulateCmd)
}
