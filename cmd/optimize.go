package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retaillab/markdown-cli/internal/model"
	"github.com/retaillab/markdown-cli/internal/optimize"
	"github.com/retaillab/markdown-cli/internal/simulate"
)

var (
	optCoefPath  string
	optInventory float64
	optAge       float64
	optPrevSales float64
	optPrevDisc  float64
	optPrice     float64
	optHorizon   int
	optLower     float64
	optUpper     float64
	optLiq       float64
	optMethod    string
	optMaxIter   int
	optGuess     []float64
	optParallel  bool
	optNoSave    bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search for the revenue-maximizing discount schedule",
	Long:  "Maximizes simulated markdown revenue over non-decreasing weekly discounts within the configured bounds. A search that exhausts its budget is reported as a failed plan, not an error.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		coef, err := loadCoefficients(optCoefPath)
		if err != nil {
			return err
		}

		inputs := model.ScenarioInputs{
			StartInventory: optInventory,
			StartAge:       optAge,
			PrevSales:      optPrevSales,
			PrevDiscount:   optPrevDisc,
			Price:          optPrice,
			Horizon:        optHorizon,
			LowerBound:     optLower,
			UpperBound:     optUpper,
			Liquidation:    optLiq,
		}
		applyPlannerDefaults(&inputs)

		prob := optimize.Problem{
			Params: simulate.Params{
				Coefficients: coef,
				Price:        inputs.Price,
				Horizon:      inputs.Horizon,
				Liquidation:  inputs.Liquidation,
			},
			State: simulate.NewState(inputs),
			Lower: inputs.LowerBound,
			Upper: inputs.UpperBound,
		}

		opts := cfg.Optimizer.Options()
		if optMethod != "" {
			opts.Method = optMethod
		}
		if optMaxIter > 0 {
			opts.MaxIterations = optMaxIter
		}
		if optGuess != nil {
			opts.InitialGuess = optGuess
		}
		if optParallel {
			opts.Parallel = true
		}

		res, err := optimize.Solve(ctx, prob, opts)
		if err != nil {
			return err
		}

		status := model.PlanStatusConverged
		if !res.Converged {
			status = model.PlanStatusFailed
			zap.L().Warn("search did not converge",
				zap.String("status", res.Status),
				zap.Int("iterations", res.Iterations),
			)
		}

		plan := model.Plan{
			Inputs:    inputs,
			Discounts: res.Discounts,
			Revenue:   res.Revenue,
			Status:    status,
			Result:    res.Detail,
		}

		if !optNoSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			created, err := st.CreatePlan(ctx, plan)
			if err != nil {
				return err
			}
			plan = *created
		}

		zap.L().Info("plan ready",
			zap.String("plan_id", plan.ID),
			zap.String("status", string(plan.Status)),
			zap.Float64("revenue", plan.Revenue),
			zap.Float64s("discounts", plan.Discounts),
		)

		return printJSON(os.Stdout, plan)
	},
}

// applyPlannerDefaults fills unset scenario fields from config.
func applyPlannerDefaults(in *model.ScenarioInputs) {
	if in.Horizon <= 0 {
		in.Horizon = cfg.Planner.Horizon
	}
	if in.LowerBound <= 0 {
		in.LowerBound = cfg.Planner.LowerBound
	}
	if in.UpperBound <= 0 {
		in.UpperBound = cfg.Planner.UpperBound
	}
	if in.Liquidation < 0 {
		in.Liquidation = cfg.Planner.Liquidation
	}
}

func init() {
	optimizeCmd.Flags().StringVar(&optCoefPath, "coef", "", "path to fitted coefficients JSON (required)")
	optimizeCmd.Flags().Float64Var(&optInventory, "inventory", 0, "starting inventory units (required)")
	optimizeCmd.Flags().Float64Var(&optAge, "age", 0, "product age in weeks at the start of the horizon")
	optimizeCmd.Flags().Float64Var(&optPrevSales, "prev-sales", 0, "previous week's sales units")
	optimizeCmd.Flags().Float64Var(&optPrevDisc, "prev-discount", 0, "previous week's discount fraction")
	optimizeCmd.Flags().Float64Var(&optPrice, "price", 0, "fixed sell price (required)")
	optimizeCmd.Flags().IntVar(&optHorizon, "horizon", 0, "number of markdown weeks (default from config)")
	optimizeCmd.Flags().Float64Var(&optLower, "lower", 0, "minimum weekly discount (default from config)")
	optimizeCmd.Flags().Float64Var(&optUpper, "upper", 0, "maximum weekly discount (default from config)")
	optimizeCmd.Flags().Float64Var(&optLiq, "liquidation", -1, "liquidation discount for leftover stock (default from config)")
	optimizeCmd.Flags().StringVar(&optMethod, "method", "", "search method: projected-gradient or nelder-mead (default from config)")
	optimizeCmd.Flags().IntVar(&optMaxIter, "max-iterations", 0, "iteration budget (default from config)")
	optimizeCmd.Flags().Float64SliceVar(&optGuess, "guess", nil, "initial discount schedule (must be feasible)")
	optimizeCmd.Flags().BoolVar(&optParallel, "parallel", false, "evaluate finite differences in parallel")
	optimizeCmd.Flags().BoolVar(&optNoSave, "no-save", false, "do not persist the plan to the local store")
	_ = optimizeCmd.MarkFlagRequired("coef")
	_ = optimizeCmd.MarkFlagRequired("inventory")
	_ = optimizeCmd.MarkFlagRequired("price")
	rootCmd.AddCommand(optimizeCmd)
}
