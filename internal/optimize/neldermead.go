package optimize

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	gopt "gonum.org/v1/gonum/optimize"
)

// solveNelderMead runs gonum's Nelder-Mead simplex on a penalized
// objective: candidates are projected onto the feasible polytope before
// simulation, and the squared distance to that projection is charged as
// an exact penalty so the simplex is pulled back toward feasibility.
// The final point is re-projected and never accepted if it is worse than
// the initial guess.
func solveNelderMead(ctx context.Context, prob Problem, opts Options) (*Result, error) {
	guess := projectMonotoneBand(opts.InitialGuess, prob.Lower, prob.Upper)
	fGuess := revenueOf(prob, guess)
	weight := 1e3 * (1 + math.Abs(fGuess))

	objective := gopt.Problem{
		Func: func(x []float64) float64 {
			proj := projectMonotoneBand(x, prob.Lower, prob.Upper)
			dist := 0.0
			for i := range x {
				d := x[i] - proj[i]
				dist += d * d
			}
			return -revenueOf(prob, proj) + weight*dist
		},
	}

	settings := &gopt.Settings{
		MajorIterations: opts.MaxIterations,
		Converger: &gopt.FunctionConverge{
			Absolute:   opts.Tolerance * (1 + math.Abs(fGuess)),
			Iterations: 2 * prob.Params.Horizon,
		},
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "optimize: cancelled")
	}

	sol, err := gopt.Minimize(objective, guess, settings, &gopt.NelderMead{})
	if sol == nil {
		return nil, eris.Wrap(err, "optimize: nelder-mead")
	}

	x := projectMonotoneBand(sol.X, prob.Lower, prob.Upper)
	fx := revenueOf(prob, x)

	converged := err == nil && sol.Status == gopt.FunctionConvergence
	status := "nelder-mead: " + sol.Status.String()
	if err != nil {
		converged = false
		status = "nelder-mead: " + err.Error()
	}

	// Never regress below the supplied guess.
	if fx < fGuess {
		x, fx = guess, fGuess
		status += " (result discarded, kept initial guess)"
	}

	return result(x, fx, converged, status, sol.Stats.MajorIterations), nil
}
