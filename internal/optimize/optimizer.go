// Package optimize searches the bounded, monotonicity-constrained
// discount-vector space for the schedule that maximizes total simulated
// horizon revenue.
package optimize

import (
	"context"
	"math"
	"runtime"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/retaillab/markdown-cli/internal/model"
	"github.com/retaillab/markdown-cli/internal/simulate"
)

// Recognized search methods.
const (
	MethodProjectedGradient = "projected-gradient"
	MethodNelderMead        = "nelder-mead"
)

// Default search budget.
const (
	DefaultMaxIterations = 200
	DefaultTolerance     = 1e-6

	fdStep  = 1e-6  // finite-difference step in discount space
	minStep = 1e-12 // line-search floor
)

// Options configures the search. Zero values take the documented
// defaults; an unrecognized Method is an error, never a silent fallback.
type Options struct {
	Method        string    `json:"method"`         // default "projected-gradient"
	MaxIterations int       `json:"max_iterations"` // default 200
	Tolerance     float64   `json:"tolerance"`      // relative improvement threshold, default 1e-6
	InitialGuess  []float64 `json:"initial_guess"`  // must be feasible; default even ramp lb..ub
	Parallel      bool      `json:"parallel"`       // parallel finite-difference evaluations
}

// Problem is one optimization instance: the fitted model plus the
// business scenario and per-week discount bounds.
type Problem struct {
	Params simulate.Params
	State  model.SimulationState
	Lower  float64
	Upper  float64
}

// Result reports the best schedule found. Converged=false means the
// search exhausted its budget without meeting the tolerance; the caller
// may retry with a different guess or relaxed settings. The returned
// vector is always feasible and never worse than the initial guess.
type Result struct {
	Discounts  []float64            `json:"discounts"`
	Revenue    float64              `json:"revenue"`
	Detail     *model.RevenueResult `json:"detail"`
	Converged  bool                 `json:"converged"`
	Status     string               `json:"status"`
	Iterations int                  `json:"iterations"`
}

// Solve maximizes simulated revenue over the feasible discount polytope.
func Solve(ctx context.Context, prob Problem, opts Options) (*Result, error) {
	if err := validateProblem(prob); err != nil {
		return nil, err
	}
	opts, err := normalizeOptions(opts, prob)
	if err != nil {
		return nil, err
	}

	// Probe the objective once so simulator input errors surface as
	// errors, not as a failed search.
	if _, err := simulate.Run(prob.Params, prob.State, opts.InitialGuess); err != nil {
		return nil, err
	}

	var res *Result
	switch opts.Method {
	case MethodProjectedGradient:
		res, err = solveProjectedGradient(ctx, prob, opts)
	case MethodNelderMead:
		res, err = solveNelderMead(ctx, prob, opts)
	}
	if err != nil {
		return nil, err
	}

	detail, err := simulate.Run(prob.Params, prob.State, res.Discounts)
	if err != nil {
		return nil, err
	}
	res.Detail = detail

	zap.L().Info("optimize: search finished",
		zap.String("method", opts.Method),
		zap.Bool("converged", res.Converged),
		zap.Int("iterations", res.Iterations),
		zap.Float64("revenue", res.Revenue),
		zap.Float64s("discounts", res.Discounts),
	)
	return res, nil
}

// DefaultGuess is an evenly increasing ramp from lb to ub, which is
// feasible for any bounds with lb <= ub.
func DefaultGuess(n int, lb, ub float64) []float64 {
	guess := make([]float64, n)
	if n == 1 {
		guess[0] = lb
		return guess
	}
	step := (ub - lb) / float64(n-1)
	for i := range guess {
		guess[i] = lb + step*float64(i)
	}
	return guess
}

func validateProblem(prob Problem) error {
	if prob.Lower < 0 || prob.Upper > 1 || prob.Lower > prob.Upper {
		return eris.Wrapf(model.ErrSimulation, "optimize: bounds [%g, %g] invalid", prob.Lower, prob.Upper)
	}
	if prob.Params.Horizon <= 0 {
		return eris.Wrapf(model.ErrSimulation, "optimize: horizon must be positive, got %d", prob.Params.Horizon)
	}
	return nil
}

func normalizeOptions(opts Options, prob Problem) (Options, error) {
	if opts.Method == "" {
		opts.Method = MethodProjectedGradient
	}
	if opts.Method != MethodProjectedGradient && opts.Method != MethodNelderMead {
		return opts, eris.Errorf("optimize: unrecognized method %q (want %q or %q)",
			opts.Method, MethodProjectedGradient, MethodNelderMead)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.InitialGuess == nil {
		opts.InitialGuess = DefaultGuess(prob.Params.Horizon, prob.Lower, prob.Upper)
	}
	if len(opts.InitialGuess) != prob.Params.Horizon {
		return opts, eris.Errorf("optimize: initial guess length %d != horizon %d",
			len(opts.InitialGuess), prob.Params.Horizon)
	}
	if !feasible(opts.InitialGuess, prob.Lower, prob.Upper, DefaultTolerance) {
		return opts, eris.Errorf("optimize: initial guess %v violates bounds or monotonicity", opts.InitialGuess)
	}
	return opts, nil
}

// revenueOf evaluates the objective. Candidate vectors are clamped to
// [0,1] so finite-difference probes near the box edge stay valid; the
// returned schedule is still projected onto the feasible polytope before
// acceptance.
func revenueOf(prob Problem, d []float64) float64 {
	clamped := make([]float64, len(d))
	for i, v := range d {
		clamped[i] = math.Min(1, math.Max(0, v))
	}
	res, err := simulate.Run(prob.Params, prob.State, clamped)
	if err != nil {
		// Validated up front; a failure here means the probe itself is
		// out of domain, which the clamp prevents.
		return math.Inf(-1)
	}
	return res.TotalRevenue
}

// gradient estimates the objective gradient by forward differences. Each
// probe allocates its own discount vector (and the simulator its own
// state), so parallel evaluation shares nothing mutable.
func gradient(ctx context.Context, prob Problem, x []float64, fx float64, parallel bool) ([]float64, error) {
	n := len(x)
	g := make([]float64, n)

	probe := func(i int) {
		xi := make([]float64, n)
		copy(xi, x)
		h := fdStep
		if xi[i]+h > 1 {
			h = -h
		}
		xi[i] += h
		g[i] = (revenueOf(prob, xi) - fx) / h
	}

	if !parallel {
		for i := 0; i < n; i++ {
			probe(i)
		}
		return g, nil
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			probe(i)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

// solveProjectedGradient runs gradient ascent with an Armijo backtracking
// line search, projecting every candidate onto the feasible polytope.
// Only improving steps are accepted, so the result can never regress
// below the initial guess.
func solveProjectedGradient(ctx context.Context, prob Problem, opts Options) (*Result, error) {
	x := projectMonotoneBand(opts.InitialGuess, prob.Lower, prob.Upper)
	fx := revenueOf(prob, x)

	iter := 0
	flat := 0
	for ; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "optimize: cancelled")
		}

		g, err := gradient(ctx, prob, x, fx, opts.Parallel)
		if err != nil {
			return nil, err
		}

		gnorm := norm2(g)
		if gnorm == 0 {
			return result(x, fx, true, "stationary point (zero gradient)", iter), nil
		}

		// First trial moves 0.1 in discount space, then halves.
		step := 0.1 / gnorm
		improved := false
		var y []float64
		var fy float64
		for step >= minStep {
			y = projectMonotoneBand(axpy(x, g, step), prob.Lower, prob.Upper)
			fy = revenueOf(prob, y)
			if fy > fx {
				improved = true
				break
			}
			step /= 2
		}

		if !improved {
			// No ascent direction survives projection: stationary.
			return result(x, fx, true, "projected-gradient stationary point", iter), nil
		}

		rel := (fy - fx) / (1 + math.Abs(fx))
		x, fx = y, fy
		if rel < opts.Tolerance {
			flat++
			if flat >= 2 {
				return result(x, fx, true, "converged within tolerance", iter+1), nil
			}
		} else {
			flat = 0
		}
	}

	return result(x, fx, false, "iteration limit reached", iter), nil
}

func result(x []float64, fx float64, converged bool, status string, iters int) *Result {
	d := make([]float64, len(x))
	copy(d, x)
	return &Result{
		Discounts:  d,
		Revenue:    fx,
		Converged:  converged,
		Status:     status,
		Iterations: iters,
	}
}

func axpy(x, g []float64, step float64) []float64 {
	y := make([]float64, len(x))
	for i := range x {
		y[i] = x[i] + step*g[i]
	}
	return y
}

func norm2(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
