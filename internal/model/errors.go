package model

import "github.com/rotisserie/eris"

// Error classes for the planning pipeline. DataError and FitError abort
// the current run; simulation errors indicate invalid inputs rather than
// optimizer infeasibility. Optimization non-convergence is reported as a
// result status, not an error.
var (
	// ErrData marks an insufficient or malformed observation series
	// (too few rows, non-monotonic ordering, duplicate weeks).
	ErrData = eris.New("invalid observation series")

	// ErrFit marks a rank-deficient or underdetermined regression design.
	ErrFit = eris.New("ill-conditioned regression design")

	// ErrSimulation marks invalid simulator inputs (non-positive price,
	// negative inventory, discount outside [0,1], horizon mismatch).
	ErrSimulation = eris.New("invalid simulation input")
)
