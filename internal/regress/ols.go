// Package regress fits the log-log demand elasticity model by ordinary
// least squares.
package regress

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/retaillab/markdown-cli/internal/model"
)

// numRegressors is the fixed design width: intercept, log_lag_sales,
// log_discount, log_lag_discount, promo_flag, age.
const numRegressors = 6

// rankTol is the relative singular-value threshold below which a design
// column is treated as collinear.
const rankTol = 1e-12

// Diagnostics summarizes fit quality. Sign anomalies are surfaced here
// rather than clamped: a negative discount elasticity is a business-level
// signal, not something the fitter silently corrects.
type Diagnostics struct {
	N          int      `json:"n"`
	RSquared   float64  `json:"r_squared"`
	AdjRSq     float64  `json:"adj_r_squared"`
	ResidualSE float64  `json:"residual_se"`
	Anomalies  []string `json:"anomalies,omitempty"`
}

// FitResult is the fitted model plus its diagnostics.
type FitResult struct {
	Coefficients model.ElasticityCoefficients `json:"coefficients"`
	Diagnostics  Diagnostics                  `json:"diagnostics"`
}

// Fit estimates the elasticity coefficients from training rows by
// minimizing the sum of squared residuals via QR decomposition.
//
// It wraps model.ErrFit when the design is underdetermined (fewer rows
// than the six regression columns, intercept included) or rank-deficient
// (collinear columns). An exactly determined design (n equal to the
// column count) is fitted; its residual diagnostics are zero by
// construction. It never falls back to degenerate coefficients.
func Fit(rows []model.FeatureRow) (*FitResult, error) {
	n := len(rows)
	if n < numRegressors {
		return nil, eris.Wrapf(model.ErrFit, "regress: %d training rows, need at least %d", n, numRegressors)
	}

	x := mat.NewDense(n, numRegressors, nil)
	y := mat.NewVecDense(n, nil)
	for i, r := range rows {
		x.SetRow(i, []float64{1, r.LogLagSales, r.LogDiscount, r.LogLagDiscount, r.PromoFlag, r.Age})
		y.SetVec(i, r.LogSales)
	}

	if rank := matrixRank(x); rank < numRegressors {
		return nil, eris.Wrapf(model.ErrFit, "regress: design matrix rank %d < %d (collinear columns)", rank, numRegressors)
	}

	var qr mat.QR
	qr.Factorize(x)

	beta := mat.NewVecDense(numRegressors, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return nil, eris.Wrapf(model.ErrFit, "regress: QR solve: %v", err)
	}

	coef := model.ElasticityCoefficients{
		Intercept:      beta.AtVec(0),
		LagSales:       beta.AtVec(1),
		LogDiscount:    beta.AtVec(2),
		LagLogDiscount: beta.AtVec(3),
		Promo:          beta.AtVec(4),
		Age:            beta.AtVec(5),
	}

	diag := diagnose(x, y, beta, coef)

	zap.L().Info("regress: elasticity model fitted",
		zap.Int("n", diag.N),
		zap.Float64("r_squared", diag.RSquared),
		zap.Float64("discount_elasticity", coef.LogDiscount),
	)
	for _, a := range diag.Anomalies {
		zap.L().Warn("regress: coefficient sign anomaly", zap.String("anomaly", a))
	}

	return &FitResult{Coefficients: coef, Diagnostics: diag}, nil
}

func diagnose(x *mat.Dense, y, beta *mat.VecDense, coef model.ElasticityCoefficients) Diagnostics {
	n, _ := x.Dims()

	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(x, beta)

	var rss, tss, mean float64
	for i := 0; i < n; i++ {
		mean += y.AtVec(i)
	}
	mean /= float64(n)
	for i := 0; i < n; i++ {
		res := y.AtVec(i) - fitted.AtVec(i)
		rss += res * res
		dev := y.AtVec(i) - mean
		tss += dev * dev
	}

	r2 := 0.0
	if tss > 0 {
		r2 = 1 - rss/tss
	}
	adj := r2
	if n > numRegressors {
		adj = 1 - (1-r2)*float64(n-1)/float64(n-numRegressors)
	}
	se := 0.0
	if n > numRegressors {
		se = math.Sqrt(rss / float64(n-numRegressors))
	}

	var anomalies []string
	if coef.LogDiscount <= 0 {
		anomalies = append(anomalies, "discount elasticity is non-positive; deeper markdowns predict lower sales")
	}
	if coef.Age > 0 {
		anomalies = append(anomalies, "age coefficient is positive; demand predicted to rise with product age")
	}

	return Diagnostics{
		N:          n,
		RSquared:   r2,
		AdjRSq:     adj,
		ResidualSE: se,
		Anomalies:  anomalies,
	}
}

// matrixRank counts singular values above the relative tolerance.
func matrixRank(x *mat.Dense) int {
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return 0
	}
	sv := svd.Values(nil)
	if len(sv) == 0 || sv[0] == 0 {
		return 0
	}
	rank := 0
	for _, s := range sv {
		if s > sv[0]*rankTol {
			rank++
		}
	}
	return rank
}
