// Package features turns a weekly sales/discount series into the
// log-space rows consumed by the elasticity fitter.
package features

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/retaillab/markdown-cli/internal/model"
)

// Cutoff selects the training window: rows at or before (Year, Week) are
// kept. Window selection is a policy decision supplied by the caller, not
// something the builder hardcodes.
type Cutoff struct {
	Year int
	Week int
}

// Keep reports whether a row dated (year, week) falls inside the window.
func (c Cutoff) Keep(year, week int) bool {
	if year != c.Year {
		return year < c.Year
	}
	return week <= c.Week
}

// Validate checks that the series is strictly ordered by (year, week)
// with no duplicates. It wraps model.ErrData on violation.
func Validate(obs []model.WeeklyObservation) error {
	for i := 1; i < len(obs); i++ {
		prev, cur := obs[i-1], obs[i]
		if cur.Year < prev.Year || (cur.Year == prev.Year && cur.Week < prev.Week) {
			return eris.Wrapf(model.ErrData, "features: series not ordered at index %d (%d/%d after %d/%d)",
				i, cur.Year, cur.Week, prev.Year, prev.Week)
		}
		if cur.Year == prev.Year && cur.Week == prev.Week {
			return eris.Wrapf(model.ErrData, "features: duplicate week %d/%d at index %d", cur.Year, cur.Week, i)
		}
	}
	return nil
}

// Build derives one FeatureRow per observation that has a defined
// predecessor. The first observation is dropped, never zero-filled: a
// spurious zero lag would corrupt the earliest elasticity estimate.
// Fewer than two observations yields an empty slice and no error.
func Build(obs []model.WeeklyObservation) ([]model.FeatureRow, error) {
	if err := Validate(obs); err != nil {
		return nil, err
	}
	if len(obs) < 2 {
		zap.L().Debug("features: series too short to build lag rows", zap.Int("rows", len(obs)))
		return []model.FeatureRow{}, nil
	}

	rows := make([]model.FeatureRow, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		prev, cur := obs[i-1], obs[i]
		rows = append(rows, model.FeatureRow{
			LogSales:       safeLog(cur.SalesUnits),
			LogLagSales:    safeLog(prev.SalesUnits),
			LogDiscount:    safeLog(cur.Discount),
			LogLagDiscount: safeLog(prev.Discount),
			PromoFlag:      float64(cur.PromoWeek),
			Age:            float64(cur.Age),
			Year:           cur.Year,
			Week:           cur.Week,
		})
	}
	return rows, nil
}

// Filter returns the rows inside the training window.
func Filter(rows []model.FeatureRow, cutoff Cutoff) []model.FeatureRow {
	kept := make([]model.FeatureRow, 0, len(rows))
	for _, r := range rows {
		if cutoff.Keep(r.Year, r.Week) {
			kept = append(kept, r)
		}
	}
	return kept
}

// safeLog applies the additive epsilon uniformly before the logarithm so
// zero sales and zero discount stay finite.
func safeLog(v float64) float64 {
	return math.Log(v + model.Epsilon)
}
