package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retaillab/markdown-cli/internal/model"
)

func obs(year, week int, sales, disc float64, promo, age int) model.WeeklyObservation {
	return model.WeeklyObservation{
		Year: year, Week: week,
		SalesUnits: sales, Discount: disc,
		PromoWeek: promo, Age: age,
	}
}

func TestBuild_LagAlignment(t *testing.T) {
	series := []model.WeeklyObservation{
		obs(2013, 1, 120, 0.10, 0, 10),
		obs(2013, 2, 95, 0.15, 1, 11),
		obs(2013, 3, 140, 0.20, 1, 12),
		obs(2013, 4, 80, 0.25, 0, 13),
	}

	rows, err := Build(series)
	require.NoError(t, err)
	require.Len(t, rows, len(series)-1)

	// Each row's lag fields must equal the previous observation's own
	// log-transformed values.
	for i, r := range rows {
		prev := series[i]
		cur := series[i+1]
		assert.InDelta(t, math.Log(prev.SalesUnits+model.Epsilon), r.LogLagSales, 1e-12)
		assert.InDelta(t, math.Log(prev.Discount+model.Epsilon), r.LogLagDiscount, 1e-12)
		assert.InDelta(t, math.Log(cur.SalesUnits+model.Epsilon), r.LogSales, 1e-12)
		assert.Equal(t, cur.Week, r.Week)
	}

	// Chained: row i's lag sales equals row i-1's own log sales.
	for i := 1; i < len(rows); i++ {
		assert.InDelta(t, rows[i-1].LogSales, rows[i].LogLagSales, 1e-12)
	}
}

func TestBuild_EpsilonSafety(t *testing.T) {
	series := []model.WeeklyObservation{
		obs(2014, 1, 0, 0, 0, 1),
		obs(2014, 2, 0, 0, 0, 2),
	}

	rows, err := Build(series)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	for _, v := range []float64{rows[0].LogSales, rows[0].LogLagSales, rows[0].LogDiscount, rows[0].LogLagDiscount} {
		assert.False(t, math.IsInf(v, 0), "log of zero must be smoothed, got %v", v)
		assert.False(t, math.IsNaN(v))
		assert.InDelta(t, math.Log(model.Epsilon), v, 1e-9)
	}
}

func TestBuild_TooShort(t *testing.T) {
	rows, err := Build(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = Build([]model.WeeklyObservation{obs(2014, 1, 50, 0.1, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBuild_UnorderedSeries(t *testing.T) {
	series := []model.WeeklyObservation{
		obs(2014, 5, 50, 0.1, 0, 1),
		obs(2014, 3, 60, 0.1, 0, 2),
	}
	_, err := Build(series)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrData))
}

func TestBuild_DuplicateWeek(t *testing.T) {
	series := []model.WeeklyObservation{
		obs(2014, 3, 50, 0.1, 0, 1),
		obs(2014, 3, 60, 0.1, 0, 2),
	}
	_, err := Build(series)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrData))
}

func TestBuild_YearBoundaryOrdering(t *testing.T) {
	series := []model.WeeklyObservation{
		obs(2013, 52, 50, 0.1, 0, 1),
		obs(2014, 1, 60, 0.1, 0, 2),
	}
	rows, err := Build(series)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCutoff_Keep(t *testing.T) {
	c := Cutoff{Year: 2014, Week: 51}

	assert.True(t, c.Keep(2013, 52))
	assert.True(t, c.Keep(2014, 51))
	assert.False(t, c.Keep(2014, 52))
	assert.False(t, c.Keep(2015, 1))
}

func TestFilter(t *testing.T) {
	series := []model.WeeklyObservation{
		obs(2014, 49, 50, 0.1, 0, 1),
		obs(2014, 50, 60, 0.1, 0, 2),
		obs(2014, 51, 70, 0.1, 0, 3),
		obs(2014, 52, 80, 0.1, 1, 4),
	}
	rows, err := Build(series)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	kept := Filter(rows, Cutoff{Year: 2014, Week: 51})
	require.Len(t, kept, 2)
	assert.Equal(t, 50, kept[0].Week)
	assert.Equal(t, 51, kept[1].Week)
}
