package cluster

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/retaillab/markdown-cli/internal/model"
)

func TestBuildFeatures_MetricsAndEncoding(t *testing.T) {
	recs := []StoreRecord{
		{ID: "S1", Area: 1000, Zone: "North", SalesTotal: 50000, DiscTotal: 4999, COGSTotal: 30000},
		{ID: "S2", Area: 2000, Zone: "South", SalesTotal: 80000, DiscTotal: 7999, COGSTotal: 60000},
		{ID: "S3", Area: 1500, Zone: "North", SalesTotal: 20000, DiscTotal: 999, COGSTotal: 14000},
	}

	f, err := BuildFeatures(recs)
	require.NoError(t, err)

	require.Equal(t, []string{"S1", "S2", "S3"}, f.Stores)
	require.Equal(t, []string{"markdown_sensitivity", "np_per_sqft", "zone_North", "zone_South"}, f.Columns)

	rows, cols := f.Matrix.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, 4, cols)

	// Metric columns are z-scored: mean zero.
	for c := 0; c < 2; c++ {
		var sum float64
		for r := 0; r < rows; r++ {
			sum += f.Matrix.At(r, c)
		}
		assert.InDelta(t, 0, sum/float64(rows), 1e-9, "column %d not centered", c)
	}

	// One-hot zones.
	assert.Equal(t, 1.0, f.Matrix.At(0, 2)) // S1 North
	assert.Equal(t, 0.0, f.Matrix.At(0, 3))
	assert.Equal(t, 1.0, f.Matrix.At(1, 3)) // S2 South
	assert.Equal(t, 1.0, f.Matrix.At(2, 2)) // S3 North
}

func TestBuildFeatures_DropsNonFinite(t *testing.T) {
	recs := []StoreRecord{
		{ID: "ok1", Area: 1000, Zone: "A", SalesTotal: 1000, DiscTotal: 10, COGSTotal: 500},
		{ID: "zero-area", Area: 0, Zone: "A", SalesTotal: 1000, DiscTotal: 10, COGSTotal: 500},
		{ID: "ok2", Area: 900, Zone: "B", SalesTotal: 2000, DiscTotal: 20, COGSTotal: 800},
	}

	f, err := BuildFeatures(recs)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok1", "ok2"}, f.Stores)
}

func TestBuildFeatures_TooFewStores(t *testing.T) {
	_, err := BuildFeatures([]StoreRecord{
		{ID: "only", Area: 100, Zone: "A", SalesTotal: 10, DiscTotal: 1, COGSTotal: 5},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrData))
}

func TestCapOutliers(t *testing.T) {
	v := make([]float64, 100)
	for i := range v {
		v[i] = float64(i + 1)
	}
	v[99] = 1e9 // extreme outlier

	capOutliers(v)

	for _, x := range v {
		assert.LessOrEqual(t, x, 99.0+1) // capped near the 99th percentile
	}
}

func TestWard_TwoObviousClusters(t *testing.T) {
	// Two tight groups far apart.
	data := []float64{
		0.0, 0.1,
		0.1, 0.0,
		0.2, 0.1,
		10.0, 10.1,
		10.1, 10.0,
		10.2, 10.2,
	}
	x := mat.NewDense(6, 2, data)

	dg, err := Ward(x)
	require.NoError(t, err)
	require.Len(t, dg.Merges, 5)

	labels := dg.Cut(2)
	require.Len(t, labels, 6)
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[1], labels[2])
	assert.Equal(t, labels[3], labels[4])
	assert.Equal(t, labels[4], labels[5])
	assert.NotEqual(t, labels[0], labels[3])

	// The final merge joins the two groups at a large distance.
	last := dg.Merges[len(dg.Merges)-1]
	assert.Greater(t, last.Distance, 5.0)
	assert.Equal(t, 6, last.Size)
}

func TestWard_MergeDistancesNonDecreasingOnUniform(t *testing.T) {
	// Ward distances grow as clusters agglomerate on well-behaved data.
	data := make([]float64, 0, 16)
	for i := 0; i < 8; i++ {
		data = append(data, float64(i), float64(i%3))
	}
	x := mat.NewDense(8, 2, data)

	dg, err := Ward(x)
	require.NoError(t, err)
	for i := 1; i < len(dg.Merges); i++ {
		assert.GreaterOrEqual(t, dg.Merges[i].Distance+1e-9, dg.Merges[i-1].Distance,
			"merge %d distance regressed", i)
	}
}

func TestWard_CutExtremes(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 10, 11})
	dg, err := Ward(x)
	require.NoError(t, err)

	one := dg.Cut(1)
	for _, l := range one {
		assert.Equal(t, 0, l)
	}

	all := dg.Cut(4)
	seen := map[int]bool{}
	for _, l := range all {
		seen[l] = true
	}
	assert.Len(t, seen, 4)

	// Out-of-range k values are clamped.
	assert.Equal(t, one, dg.Cut(0))
	assert.Equal(t, all, dg.Cut(99))
}

func TestWard_SingleRow(t *testing.T) {
	_, err := Ward(mat.NewDense(1, 2, []float64{1, 2}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrData))
}

func TestCut_LabelsStableAcrossCalls(t *testing.T) {
	x := mat.NewDense(5, 1, []float64{0, 0.1, 5, 5.1, 5.2})
	dg, err := Ward(x)
	require.NoError(t, err)

	a := dg.Cut(2)
	b := dg.Cut(2)
	assert.Equal(t, a, b)
}

func ExampleDendrogram_Cut() {
	x := mat.NewDense(4, 1, []float64{0, 0.5, 9, 9.5})
	dg, _ := Ward(x)
	fmt.Println(dg.Cut(2))
	// Output: [0 0 1 1]
}
