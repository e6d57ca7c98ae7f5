// Package cluster segments stores by markdown sensitivity and
// profitability using Ward-linkage agglomerative clustering.
package cluster

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/retaillab/markdown-cli/internal/model"
)

// capQuantile is the percentile at which metric outliers are capped.
const capQuantile = 0.99

// StoreRecord is one store's season aggregates from the clustering
// workbook.
type StoreRecord struct {
	ID         string  `json:"store_id"`
	Area       float64 `json:"store_area"` // square feet
	Zone       string  `json:"zone"`
	SalesTotal float64 `json:"sales_total"`
	DiscTotal  float64 `json:"disc_total"`
	COGSTotal  float64 `json:"cogs_total"`
}

// Features is the scaled model matrix for clustering: two z-scored
// metric columns followed by one-hot zone indicators. Rows align with
// Stores.
type Features struct {
	Stores  []string
	Columns []string
	Matrix  *mat.Dense
}

// BuildFeatures derives the clustering metrics, caps outliers at the 99th
// percentile, z-scores the metric columns, and one-hot encodes zones.
// Stores with non-finite metrics (e.g. zero area) are dropped.
func BuildFeatures(recs []StoreRecord) (*Features, error) {
	type row struct {
		id          string
		zone        string
		sensitivity float64
		npPerSqFt   float64
	}

	rows := make([]row, 0, len(recs))
	for _, r := range recs {
		// +1 in the denominator avoids division by zero for stores with
		// no recorded markdowns.
		sens := r.SalesTotal / (r.DiscTotal + 1)
		np := (r.SalesTotal - r.COGSTotal) / r.Area
		if !isFinite(sens) || !isFinite(np) {
			zap.L().Debug("cluster: dropping store with non-finite metrics", zap.String("store_id", r.ID))
			continue
		}
		rows = append(rows, row{id: r.ID, zone: r.Zone, sensitivity: sens, npPerSqFt: np})
	}
	if len(rows) < 2 {
		return nil, eris.Wrapf(model.ErrData, "cluster: %d usable stores, need at least 2", len(rows))
	}

	sens := make([]float64, len(rows))
	np := make([]float64, len(rows))
	for i, r := range rows {
		sens[i] = r.sensitivity
		np[i] = r.npPerSqFt
	}
	capOutliers(sens)
	capOutliers(np)
	zscore(sens)
	zscore(np)

	zones := make([]string, 0)
	seen := map[string]int{}
	for _, r := range rows {
		if _, ok := seen[r.zone]; !ok {
			seen[r.zone] = 0
			zones = append(zones, r.zone)
		}
	}
	sort.Strings(zones)
	for i, z := range zones {
		seen[z] = i
	}

	cols := []string{"markdown_sensitivity", "np_per_sqft"}
	for _, z := range zones {
		cols = append(cols, "zone_"+z)
	}

	m := mat.NewDense(len(rows), 2+len(zones), nil)
	stores := make([]string, len(rows))
	for i, r := range rows {
		stores[i] = r.id
		m.Set(i, 0, sens[i])
		m.Set(i, 1, np[i])
		m.Set(i, 2+seen[r.zone], 1)
	}

	return &Features{Stores: stores, Columns: cols, Matrix: m}, nil
}

// capOutliers caps values above the 99th percentile in place.
func capOutliers(v []float64) {
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	q := stat.Quantile(capQuantile, stat.Empirical, sorted, nil)
	for i := range v {
		if v[i] > q {
			v[i] = q
		}
	}
}

// zscore standardizes v in place. A zero-variance column is left
// centered only.
func zscore(v []float64) {
	mean, std := stat.MeanStdDev(v, nil)
	for i := range v {
		v[i] -= mean
		if std > 0 {
			v[i] /= std
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
