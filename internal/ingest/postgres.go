package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/retaillab/markdown-cli/internal/db"
	"github.com/retaillab/markdown-cli/internal/features"
	"github.com/retaillab/markdown-cli/internal/model"
)

// ObservationRepo loads weekly sales series from the warehouse
// sales.weekly_product_sales table.
type ObservationRepo struct {
	pool db.Pool
}

// NewObservationRepo creates a repo. Returns nil if pool is nil.
func NewObservationRepo(pool db.Pool) *ObservationRepo {
	if pool == nil {
		return nil
	}
	return &ObservationRepo{pool: pool}
}

// Series fetches the full weekly series for a product, ordered by
// (year, week), and validates it before returning.
func (r *ObservationRepo) Series(ctx context.Context, productCode string) ([]model.WeeklyObservation, error) {
	if productCode == "" {
		return nil, eris.New("ingest: product code is required")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT year_no, week_no, sales_units, discount_per, promo_week_flg, age
		FROM sales.weekly_product_sales
		WHERE product_code = $1
		ORDER BY year_no, week_no`,
		productCode,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: query weekly series for %s", productCode)
	}
	defer rows.Close()

	var obs []model.WeeklyObservation
	for rows.Next() {
		var o model.WeeklyObservation
		if err := rows.Scan(&o.Year, &o.Week, &o.SalesUnits, &o.Discount, &o.PromoWeek, &o.Age); err != nil {
			return nil, eris.Wrap(err, "ingest: scan weekly row")
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "ingest: iterate weekly rows")
	}

	if err := features.Validate(obs); err != nil {
		return nil, err
	}

	zap.L().Info("ingest: weekly series fetched",
		zap.String("product_code", productCode),
		zap.Int("rows", len(obs)),
	)
	return obs, nil
}
