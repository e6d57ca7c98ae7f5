package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/retaillab/markdown-cli/internal/db"
	"github.com/retaillab/markdown-cli/internal/ingest"
	"github.com/retaillab/markdown-cli/internal/model"
)

// loadSeries reads a weekly sales series from a CSV file or, when a
// product code is given instead, from the Postgres warehouse.
func loadSeries(ctx context.Context, csvPath, product string) ([]model.WeeklyObservation, error) {
	switch {
	case csvPath != "":
		return ingest.ReadWeeklyCSVFile(csvPath)
	case product != "":
		if cfg.Warehouse.DatabaseURL == "" {
			return nil, eris.New("warehouse database URL is required for --product (MARKDOWN_WAREHOUSE_DATABASE_URL)")
		}
		pool, err := db.Connect(ctx, cfg.Warehouse.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return ingest.NewObservationRepo(pool).Series(ctx, product)
	default:
		return nil, eris.New("either --csv or --product is required")
	}
}

func loadCoefficients(path string) (model.ElasticityCoefficients, error) {
	var coef model.ElasticityCoefficients
	b, err := os.ReadFile(path)
	if err != nil {
		return coef, eris.Wrap(err, "read coefficients file")
	}
	// Accept either the bare coefficients object or a full fit output
	// with a "coefficients" field, as written by the fit command.
	var wrapped struct {
		Coefficients *model.ElasticityCoefficients `json:"coefficients"`
	}
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Coefficients != nil {
		return *wrapped.Coefficients, nil
	}
	if err := json.Unmarshal(b, &coef); err != nil {
		return coef, eris.Wrap(err, "parse coefficients file")
	}
	return coef, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
