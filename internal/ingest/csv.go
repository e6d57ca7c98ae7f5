// Package ingest loads weekly sales series and store clustering sheets
// from the files and warehouse tables analysts actually have.
package ingest

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/retaillab/markdown-cli/internal/features"
	"github.com/retaillab/markdown-cli/internal/model"
)

// ReadWeeklyCSV parses a weekly sales series from r. Expected header:
// year_no, week_no, sales_units, discount_per, promo_week_flg, age.
// The series is validated (ordering, duplicates) before returning.
func ReadWeeklyCSV(r io.Reader) ([]model.WeeklyObservation, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err == io.EOF {
		return nil, eris.Wrap(model.ErrData, "ingest: empty csv input")
	} else if err != nil {
		return nil, eris.Wrap(err, "ingest: csv header")
	}

	var obs []model.WeeklyObservation
	for {
		var o model.WeeklyObservation
		if err := dec.Decode(&o); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(model.ErrData, "ingest: csv row %d: %v", len(obs)+2, err)
		}
		obs = append(obs, o)
	}

	if err := features.Validate(obs); err != nil {
		return nil, err
	}

	zap.L().Info("ingest: weekly series loaded", zap.Int("rows", len(obs)))
	return obs, nil
}

// ReadWeeklyCSVFile opens and parses a weekly series file.
func ReadWeeklyCSVFile(path string) ([]model.WeeklyObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ReadWeeklyCSV(f)
}
