package ingest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/retaillab/markdown-cli/internal/cluster"
)

// Column positions in the clustering raw workbook. The sheet carries
// per-brand breakdowns between the totals; only the totals feed the
// segmentation metrics.
const (
	colStoreID = 0
	colArea    = 1
	colZone    = 2
	colSales   = 3
	colDisc    = 9
	colCOGS    = 15

	// The workbook has four banner/header rows before the data.
	headerRows = 4

	minStoreColumns = 16
)

// XLSXOptions configures the workbook parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	SkipRows   int    // header rows to skip; default 4
}

// ReadStoreXLSX reads store season aggregates from the clustering raw
// workbook. Unparseable numeric cells are coerced to zero, matching how
// analysts prepare this sheet.
func ReadStoreXLSX(path string, opts XLSXOptions) ([]cluster.StoreRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open workbook")
	}

	sheet, err := pickSheet(f, opts)
	if err != nil {
		return nil, err
	}

	skip := opts.SkipRows
	if skip == 0 {
		skip = headerRows
	}

	var recs []cluster.StoreRecord
	for i, row := range sheet.Rows {
		if i < skip {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		if len(cells) < minStoreColumns || strings.TrimSpace(cells[colStoreID]) == "" {
			continue
		}
		recs = append(recs, cluster.StoreRecord{
			ID:         strings.TrimSpace(cells[colStoreID]),
			Area:       numeric(cells[colArea]),
			Zone:       strings.TrimSpace(cells[colZone]),
			SalesTotal: numeric(cells[colSales]),
			DiscTotal:  numeric(cells[colDisc]),
			COGSTotal:  numeric(cells[colCOGS]),
		})
	}

	zap.L().Info("ingest: store workbook loaded", zap.String("path", path), zap.Int("stores", len(recs)))
	return recs, nil
}

func pickSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("ingest: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

// numeric parses a cell as float64, coercing junk to zero.
func numeric(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
