package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retaillab/markdown-cli/internal/model"
)

const sampleCSV = `year_no,week_no,sales_units,discount_per,promo_week_flg,age
2013,50,120,0.10,0,94
2013,51,95,0.15,1,95
2013,52,48,0.579,1,96
`

func TestReadWeeklyCSV(t *testing.T) {
	obs, err := ReadWeeklyCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, 2013, obs[0].Year)
	assert.Equal(t, 50, obs[0].Week)
	assert.Equal(t, 120.0, obs[0].SalesUnits)
	assert.Equal(t, 0.10, obs[0].Discount)
	assert.Equal(t, 0, obs[0].PromoWeek)
	assert.Equal(t, 94, obs[0].Age)

	assert.Equal(t, 0.579, obs[2].Discount)
	assert.Equal(t, 1, obs[2].PromoWeek)
}

func TestReadWeeklyCSV_Empty(t *testing.T) {
	_, err := ReadWeeklyCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrData))
}

func TestReadWeeklyCSV_MalformedRow(t *testing.T) {
	bad := "year_no,week_no,sales_units,discount_per,promo_week_flg,age\n2013,50,not-a-number,0.1,0,94\n"
	_, err := ReadWeeklyCSV(strings.NewReader(bad))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrData))
}

func TestReadWeeklyCSV_UnorderedSeries(t *testing.T) {
	bad := "year_no,week_no,sales_units,discount_per,promo_week_flg,age\n2013,51,95,0.15,1,95\n2013,50,120,0.10,0,94\n"
	_, err := ReadWeeklyCSV(strings.NewReader(bad))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrData))
}

func TestReadWeeklyCSVFile_Missing(t *testing.T) {
	_, err := ReadWeeklyCSVFile("/nonexistent/series.csv")
	require.Error(t, err)
}
