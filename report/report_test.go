package report

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/varbreach/models"
	"github.com/viktsys/varbreach/risk"
	"github.com/xuri/excelize/v2"
)

func sampleResult() *risk.Result {
	d := func(i int) time.Time { return time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC) }

	flags := []models.BreachFlag{
		{Date: d(1), Return: -0.01, Threshold: -0.02, Breached: false},
		{Date: d(2), Return: -0.03, Threshold: -0.02, Breached: true},
		{Date: d(3), Return: 0.01, Threshold: -0.02, Breached: false},
	}
	params := risk.DefaultParams()
	prices := []models.PriceObservation{{Date: d(0), Price: 100}, {Date: d(3), Price: 101}}

	return &risk.Result{
		Params:  params,
		Prices:  prices,
		Flags:   flags,
		Summary: risk.Summarize(prices, flags, params),
	}
}

func TestWriteWorkbookZeroLoss(t *testing.T) {
	res := sampleResult()
	res.Flags = []models.BreachFlag{{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Return: 0, Threshold: 0}}

	path := filepath.Join(t.TempDir(), "var.xlsx")
	require.NoError(t, WriteWorkbook(path, res))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(backtestSheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Rows: 2")
	assert.Contains(t, out, "Date range: 2024-01-01 → 2024-01-04")
	assert.Contains(t, out, "95% / 250d")
	assert.Contains(t, out, "days_tested:         3")
	assert.Contains(t, out, "breaches:            1")
	assert.Contains(t, out, "breach_pct:          33.33")
	assert.Contains(t, out, "expected_breach_pct: 5.00")
}

func TestPrintSummaryEmpty(t *testing.T) {
	res, err := risk.Run(nil, risk.DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, res))
	assert.Contains(t, buf.String(), "Date range: - → -")
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "var.xlsx")
	require.NoError(t, WriteWorkbook(path, sampleResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, backtestSheet, breachSheet}, f.GetSheetList())

	v, err := f.GetCellValue(summarySheet, "B8")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	rows, err := f.GetRows(backtestSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rows, err = f.GetRows(breachSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-03", rows[1][0])
	ret, err := strconv.ParseFloat(rows[1][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, -0.03, ret, 1e-12)
	assert.Equal(t, "TRUE", rows[1][4])
}
