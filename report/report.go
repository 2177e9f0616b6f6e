package report

import (
	"fmt"
	"io"
	"math"

	"github.com/viktsys/varbreach/models"
	"github.com/viktsys/varbreach/risk"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	backtestSheet = "Backtest"
	breachSheet   = "Breaches"
	dateLayout    = "2006-01-02"
)

// PrintSummary writes the row count, the date range and the backtest
// summary block.
func PrintSummary(w io.Writer, res *risk.Result) error {
	s := res.Summary

	first, last := "-", "-"
	if s.Rows > 0 {
		first = s.FirstDate.Format(dateLayout)
		last = s.LastDate.Format(dateLayout)
	}

	_, err := fmt.Fprintf(w, `Rows: %d
Date range: %s → %s

Backtest summary (rolling historical VaR, %d%% / %dd):
  days_tested:         %d
  breaches:            %d
  breach_pct:          %.2f
  expected_breach_pct: %.2f
  kupiec_lr:           %.4f
  kupiec_p_value:      %.4f
`,
		s.Rows, first, last,
		confidencePct(s.Confidence), s.Window,
		s.DaysTested, s.Breaches, s.BreachPct, s.ExpectedBreachPct,
		s.Kupiec.LR, s.Kupiec.PValue)
	return err
}

// WriteWorkbook saves the summary, every tested day and the breach days
// into an xlsx file at path.
func WriteWorkbook(path string, res *risk.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{backtestSheet, breachSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeSummary(f, res.Summary, bold); err != nil {
		return err
	}

	header := []interface{}{"trade_date", "return", "var_threshold", "var_loss", "breached"}
	var breaches []models.BreachFlag
	for _, fl := range res.Flags {
		if fl.Breached {
			breaches = append(breaches, fl)
		}
	}
	if err := writeFlags(f, backtestSheet, header, res.Flags, bold); err != nil {
		return err
	}
	if err := writeFlags(f, breachSheet, header, breaches, bold); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, s models.Summary, style int) error {
	first, last := "", ""
	if s.Rows > 0 {
		first = s.FirstDate.Format(dateLayout)
		last = s.LastDate.Format(dateLayout)
	}

	rows := [][]interface{}{
		{"metric", "value"},
		{"rows", s.Rows},
		{"first_date", first},
		{"last_date", last},
		{"window", s.Window},
		{"confidence", s.Confidence},
		{"days_tested", s.DaysTested},
		{"breaches", s.Breaches},
		{"breach_pct", s.BreachPct},
		{"expected_breach_pct", s.ExpectedBreachPct},
		{"kupiec_lr", s.Kupiec.LR},
		{"kupiec_p_value", s.Kupiec.PValue},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", style); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	return f.SetColWidth(summarySheet, "A", "A", 22)
}

func writeFlags(f *excelize.File, sheet string, header []interface{}, flags []models.BreachFlag, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, fl := range flags {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{fl.Date.Format(dateLayout), fl.Return, fl.Threshold, math.Abs(fl.Threshold), fl.Breached}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return f.SetColWidth(sheet, "A", "E", 14)
}

func confidencePct(c float64) int {
	return int(c*100 + 0.5)
}
