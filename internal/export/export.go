// Package export renders scenario summaries and vesting schedules as an
// Excel workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"vestquest-engine/internal/model"
)

const (
	ScenariosSheet = "Scenarios"
	VestingSheet   = "Vesting"

	currencyFormat = "$#,##0"
)

// Schedule is one grant's vesting events.
type Schedule struct {
	GrantID string
	Events  []model.VestingEvent
}

var (
	scenarioHeaders = []string{"Scenario", "Grants", "Gross proceeds", "Exercise cost", "Tax liability", "Net proceeds", "Unresolved grants"}
	vestingHeaders  = []string{"Grant", "Date", "Shares", "Cumulative"}
)

// Workbook builds the workbook. The caller owns the returned file and must
// Close it.
func Workbook(summaries []model.ScenarioSummary, schedules []Schedule) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", ScenariosSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(VestingSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create vesting sheet: %w", err)
	}

	if err := writeScenarios(f, summaries); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeVesting(f, schedules); err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func WriteXLSX(w io.Writer, summaries []model.ScenarioSummary, schedules []Schedule) error {
	f, err := Workbook(summaries, schedules)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeScenarios(f *excelize.File, summaries []model.ScenarioSummary) error {
	if err := headers(f, ScenariosSheet, scenarioHeaders); err != nil {
		return err
	}

	for i, s := range summaries {
		row := i + 2
		values := []any{
			s.ScenarioName,
			s.GrantCount,
			s.GrossProceeds.InexactFloat64(),
			s.ExerciseCost.InexactFloat64(),
			s.TaxLiability.InexactFloat64(),
			s.NetProceeds.InexactFloat64(),
			strings.Join(s.Unresolved, ", "),
		}
		if err := writeRow(f, ScenariosSheet, row, values); err != nil {
			return err
		}
	}

	if len(summaries) == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(currencyFormat)})
	if err != nil {
		return fmt.Errorf("currency style: %w", err)
	}
	last := fmt.Sprintf("F%d", len(summaries)+1)
	if err := f.SetCellStyle(ScenariosSheet, "C2", last, style); err != nil {
		return fmt.Errorf("apply currency style: %w", err)
	}
	return f.SetColWidth(ScenariosSheet, "A", "A", 24)
}

func writeVesting(f *excelize.File, schedules []Schedule) error {
	if err := headers(f, VestingSheet, vestingHeaders); err != nil {
		return err
	}

	row := 2
	for _, s := range schedules {
		for _, e := range s.Events {
			values := []any{s.GrantID, e.Date.String(), e.Shares, e.Cumulative}
			if err := writeRow(f, VestingSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func headers(f *excelize.File, sheet string, names []string) error {
	values := make([]any, len(names))
	for i, h := range names {
		values[i] = h
	}
	return writeRow(f, sheet, 1, values)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func ptr(s string) *string { return &s }
