package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"closer-insights-go/internal/aggregator"
	"closer-insights-go/internal/processor"
	"closer-insights-go/internal/types"
)

const (
	callsSheet      = "Calls"
	categoriesSheet = "Objections"
	repsSheet       = "Reps"
)

// Export writes one row per report plus the objection rollups as an xlsx workbook.
func Export(w io.Writer, reports []processor.Report, objections aggregator.ObjectionReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", callsSheet); err != nil {
		return err
	}
	if err := writeCalls(f, reports); err != nil {
		return fmt.Errorf("calls sheet: %w", err)
	}
	if _, err := f.NewSheet(categoriesSheet); err != nil {
		return err
	}
	if err := writeCategories(f, objections.Categories); err != nil {
		return fmt.Errorf("objections sheet: %w", err)
	}
	if _, err := f.NewSheet(repsSheet); err != nil {
		return err
	}
	if err := writeReps(f, objections.Reps); err != nil {
		return fmt.Errorf("reps sheet: %w", err)
	}
	_, err := f.WriteTo(w)
	return err
}

func writeCalls(f *excelize.File, reports []processor.Report) error {
	header := []any{"call_id", "rep_name", "call_context", "overall_score", "fallback"}
	for _, p := range types.AllPhases {
		header = append(header, string(p))
	}
	header = append(header, "objections", "action")
	if err := setRow(f, callsSheet, 1, header); err != nil {
		return err
	}

	for i, r := range reports {
		byPhase := map[types.Phase]float64{}
		for _, s := range r.Result.Scores {
			byPhase[s.Phase] = s.Score
		}
		row := []any{r.CallID, r.RepName, string(r.CallContext), r.Result.OverallScore, r.Fallback}
		for _, p := range types.AllPhases {
			if v, ok := byPhase[p]; ok {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
		row = append(row, len(r.Objections), r.ActionCard.Action)
		if err := setRow(f, callsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeCategories(f *excelize.File, stats []aggregator.CategoryStats) error {
	if err := setRow(f, categoriesSheet, 1, []any{"category", "count", "success_rate", "aaa_rate", "avg_handling_score"}); err != nil {
		return err
	}
	for i, s := range stats {
		if err := setRow(f, categoriesSheet, i+2, []any{string(s.Category), s.Count, s.SuccessRate, s.AAARate, s.AvgHandlingScore}); err != nil {
			return err
		}
	}
	return nil
}

func writeReps(f *excelize.File, stats []aggregator.RepStats) error {
	if err := setRow(f, repsSheet, 1, []any{"rep_name", "calls", "objections", "success_rate", "aaa_rate", "avg_handling_score"}); err != nil {
		return err
	}
	for i, s := range stats {
		if err := setRow(f, repsSheet, i+2, []any{s.RepName, s.Calls, s.Objections, s.SuccessRate, s.AAARate, s.AvgHandlingScore}); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cellRef, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cellRef, &values)
}
