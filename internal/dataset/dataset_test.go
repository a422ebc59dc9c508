package dataset

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"closer-insights-go/internal/aggregator"
	"closer-insights-go/internal/processor"
	"closer-insights-go/internal/types"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", ref, &r); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "calls.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDetectsColumns(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]any{
		{"Call ID", "Rep Name", "Call Context", "Direction", "Recording URL", "Transcript"},
		{"c-1", "Sam", "booked_call", "outbound", "", "REP: hello\nPARENT: hi"},
		{"c-2", "Alex", "", "", "https://example.com/c2.mp3", ""},
		{"c-3", "Alex", "", "", "not-a-url", ""},
		{"", "Jo", "warm_lead", "", "", "REP: welcome back"},
	})

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records want 3: %+v", len(got), got)
	}
	want0 := types.CallRecord{CallID: "c-1", RepName: "Sam", CallContext: "booked_call", Direction: "outbound", Transcript: "REP: hello\nPARENT: hi"}
	if got[0] != want0 {
		t.Fatalf("record 0: got %+v want %+v", got[0], want0)
	}
	if got[1].AudioURL != "https://example.com/c2.mp3" {
		t.Fatalf("record 1: %+v", got[1])
	}
	if got[2].CallID != "row-5" || got[2].CallContext != "warm_lead" {
		t.Fatalf("record 2: %+v", got[2])
	}
}

func TestLoadRejectsUnusableSheets(t *testing.T) {
	t.Parallel()

	if _, err := Load(writeWorkbook(t, [][]any{{"Call ID", "Transcript"}})); err == nil {
		t.Fatalf("expected error for header-only sheet")
	}
	if _, err := Load(writeWorkbook(t, [][]any{{"Name", "Notes"}, {"a", "b"}})); err == nil {
		t.Fatalf("expected error without transcript or audio column")
	}
}

func TestExportRoundTrip(t *testing.T) {
	t.Parallel()

	reports := []processor.Report{{
		CallID:      "c-1",
		RepName:     "Sam",
		CallContext: types.ContextWarmLead,
		Result: types.ScoringResult{
			OverallScore: 72.5,
			Scores:       []types.PhaseScore{{Phase: types.PhaseOpening, Score: 80}, {Phase: types.PhaseReinforce, Score: 65}},
		},
		Objections: []types.Objection{{Objection: "pricey", Category: types.CategoryPrice}},
	}}
	calls := []aggregator.CallObjections{{CallID: "c-1", RepName: "Sam", Objections: reports[0].Objections}}

	var buf bytes.Buffer
	if err := Export(&buf, reports, aggregator.BuildObjectionReport(calls, 5)); err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(callsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "c-1" || rows[1][2] != "warm_lead" {
		t.Fatalf("calls sheet: %v", rows)
	}
	cats, err := f.GetRows(categoriesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[1][0] != "price" {
		t.Fatalf("objections sheet: %v", cats)
	}
}

func TestReadExportedCallsIsNotAnImport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Export(&buf, nil, aggregator.ObjectionReport{}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := Read(&buf); err == nil {
		t.Fatalf("an empty export has no data rows and should not import")
	}
}
