// Package dataset imports call batches from spreadsheets and exports scored
// results back to a workbook.
package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"closer-insights-go/internal/types"
)

type columns struct {
	callID, rep, context, direction, audio, transcript int
}

// detectColumns maps header cells onto fields by keyword. Unmatched fields are -1.
func detectColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1, -1}
	set := func(idx *int, i int) {
		if *idx == -1 {
			*idx = i
		}
	}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript") || l == "text":
			set(&c.transcript, i)
		case strings.Contains(l, "audio") || strings.Contains(l, "recording") || strings.Contains(l, "url") || strings.Contains(l, "link"):
			set(&c.audio, i)
		case strings.Contains(l, "context") || strings.Contains(l, "call type") || l == "type" || strings.Contains(l, "stage"):
			set(&c.context, i)
		case strings.Contains(l, "direction") || strings.Contains(l, "initiat") || strings.Contains(l, "caller"):
			set(&c.direction, i)
		case strings.Contains(l, "rep") || strings.Contains(l, "agent") || strings.Contains(l, "closer"):
			set(&c.rep, i)
		case strings.Contains(l, "call id") || strings.Contains(l, "callid") || strings.Contains(l, "call_id") || l == "id":
			set(&c.callID, i)
		}
	}
	return c
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Load reads the first sheet of the workbook at path.
func Load(path string) ([]types.CallRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return readRecords(f)
}

// Read is Load for an uploaded workbook.
func Read(r io.Reader) ([]types.CallRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readRecords(f)
}

func readRecords(f *excelize.File) ([]types.CallRecord, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.transcript == -1 && cols.audio == -1 {
		return nil, fmt.Errorf("no transcript or audio column in header %v", rows[0])
	}

	var out []types.CallRecord
	for i, r := range rows[1:] {
		rec := types.CallRecord{
			CallID:      cell(r, cols.callID),
			RepName:     cell(r, cols.rep),
			CallContext: cell(r, cols.context),
			Direction:   cell(r, cols.direction),
			Transcript:  cell(r, cols.transcript),
			AudioURL:    cell(r, cols.audio),
		}
		if !strings.HasPrefix(strings.ToLower(rec.AudioURL), "http://") && !strings.HasPrefix(strings.ToLower(rec.AudioURL), "https://") {
			rec.AudioURL = ""
		}
		if rec.Transcript == "" && rec.AudioURL == "" {
			continue
		}
		if rec.CallID == "" {
			rec.CallID = fmt.Sprintf("row-%d", i+2)
		}
		out = append(out, rec)
	}
	return out, nil
}
