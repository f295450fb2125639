package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"
)

const (
	recordsSheet   = "Specifications"
	retrievalSheet = "Retrieval"
)

// WriteXLSX writes a workbook with the records on the first sheet and the retrieval trace on
// the second.
func WriteXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	writeRow(f, recordsSheet, 1, toAny(Columns))
	for i, r := range report.Records {
		values := toAny(row(r))
		// Page and confidence stay numeric so they can be sorted and filtered.
		if r.SourcePage != nil {
			values[6] = *r.SourcePage
		}
		values[7] = ConfidencePercent(r.Confidence)
		writeRow(f, recordsSheet, i+2, values)
	}
	_ = f.SetColWidth(recordsSheet, "A", "A", 32)
	_ = f.SetColWidth(recordsSheet, "B", "D", 14)
	_ = f.SetColWidth(recordsSheet, "E", "F", 24)

	if _, err := f.NewSheet(retrievalSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	writeRow(f, retrievalSheet, 1, []any{"Rank", "Chunk", "Section", "Page", "Score", "Spec Priority"})
	for i, hit := range report.Retrieved {
		score := math.Round(hit.Score*10000) / 10000
		writeRow(f, retrievalSheet, i+2, []any{i + 1, hit.Chunk.ID, hit.Chunk.Section, hit.Chunk.Page, score, hit.Chunk.IsSpecPriority})
	}
	_ = f.SetColWidth(retrievalSheet, "C", "C", 32)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
