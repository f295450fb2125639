package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"manual-spec-rag/internal/models"
)

func WriteCSV(w io.Writer, records []models.SpecRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records unchanged as an indented JSON array.
func WriteJSON(w io.Writer, records []models.SpecRecord) error {
	if records == nil {
		records = []models.SpecRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
