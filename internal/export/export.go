package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"manual-spec-rag/internal/models"
)

// Format is an output format for extracted records.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// Columns is the tabular layout shared by the CSV, XLSX and HTML exports.
var Columns = []string{"Component", "Type", "Value", "Unit", "Condition", "Part Number", "Page", "Confidence(%)"}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// FileExtension returns the typical file extension for this format
func (f Format) FileExtension() string {
	return "." + string(f)
}

// Report is everything an export may need from a run.
type Report struct {
	RunID     string
	Query     string
	Records   []models.SpecRecord
	Retrieved []models.ScoredChunk
}

// Write renders the report in the given format.
func Write(w io.Writer, format Format, report Report) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, report.Records)
	case FormatJSON:
		return WriteJSON(w, report.Records)
	case FormatXLSX:
		return WriteXLSX(w, report)
	case FormatHTML:
		return WriteHTMLReport(w, report)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// row flattens a record in Columns order.
func row(r models.SpecRecord) []string {
	page := ""
	if r.SourcePage != nil {
		page = strconv.Itoa(*r.SourcePage)
	}
	return []string{
		r.Component,
		string(r.SpecType),
		r.Value,
		r.Unit,
		r.Condition,
		r.PartNumber,
		page,
		strconv.Itoa(ConfidencePercent(r.Confidence)),
	}
}

// ConfidencePercent converts a 0..1 confidence to a rounded percentage.
func ConfidencePercent(c float64) int {
	return int(math.Round(c * 100))
}
