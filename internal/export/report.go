package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// WriteHTMLReport renders the records and the retrieval trace as a markdown document and
// converts it to HTML.
func WriteHTMLReport(w io.Writer, report Report) error {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(report)), &buf); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if _, err := io.WriteString(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Specification report</title></head><body>\n"); err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body></html>\n")
	return err
}

// Markdown is the report body before HTML conversion.
func Markdown(report Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Specifications\n\n")
	if report.Query != "" {
		fmt.Fprintf(&b, "**Query:** %s\n\n", escapeCell(report.Query))
	}
	if report.RunID != "" {
		fmt.Fprintf(&b, "Run `%s`\n\n", report.RunID)
	}

	if len(report.Records) == 0 {
		b.WriteString("No specifications found.\n\n")
	} else {
		writeTableRow(&b, Columns)
		seps := make([]string, len(Columns))
		for i := range seps {
			seps[i] = "---"
		}
		writeTableRow(&b, seps)
		for _, r := range report.Records {
			writeTableRow(&b, row(r))
		}
		b.WriteString("\n")
	}

	if len(report.Retrieved) > 0 {
		b.WriteString("## Retrieved context\n\n")
		writeTableRow(&b, []string{"Rank", "Chunk", "Section", "Page", "Score"})
		writeTableRow(&b, []string{"---", "---", "---", "---", "---"})
		for i, hit := range report.Retrieved {
			writeTableRow(&b, []string{
				fmt.Sprintf("%d", i+1),
				hit.Chunk.ID,
				hit.Chunk.Section,
				fmt.Sprintf("%d", hit.Chunk.Page),
				fmt.Sprintf("%.3f", hit.Score),
			})
		}
	}
	return b.String()
}

func writeTableRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
