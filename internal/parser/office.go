package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"

	"manual-spec-rag/internal/models"
)

var (
	docxTokenRe = regexp.MustCompile(`<w:tr[ >]|</w:tr>|</w:tc>|</w:p>|<w:tab/>|<w:br [^>]*w:type="page"[^>]*/>|<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	slideTextRe = regexp.MustCompile(`<a:t>([^<]*)</a:t>`)
	slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

func loadDOCX(data []byte) ([]models.Page, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return docxLayout(r.Editable().GetContent()), nil
}

// docxLayout walks document.xml: table rows become one line with a cell per column,
// tabs split a paragraph into cells and explicit page breaks start a new page.
func docxLayout(content string) []models.Page {
	var (
		b     layoutBuilder
		inRow bool
		row   []string
		cells []string
		text  strings.Builder
	)
	endCell := func() {
		cells = append(cells, text.String())
		text.Reset()
	}

	for _, m := range docxTokenRe.FindAllStringSubmatch(content, -1) {
		tok := m[0]
		switch {
		case strings.HasPrefix(tok, "<w:tr"):
			inRow, row = true, nil
			text.Reset()
		case tok == "</w:tr>":
			b.line(row...)
			inRow, row = false, nil
		case tok == "</w:tc>":
			row = append(row, strings.TrimSpace(text.String()))
			text.Reset()
		case tok == "</w:p>":
			if inRow {
				text.WriteByte(' ')
				continue
			}
			endCell()
			b.line(cells...)
			cells = nil
		case tok == "<w:tab/>":
			if inRow {
				text.WriteByte(' ')
				continue
			}
			endCell()
		case strings.HasPrefix(tok, "<w:br"):
			if !inRow {
				endCell()
				b.line(cells...)
				cells = nil
			}
			b.pageBreak()
		default:
			text.WriteString(html.UnescapeString(m[1]))
		}
	}
	return b.build()
}

func loadXLSX(data []byte) ([]models.Page, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, err
	}

	var b layoutBuilder
	for _, sheet := range f.Sheets {
		b.line(fmt.Sprintf("SHEET: %s", sheet.Name))
		for _, r := range sheet.Rows {
			if r == nil {
				continue
			}
			cells := make([]string, 0, len(r.Cells))
			for _, cell := range r.Cells {
				cells = append(cells, cell.String())
			}
			b.line(cells...)
		}
		b.pageBreak()
	}
	return b.build(), nil
}

func loadPPTX(data []byte) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, file := range zr.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, file: file})
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("pptx has no slides")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var b layoutBuilder
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", s.file.Name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.file.Name, err)
		}
		for _, para := range strings.Split(string(raw), "</a:p>") {
			var line strings.Builder
			for _, m := range slideTextRe.FindAllStringSubmatch(para, -1) {
				line.WriteString(html.UnescapeString(m[1]))
			}
			b.line(line.String())
		}
		b.pageBreak()
	}
	return b.build(), nil
}
