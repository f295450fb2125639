package parser

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"manual-spec-rag/internal/models"
)

const (
	// glyph gaps are measured in multiples of the font size
	joinGapRatio  = 0.15
	spaceGapRatio = 0.8
	sameLineSlack = 0.5
)

func loadPDF(data []byte) (pages []models.Page, err error) {
	// the pdf package panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, models.Page{Number: i})
			continue
		}
		pages = append(pages, models.Page{
			Number:    i,
			Fragments: mergeGlyphs(page.Content().Text),
		})
	}
	return pages, nil
}

// mergeGlyphs folds the per-glyph output of the pdf package into word and cell fragments.
// Close glyphs are concatenated, a word-sized gap inserts a space and anything wider starts
// a new fragment, which keeps table columns apart.
func mergeGlyphs(glyphs []pdf.Text) []models.Fragment {
	var (
		out  []models.Fragment
		cur  strings.Builder
		curX float64
		curY float64
		end  float64
		size float64
		open bool
	)
	flush := func() {
		if open && strings.TrimSpace(cur.String()) != "" {
			out = append(out, models.Fragment{Text: strings.TrimSpace(cur.String()), X: curX, Y: curY})
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		fs := g.FontSize
		if fs <= 0 {
			fs = 10
		}
		if open && math.Abs(g.Y-curY) <= sameLineSlack {
			gap := g.X - end
			switch {
			case gap <= joinGapRatio*fs:
				cur.WriteString(g.S)
				end = g.X + g.W
				continue
			case gap <= spaceGapRatio*size:
				cur.WriteByte(' ')
				cur.WriteString(g.S)
				end = g.X + g.W
				continue
			}
		}
		flush()
		cur.WriteString(g.S)
		curX, curY, end, size, open = g.X, g.Y, g.X+g.W, fs, true
	}
	flush()
	return out
}
