package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"manual-spec-rag/internal/models"
)

// Parser turns a document's bytes into pages of positioned fragments.
type Parser interface {
	LoadPages(name string, data []byte) ([]models.Page, error)
}

// FormatParser dispatches on the file extension of the document name.
type FormatParser struct{}

const (
	defaultPageNumber = 1
	syntheticColWidth = 200.0
	syntheticLineStep = 12.0
)

func (FormatParser) LoadPages(name string, data []byte) ([]models.Page, error) {
	return LoadPages(name, data)
}

// LoadPages extracts positioned fragments for every page. Any failure is a *models.DocumentOpenError.
func LoadPages(name string, data []byte) ([]models.Page, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var (
		pages []models.Page
		err   error
	)
	switch ext {
	case ".pdf":
		pages, err = loadPDF(data)
	case ".docx":
		pages, err = loadDOCX(data)
	case ".xlsx":
		pages, err = loadXLSX(data)
	case ".pptx":
		pages, err = loadPPTX(data)
	case ".txt":
		pages, err = loadText(data)
	default:
		err = fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, &models.DocumentOpenError{Name: name, Cause: err}
	}

	log.Debug().Str("document", name).Int("pages", len(pages)).Msg("Loaded document pages")
	return pages, nil
}

// layoutBuilder synthesizes coordinates for formats that have no geometry of their own:
// every line becomes a row and every cell a fragment one column further right.
// Every page break closes a page, blank or not, so page numbers follow the source.
type layoutBuilder struct {
	pages [][][]string
	cur   [][]string
}

func (b *layoutBuilder) line(cells ...string) {
	kept := make([]string, 0, len(cells))
	for _, c := range cells {
		kept = append(kept, strings.TrimSpace(c))
	}
	if strings.TrimSpace(strings.Join(kept, "")) == "" {
		return
	}
	b.cur = append(b.cur, kept)
}

func (b *layoutBuilder) pageBreak() {
	b.pages = append(b.pages, b.cur)
	b.cur = nil
}

func (b *layoutBuilder) build() []models.Page {
	if len(b.cur) > 0 {
		b.pageBreak()
	}
	pages := make([]models.Page, 0, len(b.pages))
	for i, lines := range b.pages {
		page := models.Page{Number: i + 1}
		for li, cells := range lines {
			y := float64(len(lines)-li) * syntheticLineStep
			for ci, cell := range cells {
				if cell == "" {
					continue
				}
				page.Fragments = append(page.Fragments, models.Fragment{
					Text: cell,
					X:    float64(ci) * syntheticColWidth,
					Y:    y,
				})
			}
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		pages = append(pages, models.Page{Number: defaultPageNumber})
	}
	return pages
}

var errInvalidUTF8 = errors.New("text document is not valid UTF-8")
