package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"manual-spec-rag/internal/models"
)

var columnGapRe = regexp.MustCompile(`\t+| {2,}`)

// loadText treats form feeds as page breaks and runs of two or more spaces or tabs as column gaps.
func loadText(data []byte) ([]models.Page, error) {
	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}
	var b layoutBuilder
	for _, page := range strings.Split(string(data), "\f") {
		for _, line := range strings.Split(strings.ReplaceAll(page, "\r\n", "\n"), "\n") {
			b.line(columnGapRe.Split(strings.TrimSpace(line), -1)...)
		}
		b.pageBreak()
	}
	return b.build(), nil
}
