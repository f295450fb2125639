package extractor

import (
	"encoding/json"
	"regexp"
	"strings"

	"manual-spec-rag/internal/models"
)

var codeFenceRe = regexp.MustCompile(models.CodeFenceRegex)

// ParseRecordArray recovers a JSON array of objects from a model response. It tries the
// trimmed text, then the body of a surrounding code fence, then each balanced [...] block
// in order of appearance. Array elements that are not objects are skipped.
func ParseRecordArray(raw string) ([]map[string]any, bool) {
	text := strings.TrimSpace(raw)
	if items, ok := decodeArray(text); ok {
		return items, true
	}
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		if items, ok := decodeArray(strings.TrimSpace(m[1])); ok {
			return items, true
		}
	}
	for from := 0; from < len(text); {
		idx := strings.IndexByte(text[from:], '[')
		if idx < 0 {
			break
		}
		start := from + idx
		if end, ok := balancedEnd(text, start); ok {
			if items, ok := decodeArray(text[start : end+1]); ok {
				return items, true
			}
		}
		from = start + 1
	}
	return nil, false
}

func decodeArray(s string) ([]map[string]any, bool) {
	if s == "" {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(s), &elems); err != nil {
		return nil, false
	}
	items := make([]map[string]any, 0, len(elems))
	for _, el := range elems {
		var m map[string]any
		if err := json.Unmarshal(el, &m); err != nil || m == nil {
			continue
		}
		items = append(items, m)
	}
	return items, true
}

// balancedEnd returns the index of the bracket closing the one at start, skipping brackets
// inside JSON strings.
func balancedEnd(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
