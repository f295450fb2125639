package extractor

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"manual-spec-rag/internal/models"
)

// keySynonyms is ordered: when several synonyms of one key are present, the earliest wins.
var keySynonyms = []struct{ from, to string }{
	{"specType", "spec_type"},
	{"spectype", "spec_type"},
	{"type", "spec_type"},
	{"sourcePage", "source_page"},
	{"page_number", "source_page"},
	{"page", "source_page"},
	{"sourceContext", "source_context"},
	{"context", "source_context"},
	{"source", "source_context"},
	{"partNumber", "part_number"},
	{"part_no", "part_number"},
	{"name", "component"},
	{"units", "unit"},
}

var optionalStrings = []string{"part_number", "condition", "source_context"}

var allowedKeys = map[string]struct{}{
	"component": {}, "spec_type": {}, "value": {}, "unit": {}, "part_number": {},
	"condition": {}, "source_page": {}, "confidence": {}, "source_context": {},
}

// Normalize repairs common model deviations: synonym keys, numbers where strings are
// expected (and the reverse), loose spec_type spellings and percentage confidences.
// Unknown keys and empty optionals are removed. The input map is not modified.
func Normalize(item map[string]any) map[string]any {
	m := make(map[string]any, len(item))
	for k, v := range item {
		m[k] = v
	}
	for _, syn := range keySynonyms {
		if v, ok := m[syn.from]; ok {
			if _, exists := m[syn.to]; !exists {
				m[syn.to] = v
			}
			delete(m, syn.from)
		}
	}

	for _, k := range []string{"component", "value", "unit"} {
		switch t := m[k].(type) {
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case string:
			m[k] = strings.TrimSpace(t)
		case nil:
			if k == "unit" {
				m[k] = ""
			}
		}
	}

	if s, ok := m["spec_type"].(string); ok {
		if st, ok := models.ParseSpecType(s); ok {
			m["spec_type"] = string(st)
		}
	}

	switch t := m["source_page"].(type) {
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.ToLower(t), "p"))); err == nil {
			m["source_page"] = float64(n)
		} else {
			delete(m, "source_page")
		}
	case float64:
		if t != math.Trunc(t) {
			m["source_page"] = math.Trunc(t)
		}
	case nil:
		delete(m, "source_page")
	}

	switch t := m["confidence"].(type) {
	case string:
		s := strings.TrimSpace(t)
		percent := strings.HasSuffix(s, "%")
		if f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64); err == nil {
			if percent || f > 1 {
				f /= 100
			}
			m["confidence"] = f
		}
	case float64:
		if t > 1 && t <= 100 {
			m["confidence"] = t / 100
		}
	}

	for _, k := range optionalStrings {
		switch t := m[k].(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				m[k] = s
			} else {
				delete(m, k)
			}
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			delete(m, k)
		}
	}

	for k := range m {
		if _, ok := allowedKeys[k]; !ok {
			delete(m, k)
		}
	}
	return m
}

// scaleConfidence reads values from 2 to 100 as percentages and clamps a slight
// overshoot below 2 to 1.
func scaleConfidence(f float64) float64 {
	switch {
	case f >= 2 && f <= 100:
		return f / 100
	case f > 1 && f < 2:
		return 1
	}
	return f
}

var quantityRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(n·m|n\.m|n-m|nm|lb-ft|ft-lb|lbf-ft|lb-in|in-lb|kgf-m|liters?|litres?|quarts?|qt|pints?|pt|psi|kpa|bar|mm|l)\b`)

// SplitDualUnit turns a record carrying one quantity in two units, e.g. value "115 Nm (85 lb-ft)",
// into one record per unit. Records with a single quantity are returned unchanged.
func SplitDualUnit(rec models.SpecRecord) []models.SpecRecord {
	combined := strings.TrimSpace(rec.Value + " " + rec.Unit)
	matches := quantityRe.FindAllStringSubmatch(combined, -1)
	if len(matches) < 2 {
		return []models.SpecRecord{rec}
	}

	out := make([]models.SpecRecord, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		unitKey := strings.ToLower(m[2])
		if _, dup := seen[unitKey]; dup {
			continue
		}
		seen[unitKey] = struct{}{}
		r := rec
		r.Value = m[1]
		r.Unit = m[2]
		out = append(out, r)
	}
	if len(out) < 2 {
		return []models.SpecRecord{rec}
	}
	return out
}

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// IsGrounded reports whether the record's value literally occurs in the context: every number in
// the value must appear as a number in the context, and values without digits must appear as text.
func IsGrounded(rec models.SpecRecord, context string) bool {
	nums := numberRe.FindAllString(rec.Value, -1)
	if len(nums) == 0 {
		return strings.Contains(strings.ToLower(context), strings.ToLower(rec.Value))
	}
	present := make(map[string]struct{})
	for _, n := range numberRe.FindAllString(context, -1) {
		present[canonicalNumber(n)] = struct{}{}
	}
	for _, n := range nums {
		if _, ok := present[canonicalNumber(n)]; !ok {
			return false
		}
	}
	return true
}

// canonicalNumber makes "0.80" and "0.8" compare equal.
func canonicalNumber(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
