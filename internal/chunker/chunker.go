// Package chunker splits reconstructed pages into section-tagged chunks and keeps every chunk
// that carries a quantitative specification ahead of general prose under a fixed budget.
//
// Section, sub-header and unit detection are regex heuristics. Missed or spurious matches are
// expected on unusual layouts and only shift a chunk between the priority and general sets.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"manual-spec-rag/internal/models"
)

var (
	sectionRe   = regexp.MustCompile(models.SectionHeaderRegex)
	subHeaderRe = regexp.MustCompile(models.SubHeaderRegex)
	specUnitRe  = regexp.MustCompile(models.SpecUnitRegex)
)

type Chunker struct {
	budget           int
	minSegmentLength int
}

// New returns a chunker. Non-positive arguments fall back to the defaults (300 chunks, 30 characters).
func New(budget, minSegmentLength int) *Chunker {
	if budget <= 0 {
		budget = models.DefaultChunkBudget
	}
	if minSegmentLength <= 0 {
		minSegmentLength = models.DefaultMinSegmentLength
	}
	return &Chunker{budget: budget, minSegmentLength: minSegmentLength}
}

// chunkState is the accumulator threaded through the page fold.
type chunkState struct {
	activeSection string
	chunks        []models.Chunk
}

// Chunk builds chunks for every page in order and applies the budget selection.
func (c *Chunker) Chunk(pages []models.ReconstructedPage) []models.Chunk {
	all := c.Build(pages)
	selected := SelectWithinBudget(all, c.budget)

	priority := 0
	for _, ch := range selected {
		if ch.IsSpecPriority {
			priority++
		}
	}
	log.Debug().
		Int("pages", len(pages)).
		Int("generated", len(all)).
		Int("selected", len(selected)).
		Int("spec_priority", priority).
		Msg("Chunked document")
	return selected
}

// Build returns every retained chunk in generation order, before budget selection.
func (c *Chunker) Build(pages []models.ReconstructedPage) []models.Chunk {
	state := chunkState{activeSection: models.DefaultSection}
	for _, page := range pages {
		state = c.foldPage(state, page)
	}
	return state.chunks
}

func (c *Chunker) foldPage(state chunkState, page models.ReconstructedPage) chunkState {
	text := page.Text()
	if section, ok := DetectSection(text); ok {
		state.activeSection = section
	}

	for i, segment := range SplitSegments(text) {
		body := strings.TrimSpace(segment)
		if len(body) < c.minSegmentLength {
			continue
		}
		state.chunks = append(state.chunks, models.Chunk{
			ID:             fmt.Sprintf(models.ChunkIDTemplate, page.Number, i),
			Text:           fmt.Sprintf(models.ChunkTemplate, state.activeSection, page.Number, body),
			Section:        state.activeSection,
			Page:           page.Number,
			IsSpecPriority: IsSpecPriority(body),
		})
	}
	return state
}

// DetectSection returns "<code>: <title>" for the first section header on the page.
func DetectSection(text string) (string, bool) {
	m := sectionRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("%s: %s", m[1], strings.TrimSpace(m[2])), true
}

// SplitSegments cuts text in front of every sub-header line; the header stays with the
// segment that follows it.
func SplitSegments(text string) []string {
	var (
		segments []string
		start    int
	)
	for _, loc := range subHeaderRe.FindAllStringIndex(text, -1) {
		if loc[0] == 0 || loc[0] == start {
			continue
		}
		segments = append(segments, text[start:loc[0]])
		start = loc[0]
	}
	return append(segments, text[start:])
}

// IsSpecPriority reports whether text holds a number directly followed by a known unit.
func IsSpecPriority(text string) bool {
	return specUnitRe.MatchString(text)
}

// SelectWithinBudget keeps every spec-priority chunk, then fills the remaining budget with
// general chunks. Both groups keep generation order and the result never exceeds budget.
func SelectWithinBudget(chunks []models.Chunk, budget int) []models.Chunk {
	var priority, general []models.Chunk
	for _, ch := range chunks {
		if ch.IsSpecPriority {
			priority = append(priority, ch)
		} else {
			general = append(general, ch)
		}
	}

	room := max(0, budget-len(priority))
	if room > len(general) {
		room = len(general)
	}
	selected := append(priority, general[:room]...)
	if len(selected) > budget {
		selected = selected[:max(0, budget)]
	}
	return selected
}
