package chunker

import (
	"fmt"
	"strings"
	"testing"

	"manual-spec-rag/internal/models"
)

func page(number int, lines ...string) models.ReconstructedPage {
	return models.ReconstructedPage{Number: number, Lines: lines}
}

func TestChunker_SectionCarriesAcrossPages(t *testing.T) {
	pages := []models.ReconstructedPage{
		page(1,
			"SECTION 303-01: ENGINE",
			"This section covers removal and installation of the engine assembly.",
			"TORQUE SPECIFICATIONS",
			"Camshaft bolt  115 Nm  85 lb-ft",
			"Oil pan bolts  10 Nm",
			"FLUID CAPACITIES",
			"Engine oil with filter  5.7 liters",
		),
		page(2, "Inspect the timing chain guides for wear and replace as needed."),
		page(3, "GROUP 307 TRANSMISSION"),
		page(4, "Transmission fluid pan bolts  12 Nm"),
	}

	chunks := New(300, 30).Build(pages)

	want := []struct {
		id       string
		section  string
		page     int
		priority bool
		prefix   string
	}{
		{"p1-s0", "303-01: ENGINE", 1, false, "SECTION 303-01: ENGINE"},
		{"p1-s1", "303-01: ENGINE", 1, true, "TORQUE SPECIFICATIONS"},
		{"p1-s2", "303-01: ENGINE", 1, true, "FLUID CAPACITIES"},
		{"p2-s0", "303-01: ENGINE", 2, false, "Inspect the timing chain"},
		{"p4-s0", "307: TRANSMISSION", 4, true, "Transmission fluid pan bolts"},
	}
	if len(chunks) != len(want) {
		t.Fatalf("Expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		c := chunks[i]
		if c.ID != w.id {
			t.Errorf("Chunk %d: expected id %q, got %q", i, w.id, c.ID)
		}
		if c.Section != w.section {
			t.Errorf("Chunk %d: expected section %q, got %q", i, w.section, c.Section)
		}
		if c.Page != w.page {
			t.Errorf("Chunk %d: expected page %d, got %d", i, w.page, c.Page)
		}
		if c.IsSpecPriority != w.priority {
			t.Errorf("Chunk %d: expected priority %v, got %v", i, w.priority, c.IsSpecPriority)
		}
		header := fmt.Sprintf("SECTION: %s\nPAGE: %d\nCONTENT: %s", w.section, w.page, w.prefix)
		if !strings.HasPrefix(c.Text, header) {
			t.Errorf("Chunk %d: expected text to start with %q, got %q", i, header, c.Text)
		}
	}
}

func TestChunker_DefaultSection(t *testing.T) {
	chunks := New(0, 0).Build([]models.ReconstructedPage{
		page(7, "Coolant  9.5 liters including heater core"),
	})
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	want := "SECTION: GENERAL INFORMATION\nPAGE: 7\nCONTENT: Coolant  9.5 liters including heater core"
	if chunks[0].Text != want {
		t.Errorf("Expected %q, got %q", want, chunks[0].Text)
	}
}

func TestSplitSegments(t *testing.T) {
	text := "Intro text\n  Torque Specifications\nBolt 10 Nm\nfluid capacities\nOil 4 qt"
	got := SplitSegments(text)
	want := []string{
		"Intro text\n",
		"  Torque Specifications\nBolt 10 Nm\n",
		"fluid capacities\nOil 4 qt",
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d segments, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Segment %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if got := SplitSegments("TORQUE SPECIFICATIONS\nBolt 10 Nm"); len(got) != 1 {
		t.Errorf("Expected header at offset 0 not to split, got %q", got)
	}
}

func TestIsSpecPriority(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"tighten to 115 Nm", true},
		{"85 lb-ft", true},
		{"30 ft-lb", true},
		{"7 N·m", true},
		{"12 psi", true},
		{"2.5 bar", true},
		{"0.3 mm", true},
		{"4 qt", true},
		{"1 quart", true},
		{"6 liters", true},
		{"1 liter", true},
		{"2 pt", true},
		{"Nm without a number", false},
		{"Step 3 of the procedure", false},
		{"15 barrels", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSpecPriority(tt.text); got != tt.want {
			t.Errorf("IsSpecPriority(%q): expected %v, got %v", tt.text, tt.want, got)
		}
	}
}

func TestDetectSection(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"SECTION 303-01: ENGINE", "303-01: ENGINE", true},
		{"intro\nGROUP 2A ENGINE MECHANICAL\nbody", "2A: ENGINE MECHANICAL", true},
		{"CHAPTER 12 - BRAKES", "12: BRAKES", true},
		{"SECTION 303-01: Engine Mechanical", "303-01: Engine Mechanical", true},
		{"Section 303-01: engine", "", false},
		{"SECTION ENGINE", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectSection(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("DetectSection(%q): expected (%q, %v), got (%q, %v)", tt.text, tt.want, tt.ok, got, ok)
		}
	}
}

func makeChunks(prefix string, n int, priority bool) []models.Chunk {
	out := make([]models.Chunk, n)
	for i := range out {
		out[i] = models.Chunk{ID: fmt.Sprintf("%s-%d", prefix, i), IsSpecPriority: priority}
	}
	return out
}

func TestSelectWithinBudget_PriorityCompleteness(t *testing.T) {
	// interleave so that priority chunks sit late in generation order
	general := makeChunks("g", 400, false)
	priority := makeChunks("p", 10, true)
	var all []models.Chunk
	all = append(all, general[:350]...)
	all = append(all, priority...)
	all = append(all, general[350:]...)

	got := SelectWithinBudget(all, 300)

	if len(got) != 300 {
		t.Fatalf("Expected 300 chunks, got %d", len(got))
	}
	for i := 0; i < 10; i++ {
		if got[i].ID != fmt.Sprintf("p-%d", i) {
			t.Errorf("Position %d: expected p-%d, got %s", i, i, got[i].ID)
		}
	}
	for i := 10; i < 300; i++ {
		if got[i].ID != fmt.Sprintf("g-%d", i-10) {
			t.Fatalf("Position %d: expected g-%d, got %s", i, i-10, got[i].ID)
		}
	}
}

func TestSelectWithinBudget_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		priority int
		general  int
		budget   int
		want     int
		wantGen  int
	}{
		{"under budget keeps all", 3, 4, 300, 7, 4},
		{"priority fills budget", 5, 4, 5, 5, 0},
		{"priority exceeds budget", 8, 4, 5, 5, 0},
		{"zero budget", 2, 2, 0, 0, 0},
		{"no priority", 0, 10, 6, 6, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := append(makeChunks("p", tt.priority, true), makeChunks("g", tt.general, false)...)
			got := SelectWithinBudget(all, tt.budget)
			if len(got) != tt.want {
				t.Fatalf("Expected %d chunks, got %d", tt.want, len(got))
			}
			gen := 0
			for _, c := range got {
				if !c.IsSpecPriority {
					gen++
				}
			}
			if gen != tt.wantGen {
				t.Errorf("Expected %d general chunks, got %d", tt.wantGen, gen)
			}
		})
	}
}

func TestChunker_ChunkAppliesBudget(t *testing.T) {
	var pages []models.ReconstructedPage
	for i := 1; i <= 5; i++ {
		pages = append(pages, page(i, "General description paragraph without any values at all."))
	}
	pages = append(pages, page(6, "Wheel lug nuts  204 Nm  150 lb-ft"))

	got := New(3, 30).Chunk(pages)
	if len(got) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(got))
	}
	if got[0].ID != "p6-s0" || !got[0].IsSpecPriority {
		t.Errorf("Expected priority chunk p6-s0 first, got %+v", got[0])
	}
	if got[1].ID != "p1-s0" || got[2].ID != "p2-s0" {
		t.Errorf("Expected general chunks p1-s0, p2-s0, got %s, %s", got[1].ID, got[2].ID)
	}
}
