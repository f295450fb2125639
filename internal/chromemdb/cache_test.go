package chromemdb

import (
	"context"
	"math"
	"testing"

	"manual-spec-rag/internal/models"
)

func sampleChunks() []models.Chunk {
	return []models.Chunk{
		{ID: "p1-s0", Text: "SECTION: GENERAL INFORMATION\nPAGE: 1\nCONTENT: intro", Section: "GENERAL INFORMATION", Page: 1, Embedding: []float32{1, 0, 0}},
		{ID: "p2-s1", Text: "SECTION: 303-01: ENGINE\nPAGE: 2\nCONTENT: 28 Nm", Section: "303-01: ENGINE", Page: 2, IsSpecPriority: true, Embedding: []float32{0, 3, 4}},
	}
}

func TestChunkCache_PutGet(t *testing.T) {
	ctx := context.Background()
	cache := NewChunkCache()

	if _, ok, err := cache.Get(ctx, "abc"); ok || err != nil {
		t.Fatalf("Expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Put(ctx, "abc", sampleChunks()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, ok, err := cache.Get(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	want := sampleChunks()
	if len(got) != len(want) {
		t.Fatalf("Expected %d chunks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Text != want[i].Text || got[i].Section != want[i].Section ||
			got[i].Page != want[i].Page || got[i].IsSpecPriority != want[i].IsSpecPriority {
			t.Errorf("Chunk %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	// Stored normalized: (0,3,4) becomes (0,0.6,0.8).
	if math.Abs(float64(got[1].Embedding[1])-0.6) > 1e-6 {
		t.Errorf("Expected normalized embedding, got %v", got[1].Embedding)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 cached document, got %d", cache.Len())
	}
}

func TestChunkCache_ReadOnlyCopies(t *testing.T) {
	ctx := context.Background()
	cache := NewChunkCache()
	if err := cache.Put(ctx, "abc", sampleChunks()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	first, _, _ := cache.Get(ctx, "abc")
	first[0].Embedding[0] = 42
	first[0].Text = "changed"

	second, _, _ := cache.Get(ctx, "abc")
	if second[0].Embedding[0] != 1 || second[0].Text == "changed" {
		t.Errorf("Expected cached chunk to be unaffected, got %+v", second[0])
	}
}

func TestChunkCache_RejectsUnembedded(t *testing.T) {
	ctx := context.Background()
	cache := NewChunkCache()

	chunks := sampleChunks()
	chunks[1].Embedding = nil
	if err := cache.Put(ctx, "abc", chunks); err == nil {
		t.Errorf("Expected error for chunk without embedding")
	}

	chunks = sampleChunks()
	chunks[0].Embedding = []float32{0, 0, 0}
	if err := cache.Put(ctx, "abc", chunks); err == nil {
		t.Errorf("Expected error for zero embedding")
	}
	if cache.Len() != 0 {
		t.Errorf("Expected nothing cached, got %d", cache.Len())
	}
}

func TestChunkCache_Evict(t *testing.T) {
	ctx := context.Background()
	cache := NewChunkCache()
	if err := cache.Put(ctx, "abc", sampleChunks()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := cache.Evict("abc"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "abc"); ok {
		t.Errorf("Expected miss after evict")
	}
}
