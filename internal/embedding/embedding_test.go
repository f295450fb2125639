package embedding

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"manual-spec-rag/internal/models"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	h := NewHashEmbedder(128)
	a, _ := h.Embed(context.Background(), "Camshaft bolt torque 25 Nm")
	b, _ := h.Embed(context.Background(), "Camshaft bolt torque 25 Nm")

	if len(a) != 128 {
		t.Fatalf("Expected 128 dimensions, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Expected identical vectors, differ at %d", i)
		}
	}
	if math.Abs(norm(a)-1) > 1e-5 {
		t.Errorf("Expected unit norm, got %f", norm(a))
	}
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	h := NewHashEmbedder(0)
	v, err := h.Embed(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(v) != defaultHashDimensions {
		t.Errorf("Expected %d dimensions, got %d", defaultHashDimensions, len(v))
	}
	if norm(v) != 0 {
		t.Errorf("Expected zero vector, got norm %f", norm(v))
	}
}

func TestHashEmbedder_SimilarTextsScoreHigher(t *testing.T) {
	h := NewHashEmbedder(512)
	ctx := context.Background()
	query, _ := h.Embed(ctx, "cylinder head bolt torque")
	related, _ := h.Embed(ctx, "Cylinder head bolts: tighten to 40 Nm torque")
	unrelated, _ := h.Embed(ctx, "Remove the glove box and disconnect the harness")

	if dot(query, related) <= dot(query, unrelated) {
		t.Errorf("Expected related text to score higher: related %f, unrelated %f", dot(query, related), dot(query, unrelated))
	}
}

func TestHashEmbedder_BatchOrder(t *testing.T) {
	h := NewHashEmbedder(64)
	ctx := context.Background()
	texts := []string{"oil capacity", "spark plug gap", "tire pressure"}

	batch, err := h.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, text := range texts {
		single, _ := h.Embed(ctx, text)
		for j := range single {
			if single[j] != batch[i][j] {
				t.Fatalf("Batch vector %d does not match single embedding of %q", i, text)
			}
		}
	}
}

// fakeProvider is a scripted Provider used across tests.
type fakeProvider struct {
	mu         sync.Mutex
	embedErr   error
	batchErr   error
	batchCalls int
	dim        int
	shortBatch bool
}

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.vec(text), nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls++
	f.mu.Unlock()
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, f.vec(t))
	}
	if f.shortBatch && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeProvider) vec(text string) []float32 {
	v := make([]float32, f.dim)
	v[0] = float32(len(text))
	return v
}

func TestEmbedOne_RetriesAsBatch(t *testing.T) {
	p := &fakeProvider{dim: 4, embedErr: errors.New("connection reset")}

	v, err := EmbedOne(context.Background(), p, "abc")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.batchCalls != 1 {
		t.Errorf("Expected one batch retry, got %d", p.batchCalls)
	}
	if v[0] != 3 {
		t.Errorf("Expected retry vector, got %v", v)
	}
}

func TestEmbedOne_RetryFailure(t *testing.T) {
	p := &fakeProvider{dim: 4, embedErr: errors.New("boom"), batchErr: errors.New("still down")}

	_, err := EmbedOne(context.Background(), p, "abc")
	var embErr *models.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("Expected EmbeddingError, got %v", err)
	}
	if embErr.Kind != models.EmbeddingTransport {
		t.Errorf("Expected transport kind, got %s", embErr.Kind)
	}
}

func TestEmbedChunks(t *testing.T) {
	chunks := []models.Chunk{
		{ID: "p1-s0", Text: "a"},
		{ID: "p1-s1", Text: "bb"},
		{ID: "p2-s0", Text: "ccc"},
		{ID: "p3-s0", Text: "dddd"},
		{ID: "p3-s1", Text: "eeeee"},
	}
	p := &fakeProvider{dim: 3}

	out, err := EmbedChunks(context.Background(), p, chunks, 2, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.batchCalls != 3 {
		t.Errorf("Expected 3 batches, got %d", p.batchCalls)
	}
	for i, c := range out {
		if c.ID != chunks[i].ID {
			t.Errorf("Expected chunk %s at %d, got %s", chunks[i].ID, i, c.ID)
		}
		if int(c.Embedding[0]) != len(chunks[i].Text) {
			t.Errorf("Chunk %s got embedding for wrong text: %v", c.ID, c.Embedding)
		}
		if chunks[i].HasEmbedding() {
			t.Errorf("Input chunk %s was modified", chunks[i].ID)
		}
	}
}

func TestEmbedChunks_Failures(t *testing.T) {
	chunks := []models.Chunk{{ID: "p1-s0", Text: "a"}, {ID: "p1-s1", Text: "b"}}
	tests := []struct {
		name     string
		provider *fakeProvider
		want     models.EmbeddingErrorKind
	}{
		{"rate limited", &fakeProvider{dim: 2, batchErr: &models.EmbeddingError{Kind: models.EmbeddingRateLimit, Cause: errors.New("429")}}, models.EmbeddingRateLimit},
		{"transport", &fakeProvider{dim: 2, batchErr: errors.New("eof")}, models.EmbeddingTransport},
		{"count mismatch", &fakeProvider{dim: 2, shortBatch: true}, models.EmbeddingMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EmbedChunks(context.Background(), tt.provider, chunks, 10, 1)
			if out != nil {
				t.Errorf("Expected no chunks on failure, got %d", len(out))
			}
			var embErr *models.EmbeddingError
			if !errors.As(err, &embErr) {
				t.Fatalf("Expected EmbeddingError, got %v", err)
			}
			if embErr.Kind != tt.want {
				t.Errorf("Expected kind %s, got %s", tt.want, embErr.Kind)
			}
		})
	}
}
