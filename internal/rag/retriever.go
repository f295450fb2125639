package rag

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"manual-spec-rag/internal/models"
)

// CosineSimilarity is dot(a,b)/(|a|*|b|). It is 0 when the dimensions differ or either vector
// has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Retrieve scores every embedded chunk against the query and returns the best k, highest first.
// Chunks without an embedding are not candidates. Equal scores keep chunk order.
func Retrieve(query []float32, chunks []models.Chunk, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = models.DefaultTopK
	}
	scored := make([]models.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if !c.HasEmbedding() {
			continue
		}
		scored = append(scored, models.ScoredChunk{Chunk: c.Clone(), Score: CosineSimilarity(query, c.Embedding)})
	}
	if len(scored) == 0 {
		return nil, models.ErrNoEmbeddedChunks
	}

	slices.SortStableFunc(scored, func(a, b models.ScoredChunk) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// BuildContext joins the hit texts into the context handed to the extractor.
func BuildContext(hits []models.ScoredChunk) string {
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Chunk.Text)
	}
	return strings.Join(texts, models.ContextSeparator)
}
