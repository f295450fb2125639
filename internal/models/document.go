package models

import "strings"

// Fragment is a piece of text positioned on a page. Y is the baseline, larger values are higher.
type Fragment struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Page holds the raw fragments of one source page.
type Page struct {
	Number    int        `json:"number"`
	Fragments []Fragment `json:"raw_fragments"`
}

// ReconstructedPage holds the reading-order lines of one page.
type ReconstructedPage struct {
	Number int      `json:"number"`
	Lines  []string `json:"lines"`
}

// Chunk is the unit of embedding and retrieval.
type Chunk struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Section        string    `json:"section"`
	Page           int       `json:"page"`
	IsSpecPriority bool      `json:"is_spec_priority"`
	Embedding      []float32 `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the embedding stage populated the chunk.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// Clone returns a copy that shares no memory with c.
func (c Chunk) Clone() Chunk {
	if c.Embedding != nil {
		emb := make([]float32, len(c.Embedding))
		copy(emb, c.Embedding)
		c.Embedding = emb
	}
	return c
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Document is the opaque binary input of a run.
type Document struct {
	Name string
	Data []byte
}

// Text joins the reconstructed lines with newlines.
func (p ReconstructedPage) Text() string {
	return strings.Join(p.Lines, "\n")
}
