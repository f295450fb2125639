package chromemdb

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"manual-spec-rag/internal/models"
)

const (
	metaPage     = "page"
	metaSection  = "section"
	metaPriority = "priority"
	metaOrder    = "order"

	collectionPrefix = "doc-"
)

// ChunkCache keeps embedded chunks of documents already processed in this process, keyed by
// the content hash of the document bytes. Every document gets its own in-memory chromem
// collection. Chunks handed out by Get are copies, so runs can never modify cached state.
//
// chromem normalizes embeddings on insert; cosine scores are unaffected.
type ChunkCache struct {
	db       *chromem.DB
	mu       sync.RWMutex
	manifest map[string][]string
}

func NewChunkCache() *ChunkCache {
	return &ChunkCache{
		db:       chromem.NewDB(),
		manifest: make(map[string][]string),
	}
}

// Get returns the cached chunks for key in their original order.
func (c *ChunkCache) Get(ctx context.Context, key string) ([]models.Chunk, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids, ok := c.manifest[key]
	if !ok {
		return nil, false, nil
	}
	collection := c.db.GetCollection(collectionPrefix+key, nil)
	if collection == nil {
		return nil, false, fmt.Errorf("collection for %s is missing", key)
	}

	chunks := make([]models.Chunk, 0, len(ids))
	for _, id := range ids {
		doc, err := collection.GetByID(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read chunk %s: %v", id, err)
		}
		chunk, err := toChunk(doc)
		if err != nil {
			return nil, false, err
		}
		chunks = append(chunks, chunk)
	}
	log.Debug().Str("key", key).Int("chunks", len(chunks)).Msg("Chunk cache hit")
	return chunks, true, nil
}

// Put stores embedded chunks under key. Storing a key twice keeps the first entry.
func (c *ChunkCache) Put(ctx context.Context, key string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if !chunk.HasEmbedding() {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		if isZero(chunk.Embedding) {
			return fmt.Errorf("chunk %s has a zero embedding", chunk.ID)
		}
		docs = append(docs, chromem.Document{
			ID:      chunk.ID,
			Content: chunk.Text,
			Metadata: map[string]string{
				metaPage:     strconv.Itoa(chunk.Page),
				metaSection:  chunk.Section,
				metaPriority: strconv.FormatBool(chunk.IsSpecPriority),
				metaOrder:    strconv.Itoa(i),
			},
			Embedding: append([]float32(nil), chunk.Embedding...),
		})
		ids = append(ids, chunk.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.manifest[key]; exists {
		return nil
	}

	collection, err := c.db.GetOrCreateCollection(collectionPrefix+key, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %v", err)
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		_ = c.db.DeleteCollection(collection.Name)
		return fmt.Errorf("failed to add chunks: %v", err)
	}
	c.manifest[key] = ids
	log.Debug().Str("key", key).Int("chunks", len(ids)).Msg("Cached chunks")
	return nil
}

// Evict drops a document from the cache.
func (c *ChunkCache) Evict(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.manifest[key]; !ok {
		return nil
	}
	delete(c.manifest, key)
	if err := c.db.DeleteCollection(collectionPrefix + key); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	return nil
}

// Len is the number of cached documents.
func (c *ChunkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.manifest)
}

func toChunk(doc chromem.Document) (models.Chunk, error) {
	page, err := strconv.Atoi(doc.Metadata[metaPage])
	if err != nil {
		return models.Chunk{}, fmt.Errorf("chunk %s: bad page metadata: %v", doc.ID, err)
	}
	priority, err := strconv.ParseBool(doc.Metadata[metaPriority])
	if err != nil {
		return models.Chunk{}, fmt.Errorf("chunk %s: bad priority metadata: %v", doc.ID, err)
	}
	return models.Chunk{
		ID:             doc.ID,
		Text:           doc.Content,
		Section:        doc.Metadata[metaSection],
		Page:           page,
		IsSpecPriority: priority,
		Embedding:      append([]float32(nil), doc.Embedding...),
	}, nil
}

func isZero(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return sum == 0 || math.IsNaN(sum)
}
