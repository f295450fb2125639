package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const (
	defaultHashDimensions = 512
	wordWeight            = 1.0
	bigramWeight          = 0.5
	domainTermWeight      = 3.0
)

// domainTerms get extra weight so that spec vocabulary dominates similarity.
var domainTerms = map[string]struct{}{
	"torque": {}, "tighten": {}, "tightening": {}, "nm": {}, "n·m": {}, "lb-ft": {}, "ft-lb": {},
	"capacity": {}, "capacities": {}, "fluid": {}, "oil": {}, "coolant": {}, "refrigerant": {},
	"liter": {}, "liters": {}, "qt": {}, "quart": {}, "quarts": {}, "pt": {},
	"pressure": {}, "psi": {}, "bar": {}, "clearance": {}, "gap": {}, "mm": {},
	"bolt": {}, "bolts": {}, "nut": {}, "nuts": {}, "specification": {}, "specifications": {},
	"part": {}, "temperature": {}, "voltage": {}, "volts": {},
}

// HashEmbedder is a deterministic local provider: words and character bigrams are hashed into
// a fixed number of buckets, counted, and the vector is L2-normalized. The same text always
// yields the same vector.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = defaultHashDimensions
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Dimensions() int {
	return h.dim
}

func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.vector(text), nil
}

func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	acc := make([]float64, h.dim)
	lower := strings.ToLower(text)

	for _, word := range strings.FieldsFunc(lower, isWordSeparator) {
		w := wordWeight
		if _, ok := domainTerms[word]; ok {
			w = domainTermWeight
		}
		acc[h.bucket("w:"+word)] += w
	}

	runes := []rune(strings.Join(strings.Fields(lower), " "))
	for i := 0; i+1 < len(runes); i++ {
		acc[h.bucket("b:"+string(runes[i:i+2]))] += bigramWeight
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	out := make([]float32, h.dim)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

func (h *HashEmbedder) bucket(token string) int {
	f := fnv.New32a()
	_, _ = f.Write([]byte(token))
	return int(f.Sum32() % uint32(h.dim))
}

func isWordSeparator(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' || r == '·')
}
