package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tohfas/RAG-Access-Control/internal/ai"
	"github.com/tohfas/RAG-Access-Control/internal/model"
)

// Builder embeds segments and assembles a request-scoped similarity index.
// One Builder is safe for concurrent use; every Build call produces an
// independent index owned by a single request.
type Builder struct {
	embedder ai.IEmbedder
}

func NewBuilder(embedder ai.IEmbedder) *Builder {
	return &Builder{embedder: embedder}
}

// Index is an ephemeral flat cosine index over one request's permitted
// segments: brute-force scoring, exact nearest neighbors. It is read-only
// once built and must be closed when the request finishes.
type Index struct {
	embedder ai.IEmbedder
	vectors  [][]float32
	segments []model.Segment
}

// Build embeds every segment and indexes it. The caller guarantees a non-empty
// segment list; the index dimension is taken from the first vector the
// embedding model returns, and every later vector must match it.
func (b *Builder) Build(ctx context.Context, segments []model.Segment) (*Index, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("build index: empty segment list")
	}
	vectors := make([][]float32, 0, len(segments))
	for _, seg := range segments {
		vector, err := b.embedder.Embed(ctx, seg.Text, ai.TaskRetrievalDocument)
		if err != nil {
			return nil, fmt.Errorf("embed segment from %s: %w", seg.Source, err)
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("embed segment from %s: empty vector", seg.Source)
		}
		if len(vectors) > 0 && len(vector) != len(vectors[0]) {
			return nil, fmt.Errorf("embed segment from %s: dimension %d, index has %d", seg.Source, len(vector), len(vectors[0]))
		}
		vectors = append(vectors, vector)
	}
	logutil.GetLogger(ctx).Debug("built ephemeral index",
		zap.Int("segments", len(segments)),
		zap.Int("dimension", len(vectors[0])),
		zap.String("embed_model", b.embedder.ModelName()),
	)
	idx := &Index{
		embedder: b.embedder,
		vectors:  vectors,
		segments: append([]model.Segment(nil), segments...),
	}
	return idx, nil
}

// Search embeds the question with the same model the index was built with and
// returns up to k segments, most similar first.
func (i *Index) Search(ctx context.Context, question string, k int) ([]model.Segment, error) {
	if len(i.segments) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 4
	}
	query, err := i.embedder.Embed(ctx, question, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	type match struct {
		pos   int
		score float32
	}
	matches := make([]match, len(i.vectors))
	for pos, vector := range i.vectors {
		matches[pos] = match{pos: pos, score: cosineSimilarity(query, vector)}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})
	if k > len(matches) {
		k = len(matches)
	}
	result := make([]model.Segment, 0, k)
	for _, m := range matches[:k] {
		result = append(result, i.segments[m.pos])
	}
	return result, nil
}

// Close releases the vectors; the index must not be searched afterwards.
func (i *Index) Close() error {
	i.vectors = nil
	i.segments = nil
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
