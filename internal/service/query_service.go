package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tohfas/RAG-Access-Control/internal/index"
	"github.com/tohfas/RAG-Access-Control/internal/model"
	appErr "github.com/tohfas/RAG-Access-Control/internal/pkg/errors"
)

// Capability interfaces for the pipeline stages, so each stage can be swapped
// for a test double.

type AccessResolver interface {
	Resolve(ctx context.Context, user string) ([]string, error)
}

type CorpusAssembler interface {
	Assemble(ctx context.Context, refs []string) []model.Segment
}

type Index interface {
	Search(ctx context.Context, question string, k int) ([]model.Segment, error)
	Close() error
}

type IndexBuilder interface {
	Build(ctx context.Context, segments []model.Segment) (Index, error)
}

type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, segments []model.Segment) (*model.QueryResponse, error)
}

// NewIndexBuilder adapts the index builder to the orchestrator's
// capability interface.
func NewIndexBuilder(b *index.Builder) IndexBuilder {
	return builderAdapter{b: b}
}

type builderAdapter struct {
	b *index.Builder
}

func (a builderAdapter) Build(ctx context.Context, segments []model.Segment) (Index, error) {
	idx, err := a.b.Build(ctx, segments)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// QueryService runs the full pipeline for one request: resolve access, load
// the permitted corpus, build an ephemeral index, retrieve, synthesize.
// Nothing built for one request is visible to any other; the only shared state
// is the registry's backing file and the answer cache.
type QueryService struct {
	registry    AccessResolver
	assembler   CorpusAssembler
	builder     IndexBuilder
	synthesizer AnswerSynthesizer
	topK        int
	cache       *expirable.LRU[string, model.QueryResponse]
}

func NewQueryService(
	registry AccessResolver,
	assembler CorpusAssembler,
	builder IndexBuilder,
	synthesizer AnswerSynthesizer,
	topK int,
	cacheSize int,
	cacheTTL time.Duration,
) *QueryService {
	if topK <= 0 {
		topK = 4
	}
	var cache *expirable.LRU[string, model.QueryResponse]
	if cacheSize > 0 {
		cache = expirable.NewLRU[string, model.QueryResponse](cacheSize, nil, cacheTTL)
	}
	return &QueryService{
		registry:    registry,
		assembler:   assembler,
		builder:     builder,
		synthesizer: synthesizer,
		topK:        topK,
		cache:       cache,
	}
}

func (s *QueryService) Query(ctx context.Context, email, question string) (*model.QueryResponse, error) {
	email = strings.TrimSpace(email)
	question = strings.TrimSpace(question)
	if email == "" || question == "" {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user", email))

	refs, err := s.registry.Resolve(ctx, email)
	if err != nil {
		return nil, err
	}

	// The cache key folds in the resolved document set, so changing a user's
	// grants immediately routes them to a fresh entry. Cached answers can
	// never leak across users or across access revisions.
	cacheKey := s.cacheKey(email, refs, question)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			logger.Debug("answer cache hit")
			return &cached, nil
		}
	}

	segments := s.assembler.Assemble(ctx, refs)
	if len(segments) == 0 {
		logger.Info("no valid documents for user", zap.Int("granted", len(refs)))
		return &model.QueryResponse{Answer: MsgNoAccess, Sources: []model.Citation{}}, nil
	}

	idx, err := s.builder.Build(ctx, segments)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	defer idx.Close()

	retrieved, err := idx.Search(ctx, question, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if len(retrieved) == 0 {
		return &model.QueryResponse{Answer: MsgNoContent, Sources: []model.Citation{}}, nil
	}

	resp, err := s.synthesizer.Synthesize(ctx, question, retrieved)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(cacheKey, *resp)
	}
	logger.Info("query answered",
		zap.Int("segments", len(segments)),
		zap.Int("retrieved", len(retrieved)),
		zap.Int("citations", len(resp.Sources)),
	)
	return resp, nil
}

func (s *QueryService) cacheKey(email string, refs []string, question string) string {
	h := sha256.New()
	h.Write([]byte(email))
	for _, ref := range refs {
		h.Write([]byte{0})
		h.Write([]byte(ref))
	}
	h.Write([]byte{0})
	h.Write([]byte(question))
	return hex.EncodeToString(h.Sum(nil))
}
