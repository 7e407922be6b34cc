package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tohfas/RAG-Access-Control/internal/ai"
	"github.com/tohfas/RAG-Access-Control/internal/model"
	appErr "github.com/tohfas/RAG-Access-Control/internal/pkg/errors"
)

// User-facing messages for the three "no usable answer" outcomes. They are
// deliberately distinct strings: callers can tell no-access from no-match
// only by the literal text.
const (
	MsgNoAccess  = "You have no access to any valid documents."
	MsgNoContent = "Sorry, no relevant content found in your allowed files."
)

// DefaultNoAnswerPhrases are matched as substrings against the lower-cased
// model answer. Matching free text is a heuristic: an honest answer that
// happens to contain one of these phrases collapses to the canned message.
// That is an accepted limitation of content classification, not a bug.
var DefaultNoAnswerPhrases = []string{
	"i don't know",
	"the provided document does not contain specific information",
	"no relevant information",
	"not found in the document",
}

// Synthesizer turns retrieved segments plus a question into a grounded answer
// with citations, collapsing "no information" replies into one stable message.
type Synthesizer struct {
	generator ai.IGenerator
	phrases   []string
	timeout   time.Duration
}

func NewSynthesizer(generator ai.IGenerator, phrases []string, timeout time.Duration) *Synthesizer {
	if len(phrases) == 0 {
		phrases = DefaultNoAnswerPhrases
	}
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Synthesizer{generator: generator, phrases: lowered, timeout: timeout}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, segments []model.Segment) (*model.QueryResponse, error) {
	if len(segments) == 0 {
		// never hand the model an empty context to hallucinate from
		return &model.QueryResponse{Answer: MsgNoContent, Sources: []model.Citation{}}, nil
	}
	prompt := buildPrompt(question, segments)

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	raw, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", appErr.ErrGeneration, err)
	}

	answer := strings.TrimSpace(raw)
	if s.isNoAnswer(answer) {
		logutil.GetLogger(ctx).Debug("model declined to answer", zap.String("raw", answer))
		return &model.QueryResponse{Answer: MsgNoContent, Sources: []model.Citation{}}, nil
	}

	citations := make([]model.Citation, 0, len(segments))
	for _, seg := range segments {
		citations = append(citations, model.Citation{Source: seg.Source, Page: seg.Page})
	}
	return &model.QueryResponse{Answer: answer, Sources: citations}, nil
}

func (s *Synthesizer) isNoAnswer(answer string) bool {
	if answer == "" {
		return true
	}
	lowered := strings.ToLower(answer)
	for _, phrase := range s.phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

func buildPrompt(question string, segments []model.Segment) string {
	var grounding strings.Builder
	for i, seg := range segments {
		if i > 0 {
			grounding.WriteString("\n\n")
		}
		grounding.WriteString(seg.Text)
	}
	return fmt.Sprintf(`You are an assistant that answers questions based only on the provided context from standards documents.
- When the context holds the answer, respond accurately and precisely, citing the specific standard and clause numbers it gives.
- If the context does not contain the answer, say "I don't know." Do not make up answers STRICTLY.

CONTEXT:
%s

QUESTION:
%s

ANSWER:`, grounding.String(), question)
}
