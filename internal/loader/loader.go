package loader

import (
	"context"

	"github.com/tohfas/RAG-Access-Control/internal/model"
)

// Loader turns one document file into page-tagged segments. Implementations
// may fail arbitrarily per file; the corpus assembler downgrades such failures
// to warnings and keeps going.
type Loader interface {
	Load(ctx context.Context, path string) ([]model.Segment, error)
}
