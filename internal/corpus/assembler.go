package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tohfas/RAG-Access-Control/internal/loader"
	"github.com/tohfas/RAG-Access-Control/internal/model"
)

// Assembler builds the permitted segment set for a single request. Per-document
// failures are warnings, never request failures: a user with one broken file
// still gets answers from the rest.
type Assembler struct {
	root   string
	ext    string
	loader loader.Loader
}

func NewAssembler(root string, ext string, l loader.Loader) *Assembler {
	if ext == "" {
		ext = ".pdf"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Assembler{root: root, ext: ext, loader: l}
}

// Assemble loads every reference in order and returns the concatenation of all
// segments that loaded. Each segment's Source is overwritten with the
// normalized requested reference so that citations always name what the access
// registry granted, not whatever the loader thinks the file is called.
func (a *Assembler) Assemble(ctx context.Context, refs []string) []model.Segment {
	logger := logutil.GetLogger(ctx)
	var segments []model.Segment
	for _, ref := range refs {
		name := a.normalize(ref)
		path := filepath.Join(a.root, name)
		if _, err := os.Stat(path); err != nil {
			logger.Warn("document not found, skipping",
				zap.String("reference", ref),
				zap.String("path", path),
			)
			continue
		}
		loaded, err := a.loader.Load(ctx, path)
		if err != nil {
			logger.Warn("document load failed, skipping",
				zap.String("reference", ref),
				zap.Error(err),
			)
			continue
		}
		for i := range loaded {
			loaded[i].Source = name
		}
		segments = append(segments, loaded...)
	}
	return segments
}

func (a *Assembler) normalize(ref string) string {
	if strings.HasSuffix(strings.ToLower(ref), a.ext) {
		return ref
	}
	return ref + a.ext
}
