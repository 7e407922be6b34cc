package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tohfas/RAG-Access-Control/internal/model"
)

// PDFLoader extracts one segment per page. Pages with no extractable text are
// dropped rather than indexed as empty strings.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Load(ctx context.Context, path string) ([]model.Segment, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	segments := make([]model.Segment, 0, total)
	for num := 1; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", num, path, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		segments = append(segments, model.Segment{
			Text: text,
			Page: num,
		})
	}
	return segments, nil
}
