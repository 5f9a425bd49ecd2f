// Package local extracts text from document bytes in process. It backs the
// extract stage when no remote OCR endpoint is configured.
package local

import (
	"context"
	"strings"

	"github.com/ivgo/docinsight/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractText(ctx context.Context, content []byte, mimeType string) (*domain.ExtractionResult, error) {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if mime == "application/pdf" {
		return extractPDF(ctx, content)
	}
	return extractPlaintext(content)
}

func buildResult(text string) *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Text:      text,
		WordCount: len(strings.Fields(text)),
		CharCount: len([]rune(text)),
	}
}
