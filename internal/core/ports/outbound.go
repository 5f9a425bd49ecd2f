package ports

import (
	"context"
	"io"

	"github.com/ivgo/docinsight/internal/core/domain"
)

// ObjectStorage stores the raw bytes of ingested files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TextExtractor turns raw file bytes into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte, mimeType string) (*domain.ExtractionResult, error)
}

// Summarizer produces a summary for extracted text.
type Summarizer interface {
	Summarize(ctx context.Context, text string, length domain.SummaryLength) (*domain.SummaryResult, error)
}

// ImageAnalyzer describes image content. Fallback returns the degraded
// placeholder result used when the service is unavailable and the stage
// policy prefers availability over accuracy.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, content []byte) (*domain.ImageAnalysisResult, error)
	Fallback() *domain.ImageAnalysisResult
}

// StructureAnalyzer classifies a document and maps out its structure.
type StructureAnalyzer interface {
	AnalyzeStructure(ctx context.Context, text string) (*domain.StructureResult, error)
}

// QualityAnalyzer scores document quality.
type QualityAnalyzer interface {
	AnalyzeQuality(ctx context.Context, text string) (*domain.QualityResult, error)
}

// SpecializedExtractor pulls type-specific fields out of invoices, contracts
// and resumes.
type SpecializedExtractor interface {
	ExtractSpecialized(ctx context.Context, text string, docType domain.DocumentType) (*domain.SpecializedResult, error)
}

// StageClients bundles the six remote stage boundaries.
type StageClients struct {
	Extractor   TextExtractor
	Summarizer  Summarizer
	Image       ImageAnalyzer
	Structure   StructureAnalyzer
	Quality     QualityAnalyzer
	Specialized SpecializedExtractor
}

// EventPublisher emits stage-completion notifications. Fire and forget; a
// publish failure never affects pipeline state.
type EventPublisher interface {
	PublishStageCompleted(ctx context.Context, event domain.StageEvent) error
	Close()
}
