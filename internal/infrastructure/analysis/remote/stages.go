package remote

import (
	"context"
	"encoding/base64"

	"github.com/ivgo/docinsight/internal/core/domain"
)

// Extractor calls the remote OCR/text-extraction endpoint.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) ExtractText(ctx context.Context, content []byte, mimeType string) (*domain.ExtractionResult, error) {
	request := map[string]any{
		"content":   base64.StdEncoding.EncodeToString(content),
		"mime_type": mimeType,
	}
	var response domain.ExtractionResult
	if err := e.client.postJSON(ctx, "/v1/extract", request, &response, "extract"); err != nil {
		return nil, err
	}
	return &response, nil
}

type Summarizer struct {
	client *Client
}

func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

func (s *Summarizer) Summarize(ctx context.Context, text string, length domain.SummaryLength) (*domain.SummaryResult, error) {
	request := map[string]any{
		"text":   text,
		"length": string(length),
	}
	var response domain.SummaryResult
	if err := s.client.postJSON(ctx, "/v1/summarize", request, &response, "summarize"); err != nil {
		return nil, err
	}
	return &response, nil
}

type ImageAnalyzer struct {
	client *Client
}

func NewImageAnalyzer(client *Client) *ImageAnalyzer {
	return &ImageAnalyzer{client: client}
}

func (a *ImageAnalyzer) AnalyzeImage(ctx context.Context, content []byte) (*domain.ImageAnalysisResult, error) {
	request := map[string]any{
		"content": base64.StdEncoding.EncodeToString(content),
	}
	var response domain.ImageAnalysisResult
	if err := a.client.postJSON(ctx, "/v1/images/analyze", request, &response, "analyze-image"); err != nil {
		return nil, err
	}
	return &response, nil
}

// Fallback returns the degraded placeholder used when the image service is
// down and the stage policy prefers availability over accuracy.
func (a *ImageAnalyzer) Fallback() *domain.ImageAnalysisResult {
	return &domain.ImageAnalysisResult{
		Objects: []domain.DetectedObject{{Label: "unknown", Confidence: 0}},
		Scene: domain.SceneDescription{
			Description: "Image analysis unavailable; generic description substituted.",
			Tags:        []string{"unprocessed"},
		},
		Degraded: true,
	}
}

type StructureAnalyzer struct {
	client *Client
}

func NewStructureAnalyzer(client *Client) *StructureAnalyzer {
	return &StructureAnalyzer{client: client}
}

func (a *StructureAnalyzer) AnalyzeStructure(ctx context.Context, text string) (*domain.StructureResult, error) {
	request := map[string]any{"text": text}
	var response domain.StructureResult
	if err := a.client.postJSON(ctx, "/v1/structure", request, &response, "analyze-structure"); err != nil {
		return nil, err
	}
	if response.DocumentType == "" {
		response.DocumentType = domain.DocTypeOther
	}
	return &response, nil
}

type QualityAnalyzer struct {
	client *Client
}

func NewQualityAnalyzer(client *Client) *QualityAnalyzer {
	return &QualityAnalyzer{client: client}
}

func (a *QualityAnalyzer) AnalyzeQuality(ctx context.Context, text string) (*domain.QualityResult, error) {
	request := map[string]any{"text": text}
	var response domain.QualityResult
	if err := a.client.postJSON(ctx, "/v1/quality", request, &response, "analyze-quality"); err != nil {
		return nil, err
	}
	return &response, nil
}

type SpecializedExtractor struct {
	client *Client
}

func NewSpecializedExtractor(client *Client) *SpecializedExtractor {
	return &SpecializedExtractor{client: client}
}

func (e *SpecializedExtractor) ExtractSpecialized(ctx context.Context, text string, docType domain.DocumentType) (*domain.SpecializedResult, error) {
	request := map[string]any{
		"text":          text,
		"document_type": string(docType),
	}
	var response domain.SpecializedResult
	if err := e.client.postJSON(ctx, "/v1/specialized", request, &response, "analyze-specialized"); err != nil {
		return nil, err
	}
	response.DocumentType = docType
	return &response, nil
}
