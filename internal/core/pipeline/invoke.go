package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ivgo/docinsight/internal/core/domain"
)

// stageCall binds a stage to a zero-argument remote call for one file.
// Content loading happens once, up front; input validation happens inside the
// returned call so a rejected input is accounted for as a single attempt.
// The call writes its payload through out on success.
func (o *Orchestrator) stageCall(
	ctx context.Context,
	file *domain.FileRecord,
	stage domain.StageID,
	out **domain.StageResult,
) (func(context.Context) error, error) {
	switch stage {
	case domain.StageExtract:
		content, err := o.loadContent(ctx, file)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			if err := validateDocumentContent(file, content); err != nil {
				return err
			}
			res, err := o.clients.Extractor.ExtractText(ctx, content, file.MimeType)
			if err != nil {
				return err
			}
			*out = &domain.StageResult{Extraction: res}
			return nil
		}, nil

	case domain.StageImage:
		content, err := o.loadContent(ctx, file)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			if err := validateImageContent(file, content); err != nil {
				return err
			}
			res, err := o.clients.Image.AnalyzeImage(ctx, content)
			if err != nil {
				return err
			}
			*out = &domain.StageResult{Image: res}
			return nil
		}, nil

	case domain.StageSummarize:
		text, err := extractedText(file)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			if err := validateSummaryInput(text); err != nil {
				return err
			}
			res, err := o.clients.Summarizer.Summarize(ctx, text, o.summaryLength)
			if err != nil {
				return err
			}
			*out = &domain.StageResult{Summary: res}
			return nil
		}, nil

	case domain.StageStructure:
		text, err := extractedText(file)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			res, err := o.clients.Structure.AnalyzeStructure(ctx, text)
			if err != nil {
				return err
			}
			*out = &domain.StageResult{Structure: res}
			return nil
		}, nil

	case domain.StageQuality:
		text, err := extractedText(file)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			res, err := o.clients.Quality.AnalyzeQuality(ctx, text)
			if err != nil {
				return err
			}
			*out = &domain.StageResult{Quality: res}
			return nil
		}, nil

	case domain.StageSpecialized:
		text, err := extractedText(file)
		if err != nil {
			return nil, err
		}
		docType, err := classifiedType(file)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			if !docType.SpecializedSupported() {
				return domain.WrapError(domain.ErrValidation, "specialized extraction",
					fmt.Errorf("unsupported document type %q", docType))
			}
			res, err := o.clients.Specialized.ExtractSpecialized(ctx, text, docType)
			if err != nil {
				return err
			}
			*out = &domain.StageResult{Specialized: res}
			return nil
		}, nil

	default:
		return nil, domain.WrapError(domain.ErrValidation, "bind stage", fmt.Errorf("unknown stage %q", stage))
	}
}

func (o *Orchestrator) loadContent(ctx context.Context, file *domain.FileRecord) ([]byte, error) {
	reader, err := o.storage.Open(ctx, file.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}
	return content, nil
}

func validateDocumentContent(file *domain.FileRecord, content []byte) error {
	if len(content) == 0 {
		return domain.WrapError(domain.ErrValidation, "validate document", errors.New("file is empty"))
	}
	if len(content) > domain.MaxDocumentSize {
		return domain.WrapError(domain.ErrValidation, "validate document",
			fmt.Errorf("document %s exceeds %d bytes", file.Filename, domain.MaxDocumentSize))
	}
	return nil
}

func validateImageContent(file *domain.FileRecord, content []byte) error {
	if len(content) == 0 {
		return domain.WrapError(domain.ErrValidation, "validate image", errors.New("file is empty"))
	}
	if len(content) > domain.MaxImageSize {
		return domain.WrapError(domain.ErrValidation, "validate image",
			fmt.Errorf("image %s exceeds %d bytes", file.Filename, domain.MaxImageSize))
	}
	return nil
}

func validateSummaryInput(text string) error {
	words := wordCount(text)
	if words < domain.MinSummaryWords {
		return domain.WrapError(domain.ErrValidation, "validate summary input",
			fmt.Errorf("text has %d words, minimum is %d", words, domain.MinSummaryWords))
	}
	if words > domain.MaxSummaryWords {
		return domain.WrapError(domain.ErrValidation, "validate summary input",
			fmt.Errorf("text has %d words, maximum is %d", words, domain.MaxSummaryWords))
	}
	return nil
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func extractedText(f *domain.FileRecord) (string, error) {
	s := f.Stage(domain.StageExtract)
	if s.Status != domain.StatusSucceeded || s.Result == nil || s.Result.Extraction == nil {
		return "", fmt.Errorf("extract stage has no result for file %s", f.ID)
	}
	return s.Result.Extraction.Text, nil
}

func classifiedType(f *domain.FileRecord) (domain.DocumentType, error) {
	s := f.Stage(domain.StageStructure)
	if s.Status != domain.StatusSucceeded || s.Result == nil || s.Result.Structure == nil {
		return "", fmt.Errorf("structure stage has no result for file %s", f.ID)
	}
	return s.Result.Structure.DocumentType, nil
}
