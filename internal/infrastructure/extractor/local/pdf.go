package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ivgo/docinsight/internal/core/domain"
)

func extractPDF(ctx context.Context, content []byte) (*domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "extract pdf", fmt.Errorf("open pdf: %w", err))
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "extract pdf", fmt.Errorf("read pdf text: %w", err))
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return nil, fmt.Errorf("copy pdf text: %w", err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, domain.WrapError(domain.ErrValidation, "extract pdf", errors.New("pdf contains no extractable text"))
	}
	return buildResult(text), nil
}
