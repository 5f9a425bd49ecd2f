package local

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ivgo/docinsight/internal/core/domain"
)

func extractPlaintext(content []byte) (*domain.ExtractionResult, error) {
	if !utf8.Valid(content) {
		return nil, domain.WrapError(domain.ErrValidation, "extract plaintext", errors.New("content is not valid UTF-8 text"))
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, domain.WrapError(domain.ErrValidation, "extract plaintext", errors.New("document contains no text"))
	}
	return buildResult(text), nil
}
