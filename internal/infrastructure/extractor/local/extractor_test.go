package local

import (
	"context"
	"testing"

	"github.com/ivgo/docinsight/internal/core/domain"
)

func TestExtractPlaintextCountsWordsAndChars(t *testing.T) {
	e := NewExtractor()
	res, err := e.ExtractText(context.Background(), []byte("  hello analysis world  "), "text/plain")
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if res.Text != "hello analysis world" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res.WordCount != 3 {
		t.Fatalf("expected 3 words, got %d", res.WordCount)
	}
	if res.CharCount != len("hello analysis world") {
		t.Fatalf("unexpected char count %d", res.CharCount)
	}
}

func TestExtractRejectsBinaryContent(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractText(context.Background(), []byte{0xff, 0xfe, 0x00, 0x01}, "application/octet-stream")
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for binary content, got %v", err)
	}
}

func TestExtractRejectsEmptyContent(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractText(context.Background(), []byte("   \n\t "), "text/plain")
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty content, got %v", err)
	}
}

func TestExtractRejectsMalformedPDF(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractText(context.Background(), []byte("not a pdf"), "application/pdf")
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for malformed pdf, got %v", err)
	}
}
