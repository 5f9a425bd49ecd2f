package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ivgo/docinsight/internal/core/domain"
)

func TestExtractorSendsEncodedContent(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/extract" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"text":"hello world","word_count":2,"char_count":11}`))
	}))
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "", 0))
	res, err := extractor.ExtractText(context.Background(), []byte("raw bytes"), "text/plain")
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if res.WordCount != 2 || res.Text != "hello world" {
		t.Fatalf("unexpected result: %+v", res)
	}

	encoded, _ := captured["content"].(string)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || string(decoded) != "raw bytes" {
		t.Fatalf("expected base64 content, got %q (%v)", encoded, err)
	}
	if captured["mime_type"] != "text/plain" {
		t.Fatalf("expected mime type in request, got %v", captured["mime_type"])
	}
}

func TestClassifiesRateLimitStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	summarizer := NewSummarizer(New(server.URL, "", 0))
	_, err := summarizer.Summarize(context.Background(), "some text", domain.SummaryMedium)
	if !domain.IsKind(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate-limited kind, got %v", err)
	}
	if domain.Classify(err) != domain.FailureRateLimited {
		t.Fatalf("expected rate_limited class, got %s", domain.Classify(err))
	}
}

func TestClassifiesValidationStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "text too short", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	summarizer := NewSummarizer(New(server.URL, "", 0))
	_, err := summarizer.Summarize(context.Background(), "tiny", domain.SummaryShort)
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
	if domain.Classify(err).Retryable() {
		t.Fatalf("validation failures must not be retryable")
	}
}

func TestClassifiesServerErrorAsTransientWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	quality := NewQualityAnalyzer(New(server.URL, "", 0))
	_, err := quality.AnalyzeQuality(context.Background(), "some document text")
	if !domain.IsKind(err, domain.ErrTransient) {
		t.Fatalf("expected transient kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestClassifiesGatewayTimeoutAsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream timed out", http.StatusGatewayTimeout)
	}))
	defer server.Close()

	structure := NewStructureAnalyzer(New(server.URL, "", 0))
	_, err := structure.AnalyzeStructure(context.Background(), "some document text")
	if !domain.IsKind(err, domain.ErrTimeout) {
		t.Fatalf("expected timeout kind, got %v", err)
	}
}

func TestSpecializedCarriesDocumentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"invoice":{"invoice_number":"INV-42","vendor":"Acme","total":"100.00"}}`))
	}))
	defer server.Close()

	extractor := NewSpecializedExtractor(New(server.URL, "", 0))
	res, err := extractor.ExtractSpecialized(context.Background(), "invoice text", domain.DocTypeInvoice)
	if err != nil {
		t.Fatalf("ExtractSpecialized() error = %v", err)
	}
	if res.DocumentType != domain.DocTypeInvoice {
		t.Fatalf("expected invoice type, got %s", res.DocumentType)
	}
	if res.Invoice == nil || res.Invoice.InvoiceNumber != "INV-42" {
		t.Fatalf("unexpected invoice payload: %+v", res.Invoice)
	}
}

func TestImageFallbackIsDegraded(t *testing.T) {
	analyzer := NewImageAnalyzer(New("http://unused", "", 0))
	fb := analyzer.Fallback()
	if !fb.Degraded {
		t.Fatalf("fallback result must be marked degraded")
	}
	if len(fb.Objects) == 0 || fb.Scene.Description == "" {
		t.Fatalf("fallback should carry generic placeholders: %+v", fb)
	}
}
