package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ivgo/docinsight/internal/core/domain"
)

func newTestService(t *testing.T, st *stubs) (*Service, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	orch := newTestOrchestrator(st.clients(), storage, 2)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(context.Background(), NewRegistry(), orch, storage, DefaultGraph(), logger), storage
}

func uploads() []domain.FileUpload {
	return []domain.FileUpload{
		{Filename: "quarterly report.txt", MimeType: "text/plain", Size: 12, Body: strings.NewReader("some content")},
		{Filename: "chart.png", MimeType: "image/png", Size: 9, Body: strings.NewReader("png bytes")},
	}
}

func TestCreateBatchStoresFilesAndClassifiesKinds(t *testing.T) {
	svc, storage := newTestService(t, defaultStubs())

	snap, err := svc.CreateBatch(context.Background(), uploads())
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if len(snap.Files) != 2 {
		t.Fatalf("snapshot has %d files, want 2", len(snap.Files))
	}
	if snap.Files[0].Kind != domain.KindDocument || snap.Files[1].Kind != domain.KindImage {
		t.Fatalf("kinds = %s, %s", snap.Files[0].Kind, snap.Files[1].Kind)
	}
	if snap.Running {
		t.Fatal("fresh batch must not be running")
	}
	if len(storage.files) != 2 {
		t.Fatalf("storage holds %d objects, want 2", len(storage.files))
	}
}

func TestCreateBatchRejectsEmptyUpload(t *testing.T) {
	svc, _ := newTestService(t, defaultStubs())
	if _, err := svc.CreateBatch(context.Background(), nil); !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("empty upload: %v", err)
	}
}

func TestStartRunDrivesBatchToCompletion(t *testing.T) {
	svc, _ := newTestService(t, defaultStubs())
	snap, err := svc.CreateBatch(context.Background(), uploads())
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	if err := svc.StartRun(snap.ID); err != nil {
		t.Fatalf("start run: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		cur, err := svc.Snapshot(snap.ID)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if !cur.Running && allSettled(cur) {
			if got := cur.Files[0].Stages[domain.StageExtract].Status; got != domain.StatusSucceeded {
				t.Fatalf("document extract = %s", got)
			}
			if got := cur.Files[1].Stages[domain.StageImage].Status; got != domain.StatusSucceeded {
				t.Fatalf("image analysis = %s", got)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("run did not settle, snapshot: %+v", cur)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func allSettled(snap *domain.BatchSnapshot) bool {
	for _, f := range snap.Files {
		if len(f.Stages) == 0 {
			return false
		}
		for _, s := range f.Stages {
			if !s.Status.Terminal() {
				return false
			}
		}
	}
	return true
}

func TestStartRunRejectsConcurrentRuns(t *testing.T) {
	st := defaultStubs()
	release := make(chan struct{})
	st.extractor.fn = func(ctx context.Context, _ []byte) (*domain.ExtractionResult, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &domain.ExtractionResult{Text: "done done done done done done done done done done", WordCount: 10}, nil
	}
	svc, _ := newTestService(t, st)
	snap, err := svc.CreateBatch(context.Background(), uploads()[:1])
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	if err := svc.StartRun(snap.ID); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := svc.StartRun(snap.ID); !domain.IsKind(err, domain.ErrBatchRunning) {
		t.Fatalf("second start: %v, want ErrBatchRunning", err)
	}
	close(release)
}

func TestRetryValidatesBatchFileAndStage(t *testing.T) {
	svc, _ := newTestService(t, defaultStubs())
	snap, err := svc.CreateBatch(context.Background(), uploads()[:1])
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	fileID := snap.Files[0].ID

	if err := svc.Retry("missing", fileID, domain.StageExtract); !domain.IsKind(err, domain.ErrBatchNotFound) {
		t.Fatalf("unknown batch: %v", err)
	}
	if err := svc.Retry(snap.ID, "missing", domain.StageExtract); !domain.IsKind(err, domain.ErrFileNotFound) {
		t.Fatalf("unknown file: %v", err)
	}
	if err := svc.Retry(snap.ID, fileID, domain.StageID("polish")); !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("unknown stage: %v", err)
	}
	if err := svc.Retry(snap.ID, fileID, domain.StageExtract); !domain.IsKind(err, domain.ErrStageNotFailed) {
		t.Fatalf("retry of not-started stage: %v", err)
	}
}

func TestCancelWithoutActiveRunIsANoOp(t *testing.T) {
	svc, _ := newTestService(t, defaultStubs())
	snap, err := svc.CreateBatch(context.Background(), uploads()[:1])
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if err := svc.Cancel(snap.ID); err != nil {
		t.Fatalf("cancel idle batch: %v", err)
	}
	if err := svc.Cancel("missing"); !domain.IsKind(err, domain.ErrBatchNotFound) {
		t.Fatalf("cancel unknown batch: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"quarterly report.txt": "quarterly_report.txt",
		"../../etc/passwd":     "passwd",
		"résumé.pdf":           "r_sum_.pdf",
		"":                     "file.bin",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKindFromMime(t *testing.T) {
	if kindFromMime("image/png") != domain.KindImage {
		t.Fatal("image/png must map to image")
	}
	if kindFromMime("application/pdf") != domain.KindDocument {
		t.Fatal("application/pdf must map to document")
	}
	if kindFromMime(" IMAGE/JPEG ") != domain.KindImage {
		t.Fatal("mime matching must be case and space insensitive")
	}
}
