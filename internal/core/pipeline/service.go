package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivgo/docinsight/internal/core/domain"
	"github.com/ivgo/docinsight/internal/core/ports"
)

// Service is the caller-facing batch lifecycle: ingest uploads into file
// records, start comprehensive or single-stage runs, retry failed stages,
// cancel, and report progress. Runs execute asynchronously on a context
// derived from the service's base context so process shutdown cancels them.
type Service struct {
	base     context.Context
	registry *Registry
	orch     *Orchestrator
	storage  ports.ObjectStorage
	graph    *Graph
	log      *slog.Logger
}

func NewService(
	base context.Context,
	registry *Registry,
	orch *Orchestrator,
	storage ports.ObjectStorage,
	graph *Graph,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		base:     base,
		registry: registry,
		orch:     orch,
		storage:  storage,
		graph:    graph,
		log:      logger,
	}
}

func (s *Service) CreateBatch(ctx context.Context, uploads []domain.FileUpload) (*domain.BatchSnapshot, error) {
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "create batch", errors.New("no files supplied"))
	}

	now := time.Now().UTC()
	batch := &Batch{ID: uuid.NewString(), CreatedAt: now}
	for _, up := range uploads {
		id := uuid.NewString()
		key := fmt.Sprintf("%s_%s", id, sanitizeFilename(up.Filename))
		if err := s.storage.Save(ctx, key, up.Body); err != nil {
			return nil, fmt.Errorf("save uploaded file %q: %w", up.Filename, err)
		}
		kind := kindFromMime(up.MimeType)
		batch.Files = append(batch.Files, domain.NewFileRecord(id, up.Filename, up.MimeType, kind, key, up.Size, now))
	}

	s.registry.Add(batch)
	s.log.Info("batch created", "batch_id", batch.ID, "files", len(batch.Files))
	return s.snapshot(batch), nil
}

// StartRun launches a comprehensive run over the batch. Returns
// ErrBatchRunning while a previous run is still active.
func (s *Service) StartRun(batchID string) error {
	return s.start(batchID, "comprehensive", func(ctx context.Context, b *Batch) error {
		return s.orch.RunComprehensive(ctx, b.ID, b.Files)
	})
}

// StartStageRun launches a run restricted to one stage.
func (s *Service) StartStageRun(batchID string, stage domain.StageID) error {
	if _, ok := s.graph.Spec(stage); !ok {
		return domain.WrapError(domain.ErrValidation, "start stage run", fmt.Errorf("unknown stage %q", stage))
	}
	return s.start(batchID, string(stage), func(ctx context.Context, b *Batch) error {
		return s.orch.RunStage(ctx, b.ID, b.Files, stage)
	})
}

func (s *Service) start(batchID, mode string, run func(context.Context, *Batch) error) error {
	b, err := s.registry.Get(batchID)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(s.base)
	if err := b.tryStart(cancel); err != nil {
		cancel()
		return err
	}

	go func() {
		defer b.finish()
		err := run(runCtx, b)
		switch {
		case err == nil:
			s.log.Info("batch run finished", "batch_id", b.ID, "mode", mode)
		case errors.Is(err, context.Canceled):
			s.log.Info("batch run cancelled", "batch_id", b.ID, "mode", mode)
		default:
			s.log.Error("batch run ended with error", "batch_id", b.ID, "mode", mode, "error", err)
		}
	}()
	return nil
}

// Retry resets a failed (file, stage) pair back to not-started with a fresh
// attempt budget. The stage runs on the next StartRun/StartStageRun.
func (s *Service) Retry(batchID, fileID string, stage domain.StageID) error {
	b, err := s.registry.Get(batchID)
	if err != nil {
		return err
	}
	f, err := b.File(fileID)
	if err != nil {
		return err
	}
	if _, ok := s.graph.Spec(stage); !ok {
		return domain.WrapError(domain.ErrValidation, "retry", fmt.Errorf("unknown stage %q", stage))
	}
	return f.RetryStage(stage)
}

// Cancel signals the batch's active run, if any. In-flight stages revert to
// not-started rather than failing.
func (s *Service) Cancel(batchID string) error {
	b, err := s.registry.Get(batchID)
	if err != nil {
		return err
	}
	b.CancelRun()
	return nil
}

func (s *Service) Snapshot(batchID string) (*domain.BatchSnapshot, error) {
	b, err := s.registry.Get(batchID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(b), nil
}

func (s *Service) snapshot(b *Batch) *domain.BatchSnapshot {
	out := &domain.BatchSnapshot{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		Running:   b.Running(),
		Files:     make([]domain.FileSnapshot, 0, len(b.Files)),
	}
	for _, f := range b.Files {
		out.Files = append(out.Files, domain.FileSnapshot{
			ID:       f.ID,
			Filename: f.Filename,
			MimeType: f.MimeType,
			Kind:     f.Kind,
			Size:     f.Size,
			Stages:   f.StageSnapshot(),
			Blocked:  s.graph.Blocked(f),
		})
	}
	return out
}

func kindFromMime(mimeType string) domain.FileKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/") {
		return domain.KindImage
	}
	return domain.KindDocument
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "file.bin"
	}
	return base
}
