package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ivgo/docinsight/internal/core/domain"
)

// Batch groups the file records of one user session. A batch supports at most
// one active run at a time; the stored cancel func is the single cancellation
// signal for that run.
type Batch struct {
	ID        string
	CreatedAt time.Time
	Files     []*domain.FileRecord

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func (b *Batch) tryStart(cancel context.CancelFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return domain.ErrBatchRunning
	}
	b.running = true
	b.cancel = cancel
	return nil
}

// finish releases the run slot and the run context. Cancelling the context of
// a run that already completed is harmless; not cancelling it would leave the
// child registered on the process-lifetime base context forever.
func (b *Batch) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
	b.running = false
	b.cancel = nil
}

// CancelRun signals the active run, if any. Idempotent.
func (b *Batch) CancelRun() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Batch) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *Batch) File(id string) (*domain.FileRecord, error) {
	for _, f := range b.Files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, domain.ErrFileNotFound
}

// Registry is the in-memory batch index. Single process by design: the
// orchestrator coordinates one session's batches, not a fleet.
type Registry struct {
	mu      sync.Mutex
	batches map[string]*Batch
}

func NewRegistry() *Registry {
	return &Registry{batches: make(map[string]*Batch)}
}

func (r *Registry) Add(b *Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = b
}

func (r *Registry) Get(id string) (*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	return b, nil
}
