package domain

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type FileKind string

const (
	KindDocument FileKind = "document"
	KindImage    FileKind = "image"
)

// Size and input limits enforced before dispatching a remote call. Breaching
// them is a validation failure, never retried.
const (
	MaxDocumentSize = 50 << 20
	MaxImageSize    = 10 << 20
	MinSummaryWords = 10
	MaxSummaryWords = 15000
)

// FileUpload is the inbound shape for one file entering a batch.
type FileUpload struct {
	Filename string
	MimeType string
	Size     int64
	Body     io.Reader
}

// FileRecord is the per-file mutable state tracked across all stages.
// The orchestrator is the only writer; the mutex exists for the dispatch
// compare-and-swap and for concurrent status snapshots.
type FileRecord struct {
	ID          string
	Filename    string
	MimeType    string
	Kind        FileKind
	StoragePath string
	Size        int64
	CreatedAt   time.Time

	mu     sync.Mutex
	stages map[StageID]StageState
}

func NewFileRecord(id, filename, mimeType string, kind FileKind, storagePath string, size int64, now time.Time) *FileRecord {
	return &FileRecord{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		Kind:        kind,
		StoragePath: storagePath,
		Size:        size,
		CreatedAt:   now,
		stages:      make(map[StageID]StageState),
	}
}

// Stage returns the current state of one stage. Absent entries read as not
// started.
func (f *FileRecord) Stage(id StageID) StageState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage(id)
}

func (f *FileRecord) stage(id StageID) StageState {
	if s, ok := f.stages[id]; ok {
		return s
	}
	return StageState{Status: StatusNotStarted}
}

// BeginStage transitions NotStarted -> InProgress and reports whether the
// caller won the transition. A pair is dispatched at most once per
// eligibility cycle.
func (f *FileRecord) BeginStage(id StageID, now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage(id).Status != StatusNotStarted {
		return false
	}
	f.stages[id] = StageState{Status: StatusInProgress, StartedAt: now}
	return true
}

// CompleteStage records a success. Ignored unless the stage is in progress,
// so a late completion cannot overwrite a cancellation revert.
func (f *FileRecord) CompleteStage(id StageID, result *StageResult, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stage(id)
	if s.Status != StatusInProgress {
		return
	}
	s.Status = StatusSucceeded
	s.Result = result
	s.FinishedAt = now
	f.stages[id] = s
}

// FailStage records a terminal failure. Ignored unless the stage is in
// progress.
func (f *FileRecord) FailStage(id StageID, stageErr *StageError, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stage(id)
	if s.Status != StatusInProgress {
		return
	}
	s.Status = StatusFailed
	s.Err = stageErr
	s.FinishedAt = now
	f.stages[id] = s
}

// AbortStage reverts InProgress -> NotStarted. Used on cancellation:
// a cancelled attempt is not a stage failure.
func (f *FileRecord) AbortStage(id StageID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage(id).Status != StatusInProgress {
		return
	}
	delete(f.stages, id)
}

// RetryStage resets Failed -> NotStarted, granting a fresh attempt budget.
// The engine never re-attempts a terminally failed stage on its own.
func (f *FileRecord) RetryStage(id StageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s := f.stage(id); s.Status != StatusFailed {
		return WrapError(ErrStageNotFailed, "retry stage", fmt.Errorf("stage %s is %s", id, s.Status))
	}
	delete(f.stages, id)
	return nil
}

// StageSnapshot returns a copy of all non-default stage states.
func (f *FileRecord) StageSnapshot() map[StageID]StageState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[StageID]StageState, len(f.stages))
	for id, s := range f.stages {
		out[id] = s
	}
	return out
}
