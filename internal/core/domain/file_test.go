package domain

import (
	"errors"
	"testing"
	"time"
)

func testRecord() *FileRecord {
	return NewFileRecord("f1", "report.txt", "text/plain", KindDocument, "key-f1", 128, time.Now())
}

func TestBeginStageWinsOnlyFromNotStarted(t *testing.T) {
	f := testRecord()
	now := time.Now()

	if !f.BeginStage(StageExtract, now) {
		t.Fatal("first begin must win")
	}
	if f.BeginStage(StageExtract, now) {
		t.Fatal("second begin must lose while in progress")
	}

	f.CompleteStage(StageExtract, &StageResult{Extraction: &ExtractionResult{Text: "hi"}}, now)
	if f.BeginStage(StageExtract, now) {
		t.Fatal("begin must lose once the stage succeeded")
	}
}

func TestCompleteStageIgnoredUnlessInProgress(t *testing.T) {
	f := testRecord()
	f.CompleteStage(StageExtract, &StageResult{}, time.Now())
	if got := f.Stage(StageExtract).Status; got != StatusNotStarted {
		t.Fatalf("completion without dispatch recorded status %s", got)
	}
}

func TestFailStageRecordsErrorOnlyFromInProgress(t *testing.T) {
	f := testRecord()
	now := time.Now()
	stageErr := &StageError{Class: FailureTransient, Message: "boom", Attempts: 3}

	f.FailStage(StageExtract, stageErr, now)
	if got := f.Stage(StageExtract).Status; got != StatusNotStarted {
		t.Fatalf("failure without dispatch recorded status %s", got)
	}

	f.BeginStage(StageExtract, now)
	f.FailStage(StageExtract, stageErr, now)
	s := f.Stage(StageExtract)
	if s.Status != StatusFailed || s.Err != stageErr {
		t.Fatalf("failed stage state = %+v", s)
	}
}

func TestAbortStageRevertsToNotStarted(t *testing.T) {
	f := testRecord()
	now := time.Now()

	f.BeginStage(StageExtract, now)
	f.AbortStage(StageExtract)
	s := f.Stage(StageExtract)
	if s.Status != StatusNotStarted || s.Err != nil || s.Result != nil {
		t.Fatalf("aborted stage state = %+v, want pristine not started", s)
	}

	// A revert re-opens the stage for dispatch.
	if !f.BeginStage(StageExtract, now) {
		t.Fatal("stage must be dispatchable again after abort")
	}
}

func TestLateResultCannotOverwriteAbort(t *testing.T) {
	f := testRecord()
	now := time.Now()

	f.BeginStage(StageExtract, now)
	f.AbortStage(StageExtract)
	f.CompleteStage(StageExtract, &StageResult{}, now)
	if got := f.Stage(StageExtract).Status; got != StatusNotStarted {
		t.Fatalf("late completion overwrote an abort, status = %s", got)
	}
	f.FailStage(StageExtract, &StageError{Class: FailureTimeout, Message: "late", Attempts: 1}, now)
	if got := f.Stage(StageExtract).Status; got != StatusNotStarted {
		t.Fatalf("late failure overwrote an abort, status = %s", got)
	}
}

func TestRetryStageOnlyFromFailed(t *testing.T) {
	f := testRecord()
	now := time.Now()

	if err := f.RetryStage(StageExtract); !errors.Is(err, ErrStageNotFailed) {
		t.Fatalf("retry of a not-started stage: %v", err)
	}

	f.BeginStage(StageExtract, now)
	if err := f.RetryStage(StageExtract); !errors.Is(err, ErrStageNotFailed) {
		t.Fatalf("retry of an in-progress stage: %v", err)
	}

	f.FailStage(StageExtract, &StageError{Class: FailureTimeout, Message: "slow", Attempts: 3}, now)
	if err := f.RetryStage(StageExtract); err != nil {
		t.Fatalf("retry of a failed stage: %v", err)
	}
	s := f.Stage(StageExtract)
	if s.Status != StatusNotStarted || s.Err != nil {
		t.Fatalf("retried stage state = %+v, want pristine not started", s)
	}

	f.BeginStage(StageExtract, now)
	f.CompleteStage(StageExtract, &StageResult{}, now)
	if err := f.RetryStage(StageExtract); !errors.Is(err, ErrStageNotFailed) {
		t.Fatalf("retry of a succeeded stage: %v", err)
	}
}

func TestStageSnapshotIsACopy(t *testing.T) {
	f := testRecord()
	now := time.Now()
	f.BeginStage(StageExtract, now)
	f.CompleteStage(StageExtract, &StageResult{}, now)

	snap := f.StageSnapshot()
	snap[StageSummarize] = StageState{Status: StatusInProgress}
	if got := f.Stage(StageSummarize).Status; got != StatusNotStarted {
		t.Fatalf("mutating a snapshot leaked into the record, status = %s", got)
	}
}

func TestTerminalStatuses(t *testing.T) {
	cases := map[StageStatus]bool{
		StatusNotStarted: false,
		StatusInProgress: false,
		StatusSucceeded:  true,
		StatusFailed:     true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Fatalf("Terminal(%s) = %v, want %v", status, got, want)
		}
	}
}
