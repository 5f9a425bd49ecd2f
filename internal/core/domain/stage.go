package domain

import (
	"fmt"
	"time"
)

type StageID string

const (
	StageExtract     StageID = "extract"
	StageSummarize   StageID = "summarize"
	StageImage       StageID = "analyze-image"
	StageStructure   StageID = "analyze-structure"
	StageQuality     StageID = "analyze-quality"
	StageSpecialized StageID = "analyze-specialized"
)

func AllStages() []StageID {
	return []StageID{
		StageExtract,
		StageSummarize,
		StageImage,
		StageStructure,
		StageQuality,
		StageSpecialized,
	}
}

func ParseStageID(s string) (StageID, error) {
	for _, id := range AllStages() {
		if string(id) == s {
			return id, nil
		}
	}
	return "", WrapError(ErrValidation, "parse stage id", fmt.Errorf("unknown stage %q", s))
}

type StageStatus string

const (
	StatusNotStarted StageStatus = "not_started"
	StatusInProgress StageStatus = "in_progress"
	StatusSucceeded  StageStatus = "succeeded"
	StatusFailed     StageStatus = "failed"
)

// Terminal reports whether no further transition is possible without an
// explicit retry request.
func (s StageStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// StageError is the terminal failure recorded on a stage after the retry
// budget is exhausted (or immediately, for validation failures).
type StageError struct {
	Class    FailureClass `json:"class"`
	Message  string       `json:"message"`
	Attempts int          `json:"attempts"`
}

func (e *StageError) Error() string {
	if e == nil {
		return "stage error"
	}
	return fmt.Sprintf("%s after %d attempt(s): %s", e.Class, e.Attempts, e.Message)
}

// StageState tracks one stage of one file. The zero value means not started.
type StageState struct {
	Status     StageStatus  `json:"status"`
	StartedAt  time.Time    `json:"started_at,omitzero"`
	FinishedAt time.Time    `json:"finished_at,omitzero"`
	Result     *StageResult `json:"result,omitempty"`
	Err        *StageError  `json:"error,omitempty"`
}

// StageEvent is published when a (file, stage) pair reaches a terminal state.
type StageEvent struct {
	BatchID    string       `json:"batch_id"`
	FileID     string       `json:"file_id"`
	Stage      StageID      `json:"stage"`
	Status     StageStatus  `json:"status"`
	Class      FailureClass `json:"class,omitempty"`
	FinishedAt time.Time    `json:"finished_at"`
}
