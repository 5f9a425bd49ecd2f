package domain

import "time"

// FileSnapshot is a read model of one file's stage progress. Blocked lists
// applicable stages that can never become eligible because a prerequisite
// failed; they are distinct from failed stages.
type FileSnapshot struct {
	ID       string                 `json:"id"`
	Filename string                 `json:"filename"`
	MimeType string                 `json:"mime_type"`
	Kind     FileKind               `json:"kind"`
	Size     int64                  `json:"size"`
	Stages   map[StageID]StageState `json:"stages"`
	Blocked  []StageID              `json:"blocked,omitempty"`
}

type BatchSnapshot struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Running   bool           `json:"running"`
	Files     []FileSnapshot `json:"files"`
}
