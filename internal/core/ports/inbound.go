package ports

import (
	"context"

	"github.com/ivgo/docinsight/internal/core/domain"
)

// BatchService is the inbound contract for the batch lifecycle: ingest files,
// drive them through analysis stages, retry failures, cancel runs.
type BatchService interface {
	CreateBatch(ctx context.Context, uploads []domain.FileUpload) (*domain.BatchSnapshot, error)
	StartRun(batchID string) error
	StartStageRun(batchID string, stage domain.StageID) error
	Retry(batchID, fileID string, stage domain.StageID) error
	Cancel(batchID string) error
	Snapshot(batchID string) (*domain.BatchSnapshot, error)
}
