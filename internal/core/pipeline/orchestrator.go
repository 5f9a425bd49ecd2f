package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ivgo/docinsight/internal/core/domain"
	"github.com/ivgo/docinsight/internal/core/ports"
	"github.com/ivgo/docinsight/internal/infrastructure/resilience"
	"github.com/ivgo/docinsight/internal/observability/metrics"
)

// Options tune an orchestrator beyond its required collaborators. Metrics
// and Events may be nil.
type Options struct {
	Policies         map[domain.StageID]resilience.Policy
	ConcurrencyLimit int
	SummaryLength    domain.SummaryLength
	Logger           *slog.Logger
	Metrics          *metrics.PipelineMetrics
	Events           ports.EventPublisher
}

// Orchestrator drives a batch of file records through the stage graph. It is
// the single writer of stage state: workers hand results back and the
// orchestrator applies them, so no locking is needed beyond the dispatch
// compare-and-swap inside FileRecord.
type Orchestrator struct {
	graph   *Graph
	clients ports.StageClients
	storage ports.ObjectStorage
	exec    *resilience.Executor

	policies      map[domain.StageID]resilience.Policy
	limit         int
	summaryLength domain.SummaryLength
	log           *slog.Logger
	metrics       *metrics.PipelineMetrics
	events        ports.EventPublisher
}

func NewOrchestrator(
	graph *Graph,
	clients ports.StageClients,
	storage ports.ObjectStorage,
	exec *resilience.Executor,
	opts Options,
) *Orchestrator {
	limit := opts.ConcurrencyLimit
	if limit <= 0 {
		limit = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	length := opts.SummaryLength
	if length == "" {
		length = domain.SummaryMedium
	}
	return &Orchestrator{
		graph:         graph,
		clients:       clients,
		storage:       storage,
		exec:          exec,
		policies:      opts.Policies,
		limit:         limit,
		summaryLength: length,
		log:           logger,
		metrics:       opts.Metrics,
		events:        opts.Events,
	}
}

// RunComprehensive drives every applicable stage of every file to exhaustion:
// each stage ends up succeeded, failed, or permanently ineligible behind a
// failed prerequisite.
func (o *Orchestrator) RunComprehensive(ctx context.Context, batchID string, files []*domain.FileRecord) error {
	return o.run(ctx, batchID, func() []WorkItem {
		return o.graph.Runnable(files)
	})
}

// RunStage restricts the run to one named stage; eligibility and execution
// machinery are shared with RunComprehensive.
func (o *Orchestrator) RunStage(ctx context.Context, batchID string, files []*domain.FileRecord, stage domain.StageID) error {
	if _, ok := o.graph.Spec(stage); !ok {
		return domain.WrapError(domain.ErrValidation, "run stage", errors.New("unknown stage "+string(stage)))
	}
	return o.run(ctx, batchID, func() []WorkItem {
		return o.graph.RunnableStage(files, stage)
	})
}

func (o *Orchestrator) run(ctx context.Context, batchID string, next func() []WorkItem) error {
	sem := make(chan struct{}, o.limit)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		items := next()
		if len(items) == 0 {
			return nil
		}

		var wg sync.WaitGroup
		for _, item := range items {
			if !item.File.BeginStage(item.Stage, time.Now()) {
				continue
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(item WorkItem) {
				defer wg.Done()
				defer func() { <-sem }()
				o.runOne(ctx, batchID, item)
			}(item)
		}
		wg.Wait()
	}
}

// runOne executes a single dispatched (file, stage) pair and applies the
// outcome. The pair is already marked in progress by the dispatch loop.
func (o *Orchestrator) runOne(ctx context.Context, batchID string, item WorkItem) {
	file, stage := item.File, item.Stage
	spec, _ := o.graph.Spec(stage)
	start := time.Now()
	if o.metrics != nil {
		o.metrics.StageStarted()
	}

	var result *domain.StageResult
	call, prepErr := o.stageCall(ctx, file, stage, &result)

	var attempts int
	var err error
	if prepErr != nil {
		attempts, err = 1, prepErr
	} else {
		attempts, err = o.exec.Execute(ctx, "stage."+string(stage), o.policyFor(stage), call)
	}

	if err != nil && ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		// Cancellation is not a stage failure.
		file.AbortStage(stage)
		if o.metrics != nil {
			o.metrics.StageAborted(string(stage), time.Since(start))
		}
		return
	}

	now := time.Now()
	var state domain.StageStatus
	var class domain.FailureClass
	switch {
	case err == nil:
		file.CompleteStage(stage, result, now)
		state = domain.StatusSucceeded
	default:
		class = domain.Classify(err)
		if spec.Degrade && class != domain.FailureValidation {
			fallback := &domain.StageResult{Image: o.clients.Image.Fallback()}
			file.CompleteStage(stage, fallback, now)
			state = domain.StatusSucceeded
			o.log.Warn("stage degraded to fallback result",
				"batch_id", batchID, "file_id", file.ID, "stage", stage,
				"class", class, "attempts", attempts, "error", err)
		} else {
			file.FailStage(stage, &domain.StageError{
				Class:    class,
				Message:  err.Error(),
				Attempts: attempts,
			}, now)
			state = domain.StatusFailed
			o.log.Error("stage failed",
				"batch_id", batchID, "file_id", file.ID, "stage", stage,
				"class", class, "attempts", attempts, "error", err)
		}
	}

	if state == domain.StatusSucceeded {
		o.log.Info("stage completed",
			"batch_id", batchID, "file_id", file.ID, "stage", stage,
			"attempts", attempts, "duration_ms", now.Sub(start).Milliseconds())
	}
	if o.metrics != nil {
		o.metrics.StageFinished(string(stage), string(state), string(class), attempts, now.Sub(start))
	}
	o.publishStageEvent(ctx, domain.StageEvent{
		BatchID:    batchID,
		FileID:     file.ID,
		Stage:      stage,
		Status:     state,
		Class:      class,
		FinishedAt: now,
	})
}

func (o *Orchestrator) policyFor(stage domain.StageID) resilience.Policy {
	if p, ok := o.policies[stage]; ok {
		return p
	}
	return resilience.DefaultPolicy()
}

func (o *Orchestrator) publishStageEvent(ctx context.Context, event domain.StageEvent) {
	if o.events == nil {
		return
	}
	if err := o.events.PublishStageCompleted(context.WithoutCancel(ctx), event); err != nil {
		o.log.Warn("publish stage event", "stage", event.Stage, "file_id", event.FileID, "error", err)
	}
}
