package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ivgo/docinsight/internal/config"
	"github.com/ivgo/docinsight/internal/core/domain"
	"github.com/ivgo/docinsight/internal/core/pipeline"
	"github.com/ivgo/docinsight/internal/core/ports"
	"github.com/ivgo/docinsight/internal/infrastructure/analysis/remote"
	"github.com/ivgo/docinsight/internal/infrastructure/extractor/local"
	natsq "github.com/ivgo/docinsight/internal/infrastructure/queue/nats"
	"github.com/ivgo/docinsight/internal/infrastructure/resilience"
	"github.com/ivgo/docinsight/internal/infrastructure/storage/localfs"
	"github.com/ivgo/docinsight/internal/observability/logging"
	"github.com/ivgo/docinsight/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Service *pipeline.Service
	Metrics *metrics.PipelineMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, "docinsight", cfg.LogLevel)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	client := remote.New(cfg.AnalysisURL, cfg.AnalysisAPIKey, cfg.AnalysisRPS)

	var extractor ports.TextExtractor = remote.NewExtractor(client)
	if cfg.ExtractorMode == "local" {
		extractor = local.NewExtractor()
	}
	clients := ports.StageClients{
		Extractor:   extractor,
		Summarizer:  remote.NewSummarizer(client),
		Image:       remote.NewImageAnalyzer(client),
		Structure:   remote.NewStructureAnalyzer(client),
		Quality:     remote.NewQualityAnalyzer(client),
		Specialized: remote.NewSpecializedExtractor(client),
	}

	exec := resilience.NewExecutor(resilience.BreakerConfig{
		Enabled:          cfg.BreakerEnabled,
		MinRequests:      uint32(cfg.BreakerMinRequests),
		FailureRatio:     cfg.BreakerFailureRatio,
		OpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutSecs) * time.Second,
		HalfOpenMaxCalls: uint32(cfg.BreakerHalfOpenMaxCalls),
	})

	pipelineMetrics := metrics.NewPipelineMetrics("docinsight")

	var events ports.EventPublisher
	closeFn := func() {}
	if cfg.NATSURL != "" {
		publisher, err := natsq.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = publisher
		closeFn = publisher.Close
	}

	graph := pipeline.DefaultGraph()
	orchestrator := pipeline.NewOrchestrator(graph, clients, storage, exec, pipeline.Options{
		Policies:         stagePolicies(cfg),
		ConcurrencyLimit: cfg.ConcurrencyLimit,
		SummaryLength:    domain.SummaryLength(cfg.SummaryLength),
		Logger:           logger,
		Metrics:          pipelineMetrics,
		Events:           events,
	})
	service := pipeline.NewService(ctx, pipeline.NewRegistry(), orchestrator, storage, graph, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Service: service,
		Metrics: pipelineMetrics,
		closeFn: closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func stagePolicies(cfg config.Config) map[domain.StageID]resilience.Policy {
	out := make(map[domain.StageID]resilience.Policy, len(cfg.StagePolicies))
	for name, sp := range cfg.StagePolicies {
		id, err := domain.ParseStageID(name)
		if err != nil {
			continue
		}
		out[id] = resilience.Policy{
			MaxAttempts:         sp.MaxAttempts,
			BaseBackoff:         time.Duration(sp.BaseBackoffMS) * time.Millisecond,
			Timeout:             time.Duration(sp.TimeoutSeconds) * time.Second,
			RateLimitMultiplier: sp.RateLimitMultiplier,
		}
	}
	return out
}
