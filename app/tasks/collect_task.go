package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/ioc-comb/app/database"
	"github.com/lysyi3m/ioc-comb/app/feed"
	"github.com/lysyi3m/ioc-comb/app/ioc"
	"github.com/lysyi3m/ioc-comb/app/metrics"
)

// CollectTask runs one collector pass for a source and persists the result.
// Artifacts are stored before the cursor moves, so a failed store is
// re-extracted on retry.
type CollectTask struct {
	Task
	SourceConfig     *feed.Config
	httpClient       *http.Client
	parser           *feed.Parser
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	sourceRepo       database.SourceRepository
	artifactRepo     database.ArtifactRepository
	userAgent        string
}

func NewCollectTask(sourceConfig *feed.Config, httpClient *http.Client, parser *feed.Parser, filterer *feed.Filterer,
	contentExtractor *feed.ContentExtractor, sourceRepo database.SourceRepository, artifactRepo database.ArtifactRepository,
	userAgent string) *CollectTask {
	return &CollectTask{
		Task:             NewTask(TaskTypeCollect, sourceConfig.Name),
		SourceConfig:     sourceConfig,
		httpClient:       httpClient,
		parser:           parser,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		sourceRepo:       sourceRepo,
		artifactRepo:     artifactRepo,
		userAgent:        userAgent,
	}
}

func (t *CollectTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	source, err := t.sourceRepo.GetSource(t.SourceName)
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}
	if source == nil {
		return fmt.Errorf("source '%s' is not registered", t.SourceName)
	}

	collector, err := t.newCollector()
	if err != nil {
		return err
	}

	started := time.Now()
	cursor, artifacts, err := collector.Run(ctx, source.Cursor)
	metrics.CollectDuration.WithLabelValues(t.SourceName).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.CollectRuns.WithLabelValues(t.SourceName, metrics.ResultFailure).Inc()
		return fmt.Errorf("failed to collect artifacts: %w", err)
	}

	kept := t.filterer.Run(artifacts, t.SourceConfig)

	inserted, err := t.artifactRepo.InsertArtifacts(t.SourceName, kept)
	if err != nil {
		metrics.CollectRuns.WithLabelValues(t.SourceName, metrics.ResultFailure).Inc()
		return fmt.Errorf("failed to store artifacts: %w", err)
	}

	nextCollect := time.Now().UTC().Add(time.Duration(t.SourceConfig.Settings.RefreshInterval) * time.Second)
	if err := t.sourceRepo.UpdateCursor(t.SourceName, cursor, nextCollect); err != nil {
		metrics.CollectRuns.WithLabelValues(t.SourceName, metrics.ResultFailure).Inc()
		return fmt.Errorf("failed to update cursor: %w", err)
	}

	metrics.CollectRuns.WithLabelValues(t.SourceName, metrics.ResultSuccess).Inc()
	metrics.ArtifactsStored.WithLabelValues(t.SourceName).Add(float64(inserted))
	for _, artifact := range kept {
		metrics.ArtifactsExtracted.WithLabelValues(t.SourceName, string(artifact.Kind)).Inc()
	}

	slog.Info("Task completed",
		"type", "Collect",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"extracted", len(artifacts),
		"filtered", len(artifacts)-len(kept),
		"new", inserted)

	return nil
}

func (t *CollectTask) newCollector() (*ioc.Collector, error) {
	timeout := time.Duration(t.SourceConfig.Settings.Timeout) * time.Second
	fetcher := feed.NewFetcher(t.httpClient, t.userAgent, timeout)

	var parser ioc.Parser = t.parser
	if t.SourceConfig.Settings.ExtractContent {
		parser = feed.NewEnrichingParser(t.parser, fetcher, t.contentExtractor)
	}

	collector, err := ioc.NewCollector(t.SourceConfig.URL, t.SourceConfig.FeedType, fetcher, parser, ioc.WithName(t.SourceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create collector: %w", err)
	}

	return collector, nil
}
