// Package pipeline orchestrates one incremental observation run: discover
// candidate scenes, diff them against the observation history, process the
// new dates, and republish the map documents from the full layer cache.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/observability"
)

// Catalog is the imagery provider surface the pipeline depends on.
type Catalog interface {
	Search(ctx context.Context, region domain.BBox, from, to string, maxCloud float64) ([]domain.Scene, error)
	SamplePixels(ctx context.Context, sceneID string, field domain.Field, scale int) ([]domain.BandSample, error)
}

// HistoryStore is the per-date processing ledger.
type HistoryStore interface {
	ProcessedDates(ctx context.Context) (map[string]bool, error)
	LatestProcessedDate(ctx context.Context) (string, error)
	RecordOutcome(ctx context.Context, date string, cloudCover float64, outcome domain.Outcome) error
}

// LayerStore is the durable cache of computed date layers.
type LayerStore interface {
	Put(layer domain.DateLayer) error
	Get(date string) (domain.DateLayer, error)
	Dates() ([]string, error)
}

// Composer publishes map documents from the accumulated layers.
type Composer interface {
	Publish(layers []domain.DateLayer) error
}

// RunNotifier publishes the run report to downstream consumers. Optional;
// notification failure never fails a run.
type RunNotifier interface {
	PublishRunReport(ctx context.Context, report domain.RunReport) error
}

// Options are the per-run knobs.
type Options struct {
	SeasonStart  string // discovery window start, "2006-01-02"
	Since        string // optional override of SeasonStart
	CloudMax     float64
	Scale        int
	Workers      int
	ForceRebuild bool // reprocess dates already marked success
}

// Pipeline runs the discover/diff/process/publish cycle.
type Pipeline struct {
	fields   []domain.Field
	catalog  Catalog
	history  HistoryStore
	layers   LayerStore
	composer Composer
	notifier RunNotifier
	metrics  *observability.Metrics
	logger   *slog.Logger
	opts     Options
}

// New wires a Pipeline. notifier may be nil.
func New(
	fields []domain.Field,
	catalog Catalog,
	history HistoryStore,
	layers LayerStore,
	composer Composer,
	notifier RunNotifier,
	metrics *observability.Metrics,
	logger *slog.Logger,
	opts Options,
) *Pipeline {
	return &Pipeline{
		fields:   fields,
		catalog:  catalog,
		history:  history,
		layers:   layers,
		composer: composer,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
	}
}

// dateResult is the per-candidate outcome collected from the worker pool.
type dateResult struct {
	date   string
	pixels int
	err    error
}

// Run executes one observation cycle and returns its report. The returned
// error is non-nil only for run-fatal failures: discovery, the history read,
// or publishing. A date that fails to process is recorded as failed in the
// history and retried on the next run without failing this one.
func (p *Pipeline) Run(ctx context.Context) (domain.RunReport, error) {
	startedAt := domain.Now()
	windowStart, err := p.windowStart(ctx)
	if err != nil {
		return domain.RunReport{StartedAt: startedAt, FinishedAt: domain.Now()}, fmt.Errorf("read history: %w", err)
	}
	windowEnd := startedAt.UTC().Format("2006-01-02")

	report := domain.RunReport{
		RunID:       domain.NewRunID(windowStart, windowEnd, startedAt),
		StartedAt:   startedAt,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}

	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	logger := p.logger.With("run_id", report.RunID)
	logger.Info("run started",
		"window_start", windowStart,
		"window_end", windowEnd,
		"fields", len(p.fields),
		"force_rebuild", p.opts.ForceRebuild)

	region := domain.Region(p.fields)
	scenes, err := p.catalog.Search(ctx, region, windowStart, windowEnd, p.opts.CloudMax)
	if err != nil {
		report.FinishedAt = domain.Now()
		return report, fmt.Errorf("discover scenes: %w", err)
	}
	report.ScenesDiscovered = len(scenes)
	p.metrics.ScenesDiscovered.Add(float64(len(scenes)))

	processed, err := p.history.ProcessedDates(ctx)
	if err != nil {
		report.FinishedAt = domain.Now()
		return report, fmt.Errorf("read history: %w", err)
	}

	best := domain.BestScenePerDate(scenes)
	candidates := make([]domain.Scene, 0, len(best))
	for date, scene := range best {
		if processed[date] && !p.opts.ForceRebuild {
			report.AlreadyProcessed++
			p.metrics.DatesSkipped.Inc()
			continue
		}
		candidates = append(candidates, scene)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Date < candidates[j].Date })

	logger.Info("discovery complete",
		"scenes", len(scenes),
		"distinct_dates", len(best),
		"already_processed", report.AlreadyProcessed,
		"candidates", len(candidates))

	if len(candidates) == 0 {
		report.FinishedAt = domain.Now()
		logger.Info("no new dates, output unchanged")
		p.notify(ctx, logger, report)
		return report, nil
	}

	results := p.processCandidates(ctx, logger, candidates)
	for _, r := range results {
		if r.err != nil {
			report.Failed = append(report.Failed, r.date)
			continue
		}
		report.Processed = append(report.Processed, r.date)
		report.PixelsTotal += r.pixels
	}

	if err := p.publish(ctx, logger, &report); err != nil {
		report.FinishedAt = domain.Now()
		p.notify(ctx, logger, report)
		return report, err
	}

	report.FinishedAt = domain.Now()
	logger.Info("run finished",
		"processed", len(report.Processed),
		"failed", len(report.Failed),
		"layers_total", report.LayersTotal,
		"pixels", report.PixelsTotal,
		"duration", report.FinishedAt.Sub(report.StartedAt).String())
	p.notify(ctx, logger, report)
	return report, nil
}

// windowStart picks where discovery begins: an explicit override wins, then
// the latest processed date (the discovery window only needs to cover what
// is not yet in the ledger), then the configured season start. Force-rebuild
// always widens back to the season start.
func (p *Pipeline) windowStart(ctx context.Context) (string, error) {
	if p.opts.Since != "" {
		return p.opts.Since, nil
	}
	if p.opts.ForceRebuild {
		return p.opts.SeasonStart, nil
	}
	latest, err := p.history.LatestProcessedDate(ctx)
	if err != nil {
		return "", err
	}
	if latest == "" {
		return p.opts.SeasonStart, nil
	}
	return latest, nil
}

// processCandidates runs the per-date work through a bounded pool. Each
// closure returns nil so one bad date never cancels its siblings; failures
// travel in the result slice instead.
func (p *Pipeline) processCandidates(ctx context.Context, logger *slog.Logger, candidates []domain.Scene) []dateResult {
	results := make([]dateResult, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, scene := range candidates {
		g.Go(func() error {
			start := time.Now()
			pixels, err := p.processDate(gctx, logger, scene)
			p.metrics.SceneProcessDuration.Observe(time.Since(start).Seconds())

			mu.Lock()
			results[i] = dateResult{date: scene.Date, pixels: pixels, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// processDate samples every field in one scene, computes the indices, stores
// the layer, and records the outcome. The history write for a failure is
// best-effort: the date stays eligible for retry either way.
func (p *Pipeline) processDate(ctx context.Context, logger *slog.Logger, scene domain.Scene) (int, error) {
	layer := domain.DateLayer{
		Date:   scene.Date,
		Fields: make([]domain.FieldLayer, 0, len(p.fields)),
	}

	for _, field := range p.fields {
		samples, err := p.catalog.SamplePixels(ctx, scene.ID, field, p.opts.Scale)
		if err != nil {
			p.recordFailure(ctx, logger, scene, fmt.Errorf("sample field %s: %w", field.ID, err))
			return 0, err
		}
		layer.Fields = append(layer.Fields, domain.FieldLayer{
			FieldID:  field.ID,
			Name:     field.Name,
			Boundary: field.Boundary,
			Pixels:   domain.ComputePixels(samples),
		})
	}

	if err := p.layers.Put(layer); err != nil {
		p.recordFailure(ctx, logger, scene, err)
		return 0, err
	}
	if err := p.history.RecordOutcome(ctx, scene.Date, scene.CloudCover, domain.OutcomeSuccess); err != nil {
		return 0, err
	}

	pixels := layer.PixelCount()
	p.metrics.DatesProcessed.Inc()
	p.metrics.PixelsComputed.Add(float64(pixels))
	logger.Info("date processed",
		"date", scene.Date,
		"scene", scene.ID,
		"cloud_cover", scene.CloudCover,
		"pixels", pixels)
	return pixels, nil
}

func (p *Pipeline) recordFailure(ctx context.Context, logger *slog.Logger, scene domain.Scene, cause error) {
	p.metrics.DatesFailed.Inc()
	logger.Error("date failed", "date", scene.Date, "scene", scene.ID, "error", cause)
	if err := p.history.RecordOutcome(ctx, scene.Date, scene.CloudCover, domain.OutcomeFailed); err != nil {
		logger.Error("record failed outcome", "date", scene.Date, "error", err)
	}
}

// publish rebuilds all three documents from every cached layer. A publish
// failure is run-fatal so a half-updated document set is never left as the
// latest output silently.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, report *domain.RunReport) error {
	dates, err := p.layers.Dates()
	if err != nil {
		return fmt.Errorf("list layers: %w", err)
	}

	all := make([]domain.DateLayer, 0, len(dates))
	for _, date := range dates {
		layer, err := p.layers.Get(date)
		if err != nil {
			return fmt.Errorf("load layer: %w", err)
		}
		all = append(all, layer)
	}

	start := time.Now()
	err = p.composer.Publish(all)
	p.metrics.PublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("publish maps: %w", err)
	}

	report.Published = true
	report.LayersTotal = len(all)
	logger.Info("maps published", "layers", len(all))
	return nil
}

func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, report domain.RunReport) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishRunReport(ctx, report); err != nil {
		logger.Warn("run report publish failed", "error", err)
	}
}
