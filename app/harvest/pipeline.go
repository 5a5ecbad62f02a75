package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/cima-comb/app/database"
	"github.com/lysyi3m/cima-comb/app/source"
)

var ErrRunInProgress = errors.New("harvest run already in progress")

type Pinger interface {
	PingContext(ctx context.Context) error
}

type SourceLister interface {
	Enabled() []source.Source
}

// Dispatcher receives the new items of a successful run.
type Dispatcher interface {
	Dispatch(ctx context.Context, items []database.Item) error
}

// Report describes the most recent completed run.
type Report struct {
	StartedAt     time.Time `json:"started_at"`
	Duration      string    `json:"duration"`
	Sources       int       `json:"sources"`
	FailedSources int       `json:"failed_sources"`
	Candidates    int       `json:"candidates"`
	New           int       `json:"new"`
	Updated       int       `json:"updated"`
	Unchanged     int       `json:"unchanged"`
	Failed        int       `json:"failed"`
}

type Pipeline struct {
	db         Pinger
	sources    SourceLister
	fetcher    *Fetcher
	enricher   DetailEnricher
	reconciler *Reconciler
	dispatcher Dispatcher
	pool       PoolConfig

	running  sync.Mutex
	inFlight atomic.Bool

	reportMu   sync.RWMutex
	lastReport *Report
}

type PipelineDeps struct {
	DB         Pinger
	Sources    SourceLister
	Fetcher    *Fetcher
	Enricher   DetailEnricher
	Reconciler *Reconciler
	Dispatcher Dispatcher // optional
	Pool       PoolConfig
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		db:         deps.DB,
		sources:    deps.Sources,
		fetcher:    deps.Fetcher,
		enricher:   deps.Enricher,
		reconciler: deps.Reconciler,
		dispatcher: deps.Dispatcher,
		pool:       deps.Pool,
	}
}

// Run executes one fetch, enrich, reconcile and dispatch cycle. Only one run is
// in flight at a time; a concurrent call gets ErrRunInProgress. The only errors
// returned are an unreachable store and ErrRunInProgress.
func (p *Pipeline) Run(ctx context.Context) ([]database.Item, error) {
	if !p.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.running.Unlock()
	p.inFlight.Store(true)
	defer p.inFlight.Store(false)

	start := time.Now()

	if err := p.db.PingContext(ctx); err != nil {
		pipelineRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	sources := p.sources.Enabled()
	slog.Info("Pipeline started", "sources", len(sources))

	listing := p.fetcher.FetchAll(ctx, sources)
	details := EnrichAll(ctx, p.enricher, listing.Candidates, p.pool)
	added, summary := p.reconciler.Reconcile(ctx, listing.Candidates, details)

	if p.dispatcher != nil && len(added) > 0 {
		if err := p.dispatcher.Dispatch(ctx, added); err != nil {
			slog.Error("Failed to dispatch new items", "count", len(added), "error", err)
		}
	}

	duration := time.Since(start)
	result := "success"
	if ctx.Err() != nil {
		result = "cancelled"
	}
	pipelineRuns.WithLabelValues(result).Inc()
	pipelineDuration.Observe(duration.Seconds())

	report := &Report{
		StartedAt:     start.UTC(),
		Duration:      duration.Round(time.Millisecond).String(),
		Sources:       len(sources),
		FailedSources: listing.Failed,
		Candidates:    len(listing.Candidates),
		New:           summary.New,
		Updated:       summary.Updated,
		Unchanged:     summary.Unchanged,
		Failed:        summary.Failed,
	}
	p.reportMu.Lock()
	p.lastReport = report
	p.reportMu.Unlock()

	slog.Info("Pipeline completed",
		"duration", report.Duration,
		"sources", report.Sources,
		"failed_sources", report.FailedSources,
		"candidates", report.Candidates,
		"new", report.New,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
		"result", result)

	return added, nil
}

// Running reports whether a run is currently in flight.
func (p *Pipeline) Running() bool {
	return p.inFlight.Load()
}

// LastReport returns nil before the first completed run.
func (p *Pipeline) LastReport() *Report {
	p.reportMu.RLock()
	defer p.reportMu.RUnlock()
	if p.lastReport == nil {
		return nil
	}
	report := *p.lastReport
	return &report
}
