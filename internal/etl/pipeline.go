package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// Pipeline runs one load. It is not safe for concurrent Run calls.
type Pipeline struct {
	cfg    nutriload.LoadConfig
	source nutriload.Source
	store  nutriload.Store
	logger nutriload.Logger
	runID  string
	now    func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunID sets the run identifier reported in the summary. A random UUID
// is used otherwise.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.runID = id }
}

// WithClock replaces time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline panics if source, store or logger is nil. cfg is copied.
func NewPipeline(cfg nutriload.LoadConfig, source nutriload.Source, store nutriload.Store, logger nutriload.Logger, opts ...Option) *Pipeline {
	if source == nil {
		panic("source cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	p := &Pipeline{
		cfg:    cfg,
		source: source,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runID == "" {
		p.runID = uuid.NewString()
	}
	return p
}

// RunID returns the identifier of this run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run executes the stages in order. Stages commit as they go, so on error
// the returned summary describes the committed work and Completed is false.
// A missed fact threshold is an error only in strict mode.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	start := p.now()
	summary := &Summary{
		RunID:          p.runID,
		StartedAt:      start,
		DryRun:         p.cfg.DryRun,
		MinFactRecords: p.cfg.MinFactRecords,
	}
	finish := func(res StageResult, stageStart time.Time) {
		res.Elapsed = p.now().Sub(stageStart)
		summary.Stages = append(summary.Stages, res)
		summary.Elapsed = p.now().Sub(start)
	}

	p.logger.Info("Starting SR Legacy load from %s (run %s)", p.cfg.DataDir, p.runID)

	t := p.now()
	p.logger.Info("Loading food categories...")
	categories, err := p.loadCategories(ctx)
	finish(categories, t)
	if err != nil {
		return summary, err
	}
	p.logger.Info("Inserted %d categories (%d already present)", categories.Inserted, categories.Skipped())

	t = p.now()
	p.logger.Info("Loading nutrients (%d allowed)...", len(p.cfg.NutrientAllowList))
	nutrients, err := p.loadNutrients(ctx)
	finish(nutrients, t)
	if err != nil {
		return summary, err
	}
	p.logger.Info("Inserted %d nutrients (%d already present, %d not in allow-list)",
		nutrients.Inserted, nutrients.Skipped(), nutrients.Excluded)

	t = p.now()
	p.logger.Info("Loading foods...")
	foods, err := p.loadFoods(ctx, categories.Valid)
	finish(foods, t)
	if err != nil {
		return summary, err
	}
	p.logger.Info("Inserted %d foods (%d already present)", foods.Inserted, foods.Skipped())
	if foods.Orphaned > 0 {
		p.logger.Warn("%d foods reference a category that was not loaded and were skipped", foods.Orphaned)
	}

	t = p.now()
	p.logger.Info("Loading food nutrient facts in chunks of %d...", p.cfg.FactBatchSize)
	facts, err := p.loadFacts(ctx, foods.Valid, nutrients.Valid)
	finish(facts, t)
	summary.FactsLoaded = int64(facts.Written)
	if err != nil {
		p.logger.Error("Fact load stopped after %d committed chunks (%d rows)", facts.Chunks, facts.Written)
		return summary, err
	}
	p.logger.Info("Inserted %d facts (%d already present, %d filtered)",
		facts.Inserted, facts.Skipped(), facts.Dropped())

	t = p.now()
	p.logger.Info("Seeding daily facts...")
	seed, err := p.loadSeed(ctx)
	finish(seed, t)
	if err != nil {
		return summary, err
	}
	p.logger.Info("Inserted %d daily facts", seed.Inserted)

	summary.Completed = true
	summary.Passed = summary.FactsLoaded >= p.cfg.MinFactRecords

	if !summary.Passed {
		msg := fmt.Sprintf("%d facts loaded, fewer than the required %d", summary.FactsLoaded, p.cfg.MinFactRecords)
		if p.cfg.Strict {
			return summary, fmt.Errorf("%s: %w", msg, nutriload.ErrThresholdNotMet)
		}
		p.logger.Warn("%s", msg)
	}

	p.logger.Info("Load finished in %v", summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}
