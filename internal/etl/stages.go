package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// Stage names, in execution order.
const (
	StageCategories = "categories"
	StageNutrients  = "nutrients"
	StageFoods      = "foods"
	StageFacts      = "facts"
	StageSeed       = "seed"
)

// StageResult reports what one stage read, dropped and wrote.
type StageResult struct {
	Stage string

	// Read is the number of rows decoded from the source file.
	Read int

	// Row counts dropped before writing, by reason. Each stage only uses
	// the reasons that apply to it.
	Malformed     int
	Excluded      int // nutrients outside the allow-list
	Orphaned      int // foods whose category was not loaded
	InvalidRef    int // facts whose food or nutrient was not loaded
	InvalidAmount int
	Duplicates    int

	// Written is the number of rows submitted in committed transactions;
	// Inserted is how many of them were new to the table.
	Written  int
	Inserted int64
	Chunks   int

	// Valid holds the ids written by this stage, for the next stage to check against.
	Valid nutriload.IDSet

	// ByCategory counts seed rows per category.
	ByCategory map[string]int

	Elapsed time.Duration
}

// Skipped is the number of written rows the database already held.
func (r StageResult) Skipped() int64 {
	return int64(r.Written) - r.Inserted
}

// Dropped is the number of source rows filtered out before writing.
func (r StageResult) Dropped() int {
	return r.Malformed + r.Excluded + r.Orphaned + r.InvalidRef + r.InvalidAmount + r.Duplicates
}

// loadFailed tags a store error with ErrLoadFailed. Cancellation is passed
// through untagged.
func loadFailed(stage string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s stage: %w", stage, err)
	}
	return fmt.Errorf("%s stage: %w: %w", stage, nutriload.ErrLoadFailed, err)
}

func (p *Pipeline) loadCategories(ctx context.Context) (StageResult, error) {
	res := StageResult{Stage: StageCategories}

	set, err := p.source.Categories(ctx)
	if err != nil {
		return res, err
	}
	res.Read = len(set.Rows)
	res.Malformed = set.Malformed

	rows := make([]nutriload.Category, 0, len(set.Rows))
	ids := make([]int64, 0, len(set.Rows))
	for _, r := range set.Rows {
		if r.ID == nil {
			res.Malformed++
			continue
		}
		rows = append(rows, nutriload.Category{ID: *r.ID, Name: r.Description})
		ids = append(ids, *r.ID)
	}

	inserted, err := p.store.InsertCategories(ctx, rows)
	if err != nil {
		return res, loadFailed(StageCategories, err)
	}
	res.Written = len(rows)
	res.Inserted = inserted
	res.Valid = nutriload.NewIDSet(ids...)
	return res, nil
}

func (p *Pipeline) loadNutrients(ctx context.Context) (StageResult, error) {
	res := StageResult{Stage: StageNutrients}

	set, err := p.source.Nutrients(ctx)
	if err != nil {
		return res, err
	}
	res.Read = len(set.Rows)
	res.Malformed = set.Malformed

	allowed := nutriload.NewIDSet(p.cfg.NutrientAllowList...)
	rows := make([]nutriload.Nutrient, 0, allowed.Len())
	ids := make([]int64, 0, allowed.Len())
	for _, r := range set.Rows {
		switch {
		case r.ID == nil:
			res.Malformed++
		case !allowed.Contains(*r.ID):
			res.Excluded++
		default:
			rows = append(rows, nutriload.Nutrient{
				ID:   *r.ID,
				Name: r.Name,
				Unit: NormalizeUnit(r.UnitName, p.cfg.UnitMap),
			})
			ids = append(ids, *r.ID)
		}
	}

	inserted, err := p.store.InsertNutrients(ctx, rows)
	if err != nil {
		return res, loadFailed(StageNutrients, err)
	}
	res.Written = len(rows)
	res.Inserted = inserted
	res.Valid = nutriload.NewIDSet(ids...)
	return res, nil
}

func (p *Pipeline) loadFoods(ctx context.Context, categories nutriload.IDSet) (StageResult, error) {
	res := StageResult{Stage: StageFoods}

	set, err := p.source.Foods(ctx)
	if err != nil {
		return res, err
	}
	res.Read = len(set.Rows)
	res.Malformed = set.Malformed

	rows := make([]nutriload.Food, 0, len(set.Rows))
	ids := make([]int64, 0, len(set.Rows))
	for _, r := range set.Rows {
		switch {
		case r.FDCID == nil:
			res.Malformed++
		case r.CategoryID == nil || !categories.Contains(*r.CategoryID):
			res.Orphaned++
		default:
			rows = append(rows, nutriload.Food{
				ID:         *r.FDCID,
				Name:       CleanFoodName(r.Description),
				CategoryID: *r.CategoryID,
			})
			ids = append(ids, *r.FDCID)
		}
	}

	inserted, err := p.store.InsertFoods(ctx, rows)
	if err != nil {
		return res, loadFailed(StageFoods, err)
	}
	res.Written = len(rows)
	res.Inserted = inserted
	res.Valid = nutriload.NewIDSet(ids...)
	return res, nil
}

func (p *Pipeline) loadFacts(ctx context.Context, foods, nutrients nutriload.IDSet) (StageResult, error) {
	res := StageResult{Stage: StageFacts}

	set, err := p.source.Facts(ctx)
	if err != nil {
		return res, err
	}
	res.Read = len(set.Rows)

	facts, stats := FilterFacts(set.Rows, foods, nutrients)
	res.Malformed = set.Malformed + stats.Malformed
	res.InvalidRef = stats.InvalidRef
	res.InvalidAmount = stats.InvalidAmount
	res.Duplicates = stats.Duplicates

	p.logger.Verbose("%d of %d fact rows remain after filtering", len(facts), res.Read)

	totals, err := WriteChunks(ctx, facts, p.cfg.FactBatchSize, p.store.InsertFacts, func(c ChunkProgress) {
		p.logger.Info("  chunk %d/%d: %d rows, %d new", c.Index, c.Total, c.Rows, c.Inserted)
	})
	res.Written = totals.Rows
	res.Inserted = totals.Inserted
	res.Chunks = totals.Chunks
	if err != nil {
		return res, loadFailed(StageFacts, err)
	}
	return res, nil
}

func (p *Pipeline) loadSeed(ctx context.Context) (StageResult, error) {
	res := StageResult{Stage: StageSeed, Read: len(p.cfg.SeedFacts)}

	inserted, err := p.store.ReplaceDailyFacts(ctx, p.cfg.SeedFacts)
	if err != nil {
		return res, loadFailed(StageSeed, err)
	}

	res.Written = len(p.cfg.SeedFacts)
	res.Inserted = inserted
	res.ByCategory = make(map[string]int)
	for _, f := range p.cfg.SeedFacts {
		res.ByCategory[f.Category]++
	}
	return res, nil
}
