package etl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nutriguide/nutriload/internal/files/filesystem"
	"github.com/nutriguide/nutriload/internal/logging"
	"github.com/nutriguide/nutriload/internal/source"
	"github.com/nutriguide/nutriload/internal/store"
	"github.com/nutriguide/nutriload/internal/testing/fixtures"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

const dataDir = "/data/sr_legacy"

func testConfig() nutriload.LoadConfig {
	cfg := nutriload.DefaultLoadConfig()
	cfg.DataDir = dataDir
	cfg.MinFactRecords = 0
	return cfg
}

func newTestPipeline(cfg nutriload.LoadConfig, fs filesystem.FileSystemProvider, st nutriload.Store, logger nutriload.Logger) *Pipeline {
	src := source.NewCSVSource(fs, cfg.DataDir, cfg.Files, logger)
	return NewPipeline(cfg, src, st, logger, WithRunID("test-run"))
}

func TestPipeline_SmallDataset(t *testing.T) {
	st := store.NewMemoryStore()
	p := newTestPipeline(testConfig(), fixtures.SmallDataset().Build(dataDir), st, logging.NewNullLogger())

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Completed)
	assert.True(t, summary.Passed)
	assert.Equal(t, "test-run", summary.RunID)
	assert.Equal(t, int64(5), summary.FactsLoaded)
	require.Len(t, summary.Stages, 5)

	assert.Equal(t, int64(3), summary.Inserted(StageCategories))

	nutrients, _ := summary.Stage(StageNutrients)
	assert.Equal(t, 4, nutrients.Read)
	assert.Equal(t, 1, nutrients.Excluded)
	assert.Equal(t, int64(3), nutrients.Inserted)

	foods, _ := summary.Stage(StageFoods)
	assert.Equal(t, 1, foods.Orphaned)
	assert.Equal(t, int64(3), foods.Inserted)

	facts, _ := summary.Stage(StageFacts)
	assert.Equal(t, 10, facts.Read)
	assert.Equal(t, 2, facts.InvalidRef)
	assert.Equal(t, 2, facts.InvalidAmount)
	assert.Equal(t, 1, facts.Duplicates)
	assert.Equal(t, 1, facts.Chunks)

	seed, _ := summary.Stage(StageSeed)
	assert.Equal(t, int64(len(nutriload.DefaultDailyFacts)), seed.Inserted)
	assert.Equal(t, 2, seed.ByCategory["Vitamins"])

	assert.Equal(t, []nutriload.Nutrient{
		{ID: 1003, Name: "Protein", Unit: "g"},
		{ID: 1008, Name: "Energy", Unit: "kcal"},
		{ID: 1106, Name: "Vitamin A, RAE", Unit: "mcg"},
	}, st.Nutrients())
	assert.Equal(t, "Spices, pepper, black", st.Foods()[1].Name)
	assert.Equal(t, nutriload.Fact{FoodID: 167512, NutrientID: 1003, AmountPer100: 22.87}, st.Facts()[0])
}

func TestPipeline_FoodsWithUnknownCategoryAreDropped(t *testing.T) {
	fs := fixtures.NewDatasetBuilder().
		AddCategory(1, "Dairy and Egg Products").
		AddCategory(2, "Spices and Herbs").
		AddCategory(3, "Baby Foods").
		AddNutrient(1003, "Protein", "G").
		AddFood(1, "a", 1).
		AddFood(2, "b", 2).
		AddFood(3, "c", 3).
		AddFood(4, "d", 99).
		Build(dataDir)

	core, logs := observer.New(zap.DebugLevel)
	st := store.NewMemoryStore()
	p := newTestPipeline(testConfig(), fs, st, logging.NewZapLoggerFromCore(core))

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, st.Foods(), 3)
	warnings := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "1 foods reference a category")
}

func TestPipeline_NutrientsLimitedToAllowList(t *testing.T) {
	cfg := testConfig()
	cfg.NutrientAllowList = []int64{1003, 1162, 2000}

	st := store.NewMemoryStore()
	p := newTestPipeline(cfg, fixtures.SmallDataset().Build(dataDir), st, logging.NewNullLogger())

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, st.Nutrients(), 1)
	assert.Equal(t, int64(1003), st.Nutrients()[0].ID)
	for _, f := range st.Facts() {
		assert.Equal(t, int64(1003), f.NutrientID)
	}
	assert.Equal(t, int64(3), summary.FactsLoaded)
}

func TestPipeline_NonFiniteAmountsAreDropped(t *testing.T) {
	fs := fixtures.NewDatasetBuilder().
		AddCategory(1, "Dairy and Egg Products").
		AddNutrient(1003, "Protein", "G").
		AddNutrient(1004, "Total lipid (fat)", "G").
		AddNutrient(1005, "Carbohydrate, by difference", "G").
		AddFood(10, "Cheese, cheddar", 1).
		AddFact(10, 1003, "NaN").
		AddFact(10, 1004, "Inf").
		AddFact(10, 1005, "-Infinity").
		Build(dataDir)

	st := store.NewMemoryStore()
	summary, err := newTestPipeline(testConfig(), fs, st, logging.NewNullLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, st.Facts())
	facts, _ := summary.Stage(StageFacts)
	assert.Equal(t, 3, facts.InvalidAmount)
}

func TestPipeline_RerunIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	fs := fixtures.SmallDataset().Build(dataDir)

	first, err := newTestPipeline(testConfig(), fs, st, logging.NewNullLogger()).Run(context.Background())
	require.NoError(t, err)
	before, err := st.Counts(context.Background())
	require.NoError(t, err)

	second, err := newTestPipeline(testConfig(), fs, st, logging.NewNullLogger()).Run(context.Background())
	require.NoError(t, err)
	after, err := st.Counts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, after)
	for _, stage := range []string{StageCategories, StageNutrients, StageFoods, StageFacts} {
		assert.Zero(t, second.Inserted(stage), stage)
		r, _ := second.Stage(stage)
		assert.Equal(t, int64(r.Written), r.Skipped(), stage)
	}
	assert.Equal(t, first.FactsLoaded, second.FactsLoaded)
	assert.True(t, second.Passed)
}

func TestPipeline_MissingSourceFileAbortsRun(t *testing.T) {
	fs := fixtures.SmallDataset().Build(dataDir)
	fs.Remove(dataDir + "/" + nutriload.DefaultFoodFile)

	st := store.NewMemoryStore()
	summary, err := newTestPipeline(testConfig(), fs, st, logging.NewNullLogger()).Run(context.Background())

	require.ErrorIs(t, err, nutriload.ErrSourceUnreadable)
	assert.Equal(t, nutriload.ExitSourceUnreadable, nutriload.ExitCodeForError(err))
	assert.False(t, summary.Completed)
	assert.Len(t, st.Categories(), 3, "earlier stages stay committed")
	assert.Empty(t, st.Foods())
	assert.Zero(t, st.Calls("food_nutrients"))
}

func TestPipeline_FactChunkFailureKeepsCommittedChunks(t *testing.T) {
	cfg := testConfig()
	cfg.FactBatchSize = 2

	boom := errors.New("server closed the connection unexpectedly")
	st := store.NewMemoryStore()
	st.FailAfter("food_nutrients", 1, boom)

	summary, err := newTestPipeline(cfg, fixtures.SmallDataset().Build(dataDir), st, logging.NewNullLogger()).Run(context.Background())

	require.ErrorIs(t, err, nutriload.ErrLoadFailed)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "chunk 2 of 3")
	assert.Equal(t, nutriload.ExitLoadFailed, nutriload.ExitCodeForError(err))

	assert.False(t, summary.Completed)
	assert.Equal(t, int64(2), summary.FactsLoaded)
	assert.Len(t, st.Facts(), 2)
	assert.Equal(t, 2, st.Calls("food_nutrients"), "no chunk after the failing one")
	assert.Empty(t, st.DailyFacts(), "seed stage must not run")
}

func TestPipeline_Threshold(t *testing.T) {
	t.Run("warns when not strict", func(t *testing.T) {
		cfg := testConfig()
		cfg.MinFactRecords = 100

		core, logs := observer.New(zap.DebugLevel)
		summary, err := newTestPipeline(cfg, fixtures.SmallDataset().Build(dataDir), store.NewMemoryStore(),
			logging.NewZapLoggerFromCore(core)).Run(context.Background())

		require.NoError(t, err)
		assert.True(t, summary.Completed)
		assert.False(t, summary.Passed)
		assert.Equal(t, 1, logs.FilterMessageSnippet("fewer than the required 100").Len())
	})

	t.Run("fails when strict", func(t *testing.T) {
		cfg := testConfig()
		cfg.MinFactRecords = 100
		cfg.Strict = true

		summary, err := newTestPipeline(cfg, fixtures.SmallDataset().Build(dataDir), store.NewMemoryStore(),
			logging.NewNullLogger()).Run(context.Background())

		require.ErrorIs(t, err, nutriload.ErrThresholdNotMet)
		assert.Equal(t, nutriload.ExitThresholdNotMet, nutriload.ExitCodeForError(err))
		assert.True(t, summary.Completed)
		assert.False(t, summary.Passed)
	})

	t.Run("exact count passes", func(t *testing.T) {
		cfg := testConfig()
		cfg.MinFactRecords = 5
		cfg.Strict = true

		summary, err := newTestPipeline(cfg, fixtures.SmallDataset().Build(dataDir), store.NewMemoryStore(),
			logging.NewNullLogger()).Run(context.Background())

		require.NoError(t, err)
		assert.True(t, summary.Passed)
	})
}

func TestPipeline_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.FactBatchSize = 0

	st := store.NewMemoryStore()
	summary, err := newTestPipeline(cfg, fixtures.SmallDataset().Build(dataDir), st, logging.NewNullLogger()).Run(context.Background())

	require.ErrorIs(t, err, nutriload.ErrInvalidConfig)
	assert.Nil(t, summary)
	assert.Zero(t, st.Calls("food_categories"))
}

func TestPipeline_CancelledContextIsNotLoadFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(testConfig(), fixtures.SmallDataset().Build(dataDir), store.NewMemoryStore(),
		logging.NewNullLogger()).Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, nutriload.ErrLoadFailed)
}

func TestPipeline_Clock(t *testing.T) {
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	src := source.NewCSVSource(fixtures.SmallDataset().Build(dataDir), dataDir, nutriload.DefaultSourceFiles(), logging.NewNullLogger())
	p := NewPipeline(testConfig(), src, store.NewMemoryStore(), logging.NewNullLogger(), WithClock(clock))

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, p.RunID())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC), summary.StartedAt)
	for _, s := range summary.Stages {
		assert.Equal(t, time.Second, s.Elapsed, s.Stage)
	}
}

func TestNewPipeline_PanicsOnNilDependencies(t *testing.T) {
	src := source.NewCSVSource(fixtures.SmallDataset().Build(dataDir), dataDir, nutriload.DefaultSourceFiles(), logging.NewNullLogger())
	st := store.NewMemoryStore()
	log := logging.NewNullLogger()

	assert.Panics(t, func() { NewPipeline(testConfig(), nil, st, log) })
	assert.Panics(t, func() { NewPipeline(testConfig(), src, nil, log) })
	assert.Panics(t, func() { NewPipeline(testConfig(), src, st, nil) })
}
