package store

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/nutriguide/nutriload/internal/testing"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

func newTestStore(t *testing.T) (*PostgresStore, *testhelpers.PoolWithNoticeCapture) {
	t.Helper()

	connString := testhelpers.RequireDatabase(t)
	dbName := testhelpers.UniqueDBName("nutriload_store")
	testhelpers.CreateTestDB(t, connString, dbName)

	pool := testhelpers.GetTestPoolWithNoticeCapture(t, connString, dbName)
	s := NewPostgresStore(pool.Pool)
	require.NoError(t, s.ApplySchema(context.Background()))
	return s, pool
}

func countsByTable(t *testing.T, s *PostgresStore) map[string]int64 {
	t.Helper()
	counts, err := s.Counts(context.Background())
	require.NoError(t, err)

	got := make(map[string]int64, len(counts))
	for _, c := range counts {
		got[c.Table] = c.Rows
	}
	return got
}

func TestPostgresStore_ApplySchemaIsIdempotent(t *testing.T) {
	s, pool := newTestStore(t)
	pool.Capture.Reset()

	require.NoError(t, s.ApplySchema(context.Background()))

	assert.NotEmpty(t, pool.Capture.Matching("already exists, skipping"))
	assert.Len(t, countsByTable(t, s), len(Tables))
}

func TestPostgresStore_InsertSkipsExistingRows(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	load := func() []int64 {
		var out []int64
		n, err := s.InsertCategories(ctx, []nutriload.Category{{ID: 1, Name: "Dairy and Egg Products"}, {ID: 2, Name: "Spices and Herbs"}})
		require.NoError(t, err)
		out = append(out, n)
		n, err = s.InsertNutrients(ctx, []nutriload.Nutrient{{ID: 1003, Name: "Protein", Unit: "g"}})
		require.NoError(t, err)
		out = append(out, n)
		n, err = s.InsertFoods(ctx, []nutriload.Food{{ID: 167512, Name: "Cheese, cheddar", CategoryID: 1}})
		require.NoError(t, err)
		out = append(out, n)
		n, err = s.InsertFacts(ctx, []nutriload.Fact{{FoodID: 167512, NutrientID: 1003, AmountPer100: 22.87}})
		require.NoError(t, err)
		out = append(out, n)
		return out
	}

	assert.Equal(t, []int64{2, 1, 1, 1}, load())
	assert.Equal(t, []int64{0, 0, 0, 0}, load(), "second run must insert nothing")

	assert.Equal(t, map[string]int64{
		"food_categories": 2,
		"nutrients":       1,
		"foods":           1,
		"food_nutrients":  1,
		"daily_facts":     0,
	}, countsByTable(t, s))
}

func TestPostgresStore_EmptyInsertIsNoop(t *testing.T) {
	s, _ := newTestStore(t)

	n, err := s.InsertFacts(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostgresStore_ConstraintViolationRollsBack(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertCategories(ctx, []nutriload.Category{{ID: 1, Name: "Dairy"}})
	require.NoError(t, err)

	_, err = s.InsertFoods(ctx, []nutriload.Food{
		{ID: 10, Name: "ok", CategoryID: 1},
		{ID: 11, Name: "orphan", CategoryID: 99},
	})
	require.Error(t, err)
	assert.Zero(t, countsByTable(t, s)["foods"])
}

func TestPostgresStore_RejectsNonFiniteAmounts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertCategories(ctx, []nutriload.Category{{ID: 1, Name: "Dairy"}})
	require.NoError(t, err)
	_, err = s.InsertNutrients(ctx, []nutriload.Nutrient{{ID: 1003, Name: "Protein", Unit: "g"}})
	require.NoError(t, err)
	_, err = s.InsertFoods(ctx, []nutriload.Food{{ID: 10, Name: "Cheese", CategoryID: 1}})
	require.NoError(t, err)

	for _, amount := range []float64{math.NaN(), math.Inf(1)} {
		_, err = s.InsertFacts(ctx, []nutriload.Fact{{FoodID: 10, NutrientID: 1003, AmountPer100: amount}})
		require.Error(t, err, amount)
	}
	assert.Zero(t, countsByTable(t, s)["food_nutrients"])
}

func TestPostgresStore_LongUnitAndCategory(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	unit := strings.Repeat("u", 40)
	_, err := s.InsertNutrients(ctx, []nutriload.Nutrient{{ID: 9000, Name: "Custom", Unit: unit}})
	require.NoError(t, err)

	category := strings.Repeat("c", 200)
	n, err := s.ReplaceDailyFacts(ctx, []nutriload.DailyFact{{Text: "Long label", Category: category}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPostgresStore_ReplaceDailyFacts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.ReplaceDailyFacts(ctx, nutriload.DefaultDailyFacts)
	require.NoError(t, err)
	assert.Equal(t, int64(len(nutriload.DefaultDailyFacts)), n)

	n, err = s.ReplaceDailyFacts(ctx, nutriload.DefaultDailyFacts)
	require.NoError(t, err)
	assert.Equal(t, int64(len(nutriload.DefaultDailyFacts)), n)
	assert.Equal(t, int64(len(nutriload.DefaultDailyFacts)), countsByTable(t, s)["daily_facts"])
}

func TestPostgresStore_Truncate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertCategories(ctx, []nutriload.Category{{ID: 1, Name: "Dairy"}})
	require.NoError(t, err)
	_, err = s.ReplaceDailyFacts(ctx, nutriload.DefaultDailyFacts)
	require.NoError(t, err)

	require.NoError(t, s.Truncate(ctx))

	for table, rows := range countsByTable(t, s) {
		assert.Zero(t, rows, table)
	}
}
