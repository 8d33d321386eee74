package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// MemoryStore is an in-memory nutriload.Store with PostgresStore's
// semantics: duplicate keys are skipped, foreign keys are enforced and a
// failing call changes nothing. Safe for concurrent use.
type MemoryStore struct {
	mu sync.Mutex

	categories map[int64]nutriload.Category
	nutrients  map[int64]nutriload.Nutrient
	foods      map[int64]nutriload.Food
	facts      map[nutriload.FactKey]nutriload.Fact
	factOrder  []nutriload.FactKey
	daily      []nutriload.DailyFact

	calls    map[string]int
	failures map[string]failure
}

type failure struct {
	after int
	err   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[int64]nutriload.Category),
		nutrients:  make(map[int64]nutriload.Nutrient),
		foods:      make(map[int64]nutriload.Food),
		facts:      make(map[nutriload.FactKey]nutriload.Fact),
		calls:      make(map[string]int),
		failures:   make(map[string]failure),
	}
}

// FailAfter makes every call on table after the first n return err.
func (m *MemoryStore) FailAfter(table string, n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[table] = failure{after: n, err: err}
}

// Calls returns how many write calls table has received, failed ones included.
func (m *MemoryStore) Calls(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[table]
}

// begin records a call and returns the injected failure for it, if any.
func (m *MemoryStore) begin(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.calls[table]++
	if f, ok := m.failures[table]; ok && m.calls[table] > f.after {
		return f.err
	}
	return nil
}

func (m *MemoryStore) InsertCategories(ctx context.Context, rows []nutriload.Category) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, "food_categories"); err != nil {
		return 0, err
	}

	var n int64
	for _, r := range rows {
		if _, ok := m.categories[r.ID]; !ok {
			m.categories[r.ID] = r
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) InsertNutrients(ctx context.Context, rows []nutriload.Nutrient) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, "nutrients"); err != nil {
		return 0, err
	}

	var n int64
	for _, r := range rows {
		if _, ok := m.nutrients[r.ID]; !ok {
			m.nutrients[r.ID] = r
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) InsertFoods(ctx context.Context, rows []nutriload.Food) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, "foods"); err != nil {
		return 0, err
	}

	for _, r := range rows {
		if _, ok := m.categories[r.CategoryID]; !ok {
			return 0, fmt.Errorf("foods: food %d references missing category %d", r.ID, r.CategoryID)
		}
		if len([]rune(r.Name)) > nutriload.MaxFoodNameLength {
			return 0, fmt.Errorf("foods: name of food %d exceeds %d characters", r.ID, nutriload.MaxFoodNameLength)
		}
	}

	var n int64
	for _, r := range rows {
		if _, ok := m.foods[r.ID]; !ok {
			m.foods[r.ID] = r
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) InsertFacts(ctx context.Context, rows []nutriload.Fact) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, "food_nutrients"); err != nil {
		return 0, err
	}

	for _, r := range rows {
		if _, ok := m.foods[r.FoodID]; !ok {
			return 0, fmt.Errorf("food_nutrients: missing food %d", r.FoodID)
		}
		if _, ok := m.nutrients[r.NutrientID]; !ok {
			return 0, fmt.Errorf("food_nutrients: missing nutrient %d", r.NutrientID)
		}
		if r.AmountPer100 < 0 || math.IsNaN(r.AmountPer100) || math.IsInf(r.AmountPer100, 0) {
			return 0, fmt.Errorf("food_nutrients: amount %v out of range for %v", r.AmountPer100, r.Key())
		}
	}

	var n int64
	for _, r := range rows {
		if _, ok := m.facts[r.Key()]; !ok {
			m.facts[r.Key()] = r
			m.factOrder = append(m.factOrder, r.Key())
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ReplaceDailyFacts(ctx context.Context, rows []nutriload.DailyFact) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, "daily_facts"); err != nil {
		return 0, err
	}

	m.daily = append([]nutriload.DailyFact(nil), rows...)
	return int64(len(rows)), nil
}

// Counts mirrors PostgresStore.Counts.
func (m *MemoryStore) Counts(ctx context.Context) ([]nutriload.TableCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return []nutriload.TableCount{
		{Table: "food_categories", Rows: int64(len(m.categories))},
		{Table: "nutrients", Rows: int64(len(m.nutrients))},
		{Table: "foods", Rows: int64(len(m.foods))},
		{Table: "food_nutrients", Rows: int64(len(m.facts))},
		{Table: "daily_facts", Rows: int64(len(m.daily))},
	}, nil
}

// Categories returns stored categories ordered by id.
func (m *MemoryStore) Categories() []nutriload.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]nutriload.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Nutrients returns stored nutrients ordered by id.
func (m *MemoryStore) Nutrients() []nutriload.Nutrient {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]nutriload.Nutrient, 0, len(m.nutrients))
	for _, n := range m.nutrients {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Foods returns stored foods ordered by id.
func (m *MemoryStore) Foods() []nutriload.Food {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]nutriload.Food, 0, len(m.foods))
	for _, f := range m.foods {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Facts returns stored facts in insertion order.
func (m *MemoryStore) Facts() []nutriload.Fact {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]nutriload.Fact, 0, len(m.factOrder))
	for _, k := range m.factOrder {
		out = append(out, m.facts[k])
	}
	return out
}

func (m *MemoryStore) DailyFacts() []nutriload.DailyFact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]nutriload.DailyFact(nil), m.daily...)
}

var _ nutriload.Store = (*MemoryStore)(nil)
