package nutriload

import "context"

// Store writes pipeline output. Every method is its own unit of atomicity:
// it runs in one transaction that is committed before the method returns,
// and returns the number of rows actually inserted.
//
// The Insert methods are duplicate-skip inserts keyed on the table's
// uniqueness constraint: a row whose key already exists is a no-op and
// never an error.
type Store interface {
	InsertCategories(ctx context.Context, rows []Category) (int64, error)
	InsertNutrients(ctx context.Context, rows []Nutrient) (int64, error)
	InsertFoods(ctx context.Context, rows []Food) (int64, error)
	InsertFacts(ctx context.Context, rows []Fact) (int64, error)

	// ReplaceDailyFacts deletes existing Daily_Facts rows and inserts rows in
	// the same transaction. Daily_Facts has no natural key to skip on.
	ReplaceDailyFacts(ctx context.Context, rows []DailyFact) (int64, error)
}

// TableCount is the row count of one output table.
type TableCount struct {
	Table string
	Rows  int64
}
