package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

//go:embed schema.sql
var schemaSQL string

// Tables lists the output tables in dependency order.
var Tables = []string{"food_categories", "nutrients", "foods", "food_nutrients", "daily_facts"}

const (
	insertCategoriesSQL = `
		INSERT INTO food_categories (category_id, category_name)
		SELECT * FROM unnest($1::bigint[], $2::text[])
		ON CONFLICT (category_id) DO NOTHING`

	insertNutrientsSQL = `
		INSERT INTO nutrients (nutrient_id, nutrient_name, unit_name)
		SELECT * FROM unnest($1::bigint[], $2::text[], $3::text[])
		ON CONFLICT (nutrient_id) DO NOTHING`

	insertFoodsSQL = `
		INSERT INTO foods (food_id, name, food_category_id)
		SELECT * FROM unnest($1::bigint[], $2::text[], $3::bigint[])
		ON CONFLICT (food_id) DO NOTHING`

	insertFactsSQL = `
		INSERT INTO food_nutrients (food_id, nutrient_id, amount_per_100g)
		SELECT * FROM unnest($1::bigint[], $2::bigint[], $3::float8[])
		ON CONFLICT ON CONSTRAINT uq_food_nutrients_food_nutrient DO NOTHING`

	deleteDailyFactsSQL = `DELETE FROM daily_facts`

	insertDailyFactsSQL = `
		INSERT INTO daily_facts (fact_text, category)
		SELECT * FROM unnest($1::text[], $2::text[])`
)

// PostgresStore implements nutriload.Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore panics if pool is nil. The caller keeps ownership of pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

// ApplySchema creates any missing tables and indexes.
func (s *PostgresStore) ApplySchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Truncate empties every output table and restarts the daily_facts sequence.
func (s *PostgresStore) Truncate(ctx context.Context) error {
	sql := "TRUNCATE " + pgx.Identifier{Tables[0]}.Sanitize()
	for _, t := range Tables[1:] {
		sql += ", " + pgx.Identifier{t}.Sanitize()
	}
	sql += " RESTART IDENTITY CASCADE"

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// Counts returns the row count of every output table, in Tables order.
func (s *PostgresStore) Counts(ctx context.Context) ([]nutriload.TableCount, error) {
	counts := make([]nutriload.TableCount, 0, len(Tables))
	for _, t := range Tables {
		var n int64
		query := "SELECT count(*) FROM " + pgx.Identifier{t}.Sanitize()
		if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		counts = append(counts, nutriload.TableCount{Table: t, Rows: n})
	}
	return counts, nil
}

func (s *PostgresStore) InsertCategories(ctx context.Context, rows []nutriload.Category) (int64, error) {
	ids := make([]int64, len(rows))
	names := make([]string, len(rows))
	for i, r := range rows {
		ids[i], names[i] = r.ID, r.Name
	}
	return s.exec(ctx, len(rows), insertCategoriesSQL, ids, names)
}

func (s *PostgresStore) InsertNutrients(ctx context.Context, rows []nutriload.Nutrient) (int64, error) {
	ids := make([]int64, len(rows))
	names := make([]string, len(rows))
	units := make([]string, len(rows))
	for i, r := range rows {
		ids[i], names[i], units[i] = r.ID, r.Name, r.Unit
	}
	return s.exec(ctx, len(rows), insertNutrientsSQL, ids, names, units)
}

func (s *PostgresStore) InsertFoods(ctx context.Context, rows []nutriload.Food) (int64, error) {
	ids := make([]int64, len(rows))
	names := make([]string, len(rows))
	categories := make([]int64, len(rows))
	for i, r := range rows {
		ids[i], names[i], categories[i] = r.ID, r.Name, r.CategoryID
	}
	return s.exec(ctx, len(rows), insertFoodsSQL, ids, names, categories)
}

func (s *PostgresStore) InsertFacts(ctx context.Context, rows []nutriload.Fact) (int64, error) {
	foods := make([]int64, len(rows))
	nutrients := make([]int64, len(rows))
	amounts := make([]float64, len(rows))
	for i, r := range rows {
		foods[i], nutrients[i], amounts[i] = r.FoodID, r.NutrientID, r.AmountPer100
	}
	return s.exec(ctx, len(rows), insertFactsSQL, foods, nutrients, amounts)
}

func (s *PostgresStore) ReplaceDailyFacts(ctx context.Context, rows []nutriload.DailyFact) (int64, error) {
	texts := make([]string, len(rows))
	categories := make([]string, len(rows))
	for i, r := range rows {
		texts[i], categories[i] = r.Text, r.Category
	}

	var inserted int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteDailyFactsSQL); err != nil {
			return fmt.Errorf("clear daily_facts: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		tag, err := tx.Exec(ctx, insertDailyFactsSQL, texts, categories)
		if err != nil {
			return fmt.Errorf("insert daily_facts: %w", err)
		}
		inserted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// exec runs one insert statement in its own transaction and returns the
// number of rows that were new.
func (s *PostgresStore) exec(ctx context.Context, n int, sql string, args ...any) (int64, error) {
	if n == 0 {
		return 0, nil
	}

	var inserted int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		inserted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

var _ nutriload.Store = (*PostgresStore)(nil)
