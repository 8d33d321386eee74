// Package store writes pipeline output.
//
// PostgresStore targets PostgreSQL through pgx. Each insert is a single
// statement over unnest()ed arrays with ON CONFLICT DO NOTHING, run in its
// own committed transaction. MemoryStore applies the same duplicate-skip
// rules in memory and backs dry runs and tests.
package store
