package etl

import (
	"context"
	"fmt"
)

// ChunkProgress describes one committed chunk.
type ChunkProgress struct {
	Index    int   // 1-based
	Total    int   // number of chunks
	Rows     int   // rows in this chunk
	Inserted int64 // rows the store reported as new
}

// ChunkTotals accumulates the committed chunks of a WriteChunks call.
type ChunkTotals struct {
	Chunks   int   // chunks committed
	Rows     int   // rows in committed chunks
	Inserted int64 // rows new to the table
}

// WriteChunks splits rows into consecutive chunks of at most size rows and
// passes each to write, which must commit it before returning. The first
// failure stops the loop: later chunks are not attempted and the totals of
// the chunks already committed are returned alongside the error.
func WriteChunks[T any](
	ctx context.Context,
	rows []T,
	size int,
	write func(ctx context.Context, chunk []T) (int64, error),
	progress func(ChunkProgress),
) (ChunkTotals, error) {
	var totals ChunkTotals
	if size <= 0 {
		return totals, fmt.Errorf("chunk size must be positive, got %d", size)
	}

	count := (len(rows) + size - 1) / size
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return totals, err
		}

		start := i * size
		end := min(start+size, len(rows))

		inserted, err := write(ctx, rows[start:end])
		if err != nil {
			return totals, fmt.Errorf("chunk %d of %d (rows %d-%d): %w", i+1, count, start+1, end, err)
		}

		totals.Chunks++
		totals.Rows += end - start
		totals.Inserted += inserted

		if progress != nil {
			progress(ChunkProgress{Index: i + 1, Total: count, Rows: end - start, Inserted: inserted})
		}
	}
	return totals, nil
}
