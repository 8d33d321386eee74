package etl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

type chunkRecorder struct {
	sizes  []int
	failAt int // 1-based chunk index that fails; 0 never
	err    error
}

func (r *chunkRecorder) write(_ context.Context, chunk []int) (int64, error) {
	if r.failAt == len(r.sizes)+1 {
		return 0, r.err
	}
	r.sizes = append(r.sizes, len(chunk))
	return int64(len(chunk)), nil
}

func intRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestWriteChunks_Sizes(t *testing.T) {
	tests := []struct {
		name  string
		rows  int
		size  int
		sizes []int
	}{
		{"empty", 0, 10, nil},
		{"single partial", 3, 10, []int{3}},
		{"exact multiple", 20, 10, []int{10, 10}},
		{"trailing partial", 25, 10, []int{10, 10, 5}},
		{"size one", 3, 1, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &chunkRecorder{}
			totals, err := WriteChunks(context.Background(), intRange(tt.rows), tt.size, rec.write, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.sizes, rec.sizes)
			assert.Equal(t, len(tt.sizes), totals.Chunks)
			assert.Equal(t, tt.rows, totals.Rows)
			assert.Equal(t, int64(tt.rows), totals.Inserted)
		})
	}
}

func TestWriteChunks_FilteredScenarioUsesTwoChunks(t *testing.T) {
	rows, foods, nutrients := buildFactScenario()
	facts, _ := FilterFacts(rows, foods, nutrients)

	var sizes []int
	totals, err := WriteChunks(context.Background(), facts, nutriload.DefaultFactBatchSize,
		func(_ context.Context, chunk []nutriload.Fact) (int64, error) {
			sizes = append(sizes, len(chunk))
			return int64(len(chunk)), nil
		}, nil)

	require.NoError(t, err)
	assert.Equal(t, []int{50000, 3000}, sizes)
	assert.Equal(t, int64(53000), totals.Inserted)
}

func TestWriteChunks_FailureStopsLaterChunks(t *testing.T) {
	boom := errors.New("connection reset")
	rec := &chunkRecorder{failAt: 3, err: boom}

	var progress []ChunkProgress
	totals, err := WriteChunks(context.Background(), intRange(45), 10, rec.write, func(p ChunkProgress) {
		progress = append(progress, p)
	})

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "chunk 3 of 5 (rows 21-30)")
	assert.Equal(t, []int{10, 10}, rec.sizes, "chunks after the failure must not be attempted")
	assert.Equal(t, ChunkTotals{Chunks: 2, Rows: 20, Inserted: 20}, totals)
	require.Len(t, progress, 2)
	assert.Equal(t, ChunkProgress{Index: 2, Total: 5, Rows: 10, Inserted: 10}, progress[1])
}

func TestWriteChunks_InvalidSize(t *testing.T) {
	rec := &chunkRecorder{}
	_, err := WriteChunks(context.Background(), intRange(5), 0, rec.write, nil)

	assert.Error(t, err)
	assert.Empty(t, rec.sizes)
}

func TestWriteChunks_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &chunkRecorder{}

	calls := 0
	_, err := WriteChunks(ctx, intRange(30), 10, func(ctx context.Context, chunk []int) (int64, error) {
		calls++
		cancel()
		return rec.write(ctx, chunk)
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
