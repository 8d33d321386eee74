// Package retry re-runs operations that fail with transient PostgreSQL or
// network errors, waiting an exponentially growing delay between attempts.
//
// It guards connection establishment only. Pipeline writes are never
// retried: a failed chunk aborts the run.
//
//	exec := retry.NewExecutor(retry.NewPGClassifier(), retry.NewBackoff(3))
//	pool, err := retry.DoValue(ctx, exec, func(ctx context.Context) (*pgxpool.Pool, error) {
//	    return dial(ctx)
//	})
package retry
