package retry

import (
	"context"
	"time"
)

// Executor runs an operation until it succeeds, fails fatally, or the
// strategy's retry budget is spent. It is safe for concurrent use.
type Executor struct {
	classifier Classifier
	strategy   Strategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor panics if classifier or strategy is nil.
func NewExecutor(classifier Classifier, strategy Strategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of e that calls fn before each wait.
// The receiver is not modified.
func (e *Executor) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = fn
	return &clone
}

// Execute runs op and returns nil or the last error observed.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := DoValue(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue is Execute for operations that produce a value. The zero value is
// returned alongside any final error.
func DoValue[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	v, err := op(ctx)
	if err == nil {
		return v, nil
	}

	limit := e.strategy.MaxAttempts()
	for attempt := 0; limit < 0 || attempt < limit; attempt++ {
		if !e.classifier.IsTransient(err) {
			return zero, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		v, err = op(ctx)
		if err == nil {
			return v, nil
		}
	}

	return zero, err
}
