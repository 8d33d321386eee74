package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// ForcedApprover approves after a countdown. It is used when reset runs
// with --force and leaves a few seconds to press Ctrl+C.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a ForcedApprover that writes to stderr.
func NewForcedApprover(verbose bool) nutriload.Approver {
	return &ForcedApprover{verbose: verbose, output: os.Stderr, sleepFn: time.Sleep}
}

// RequestApproval prints the warning, counts down and approves.
func (a *ForcedApprover) RequestApproval(ctx context.Context, dbName string) (bool, error) {
	fmt.Fprintf(a.output, "\nDANGER: every row in the nutrition tables of '%s' will be deleted.\n\n", dbName)

	countdownSeconds := int(nutriload.DefaultResetCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.output)
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rTruncating in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(time.Second)
		}
	}
	if err := ctx.Err(); err != nil {
		fmt.Fprintln(a.output)
		return false, err
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with reset...                                      \n")
	return true, nil
}

var _ nutriload.Approver = (*ForcedApprover)(nil)
