package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/nutriguide/nutriload/internal/cli"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(nutriload.ExitPanic)
		}
	}()

	if os.Getenv("NUTRILOAD_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(nutriload.ExitCodeForError(err))
	}
}
