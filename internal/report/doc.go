// Package report renders run summaries and table counts for the terminal.
//
// Output is styled with lipgloss when stdout is a terminal and plain
// otherwise, so that piped output and CI logs stay free of escape codes.
package report
