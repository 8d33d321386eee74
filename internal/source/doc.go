// Package source reads the SR Legacy CSV files into memory.
//
// Each file is decoded by header name with csvutil. A file that is missing,
// empty, or lacks a required column is unusable and reported as
// nutriload.ErrSourceUnreadable. A row that fails to decode is skipped and
// counted as malformed; it never aborts the read.
package source
