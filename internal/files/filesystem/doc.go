// Package filesystem abstracts the reads the pipeline performs on its data
// directory.
//
// Implementations:
//   - OSFileSystem: the real filesystem
//   - MemoryFileSystem: an in-memory tree for tests
//
// Missing paths are reported with an error wrapping fs.ErrNotExist in both.
package filesystem
