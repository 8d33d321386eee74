// Package files groups file access for the loader. The filesystem
// sub-package abstracts reads so the pipeline can run against the OS or an
// in-memory tree in tests.
package files
