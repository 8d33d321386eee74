package filesystem

import "io/fs"

// FileInfo is fs.FileInfo, kept as a local name for the abstraction.
type FileInfo = fs.FileInfo

// FileSystemProvider reads whole files and directory listings.
type FileSystemProvider interface {
	// ReadFile returns the full content of the file at path.
	ReadFile(path string) ([]byte, error)

	// ReadDir lists the entries directly under path, sorted by name.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns metadata for path.
	Stat(path string) (FileInfo, error)
}
