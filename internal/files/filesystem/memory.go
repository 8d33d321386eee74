package filesystem

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryEntry struct {
	info    *memoryFileInfo
	content []byte
}

// MemoryFileSystem is an in-memory FileSystemProvider. Relative paths are
// resolved against root. Safe for concurrent use.
type MemoryFileSystem struct {
	mu      sync.RWMutex
	root    string
	entries map[string]*memoryEntry
}

func NewMemoryFileSystem(root string) *MemoryFileSystem {
	mfs := &MemoryFileSystem{
		root:    path.Clean(filepath.ToSlash(root)),
		entries: make(map[string]*memoryEntry),
	}
	mfs.addDir(mfs.root)
	return mfs
}

// AddFile stores content at filePath, creating parent directories.
func (mfs *MemoryFileSystem) AddFile(filePath, content string) {
	abs := mfs.resolve(filePath)

	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	mfs.entries[abs] = &memoryEntry{
		content: []byte(content),
		info: &memoryFileInfo{
			name:    path.Base(abs),
			size:    int64(len(content)),
			mode:    0644,
			modTime: time.Now(),
		},
	}
	for dir := path.Dir(abs); ; dir = path.Dir(dir) {
		if _, ok := mfs.entries[dir]; !ok {
			mfs.addDirLocked(dir)
		}
		if dir == "/" || dir == "." || dir == mfs.root {
			break
		}
	}
}

// Remove deletes a file. Missing paths are ignored.
func (mfs *MemoryFileSystem) Remove(filePath string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	delete(mfs.entries, mfs.resolve(filePath))
}

func (mfs *MemoryFileSystem) ReadFile(filePath string) ([]byte, error) {
	e, err := mfs.lookup("open", filePath)
	if err != nil {
		return nil, err
	}
	if e.info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: filePath, Err: fs.ErrInvalid}
	}
	out := make([]byte, len(e.content))
	copy(out, e.content)
	return out, nil
}

func (mfs *MemoryFileSystem) ReadDir(dirPath string) ([]FileInfo, error) {
	e, err := mfs.lookup("readdir", dirPath)
	if err != nil {
		return nil, err
	}
	if !e.info.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: dirPath, Err: fs.ErrInvalid}
	}

	abs := mfs.resolve(dirPath)
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	var result []FileInfo
	for p, entry := range mfs.entries {
		if p != abs && path.Dir(p) == abs {
			result = append(result, entry.info)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

func (mfs *MemoryFileSystem) Stat(filePath string) (FileInfo, error) {
	e, err := mfs.lookup("stat", filePath)
	if err != nil {
		return nil, err
	}
	return e.info, nil
}

func (mfs *MemoryFileSystem) lookup(op, filePath string) (*memoryEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	e, ok := mfs.entries[mfs.resolve(filePath)]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: filePath, Err: fs.ErrNotExist}
	}
	return e, nil
}

func (mfs *MemoryFileSystem) resolve(p string) string {
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = path.Join(mfs.root, p)
	}
	return path.Clean(p)
}

func (mfs *MemoryFileSystem) addDir(dir string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.addDirLocked(dir)
}

func (mfs *MemoryFileSystem) addDirLocked(dir string) {
	mfs.entries[dir] = &memoryEntry{
		info: &memoryFileInfo{
			name:    path.Base(dir),
			mode:    0755 | fs.ModeDir,
			modTime: time.Now(),
		},
	}
}

var _ FileSystemProvider = (*MemoryFileSystem)(nil)
