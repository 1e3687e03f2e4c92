// Package fs wraps the OS filesystem calls the workspace tools need.
package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// OSFileSystem implements filesystem operations on the local disk.
type OSFileSystem struct{}

// NewOSFileSystem creates a new OSFileSystem.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// Stat returns file info for a path (follows symlinks).
func (fs *OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads a whole regular file.
func (fs *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return fs.ReadFileRange(path, 0, 0)
}

// ReadFileRange reads up to limit bytes starting at offset.
// A zero limit reads to the end of the file.
func (fs *OSFileSystem) ReadFileRange(path string, offset, limit int64) ([]byte, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	if offset >= info.Size() && info.Size() > 0 {
		return []byte{}, nil
	}
	if offset > 0 {
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			return nil, err
		}
	}

	var r io.Reader = file
	if limit > 0 {
		r = io.LimitReader(file, limit)
	}
	return io.ReadAll(r)
}

// WriteFileAtomic writes content via a temp file in the same directory and a
// rename, so readers never observe a partial file.
func (fs *OSFileSystem) WriteFileAtomic(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &AtomicWriteError{Step: "create", Path: dir, Cause: err}
	}
	tmpPath := tmpFile.Name()
	needsCleanup := true
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
		}
		if needsCleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(content); err != nil {
		return &AtomicWriteError{Step: "write", Path: tmpPath, Cause: err}
	}
	if err := tmpFile.Sync(); err != nil {
		return &AtomicWriteError{Step: "sync", Path: tmpPath, Cause: err}
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return &AtomicWriteError{Step: "close", Path: tmpPath, Cause: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &AtomicWriteError{Step: "rename", Path: path, Cause: err}
	}
	needsCleanup = false

	if err := os.Chmod(path, perm); err != nil {
		return &AtomicWriteError{Step: "chmod", Path: path, Cause: err}
	}
	return nil
}

// EnsureDirs creates a directory and its parents.
func (fs *OSFileSystem) EnsureDirs(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Remove deletes a file or empty directory.
func (fs *OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// ListDir lists the entries of a directory in name order.
func (fs *OSFileSystem) ListDir(path string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	infos := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info.
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}
