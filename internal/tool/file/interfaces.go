package file

import "os"

// pathResolver confines model-supplied paths to the workspace.
type pathResolver interface {
	Abs(path string) (string, error)
	RelOf(abs string) string
}

// fileSystem is the subset of service/fs the file tools use.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ReadFileRange(path string, offset, limit int64) ([]byte, error)
	WriteFileAtomic(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
	Remove(path string) error
}
