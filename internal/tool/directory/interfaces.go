package directory

import "os"

// pathResolver confines model-supplied paths to the workspace.
type pathResolver interface {
	Abs(path string) (string, error)
	RelOf(abs string) string
}

// fileSystem is the subset of service/fs the listing uses.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ListDir(path string) ([]os.FileInfo, error)
}

// ignoreMatcher decides which entries the listing hides.
type ignoreMatcher interface {
	ShouldIgnore(relativePath string, isDir bool) bool
}
