package directory

// DirectoryEntry is one listed path, relative to the workspace root.
type DirectoryEntry struct {
	RelativePath string
	IsDir        bool
	Size         int64
}

// ListDirectoryRequest lists path, optionally recursively.
type ListDirectoryRequest struct {
	Path           string `json:"path"`
	Recursive      bool   `json:"recursive,omitempty"`
	IncludeIgnored bool   `json:"include_ignored,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

func (r *ListDirectoryRequest) Validate() error {
	if r.Path == "" {
		r.Path = "."
	}
	if r.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}
