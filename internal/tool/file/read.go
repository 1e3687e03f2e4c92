package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Cyclone1070/kiro/internal/tool/helper/content"
)

// readFile returns the file text, or a byte range of it.
func (s *Toolset) readFile(ctx context.Context, req *ReadFileRequest) (string, error) {
	abs, err := s.resolver.Abs(req.Path)
	if err != nil {
		return "", err
	}
	rel := s.resolver.RelOf(abs)

	info, err := s.fs.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &PathError{Op: "read", Path: rel, Cause: ErrFileMissing}
		}
		return "", &PathError{Op: "read", Path: rel, Cause: err}
	}
	if info.IsDir() {
		return "", &PathError{Op: "read", Path: rel, Cause: ErrIsDirectory}
	}

	var offset, limit int64
	if req.Offset != nil {
		offset = *req.Offset
	}
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit == 0 && info.Size()-offset > s.maxFileSize {
		return "", &TooLargeError{Path: rel, Size: info.Size(), Limit: s.maxFileSize}
	}

	data, err := s.fs.ReadFileRange(abs, offset, limit)
	if err != nil {
		return "", &PathError{Op: "read", Path: rel, Cause: err}
	}
	if content.IsBinary(data) {
		return "", &PathError{Op: "read", Path: rel, Cause: ErrBinaryFile}
	}

	if end := offset + int64(len(data)); offset > 0 || end < info.Size() {
		return fmt.Sprintf("%s\n[bytes %d-%d of %d]", data, offset, end, info.Size()), nil
	}
	return string(data), nil
}
