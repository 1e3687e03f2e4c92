package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/helper/content"
)

// planCreate checks that the file can be created and returns the change.
// Nothing is written until Apply.
func (s *Toolset) planCreate(ctx context.Context, req *CreateFileRequest) (*tool.Change, error) {
	abs, err := s.resolver.Abs(req.Path)
	if err != nil {
		return nil, err
	}
	rel := s.resolver.RelOf(abs)

	if err := s.checkAbsent(abs, rel); err != nil {
		return nil, err
	}
	data := []byte(req.Content)
	if content.IsBinary(data) {
		return nil, &PathError{Op: "create", Path: rel, Cause: ErrBinaryFile}
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, &TooLargeError{Path: rel, Size: int64(len(data)), Limit: s.maxFileSize}
	}

	return &tool.Change{
		Kind:    tool.KindCreate,
		Target:  rel,
		Payload: req.Content,
		Preview: tool.TextPreview(req.Content),
		Apply: func(ctx context.Context) tool.Outcome {
			if err := s.checkAbsent(abs, rel); err != nil {
				return tool.Fail(err)
			}
			if err := s.fs.EnsureDirs(filepath.Dir(abs)); err != nil {
				return tool.Fail(&PathError{Op: "create", Path: rel, Cause: err})
			}
			if err := s.fs.WriteFileAtomic(abs, data, 0o644); err != nil {
				return tool.Fail(&PathError{Op: "create", Path: rel, Cause: err})
			}
			return tool.Succeed(fmt.Sprintf("Created file: %s (%d bytes)", rel, len(data)))
		},
	}, nil
}

func (s *Toolset) checkAbsent(abs, rel string) error {
	_, err := s.fs.Stat(abs)
	switch {
	case err == nil:
		return &PathError{Op: "create", Path: rel, Cause: ErrFileExists}
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return &PathError{Op: "create", Path: rel, Cause: err}
	}
}
