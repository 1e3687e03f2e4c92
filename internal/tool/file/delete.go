package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/helper/content"
)

const deletePreviewBytes = 2000

// planDelete checks the file exists and previews what will be lost.
func (s *Toolset) planDelete(ctx context.Context, req *DeleteFileRequest) (*tool.Change, error) {
	abs, err := s.resolver.Abs(req.Path)
	if err != nil {
		return nil, err
	}
	rel := s.resolver.RelOf(abs)

	info, err := s.fs.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &PathError{Op: "delete", Path: rel, Cause: ErrFileMissing}
		}
		return nil, &PathError{Op: "delete", Path: rel, Cause: err}
	}
	if info.IsDir() {
		return nil, &PathError{Op: "delete", Path: rel, Cause: ErrIsDirectory}
	}

	preview := fmt.Sprintf("Delete %s (%d bytes)", rel, info.Size())
	if data, err := s.fs.ReadFileRange(abs, 0, deletePreviewBytes+1); err == nil && !content.IsBinary(data) {
		preview += "\n\n" + content.Truncate(string(data), deletePreviewBytes)
	}

	return &tool.Change{
		Kind:    tool.KindDelete,
		Target:  rel,
		Preview: tool.TextPreview(preview),
		Apply: func(ctx context.Context) tool.Outcome {
			if _, err := s.fs.Stat(abs); err != nil {
				return tool.Fail(&PathError{Op: "delete", Path: rel, Cause: ErrFileMissing})
			}
			if err := s.fs.Remove(abs); err != nil {
				return tool.Fail(&PathError{Op: "delete", Path: rel, Cause: err})
			}
			return tool.Succeed("Deleted file: " + rel)
		},
	}, nil
}
