package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/helper/content"
	"github.com/pmezard/go-difflib/difflib"
)

// planModify computes the new content and a unified diff. Apply refuses to
// write if the file changed after planning.
func (s *Toolset) planModify(ctx context.Context, req *ModifyFileRequest) (*tool.Change, error) {
	abs, err := s.resolver.Abs(req.Path)
	if err != nil {
		return nil, err
	}
	rel := s.resolver.RelOf(abs)

	original, perm, err := s.readExisting(abs, rel, "modify")
	if err != nil {
		return nil, err
	}

	raw := string(original)
	hasCRLF := strings.Contains(raw, "\r\n")
	oldContent := strings.ReplaceAll(raw, "\r\n", "\n")

	var newContent string
	if req.Content != nil {
		newContent = strings.ReplaceAll(*req.Content, "\r\n", "\n")
	} else {
		newContent, err = applyOperations(oldContent, req.Operations)
		if err != nil {
			return nil, &PathError{Op: "modify", Path: rel, Cause: err}
		}
	}
	if newContent == oldContent {
		return nil, &PathError{Op: "modify", Path: rel, Cause: ErrNoChange}
	}

	final := newContent
	if hasCRLF {
		final = strings.ReplaceAll(newContent, "\n", "\r\n")
	}
	data := []byte(final)
	if int64(len(data)) > s.maxFileSize {
		return nil, &TooLargeError{Path: rel, Size: int64(len(data)), Limit: s.maxFileSize}
	}

	diff, added, removed := computeUnifiedDiff(rel, oldContent, newContent)

	return &tool.Change{
		Kind:    tool.KindModify,
		Target:  rel,
		Payload: final,
		Preview: tool.DiffPreview{Diff: diff, AddedLines: added, RemovedLines: removed},
		Apply: func(ctx context.Context) tool.Outcome {
			current, _, err := s.readExisting(abs, rel, "modify")
			if err != nil {
				return tool.Fail(err)
			}
			if !bytes.Equal(current, original) {
				return tool.Fail(&PathError{Op: "modify", Path: rel, Cause: ErrEditConflict})
			}
			if err := s.fs.WriteFileAtomic(abs, data, perm); err != nil {
				return tool.Fail(&PathError{Op: "modify", Path: rel, Cause: err})
			}
			return tool.Succeed(fmt.Sprintf("Modified file: %s (+%d -%d lines)", rel, added, removed))
		},
	}, nil
}

// readExisting reads a regular text file that must already exist.
func (s *Toolset) readExisting(abs, rel, op string) ([]byte, os.FileMode, error) {
	info, err := s.fs.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, &PathError{Op: op, Path: rel, Cause: ErrFileMissing}
		}
		return nil, 0, &PathError{Op: op, Path: rel, Cause: err}
	}
	if info.IsDir() {
		return nil, 0, &PathError{Op: op, Path: rel, Cause: ErrIsDirectory}
	}
	if info.Size() > s.maxFileSize {
		return nil, 0, &TooLargeError{Path: rel, Size: info.Size(), Limit: s.maxFileSize}
	}
	data, err := s.fs.ReadFile(abs)
	if err != nil {
		return nil, 0, &PathError{Op: op, Path: rel, Cause: err}
	}
	if content.IsBinary(data) {
		return nil, 0, &PathError{Op: op, Path: rel, Cause: ErrBinaryFile}
	}
	return data, info.Mode().Perm(), nil
}

func applyOperations(text string, ops []EditOperation) (string, error) {
	for i, op := range ops {
		before := strings.ReplaceAll(op.Before, "\r\n", "\n")
		after := strings.ReplaceAll(op.After, "\r\n", "\n")
		expected := op.ExpectedReplacements
		if expected <= 0 {
			expected = 1
		}

		if before == "" {
			if expected > 1 {
				return "", fmt.Errorf("operation %d: %w: append has 1 target, got %d", i+1, ErrReplacementCountMismatch, expected)
			}
			text += after
			continue
		}

		count := strings.Count(text, before)
		if count == 0 {
			return "", fmt.Errorf("operation %d: %w: %q", i+1, ErrSnippetNotFound, op.Before)
		}
		if count != expected {
			return "", fmt.Errorf("operation %d: %w: expected %d, found %d", i+1, ErrReplacementCountMismatch, expected, count)
		}
		text = strings.Replace(text, before, after, expected)
	}
	return text, nil
}

func computeUnifiedDiff(filename, oldContent, newContent string) (diff string, added, removed int) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + filename,
		ToFile:   "b/" + filename,
		Context:  3,
	}
	diff, _ = difflib.GetUnifiedDiffString(ud)

	// File headers only appear before the first hunk; inside a hunk a
	// removed "-- x" line also starts with "---".
	inHunk := false
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
		case !inHunk:
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return diff, added, removed
}
