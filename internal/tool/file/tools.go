// Package file provides the workspace file tools. Reads run immediately;
// create, modify and delete are planned as changes and only touch the disk
// once approved.
package file

import (
	"github.com/Cyclone1070/kiro/internal/tool"
)

const defaultMaxFileSize = 20 * 1024 * 1024

// Toolset builds the file tools over one workspace.
type Toolset struct {
	fs          fileSystem
	resolver    pathResolver
	maxFileSize int64
}

// NewToolset creates the file tools. maxFileSize <= 0 uses 20MB.
func NewToolset(fs fileSystem, resolver pathResolver, maxFileSize int64) *Toolset {
	if fs == nil {
		panic("fs is required")
	}
	if resolver == nil {
		panic("resolver is required")
	}
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	return &Toolset{fs: fs, resolver: resolver, maxFileSize: maxFileSize}
}

// Tools returns read_file, create_file, modify_file and delete_file.
func (s *Toolset) Tools() []tool.Tool {
	return []tool.Tool{
		tool.New(readFileDecl, s.readFile),
		tool.NewMutating(createFileDecl, s.planCreate),
		tool.NewMutating(modifyFileDecl, s.planModify),
		tool.NewMutating(deleteFileDecl, s.planDelete),
	}
}

var pathParam = &tool.Schema{Type: tool.TypeString, Description: "Path relative to the workspace root"}

var reasonParam = &tool.Schema{Type: tool.TypeString, Description: "Why this change is needed, shown to the user"}

var readFileDecl = tool.Declaration{
	Name:        "read_file",
	Description: "Read a text file from the workspace. Use offset and limit (bytes) for large files.",
	Parameters: &tool.Schema{
		Type: tool.TypeObject,
		Properties: map[string]*tool.Schema{
			"path":   pathParam,
			"offset": {Type: tool.TypeInteger, Description: "Byte offset to start reading from"},
			"limit":  {Type: tool.TypeInteger, Description: "Maximum number of bytes to read"},
		},
		Required: []string{"path"},
	},
}

var createFileDecl = tool.Declaration{
	Name:        "create_file",
	Description: "Create a new file with the given content. Fails if the file already exists. Requires user approval.",
	Parameters: &tool.Schema{
		Type: tool.TypeObject,
		Properties: map[string]*tool.Schema{
			"path":    pathParam,
			"content": {Type: tool.TypeString, Description: "Full content of the new file"},
			"reason":  reasonParam,
		},
		Required: []string{"path", "content"},
	},
}

var modifyFileDecl = tool.Declaration{
	Name: "modify_file",
	Description: "Change an existing file, either by replacing its whole content or by applying " +
		"before/after text replacements. Requires user approval.",
	Parameters: &tool.Schema{
		Type: tool.TypeObject,
		Properties: map[string]*tool.Schema{
			"path":    pathParam,
			"content": {Type: tool.TypeString, Description: "New full content of the file"},
			"operations": {
				Type:        tool.TypeArray,
				Description: "Replacements applied in order",
				Items: &tool.Schema{
					Type: tool.TypeObject,
					Properties: map[string]*tool.Schema{
						"before":                {Type: tool.TypeString, Description: "Exact text to find; empty appends"},
						"after":                 {Type: tool.TypeString, Description: "Replacement text"},
						"expected_replacements": {Type: tool.TypeInteger, Description: "Expected match count (default 1)"},
					},
					Required: []string{"before", "after"},
				},
			},
			"reason": reasonParam,
		},
		Required: []string{"path"},
	},
}

var deleteFileDecl = tool.Declaration{
	Name:        "delete_file",
	Description: "Delete a file from the workspace. Requires user approval.",
	Parameters: &tool.Schema{
		Type: tool.TypeObject,
		Properties: map[string]*tool.Schema{
			"path":   pathParam,
			"reason": reasonParam,
		},
		Required: []string{"path"},
	},
}
