package file

// -- Read File --

type ReadFileRequest struct {
	Path   string `json:"path"`
	Offset *int64 `json:"offset,omitempty"`
	Limit  *int64 `json:"limit,omitempty"`
}

func (r *ReadFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if r.Offset != nil && *r.Offset < 0 {
		return ErrInvalidOffset
	}
	if r.Limit != nil && *r.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// -- Create File --

type CreateFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (r *CreateFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

// -- Modify File --

// EditOperation replaces Before with After. An empty Before appends After.
// ExpectedReplacements defaults to 1.
type EditOperation struct {
	Before               string `json:"before"`
	After                string `json:"after"`
	ExpectedReplacements int    `json:"expected_replacements,omitempty"`
}

// ModifyFileRequest either replaces the whole file with Content or applies
// Operations in order.
type ModifyFileRequest struct {
	Path       string          `json:"path"`
	Content    *string         `json:"content,omitempty"`
	Operations []EditOperation `json:"operations,omitempty"`
}

func (r *ModifyFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if (r.Content == nil) == (len(r.Operations) == 0) {
		return ErrContentOrOperations
	}
	return nil
}

// -- Delete File --

type DeleteFileRequest struct {
	Path string `json:"path"`
}

func (r *DeleteFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}
