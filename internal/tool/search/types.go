package search

// Match is one matching line.
type Match struct {
	File        string `json:"file"`
	LineNumber  int    `json:"line_number"`
	LineContent string `json:"line_content"`
}

// SearchContentRequest is the search_content argument set.
type SearchContentRequest struct {
	Query          string `json:"query"`
	SearchPath     string `json:"search_path"`
	CaseSensitive  bool   `json:"case_sensitive"`
	IncludeIgnored bool   `json:"include_ignored"`
	Offset         int    `json:"offset"`
	Limit          int    `json:"limit"`
}

func (r *SearchContentRequest) Validate() error {
	if r.Query == "" {
		return ErrQueryRequired
	}
	if r.SearchPath == "" {
		r.SearchPath = "."
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	return nil
}
