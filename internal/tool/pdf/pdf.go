// Package pdf provides read-only tools over PDF files in the workspace.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/helper/content"
)

var (
	ErrNotPDF       = errors.New("file must be a PDF (.pdf extension)")
	ErrNotFound     = errors.New("PDF file not found")
	ErrNoText       = errors.New("no text could be extracted from the specified pages")
	ErrBadPageRange = errors.New("invalid page range")
	ErrPathRequired = errors.New("path is required")
	ErrQueryMissing = errors.New("query is required")
)

const maxSearchMatches = 10

type pathResolver interface {
	Abs(path string) (string, error)
	RelOf(abs string) string
}

// Tools reads PDFs inside the workspace.
type Tools struct {
	resolver  pathResolver
	open      Opener
	maxOutput int
}

// New creates the PDF tools. A nil opener uses OpenFile; maxOutput <= 0
// uses 10000 characters.
func New(resolver pathResolver, open Opener, maxOutput int) *Tools {
	if resolver == nil {
		panic("resolver is required")
	}
	if open == nil {
		open = OpenFile
	}
	if maxOutput <= 0 {
		maxOutput = 10000
	}
	return &Tools{resolver: resolver, open: open, maxOutput: maxOutput}
}

type ReadRequest struct {
	Path  string `json:"path"`
	Pages string `json:"pages,omitempty"`
}

func (r *ReadRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

type InfoRequest struct {
	Path string `json:"path"`
}

func (r *InfoRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

type SearchRequest struct {
	Path  string `json:"path"`
	Query string `json:"query"`
}

func (r *SearchRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if strings.TrimSpace(r.Query) == "" {
		return ErrQueryMissing
	}
	return nil
}

type FindRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive,omitempty"`
}

func (r *FindRequest) Validate() error {
	if r.Path == "" {
		r.Path = "."
	}
	return nil
}

// Tools returns read_pdf, pdf_info, search_pdf and find_pdfs.
func (t *Tools) Tools() []tool.Tool {
	pathParam := &tool.Schema{Type: tool.TypeString, Description: "PDF path relative to the workspace root"}
	return []tool.Tool{
		tool.New(tool.Declaration{
			Name:        "read_pdf",
			Description: "Extract text from a PDF file.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":  pathParam,
					"pages": {Type: tool.TypeString, Description: "Pages to read: 'all' (default), '1-5' or '1,3,5'"},
				},
				Required: []string{"path"},
			},
		}, t.read),
		tool.New(tool.Declaration{
			Name:        "pdf_info",
			Description: "Show page count, size and metadata of a PDF file.",
			Parameters: &tool.Schema{
				Type:       tool.TypeObject,
				Properties: map[string]*tool.Schema{"path": pathParam},
				Required:   []string{"path"},
			},
		}, t.info),
		tool.New(tool.Declaration{
			Name:        "search_pdf",
			Description: "Find lines containing a phrase in a PDF file, with surrounding context.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":  pathParam,
					"query": {Type: tool.TypeString, Description: "Case-insensitive text to find"},
				},
				Required: []string{"path", "query"},
			},
		}, t.search),
		tool.New(tool.Declaration{
			Name:        "find_pdfs",
			Description: "List PDF files in a directory.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":      {Type: tool.TypeString, Description: "Directory relative to the workspace root (default '.')"},
					"recursive": {Type: tool.TypeBoolean, Description: "Search subdirectories"},
				},
			},
		}, t.find),
	}
}

func (t *Tools) openPDF(path string) (Document, string, int64, error) {
	abs, err := t.resolver.Abs(path)
	if err != nil {
		return nil, "", 0, err
	}
	if !strings.EqualFold(filepath.Ext(abs), ".pdf") {
		return nil, "", 0, ErrNotPDF
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return nil, "", 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	doc, err := t.open(abs)
	if err != nil {
		return nil, "", 0, fmt.Errorf("error reading PDF: %v; file may be corrupted or encrypted", err)
	}
	return doc, filepath.Base(abs), info.Size(), nil
}

func (t *Tools) read(ctx context.Context, req *ReadRequest) (string, error) {
	doc, name, _, err := t.openPDF(req.Path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	total := doc.NumPage()
	pages, err := ParsePageRange(req.Pages, total)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, n := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.PageText(n)
		if err != nil || text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s\n", n, text))
	}
	if len(parts) == 0 {
		return "", ErrNoText
	}

	out := fmt.Sprintf("PDF: %s\nTotal Pages: %d\nExtracted Pages: %d\n\n%s", name, total, len(parts), strings.Join(parts, "\n"))
	return content.Truncate(out, t.maxOutput), nil
}

func (t *Tools) info(ctx context.Context, req *InfoRequest) (string, error) {
	doc, name, size, err := t.openPDF(req.Path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "PDF Information: %s\n\nNumber of Pages: %d\nFile Size: %.2f KB\n\n", name, doc.NumPage(), float64(size)/1024)

	meta := doc.Info()
	if len(meta) == 0 {
		b.WriteString("No metadata available\n")
	} else {
		b.WriteString("Metadata:\n")
		for _, k := range infoKeys {
			if v, ok := meta[k]; ok {
				fmt.Fprintf(&b, "  %s: %s\n", k, v)
			}
		}
	}
	if doc.Encrypted() {
		b.WriteString("\nPDF is encrypted/password protected\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

type match struct {
	page    int
	context string
}

func (t *Tools) search(ctx context.Context, req *SearchRequest) (string, error) {
	doc, name, _, err := t.openPDF(req.Path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	query := strings.ToLower(req.Query)
	var matches []match
	for n := 1; n <= doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.PageText(n)
		if err != nil || !strings.Contains(strings.ToLower(text), query) {
			continue
		}
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if strings.Contains(strings.ToLower(line), query) {
				lo, hi := max(0, i-1), min(len(lines), i+2)
				matches = append(matches, match{page: n, context: strings.TrimSpace(strings.Join(lines[lo:hi], "\n"))})
			}
		}
	}

	if len(matches) == 0 {
		return fmt.Sprintf("No matches found for '%s' in %s", req.Query, name), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matches for '%s' in %s:\n", len(matches), req.Query, name)
	for i, m := range matches[:min(len(matches), maxSearchMatches)] {
		fmt.Fprintf(&b, "\n%d. Page %d:\n   %s\n", i+1, m.page, m.context)
	}
	if len(matches) > maxSearchMatches {
		fmt.Fprintf(&b, "\n... and %d more matches", len(matches)-maxSearchMatches)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (t *Tools) find(ctx context.Context, req *FindRequest) (string, error) {
	root, err := t.resolver.Abs(req.Path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", req.Path)
	}

	var found []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			if p != root && (!req.Recursive || d.Name() == ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			if fi, err := d.Info(); err == nil {
				found = append(found, fmt.Sprintf("%s (%.2f KB)", t.resolver.RelOf(p), float64(fi.Size())/1024))
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "No PDF files found in " + req.Path, nil
	}
	sort.Strings(found)
	return fmt.Sprintf("Found %d PDF files:\n%s", len(found), strings.Join(found, "\n")), nil
}
