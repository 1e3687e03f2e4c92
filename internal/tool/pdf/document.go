package pdf

import (
	"fmt"
	"os"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
)

// Document is the parsed PDF surface the tools read.
type Document interface {
	NumPage() int
	PageText(n int) (string, error)
	Info() map[string]string
	Encrypted() bool
	Close() error
}

// Opener parses the PDF at an absolute path.
type Opener func(path string) (Document, error)

// infoKeys are the document information entries reported by pdf_info, in
// display order.
var infoKeys = []string{"Title", "Author", "Subject", "Creator", "Producer", "CreationDate", "ModDate"}

type ledongthucDoc struct {
	file   *os.File
	reader *lpdf.Reader
}

// OpenFile opens a PDF with github.com/ledongthuc/pdf.
func OpenFile(path string) (Document, error) {
	f, r, err := lpdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &ledongthucDoc{file: f, reader: r}, nil
}

func (d *ledongthucDoc) NumPage() int { return d.reader.NumPage() }

func (d *ledongthucDoc) PageText(n int) (text string, err error) {
	// The parser panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", n, r)
		}
	}()
	p := d.reader.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	return strings.TrimSpace(text), err
}

func (d *ledongthucDoc) Info() map[string]string {
	info := d.reader.Trailer().Key("Info")
	out := make(map[string]string)
	if info.IsNull() {
		return out
	}
	for _, k := range infoKeys {
		if v := info.Key(k); !v.IsNull() {
			if s := strings.TrimSpace(v.Text()); s != "" {
				out[k] = s
			}
		}
	}
	return out
}

func (d *ledongthucDoc) Encrypted() bool {
	return !d.reader.Trailer().Key("Encrypt").IsNull()
}

func (d *ledongthucDoc) Close() error { return d.file.Close() }
