// Package extract pulls plain text out of documents so that the
// intelligent transformer can read them.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/geoknoesis/shacl-go/format"
)

// DefaultMaxBytes bounds how much of a document an extractor reads.
const DefaultMaxBytes = 32 << 20

// ErrUnsupported is returned for document kinds no extractor handles.
var ErrUnsupported = errors.New("extract: unsupported document kind")

// ErrTooLarge is returned when a document exceeds the size limit.
var ErrTooLarge = errors.New("extract: document too large")

// Extractor returns the text content of the document at path.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Registry picks an extractor by document format.
type Registry struct {
	byFormat map[format.Canonical]Extractor
}

// NewRegistry returns a registry with the built-in extractors: plain text,
// markdown, HTML and DOCX. maxBytes <= 0 means DefaultMaxBytes.
func NewRegistry(maxBytes int64) *Registry {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	text := Text{MaxBytes: maxBytes}
	return &Registry{byFormat: map[format.Canonical]Extractor{
		format.Text:     text,
		format.Markdown: text,
		format.CSV:      text,
		format.HTML:     NewHTML(maxBytes),
		format.DOCX:     DOCX{MaxBytes: maxBytes},
	}}
}

// Register installs e for f, replacing any previous extractor. It is how
// PDF or OCR backends are plugged in.
func (r *Registry) Register(f format.Canonical, e Extractor) {
	r.byFormat[f] = e
}

// For returns the extractor for f.
func (r *Registry) For(f format.Canonical) (Extractor, error) {
	if e, ok := r.byFormat[f]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, f)
}

// Extract resolves the format of path from its extension and extracts it.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	e, err := r.For(format.FromPath(path))
	if err != nil {
		return "", err
	}
	return e.Extract(ctx, path)
}

// readLimited reads at most limit bytes of path.
func readLimited(ctx context.Context, path string, limit int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, path, limit)
	}
	return data, nil
}

// Text reads UTF-8 text files as they are.
type Text struct {
	MaxBytes int64
}

// Extract returns the file content.
func (t Text) Extract(ctx context.Context, path string) (string, error) {
	data, err := readLimited(ctx, path, limitOr(t.MaxBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func limitOr(n int64) int64 {
	if n <= 0 {
		return DefaultMaxBytes
	}
	return n
}
