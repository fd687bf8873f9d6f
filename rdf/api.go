package rdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// Parse reads a whole document in the given format into a new Graph.
// If ctx is nil, context.Background() is used.
func Parse(ctx context.Context, r io.Reader, format Format, opts ...Option) (*Graph, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := buildOptions(opts)
	switch format {
	case FormatTurtle:
		return decodeTurtle(ctx, r, options)
	case FormatNTriples:
		return decodeNTriples(ctx, r, options)
	case FormatJSONLD:
		return decodeJSONLD(ctx, r, options)
	case FormatRDFXML:
		return decodeRDFXML(ctx, r, options)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// ParseString is Parse over an in-memory document.
func ParseString(ctx context.Context, input string, format Format, opts ...Option) (*Graph, error) {
	return Parse(ctx, strings.NewReader(input), format, opts...)
}

// Serialize writes g in the given format. RDF/XML is read-only.
func Serialize(ctx context.Context, w io.Writer, g *Graph, format Format, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	options := buildOptions(opts)
	var err error
	switch format {
	case FormatTurtle:
		err = encodeTurtle(w, g, options)
	case FormatNTriples:
		err = encodeNTriples(w, g)
	case FormatJSONLD:
		err = encodeJSONLD(ctx, w, g, options)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil && Code(err) == ErrCodeParseError {
		return fmt.Errorf("%w: %s: %v", ErrSerialize, format, err)
	}
	return err
}

// SerializeString is Serialize into a string.
func SerializeString(ctx context.Context, g *Graph, format Format, opts ...Option) (string, error) {
	var buf bytes.Buffer
	if err := Serialize(ctx, &buf, g, format, opts...); err != nil {
		return "", err
	}
	return buf.String(), nil
}
