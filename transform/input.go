package transform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/geoknoesis/shacl-go/extract"
	"github.com/geoknoesis/shacl-go/format"
	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/tree"
)

// InputKind tells which field of an Input holds the decoded document.
type InputKind uint8

const (
	InputGraph InputKind = iota + 1
	InputTree
	InputText
)

func (k InputKind) String() string {
	switch k {
	case InputGraph:
		return "graph"
	case InputTree:
		return "tree"
	case InputText:
		return "text"
	}
	return "unknown"
}

// Input is a loaded document: an RDF graph, a tree-structured value or
// plain text. Raw keeps the source text for intelligent transformers.
type Input struct {
	Kind   InputKind
	Format format.Canonical
	Graph  *rdf.Graph
	Tree   tree.Value
	Text   string
	Raw    string
}

// GraphInput wraps an in-memory graph.
func GraphInput(g *rdf.Graph, f format.Canonical) Input {
	return Input{Kind: InputGraph, Format: f, Graph: g}
}

// TreeInput wraps an in-memory tree value.
func TreeInput(v tree.Value) Input {
	return Input{Kind: InputTree, Format: format.JSON, Tree: v}
}

// TextInput wraps free text.
func TextInput(text string) Input {
	return Input{Kind: InputText, Format: format.Text, Text: text, Raw: text}
}

// Load reads the document at path. A non-empty hint overrides the format
// implied by the extension. RDF and tree formats are decoded; text-bearing
// documents go through the extractor registry.
func (e *Engine) Load(ctx context.Context, path, hint string) (Input, error) {
	c := format.FromPath(path)
	if hint != "" {
		c = format.Resolve(hint)
	}
	if c == format.Unknown {
		return Input{}, fmt.Errorf("%w: cannot determine format of %s", format.ErrUnsupportedFormat, path)
	}
	if !c.IsRDF() && !c.IsTree() {
		e.logger.Debug("extracting text", "path", path, "format", string(c))
		ex, err := e.extractors.For(c)
		if err != nil {
			return Input{}, err
		}
		text, err := ex.Extract(ctx, path)
		if err != nil {
			return Input{}, err
		}
		return Input{Kind: InputText, Format: c, Text: text, Raw: text}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Input{}, err
	}
	defer f.Close()
	data, err := e.readLimited(f)
	if err != nil {
		return Input{}, fmt.Errorf("%s: %w", path, err)
	}
	return e.Decode(ctx, data, c)
}

// Decode decodes an in-memory document of format c.
func (e *Engine) Decode(ctx context.Context, data []byte, c format.Canonical) (Input, error) {
	if limit := e.settings.MaxInputBytes; limit > 0 && int64(len(data)) > limit {
		return Input{}, fmt.Errorf("%w: %d bytes", ErrInputTooLarge, len(data))
	}
	in := Input{Format: c, Raw: string(data)}
	switch {
	case c.IsRDF():
		rf, err := format.RDF(c)
		if err != nil {
			return Input{}, err
		}
		g, err := rdf.Parse(ctx, bytes.NewReader(data), rf, e.parseOptions()...)
		if err != nil {
			return Input{}, err
		}
		in.Kind, in.Graph = InputGraph, g
	case c == format.JSON:
		v, err := tree.DecodeJSON(bytes.NewReader(data))
		if err != nil {
			return Input{}, fmt.Errorf("%w: json: %w", ErrMalformedInput, err)
		}
		in.Kind, in.Tree = InputTree, v
	case c == format.YAML:
		v, err := tree.DecodeYAML(bytes.NewReader(data))
		if err != nil {
			return Input{}, fmt.Errorf("%w: yaml: %w", ErrMalformedInput, err)
		}
		in.Kind, in.Tree = InputTree, v
	case c == format.Text, c == format.Markdown, c == format.CSV:
		in.Kind, in.Text = InputText, string(data)
	case c == format.HTML:
		text, err := extract.NewHTML(e.settings.MaxInputBytes).Convert(data)
		if err != nil {
			return Input{}, err
		}
		in.Kind, in.Text, in.Raw = InputText, text, text
	case c == format.DOCX:
		text, err := extract.DOCX{MaxBytes: e.settings.MaxInputBytes}.Text(data)
		if err != nil {
			return Input{}, err
		}
		in.Kind, in.Text, in.Raw = InputText, text, text
	default:
		return Input{}, fmt.Errorf("%w: %s", format.ErrUnsupportedFormat, c)
	}
	return in, nil
}

func (e *Engine) readLimited(r io.Reader) ([]byte, error) {
	limit := e.settings.MaxInputBytes
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, limit)
	}
	return data, nil
}

func (e *Engine) parseOptions() []rdf.Option {
	var opts []rdf.Option
	if e.settings.MaxDepth > 0 {
		opts = append(opts, rdf.OptMaxDepth(e.settings.MaxDepth))
	}
	if e.settings.MaxTriples > 0 {
		opts = append(opts, rdf.OptMaxTriples(e.settings.MaxTriples))
	}
	return opts
}

// Save writes g to w in format c, which must have an RDF writer.
func (e *Engine) Save(ctx context.Context, w io.Writer, g *rdf.Graph, c format.Canonical) error {
	rf, err := format.RDF(c)
	if err != nil {
		return err
	}
	if !rf.CanWrite() {
		return fmt.Errorf("%w: cannot write %s", format.ErrUnsupportedFormat, c)
	}
	return rdf.Serialize(ctx, w, g, rf)
}

// SaveString is Save into a string.
func (e *Engine) SaveString(ctx context.Context, g *rdf.Graph, c format.Canonical) (string, error) {
	var b strings.Builder
	if err := e.Save(ctx, &b, g, c); err != nil {
		return "", err
	}
	return b.String(), nil
}

// source returns the text an intelligent transformer should see for in.
func (e *Engine) source(ctx context.Context, in Input) (string, error) {
	if in.Raw != "" {
		return in.Raw, nil
	}
	switch in.Kind {
	case InputGraph:
		return rdf.SerializeString(ctx, in.Graph, rdf.FormatTurtle)
	case InputTree:
		return tree.EncodeJSON(in.Tree)
	}
	return in.Text, nil
}
