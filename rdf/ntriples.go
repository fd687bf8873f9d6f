package rdf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// decodeNTriples parses N-Triples with the json-gold N-Quads reader and keeps
// the default graph.
func decodeNTriples(ctx context.Context, r io.Reader, opts Options) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	input := string(data)
	if err := checkLineLengths("ntriples", input, opts.MaxLineBytes); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dataset, err := (&ld.NQuadRDFSerializer{}).Parse(input)
	if err != nil {
		return nil, newParseError("ntriples", 0, 0, "", err)
	}
	return datasetToGraph(dataset, opts)
}

// blankLabeler assigns b0, b1, ... to blank nodes in first-seen order.
type blankLabeler struct {
	labels map[BlankNode]string
}

func newBlankLabeler() *blankLabeler {
	return &blankLabeler{labels: make(map[BlankNode]string)}
}

func (l *blankLabeler) label(b BlankNode) string {
	if label, ok := l.labels[b]; ok {
		return label
	}
	label := "b" + strconv.Itoa(len(l.labels))
	l.labels[b] = label
	return label
}

func encodeNTriples(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	labels := newBlankLabeler()
	render := func(term Term) string {
		if b, ok := term.(BlankNode); ok {
			return "_:" + labels.label(b)
		}
		return renderTerm(term, nil)
	}
	for _, t := range g.triples {
		if _, err := fmt.Fprintf(bw, "%s %s %s .\n", render(t.S), renderIRI(t.P), render(t.O)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func renderIRI(iri IRI) string {
	return "<" + escapeIRI(iri.Value) + ">"
}

// renderTerm renders term in Turtle/N-Triples syntax. IRIs are abbreviated
// when prefixes is non-nil and a binding applies.
func renderTerm(term Term, prefixes map[string]string) string {
	switch value := term.(type) {
	case IRI:
		if prefixes != nil {
			if qname, ok := abbreviateQName(value.Value, prefixes); ok {
				return qname
			}
		}
		return renderIRI(value)
	case BlankNode:
		return value.String()
	case Literal:
		quoted := `"` + escapeString(value.Lexical) + `"`
		if value.Lang != "" {
			return quoted + "@" + value.Lang
		}
		if value.Datatype.Value != "" && value.Datatype != XSDString {
			return quoted + "^^" + renderTerm(value.Datatype, prefixes)
		}
		return quoted
	default:
		return ""
	}
}

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func escapeIRI(s string) string {
	if !strings.ContainsAny(s, "<>\"{}|^`\\ ") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			fmt.Fprintf(&b, `\u%04X`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
