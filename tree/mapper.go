package tree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/geoknoesis/shacl-go/namespace"
	"github.com/geoknoesis/shacl-go/rdf"
)

// DefaultMaxDepth bounds how deep MapToGraph descends.
const DefaultMaxDepth = 64

// ErrDepthExceeded is returned when a document nests deeper than MaxDepth.
var ErrDepthExceeded = errors.New("tree: maximum depth exceeded")

// Options configures MapToGraph.
type Options struct {
	// MaxDepth bounds nesting. Zero means DefaultMaxDepth, negative disables
	// the guard.
	MaxDepth int
	// Minter, when set, issues subject and predicate identifiers instead of
	// the plain namespace.
	Minter *namespace.Minter
}

// Option mutates Options.
type Option func(*Options)

// WithMaxDepth sets the nesting limit.
func WithMaxDepth(n int) Option {
	return func(o *Options) { o.MaxDepth = n }
}

// WithMinter routes identifier generation through m.
func WithMinter(m *namespace.Minter) Option {
	return func(o *Options) { o.Minter = m }
}

type mapper struct {
	ns       namespace.Namespace
	g        *rdf.Graph
	maxDepth int
	minter   *namespace.Minter
}

func newMapper(ns namespace.Namespace, opts []Option) *mapper {
	o := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	g := rdf.NewGraph()
	g.BindDefaults()
	g.Bind("", ns.String())
	return &mapper{ns: ns, g: g, maxDepth: o.MaxDepth, minter: o.Minter}
}

func (m *mapper) id(label string) rdf.IRI {
	if m.minter != nil {
		return m.minter.Mint(label)
	}
	return m.ns.Term(label)
}

// MapToGraph maps v onto a fresh graph rooted at the node named identifier.
// A Mapping contributes one triple per key; a Sequence becomes a container
// node whose members hang off rdf:_1, rdf:_2, ...
//
// Triples are emitted depth-first in document order. On error no graph is
// returned.
func MapToGraph(v Value, ns namespace.Namespace, identifier string, opts ...Option) (*rdf.Graph, error) {
	m := newMapper(ns, opts)
	if err := m.structure(v, identifier, 0); err != nil {
		return nil, err
	}
	return m.g, nil
}

// Map maps a whole document: a top-level mapping is rooted at "root", and
// each element of a top-level sequence at "item0", "item1", ...
func Map(v Value, ns namespace.Namespace, opts ...Option) (*rdf.Graph, error) {
	m := newMapper(ns, opts)
	switch x := v.(type) {
	case Mapping:
		if err := m.mapping(x, "root", 0); err != nil {
			return nil, err
		}
	case Sequence:
		for i, item := range x.Items {
			if err := m.structure(item, "item"+strconv.Itoa(i), 0); err != nil {
				return nil, err
			}
		}
	default:
		return nil, unsupported(v, "document root")
	}
	return m.g, nil
}

// structure maps a mapping or sequence rooted at identifier.
func (m *mapper) structure(v Value, identifier string, depth int) error {
	switch x := v.(type) {
	case Mapping:
		return m.mapping(x, identifier, depth)
	case Sequence:
		return m.container(x, identifier, depth)
	}
	return unsupported(v, identifier)
}

func (m *mapper) descend(depth int, identifier string) error {
	if m.maxDepth > 0 && depth > m.maxDepth {
		return fmt.Errorf("%w: %d levels at %s", ErrDepthExceeded, m.maxDepth, identifier)
	}
	return nil
}

func (m *mapper) mapping(x Mapping, identifier string, depth int) error {
	if err := m.descend(depth, identifier); err != nil {
		return err
	}
	subject := m.id(identifier)
	for _, e := range x.Entries {
		predicate := m.id(e.Key)
		switch val := e.Value.(type) {
		case Scalar:
			lit, err := Literal(val)
			if err != nil {
				return err
			}
			m.g.Add(subject, predicate, lit)
		case Mapping:
			child := identifier + "_" + e.Key
			m.g.Add(subject, predicate, m.id(child))
			if err := m.mapping(val, child, depth+1); err != nil {
				return err
			}
		case Sequence:
			for i, item := range val.Items {
				if err := m.member(subject, predicate, item, identifier+"_"+e.Key+"_"+strconv.Itoa(i), depth); err != nil {
					return err
				}
			}
		default:
			return unsupported(e.Value, identifier+"."+e.Key)
		}
	}
	return nil
}

// container maps a sequence nested directly in a sequence.
func (m *mapper) container(x Sequence, identifier string, depth int) error {
	if err := m.descend(depth, identifier); err != nil {
		return err
	}
	subject := m.id(identifier)
	for i, item := range x.Items {
		predicate := rdf.NewIRI(rdf.RDFNS + "_" + strconv.Itoa(i+1))
		if err := m.member(subject, predicate, item, identifier+"_"+strconv.Itoa(i), depth); err != nil {
			return err
		}
	}
	return nil
}

// member emits one sequence element: a literal for scalars, otherwise a
// link to child followed by the child's own triples.
func (m *mapper) member(subject rdf.Term, predicate rdf.IRI, item Value, child string, depth int) error {
	switch val := item.(type) {
	case Scalar:
		lit, err := Literal(val)
		if err != nil {
			return err
		}
		m.g.Add(subject, predicate, lit)
		return nil
	case Mapping, Sequence:
		m.g.Add(subject, predicate, m.id(child))
		return m.structure(val, child, depth+1)
	}
	return unsupported(item, child)
}

// Literal converts a scalar into a typed RDF literal. Strings stay plain;
// decimals with an exponent or a special value become xsd:double.
func Literal(s Scalar) (rdf.Literal, error) {
	switch s.ScalarKind {
	case KindString:
		return rdf.NewString(s.Lexical), nil
	case KindInteger:
		return rdf.NewTypedLiteral(s.Lexical, rdf.XSDInteger), nil
	case KindDecimal:
		if isDouble(s.Lexical) {
			return rdf.NewTypedLiteral(s.Lexical, rdf.XSDDouble), nil
		}
		return rdf.NewTypedLiteral(s.Lexical, rdf.XSDDecimal), nil
	case KindBoolean:
		return rdf.NewTypedLiteral(s.Lexical, rdf.XSDBoolean), nil
	}
	return rdf.Literal{}, unsupported(s, "scalar")
}

func isDouble(lexical string) bool {
	switch lexical {
	case "INF", "-INF", "NaN":
		return true
	}
	return strings.ContainsAny(lexical, "eE")
}
