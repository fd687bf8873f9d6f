// Package shapes builds SHACL shapes graphs from OWL/RDFS ontologies and
// from JSON Schema style tree schemas, and reads shapes graphs back into
// typed views.
//
// Converters never keep references to their inputs: each call returns a new
// graph owned by the caller. Re-running a converter on the same input yields
// the same triple set.
package shapes

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/geoknoesis/shacl-go/namespace"
	"github.com/geoknoesis/shacl-go/rdf"
)

type options struct {
	minter *namespace.Minter
	logger *slog.Logger
}

// Option configures a converter.
type Option func(*options)

// WithMinter issues shape identifiers through m, which detects labels that
// sanitize to the same identifier.
func WithMinter(m *namespace.Minter) Option {
	return func(o *options) { o.minter = m }
}

// WithLogger sets the logger for skipped declarations.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

type builder struct {
	ns     namespace.Namespace
	g      *rdf.Graph
	minter *namespace.Minter
	logger *slog.Logger
}

func newBuilder(ns namespace.Namespace, opts []Option) *builder {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	g := rdf.NewGraph()
	g.BindDefaults()
	return &builder{ns: ns, g: g, minter: o.minter, logger: o.logger}
}

func (b *builder) id(label string) rdf.IRI {
	if b.minter != nil {
		return b.minter.Mint(label)
	}
	return b.ns.Term(label)
}

func (b *builder) nodeShape(id rdf.IRI) {
	b.g.Add(id, rdf.RDFType, rdf.SHNodeShape)
}

func (b *builder) propertyShape(owner, id rdf.IRI, path rdf.IRI) {
	b.g.Add(id, rdf.RDFType, rdf.SHPropertyShape)
	b.g.Add(id, rdf.SHPath, path)
	b.g.Add(owner, rdf.SHProperty, id)
}

// LocalName returns the part of iri after the last '#' or '/'.
func LocalName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

// titleCase turns "first_name" into "First Name": underscores become spaces,
// the first letter of each word is upper-cased and the rest lower-cased.
func titleCase(name string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(name, "_", " "))
}
