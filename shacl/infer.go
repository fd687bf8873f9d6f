package shacl

import (
	"context"
	"fmt"

	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/report"
)

// Infer returns a copy of g extended with the entailments of mode. g itself
// is never modified. InferenceNone returns g unchanged.
//
// rdfs applies the domain, range, subPropertyOf and subClassOf rules.
// owlrl adds equivalentClass, equivalentProperty, inverseOf, symmetric and
// transitive properties. Both run to a fixpoint.
func Infer(ctx context.Context, g *rdf.Graph, mode report.InferenceMode) (*rdf.Graph, error) {
	switch mode {
	case report.InferenceNone:
		return g, nil
	case report.InferenceRDFS, report.InferenceOWLRL:
	default:
		return nil, fmt.Errorf("shacl: unknown inference mode %q", mode)
	}
	out := g.Clone()
	owl := mode == report.InferenceOWLRL
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		added := 0
		for _, t := range entail(out, owl) {
			if out.AddTriple(t) {
				added++
			}
		}
		if added == 0 {
			return out, nil
		}
	}
}

// entail computes one round of consequences.
func entail(g *rdf.Graph, owl bool) []rdf.Triple {
	var out []rdf.Triple
	emit := func(s rdf.Term, p rdf.IRI, o rdf.Term) {
		if s.Kind() == rdf.TermLiteral {
			return
		}
		t := rdf.NewTriple(s, p, o)
		if !g.Has(t) {
			out = append(out, t)
		}
	}

	if owl {
		for _, t := range g.Find(nil, rdf.OWLEquivalentClass, nil) {
			emit(t.S, rdf.RDFSSubClassOf, t.O)
			emit(t.O, rdf.RDFSSubClassOf, t.S)
		}
		for _, t := range g.Find(nil, rdf.OWLEquivalentProperty, nil) {
			emit(t.S, rdf.RDFSSubPropertyOf, t.O)
			emit(t.O, rdf.RDFSSubPropertyOf, t.S)
		}
	}

	// schema closure
	for _, rel := range []rdf.IRI{rdf.RDFSSubClassOf, rdf.RDFSSubPropertyOf} {
		for _, t := range g.Find(nil, rel, nil) {
			for _, o := range g.Objects(t.O, rel) {
				emit(t.S, rel, o)
			}
		}
	}

	for _, t := range g.Triples() {
		for _, super := range g.Objects(t.P, rdf.RDFSSubPropertyOf) {
			if iri, ok := super.(rdf.IRI); ok {
				emit(t.S, iri, t.O)
			}
		}
		for _, class := range g.Objects(t.P, rdf.RDFSDomain) {
			emit(t.S, rdf.RDFType, class)
		}
		if t.O.Kind() != rdf.TermLiteral {
			for _, class := range g.Objects(t.P, rdf.RDFSRange) {
				emit(t.O, rdf.RDFType, class)
			}
		}
		if t.P == rdf.RDFType {
			for _, super := range g.Objects(t.O, rdf.RDFSSubClassOf) {
				emit(t.S, rdf.RDFType, super)
			}
		}
		if !owl {
			continue
		}
		for _, inv := range g.Objects(t.P, rdf.OWLInverseOf) {
			if iri, ok := inv.(rdf.IRI); ok {
				emit(t.O, iri, t.S)
			}
		}
		for _, p := range g.Subjects(rdf.OWLInverseOf, t.P) {
			if iri, ok := p.(rdf.IRI); ok {
				emit(t.O, iri, t.S)
			}
		}
		if g.Has(rdf.NewTriple(t.P, rdf.RDFType, rdf.OWLSymmetricProperty)) {
			emit(t.O, t.P, t.S)
		}
		if g.Has(rdf.NewTriple(t.P, rdf.RDFType, rdf.OWLTransitiveProperty)) {
			for _, next := range g.Objects(t.O, t.P) {
				emit(t.S, t.P, next)
			}
		}
	}
	return out
}
