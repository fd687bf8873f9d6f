package shapes

import (
	"log/slog"

	"github.com/geoknoesis/shacl-go/namespace"
	"github.com/geoknoesis/shacl-go/rdf"
)

// ConvertOntology derives a shapes graph from the classes and properties of
// ontology.
//
// Every named owl:Class or rdfs:Class gets a NodeShape "<Local>Shape"
// targeting it, named and described from the class's first rdfs:label and
// rdfs:comment. Every owl:ObjectProperty or owl:DatatypeProperty with a
// named rdfs:domain gets a PropertyShape "<Domain>_<Prop>PropertyShape"
// linked from the domain's NodeShape. The first named rdfs:range becomes
// sh:class for object properties and sh:datatype for datatype properties.
//
// Blank node classes and properties without a named domain are skipped.
func ConvertOntology(ontology *rdf.Graph, ns namespace.Namespace, opts ...Option) *rdf.Graph {
	b := newBuilder(ns, opts)
	declared := make(map[rdf.Term]rdf.IRI)

	for _, class := range classes(ontology) {
		iri, ok := class.(rdf.IRI)
		if !ok {
			b.logger.Debug("skipping anonymous class", slog.String("node", class.String()))
			continue
		}
		shape := b.id(LocalName(iri.Value) + "Shape")
		declared[iri] = shape
		b.nodeShape(shape)
		b.g.Add(shape, rdf.SHTargetClass, iri)
		if label, ok := ontology.Value(iri, rdf.RDFSLabel); ok {
			b.g.Add(shape, rdf.SHName, label)
		}
		if comment, ok := ontology.Value(iri, rdf.RDFSComment); ok {
			b.g.Add(shape, rdf.SHDescription, comment)
		}
	}

	for _, kind := range []rdf.IRI{rdf.OWLObjectProperty, rdf.OWLDatatypeProperty} {
		for _, p := range ontology.InstancesOf(kind, true) {
			prop := p.(rdf.IRI)
			domain, ok := firstIRI(ontology, prop, rdf.RDFSDomain)
			if !ok {
				b.logger.Debug("skipping property without named domain", slog.String("property", prop.Value))
				continue
			}
			owner, ok := declared[domain]
			if !ok {
				owner = b.id(LocalName(domain.Value) + "Shape")
				declared[domain] = owner
				b.nodeShape(owner)
				b.g.Add(owner, rdf.SHTargetClass, domain)
			}
			shape := b.id(LocalName(domain.Value) + "_" + LocalName(prop.Value) + "PropertyShape")
			b.propertyShape(owner, shape, prop)
			if label, ok := ontology.Value(prop, rdf.RDFSLabel); ok {
				b.g.Add(shape, rdf.SHName, label)
			}
			if rng, ok := firstIRI(ontology, prop, rdf.RDFSRange); ok {
				if kind == rdf.OWLDatatypeProperty {
					b.g.Add(shape, rdf.SHDatatype, rng)
				} else {
					b.g.Add(shape, rdf.SHClass, rng)
				}
			}
		}
	}
	return b.g
}

// classes returns owl:Class subjects followed by rdfs:Class subjects not
// already seen.
func classes(g *rdf.Graph) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	for _, kind := range []rdf.IRI{rdf.OWLClass, rdf.RDFSClass} {
		for _, c := range g.InstancesOf(kind, false) {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func firstIRI(g *rdf.Graph, s rdf.Term, p rdf.IRI) (rdf.IRI, bool) {
	for _, o := range g.Objects(s, p) {
		if iri, ok := o.(rdf.IRI); ok {
			return iri, true
		}
	}
	return rdf.IRI{}, false
}
