package shapes

import (
	"github.com/geoknoesis/shacl-go/namespace"
	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/tree"
)

const defaultSchemaTitle = "Schema"

var xsdTypes = map[string]rdf.IRI{
	"string":  rdf.XSDString,
	"integer": rdf.XSDInteger,
	"number":  rdf.XSDDecimal,
	"boolean": rdf.XSDBoolean,
}

// Datatype maps a schema type name to its XSD datatype. Unknown and empty
// names map to xsd:string.
func Datatype(typeName string) rdf.IRI {
	if dt, ok := xsdTypes[typeName]; ok {
		return dt
	}
	return rdf.XSDString
}

// ConvertTreeSchema builds a shapes graph with one NodeShape "<Title>Shape"
// and one PropertyShape "<Title>_<name>PropertyShape" per property.
//
// Required properties get sh:minCount 1. Enumerations become a SKOS concept
// scheme "<name>Scheme" with one concept "<name>_<value>" per distinct value,
// and the property shape gets an sh:in list of those concepts in
// declaration order.
func ConvertTreeSchema(schema Schema, ns namespace.Namespace, opts ...Option) *rdf.Graph {
	b := newBuilder(ns, opts)
	title := schema.Title
	if title == "" {
		title = defaultSchemaTitle
	}
	root := b.id(title + "Shape")
	b.nodeShape(root)
	b.g.Add(root, rdf.SHTargetClass, b.id(title))
	b.g.Add(root, rdf.SHName, rdf.NewLangString(title, "en"))
	if schema.Description != "" {
		b.g.Add(root, rdf.SHDescription, rdf.NewLangString(schema.Description, "en"))
	}

	for _, p := range schema.Properties {
		shape := b.id(title + "_" + p.Name + "PropertyShape")
		b.propertyShape(root, shape, b.id(p.Name))
		b.g.Add(shape, rdf.SHName, rdf.NewLangString(titleCase(p.Name), "en"))
		if p.Description != "" {
			b.g.Add(shape, rdf.SHDescription, rdf.NewLangString(p.Description, "en"))
		}
		typeName := p.Type
		if typeName == "array" && p.ItemsType != "" {
			typeName = p.ItemsType
		}
		b.g.Add(shape, rdf.SHDatatype, Datatype(typeName))
		if schema.IsRequired(p.Name) {
			b.g.Add(shape, rdf.SHMinCount, rdf.NewInteger(1))
		}
		b.facets(shape, p)
		if len(p.Enum) > 0 {
			b.enumeration(shape, p)
		}
	}
	return b.g
}

func (b *builder) facets(shape rdf.IRI, p Property) {
	if p.Pattern != "" {
		b.g.Add(shape, rdf.SHPattern, rdf.NewString(p.Pattern))
	}
	if p.MinLength != nil {
		b.g.Add(shape, rdf.SHMinLength, rdf.NewInteger(int64(*p.MinLength)))
	}
	if p.MaxLength != nil {
		b.g.Add(shape, rdf.SHMaxLength, rdf.NewInteger(int64(*p.MaxLength)))
	}
	bounds := []struct {
		value *tree.Scalar
		pred  rdf.IRI
	}{
		{p.Minimum, rdf.SHMinInclusive},
		{p.Maximum, rdf.SHMaxInclusive},
		{p.ExclusiveMinimum, rdf.SHMinExclusive},
		{p.ExclusiveMaximum, rdf.SHMaxExclusive},
	}
	for _, bound := range bounds {
		if bound.value == nil {
			continue
		}
		if lit, err := tree.Literal(*bound.value); err == nil {
			b.g.Add(shape, bound.pred, lit)
		}
	}
}

func (b *builder) enumeration(shape rdf.IRI, p Property) {
	scheme := b.id(p.Name + "Scheme")
	b.g.Add(scheme, rdf.RDFType, rdf.SKOSConceptScheme)
	seen := make(map[rdf.IRI]bool, len(p.Enum))
	concepts := make([]rdf.Term, 0, len(p.Enum))
	for _, value := range p.Enum {
		concept := b.id(p.Name + "_" + value)
		if seen[concept] {
			continue
		}
		seen[concept] = true
		b.g.Add(concept, rdf.RDFType, rdf.SKOSConcept)
		b.g.Add(concept, rdf.SKOSInScheme, scheme)
		b.g.Add(concept, rdf.SKOSPrefLabel, rdf.NewLangString(value, "en"))
		concepts = append(concepts, concept)
	}
	b.g.Add(shape, rdf.SHIn, b.g.AddList(concepts))
}

// conceptLabel is used by Read to recover enumeration values.
func conceptLabel(g *rdf.Graph, concept rdf.Term) string {
	if label, ok := g.Value(concept, rdf.SKOSPrefLabel); ok {
		if lit, ok := label.(rdf.Literal); ok {
			return lit.Lexical
		}
	}
	if iri, ok := concept.(rdf.IRI); ok {
		return LocalName(iri.Value)
	}
	if lit, ok := concept.(rdf.Literal); ok {
		return lit.Lexical
	}
	return concept.String()
}
