package shapes

import (
	"fmt"
	"strconv"

	"github.com/geoknoesis/shacl-go/rdf"
)

// NodeShape is a read-back view of an sh:NodeShape.
type NodeShape struct {
	ID          rdf.Term
	TargetClass []rdf.IRI
	Name        string
	Description string
	Properties  []PropertyShape
}

// PropertyShape is a read-back view of a property shape.
type PropertyShape struct {
	ID          rdf.Term
	Path        rdf.IRI
	Name        string
	Description string
	Datatype    rdf.IRI
	Class       rdf.IRI
	MinCount    *int
	MaxCount    *int
	// In lists the allowed values; for enumerations these are concept IRIs.
	In []rdf.Term
	// InLabels holds the preferred labels of In, when present.
	InLabels []string
}

// Read returns every NodeShape in g with its property shapes, in graph
// order. Property shapes whose path is not a plain IRI are left out.
func Read(g *rdf.Graph) ([]NodeShape, error) {
	var out []NodeShape
	for _, node := range g.InstancesOf(rdf.SHNodeShape, false) {
		ns := NodeShape{
			ID:          node,
			Name:        literalText(g, node, rdf.SHName),
			Description: literalText(g, node, rdf.SHDescription),
		}
		for _, t := range g.Objects(node, rdf.SHTargetClass) {
			if iri, ok := t.(rdf.IRI); ok {
				ns.TargetClass = append(ns.TargetClass, iri)
			}
		}
		for _, ref := range g.Objects(node, rdf.SHProperty) {
			ps, ok, err := readProperty(g, ref)
			if err != nil {
				return nil, fmt.Errorf("shapes: property %s of %s: %w", ref, node, err)
			}
			if ok {
				ns.Properties = append(ns.Properties, ps)
			}
		}
		out = append(out, ns)
	}
	return out, nil
}

func readProperty(g *rdf.Graph, ref rdf.Term) (PropertyShape, bool, error) {
	path, ok := g.Value(ref, rdf.SHPath)
	if !ok {
		return PropertyShape{}, false, nil
	}
	iri, ok := path.(rdf.IRI)
	if !ok {
		return PropertyShape{}, false, nil
	}
	ps := PropertyShape{
		ID:          ref,
		Path:        iri,
		Name:        literalText(g, ref, rdf.SHName),
		Description: literalText(g, ref, rdf.SHDescription),
		Datatype:    iriValue(g, ref, rdf.SHDatatype),
		Class:       iriValue(g, ref, rdf.SHClass),
	}
	var err error
	if ps.MinCount, err = intValue(g, ref, rdf.SHMinCount); err != nil {
		return ps, false, err
	}
	if ps.MaxCount, err = intValue(g, ref, rdf.SHMaxCount); err != nil {
		return ps, false, err
	}
	if head, ok := g.Value(ref, rdf.SHIn); ok {
		items, err := g.List(head)
		if err != nil {
			return ps, false, err
		}
		ps.In = items
		for _, item := range items {
			ps.InLabels = append(ps.InLabels, conceptLabel(g, item))
		}
	}
	return ps, true, nil
}

func literalText(g *rdf.Graph, s rdf.Term, p rdf.IRI) string {
	if v, ok := g.Value(s, p); ok {
		if lit, ok := v.(rdf.Literal); ok {
			return lit.Lexical
		}
	}
	return ""
}

func iriValue(g *rdf.Graph, s rdf.Term, p rdf.IRI) rdf.IRI {
	if v, ok := g.Value(s, p); ok {
		if iri, ok := v.(rdf.IRI); ok {
			return iri
		}
	}
	return rdf.IRI{}
}

func intValue(g *rdf.Graph, s rdf.Term, p rdf.IRI) (*int, error) {
	v, ok := g.Value(s, p)
	if !ok {
		return nil, nil
	}
	lit, ok := v.(rdf.Literal)
	if !ok {
		return nil, fmt.Errorf("%s is not a literal", p.Value)
	}
	n, err := strconv.Atoi(lit.Lexical)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Value, err)
	}
	return &n, nil
}

// Owners maps each property shape to the node shapes that link it with
// sh:property. A well-formed generated graph has exactly one owner each.
func Owners(g *rdf.Graph) map[rdf.Term][]rdf.Term {
	owners := make(map[rdf.Term][]rdf.Term)
	for _, ps := range g.InstancesOf(rdf.SHPropertyShape, false) {
		owners[ps] = nil
	}
	for _, t := range g.Find(nil, rdf.SHProperty, nil) {
		owners[t.O] = append(owners[t.O], t.S)
	}
	return owners
}
