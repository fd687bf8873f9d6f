package rdf

import "errors"

// ErrMalformedList is returned when an rdf:first/rdf:rest chain is broken.
var ErrMalformedList = errors.New("rdf: malformed collection")

// AddList writes items as an RDF collection and returns its head.
// An empty slice yields rdf:nil.
func (g *Graph) AddList(items []Term) Term {
	if len(items) == 0 {
		return RDFNil
	}
	head := NewBlankNode()
	cur := head
	for i, item := range items {
		g.Add(cur, RDFFirst, item)
		if i == len(items)-1 {
			g.Add(cur, RDFRest, RDFNil)
			break
		}
		next := NewBlankNode()
		g.Add(cur, RDFRest, next)
		cur = next
	}
	return head
}

// List reads the collection starting at head.
func (g *Graph) List(head Term) ([]Term, error) {
	var out []Term
	seen := make(map[Term]struct{})
	for cur := head; cur != RDFNil; {
		if _, loop := seen[cur]; loop {
			return nil, ErrMalformedList
		}
		seen[cur] = struct{}{}
		first, ok := g.Value(cur, RDFFirst)
		if !ok {
			return nil, ErrMalformedList
		}
		rest, ok := g.Value(cur, RDFRest)
		if !ok {
			return nil, ErrMalformedList
		}
		out = append(out, first)
		cur = rest
	}
	return out, nil
}
