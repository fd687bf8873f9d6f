package rdf

import (
	"maps"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Graph is a set of triples that preserves insertion order.
//
// A Graph is not safe for concurrent mutation. Concurrent readers are fine
// once construction has finished.
type Graph struct {
	triples   []Triple
	index     map[Triple]struct{}
	bySubject map[Term][]int
	byObject  map[Term][]int
	prefixes  map[string]string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		index:     make(map[Triple]struct{}),
		bySubject: make(map[Term][]int),
		byObject:  make(map[Term][]int),
		prefixes:  make(map[string]string),
	}
}

// Add inserts (s, p, o) and reports whether the graph changed.
func (g *Graph) Add(s Term, p IRI, o Term) bool {
	return g.AddTriple(Triple{S: s, P: p, O: o})
}

// AddTriple inserts t and reports whether the graph changed.
// Triples with a missing component are ignored.
func (g *Graph) AddTriple(t Triple) bool {
	if t.S == nil || t.O == nil || t.P.Value == "" {
		return false
	}
	if _, ok := g.index[t]; ok {
		return false
	}
	g.index[t] = struct{}{}
	pos := len(g.triples)
	g.triples = append(g.triples, t)
	g.bySubject[t.S] = append(g.bySubject[t.S], pos)
	g.byObject[t.O] = append(g.byObject[t.O], pos)
	return true
}

// Has reports whether t is in the graph.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.index[t]
	return ok
}

// Len returns the number of triples.
func (g *Graph) Len() int { return len(g.triples) }

// Triples returns the triples in insertion order. The slice is a copy.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Find returns the triples matching the pattern in insertion order.
// A nil term or zero IRI matches anything.
func (g *Graph) Find(s Term, p IRI, o Term) []Triple {
	var candidates []int
	switch {
	case s != nil:
		candidates = g.bySubject[s]
	case o != nil:
		candidates = g.byObject[o]
	default:
		out := make([]Triple, 0)
		for _, t := range g.triples {
			if p.Value == "" || t.P == p {
				out = append(out, t)
			}
		}
		return out
	}
	out := make([]Triple, 0, len(candidates))
	for _, i := range candidates {
		t := g.triples[i]
		if s != nil && t.S != s {
			continue
		}
		if p.Value != "" && t.P != p {
			continue
		}
		if o != nil && t.O != o {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Objects returns the objects of (s, p, *) in insertion order.
func (g *Graph) Objects(s Term, p IRI) []Term {
	found := g.Find(s, p, nil)
	out := make([]Term, len(found))
	for i, t := range found {
		out[i] = t.O
	}
	return out
}

// Subjects returns the distinct subjects of (*, p, o) in insertion order.
func (g *Graph) Subjects(p IRI, o Term) []Term {
	found := g.Find(nil, p, o)
	seen := make(map[Term]struct{}, len(found))
	out := make([]Term, 0, len(found))
	for _, t := range found {
		if _, ok := seen[t.S]; ok {
			continue
		}
		seen[t.S] = struct{}{}
		out = append(out, t.S)
	}
	return out
}

// Value returns the first object of (s, p, *).
func (g *Graph) Value(s Term, p IRI) (Term, bool) {
	for _, i := range g.bySubject[s] {
		if t := g.triples[i]; t.P == p {
			return t.O, true
		}
	}
	return nil, false
}

// InstancesOf returns the distinct subjects typed with class, skipping blank
// nodes when namedOnly is set.
func (g *Graph) InstancesOf(class IRI, namedOnly bool) []Term {
	var out []Term
	for _, s := range g.Subjects(RDFType, class) {
		if namedOnly && s.Kind() == TermBlankNode {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Merge adds every triple and prefix binding of other to g.
func (g *Graph) Merge(other *Graph) {
	if other == nil {
		return
	}
	for _, t := range other.triples {
		g.AddTriple(t)
	}
	for prefix, ns := range other.prefixes {
		if _, ok := g.prefixes[prefix]; !ok {
			g.prefixes[prefix] = ns
		}
	}
}

// Clone returns an independent copy. Blank nodes are shared, so triples in
// the clone compare equal to triples in g.
func (g *Graph) Clone() *Graph {
	out := NewGraph()
	out.Merge(g)
	return out
}

// Bind associates prefix with namespace for serialization.
func (g *Graph) Bind(prefix, namespace string) {
	g.prefixes[prefix] = namespace
}

// BindDefaults binds the prefixes returned by DefaultPrefixes.
func (g *Graph) BindDefaults() {
	maps.Copy(g.prefixes, DefaultPrefixes())
}

// Prefixes returns a copy of the prefix bindings.
func (g *Graph) Prefixes() map[string]string {
	return maps.Clone(g.prefixes)
}

// Equal reports whether g and other hold the same triple set, ignoring
// insertion order. Blank nodes are compared by identity; use Isomorphic to
// compare graphs built independently.
func (g *Graph) Equal(other *Graph) bool {
	if g.Len() != other.Len() {
		return false
	}
	for _, t := range g.triples {
		if !other.Has(t) {
			return false
		}
	}
	return true
}

// Isomorphic reports whether g and other are equal up to blank node
// renaming. Blank nodes are matched by iteratively refined neighbourhood
// signatures; graphs whose blank nodes cannot be told apart structurally
// are compared by signature only.
func (g *Graph) Isomorphic(other *Graph) bool {
	if g.Len() != other.Len() {
		return false
	}
	a, b := g.signatures(), other.signatures()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// signatures returns the sorted triple renderings with blank nodes replaced
// by refined color labels.
func (g *Graph) signatures() []string {
	colors := make(map[BlankNode]string)
	for _, t := range g.triples {
		for _, term := range []Term{t.S, t.O} {
			if b, ok := term.(BlankNode); ok {
				colors[b] = "_"
			}
		}
	}
	color := func(term Term) string {
		if b, ok := term.(BlankNode); ok {
			return "_:" + colors[b]
		}
		return renderTerm(term, nil)
	}
	for range len(colors) + 1 {
		next := make(map[BlankNode]string, len(colors))
		for b := range colors {
			var parts []string
			for _, i := range g.bySubject[b] {
				t := g.triples[i]
				parts = append(parts, "+"+t.P.Value+" "+color(t.O))
			}
			for _, i := range g.byObject[b] {
				t := g.triples[i]
				parts = append(parts, "-"+t.P.Value+" "+color(t.S))
			}
			sort.Strings(parts)
			next[b] = shortHash(parts)
		}
		stable := distinct(next) == distinct(colors)
		colors = next
		if stable {
			break
		}
	}
	out := make([]string, len(g.triples))
	for i, t := range g.triples {
		out[i] = color(t.S) + " " + t.P.Value + " " + color(t.O)
	}
	sort.Strings(out)
	return out
}

func distinct(colors map[BlankNode]string) int {
	seen := make(map[string]struct{}, len(colors))
	for _, c := range colors {
		seen[c] = struct{}{}
	}
	return len(seen)
}

func shortHash(parts []string) string {
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(parts, "\n")), 36)
}
