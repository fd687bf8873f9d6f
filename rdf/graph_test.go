package rdf

import "testing"

var (
	exS = NewIRI("http://example.org/s")
	exP = NewIRI("http://example.org/p")
	exQ = NewIRI("http://example.org/q")
)

func TestGraphSetSemantics(t *testing.T) {
	g := NewGraph()
	if !g.Add(exS, exP, NewString("a")) {
		t.Fatal("first add should change the graph")
	}
	if g.Add(exS, exP, NewString("a")) {
		t.Fatal("duplicate add should not change the graph")
	}
	if g.Len() != 1 {
		t.Fatalf("expected 1 triple, got %d", g.Len())
	}
	if g.Add(nil, exP, NewString("a")) {
		t.Fatal("triple without subject must be ignored")
	}
}

func TestGraphFind(t *testing.T) {
	g := NewGraph()
	o1, o2 := NewString("1"), NewString("2")
	g.Add(exS, exP, o1)
	g.Add(exS, exQ, o2)
	g.Add(exQ, exP, o1)

	if got := g.Find(exS, IRI{}, nil); len(got) != 2 {
		t.Fatalf("subject pattern: got %d triples", len(got))
	}
	if got := g.Find(nil, exP, nil); len(got) != 2 {
		t.Fatalf("predicate pattern: got %d triples", len(got))
	}
	if got := g.Find(nil, IRI{}, o1); len(got) != 2 {
		t.Fatalf("object pattern: got %d triples", len(got))
	}
	if got := g.Find(exS, exP, o2); len(got) != 0 {
		t.Fatalf("exact pattern: got %d triples", len(got))
	}
	if v, ok := g.Value(exS, exQ); !ok || v != o2 {
		t.Fatalf("Value: got %v, %v", v, ok)
	}
	if subjects := g.Subjects(exP, o1); len(subjects) != 2 || subjects[0] != exS {
		t.Fatalf("Subjects: got %v", subjects)
	}
}

func TestGraphInsertionOrder(t *testing.T) {
	g := NewGraph()
	for _, v := range []string{"c", "a", "b"} {
		g.Add(exS, exP, NewString(v))
	}
	var got []string
	for _, tr := range g.Triples() {
		got = append(got, tr.O.(Literal).Lexical)
	}
	if got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Fatalf("insertion order lost: %v", got)
	}
}

func TestGraphMergeAndClone(t *testing.T) {
	a := NewGraph()
	a.Add(exS, exP, NewString("x"))
	a.Bind("ex", "http://example.org/")
	b := NewGraph()
	b.Add(exS, exP, NewString("x"))
	b.Add(exS, exQ, NewString("y"))
	a.Merge(b)
	if a.Len() != 2 {
		t.Fatalf("merge: expected 2 triples, got %d", a.Len())
	}
	c := a.Clone()
	c.Add(exQ, exQ, exQ)
	if a.Len() != 2 || c.Len() != 3 {
		t.Fatal("clone must be independent")
	}
	if c.Prefixes()["ex"] != "http://example.org/" {
		t.Fatal("clone must keep prefixes")
	}
}

func TestGraphLists(t *testing.T) {
	g := NewGraph()
	items := []Term{NewString("A"), NewString("B")}
	head := g.AddList(items)
	got, err := g.List(head)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != items[0] || got[1] != items[1] {
		t.Fatalf("unexpected list %v", got)
	}
	if empty := g.AddList(nil); empty != RDFNil {
		t.Fatalf("empty list should be rdf:nil, got %v", empty)
	}
	if _, err := g.List(NewBlankNode()); err == nil {
		t.Fatal("expected error for broken list")
	}
}

func TestGraphIsomorphic(t *testing.T) {
	build := func() *Graph {
		g := NewGraph()
		b := NewBlankNode()
		g.Add(exS, exP, b)
		g.Add(b, exQ, NewString("v"))
		g.AddList([]Term{NewString("A"), NewString("B")})
		return g
	}
	a, b := build(), build()
	if a.Equal(b) {
		t.Fatal("independently built graphs differ by blank node identity")
	}
	if !a.Isomorphic(b) {
		t.Fatal("graphs should be isomorphic")
	}
	b.Add(exS, exQ, NewString("extra"))
	if a.Isomorphic(b) {
		t.Fatal("graphs with different sizes are not isomorphic")
	}
}
