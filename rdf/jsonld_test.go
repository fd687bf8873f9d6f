package rdf

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLDDecode(t *testing.T) {
	input := `{
  "@context": {"ex": "http://example.org/", "name": "http://example.org/name"},
  "@id": "ex:alice",
  "@type": "ex:Person",
  "name": "Alice",
  "ex:age": {"@value": "30", "@type": "http://www.w3.org/2001/XMLSchema#integer"}
}`
	g, err := ParseString(context.Background(), input, FormatJSONLD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alice := NewIRI("http://example.org/alice")
	if !g.Has(NewTriple(alice, RDFType, NewIRI("http://example.org/Person"))) {
		t.Fatalf("missing type triple: %v", g.Triples())
	}
	if !g.Has(NewTriple(alice, NewIRI("http://example.org/name"), NewString("Alice"))) {
		t.Fatalf("missing name triple: %v", g.Triples())
	}
	if !g.Has(NewTriple(alice, NewIRI("http://example.org/age"), NewInteger(30))) {
		t.Fatalf("missing age triple: %v", g.Triples())
	}
	if g.Prefixes()["ex"] != "http://example.org/" {
		t.Fatal("context prefixes should be bound")
	}
}

func TestJSONLDRemoteContextRefused(t *testing.T) {
	input := `{"@context": "http://example.org/context.jsonld", "@id": "http://e/s"}`
	_, err := ParseString(context.Background(), input, FormatJSONLD)
	if err == nil {
		t.Fatal("expected error for remote context")
	}
	if !strings.Contains(err.Error(), "remote context") && !errors.Is(err, ErrRemoteContext) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJSONLDEncode(t *testing.T) {
	g := NewGraph()
	g.BindDefaults()
	shape := NewIRI("http://example.org/shapes/PersonShape")
	g.Add(shape, RDFType, SHNodeShape)
	g.Add(shape, SHName, NewLangString("Person", "en"))
	out, err := SerializeString(context.Background(), g, FormatJSONLD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if _, ok := doc["@context"]; !ok {
		t.Fatalf("expected compacted output with @context:\n%s", out)
	}
	back, err := ParseString(context.Background(), out, FormatJSONLD)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if !g.Isomorphic(back) {
		t.Fatalf("round trip changed graph:\n%s", out)
	}
}

func TestJSONLDEncodeSkipsEmptyPrefix(t *testing.T) {
	g := NewGraph()
	g.BindDefaults()
	g.Bind("", "http://example.org/data/")
	root := NewIRI("http://example.org/data/root")
	g.Add(root, NewIRI("http://example.org/data/name"), NewString("Ada"))
	g.Add(root, NewIRI("http://example.org/data/age"), NewInteger(36))
	out, err := SerializeString(context.Background(), g, FormatJSONLD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, `"": `) || strings.Contains(out, `":root"`) {
		t.Fatalf("empty prefix leaked into JSON-LD:\n%s", out)
	}
	back, err := ParseString(context.Background(), out, FormatJSONLD)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if !g.Isomorphic(back) {
		t.Fatalf("round trip changed graph: %d vs %d triples\n%s", g.Len(), back.Len(), out)
	}
}
