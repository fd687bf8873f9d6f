package rdf

import (
	"context"
	"testing"
)

const ontologyXML = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xml:base="http://example.org/onto">
  <owl:Class rdf:about="#Person">
    <rdfs:label xml:lang="en">Person</rdfs:label>
    <rdfs:comment>A human being</rdfs:comment>
  </owl:Class>
  <owl:ObjectProperty rdf:about="#knows">
    <rdfs:domain rdf:resource="#Person"/>
    <rdfs:range rdf:resource="#Person"/>
  </owl:ObjectProperty>
  <owl:Class>
    <rdfs:subClassOf rdf:resource="#Person"/>
  </owl:Class>
  <rdf:Description rdf:about="#alice" rdfs:label="Alice">
    <rdf:type rdf:resource="#Person"/>
    <rdfs:seeAlso rdf:parseType="Resource">
      <rdfs:label rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">7</rdfs:label>
    </rdfs:seeAlso>
    <rdfs:member rdf:parseType="Collection">
      <rdf:Description rdf:about="#a"/>
      <rdf:Description rdf:about="#b"/>
    </rdfs:member>
  </rdf:Description>
</rdf:RDF>`

func TestRDFXMLDecode(t *testing.T) {
	g, err := ParseString(context.Background(), ontologyXML, FormatRDFXML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	person := NewIRI("http://example.org/onto#Person")
	if !g.Has(NewTriple(person, RDFType, OWLClass)) {
		t.Fatalf("missing class declaration: %v", g.Triples())
	}
	if !g.Has(NewTriple(person, RDFSLabel, NewLangString("Person", "en"))) {
		t.Fatal("missing label")
	}
	if !g.Has(NewTriple(person, RDFSComment, NewString("A human being"))) {
		t.Fatal("missing comment")
	}
	knows := NewIRI("http://example.org/onto#knows")
	if v, _ := g.Value(knows, RDFSDomain); v != person {
		t.Fatalf("unexpected domain %v", v)
	}
	classes := g.InstancesOf(OWLClass, false)
	if len(classes) != 2 {
		t.Fatalf("expected 2 classes (one anonymous), got %d", len(classes))
	}
	if named := g.InstancesOf(OWLClass, true); len(named) != 1 {
		t.Fatalf("expected 1 named class, got %d", len(named))
	}
	alice := NewIRI("http://example.org/onto#alice")
	if !g.Has(NewTriple(alice, RDFSLabel, NewString("Alice"))) {
		t.Fatal("property attribute not decoded")
	}
	res, ok := g.Value(alice, NewIRI(RDFSNS+"seeAlso"))
	if !ok {
		t.Fatal("parseType Resource not decoded")
	}
	if v, _ := g.Value(res, RDFSLabel); v != NewInteger(7) {
		t.Fatalf("unexpected typed literal %v", v)
	}
	head, _ := g.Value(alice, NewIRI(RDFSNS+"member"))
	items, err := g.List(head)
	if err != nil || len(items) != 2 {
		t.Fatalf("collection not decoded: %v %v", items, err)
	}
	if g.Prefixes()["owl"] != OWLNS {
		t.Fatal("xmlns prefixes should be bound")
	}
}

func TestRDFXMLMalformed(t *testing.T) {
	_, err := ParseString(context.Background(), `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"><rdf:Description>`, FormatRDFXML)
	if err == nil {
		t.Fatal("expected error for truncated document")
	}
}

func TestRDFXMLNotWritable(t *testing.T) {
	if _, err := SerializeString(context.Background(), NewGraph(), FormatRDFXML); Code(err) != ErrCodeUnsupportedFormat {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}
