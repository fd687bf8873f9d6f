// Package rdf provides the in-memory RDF graph used by the SHACL tooling,
// together with readers and writers for the common RDF syntaxes.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// Author: Stephane Fellah (stephanef@geoknoesis.com)
// Geosemantic-AI expert with 30 years of experience
//
// A Graph is a set of triples that remembers insertion order, so encoders
// produce the same bytes for the same sequence of Add calls:
//
//	g := rdf.NewGraph()
//	shape := rdf.NewIRI("http://example.org/shapes/PersonShape")
//	g.Add(shape, rdf.RDFType, rdf.SHNodeShape)
//	g.Add(shape, rdf.SHName, rdf.NewLangString("Person", "en"))
//
//	out, err := rdf.SerializeString(ctx, g, rdf.FormatTurtle)
//
// Blank nodes compare by identity. Two calls to NewBlankNode never yield
// equal terms, regardless of the label hint they carry.
//
// Supported formats:
//   - Turtle (read and write, also used for N3 input)
//   - N-Triples (read and write)
//   - JSON-LD (read and write, via github.com/piprate/json-gold)
//   - RDF/XML (read only)
//
// Parse and Serialize return ErrUnsupportedFormat for anything else.
// Parsers enforce the limits in Options so untrusted input cannot exhaust
// memory; see OptMaxLineBytes, OptMaxDepth and OptMaxTriples.
package rdf
