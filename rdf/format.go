package rdf

import "strings"

// Format identifies an RDF serialization.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatRDFXML   Format = "rdfxml"
	FormatJSONLD   Format = "jsonld"
)

// ParseFormat normalizes a format name to one of the supported formats.
func ParseFormat(value string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "turtle", "ttl", "n3":
		return FormatTurtle, true
	case "ntriples", "nt", "n-triples":
		return FormatNTriples, true
	case "rdfxml", "rdf", "xml", "rdf/xml", "pretty-xml", "owl":
		return FormatRDFXML, true
	case "jsonld", "json-ld":
		return FormatJSONLD, true
	default:
		return "", false
	}
}

// CanWrite reports whether Serialize supports f.
func (f Format) CanWrite() bool {
	switch f {
	case FormatTurtle, FormatNTriples, FormatJSONLD:
		return true
	}
	return false
}
