// Package format resolves file extensions and user-supplied format names to
// canonical format tags.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/geoknoesis/shacl-go/rdf"
)

// Canonical is a canonical format tag.
type Canonical string

const (
	Turtle   Canonical = "turtle"
	XML      Canonical = "xml"
	N3       Canonical = "n3"
	NTriples Canonical = "nt"
	JSONLD   Canonical = "json-ld"
	JSON     Canonical = "json"
	CSV      Canonical = "csv"
	XLSX     Canonical = "xlsx"
	DOCX     Canonical = "docx"
	PDF      Canonical = "pdf"
	Image    Canonical = "image"
	YAML     Canonical = "yaml"
	HTML     Canonical = "html"
	Text     Canonical = "text"
	Markdown Canonical = "markdown"
	Unknown  Canonical = "unknown"
)

// ErrUnsupportedFormat is returned when a format tag reaches a code path that
// has no handler for it.
var ErrUnsupportedFormat = errors.New("unsupported format")

var extensions = map[string]Canonical{
	".ttl":    Turtle,
	".rdf":    XML,
	".owl":    XML,
	".xml":    XML,
	".n3":     N3,
	".nt":     NTriples,
	".jsonld": JSONLD,
	".json":   JSON,
	".xsd":    XML,
	".csv":    CSV,
	".xlsx":   XLSX,
	".docx":   DOCX,
	".pdf":    PDF,
	".png":    Image,
	".jpg":    Image,
	".jpeg":   Image,
	".yaml":   YAML,
	".yml":    YAML,
	".html":   HTML,
	".htm":    HTML,
	".txt":    Text,
	".md":     Markdown,
}

var aliases = map[string]string{
	"ttl":      "turtle",
	"rdf":      "xml",
	"owl":      "xml",
	"jsonld":   "json-ld",
	"json-ld":  "json-ld",
	"ntriples": "nt",
}

// FromPath maps the extension of path to a canonical tag. Unrecognized or
// missing extensions give Unknown.
func FromPath(path string) Canonical {
	if c, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}
	return Unknown
}

// Normalize maps a user-supplied format name to the name the RDF layer
// expects. Names without an alias are lower-cased and returned as-is.
func Normalize(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if alias, ok := aliases[hint]; ok {
		return alias
	}
	return hint
}

// Resolve accepts either a path or a format hint. A recognized extension
// wins; otherwise the hint is normalized and matched against the canonical
// tags. It never fails.
func Resolve(pathOrHint string) Canonical {
	if c := FromPath(pathOrHint); c != Unknown {
		return c
	}
	name := Normalize(pathOrHint)
	switch name {
	case "json-schema", "jsonschema":
		return JSON
	case "yml":
		return YAML
	case "md":
		return Markdown
	case "txt":
		return Text
	case "htm":
		return HTML
	case "jpg", "jpeg", "png":
		return Image
	}
	for _, c := range extensions {
		if string(c) == name {
			return c
		}
	}
	return Unknown
}

// IsRDF reports whether c names an RDF serialization.
func (c Canonical) IsRDF() bool {
	_, err := RDF(c)
	return err == nil
}

// IsTree reports whether c names a tree-structured document format.
func (c Canonical) IsTree() bool {
	return c == JSON || c == YAML
}

// RDF returns the rdf.Format used to read or write c.
func RDF(c Canonical) (rdf.Format, error) {
	switch c {
	case Turtle, N3:
		return rdf.FormatTurtle, nil
	case XML:
		return rdf.FormatRDFXML, nil
	case NTriples:
		return rdf.FormatNTriples, nil
	case JSONLD:
		return rdf.FormatJSONLD, nil
	}
	return "", fmt.Errorf("%w: %s has no RDF codec", ErrUnsupportedFormat, c)
}
