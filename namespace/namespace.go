// Package namespace turns human-readable labels into IRIs under a base
// namespace.
package namespace

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/geoknoesis/shacl-go/rdf"
)

// Namespace is a base IRI that always ends in '/' or '#'.
type Namespace string

// New normalizes base, appending '/' when it ends in neither '/' nor '#'.
func New(base string) Namespace {
	if strings.HasSuffix(base, "/") || strings.HasSuffix(base, "#") {
		return Namespace(base)
	}
	return Namespace(base + "/")
}

// String returns the normalized base.
func (ns Namespace) String() string { return string(ns) }

// IRI returns the namespace itself as an IRI.
func (ns Namespace) IRI() rdf.IRI { return rdf.NewIRI(string(ns)) }

// Term returns the identifier for label in ns.
func (ns Namespace) Term(label string) rdf.IRI {
	return rdf.NewIRI(string(ns) + Sanitize(label))
}

// GenerateIdentifier returns base (normalized) followed by the sanitized
// label. It is pure: equal inputs give equal identifiers, and an empty label
// yields the base itself. Labels that differ only in dropped characters
// collide; see Minter.
func GenerateIdentifier(base, label string) rdf.IRI {
	return New(base).Term(label)
}

// Sanitize replaces whitespace with '_' and drops every character that is
// not a letter, number, '_' or '-'. Numbers include superscripts and
// vulgar fractions. The label is NFC-normalized first so a
// decomposed accented letter survives as one letter.
func Sanitize(label string) string {
	label = norm.NFC.String(label)
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case unicode.IsLetter(r), unicode.IsNumber(r), r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
