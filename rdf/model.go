package rdf

import "fmt"

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// TermIRI represents an IRI term.
	TermIRI TermKind = iota
	// TermBlankNode represents a blank node term.
	TermBlankNode
	// TermLiteral represents a literal term.
	TermLiteral
)

// Term is a value that can appear in RDF statements.
// The set of implementations is closed: IRI, BlankNode and Literal.
type Term interface {
	Kind() TermKind
	String() string
	isTerm()
}

// IRI represents an RDF IRI.
type IRI struct {
	// Value is the IRI string value.
	Value string
}

// NewIRI returns an IRI for value.
func NewIRI(value string) IRI { return IRI{Value: value} }

// Kind returns TermIRI.
func (i IRI) Kind() TermKind { return TermIRI }

// String returns the IRI value.
func (i IRI) String() string { return i.Value }

// IsZero reports whether the IRI is empty.
func (i IRI) IsZero() bool { return i.Value == "" }

func (IRI) isTerm() {}

// blankNode is the identity behind a BlankNode. Two BlankNode values are equal
// only when they share the same *blankNode.
type blankNode struct {
	label string
}

// BlankNode represents an anonymous RDF node.
//
// Equality is by reference: NewBlankNode always returns a node distinct from
// every other, even when the labels match. The label is only a hint used by
// encoders and String.
type BlankNode struct {
	ref *blankNode
}

// NewBlankNode returns a fresh blank node.
func NewBlankNode() BlankNode {
	return BlankNode{ref: &blankNode{}}
}

// NewLabeledBlankNode returns a fresh blank node carrying label as a
// presentation hint.
func NewLabeledBlankNode(label string) BlankNode {
	return BlankNode{ref: &blankNode{label: label}}
}

// Kind returns TermBlankNode.
func (b BlankNode) Kind() TermKind { return TermBlankNode }

// Label returns the presentation label, which may be empty.
func (b BlankNode) Label() string {
	if b.ref == nil {
		return ""
	}
	return b.ref.label
}

// IsZero reports whether b was never initialized.
func (b BlankNode) IsZero() bool { return b.ref == nil }

// String returns the label prefixed with "_:".
func (b BlankNode) String() string {
	if label := b.Label(); label != "" {
		return "_:" + label
	}
	return "_:"
}

func (BlankNode) isTerm() {}

// Literal represents an RDF literal.
type Literal struct {
	// Lexical is the lexical form of the literal.
	Lexical string
	// Datatype is the datatype IRI, if any.
	Datatype IRI
	// Lang is the language tag, if any.
	Lang string
}

// Kind returns TermLiteral.
func (l Literal) Kind() TermKind { return TermLiteral }

// String returns a string representation of the literal.
func (l Literal) String() string {
	if l.Lang != "" {
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	}
	if l.Datatype.Value != "" {
		return fmt.Sprintf("%q^^<%s>", l.Lexical, l.Datatype.Value)
	}
	return fmt.Sprintf("%q", l.Lexical)
}

func (Literal) isTerm() {}

// NewString returns a plain literal.
func NewString(value string) Literal { return Literal{Lexical: value} }

// NewLangString returns a language-tagged literal.
func NewLangString(value, lang string) Literal { return Literal{Lexical: value, Lang: lang} }

// NewTypedLiteral returns a literal with an explicit datatype. An
// xsd:string datatype yields the equivalent plain literal.
func NewTypedLiteral(lexical string, datatype IRI) Literal {
	return normalizeLiteral(Literal{Lexical: lexical, Datatype: datatype})
}

// NewInteger returns an xsd:integer literal.
func NewInteger(value int64) Literal {
	return Literal{Lexical: fmt.Sprintf("%d", value), Datatype: XSDInteger}
}

// NewBoolean returns an xsd:boolean literal.
func NewBoolean(value bool) Literal {
	return Literal{Lexical: fmt.Sprintf("%t", value), Datatype: XSDBoolean}
}

// Triple is an RDF triple. Triples are comparable and can be used as map keys.
type Triple struct {
	// S is the subject.
	S Term
	// P is the predicate.
	P IRI
	// O is the object.
	O Term
}

// NewTriple builds a triple.
func NewTriple(s Term, p IRI, o Term) Triple {
	return Triple{S: s, P: p, O: o}
}

// IsZero reports whether the triple has no subject/predicate/object.
func (t Triple) IsZero() bool {
	return t.S == nil && t.P.Value == "" && t.O == nil
}

// String renders the triple in an N-Triples like form.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s", renderTerm(t.S, nil), renderTerm(t.P, nil), renderTerm(t.O, nil))
}
