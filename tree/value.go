// Package tree models tree-structured documents (JSON, YAML) as a closed
// value type and maps them onto RDF graphs.
package tree

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnsupportedValueKind is returned for values that are not a scalar,
// mapping or sequence, and for documents whose top level cannot be mapped.
var ErrUnsupportedValueKind = errors.New("unsupported value kind")

// Kind identifies a Value variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindDecimal
	KindBoolean
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindBoolean:
		return "boolean"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one node of a tree document. The variants are Scalar, Mapping,
// Sequence and Null.
type Value interface {
	Kind() Kind
	isValue()
}

// Scalar is a leaf. Lexical keeps the source form so numbers round-trip
// without float conversion.
type Scalar struct {
	ScalarKind Kind
	Lexical    string
}

func (s Scalar) Kind() Kind { return s.ScalarKind }
func (Scalar) isValue()     {}

// String returns a string scalar.
func String(s string) Scalar { return Scalar{ScalarKind: KindString, Lexical: s} }

// Integer returns an integer scalar.
func Integer(n int64) Scalar {
	return Scalar{ScalarKind: KindInteger, Lexical: strconv.FormatInt(n, 10)}
}

// Decimal returns a decimal scalar with the given lexical form.
func Decimal(lexical string) Scalar { return Scalar{ScalarKind: KindDecimal, Lexical: lexical} }

// Bool returns a boolean scalar.
func Bool(b bool) Scalar { return Scalar{ScalarKind: KindBoolean, Lexical: strconv.FormatBool(b)} }

// Entry is one key of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is an ordered set of keyed values.
type Mapping struct {
	Entries []Entry
}

func (Mapping) Kind() Kind { return KindMapping }
func (Mapping) isValue()   {}

// Get returns the value of the first entry named key.
func (m Mapping) Get(key string) (Value, bool) {
	for _, e := range m.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the entry keys in order.
func (m Mapping) Keys() []string {
	keys := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Sequence is an ordered list of values.
type Sequence struct {
	Items []Value
}

func (Sequence) Kind() Kind { return KindSequence }
func (Sequence) isValue()   {}

// Null is an explicit null.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) isValue()   {}

// IsScalar reports whether v is a non-null leaf.
func IsScalar(v Value) bool {
	_, ok := v.(Scalar)
	return ok
}

// Text returns the lexical form of a scalar, or "" for anything else.
func Text(v Value) string {
	if s, ok := v.(Scalar); ok {
		return s.Lexical
	}
	return ""
}

func unsupported(v Value, where string) error {
	if v == nil {
		return fmt.Errorf("%w: missing value at %s", ErrUnsupportedValueKind, where)
	}
	return fmt.Errorf("%w: %s at %s", ErrUnsupportedValueKind, v.Kind(), where)
}
