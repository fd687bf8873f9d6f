package tree

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EncodeJSON renders v as indented JSON, keeping mapping order. Numbers
// that JSON cannot carry (INF, NaN) are written as strings.
func EncodeJSON(v Value) (string, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, v, 0); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func encodeJSON(buf *bytes.Buffer, v Value, depth int) error {
	indent := func(n int) {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("  ", n))
	}
	switch x := v.(type) {
	case Null:
		buf.WriteString("null")
	case Scalar:
		switch x.ScalarKind {
		case KindInteger, KindBoolean:
			buf.WriteString(x.Lexical)
		case KindDecimal:
			if !json.Valid([]byte(x.Lexical)) {
				return writeString(buf, x.Lexical)
			}
			buf.WriteString(x.Lexical)
		default:
			return writeString(buf, x.Lexical)
		}
	case Mapping:
		if len(x.Entries) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		for i, e := range x.Entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			indent(depth + 1)
			if err := writeString(buf, e.Key); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := encodeJSON(buf, e.Value, depth+1); err != nil {
				return err
			}
		}
		indent(depth)
		buf.WriteByte('}')
	case Sequence:
		if len(x.Items) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range x.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			indent(depth + 1)
			if err := encodeJSON(buf, item, depth+1); err != nil {
				return err
			}
		}
		indent(depth)
		buf.WriteByte(']')
	default:
		return unsupported(v, "json encoding")
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
