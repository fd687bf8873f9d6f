package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxDecodeDepth bounds nesting while decoding so hostile documents cannot
// exhaust the stack before the mapper's own depth guard runs.
const maxDecodeDepth = 10_000

// ErrTooDeep is returned when a document nests deeper than the decoder allows.
var ErrTooDeep = errors.New("tree: document nested too deeply")

// DecodeJSON reads one JSON document, keeping object key order and the
// lexical form of numbers.
func DecodeJSON(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeJSONValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("tree: decode json: trailing data after document")
		}
		return nil, fmt.Errorf("tree: decode json: %w", err)
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder, depth int) (Value, error) {
	if depth > maxDecodeDepth {
		return nil, ErrTooDeep
	}
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("tree: decode json: %w", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := Mapping{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("tree: decode json: %w", err)
				}
				key, _ := keyTok.(string)
				val, err := decodeJSONValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				m.Entries = append(m.Entries, Entry{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("tree: decode json: %w", err)
			}
			return m, nil
		case '[':
			s := Sequence{}
			for dec.More() {
				val, err := decodeJSONValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				s.Items = append(s.Items, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("tree: decode json: %w", err)
			}
			return s, nil
		}
		return nil, fmt.Errorf("tree: decode json: unexpected delimiter %q", t)
	case string:
		return String(t), nil
	case json.Number:
		return numberScalar(t.String()), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	}
	return nil, fmt.Errorf("tree: decode json: unexpected token %T", tok)
}

func numberScalar(lexical string) Scalar {
	if strings.ContainsAny(lexical, ".eE") {
		return Decimal(lexical)
	}
	return Scalar{ScalarKind: KindInteger, Lexical: lexical}
}

// DecodeYAML reads the first YAML document, keeping mapping key order.
// Anchors and aliases are expanded.
func DecodeYAML(r io.Reader) (Value, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Null{}, nil
		}
		return nil, fmt.Errorf("tree: decode yaml: %w", err)
	}
	return fromYAML(&doc, 0)
}

func fromYAML(n *yaml.Node, depth int) (Value, error) {
	if depth > maxDecodeDepth {
		return nil, ErrTooDeep
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return fromYAML(n.Content[0], depth+1)
	case yaml.MappingNode:
		m := Mapping{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: non-scalar mapping key at line %d", ErrUnsupportedValueKind, k.Line)
			}
			val, err := fromYAML(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			m.Entries = append(m.Entries, Entry{Key: k.Value, Value: val})
		}
		return m, nil
	case yaml.SequenceNode:
		s := Sequence{}
		for _, item := range n.Content {
			val, err := fromYAML(item, depth+1)
			if err != nil {
				return nil, err
			}
			s.Items = append(s.Items, val)
		}
		return s, nil
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("tree: decode yaml: dangling alias at line %d", n.Line)
		}
		return fromYAML(n.Alias, depth+1)
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, fmt.Errorf("%w: yaml node kind %d at line %d", ErrUnsupportedValueKind, n.Kind, n.Line)
}

func yamlScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!str", "!!timestamp", "!!binary":
		return String(n.Value), nil
	case "!!null":
		return Null{}, nil
	case "!!bool":
		switch strings.ToLower(n.Value) {
		case "true", "yes", "on", "y":
			return Bool(true), nil
		}
		return Bool(false), nil
	case "!!int":
		clean := strings.ReplaceAll(n.Value, "_", "")
		if v, err := strconv.ParseInt(clean, 0, 64); err == nil {
			return Integer(v), nil
		}
		return Scalar{ScalarKind: KindInteger, Lexical: strings.TrimPrefix(clean, "+")}, nil
	case "!!float":
		switch strings.ToLower(n.Value) {
		case ".inf", "+.inf":
			return Decimal("INF"), nil
		case "-.inf":
			return Decimal("-INF"), nil
		case ".nan":
			return Decimal("NaN"), nil
		}
		return Decimal(strings.TrimPrefix(n.Value, "+")), nil
	}
	return nil, fmt.Errorf("%w: yaml tag %s at line %d", ErrUnsupportedValueKind, n.Tag, n.Line)
}

// FromAny converts the output of encoding/json or yaml.v3 unmarshaling into
// a Value. Map keys are sorted because Go maps carry no order.
func FromAny(v any) (Value, error) {
	return fromAny(v, 0)
}

func fromAny(v any, depth int) (Value, error) {
	if depth > maxDecodeDepth {
		return nil, ErrTooDeep
	}
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Integer(int64(x)), nil
	case int8:
		return Integer(int64(x)), nil
	case int16:
		return Integer(int64(x)), nil
	case int32:
		return Integer(int64(x)), nil
	case int64:
		return Integer(x), nil
	case uint:
		return Scalar{ScalarKind: KindInteger, Lexical: strconv.FormatUint(uint64(x), 10)}, nil
	case uint8:
		return Integer(int64(x)), nil
	case uint16:
		return Integer(int64(x)), nil
	case uint32:
		return Integer(int64(x)), nil
	case uint64:
		return Scalar{ScalarKind: KindInteger, Lexical: strconv.FormatUint(x, 10)}, nil
	case float32:
		return floatScalar(float64(x), 32), nil
	case float64:
		return floatScalar(x, 64), nil
	case json.Number:
		return numberScalar(x.String()), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := Mapping{Entries: make([]Entry, 0, len(keys))}
		for _, k := range keys {
			val, err := fromAny(x[k], depth+1)
			if err != nil {
				return nil, err
			}
			m.Entries = append(m.Entries, Entry{Key: k, Value: val})
		}
		return m, nil
	case []any:
		s := Sequence{Items: make([]Value, 0, len(x))}
		for _, item := range x {
			val, err := fromAny(item, depth+1)
			if err != nil {
				return nil, err
			}
			s.Items = append(s.Items, val)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: Go type %T", ErrUnsupportedValueKind, v)
}

func floatScalar(f float64, bits int) Scalar {
	switch {
	case math.IsInf(f, 1):
		return Decimal("INF")
	case math.IsInf(f, -1):
		return Decimal("-INF")
	case math.IsNaN(f):
		return Decimal("NaN")
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return Scalar{ScalarKind: KindInteger, Lexical: strconv.FormatFloat(f, 'f', -1, bits)}
	}
	return Decimal(strconv.FormatFloat(f, 'g', -1, bits))
}
