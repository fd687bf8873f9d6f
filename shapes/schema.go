package shapes

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/geoknoesis/shacl-go/tree"
)

// ErrInvalidSchema is returned when a tree does not have the shape of an
// object schema.
var ErrInvalidSchema = errors.New("shapes: invalid schema")

// Schema is a flat object schema in the JSON Schema style.
type Schema struct {
	Title       string
	Description string
	Properties  []Property
	Required    []string
}

// Property is one declared property of a Schema.
type Property struct {
	Name        string
	Type        string
	Description string
	// ItemsType is the element type when Type is "array".
	ItemsType string
	// Enum holds the lexical forms of the allowed values in declaration order.
	Enum             []string
	Pattern          string
	MinLength        *int
	MaxLength        *int
	Minimum          *tree.Scalar
	Maximum          *tree.Scalar
	ExclusiveMinimum *tree.Scalar
	ExclusiveMaximum *tree.Scalar
}

// IsRequired reports whether name is listed in Required.
func (s Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// SchemaFromTree reads a JSON Schema or equivalent YAML document. Unknown
// keywords are ignored. A property may also mark itself with "required: true".
func SchemaFromTree(v tree.Value) (Schema, error) {
	root, ok := v.(tree.Mapping)
	if !ok {
		return Schema{}, fmt.Errorf("%w: expected an object, got %s", ErrInvalidSchema, kindOf(v))
	}
	var s Schema
	s.Title = stringField(root, "title")
	s.Description = stringField(root, "description")
	if req, ok := root.Get("required"); ok {
		seq, ok := req.(tree.Sequence)
		if !ok {
			return Schema{}, fmt.Errorf("%w: required must be a list", ErrInvalidSchema)
		}
		for _, item := range seq.Items {
			s.Required = append(s.Required, tree.Text(item))
		}
	}
	props, ok := root.Get("properties")
	if !ok {
		return s, nil
	}
	pm, ok := props.(tree.Mapping)
	if !ok {
		return Schema{}, fmt.Errorf("%w: properties must be an object", ErrInvalidSchema)
	}
	for _, e := range pm.Entries {
		p, required, err := propertyFromTree(e.Key, e.Value)
		if err != nil {
			return Schema{}, err
		}
		s.Properties = append(s.Properties, p)
		if required && !s.IsRequired(p.Name) {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s, nil
}

func propertyFromTree(name string, v tree.Value) (Property, bool, error) {
	p := Property{Name: name}
	def, ok := v.(tree.Mapping)
	if !ok {
		return p, false, fmt.Errorf("%w: property %q must be an object", ErrInvalidSchema, name)
	}
	p.Type = typeName(def)
	p.Description = stringField(def, "description")
	p.Pattern = stringField(def, "pattern")
	if items, ok := def.Get("items"); ok {
		if im, ok := items.(tree.Mapping); ok {
			p.ItemsType = typeName(im)
		}
	}
	if enum, ok := def.Get("enum"); ok {
		seq, ok := enum.(tree.Sequence)
		if !ok {
			return p, false, fmt.Errorf("%w: enum of %q must be a list", ErrInvalidSchema, name)
		}
		for _, item := range seq.Items {
			if !tree.IsScalar(item) {
				return p, false, fmt.Errorf("%w: enum of %q: %w", ErrInvalidSchema, name, tree.ErrUnsupportedValueKind)
			}
			p.Enum = append(p.Enum, tree.Text(item))
		}
	}
	var err error
	if p.MinLength, err = intField(def, name, "minLength"); err != nil {
		return p, false, err
	}
	if p.MaxLength, err = intField(def, name, "maxLength"); err != nil {
		return p, false, err
	}
	p.Minimum = numberField(def, "minimum")
	p.Maximum = numberField(def, "maximum")
	p.ExclusiveMinimum = exclusiveBound(def, "exclusiveMinimum", &p.Minimum)
	p.ExclusiveMaximum = exclusiveBound(def, "exclusiveMaximum", &p.Maximum)

	required := false
	if r, ok := def.Get("required"); ok {
		if s, ok := r.(tree.Scalar); ok && s.ScalarKind == tree.KindBoolean {
			required = s.Lexical == "true"
		}
	}
	return p, required, nil
}

// typeName reads "type", taking the first non-null entry of a type list.
func typeName(def tree.Mapping) string {
	v, ok := def.Get("type")
	if !ok {
		return ""
	}
	if seq, ok := v.(tree.Sequence); ok {
		for _, item := range seq.Items {
			if t := tree.Text(item); t != "" && t != "null" {
				return t
			}
		}
		return ""
	}
	return tree.Text(v)
}

func stringField(m tree.Mapping, key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	return tree.Text(v)
}

func intField(m tree.Mapping, prop, key string) (*int, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(tree.Text(v))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s of %q must be a non-negative integer", ErrInvalidSchema, key, prop)
	}
	return &n, nil
}

func numberField(m tree.Mapping, key string) *tree.Scalar {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	s, ok := v.(tree.Scalar)
	if !ok || (s.ScalarKind != tree.KindInteger && s.ScalarKind != tree.KindDecimal) {
		return nil
	}
	return &s
}

// exclusiveBound handles both the numeric form and the boolean form of
// exclusiveMinimum/exclusiveMaximum. In the boolean form the inclusive bound
// moves over.
func exclusiveBound(m tree.Mapping, key string, inclusive **tree.Scalar) *tree.Scalar {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	if s, ok := v.(tree.Scalar); ok && s.ScalarKind == tree.KindBoolean {
		if s.Lexical != "true" || *inclusive == nil {
			return nil
		}
		bound := *inclusive
		*inclusive = nil
		return bound
	}
	return numberField(m, key)
}

func kindOf(v tree.Value) string {
	if v == nil {
		return "nothing"
	}
	return v.Kind().String()
}

// InferSchema derives a Schema from a sample object: one property per key,
// typed string, integer, number, boolean, array or object after the value.
// Nothing is marked required.
func InferSchema(v tree.Value) (Schema, error) {
	m, ok := v.(tree.Mapping)
	if !ok {
		return Schema{}, fmt.Errorf("%w: schema inference needs an object, got %s", tree.ErrUnsupportedValueKind, kindOf(v))
	}
	var s Schema
	seen := make(map[string]bool)
	for _, e := range m.Entries {
		if seen[e.Key] {
			continue
		}
		seen[e.Key] = true
		s.Properties = append(s.Properties, Property{Name: e.Key, Type: inferredType(e.Value)})
	}
	return s, nil
}

func inferredType(v tree.Value) string {
	switch v.Kind() {
	case tree.KindInteger:
		return "integer"
	case tree.KindDecimal:
		return "number"
	case tree.KindBoolean:
		return "boolean"
	case tree.KindSequence:
		return "array"
	case tree.KindMapping:
		return "object"
	}
	return "string"
}
