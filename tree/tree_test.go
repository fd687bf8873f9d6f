package tree

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/geoknoesis/shacl-go/namespace"
	"github.com/geoknoesis/shacl-go/rdf"
)

var ns = namespace.New("http://example.org/shapes/")

func mustJSON(t *testing.T, doc string) Value {
	t.Helper()
	v, err := DecodeJSON(strings.NewReader(doc))
	require.NoError(t, err)
	return v
}

func TestMapFlatObject(t *testing.T) {
	v := mustJSON(t, `{"name": "John Doe", "age": 30, "email": "john@example.com"}`)

	g, err := MapToGraph(v, ns, "root")
	require.NoError(t, err)
	require.Equal(t, 3, g.Len())

	root := ns.Term("root")
	for _, tr := range g.Triples() {
		assert.Equal(t, rdf.Term(root), tr.S)
	}
	assert.True(t, g.Has(rdf.NewTriple(root, ns.Term("name"), rdf.NewString("John Doe"))))
	assert.True(t, g.Has(rdf.NewTriple(root, ns.Term("age"), rdf.NewInteger(30))))
	assert.True(t, g.Has(rdf.NewTriple(root, ns.Term("email"), rdf.NewString("john@example.com"))))
}

func TestMapNestedObject(t *testing.T) {
	v := mustJSON(t, `{"a": {"b": 1}}`)

	g, err := Map(v, ns)
	require.NoError(t, err)

	root, child := ns.Term("root"), ns.Term("root_a")
	one := rdf.NewInteger(1)
	assert.True(t, g.Has(rdf.NewTriple(root, ns.Term("a"), child)))
	assert.True(t, g.Has(rdf.NewTriple(child, ns.Term("b"), one)))
	assert.Empty(t, g.Find(root, rdf.IRI{}, one))
	assert.Equal(t, 2, g.Len())

	// pre-order: the link precedes the child's own triples
	triples := g.Triples()
	assert.Equal(t, rdf.Term(root), triples[0].S)
	assert.Equal(t, rdf.Term(child), triples[1].S)
}

func TestMapSequences(t *testing.T) {
	v := mustJSON(t, `{"tags": ["x", "y"], "people": [{"n": "a"}, {"n": "b"}], "grid": [[1, 2]]}`)

	g, err := Map(v, ns)
	require.NoError(t, err)

	root := ns.Term("root")
	assert.ElementsMatch(t,
		[]rdf.Term{rdf.NewString("x"), rdf.NewString("y")},
		g.Objects(root, ns.Term("tags")))
	assert.Equal(t,
		[]rdf.Term{ns.Term("root_people_0"), ns.Term("root_people_1")},
		g.Objects(root, ns.Term("people")))
	assert.True(t, g.Has(rdf.NewTriple(ns.Term("root_people_1"), ns.Term("n"), rdf.NewString("b"))))

	grid := ns.Term("root_grid_0")
	assert.True(t, g.Has(rdf.NewTriple(root, ns.Term("grid"), grid)))
	assert.True(t, g.Has(rdf.NewTriple(grid, rdf.NewIRI(rdf.RDFNS+"_1"), rdf.NewInteger(1))))
	assert.True(t, g.Has(rdf.NewTriple(grid, rdf.NewIRI(rdf.RDFNS+"_2"), rdf.NewInteger(2))))
}

func TestMapTopLevelSequence(t *testing.T) {
	v := mustJSON(t, `[{"k": true}, {"k": 2.5}]`)

	g, err := Map(v, ns)
	require.NoError(t, err)
	assert.True(t, g.Has(rdf.NewTriple(ns.Term("item0"), ns.Term("k"), rdf.NewBoolean(true))))
	assert.True(t, g.Has(rdf.NewTriple(ns.Term("item1"), ns.Term("k"), rdf.NewTypedLiteral("2.5", rdf.XSDDecimal))))
}

func TestLiteralTyping(t *testing.T) {
	tests := []struct {
		in   Scalar
		want rdf.Literal
	}{
		{String("x"), rdf.NewString("x")},
		{Integer(-4), rdf.NewTypedLiteral("-4", rdf.XSDInteger)},
		{Decimal("1.50"), rdf.NewTypedLiteral("1.50", rdf.XSDDecimal)},
		{Decimal("1e3"), rdf.NewTypedLiteral("1e3", rdf.XSDDouble)},
		{Decimal("INF"), rdf.NewTypedLiteral("INF", rdf.XSDDouble)},
		{Bool(false), rdf.NewBoolean(false)},
	}
	for _, tt := range tests {
		got, err := Literal(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in.Lexical)
	}
	_, err := Literal(Scalar{ScalarKind: KindMapping})
	assert.ErrorIs(t, err, ErrUnsupportedValueKind)
}

func TestMapRejectsUnsupportedValues(t *testing.T) {
	cases := map[string]Value{
		"null member":      mustJSON(t, `{"a": null}`),
		"null in sequence": mustJSON(t, `{"a": [1, null]}`),
		"scalar root":      String("x"),
		"null root":        Null{},
		"scalar item":      mustJSON(t, `[1, 2]`),
	}
	for name, v := range cases {
		g, err := Map(v, ns)
		assert.Nil(t, g, name)
		assert.True(t, errors.Is(err, ErrUnsupportedValueKind), name)
	}
}

func TestMapDepthGuard(t *testing.T) {
	doc := strings.Repeat(`{"a":`, 10) + "1" + strings.Repeat("}", 10)
	v := mustJSON(t, doc)

	_, err := Map(v, ns, WithMaxDepth(5))
	assert.ErrorIs(t, err, ErrDepthExceeded)

	g, err := Map(v, ns, WithMaxDepth(-1))
	require.NoError(t, err)
	assert.Equal(t, 10, g.Len())
}

func TestMapIsDeterministic(t *testing.T) {
	v := mustJSON(t, `{"b": {"c": [1, {"d": "x"}]}, "a": "y"}`)
	g1, err := Map(v, ns)
	require.NoError(t, err)
	g2, err := Map(v, ns)
	require.NoError(t, err)
	assert.True(t, g1.Equal(g2))
	assert.Equal(t, g1.Triples(), g2.Triples())
}

func TestMapWithMinter(t *testing.T) {
	m := namespace.NewMinter(ns, true, nil)
	v := mustJSON(t, `{"a.b": 1, "ab": 2}`)

	g, err := Map(v, ns, WithMinter(m))
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, m.Collisions())
}

func TestDecodeJSONKeepsOrderAndNumbers(t *testing.T) {
	v := mustJSON(t, `{"z": 1, "a": 12345678901234567890, "m": 0.10}`)
	m, ok := v.(Mapping)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())
	big, _ := m.Get("a")
	assert.Equal(t, Scalar{ScalarKind: KindInteger, Lexical: "12345678901234567890"}, big)
	dec, _ := m.Get("m")
	assert.Equal(t, Decimal("0.10"), dec)
}

func TestDecodeJSONErrors(t *testing.T) {
	for _, doc := range []string{`{"a": }`, `{"a": 1} {"b": 2}`, ``, `[1, 2`} {
		_, err := DecodeJSON(strings.NewReader(doc))
		assert.Error(t, err, doc)
	}
}

func TestDecodeYAML(t *testing.T) {
	doc := `
title: Person
count: 0x10
ratio: 1.5
active: true
born: 2001-01-02
tags: [a, b]
base: &base {x: 1}
copy: *base
nothing: ~
`
	v, err := DecodeYAML(strings.NewReader(doc))
	require.NoError(t, err)
	m := v.(Mapping)
	assert.Equal(t, []string{"title", "count", "ratio", "active", "born", "tags", "base", "copy", "nothing"}, m.Keys())

	get := func(k string) Value {
		val, ok := m.Get(k)
		require.True(t, ok, k)
		return val
	}
	assert.Equal(t, String("Person"), get("title"))
	assert.Equal(t, Integer(16), get("count"))
	assert.Equal(t, Decimal("1.5"), get("ratio"))
	assert.Equal(t, String("2001-01-02"), get("born"))
	assert.Equal(t, Sequence{Items: []Value{String("a"), String("b")}}, get("tags"))
	assert.Equal(t, get("base"), get("copy"))
	assert.Equal(t, Null{}, get("nothing"))
	assert.Equal(t, Bool(true), get("active"))
}

func TestDecodeYAMLRejectsComplexKeys(t *testing.T) {
	_, err := DecodeYAML(strings.NewReader("? [a, b]\n: 1\n"))
	assert.ErrorIs(t, err, ErrUnsupportedValueKind)
}

func TestFromAny(t *testing.T) {
	var raw any
	require.NoError(t, yaml.Unmarshal([]byte("b: 2\na: [1.5, true, s]\n"), &raw))

	v, err := FromAny(raw)
	require.NoError(t, err)
	m := v.(Mapping)
	assert.Equal(t, []string{"a", "b"}, m.Keys())

	a, _ := m.Get("a")
	assert.Equal(t, Sequence{Items: []Value{Decimal("1.5"), Bool(true), String("s")}}, a)

	n, err := FromAny(float64(30))
	require.NoError(t, err)
	assert.Equal(t, Integer(30), n)

	_, err = FromAny(struct{}{})
	assert.ErrorIs(t, err, ErrUnsupportedValueKind)
}

func TestEncodeJSONKeepsOrder(t *testing.T) {
	v := mustJSON(t, `{"z": "x<y", "a": [1, 2.5, true, null], "m": {}}`)
	out, err := EncodeJSON(v)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"z\": \"x\\u003cy\",\n  \"a\": [\n    1,\n    2.5,\n    true,\n    null\n  ],\n  \"m\": {}\n}", out)

	again, err := DecodeJSON(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, v, again)
}

func TestEncodeJSONNonFinite(t *testing.T) {
	out, err := EncodeJSON(Sequence{Items: []Value{Decimal("INF"), Decimal("NaN")}})
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"INF\",\n  \"NaN\"\n]", out)
}

func TestMappedGraphRoundTrips(t *testing.T) {
	v, err := DecodeJSON(strings.NewReader(`{"a": {"b": [1, 2.50, true, "s", {"c": 1e3}, [1, [2]]]}, "k-1": -0, "0x": "\u00e9"}`))
	require.NoError(t, err)
	g, err := Map(v, ns)
	require.NoError(t, err)

	for _, f := range []rdf.Format{rdf.FormatTurtle, rdf.FormatNTriples, rdf.FormatJSONLD} {
		t.Run(string(f), func(t *testing.T) {
			out, err := rdf.SerializeString(context.Background(), g, f)
			require.NoError(t, err)
			back, err := rdf.ParseString(context.Background(), out, f)
			require.NoError(t, err)
			assert.Equal(t, g.Len(), back.Len())
			assert.True(t, g.Isomorphic(back), out)
		})
	}
}
