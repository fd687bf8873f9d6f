package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoknoesis/shacl-go/format"
	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/report"
	"github.com/geoknoesis/shacl-go/shacl"
	"github.com/geoknoesis/shacl-go/tree"
)

const base = "http://example.org/shapes/"

type fakeTransformer struct {
	reply string
	err   error
	got   []Request
}

func (f *fakeTransformer) Transform(_ context.Context, req Request) (string, error) {
	f.got = append(f.got, req)
	return f.reply, f.err
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(Settings{Namespace: base}, shacl.New(), opts...)
	require.NoError(t, err)
	return e
}

func decode(t *testing.T, e *Engine, doc string, c format.Canonical) Input {
	t.Helper()
	in, err := e.Decode(context.Background(), []byte(doc), c)
	require.NoError(t, err)
	return in
}

func nodeShapes(g *rdf.Graph) int {
	return len(g.Subjects(rdf.RDFType, rdf.SHNodeShape))
}

func TestNewRequiresNamespace(t *testing.T) {
	_, err := New(Settings{}, nil)
	assert.ErrorIs(t, err, ErrMissingRequiredInput)

	e, err := New(Settings{Namespace: "http://example.org/x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/x/", e.Settings().Namespace.String())
	assert.Equal(t, report.InferenceRDFS, e.Settings().Inference)
}

func TestConvertSchemaFromTree(t *testing.T) {
	e := newEngine(t)
	in := decode(t, e, `{"title": "Person", "required": ["name"],
		"properties": {"name": {"type": "string"}, "age": {"type": "integer"}}}`, format.JSON)
	g, err := e.ConvertSchema(context.Background(), in, ConvertOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, nodeShapes(g))
	assert.Len(t, g.Subjects(rdf.RDFType, rdf.SHPropertyShape), 2)
}

func TestConvertSchemaFromOntology(t *testing.T) {
	e := newEngine(t)
	owl := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <owl:Class rdf:about="http://example.org/onto/Person">
    <rdfs:label>Person</rdfs:label>
  </owl:Class>
  <owl:DatatypeProperty rdf:about="http://example.org/onto/name">
    <rdfs:domain rdf:resource="http://example.org/onto/Person"/>
    <rdfs:range rdf:resource="http://www.w3.org/2001/XMLSchema#string"/>
  </owl:DatatypeProperty>
</rdf:RDF>`
	in := decode(t, e, owl, format.XML)
	require.Equal(t, InputGraph, in.Kind)
	g, err := e.ConvertSchema(context.Background(), in, ConvertOptions{Namespace: "http://example.org/other"})
	require.NoError(t, err)
	assert.Equal(t, 1, nodeShapes(g))
	assert.True(t, g.Has(rdf.NewTriple(
		rdf.NewIRI("http://example.org/other/PersonShape"), rdf.SHTargetClass, rdf.NewIRI("http://example.org/onto/Person"))))
}

func TestConvertSchemaTurtle(t *testing.T) {
	e := newEngine(t)
	shapesDoc := `@prefix sh: <http://www.w3.org/ns/shacl#> .
<http://e/S> a sh:NodeShape ; sh:targetClass <http://e/C> .`
	in := decode(t, e, shapesDoc, format.Turtle)
	g, err := e.ConvertSchema(context.Background(), in, ConvertOptions{})
	require.NoError(t, err)
	assert.NotSame(t, in.Graph, g, "callers own the returned graph")
	assert.True(t, in.Graph.Equal(g), "shapes graphs pass through unchanged")
	g.Add(rdf.NewIRI("http://e/S"), rdf.SHName, rdf.NewString("changed"))
	assert.Equal(t, 2, in.Graph.Len())

	onto := decode(t, e, `@prefix owl: <http://www.w3.org/2002/07/owl#> .
<http://e/Thing> a owl:Class .`, format.Turtle)
	g, err = e.ConvertSchema(context.Background(), onto, ConvertOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, nodeShapes(g))
}

func TestConvertSchemaTextNeedsTransformer(t *testing.T) {
	e := newEngine(t)
	_, err := e.ConvertSchema(context.Background(), TextInput("a person has a name"), ConvertOptions{})
	assert.ErrorIs(t, err, ErrMissingRequiredInput)
	assert.Equal(t, ErrCodeMissingRequiredInput, Code(err))

	_, err = e.ConvertSchema(context.Background(), TextInput("x"), ConvertOptions{UseAI: true})
	assert.ErrorIs(t, err, ErrTransformerUnavailable)
}

func TestConvertSchemaWithTransformer(t *testing.T) {
	ft := &fakeTransformer{reply: `<http://e/S> a <http://www.w3.org/ns/shacl#NodeShape> .`}
	e := newEngine(t, WithTransformer(ft))
	g, err := e.ConvertSchema(context.Background(), TextInput("a person has a name"), ConvertOptions{UseAI: true})
	require.NoError(t, err)
	assert.Equal(t, 1, nodeShapes(g))
	require.Len(t, ft.got, 1)
	assert.Equal(t, TaskSchemaToSHACL, ft.got[0].Task)
	assert.Equal(t, "a person has a name", ft.got[0].Source)
	assert.Equal(t, "text", ft.got[0].SourceFormat)
	assert.Equal(t, base, ft.got[0].BaseNamespace)
}

func TestTransformerFailures(t *testing.T) {
	ft := &fakeTransformer{reply: "this is not turtle {"}
	e := newEngine(t, WithTransformer(ft))
	_, err := e.ConvertSchema(context.Background(), TextInput("x"), ConvertOptions{UseAI: true})
	assert.ErrorIs(t, err, ErrTransformerFailure)

	ft.err = errors.New("quota")
	_, err = e.ConvertSchema(context.Background(), TextInput("x"), ConvertOptions{UseAI: true})
	assert.ErrorIs(t, err, ErrTransformerFailure)
	assert.Equal(t, ErrCodeTransformerFailure, Code(err))
}

func TestCreateSchema(t *testing.T) {
	e := newEngine(t)
	in := decode(t, e, "name: Ada\nage: 36\n", format.YAML)
	baseShapes := rdf.NewGraph()
	baseShapes.Add(rdf.NewIRI("http://e/Extra"), rdf.RDFType, rdf.SHNodeShape)

	g, err := e.CreateSchema(context.Background(), in, baseShapes, false)
	require.NoError(t, err)
	assert.Equal(t, 2, nodeShapes(g))
	assert.Len(t, g.Subjects(rdf.RDFType, rdf.SHPropertyShape), 2)

	_, err = e.CreateSchema(context.Background(), TextInput("Ada, 36"), nil, false)
	assert.ErrorIs(t, err, ErrMissingRequiredInput)
}

func TestCreateSchemaWithTransformerSendsBase(t *testing.T) {
	ft := &fakeTransformer{reply: `<http://e/S> a <http://www.w3.org/ns/shacl#NodeShape> .`}
	e := newEngine(t, WithTransformer(ft))
	baseShapes := rdf.NewGraph()
	baseShapes.Add(rdf.NewIRI("http://e/Extra"), rdf.RDFType, rdf.SHNodeShape)
	_, err := e.CreateSchema(context.Background(), TextInput("Ada, 36"), baseShapes, true)
	require.NoError(t, err)
	require.Len(t, ft.got, 1)
	assert.Equal(t, TaskDataToSchema, ft.got[0].Task)
	assert.Contains(t, ft.got[0].BaseSchema, "http://e/Extra")
}

func TestApplySchema(t *testing.T) {
	e := newEngine(t)
	in := decode(t, e, `{"name": "Ada", "age": 36, "active": true}`, format.JSON)
	g, err := e.ApplySchema(context.Background(), in, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())
	for _, tr := range g.Triples() {
		assert.Equal(t, rdf.NewIRI(base+"root"), tr.S)
	}

	_, err = e.ApplySchema(context.Background(), TextInput("Ada"), nil, false)
	assert.ErrorIs(t, err, ErrMissingRequiredInput)

	_, err = e.ApplySchema(context.Background(), TreeInput(tree.Null{}), nil, false)
	assert.ErrorIs(t, err, tree.ErrUnsupportedValueKind)
	assert.Equal(t, ErrCodeUnsupportedValueKind, Code(err))
}

func TestApplySchemaWithTransformerNeedsTarget(t *testing.T) {
	e := newEngine(t, WithTransformer(&fakeTransformer{}))
	_, err := e.ApplySchema(context.Background(), TextInput("Ada"), nil, true)
	assert.ErrorIs(t, err, ErrMissingRequiredInput)
}

func TestValidateData(t *testing.T) {
	e := newEngine(t)
	shapesGraph := decode(t, e, `@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
<http://e/PersonShape> a sh:NodeShape ; sh:targetClass <http://e/Person> ;
    sh:property [ sh:path <http://e/name> ; sh:minCount 1 ; sh:datatype xsd:string ] .`, format.Turtle).Graph
	data := decode(t, e, `<http://e/ada> a <http://e/Person> ; <http://e/name> "Ada" .
<http://e/bob> a <http://e/Person> .`, format.Turtle).Graph

	r, err := e.ValidateData(context.Background(), data, shapesGraph, "")
	require.NoError(t, err)
	assert.False(t, r.Conforms)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "http://e/bob", r.Violations[0].FocusNode)
	assert.Equal(t, rdf.SHViolation.Value, r.Violations[0].Severity)
	assert.Equal(t, map[string]int{"Violation": 1}, r.Summary())

	_, err = e.ValidateData(context.Background(), nil, shapesGraph, "")
	assert.ErrorIs(t, err, ErrMissingRequiredInput)
}

func TestValidateDataWithoutValidator(t *testing.T) {
	e, err := New(Settings{Namespace: base}, nil)
	require.NoError(t, err)
	_, err = e.ValidateData(context.Background(), rdf.NewGraph(), rdf.NewGraph(), "")
	assert.Equal(t, ErrCodeValidatorFailure, Code(err))
}

func TestGenerateData(t *testing.T) {
	e := newEngine(t)
	_, err := e.GenerateData(context.Background(), rdf.NewGraph(), "people", 3)
	assert.ErrorIs(t, err, ErrTransformerUnavailable)

	ft := &fakeTransformer{reply: `<http://e/p1> a <http://e/Person> .`}
	e = newEngine(t, WithTransformer(ft))
	g, err := e.GenerateData(context.Background(), rdf.NewGraph(), "people", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, DefaultGenerateCount, ft.got[0].Count)
	assert.Equal(t, "people", ft.got[0].Prompt)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	in, err := e.Load(ctx, writeFile(t, "data.json", `{"a": 1}`), "")
	require.NoError(t, err)
	assert.Equal(t, InputTree, in.Kind)

	in, err = e.Load(ctx, writeFile(t, "data.yml", "a: 1\n"), "")
	require.NoError(t, err)
	assert.Equal(t, InputTree, in.Kind)

	in, err = e.Load(ctx, writeFile(t, "s.ttl", `<http://e/a> <http://e/p> "x" .`), "")
	require.NoError(t, err)
	assert.Equal(t, InputGraph, in.Kind)
	assert.Equal(t, 1, in.Graph.Len())

	in, err = e.Load(ctx, writeFile(t, "notes.md", "# Person"), "")
	require.NoError(t, err)
	assert.Equal(t, InputText, in.Kind)
	assert.Equal(t, "# Person", in.Text)

	in, err = e.Load(ctx, writeFile(t, "shapes.data", `<http://e/a> <http://e/p> "x" .`), "nt")
	require.NoError(t, err)
	assert.Equal(t, InputGraph, in.Kind)
}

func TestLoadErrors(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.Load(ctx, writeFile(t, "blob.bin", "x"), "")
	assert.Equal(t, ErrCodeUnsupportedFormat, Code(err))

	_, err = e.Load(ctx, writeFile(t, "scan.pdf", "%PDF"), "")
	assert.Equal(t, ErrCodeUnsupportedFormat, Code(err))

	_, err = e.Load(ctx, writeFile(t, "bad.json", `{"a": `), "")
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Equal(t, ErrCodeParseError, Code(err))

	_, err = e.Load(ctx, writeFile(t, "bad.ttl", `<http://e/a> <http://e/p> .`), "")
	assert.Equal(t, ErrCodeParseError, Code(err))

	small, err := New(Settings{Namespace: base, MaxInputBytes: 4}, nil)
	require.NoError(t, err)
	_, err = small.Load(ctx, writeFile(t, "big.json", `{"a": "long value"}`), "")
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.Equal(t, ErrCodeLimitExceeded, Code(err))
}

func TestSave(t *testing.T) {
	e := newEngine(t)
	g := rdf.NewGraph()
	g.Add(rdf.NewIRI("http://e/a"), rdf.NewIRI("http://e/p"), rdf.NewString("x"))

	out, err := e.SaveString(context.Background(), g, format.NTriples)
	require.NoError(t, err)
	assert.Equal(t, "<http://e/a> <http://e/p> \"x\" .\n", out)

	var b strings.Builder
	err = e.Save(context.Background(), &b, g, format.XML)
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)
	err = e.Save(context.Background(), &b, g, format.JSON)
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	e := newEngine(t, WithMetrics(m))

	in := decode(t, e, `{"name": "Ada"}`, format.JSON)
	_, err = e.ApplySchema(context.Background(), in, nil, false)
	require.NoError(t, err)
	_, err = e.ApplySchema(context.Background(), TextInput("x"), nil, false)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("apply", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("apply", string(ErrCodeMissingRequiredInput))))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "duplicate registration")
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{nil, ""},
		{fmt.Errorf("x: %w", format.ErrUnsupportedFormat), ErrCodeUnsupportedFormat},
		{fmt.Errorf("x: %w", tree.ErrUnsupportedValueKind), ErrCodeUnsupportedValueKind},
		{fmt.Errorf("%w: boom", report.ErrValidatorFailure), ErrCodeValidatorFailure},
		{context.Canceled, ErrCodeContextCanceled},
		{tree.ErrDepthExceeded, ErrCodeDepthExceeded},
		{rdf.ErrTripleLimitExceeded, ErrCodeLimitExceeded},
		{&rdf.ParseError{Format: "turtle", Err: errors.New("bad")}, ErrCodeParseError},
		{errors.New("other"), ErrCodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err), "%v", tt.err)
	}
}
