package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoknoesis/shacl-go/rdf"
)

func result(g *rdf.Graph, fields map[rdf.IRI]rdf.Term) rdf.BlankNode {
	r := rdf.NewBlankNode()
	g.Add(r, rdf.RDFType, rdf.SHValidationResult)
	for p, o := range fields {
		g.Add(r, p, o)
	}
	return r
}

func TestNormalizeDefaults(t *testing.T) {
	g := rdf.NewGraph()
	result(g, nil)
	result(g, map[rdf.IRI]rdf.Term{
		rdf.SHFocusNode:      rdf.NewIRI("http://e/alice"),
		rdf.SHResultPath:     rdf.NewIRI("http://e/age"),
		rdf.SHResultMessage:  rdf.NewString("Less than 1 values"),
		rdf.SHResultSeverity: rdf.SHWarning,
		rdf.SHValue:          rdf.NewInteger(-3),
	})

	got := Normalize(g)
	require.Len(t, got, 2)
	assert.Equal(t, Violation{Severity: "Violation"}, got[0])
	assert.Equal(t, Violation{
		FocusNode: "http://e/alice",
		Path:      "http://e/age",
		Message:   "Less than 1 values",
		Severity:  rdf.SHNS + "Warning",
		Value:     "-3",
	}, got[1])
}

func TestNormalizeBlankNodes(t *testing.T) {
	g := rdf.NewGraph()
	inverse := rdf.NewBlankNode()
	g.Add(inverse, rdf.SHInversePath, rdf.NewIRI("http://e/knows"))
	seq := g.AddList([]rdf.Term{rdf.NewIRI("http://e/address"), inverse})
	focus := rdf.NewBlankNode()

	result(g, map[rdf.IRI]rdf.Term{rdf.SHResultPath: inverse, rdf.SHFocusNode: focus})
	result(g, map[rdf.IRI]rdf.Term{rdf.SHResultPath: seq, rdf.SHFocusNode: focus, rdf.SHValue: rdf.NewBlankNode()})

	got := Normalize(g)
	require.Len(t, got, 2)
	assert.Equal(t, "^<http://e/knows>", got[0].Path)
	assert.Equal(t, "<http://e/address>/^<http://e/knows>", got[1].Path)
	assert.Equal(t, "_:b0", got[0].FocusNode)
	assert.Equal(t, "_:b0", got[1].FocusNode, "labels are stable within one graph")
	assert.Equal(t, "_:b1", got[1].Value)
}

func TestNormalizeNilAndEmpty(t *testing.T) {
	assert.Nil(t, Normalize(nil))
	assert.Empty(t, Normalize(rdf.NewGraph()))
}

func TestFormatMarkdown(t *testing.T) {
	r := Report{
		Conforms: false,
		Violations: []Violation{{
			FocusNode: "http://e/a",
			Path:      "http://e/p",
			Message:   "m",
			Severity:  "Violation",
		}},
	}
	want := "# SHACL Validation Report\n" +
		"**Conforms:** False\n" +
		"**Total Violations:** 1\n" +
		"\n## Violations\n" +
		"### Violation 1\n" +
		"- **Focus Node:** http://e/a\n" +
		"- **Property:** http://e/p\n" +
		"- **Message:** m\n" +
		"- **Severity:** Violation\n" +
		"\n"
	assert.Equal(t, want, FormatMarkdown(r))

	assert.Equal(t,
		"# SHACL Validation Report\n**Conforms:** True\n**Total Violations:** 0\n",
		FormatMarkdown(Report{Conforms: true}))
}

type stubValidator struct {
	conforms bool
	results  *rdf.Graph
	err      error
	calls    int
}

func (s *stubValidator) Validate(context.Context, *rdf.Graph, *rdf.Graph, InferenceMode) (bool, *rdf.Graph, string, error) {
	s.calls++
	return s.conforms, s.results, "raw", s.err
}

func TestValidate(t *testing.T) {
	g := rdf.NewGraph()
	result(g, map[rdf.IRI]rdf.Term{rdf.SHResultSeverity: rdf.SHViolation})
	v := &stubValidator{results: g}

	r, err := Validate(context.Background(), v, rdf.NewGraph(), rdf.NewGraph(), InferenceRDFS)
	require.NoError(t, err)
	assert.False(t, r.Conforms)
	assert.Len(t, r.Violations, 1)
	assert.Equal(t, "raw", r.Text)
	assert.Same(t, g, r.Graph)
	assert.Equal(t, map[string]int{"Violation": 1}, r.Summary())
}

func TestValidateWrapsFailure(t *testing.T) {
	boom := errors.New("boom")
	v := &stubValidator{err: boom}

	r, err := Validate(context.Background(), v, rdf.NewGraph(), rdf.NewGraph(), InferenceNone)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrValidatorFailure)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, v.calls)
}

func TestMarshalJSON(t *testing.T) {
	r := Report{Conforms: true, Graph: rdf.NewGraph()}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"conforms":true,"total":0,"summary":{},"violations":[]}`, string(data))
}

func TestParseInferenceMode(t *testing.T) {
	for in, want := range map[string]InferenceMode{"": InferenceRDFS, "NONE": InferenceNone, "owlrl": InferenceOWLRL} {
		got, err := ParseInferenceMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseInferenceMode("owl2")
	assert.Error(t, err)
}
