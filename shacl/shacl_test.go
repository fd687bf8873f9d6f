package shacl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/report"
)

const prefixes = `
@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix ex: <http://example.org/> .
`

func parse(t *testing.T, doc string) *rdf.Graph {
	t.Helper()
	g, err := rdf.ParseString(context.Background(), prefixes+doc, rdf.FormatTurtle)
	require.NoError(t, err)
	return g
}

func validate(t *testing.T, data, shapes string, mode report.InferenceMode) (bool, []report.Violation, string) {
	t.Helper()
	conforms, results, text, err := New().Validate(context.Background(), parse(t, data), parse(t, shapes), mode)
	require.NoError(t, err)
	return conforms, report.Normalize(results), text
}

const personShapes = `
ex:PersonShape a sh:NodeShape ;
    sh:targetClass ex:Person ;
    sh:property [
        sh:path ex:name ;
        sh:datatype xsd:string ;
        sh:minCount 1 ;
        sh:maxCount 1 ;
    ] ;
    sh:property [
        sh:path ex:age ;
        sh:datatype xsd:integer ;
        sh:minInclusive 0 ;
        sh:maxExclusive 150 ;
    ] .
`

func TestValidateConforming(t *testing.T) {
	conforms, violations, text := validate(t, `ex:alice a ex:Person ; ex:name "Alice" ; ex:age 30 .`, personShapes, report.InferenceNone)
	assert.True(t, conforms)
	assert.Empty(t, violations)
	assert.Equal(t, "Validation Report\nConforms: True\n", text)
}

func TestValidateViolations(t *testing.T) {
	data := `
ex:bob a ex:Person ; ex:age -1 .
ex:carol a ex:Person ; ex:name "C1", "C2" ; ex:age 200 .
`
	conforms, violations, text := validate(t, data, personShapes, report.InferenceNone)
	assert.False(t, conforms)

	byFocus := map[string][]string{}
	for _, v := range violations {
		assert.Equal(t, rdf.SHViolation.Value, v.Severity)
		byFocus[v.FocusNode] = append(byFocus[v.FocusNode], v.Path)
	}
	assert.ElementsMatch(t, []string{"http://example.org/name", "http://example.org/age"}, byFocus["http://example.org/bob"])
	assert.ElementsMatch(t, []string{"http://example.org/name", "http://example.org/age"}, byFocus["http://example.org/carol"])
	assert.Contains(t, text, "Constraint Violation in MinCountConstraintComponent")
	assert.Contains(t, text, "Focus Node: ex:bob")
	assert.Contains(t, text, "Less than 1 values on <http://example.org/bob>-><http://example.org/name>")
}

func TestInferenceAffectsTargets(t *testing.T) {
	data := `
ex:Student rdfs:subClassOf ex:Person .
ex:dave a ex:Student .
`
	conforms, violations, _ := validate(t, data, personShapes, report.InferenceNone)
	assert.False(t, conforms, "subclass instances are targets even without inference")
	assert.Len(t, violations, 1)

	data = `
ex:enrolled rdfs:domain ex:Person .
ex:erin ex:enrolled ex:course1 .
`
	conforms, _, _ = validate(t, data, personShapes, report.InferenceNone)
	assert.True(t, conforms)
	conforms, _, _ = validate(t, data, personShapes, report.InferenceRDFS)
	assert.False(t, conforms)
}

func TestInferDoesNotMutateInput(t *testing.T) {
	g := parse(t, `ex:p rdfs:domain ex:C . ex:x ex:p ex:y .`)
	before := g.Len()
	out, err := Infer(context.Background(), g, report.InferenceRDFS)
	require.NoError(t, err)
	assert.Equal(t, before, g.Len())
	assert.True(t, out.Has(rdf.NewTriple(rdf.NewIRI("http://example.org/x"), rdf.RDFType, rdf.NewIRI("http://example.org/C"))))
}

func TestInferOWLRL(t *testing.T) {
	g := parse(t, `
ex:parentOf owl:inverseOf ex:childOf .
ex:knows a owl:SymmetricProperty .
ex:ancestorOf a owl:TransitiveProperty .
ex:a ex:parentOf ex:b ; ex:knows ex:c ; ex:ancestorOf ex:b .
ex:b ex:ancestorOf ex:d .
`)
	out, err := Infer(context.Background(), g, report.InferenceOWLRL)
	require.NoError(t, err)
	ex := func(s string) rdf.IRI { return rdf.NewIRI("http://example.org/" + s) }
	assert.True(t, out.Has(rdf.NewTriple(ex("b"), ex("childOf"), ex("a"))))
	assert.True(t, out.Has(rdf.NewTriple(ex("c"), ex("knows"), ex("a"))))
	assert.True(t, out.Has(rdf.NewTriple(ex("a"), ex("ancestorOf"), ex("d"))))

	rdfsOnly, err := Infer(context.Background(), g, report.InferenceRDFS)
	require.NoError(t, err)
	assert.False(t, rdfsOnly.Has(rdf.NewTriple(ex("c"), ex("knows"), ex("a"))))

	_, err = Infer(context.Background(), g, "bogus")
	assert.Error(t, err)
}

func TestSeverityAndMessage(t *testing.T) {
	shapes := `
ex:S a sh:NodeShape ;
    sh:targetNode ex:n ;
    sh:property [ sh:path ex:p ; sh:minCount 1 ; sh:severity sh:Warning ; sh:message "need p" ] .
`
	conforms, violations, text := validate(t, `ex:n ex:q 1 .`, shapes, report.InferenceNone)
	assert.True(t, conforms, "warnings do not break conformance")
	require.Len(t, violations, 1)
	assert.Equal(t, "need p", violations[0].Message)
	assert.Equal(t, rdf.SHWarning.Value, violations[0].Severity)
	assert.Contains(t, text, "Constraint Warning in MinCountConstraintComponent")
}

func TestCoreComponents(t *testing.T) {
	tests := []struct {
		name   string
		shape  string
		data   string
		failed bool
	}{
		{"class ok", `sh:path ex:p ; sh:class ex:C`, `ex:n ex:p ex:v . ex:v a ex:C .`, false},
		{"class bad", `sh:path ex:p ; sh:class ex:C`, `ex:n ex:p ex:v .`, true},
		{"nodeKind iri", `sh:path ex:p ; sh:nodeKind sh:IRI`, `ex:n ex:p "lit" .`, true},
		{"nodeKind literal", `sh:path ex:p ; sh:nodeKind sh:Literal`, `ex:n ex:p "lit" .`, false},
		{"datatype ill-typed", `sh:path ex:p ; sh:datatype xsd:integer`, `ex:n ex:p "1.5"^^xsd:integer .`, true},
		{"datatype langString", `sh:path ex:p ; sh:datatype xsd:string`, `ex:n ex:p "hi"@en .`, true},
		{"pattern ok", `sh:path ex:p ; sh:pattern "^ab" ; sh:flags "i"`, `ex:n ex:p "ABC" .`, false},
		{"pattern bad", `sh:path ex:p ; sh:pattern "^ab"`, `ex:n ex:p "xab" .`, true},
		{"minLength", `sh:path ex:p ; sh:minLength 3`, `ex:n ex:p "ab" .`, true},
		{"maxLength", `sh:path ex:p ; sh:maxLength 3`, `ex:n ex:p "abc" .`, false},
		{"in ok", `sh:path ex:p ; sh:in ( ex:a ex:b )`, `ex:n ex:p ex:b .`, false},
		{"in bad", `sh:path ex:p ; sh:in ( ex:a ex:b )`, `ex:n ex:p ex:c .`, true},
		{"hasValue", `sh:path ex:p ; sh:hasValue 5`, `ex:n ex:p 4 .`, true},
		{"maxInclusive decimal", `sh:path ex:p ; sh:maxInclusive 2.5`, `ex:n ex:p 2 .`, false},
		{"minExclusive", `sh:path ex:p ; sh:minExclusive 2`, `ex:n ex:p 2 .`, true},
		{"range incomparable", `sh:path ex:p ; sh:minInclusive 2`, `ex:n ex:p "x" .`, true},
		{"inverse path", `sh:path [ sh:inversePath ex:p ] ; sh:minCount 1`, `ex:m ex:p ex:n .`, false},
		{"inverse path missing", `sh:path [ sh:inversePath ex:p ] ; sh:minCount 1`, `ex:n ex:p ex:m .`, true},
		{"equals", `sh:path ex:p ; sh:equals ex:q`, `ex:n ex:p 1 ; ex:q 1 .`, false},
		{"disjoint", `sh:path ex:p ; sh:disjoint ex:q`, `ex:n ex:p 1 ; ex:q 1 .`, true},
		{"lessThan", `sh:path ex:p ; sh:lessThan ex:q`, `ex:n ex:p 1 ; ex:q 2 .`, false},
		{"lessThanOrEquals", `sh:path ex:p ; sh:lessThanOrEquals ex:q`, `ex:n ex:p 3 ; ex:q 2 .`, true},
		{"languageIn", `sh:path ex:p ; sh:languageIn ( "en" )`, `ex:n ex:p "hi"@en-GB .`, false},
		{"uniqueLang", `sh:path ex:p ; sh:uniqueLang true`, `ex:n ex:p "a"@en, "b"@en .`, true},
		{"node", `sh:path ex:p ; sh:node ex:Inner`, `ex:n ex:p ex:v .`, true},
		{"not", `sh:path ex:p ; sh:not ex:Inner`, `ex:n ex:p ex:v .`, false},
		{"or", `sh:path ex:p ; sh:or ( [ sh:datatype xsd:integer ] [ sh:datatype xsd:string ] )`, `ex:n ex:p "s" .`, false},
		{"xone", `sh:path ex:p ; sh:xone ( [ sh:nodeKind sh:Literal ] [ sh:datatype xsd:string ] )`, `ex:n ex:p "s" .`, true},
		{"and", `sh:path ex:p ; sh:and ( [ sh:nodeKind sh:Literal ] [ sh:datatype xsd:string ] )`, `ex:n ex:p "s" .`, false},
		{"deactivated", `sh:path ex:p ; sh:minCount 5 ; sh:deactivated true`, `ex:n ex:p 1 .`, false},
	}
	inner := `ex:Inner a sh:NodeShape ; sh:property [ sh:path ex:r ; sh:minCount 1 ] .`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shapes := "ex:S a sh:NodeShape ; sh:targetNode ex:n ; sh:property [ " + tt.shape + " ] .\n" + inner
			conforms, _, _ := validate(t, tt.data, shapes, report.InferenceNone)
			assert.Equal(t, tt.failed, !conforms)
		})
	}
}

func TestClosedShape(t *testing.T) {
	shapes := `
ex:S a sh:NodeShape ; sh:targetNode ex:n ; sh:closed true ;
    sh:ignoredProperties ( ex:ignored ) ;
    sh:property [ sh:path ex:p ] .
`
	conforms, violations, _ := validate(t, `ex:n ex:p 1 ; ex:ignored 2 ; ex:extra 3 .`, shapes, report.InferenceNone)
	assert.False(t, conforms)
	require.Len(t, violations, 1)
	assert.Equal(t, "http://example.org/extra", violations[0].Path)
	assert.Equal(t, "3", violations[0].Value)
}

func TestRecursiveShapesTerminate(t *testing.T) {
	shapes := `
ex:S a sh:NodeShape ; sh:targetNode ex:a ;
    sh:property [ sh:path ex:next ; sh:node ex:S ] .
`
	conforms, _, _ := validate(t, `ex:a ex:next ex:b . ex:b ex:next ex:a .`, shapes, report.InferenceNone)
	assert.True(t, conforms)
}

func TestUnsupportedFeatures(t *testing.T) {
	v := New()
	for _, shape := range []string{
		`ex:S sh:targetNode ex:n ; sh:property [ sh:path ( ex:a ex:b ) ; sh:minCount 1 ] .`,
		`ex:S sh:targetNode ex:n ; sh:property [ sh:path [ sh:zeroOrMorePath ex:a ] ] .`,
		`ex:S sh:targetNode ex:n ; sh:qualifiedValueShape [ sh:class ex:C ] .`,
		`ex:S sh:targetNode ex:n ; sh:pattern "a" ; sh:flags "z" .`,
	} {
		_, _, _, err := v.Validate(context.Background(), parse(t, `ex:n ex:a 1 .`), parse(t, shape), report.InferenceNone)
		assert.Error(t, err, shape)
	}
	_, _, _, err := v.Validate(context.Background(), parse(t, `ex:n ex:a 1 .`), parse(t, `ex:S sh:targetNode ex:n ; sh:property [ sh:path ( ex:a ) ] .`), report.InferenceNone)
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestResultGraphShape(t *testing.T) {
	_, results, _, err := New().Validate(context.Background(),
		parse(t, `ex:bob a ex:Person .`), parse(t, personShapes), report.InferenceNone)
	require.NoError(t, err)

	reports := results.InstancesOf(rdf.SHValidationReport, false)
	require.Len(t, reports, 1)
	assert.Equal(t, []rdf.Term{rdf.NewBoolean(false)}, results.Objects(reports[0], rdf.SHConforms))
	assert.Len(t, results.Objects(reports[0], rdf.SHResult), 1)

	out, err := rdf.SerializeString(context.Background(), results, rdf.FormatTurtle)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "sh:ValidationResult"))
}

func TestValidateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := New().Validate(ctx, parse(t, `ex:a ex:b ex:c .`), parse(t, personShapes), report.InferenceRDFS)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportIntegration(t *testing.T) {
	r, err := report.Validate(context.Background(), New(), parse(t, `ex:bob a ex:Person .`), parse(t, personShapes), report.InferenceRDFS)
	require.NoError(t, err)
	assert.False(t, r.Conforms)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "http://example.org/bob", r.Violations[0].FocusNode)
	assert.Contains(t, report.FormatMarkdown(*r), "### Violation 1")
}

func TestInversePathResultRendering(t *testing.T) {
	shapes := `
ex:ChildShape a sh:NodeShape ;
    sh:targetClass ex:Person ;
    sh:property [ sh:path [ sh:inversePath ex:parent ] ; sh:minCount 1 ] .
`
	conforms, violations, text := validate(t, `ex:bob a ex:Person .`, shapes, report.InferenceNone)
	assert.False(t, conforms)
	require.Len(t, violations, 1)
	assert.Equal(t, "^<http://example.org/parent>", violations[0].Path)
	assert.Contains(t, text, "Source Shape: _:b0\n")
	assert.Contains(t, text, "Result Path: [ sh:inversePath ex:parent ]")
	assert.NotContains(t, text, "_: ")
}
