// Package report turns a SHACL validator's result graph into flat violation
// records and renders them for people and programs.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/geoknoesis/shacl-go/rdf"
)

// DefaultSeverity is used when a result carries no sh:resultSeverity.
const DefaultSeverity = "Violation"

// ErrValidatorFailure wraps any error raised by a Validator.
var ErrValidatorFailure = errors.New("external validator failure")

// InferenceMode selects the entailment applied to the data graph before
// validation.
type InferenceMode string

const (
	InferenceNone  InferenceMode = "none"
	InferenceRDFS  InferenceMode = "rdfs"
	InferenceOWLRL InferenceMode = "owlrl"
)

// ParseInferenceMode accepts none, rdfs and owlrl, case-insensitively. The
// empty string means rdfs.
func ParseInferenceMode(s string) (InferenceMode, error) {
	switch m := InferenceMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return InferenceRDFS, nil
	case InferenceNone, InferenceRDFS, InferenceOWLRL:
		return m, nil
	}
	return "", fmt.Errorf("unknown inference mode %q", s)
}

// Validator checks a data graph against a shapes graph.
type Validator interface {
	Validate(ctx context.Context, data, shapes *rdf.Graph, mode InferenceMode) (conforms bool, results *rdf.Graph, text string, err error)
}

// Violation is one sh:ValidationResult flattened to strings.
type Violation struct {
	FocusNode string `json:"focusNode"`
	Path      string `json:"path"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Value     string `json:"value"`
}

// Report is the outcome of one validation call.
type Report struct {
	Conforms   bool
	Violations []Violation
	// Graph is the validator's raw result graph.
	Graph *rdf.Graph
	// Text is the validator's raw textual report.
	Text string
}

// Validate runs v and normalizes its result graph. Validator errors are
// wrapped in ErrValidatorFailure and never retried.
func Validate(ctx context.Context, v Validator, data, shapes *rdf.Graph, mode InferenceMode) (*Report, error) {
	conforms, results, text, err := v.Validate(ctx, data, shapes, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidatorFailure, err)
	}
	return &Report{
		Conforms:   conforms,
		Violations: Normalize(results),
		Graph:      results,
		Text:       text,
	}, nil
}

// Normalize returns one Violation per sh:ValidationResult node in g, in
// graph order. Missing fields are empty, except Severity which defaults to
// "Violation".
func Normalize(g *rdf.Graph) []Violation {
	if g == nil {
		return nil
	}
	results := g.Subjects(rdf.RDFType, rdf.SHValidationResult)
	out := make([]Violation, 0, len(results))
	rn := &renderer{g: g, labels: make(map[rdf.BlankNode]string)}
	for _, r := range results {
		v := Violation{
			FocusNode: rn.value(r, rdf.SHFocusNode),
			Path:      rn.path(r),
			Message:   rn.value(r, rdf.SHResultMessage),
			Severity:  rn.value(r, rdf.SHResultSeverity),
			Value:     rn.value(r, rdf.SHValue),
		}
		if v.Severity == "" {
			v.Severity = DefaultSeverity
		}
		out = append(out, v)
	}
	return out
}

// renderer renders terms of one result graph. Blank nodes without a label
// are numbered b0, b1, ... in first-seen order.
type renderer struct {
	g      *rdf.Graph
	labels map[rdf.BlankNode]string
}

func (rn *renderer) value(s rdf.Term, p rdf.IRI) string {
	v, ok := rn.g.Value(s, p)
	if !ok {
		return ""
	}
	return rn.term(v)
}

// term renders IRIs and literals by value and blank nodes by label.
func (rn *renderer) term(v rdf.Term) string {
	switch t := v.(type) {
	case rdf.IRI:
		return t.Value
	case rdf.Literal:
		return t.Lexical
	case rdf.BlankNode:
		if t.Label() != "" {
			return t.String()
		}
		label, ok := rn.labels[t]
		if !ok {
			label = "_:b" + strconv.Itoa(len(rn.labels))
			rn.labels[t] = label
		}
		return label
	}
	return ""
}

// path renders sh:resultPath. Predicate paths are the bare IRI; inverse
// and sequence paths use SPARQL property path syntax.
func (rn *renderer) path(r rdf.Term) string {
	p, ok := rn.g.Value(r, rdf.SHResultPath)
	if !ok {
		return ""
	}
	if iri, ok := p.(rdf.IRI); ok {
		return iri.Value
	}
	return rn.pathExpr(p)
}

func (rn *renderer) pathExpr(p rdf.Term) string {
	switch t := p.(type) {
	case rdf.IRI:
		return "<" + t.Value + ">"
	case rdf.BlankNode:
		if inv, ok := rn.g.Value(t, rdf.SHInversePath); ok {
			return "^" + rn.pathExpr(inv)
		}
		if _, ok := rn.g.Value(t, rdf.RDFFirst); ok {
			if items, err := rn.g.List(t); err == nil && len(items) > 0 {
				parts := make([]string, len(items))
				for i, item := range items {
					parts[i] = rn.pathExpr(item)
				}
				return strings.Join(parts, "/")
			}
		}
	}
	return rn.term(p)
}

// Summary counts violations by severity local name (Violation, Warning,
// Info, ...).
func (r Report) Summary() map[string]int {
	out := make(map[string]int)
	for _, v := range r.Violations {
		sev := v.Severity
		if i := strings.LastIndexAny(sev, "#/"); i >= 0 {
			sev = sev[i+1:]
		}
		out[sev]++
	}
	return out
}

// FormatMarkdown renders r as a human-readable report.
func FormatMarkdown(r Report) string {
	var b strings.Builder
	b.WriteString("# SHACL Validation Report\n")
	b.WriteString("**Conforms:** " + capitalBool(r.Conforms) + "\n")
	b.WriteString("**Total Violations:** " + strconv.Itoa(len(r.Violations)) + "\n")
	if len(r.Violations) == 0 {
		return b.String()
	}
	b.WriteString("\n## Violations\n")
	for i, v := range r.Violations {
		fmt.Fprintf(&b, "### Violation %d\n", i+1)
		b.WriteString("- **Focus Node:** " + v.FocusNode + "\n")
		b.WriteString("- **Property:** " + v.Path + "\n")
		b.WriteString("- **Message:** " + v.Message + "\n")
		b.WriteString("- **Severity:** " + v.Severity + "\n")
		b.WriteString("\n")
	}
	return b.String()
}

func capitalBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

type reportJSON struct {
	Conforms   bool           `json:"conforms"`
	Total      int            `json:"total"`
	Summary    map[string]int `json:"summary"`
	Violations []Violation    `json:"violations"`
	Text       string         `json:"text,omitempty"`
}

// MarshalJSON renders the report without the raw result graph.
func (r Report) MarshalJSON() ([]byte, error) {
	violations := r.Violations
	if violations == nil {
		violations = []Violation{}
	}
	return json.Marshal(reportJSON{
		Conforms:   r.Conforms,
		Total:      len(r.Violations),
		Summary:    r.Summary(),
		Violations: violations,
		Text:       r.Text,
	})
}
