// Package shacl validates RDF data graphs against SHACL shapes graphs.
//
// It covers the SHACL Core constraint components except
// sh:qualifiedValueShape, with predicate and inverse paths. SPARQL-based
// constraints and SHACL rules are not evaluated.
package shacl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/report"
)

// Validator is a report.Validator over the SHACL Core.
type Validator struct {
	logger *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

var _ report.Validator = (*Validator)(nil)

// Validate checks data against shapes after applying mode to a copy of data.
// Neither input graph is modified.
//
// conforms is false when at least one result has severity sh:Violation;
// warnings and infos are reported without breaking conformance.
func (val *Validator) Validate(ctx context.Context, data, shapes *rdf.Graph, mode report.InferenceMode) (bool, *rdf.Graph, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if data == nil || shapes == nil {
		return false, nil, "", fmt.Errorf("shacl: data and shapes graphs are required")
	}
	inferred, err := Infer(ctx, data, mode)
	if err != nil {
		return false, nil, "", err
	}
	v := &validation{
		ctx:        ctx,
		data:       inferred,
		compiler:   newCompiler(shapes),
		inProgress: make(map[visit]bool),
		supers:     make(map[rdf.Term]map[rdf.Term]bool),
	}
	results, err := v.run(shapes)
	if err != nil {
		return false, nil, "", err
	}
	conforms := true
	for _, r := range results {
		if r.severity != rdf.SHWarning && r.severity != rdf.SHInfo {
			conforms = false
			break
		}
	}
	val.logger.Debug("shacl validation finished",
		slog.String("inference", string(mode)),
		slog.Int("data_triples", data.Len()),
		slog.Int("inferred_triples", inferred.Len()-data.Len()),
		slog.Int("results", len(results)),
		slog.Bool("conforms", conforms))

	g := resultGraph(conforms, results, shapes)
	return conforms, g, resultText(conforms, results, g.Prefixes()), nil
}

type result struct {
	focus     rdf.Term
	path      *path
	pathIRI   rdf.IRI
	value     rdf.Term
	message   string
	severity  rdf.IRI
	source    rdf.Term
	component rdf.IRI
}

type visit struct {
	shape rdf.Term
	node  rdf.Term
}

type validation struct {
	ctx        context.Context
	data       *rdf.Graph
	compiler   *compiler
	inProgress map[visit]bool
	supers     map[rdf.Term]map[rdf.Term]bool
}

func (v *validation) run(shapes *rdf.Graph) ([]result, error) {
	var results []result
	for _, id := range shapeNodes(shapes) {
		if err := v.ctx.Err(); err != nil {
			return nil, err
		}
		focus := v.targets(shapes, id)
		if len(focus) == 0 {
			continue
		}
		s, err := v.compiler.compile(id)
		if err != nil {
			return nil, err
		}
		for _, f := range focus {
			if err := v.validateShape(s, f, &results); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// shapeNodes lists the shapes that may carry targets, in graph order.
func shapeNodes(g *rdf.Graph) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	add := func(t rdf.Term) {
		if !seen[t] && t.Kind() != rdf.TermLiteral {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range g.Triples() {
		switch {
		case t.P == rdf.RDFType && (t.O == rdf.SHNodeShape || t.O == rdf.SHPropertyShape):
			add(t.S)
		case t.P == rdf.SHTargetClass, t.P == rdf.SHTargetNode,
			t.P == rdf.SHTargetSubjectsOf, t.P == rdf.SHTargetObjectsOf:
			add(t.S)
		}
	}
	return out
}

// targets returns the focus nodes of shape id, without duplicates.
func (v *validation) targets(shapes *rdf.Graph, id rdf.Term) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	add := func(t rdf.Term) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	classes := shapes.Objects(id, rdf.SHTargetClass)
	if shapes.Has(rdf.NewTriple(id, rdf.RDFType, rdf.RDFSClass)) || shapes.Has(rdf.NewTriple(id, rdf.RDFType, rdf.OWLClass)) {
		classes = append(classes, id)
	}
	for _, class := range classes {
		for _, t := range v.data.Find(nil, rdf.RDFType, nil) {
			if v.isSubclass(t.O, class) {
				add(t.S)
			}
		}
	}
	for _, node := range shapes.Objects(id, rdf.SHTargetNode) {
		add(node)
	}
	for _, p := range shapes.Objects(id, rdf.SHTargetSubjectsOf) {
		if iri, ok := p.(rdf.IRI); ok {
			for _, t := range v.data.Find(nil, iri, nil) {
				add(t.S)
			}
		}
	}
	for _, p := range shapes.Objects(id, rdf.SHTargetObjectsOf) {
		if iri, ok := p.(rdf.IRI); ok {
			for _, t := range v.data.Find(nil, iri, nil) {
				add(t.O)
			}
		}
	}
	return out
}

// isSubclass reports whether class is super or reaches it through
// rdfs:subClassOf in the data graph.
func (v *validation) isSubclass(class, super rdf.Term) bool {
	if class == super {
		return true
	}
	closure, ok := v.supers[class]
	if !ok {
		closure = make(map[rdf.Term]bool)
		queue := []rdf.Term{class}
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			for _, s := range v.data.Objects(c, rdf.RDFSSubClassOf) {
				if !closure[s] {
					closure[s] = true
					queue = append(queue, s)
				}
			}
		}
		v.supers[class] = closure
	}
	return closure[super]
}

func (v *validation) isInstance(node, class rdf.Term) bool {
	for _, t := range v.data.Objects(node, rdf.RDFType) {
		if v.isSubclass(t, class) {
			return true
		}
	}
	return false
}

// conforms validates node against the shape ref without recording results.
// A shape already being checked for the same node counts as conforming,
// which ends recursion through cyclic sh:node references.
func (v *validation) conforms(ref, node rdf.Term) (bool, error) {
	key := visit{shape: ref, node: node}
	if v.inProgress[key] {
		return true, nil
	}
	v.inProgress[key] = true
	defer delete(v.inProgress, key)
	s, err := v.compiler.compile(ref)
	if err != nil {
		return false, err
	}
	var scratch []result
	if err := v.validateShape(s, node, &scratch); err != nil {
		return false, err
	}
	return len(scratch) == 0, nil
}

func (v *validation) validateShape(s *shape, focus rdf.Term, out *[]result) error {
	if s.deactivated {
		return nil
	}
	values := []rdf.Term{focus}
	if s.isProperty() {
		values = s.path.values(v.data, focus)
	}
	for _, c := range s.constraints {
		failures, err := c.check(v, focus, values)
		if err != nil {
			return err
		}
		for _, f := range failures {
			msg := f.message
			if s.message != "" {
				msg = s.message
			}
			*out = append(*out, result{
				focus:     focus,
				path:      s.path,
				pathIRI:   f.path,
				value:     f.value,
				message:   msg,
				severity:  s.severity,
				source:    s.id,
				component: c.component,
			})
		}
	}
	for _, ref := range s.properties {
		ps, err := v.compiler.compile(ref)
		if err != nil {
			return err
		}
		for _, value := range values {
			if err := v.validateShape(ps, value, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// resultGraph builds the sh:ValidationReport graph.
func resultGraph(conforms bool, results []result, shapes *rdf.Graph) *rdf.Graph {
	g := rdf.NewGraph()
	g.BindDefaults()
	for prefix, ns := range shapes.Prefixes() {
		g.Bind(prefix, ns)
	}
	rep := rdf.NewBlankNode()
	g.Add(rep, rdf.RDFType, rdf.SHValidationReport)
	g.Add(rep, rdf.SHConforms, rdf.NewBoolean(conforms))
	for _, r := range results {
		node := rdf.NewBlankNode()
		g.Add(rep, rdf.SHResult, node)
		g.Add(node, rdf.RDFType, rdf.SHValidationResult)
		g.Add(node, rdf.SHFocusNode, r.focus)
		switch {
		case !r.pathIRI.IsZero():
			g.Add(node, rdf.SHResultPath, r.pathIRI)
		case r.path != nil:
			g.Add(node, rdf.SHResultPath, r.path.term(g))
		}
		if r.value != nil {
			g.Add(node, rdf.SHValue, r.value)
		}
		g.Add(node, rdf.SHResultMessage, rdf.NewString(r.message))
		g.Add(node, rdf.SHResultSeverity, r.severity)
		g.Add(node, rdf.SHSourceShape, r.source)
		g.Add(node, rdf.SHSourceConstraintComponent, r.component)
	}
	return g
}
