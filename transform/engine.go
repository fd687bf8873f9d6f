// Package transform wires the converters, the structural mapper, the
// validator and an optional intelligent transformer into the operations
// exposed by the CLI and the HTTP service.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geoknoesis/shacl-go/extract"
	"github.com/geoknoesis/shacl-go/format"
	"github.com/geoknoesis/shacl-go/namespace"
	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/report"
	"github.com/geoknoesis/shacl-go/shapes"
	"github.com/geoknoesis/shacl-go/tree"
)

// DefaultGenerateCount is used when GenerateData is asked for no instances.
const DefaultGenerateCount = 10

// Settings are the engine's knobs, normally filled from config.
type Settings struct {
	Namespace     namespace.Namespace
	Disambiguate  bool
	Inference     report.InferenceMode
	MaxDepth      int
	MaxTriples    int
	MaxInputBytes int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. A nil logger uses slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTransformer enables the intelligent paths.
func WithTransformer(t Transformer) Option {
	return func(e *Engine) { e.transformer = t }
}

// WithMetrics records operations into m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithExtractors replaces the default extractor registry.
func WithExtractors(r *extract.Registry) Option {
	return func(e *Engine) { e.extractors = r }
}

// Engine runs the conversion, mapping, validation and generation
// pipelines. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	settings    Settings
	validator   report.Validator
	transformer Transformer
	metrics     *Metrics
	extractors  *extract.Registry
	logger      *slog.Logger
}

// New creates an Engine. The namespace is required; validator may be nil
// when validation is never requested.
func New(settings Settings, validator report.Validator, opts ...Option) (*Engine, error) {
	if settings.Namespace == "" {
		return nil, fmt.Errorf("%w: base namespace", ErrMissingRequiredInput)
	}
	settings.Namespace = namespace.New(string(settings.Namespace))
	if settings.Inference == "" {
		settings.Inference = report.InferenceRDFS
	}
	e := &Engine{settings: settings, validator: validator}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.extractors == nil {
		e.extractors = extract.NewRegistry(settings.MaxInputBytes)
	}
	return e, nil
}

// Settings returns the engine configuration.
func (e *Engine) Settings() Settings { return e.settings }

// HasTransformer reports whether intelligent operations are available.
func (e *Engine) HasTransformer() bool { return e.transformer != nil }

// ConvertOptions tune one ConvertSchema call.
type ConvertOptions struct {
	UseAI bool
	// Namespace overrides the engine's base namespace when set.
	Namespace namespace.Namespace
}

// ConvertSchema turns a schema into a shapes graph. Rule-based paths:
// RDF/XML graphs and graphs that declare classes but no shapes are treated
// as ontologies; other graphs are already shapes and pass through; tree
// inputs are read as JSON Schema style schemas. Text needs the
// intelligent transformer.
func (e *Engine) ConvertSchema(ctx context.Context, in Input, opts ConvertOptions) (g *rdf.Graph, err error) {
	defer e.observe("convert", time.Now(), &g, &err)
	ns := e.namespace(opts.Namespace)
	if opts.UseAI {
		src, err := e.source(ctx, in)
		if err != nil {
			return nil, err
		}
		return e.ask(ctx, Request{
			Task:          TaskSchemaToSHACL,
			Source:        src,
			SourceFormat:  string(in.Format),
			BaseNamespace: ns.String(),
		})
	}
	switch in.Kind {
	case InputGraph:
		if in.Format == format.XML || isOntology(in.Graph) {
			e.logger.Debug("converting ontology", slog.Int("triples", in.Graph.Len()))
			return shapes.ConvertOntology(in.Graph, ns, e.shapeOptions(ns)...), nil
		}
		return in.Graph.Clone(), nil
	case InputTree:
		schema, err := shapes.SchemaFromTree(in.Tree)
		if err != nil {
			return nil, err
		}
		return shapes.ConvertTreeSchema(schema, ns, e.shapeOptions(ns)...), nil
	}
	return nil, fmt.Errorf("%w: rule-based schema conversion needs an ontology or a structured schema, got %s", ErrMissingRequiredInput, in.Kind)
}

func isOntology(g *rdf.Graph) bool {
	if len(g.Subjects(rdf.RDFType, rdf.SHNodeShape)) > 0 {
		return false
	}
	return len(g.Subjects(rdf.RDFType, rdf.OWLClass)) > 0 || len(g.Subjects(rdf.RDFType, rdf.RDFSClass)) > 0
}

// CreateSchema derives a shapes graph from sample data. The rule-based
// path infers a tree schema from a structured document; base, when given,
// is merged into the result.
func (e *Engine) CreateSchema(ctx context.Context, in Input, base *rdf.Graph, useAI bool) (g *rdf.Graph, err error) {
	defer e.observe("create", time.Now(), &g, &err)
	ns := e.settings.Namespace
	if useAI {
		src, err := e.source(ctx, in)
		if err != nil {
			return nil, err
		}
		req := Request{Task: TaskDataToSchema, Source: src, SourceFormat: string(in.Format), BaseNamespace: ns.String()}
		if base != nil {
			if req.BaseSchema, err = rdf.SerializeString(ctx, base, rdf.FormatTurtle); err != nil {
				return nil, err
			}
		}
		return e.ask(ctx, req)
	}
	if in.Kind != InputTree {
		return nil, fmt.Errorf("%w: rule-based schema creation requires structured data (JSON or YAML)", ErrMissingRequiredInput)
	}
	schema, err := shapes.InferSchema(in.Tree)
	if err != nil {
		return nil, err
	}
	out := shapes.ConvertTreeSchema(schema, ns, e.shapeOptions(ns)...)
	if base != nil {
		out.Merge(base)
	}
	return out, nil
}

// ApplySchema maps data onto a graph. The rule-based path maps a
// structured document with the structural mapper; target is only consulted
// by the intelligent path.
func (e *Engine) ApplySchema(ctx context.Context, in Input, target *rdf.Graph, useAI bool) (g *rdf.Graph, err error) {
	defer e.observe("apply", time.Now(), &g, &err)
	ns := e.settings.Namespace
	if useAI {
		if target == nil {
			return nil, fmt.Errorf("%w: target schema", ErrMissingRequiredInput)
		}
		src, err := e.source(ctx, in)
		if err != nil {
			return nil, err
		}
		schema, err := rdf.SerializeString(ctx, target, rdf.FormatTurtle)
		if err != nil {
			return nil, err
		}
		return e.ask(ctx, Request{
			Task:          TaskMapData,
			Source:        src,
			SourceFormat:  string(in.Format),
			TargetSchema:  schema,
			BaseNamespace: ns.String(),
		})
	}
	if in.Kind != InputTree {
		return nil, fmt.Errorf("%w: rule-based mapping requires structured data (JSON or YAML)", ErrMissingRequiredInput)
	}
	opts := []tree.Option{tree.WithMinter(e.minter(ns))}
	if e.settings.MaxDepth > 0 {
		opts = append(opts, tree.WithMaxDepth(e.settings.MaxDepth))
	}
	return tree.Map(in.Tree, ns, opts...)
}

// ValidateData validates data against shapes. An empty mode uses the
// configured inference mode.
func (e *Engine) ValidateData(ctx context.Context, data, shapesGraph *rdf.Graph, mode report.InferenceMode) (r *report.Report, err error) {
	start := time.Now()
	defer func() { e.metrics.record("validate", start, err) }()
	if data == nil || shapesGraph == nil {
		return nil, fmt.Errorf("%w: data and shapes graphs", ErrMissingRequiredInput)
	}
	if e.validator == nil {
		return nil, fmt.Errorf("%w: no validator configured", report.ErrValidatorFailure)
	}
	if mode == "" {
		mode = e.settings.Inference
	}
	r, err = report.Validate(ctx, e.validator, data, shapesGraph, mode)
	if err != nil {
		return nil, err
	}
	e.metrics.recordViolations(len(r.Violations))
	e.logger.Info("validated",
		slog.Bool("conforms", r.Conforms),
		slog.Int("violations", len(r.Violations)),
		slog.String("inference", string(mode)))
	return r, nil
}

// GenerateData asks the intelligent transformer for count sample instances
// that conform to shapesGraph.
func (e *Engine) GenerateData(ctx context.Context, shapesGraph *rdf.Graph, prompt string, count int) (g *rdf.Graph, err error) {
	defer e.observe("generate", time.Now(), &g, &err)
	if shapesGraph == nil {
		return nil, fmt.Errorf("%w: shapes graph", ErrMissingRequiredInput)
	}
	if count <= 0 {
		count = DefaultGenerateCount
	}
	schema, err := rdf.SerializeString(ctx, shapesGraph, rdf.FormatTurtle)
	if err != nil {
		return nil, err
	}
	return e.ask(ctx, Request{
		Task:          TaskGenerateData,
		TargetSchema:  schema,
		Prompt:        prompt,
		Count:         count,
		BaseNamespace: e.settings.Namespace.String(),
	})
}

// ask runs the transformer and parses its Turtle answer.
func (e *Engine) ask(ctx context.Context, req Request) (*rdf.Graph, error) {
	if e.transformer == nil {
		return nil, ErrTransformerUnavailable
	}
	e.logger.Debug("calling transformer", slog.String("task", string(req.Task)), slog.Int("source_bytes", len(req.Source)))
	out, err := e.transformer.Transform(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrTransformerFailure, req.Task, err)
	}
	g, err := rdf.ParseString(ctx, out, rdf.FormatTurtle, e.parseOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s returned invalid Turtle: %w", ErrTransformerFailure, req.Task, err)
	}
	return g, nil
}

func (e *Engine) namespace(override namespace.Namespace) namespace.Namespace {
	if strings.TrimSpace(string(override)) != "" {
		return namespace.New(string(override))
	}
	return e.settings.Namespace
}

func (e *Engine) minter(ns namespace.Namespace) *namespace.Minter {
	return namespace.NewMinter(ns, e.settings.Disambiguate, e.logger)
}

func (e *Engine) shapeOptions(ns namespace.Namespace) []shapes.Option {
	return []shapes.Option{shapes.WithMinter(e.minter(ns)), shapes.WithLogger(e.logger)}
}

func (e *Engine) observe(op string, start time.Time, g **rdf.Graph, err *error) {
	e.metrics.record(op, start, *err)
	if *err != nil {
		e.logger.Debug("operation failed", slog.String("operation", op), slog.String("code", string(Code(*err))))
		return
	}
	if *g != nil {
		e.metrics.recordTriples(op, (*g).Len())
	}
}
