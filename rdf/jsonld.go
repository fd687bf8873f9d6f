package rdf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// ErrRemoteContext is returned when a JSON-LD document references a remote
// context and remote loading was not enabled with OptAllowRemoteContexts.
var ErrRemoteContext = errors.New("jsonld: remote context loading disabled")

type refusingDocumentLoader struct{}

func (refusingDocumentLoader) LoadDocument(iri string) (*ld.RemoteDocument, error) {
	return nil, fmt.Errorf("%w: %s", ErrRemoteContext, iri)
}

func newGoldOptions(opts Options) *ld.JsonLdOptions {
	goldOpts := ld.NewJsonLdOptions(opts.BaseIRI)
	if opts.AllowRemoteContexts {
		goldOpts.DocumentLoader = ld.NewDefaultDocumentLoader(nil)
	} else {
		goldOpts.DocumentLoader = refusingDocumentLoader{}
	}
	return goldOpts
}

func decodeJSONLD(ctx context.Context, r io.Reader, opts Options) (*Graph, error) {
	var input any
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return nil, newParseError("jsonld", 0, 0, "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := ld.NewJsonLdProcessor().ToRDF(input, newGoldOptions(opts))
	if err != nil {
		return nil, newParseError("jsonld", 0, 0, "", err)
	}
	dataset, ok := result.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("jsonld: unexpected ToRDF result %T", result)
	}
	g, err := datasetToGraph(dataset, opts)
	if err != nil {
		return nil, err
	}
	if m, ok := input.(map[string]any); ok {
		bindContextPrefixes(g, m["@context"])
	}
	return g, nil
}

func bindContextPrefixes(g *Graph, raw any) {
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	for key, value := range m {
		ns, ok := value.(string)
		if !ok || strings.HasPrefix(key, "@") {
			continue
		}
		if strings.HasSuffix(ns, "/") || strings.HasSuffix(ns, "#") {
			g.Bind(key, ns)
		}
	}
}

// datasetToGraph copies the default graph of a json-gold dataset. Blank node
// labels are scoped to the dataset.
func datasetToGraph(dataset *ld.RDFDataset, opts Options) (*Graph, error) {
	g := NewGraph()
	labels := make(map[string]BlankNode)
	convert := func(node ld.Node) (Term, error) {
		switch n := node.(type) {
		case ld.IRI:
			return IRI{Value: n.Value}, nil
		case *ld.IRI:
			return IRI{Value: n.Value}, nil
		case ld.BlankNode:
			return blankFor(labels, n.Attribute), nil
		case *ld.BlankNode:
			return blankFor(labels, n.Attribute), nil
		case ld.Literal:
			return goldLiteral(n.Value, n.Datatype, n.Language), nil
		case *ld.Literal:
			return goldLiteral(n.Value, n.Datatype, n.Language), nil
		}
		return nil, fmt.Errorf("jsonld: unsupported node %T", node)
	}
	for _, quad := range dataset.Graphs["@default"] {
		s, err := convert(quad.Subject)
		if err != nil {
			return nil, err
		}
		p, err := convert(quad.Predicate)
		if err != nil {
			return nil, err
		}
		pred, ok := p.(IRI)
		if !ok {
			continue
		}
		o, err := convert(quad.Object)
		if err != nil {
			return nil, err
		}
		g.Add(s, pred, o)
		if limitExceeded(opts.MaxTriples, g.Len()) {
			return nil, ErrTripleLimitExceeded
		}
	}
	return g, nil
}

func blankFor(labels map[string]BlankNode, attribute string) BlankNode {
	label := strings.TrimPrefix(attribute, "_:")
	if b, ok := labels[label]; ok {
		return b
	}
	b := NewLabeledBlankNode(label)
	labels[label] = b
	return b
}

func goldLiteral(value, datatype, lang string) Literal {
	return normalizeLiteral(Literal{Lexical: value, Datatype: IRI{Value: datatype}, Lang: lang})
}

// normalizeLiteral drops the implicit xsd:string and rdf:langString
// datatypes so equal literals compare equal regardless of source syntax.
func normalizeLiteral(l Literal) Literal {
	if l.Lang != "" || l.Datatype == XSDString {
		l.Datatype = IRI{}
	}
	return l
}

// isJSONLDPrefix reports whether prefix can be a JSON-LD term. The empty
// prefix Turtle allows is not one, and keywords start with "@".
func isJSONLDPrefix(prefix string) bool {
	return prefix != "" && !strings.HasPrefix(prefix, "@") && !strings.ContainsAny(prefix, ":/#")
}

// encodeJSONLD writes g as compacted JSON-LD using the graph's prefixes as
// the @context.
func encodeJSONLD(ctx context.Context, w io.Writer, g *Graph, opts Options) error {
	var nquads strings.Builder
	if err := encodeNTriples(&nquads, g); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	proc := ld.NewJsonLdProcessor()
	goldOpts := newGoldOptions(opts)
	goldOpts.Format = "application/n-quads"
	expanded, err := proc.FromRDF(nquads.String(), goldOpts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	jsonCtx := map[string]any{}
	prefixes := g.Prefixes()
	for prefix, ns := range opts.Prefixes {
		prefixes[prefix] = ns
	}
	for _, prefix := range sortedPrefixKeys(usedPrefixes(g, prefixes)) {
		if !isJSONLDPrefix(prefix) {
			continue
		}
		jsonCtx[prefix] = prefixes[prefix]
	}
	doc := expanded
	if len(jsonCtx) > 0 {
		compacted, err := proc.Compact(expanded, map[string]any{"@context": jsonCtx}, newGoldOptions(opts))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSerialize, err)
		}
		doc = compacted
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
