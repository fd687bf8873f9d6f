package rdf

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const xmlNS = "http://www.w3.org/XML/1998/namespace"

// rdfxmlDecoder walks the XML token stream recursively. It covers node and
// property elements, property attributes, rdf:parseType Resource, Literal
// and Collection, container membership (rdf:li), xml:base and xml:lang.
type rdfxmlDecoder struct {
	ctx    context.Context
	dec    *xml.Decoder
	graph  *Graph
	opts   Options
	labels map[string]BlankNode
	depth  int
}

type rdfxmlScope struct {
	base string
	lang string
}

func decodeRDFXML(ctx context.Context, r io.Reader, opts Options) (*Graph, error) {
	d := &rdfxmlDecoder{
		ctx:    ctx,
		dec:    xml.NewDecoder(r),
		graph:  NewGraph(),
		opts:   opts,
		labels: map[string]BlankNode{},
	}
	scope := rdfxmlScope{base: opts.BaseIRI}
	for {
		tok, err := d.dec.Token()
		if errors.Is(err, io.EOF) {
			return d.graph, nil
		}
		if err != nil {
			return nil, d.wrap(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		d.bindNamespaces(start)
		if isRDF(start.Name, "RDF") {
			if err := d.nodeElementList(d.scoped(scope, start)); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := d.nodeElement(start, scope); err != nil {
			return nil, err
		}
	}
}

func (d *rdfxmlDecoder) wrap(err error) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		return err
	}
	line, col := d.dec.InputPos()
	return newParseError("rdfxml", line, col, "", err)
}

func (d *rdfxmlDecoder) errorf(format string, args ...any) error {
	return d.wrap(fmt.Errorf(format, args...))
}

func (d *rdfxmlDecoder) bindNamespaces(el xml.StartElement) {
	for _, attr := range el.Attr {
		if attr.Name.Space == "xmlns" && (strings.HasSuffix(attr.Value, "/") || strings.HasSuffix(attr.Value, "#")) {
			d.graph.Bind(attr.Name.Local, attr.Value)
		}
	}
}

func (d *rdfxmlDecoder) scoped(scope rdfxmlScope, el xml.StartElement) rdfxmlScope {
	for _, attr := range el.Attr {
		if attr.Name.Space != xmlNS {
			continue
		}
		switch attr.Name.Local {
		case "base":
			scope.base = resolveAgainst(scope.base, attr.Value)
		case "lang":
			scope.lang = attr.Value
		}
	}
	return scope
}

func (d *rdfxmlDecoder) emit(s Term, p IRI, o Term) error {
	d.graph.Add(s, p, o)
	if limitExceeded(d.opts.MaxTriples, d.graph.Len()) {
		return d.wrap(ErrTripleLimitExceeded)
	}
	return nil
}

func (d *rdfxmlDecoder) nodeElementList(scope rdfxmlScope) error {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return d.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			d.bindNamespaces(t)
			if _, err := d.nodeElement(t, scope); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// nodeElement consumes el and its children and returns the node it describes.
func (d *rdfxmlDecoder) nodeElement(el xml.StartElement, outer rdfxmlScope) (Term, error) {
	if err := d.ctx.Err(); err != nil {
		return nil, err
	}
	d.depth++
	defer func() { d.depth-- }()
	if limitExceeded(d.opts.MaxDepth, d.depth) {
		return nil, d.wrap(ErrDepthExceeded)
	}
	scope := d.scoped(outer, el)
	subject, err := d.subjectOf(el, scope)
	if err != nil {
		return nil, err
	}
	if !isRDF(el.Name, "Description") {
		if err := d.emit(subject, RDFType, elementIRI(el.Name)); err != nil {
			return nil, err
		}
	}
	for _, attr := range el.Attr {
		if isSyntaxAttr(attr.Name) {
			continue
		}
		if isRDF(attr.Name, "type") {
			if err := d.emit(subject, RDFType, IRI{Value: resolveAgainst(scope.base, attr.Value)}); err != nil {
				return nil, err
			}
			continue
		}
		if err := d.emit(subject, elementIRI(attr.Name), Literal{Lexical: attr.Value, Lang: scope.lang}); err != nil {
			return nil, err
		}
	}
	li := 0
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			d.bindNamespaces(t)
			pred := elementIRI(t.Name)
			if isRDF(t.Name, "li") {
				li++
				pred = IRI{Value: RDFNS + "_" + strconv.Itoa(li)}
			}
			if err := d.propertyElement(subject, pred, t, scope); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return subject, nil
		}
	}
}

func (d *rdfxmlDecoder) subjectOf(el xml.StartElement, scope rdfxmlScope) (Term, error) {
	if about, ok := attrValue(el.Attr, RDFNS, "about"); ok {
		return IRI{Value: resolveAgainst(scope.base, about)}, nil
	}
	if id, ok := attrValue(el.Attr, RDFNS, "ID"); ok {
		return IRI{Value: resolveAgainst(scope.base, "#"+id)}, nil
	}
	if nodeID, ok := attrValue(el.Attr, RDFNS, "nodeID"); ok {
		return d.blank(nodeID), nil
	}
	return NewBlankNode(), nil
}

func (d *rdfxmlDecoder) blank(label string) BlankNode {
	if b, ok := d.labels[label]; ok {
		return b
	}
	b := NewLabeledBlankNode(label)
	d.labels[label] = b
	return b
}

func (d *rdfxmlDecoder) propertyElement(subject Term, pred IRI, el xml.StartElement, outer rdfxmlScope) error {
	scope := d.scoped(outer, el)
	parseType, _ := attrValue(el.Attr, RDFNS, "parseType")
	switch parseType {
	case "Resource":
		node := NewBlankNode()
		if err := d.emit(subject, pred, node); err != nil {
			return err
		}
		_, err := d.propertyElementsOf(node, scope)
		return err
	case "Collection":
		return d.collection(subject, pred, scope)
	case "Literal":
		inner, err := d.innerXML()
		if err != nil {
			return err
		}
		return d.emit(subject, pred, Literal{Lexical: inner, Datatype: RDFXMLLiteral})
	}

	if res, ok := attrValue(el.Attr, RDFNS, "resource"); ok {
		return d.emptyProperty(subject, pred, IRI{Value: resolveAgainst(scope.base, res)}, el, scope)
	}
	if nodeID, ok := attrValue(el.Attr, RDFNS, "nodeID"); ok {
		return d.emptyProperty(subject, pred, d.blank(nodeID), el, scope)
	}

	var text strings.Builder
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return d.wrap(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			d.bindNamespaces(t)
			object, err := d.nodeElement(t, scope)
			if err != nil {
				return err
			}
			if err := d.emit(subject, pred, object); err != nil {
				return err
			}
			return d.skipToEnd()
		case xml.EndElement:
			if hasPropertyAttrs(el.Attr) {
				node := NewBlankNode()
				if err := d.emit(subject, pred, node); err != nil {
					return err
				}
				return d.propertyAttrs(node, el, scope)
			}
			lit := Literal{Lexical: text.String(), Lang: scope.lang}
			if dt, ok := attrValue(el.Attr, RDFNS, "datatype"); ok {
				lit = Literal{Lexical: text.String(), Datatype: IRI{Value: resolveAgainst(scope.base, dt)}}
			}
			return d.emit(subject, pred, normalizeLiteral(lit))
		}
	}
}

// emptyProperty links subject to object and attaches any property
// attributes to object, then consumes the element end.
func (d *rdfxmlDecoder) emptyProperty(subject Term, pred IRI, object Term, el xml.StartElement, scope rdfxmlScope) error {
	if err := d.emit(subject, pred, object); err != nil {
		return err
	}
	if err := d.propertyAttrs(object, el, scope); err != nil {
		return err
	}
	return d.skipToEnd()
}

func (d *rdfxmlDecoder) propertyAttrs(object Term, el xml.StartElement, scope rdfxmlScope) error {
	for _, attr := range el.Attr {
		if isSyntaxAttr(attr.Name) || isRDF(attr.Name, "resource") || isRDF(attr.Name, "nodeID") {
			continue
		}
		if isRDF(attr.Name, "type") {
			if err := d.emit(object, RDFType, IRI{Value: resolveAgainst(scope.base, attr.Value)}); err != nil {
				return err
			}
			continue
		}
		if err := d.emit(object, elementIRI(attr.Name), Literal{Lexical: attr.Value, Lang: scope.lang}); err != nil {
			return err
		}
	}
	return nil
}

func (d *rdfxmlDecoder) propertyElementsOf(node Term, scope rdfxmlScope) (Term, error) {
	li := 0
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			d.bindNamespaces(t)
			pred := elementIRI(t.Name)
			if isRDF(t.Name, "li") {
				li++
				pred = IRI{Value: RDFNS + "_" + strconv.Itoa(li)}
			}
			if err := d.propertyElement(node, pred, t, scope); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return node, nil
		}
	}
}

func (d *rdfxmlDecoder) collection(subject Term, pred IRI, scope rdfxmlScope) error {
	var items []Term
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return d.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			d.bindNamespaces(t)
			item, err := d.nodeElement(t, scope)
			if err != nil {
				return err
			}
			items = append(items, item)
		case xml.EndElement:
			head := d.graph.AddList(items)
			return d.emit(subject, pred, head)
		}
	}
}

func (d *rdfxmlDecoder) innerXML() (string, error) {
	var b strings.Builder
	enc := xml.NewEncoder(&b)
	depth := 0
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return "", d.wrap(err)
		}
		if _, ok := tok.(xml.EndElement); ok && depth == 0 {
			if err := enc.Flush(); err != nil {
				return "", err
			}
			return b.String(), nil
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return "", d.wrap(err)
		}
	}
}

func (d *rdfxmlDecoder) skipToEnd() error {
	depth := 0
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return d.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				return d.errorf("unexpected text after node element")
			}
		}
	}
}

func isRDF(name xml.Name, local string) bool {
	return name.Space == RDFNS && name.Local == local
}

func isSyntaxAttr(name xml.Name) bool {
	if name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns") || name.Space == xmlNS {
		return true
	}
	if name.Space != RDFNS {
		return false
	}
	switch name.Local {
	case "about", "ID", "nodeID", "parseType", "datatype", "resource":
		return true
	}
	return false
}

func hasPropertyAttrs(attrs []xml.Attr) bool {
	for _, attr := range attrs {
		if !isSyntaxAttr(attr.Name) {
			return true
		}
	}
	return false
}

func elementIRI(name xml.Name) IRI {
	return IRI{Value: name.Space + name.Local}
}

func attrValue(attrs []xml.Attr, space, local string) (string, bool) {
	for _, attr := range attrs {
		if attr.Name.Space == space && attr.Name.Local == local {
			return attr.Value, true
		}
	}
	return "", false
}

func resolveAgainst(base, ref string) string {
	if base == "" {
		return ref
	}
	return resolveIRI(base, ref)
}
