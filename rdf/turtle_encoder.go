package rdf

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strings"
)

// turtleEncoder renders a whole graph, grouping triples by subject.
//
// Blank nodes referenced exactly once as an object are written inline as
// [ ... ], well-formed collections as ( ... ). Everything else is labeled
// _:b0, _:b1, ... in first-seen order.
type turtleEncoder struct {
	w        *bufio.Writer
	g        *Graph
	prefixes map[string]string
	labels   *blankLabeler
	refs     map[BlankNode]int
	lists    map[BlankNode][]Term
	inlined  map[BlankNode]bool
	err      error
}

const turtleIndent = "    "

func encodeTurtle(w io.Writer, g *Graph, opts Options) error {
	prefixes := g.Prefixes()
	for prefix, ns := range opts.Prefixes {
		prefixes[prefix] = ns
	}
	e := &turtleEncoder{
		w:        bufio.NewWriter(w),
		g:        g,
		prefixes: usedPrefixes(g, prefixes),
		labels:   newBlankLabeler(),
		refs:     make(map[BlankNode]int),
		lists:    make(map[BlankNode][]Term),
		inlined:  make(map[BlankNode]bool),
	}
	e.analyze()
	e.writeHeader(opts.BaseIRI)
	e.writeBody()
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

func (e *turtleEncoder) write(s string) {
	if e.err == nil {
		_, e.err = e.w.WriteString(s)
	}
}

func (e *turtleEncoder) writeHeader(base string) {
	keys := sortedPrefixKeys(e.prefixes)
	for _, prefix := range keys {
		e.write("@prefix " + prefix + ": <" + escapeIRI(e.prefixes[prefix]) + "> .\n")
	}
	if base != "" {
		e.write("@base <" + escapeIRI(base) + "> .\n")
	}
	if len(keys) > 0 || base != "" {
		e.write("\n")
	}
}

// analyze counts blank node references and finds collections that can be
// written with ( ) syntax.
func (e *turtleEncoder) analyze() {
	for _, t := range e.g.triples {
		if b, ok := t.O.(BlankNode); ok {
			e.refs[b]++
		}
	}
	for _, t := range e.g.triples {
		b, ok := t.S.(BlankNode)
		if !ok || t.P != RDFFirst {
			continue
		}
		if items, ok := e.collection(b); ok {
			e.lists[b] = items
		}
	}
}

// collection reports whether head starts a list whose cells carry nothing
// but rdf:first/rdf:rest and are referenced once.
func (e *turtleEncoder) collection(head BlankNode) ([]Term, bool) {
	var items []Term
	seen := map[BlankNode]bool{}
	var cur Term = head
	for cur != RDFNil {
		cell, ok := cur.(BlankNode)
		if !ok || seen[cell] {
			return nil, false
		}
		seen[cell] = true
		if cell != head && e.refs[cell] != 1 {
			return nil, false
		}
		outgoing := e.g.bySubject[cell]
		if len(outgoing) != 2 {
			return nil, false
		}
		first, ok1 := e.g.Value(cell, RDFFirst)
		rest, ok2 := e.g.Value(cell, RDFRest)
		if !ok1 || !ok2 {
			return nil, false
		}
		items = append(items, first)
		cur = rest
	}
	return items, true
}

func (e *turtleEncoder) canInline(b BlankNode) bool {
	return e.refs[b] == 1
}

func (e *turtleEncoder) writeBody() {
	written := 0
	separate := func() {
		if written > 0 {
			e.write("\n")
		}
		written++
	}
	done := make(map[Term]bool)
	for _, t := range e.g.triples {
		if done[t.S] {
			continue
		}
		done[t.S] = true
		b, blank := t.S.(BlankNode)
		if blank && e.canInline(b) {
			continue
		}
		separate()
		if blank {
			e.inlined[b] = true
			if e.refs[b] == 0 && e.lists[b] == nil {
				e.write("[\n")
				e.writePredicates(b, 1)
				e.write("\n] .\n")
				continue
			}
		}
		e.write(e.subject(t.S) + "\n")
		e.writePredicates(t.S, 1)
		e.write(" .\n")
	}
	// inlinable blank nodes still unwritten sit on a reference cycle
	for _, t := range e.g.triples {
		b, ok := t.S.(BlankNode)
		if !ok || e.inlined[b] {
			continue
		}
		e.inlined[b] = true
		separate()
		e.write(e.subject(b) + "\n")
		e.writePredicates(b, 1)
		e.write(" .\n")
	}
}

func (e *turtleEncoder) subject(s Term) string {
	if b, ok := s.(BlankNode); ok {
		return "_:" + e.labels.label(b)
	}
	return renderTerm(s, e.prefixes)
}

func (e *turtleEncoder) writePredicates(s Term, depth int) {
	indent := strings.Repeat(turtleIndent, depth)
	triples := e.g.Find(s, IRI{}, nil)
	order := make([]IRI, 0, len(triples))
	byPred := make(map[IRI][]Term)
	for _, t := range triples {
		if _, ok := byPred[t.P]; !ok {
			order = append(order, t.P)
		}
		byPred[t.P] = append(byPred[t.P], t.O)
	}
	for i, p := range order {
		if i > 0 {
			e.write(" ;\n")
		}
		e.write(indent)
		if p == RDFType {
			e.write("a")
		} else {
			e.write(renderTerm(p, e.prefixes))
		}
		e.write(" ")
		for j, o := range byPred[p] {
			if j > 0 {
				e.write(", ")
			}
			e.writeObject(o, depth)
		}
	}
}

func (e *turtleEncoder) writeObject(o Term, depth int) {
	switch v := o.(type) {
	case BlankNode:
		if items, ok := e.lists[v]; ok && e.canInline(v) && !e.inlined[v] {
			e.markList(v)
			e.write("(")
			for _, item := range items {
				e.write(" ")
				e.writeObject(item, depth)
			}
			e.write(" )")
			return
		}
		if e.canInline(v) && !e.inlined[v] {
			e.inlined[v] = true
			if len(e.g.bySubject[v]) == 0 {
				e.write("[]")
				return
			}
			e.write("[\n")
			e.writePredicates(v, depth+1)
			e.write("\n" + strings.Repeat(turtleIndent, depth) + "]")
			return
		}
		e.write("_:" + e.labels.label(v))
	case Literal:
		e.write(renderLiteral(v, e.prefixes))
	default:
		e.write(renderTerm(o, e.prefixes))
	}
}

func (e *turtleEncoder) markList(head BlankNode) {
	var cur Term = head
	for cur != RDFNil {
		cell := cur.(BlankNode)
		e.inlined[cell] = true
		cur, _ = e.g.Value(cell, RDFRest)
	}
}

var (
	canonicalInteger = regexp.MustCompile(`^[+-]?[0-9]+$`)
	canonicalDecimal = regexp.MustCompile(`^[+-]?[0-9]*\.[0-9]+$`)
	canonicalDouble  = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)[eE][+-]?[0-9]+$`)
)

// renderLiteral uses Turtle's bare forms for numbers and booleans whose
// lexical form the grammar accepts unchanged.
func renderLiteral(l Literal, prefixes map[string]string) string {
	switch {
	case l.Datatype == XSDInteger && canonicalInteger.MatchString(l.Lexical),
		l.Datatype == XSDDecimal && canonicalDecimal.MatchString(l.Lexical),
		l.Datatype == XSDDouble && canonicalDouble.MatchString(l.Lexical),
		l.Datatype == XSDBoolean && (l.Lexical == "true" || l.Lexical == "false"):
		return l.Lexical
	}
	return renderTerm(l, prefixes)
}

// usedPrefixes keeps the bindings that abbreviate at least one IRI in g.
func usedPrefixes(g *Graph, prefixes map[string]string) map[string]string {
	used := make(map[string]string)
	mark := func(iri IRI) {
		if qname, ok := abbreviateQName(iri.Value, prefixes); ok {
			prefix := qname[:strings.IndexByte(qname, ':')]
			used[prefix] = prefixes[prefix]
		}
	}
	for _, t := range g.triples {
		for _, term := range []Term{t.S, t.P, t.O} {
			switch v := term.(type) {
			case IRI:
				mark(v)
			case Literal:
				if v.Datatype.Value != "" {
					mark(v.Datatype)
				}
			}
		}
	}
	return used
}

func sortedPrefixKeys(prefixes map[string]string) []string {
	keys := make([]string, 0, len(prefixes))
	for key := range prefixes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// abbreviateQName picks the longest matching namespace whose remainder is a
// valid local name.
func abbreviateQName(iri string, prefixes map[string]string) (string, bool) {
	bestNS, bestPrefix := "", ""
	found := false
	for prefix, ns := range prefixes {
		if ns == "" || !strings.HasPrefix(iri, ns) || !isQNameLocal(iri[len(ns):]) {
			continue
		}
		if !found || len(ns) > len(bestNS) || (len(ns) == len(bestNS) && prefix < bestPrefix) {
			bestNS, bestPrefix, found = ns, prefix, true
		}
	}
	if !found {
		return "", false
	}
	return bestPrefix + ":" + iri[len(bestNS):], true
}

func isQNameLocal(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case isAlnum(ch) || ch == '_':
		case (ch == '-' || ch == '.') && i > 0:
		default:
			return false
		}
	}
	return value[len(value)-1] != '.'
}
