package rdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// turtleCursor is a recursive-descent Turtle reader over a whole document.
type turtleCursor struct {
	ctx      context.Context
	input    string
	pos      int
	prefixes map[string]string
	base     string
	labels   map[string]BlankNode
	graph    *Graph
	opts     Options
	depth    int
}

func decodeTurtle(ctx context.Context, r io.Reader, opts Options) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	input := string(data)
	if err := checkLineLengths("turtle", input, opts.MaxLineBytes); err != nil {
		return nil, err
	}
	c := &turtleCursor{
		ctx:      ctx,
		input:    strings.TrimPrefix(input, "\ufeff"),
		prefixes: map[string]string{},
		base:     opts.BaseIRI,
		labels:   map[string]BlankNode{},
		graph:    NewGraph(),
		opts:     opts,
	}
	for {
		c.skipWS()
		if c.pos >= len(c.input) {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.statement(); err != nil {
			return nil, err
		}
	}
	for prefix, ns := range c.prefixes {
		c.graph.Bind(prefix, ns)
	}
	return c.graph, nil
}

func checkLineLengths(format, input string, limit int) error {
	if limit <= 0 {
		return nil
	}
	line := 1
	for len(input) > 0 {
		end := strings.IndexByte(input, '\n')
		if end < 0 {
			end = len(input)
		}
		if end > limit {
			return newParseError(format, line, 0, "", ErrLineTooLong)
		}
		if end == len(input) {
			break
		}
		input = input[end+1:]
		line++
	}
	return nil
}

func (c *turtleCursor) errorf(format string, args ...any) error {
	return c.wrap(fmt.Errorf(format, args...))
}

func (c *turtleCursor) wrap(err error) error {
	pos := min(c.pos, len(c.input))
	line := 1 + strings.Count(c.input[:pos], "\n")
	lineStart := strings.LastIndexByte(c.input[:pos], '\n') + 1
	lineEnd := strings.IndexByte(c.input[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(c.input) - lineStart
	}
	return newParseError("turtle", line, pos-lineStart+1, c.input[lineStart:lineStart+lineEnd], err)
}

func (c *turtleCursor) skipWS() {
	for c.pos < len(c.input) {
		switch c.input[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		case '#':
			for c.pos < len(c.input) && c.input[c.pos] != '\n' {
				c.pos++
			}
		default:
			return
		}
	}
}

func (c *turtleCursor) peek() byte {
	c.skipWS()
	if c.pos < len(c.input) {
		return c.input[c.pos]
	}
	return 0
}

func (c *turtleCursor) consume(ch byte) bool {
	if c.peek() == ch {
		c.pos++
		return true
	}
	return false
}

func (c *turtleCursor) expect(ch byte) error {
	if !c.consume(ch) {
		if c.pos >= len(c.input) {
			return c.errorf("expected %q, found end of input", ch)
		}
		return c.errorf("expected %q", ch)
	}
	return nil
}

// keyword matches a case-insensitive keyword followed by a non-name byte.
func (c *turtleCursor) keyword(word string) bool {
	c.skipWS()
	end := c.pos + len(word)
	if end > len(c.input) || !strings.EqualFold(c.input[c.pos:end], word) {
		return false
	}
	if end < len(c.input) && (isPNChar(c.input[end]) || c.input[end] == ':') {
		return false
	}
	c.pos = end
	return true
}

func (c *turtleCursor) statement() error {
	switch {
	case c.keyword("@prefix"):
		return c.prefixDirective(true)
	case c.keyword("@base"):
		return c.baseDirective(true)
	case c.keyword("PREFIX"):
		return c.prefixDirective(false)
	case c.keyword("BASE"):
		return c.baseDirective(false)
	}
	return c.triples()
}

func (c *turtleCursor) prefixDirective(dotted bool) error {
	c.skipWS()
	start := c.pos
	for c.pos < len(c.input) && c.input[c.pos] != ':' && !isSpace(c.input[c.pos]) {
		c.pos++
	}
	prefix := c.input[start:c.pos]
	if err := c.expect(':'); err != nil {
		return err
	}
	iri, err := c.iriRef()
	if err != nil {
		return err
	}
	c.prefixes[prefix] = iri.Value
	if dotted {
		return c.expect('.')
	}
	return nil
}

func (c *turtleCursor) baseDirective(dotted bool) error {
	iri, err := c.iriRef()
	if err != nil {
		return err
	}
	c.base = iri.Value
	if dotted {
		return c.expect('.')
	}
	return nil
}

func (c *turtleCursor) triples() error {
	var subject Term
	var err error
	if c.peek() == '[' {
		subject, err = c.blankNodePropertyList()
		if err != nil {
			return err
		}
		if c.peek() == '.' {
			c.pos++
			return nil
		}
	} else {
		subject, err = c.subject()
		if err != nil {
			return err
		}
	}
	if err := c.predicateObjectList(subject); err != nil {
		return err
	}
	return c.expect('.')
}

func (c *turtleCursor) subject() (Term, error) {
	switch c.peek() {
	case '<':
		return c.iriRef()
	case '_':
		return c.blankNodeLabel()
	case '(':
		return c.collection()
	case '"', '\'':
		return nil, c.errorf("literal not allowed as subject")
	}
	return c.prefixedName()
}

func (c *turtleCursor) predicateObjectList(subject Term) error {
	for {
		verb, err := c.verb()
		if err != nil {
			return err
		}
		if err := c.objectList(subject, verb); err != nil {
			return err
		}
		if !c.consume(';') {
			return nil
		}
		for c.consume(';') {
		}
		switch c.peek() {
		case '.', ']', 0:
			return nil
		}
	}
}

func (c *turtleCursor) verb() (IRI, error) {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == 'a' {
		next := byte(' ')
		if c.pos+1 < len(c.input) {
			next = c.input[c.pos+1]
		}
		if !isPNChar(next) && next != ':' {
			c.pos++
			return RDFType, nil
		}
	}
	var (
		term Term
		err  error
	)
	if c.peek() == '<' {
		term, err = c.iriRef()
	} else {
		term, err = c.prefixedName()
	}
	if err != nil {
		return IRI{}, err
	}
	iri, ok := term.(IRI)
	if !ok {
		return IRI{}, c.errorf("predicate must be an IRI")
	}
	return iri, nil
}

func (c *turtleCursor) objectList(subject Term, predicate IRI) error {
	for {
		object, err := c.object()
		if err != nil {
			return err
		}
		if err := c.emit(subject, predicate, object); err != nil {
			return err
		}
		if !c.consume(',') {
			return nil
		}
	}
}

func (c *turtleCursor) emit(s Term, p IRI, o Term) error {
	c.graph.Add(s, p, o)
	if limitExceeded(c.opts.MaxTriples, c.graph.Len()) {
		return c.wrap(ErrTripleLimitExceeded)
	}
	return nil
}

func (c *turtleCursor) object() (Term, error) {
	switch ch := c.peek(); {
	case ch == '<':
		return c.iriRef()
	case ch == '_':
		return c.blankNodeLabel()
	case ch == '[':
		return c.blankNodePropertyList()
	case ch == '(':
		return c.collection()
	case ch == '"' || ch == '\'':
		return c.literal()
	case ch == '+' || ch == '-' || ch == '.' || isDigit(ch):
		return c.numeric()
	case ch == 0:
		return nil, c.errorf("expected object, found end of input")
	}
	if c.keyword("true") {
		return NewBoolean(true), nil
	}
	if c.keyword("false") {
		return NewBoolean(false), nil
	}
	return c.prefixedName()
}

func (c *turtleCursor) enter() error {
	c.depth++
	if limitExceeded(c.opts.MaxDepth, c.depth) {
		return c.wrap(ErrDepthExceeded)
	}
	return nil
}

func (c *turtleCursor) blankNodePropertyList() (Term, error) {
	if err := c.expect('['); err != nil {
		return nil, err
	}
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer func() { c.depth-- }()
	node := NewBlankNode()
	if c.consume(']') {
		return node, nil
	}
	if err := c.predicateObjectList(node); err != nil {
		return nil, err
	}
	if err := c.expect(']'); err != nil {
		return nil, err
	}
	return node, nil
}

func (c *turtleCursor) collection() (Term, error) {
	if err := c.expect('('); err != nil {
		return nil, err
	}
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer func() { c.depth-- }()
	var items []Term
	for !c.consume(')') {
		if c.pos >= len(c.input) {
			return nil, c.errorf("unterminated collection")
		}
		item, err := c.object()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return RDFNil, nil
	}
	head := NewBlankNode()
	cur := head
	for i, item := range items {
		if err := c.emit(cur, RDFFirst, item); err != nil {
			return nil, err
		}
		var rest Term = RDFNil
		if i < len(items)-1 {
			rest = NewBlankNode()
		}
		if err := c.emit(cur, RDFRest, rest); err != nil {
			return nil, err
		}
		if b, ok := rest.(BlankNode); ok {
			cur = b
		}
	}
	return head, nil
}

func (c *turtleCursor) blankNodeLabel() (Term, error) {
	c.skipWS()
	if !strings.HasPrefix(c.input[c.pos:], "_:") {
		return nil, c.errorf("expected blank node label")
	}
	c.pos += 2
	start := c.pos
	for c.pos < len(c.input) && (isPNChar(c.input[c.pos]) || c.input[c.pos] == '.') {
		c.pos++
	}
	for c.pos > start && c.input[c.pos-1] == '.' {
		c.pos--
	}
	label := c.input[start:c.pos]
	if label == "" {
		return nil, c.errorf("empty blank node label")
	}
	if node, ok := c.labels[label]; ok {
		return node, nil
	}
	node := NewLabeledBlankNode(label)
	c.labels[label] = node
	return node, nil
}

func (c *turtleCursor) iriRef() (IRI, error) {
	if err := c.expect('<'); err != nil {
		return IRI{}, err
	}
	var b strings.Builder
	for {
		if c.pos >= len(c.input) {
			return IRI{}, c.errorf("unterminated IRI")
		}
		ch := c.input[c.pos]
		switch {
		case ch == '>':
			c.pos++
			return IRI{Value: c.resolve(b.String())}, nil
		case ch == '\\':
			r, n, err := decodeUnicodeEscape(c.input[c.pos:])
			if err != nil {
				return IRI{}, c.wrap(err)
			}
			b.WriteRune(r)
			c.pos += n
		case ch == ' ' || ch == '\n' || ch == '<' || ch == '"':
			return IRI{}, c.errorf("invalid character %q in IRI", ch)
		default:
			b.WriteByte(ch)
			c.pos++
		}
	}
}

func (c *turtleCursor) resolve(ref string) string {
	if c.base == "" {
		return ref
	}
	return resolveIRI(c.base, ref)
}

func (c *turtleCursor) prefixedName() (Term, error) {
	c.skipWS()
	start := c.pos
	for c.pos < len(c.input) && c.input[c.pos] != ':' && (isPNChar(c.input[c.pos]) || c.input[c.pos] == '.') {
		c.pos++
	}
	if c.pos >= len(c.input) || c.input[c.pos] != ':' {
		c.pos = start
		return nil, c.errorf("expected IRI, prefixed name or literal")
	}
	prefix := c.input[start:c.pos]
	ns, ok := c.prefixes[prefix]
	if !ok {
		c.pos = start
		return nil, c.errorf("undefined prefix %q", prefix)
	}
	c.pos++
	var local strings.Builder
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		switch {
		case isPNChar(ch) || ch == ':':
			local.WriteByte(ch)
			c.pos++
		case ch == '.':
			// a trailing dot terminates the statement
			if c.pos+1 < len(c.input) && (isPNChar(c.input[c.pos+1]) || c.input[c.pos+1] == ':' || c.input[c.pos+1] == '%') {
				local.WriteByte(ch)
				c.pos++
				continue
			}
			return IRI{Value: ns + local.String()}, nil
		case ch == '%':
			if c.pos+2 >= len(c.input) || !isHex(c.input[c.pos+1]) || !isHex(c.input[c.pos+2]) {
				return nil, c.errorf("invalid percent escape")
			}
			local.WriteString(c.input[c.pos : c.pos+3])
			c.pos += 3
		case ch == '\\':
			if c.pos+1 >= len(c.input) || !strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", rune(c.input[c.pos+1])) {
				return nil, c.errorf("invalid local name escape")
			}
			local.WriteByte(c.input[c.pos+1])
			c.pos += 2
		default:
			return IRI{Value: ns + local.String()}, nil
		}
	}
	return IRI{Value: ns + local.String()}, nil
}

func (c *turtleCursor) numeric() (Term, error) {
	c.skipWS()
	start := c.pos
	if c.input[c.pos] == '+' || c.input[c.pos] == '-' {
		c.pos++
	}
	digits := func() int {
		n := 0
		for c.pos < len(c.input) && isDigit(c.input[c.pos]) {
			c.pos++
			n++
		}
		return n
	}
	intDigits := digits()
	datatype := XSDInteger
	if c.pos+1 < len(c.input) && c.input[c.pos] == '.' && isDigit(c.input[c.pos+1]) {
		c.pos++
		digits()
		datatype = XSDDecimal
	}
	if c.pos < len(c.input) && (c.input[c.pos] == 'e' || c.input[c.pos] == 'E') {
		c.pos++
		if c.pos < len(c.input) && (c.input[c.pos] == '+' || c.input[c.pos] == '-') {
			c.pos++
		}
		if digits() == 0 {
			return nil, c.errorf("malformed exponent")
		}
		datatype = XSDDouble
	}
	if intDigits == 0 && datatype == XSDInteger {
		c.pos = start
		return nil, c.errorf("malformed number")
	}
	return Literal{Lexical: c.input[start:c.pos], Datatype: datatype}, nil
}

func (c *turtleCursor) literal() (Term, error) {
	c.skipWS()
	quote := c.input[c.pos]
	long := strings.HasPrefix(c.input[c.pos:], strings.Repeat(string(quote), 3))
	if long {
		c.pos += 3
	} else {
		c.pos++
	}
	var b strings.Builder
	for {
		if c.pos >= len(c.input) {
			return nil, c.errorf("unterminated string literal")
		}
		ch := c.input[c.pos]
		if ch == quote {
			if !long {
				c.pos++
				break
			}
			if strings.HasPrefix(c.input[c.pos:], strings.Repeat(string(quote), 3)) {
				// """a"""" ends with the last three quotes
				for c.pos+3 < len(c.input) && c.input[c.pos+3] == quote {
					b.WriteByte(quote)
					c.pos++
				}
				c.pos += 3
				break
			}
		}
		if !long && (ch == '\n' || ch == '\r') {
			return nil, c.errorf("newline in short string literal")
		}
		if ch == '\\' {
			r, n, err := decodeStringEscape(c.input[c.pos:])
			if err != nil {
				return nil, c.wrap(err)
			}
			b.WriteRune(r)
			c.pos += n
			continue
		}
		b.WriteByte(ch)
		c.pos++
	}
	lit := Literal{Lexical: b.String()}
	if c.pos < len(c.input) && c.input[c.pos] == '@' {
		c.pos++
		start := c.pos
		for c.pos < len(c.input) && (isAlnum(c.input[c.pos]) || c.input[c.pos] == '-') {
			c.pos++
		}
		if c.pos == start {
			return nil, c.errorf("empty language tag")
		}
		lit.Lang = c.input[start:c.pos]
		return lit, nil
	}
	if strings.HasPrefix(c.input[c.pos:], "^^") {
		c.pos += 2
		var dt Term
		var err error
		if c.peek() == '<' {
			dt, err = c.iriRef()
		} else {
			dt, err = c.prefixedName()
		}
		if err != nil {
			return nil, err
		}
		lit.Datatype = dt.(IRI)
	}
	return normalizeLiteral(lit), nil
}

var errBadEscape = errors.New("invalid escape sequence")

func decodeStringEscape(s string) (rune, int, error) {
	if len(s) < 2 {
		return 0, 0, errBadEscape
	}
	switch s[1] {
	case 't':
		return '\t', 2, nil
	case 'b':
		return '\b', 2, nil
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 'f':
		return '\f', 2, nil
	case '"':
		return '"', 2, nil
	case '\'':
		return '\'', 2, nil
	case '\\':
		return '\\', 2, nil
	}
	return decodeUnicodeEscape(s)
}

func decodeUnicodeEscape(s string) (rune, int, error) {
	if len(s) < 2 {
		return 0, 0, errBadEscape
	}
	width := 0
	switch s[1] {
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		return 0, 0, errBadEscape
	}
	if len(s) < 2+width {
		return 0, 0, errBadEscape
	}
	v, err := strconv.ParseUint(s[2:2+width], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, 0, errBadEscape
	}
	return rune(v), 2 + width, nil
}

func resolveIRI(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return base + ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return base + ref
	}
	if refURL.Scheme != "" {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func isSpace(ch byte) bool { return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' }

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHex(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isAlnum(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// isPNChar reports bytes allowed inside prefixed and blank node names.
// Non-ASCII bytes are accepted as part of a multi-byte name character.
func isPNChar(ch byte) bool {
	return isAlnum(ch) || ch == '_' || ch == '-' || ch >= utf8.RuneSelf
}

// isNameStart reports whether r may start an XML-style local name.
func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
