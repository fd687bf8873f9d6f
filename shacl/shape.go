package shacl

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/geoknoesis/shacl-go/rdf"
)

// ErrUnsupportedShape is returned for shapes using features outside the
// supported core, such as complex property paths.
var ErrUnsupportedShape = errors.New("shacl: unsupported shape")

var (
	shNode                = rdf.SH("node")
	shNot                 = rdf.SH("not")
	shAnd                 = rdf.SH("and")
	shOr                  = rdf.SH("or")
	shXone                = rdf.SH("xone")
	shEquals              = rdf.SH("equals")
	shDisjoint            = rdf.SH("disjoint")
	shLessThan            = rdf.SH("lessThan")
	shLessThanOrEquals    = rdf.SH("lessThanOrEquals")
	shClosed              = rdf.SH("closed")
	shIgnoredProperties   = rdf.SH("ignoredProperties")
	shUniqueLang          = rdf.SH("uniqueLang")
	shLanguageIn          = rdf.SH("languageIn")
	shAlternativePath     = rdf.SH("alternativePath")
	shZeroOrMorePath      = rdf.SH("zeroOrMorePath")
	shOneOrMorePath       = rdf.SH("oneOrMorePath")
	shZeroOrOnePath       = rdf.SH("zeroOrOnePath")
	shQualifiedValueShape = rdf.SH("qualifiedValueShape")
)

// path is a predicate path or the inverse of one.
type path struct {
	pred    rdf.IRI
	inverse bool
}

func (p *path) values(g *rdf.Graph, focus rdf.Term) []rdf.Term {
	if p.inverse {
		return g.Subjects(p.pred, focus)
	}
	return g.Objects(focus, p.pred)
}

// term writes the path into out and returns its node.
func (p *path) term(out *rdf.Graph) rdf.Term {
	if !p.inverse {
		return p.pred
	}
	b := rdf.NewBlankNode()
	out.Add(b, rdf.SHInversePath, p.pred)
	return b
}

func (p *path) String() string {
	if p.inverse {
		return "^<" + p.pred.Value + ">"
	}
	return "<" + p.pred.Value + ">"
}

func parsePath(g *rdf.Graph, node rdf.Term) (*path, error) {
	switch n := node.(type) {
	case rdf.IRI:
		return &path{pred: n}, nil
	case rdf.BlankNode:
		if inv, ok := g.Value(n, rdf.SHInversePath); ok {
			if iri, ok := inv.(rdf.IRI); ok {
				return &path{pred: iri, inverse: true}, nil
			}
		}
		for _, p := range []rdf.IRI{shAlternativePath, shZeroOrMorePath, shOneOrMorePath, shZeroOrOnePath} {
			if _, ok := g.Value(n, p); ok {
				return nil, fmt.Errorf("%w: %s path", ErrUnsupportedShape, strings.TrimPrefix(p.Value, rdf.SHNS))
			}
		}
		if _, ok := g.Value(n, rdf.RDFFirst); ok {
			return nil, fmt.Errorf("%w: sequence path", ErrUnsupportedShape)
		}
	}
	return nil, fmt.Errorf("%w: path %s", ErrUnsupportedShape, node)
}

// shape is a compiled node or property shape.
type shape struct {
	id          rdf.Term
	deactivated bool
	severity    rdf.IRI
	message     string
	path        *path
	constraints []constraint
	properties  []rdf.Term
}

func (s *shape) isProperty() bool { return s.path != nil }

// failure is one violated constraint for one value node.
type failure struct {
	value   rdf.Term
	message string
	// path overrides the shape's path, for sh:closed.
	path rdf.IRI
}

type constraint struct {
	component rdf.IRI
	check     checkFunc
}

func component(name string) rdf.IRI { return rdf.SH(name + "ConstraintComponent") }

// compiler turns shape nodes of a shapes graph into shapes, once each.
type compiler struct {
	g      *rdf.Graph
	shapes map[rdf.Term]*shape
}

func newCompiler(g *rdf.Graph) *compiler {
	return &compiler{g: g, shapes: make(map[rdf.Term]*shape)}
}

func (c *compiler) compile(id rdf.Term) (*shape, error) {
	if s, ok := c.shapes[id]; ok {
		return s, nil
	}
	g := c.g
	s := &shape{id: id, severity: rdf.SHViolation}
	c.shapes[id] = s
	if d, ok := g.Value(id, rdf.SHDeactivated); ok {
		if lit, ok := d.(rdf.Literal); ok && lit.Lexical == "true" {
			s.deactivated = true
		}
	}
	if sev, ok := g.Value(id, rdf.SHSeverity); ok {
		if iri, ok := sev.(rdf.IRI); ok {
			s.severity = iri
		}
	}
	if msg, ok := g.Value(id, rdf.SHMessage); ok {
		if lit, ok := msg.(rdf.Literal); ok {
			s.message = lit.Lexical
		}
	}
	if p, ok := g.Value(id, rdf.SHPath); ok {
		parsed, err := parsePath(g, p)
		if err != nil {
			delete(c.shapes, id)
			return nil, fmt.Errorf("shape %s: %w", id, err)
		}
		s.path = parsed
	}
	if _, ok := g.Value(id, shQualifiedValueShape); ok {
		delete(c.shapes, id)
		return nil, fmt.Errorf("%w: shape %s uses sh:qualifiedValueShape", ErrUnsupportedShape, id)
	}
	s.properties = g.Objects(id, rdf.SHProperty)
	if err := c.constraints(s); err != nil {
		delete(c.shapes, id)
		return nil, fmt.Errorf("shape %s: %w", id, err)
	}
	return s, nil
}

func (c *compiler) constraints(s *shape) error {
	g := c.g
	id := s.id
	add := func(name string, check checkFunc) {
		s.constraints = append(s.constraints, constraint{component: component(name), check: check})
	}

	for _, class := range g.Objects(id, rdf.SHClass) {
		add("Class", classCheck(class))
	}
	for _, dt := range g.Objects(id, rdf.SHDatatype) {
		iri, ok := dt.(rdf.IRI)
		if !ok {
			return fmt.Errorf("sh:datatype must be an IRI")
		}
		add("Datatype", datatypeCheck(iri))
	}
	for _, kind := range g.Objects(id, rdf.SHNodeKind) {
		iri, ok := kind.(rdf.IRI)
		if !ok {
			return fmt.Errorf("sh:nodeKind must be an IRI")
		}
		add("NodeKind", nodeKindCheck(iri))
	}
	if s.isProperty() {
		if n, ok, err := intParam(g, id, rdf.SHMinCount); err != nil {
			return err
		} else if ok {
			add("MinCount", minCountCheck(s, n))
		}
		if n, ok, err := intParam(g, id, rdf.SHMaxCount); err != nil {
			return err
		} else if ok {
			add("MaxCount", maxCountCheck(s, n))
		}
	}
	ranges := []struct {
		param rdf.IRI
		name  string
		ok    func(cmp int) bool
		op    string
	}{
		{rdf.SHMinExclusive, "MinExclusive", func(c int) bool { return c > 0 }, ">"},
		{rdf.SHMinInclusive, "MinInclusive", func(c int) bool { return c >= 0 }, ">="},
		{rdf.SHMaxExclusive, "MaxExclusive", func(c int) bool { return c < 0 }, "<"},
		{rdf.SHMaxInclusive, "MaxInclusive", func(c int) bool { return c <= 0 }, "<="},
	}
	for _, r := range ranges {
		for _, bound := range g.Objects(id, r.param) {
			lit, ok := bound.(rdf.Literal)
			if !ok {
				return fmt.Errorf("%s must be a literal", r.param.Value)
			}
			add(r.name, rangeCheck(lit, r.ok, r.op))
		}
	}
	if n, ok, err := intParam(g, id, rdf.SHMinLength); err != nil {
		return err
	} else if ok {
		add("MinLength", lengthCheck(n, true))
	}
	if n, ok, err := intParam(g, id, rdf.SHMaxLength); err != nil {
		return err
	} else if ok {
		add("MaxLength", lengthCheck(n, false))
	}
	for _, p := range g.Objects(id, rdf.SHPattern) {
		lit, ok := p.(rdf.Literal)
		if !ok {
			return fmt.Errorf("sh:pattern must be a literal")
		}
		flags := ""
		if f, ok := g.Value(id, rdf.SHFlags); ok {
			if fl, ok := f.(rdf.Literal); ok {
				flags = fl.Lexical
			}
		}
		re, err := compilePattern(lit.Lexical, flags)
		if err != nil {
			return err
		}
		add("Pattern", patternCheck(re, lit.Lexical))
	}
	for _, head := range g.Objects(id, shLanguageIn) {
		items, err := g.List(head)
		if err != nil {
			return fmt.Errorf("sh:languageIn: %w", err)
		}
		var langs []string
		for _, item := range items {
			if lit, ok := item.(rdf.Literal); ok {
				langs = append(langs, lit.Lexical)
			}
		}
		add("LanguageIn", languageInCheck(langs))
	}
	if s.isProperty() {
		if u, ok := g.Value(id, shUniqueLang); ok {
			if lit, ok := u.(rdf.Literal); ok && lit.Lexical == "true" {
				add("UniqueLang", uniqueLangCheck())
			}
		}
	}
	pairs := []struct {
		param rdf.IRI
		name  string
		build func(rdf.IRI) checkFunc
	}{
		{shEquals, "Equals", equalsCheck},
		{shDisjoint, "Disjoint", disjointCheck},
		{shLessThan, "LessThan", func(p rdf.IRI) checkFunc {
			return lessThanCheck(p, false)
		}},
		{shLessThanOrEquals, "LessThanOrEquals", func(p rdf.IRI) checkFunc {
			return lessThanCheck(p, true)
		}},
	}
	for _, pc := range pairs {
		for _, other := range g.Objects(id, pc.param) {
			iri, ok := other.(rdf.IRI)
			if !ok {
				return fmt.Errorf("%s must be an IRI", pc.param.Value)
			}
			add(pc.name, pc.build(iri))
		}
	}
	for _, ref := range g.Objects(id, shNot) {
		add("Not", notCheck(ref))
	}
	logical := []struct {
		param rdf.IRI
		name  string
		want  func(n, total int) bool
	}{
		{shAnd, "And", func(n, total int) bool { return n == total }},
		{shOr, "Or", func(n, _ int) bool { return n > 0 }},
		{shXone, "Xone", func(n, _ int) bool { return n == 1 }},
	}
	for _, l := range logical {
		for _, head := range g.Objects(id, l.param) {
			members, err := g.List(head)
			if err != nil {
				return fmt.Errorf("%s: %w", l.param.Value, err)
			}
			add(l.name, logicalCheck(members, l.want, strings.ToLower(l.name)))
		}
	}
	for _, ref := range g.Objects(id, shNode) {
		add("Node", nodeCheck(ref))
	}
	for _, head := range g.Objects(id, rdf.SHIn) {
		items, err := g.List(head)
		if err != nil {
			return fmt.Errorf("sh:in: %w", err)
		}
		add("In", inCheck(items))
	}
	for _, value := range g.Objects(id, rdf.SHHasValue) {
		add("HasValue", hasValueCheck(value))
	}
	if closed, ok := g.Value(id, shClosed); ok {
		if lit, ok := closed.(rdf.Literal); ok && lit.Lexical == "true" {
			allowed, err := c.closedAllowed(id)
			if err != nil {
				return err
			}
			add("Closed", closedCheck(allowed))
		}
	}
	return nil
}

// closedAllowed collects the predicates a closed shape permits: the paths
// of its property shapes plus sh:ignoredProperties.
func (c *compiler) closedAllowed(id rdf.Term) (map[rdf.IRI]bool, error) {
	allowed := make(map[rdf.IRI]bool)
	for _, ps := range c.g.Objects(id, rdf.SHProperty) {
		if p, ok := c.g.Value(ps, rdf.SHPath); ok {
			if iri, ok := p.(rdf.IRI); ok {
				allowed[iri] = true
			}
		}
	}
	for _, head := range c.g.Objects(id, shIgnoredProperties) {
		items, err := c.g.List(head)
		if err != nil {
			return nil, fmt.Errorf("sh:ignoredProperties: %w", err)
		}
		for _, item := range items {
			if iri, ok := item.(rdf.IRI); ok {
				allowed[iri] = true
			}
		}
	}
	return allowed, nil
}

func intParam(g *rdf.Graph, s rdf.Term, p rdf.IRI) (int, bool, error) {
	v, ok := g.Value(s, p)
	if !ok {
		return 0, false, nil
	}
	lit, ok := v.(rdf.Literal)
	if !ok {
		return 0, false, fmt.Errorf("%s must be an integer literal", p.Value)
	}
	n, err := strconv.Atoi(lit.Lexical)
	if err != nil || n < 0 {
		return 0, false, fmt.Errorf("%s must be a non-negative integer, got %q", p.Value, lit.Lexical)
	}
	return n, true, nil
}

// compilePattern maps SHACL/XPath regex flags onto RE2.
func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	var prefix strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix.WriteRune(f)
		case 'x':
			pattern = stripWhitespace(pattern)
		case 'q':
			pattern = regexp.QuoteMeta(pattern)
		default:
			return nil, fmt.Errorf("sh:flags: unsupported flag %q", f)
		}
	}
	if prefix.Len() > 0 {
		pattern = "(?" + prefix.String() + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("sh:pattern: %w", err)
	}
	return re, nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
