package shacl

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/geoknoesis/shacl-go/rdf"
)

type checkFunc = func(v *validation, focus rdf.Term, values []rdf.Term) ([]failure, error)

// each reports a failure for every value for which ok is false.
func each(values []rdf.Term, ok func(rdf.Term) bool, message func(rdf.Term) string) []failure {
	var out []failure
	for _, value := range values {
		if !ok(value) {
			out = append(out, failure{value: value, message: message(value)})
		}
	}
	return out
}

func classCheck(class rdf.Term) checkFunc {
	return func(v *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		return each(values,
			func(value rdf.Term) bool { return v.isInstance(value, class) },
			func(value rdf.Term) string {
				return fmt.Sprintf("Value %s does not have class %s", show(value), show(class))
			}), nil
	}
}

func datatypeCheck(dt rdf.IRI) checkFunc {
	return func(_ *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		return each(values,
			func(value rdf.Term) bool {
				lit, ok := value.(rdf.Literal)
				return ok && literalDatatype(lit) == dt && wellFormed(lit.Lexical, dt)
			},
			func(value rdf.Term) string {
				return fmt.Sprintf("Value %s is not Literal with datatype %s", show(value), show(dt))
			}), nil
	}
}

// literalDatatype returns the effective datatype: xsd:string for plain
// literals and rdf:langString for tagged ones.
func literalDatatype(l rdf.Literal) rdf.IRI {
	switch {
	case l.Lang != "":
		return rdf.RDFLangStr
	case l.Datatype.IsZero():
		return rdf.XSDString
	}
	return l.Datatype
}

var (
	integerLexical  = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalLexical  = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)
	dateLexical     = regexp.MustCompile(`^-?[0-9]{4,}-[0-9]{2}-[0-9]{2}(Z|[+-][0-9]{2}:[0-9]{2})?$`)
	dateTimeLexical = regexp.MustCompile(`^-?[0-9]{4,}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}:[0-9]{2}(\.[0-9]+)?(Z|[+-][0-9]{2}:[0-9]{2})?$`)
)

var integerTypes = map[string]bool{
	"integer": true, "int": true, "long": true, "short": true, "byte": true,
	"nonNegativeInteger": true, "positiveInteger": true, "negativeInteger": true,
	"nonPositiveInteger": true, "unsignedInt": true, "unsignedLong": true,
	"unsignedShort": true, "unsignedByte": true,
}

// wellFormed checks the lexical space of common XSD datatypes. Datatypes it
// does not know are accepted.
func wellFormed(lexical string, dt rdf.IRI) bool {
	local, ok := strings.CutPrefix(dt.Value, rdf.XSDNS)
	if !ok {
		return true
	}
	switch {
	case integerTypes[local]:
		return integerLexical.MatchString(lexical)
	case local == "decimal":
		return decimalLexical.MatchString(lexical)
	case local == "double" || local == "float":
		if lexical == "INF" || lexical == "-INF" || lexical == "NaN" {
			return true
		}
		_, err := strconv.ParseFloat(lexical, 64)
		return err == nil
	case local == "boolean":
		switch lexical {
		case "true", "false", "1", "0":
			return true
		}
		return false
	case local == "date":
		return dateLexical.MatchString(lexical)
	case local == "dateTime":
		return dateTimeLexical.MatchString(lexical)
	}
	return true
}

func nodeKindCheck(kind rdf.IRI) checkFunc {
	allowed := map[rdf.TermKind]bool{}
	switch kind {
	case rdf.SHIRI:
		allowed[rdf.TermIRI] = true
	case rdf.SHBlankNode:
		allowed[rdf.TermBlankNode] = true
	case rdf.SHLiteral:
		allowed[rdf.TermLiteral] = true
	case rdf.SHBlankNodeOrIRI:
		allowed[rdf.TermIRI], allowed[rdf.TermBlankNode] = true, true
	case rdf.SHBlankNodeOrLiteral:
		allowed[rdf.TermBlankNode], allowed[rdf.TermLiteral] = true, true
	case rdf.SHIRIOrLiteral:
		allowed[rdf.TermIRI], allowed[rdf.TermLiteral] = true, true
	}
	return func(_ *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		return each(values,
			func(value rdf.Term) bool { return allowed[value.Kind()] },
			func(value rdf.Term) string {
				return fmt.Sprintf("Value %s is not of Node Kind %s", show(value), show(kind))
			}), nil
	}
}

func minCountCheck(s *shape, n int) checkFunc {
	return func(_ *validation, focus rdf.Term, values []rdf.Term) ([]failure, error) {
		if len(values) >= n {
			return nil, nil
		}
		return []failure{{message: fmt.Sprintf("Less than %d values on %s->%s", n, show(focus), s.path)}}, nil
	}
}

func maxCountCheck(s *shape, n int) checkFunc {
	return func(_ *validation, focus rdf.Term, values []rdf.Term) ([]failure, error) {
		if len(values) <= n {
			return nil, nil
		}
		return []failure{{message: fmt.Sprintf("More than %d values on %s->%s", n, show(focus), s.path)}}, nil
	}
}

func rangeCheck(bound rdf.Literal, ok func(int) bool, op string) checkFunc {
	return func(_ *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		return each(values,
			func(value rdf.Term) bool {
				cmp, comparable := compare(value, bound)
				return comparable && ok(cmp)
			},
			func(value rdf.Term) string {
				return fmt.Sprintf("Value %s is not %s %s", show(value), op, show(bound))
			}), nil
	}
}

func lengthCheck(n int, atLeast bool) checkFunc {
	return func(_ *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		return each(values,
			func(value rdf.Term) bool {
				s, ok := lexicalForm(value)
				if !ok {
					return false
				}
				l := utf8.RuneCountInString(s)
				if atLeast {
					return l >= n
				}
				return l <= n
			},
			func(value rdf.Term) string {
				if atLeast {
					return fmt.Sprintf("String length of %s is less than %d", show(value), n)
				}
				return fmt.Sprintf("String length of %s is greater than %d", show(value), n)
			}), nil
	}
}

func patternCheck(re *regexp.Regexp, src string) checkFunc {
	return func(_ *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		return each(values,
			func(value rdf.Term) bool {
				s, ok := lexicalForm(value)
				return ok && re.MatchString(s)
			},
			func(value rdf.Term) string {
				return fmt.Sprintf("Value %s does not match pattern '%s'", show(value), src)
			}), nil
	}
}

// lexicalForm is the string a length or pattern constraint sees. Blank
// nodes have none.
func lexicalForm(t rdf.Term) (string, bool) {
	switch v := t.(type) {
	case rdf.IRI:
		return v.Value, true
	case rdf.Literal:
		return v.Lexical, true
	}
	return "", false
}

func languageInCheck(langs []string) checkFunc {
	return func(_ *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		return each(values,
			func(value rdf.Term) bool {
				lit, ok := value.(rdf.Literal)
				if !ok || lit.Lang == "" {
					return false
				}
				for _, l := range langs {
					if langMatches(lit.Lang, l) {
						return true
					}
				}
				return false
			},
			func(value rdf.Term) string {
				return fmt.Sprintf("Language of %s is not in %v", show(value), langs)
			}), nil
	}
}

// langMatches implements basic filtering: "en" matches "en" and "en-GB".
func langMatches(tag, rangeTag string) bool {
	tag, rangeTag = strings.ToLower(tag), strings.ToLower(rangeTag)
	return rangeTag == "*" || tag == rangeTag || strings.HasPrefix(tag, rangeTag+"-")
}

func uniqueLangCheck() checkFunc {
	return func(_ *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		counts := make(map[string]int)
		var order []string
		for _, value := range values {
			if lit, ok := value.(rdf.Literal); ok && lit.Lang != "" {
				lang := strings.ToLower(lit.Lang)
				if counts[lang] == 0 {
					order = append(order, lang)
				}
				counts[lang]++
			}
		}
		var out []failure
		for _, lang := range order {
			if counts[lang] > 1 {
				out = append(out, failure{message: fmt.Sprintf("Language %q used more than once", lang)})
			}
		}
		return out, nil
	}
}

func equalsCheck(p rdf.IRI) checkFunc {
	return func(v *validation, focus rdf.Term, values []rdf.Term) ([]failure, error) {
		others := v.data.Objects(focus, p)
		var out []failure
		for _, value := range values {
			if !contains(others, value) {
				out = append(out, failure{value: value, message: fmt.Sprintf("Value %s is not a value of %s", show(value), show(p))})
			}
		}
		for _, other := range others {
			if !contains(values, other) {
				out = append(out, failure{value: other, message: fmt.Sprintf("Value %s of %s is missing", show(other), show(p))})
			}
		}
		return out, nil
	}
}

func disjointCheck(p rdf.IRI) checkFunc {
	return func(v *validation, focus rdf.Term, values []rdf.Term) ([]failure, error) {
		others := v.data.Objects(focus, p)
		return each(values,
			func(value rdf.Term) bool { return !contains(others, value) },
			func(value rdf.Term) string {
				return fmt.Sprintf("Value %s is also a value of %s", show(value), show(p))
			}), nil
	}
}

func lessThanCheck(p rdf.IRI, orEqual bool) checkFunc {
	op := "<"
	if orEqual {
		op = "<="
	}
	return func(v *validation, focus rdf.Term, values []rdf.Term) ([]failure, error) {
		others := v.data.Objects(focus, p)
		var out []failure
		for _, value := range values {
			for _, other := range others {
				cmp, ok := compare(value, other)
				if ok && (cmp < 0 || (orEqual && cmp == 0)) {
					continue
				}
				out = append(out, failure{value: value, message: fmt.Sprintf("Value %s is not %s %s", show(value), op, show(other))})
			}
		}
		return out, nil
	}
}

func notCheck(ref rdf.Term) checkFunc {
	return func(v *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		var out []failure
		for _, value := range values {
			ok, err := v.conforms(ref, value)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, failure{value: value, message: fmt.Sprintf("Value %s conforms to shape %s", show(value), show(ref))})
			}
		}
		return out, nil
	}
}

func logicalCheck(members []rdf.Term, want func(n, total int) bool, name string) checkFunc {
	return func(v *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		var out []failure
		for _, value := range values {
			n := 0
			for _, m := range members {
				ok, err := v.conforms(m, value)
				if err != nil {
					return nil, err
				}
				if ok {
					n++
				}
			}
			if !want(n, len(members)) {
				out = append(out, failure{value: value, message: fmt.Sprintf("Value %s does not satisfy sh:%s (%d of %d shapes matched)", show(value), name, n, len(members))})
			}
		}
		return out, nil
	}
}

func nodeCheck(ref rdf.Term) checkFunc {
	return func(v *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		var out []failure
		for _, value := range values {
			ok, err := v.conforms(ref, value)
			if err != nil {
				return nil, err
			}
			if !ok {
				out = append(out, failure{value: value, message: fmt.Sprintf("Value %s does not conform to shape %s", show(value), show(ref))})
			}
		}
		return out, nil
	}
}

func inCheck(items []rdf.Term) checkFunc {
	return func(_ *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		return each(values,
			func(value rdf.Term) bool { return contains(items, value) },
			func(value rdf.Term) string {
				shown := make([]string, len(items))
				for i, item := range items {
					shown[i] = show(item)
				}
				return fmt.Sprintf("Value %s not in list [%s]", show(value), strings.Join(shown, ", "))
			}), nil
	}
}

func hasValueCheck(expected rdf.Term) checkFunc {
	return func(_ *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		if contains(values, expected) {
			return nil, nil
		}
		return []failure{{message: fmt.Sprintf("Missing expected value %s", show(expected))}}, nil
	}
}

func closedCheck(allowed map[rdf.IRI]bool) checkFunc {
	return func(v *validation, _ rdf.Term, values []rdf.Term) ([]failure, error) {
		var out []failure
		for _, value := range values {
			for _, t := range v.data.Find(value, rdf.IRI{}, nil) {
				if allowed[t.P] {
					continue
				}
				out = append(out, failure{
					value:   t.O,
					path:    t.P,
					message: fmt.Sprintf("Node %s is closed. It cannot have value: %s", show(value), show(t.O)),
				})
			}
		}
		return out, nil
	}
}

func contains(terms []rdf.Term, t rdf.Term) bool {
	for _, x := range terms {
		if x == t {
			return true
		}
	}
	return false
}

var numericTypes = map[string]bool{"decimal": true, "double": true, "float": true}

func isNumeric(l rdf.Literal) bool {
	local, ok := strings.CutPrefix(l.Datatype.Value, rdf.XSDNS)
	return ok && (numericTypes[local] || integerTypes[local])
}

// compare orders two literals. Numbers compare by value across numeric
// datatypes; other literals compare lexically when they share a datatype.
func compare(a, b rdf.Term) (int, bool) {
	la, ok1 := a.(rdf.Literal)
	lb, ok2 := b.(rdf.Literal)
	if !ok1 || !ok2 {
		return 0, false
	}
	if isNumeric(la) && isNumeric(lb) {
		fa, ok1 := new(big.Float).SetString(la.Lexical)
		fb, ok2 := new(big.Float).SetString(lb.Lexical)
		if !ok1 || !ok2 {
			return 0, false
		}
		return fa.Cmp(fb), true
	}
	if literalDatatype(la) != literalDatatype(lb) || la.Lang != lb.Lang {
		return 0, false
	}
	return strings.Compare(la.Lexical, lb.Lexical), true
}

// show renders a term for messages.
func show(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.IRI:
		return "<" + v.Value + ">"
	case rdf.Literal:
		return v.String()
	case rdf.BlankNode:
		return v.String()
	case nil:
		return "(none)"
	}
	return t.String()
}
