package shacl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/geoknoesis/shacl-go/rdf"
)

// resultText renders results as an indented plain-text listing, one block
// per result. Unlabeled blank nodes are numbered b0, b1, ... in
// first-seen order.
func resultText(conforms bool, results []result, prefixes map[string]string) string {
	labels := make(map[rdf.BlankNode]string)
	short := func(t rdf.Term) string {
		if b, ok := t.(rdf.BlankNode); ok && b.Label() == "" {
			label, seen := labels[b]
			if !seen {
				label = "_:b" + strconv.Itoa(len(labels))
				labels[b] = label
			}
			return label
		}
		iri, ok := t.(rdf.IRI)
		if !ok {
			return show(t)
		}
		bestPrefix, bestNS := "", ""
		for prefix, ns := range prefixes {
			if ns == "" || !strings.HasPrefix(iri.Value, ns) {
				continue
			}
			if len(ns) > len(bestNS) || (len(ns) == len(bestNS) && prefix < bestPrefix) {
				bestPrefix, bestNS = prefix, ns
			}
		}
		if bestNS == "" {
			return "<" + iri.Value + ">"
		}
		return bestPrefix + ":" + iri.Value[len(bestNS):]
	}

	var b strings.Builder
	b.WriteString("Validation Report\n")
	fmt.Fprintf(&b, "Conforms: %s\n", capital(conforms))
	if len(results) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "Results (%d):\n", len(results))
	for _, r := range results {
		kind := "Violation"
		switch r.severity {
		case rdf.SHWarning:
			kind = "Warning"
		case rdf.SHInfo:
			kind = "Info"
		}
		local := strings.TrimPrefix(r.component.Value, rdf.SHNS)
		fmt.Fprintf(&b, "Constraint %s in %s (%s):\n", kind, local, r.component.Value)
		fmt.Fprintf(&b, "\tSeverity: %s\n", short(r.severity))
		fmt.Fprintf(&b, "\tSource Shape: %s\n", short(r.source))
		fmt.Fprintf(&b, "\tFocus Node: %s\n", short(r.focus))
		switch {
		case !r.pathIRI.IsZero():
			fmt.Fprintf(&b, "\tResult Path: %s\n", short(r.pathIRI))
		case r.path != nil && r.path.inverse:
			fmt.Fprintf(&b, "\tResult Path: [ sh:inversePath %s ]\n", short(r.path.pred))
		case r.path != nil:
			fmt.Fprintf(&b, "\tResult Path: %s\n", short(r.path.pred))
		}
		if r.value != nil {
			fmt.Fprintf(&b, "\tValue Node: %s\n", short(r.value))
		}
		fmt.Fprintf(&b, "\tMessage: %s\n", r.message)
	}
	return b.String()
}

func capital(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
