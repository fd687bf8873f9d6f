package ai

import (
	"fmt"
	"strings"

	"github.com/geoknoesis/shacl-go/transform"
)

const defaultBaseNamespace = "http://example.com/ns/"

const systemPrompt = `You are an expert in W3C semantic web technologies specializing in SHACL schema generation and OWL ontology processing. Generate complete, standards-compliant SHACL shapes graphs.

Shapes you produce include:
- SHACL Core constraints (sh:datatype, sh:minCount, sh:maxCount, sh:pattern, sh:nodeKind, ...)
- logical constraints (sh:and, sh:or, sh:not, sh:xone) where the source implies them
- sh:name and sh:description for every shape
- SKOS concept schemes for enumerations
- IRIs for every shape node, never blank nodes

Answer with valid RDF Turtle only.`

// Prompt returns the system instruction and user message for req. The
// system instruction is empty for tasks that only need data output.
func Prompt(req transform.Request) (system, user string, err error) {
	switch req.Task {
	case transform.TaskSchemaToSHACL:
		return systemPrompt, schemaToSHACL(req), nil
	case transform.TaskDataToSchema:
		return systemPrompt, dataToSchema(req), nil
	case transform.TaskMapData:
		return "", mapData(req), nil
	case transform.TaskGenerateData:
		return "", generateData(req), nil
	}
	return "", "", fmt.Errorf("ai: unknown task %q", req.Task)
}

func baseNamespace(req transform.Request) string {
	if req.BaseNamespace != "" {
		return req.BaseNamespace
	}
	return defaultBaseNamespace
}

func schemaToSHACL(req transform.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Convert the following %s schema to SHACL.\n\n", sourceFormat(req))
	fmt.Fprintf(&b, "SOURCE SCHEMA:\n%s\n\n", req.Source)
	b.WriteString("REQUIREMENTS:\n")
	b.WriteString("- Include SHACL Core constraints for every property\n")
	b.WriteString("- Use sh:name and a descriptive sh:description for all shapes\n")
	b.WriteString("- Convert enumerations to SKOS concepts\n")
	b.WriteString("- Use IRIs for all shapes (no blank nodes)\n")
	b.WriteString("- Include sh:nodeKind, sh:message and sh:severity on property shapes\n")
	fmt.Fprintf(&b, "- Mint shape and class IRIs under the base namespace <%s>\n", baseNamespace(req))
	b.WriteString("\nOUTPUT FORMAT: Turtle\n")
	return b.String()
}

func dataToSchema(req transform.Request) string {
	var b strings.Builder
	if req.BaseSchema != "" {
		fmt.Fprintf(&b, "Analyze the following %s data and EXTEND the provided base schema.\n\n", sourceFormat(req))
		fmt.Fprintf(&b, "BASE SCHEMA:\n%s\n\n", req.BaseSchema)
		fmt.Fprintf(&b, "SOURCE DATA:\n%s\n\n", req.Source)
		b.WriteString("REQUIREMENTS:\n")
		b.WriteString("- Extend the base schema with additional shapes as needed\n")
		b.WriteString("- Keep every shape of the base schema\n")
	} else {
		fmt.Fprintf(&b, "Analyze the following %s data and CREATE a complete SHACL schema.\n\n", sourceFormat(req))
		fmt.Fprintf(&b, "SOURCE DATA:\n%s\n\n", req.Source)
		b.WriteString("REQUIREMENTS:\n")
	}
	b.WriteString("- Infer data types, cardinalities and constraints from the data\n")
	b.WriteString("- Convert enumerations to SKOS concepts\n")
	b.WriteString("- Add sh:description based on data patterns\n")
	fmt.Fprintf(&b, "- Mint IRIs under the base namespace <%s>\n", baseNamespace(req))
	b.WriteString("\nOUTPUT FORMAT: Turtle\n")
	return b.String()
}

func mapData(req transform.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Map the following %s data to conform to the target SHACL schema.\n\n", sourceFormat(req))
	fmt.Fprintf(&b, "TARGET SCHEMA:\n%s\n\n", req.TargetSchema)
	fmt.Fprintf(&b, "SOURCE DATA:\n%s\n\n", req.Source)
	b.WriteString("REQUIREMENTS:\n")
	b.WriteString("- Transform the data to match the schema structure\n")
	b.WriteString("- Apply type conversions as needed\n")
	fmt.Fprintf(&b, "- Generate entity IRIs under <%s>\n", baseNamespace(req))
	b.WriteString("- Satisfy every constraint of the schema\n")
	b.WriteString("\nOUTPUT FORMAT: Turtle\n")
	return b.String()
}

func generateData(req transform.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d instances of sample data conforming to the SHACL schema below.\n\n", req.Count)
	fmt.Fprintf(&b, "SCHEMA:\n%s\n\n", req.TargetSchema)
	if strings.TrimSpace(req.Prompt) != "" {
		fmt.Fprintf(&b, "DATA REQUIREMENTS:\n%s\n\n", req.Prompt)
	}
	b.WriteString("REQUIREMENTS:\n")
	b.WriteString("- All instances must validate against the schema\n")
	b.WriteString("- Generate realistic, diverse data\n")
	b.WriteString("- Include all required properties\n")
	fmt.Fprintf(&b, "- Mint instance IRIs under <%s>\n", baseNamespace(req))
	b.WriteString("\nOUTPUT FORMAT: Turtle\n")
	return b.String()
}

func sourceFormat(req transform.Request) string {
	if req.SourceFormat == "" {
		return "text"
	}
	return req.SourceFormat
}

// ExtractTurtle returns the first fenced code block of a model answer,
// preferring ```turtle and ```ttl fences, or the trimmed answer when it has
// no fence.
func ExtractTurtle(answer string) string {
	text := strings.TrimSpace(answer)
	for _, fence := range []string{"```turtle", "```ttl", "```"} {
		start := strings.Index(text, fence)
		if start < 0 {
			continue
		}
		body := text[start+len(fence):]
		// drop an info string such as ```rdf on the opening line
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(strings.TrimSpace(body[:nl]), " \t<:.") {
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return text
}
