package transform

import "context"

// Task names the job handed to an intelligent transformer.
type Task string

const (
	TaskSchemaToSHACL Task = "schema-to-shacl"
	TaskDataToSchema  Task = "data-to-schema"
	TaskMapData       Task = "map-data"
	TaskGenerateData  Task = "generate-data"
)

// Request carries the inputs of one transformer call. Which fields are set
// depends on Task.
type Request struct {
	Task Task
	// Source is the schema or data text being transformed.
	Source       string
	SourceFormat string
	// BaseSchema is an optional Turtle shapes graph to extend
	// (data-to-schema).
	BaseSchema string
	// TargetSchema is the Turtle shapes graph that output must conform to
	// (map-data, generate-data).
	TargetSchema string
	// Prompt describes the desired data (generate-data).
	Prompt string
	// Count is the number of instances to generate (generate-data).
	Count         int
	BaseNamespace string
}

// Transformer is an intelligent collaborator that answers a Request with
// Turtle text.
type Transformer interface {
	Transform(ctx context.Context, req Request) (string, error)
}
