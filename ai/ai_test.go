package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/geoknoesis/shacl-go/transform"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	user   string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.user = contents[0].Parts[0].Text
	f.config = config
	return f.resp, f.err
}

func reply(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, len(texts))
	for i, t := range texts {
		parts[i] = &genai.Part{Text: t}
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}}}
}

func TestExtractTurtle(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"plain", "  <a> <b> <c> .  ", "<a> <b> <c> ."},
		{"turtle fence", "Here:\n```turtle\n<a> <b> <c> .\n```\nDone.", "<a> <b> <c> ."},
		{"ttl fence", "```ttl\n<a> <b> <c> .\n```", "<a> <b> <c> ."},
		{"bare fence", "```\n<a> <b> <c> .\n```", "<a> <b> <c> ."},
		{"unterminated", "```turtle\n<a> <b> <c> .", "<a> <b> <c> ."},
		{"other info string", "```rdf\n<a> <b> <c> .\n```", "<a> <b> <c> ."},
		{"inline body kept", "```<a> <b> <c> .\n<d> <e> <f> .```", "<a> <b> <c> .\n<d> <e> <f> ."},
		{"turtle preferred", "```json\n{}\n```\n```turtle\n<a> <b> <c> .\n```", "<a> <b> <c> ."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTurtle(tt.answer))
		})
	}
}

func TestPrompt(t *testing.T) {
	system, user, err := Prompt(transform.Request{
		Task: transform.TaskSchemaToSHACL, Source: "Person(name)", SourceFormat: "owl", BaseNamespace: "http://e/",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, system)
	assert.Contains(t, user, "owl schema")
	assert.Contains(t, user, "Person(name)")
	assert.Contains(t, user, "<http://e/>")

	_, user, err = Prompt(transform.Request{Task: transform.TaskDataToSchema, Source: "{}", BaseSchema: "<x> a <y> ."})
	require.NoError(t, err)
	assert.Contains(t, user, "EXTEND")
	assert.Contains(t, user, "<x> a <y> .")
	assert.Contains(t, user, defaultBaseNamespace)

	_, user, err = Prompt(transform.Request{Task: transform.TaskDataToSchema, Source: "{}"})
	require.NoError(t, err)
	assert.Contains(t, user, "CREATE")

	system, user, err = Prompt(transform.Request{Task: transform.TaskMapData, Source: "{}", TargetSchema: "SCHEMA-TTL"})
	require.NoError(t, err)
	assert.Empty(t, system)
	assert.Contains(t, user, "SCHEMA-TTL")

	_, user, err = Prompt(transform.Request{Task: transform.TaskGenerateData, TargetSchema: "S", Prompt: "people", Count: 5})
	require.NoError(t, err)
	assert.Contains(t, user, "Generate 5 instances")
	assert.Contains(t, user, "people")

	_, _, err = Prompt(transform.Request{Task: "summarize"})
	assert.Error(t, err)
}

func TestTransform(t *testing.T) {
	fm := &fakeModels{resp: reply("```turtle\n<http://e/a> a <http://e/B> .\n", "```")}
	g := newGemini(fm, "", nil)
	out, err := g.Transform(context.Background(), transform.Request{Task: transform.TaskSchemaToSHACL, Source: "x"})
	require.NoError(t, err)
	assert.Equal(t, "<http://e/a> a <http://e/B> .", out)
	assert.Equal(t, DefaultModel, fm.model)
	assert.Equal(t, "Gemini:"+DefaultModel, g.Name())
	require.NotNil(t, fm.config.SystemInstruction)
	assert.EqualValues(t, maxOutputTokens, fm.config.MaxOutputTokens)

	_, err = g.Transform(context.Background(), transform.Request{Task: transform.TaskMapData, Source: "x"})
	require.NoError(t, err)
	assert.Nil(t, fm.config.SystemInstruction)
}

func TestTransformErrors(t *testing.T) {
	fm := &fakeModels{resp: &genai.GenerateContentResponse{}}
	g := newGemini(fm, "gemini-test", nil)
	_, err := g.Transform(context.Background(), transform.Request{Task: transform.TaskMapData})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	fm.resp = reply("   ")
	_, err = g.Transform(context.Background(), transform.Request{Task: transform.TaskMapData})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	boom := errors.New("quota exceeded")
	fm.err = boom
	_, err = g.Transform(context.Background(), transform.Request{Task: transform.TaskMapData})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "gemini-test", fm.model)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
