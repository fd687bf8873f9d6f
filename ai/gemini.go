// Package ai implements transform.Transformer on top of Google's Gemini
// models.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/geoknoesis/shacl-go/transform"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

const maxOutputTokens = 8000

var (
	// ErrNoAPIKey is returned when no API key is available.
	ErrNoAPIKey = errors.New("ai: API key required (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("ai: empty response from model")
)

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini is a thin wrapper around the official genai client.
type Gemini struct {
	models generator
	model  string
	logger *slog.Logger
}

var _ transform.Transformer = (*Gemini)(nil)

// NewGemini creates a client for the Gemini API. An empty model uses
// DefaultModel; a nil logger uses slog.Default().
func NewGemini(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("ai: create client: %w", err)
	}
	return newGemini(cli.Models, model, logger), nil
}

func newGemini(models generator, model string, logger *slog.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{models: models, model: model, logger: logger}
}

// Name identifies the backing model.
func (g *Gemini) Name() string { return "Gemini:" + g.model }

// Transform builds the prompt for req, calls the model once and returns the
// Turtle block of its answer.
func (g *Gemini) Transform(ctx context.Context, req transform.Request) (string, error) {
	system, user, err := Prompt(req)
	if err != nil {
		return "", err
	}
	config := &genai.GenerateContentConfig{MaxOutputTokens: maxOutputTokens}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	g.logger.Debug("model request",
		slog.String("model", g.model),
		slog.String("task", string(req.Task)),
		slog.Int("bytes", len(system)+len(user)))

	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: user}}}},
		config,
	)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	turtle := ExtractTurtle(text)
	if turtle == "" {
		return "", ErrEmptyResponse
	}
	return turtle, nil
}
