// Package gemini adapts the Google Gemini API to provider.Backend.
package gemini

import (
	"context"
	"strings"

	"github.com/Cyclone1070/kiro/internal/provider"
)

// Backend implements provider.Backend for Google Gemini.
type Backend struct {
	client GeminiClient
}

// New creates a Gemini backend on top of client.
func New(client GeminiClient) *Backend {
	return &Backend{client: client}
}

// Complete sends the history and returns the model's reply text.
func (b *Backend) Complete(ctx context.Context, req *provider.Request) (string, error) {
	ctx, cancel := provider.WithTimeout(ctx, req.Options)
	defer cancel()

	messages := provider.Flatten(req.Turns)
	config := toGeminiConfig(req.Options)
	config.SystemInstruction = systemInstruction(req.System, messages)

	resp, err := b.client.GenerateContent(ctx, req.Options.Model, toGeminiContents(messages), config)
	if err != nil {
		return "", mapGeminiError(err)
	}
	return fromGeminiResponse(resp)
}

// ListModels implements provider.ModelLister.
func (b *Backend) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	models, err := b.client.ListModels(ctx)
	if err != nil {
		return nil, mapGeminiError(err)
	}
	out := make([]provider.ModelInfo, 0, len(models))
	for _, m := range models {
		out = append(out, provider.ModelInfo{Name: strings.TrimPrefix(m.Name, "models/")})
	}
	return out, nil
}
