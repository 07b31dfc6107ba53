// Package llm wraps the Gemini API to rephrase scripted assistant
// replies. The conversation never depends on it: any failure falls back
// to the scripted text.
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"realty_agent_backend/platform/config"
	"realty_agent_backend/platform/logger"
)

const systemPrompt = `You are a polite real-estate assistant for RealtyAssistant India.
Rewrite the given scripted reply in a warm, natural voice.
Keep every fact, name, number and question exactly as given.
Do not add new questions or information. Reply with the rewritten text only.`

// Rephraser rewrites scripted replies via Gemini.
type Rephraser struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// New creates a Gemini-backed rephraser.
func New(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (*Rephraser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Rephraser{client: client, model: cfg.GetGeminiModel(), log: log}, nil
}

// Rephrase returns a rewritten version of text, or an error when the
// model is unavailable or returned something unusable.
func (r *Rephraser) Rephrase(ctx context.Context, stage, text string) (string, error) {
	resp, err := r.client.Models.GenerateContent(ctx, r.model,
		genai.Text(text),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.6),
			MaxOutputTokens:   200,
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content (stage %s): %w", stage, err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("empty model response (stage %s)", stage)
	}
	// A runaway rewrite loses the script's intent; keep the original.
	if len(out) > 4*len(text)+200 {
		return "", fmt.Errorf("oversized model response (stage %s)", stage)
	}
	return out, nil
}
