// Package ai binds board personas to the Gemini API. One client is shared
// by all personas; the persona only changes the system instruction.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"boardroom/domain"
	apperrors "boardroom/errors"

	"google.golang.org/genai"
)

const (
	maxAttempts  = 3
	initialDelay = 2 * time.Second
)

type GeminiGenerator struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, log *slog.Logger) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, log: log}, nil
}

// Generate produces one persona turn. Transient provider failures (rate
// limiting in particular) are retried with increasing backoff; the error
// returned after the last attempt is the caller's signal to fall back to
// placeholder text.
func (g *GeminiGenerator) Generate(ctx context.Context, systemInstruction string, history []domain.Utterance, prompt string) (string, error) {
	contents := genai.Text(BuildPrompt(history, prompt))
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	var lastErr error
	delay := initialDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			text := strings.TrimSpace(response.Text())
			if text != "" {
				return text, nil
			}
			err = fmt.Errorf("empty model response")
		}

		lastErr = err
		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		g.log.Warn("Gemini call failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", fmt.Errorf("%w after %d attempts: %v", apperrors.ErrGenerationFailed, maxAttempts, lastErr)
}

// BuildPrompt folds the transcript and the turn instruction into a single
// text block: the conversational context Gemini sees alongside the
// persona's system instruction.
func BuildPrompt(history []domain.Utterance, prompt string) string {
	var sb strings.Builder
	sb.WriteString("--- MEETING HISTORY ---\n")
	if len(history) == 0 {
		sb.WriteString("(no discussion yet)\n")
	}
	for _, u := range history {
		sb.WriteString(fmt.Sprintf("[%s]: %s\n", u.Speaker, u.Content))
	}
	sb.WriteString("\n--- CURRENT TASK ---\n")
	sb.WriteString(prompt)
	return sb.String()
}
