// Package chat answers the site's engineering-tutor chatbot questions through
// a generative model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"jobboard/internal/config"
	"jobboard/internal/metrics"
)

const systemPrompt = `You are an Engineering Tutor. Help with coding and engineering questions.
- Write clean code with comments
- Use ` + "```language" + ` for code blocks
- Be concise`

var (
	// ErrEmptyMessage is returned for blank questions.
	ErrEmptyMessage = errors.New("no message provided")
	// ErrNotConfigured is returned when no model is available.
	ErrNotConfigured = errors.New("chat is not configured")
	// ErrUnavailable is returned when every model failed or answered empty.
	ErrUnavailable = errors.New("AI service unavailable")
)

// DefaultModels is the fallback order used when none is configured.
var DefaultModels = []string{"gemini-1.5-flash", "gemini-2.0-flash-exp", "gemini-2.0-flash-lite"}

// Model is one named completion backend.
type Model struct {
	Name string
	LLM  llms.Model
}

// Tutor asks each model in turn and returns the first non-empty answer.
type Tutor struct {
	models      []Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// NewTutor builds a tutor over already constructed models.
func NewTutor(models []Model, temperature float64, maxTokens int, logger *slog.Logger) *Tutor {
	if logger == nil {
		logger = slog.Default()
	}
	if temperature <= 0 {
		temperature = 0.7
	}
	if maxTokens <= 0 {
		maxTokens = 800
	}
	return &Tutor{
		models:      models,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger.With(slog.String("component", "chat")),
	}
}

// NewGeminiTutor creates one googleai client per configured model. An empty
// API key yields a tutor that reports ErrNotConfigured.
func NewGeminiTutor(ctx context.Context, cfg config.ChatConfig, logger *slog.Logger) (*Tutor, error) {
	if cfg.APIKey == "" {
		return NewTutor(nil, cfg.Temperature, cfg.MaxTokens, logger), nil
	}
	names := cfg.Models
	if len(names) == 0 {
		names = DefaultModels
	}
	models := make([]Model, 0, len(names))
	for _, name := range names {
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(name),
		)
		if err != nil {
			return nil, fmt.Errorf("init gemini model %s: %w", name, err)
		}
		models = append(models, Model{Name: name, LLM: llm})
	}
	return NewTutor(models, cfg.Temperature, cfg.MaxTokens, logger), nil
}

// Configured reports whether at least one model is available.
func (t *Tutor) Configured() bool {
	return len(t.models) > 0
}

// Prompt wraps a question in the tutor instructions.
func Prompt(message string) string {
	return systemPrompt + "\n\nQ: " + message + "\n\nA:"
}

// Ask returns the tutor's answer to message.
func (t *Tutor) Ask(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if !t.Configured() {
		return "", ErrNotConfigured
	}

	prompt := Prompt(message)
	var lastErr error
	for _, m := range t.models {
		answer, err := llms.GenerateFromSinglePrompt(ctx, m.LLM, prompt,
			llms.WithModel(m.Name),
			llms.WithTemperature(t.temperature),
			llms.WithMaxTokens(t.maxTokens),
		)
		if err == nil && strings.TrimSpace(answer) != "" {
			metrics.ChatCompletion(m.Name, true)
			return answer, nil
		}
		metrics.ChatCompletion(m.Name, false)
		if err == nil {
			err = errors.New("empty answer")
		}
		lastErr = err
		t.logger.Warn("tutor model failed, trying next", slog.String("model", m.Name), slog.Any("error", err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}
