package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"
)

// models is the subset of *genai.Models used here.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the Gemini completer.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Completer generates text with a Gemini chat model.
type Completer struct {
	models      models
	model       string
	temperature float32
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker
	logger      *log.Logger
}

// New creates a completer backed by a genai client.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Completer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return newCompleter(client.Models, cfg, logger), nil
}

func newCompleter(m models, cfg Config, logger *log.Logger) *Completer {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	// Three consecutive failures short-circuit calls for 30s.
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gemini-" + cfg.Model,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &Completer{models: m, model: cfg.Model, temperature: cfg.Temperature, timeout: cfg.Timeout, breaker: breaker, logger: logger}
}

// Complete sends prompt as a single user turn and returns the first non-empty candidate text.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature: genai.Ptr(c.temperature),
		})
	})
	if err != nil {
		c.logger.Error().Err(err).Str("model", c.model).Msg("chat completion failed")
		return "", fmt.Errorf("chat generation failed: %w", err)
	}

	text := candidateText(result.(*genai.GenerateContentResponse))
	if text == "" {
		return "", errors.New("model returned no text")
	}
	c.logger.Info().Str("model", c.model).Int("prompt_length", len(prompt)).Int("response_length", len(text)).Dur("duration", time.Since(start)).Msg("chat completion completed")
	return text, nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if p != nil && !p.Thought {
				b.WriteString(p.Text)
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}
