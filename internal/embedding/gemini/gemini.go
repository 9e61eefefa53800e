package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

// models is the subset of *genai.Models used here.
type models interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Config configures the Gemini embedder.
type Config struct {
	APIKey            string
	Model             string
	BatchSize         int
	RequestsPerMinute int
}

// Embedder calls the Gemini embedding API in batches, paced by a rate limiter.
type Embedder struct {
	models    models
	model     string
	batchSize int
	limiter   *rate.Limiter
	dimension int
	logger    *log.Logger
}

// New creates a Gemini embedder backed by a genai client.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Embedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return newEmbedder(client.Models, cfg, logger), nil
}

func newEmbedder(m models, cfg Config, logger *log.Logger) *Embedder {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 1500
	}
	return &Embedder{
		models:    m,
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		limiter:   rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), max(1, cfg.RequestsPerMinute/10)),
		logger:    logger,
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "gemini:" + e.model }

// Prepare is a no-op for a remote model.
func (e *Embedder) Prepare(corpus []string) error { return nil }

// Dimension is known after the first successful call.
func (e *Embedder) Dimension() int { return e.dimension }

// EmbedDocuments embeds texts with the RETRIEVAL_DOCUMENT task type.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embed(ctx, texts[start:end], taskDocument)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// EmbedQuery embeds one query with the RETRIEVAL_QUERY task type.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.embed(ctx, []string{text}, taskQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) embed(ctx context.Context, texts []string, task string) ([][]float64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	start := time.Now()
	resp, err := e.models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{TaskType: task})
	if err != nil {
		e.logger.Error().Err(err).Int("texts", len(texts)).Str("task", task).Msg("gemini embedding failed")
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, errors.New("embedding count does not match input")
	}

	out := make([][]float64, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, errors.New("no embedding returned from API")
		}
		if e.dimension == 0 {
			e.dimension = len(emb.Values)
		}
		if len(emb.Values) != e.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(emb.Values))
		}
		v := make([]float64, len(emb.Values))
		for j, x := range emb.Values {
			v[j] = float64(x)
		}
		out[i] = v
	}
	e.logger.Debug().Int("texts", len(texts)).Str("task", task).Dur("duration", time.Since(start)).Msg("gemini embedding completed")
	return out, nil
}
