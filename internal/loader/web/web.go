package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phuslu/log"

	"newsresearch/internal/domain"
	"newsresearch/internal/loader"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 10 << 20

// Config configures the HTTP loader.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	MaxChars  int
}

// Loader fetches pages over plain HTTP.
type Loader struct {
	client    *http.Client
	userAgent string
	maxChars  int
	logger    *log.Logger
}

// New creates an HTTP loader.
func New(cfg Config, logger *log.Logger) *Loader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Loader{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxChars:  cfg.MaxChars,
		logger:    logger,
	}
}

// Load fetches every URL in order. The first failure aborts the batch.
func (l *Loader) Load(ctx context.Context, urls []string) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(urls))
	for _, u := range urls {
		start := time.Now()
		html, err := l.fetch(ctx, u)
		if err != nil {
			return nil, &domain.IngestionError{URL: u, Err: err}
		}
		doc, err := loader.Extract(html, u, l.maxChars)
		if err != nil {
			return nil, &domain.IngestionError{URL: u, Err: err}
		}
		l.logger.Info().Str("url", u).Str("title", doc.Title).Int("chars", len(doc.Content)).Dur("duration", time.Since(start)).Msg("article loaded")
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *Loader) fetch(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
