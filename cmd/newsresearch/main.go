package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"newsresearch/internal/answerer"
	"newsresearch/internal/chunker"
	"newsresearch/internal/completion/gemini"
	"newsresearch/internal/config"
	"newsresearch/internal/domain"
	geminiembed "newsresearch/internal/embedding/gemini"
	"newsresearch/internal/embedding/openai"
	"newsresearch/internal/embedding/tfidf"
	"newsresearch/internal/loader/browser"
	"newsresearch/internal/loader/web"
	"newsresearch/internal/logging"
	"newsresearch/internal/service"
	"newsresearch/internal/summarizer"
	"newsresearch/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so the browser loader's deferred Close runs.
func run() error {
	_ = godotenv.Load()

	apiKey, err := config.LoadCredential()
	if err != nil {
		return err
	}

	cfg, cfgPath, err := config.LoadDefault()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cfgPath, err)
	}

	logger := logging.New(cfg.Log)
	logger.Info().Str("config", cfgPath).Str("embedder", cfg.Embedder.Type).Str("loader", cfg.Loader.Type).Msg("starting")

	ctx := context.Background()

	// Assemble components
	var ld domain.Loader
	switch cfg.Loader.Type {
	case "http":
		ld = web.New(web.Config{
			Timeout:   time.Duration(cfg.Loader.TimeoutSecs) * time.Second,
			UserAgent: cfg.Loader.UserAgent,
			MaxChars:  cfg.Loader.MaxChars,
		}, logger)
	case "browser":
		b := browser.New(browser.Config{
			Timeout:   time.Duration(cfg.Loader.TimeoutSecs) * time.Second,
			UserAgent: cfg.Loader.UserAgent,
			MaxChars:  cfg.Loader.MaxChars,
		}, logger)
		defer b.Close()
		ld = b
	}

	ch, err := chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, *cfg.Chunker.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("chunker init failed: %w", err)
	}

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "gemini":
		e, err := geminiembed.New(ctx, geminiembed.Config{
			APIKey:            apiKey,
			Model:             cfg.Embedder.Gemini.Model,
			BatchSize:         cfg.Embedder.Gemini.BatchSize,
			RequestsPerMinute: cfg.Embedder.Gemini.RequestsPerMinute,
		}, logger)
		if err != nil {
			return fmt.Errorf("gemini embedder init failed: %w", err)
		}
		emb = e
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	case "tfidf":
		emb = tfidf.NewEmbedder()
	}

	var completer domain.Completer
	switch cfg.Completer.Type {
	case "gemini":
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:      apiKey,
			Model:       cfg.Completer.Model,
			Temperature: *cfg.Completer.Temperature,
			Timeout:     time.Duration(cfg.Completer.TimeoutSecs) * time.Second,
		}, logger)
		if err != nil {
			return fmt.Errorf("gemini completer init failed: %w", err)
		}
		completer = c
	}

	svc := service.New(service.Options{
		Loader:              ld,
		Chunker:             ch,
		Embedder:            emb,
		Answerer:            answerer.New(completer, cfg.Retriever.TopK, logger),
		Summarizer:          summarizer.NewFrequencySummarizer(),
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
		IndexPath:           cfg.Index.Path,
		Logger:              logger,
	})
	if err := svc.Open(ctx); err != nil {
		// An unreadable index is not fatal; the user can rebuild it.
		logger.Warn().Err(err).Str("path", cfg.Index.Path).Msg("starting without index")
	}

	if _, err := tea.NewProgram(tui.New(ctx, svc), tea.WithAltScreen()).Run(); err != nil {
		logger.Error().Err(err).Msg("tui exited")
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
