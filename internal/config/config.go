package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"newsresearch/internal/domain"
)

// CredentialEnv names the environment variable holding the Google API key.
const CredentialEnv = "GOOGLE_API_KEY"

// PathEnv optionally points at a config file.
const PathEnv = "NEWSRESEARCH_CONFIG"

// LoaderConfig selects how article URLs are fetched.
type LoaderConfig struct {
	Type        string `yaml:"type"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	UserAgent   string `yaml:"user_agent"`
	MaxChars    int    `yaml:"max_chars"`
}

// ChunkerConfig configures how documents are split into chunks.
// ChunkOverlap is a pointer so an explicit 0 is kept.
type ChunkerConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap *int `yaml:"chunk_overlap"`
}

// GeminiEmbedderConfig holds configuration for the Gemini embedder.
type GeminiEmbedderConfig struct {
	Model             string `yaml:"model"`
	BatchSize         int    `yaml:"batch_size"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	Gemini *GeminiEmbedderConfig `yaml:"gemini,omitempty"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// IndexConfig locates the persisted index file.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// RetrieverConfig configures nearest-neighbour retrieval.
type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

// CompleterConfig selects and configures the language model.
type CompleterConfig struct {
	Type        string   `yaml:"type"`
	Model       string   `yaml:"model"`
	Temperature *float32 `yaml:"temperature"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

// SummarizerConfig configures the digest shown after processing.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Loader     LoaderConfig     `yaml:"loader"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Index      IndexConfig      `yaml:"index"`
	Retriever  RetrieverConfig  `yaml:"retriever"`
	Completer  CompleterConfig  `yaml:"completer"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Log        LogConfig        `yaml:"log"`
}

// LoadCredential returns the Google API key from the environment.
func LoadCredential() (string, error) {
	key := strings.TrimSpace(os.Getenv(CredentialEnv))
	if key == "" {
		return "", domain.ErrMissingCredential
	}
	return key, nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries $NEWSRESEARCH_CONFIG, ./config.yaml, then ~/.config/newsresearch/config.yaml.
// If none exists, it writes defaults to ~/.config/newsresearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		cfg, err := Load(p)
		return cfg, p, err
	}
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports configuration values the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunker.chunk_size must be positive, got %d", c.Chunker.ChunkSize)
	}
	if c.Chunker.ChunkOverlap == nil {
		return errors.New("chunker.chunk_overlap is not set")
	}
	if o := *c.Chunker.ChunkOverlap; o < 0 || o >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunker.chunk_overlap must be in [0, %d), got %d", c.Chunker.ChunkSize, o)
	}
	if c.Completer.Temperature == nil {
		return errors.New("completer.temperature is not set")
	}
	if c.Retriever.TopK < 1 {
		return fmt.Errorf("retriever.top_k must be at least 1, got %d", c.Retriever.TopK)
	}
	switch c.Loader.Type {
	case "http", "browser":
	default:
		return fmt.Errorf("unknown loader: %s", c.Loader.Type)
	}
	switch c.Embedder.Type {
	case "gemini", "tfidf":
	case "openai":
		if c.Embedder.OpenAI == nil {
			return errors.New("openai embedder config missing")
		}
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	if c.Completer.Type != "gemini" {
		return fmt.Errorf("unknown completer: %s", c.Completer.Type)
	}
	if c.Index.Path == "" {
		return errors.New("index.path is required")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "newsresearch", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Loader.Type == "" {
		cfg.Loader.Type = "http"
	}
	if cfg.Loader.TimeoutSecs == 0 {
		cfg.Loader.TimeoutSecs = 30
	}
	if cfg.Loader.UserAgent == "" {
		cfg.Loader.UserAgent = "Mozilla/5.0 (compatible; newsresearch/1.0)"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.ChunkOverlap == nil {
		// 200 for the default size; a fifth of smaller sizes.
		overlap := min(200, cfg.Chunker.ChunkSize/5)
		cfg.Chunker.ChunkOverlap = &overlap
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "gemini"
	}
	if cfg.Embedder.Type == "gemini" {
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &GeminiEmbedderConfig{}
		}
		if cfg.Embedder.Gemini.Model == "" {
			cfg.Embedder.Gemini.Model = "text-embedding-004"
		}
		if cfg.Embedder.Gemini.BatchSize == 0 {
			cfg.Embedder.Gemini.BatchSize = 100
		}
		if cfg.Embedder.Gemini.RequestsPerMinute == 0 {
			cfg.Embedder.Gemini.RequestsPerMinute = 1500
		}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		// Local servers usually need no key; only the hosted API gets one by default.
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
			if cfg.Embedder.OpenAI.APIKeyEnv == "" {
				cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
			}
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = filepath.Join("data", "index.gob")
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 4
	}
	if cfg.Completer.Type == "" {
		cfg.Completer.Type = "gemini"
	}
	if cfg.Completer.Model == "" {
		cfg.Completer.Model = "gemini-1.5-flash"
	}
	if cfg.Completer.Temperature == nil {
		temperature := float32(0.2)
		cfg.Completer.Temperature = &temperature
	}
	if cfg.Completer.TimeoutSecs == 0 {
		cfg.Completer.TimeoutSecs = 60
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "newsresearch.log"
	}
}
