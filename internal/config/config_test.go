package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsresearch/internal/domain"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, *cfg.Chunker.ChunkOverlap)
	assert.Equal(t, float32(0.2), *cfg.Completer.Temperature)
	assert.Equal(t, "gemini", cfg.Embedder.Type)
	assert.Equal(t, "http", cfg.Loader.Type)
	assert.Equal(t, 4, cfg.Retriever.TopK)
	assert.NoError(t, cfg.Validate())
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("chunker:\n  chunk_size: 500\n  chunk_overlap: 50\nembedder:\n  type: tfidf\nindex:\n  path: /tmp/x.gob\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 50, *cfg.Chunker.ChunkOverlap)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Nil(t, cfg.Embedder.Gemini)
	assert.Equal(t, "/tmp/x.gob", cfg.Index.Path)
	assert.Equal(t, "gemini-1.5-flash", cfg.Completer.Model)
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("chunker:\n  chunk_size: 500\n  chunk_overlap: 0\ncompleter:\n  temperature: 0\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, *cfg.Chunker.ChunkOverlap)
	assert.Equal(t, float32(0), *cfg.Completer.Temperature)
	assert.NoError(t, cfg.Validate())
}

func TestLoadSmallChunkSizeScalesOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker:\n  chunk_size: 150\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 150, cfg.Chunker.ChunkSize)
	assert.Equal(t, 30, *cfg.Chunker.ChunkOverlap)
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker: [1, 2"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Default()
	want.Retriever.TopK = 7
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"zero chunk size", func(c *AppConfig) { c.Chunker.ChunkSize = 0 }},
		{"overlap equals size", func(c *AppConfig) { c.Chunker.ChunkOverlap = ptr(c.Chunker.ChunkSize) }},
		{"negative overlap", func(c *AppConfig) { c.Chunker.ChunkOverlap = ptr(-1) }},
		{"unset overlap", func(c *AppConfig) { c.Chunker.ChunkOverlap = nil }},
		{"unset temperature", func(c *AppConfig) { c.Completer.Temperature = nil }},
		{"zero top k", func(c *AppConfig) { c.Retriever.TopK = 0 }},
		{"unknown loader", func(c *AppConfig) { c.Loader.Type = "ftp" }},
		{"unknown embedder", func(c *AppConfig) { c.Embedder.Type = "word2vec" }},
		{"openai without config", func(c *AppConfig) { c.Embedder.Type = "openai" }},
		{"unknown completer", func(c *AppConfig) { c.Completer.Type = "gpt" }},
		{"empty index path", func(c *AppConfig) { c.Index.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadCredential(t *testing.T) {
	t.Setenv(CredentialEnv, "")
	_, err := LoadCredential()
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	t.Setenv(CredentialEnv, "  ")
	_, err = LoadCredential()
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	t.Setenv(CredentialEnv, "secret")
	key, err := LoadCredential()
	require.NoError(t, err)
	assert.Equal(t, "secret", key)
}

func TestLoadDefaultHonoursEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retriever:\n  top_k: 2\n"), 0o644))
	t.Setenv(PathEnv, path)

	cfg, used, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 2, cfg.Retriever.TopK)
}

func ptr[T any](v T) *T { return &v }
