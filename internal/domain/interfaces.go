package domain

import (
	"context"
	"time"
)

// Document is the extracted text of a single fetched article.
type Document struct {
	ID      string
	Source  string
	Title   string
	Content string
}

// Chunk is a bounded window of a document's text used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// IndexMeta describes a built index.
type IndexMeta struct {
	ID        string
	Embedder  string
	Dimension int
	Chunks    int
	Sources   []string
	CreatedAt time.Time
}

// Answer is the result of a question against the index.
type Answer struct {
	Text    string
	Sources []string
}

// ProcessReport summarises a successful processing run.
type ProcessReport struct {
	Index     IndexMeta
	Documents int
	Chunks    int
	Digest    string
}

// Loader fetches URLs and extracts their primary text.
// Implementations fail the whole batch when any URL fails.
type Loader interface {
	Load(ctx context.Context, urls []string) ([]Document, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// Searcher runs nearest-neighbour queries.
type Searcher interface {
	Search(vector []float64, topK int) ([]SearchResult, error)
}

// Completer produces text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
