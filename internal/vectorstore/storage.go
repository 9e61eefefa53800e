package vectorstore

import "newsresearch/internal/domain"

// Storage holds vectors and supports similarity search.
type Storage interface {
	Init(dimension int) error
	Upsert(chunks []domain.Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.SearchResult, error)
	Len() int
	Snapshot() Snapshot
	Restore(snap Snapshot) error
}

// Snapshot is the serialisable content of a Storage.
type Snapshot struct {
	Dimension int
	Chunks    []domain.Chunk
	Vectors   [][]float64
}
