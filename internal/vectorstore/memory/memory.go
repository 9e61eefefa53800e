package memory

import (
	"errors"
	"math"
	"sort"
	"sync"

	"newsresearch/internal/domain"
	"newsresearch/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	chunks    []domain.Chunk
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.chunks = nil
	return nil
}

func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search returns the topK chunks by cosine similarity, best first.
// Ties keep insertion order so results are reproducible.
func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 4
	}
	if len(s.vectors) > 0 && len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = cosine(s.vectors[i], vector)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results, nil
}

// Len reports the number of stored vectors.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Snapshot copies the store's content.
func (s *Storage) Snapshot() vectorstore.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.Snapshot{
		Dimension: s.dimension,
		Chunks:    append([]domain.Chunk(nil), s.chunks...),
		Vectors:   append([][]float64(nil), s.vectors...),
	}
}

// Restore replaces the store's content with a snapshot.
func (s *Storage) Restore(snap vectorstore.Snapshot) error {
	if err := s.Init(snap.Dimension); err != nil {
		return err
	}
	return s.Upsert(snap.Chunks, snap.Vectors)
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
