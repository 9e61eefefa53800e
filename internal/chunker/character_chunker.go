package chunker

import (
	"fmt"
	"strconv"
	"strings"

	"newsresearch/internal/domain"
)

// CharacterChunker splits text into fixed-size character windows.
// Consecutive windows of the same document share exactly overlap characters;
// only the last window may be shorter than size.
type CharacterChunker struct {
	size    int
	overlap int
}

// NewCharacterChunker validates the window settings.
func NewCharacterChunker(size, overlap int) (*CharacterChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &CharacterChunker{size: size, overlap: overlap}, nil
}

// Chunk splits one document. Lengths are counted in runes.
func (c *CharacterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(document.Content) == "" {
		return nil, nil
	}
	runes := []rune(document.Content)
	stride := c.size - c.overlap

	var chunks []domain.Chunk
	for start, idx := 0, 0; ; start, idx = start+stride, idx+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(idx),
			Source:     document.Source,
			Text:       string(runes[start:end]),
			Index:      idx,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// ChunkAll chunks documents in order. Chunks never span documents.
func ChunkAll(c domain.Chunker, documents []domain.Document) ([]domain.Chunk, error) {
	var all []domain.Chunk
	for _, d := range documents {
		chunks, err := c.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.Source, err)
		}
		all = append(all, chunks...)
	}
	return all, nil
}
