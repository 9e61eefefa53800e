// Package index builds, persists and restores the searchable article index.
package index

import (
	"context"
	"encoding"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"newsresearch/internal/domain"
	"newsresearch/internal/vectorstore"
	"newsresearch/internal/vectorstore/memory"
)

// formatVersion is bumped whenever the on-disk layout changes.
const formatVersion = 1

// Index is an immutable nearest-neighbour index over embedded chunks.
type Index struct {
	meta          domain.IndexMeta
	embedderState []byte
	store         vectorstore.Storage
}

type file struct {
	Version       int
	Meta          domain.IndexMeta
	EmbedderState []byte
	Store         vectorstore.Snapshot
}

// Build embeds every chunk and returns a new index. On any failure no index is returned.
func Build(ctx context.Context, embedder domain.Embedder, chunks []domain.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to index")
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if err := embedder.Prepare(texts); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if d := embedder.Dimension(); d > 0 && d != len(vectors[0]) {
		return nil, fmt.Errorf("embedder %s reports dimension %d but returned %d", embedder.Name(), d, len(vectors[0]))
	}

	var store vectorstore.Storage = memory.NewStorage()
	if err := store.Init(len(vectors[0])); err != nil {
		return nil, err
	}
	if err := store.Upsert(chunks, vectors); err != nil {
		return nil, err
	}

	var state []byte
	if m, ok := embedder.(encoding.BinaryMarshaler); ok {
		if state, err = m.MarshalBinary(); err != nil {
			return nil, fmt.Errorf("snapshot embedder: %w", err)
		}
	}

	return &Index{
		meta: domain.IndexMeta{
			ID:        uuid.NewString(),
			Embedder:  embedder.Name(),
			Dimension: len(vectors[0]),
			Chunks:    store.Len(),
			Sources:   sources(chunks),
			CreatedAt: time.Now().UTC(),
		},
		embedderState: state,
		store:         store,
	}, nil
}

// Meta describes the index.
func (x *Index) Meta() domain.IndexMeta { return x.meta }

// Search returns the topK chunks closest to vector.
func (x *Index) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	return x.store.Search(vector, topK)
}

// Restore prepares embedder to embed queries into this index's vector space.
func (x *Index) Restore(embedder domain.Embedder) error {
	if embedder.Name() != x.meta.Embedder {
		return fmt.Errorf("%w: index uses %s, configured %s", domain.ErrIndexIncompatible, x.meta.Embedder, embedder.Name())
	}
	if len(x.embedderState) > 0 {
		u, ok := embedder.(encoding.BinaryUnmarshaler)
		if !ok {
			return fmt.Errorf("%w: embedder %s cannot restore state", domain.ErrIndexIncompatible, embedder.Name())
		}
		if err := u.UnmarshalBinary(x.embedderState); err != nil {
			return err
		}
	}
	// Remote embedders report 0 until their first call.
	if d := embedder.Dimension(); d > 0 && d != x.meta.Dimension {
		return fmt.Errorf("%w: index dimension %d, embedder %d", domain.ErrIndexIncompatible, x.meta.Dimension, d)
	}
	return nil
}

// Save writes the index to path. The file is written to a temporary sibling
// and renamed into place, so readers see either the old or the new index.
func Save(path string, x *Index) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	f := file{Version: formatVersion, Meta: x.meta, EmbedderState: x.embedderState, Store: x.store.Snapshot()}
	if err := gob.NewEncoder(tmp).Encode(&f); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move index to final location: %w", err)
	}
	return nil
}

// Load reads the index at path. A missing file yields (nil, nil).
func Load(path string) (*Index, error) {
	fh, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer fh.Close()

	var f file
	if err := gob.NewDecoder(fh).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if f.Version != formatVersion {
		return nil, fmt.Errorf("index %s has format version %d, want %d", path, f.Version, formatVersion)
	}
	store := memory.NewStorage()
	if err := store.Restore(f.Store); err != nil {
		return nil, fmt.Errorf("restore index %s: %w", path, err)
	}
	return &Index{meta: f.Meta, embedderState: f.EmbedderState, store: store}, nil
}

func sources(chunks []domain.Chunk) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ch := range chunks {
		if _, ok := seen[ch.Source]; ok {
			continue
		}
		seen[ch.Source] = struct{}{}
		out = append(out, ch.Source)
	}
	return out
}
