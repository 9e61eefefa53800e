package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"newsresearch/internal/answerer"
	"newsresearch/internal/chunker"
	"newsresearch/internal/domain"
	"newsresearch/internal/index"
	"newsresearch/internal/summarizer"
)

// Options wires the capabilities the service orchestrates.
type Options struct {
	Loader              domain.Loader
	Chunker             domain.Chunker
	Embedder            domain.Embedder
	Answerer            *answerer.Answerer
	Summarizer          domain.Summarizer
	SummaryMaxSentences int
	IndexPath           string
	Logger              *log.Logger
}

// Service is the application core. It owns the current index; nil means
// no index has been built or loaded. Actions run one at a time.
type Service struct {
	mu      sync.Mutex
	opts    Options
	current *index.Index
}

func New(opts Options) *Service {
	return &Service{opts: opts}
}

// Open loads the persisted index, if any. An index built by a different
// embedder is ignored and the service starts without one.
func (s *Service) Open(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, err := index.Load(s.opts.IndexPath)
	if err != nil {
		return err
	}
	if x == nil {
		s.opts.Logger.Info().Str("path", s.opts.IndexPath).Msg("no persisted index")
		return nil
	}
	if err := x.Restore(s.opts.Embedder); err != nil {
		if errors.Is(err, domain.ErrIndexIncompatible) {
			s.opts.Logger.Warn().Err(err).Str("path", s.opts.IndexPath).Msg("ignoring persisted index")
			return nil
		}
		return err
	}
	s.current = x
	meta := x.Meta()
	s.opts.Logger.Info().Str("path", s.opts.IndexPath).Str("index_id", meta.ID).Int("chunks", meta.Chunks).Msg("index loaded")
	return nil
}

// HasIndex reports whether questions can be answered.
func (s *Service) HasIndex() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// IndexMeta describes the current index.
func (s *Service) IndexMeta() (domain.IndexMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.IndexMeta{}, false
	}
	return s.current.Meta(), true
}

// Process rebuilds the index from urls. Blank entries are ignored; if none
// remain ErrEmptyInput is returned without fetching. On any failure the
// previous index stays in place.
func (s *Service) Process(ctx context.Context, urls []string) (domain.ProcessReport, error) {
	var cleaned []string
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	if len(cleaned) == 0 {
		return domain.ProcessReport{}, domain.ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	docs, err := s.opts.Loader.Load(ctx, cleaned)
	if err != nil {
		s.opts.Logger.Error().Err(err).Strs("urls", cleaned).Msg("ingestion failed")
		return domain.ProcessReport{}, err
	}
	chunks, err := chunker.ChunkAll(s.opts.Chunker, docs)
	if err != nil {
		return domain.ProcessReport{}, err
	}
	if len(chunks) == 0 {
		return domain.ProcessReport{}, errors.New("articles contained no text to index")
	}

	// A failed build must not disturb the embedder state the current index relies on.
	x, err := index.Build(ctx, s.opts.Embedder, chunks)
	if err != nil {
		s.restoreEmbedder()
		s.opts.Logger.Error().Err(err).Int("chunks", len(chunks)).Msg("index build failed")
		return domain.ProcessReport{}, err
	}
	if err := index.Save(s.opts.IndexPath, x); err != nil {
		s.restoreEmbedder()
		s.opts.Logger.Error().Err(err).Str("path", s.opts.IndexPath).Msg("index save failed")
		return domain.ProcessReport{}, fmt.Errorf("save index: %w", err)
	}
	s.current = x

	digest, err := summarizer.Digest(s.opts.Summarizer, docs, s.opts.SummaryMaxSentences)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Msg("digest failed")
	}
	meta := x.Meta()
	s.opts.Logger.Info().
		Str("index_id", meta.ID).
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Dur("duration", time.Since(start)).
		Msg("index rebuilt")
	return domain.ProcessReport{Index: meta, Documents: len(docs), Chunks: len(chunks), Digest: digest}, nil
}

// Ask answers question from the current index.
func (s *Service) Ask(ctx context.Context, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, domain.ErrEmptyQuery
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Answer{}, domain.ErrNoIndex
	}
	ans, err := s.opts.Answerer.Answer(ctx, s.current, s.opts.Embedder, question)
	if err != nil {
		s.opts.Logger.Error().Err(err).Str("question", question).Msg("answer failed")
		return domain.Answer{}, err
	}
	return ans, nil
}

func (s *Service) restoreEmbedder() {
	if s.current == nil {
		return
	}
	if err := s.current.Restore(s.opts.Embedder); err != nil {
		s.opts.Logger.Error().Err(err).Msg("restore embedder state")
	}
}
