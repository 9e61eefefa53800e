package answerer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsresearch/internal/domain"
	"newsresearch/internal/logging"
)

var results = []domain.SearchResult{
	{Chunk: domain.Chunk{Source: "https://example.com/a", Text: "Rates rose."}, Score: 0.9},
	{Chunk: domain.Chunk{Source: "https://example.com/b", Text: "Storm hit."}, Score: 0.5},
	{Chunk: domain.Chunk{Source: "https://example.com/a", Text: "Markets fell."}, Score: 0.4},
}

type fakeSearcher struct{ topK int }

func (f *fakeSearcher) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	f.topK = topK
	return results[:min(topK, len(results))], nil
}

type fakeEmbedder struct{ err error }

func (fakeEmbedder) Name() string           { return "fake" }
func (fakeEmbedder) Prepare([]string) error { return nil }
func (fakeEmbedder) Dimension() int         { return 1 }
func (f fakeEmbedder) EmbedQuery(context.Context, string) ([]float64, error) {
	return []float64{1}, f.err
}
func (fakeEmbedder) EmbedDocuments(context.Context, []string) ([][]float64, error) {
	return nil, nil
}

type fakeCompleter struct {
	prompt string
	out    string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

func TestAnswer(t *testing.T) {
	c := &fakeCompleter{out: "FINAL ANSWER: Rates rose and a storm hit.\nSOURCES: https://example.com/b, https://example.com/a"}
	s := &fakeSearcher{}
	a := New(c, 3, logging.Discard())

	ans, err := a.Answer(context.Background(), s, fakeEmbedder{}, "What happened?")
	require.NoError(t, err)

	assert.Equal(t, 3, s.topK)
	assert.Equal(t, "Rates rose and a storm hit.", ans.Text)
	assert.Equal(t, []string{"https://example.com/b", "https://example.com/a"}, ans.Sources)
	assert.Contains(t, c.prompt, "QUESTION: What happened?")
	assert.Contains(t, c.prompt, "Content: Storm hit.\nSource: https://example.com/b")
}

func TestAnswerCompleterError(t *testing.T) {
	cause := errors.New("503 unavailable")
	a := New(&fakeCompleter{err: cause}, 2, logging.Discard())

	_, err := a.Answer(context.Background(), &fakeSearcher{}, fakeEmbedder{}, "q")
	var ae *domain.AnswerError
	require.True(t, errors.As(err, &ae))
	assert.ErrorIs(t, err, cause)
}

func TestAnswerEmbedError(t *testing.T) {
	c := &fakeCompleter{}
	a := New(c, 2, logging.Discard())

	_, err := a.Answer(context.Background(), &fakeSearcher{}, fakeEmbedder{err: errors.New("boom")}, "q")
	assert.Error(t, err)
	assert.Empty(t, c.prompt, "completer must not run")
}

func TestNewClampsTopK(t *testing.T) {
	s := &fakeSearcher{}
	a := New(&fakeCompleter{out: "x"}, 0, logging.Discard())

	_, err := a.Answer(context.Background(), s, fakeEmbedder{}, "q")
	require.NoError(t, err)
	assert.Equal(t, 1, s.topK)
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantText    string
		wantSources []string
	}{
		{
			name:        "comma separated",
			raw:         "FINAL ANSWER: Yes.\nSOURCES: https://example.com/a, https://example.com/b",
			wantText:    "Yes.",
			wantSources: []string{"https://example.com/a", "https://example.com/b"},
		},
		{
			name:        "bulleted and duplicated",
			raw:         "Yes.\nSources:\n- https://example.com/a\n- https://example.com/a.\n- https://example.com/b",
			wantText:    "Yes.",
			wantSources: []string{"https://example.com/a", "https://example.com/b"},
		},
		{
			name:        "unknown sources dropped",
			raw:         "Yes. SOURCES: https://evil.example.com, https://example.com/b",
			wantText:    "Yes.",
			wantSources: []string{"https://example.com/b"},
		},
		{
			name:     "no sources marker",
			raw:      "I don't know.",
			wantText: "I don't know.",
		},
		{
			name:        "empty answer",
			raw:         "FINAL ANSWER:\nSOURCES: https://example.com/a",
			wantText:    NoAnswer,
			wantSources: []string{"https://example.com/a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAnswer(tt.raw, results)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantSources, got.Sources)
		})
	}
}
