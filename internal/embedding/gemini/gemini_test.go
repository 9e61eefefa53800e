package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"newsresearch/internal/logging"
)

type fakeModels struct {
	calls []*genai.EmbedContentConfig
	sizes []int
	err   error
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.calls = append(f.calls, cfg)
	f.sizes = append(f.sizes, len(contents))
	if f.err != nil {
		return nil, f.err
	}
	resp := &genai.EmbedContentResponse{}
	for _, c := range contents {
		n := float32(len(c.Parts[0].Text))
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: []float32{n, 1}})
	}
	return resp, nil
}

func TestEmbedDocumentsBatches(t *testing.T) {
	fm := &fakeModels{}
	e := newEmbedder(fm, Config{BatchSize: 2}, logging.Discard())

	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, fm.sizes)
	require.Len(t, vecs, 5)
	assert.Equal(t, []float64{3, 1}, vecs[2])
	assert.Equal(t, 2, e.Dimension())
	for _, c := range fm.calls {
		assert.Equal(t, taskDocument, c.TaskType)
	}
}

func TestEmbedQueryUsesQueryTask(t *testing.T) {
	fm := &fakeModels{}
	e := newEmbedder(fm, Config{}, logging.Discard())

	v, err := e.EmbedQuery(context.Background(), "What happened?")
	require.NoError(t, err)
	assert.Equal(t, []float64{14, 1}, v)
	assert.Equal(t, taskQuery, fm.calls[0].TaskType)
	assert.Equal(t, "gemini:text-embedding-004", e.Name())
}

func TestEmbedPropagatesErrors(t *testing.T) {
	cause := errors.New("permission denied")
	e := newEmbedder(&fakeModels{err: cause}, Config{}, logging.Discard())

	_, err := e.EmbedDocuments(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, cause)
}
