package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsresearch/internal/domain"
)

const story = `The central bank raised interest rates on Tuesday. Analysts expected the rate move.
The weather was mild. Interest rates are now at their highest level in a decade. Bank officials
said rates could rise again if inflation persists.`

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	s := NewFrequencySummarizer()

	out, err := s.Summarize(story, 2)
	require.NoError(t, err)

	assert.NotContains(t, out, "weather")
	first := strings.Index(out, "central bank")
	second := strings.Index(out, "inflation persists")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestSummarizeWithoutSentences(t *testing.T) {
	out, err := NewFrequencySummarizer().Summarize("  breaking news  ", 3)
	require.NoError(t, err)
	assert.Equal(t, "breaking news", out)
}

func TestSummarizeDeterministic(t *testing.T) {
	s := NewFrequencySummarizer()
	a, err := s.Summarize(story, 3)
	require.NoError(t, err)
	b, err := s.Summarize(story, 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDigest(t *testing.T) {
	docs := []domain.Document{
		{Source: "https://example.com/a", Title: "Rates rise", Content: story},
		{Source: "https://example.com/b", Content: "Storm hits the coast."},
	}

	out, err := Digest(NewFrequencySummarizer(), docs, 1)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Rates rise: "))
	assert.Equal(t, "https://example.com/b: Storm hits the coast.", lines[1])
}
