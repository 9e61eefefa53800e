package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsresearch/internal/domain"
)

func article(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		b.WriteString("Markets rallied on day ")
		b.WriteByte(byte('a' + i%26))
		b.WriteString(". ")
	}
	return b.String()[:n]
}

func TestCharacterChunkerInvariants(t *testing.T) {
	tests := []struct {
		name          string
		length        int
		size, overlap int
		wantChunks    int
	}{
		{"shorter than one chunk", 300, 1000, 200, 1},
		{"exactly one chunk", 1000, 1000, 200, 1},
		{"defaults", 2500, 1000, 200, 3},
		{"no overlap", 250, 100, 0, 3},
		{"large overlap", 100, 10, 9, 91},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCharacterChunker(tt.size, tt.overlap)
			require.NoError(t, err)
			doc := domain.Document{ID: "d1", Source: "https://example.com/a", Content: article(tt.length)}

			chunks, err := c.Chunk(doc)
			require.NoError(t, err)
			require.Len(t, chunks, tt.wantChunks)

			for i, ch := range chunks {
				runes := []rune(ch.Text)
				assert.LessOrEqual(t, len(runes), tt.size)
				assert.Equal(t, i, ch.Index)
				assert.Equal(t, "https://example.com/a", ch.Source)
				assert.Equal(t, "d1", ch.DocumentID)
				if i+1 < len(chunks) {
					assert.Len(t, runes, tt.size, "only the last chunk may be short")
					next := []rune(chunks[i+1].Text)
					assert.Equal(t, string(runes[tt.size-tt.overlap:]), string(next[:tt.overlap]))
				}
			}
			last := []rune(chunks[len(chunks)-1].Text)
			assert.True(t, strings.HasSuffix(doc.Content, string(last)))
		})
	}
}

func TestCharacterChunkerCountsRunes(t *testing.T) {
	c, err := NewCharacterChunker(4, 1)
	require.NoError(t, err)

	chunks, err := c.Chunk(domain.Document{ID: "d", Content: "héllo wörld"})
	require.NoError(t, err)

	got := make([]string, len(chunks))
	for i, ch := range chunks {
		got[i] = ch.Text
	}
	assert.Equal(t, []string{"héll", "lo w", "wörl", "ld"}, got)
}

func TestCharacterChunkerDeterministic(t *testing.T) {
	c, err := NewCharacterChunker(120, 30)
	require.NoError(t, err)
	doc := domain.Document{ID: "d", Source: "s", Content: article(1000)}

	first, err := c.Chunk(doc)
	require.NoError(t, err)
	second, err := c.Chunk(doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCharacterChunkerBlankDocument(t *testing.T) {
	c, err := NewCharacterChunker(10, 2)
	require.NoError(t, err)

	chunks, err := c.Chunk(domain.Document{ID: "d", Content: " \n\t "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestNewCharacterChunkerRejectsBadSettings(t *testing.T) {
	_, err := NewCharacterChunker(0, 0)
	assert.Error(t, err)
	_, err = NewCharacterChunker(10, 10)
	assert.Error(t, err)
	_, err = NewCharacterChunker(10, -1)
	assert.Error(t, err)
}

func TestChunkAllKeepsDocumentBoundaries(t *testing.T) {
	c, err := NewCharacterChunker(50, 10)
	require.NoError(t, err)
	docs := []domain.Document{
		{ID: "a", Source: "https://example.com/a", Content: article(120)},
		{ID: "b", Source: "https://example.com/b", Content: article(60)},
	}

	chunks, err := ChunkAll(c, docs)
	require.NoError(t, err)

	var sources []string
	for _, ch := range chunks {
		if len(sources) == 0 || sources[len(sources)-1] != ch.Source {
			sources = append(sources, ch.Source)
		}
		if ch.Source == "https://example.com/a" {
			assert.Contains(t, docs[0].Content, ch.Text)
		} else {
			assert.Contains(t, docs[1].Content, ch.Text)
		}
	}
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, sources)
}
