package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkText(t *testing.T) {
	p := NewProcessor(nil, nil, nil, 100, 10, 0)

	t.Run("empty text yields no chunks", func(t *testing.T) {
		assert.Nil(t, p.chunkText(""))
		assert.Nil(t, p.chunkText("   \n  "))
	})

	t.Run("short text is a single chunk", func(t *testing.T) {
		chunks := p.chunkText("청년 고용 정책 안내")
		assert.Equal(t, []string{"청년 고용 정책 안내"}, chunks)
	})

	t.Run("long text splits with overlap", func(t *testing.T) {
		words := make([]string, 200)
		for i := range words {
			words[i] = "word"
		}
		chunks := p.chunkText(strings.Join(words, " "))

		assert.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 120, "chunks stay near the configured size")
		}

		// Overlap: the tail of one chunk reappears at the head of the next.
		tail := strings.Fields(chunks[0])
		head := strings.Fields(chunks[1])
		assert.Equal(t, tail[len(tail)-1], head[0])
	})
}
