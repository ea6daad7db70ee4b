package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindowChunker_Validation(t *testing.T) {
	_, err := NewWindowChunker(50, 50)
	assert.Error(t, err)
	_, err = NewWindowChunker(10, -1)
	assert.Error(t, err)
	_, err = NewWindowChunker(10, 0)
	assert.NoError(t, err)
}

func TestSplit_ShortNarrativeIsSingleChunk(t *testing.T) {
	c, err := NewWindowChunker(300, 50)
	require.NoError(t, err)

	text := "My card was charged twice without authorization."
	assert.Equal(t, []string{text}, c.Split(text))
}

func TestSplit_BlankInput(t *testing.T) {
	c, err := NewWindowChunker(10, 2)
	require.NoError(t, err)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("  \n\t "))
}

func TestSplit_WindowProperties(t *testing.T) {
	texts := []string{
		"abcdefghijklmnopqrstuvwxyz",
		strings.Repeat("unauthorized charge on my account. ", 40),
		"überweisung fehlgeschlagen – gebühr doppelt berechnet ✓ ✓ ✓",
		"exactly10!",
	}
	params := [][2]int{{10, 0}, {10, 3}, {7, 6}, {300, 50}, {1, 0}}

	for _, text := range texts {
		for _, p := range params {
			size, overlap := p[0], p[1]
			c, err := NewWindowChunker(size, overlap)
			require.NoError(t, err)

			windows := c.Split(text)
			require.NotEmpty(t, windows)

			var rebuilt strings.Builder
			for i, w := range windows {
				n := utf8.RuneCountInString(w)
				assert.LessOrEqual(t, n, size)
				if i < len(windows)-1 {
					assert.Equal(t, size, n, "only the last window may be short")
				}
				if i == 0 {
					rebuilt.WriteString(w)
				} else {
					rebuilt.WriteString(string([]rune(w)[overlap:]))
				}
			}
			assert.Equal(t, text, rebuilt.String(), "size=%d overlap=%d", size, overlap)
		}
	}
}

func TestSplit_StartOffsetsAdvanceByStep(t *testing.T) {
	c, err := NewWindowChunker(4, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"abcd", "defg", "ghij"}, c.Split("abcdefghij"))
}

func TestSplit_Deterministic(t *testing.T) {
	c, err := NewWindowChunker(20, 5)
	require.NoError(t, err)

	text := strings.Repeat("late fee dispute ", 10)
	assert.Equal(t, c.Split(text), c.Split(text))
}
