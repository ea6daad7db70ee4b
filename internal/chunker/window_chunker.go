package chunker

import (
	"fmt"
	"strings"
)

// WindowChunker splits text into fixed-size overlapping windows of Unicode
// code points. Every window after the first starts chunkSize-overlap code
// points after the previous one; the final window may be shorter.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

// NewWindowChunker validates chunkSize > overlap >= 0.
func NewWindowChunker(chunkSize, overlap int) (*WindowChunker, error) {
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be >= 0, got %d", overlap)
	}
	if chunkSize <= overlap {
		return nil, fmt.Errorf("chunk size (%d) must be greater than overlap (%d)", chunkSize, overlap)
	}
	return &WindowChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize returns the window size in code points.
func (c *WindowChunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the number of code points shared by consecutive windows.
func (c *WindowChunker) Overlap() int { return c.overlap }

// Split returns the windows of narrative. Blank input yields nil.
func (c *WindowChunker) Split(narrative string) []string {
	if strings.TrimSpace(narrative) == "" {
		return nil
	}
	runes := []rune(narrative)
	step := c.chunkSize - c.overlap
	var out []string
	for start := 0; ; start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
