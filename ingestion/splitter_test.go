package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlidingWindowSplitterValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{name: "valid defaults", size: DefaultChunkSize, overlap: DefaultChunkOverlap},
		{name: "zero overlap", size: 10, overlap: 0},
		{name: "zero size", size: 0, overlap: 0, wantErr: true},
		{name: "negative overlap", size: 10, overlap: -1, wantErr: true},
		{name: "overlap equals size", size: 10, overlap: 10, wantErr: true},
		{name: "overlap exceeds size", size: 10, overlap: 12, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSlidingWindowSplitter(tt.size, tt.overlap)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChunking)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitTextShortInput(t *testing.T) {
	s, err := NewSlidingWindowSplitter(100, 20)
	require.NoError(t, err)

	chunks, err := s.SplitText("short document")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short document", chunks[0])
}

func TestSplitTextEmptyInput(t *testing.T) {
	s, err := NewSlidingWindowSplitter(100, 20)
	require.NoError(t, err)

	chunks, err := s.SplitText("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitTextExactOverlap(t *testing.T) {
	const (
		size    = 50
		overlap = 10
	)
	s, err := NewSlidingWindowSplitter(size, overlap)
	require.NoError(t, err)

	text := strings.Repeat("abcdefghij", 37) // 370 characters
	chunks, err := s.SplitText(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-overlap:])
		assert.Equal(t, tail, chunks[i][:overlap],
			"chunk %d must start with the last %d characters of chunk %d", i, overlap, i-1)
	}

	// Concatenating chunks minus their overlaps reproduces the input.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, chunk := range chunks[1:] {
		rebuilt.WriteString(chunk[overlap:])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitTextChunkCount(t *testing.T) {
	const (
		size    = 100
		overlap = 25
	)
	s, err := NewSlidingWindowSplitter(size, overlap)
	require.NoError(t, err)

	tests := []struct {
		length int
		want   int
	}{
		{length: 1, want: 1},
		{length: 100, want: 1},
		{length: 101, want: 2},
		{length: 175, want: 2},
		{length: 176, want: 3},
		{length: 1000, want: 13},
	}

	for _, tt := range tests {
		chunks, err := s.SplitText(strings.Repeat("x", tt.length))
		require.NoError(t, err)
		assert.Len(t, chunks, tt.want, "length %d", tt.length)
	}
}

func TestSplitTextMultibyteRunes(t *testing.T) {
	s, err := NewSlidingWindowSplitter(4, 1)
	require.NoError(t, err)

	chunks, err := s.SplitText("héllo wörld")
	require.NoError(t, err)

	// Every chunk must remain valid UTF-8 with whole runes.
	for _, chunk := range chunks {
		assert.True(t, strings.ContainsRune("héllo wörld", []rune(chunk)[0]))
		assert.LessOrEqual(t, len([]rune(chunk)), 4)
	}
}
