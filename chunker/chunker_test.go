package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/groundit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxChars, s.maxChars)
		assert.Equal(t, DefaultOverlap, s.overlap)
	})

	t.Run("custom params", func(t *testing.T) {
		s, err := New(WithMaxChars(500), WithOverlap(50))
		require.NoError(t, err)
		assert.Equal(t, 500, s.maxChars)
		assert.Equal(t, 50, s.overlap)
	})

	t.Run("zero maxChars rejected", func(t *testing.T) {
		_, err := New(WithMaxChars(0))
		assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	})

	t.Run("overlap not smaller than maxChars rejected", func(t *testing.T) {
		_, err := New(WithMaxChars(100), WithOverlap(100))
		assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	})

	t.Run("negative overlap rejected", func(t *testing.T) {
		_, err := New(WithOverlap(-1))
		assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	})
}

func TestSplitEmptyInput(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	assert.Empty(t, s.Split("doc-1", ""))
	assert.Empty(t, s.Split("doc-1", "   \n\t  "))
}

func TestSplitSingleChunk(t *testing.T) {
	s, err := New(WithMaxChars(100), WithOverlap(10))
	require.NoError(t, err)

	chunks := s.Split("doc-1", "a short document")
	require.Len(t, chunks, 1)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, uint32(0), chunks[0].Index)
	assert.Equal(t, "a short document", chunks[0].Text)
	assert.Equal(t, uint32(0), chunks[0].Start)
	assert.Equal(t, uint32(16), chunks[0].End)
}

func TestSplitScenario2500(t *testing.T) {
	// 2500 characters, maxChars=1000, overlap=100 must yield exactly 3 chunks
	// with contiguous indices 0,1,2.
	text := strings.Repeat("abcd ", 500)
	require.Len(t, text, 2500)

	s, err := New(WithMaxChars(1000), WithOverlap(100))
	require.NoError(t, err)

	chunks := s.Split("doc-1", text)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, uint32(i), c.Index)
	}
	assert.Equal(t, uint32(2500), chunks[2].End)
}

func TestSplitWordBoundaries(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	s, err := New(WithMaxChars(100), WithOverlap(20))
	require.NoError(t, err)

	chunks := s.Split("doc-1", text)
	require.NotEmpty(t, chunks)

	runes := []rune(text)
	for _, c := range chunks[:len(chunks)-1] {
		// Every non-final boundary must land on whitespace.
		boundary := runes[c.End]
		assert.Equal(t, ' ', boundary, "chunk %d ends mid-word at rune %d", c.Index, c.End)
	}
}

func TestSplitHardCutWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("x", 250)
	s, err := New(WithMaxChars(100), WithOverlap(10))
	require.NoError(t, err)

	chunks := s.Split("doc-1", text)
	require.Len(t, chunks, 3)
	assert.Equal(t, uint32(100), chunks[0].End)
	assert.Equal(t, uint32(90), chunks[1].Start)
	assert.Equal(t, uint32(250), chunks[2].End)
}

func TestSplitReconstruction(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		overlap  int
	}{
		{name: "prose", text: strings.Repeat("the quick brown fox jumps over the lazy dog ", 30), maxChars: 120, overlap: 30},
		{name: "no whitespace", text: strings.Repeat("abcdef", 100), maxChars: 64, overlap: 8},
		{name: "unicode", text: strings.Repeat("héllo wörld ünïcode ", 50), maxChars: 48, overlap: 12},
		{name: "zero overlap", text: strings.Repeat("alpha beta gamma ", 60), maxChars: 80, overlap: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(WithMaxChars(tt.maxChars), WithOverlap(tt.overlap))
			require.NoError(t, err)

			chunks := s.Split("doc-1", tt.text)
			require.NotEmpty(t, chunks)

			// Concatenate chunks at non-overlapping offsets.
			runes := []rune(tt.text)
			var sb strings.Builder
			prevEnd := uint32(0)
			for _, c := range chunks {
				text := []rune(c.Text)
				if c.Start < prevEnd {
					text = text[prevEnd-c.Start:]
				}
				sb.WriteString(string(text))
				prevEnd = c.End
			}

			got := strings.Join(strings.Fields(sb.String()), " ")
			want := strings.Join(strings.Fields(string(runes)), " ")
			assert.Equal(t, want, got)
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("determinism matters for indexing ", 50)
	s, err := New(WithMaxChars(200), WithOverlap(40))
	require.NoError(t, err)

	first := s.Split("doc-1", text)
	second := s.Split("doc-1", text)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}
