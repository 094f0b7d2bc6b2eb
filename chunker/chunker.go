package chunker

import (
	"strings"
	"unicode"

	"github.com/poiesic/groundit/core"
)

const (
	// DefaultMaxChars is the default chunk size in runes.
	DefaultMaxChars = 1000

	// DefaultOverlap is the default overlap between consecutive chunks in runes.
	DefaultOverlap = 100
)

// Splitter splits document text into overlapping chunks.
type Splitter struct {
	maxChars int
	overlap  int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMaxChars sets the chunk size in runes.
func WithMaxChars(n int) Option {
	return func(s *Splitter) {
		s.maxChars = n
	}
}

// WithOverlap sets the overlap between consecutive chunks in runes.
func WithOverlap(n int) Option {
	return func(s *Splitter) {
		s.overlap = n
	}
}

// New creates a Splitter. Returns core.ErrInvalidConfig when maxChars is not
// positive or overlap is negative or not smaller than maxChars.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		maxChars: DefaultMaxChars,
		overlap:  DefaultOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := core.ValidateChunkParams(s.maxChars, s.overlap); err != nil {
		return nil, err
	}
	return s, nil
}

// Split chunks text into an ordered sequence with contiguous indices starting
// at 0. Empty or blank input yields an empty sequence, not an error.
func (s *Splitter) Split(documentID, text string) []core.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)

	var chunks []core.Chunk
	start := 0
	for start < total {
		// Stop once only whitespace remains.
		if strings.TrimSpace(string(runes[start:])) == "" {
			break
		}

		end := start + s.maxChars
		if end >= total {
			end = total
		} else {
			// Back off to the last whitespace inside the window so words stay
			// intact. A window without whitespace is cut hard at maxChars.
			if ws := lastWhitespace(runes, start, end); ws > start {
				end = ws
			}
		}

		chunks = append(chunks, core.Chunk{
			DocumentID: documentID,
			Index:      uint32(len(chunks)),
			Text:       string(runes[start:end]),
			Start:      uint32(start),
			End:        uint32(end),
		})

		if end == total {
			break
		}

		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// lastWhitespace returns the index of the last whitespace rune in
// runes[start:end], or start when the window contains none.
func lastWhitespace(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return start
}
