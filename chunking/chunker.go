package chunking

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target window length in characters (roughly 256 model tokens).
	DefaultChunkSize = 800
	// DefaultOverlap is the carried-over context between consecutive windows.
	DefaultOverlap = 200
)

var (
	// ErrInvalidChunkSize indicates a non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	// ErrInvalidOverlap indicates a negative overlap or one not smaller than the chunk size.
	ErrInvalidOverlap = errors.New("overlap must be >= 0 and smaller than chunk size")
)

// Window is one chunk of a document.
// Start and End are character (rune) offsets into the normalized text
// returned by Normalize.
type Window struct {
	Text  string
	Start int
	End   int
}

// Chunker packs sentences into overlapping windows.
// A Chunker holds no mutable state and is safe for concurrent use.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the target window size.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
		}
		c.size = size
		return nil
	}
}

// WithOverlap sets the overlap between consecutive windows.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidOverlap, overlap)
		}
		c.overlap = overlap
		return nil
	}
}

// New creates a Chunker with DefaultChunkSize and DefaultOverlap unless overridden.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{size: DefaultChunkSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.size {
		return nil, fmt.Errorf("%w: overlap=%d size=%d", ErrInvalidOverlap, c.overlap, c.size)
	}
	return c, nil
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks text into windows ordered by start offset.
//
// Sentences are packed greedily until the next one would push the window past
// the chunk size; the first sentence of a window is always taken, so a single
// oversized sentence becomes its own window. The following window starts at
// the first sentence beginning at or after max(start, end-overlap), and always
// at least one sentence later than the previous start.
func (c *Chunker) Split(text string) []Window {
	sents := Sentences(text)
	if len(sents) == 0 {
		return nil
	}

	// Offsets refer to the sentences joined by single spaces. Sizes and
	// offsets count runes; byteAt maps a sentence start to its byte index.
	offsets := make([]int, len(sents))
	lengths := make([]int, len(sents))
	byteAt := make([]int, len(sents))
	var b strings.Builder
	pos := 0
	for i, s := range sents {
		if i > 0 {
			b.WriteByte(' ')
			pos++
		}
		offsets[i] = pos
		byteAt[i] = b.Len()
		lengths[i] = utf8.RuneCountInString(s)
		b.WriteString(s)
		pos += lengths[i]
	}
	joined := b.String()

	var windows []Window
	n := len(sents)
	i := 0
	for i < n {
		first := i
		start := offsets[first]
		end := start
		last := first
		for i < n {
			candEnd := offsets[i] + lengths[i]
			if candEnd-start > c.size && i > first {
				break
			}
			end = candEnd
			last = i
			i++
		}

		text := joined[byteAt[first] : byteAt[last]+len(sents[last])]
		windows = append(windows, Window{Text: text, Start: start, End: end})
		if i >= n {
			break
		}

		next := max(start, end-c.overlap)
		j := first
		for j < n && offsets[j] < next {
			j++
		}
		if j > first {
			i = j
		} else {
			i = first + 1
		}
	}
	return windows
}

// Normalize returns the text that window offsets refer to: line endings
// unified, sentences trimmed and joined by single spaces.
func Normalize(text string) string {
	return strings.Join(Sentences(text), " ")
}

// Sentences splits text after '.', '!', '?' or a newline that is followed by
// whitespace. Sentences are trimmed and empty ones dropped.
func Sentences(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	begin := 0
	for i := 0; i < len(text)-1; i++ {
		if !isTerminator(text[i]) || !isSpace(text[i+1]) {
			continue
		}
		if s := strings.TrimSpace(text[begin : i+1]); s != "" {
			out = append(out, s)
		}
		j := i + 1
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		begin = j
		i = j - 1
	}
	if s := strings.TrimSpace(text[begin:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?' || b == '\n'
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
