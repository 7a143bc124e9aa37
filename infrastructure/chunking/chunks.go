// Package chunking provides fixed-size text chunking with overlap for
// document indexing.
package chunking

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Params configures the chunking algorithm. Size and Overlap are measured
// in runes.
type Params struct {
	Size    int
	Overlap int
}

// DefaultParams returns the defaults for document chunking.
func DefaultParams() Params {
	return Params{
		Size:    1000,
		Overlap: 200,
	}
}

// Splitter splits text into overlapping bounded-size chunks.
//
// The algorithm uses three tiers:
//   - Tier 1: accumulate whole lines until the next line would exceed Size
//   - Tier 2: for lines exceeding Size, split on whitespace boundaries
//   - Tier 3: for tokens exceeding Size, split on rune boundaries
//
// Splitting is deterministic: the same input and parameters always produce
// the same chunk sequence.
type Splitter struct {
	params Params
}

// NewSplitter creates a Splitter. Overlap must be smaller than Size.
func NewSplitter(params Params) (Splitter, error) {
	if params.Size <= 0 {
		return Splitter{}, fmt.Errorf("chunk size must be positive, got %d", params.Size)
	}
	if params.Overlap < 0 || params.Overlap >= params.Size {
		return Splitter{}, fmt.Errorf("overlap (%d) must be in [0, size) with size %d", params.Overlap, params.Size)
	}
	return Splitter{params: params}, nil
}

// Params returns the configured chunk parameters.
func (s Splitter) Params() Params { return s.params }

// Split returns the chunk sequence for text. Whitespace-only input yields
// zero chunks; any other input yields at least one, and every character of
// the input appears in at least one chunk.
func (s Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := splitLines(text)
	var chunks []string
	var acc []string
	accRunes := 0
	carried := 0

	for _, line := range lines {
		lineRunes := utf8.RuneCountInString(line)

		if lineRunes > s.params.Size {
			// Flush accumulator before handling the long line.
			if len(acc) > carried {
				chunks = append(chunks, strings.Join(acc, ""))
			}
			acc, accRunes, carried = nil, 0, 0
			chunks = append(chunks, splitLongLine(line, s.params.Size, s.params.Overlap)...)
			continue
		}

		if accRunes+lineRunes > s.params.Size && accRunes > 0 {
			if len(acc) > carried {
				chunks = append(chunks, strings.Join(acc, ""))
				// Carry overlap lines from the end of the emitted chunk.
				acc, accRunes = overlapTail(acc, s.params.Overlap)
				carried = len(acc)
			} else {
				// Only carried overlap so far; drop it to make room.
				acc, accRunes, carried = nil, 0, 0
			}
		}

		acc = append(acc, line)
		accRunes += lineRunes
	}

	// Flush the accumulator unless it holds nothing beyond carried overlap.
	if len(acc) > carried {
		chunks = append(chunks, strings.Join(acc, ""))
	}

	return chunks
}

// splitLines splits text into lines, preserving the trailing \n on each
// line. The last segment is included even without a trailing \n.
func splitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:idx+1])
		text = text[idx+1:]
	}
	return lines
}

// overlapTail walks backward through lines and returns the trailing lines
// whose total rune count fits within the overlap budget.
func overlapTail(lines []string, overlap int) ([]string, int) {
	if overlap == 0 {
		return nil, 0
	}
	total := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		r := utf8.RuneCountInString(lines[i])
		if total+r > overlap {
			break
		}
		total += r
		start = i
	}
	if start == len(lines) {
		return nil, 0
	}
	tail := make([]string, len(lines)-start)
	copy(tail, lines[start:])
	return tail, total
}

// splitLongLine splits a line exceeding size on whitespace boundaries
// (Tier 2), falling back to rune boundaries (Tier 3) for oversized tokens.
func splitLongLine(line string, size, overlap int) []string {
	tokens := splitWhitespace(line)
	if len(tokens) <= 1 {
		return splitRunes(line, size, overlap)
	}
	return splitTokens(tokens, size, overlap)
}

// splitWhitespace splits a string into tokens at whitespace boundaries,
// keeping the whitespace attached to the preceding token.
func splitWhitespace(s string) []string {
	runes := []rune(s)
	var tokens []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if runes[i] == ' ' || runes[i] == '\t' {
			continue
		}
		if (runes[i-1] == ' ' || runes[i-1] == '\t') && i > start {
			tokens = append(tokens, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		tokens = append(tokens, string(runes[start:]))
	}
	return tokens
}

// splitTokens accumulates whitespace tokens into chunks of at most size
// runes (Tier 2). Oversized tokens are split via splitRunes (Tier 3).
func splitTokens(tokens []string, size, overlap int) []string {
	var result []string
	var acc []string
	accRunes := 0

	for _, tok := range tokens {
		tokRunes := utf8.RuneCountInString(tok)

		if tokRunes > size {
			if accRunes > 0 {
				result = append(result, strings.Join(acc, ""))
				acc, accRunes = nil, 0
			}
			result = append(result, splitRunes(tok, size, overlap)...)
			continue
		}

		if accRunes+tokRunes > size && accRunes > 0 {
			result = append(result, strings.Join(acc, ""))
			acc, accRunes = nil, 0
		}

		acc = append(acc, tok)
		accRunes += tokRunes
	}

	if accRunes > 0 {
		result = append(result, strings.Join(acc, ""))
	}

	return result
}

// splitRunes splits text into chunks of at most size runes, consecutive
// chunks overlapping by overlap runes (Tier 3).
func splitRunes(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap
	var result []string
	for i := 0; i < len(runes); i += step {
		end := min(i+size, len(runes))
		slice := runes[i:end]
		// A tail fully contained in the previous chunk's overlap region
		// carries no new content.
		if i > 0 && len(slice) <= overlap {
			break
		}
		result = append(result, string(slice))
	}
	return result
}
