// Package chunk splits document text into overlapping windows sized for
// embedding.
package chunk

import (
	"errors"
	"fmt"
)

// ErrInvalidChunking reports window parameters under which splitting cannot
// terminate or makes no sense.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Split cuts text into windows of size runes. Each window starts
// size-overlap runes after the previous one, so consecutive windows share
// overlap runes and no part of the text falls between two windows. The last
// window is clipped to the end of the text. Empty input yields no windows.
//
// Split fails fast with ErrInvalidChunking when size is not positive or
// overlap is outside [0, size): an overlap at or above the window size would
// never advance the window.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, size), got size=%d overlap=%d", ErrInvalidChunking, size, overlap)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := size - overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out, nil
}
