package chunk

import (
	"errors"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name:    "empty text",
			text:    "",
			size:    10,
			overlap: 2,
			want:    nil,
		},
		{
			name:    "shorter than window",
			text:    "hello",
			size:    10,
			overlap: 2,
			want:    []string{"hello"},
		},
		{
			name:    "exact window",
			text:    "hello",
			size:    5,
			overlap: 2,
			want:    []string{"hello"},
		},
		{
			name:    "two windows with overlap",
			text:    "abcdefgh",
			size:    5,
			overlap: 2,
			want:    []string{"abcde", "defgh"},
		},
		{
			name:    "no overlap",
			text:    "abcdef",
			size:    3,
			overlap: 0,
			want:    []string{"abc", "def"},
		},
		{
			name:    "clipped tail",
			text:    "abcdefg",
			size:    3,
			overlap: 1,
			want:    []string{"abc", "cde", "efg"},
		},
		{
			name:    "multibyte runes",
			text:    "héllo wörld",
			size:    6,
			overlap: 1,
			want:    []string{"héllo ", " wörld"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.text, tt.size, tt.overlap)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Split() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Split()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitInvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "zero size", size: 0, overlap: 0},
		{name: "negative size", size: -1, overlap: 0},
		{name: "negative overlap", size: 10, overlap: -1},
		{name: "overlap equals size", size: 10, overlap: 10},
		{name: "overlap above size", size: 10, overlap: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text", tt.size, tt.overlap)
			if err == nil {
				t.Fatal("Split() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidChunking) {
				t.Errorf("Split() error = %v, want ErrInvalidChunking", err)
			}
		})
	}
}

// Every rune of the input must land in at least one window, and each window
// must match the original text at its offset.
func TestSplitFullCoverage(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{name: "long doc", text: strings.Repeat("x", 1200), size: 500, overlap: 50},
		{name: "heavy overlap", text: strings.Repeat("ab", 500), size: 500, overlap: 400},
		{name: "tiny windows", text: "the quick brown fox jumps over the lazy dog", size: 4, overlap: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(tt.text, tt.size, tt.overlap)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			runes := []rune(tt.text)
			step := tt.size - tt.overlap
			covered := 0
			for i, c := range chunks {
				start := i * step
				if start > covered {
					t.Fatalf("gap before chunk %d: covered up to %d, chunk starts at %d", i, covered, start)
				}
				got := []rune(c)
				if string(runes[start:start+len(got)]) != c {
					t.Fatalf("chunk %d does not match source at offset %d", i, start)
				}
				if start+len(got) > covered {
					covered = start + len(got)
				}
			}
			if covered != len(runes) {
				t.Fatalf("covered %d of %d runes", covered, len(runes))
			}
		})
	}
}

// 1200 runes at size 500 with overlap 50 advance 450 per window: offsets 0,
// 450 and 900 give three windows.
func TestSplitWindowCount(t *testing.T) {
	chunks, err := Split(strings.Repeat("a", 1200), 500, 50)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("Split() produced %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 500 || len(chunks[1]) != 500 || len(chunks[2]) != 300 {
		t.Errorf("chunk lengths = %d,%d,%d, want 500,500,300", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}
