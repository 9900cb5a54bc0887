package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AnswerNote is an answer file being written into the vault while fragments
// arrive, so a crash mid-generation still leaves the partial answer on disk.
type AnswerNote struct {
	path string
	f    *os.File
	last byte
}

// CreateAnswerNote opens a fresh answer note under dir. The file name carries
// the prefix and creation time; O_EXCL turns a same-second collision into an
// error instead of a silent overwrite.
func CreateAnswerNote(dir, prefix, question, model string) (*AnswerNote, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create answers directory: %w", err)
	}

	now := time.Now()
	name := fmt.Sprintf("%s_%s.md", prefix, now.Format("2006-01-02_15-04-05"))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer note: %w", err)
	}

	header := fmt.Sprintf("---\ncreated: %s\nmodel: %s\n---\n\n# %s\n\n",
		now.Format(time.RFC3339), model, question)
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write note header: %w", err)
	}

	return &AnswerNote{path: path, f: f, last: '\n'}, nil
}

// Append writes an answer fragment to the note.
func (n *AnswerNote) Append(fragment string) error {
	if fragment == "" {
		return nil
	}
	if _, err := n.f.WriteString(fragment); err != nil {
		return fmt.Errorf("failed to append to answer note: %w", err)
	}
	n.last = fragment[len(fragment)-1]
	return nil
}

// Path returns the note's location on disk.
func (n *AnswerNote) Path() string {
	return n.path
}

// Close finishes the note, ending it with a newline when the answer did not.
func (n *AnswerNote) Close() error {
	if n.last != '\n' {
		if _, err := n.f.WriteString("\n"); err != nil {
			n.f.Close()
			return fmt.Errorf("failed to finish answer note: %w", err)
		}
	}
	return n.f.Close()
}
