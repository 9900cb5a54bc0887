package vault

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnswerNote(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "answers")

	note, err := CreateAnswerNote(dir, "answer", "What is a vault?", "llama3.1")
	if err != nil {
		t.Fatalf("CreateAnswerNote: %v", err)
	}

	if err := note.Append("A vault is "); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := note.Append("a folder of notes."); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := note.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	base := filepath.Base(note.Path())
	if !strings.HasPrefix(base, "answer_") || !strings.HasSuffix(base, ".md") {
		t.Errorf("note name = %q, want answer_<timestamp>.md", base)
	}

	data, err := os.ReadFile(note.Path())
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "---\ncreated: ") {
		t.Errorf("note is missing frontmatter:\n%s", content)
	}
	if !strings.Contains(content, "model: llama3.1\n") {
		t.Errorf("note is missing the model line:\n%s", content)
	}
	if !strings.Contains(content, "# What is a vault?\n") {
		t.Errorf("note is missing the question heading:\n%s", content)
	}
	if !strings.HasSuffix(content, "A vault is a folder of notes.\n") {
		t.Errorf("note body wrong or missing trailing newline:\n%s", content)
	}
}

func TestAnswerNoteEmptyAnswer(t *testing.T) {
	dir := t.TempDir()

	note, err := CreateAnswerNote(dir, "answer", "q", "m")
	if err != nil {
		t.Fatalf("CreateAnswerNote: %v", err)
	}
	if err := note.Append(""); err != nil {
		t.Fatalf("Append empty: %v", err)
	}
	if err := note.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(note.Path())
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	// Header only, no doubled trailing newline from Close.
	if !strings.HasSuffix(string(data), "# q\n\n") {
		t.Errorf("content = %q", string(data))
	}
}
