package pipeline

import (
	"strings"
	"testing"
)

func TestComposePrompt(t *testing.T) {
	prompt := ComposePrompt("", "keep it short", []string{"first doc", "second doc"}, "what now?")

	if !strings.HasPrefix(prompt, DefaultInstruction) {
		t.Error("empty instruction did not fall back to the default")
	}
	if !strings.Contains(prompt, "keep it short") {
		t.Error("guidance missing")
	}
	if !strings.Contains(prompt, "[1] first doc") || !strings.Contains(prompt, "[2] second doc") {
		t.Errorf("context not numbered in order:\n%s", prompt)
	}
	if strings.Index(prompt, "[1] first doc") > strings.Index(prompt, "[2] second doc") {
		t.Error("context out of relevance order")
	}
	if !strings.Contains(prompt, "Question: what now?") {
		t.Error("question missing")
	}
	if !strings.HasSuffix(prompt, "Answer:") {
		t.Errorf("prompt does not end with the answer cue:\n%s", prompt)
	}
}

func TestComposePromptWithoutGuidance(t *testing.T) {
	prompt := ComposePrompt("Custom instruction.", "", nil, "q")

	if !strings.HasPrefix(prompt, "Custom instruction.") {
		t.Error("custom instruction ignored")
	}
	if strings.Contains(prompt, "guidance") {
		t.Error("guidance block present despite empty guidance")
	}
}
