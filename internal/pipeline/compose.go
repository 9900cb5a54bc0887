package pipeline

import (
	"fmt"
	"strings"
)

// DefaultInstruction is the instruction block used when configuration does
// not override it.
const DefaultInstruction = "You answer questions about the user's notes. " +
	"Base the answer only on the context below. " +
	"When the context does not cover the question, say so instead of guessing."

// ComposePrompt builds the generation prompt once per run: instruction,
// optional user guidance, retrieved context in relevance order, then the
// question.
func ComposePrompt(instruction, guidance string, contextDocs []string, question string) string {
	if instruction == "" {
		instruction = DefaultInstruction
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n")

	if guidance != "" {
		b.WriteString("\nAdditional guidance from the user: ")
		b.WriteString(guidance)
		b.WriteString("\n")
	}

	b.WriteString("\nContext:\n")
	for i, doc := range contextDocs {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, doc)
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
