// Package biz implements the question answering pipeline.
package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/clinsop/internal/qa/store"
)

// RefusalSentinel is the exact refusal sentence the assistant must produce
// when the answer is not in the retrieved context. The grounding check in
// Verified matches against this same constant, so the two can never drift
// apart.
const RefusalSentinel = "This information is not in the official SOP. Please consult your supervisor."

// NoContextPlaceholder replaces the context block when retrieval returned
// nothing. The context section is never omitted entirely.
const NoContextPlaceholder = "No context found."

// BuildContext renders the retrieved chunks as one context block, one line
// per chunk in retrieval order.
func BuildContext(chunks []*store.RetrievedChunk) string {
	if len(chunks) == 0 {
		return NoContextPlaceholder
	}

	lines := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		lines = append(lines, fmt.Sprintf("[Section: %s] %s", chunk.Section, chunk.Content))
	}
	return strings.Join(lines, "\n")
}

// BuildSystemPrompt builds the system instruction for the chat completion.
// It is a pure function of the retrieved chunks.
func BuildSystemPrompt(chunks []*store.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("You are a Clinical SOP Assistant.\n")
	b.WriteString("STRICT RULES:\n")
	b.WriteString("1. Use ONLY the provided SOP context to answer.\n")
	b.WriteString("2. Context: ")
	b.WriteString(BuildContext(chunks))
	b.WriteString("\n")
	b.WriteString(`3. If the answer is not in the context, respond EXACTLY: "` + RefusalSentinel + `"` + "\n")
	b.WriteString("4. Do not use your own training data or outside medical knowledge.\n")
	b.WriteString("5. Provide answers in bullet points.\n")
	b.WriteString("6. Cite the Section Number at the end of the answer.")
	return b.String()
}
