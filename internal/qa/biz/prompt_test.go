package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/clinsop/internal/qa/store"
)

func TestBuildContextOrdering(t *testing.T) {
	chunks := []*store.RetrievedChunk{
		{Section: "4.2", Content: "Autoclave at 134C."},
		{Section: "4.3", Content: "Record each cycle."},
		{Section: "4.1", Content: "Wear sterile gloves."},
	}

	got := BuildContext(chunks)
	want := "[Section: 4.2] Autoclave at 134C.\n" +
		"[Section: 4.3] Record each cycle.\n" +
		"[Section: 4.1] Wear sterile gloves."
	assert.Equal(t, want, got)
}

func TestBuildContextEmpty(t *testing.T) {
	assert.Equal(t, NoContextPlaceholder, BuildContext(nil))
	assert.Equal(t, NoContextPlaceholder, BuildContext([]*store.RetrievedChunk{}))
}

func TestBuildSystemPromptContainsSentinel(t *testing.T) {
	prompt := BuildSystemPrompt(nil)
	assert.Contains(t, prompt, RefusalSentinel)
	assert.Contains(t, prompt, NoContextPlaceholder)
}

func TestBuildSystemPromptContainsRules(t *testing.T) {
	prompt := BuildSystemPrompt([]*store.RetrievedChunk{{Section: "2.1", Content: "Scrub for 3 minutes."}})

	assert.Contains(t, prompt, "[Section: 2.1] Scrub for 3 minutes.")
	assert.Contains(t, prompt, "Use ONLY the provided SOP context")
	assert.Contains(t, prompt, "bullet points")
	assert.Contains(t, prompt, "Cite the Section Number")
	assert.NotContains(t, prompt, NoContextPlaceholder)
}

// The verifier and the prompt builder share the sentinel constant. This
// pins the prompt's literal refusal instruction to the string the verifier
// matches, so one cannot change without the other.
func TestSentinelSharedWithVerifier(t *testing.T) {
	prompt := BuildSystemPrompt(nil)
	start := strings.Index(prompt, `respond EXACTLY: "`)
	assert.GreaterOrEqual(t, start, 0)
	assert.False(t, Verified(prompt))
}
