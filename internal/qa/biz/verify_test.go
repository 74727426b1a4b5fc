package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerified(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"grounded answer", "- Autoclave at 134C for 18 minutes.\n(Section 4.2)", true},
		{"exact refusal", RefusalSentinel, false},
		{"refusal embedded in text", "Sorry. " + RefusalSentinel + " Thank you.", false},
		{"empty answer", "", true},
		{"case mismatch is not a refusal", "this information is not in the official sop. please consult your supervisor.", true},
		{"partial sentinel", "This information is not in the official SOP.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verified(tt.answer))
		})
	}
}
