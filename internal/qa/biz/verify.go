package biz

import "strings"

// Verified reports whether an answer is grounded in the retrieved context.
// It returns false iff the answer contains the exact refusal sentinel
// substring, case sensitive. This is a substring heuristic, not semantic
// verification: an answer that quotes the sentinel for another reason is
// indistinguishable from a genuine refusal.
func Verified(answer string) bool {
	return !strings.Contains(answer, RefusalSentinel)
}
