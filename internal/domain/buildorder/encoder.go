package buildorder

import "github.com/skirmishlabs/buildsight/internal/domain/telemetry"

// EncodeSequence converts an ordered build-step list into a token
// sequence of length at most maxLen, preserving order. Sequences are
// truncated, never padded; padding is the similarity metric's concern.
// Token equality downstream is exact-match: no semantic merging of
// similar units happens here.
func EncodeSequence(steps []telemetry.BuildStep, maxLen int) []string {
	if maxLen < 0 {
		maxLen = 0
	}
	n := len(steps)
	if n > maxLen {
		n = maxLen
	}
	tokens := make([]string, 0, n)
	for _, s := range steps[:n] {
		tokens = append(tokens, s.UnitToken)
	}
	return tokens
}
