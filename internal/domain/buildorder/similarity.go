package buildorder

import "strings"

// Position-weight decay: token at index i carries weight 1/(1+0.1*i),
// so the opening of a build order dominates the comparison.
const indexWeightDecay = 0.1

// Partial-match credit for tokens that differ but share a type prefix
// (the substring before the first space), e.g. two factories of the
// same family.
const partialMatchScore = 0.5

// Similarity returns a score in [0, 1] between two token sequences.
// The shorter sequence is implicitly padded with an empty sentinel to
// the longer length; a sentinel never matches anything. At each index
// the match value is 1 for equal non-empty tokens, 0.5 for non-empty
// tokens sharing a type prefix, 0 otherwise, and the weighted match
// sum is normalized by the total weight.
//
// The metric is symmetric by construction (the per-index match is
// symmetric) and Similarity(a, a) == 1 for any non-empty a. Two empty
// sequences score 0. The derived distance 1-Similarity is not a true
// metric: no triangle inequality is guaranteed or required.
func Similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}

	var matched, total float64
	for i := 0; i < maxLen; i++ {
		weight := 1.0 / (1.0 + float64(i)*indexWeightDecay)
		total += weight

		ta := tokenAt(a, i)
		tb := tokenAt(b, i)
		if ta == "" || tb == "" {
			continue
		}
		switch {
		case ta == tb:
			matched += weight
		case typePrefix(ta) == typePrefix(tb):
			matched += weight * partialMatchScore
		}
	}

	if total == 0 {
		return 0
	}
	return matched / total
}

// Distance returns 1 - Similarity(a, b), the value consumed by the
// hierarchical clusterer.
func Distance(a, b []string) float64 {
	return 1 - Similarity(a, b)
}

// DistanceMatrix computes the full symmetric pairwise distance matrix
// for the given sequences. O(n^2) comparisons; callers bound n per
// position via the minimum-cluster-size configuration.
func DistanceMatrix(seqs []Sequence) [][]float64 {
	n := len(seqs)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(seqs[i].Tokens, seqs[j].Tokens)
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

func tokenAt(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// typePrefix returns the substring before the first space, the unit's
// family identifier ("Factory A" and "Factory B" share "Factory").
func typePrefix(token string) string {
	if idx := strings.IndexByte(token, ' '); idx >= 0 {
		return token[:idx]
	}
	return token
}
