// Package hcluster implements hierarchical agglomerative clustering
// with average linkage over a precomputed pairwise distance matrix,
// plus a flat cut to a fixed cluster count.
//
// Determinism: merge candidates are scanned in cluster-creation order
// and only a strictly smaller linkage distance displaces the current
// best pair, so ties always resolve to the pair with the lowest
// creation indices. Average linkage is monotonic, which makes "merge
// until k clusters remain" equivalent to cutting the dendrogram at the
// smallest height that yields at most k flat clusters.
package hcluster

import "github.com/skirmishlabs/buildsight/pkg/errors"

// node is one active cluster during agglomeration. Leaves are created
// first (ids 0..n-1), merged clusters take the next id in sequence.
type node struct {
	id      int
	size    int
	members []int // original point indices, ascending first element
}

// Cut runs average-linkage agglomerative clustering over the full
// symmetric n x n distance matrix and returns flat labels for exactly
// k clusters. Labels are 1-based and numbered by each cluster's lowest
// original point index, so the assignment is reproducible across runs.
// k is clamped to [1, n].
func Cut(dist [][]float64, k int) ([]int, error) {
	n := len(dist)
	for i := range dist {
		if len(dist[i]) != n {
			return nil, errors.Newf(errors.ErrCodeDistanceMatrix, "hcluster: row %d has %d columns, want %d", i, len(dist[i]), n)
		}
	}
	if n == 0 {
		return nil, nil
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	// Active clusters, ordered by creation id.
	active := make([]*node, n)
	for i := 0; i < n; i++ {
		active[i] = &node{id: i, size: 1, members: []int{i}}
	}

	// linkage[a][b] is the average pairwise distance between the
	// member sets of the clusters created as id a and id b (a, b are
	// creation ids; only pairs of currently active ids are consulted).
	// Sized for all n-1 potential merges up front.
	total := 2*n - 1
	linkage := make([][]float64, total)
	for i := range linkage {
		linkage[i] = make([]float64, total)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			linkage[i][j] = dist[i][j]
		}
	}

	nextID := n
	for len(active) > k {
		// Find the closest pair, ties to lowest creation indices.
		bi, bj := 0, 1
		best := linkage[active[0].id][active[1].id]
		for i := 0; i < len(active); i++ {
			for j := i + 1; j < len(active); j++ {
				if d := linkage[active[i].id][active[j].id]; d < best {
					best, bi, bj = d, i, j
				}
			}
		}

		a, b := active[bi], active[bj]
		merged := &node{
			id:      nextID,
			size:    a.size + b.size,
			members: mergeMembers(a.members, b.members),
		}

		// Lance-Williams update for average linkage:
		// d(A∪B, C) = (|A|·d(A,C) + |B|·d(B,C)) / (|A|+|B|).
		for _, c := range active {
			if c == a || c == b {
				continue
			}
			d := (float64(a.size)*linkage[a.id][c.id] + float64(b.size)*linkage[b.id][c.id]) / float64(merged.size)
			linkage[merged.id][c.id] = d
			linkage[c.id][merged.id] = d
		}

		// Remove b first (higher slot) to keep bi valid.
		active = append(active[:bj], active[bj+1:]...)
		active[bi] = merged
		nextID++
	}

	// Number flat clusters by their lowest original member index.
	order := make([]*node, len(active))
	copy(order, active)
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && order[j].members[0] < order[j-1].members[0]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	labels := make([]int, n)
	for rank, c := range order {
		for _, m := range c.members {
			labels[m] = rank + 1
		}
	}
	return labels, nil
}

// mergeMembers merges two ascending index slices, preserving order.
func mergeMembers(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
