// Package dbscan implements density-based spatial clustering with
// noise rejection over 2D points.
//
// The implementation is deliberately deterministic: points are visited
// in input order, cluster expansion uses a FIFO queue, and neighbors
// are enumerated in index order, so a fixed input ordering and fixed
// parameters always produce the identical partition.
package dbscan

import "github.com/skirmishlabs/buildsight/pkg/errors"

// Noise is the label assigned to points not density-reachable from any
// core point.
const Noise = -1

// Point is a 2D sample.
type Point struct {
	X float64
	Z float64
}

// Result carries the clustering outcome. Labels is index-aligned with
// the input: Labels[i] is the 0-based cluster of point i, or Noise.
type Result struct {
	Labels      []int
	NumClusters int
	NumNoise    int
}

// Cluster partitions points into density-connected clusters plus a
// noise set. A point is a core point when at least minPts points
// (itself included) lie within Euclidean distance eps; clusters are
// grown by chaining density-reachable core points and their direct
// neighbors. Zero clusters is a valid outcome, not an error.
func Cluster(points []Point, eps float64, minPts int) (Result, error) {
	if eps <= 0 {
		return Result{}, errors.Newf(errors.ErrCodeValidation, "dbscan: eps must be positive, got %g", eps)
	}
	if minPts < 1 {
		return Result{}, errors.Newf(errors.ErrCodeValidation, "dbscan: minPts must be >= 1, got %d", minPts)
	}

	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	visited := make([]bool, n)

	epsSq := eps * eps
	nextCluster := 0

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := regionQuery(points, i, epsSq)
		if len(neighbors) < minPts {
			continue // stays noise unless claimed by a later core point
		}

		labels[i] = nextCluster
		expand(points, labels, visited, neighbors, nextCluster, epsSq, minPts)
		nextCluster++
	}

	numNoise := 0
	for _, l := range labels {
		if l == Noise {
			numNoise++
		}
	}

	return Result{Labels: labels, NumClusters: nextCluster, NumNoise: numNoise}, nil
}

// expand grows cluster c from a seed neighborhood using breadth-first
// traversal. The queue preserves discovery order, which keeps the
// partition reproducible.
func expand(points []Point, labels []int, visited []bool, seeds []int, c int, epsSq float64, minPts int) {
	queue := append([]int(nil), seeds...)
	for head := 0; head < len(queue); head++ {
		j := queue[head]

		if labels[j] == Noise {
			labels[j] = c // border or core point claimed by this cluster
		}
		if visited[j] {
			continue
		}
		visited[j] = true

		neighbors := regionQuery(points, j, epsSq)
		if len(neighbors) >= minPts {
			queue = append(queue, neighbors...)
		}
	}
}

// regionQuery returns the indices of all points within sqrt(epsSq) of
// point i, in ascending index order, including i itself.
func regionQuery(points []Point, i int, epsSq float64) []int {
	var out []int
	pi := points[i]
	for j, pj := range points {
		dx := pi.X - pj.X
		dz := pi.Z - pj.Z
		if dx*dx+dz*dz <= epsSq {
			out = append(out, j)
		}
	}
	return out
}
