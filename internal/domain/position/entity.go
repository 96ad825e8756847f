// Package position models the spatial side of the analysis: symmetry
// normalization of spawn coordinates, density clusters over the
// normalized points, and the geometric labeling that turns opaque
// cluster IDs into stable position names.
package position

import (
	"math"

	"github.com/skirmishlabs/buildsight/internal/domain/telemetry"
)

// Point is a coordinate in the normalized (canonical-half) space.
type Point struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// DistanceTo returns the Euclidean distance to other.
func (p Point) DistanceTo(other Point) float64 {
	dx := p.X - other.X
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// NormalizedPoint pairs a spawn record with its canonical coordinates.
type NormalizedPoint struct {
	Record telemetry.SpawnRecord
	Norm   Point
}

// Cluster is one spatial cluster of normalized spawn points.
// ClusterID is the opaque integer assigned by the clustering
// algorithm; Name is the stable, human-meaningful identifier assigned
// afterward by the labeler.
type Cluster struct {
	ClusterID       int     `json:"clusterId"`
	Centroid        Point   `json:"centroid"`
	MemberCount     int     `json:"memberCount"`
	DistinctPlayers int     `json:"distinctPlayers"`
	DistinctMatches int     `json:"distinctMatches"`
	AvgSkill        float64 `json:"avgSkill"`
	Name            string  `json:"positionName"`
}

// Assignment records the labeled position of one non-noise spawn.
// (MatchID, PlayerID) is the join key into build-order analysis.
type Assignment struct {
	MatchID            string  `json:"matchId"`
	PlayerID           string  `json:"playerId"`
	AllyTeamID         int     `json:"allyTeamId"`
	Skill              float64 `json:"skill"`
	WonGame            bool    `json:"wonGame"`
	ClusterID          int     `json:"clusterId"`
	Name               string  `json:"positionName"`
	DistanceToCentroid float64 `json:"distanceToCentroid"`
}

// NearestCluster assigns an arbitrary normalized point to the closest
// labeled cluster centroid, returning the cluster and the distance.
// It returns ok=false when clusters is empty. Ties keep the earlier
// cluster in the slice, which labelers emit in name-priority order.
func NearestCluster(p Point, clusters []Cluster) (Cluster, float64, bool) {
	if len(clusters) == 0 {
		return Cluster{}, 0, false
	}
	best := clusters[0]
	bestDist := p.DistanceTo(best.Centroid)
	for _, c := range clusters[1:] {
		if d := p.DistanceTo(c.Centroid); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best, bestDist, true
}
