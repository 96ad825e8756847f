package position

import (
	"fmt"
	"sort"

	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
)

// CanonicalNames is the position name list in priority order. The
// cluster whose centroid lies closest to the enemy corner (the origin
// of the normalized space) takes the first name, and so on outward.
var CanonicalNames = []string{
	"front-1",
	"front-2",
	"geo",
	"geo-sea",
	"air",
	"eco",
	"pond",
	"long-sea",
}

// Labeler assigns semantic names to spatial clusters using a geometric
// ranking heuristic. It is not a classifier: it assumes the clustering
// step produced roughly the expected number and arrangement of
// clusters, and mislabeling under unusual eps/minPts settings is an
// accepted limitation.
type Labeler struct {
	log logging.Logger
}

// NewLabeler constructs a Labeler.
func NewLabeler(log logging.Logger) Labeler {
	return Labeler{log: log}
}

// Label assigns a name to every cluster in place and returns the
// clusters sorted by name priority. Clusters are ranked by ascending
// Euclidean distance from their centroid to the normalized origin,
// ties broken by ascending ClusterID. Clusters beyond the canonical
// list get a generated "position-N" fallback (N is the 1-based rank).
func (l Labeler) Label(clusters []Cluster) []Cluster {
	if len(clusters) != len(CanonicalNames) {
		l.log.Warn("cluster count does not match canonical position layout; labels may not be meaningful",
			logging.Int("clusters", len(clusters)),
			logging.Int("expected", len(CanonicalNames)))
	}

	ranked := make([]Cluster, len(clusters))
	copy(ranked, clusters)

	origin := Point{}
	sort.SliceStable(ranked, func(i, j int) bool {
		di := ranked[i].Centroid.DistanceTo(origin)
		dj := ranked[j].Centroid.DistanceTo(origin)
		if di != dj {
			return di < dj
		}
		return ranked[i].ClusterID < ranked[j].ClusterID
	})

	for i := range ranked {
		if i < len(CanonicalNames) {
			ranked[i].Name = CanonicalNames[i]
		} else {
			ranked[i].Name = fmt.Sprintf("position-%d", i+1)
		}
	}
	return ranked
}
