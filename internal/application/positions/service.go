// Package positions implements the spatial stage of the pipeline: load
// spawn records, normalize coordinates, cluster with DBSCAN, label the
// clusters geometrically, and emit per-spawn position assignments.
package positions

import (
	"context"
	"sort"
	"time"

	"github.com/skirmishlabs/buildsight/internal/analytics/dbscan"
	"github.com/skirmishlabs/buildsight/internal/config"
	"github.com/skirmishlabs/buildsight/internal/domain/position"
	"github.com/skirmishlabs/buildsight/internal/domain/telemetry"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/metrics"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

const stageName = "positions"

// Summary is the coverage accounting for one position-clustering run.
type Summary struct {
	RecordsLoaded    int `json:"recordsLoaded"`
	RecordsMalformed int `json:"recordsMalformed"`
	NoisePoints      int `json:"noisePoints"`
	ClustersFound    int `json:"clustersFound"`
}

// Result carries everything the spatial stage produces. Clusters are
// labeled and sorted in name-priority order; Assignments exclude noise
// points and preserve input record order.
type Result struct {
	Clusters    []position.Cluster    `json:"clusters"`
	Assignments []position.Assignment `json:"assignments"`
	Summary     Summary               `json:"summary"`
}

// Service runs the spatial clustering stage.
type Service struct {
	reader  telemetry.SpawnReader
	norm    position.Normalizer
	labeler position.Labeler
	cfg     config.PositionClusteringConfig
	log     logging.Logger
	met     *metrics.RunMetrics
}

// NewService constructs the positions service. met may be nil when no
// metrics sink is wired.
func NewService(reader telemetry.SpawnReader, mapCfg config.MapConfig, clCfg config.PositionClusteringConfig, log logging.Logger, met *metrics.RunMetrics) *Service {
	return &Service{
		reader:  reader,
		norm:    position.NewNormalizer(mapCfg.Width, mapCfg.Height),
		labeler: position.NewLabeler(log),
		cfg:     clCfg,
		log:     log.Named("positions"),
		met:     met,
	}
}

// Run executes the full spatial stage. An empty or unreadable spawn
// stream is fatal; zero clusters (everything noise) is a valid result
// with an empty assignment list.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	records, stats, err := s.reader.ReadSpawns(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnknown, "positions: load spawn stream")
	}
	s.observeLoad(stats)

	points := make([]dbscan.Point, len(records))
	normed := make([]position.NormalizedPoint, len(records))
	for i, r := range records {
		p := s.norm.Normalize(r.RawX, r.RawZ)
		normed[i] = position.NormalizedPoint{Record: r, Norm: p}
		points[i] = dbscan.Point{X: p.X, Z: p.Z}
	}

	clustered, err := dbscan.Cluster(points, s.cfg.Eps, s.cfg.MinSamples)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeClusteringFailed, "positions: spatial clustering")
	}

	labeled := s.labeler.Label(buildClusters(normed, clustered))
	assignments := buildAssignments(normed, clustered.Labels, labeled)

	result := &Result{
		Clusters:    labeled,
		Assignments: assignments,
		Summary: Summary{
			RecordsLoaded:    stats.Loaded,
			RecordsMalformed: stats.Malformed,
			NoisePoints:      clustered.NumNoise,
			ClustersFound:    clustered.NumClusters,
		},
	}

	s.observeResult(result, time.Since(start))
	s.log.Info("spatial clustering complete",
		logging.Int("records", stats.Loaded),
		logging.Int("malformed", stats.Malformed),
		logging.Int("clusters", clustered.NumClusters),
		logging.Int("noise", clustered.NumNoise))
	return result, nil
}

// buildClusters aggregates the per-point labels into per-cluster
// statistics. Cluster IDs from the clusterer are dense 0..k-1.
func buildClusters(normed []position.NormalizedPoint, res dbscan.Result) []position.Cluster {
	type agg struct {
		sumX, sumZ, sumSkill float64
		count                int
		players              map[string]struct{}
		matches              map[string]struct{}
	}

	aggs := make([]*agg, res.NumClusters)
	for i := range aggs {
		aggs[i] = &agg{
			players: make(map[string]struct{}),
			matches: make(map[string]struct{}),
		}
	}

	for i, np := range normed {
		label := res.Labels[i]
		if label == dbscan.Noise {
			continue
		}
		a := aggs[label]
		a.sumX += np.Norm.X
		a.sumZ += np.Norm.Z
		a.sumSkill += np.Record.Skill
		a.count++
		a.players[np.Record.PlayerID] = struct{}{}
		a.matches[np.Record.MatchID] = struct{}{}
	}

	clusters := make([]position.Cluster, 0, res.NumClusters)
	for id, a := range aggs {
		if a.count == 0 {
			continue
		}
		clusters = append(clusters, position.Cluster{
			ClusterID: id,
			Centroid: position.Point{
				X: a.sumX / float64(a.count),
				Z: a.sumZ / float64(a.count),
			},
			MemberCount:     a.count,
			DistinctPlayers: len(a.players),
			DistinctMatches: len(a.matches),
			AvgSkill:        a.sumSkill / float64(a.count),
		})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ClusterID < clusters[j].ClusterID })
	return clusters
}

func buildAssignments(normed []position.NormalizedPoint, labels []int, labeled []position.Cluster) []position.Assignment {
	byID := make(map[int]position.Cluster, len(labeled))
	for _, c := range labeled {
		byID[c.ClusterID] = c
	}

	out := make([]position.Assignment, 0, len(normed))
	for i, np := range normed {
		label := labels[i]
		if label == dbscan.Noise {
			continue
		}
		c := byID[label]
		out = append(out, position.Assignment{
			MatchID:            np.Record.MatchID,
			PlayerID:           np.Record.PlayerID,
			AllyTeamID:         np.Record.AllyTeamID,
			Skill:              np.Record.Skill,
			WonGame:            np.Record.WonGame,
			ClusterID:          c.ClusterID,
			Name:               c.Name,
			DistanceToCentroid: np.Norm.DistanceTo(c.Centroid),
		})
	}
	return out
}

func (s *Service) observeLoad(stats telemetry.ReadStats) {
	if s.met == nil {
		return
	}
	s.met.RecordsLoaded.WithLabelValues(stageName).Add(float64(stats.Loaded))
	s.met.RecordsMalformed.WithLabelValues(stageName).Add(float64(stats.Malformed))
}

func (s *Service) observeResult(r *Result, elapsed time.Duration) {
	if s.met == nil {
		return
	}
	s.met.NoisePoints.Add(float64(r.Summary.NoisePoints))
	s.met.ClustersFound.WithLabelValues(stageName).Set(float64(r.Summary.ClustersFound))
	s.met.RunDuration.WithLabelValues(stageName).Observe(elapsed.Seconds())
}
