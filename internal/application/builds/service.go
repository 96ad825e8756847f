// Package builds implements the sequence stage of the pipeline: join
// build-order records to labeled position assignments, encode token
// sequences, cluster them per position with average-linkage
// agglomeration, and extract the surviving archetypes.
package builds

import (
	"context"
	"sort"
	"time"

	"github.com/skirmishlabs/buildsight/internal/analytics/hcluster"
	"github.com/skirmishlabs/buildsight/internal/config"
	"github.com/skirmishlabs/buildsight/internal/domain/buildorder"
	"github.com/skirmishlabs/buildsight/internal/domain/position"
	"github.com/skirmishlabs/buildsight/internal/domain/telemetry"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/metrics"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

const stageName = "builds"

// PositionReport is the per-position outcome of the sequence stage.
// Either the position was clustered (Archetypes non-nil, possibly
// empty) or it was skipped for having fewer than minClusterSize
// sequences.
type PositionReport struct {
	PositionName     string                 `json:"positionName"`
	SampleCount      int                    `json:"sampleCount"`
	Skipped          bool                   `json:"skipped"`
	DiscardedMembers int                    `json:"discardedMembers"`
	Archetypes       []buildorder.Archetype `json:"archetypes"`
}

// Summary is the coverage accounting for one build-clustering run.
type Summary struct {
	RecordsLoaded     int `json:"recordsLoaded"`
	RecordsMalformed  int `json:"recordsMalformed"`
	UnassignedRecords int `json:"unassignedRecords"`
	PositionsSkipped  int `json:"positionsSkipped"`
	DiscardedMembers  int `json:"discardedMembers"`
	ArchetypesFound   int `json:"archetypesFound"`
}

// Result carries everything the sequence stage produces. Reports are
// sorted by position name; Archetypes flattens every report's
// archetypes for downstream significance testing. Sequences retains the
// joined, encoded inputs for the success stage's skill analysis.
type Result struct {
	Reports    []PositionReport       `json:"reports"`
	Archetypes []buildorder.Archetype `json:"archetypes"`
	Sequences  []buildorder.Sequence  `json:"-"`
	Summary    Summary                `json:"summary"`
}

// Service runs the build-order clustering stage.
type Service struct {
	reader telemetry.BuildReader
	cfg    config.BuildClusteringConfig
	log    logging.Logger
	met    *metrics.RunMetrics
}

// NewService constructs the builds service. met may be nil.
func NewService(reader telemetry.BuildReader, cfg config.BuildClusteringConfig, log logging.Logger, met *metrics.RunMetrics) *Service {
	return &Service{reader: reader, cfg: cfg, log: log.Named("builds"), met: met}
}

// Run executes the sequence stage against the given position
// assignments. Build records whose (matchId, playerId) has no
// assignment (noise spawns, missing spatial data) are counted and
// excluded. Positions with too few sequences are reported as skipped,
// never errored.
func (s *Service) Run(ctx context.Context, assignments []position.Assignment) (*Result, error) {
	start := time.Now()

	records, stats, err := s.reader.ReadBuilds(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnknown, "builds: load build stream")
	}
	if s.met != nil {
		s.met.RecordsLoaded.WithLabelValues(stageName).Add(float64(stats.Loaded))
		s.met.RecordsMalformed.WithLabelValues(stageName).Add(float64(stats.Malformed))
	}

	sequences, unassigned := s.join(records, assignments)

	byPosition := make(map[string][]buildorder.Sequence)
	for _, seq := range sequences {
		byPosition[seq.PositionName] = append(byPosition[seq.PositionName], seq)
	}
	names := make([]string, 0, len(byPosition))
	for name := range byPosition {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &Result{
		Sequences: sequences,
		Summary: Summary{
			RecordsLoaded:     stats.Loaded,
			RecordsMalformed:  stats.Malformed,
			UnassignedRecords: unassigned,
		},
	}

	for _, name := range names {
		report, err := s.clusterPosition(ctx, name, byPosition[name])
		if err != nil {
			return nil, err
		}
		result.Reports = append(result.Reports, report)
		result.Archetypes = append(result.Archetypes, report.Archetypes...)
		if report.Skipped {
			result.Summary.PositionsSkipped++
		}
		result.Summary.DiscardedMembers += report.DiscardedMembers
		result.Summary.ArchetypesFound += len(report.Archetypes)

		if s.met != nil {
			s.met.UndersizedDrops.WithLabelValues(name).Add(float64(report.DiscardedMembers))
			s.met.Archetypes.WithLabelValues(name).Set(float64(len(report.Archetypes)))
		}
	}

	if s.met != nil {
		s.met.ClustersFound.WithLabelValues(stageName).Set(float64(result.Summary.ArchetypesFound))
		s.met.RunDuration.WithLabelValues(stageName).Observe(time.Since(start).Seconds())
	}
	s.log.Info("build clustering complete",
		logging.Int("sequences", len(sequences)),
		logging.Int("positions", len(names)),
		logging.Int("skipped", result.Summary.PositionsSkipped),
		logging.Int("archetypes", result.Summary.ArchetypesFound))
	return result, nil
}

// join pairs each build record with its spatial assignment and encodes
// the token sequence. Input record order is preserved so clustering
// stays deterministic.
func (s *Service) join(records []telemetry.BuildRecord, assignments []position.Assignment) ([]buildorder.Sequence, int) {
	byKey := make(map[string]position.Assignment, len(assignments))
	for _, a := range assignments {
		byKey[a.MatchID+"_"+a.PlayerID] = a
	}

	sequences := make([]buildorder.Sequence, 0, len(records))
	unassigned := 0
	for _, r := range records {
		a, ok := byKey[r.Key()]
		if !ok {
			unassigned++
			continue
		}
		sequences = append(sequences, buildorder.Sequence{
			MatchID:      r.MatchID,
			PlayerID:     r.PlayerID,
			PositionName: a.Name,
			Skill:        r.Skill,
			WonGame:      r.WonGame,
			Tokens:       buildorder.EncodeSequence(r.Steps, s.cfg.MaxSequenceLength),
			Steps:        r.Steps,
		})
	}
	return sequences, unassigned
}

// clusterPosition clusters one position's sequences and extracts its
// archetypes. The dendrogram is cut at min(maxClusters, n/2) flat
// clusters; clusters below minClusterSize are discarded whole, their
// members counted but not reassigned.
func (s *Service) clusterPosition(ctx context.Context, name string, seqs []buildorder.Sequence) (PositionReport, error) {
	report := PositionReport{PositionName: name, SampleCount: len(seqs)}

	if err := ctx.Err(); err != nil {
		return report, errors.Wrap(err, errors.ErrCodeInternal, "builds: run cancelled")
	}
	if len(seqs) < s.cfg.MinClusterSize {
		s.log.Debug("position skipped, too few sequences",
			logging.String("position", name),
			logging.Int("sequences", len(seqs)),
			logging.Int("required", s.cfg.MinClusterSize))
		report.Skipped = true
		return report, nil
	}

	k := s.cfg.MaxClusters
	if half := len(seqs) / 2; half < k {
		k = half
	}
	if k < 1 {
		k = 1
	}

	labels, err := hcluster.Cut(buildorder.DistanceMatrix(seqs), k)
	if err != nil {
		return report, errors.Wrap(err, errors.ErrCodeClusteringFailed, "builds: cluster position "+name)
	}

	byLabel := make(map[int][]buildorder.Sequence)
	var order []int
	for i, label := range labels {
		if _, seen := byLabel[label]; !seen {
			order = append(order, label)
		}
		byLabel[label] = append(byLabel[label], seqs[i])
	}
	sort.Ints(order)

	var retained []buildorder.Cluster
	for _, label := range order {
		members := byLabel[label]
		if len(members) < s.cfg.MinClusterSize {
			report.DiscardedMembers += len(members)
			continue
		}
		retained = append(retained, buildorder.Cluster{
			PositionName: name,
			Label:        label,
			Members:      members,
		})
	}

	report.Archetypes = buildorder.ExtractArchetypes(retained)
	return report, nil
}
