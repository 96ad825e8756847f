package positions

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmishlabs/buildsight/internal/config"
	"github.com/skirmishlabs/buildsight/internal/domain/telemetry"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/metrics"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

type fakeSpawnReader struct {
	records []telemetry.SpawnRecord
	stats   telemetry.ReadStats
	err     error
}

func (f fakeSpawnReader) ReadSpawns(context.Context) ([]telemetry.SpawnRecord, telemetry.ReadStats, error) {
	return f.records, f.stats, f.err
}

func spawn(match, player string, skill float64, won bool, x, z float64) telemetry.SpawnRecord {
	return telemetry.SpawnRecord{
		MatchID:  match,
		PlayerID: player,
		Skill:    skill,
		WonGame:  won,
		RawX:     x,
		RawZ:     z,
	}
}

// Two tight groups on a 100x100 map plus one isolated point. The group
// nearer the normalized origin must take the first canonical name. Two
// of the far group's records spawn in the mirrored quadrant and only
// join it after reflection.
func testRecords() []telemetry.SpawnRecord {
	return []telemetry.SpawnRecord{
		spawn("m1", "p1", 30, true, 10, 10),
		spawn("m1", "p2", 20, false, 11, 10),
		spawn("m2", "p3", 25, true, 10, 11),
		spawn("m2", "p1", 35, false, 9, 10),
		spawn("m3", "p4", 40, true, 10, 9),

		spawn("m1", "p5", 22, false, 80, 20),
		spawn("m2", "p6", 28, true, 81, 20),
		spawn("m3", "p5", 31, true, 80, 21),
		spawn("m3", "p7", 26, false, 19, 79), // reflects to (81, 21)
		spawn("m4", "p8", 24, true, 20, 80),  // reflects to (80, 20)

		spawn("m4", "p9", 18, false, 50, 55), // noise
	}
}

func newTestService(r telemetry.SpawnReader, met *metrics.RunMetrics) *Service {
	return NewService(r,
		config.MapConfig{Width: 100, Height: 100},
		config.PositionClusteringConfig{Eps: 5, MinSamples: 3},
		logging.NewNopLogger(), met)
}

func TestServiceRun_ClustersLabelsAndAssigns(t *testing.T) {
	reader := fakeSpawnReader{records: testRecords(), stats: telemetry.ReadStats{Loaded: 11, Malformed: 2}}
	svc := newTestService(reader, nil)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 11, res.Summary.RecordsLoaded)
	assert.Equal(t, 2, res.Summary.RecordsMalformed)
	assert.Equal(t, 2, res.Summary.ClustersFound)
	assert.Equal(t, 1, res.Summary.NoisePoints)

	require.Len(t, res.Clusters, 2)
	near := res.Clusters[0]
	far := res.Clusters[1]
	assert.Equal(t, "front-1", near.Name)
	assert.Equal(t, "front-2", far.Name)

	assert.Equal(t, 5, near.MemberCount)
	assert.Equal(t, 4, near.DistinctPlayers) // p1 spawns twice
	assert.Equal(t, 3, near.DistinctMatches)
	assert.InDelta(t, 10.0, near.Centroid.X, 0.5)
	assert.InDelta(t, 10.0, near.Centroid.Z, 0.5)
	assert.InDelta(t, 30.0, near.AvgSkill, 1e-9)

	assert.Equal(t, 5, far.MemberCount)
	assert.InDelta(t, 80.4, far.Centroid.X, 1e-9)
	assert.InDelta(t, 20.4, far.Centroid.Z, 1e-9)
}

func TestServiceRun_AssignmentsExcludeNoise(t *testing.T) {
	reader := fakeSpawnReader{records: testRecords(), stats: telemetry.ReadStats{Loaded: 11}}
	svc := newTestService(reader, nil)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Assignments, 10)
	for _, a := range res.Assignments {
		assert.NotEqual(t, "p9", a.PlayerID)
		assert.NotEmpty(t, a.Name)
		assert.GreaterOrEqual(t, a.DistanceToCentroid, 0.0)
	}
}

func TestServiceRun_MirroredSpawnJoinsReflectedCluster(t *testing.T) {
	reader := fakeSpawnReader{records: testRecords(), stats: telemetry.ReadStats{Loaded: 11}}
	svc := newTestService(reader, nil)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	var mirrored *struct{ name string }
	for _, a := range res.Assignments {
		if a.PlayerID == "p8" {
			mirrored = &struct{ name string }{a.Name}
		}
	}
	require.NotNil(t, mirrored, "mirrored spawn must receive an assignment")
	assert.Equal(t, "front-2", mirrored.name)
}

func TestServiceRun_AllNoiseIsValid(t *testing.T) {
	records := []telemetry.SpawnRecord{
		spawn("m1", "p1", 10, true, 10, 10),
		spawn("m1", "p2", 10, false, 60, 60),
		spawn("m1", "p3", 10, true, 90, 10),
	}
	reader := fakeSpawnReader{records: records, stats: telemetry.ReadStats{Loaded: 3}}
	svc := newTestService(reader, nil)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Summary.ClustersFound)
	assert.Equal(t, 3, res.Summary.NoisePoints)
	assert.Empty(t, res.Clusters)
	assert.Empty(t, res.Assignments)
}

func TestServiceRun_ReaderErrorIsFatal(t *testing.T) {
	reader := fakeSpawnReader{err: errors.New(errors.ErrCodeEmptyInput, "no spawn records")}
	svc := newTestService(reader, nil)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyInput))
}

func TestServiceRun_RecordsMetrics(t *testing.T) {
	met := metrics.NewRunMetrics()
	reader := fakeSpawnReader{records: testRecords(), stats: telemetry.ReadStats{Loaded: 11, Malformed: 2}}
	svc := newTestService(reader, met)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 11.0, testutil.ToFloat64(met.RecordsLoaded.WithLabelValues(stageName)))
	assert.Equal(t, 2.0, testutil.ToFloat64(met.RecordsMalformed.WithLabelValues(stageName)))
	assert.Equal(t, 1.0, testutil.ToFloat64(met.NoisePoints))
	assert.Equal(t, 2.0, testutil.ToFloat64(met.ClustersFound.WithLabelValues(stageName)))
}
