package postgres

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmishlabs/buildsight/internal/config"
	"github.com/skirmishlabs/buildsight/internal/domain/buildorder"
	"github.com/skirmishlabs/buildsight/internal/domain/position"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Enabled:  true,
		Host:     "db.internal",
		Port:     5432,
		User:     "analyst",
		Password: "secret",
		DBName:   "buildsight",
		SSLMode:  "require",
	}
}

type recordedExec struct {
	query string
	args  []interface{}
}

type fakeExecer struct {
	execs   []recordedExec
	failOn  string
	failErr error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.execs = append(f.execs, recordedExec{query: query, args: args})
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, f.failErr
	}
	return nil, nil
}

func testRunData() ([]position.Cluster, []position.Assignment, []buildorder.Archetype) {
	clusters := []position.Cluster{
		{ClusterID: 0, Name: "front-1", Centroid: position.Point{X: 8500, Z: 2200}, MemberCount: 40, DistinctPlayers: 30, DistinctMatches: 25, AvgSkill: 28.5},
	}
	assignments := []position.Assignment{
		{MatchID: "m1", PlayerID: "p1", AllyTeamID: 0, Skill: 30, WonGame: true, ClusterID: 0, Name: "front-1", DistanceToCentroid: 28.3},
	}
	archetypes := []buildorder.Archetype{
		{Name: "front-1_archetype_1", PositionName: "front-1", Label: 1,
			RepresentativeSequence: []string{"Mex", "Solar"}, Frequency: 20, WinRate: 0.65, AvgSkill: 29.1},
	}
	return clusters, assignments, archetypes
}

func TestSaveRunTx_DeletesBeforeInserting(t *testing.T) {
	store := &RunStore{log: logging.NewNopLogger()}
	exec := &fakeExecer{}
	clusters, assignments, archetypes := testRunData()

	err := store.saveRunTx(context.Background(), exec, "run-1", clusters, assignments, archetypes)
	require.NoError(t, err)

	require.Len(t, exec.execs, 6) // 3 deletes + 3 inserts
	for i, table := range []string{"build_archetypes", "position_assignments", "position_clusters"} {
		assert.Contains(t, exec.execs[i].query, "DELETE FROM "+table)
	}
	assert.Contains(t, exec.execs[3].query, "INSERT INTO position_clusters")
	assert.Contains(t, exec.execs[4].query, "INSERT INTO position_assignments")
	assert.Contains(t, exec.execs[5].query, "INSERT INTO build_archetypes")
}

func TestSaveRunTx_RunIDOnEveryRow(t *testing.T) {
	store := &RunStore{log: logging.NewNopLogger()}
	exec := &fakeExecer{}
	clusters, assignments, archetypes := testRunData()

	require.NoError(t, store.saveRunTx(context.Background(), exec, "run-42", clusters, assignments, archetypes))

	for _, e := range exec.execs[3:] {
		require.NotEmpty(t, e.args)
		assert.Equal(t, "run-42", e.args[0])
	}
}

func TestSaveRunTx_InsertFailureSurfacesDatabaseError(t *testing.T) {
	store := &RunStore{log: logging.NewNopLogger()}
	exec := &fakeExecer{
		failOn:  "INSERT INTO position_assignments",
		failErr: errors.New(errors.ErrCodeInternal, "boom"),
	}
	clusters, assignments, archetypes := testRunData()

	err := store.saveRunTx(context.Background(), exec, "run-1", clusters, assignments, archetypes)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(testDatabaseConfig())
	assert.Contains(t, dsn, "postgres://analyst:")
	assert.Contains(t, dsn, "@db.internal:5432/buildsight")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestBuildDSN_DefaultsSSLModeToDisable(t *testing.T) {
	cfg := testDatabaseConfig()
	cfg.SSLMode = ""
	assert.Contains(t, buildDSN(cfg), "sslmode=disable")
}
