package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/skirmishlabs/buildsight/internal/domain/buildorder"
	"github.com/skirmishlabs/buildsight/internal/domain/position"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

// execer is the subset of sql.Tx the store writes through.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// txBeginner is the subset of sql.DB the store needs.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// RunStore persists one analysis run's outputs. Each run replaces the
// dataset's previous rows wholesale: delete-then-insert inside a single
// transaction keyed by the run's UUID.
type RunStore struct {
	db  txBeginner
	log logging.Logger
}

// NewRunStore constructs a RunStore over a live connection.
func NewRunStore(conn *Connection, log logging.Logger) *RunStore {
	return &RunStore{db: conn.DB(), log: log.Named("runstore")}
}

// SaveRun atomically replaces the stored clusters, assignments, and
// archetypes with this run's outputs.
func (s *RunStore) SaveRun(ctx context.Context, runID string, clusters []position.Cluster, assignments []position.Assignment, archetypes []buildorder.Archetype) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "begin run transaction")
	}

	if err := s.saveRunTx(ctx, tx, runID, clusters, assignments, archetypes); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed", logging.String("run_id", runID), logging.Err(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "commit run transaction")
	}

	s.log.Info("run persisted",
		logging.String("run_id", runID),
		logging.Int("clusters", len(clusters)),
		logging.Int("assignments", len(assignments)),
		logging.Int("archetypes", len(archetypes)))
	return nil
}

func (s *RunStore) saveRunTx(ctx context.Context, tx execer, runID string, clusters []position.Cluster, assignments []position.Assignment, archetypes []buildorder.Archetype) error {
	for _, table := range []string{"build_archetypes", "position_assignments", "position_clusters"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "clear "+table)
		}
	}

	for _, c := range clusters {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO position_clusters
				(run_id, cluster_id, position_name, centroid_x, centroid_z,
				 member_count, distinct_players, distinct_matches, avg_skill)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, c.ClusterID, c.Name, c.Centroid.X, c.Centroid.Z,
			c.MemberCount, c.DistinctPlayers, c.DistinctMatches, c.AvgSkill)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "insert cluster "+c.Name)
		}
	}

	for _, a := range assignments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO position_assignments
				(run_id, match_id, player_id, ally_team_id, skill, won_game,
				 cluster_id, position_name, distance_to_centroid)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, a.MatchID, a.PlayerID, a.AllyTeamID, a.Skill, a.WonGame,
			a.ClusterID, a.Name, a.DistanceToCentroid)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "insert assignment "+a.MatchID+"_"+a.PlayerID)
		}
	}

	for _, arch := range archetypes {
		repSeq, err := json.Marshal(arch.RepresentativeSequence)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "marshal representative sequence "+arch.Name)
		}
		examples, err := json.Marshal(arch.Examples)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "marshal examples "+arch.Name)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO build_archetypes
				(run_id, name, position_name, cluster_label,
				 representative_sequence, frequency, win_rate, avg_skill, examples)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, arch.Name, arch.PositionName, arch.Label,
			repSeq, arch.Frequency, arch.WinRate, arch.AvgSkill, examples)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "insert archetype "+arch.Name)
		}
	}

	return nil
}
