package cli

import (
	"context"

	"github.com/google/uuid"

	"github.com/skirmishlabs/buildsight/internal/application/builds"
	"github.com/skirmishlabs/buildsight/internal/application/positions"
	"github.com/skirmishlabs/buildsight/internal/application/success"
	"github.com/skirmishlabs/buildsight/internal/config"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/database/postgres"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/messaging/kafka"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/metrics"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/storage/jsonl"
)

// Output file names under io.output_dir.
const (
	clustersFile    = "position_clusters.json"
	assignmentsFile = "position_assignments.jsonl"
	archetypesFile  = "build_archetypes.json"
	successFile     = "success_analysis.json"
	summaryFile     = "run_summary.json"
)

// runner wires the stage services to their inputs and outputs. Each
// command builds one runner per invocation; a watch loop builds a fresh
// one per triggered run.
type runner struct {
	cfg   *config.Config
	log   logging.Logger
	met   *metrics.RunMetrics
	runID string
}

func newRunner(cc *CLIContext, met *metrics.RunMetrics) *runner {
	return &runner{
		cfg:   cc.Config,
		log:   cc.Logger,
		met:   met,
		runID: uuid.NewString(),
	}
}

// runSummary aggregates the per-stage coverage accounting.
type runSummary struct {
	RunID     string            `json:"runId"`
	Positions positions.Summary `json:"positions"`
	Builds    *builds.Summary   `json:"builds,omitempty"`
	Success   *success.Summary  `json:"success,omitempty"`
}

func (r *runner) runPositions(ctx context.Context) (*positions.Result, error) {
	reader := jsonl.NewSpawnReader(r.cfg.IO.SpawnsPath, r.log)
	svc := positions.NewService(reader, r.cfg.Map, r.cfg.PositionClustering, r.log, r.met)

	res, err := svc.Run(ctx)
	if err != nil {
		return nil, err
	}

	w, err := jsonl.NewWriter(r.cfg.IO.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := w.WriteReport(clustersFile, res.Clusters); err != nil {
		return nil, err
	}
	if err := w.WriteAssignments(assignmentsFile, res.Assignments); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *runner) runBuilds(ctx context.Context, posRes *positions.Result) (*builds.Result, error) {
	reader := jsonl.NewBuildReader(r.cfg.IO.BuildsPath, r.log)
	svc := builds.NewService(reader, r.cfg.BuildClustering, r.log, r.met)

	res, err := svc.Run(ctx, posRes.Assignments)
	if err != nil {
		return nil, err
	}

	w, err := jsonl.NewWriter(r.cfg.IO.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := w.WriteReport(archetypesFile, res.Reports); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *runner) runSuccess(posRes *positions.Result, bldRes *builds.Result) (*success.Result, error) {
	svc := success.NewService(r.cfg.Skill, r.log, r.met)

	res, err := svc.Analyze(posRes.Assignments, bldRes.Archetypes, bldRes.Sequences)
	if err != nil {
		return nil, err
	}

	w, err := jsonl.NewWriter(r.cfg.IO.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := w.WriteReport(successFile, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *runner) writeSummary(s runSummary) error {
	w, err := jsonl.NewWriter(r.cfg.IO.OutputDir)
	if err != nil {
		return err
	}
	return w.WriteReport(summaryFile, s)
}

// persistAndPublish pushes the run's outputs to the optional sinks.
// Both are best-effort extensions of the file outputs: a failure aborts
// the run with an error, but only after the files are already written.
func (r *runner) persistAndPublish(ctx context.Context, posRes *positions.Result, bldRes *builds.Result) error {
	if r.cfg.Database.Enabled {
		conn, err := postgres.NewConnection(r.cfg.Database, r.log)
		if err != nil {
			return err
		}
		defer conn.Close()

		if r.cfg.Database.MigrationPath != "" {
			if err := conn.RunMigrations(r.cfg.Database.MigrationPath); err != nil {
				return err
			}
		}
		store := postgres.NewRunStore(conn, r.log)
		if err := store.SaveRun(ctx, r.runID, posRes.Clusters, posRes.Assignments, bldRes.Archetypes); err != nil {
			return err
		}
	}

	if r.cfg.Kafka.Enabled {
		pub := kafka.NewPublisher(r.cfg.Kafka, r.log)
		defer pub.Close()

		if err := pub.PublishArchetypes(ctx, r.runID, bldRes.Archetypes); err != nil {
			return err
		}
	}
	return nil
}
