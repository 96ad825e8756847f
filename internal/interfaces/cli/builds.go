package cli

import (
	"github.com/spf13/cobra"

	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
)

func newBuildsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "builds",
		Short: "Cluster build orders per position and extract archetypes",
		Long:  "Runs the spatial stage, joins the build stream to the resulting position\nassignments, clusters each position's sequences with average-linkage\nagglomeration, and writes the per-position archetype report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			r := newRunner(cc, nil)

			posRes, err := r.runPositions(cmd.Context())
			if err != nil {
				return err
			}
			bldRes, err := r.runBuilds(cmd.Context(), posRes)
			if err != nil {
				return err
			}
			cc.Logger.Info("builds run finished",
				logging.String("run_id", r.runID),
				logging.Int("archetypes", bldRes.Summary.ArchetypesFound),
				logging.Int("positions_skipped", bldRes.Summary.PositionsSkipped))
			return r.writeSummary(runSummary{RunID: r.runID, Positions: posRes.Summary, Builds: &bldRes.Summary})
		},
	}
}
