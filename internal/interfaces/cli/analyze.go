package cli

import (
	"github.com/spf13/cobra"

	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
)

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Test archetype win rates against position baselines",
		Long:  "Runs the spatial and sequence stages, then computes per-position baselines,\napplies the exact binomial test to every sufficiently frequent archetype, and\nwrites the success analysis including the skill-stratified comparison.",
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
			sucRes, err := r.runSuccess(posRes, bldRes)
			if err != nil {
				return err
			}
			cc.Logger.Info("analysis finished",
				logging.String("run_id", r.runID),
				logging.Int("tested", sucRes.Summary.ArchetypesTested),
				logging.Int("significant", sucRes.Summary.SignificantCount))
			return r.writeSummary(runSummary{
				RunID:     r.runID,
				Positions: posRes.Summary,
				Builds:    &bldRes.Summary,
				Success:   &sucRes.Summary,
			})
		},
	}
}
