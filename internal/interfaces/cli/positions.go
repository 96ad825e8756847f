package cli

import (
	"github.com/spf13/cobra"

	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
)

func newPositionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Cluster and label spawn positions from the spawn stream",
		Long:  "Loads the spawn stream, normalizes coordinates onto the canonical map half,\nclusters them with DBSCAN, labels the clusters geometrically, and writes the\ncluster report and per-spawn assignments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			r := newRunner(cc, nil)

			res, err := r.runPositions(cmd.Context())
			if err != nil {
				return err
			}
			cc.Logger.Info("positions run finished",
				logging.String("run_id", r.runID),
				logging.Int("clusters", res.Summary.ClustersFound),
				logging.Int("assignments", len(res.Assignments)))
			return r.writeSummary(runSummary{RunID: r.runID, Positions: res.Summary})
		},
	}
}
