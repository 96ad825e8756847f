package cli

import (
	"context"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/skirmishlabs/buildsight/internal/config"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/metrics"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

// Successive file events within this window collapse into one re-run;
// replay parsers append in bursts.
const watchDebounce = 2 * time.Second

func newPipelineCmd() *cobra.Command {
	var (
		watch       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the full analysis pipeline end to end",
		Long:  "Runs positions, builds, and success analysis in sequence, writes all reports,\nand pushes the outputs to postgres and kafka when those sinks are enabled.\nWith --watch the pipeline re-runs whenever an input stream changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			met := metrics.NewRunMetrics()
			addr := metricsAddr
			if addr == "" && cc.Config.Metrics.Enabled {
				addr = cc.Config.Metrics.Addr
			}
			if addr != "" {
				serveMetrics(addr, met, cc.Logger)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := runPipeline(ctx, cc, met); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchAndRerun(ctx, cc, met)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-run the pipeline when an input stream changes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (overrides config)")
	return cmd
}

func runPipeline(ctx context.Context, cc *CLIContext, met *metrics.RunMetrics) error {
	r := newRunner(cc, met)
	log := cc.Logger.With(logging.String("run_id", r.runID))
	log.Info("pipeline run starting")

	posRes, err := r.runPositions(ctx)
	if err != nil {
		return err
	}
	bldRes, err := r.runBuilds(ctx, posRes)
	if err != nil {
		return err
	}
	sucRes, err := r.runSuccess(posRes, bldRes)
	if err != nil {
		return err
	}
	if err := r.persistAndPublish(ctx, posRes, bldRes); err != nil {
		return err
	}

	log.Info("pipeline run complete",
		logging.Int("clusters", posRes.Summary.ClustersFound),
		logging.Int("archetypes", bldRes.Summary.ArchetypesFound),
		logging.Int("significant", sucRes.Summary.SignificantCount))
	return r.writeSummary(runSummary{
		RunID:     r.runID,
		Positions: posRes.Summary,
		Builds:    &bldRes.Summary,
		Success:   &sucRes.Summary,
	})
}

// watchAndRerun blocks, re-running the pipeline whenever either input
// stream changes. Failed re-runs are logged and the watch continues;
// the last successful outputs stay in place. When the config came from
// a file, edits to that file take effect on the next re-run; the
// watched input directories stay fixed from the startup config.
func watchAndRerun(ctx context.Context, cc *CLIContext, met *metrics.RunMetrics) error {
	var current atomic.Pointer[config.Config]
	current.Store(cc.Config)
	if cc.ConfigPath != "" {
		config.Watch(cc.ConfigPath, func(cfg *config.Config) {
			current.Store(cfg)
			cc.Logger.Info("config reloaded", logging.String("path", cc.ConfigPath))
		})
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "create input watcher")
	}
	defer watcher.Close()

	inputs := map[string]bool{
		filepath.Clean(cc.Config.IO.SpawnsPath): true,
		filepath.Clean(cc.Config.IO.BuildsPath): true,
	}
	// Watch the parent directories; editors and parsers often replace
	// files instead of writing in place.
	dirs := map[string]bool{}
	for path := range inputs {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "watch "+dir)
		}
	}
	cc.Logger.Info("watching input streams",
		logging.String("spawns", cc.Config.IO.SpawnsPath),
		logging.String("builds", cc.Config.IO.BuildsPath))

	var timer *time.Timer
	rerun := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !inputs[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case rerun <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Warn("input watcher error", logging.Err(err))
		case <-rerun:
			rcc := &CLIContext{Config: current.Load(), Logger: cc.Logger, ConfigPath: cc.ConfigPath}
			if err := runPipeline(ctx, rcc, met); err != nil {
				cc.Logger.Error("pipeline re-run failed", logging.Err(err))
			}
		}
	}
}

// serveMetrics exposes the run metrics in prometheus format on addr.
// The listener lives for the process lifetime.
func serveMetrics(addr string, met *metrics.RunMetrics, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", met.Handler())

	go func() {
		log.Info("serving metrics", logging.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics listener failed", logging.Err(err))
		}
	}()
}
