// Package cli wires the analysis pipeline behind a cobra command tree.
// The root command loads configuration and constructs the logger; the
// subcommands run individual stages or the whole pipeline.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skirmishlabs/buildsight/internal/config"
	"github.com/skirmishlabs/buildsight/internal/infrastructure/monitoring/logging"
	"github.com/skirmishlabs/buildsight/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	OutputDir  string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger

	// ConfigPath is the file the config was loaded from, empty when the
	// config came from the environment. Long-running commands use it to
	// pick up config edits between runs.
	ConfigPath string
}

// NewRootCommand creates the root cobra command with all global flags
// and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "buildsight",
		Short:   "Spawn-position and build-order archetype analysis for RTS telemetry",
		Long:    "buildsight turns per-match telemetry (spawn coordinates, build actions, outcomes)\ninto named spawn positions and per-position build-order archetypes, with exact\nsignificance testing of archetype win rates against position baselines.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: environment only)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputDir, "output", "o", "", "output directory override")

	cmd.AddCommand(
		newPositionsCmd(),
		newBuildsCmd(),
		newAnalyzeCmd(),
		newPipelineCmd(),
	)
	return cmd
}

// persistentPreRun loads configuration, applies flag overrides, builds
// the logger, and stores both on the command context.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.OutputDir != "" {
		cfg.IO.OutputDir = opts.OutputDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.NewLogger(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return err
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, &CLIContext{
		Config:     cfg,
		Logger:     log,
		ConfigPath: opts.ConfigPath,
	})
	cmd.SetContext(ctx)
	return nil
}

// GetCLIContext extracts the initialized dependencies from a command's
// context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	cc, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext)
	if !ok || cc == nil {
		return nil, errors.New(errors.ErrCodeInternal, "cli context not initialized")
	}
	return cc, nil
}

// Execute runs the root command and returns its error for main to map
// to an exit code.
func Execute() error {
	return NewRootCommand().Execute()
}
