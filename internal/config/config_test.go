package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 12288.0, cfg.Map.Width)
	assert.Equal(t, 600.0, cfg.PositionClustering.Eps)
	assert.Equal(t, 10, cfg.PositionClustering.MinSamples)
	assert.Equal(t, 5, cfg.BuildClustering.MinClusterSize)
	assert.Equal(t, 8, cfg.BuildClustering.MaxClusters)
	assert.Equal(t, 20, cfg.BuildClustering.MaxSequenceLength)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestApplyDefaults_DoesNotOverride(t *testing.T) {
	cfg := &Config{}
	cfg.PositionClustering.Eps = 450
	cfg.BuildClustering.MaxClusters = 6
	ApplyDefaults(cfg)

	assert.Equal(t, 450.0, cfg.PositionClustering.Eps)
	assert.Equal(t, 6, cfg.BuildClustering.MaxClusters)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero_map", func(c *Config) { c.Map.Width = 0; c.Map.Height = 0 }, "map.width"},
		{"negative_eps", func(c *Config) { c.PositionClustering.Eps = -1 }, "eps"},
		{"min_samples", func(c *Config) { c.PositionClustering.MinSamples = -3 }, "min_samples"},
		{"skill_order", func(c *Config) { c.Skill.MidThreshold = 50; c.Skill.HighThreshold = 10 }, "mid_threshold"},
		{"spawns_path", func(c *Config) { c.IO.SpawnsPath = "" }, "spawns_path"},
		{"bad_log_level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"db_enabled_missing_host", func(c *Config) { c.Database.Enabled = true; c.Database.Host = "" }, "database.host"},
		{"kafka_enabled_no_brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka.brokers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			// ApplyDefaults must not re-fill deliberately broken values
			// that are non-zero; re-validate directly.
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildsight.yaml")
	yaml := `
map:
  width: 8192
  height: 8192
position_clustering:
  eps: 500
  min_samples: 12
io:
  spawns_path: in/positions.jsonl
  builds_path: in/builds.jsonl
  output_dir: out
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("BUILDSIGHT_POSITION_CLUSTERING_EPS", "750")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8192.0, cfg.Map.Width)
	assert.Equal(t, 750.0, cfg.PositionClustering.Eps, "env must override file")
	assert.Equal(t, 12, cfg.PositionClustering.MinSamples)
	// Unset fields fall back to defaults.
	assert.Equal(t, 8, cfg.BuildClustering.MaxClusters)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWatch_DeliversRewrittenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildsight.yaml")
	write := func(eps string) {
		yaml := `
position_clustering:
  eps: ` + eps + `
io:
  spawns_path: in/positions.jsonl
  builds_path: in/builds.jsonl
  output_dir: out
`
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	}
	write("500")

	reloaded := make(chan *Config, 4)
	Watch(path, func(cfg *Config) { reloaded <- cfg })

	// Give the watcher a moment to register before rewriting.
	time.Sleep(100 * time.Millisecond)
	write("650")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 650.0, cfg.PositionClustering.Eps)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not delivered")
	}
}
