package config

import "time"

// Default clustering parameters match the reference dataset (a
// 12288x12288 symmetric map with eight archetypal spawn positions).
const (
	defaultMapSize           = 12288.0
	defaultEps               = 600.0
	defaultMinSamples        = 10
	defaultMinClusterSize    = 5
	defaultMaxClusters       = 8
	defaultMaxSequenceLength = 20
	defaultHighSkill         = 35.0
	defaultMidSkill          = 20.0
)

// ApplyDefaults fills every unset field of cfg with its default value.
// It never overrides a value the caller has already set.
func ApplyDefaults(cfg *Config) {
	if cfg.Map.Width == 0 {
		cfg.Map.Width = defaultMapSize
	}
	if cfg.Map.Height == 0 {
		cfg.Map.Height = defaultMapSize
	}
	if cfg.PositionClustering.Eps == 0 {
		cfg.PositionClustering.Eps = defaultEps
	}
	if cfg.PositionClustering.MinSamples == 0 {
		cfg.PositionClustering.MinSamples = defaultMinSamples
	}
	if cfg.BuildClustering.MinClusterSize == 0 {
		cfg.BuildClustering.MinClusterSize = defaultMinClusterSize
	}
	if cfg.BuildClustering.MaxClusters == 0 {
		cfg.BuildClustering.MaxClusters = defaultMaxClusters
	}
	if cfg.BuildClustering.MaxSequenceLength == 0 {
		cfg.BuildClustering.MaxSequenceLength = defaultMaxSequenceLength
	}
	if cfg.Skill.HighThreshold == 0 {
		cfg.Skill.HighThreshold = defaultHighSkill
	}
	if cfg.Skill.MidThreshold == 0 {
		cfg.Skill.MidThreshold = defaultMidSkill
	}

	if cfg.IO.SpawnsPath == "" {
		cfg.IO.SpawnsPath = "data/parsed/positions.jsonl"
	}
	if cfg.IO.BuildsPath == "" {
		cfg.IO.BuildsPath = "data/parsed/builds.jsonl"
	}
	if cfg.IO.OutputDir == "" {
		cfg.IO.OutputDir = "data/analysis"
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "internal/infrastructure/database/postgres/migrations"
	}

	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "buildsight.archetypes"
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9109"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
