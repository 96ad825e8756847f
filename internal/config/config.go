// Package config defines all configuration structures for buildsight.
// No I/O or parsing logic lives here, only plain data types and
// validation; loading is handled by loader.go.
package config

import (
	"fmt"
	"time"
)

// MapConfig describes the physical map whose spawn coordinates are
// being analysed. Width and Height bound the raw coordinate space and
// drive symmetry normalization.
type MapConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// PositionClusteringConfig holds DBSCAN parameters for spatial
// clustering of normalized spawn points.
type PositionClusteringConfig struct {
	// Eps is the Euclidean neighborhood radius in map units.
	Eps float64 `mapstructure:"eps"`
	// MinSamples is the minimum neighborhood size for a core point.
	MinSamples int `mapstructure:"min_samples"`
}

// BuildClusteringConfig holds parameters for per-position hierarchical
// clustering of build-order sequences.
type BuildClusteringConfig struct {
	// MinClusterSize is both the minimum per-position sample count for
	// clustering to run at all and the minimum retained cluster size.
	MinClusterSize int `mapstructure:"min_cluster_size"`
	// MaxClusters caps the dendrogram cut; the effective cut is
	// min(MaxClusters, n/2).
	MaxClusters int `mapstructure:"max_clusters"`
	// MaxSequenceLength bounds encoded token sequences.
	MaxSequenceLength int `mapstructure:"max_sequence_length"`
}

// SkillConfig holds the stratification thresholds used by the success
// analysis layer (not by clustering itself).
type SkillConfig struct {
	HighThreshold float64 `mapstructure:"high_threshold"`
	MidThreshold  float64 `mapstructure:"mid_threshold"`
}

// IOConfig holds input stream and output directory locations.
type IOConfig struct {
	// SpawnsPath is the newline-delimited spawn/position record stream.
	SpawnsPath string `mapstructure:"spawns_path"`
	// BuildsPath is the newline-delimited build-order record stream.
	BuildsPath string `mapstructure:"builds_path"`
	// OutputDir receives cluster reports, assignments, and archetypes.
	OutputDir string `mapstructure:"output_dir"`
}

// DatabaseConfig holds PostgreSQL connection parameters for optional
// report persistence.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// KafkaConfig holds parameters for optional archetype publication.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MetricsConfig holds the prometheus exposition listener settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// Config is the root configuration structure. Every service and
// infrastructure component reads its settings from the relevant
// sub-struct; nothing consults viper or the environment directly.
type Config struct {
	Map                MapConfig                `mapstructure:"map"`
	PositionClustering PositionClusteringConfig `mapstructure:"position_clustering"`
	BuildClustering    BuildClusteringConfig    `mapstructure:"build_clustering"`
	Skill              SkillConfig              `mapstructure:"skill"`
	IO                 IOConfig                 `mapstructure:"io"`
	Database           DatabaseConfig           `mapstructure:"database"`
	Kafka              KafkaConfig              `mapstructure:"kafka"`
	Metrics            MetricsConfig            `mapstructure:"metrics"`
	Log                LogConfig                `mapstructure:"log"`
}

// Validate performs semantic validation of a fully-populated Config.
// It returns the first error encountered; callers treat any error as
// fatal and refuse to start the run.
func (c *Config) Validate() error {
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		return fmt.Errorf("config: map.width and map.height must be positive, got %gx%g", c.Map.Width, c.Map.Height)
	}
	if c.PositionClustering.Eps <= 0 {
		return fmt.Errorf("config: position_clustering.eps must be positive, got %g", c.PositionClustering.Eps)
	}
	if c.PositionClustering.MinSamples < 1 {
		return fmt.Errorf("config: position_clustering.min_samples must be >= 1, got %d", c.PositionClustering.MinSamples)
	}
	if c.BuildClustering.MinClusterSize < 1 {
		return fmt.Errorf("config: build_clustering.min_cluster_size must be >= 1, got %d", c.BuildClustering.MinClusterSize)
	}
	if c.BuildClustering.MaxClusters < 1 {
		return fmt.Errorf("config: build_clustering.max_clusters must be >= 1, got %d", c.BuildClustering.MaxClusters)
	}
	if c.BuildClustering.MaxSequenceLength < 1 {
		return fmt.Errorf("config: build_clustering.max_sequence_length must be >= 1, got %d", c.BuildClustering.MaxSequenceLength)
	}
	if c.Skill.MidThreshold > c.Skill.HighThreshold {
		return fmt.Errorf("config: skill.mid_threshold %g exceeds skill.high_threshold %g", c.Skill.MidThreshold, c.Skill.HighThreshold)
	}
	if c.IO.SpawnsPath == "" {
		return fmt.Errorf("config: io.spawns_path is required")
	}
	if c.IO.BuildsPath == "" {
		return fmt.Errorf("config: io.builds_path is required")
	}
	if c.IO.OutputDir == "" {
		return fmt.Errorf("config: io.output_dir is required")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required when database.enabled")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required when database.enabled")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required when database.enabled")
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker when kafka.enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka.enabled")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
