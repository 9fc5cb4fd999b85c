package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Print       PrintConfig     `toml:"print"`
	Layouts     LayoutsConfig   `toml:"layouts"`
	Storage     StorageConfig   `toml:"storage"`
	Retention   RetentionConfig `toml:"retention"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// PrintConfig controls the job subsystem: pool size, queue depth and the
// timeouts applied to rendering.
type PrintConfig struct {
	Workers       int           `toml:"workers"`        // Number of concurrent render workers
	QueueSize     int           `toml:"queue_size"`     // Pending jobs accepted beyond the running set
	RenderTimeout time.Duration `toml:"render_timeout"` // Per-job render deadline
	SyncWait      time.Duration `toml:"sync_wait"`      // Max server-side wait for the synchronous print endpoint
	SyncRate      float64       `toml:"sync_rate"`      // Synchronous prints allowed per second
	SyncBurst     int           `toml:"sync_burst"`     // Burst size for the synchronous print limiter
	ShutdownGrace time.Duration `toml:"shutdown_grace"` // Max wait for in-flight jobs on shutdown
}

type LayoutsConfig struct {
	Dir string `toml:"dir"` // Directory containing layout template files (YAML)
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// RetentionConfig controls reaping of terminal jobs and stored artifacts.
// An empty schedule disables the sweep entirely.
type RetentionConfig struct {
	JobTTL        time.Duration `toml:"job_ttl"`        // How long terminal jobs stay visible in the registry
	ArtifactTTL   time.Duration `toml:"artifact_ttl"`   // How long finished reports stay retrievable
	SweepSchedule string        `toml:"sweep_schedule"` // Cron schedule for the retention sweep
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Print: PrintConfig{
			Workers:       4,
			QueueSize:     32,
			RenderTimeout: 5 * time.Minute,
			SyncWait:      30 * time.Second,
			SyncRate:      2,
			SyncBurst:     4,
			ShutdownGrace: 30 * time.Second,
		},
		Layouts: LayoutsConfig{
			Dir: "./layouts",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Retention: RetentionConfig{
			JobTTL:        1 * time.Hour,
			ArtifactTTL:   24 * time.Hour,
			SweepSchedule: "*/5 * * * *",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyFlagOverrides applies CLI flag values on top of the loaded config.
// Flags have the highest priority.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: CHARTA_ENV, fallback: GO_ENV)
	if env := os.Getenv("CHARTA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("CHARTA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CHARTA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Print pool configuration
	if workers := os.Getenv("CHARTA_PRINT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Print.Workers = w
		}
	}
	if queueSize := os.Getenv("CHARTA_PRINT_QUEUE_SIZE"); queueSize != "" {
		if q, err := strconv.Atoi(queueSize); err == nil {
			config.Print.QueueSize = q
		}
	}
	if renderTimeout := os.Getenv("CHARTA_PRINT_RENDER_TIMEOUT"); renderTimeout != "" {
		if rt, err := time.ParseDuration(renderTimeout); err == nil {
			config.Print.RenderTimeout = rt
		}
	}

	// Layouts configuration
	if dir := os.Getenv("CHARTA_LAYOUTS_DIR"); dir != "" {
		config.Layouts.Dir = dir
	}

	// Storage configuration
	if badgerPath := os.Getenv("CHARTA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Retention configuration
	if jobTTL := os.Getenv("CHARTA_RETENTION_JOB_TTL"); jobTTL != "" {
		if d, err := time.ParseDuration(jobTTL); err == nil {
			config.Retention.JobTTL = d
		}
	}
	if artifactTTL := os.Getenv("CHARTA_RETENTION_ARTIFACT_TTL"); artifactTTL != "" {
		if d, err := time.ParseDuration(artifactTTL); err == nil {
			config.Retention.ArtifactTTL = d
		}
	}
	if schedule := os.Getenv("CHARTA_RETENTION_SWEEP_SCHEDULE"); schedule != "" {
		config.Retention.SweepSchedule = schedule
	}

	// Logging configuration
	if level := os.Getenv("CHARTA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CHARTA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// validateConfig checks the loaded configuration for values the job
// subsystem cannot run with.
func validateConfig(config *Config) error {
	if config.Print.Workers < 1 {
		return fmt.Errorf("invalid config: print.workers must be at least 1, got %d", config.Print.Workers)
	}
	if config.Print.QueueSize < 0 {
		return fmt.Errorf("invalid config: print.queue_size must not be negative, got %d", config.Print.QueueSize)
	}
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535, got %d", config.Server.Port)
	}
	return nil
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
