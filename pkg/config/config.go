// Package config loads the arena service's YAML configuration, expanding
// ${VAR} environment references before parsing, matching the reference
// stack's config loading convention.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level arena service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Session   SessionConfig   `yaml:"session"`
	Store     StoreConfig     `yaml:"store"`
	Catalogue CatalogueConfig `yaml:"catalogue"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds the HTTP/WS listener configuration.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Timeout        string `yaml:"timeout"`
	MaxConnections int    `yaml:"max_connections"`
}

// RuntimeConfig selects and configures the ContainerRuntime collaborator.
type RuntimeConfig struct {
	// Backend is "kubernetes" or "process".
	Backend    string           `yaml:"backend"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Process    ProcessConfig    `yaml:"process"`
	Limits     ResourceLimits   `yaml:"limits"`
}

// KubernetesConfig configures the k8s.io/client-go-backed runtime.
type KubernetesConfig struct {
	Namespace       string `yaml:"namespace"`
	PodTemplateName string `yaml:"pod_template_config_map"`
	Kubeconfig      string `yaml:"kubeconfig"`
}

// ProcessConfig configures the creack/pty-backed local-development runtime.
type ProcessConfig struct {
	ImageBinDir string `yaml:"image_bin_dir"`
}

// ResourceLimits are the default per-container resource limits.
type ResourceLimits struct {
	MemoryBytes int64 `yaml:"memory_bytes"`
	CPUNanos    int64 `yaml:"cpu_nanos"`
}

// SessionConfig configures the SessionManager (C5).
type SessionConfig struct {
	MaxSessionsPerUser int    `yaml:"max_sessions_per_user"`
	SessionTTL         string `yaml:"session_ttl"`
}

// StoreConfig configures PreferenceStore/ReportStore persistence.
type StoreConfig struct {
	// Backend is "redis" or "memory".
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig is the Redis endpoint used by internal/store/redis.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CatalogueConfig configures the Launcher/Catalogue (C6).
type CatalogueConfig struct {
	GamesDir          string `yaml:"games_dir"`
	TeamsPath         string `yaml:"teams_path"`
	CompetitionActive bool   `yaml:"competition_active"`
}

// AuthConfig configures the bearer-token verification collaborator.
type AuthConfig struct {
	JWTSecret  string   `yaml:"jwt_secret"`
	AdminKeys  []string `yaml:"admin_keys"`
	AdminUsers []string `yaml:"admin_emails"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string      `yaml:"level"`
	Format string      `yaml:"format"`
	Output string      `yaml:"output"`
	File   *FileConfig `yaml:"file,omitempty"`
}

// FileConfig represents file logging configuration (lumberjack-backed).
type FileConfig struct {
	Directory string `yaml:"directory"`
	Filename  string `yaml:"filename"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
	MaxAgeDay int    `yaml:"max_age_days"`
	Compress  bool   `yaml:"compress"`
}

// MetricsConfig represents Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads and parses a YAML config file, expanding ${VAR} references
// against the process environment before unmarshalling.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Default returns a config with sane defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Timeout:        "30s",
			MaxConnections: 1000,
		},
		Runtime: RuntimeConfig{
			Backend: "process",
			Limits: ResourceLimits{
				MemoryBytes: 64 * 1024 * 1024,
				CPUNanos:    200_000_000,
			},
		},
		Session: SessionConfig{
			MaxSessionsPerUser: 1,
			SessionTTL:         "1h",
		},
		Store: StoreConfig{
			Backend: "memory",
			Redis:   RedisConfig{Address: "localhost:6379"},
		},
		Catalogue: CatalogueConfig{
			GamesDir: "./games",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// ParseDuration parses a duration string, falling back to a default on
// error instead of propagating a parse failure for optional settings.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}
