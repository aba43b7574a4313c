// Package config loads and validates configuration for acsd and acsctl:
// search-path/env-var resolution and secret references via viper, plus the
// tuning keys the entity graph, cache, command buffer, and resilience
// layer read at startup.
package config

import "time"

// LogConfig holds logging configuration shared by acsd and acsctl.
type LogConfig struct {
	Level        string   `mapstructure:"level"`         // debug, info, warn, error
	Format       string   `mapstructure:"format"`        // text, json, pretty
	Output       string   `mapstructure:"output"`        // stdout, stderr, or file path
	FilePath     string   `mapstructure:"file_path"`     // path to log file (in addition to output)
	MaxSizeMB    int      `mapstructure:"max_size_mb"`   // max size in MB before rotation
	MaxBackups   int      `mapstructure:"max_backups"`   // max number of old log files to keep
	MaxAgeDays   int      `mapstructure:"max_age_days"`  // max days to retain old log files
	EnableCaller bool     `mapstructure:"enable_caller"` // include source file/line in logs
	NoColor      bool     `mapstructure:"no_color"`      // disable colored output (pretty format only)
	RedactFields []string `mapstructure:"redact_fields"` // field names to redact from operational logs
}

// IdentityConfig names the operator identity acsd stamps on operational
// logs, and the Ed25519 signing key acsctl uses to sign command envelopes
// (frontend.Envelope) before submitting them.
type IdentityConfig struct {
	Name    string `mapstructure:"name"`
	Email   string `mapstructure:"email"`
	KeyPath string `mapstructure:"key_path"` // path to an Ed25519 private key, or a secret reference
}

// OutputConfig holds acsctl's output formatting options.
type OutputConfig struct {
	Format string `mapstructure:"format"` // text, json, yaml, table
	Color  bool   `mapstructure:"color"`
}

// ServerConfig holds acsd's listen configuration for the metrics/health
// endpoints.
type ServerConfig struct {
	Host    string    `mapstructure:"host"`
	Port    int       `mapstructure:"port"`
	TLS     TLSConfig `mapstructure:"tls"`
	PIDFile string    `mapstructure:"pid_file"`
	DataDir string    `mapstructure:"data_dir"`
}

// TLSConfig holds TLS/SSL configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// PostgresConfig points the repository gateway (C7) at its backend. An
// empty DSN selects the in-memory gateway, which is what acsd's own tests
// and local development use.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RetentionConfig governs the audit engine's Purge (C6, §4.6).
type RetentionConfig struct {
	Days                int      `mapstructure:"days"`
	PreserveChangeTypes []string `mapstructure:"preserve_change_types"`
}

// CacheConfig sizes the permission decision cache (C3, §4.3).
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// BufferConfig sizes the single-writer command buffer (C4, §4.4).
type BufferConfig struct {
	SoftCap         int           `mapstructure:"soft_cap"`
	DeadlineDefault time.Duration `mapstructure:"deadline_default"`
}

// CircuitConfig tunes the resilience layer's per-operation breaker (C8,
// §4.8).
type CircuitConfig struct {
	Window   int           `mapstructure:"window"`
	OpenAt   float64       `mapstructure:"open_at"`
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// MonitorConfig tunes the resilience layer's health monitor (C8, §4.8).
type MonitorConfig struct {
	SampleFloor int `mapstructure:"sample_floor"`
}

// AcsdConfig is the complete configuration for the acsd daemon.
type AcsdConfig struct {
	TenantID  string          `mapstructure:"tenant_id"`
	Log       LogConfig       `mapstructure:"log"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Retention RetentionConfig `mapstructure:"retention"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Buffer    BufferConfig    `mapstructure:"buffer"`
	Circuit   CircuitConfig   `mapstructure:"circuit"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
}

// AcsctlConfig is the complete configuration for the acsctl CLI. acsctl
// embeds its own engine (C1-C8) rather than dialing a running acsd over a
// network transport — §1 places that transport out of scope, and several
// admin commands are most naturally run directly against local storage
// rather than through a daemon client.
// Postgres lets an operator point acsctl at the same backing store a live
// acsd is using; an empty DSN falls back to a throwaway in-memory engine,
// useful for demos but invisible to any other process.
type AcsctlConfig struct {
	TenantID string         `mapstructure:"tenant_id"`
	Log      LogConfig      `mapstructure:"log"`
	Identity IdentityConfig `mapstructure:"identity"`
	Output   OutputConfig   `mapstructure:"output"`
	Server   string         `mapstructure:"server"` // informational: the acsd address this engine's data is shared with, if any
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// DefaultAcsdConfig returns sensible defaults for the acsd daemon,
// matching the thresholds named in spec.md §4.3/§4.4/§4.8.
func DefaultAcsdConfig() *AcsdConfig {
	return &AcsdConfig{
		TenantID: "default",
		Log: LogConfig{
			Level:        "info",
			Format:       "pretty",
			Output:       "stdout",
			MaxSizeMB:    100,
			MaxBackups:   3,
			MaxAgeDays:   28,
			EnableCaller: true,
			RedactFields: []string{"password", "token", "key", "secret", "credential", "auth"},
		},
		Identity: IdentityConfig{},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			PIDFile: "/var/run/acsd.pid",
			DataDir: "~/.local/share/acsd",
			TLS: TLSConfig{
				Enabled: false,
			},
		},
		Postgres: PostgresConfig{},
		Retention: RetentionConfig{
			Days:                365,
			PreserveChangeTypes: []string{"SYSTEM:"},
		},
		Cache: CacheConfig{
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
		Buffer: BufferConfig{
			SoftCap:         1000,
			DeadlineDefault: 5 * time.Second,
		},
		Circuit: CircuitConfig{
			Window:   10,
			OpenAt:   0.25,
			Cooldown: 30 * time.Second,
		},
		Monitor: MonitorConfig{
			SampleFloor: 10,
		},
	}
}

// DefaultAcsctlConfig returns sensible defaults for the acsctl CLI.
func DefaultAcsctlConfig() *AcsctlConfig {
	return &AcsctlConfig{
		TenantID: "default",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Identity: IdentityConfig{},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Server:   "localhost:8080",
		Postgres: PostgresConfig{},
	}
}
