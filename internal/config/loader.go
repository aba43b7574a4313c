package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	AppAcsd   = "acsd"
	AppAcsctl = "acsctl"
)

// configSearchPaths returns the paths to search for config files in order of
// precedence (later paths have higher priority). Viper uses the first path
// that holds a config file, so newViper registers them in reverse.
func configSearchPaths(appName string) []string {
	paths := []string{}

	paths = append(paths, filepath.Join("/etc", appName))

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, cwd)
	}

	return paths
}

// UserConfigDir returns the user-specific config directory for the app.
func UserConfigDir(appName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// newViper creates and configures a new Viper instance for the given app.
func newViper(appName string) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml") // default, but will auto-detect

	paths := configSearchPaths(appName)
	for i := len(paths) - 1; i >= 0; i-- {
		v.AddConfigPath(paths[i])
	}

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadAcsd loads the configuration for the acsd daemon.
func LoadAcsd(cfgFile string) (*AcsdConfig, error) {
	v := newViper(AppAcsd)

	defaults := DefaultAcsdConfig()
	setViperDefaults(v, defaults)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults + env vars.
	}

	var cfg AcsdConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := resolveSecrets(&cfg); err != nil {
		return nil, fmt.Errorf("failed to resolve secrets: %w", err)
	}

	return &cfg, nil
}

// LoadAcsctl loads the configuration for the acsctl CLI.
func LoadAcsctl(cfgFile string) (*AcsctlConfig, error) {
	v := newViper(AppAcsctl)

	defaults := DefaultAcsctlConfig()
	setViperDefaults(v, defaults)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg AcsctlConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := resolveSecrets(&cfg); err != nil {
		return nil, fmt.Errorf("failed to resolve secrets: %w", err)
	}

	return &cfg, nil
}

// setViperDefaults sets default values in Viper from a config struct.
func setViperDefaults(v *viper.Viper, cfg interface{}) {
	switch c := cfg.(type) {
	case *AcsdConfig:
		v.SetDefault("tenant_id", c.TenantID)
		v.SetDefault("log.level", c.Log.Level)
		v.SetDefault("log.format", c.Log.Format)
		v.SetDefault("log.output", c.Log.Output)
		v.SetDefault("identity.name", c.Identity.Name)
		v.SetDefault("identity.email", c.Identity.Email)
		v.SetDefault("identity.key_path", c.Identity.KeyPath)
		v.SetDefault("server.host", c.Server.Host)
		v.SetDefault("server.port", c.Server.Port)
		v.SetDefault("server.tls.enabled", c.Server.TLS.Enabled)
		v.SetDefault("server.tls.cert_file", c.Server.TLS.CertFile)
		v.SetDefault("server.tls.key_file", c.Server.TLS.KeyFile)
		v.SetDefault("server.pid_file", c.Server.PIDFile)
		v.SetDefault("server.data_dir", c.Server.DataDir)
		v.SetDefault("postgres.dsn", c.Postgres.DSN)
		v.SetDefault("retention.days", c.Retention.Days)
		v.SetDefault("retention.preserve_change_types", c.Retention.PreserveChangeTypes)
		v.SetDefault("cache.ttl", c.Cache.TTL)
		v.SetDefault("cache.max_entries", c.Cache.MaxEntries)
		v.SetDefault("buffer.soft_cap", c.Buffer.SoftCap)
		v.SetDefault("buffer.deadline_default", c.Buffer.DeadlineDefault)
		v.SetDefault("circuit.window", c.Circuit.Window)
		v.SetDefault("circuit.open_at", c.Circuit.OpenAt)
		v.SetDefault("circuit.cooldown", c.Circuit.Cooldown)
		v.SetDefault("monitor.sample_floor", c.Monitor.SampleFloor)
	case *AcsctlConfig:
		v.SetDefault("log.level", c.Log.Level)
		v.SetDefault("log.format", c.Log.Format)
		v.SetDefault("log.output", c.Log.Output)
		v.SetDefault("identity.name", c.Identity.Name)
		v.SetDefault("identity.email", c.Identity.Email)
		v.SetDefault("identity.key_path", c.Identity.KeyPath)
		v.SetDefault("output.format", c.Output.Format)
		v.SetDefault("output.color", c.Output.Color)
		v.SetDefault("server", c.Server)
	}
}

// ConfigFileUsed returns the config file path that was loaded, if any.
func ConfigFileUsed(appName string) string {
	v := newViper(appName)
	_ = v.ReadInConfig()
	return v.ConfigFileUsed()
}

// NewViperFromConfig creates a viper instance populated with values from a
// config struct.
func NewViperFromConfig(appName string, cfg interface{}) *viper.Viper {
	v := viper.New()

	switch c := cfg.(type) {
	case *AcsdConfig:
		v.Set("tenant_id", c.TenantID)
		v.Set("log.level", c.Log.Level)
		v.Set("log.format", c.Log.Format)
		v.Set("log.output", c.Log.Output)
		v.Set("identity.name", c.Identity.Name)
		v.Set("identity.email", c.Identity.Email)
		v.Set("identity.key_path", c.Identity.KeyPath)
		v.Set("server.host", c.Server.Host)
		v.Set("server.port", c.Server.Port)
		v.Set("server.tls.enabled", c.Server.TLS.Enabled)
		v.Set("server.tls.cert_file", c.Server.TLS.CertFile)
		v.Set("server.tls.key_file", c.Server.TLS.KeyFile)
		v.Set("server.pid_file", c.Server.PIDFile)
		v.Set("server.data_dir", c.Server.DataDir)
		v.Set("postgres.dsn", c.Postgres.DSN)
		v.Set("retention.days", c.Retention.Days)
		v.Set("retention.preserve_change_types", c.Retention.PreserveChangeTypes)
		v.Set("cache.ttl", c.Cache.TTL)
		v.Set("cache.max_entries", c.Cache.MaxEntries)
		v.Set("buffer.soft_cap", c.Buffer.SoftCap)
		v.Set("buffer.deadline_default", c.Buffer.DeadlineDefault)
		v.Set("circuit.window", c.Circuit.Window)
		v.Set("circuit.open_at", c.Circuit.OpenAt)
		v.Set("circuit.cooldown", c.Circuit.Cooldown)
		v.Set("monitor.sample_floor", c.Monitor.SampleFloor)
	case *AcsctlConfig:
		v.Set("log.level", c.Log.Level)
		v.Set("log.format", c.Log.Format)
		v.Set("log.output", c.Log.Output)
		v.Set("identity.name", c.Identity.Name)
		v.Set("identity.email", c.Identity.Email)
		v.Set("identity.key_path", c.Identity.KeyPath)
		v.Set("output.format", c.Output.Format)
		v.Set("output.color", c.Output.Color)
		v.Set("server", c.Server)
	}

	return v
}
