package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = "skillplay"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix, e.g. SKILLPLAY_STORAGE_DRIVER.
const envPrefix = "SKILLPLAY"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Defaults.
const (
	DefaultAppName               = "skillplay"
	DefaultTimezone              = "UTC"
	DefaultStorageDriver         = "sqlite"
	DefaultTransportFailureRoute = "remote"
	DefaultDeviceSource          = "system"
	DefaultTimeUnit              = time.Second
	DefaultChallengeSelection    = "random"
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "text"
)

// Load loads configuration from file, env vars and defaults.
// If configPath is non-empty it is used as the explicit config file path.
// Otherwise skillplay.yaml is searched in CWD and $HOME/.skillplay.
// A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".skillplay"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed is reported by the CLI; it mirrors the search Load performs.
func ConfigFileUsed(configPath string) string {
	if configPath != "" {
		return configPath
	}
	for _, dir := range searchDirs() {
		p := filepath.Join(dir, configName+"."+configType)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func searchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".skillplay"))
	}
	return dirs
}

// DefaultDataDir is $HOME/.skillplay, or ./.skillplay when HOME is unknown.
func DefaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".skillplay")
	}
	return ".skillplay"
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", DefaultAppName)
	v.SetDefault("app.environment", string(EnvDevelopment))
	v.SetDefault("app.data_dir", DefaultDataDir())
	v.SetDefault("app.timezone", DefaultTimezone)

	v.SetDefault("storage.driver", DefaultStorageDriver)
	v.SetDefault("storage.sqlite.path", "")
	v.SetDefault("storage.redis.url", "")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key_prefix", "skillplay:")
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("storage.postgres.url", "")
	v.SetDefault("storage.postgres.host", "")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.database", "skillplay")
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.namespace", "default")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.prefix", "skillplay/")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")

	v.SetDefault("gate.remote_url", "")
	v.SetDefault("gate.transport_failure_route", DefaultTransportFailureRoute)

	v.SetDefault("device.source", DefaultDeviceSource)
	v.SetDefault("device.battery_percent", -1)
	v.SetDefault("device.vpn_active", false)

	v.SetDefault("session.time_unit", DefaultTimeUnit)
	v.SetDefault("session.challenge_selection", DefaultChallengeSelection)

	v.SetDefault("catalog.path", "")

	v.SetDefault("observability.log_level", DefaultLogLevel)
	v.SetDefault("observability.log_format", DefaultLogFormat)
	v.SetDefault("observability.metrics_addr", "")
}
