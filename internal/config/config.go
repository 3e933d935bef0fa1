// Package config loads fieldset settings from a YAML file and FIELDSET_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. FIELDSET_LOG_LEVEL.
	EnvPrefix = "FIELDSET"

	configName = "fieldset"
	configType = "yaml"

	KeyLogLevel     = "log_level"
	KeyFormat       = "format"
	KeyHistoryLimit = "history_limit"
	KeySchemaDir    = "schema_dir"
	KeyMetrics      = "metrics"
)

// Config holds the settings shared by every command.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// Format is the CLI output format: text or json.
	Format string `mapstructure:"format" validate:"oneof=text json"`

	// HistoryLimit bounds undo depth on session commit. Zero is unbounded.
	HistoryLimit int `mapstructure:"history_limit" validate:"gte=0,lte=10000"`

	// SchemaDir is the default CUE schema directory.
	SchemaDir string `mapstructure:"schema_dir" validate:"omitempty,dir"`

	// Metrics prints collected lifecycle metrics after a test run.
	Metrics bool `mapstructure:"metrics"`
}

var validate = validator.New()

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel: "info",
		Format:   "text",
	}
}

// Load reads settings. An explicit path must exist; with no path, a
// fieldset.yaml in the working directory is used if present. Environment
// variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyFormat, def.Format)
	v.SetDefault(KeyHistoryLimit, def.HistoryLimit)
	v.SetDefault(KeySchemaDir, def.SchemaDir)
	v.SetDefault(KeyMetrics, def.Metrics)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return &ValidationError{Problems: msgs}
}

// ValidationError lists every invalid setting.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

func describe(fe validator.FieldError) string {
	name := keyFor(fe.Field())
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s, got %v", name, fe.Tag(), fe.Param(), fe.Value())
	case "dir":
		return fmt.Sprintf("%s %q is not a directory", name, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", name, fe.Tag())
	}
}

func keyFor(field string) string {
	switch field {
	case "LogLevel":
		return KeyLogLevel
	case "Format":
		return KeyFormat
	case "HistoryLimit":
		return KeyHistoryLimit
	case "SchemaDir":
		return KeySchemaDir
	case "Metrics":
		return KeyMetrics
	}
	return field
}

// SlogLevel maps LogLevel to a slog.Level. Unknown names map to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
