// Package logger builds the application's zerolog root logger. Every
// subsystem derives its own logger from this one via With().Str("module",
// ...), so service-wide fields are attached exactly once, here.
package logger

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type LoggerConfig struct {
	Level          string `json:"level,omitempty" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format         string `json:"format,omitempty" mapstructure:"format" validate:"oneof=json console"`
	Env            string `json:"env,omitempty" mapstructure:"env" validate:"oneof=dev staging prod"`
	TimeField      string `json:"timeField,omitempty" mapstructure:"time_field"`
	TimeFormat     string `json:"timeFormat,omitempty" mapstructure:"time_format" validate:"oneof=rfc3339 rfc3339nano unix unix_ms"`
	ServiceName    string `json:"serviceName,omitempty" mapstructure:"service_name"`
	ServiceVersion string `json:"serviceVersion,omitempty" mapstructure:"service_version"`
	WithCaller     bool   `json:"withCaller,omitempty" mapstructure:"with_caller"`
}

func New(cfg *LoggerConfig) (zerolog.Logger, error) {
	cfg.setDefaults()

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return zerolog.Logger{}, fmt.Errorf("logger config validation error: %w", err)
	}

	zerolog.TimestampFieldName = cfg.TimeField
	zerolog.TimeFieldFormat = timeFormat(cfg.TimeFormat)

	var logger zerolog.Logger
	if cfg.Format == "console" {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: timeFormat(cfg.TimeFormat)}
		logger = zerolog.New(writer)
	} else {
		logger = zerolog.New(os.Stdout)
	}
	logger = logger.With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("version", cfg.ServiceVersion).
		Str("env", cfg.Env).
		Logger()

	if cfg.WithCaller {
		logger = logger.With().Caller().Logger()
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return logger, err
	}
	zerolog.SetGlobalLevel(level)

	return logger, nil
}

func timeFormat(name string) string {
	switch name {
	case "unix":
		return zerolog.TimeFormatUnix
	case "unix_ms":
		return zerolog.TimeFormatUnixMs
	case "rfc3339":
		return "2006-01-02T15:04:05Z07:00"
	default:
		return "2006-01-02T15:04:05.999999999Z07:00"
	}
}

func (c *LoggerConfig) setDefaults() {
	if c.Env == "" {
		c.Env = "prod"
	}
	if c.Level == "" {
		if c.Env == "dev" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}
	if c.Format == "" {
		if c.Env == "dev" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}
	if c.TimeField == "" {
		c.TimeField = "ts"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "rfc3339nano"
	}
	if c.ServiceName == "" {
		c.ServiceName = "seed-control-interface"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.0.1"
	}
	if !c.WithCaller && c.Env == "dev" {
		c.WithCaller = true
	}
}
