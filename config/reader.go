package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/annotator/logging"
)

// Read reads a config from the given file. Environment variables in the file are expanded
// first.
func Read(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(
	ctx context.Context,
	originalPath string,
	r io.Reader,
	logger logging.Logger,
) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := Config{
		ConfigFilePath: originalPath,
	}
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	logger.Debugw("read config", "path", originalPath, "models", len(cfg.Models), "debug", cfg.Debug)
	return &cfg, nil
}

// ApplyLogConfig sets logger levels: debug when the config asks for it, then the per-logger
// pattern overrides.
func (c *Config) ApplyLogConfig(registry *logging.Registry, logger logging.Logger) error {
	if c.Debug {
		logger.SetLevel(logging.DEBUG)
	}
	return registry.UpdateConfig(c.LogConfig, logger)
}

// AddLogFile adds the configured log file, if any, as an appender of logger and returns it so the
// caller can close it. It returns nil without a log_file section.
func (c *Config) AddLogFile(logger logging.Logger) *logging.FileAppender {
	if c.LogFile == nil {
		return nil
	}
	appender := logging.NewFileAppender(c.LogFile.Path, c.LogFile.MaxSizeMB, c.LogFile.MaxBackups, c.LogFile.Compress)
	logger.AddAppender(appender)
	return appender
}
