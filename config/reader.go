package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.viam.com/dyntree/logging"
	"go.viam.com/dyntree/referenceframe"
)

// Read reads a config from the given file. Environment variables in the file are substituted before decoding.
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
// The format is YAML when originalPath ends in .yaml or .yml, and JSON otherwise.
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
	if err := decode(originalPath, r, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config")
	}
	if err := cfg.Validate(""); err != nil {
		return nil, errors.Wrap(err, "failed to validate Config")
	}
	logger.Debugw("read config", "path", originalPath, "model", cfg.ModelPath(), "ft_sensors", len(cfg.FTSensors))
	return &cfg, nil
}

// ReadState reads a cycle state from the given file, substituting environment variables the way Read does.
func ReadState(filePath string) (*State, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var state State
	if err := decode(filePath, bytes.NewReader(buf), &state); err != nil {
		return nil, errors.Wrapf(err, "failed to decode state from %q", filePath)
	}
	return &state, nil
}

// LoadModel reads the model file the config points at.
func (c *Config) LoadModel() (*referenceframe.ModelConfig, error) {
	return referenceframe.ParseModelFile(c.ModelPath(), "")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func decode(path string, r io.Reader, v interface{}) error {
	if isYAML(path) {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		return dec.Decode(v)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
