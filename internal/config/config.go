// Package config holds quill's file transaction options.
//
// Configuration comes from three layers, later layers overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension (Load)
//  3. QUILL_<SECTION>_<KEY> environment variables (ApplyEnv)
//
// Command-line flags are applied by the caller on top of the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration.
type Config struct {
	Files   FilesConfig   `toml:"files" yaml:"files"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
}

// FilesConfig controls loading and saving.
type FilesConfig struct {
	// MakeBackup copies the previous content of a file before overwriting it.
	MakeBackup bool `toml:"make_backup" yaml:"make_backup"`

	// KeepBackup leaves the backup in place after a successful save.
	KeepBackup bool `toml:"keep_backup" yaml:"keep_backup"`

	// BackupSuffix is appended to the file name to form the backup name.
	BackupSuffix string `toml:"backup_suffix" yaml:"backup_suffix"`

	// DefaultEncoding is used when no encoding is requested.
	DefaultEncoding string `toml:"default_encoding" yaml:"default_encoding"`

	// MaxRecentFiles caps the recently closed files list.
	MaxRecentFiles int `toml:"max_recent_files" yaml:"max_recent_files"`

	// ParseFilePositions enables file:line:col parsing of command-line paths.
	ParseFilePositions bool `toml:"parse_file_positions" yaml:"parse_file_positions"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`

	// File receives the log instead of stderr when set.
	File string `toml:"file" yaml:"file"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Address string `toml:"address" yaml:"address"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Files: FilesConfig{
			MakeBackup:         true,
			KeepBackup:         false,
			BackupSuffix:       "~",
			DefaultEncoding:    "UTF-8",
			MaxRecentFiles:     16,
			ParseFilePositions: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9464",
		},
	}
}

// Load reads the configuration file at path over the defaults.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := Decode(path, data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses data into cfg. The format is chosen by the extension of
// path. Unknown keys are rejected.
func Decode(path string, data []byte, cfg *Config) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}
