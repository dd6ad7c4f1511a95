package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable quill reads.
const EnvPrefix = "QUILL_"

type envSetter func(cfg *Config, value string) error

// envMapping maps environment variables to the settings they override.
var envMapping = map[string]struct {
	path string
	set  envSetter
}{
	"QUILL_FILES_MAKE_BACKUP":          {"files.make_backup", boolSetter(func(c *Config) *bool { return &c.Files.MakeBackup })},
	"QUILL_FILES_KEEP_BACKUP":          {"files.keep_backup", boolSetter(func(c *Config) *bool { return &c.Files.KeepBackup })},
	"QUILL_FILES_BACKUP_SUFFIX":        {"files.backup_suffix", stringSetter(func(c *Config) *string { return &c.Files.BackupSuffix })},
	"QUILL_FILES_DEFAULT_ENCODING":     {"files.default_encoding", stringSetter(func(c *Config) *string { return &c.Files.DefaultEncoding })},
	"QUILL_FILES_MAX_RECENT_FILES":     {"files.max_recent_files", intSetter(func(c *Config) *int { return &c.Files.MaxRecentFiles })},
	"QUILL_FILES_PARSE_FILE_POSITIONS": {"files.parse_file_positions", boolSetter(func(c *Config) *bool { return &c.Files.ParseFilePositions })},
	"QUILL_LOG_LEVEL":                  {"log.level", stringSetter(func(c *Config) *string { return &c.Log.Level })},
	"QUILL_LOG_FORMAT":                 {"log.format", stringSetter(func(c *Config) *string { return &c.Log.Format })},
	"QUILL_LOG_FILE":                   {"log.file", stringSetter(func(c *Config) *string { return &c.Log.File })},
	"QUILL_METRICS_ENABLED":            {"metrics.enabled", boolSetter(func(c *Config) *bool { return &c.Metrics.Enabled })},
	"QUILL_METRICS_ADDRESS":            {"metrics.address", stringSetter(func(c *Config) *string { return &c.Metrics.Address })},
}

// ApplyEnv overrides cfg with QUILL_* variables from the process environment.
func ApplyEnv(cfg *Config) error {
	return ApplyEnvFrom(cfg, os.LookupEnv)
}

// ApplyEnvFrom overrides cfg with variables returned by lookup.
// Empty values are treated as set, not as unset.
func ApplyEnvFrom(cfg *Config, lookup func(string) (string, bool)) error {
	for env, m := range envMapping {
		val, ok := lookup(env)
		if !ok {
			continue
		}
		if err := m.set(cfg, strings.TrimSpace(val)); err != nil {
			return &ValidationError{
				Path:    m.path,
				Message: env + ": " + err.Error(),
				Value:   val,
				Code:    ErrCodeTypeMismatch,
			}
		}
	}
	return nil
}

func boolSetter(field func(*Config) *bool) envSetter {
	return func(cfg *Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*field(cfg) = b
		return nil
	}
}

func intSetter(field func(*Config) *int) envSetter {
	return func(cfg *Config, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}
}

func stringSetter(field func(*Config) *string) envSetter {
	return func(cfg *Config, value string) error {
		*field(cfg) = value
		return nil
	}
}
