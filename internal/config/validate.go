package config

import "strings"

// Validate checks the configuration. probe reports whether an encoding tag
// can be converted; a nil probe skips the encoding check.
func (c *Config) Validate(probe func(tag string) bool) error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log.level", Message: "must be debug, info, warn or error", Value: c.Log.Level, Code: ErrCodeInvalidEnum}
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return &ValidationError{Path: "log.format", Message: "must be text or json", Value: c.Log.Format, Code: ErrCodeInvalidEnum}
	}

	if c.Files.BackupSuffix == "" {
		return &ValidationError{Path: "files.backup_suffix", Message: "must not be empty", Value: c.Files.BackupSuffix, Code: ErrCodeRequiredMissing}
	}
	if strings.ContainsRune(c.Files.BackupSuffix, '/') {
		return &ValidationError{Path: "files.backup_suffix", Message: "must not contain a path separator", Value: c.Files.BackupSuffix, Code: ErrCodeInvalidEnum}
	}

	if c.Files.MaxRecentFiles < 0 {
		return &ValidationError{Path: "files.max_recent_files", Message: "must not be negative", Value: c.Files.MaxRecentFiles, Code: ErrCodeOutOfRange}
	}

	if c.Files.DefaultEncoding == "" {
		return &ValidationError{Path: "files.default_encoding", Message: "must not be empty", Value: c.Files.DefaultEncoding, Code: ErrCodeRequiredMissing}
	}
	if probe != nil && !probe(c.Files.DefaultEncoding) {
		return &ValidationError{Path: "files.default_encoding", Message: "no converter available", Value: c.Files.DefaultEncoding, Code: ErrCodeInvalidEnum}
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return &ValidationError{Path: "metrics.address", Message: "required when metrics are enabled", Value: c.Metrics.Address, Code: ErrCodeRequiredMissing}
	}
	return nil
}
