package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configurable sessiondiff settings.
type Config struct {
	DefaultFormat  string   `json:"default_format"` // "markdown" | "json" | "diff"
	OutputDir      string   `json:"output_dir"`     // where watch writes notes; empty prints only
	MaxDiffLines   int      `json:"max_diff_lines"` // diff lines shown in Markdown notes
	DebounceMillis int      `json:"debounce_ms"`
	PollInterval   string   `json:"poll_interval"` // Go duration; "0" disables polling
	IgnorePatterns []string `json:"ignore_patterns"`
	LogLevel       string   `json:"log_level"`
	GitBinary      string   `json:"git_binary"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		DefaultFormat:  "markdown",
		MaxDiffLines:   100,
		DebounceMillis: 300,
		PollInterval:   "5s",
		IgnorePatterns: []string{},
		GitBinary:      "git",
	}
}

// Debounce returns DebounceMillis as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// Interval parses PollInterval. Invalid or negative values disable polling.
func (c Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GlobalPath returns ~/.config/sessiondiff/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sessiondiff", "config.json"), nil
}

// LoadGlobal reads ~/.config/sessiondiff/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .sessiondiffconfig in dir ("" for the current directory).
// Returns nil (no error) if the file is absent.
func LoadProject(dir string) (*Config, error) {
	return loadFile(filepath.Join(dir, ".sessiondiffconfig"), false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	apply(&result, global)
	apply(&result, project)
	return result
}

// apply copies every set field of src over dst.
func apply(dst, src *Config) {
	if src == nil {
		return
	}
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.OutputDir != "" {
		dst.OutputDir = src.OutputDir
	}
	if src.MaxDiffLines > 0 {
		dst.MaxDiffLines = src.MaxDiffLines
	}
	if src.DebounceMillis > 0 {
		dst.DebounceMillis = src.DebounceMillis
	}
	if src.PollInterval != "" {
		dst.PollInterval = src.PollInterval
	}
	if len(src.IgnorePatterns) > 0 {
		dst.IgnorePatterns = src.IgnorePatterns
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.GitBinary != "" {
		dst.GitBinary = src.GitBinary
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
