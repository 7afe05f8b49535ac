package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// SaveDebounceMS is the quiet period after the last edit before the note is persisted
	SaveDebounceMS int `json:"save_debounce_ms" toml:"save_debounce_ms" yaml:"save_debounce_ms"`

	// SummaryEndpoint is the generateContent URL used for summarization.
	// The API key from settings is appended as the "key" query parameter.
	SummaryEndpoint string `json:"summary_endpoint" toml:"summary_endpoint" yaml:"summary_endpoint"`

	// SummaryResponsePath locates the summary text inside a successful response body.
	SummaryResponsePath string `json:"summary_response_path" toml:"summary_response_path" yaml:"summary_response_path"`

	// SummaryTimeoutSeconds bounds a single summarization request.
	SummaryTimeoutSeconds int `json:"summary_timeout_seconds" toml:"summary_timeout_seconds" yaml:"summary_timeout_seconds"`

	// RecognizerURL is the websocket endpoint of the streaming speech recognizer.
	// Empty disables live recognition (recording reports CAPABILITY_MISSING).
	RecognizerURL string `json:"recognizer_url,omitempty" toml:"recognizer_url" yaml:"recognizer_url"`

	// SampleRate is the microphone capture rate in Hz. WebRTC VAD accepts 8000, 16000, 32000 or 48000.
	SampleRate int `json:"sample_rate" toml:"sample_rate" yaml:"sample_rate"`

	// VADMode is the WebRTC VAD aggressiveness, 0 (least) to 3 (most).
	VADMode int `json:"vad_mode" toml:"vad_mode" yaml:"vad_mode"`

	// VADHangoverMS is how long silence must last before speech is considered ended.
	VADHangoverMS int `json:"vad_hangover_ms" toml:"vad_hangover_ms" yaml:"vad_hangover_ms"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" toml:"log_level" yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format" toml:"log_format" yaml:"log_format"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.voxnote/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" toml:"allowed_paths" yaml:"allowed_paths"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" toml:"allow_unsafe_paths" yaml:"allow_unsafe_paths"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" toml:"db_max_open_conns" yaml:"db_max_open_conns"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" toml:"db_max_idle_conns" yaml:"db_max_idle_conns"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" toml:"disabled_tools" yaml:"disabled_tools"`

	// DisabledTypes is a list of tool groups to disable entirely.
	// Known types: "note", "folder", "summary". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty" toml:"disabled_types" yaml:"disabled_types"`
}

// configNames are tried in order inside the base directory; the first that exists wins.
var configNames = []string{"config.json", "config.toml", "config.yaml", "config.yml"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SaveDebounceMS:        500,
		SummaryEndpoint:       "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent",
		SummaryResponsePath:   "candidates[0].content.parts[0].text",
		SummaryTimeoutSeconds: 60,
		SampleRate:            16000,
		VADMode:               2,
		VADHangoverMS:         700,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// Load loads configuration from the first config file found in baseDir.
// Returns default config if none exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.voxnote.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(FindConfig(baseDir))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// FindConfig returns the path of the config file in baseDir, or "" if there is none.
func FindConfig(baseDir string) string {
	for _, name := range configNames {
		p := filepath.Join(baseDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadFileRaw loads configuration from a specific file path, decoding by extension.
// Returns zero-valued config if the path is empty or the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.SaveDebounceMS = pickInt(overlay.SaveDebounceMS, base.SaveDebounceMS)
	result.SummaryTimeoutSeconds = pickInt(overlay.SummaryTimeoutSeconds, base.SummaryTimeoutSeconds)
	result.SampleRate = pickInt(overlay.SampleRate, base.SampleRate)
	result.VADMode = pickInt(overlay.VADMode, base.VADMode)
	result.VADHangoverMS = pickInt(overlay.VADHangoverMS, base.VADHangoverMS)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.SummaryEndpoint = pickString(overlay.SummaryEndpoint, base.SummaryEndpoint)
	result.SummaryResponsePath = pickString(overlay.SummaryResponsePath, base.SummaryResponsePath)
	result.RecognizerURL = pickString(overlay.RecognizerURL, base.RecognizerURL)
	result.LogLevel = pickString(overlay.LogLevel, base.LogLevel)
	result.LogFormat = pickString(overlay.LogFormat, base.LogFormat)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
