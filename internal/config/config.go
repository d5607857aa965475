package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// SessionsRoot is the directory under which per-session folders are
	// created. Defaults to baseDir/sessions.
	SessionsRoot string `json:"sessions_root,omitempty"`

	// ScreenshotExts lists file extensions classified as screenshots.
	// Lowercase, leading dot. Empty means the built-in default set.
	ScreenshotExts []string `json:"screenshot_exts,omitempty"`

	// VideoExts lists file extensions classified as videos.
	VideoExts []string `json:"video_exts,omitempty"`

	// DebounceMillis is how long the watcher holds a path before
	// delivering it, to absorb duplicate OS events for the same file.
	// 0 means the default (200ms).
	DebounceMillis int `json:"debounce_millis,omitempty"`

	// CommandTimeoutSecs bounds session start/end commands, which
	// perform filesystem and capture-tool I/O that can stall. 0 means
	// the default (10s).
	CommandTimeoutSecs int `json:"command_timeout_secs,omitempty"`

	// CaptureToolSettings is the path of the capture tool's settings
	// file, whose save-location key the engine rewrites for the
	// duration of a session. Empty disables redirection (captures must
	// then be saved into the landing directory manually).
	CaptureToolSettings string `json:"capture_tool_settings,omitempty"`

	// CaptureToolOutputKey is the JSON key inside CaptureToolSettings
	// that holds the tool's output directory. Defaults to "output_dir".
	CaptureToolOutputKey string `json:"capture_tool_output_key,omitempty"`

	// CaptureTriggerCommand is the argv run by the trigger-capture
	// operation (e.g. a screenshot CLI). Empty disables triggering.
	CaptureTriggerCommand []string `json:"capture_trigger_command,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// Default tunables applied when the config file leaves them unset.
const (
	DefaultDebounceMillis     = 200
	DefaultCommandTimeoutSecs = 10
	DefaultOutputKey          = "output_dir"
)

// DefaultConfig returns the default configuration for the given base dir.
func DefaultConfig(baseDir string) *Config {
	return &Config{
		SessionsRoot:         filepath.Join(baseDir, "sessions"),
		DebounceMillis:       DefaultDebounceMillis,
		CommandTimeoutSecs:   DefaultCommandTimeoutSecs,
		CaptureToolOutputKey: DefaultOutputKey,
	}
}

// Load loads configuration from baseDir/config.json, merged over
// defaults. Returns defaults if the file doesn't exist. The baseDir
// parameter allows tests to use t.TempDir() instead of ~/.snag.
func Load(baseDir string) (*Config, error) {
	overlay, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(baseDir), overlay), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs. Overlay values take
// precedence for scalars; extension lists replace wholesale when set,
// since partial extension merging would be surprising.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SessionsRoot = overlay.SessionsRoot
	if result.SessionsRoot == "" {
		result.SessionsRoot = base.SessionsRoot
	}

	result.DebounceMillis = overlay.DebounceMillis
	if result.DebounceMillis == 0 {
		result.DebounceMillis = base.DebounceMillis
	}

	result.CommandTimeoutSecs = overlay.CommandTimeoutSecs
	if result.CommandTimeoutSecs == 0 {
		result.CommandTimeoutSecs = base.CommandTimeoutSecs
	}

	result.CaptureToolSettings = overlay.CaptureToolSettings
	if result.CaptureToolSettings == "" {
		result.CaptureToolSettings = base.CaptureToolSettings
	}

	result.CaptureToolOutputKey = overlay.CaptureToolOutputKey
	if result.CaptureToolOutputKey == "" {
		result.CaptureToolOutputKey = base.CaptureToolOutputKey
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.ScreenshotExts = pickExts(base.ScreenshotExts, overlay.ScreenshotExts)
	result.VideoExts = pickExts(base.VideoExts, overlay.VideoExts)

	result.CaptureTriggerCommand = overlay.CaptureTriggerCommand
	if len(result.CaptureTriggerCommand) == 0 {
		result.CaptureTriggerCommand = base.CaptureTriggerCommand
	}

	return result
}

// pickExts returns the overlay extension list if set, else the base,
// normalizing entries to lowercase with a leading dot.
func pickExts(base, overlay []string) []string {
	src := overlay
	if len(src) == 0 {
		src = base
	}
	if len(src) == 0 {
		return nil
	}

	result := make([]string, 0, len(src))
	for _, e := range src {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		result = append(result, e)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
