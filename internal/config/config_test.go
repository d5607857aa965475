package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/base")

	if cfg.SessionsRoot != filepath.Join("/base", "sessions") {
		t.Errorf("SessionsRoot = %q, want %q", cfg.SessionsRoot, "/base/sessions")
	}
	if cfg.DebounceMillis != DefaultDebounceMillis {
		t.Errorf("DebounceMillis = %d, want %d", cfg.DebounceMillis, DefaultDebounceMillis)
	}
	if cfg.CommandTimeoutSecs != DefaultCommandTimeoutSecs {
		t.Errorf("CommandTimeoutSecs = %d, want %d", cfg.CommandTimeoutSecs, DefaultCommandTimeoutSecs)
	}
	if cfg.CaptureToolOutputKey != DefaultOutputKey {
		t.Errorf("CaptureToolOutputKey = %q, want %q", cfg.CaptureToolOutputKey, DefaultOutputKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SessionsRoot != filepath.Join(tmpDir, "sessions") {
		t.Errorf("SessionsRoot = %q, want default", cfg.SessionsRoot)
	}
	if cfg.DebounceMillis != DefaultDebounceMillis {
		t.Errorf("DebounceMillis = %d, want default", cfg.DebounceMillis)
	}
}

func TestLoad_Overlay(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{
		"sessions_root": "/qa/sessions",
		"debounce_millis": 500,
		"screenshot_exts": ["PNG", "tiff"],
		"db_max_open_conns": 1
	}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SessionsRoot != "/qa/sessions" {
		t.Errorf("SessionsRoot = %q, want %q", cfg.SessionsRoot, "/qa/sessions")
	}
	if cfg.DebounceMillis != 500 {
		t.Errorf("DebounceMillis = %d, want 500", cfg.DebounceMillis)
	}
	if cfg.DBMaxOpenConns != 1 {
		t.Errorf("DBMaxOpenConns = %d, want 1", cfg.DBMaxOpenConns)
	}
	// Unset scalars fall back to defaults
	if cfg.CommandTimeoutSecs != DefaultCommandTimeoutSecs {
		t.Errorf("CommandTimeoutSecs = %d, want default", cfg.CommandTimeoutSecs)
	}
	// Extension entries are normalized
	want := []string{".png", ".tiff"}
	if len(cfg.ScreenshotExts) != 2 || cfg.ScreenshotExts[0] != want[0] || cfg.ScreenshotExts[1] != want[1] {
		t.Errorf("ScreenshotExts = %v, want %v", cfg.ScreenshotExts, want)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(tmpDir)
	if err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestMerge_ExtensionReplaceNotAppend(t *testing.T) {
	base := &Config{VideoExts: []string{".mp4", ".mov"}}
	overlay := &Config{VideoExts: []string{".webm"}}

	merged := Merge(base, overlay)
	if len(merged.VideoExts) != 1 || merged.VideoExts[0] != ".webm" {
		t.Errorf("VideoExts = %v, want [.webm]", merged.VideoExts)
	}
}

func TestMerge_TriggerCommand(t *testing.T) {
	base := &Config{CaptureTriggerCommand: []string{"scrot", "-s"}}
	merged := Merge(base, &Config{})
	if len(merged.CaptureTriggerCommand) != 2 {
		t.Errorf("CaptureTriggerCommand = %v, want base preserved", merged.CaptureTriggerCommand)
	}

	merged = Merge(base, &Config{CaptureTriggerCommand: []string{"flameshot", "gui"}})
	if merged.CaptureTriggerCommand[0] != "flameshot" {
		t.Errorf("CaptureTriggerCommand = %v, want overlay", merged.CaptureTriggerCommand)
	}
}
