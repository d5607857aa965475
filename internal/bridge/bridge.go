// Package bridge wraps the OS capture tool's two touchpoints: the
// save-location setting the engine redirects for a session's duration,
// and the command that triggers a capture. Everything else about the
// tool (hotkeys, UI, encoding) is its own business.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/snagforge/snag/internal/config"
)

// Tool is the capture-tool boundary the engine drives. RedirectOutput
// points the tool's save location at targetDir and returns the prior
// location so it can be restored; CurrentOutput lets startup recovery
// detect a redirect leaked by a crash.
type Tool interface {
	RedirectOutput(targetDir string) (originalPath string, err error)
	RestoreOutput(originalPath string) error
	CurrentOutput() (string, error)
	TriggerCapture(ctx context.Context) error
}

// FromConfig builds the Tool described by cfg: a settings-file tool
// when a settings path is configured, otherwise a no-op tool (the
// operator saves captures into the landing directory manually).
func FromConfig(cfg *config.Config) Tool {
	if cfg.CaptureToolSettings == "" {
		return NoopTool{}
	}
	return &SettingsFileTool{
		SettingsPath: cfg.CaptureToolSettings,
		OutputKey:    cfg.CaptureToolOutputKey,
		TriggerArgv:  cfg.CaptureTriggerCommand,
	}
}

// SettingsFileTool drives a capture tool that reads its output
// directory from a JSON settings file (flameshot, ksnip, and most
// screenshot CLIs support an equivalent). Redirection rewrites one key
// and leaves the rest of the file untouched.
type SettingsFileTool struct {
	// SettingsPath is the tool's settings file.
	SettingsPath string

	// OutputKey is the JSON key holding the output directory.
	OutputKey string

	// TriggerArgv is the argv run to trigger a capture. Empty disables
	// TriggerCapture.
	TriggerArgv []string
}

func (t *SettingsFileTool) readSettings() (map[string]any, error) {
	data, err := os.ReadFile(t.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("read capture tool settings: %w", err)
	}
	settings := make(map[string]any)
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse capture tool settings: %w", err)
	}
	return settings, nil
}

// writeSettings writes the settings file atomically (temp + rename) so
// the capture tool never reads a half-written file.
func (t *SettingsFileTool) writeSettings(settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode capture tool settings: %w", err)
	}

	dir := filepath.Dir(t.SettingsPath)
	tmp, err := os.CreateTemp(dir, ".snag-settings-*")
	if err != nil {
		return fmt.Errorf("write capture tool settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write capture tool settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write capture tool settings: %w", err)
	}
	if err := os.Rename(tmpName, t.SettingsPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write capture tool settings: %w", err)
	}
	return nil
}

// RedirectOutput swaps the tool's output directory to targetDir and
// returns the previous value.
func (t *SettingsFileTool) RedirectOutput(targetDir string) (string, error) {
	settings, err := t.readSettings()
	if err != nil {
		return "", err
	}

	original, _ := settings[t.OutputKey].(string)
	settings[t.OutputKey] = targetDir

	if err := t.writeSettings(settings); err != nil {
		return "", err
	}
	return original, nil
}

// RestoreOutput puts the tool's output directory back.
func (t *SettingsFileTool) RestoreOutput(originalPath string) error {
	settings, err := t.readSettings()
	if err != nil {
		return err
	}
	settings[t.OutputKey] = originalPath
	return t.writeSettings(settings)
}

// CurrentOutput reads the tool's current output directory.
func (t *SettingsFileTool) CurrentOutput() (string, error) {
	settings, err := t.readSettings()
	if err != nil {
		return "", err
	}
	current, _ := settings[t.OutputKey].(string)
	return current, nil
}

// TriggerCapture runs the configured trigger command.
func (t *SettingsFileTool) TriggerCapture(ctx context.Context) error {
	if len(t.TriggerArgv) == 0 {
		return fmt.Errorf("no capture trigger command configured")
	}
	cmd := exec.CommandContext(ctx, t.TriggerArgv[0], t.TriggerArgv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("capture trigger failed: %w: %s", err, out)
	}
	return nil
}

// NoopTool is used when no capture tool is configured. Redirection
// reports an empty original path, which the engine records as "nothing
// to restore".
type NoopTool struct{}

func (NoopTool) RedirectOutput(string) (string, error) { return "", nil }
func (NoopTool) RestoreOutput(string) error            { return nil }
func (NoopTool) CurrentOutput() (string, error)        { return "", nil }
func (NoopTool) TriggerCapture(context.Context) error {
	return fmt.Errorf("no capture tool configured")
}
