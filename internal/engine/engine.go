// Package engine owns the session/bug/capture state machine. All
// status transitions and all capture classification go through one
// Engine, serialized by its mutex; the store, not in-process state, is
// the authority consulted for every invariant check, so a restarted
// engine picks up exactly where the previous process stopped.
package engine

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/snagforge/snag/internal/bridge"
	"github.com/snagforge/snag/internal/config"
	"github.com/snagforge/snag/internal/model"
)

// LandingDirName is the per-session capture landing directory: the
// watched directory the capture tool is redirected into, and the
// holding area for unsorted captures.
const LandingDirName = "unsorted"

// DirWatcher is the watch surface the engine drives: one directory per
// active session. *watch.Watcher satisfies it; tests substitute fakes.
type DirWatcher interface {
	Watch(dir string) error
	Unwatch(dir string) error
}

// nopWatcher is used for one-shot commands where no watcher process is
// running; the store still enforces every invariant, and a later scan
// picks up files that landed unobserved.
type nopWatcher struct{}

func (nopWatcher) Watch(string) error   { return nil }
func (nopWatcher) Unwatch(string) error { return nil }

// Engine is the association engine: the sole mutation path for session
// and bug status, and the classifier for incoming capture files.
type Engine struct {
	db      *sql.DB
	cfg     *config.Config
	tool    bridge.Tool
	watcher DirWatcher
	bus     *Bus
	logger  *slog.Logger

	// mu serializes status transitions and classification. Commands
	// are short (row writes plus a few filesystem calls), so a single
	// lock keeps every transition linearizable without a queue per
	// session.
	mu sync.Mutex

	queue chan fileEvent
}

// Option configures an Engine.
type Option func(*Engine)

// WithWatcher sets the directory watcher. Without it the engine runs
// watchless (one-shot CLI mode).
func WithWatcher(w DirWatcher) Option {
	return func(e *Engine) { e.watcher = w }
}

// WithTool sets the capture-tool bridge. Defaults to the tool built
// from config.
func WithTool(t bridge.Tool) Option {
	return func(e *Engine) { e.tool = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine.
func New(database *sql.DB, cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		db:      database,
		cfg:     cfg,
		tool:    bridge.FromConfig(cfg),
		watcher: nopWatcher{},
		bus:     NewBus(),
		logger:  slog.Default(),
		queue:   make(chan fileEvent, 256),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events returns the engine's outward notification bus. Notifications
// are a read-only projection for UIs; nothing consumed from the bus
// may be written back.
func (e *Engine) Events() *Bus {
	return e.bus
}

// screenshotExts returns the configured screenshot extension set, or
// the built-in default.
func (e *Engine) screenshotExts() []string {
	if len(e.cfg.ScreenshotExts) > 0 {
		return e.cfg.ScreenshotExts
	}
	return model.DefaultScreenshotExts
}

func (e *Engine) videoExts() []string {
	if len(e.cfg.VideoExts) > 0 {
		return e.cfg.VideoExts
	}
	return model.DefaultVideoExts
}

// landingDir is the session's watched capture landing directory.
func landingDir(s *model.Session) string {
	return filepath.Join(s.FolderPath, LandingDirName)
}

// sessionFolderName builds a session folder name from its start time
// and id, e.g. "2026-09-01-142305-a4qf2k". The id suffix keeps two
// sessions started within one second apart.
func sessionFolderName(startedAt time.Time, id string) string {
	suffix := strings.ToLower(id)
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return fmt.Sprintf("%s-%s", startedAt.Format("2006-01-02-150405"), suffix)
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// uniquePath returns dst if nothing exists there, otherwise the first
// free numbered variant ("shot.png" becomes "shot-2.png", "shot-3.png").
func uniquePath(dst string) string {
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		return dst
	}
	ext := filepath.Ext(dst)
	stem := strings.TrimSuffix(dst, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// moveFile moves a file across directories and returns the path it
// landed at. An existing file at the destination is never replaced: a
// basename collision gets a numbered variant instead. Falls back to
// copy-and-remove when rename fails (e.g. crossing filesystems).
func moveFile(src, dst string) (string, error) {
	dst = uniquePath(dst)
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0600); err != nil {
		return "", err
	}
	return dst, os.Remove(src)
}

// removeBugDirs removes a bug's folder tree if it is empty. Anything
// still inside (files we failed to move out) is left untouched.
func removeBugDirs(folderPath string) {
	os.Remove(filepath.Join(folderPath, model.FileScreenshot.Subdir()))
	os.Remove(filepath.Join(folderPath, model.FileVideo.Subdir()))
	os.Remove(folderPath)
}

// ensureBugDirs creates a bug's folder and its screenshots/video
// subdirectories.
func ensureBugDirs(folderPath string) error {
	for _, dir := range []string{
		folderPath,
		filepath.Join(folderPath, model.FileScreenshot.Subdir()),
		filepath.Join(folderPath, model.FileVideo.Subdir()),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
