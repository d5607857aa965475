package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

// ScanSession sweeps the active session's landing directory and
// classifies every file found there, exactly as if each had just been
// reported by the watcher. It is the repair path for files that landed
// while no watcher process was running; re-scanning already-recorded
// files is a no-op. Returns the number of files newly recorded.
func (e *Engine) ScanSession(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, errors.NewResource("scan session", err)
	}

	session, err := db.GetActiveSession(e.db)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, errors.NewConflict("no active session")
	}
	return e.scanLandingLocked(session)
}

// scanLandingLocked classifies every regular file in the session's
// landing directory. The caller holds e.mu.
func (e *Engine) scanLandingLocked(session *model.Session) (int, error) {
	landing := landingDir(session)
	entries, err := os.ReadDir(landing)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.NewResource("read landing directory", err)
	}

	recorded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(landing, entry.Name())

		createdAt := time.Now()
		if info, err := entry.Info(); err == nil {
			createdAt = info.ModTime()
		}

		ok, err := e.classifyLocked(path, createdAt)
		if err != nil {
			return recorded, err
		}
		if ok {
			recorded++
		}
	}
	return recorded, nil
}
