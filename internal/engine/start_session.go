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

// StartSession begins a new capture session: it creates the session
// folder and landing directory, starts watching the landing directory,
// redirects the capture tool's output into it (caching the original
// path for restoration), and inserts the active session row. Partial
// failures roll back completed steps so session state is never
// ambiguous.
func (e *Engine) StartSession(ctx context.Context, notes string) (*model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewResource("start session", err)
	}

	active, err := db.GetActiveSession(e.db)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, errors.NewInvariantViolation("a session is already active")
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now()
	session := &model.Session{
		ID:         id,
		Status:     model.SessionActive,
		StartedAt:  now.Unix(),
		Notes:      notes,
		FolderPath: filepath.Join(e.cfg.SessionsRoot, sessionFolderName(now, id)),
	}
	landing := landingDir(session)

	if err := os.MkdirAll(landing, 0755); err != nil {
		return nil, errors.NewResource("create session folder", err)
	}

	if err := e.watcher.Watch(landing); err != nil {
		os.RemoveAll(session.FolderPath)
		return nil, errors.NewResource("watch landing directory", err)
	}

	original, err := e.tool.RedirectOutput(landing)
	if err != nil {
		_ = e.watcher.Unwatch(landing)
		os.RemoveAll(session.FolderPath)
		return nil, errors.NewResource("redirect capture tool output", err)
	}
	if original != "" {
		session.OriginalCapturePath = &original
	}

	if err := db.CreateSession(e.db, session); err != nil {
		if restoreErr := e.tool.RestoreOutput(original); restoreErr != nil {
			e.logger.Error("rollback failed: capture tool output left redirected",
				"session", id, "error", restoreErr)
		}
		_ = e.watcher.Unwatch(landing)
		os.RemoveAll(session.FolderPath)
		return nil, err
	}

	e.logger.Info("session started", "session", id, "folder", session.FolderPath)
	e.bus.Publish(Notification{Kind: NotifySessionStarted, SessionID: id, Path: session.FolderPath})
	return session, nil
}
