package engine

import (
	"context"
	"os"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

// ResumeSession reopens an ended (or reviewed) session: the landing
// directory is watched again, the capture tool redirect re-applied,
// and the session transitions back to active. Bug sequence numbering
// continues where it left off.
func (e *Engine) ResumeSession(ctx context.Context, sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.NewResource("resume session", err)
	}

	session, err := db.GetSession(e.db, sessionID)
	if err != nil {
		return err
	}
	if session.Status == model.SessionActive {
		return errors.NewConflict("session is already active")
	}

	active, err := db.GetActiveSession(e.db)
	if err != nil {
		return err
	}
	if active != nil {
		return errors.NewInvariantViolation("a session is already active")
	}

	landing := landingDir(session)
	if err := os.MkdirAll(landing, 0755); err != nil {
		return errors.NewResource("create landing directory", err)
	}

	if err := e.watcher.Watch(landing); err != nil {
		return errors.NewResource("watch landing directory", err)
	}

	original, err := e.tool.RedirectOutput(landing)
	if err != nil {
		_ = e.watcher.Unwatch(landing)
		return errors.NewResource("redirect capture tool output", err)
	}

	// The original path is persisted before the session turns active:
	// if anything fails past this point, Recover sees a non-active
	// session with a cached path and restores the redirect.
	if original != "" {
		if err := db.SetOriginalCapturePath(e.db, sessionID, &original); err != nil {
			if restoreErr := e.tool.RestoreOutput(original); restoreErr != nil {
				e.logger.Error("rollback failed: capture tool output left redirected",
					"session", sessionID, "error", restoreErr)
			}
			_ = e.watcher.Unwatch(landing)
			return err
		}
	}

	if err := db.UpdateSessionStatus(e.db, sessionID, model.SessionActive); err != nil {
		if restoreErr := e.tool.RestoreOutput(original); restoreErr != nil {
			e.logger.Error("rollback failed: capture tool output left redirected",
				"session", sessionID, "error", restoreErr)
		} else if original != "" {
			_ = db.SetOriginalCapturePath(e.db, sessionID, nil)
		}
		_ = e.watcher.Unwatch(landing)
		return err
	}

	e.logger.Info("session resumed", "session", sessionID)
	e.bus.Publish(Notification{Kind: NotifySessionResumed, SessionID: sessionID})
	return nil
}
