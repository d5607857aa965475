package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

// EndSession closes an active session: any capturing bug is ended
// first, the landing-directory watch stops, the capture tool's output
// path is restored, and the session row transitions to ended.
//
// The status transition commits before redirect restoration, so a
// restore failure cannot strand the session in active: the error names
// the failed step and the cached original path stays on the row for
// Recover to retry.
func (e *Engine) EndSession(ctx context.Context, sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.NewResource("end session", err)
	}

	session, err := db.GetSession(e.db, sessionID)
	if err != nil {
		return err
	}
	if session.Status != model.SessionActive {
		return errors.NewConflict("session is not active")
	}

	// Implicitly end a capturing bug, as endBugCapture would.
	activeBug, err := db.GetActiveBugForSession(e.db, sessionID)
	if err != nil {
		return err
	}
	if activeBug != nil {
		if err := db.UpdateBugStatus(e.db, activeBug.ID, model.BugCaptured); err != nil {
			return err
		}
		e.bus.Publish(Notification{
			Kind: NotifyBugCaptureEnded, SessionID: sessionID,
			BugID: activeBug.ID, DisplayID: activeBug.DisplayID,
		})
	}

	if err := e.watcher.Unwatch(landingDir(session)); err != nil {
		// The watch may already be gone (watcher restarted); ending
		// proceeds either way.
		e.logger.Debug("unwatch failed on session end", "session", sessionID, "error", err)
	}

	if err := db.UpdateSessionStatus(e.db, sessionID, model.SessionEnded); err != nil {
		return err
	}

	e.writeSessionNotes(session)

	if session.OriginalCapturePath != nil {
		if err := e.tool.RestoreOutput(*session.OriginalCapturePath); err != nil {
			e.logger.Error("capture tool output not restored; run recover to retry",
				"session", sessionID, "error", err)
			return errors.NewResource("restore capture tool output", err)
		}
		if err := db.SetOriginalCapturePath(e.db, sessionID, nil); err != nil {
			return err
		}
	}

	e.logger.Info("session ended", "session", sessionID)
	e.bus.Publish(Notification{Kind: NotifySessionEnded, SessionID: sessionID})
	return nil
}

// writeSessionNotes drops the operator's session notes next to the
// evidence folders. Best-effort: the notes live in the store either way.
func (e *Engine) writeSessionNotes(session *model.Session) {
	if session.Notes == "" {
		return
	}
	path := filepath.Join(session.FolderPath, "session.md")
	if err := os.WriteFile(path, []byte(session.Notes+"\n"), 0644); err != nil {
		e.logger.Warn("session notes file not written", "session", session.ID, "error", err)
	}
}
