package engine

import (
	"context"
	"os"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

// RecoveryReport summarizes what Recover found and repaired.
type RecoveryReport struct {
	ActiveSession  *model.Session `json:"active_session,omitempty"`
	CapturingBug   *model.Bug     `json:"capturing_bug,omitempty"`
	RestoredStale  int            `json:"restored_stale_redirects"`
	ScannedLanding int            `json:"scanned_landing_files"`
}

// Recover restores a consistent runtime from whatever the store holds.
// It runs on startup, after any crash or clean exit:
//
//   - Sessions no longer active but still holding an original capture
//     path had their endSession interrupted before the tool's output
//     was restored; the restore is retried here.
//   - If a session is active, its folders are recreated if missing, the
//     landing directory is re-watched, the capture tool is pointed back
//     at it, and the landing directory is scanned for files that
//     arrived while no watcher was running.
//
// The capturing bug is never recovered from cached state: it is derived
// from the store on demand, so there is nothing to repair there.
func (e *Engine) Recover(ctx context.Context) (*RecoveryReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &RecoveryReport{}

	sessions, err := db.ListSessions(e.db)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		if s.Status == model.SessionActive || s.OriginalCapturePath == nil {
			continue
		}
		if err := e.tool.RestoreOutput(*s.OriginalCapturePath); err != nil {
			e.logger.Warn("stale capture tool redirect not restored", "session", s.ID, "error", err)
			continue
		}
		if err := db.SetOriginalCapturePath(e.db, s.ID, nil); err != nil {
			return nil, err
		}
		report.RestoredStale++
	}

	session, err := db.GetActiveSession(e.db)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return report, nil
	}
	report.ActiveSession = session

	landing := landingDir(session)
	if err := os.MkdirAll(landing, 0755); err != nil {
		return nil, errors.NewResource("recreate session folder", err)
	}

	bug, err := db.GetActiveBugForSession(e.db, session.ID)
	if err != nil {
		return nil, err
	}
	if bug != nil {
		report.CapturingBug = bug
		if err := ensureBugDirs(bug.FolderPath); err != nil {
			return nil, errors.NewResource("recreate bug folder", err)
		}
	}

	if err := e.watcher.Watch(landing); err != nil {
		return nil, errors.NewResource("watch landing directory", err)
	}

	// Re-point the tool only when it drifted; re-redirecting blindly
	// would overwrite the cached original path with our own landing dir.
	current, err := e.tool.CurrentOutput()
	if err != nil {
		e.logger.Warn("capture tool output not readable", "error", err)
	} else if current != "" && current != landing {
		original, err := e.tool.RedirectOutput(landing)
		if err != nil {
			return nil, errors.NewResource("redirect capture tool output", err)
		}
		if session.OriginalCapturePath == nil && original != "" {
			if err := db.SetOriginalCapturePath(e.db, session.ID, &original); err != nil {
				return nil, err
			}
			session.OriginalCapturePath = &original
		}
	}

	scanned, err := e.scanLandingLocked(session)
	if err != nil {
		return nil, err
	}
	report.ScannedLanding = scanned

	e.logger.Info("session recovered", "session", session.ID, "scanned", scanned)
	e.bus.Publish(Notification{Kind: NotifySessionRecovered, SessionID: session.ID})
	return report, nil
}
