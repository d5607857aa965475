package engine

import (
	"context"
	"path/filepath"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

// AssignCapture moves a capture onto a bug, or back to unsorted when
// bugID is empty. The target bug must belong to the capture's session.
// Reassignment is complete: the capture leaves its previous owner and
// its file is relocated to match, so no stale association remains.
func (e *Engine) AssignCapture(ctx context.Context, captureID, bugID string) (*model.Capture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewResource("assign capture", err)
	}

	capture, err := db.GetCapture(e.db, captureID)
	if err != nil {
		return nil, err
	}

	var target *model.Bug
	if bugID != "" {
		target, err = db.GetBug(e.db, bugID)
		if err != nil {
			return nil, err
		}
		if target.SessionID != capture.SessionID {
			return nil, errors.NewInvalidRequest("bug belongs to a different session")
		}
		if capture.BugID != nil && *capture.BugID == target.ID {
			return capture, nil
		}
	} else if capture.BugID == nil {
		return capture, nil
	}

	var newBugID *string
	dst := ""
	if target != nil {
		newBugID = &target.ID
		if err := ensureBugDirs(target.FolderPath); err != nil {
			return nil, errors.NewResource("create bug folder", err)
		}
		dst = filepath.Join(target.FolderPath, capture.FileType.Subdir(), filepath.Base(capture.FilePath))
	} else {
		session, err := db.GetSession(e.db, capture.SessionID)
		if err != nil {
			return nil, err
		}
		dst = filepath.Join(landingDir(session), filepath.Base(capture.FilePath))
	}

	if err := db.ReassignCapture(e.db, captureID, newBugID); err != nil {
		return nil, err
	}
	capture.BugID = newBugID

	// The row is the source of truth; a failed move leaves the file in
	// place for a sort pass without undoing the reassignment.
	if dst != capture.FilePath {
		if moved, err := moveFile(capture.FilePath, dst); err != nil {
			e.logger.Error("capture file not moved; sort will retry", "path", capture.FilePath, "error", err)
		} else {
			if err := db.UpdateCapturePath(e.db, captureID, moved); err != nil {
				return nil, err
			}
			capture.FilePath = moved
		}
	}

	if target != nil {
		e.logger.Info("capture reassigned", "capture", captureID, "bug", target.DisplayID)
		e.bus.Publish(Notification{
			Kind: NotifyCaptureAssociated, SessionID: capture.SessionID,
			BugID: target.ID, DisplayID: target.DisplayID,
			CaptureID: captureID, Path: capture.FilePath,
		})
	} else {
		e.logger.Info("capture unassigned", "capture", captureID)
		e.bus.Publish(Notification{
			Kind: NotifyCaptureUnsorted, SessionID: capture.SessionID,
			CaptureID: captureID, Path: capture.FilePath,
		})
	}
	return capture, nil
}
