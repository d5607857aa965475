package engine

import (
	"context"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

// StartBugCapture creates a new bug in the active session and makes it
// the capturing bug: every capture landing from now on is associated
// with it. Fails with a conflict if a bug is already capturing (resume
// that bug, or end it first); the storage layer enforces the same
// invariant atomically as a backstop.
func (e *Engine) StartBugCapture(ctx context.Context, bugType model.BugType, notes string) (*model.Bug, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewResource("start bug capture", err)
	}
	if bugType == "" {
		bugType = model.TypeBug
	}
	if !model.ValidBugType(bugType) {
		return nil, errors.NewInvalidRequest("type must be one of: bug, feature, feedback")
	}

	session, err := db.GetActiveSession(e.db)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NewConflict("no active session")
	}

	current, err := db.GetActiveBugForSession(e.db, session.ID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, errors.NewConflict("bug " + current.DisplayID + " is already capturing")
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	bug := &model.Bug{
		ID:        id,
		SessionID: session.ID,
		Type:      bugType,
		Status:    model.BugCapturing,
		Notes:     notes,
	}
	if err := db.CreateBug(e.db, session.FolderPath, bug); err != nil {
		return nil, err
	}

	if err := ensureBugDirs(bug.FolderPath); err != nil {
		// Roll the row back rather than leave a capturing bug with no
		// folder to sort into.
		if delErr := db.DeleteBug(e.db, bug.ID); delErr != nil {
			e.logger.Error("rollback failed: bug row kept without folder", "bug", bug.ID, "error", delErr)
		}
		return nil, errors.NewResource("create bug folder", err)
	}

	e.logger.Info("bug capture started", "session", session.ID, "bug", bug.DisplayID)
	e.bus.Publish(Notification{
		Kind: NotifyBugCaptureStarted, SessionID: session.ID,
		BugID: bug.ID, DisplayID: bug.DisplayID,
	})
	return bug, nil
}

// EndBugCapture ends capture for the given bug. The id must name the
// currently capturing bug; captures landing afterwards go unsorted
// until the operator assigns them.
func (e *Engine) EndBugCapture(ctx context.Context, bugID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.NewResource("end bug capture", err)
	}

	bug, err := db.GetBug(e.db, bugID)
	if err != nil {
		return err
	}

	active, err := db.GetActiveBugForSession(e.db, bug.SessionID)
	if err != nil {
		return err
	}
	if active == nil || active.ID != bugID {
		return errors.NewNotFound("capturing bug", bugID)
	}

	if err := db.UpdateBugStatus(e.db, bugID, model.BugCaptured); err != nil {
		return err
	}

	e.logger.Info("bug capture ended", "session", bug.SessionID, "bug", bug.DisplayID)
	e.bus.Publish(Notification{
		Kind: NotifyBugCaptureEnded, SessionID: bug.SessionID,
		BugID: bugID, DisplayID: bug.DisplayID,
	})
	return nil
}

// ResumeBugCapture makes the given bug the capturing bug again so it
// can accept more captures. If a different bug is currently capturing
// it is ended first, in the same store transaction that promotes the
// target, so at no point are two bugs capturing.
func (e *Engine) ResumeBugCapture(ctx context.Context, bugID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.NewResource("resume bug capture", err)
	}

	bug, err := db.GetBug(e.db, bugID)
	if err != nil {
		return err
	}

	session, err := db.GetSession(e.db, bug.SessionID)
	if err != nil {
		return err
	}
	if session.Status != model.SessionActive {
		return errors.NewConflict("session is not active")
	}

	previous, err := db.GetActiveBugForSession(e.db, session.ID)
	if err != nil {
		return err
	}
	if previous != nil && previous.ID == bugID {
		return nil // already capturing
	}

	// The folder may be missing if the bug was created in an earlier
	// process life and the operator cleaned up on disk.
	if err := ensureBugDirs(bug.FolderPath); err != nil {
		return errors.NewResource("create bug folder", err)
	}

	if err := db.SetCapturing(e.db, session.ID, bugID); err != nil {
		return err
	}

	if previous != nil {
		e.bus.Publish(Notification{
			Kind: NotifyBugCaptureEnded, SessionID: session.ID,
			BugID: previous.ID, DisplayID: previous.DisplayID,
		})
	}
	e.logger.Info("bug capture resumed", "session", session.ID, "bug", bug.DisplayID)
	e.bus.Publish(Notification{
		Kind: NotifyBugCaptureStarted, SessionID: session.ID,
		BugID: bugID, DisplayID: bug.DisplayID,
	})
	return nil
}
