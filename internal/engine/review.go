package engine

import (
	"context"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

// ReviewSession marks an ended session reviewed. Phase ordering is
// strict: an active session must be ended first, and a synced session
// does not come back to review.
func (e *Engine) ReviewSession(ctx context.Context, sessionID string) (*model.Session, error) {
	return e.advanceSession(ctx, sessionID, model.SessionEnded, model.SessionReviewed)
}

// MarkSessionSynced marks a reviewed session synced: its findings have
// been exported to the tracker.
func (e *Engine) MarkSessionSynced(ctx context.Context, sessionID string) (*model.Session, error) {
	return e.advanceSession(ctx, sessionID, model.SessionReviewed, model.SessionSynced)
}

func (e *Engine) advanceSession(ctx context.Context, sessionID string, from, to model.SessionStatus) (*model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewResource("advance session", err)
	}

	session, err := db.GetSession(e.db, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != from {
		return nil, errors.NewConflict(
			"session is " + string(session.Status) + ", not " + string(from))
	}
	if err := db.UpdateSessionStatus(e.db, sessionID, to); err != nil {
		return nil, err
	}

	e.logger.Info("session advanced", "session", sessionID, "status", to)
	session.Status = to
	return session, nil
}

// ReviewBug marks a captured bug reviewed.
func (e *Engine) ReviewBug(ctx context.Context, bugID string) (*model.Bug, error) {
	return e.advanceBug(ctx, bugID, model.BugCaptured, model.BugReviewed)
}

// MarkBugReady marks a reviewed bug ready for export. A description is
// required: a ticket without one is not actionable.
func (e *Engine) MarkBugReady(ctx context.Context, bugID string) (*model.Bug, error) {
	return e.advanceBug(ctx, bugID, model.BugReviewed, model.BugReady)
}

func (e *Engine) advanceBug(ctx context.Context, bugID string, from, to model.BugStatus) (*model.Bug, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewResource("advance bug", err)
	}

	bug, err := db.GetBug(e.db, bugID)
	if err != nil {
		return nil, err
	}
	if bug.Status != from {
		return nil, errors.NewConflict(
			bug.DisplayID + " is " + string(bug.Status) + ", not " + string(from))
	}
	if to == model.BugReady && bug.Description == "" {
		return nil, errors.NewConflict(bug.DisplayID + " has no description; describe it first")
	}
	if err := db.UpdateBugStatus(e.db, bugID, to); err != nil {
		return nil, err
	}

	e.logger.Info("bug advanced", "bug", bug.DisplayID, "status", to)
	bug.Status = to
	return bug, nil
}
