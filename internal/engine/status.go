package engine

import (
	"context"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/model"
)

// Status is a point-in-time snapshot of the engine's derived state.
type Status struct {
	ActiveSession *model.Session `json:"active_session,omitempty"`
	CapturingBug  *model.Bug     `json:"capturing_bug,omitempty"`
	BugCount      int            `json:"bug_count"`
	UnsortedCount int            `json:"unsorted_count"`
}

// CurrentStatus reads the active session and its derived capturing bug
// from the store. Both are queries, never cached values.
func (e *Engine) CurrentStatus(ctx context.Context) (*Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := &Status{}

	session, err := db.GetActiveSession(e.db)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return status, nil
	}
	status.ActiveSession = session

	bug, err := db.GetActiveBugForSession(e.db, session.ID)
	if err != nil {
		return nil, err
	}
	status.CapturingBug = bug

	bugs, err := db.ListBugsForSession(e.db, session.ID)
	if err != nil {
		return nil, err
	}
	status.BugCount = len(bugs)

	unsorted, err := db.ListUnsortedCaptures(e.db, session.ID)
	if err != nil {
		return nil, err
	}
	status.UnsortedCount = len(unsorted)

	return status, nil
}
