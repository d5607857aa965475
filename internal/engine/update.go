package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

// SetSessionNotes replaces a session's operator notes.
func (e *Engine) SetSessionNotes(ctx context.Context, sessionID, notes string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.NewResource("update session notes", err)
	}
	if _, err := db.GetSession(e.db, sessionID); err != nil {
		return err
	}
	return db.UpdateSessionNotes(e.db, sessionID, notes)
}

// UpdateBug applies a partial update to a bug's notes, description, or
// type. Status is not reachable through here; the capture commands own
// it. A type change re-derives the display id, so the bug's folder is
// renamed to match and its capture rows follow.
func (e *Engine) UpdateBug(ctx context.Context, bugID string, update db.BugFieldUpdate) (*model.Bug, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewResource("update bug", err)
	}
	if update.Type != nil && !model.ValidBugType(*update.Type) {
		return nil, errors.NewInvalidRequest("type must be one of: bug, feature, feedback")
	}

	before, err := db.GetBug(e.db, bugID)
	if err != nil {
		return nil, err
	}
	if err := db.UpdateBugFields(e.db, bugID, update); err != nil {
		return nil, err
	}
	bug, err := db.GetBug(e.db, bugID)
	if err != nil {
		return nil, err
	}
	if bug.DisplayID != before.DisplayID {
		if err := e.renameBugFolder(bug); err != nil {
			return nil, err
		}
		return db.GetBug(e.db, bugID)
	}
	return bug, nil
}

// renameBugFolder moves a bug's folder to its current display id and
// repoints the bug row and every capture row inside it.
func (e *Engine) renameBugFolder(bug *model.Bug) error {
	newFolder := filepath.Join(filepath.Dir(bug.FolderPath), bug.DisplayID)
	if newFolder == bug.FolderPath {
		return nil
	}

	if err := os.Rename(bug.FolderPath, newFolder); err != nil && !os.IsNotExist(err) {
		// Row stays pointed at the old folder; the names drift until
		// the rename can be retried.
		return errors.NewResource("rename bug folder", err)
	}
	if err := db.UpdateBugFolder(e.db, bug.ID, newFolder); err != nil {
		return err
	}

	captures, err := db.ListCapturesForBug(e.db, bug.ID)
	if err != nil {
		return err
	}
	oldPrefix := bug.FolderPath + string(filepath.Separator)
	for _, c := range captures {
		if !strings.HasPrefix(c.FilePath, oldPrefix) {
			continue
		}
		moved := filepath.Join(newFolder, strings.TrimPrefix(c.FilePath, oldPrefix))
		if err := db.UpdateCapturePath(e.db, c.ID, moved); err != nil {
			return err
		}
	}
	return nil
}

// SetCaptureConsole flags or unflags a capture as a console/log
// artifact.
func (e *Engine) SetCaptureConsole(ctx context.Context, captureID string, isConsole bool) (*model.Capture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewResource("update capture", err)
	}
	if err := db.UpdateCaptureConsole(e.db, captureID, isConsole); err != nil {
		return nil, err
	}
	return db.GetCapture(e.db, captureID)
}

// TriggerCapture asks the OS capture tool to take a capture now. The
// resulting file arrives through the watcher like any other.
func (e *Engine) TriggerCapture(ctx context.Context) error {
	session, err := e.ActiveSession()
	if err != nil {
		return err
	}
	if session == nil {
		return errors.NewConflict("no active session")
	}
	if err := e.tool.TriggerCapture(ctx); err != nil {
		return errors.NewResource("trigger capture", err)
	}
	return nil
}

// ActiveSession reads the active session, if any.
func (e *Engine) ActiveSession() (*model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return db.GetActiveSession(e.db)
}
