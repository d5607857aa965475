package engine

import (
	"context"
	"path/filepath"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

// DeleteBug removes a bug. Its captures are not destroyed: their rows
// move back to unsorted and their files back to the landing directory.
// A capturing bug must be ended first. The bug's sequence number is
// never reissued.
func (e *Engine) DeleteBug(ctx context.Context, bugID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.NewResource("delete bug", err)
	}

	bug, err := db.GetBug(e.db, bugID)
	if err != nil {
		return err
	}
	if bug.Status == model.BugCapturing {
		return errors.NewConflict("bug " + bug.DisplayID + " is capturing; end capture first")
	}

	session, err := db.GetSession(e.db, bug.SessionID)
	if err != nil {
		return err
	}
	landing := landingDir(session)

	captures, err := db.ListCapturesForBug(e.db, bugID)
	if err != nil {
		return err
	}
	for _, c := range captures {
		dst := filepath.Join(landing, filepath.Base(c.FilePath))
		if dst == c.FilePath {
			continue
		}
		landed, err := moveFile(c.FilePath, dst)
		if err != nil {
			e.logger.Warn("capture file not returned to landing", "path", c.FilePath, "error", err)
			continue
		}
		if err := db.UpdateCapturePath(e.db, c.ID, landed); err != nil {
			return err
		}
	}

	if err := db.DeleteBug(e.db, bugID); err != nil {
		return err
	}
	removeBugDirs(bug.FolderPath)

	e.logger.Info("bug deleted", "bug", bug.DisplayID, "session", bug.SessionID)
	return nil
}
