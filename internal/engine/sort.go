package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/errors"
)

// SortSession reconciles a session's files with its capture rows:
// every capture owned by a bug is moved into that bug's folder, and
// every unsorted capture back into the landing directory. It is the
// retry path for moves that failed at classification or reassignment
// time. Returns the number of files moved.
func (e *Engine) SortSession(ctx context.Context, sessionID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, errors.NewResource("sort session", err)
	}

	session, err := db.GetSession(e.db, sessionID)
	if err != nil {
		return 0, err
	}

	captures, err := db.ListCapturesForSession(e.db, sessionID)
	if err != nil {
		return 0, err
	}

	bugFolders := map[string]string{}
	bugs, err := db.ListBugsForSession(e.db, sessionID)
	if err != nil {
		return 0, err
	}
	for _, b := range bugs {
		bugFolders[b.ID] = b.FolderPath
	}

	moved := 0
	for _, c := range captures {
		var want string
		if c.BugID != nil {
			folder, ok := bugFolders[*c.BugID]
			if !ok {
				continue
			}
			if err := ensureBugDirs(folder); err != nil {
				return moved, errors.NewResource("create bug folder", err)
			}
			want = filepath.Join(folder, c.FileType.Subdir(), filepath.Base(c.FilePath))
		} else {
			want = filepath.Join(landingDir(session), filepath.Base(c.FilePath))
		}
		if want == c.FilePath {
			continue
		}
		if _, err := os.Stat(c.FilePath); err != nil {
			e.logger.Warn("capture file missing", "capture", c.ID, "path", c.FilePath)
			continue
		}
		landed, err := moveFile(c.FilePath, want)
		if err != nil {
			e.logger.Error("capture file not moved", "path", c.FilePath, "error", err)
			continue
		}
		if err := db.UpdateCapturePath(e.db, c.ID, landed); err != nil {
			return moved, err
		}
		moved++
	}

	e.logger.Info("session sorted", "session", sessionID, "moved", moved)
	return moved, nil
}
