package engine

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	stderrors "errors"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/model"
	"github.com/snagforge/snag/internal/watch"
)

// fileEvent is one queued file-appeared event.
type fileEvent struct {
	path      string
	createdAt time.Time
}

// Enqueue hands a watcher event to the classification queue. The send
// blocks if the queue is full rather than dropping: a captured file
// must never be lost, and the queue is far larger than any realistic
// capture burst.
func (e *Engine) Enqueue(ev watch.Event) {
	e.queue <- fileEvent{path: ev.Path, createdAt: ev.CreatedAt}
}

// Run drains the classification queue until ctx is cancelled. Each
// event is processed under the engine lock, so classification is
// serialized with the command path; running classification here, off
// the watcher's delivery loop, keeps a slow file move from stalling
// detection of subsequent files.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.queue:
			if err := e.HandleFileEvent(ev.path, ev.createdAt); err != nil {
				e.logger.Error("capture classification failed", "path", ev.path, "error", err)
			}
		}
	}
}

// HandleFileEvent classifies one file-appeared event and files the
// capture:
//
//  1. Unknown extensions are skipped (temp/partial files from the OS
//     tool's save process never become captures).
//  2. The active-bug pointer is read from the store at insert time; it
//     is never a cached in-process value, so the decision is correct
//     across restarts and a capture arriving concurrently with
//     endBugCapture is owned by whichever state committed first.
//  3. With a capturing bug, the capture row is created against it and
//     the file moved into the bug's folder; without one, the row is
//     created unsorted and the file stays in the landing directory.
//
// Duplicate events for an already-recorded path are no-ops. Files are
// never silently dropped: any event that produces a row lands either
// on a bug or in the unsorted bucket.
func (e *Engine) HandleFileEvent(path string, createdAt time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.classifyLocked(path, createdAt)
	return err
}

// classifyLocked is the classification body; the caller holds e.mu.
// The bool reports whether a new capture row was recorded.
func (e *Engine) classifyLocked(path string, createdAt time.Time) (bool, error) {
	fileType, ok := model.ClassifyPath(path, e.screenshotExts(), e.videoExts())
	if !ok {
		e.logger.Debug("ignoring non-capture file", "path", path)
		return false, nil
	}

	session, err := db.GetActiveSession(e.db)
	if err != nil {
		return false, err
	}
	if session == nil {
		// A debounce timer can fire after the session ended; the file
		// stays where it is and a later scan on resume picks it up.
		e.logger.Debug("capture event with no active session", "path", path)
		return false, nil
	}
	if !pathWithin(session.FolderPath, path) {
		e.logger.Debug("capture event outside session folder", "path", path)
		return false, nil
	}

	activeBug, err := db.GetActiveBugForSession(e.db, session.ID)
	if err != nil {
		return false, err
	}

	id, err := generateULID()
	if err != nil {
		return false, err
	}

	capture := &model.Capture{
		ID:        id,
		SessionID: session.ID,
		FilePath:  path,
		FileType:  fileType,
		CreatedAt: createdAt.Unix(),
	}
	if activeBug != nil {
		capture.BugID = &activeBug.ID
	}

	if err := db.CreateCapture(e.db, capture); err != nil {
		if stderrors.Is(err, db.ErrDuplicatePath) {
			e.logger.Debug("duplicate capture event", "path", path)
			return false, nil
		}
		return false, err
	}

	if activeBug == nil {
		e.logger.Info("capture unsorted", "session", session.ID, "path", path)
		e.bus.Publish(Notification{
			Kind: NotifyCaptureUnsorted, SessionID: session.ID,
			CaptureID: id, Path: path,
		})
		return true, nil
	}

	// Move into the bug's folder. A failed move is not a lost capture:
	// the row stays associated and the file stays in the landing
	// directory until a sort pass retries.
	dst := filepath.Join(activeBug.FolderPath, fileType.Subdir(), filepath.Base(path))
	if moved, err := moveFile(path, dst); err != nil {
		e.logger.Error("capture file not moved; sort will retry", "path", path, "error", err)
	} else {
		if err := db.UpdateCapturePath(e.db, id, moved); err != nil {
			return true, err
		}
		capture.FilePath = moved
	}

	e.logger.Info("capture associated", "session", session.ID, "bug", activeBug.DisplayID, "path", capture.FilePath)
	e.bus.Publish(Notification{
		Kind: NotifyCaptureAssociated, SessionID: session.ID,
		BugID: activeBug.ID, DisplayID: activeBug.DisplayID,
		CaptureID: id, Path: capture.FilePath,
	})
	return true, nil
}

// pathWithin reports whether path sits underneath root.
func pathWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
