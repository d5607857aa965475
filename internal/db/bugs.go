package db

import (
	"database/sql"
	"path/filepath"
	"time"

	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

const bugColumns = `id, session_id, seq, display_id, type, status, notes, description, folder_path, created_at, updated_at`

// CreateBug inserts a new bug with the next sequence number for its
// session, in one transaction: the session's bug_seq counter is
// incremented and the row inserted atomically, so sequence numbers
// never repeat within a session even across concurrent creators. The
// caller supplies ID, SessionID, Type, Status, and Notes; Seq,
// DisplayID, FolderPath, and timestamps are filled in here.
//
// Inserting with status=capturing while another bug in the session is
// capturing violates the partial unique index and fails with
// InvariantViolation, leaving the counter untouched.
func CreateBug(db *sql.DB, sessionFolder string, b *model.Bug) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	// Claim the next sequence number.
	result, err := tx.Exec(`UPDATE sessions SET bug_seq = bug_seq + 1 WHERE id = ?`, b.SessionID)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("session", b.SessionID)
	}

	var seq int
	if err := tx.QueryRow(`SELECT bug_seq FROM sessions WHERE id = ?`, b.SessionID).Scan(&seq); err != nil {
		return errors.NewInternal(err)
	}

	now := time.Now().Unix()
	b.Seq = seq
	b.DisplayID = model.DisplayID(b.Type, seq)
	b.FolderPath = filepath.Join(sessionFolder, b.DisplayID)
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err = tx.Exec(`
		INSERT INTO bugs (id, session_id, seq, display_id, type, status, notes, description, folder_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', ?, ?, ?)
	`, b.ID, b.SessionID, b.Seq, b.DisplayID, b.Type, b.Status, b.Notes, b.FolderPath, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewInvariantViolation("another bug is already capturing in this session")
		}
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// SetCapturing makes the target bug the session's capturing bug in one
// transaction: any currently capturing bug in the session is demoted to
// captured first, then the target is promoted. A reader can never
// observe two capturing bugs.
func SetCapturing(db *sql.DB, sessionID, bugID string) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	_, err = tx.Exec(`
		UPDATE bugs SET status = ?, updated_at = ?
		WHERE session_id = ? AND status = ? AND id != ?
	`, model.BugCaptured, now, sessionID, model.BugCapturing, bugID)
	if err != nil {
		return errors.NewInternal(err)
	}

	result, err := tx.Exec(`
		UPDATE bugs SET status = ?, updated_at = ?
		WHERE id = ? AND session_id = ?
	`, model.BugCapturing, now, bugID, sessionID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewInvariantViolation("another bug is already capturing in this session")
		}
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("bug", bugID)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// UpdateBugStatus transitions a bug to the given status. Promoting to
// capturing must go through SetCapturing; this rejects it to keep the
// demote-then-promote transaction the only promotion path.
func UpdateBugStatus(db *sql.DB, id string, status model.BugStatus) error {
	if status == model.BugCapturing {
		return errors.NewInvalidRequest("use SetCapturing to promote a bug to capturing")
	}

	result, err := db.Exec(`UPDATE bugs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().Unix(), id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("bug", id)
	}
	return nil
}

// GetActiveBugForSession returns the session's single capturing bug, or
// nil if none. This derived query is the authoritative active-bug
// pointer; it is never cached, so it survives process restarts.
func GetActiveBugForSession(db *sql.DB, sessionID string) (*model.Bug, error) {
	row := db.QueryRow(`SELECT `+bugColumns+` FROM bugs WHERE session_id = ? AND status = ?`,
		sessionID, model.BugCapturing)
	b, err := scanBugFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return b, nil
}

// GetBug retrieves a bug by id.
func GetBug(db *sql.DB, id string) (*model.Bug, error) {
	row := db.QueryRow(`SELECT `+bugColumns+` FROM bugs WHERE id = ?`, id)
	b, err := scanBugFields(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("bug", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return b, nil
}

// GetBugByDisplayID retrieves a bug by its display id within a session.
func GetBugByDisplayID(db *sql.DB, sessionID, displayID string) (*model.Bug, error) {
	row := db.QueryRow(`SELECT `+bugColumns+` FROM bugs WHERE session_id = ? AND display_id = ?`,
		sessionID, displayID)
	b, err := scanBugFields(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("bug", displayID)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return b, nil
}

// ListBugsForSession returns a session's bugs in sequence order.
func ListBugsForSession(db *sql.DB, sessionID string) ([]*model.Bug, error) {
	rows, err := db.Query(`SELECT `+bugColumns+` FROM bugs WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var bugs []*model.Bug
	for rows.Next() {
		b, err := scanBugFields(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		bugs = append(bugs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return bugs, nil
}

// BugFieldUpdate carries the non-state fields writable from the review
// surface. Nil means "leave unchanged". Status is deliberately absent:
// only the engine's command path transitions status.
type BugFieldUpdate struct {
	Notes       *string
	Description *string
	Type        *model.BugType
}

// UpdateBugFields updates a bug's non-state fields. The display id is
// re-derived when the type changes so it stays consistent with seq.
func UpdateBugFields(db *sql.DB, id string, upd BugFieldUpdate) error {
	b, err := GetBug(db, id)
	if err != nil {
		return err
	}

	if upd.Notes != nil {
		b.Notes = *upd.Notes
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	if upd.Type != nil {
		if !model.ValidBugType(*upd.Type) {
			return errors.NewInvalidRequest("type must be one of: bug, feature, feedback")
		}
		b.Type = *upd.Type
		b.DisplayID = model.DisplayID(b.Type, b.Seq)
	}

	_, err = db.Exec(`
		UPDATE bugs SET notes = ?, description = ?, type = ?, display_id = ?, updated_at = ?
		WHERE id = ?
	`, b.Notes, b.Description, b.Type, b.DisplayID, time.Now().Unix(), id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// UpdateBugFolder repoints a bug at a renamed folder.
func UpdateBugFolder(db *sql.DB, id, folderPath string) error {
	result, err := db.Exec(`UPDATE bugs SET folder_path = ?, updated_at = ? WHERE id = ?`,
		folderPath, time.Now().Unix(), id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("bug", id)
	}
	return nil
}

// DeleteBug removes a bug row and re-parents its captures to unsorted
// (bug_id NULL) in one transaction. The session's sequence counter is
// not decremented, so the deleted bug's number is never reused.
func DeleteBug(db *sql.DB, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE captures SET bug_id = NULL WHERE bug_id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}

	result, err := tx.Exec(`DELETE FROM bugs WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("bug", id)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func scanBugFields(sc scanner) (*model.Bug, error) {
	var b model.Bug
	err := sc.Scan(&b.ID, &b.SessionID, &b.Seq, &b.DisplayID, &b.Type, &b.Status,
		&b.Notes, &b.Description, &b.FolderPath, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
