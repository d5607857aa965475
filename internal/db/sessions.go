package db

import (
	"database/sql"
	"time"

	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

const sessionColumns = `id, status, started_at, ended_at, folder_path, notes, original_capture_path, bug_seq`

// CreateSession inserts a new session row with status=active. The
// partial unique index on active status rejects a second active
// session even if the serialized command path failed to.
func CreateSession(db *sql.DB, s *model.Session) error {
	query := `
		INSERT INTO sessions (id, status, started_at, ended_at, folder_path, notes, original_capture_path, bug_seq)
		VALUES (?, ?, ?, NULL, ?, ?, ?, 0)
	`
	_, err := db.Exec(query,
		s.ID, s.Status, s.StartedAt, s.FolderPath, s.Notes,
		toNullString(s.OriginalCapturePath),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewInvariantViolation("a session is already active")
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetActiveSession returns the single active session, or nil if none.
// More than one active row means the storage invariant is corrupted;
// that fails loudly rather than silently picking one.
func GetActiveSession(db *sql.DB) (*model.Session, error) {
	rows, err := db.Query(`SELECT `+sessionColumns+` FROM sessions WHERE status = ?`, model.SessionActive)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSessionRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	switch len(sessions) {
	case 0:
		return nil, nil
	case 1:
		return sessions[0], nil
	default:
		return nil, errors.NewInvariantViolation("multiple active sessions found; store is corrupted")
	}
}

// GetSession retrieves a session by id.
func GetSession(db *sql.DB, id string) (*model.Session, error) {
	row := db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("session", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// ListSessions returns all sessions, most recently started first.
func ListSessions(db *sql.DB) ([]*model.Session, error) {
	rows, err := db.Query(`SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSessionRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return sessions, nil
}

// UpdateSessionStatus transitions a session to the given status.
// Transitioning to ended stamps ended_at; transitioning back to active
// (resume) clears it. A second active session is rejected by the
// partial unique index.
func UpdateSessionStatus(db *sql.DB, id string, status model.SessionStatus) error {
	var result sql.Result
	var err error

	switch status {
	case model.SessionEnded:
		result, err = db.Exec(`UPDATE sessions SET status = ?, ended_at = ? WHERE id = ?`,
			status, time.Now().Unix(), id)
	case model.SessionActive:
		result, err = db.Exec(`UPDATE sessions SET status = ?, ended_at = NULL WHERE id = ?`,
			status, id)
	default:
		result, err = db.Exec(`UPDATE sessions SET status = ? WHERE id = ?`, status, id)
	}
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewInvariantViolation("a session is already active")
		}
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("session", id)
	}
	return nil
}

// UpdateSessionNotes replaces the session's free-text notes.
func UpdateSessionNotes(db *sql.DB, id, notes string) error {
	result, err := db.Exec(`UPDATE sessions SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("session", id)
	}
	return nil
}

// SetOriginalCapturePath records (or clears, with nil) the capture
// tool's pre-redirect output path on the session row.
func SetOriginalCapturePath(db *sql.DB, id string, path *string) error {
	result, err := db.Exec(`UPDATE sessions SET original_capture_path = ? WHERE id = ?`,
		toNullString(path), id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("session", id)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanSessionFields(sc scanner) (*model.Session, error) {
	var (
		s        model.Session
		endedAt  sql.NullInt64
		origPath sql.NullString
	)
	err := sc.Scan(&s.ID, &s.Status, &s.StartedAt, &endedAt, &s.FolderPath, &s.Notes, &origPath, &s.BugSeq)
	if err != nil {
		return nil, err
	}
	s.EndedAt = fromNullInt64(endedAt)
	s.OriginalCapturePath = fromNullString(origPath)
	return &s, nil
}

func scanSession(row *sql.Row) (*model.Session, error) {
	return scanSessionFields(row)
}

func scanSessionRows(rows *sql.Rows) (*model.Session, error) {
	return scanSessionFields(rows)
}
