package db

import (
	"database/sql"

	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

const captureColumns = `id, session_id, bug_id, file_path, file_type, created_at, is_console`

// ErrDuplicatePath is returned by CreateCapture when a capture for the
// same (session, path) already exists. Duplicate watcher events for one
// file are expected; callers treat this as a skip, not a failure.
var ErrDuplicatePath = &errors.SnagError{
	Code:    "DUPLICATE_PATH",
	Status:  409,
	Message: "a capture for this path already exists in the session",
}

// CreateCapture inserts a new capture row. Idempotence comes from the
// UNIQUE(session_id, file_path) index: reprocessing the same path
// returns ErrDuplicatePath and changes nothing.
func CreateCapture(db *sql.DB, c *model.Capture) error {
	query := `
		INSERT INTO captures (id, session_id, bug_id, file_path, file_type, created_at, is_console)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		c.ID, c.SessionID, toNullString(c.BugID), c.FilePath, c.FileType, c.CreatedAt, boolToInt(c.IsConsole),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicatePath
		}
		return errors.NewInternal(err)
	}
	return nil
}

// ReassignCapture re-parents a capture to the given bug, or to unsorted
// when bugID is nil. Legal in any lifecycle phase.
func ReassignCapture(db *sql.DB, captureID string, bugID *string) error {
	result, err := db.Exec(`UPDATE captures SET bug_id = ? WHERE id = ?`,
		toNullString(bugID), captureID)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("capture", captureID)
	}
	return nil
}

// UpdateCapturePath records a capture file's new on-disk location after
// a physical move. The row's identity and classification never change.
func UpdateCapturePath(db *sql.DB, captureID, newPath string) error {
	result, err := db.Exec(`UPDATE captures SET file_path = ? WHERE id = ?`, newPath, captureID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicatePath
		}
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("capture", captureID)
	}
	return nil
}

// UpdateCaptureConsole sets the console-capture flag, the one mutable
// classification field the review surface may write back.
func UpdateCaptureConsole(db *sql.DB, captureID string, isConsole bool) error {
	result, err := db.Exec(`UPDATE captures SET is_console = ? WHERE id = ?`,
		boolToInt(isConsole), captureID)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("capture", captureID)
	}
	return nil
}

// GetCapture retrieves a capture by id.
func GetCapture(db *sql.DB, id string) (*model.Capture, error) {
	row := db.QueryRow(`SELECT `+captureColumns+` FROM captures WHERE id = ?`, id)
	c, err := scanCaptureFields(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("capture", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// GetCaptureByPath retrieves a capture by its session and file path.
func GetCaptureByPath(db *sql.DB, sessionID, filePath string) (*model.Capture, error) {
	row := db.QueryRow(`SELECT `+captureColumns+` FROM captures WHERE session_id = ? AND file_path = ?`,
		sessionID, filePath)
	c, err := scanCaptureFields(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("capture", filePath)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// ListCapturesForBug returns a bug's captures in detection order.
func ListCapturesForBug(db *sql.DB, bugID string) ([]*model.Capture, error) {
	return listCaptures(db, `SELECT `+captureColumns+` FROM captures WHERE bug_id = ? ORDER BY created_at, id`, bugID)
}

// ListUnsortedCaptures returns a session's captures that have no owning
// bug, in detection order.
func ListUnsortedCaptures(db *sql.DB, sessionID string) ([]*model.Capture, error) {
	return listCaptures(db, `SELECT `+captureColumns+` FROM captures WHERE session_id = ? AND bug_id IS NULL ORDER BY created_at, id`, sessionID)
}

// ListCapturesForSession returns all of a session's captures.
func ListCapturesForSession(db *sql.DB, sessionID string) ([]*model.Capture, error) {
	return listCaptures(db, `SELECT `+captureColumns+` FROM captures WHERE session_id = ? ORDER BY created_at, id`, sessionID)
}

func listCaptures(db *sql.DB, query string, args ...any) ([]*model.Capture, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var captures []*model.Capture
	for rows.Next() {
		c, err := scanCaptureFields(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return captures, nil
}

func scanCaptureFields(sc scanner) (*model.Capture, error) {
	var (
		c         model.Capture
		bugID     sql.NullString
		isConsole int
	)
	err := sc.Scan(&c.ID, &c.SessionID, &bugID, &c.FilePath, &c.FileType, &c.CreatedAt, &isConsole)
	if err != nil {
		return nil, err
	}
	c.BugID = fromNullString(bugID)
	c.IsConsole = isConsole != 0
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
