package model

// SessionStatus is the lifecycle state of a capture session.
type SessionStatus string

const (
	// SessionActive means the session is running: its landing directory is
	// watched and the capture tool's output is redirected into it.
	SessionActive SessionStatus = "active"

	// SessionEnded means the session ran and was closed; the watcher is
	// stopped and the capture tool's output path is restored.
	SessionEnded SessionStatus = "ended"

	// SessionReviewed means the operator has opened the session in review.
	SessionReviewed SessionStatus = "reviewed"

	// SessionSynced means ticket export for the session succeeded.
	SessionSynced SessionStatus = "synced"
)

// ValidSessionStatus reports whether s is a known session status.
func ValidSessionStatus(s SessionStatus) bool {
	switch s {
	case SessionActive, SessionEnded, SessionReviewed, SessionSynced:
		return true
	}
	return false
}

// Session represents one bounded QA testing period containing zero or
// more bugs. At most one session is active at any time; the active
// session owns the capture landing directory and the capture tool's
// output redirect.
type Session struct {
	// ID is a ULID that uniquely identifies this session
	ID string `json:"id"`

	// Status is the lifecycle state
	Status SessionStatus `json:"status"`

	// StartedAt is the Unix timestamp when the session started
	StartedAt int64 `json:"started_at"`

	// EndedAt is the Unix timestamp when the session ended (nullable)
	EndedAt *int64 `json:"ended_at,omitempty"`

	// FolderPath is the root of this session's on-disk data
	FolderPath string `json:"folder_path"`

	// Notes is free-text operator notes for the whole session
	Notes string `json:"notes,omitempty"`

	// OriginalCapturePath is the capture tool's save location before
	// redirection, cached for restoration on session end (nullable)
	OriginalCapturePath *string `json:"original_capture_path,omitempty"`

	// BugSeq is the per-session bug sequence counter. It only ever
	// increments, so sequence numbers are never reused even after a
	// bug is deleted.
	BugSeq int `json:"bug_seq"`
}
