package model

import "fmt"

// BugStatus is the lifecycle state of a bug within a session.
type BugStatus string

const (
	// BugCapturing means this bug is the session's active bug: new
	// captures landing in the watched directory are associated with it.
	// At most one bug per session is capturing at any time.
	BugCapturing BugStatus = "capturing"

	// BugCaptured means capture for this bug has ended.
	BugCaptured BugStatus = "captured"

	// BugReviewed means the operator has reviewed the bug's evidence.
	BugReviewed BugStatus = "reviewed"

	// BugReady means the bug has a description and is ready for export.
	BugReady BugStatus = "ready"
)

// ValidBugStatus reports whether s is a known bug status.
func ValidBugStatus(s BugStatus) bool {
	switch s {
	case BugCapturing, BugCaptured, BugReviewed, BugReady:
		return true
	}
	return false
}

// BugType distinguishes what kind of finding a bug records.
type BugType string

const (
	TypeBug      BugType = "bug"
	TypeFeature  BugType = "feature"
	TypeFeedback BugType = "feedback"
)

// ValidBugType reports whether t is a known bug type.
func ValidBugType(t BugType) bool {
	switch t {
	case TypeBug, TypeFeature, TypeFeedback:
		return true
	}
	return false
}

// displayPrefixes maps bug types to display-id prefixes.
var displayPrefixes = map[BugType]string{
	TypeBug:      "BUG",
	TypeFeature:  "FTR",
	TypeFeedback: "FBK",
}

// DisplayID derives the human-readable id for a bug from its type and
// sequence number, e.g. ("bug", 3) -> "BUG-03". It is a pure function
// of (type, seq) so it can never drift from the stored sequence.
func DisplayID(t BugType, seq int) string {
	prefix, ok := displayPrefixes[t]
	if !ok {
		prefix = "BUG"
	}
	return fmt.Sprintf("%s-%02d", prefix, seq)
}

// Bug represents one discrete issue or feedback item and its associated
// evidence, scoped to a session.
type Bug struct {
	// ID is a ULID that uniquely identifies this bug
	ID string `json:"id"`

	// SessionID is the owning session
	SessionID string `json:"session_id"`

	// Seq is the 1-based sequence number, unique within the session,
	// monotonically assigned and never reused
	Seq int `json:"seq"`

	// DisplayID is the derived human-readable id, e.g. "BUG-03"
	DisplayID string `json:"display_id"`

	// Type is the kind of finding (bug, feature, feedback)
	Type BugType `json:"type"`

	// Status is the lifecycle state
	Status BugStatus `json:"status"`

	// Notes is free-text operator notes taken during capture
	Notes string `json:"notes,omitempty"`

	// Description is the ticket-ready description (written during review,
	// possibly assistant-generated; never touches status)
	Description string `json:"description,omitempty"`

	// FolderPath is the bug's on-disk subfolder within the session folder
	FolderPath string `json:"folder_path"`

	// CreatedAt is the Unix timestamp when the bug was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the bug was last updated
	UpdatedAt int64 `json:"updated_at"`
}
