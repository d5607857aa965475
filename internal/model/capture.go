package model

import (
	"path/filepath"
	"strings"
)

// FileType classifies a capture file.
type FileType string

const (
	FileScreenshot FileType = "screenshot"
	FileVideo      FileType = "video"
)

// Default extension sets for capture classification. Files with any
// other extension are ignored entirely: OS capture tools write temp or
// partial files during save and rename atomically on completion, so an
// unknown extension means "not a finished capture".
var (
	DefaultScreenshotExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}
	DefaultVideoExts      = []string{".mp4", ".mov", ".webm", ".mkv", ".avi"}
)

// ClassifyPath determines the file type of path from its extension
// using the given extension sets. The second return value is false for
// unrecognized extensions, which callers skip without recording.
func ClassifyPath(path string, screenshotExts, videoExts []string) (FileType, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	for _, e := range screenshotExts {
		if ext == e {
			return FileScreenshot, true
		}
	}
	for _, e := range videoExts {
		if ext == e {
			return FileVideo, true
		}
	}
	return "", false
}

// Subdir returns the bug-folder subdirectory a file of this type is
// sorted into ("screenshots" or "video").
func (t FileType) Subdir() string {
	if t == FileVideo {
		return "video"
	}
	return "screenshots"
}

// Capture represents a single screenshot or video file plus its
// classification metadata. A capture with a nil BugID is unsorted: it
// belongs to the session but has no owning bug yet.
type Capture struct {
	// ID is a ULID that uniquely identifies this capture
	ID string `json:"id"`

	// SessionID is the owning session
	SessionID string `json:"session_id"`

	// BugID is the owning bug, or nil for an unsorted capture
	BugID *string `json:"bug_id,omitempty"`

	// FilePath is the current on-disk location of the file. Unique per
	// session; duplicate watcher events for the same path are no-ops.
	FilePath string `json:"file_path"`

	// FileType is screenshot or video
	FileType FileType `json:"file_type"`

	// CreatedAt is the Unix timestamp when the capture was recorded
	CreatedAt int64 `json:"created_at"`

	// IsConsole marks a capture of console/log output rather than UI
	IsConsole bool `json:"is_console"`
}
