// Package report builds ticket-ready report bodies from the store.
// Reports are markdown by construction so they can be pasted into any
// issue tracker; HTML rendering is a thin layer on top for the review
// UI and for trackers that want rich text.
package report

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/model"
)

// Bug builds a ticket body for one bug: header, description, notes,
// and the capture inventory grouped by kind.
func Bug(database *sql.DB, bugID string) (string, error) {
	bug, err := db.GetBug(database, bugID)
	if err != nil {
		return "", err
	}
	captures, err := db.ListCapturesForBug(database, bugID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeBugSection(&b, bug, captures)
	return b.String(), nil
}

// Session builds a whole-session report: session header, every bug's
// section in sequence order, and the unsorted leftovers.
func Session(database *sql.DB, sessionID string) (string, error) {
	session, err := db.GetSession(database, sessionID)
	if err != nil {
		return "", err
	}
	bugs, err := db.ListBugsForSession(database, sessionID)
	if err != nil {
		return "", err
	}
	unsorted, err := db.ListUnsortedCaptures(database, sessionID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", formatDay(session.StartedAt))
	fmt.Fprintf(&b, "- Started: %s\n", formatTime(session.StartedAt))
	if session.EndedAt != nil {
		fmt.Fprintf(&b, "- Ended: %s\n", formatTime(*session.EndedAt))
	}
	fmt.Fprintf(&b, "- Status: %s\n", session.Status)
	fmt.Fprintf(&b, "- Findings: %d\n\n", len(bugs))
	if session.Notes != "" {
		b.WriteString(session.Notes)
		b.WriteString("\n\n")
	}

	for _, bug := range bugs {
		captures, err := db.ListCapturesForBug(database, bug.ID)
		if err != nil {
			return "", err
		}
		writeBugSection(&b, bug, captures)
		b.WriteString("\n")
	}

	if len(unsorted) > 0 {
		b.WriteString("## Unsorted captures\n\n")
		writeCaptureList(&b, unsorted)
	}
	return b.String(), nil
}

func writeBugSection(b *strings.Builder, bug *model.Bug, captures []*model.Capture) {
	title := bug.DisplayID
	if bug.Notes != "" {
		title += ": " + bug.Notes
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintf(b, "- Type: %s\n", bug.Type)
	fmt.Fprintf(b, "- Status: %s\n", bug.Status)
	fmt.Fprintf(b, "- Recorded: %s\n\n", formatTime(bug.CreatedAt))

	if bug.Description != "" {
		b.WriteString(bug.Description)
		b.WriteString("\n\n")
	}

	if len(captures) == 0 {
		b.WriteString("No captures.\n")
		return
	}
	b.WriteString("### Evidence\n\n")
	writeCaptureList(b, captures)
}

func writeCaptureList(b *strings.Builder, captures []*model.Capture) {
	for _, c := range captures {
		label := string(c.FileType)
		if c.IsConsole {
			label += ", console"
		}
		fmt.Fprintf(b, "- `%s` (%s)\n", c.FilePath, label)
	}
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderHTML renders a markdown report body to HTML.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).Format("2006-01-02 15:04:05")
}

func formatDay(unix int64) string {
	return time.Unix(unix, 0).Format("2006-01-02")
}
