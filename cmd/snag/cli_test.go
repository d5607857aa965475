package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snagforge/snag/internal/config"
	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/engine"
	"github.com/snagforge/snag/internal/model"
)

// setupTestApp creates a temporary database and a CLI app wired to it.
func setupTestApp(t *testing.T) (*sql.DB, *config.Config, func(args ...string) (string, error)) {
	t.Helper()
	base := t.TempDir()
	database, err := db.Init(base)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig(base)
	app := newCLIApp(database, cfg, engine.New(database, cfg))

	run := func(args ...string) (string, error) {
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := app.Run(append([]string{"snag"}, args...))

		w.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		os.Stdout = oldStdout

		return buf.String(), err
	}
	return database, cfg, run
}

// TestCLIStartStatus tests start followed by status.
func TestCLIStartStatus(t *testing.T) {
	_, _, run := setupTestApp(t)

	out, err := run("start", "--notes", "checkout regression pass")
	if err != nil {
		t.Fatalf("start command failed: %v", err)
	}

	var session model.Session
	if err := json.Unmarshal([]byte(out), &session); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if session.ID == "" {
		t.Error("expected non-empty session id")
	}
	if session.Status != model.SessionActive {
		t.Errorf("expected active session, got %s", session.Status)
	}
	if session.Notes != "checkout regression pass" {
		t.Errorf("unexpected notes: %q", session.Notes)
	}

	out, err = run("status")
	if err != nil {
		t.Fatalf("status command failed: %v", err)
	}
	var status engine.Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("failed to parse status: %v\nOutput: %s", err, out)
	}
	if status.ActiveSession == nil || status.ActiveSession.ID != session.ID {
		t.Error("status did not report the started session")
	}
}

// TestCLISecondStartRejected tests the single-active-session invariant
// through the CLI surface.
func TestCLISecondStartRejected(t *testing.T) {
	_, _, run := setupTestApp(t)

	if _, err := run("start"); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if _, err := run("start"); err == nil {
		t.Error("expected second start to fail")
	}
}

// TestCLIBugLifecycle tests bug start, end, and resume.
func TestCLIBugLifecycle(t *testing.T) {
	_, _, run := setupTestApp(t)

	if _, err := run("start"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	out, err := run("bug", "start", "--type", "feature", "--notes", "dark mode request")
	if err != nil {
		t.Fatalf("bug start failed: %v", err)
	}
	var bug model.Bug
	if err := json.Unmarshal([]byte(out), &bug); err != nil {
		t.Fatalf("failed to parse bug: %v\nOutput: %s", err, out)
	}
	if bug.DisplayID != "FTR-01" {
		t.Errorf("expected FTR-01, got %s", bug.DisplayID)
	}
	if bug.Status != model.BugCapturing {
		t.Errorf("expected capturing bug, got %s", bug.Status)
	}

	// End defaults to the capturing bug.
	if _, err := run("bug", "end"); err != nil {
		t.Fatalf("bug end failed: %v", err)
	}
	if _, err := run("bug", "end"); err == nil {
		t.Error("expected bug end with nothing capturing to fail")
	}

	// Resume by display id, case-insensitive.
	if _, err := run("bug", "resume", "ftr-01"); err != nil {
		t.Fatalf("bug resume failed: %v", err)
	}

	out, err = run("status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var status engine.Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("failed to parse status: %v", err)
	}
	if status.CapturingBug == nil || status.CapturingBug.ID != bug.ID {
		t.Error("expected resumed bug to be capturing")
	}
}

// TestCLIEndAndResumeSession tests the session close and reopen path.
func TestCLIEndAndResumeSession(t *testing.T) {
	_, _, run := setupTestApp(t)

	out, err := run("start")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	var session model.Session
	if err := json.Unmarshal([]byte(out), &session); err != nil {
		t.Fatalf("failed to parse session: %v", err)
	}

	if _, err := run("end"); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if _, err := run("end"); err == nil {
		t.Error("expected end with no active session to fail")
	}

	if _, err := run("resume", session.ID); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	out, err = run("sessions")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	var sessions []*model.Session
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("failed to parse sessions: %v\nOutput: %s", err, out)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].Status != model.SessionActive {
		t.Errorf("expected resumed session to be active, got %s", sessions[0].Status)
	}
}

// TestCLIScanAndCaptures tests scan picking up files dropped into the
// landing directory, then listing them.
func TestCLIScanAndCaptures(t *testing.T) {
	_, _, run := setupTestApp(t)

	out, err := run("start")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	var session model.Session
	if err := json.Unmarshal([]byte(out), &session); err != nil {
		t.Fatalf("failed to parse session: %v", err)
	}

	landing := filepath.Join(session.FolderPath, engine.LandingDirName)
	for _, name := range []string{"a.png", "b.mp4", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(landing, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	out, err = run("scan")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	var scanResult map[string]int
	if err := json.Unmarshal([]byte(out), &scanResult); err != nil {
		t.Fatalf("failed to parse scan output: %v", err)
	}
	if scanResult["recorded"] != 2 {
		t.Errorf("expected 2 recorded, got %d", scanResult["recorded"])
	}

	out, err = run("captures", "--unsorted")
	if err != nil {
		t.Fatalf("captures failed: %v", err)
	}
	var captures []*model.Capture
	if err := json.Unmarshal([]byte(out), &captures); err != nil {
		t.Fatalf("failed to parse captures: %v\nOutput: %s", err, out)
	}
	if len(captures) != 2 {
		t.Errorf("expected 2 unsorted captures, got %d", len(captures))
	}
}

// TestCLIAssign tests reassigning a capture to a bug by display id.
func TestCLIAssign(t *testing.T) {
	_, _, run := setupTestApp(t)

	out, err := run("start")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	var session model.Session
	if err := json.Unmarshal([]byte(out), &session); err != nil {
		t.Fatalf("failed to parse session: %v", err)
	}

	if _, err := run("bug", "start", "--notes", "broken cart"); err != nil {
		t.Fatalf("bug start failed: %v", err)
	}
	if _, err := run("bug", "end"); err != nil {
		t.Fatalf("bug end failed: %v", err)
	}

	landing := filepath.Join(session.FolderPath, engine.LandingDirName)
	if err := os.WriteFile(filepath.Join(landing, "loose.png"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := run("scan"); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	out, err = run("captures", "--unsorted")
	if err != nil {
		t.Fatalf("captures failed: %v", err)
	}
	var captures []*model.Capture
	if err := json.Unmarshal([]byte(out), &captures); err != nil {
		t.Fatalf("failed to parse captures: %v", err)
	}
	if len(captures) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(captures))
	}

	out, err = run("assign", "--bug", "bug-01", captures[0].ID)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	var assigned model.Capture
	if err := json.Unmarshal([]byte(out), &assigned); err != nil {
		t.Fatalf("failed to parse assigned capture: %v", err)
	}
	if assigned.BugID == nil {
		t.Fatal("expected capture assigned to a bug")
	}
	if _, err := os.Stat(assigned.FilePath); err != nil {
		t.Errorf("expected file at new path: %v", err)
	}

	if _, err := run("assign", captures[0].ID); err == nil {
		t.Error("expected assign without target to fail")
	}
}

// TestCLINoteAndDescribe tests notes and descriptions.
func TestCLINoteAndDescribe(t *testing.T) {
	_, _, run := setupTestApp(t)

	if _, err := run("start"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := run("bug", "start"); err != nil {
		t.Fatalf("bug start failed: %v", err)
	}

	// Defaults to the capturing bug.
	out, err := run("note", "repro", "steps", "pending")
	if err != nil {
		t.Fatalf("note failed: %v", err)
	}
	var bug model.Bug
	if err := json.Unmarshal([]byte(out), &bug); err != nil {
		t.Fatalf("failed to parse bug: %v", err)
	}
	if bug.Notes != "repro steps pending" {
		t.Errorf("unexpected notes: %q", bug.Notes)
	}

	out, err = run("describe", "BUG-01", "**Expected**: cart keeps items")
	if err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &bug); err != nil {
		t.Fatalf("failed to parse bug: %v", err)
	}
	if !strings.Contains(bug.Description, "cart keeps items") {
		t.Errorf("unexpected description: %q", bug.Description)
	}

	if _, err := run("note", "--session", "exploratory pass on checkout"); err != nil {
		t.Fatalf("session note failed: %v", err)
	}
}

// TestCLIDeleteBug tests delete-bug.
func TestCLIDeleteBug(t *testing.T) {
	_, _, run := setupTestApp(t)

	if _, err := run("start"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := run("bug", "start"); err != nil {
		t.Fatalf("bug start failed: %v", err)
	}

	// Capturing bugs are protected.
	if _, err := run("delete-bug", "BUG-01"); err == nil {
		t.Error("expected delete of capturing bug to fail")
	}

	if _, err := run("bug", "end"); err != nil {
		t.Fatalf("bug end failed: %v", err)
	}
	if _, err := run("delete-bug", "BUG-01"); err != nil {
		t.Fatalf("delete-bug failed: %v", err)
	}

	out, err := run("bugs")
	if err != nil {
		t.Fatalf("bugs failed: %v", err)
	}
	var bugs []*model.Bug
	if err := json.Unmarshal([]byte(out), &bugs); err != nil {
		t.Fatalf("failed to parse bugs: %v", err)
	}
	if len(bugs) != 0 {
		t.Errorf("expected no bugs, got %d", len(bugs))
	}
}

// TestCLIReviewLifecycle tests the review-phase commands.
func TestCLIReviewLifecycle(t *testing.T) {
	_, _, run := setupTestApp(t)

	out, err := run("start")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	var session model.Session
	if err := json.Unmarshal([]byte(out), &session); err != nil {
		t.Fatalf("failed to parse session: %v", err)
	}

	if _, err := run("bug", "start", "--notes", "broken cart"); err != nil {
		t.Fatalf("bug start failed: %v", err)
	}
	if _, err := run("bug", "end"); err != nil {
		t.Fatalf("bug end failed: %v", err)
	}

	// Session review is out of order while the session is active.
	if _, err := run("review", session.ID); err == nil {
		t.Error("expected review of active session to fail")
	}

	// Bug review works by display id after the session ends.
	if _, err := run("end"); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	out, err = run("bug", "review", "bug-01")
	if err != nil {
		t.Fatalf("bug review failed: %v", err)
	}
	var bug model.Bug
	if err := json.Unmarshal([]byte(out), &bug); err != nil {
		t.Fatalf("failed to parse bug: %v", err)
	}
	if bug.Status != model.BugReviewed {
		t.Errorf("expected reviewed bug, got %s", bug.Status)
	}

	// Ready needs a description first.
	if _, err := run("bug", "ready", "BUG-01"); err == nil {
		t.Error("expected ready without description to fail")
	}
	if _, err := run("describe", "BUG-01", "cart loses items on refresh"); err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	out, err = run("bug", "ready", "BUG-01")
	if err != nil {
		t.Fatalf("bug ready failed: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &bug); err != nil {
		t.Fatalf("failed to parse bug: %v", err)
	}
	if bug.Status != model.BugReady {
		t.Errorf("expected ready bug, got %s", bug.Status)
	}

	// Session: ended → reviewed → synced, in that order only.
	if _, err := run("sync", session.ID); err == nil {
		t.Error("expected sync before review to fail")
	}
	out, err = run("review", session.ID)
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &session); err != nil {
		t.Fatalf("failed to parse session: %v", err)
	}
	if session.Status != model.SessionReviewed {
		t.Errorf("expected reviewed session, got %s", session.Status)
	}
	if _, err := run("sync", session.ID); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
}

// TestCLIReport tests the report command output.
func TestCLIReport(t *testing.T) {
	_, _, run := setupTestApp(t)

	if _, err := run("start"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := run("bug", "start", "--notes", "crash on save"); err != nil {
		t.Fatalf("bug start failed: %v", err)
	}
	if _, err := run("bug", "end"); err != nil {
		t.Fatalf("bug end failed: %v", err)
	}

	out, err := run("report", "BUG-01")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(out, "BUG-01") || !strings.Contains(out, "crash on save") {
		t.Errorf("unexpected report output: %s", out)
	}

	out, err = run("report", "--session", "", "--html")
	if err != nil {
		t.Fatalf("session report failed: %v", err)
	}
	if !strings.Contains(out, "<h1>") {
		t.Errorf("expected HTML output, got: %s", out)
	}
}

// TestCLIErrorHandling tests error paths across commands.
func TestCLIErrorHandling(t *testing.T) {
	_, _, run := setupTestApp(t)

	t.Run("status commands need a session", func(t *testing.T) {
		if _, err := run("bugs"); err == nil {
			t.Error("expected bugs with no session to fail")
		}
		if _, err := run("scan"); err == nil {
			t.Error("expected scan with no session to fail")
		}
		if _, err := run("bug", "start"); err == nil {
			t.Error("expected bug start with no session to fail")
		}
	})

	t.Run("resume requires an id", func(t *testing.T) {
		if _, err := run("resume"); err == nil {
			t.Error("expected resume with no id to fail")
		}
	})

	t.Run("unknown bug ref", func(t *testing.T) {
		if _, err := run("start"); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		if _, err := run("delete-bug", "BUG-99"); err == nil {
			t.Error("expected delete of unknown bug to fail")
		}
	})
}

// TestIsCLIMode tests the mode dispatch helper.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{name: "no args", args: []string{"snag"}, expected: false},
		{name: "known command", args: []string{"snag", "start"}, expected: true},
		{name: "known command with flags", args: []string{"snag", "bug", "start"}, expected: true},
		{name: "unknown command", args: []string{"snag", "frobnicate"}, expected: false},
		{name: "flag only", args: []string{"snag", "--verbose"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if got := isCLIMode(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// TestIsHelpOrVersion tests the help/version detection helper.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{name: "no args", args: []string{"snag"}, expected: false},
		{name: "help flag", args: []string{"snag", "--help"}, expected: true},
		{name: "short help", args: []string{"snag", "-h"}, expected: true},
		{name: "help command", args: []string{"snag", "help"}, expected: true},
		{name: "version flag", args: []string{"snag", "--version"}, expected: true},
		{name: "short version", args: []string{"snag", "-v"}, expected: true},
		{name: "regular command", args: []string{"snag", "start"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if got := isHelpOrVersion(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
