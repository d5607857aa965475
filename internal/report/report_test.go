package report

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/model"
)

func seedSession(t *testing.T) (*sql.DB, *model.Session, *model.Bug) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	session := &model.Session{
		ID: "s1", Status: model.SessionEnded,
		StartedAt: 1756700000, FolderPath: "/qa/2026-09-01",
		Notes: "nightly regression pass",
	}
	require.NoError(t, db.CreateSession(database, session))

	bug := &model.Bug{
		ID: "b1", SessionID: "s1", Type: model.TypeBug,
		Status: model.BugCaptured, Notes: "crash on save",
		Description: "Steps:\n\n1. Open editor\n2. Save twice",
	}
	require.NoError(t, db.CreateBug(database, session.FolderPath, bug))
	require.NoError(t, db.CreateCapture(database, &model.Capture{
		ID: "c1", SessionID: "s1", BugID: &bug.ID,
		FilePath: "/qa/2026-09-01/BUG-01/screenshots/crash.png",
		FileType: model.FileScreenshot, CreatedAt: 1756700100,
	}))
	require.NoError(t, db.CreateCapture(database, &model.Capture{
		ID: "c2", SessionID: "s1",
		FilePath: "/qa/2026-09-01/unsorted/loose.mp4",
		FileType: model.FileVideo, CreatedAt: 1756700200,
	}))
	return database, session, bug
}

func TestBugReport(t *testing.T) {
	database, _, bug := seedSession(t)

	md, err := Bug(database, bug.ID)
	require.NoError(t, err)

	assert.Contains(t, md, "## BUG-01: crash on save")
	assert.Contains(t, md, "- Type: bug")
	assert.Contains(t, md, "Steps:")
	assert.Contains(t, md, "crash.png")
	assert.NotContains(t, md, "loose.mp4")
}

func TestBugReport_NoCaptures(t *testing.T) {
	database, session, _ := seedSession(t)

	empty := &model.Bug{ID: "b2", SessionID: "s1", Type: model.TypeFeature, Status: model.BugCaptured}
	require.NoError(t, db.CreateBug(database, session.FolderPath, empty))

	md, err := Bug(database, "b2")
	require.NoError(t, err)
	assert.Contains(t, md, "No captures.")
}

func TestSessionReport(t *testing.T) {
	database, session, _ := seedSession(t)

	md, err := Session(database, session.ID)
	require.NoError(t, err)

	assert.Contains(t, md, "# Session 2026-")
	assert.Contains(t, md, "nightly regression pass")
	assert.Contains(t, md, "## BUG-01")
	assert.Contains(t, md, "## Unsorted captures")
	assert.Contains(t, md, "loose.mp4")
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("## BUG-01\n\n- Type: bug\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>BUG-01</h2>")
	assert.Contains(t, html, "<li>Type: bug</li>")
}
