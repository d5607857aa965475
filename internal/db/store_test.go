package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestSession(id string) *model.Session {
	return &model.Session{
		ID:         id,
		Status:     model.SessionActive,
		StartedAt:  time.Now().Unix(),
		FolderPath: "/tmp/sessions/" + id,
	}
}

func TestCreateSession_SingleActiveInvariant(t *testing.T) {
	database := testDB(t)

	require.NoError(t, CreateSession(database, newTestSession("s1")))

	err := CreateSession(database, newTestSession("s2"))
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrInvariantViolation),
		"second active session must fail with InvariantViolation, got %v", err)

	// Ending the first frees the slot
	require.NoError(t, UpdateSessionStatus(database, "s1", model.SessionEnded))
	require.NoError(t, CreateSession(database, newTestSession("s2")))
}

func TestGetActiveSession(t *testing.T) {
	database := testDB(t)

	s, err := GetActiveSession(database)
	require.NoError(t, err)
	require.Nil(t, s, "no active session yet")

	require.NoError(t, CreateSession(database, newTestSession("s1")))

	s, err = GetActiveSession(database)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "s1", s.ID)
	require.Equal(t, model.SessionActive, s.Status)
}

func TestUpdateSessionStatus_EndedAtStamping(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	require.NoError(t, UpdateSessionStatus(database, "s1", model.SessionEnded))
	s, err := GetSession(database, "s1")
	require.NoError(t, err)
	require.NotNil(t, s.EndedAt)

	// Resume clears ended_at
	require.NoError(t, UpdateSessionStatus(database, "s1", model.SessionActive))
	s, err = GetSession(database, "s1")
	require.NoError(t, err)
	require.Nil(t, s.EndedAt)
}

func TestUpdateSessionStatus_NotFound(t *testing.T) {
	database := testDB(t)
	err := UpdateSessionStatus(database, "missing", model.SessionEnded)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCreateBug_SequenceAssignment(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	b1 := &model.Bug{ID: "b1", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/tmp/sessions/s1", b1))
	require.Equal(t, 1, b1.Seq)
	require.Equal(t, "BUG-01", b1.DisplayID)

	require.NoError(t, UpdateBugStatus(database, "b1", model.BugCaptured))

	b2 := &model.Bug{ID: "b2", SessionID: "s1", Type: model.TypeFeature, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/tmp/sessions/s1", b2))
	require.Equal(t, 2, b2.Seq)
	require.Equal(t, "FTR-02", b2.DisplayID)
}

func TestCreateBug_SeqNeverReusedAfterDelete(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	seen := make(map[int]bool)
	for _, id := range []string{"b1", "b2", "b3"} {
		b := &model.Bug{ID: id, SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
		require.NoError(t, CreateBug(database, "/s1", b))
		require.False(t, seen[b.Seq], "seq %d repeated", b.Seq)
		seen[b.Seq] = true
		require.NoError(t, UpdateBugStatus(database, id, model.BugCaptured))
	}

	// Delete the middle bug, create two more: numbering keeps climbing.
	require.NoError(t, DeleteBug(database, "b2"))

	for _, id := range []string{"b4", "b5"} {
		b := &model.Bug{ID: id, SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
		require.NoError(t, CreateBug(database, "/s1", b))
		require.False(t, seen[b.Seq], "seq %d reused after delete", b.Seq)
		seen[b.Seq] = true
		require.NoError(t, UpdateBugStatus(database, id, model.BugCaptured))
	}
}

func TestCreateBug_SingleCapturingInvariant(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	b1 := &model.Bug{ID: "b1", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/s1", b1))

	b2 := &model.Bug{ID: "b2", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	err := CreateBug(database, "/s1", b2)
	require.True(t, errors.Is(err, errors.ErrInvariantViolation),
		"second capturing bug must fail with InvariantViolation, got %v", err)
}

func TestSetCapturing_DemotesCurrentAtomically(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	b1 := &model.Bug{ID: "b1", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/s1", b1))
	require.NoError(t, UpdateBugStatus(database, "b1", model.BugCaptured))
	b2 := &model.Bug{ID: "b2", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/s1", b2))

	// Resume b1 while b2 is capturing: b2 demoted, b1 promoted.
	require.NoError(t, SetCapturing(database, "s1", "b1"))

	active, err := GetActiveBugForSession(database, "s1")
	require.NoError(t, err)
	require.Equal(t, "b1", active.ID)

	demoted, err := GetBug(database, "b2")
	require.NoError(t, err)
	require.Equal(t, model.BugCaptured, demoted.Status)
}

func TestSetCapturing_SameBugIsNoop(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	b1 := &model.Bug{ID: "b1", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/s1", b1))

	require.NoError(t, SetCapturing(database, "s1", "b1"))

	active, err := GetActiveBugForSession(database, "s1")
	require.NoError(t, err)
	require.Equal(t, "b1", active.ID)
}

func TestGetActiveBugForSession_NoneCapturing(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	active, err := GetActiveBugForSession(database, "s1")
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestUpdateBugStatus_RejectsCapturingPromotion(t *testing.T) {
	database := testDB(t)
	err := UpdateBugStatus(database, "whatever", model.BugCapturing)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestUpdateBugFields_TypeRederivesDisplayID(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	b := &model.Bug{ID: "b1", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/s1", b))

	typ := model.TypeFeedback
	notes := "repro steps attached"
	require.NoError(t, UpdateBugFields(database, "b1", BugFieldUpdate{Notes: &notes, Type: &typ}))

	got, err := GetBug(database, "b1")
	require.NoError(t, err)
	require.Equal(t, "FBK-01", got.DisplayID)
	require.Equal(t, "repro steps attached", got.Notes)
	require.Equal(t, model.BugCapturing, got.Status, "field update must not touch status")
}

func TestCreateCapture_Idempotent(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	c := &model.Capture{
		ID: "c1", SessionID: "s1", FilePath: "/s1/unsorted/shot1.png",
		FileType: model.FileScreenshot, CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, CreateCapture(database, c))

	dup := &model.Capture{
		ID: "c2", SessionID: "s1", FilePath: "/s1/unsorted/shot1.png",
		FileType: model.FileScreenshot, CreatedAt: time.Now().Unix(),
	}
	err := CreateCapture(database, dup)
	require.ErrorIs(t, err, ErrDuplicatePath)

	all, err := ListCapturesForSession(database, "s1")
	require.NoError(t, err)
	require.Len(t, all, 1, "duplicate path must produce exactly one row")
}

func TestReassignCapture_RoundTrip(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	bugA := &model.Bug{ID: "bA", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/s1", bugA))
	require.NoError(t, UpdateBugStatus(database, "bA", model.BugCaptured))
	bugB := &model.Bug{ID: "bB", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/s1", bugB))

	c := &model.Capture{
		ID: "c1", SessionID: "s1", FilePath: "/s1/unsorted/shot1.png",
		FileType: model.FileScreenshot, CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, CreateCapture(database, c))

	idA, idB := "bA", "bB"
	require.NoError(t, ReassignCapture(database, "c1", &idA))
	require.NoError(t, ReassignCapture(database, "c1", &idB))

	got, err := GetCapture(database, "c1")
	require.NoError(t, err)
	require.NotNil(t, got.BugID)
	require.Equal(t, "bB", *got.BugID)

	forA, err := ListCapturesForBug(database, "bA")
	require.NoError(t, err)
	require.Empty(t, forA, "no residual association to the first bug")

	// Back to unsorted
	require.NoError(t, ReassignCapture(database, "c1", nil))
	unsorted, err := ListUnsortedCaptures(database, "s1")
	require.NoError(t, err)
	require.Len(t, unsorted, 1)
}

func TestDeleteBug_ReparentsCaptures(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	b := &model.Bug{ID: "b1", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/s1", b))

	bugID := "b1"
	c := &model.Capture{
		ID: "c1", SessionID: "s1", BugID: &bugID, FilePath: "/s1/BUG-01/screenshots/shot1.png",
		FileType: model.FileScreenshot, CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, CreateCapture(database, c))

	require.NoError(t, DeleteBug(database, "b1"))

	unsorted, err := ListUnsortedCaptures(database, "s1")
	require.NoError(t, err)
	require.Len(t, unsorted, 1)
	require.Equal(t, "c1", unsorted[0].ID)

	_, err = GetBug(database, "b1")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUpdateCaptureConsole(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	c := &model.Capture{
		ID: "c1", SessionID: "s1", FilePath: "/s1/unsorted/log.png",
		FileType: model.FileScreenshot, CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, CreateCapture(database, c))

	require.NoError(t, UpdateCaptureConsole(database, "c1", true))
	got, err := GetCapture(database, "c1")
	require.NoError(t, err)
	require.True(t, got.IsConsole)
}

func TestGetBugByDisplayID(t *testing.T) {
	database := testDB(t)
	require.NoError(t, CreateSession(database, newTestSession("s1")))

	b := &model.Bug{ID: "b1", SessionID: "s1", Type: model.TypeBug, Status: model.BugCapturing}
	require.NoError(t, CreateBug(database, "/s1", b))

	got, err := GetBugByDisplayID(database, "s1", "BUG-01")
	require.NoError(t, err)
	require.Equal(t, "b1", got.ID)

	_, err = GetBugByDisplayID(database, "s1", "BUG-99")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
