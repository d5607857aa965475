package web

import (
	"database/sql"
	"net/http"

	"github.com/snagforge/snag/internal/db"
)

// Handlers contains HTTP route handlers for the review UI.
type Handlers struct {
	db       *sql.DB
	renderer *Renderer
}

// HandleSessions handles GET /sessions — list all sessions, newest first.
func (h *Handlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := db.ListSessions(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "sessions", SessionsPageData{
		PageData: PageData{
			Title:   "Sessions",
			Version: h.renderer.version,
		},
		Sessions: sessions,
	})
}

// HandleSessionDetail handles GET /sessions/{id} — one session's bugs
// and unsorted captures.
func (h *Handlers) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	session, err := db.GetSession(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	bugs, err := db.ListBugsForSession(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	unsorted, err := db.ListUnsortedCaptures(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	counts := make(map[string]int, len(bugs))
	for _, b := range bugs {
		captures, err := db.ListCapturesForBug(h.db, b.ID)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		counts[b.ID] = len(captures)
	}

	h.renderer.renderPage(w, "session", SessionPageData{
		PageData: PageData{
			Title:   "Session " + formatTime(session.StartedAt),
			Version: h.renderer.version,
		},
		Session:      session,
		Bugs:         bugs,
		BugCaptures:  counts,
		Unsorted:     unsorted,
		RenderedNote: renderMarkdown(session.Notes),
	})
}

// HandleBugDetail handles GET /bugs/{id} — one bug's evidence, with
// its description rendered from markdown.
func (h *Handlers) HandleBugDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	bug, err := db.GetBug(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	session, err := db.GetSession(h.db, bug.SessionID)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	captures, err := db.ListCapturesForBug(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "bug", BugPageData{
		PageData: PageData{
			Title:   bug.DisplayID,
			Version: h.renderer.version,
		},
		Session:             session,
		Bug:                 bug,
		Captures:            captures,
		RenderedDescription: renderMarkdown(bug.Description),
	})
}
