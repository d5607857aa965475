package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/engine"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
	"github.com/snagforge/snag/internal/report"
)

// Handlers holds dependencies for MCP tool handlers. Reads go straight
// to the store; writes go through the engine so its lock and file moves
// apply.
type Handlers struct {
	db     *sql.DB
	engine *engine.Engine
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(database *sql.DB, eng *engine.Engine) *Handlers {
	return &Handlers{db: database, engine: eng}
}

// Request types for each tool

type BugListRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type CaptureListRequest struct {
	BugID     string `json:"bug_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Unsorted  bool   `json:"unsorted,omitempty"`
}

type SessionReportRequest struct {
	BugID     string `json:"bug_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	HTML      bool   `json:"html,omitempty"`
}

type CaptureAssignRequest struct {
	CaptureID string `json:"capture_id"`
	BugID     string `json:"bug_id,omitempty"`
}

type BugUpdateRequest struct {
	BugID       string  `json:"bug_id"`
	Notes       *string `json:"notes,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
}

type CaptureUpdateRequest struct {
	CaptureID string `json:"capture_id"`
	IsConsole bool   `json:"is_console"`
}

// resolveSession returns the named session, or the active one when id
// is empty.
func (h *Handlers) resolveSession(id string) (*model.Session, error) {
	if id != "" {
		return db.GetSession(h.db, id)
	}
	session, err := db.GetActiveSession(h.db)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NewNotFound("active session", "")
	}
	return session, nil
}

// resolveBug accepts a bug id or a display id like "BUG-01" scoped to
// sessionID (empty means the active session).
func (h *Handlers) resolveBug(sessionID, ref string) (*model.Bug, error) {
	bug, err := db.GetBug(h.db, ref)
	if err == nil {
		return bug, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	session, serr := h.resolveSession(sessionID)
	if serr != nil {
		return nil, err
	}
	return db.GetBugByDisplayID(h.db, session.ID, strings.ToUpper(ref))
}

func (h *Handlers) HandleSessionStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.engine.CurrentStatus(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(status)
}

func (h *Handlers) HandleBugList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BugListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	session, err := h.resolveSession(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}
	bugs, err := db.ListBugsForSession(h.db, session.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"session_id": session.ID,
		"bugs":       bugs,
	})
}

func (h *Handlers) HandleCaptureList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.BugID != "" {
		bug, err := h.resolveBug(input.SessionID, input.BugID)
		if err != nil {
			return errorResult(err), nil
		}
		captures, err := db.ListCapturesForBug(h.db, bug.ID)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(map[string]any{
			"bug_id":   bug.ID,
			"captures": captures,
		})
	}

	if !input.Unsorted {
		return errorResult(errors.NewInvalidRequest("provide bug_id, or set unsorted=true")), nil
	}
	session, err := h.resolveSession(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}
	captures, err := db.ListUnsortedCaptures(h.db, session.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"session_id": session.ID,
		"captures":   captures,
	})
}

func (h *Handlers) HandleSessionReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var body string
	if input.BugID != "" {
		bug, err := h.resolveBug(input.SessionID, input.BugID)
		if err != nil {
			return errorResult(err), nil
		}
		body, err = report.Bug(h.db, bug.ID)
		if err != nil {
			return errorResult(err), nil
		}
	} else {
		session, err := h.resolveSession(input.SessionID)
		if err != nil {
			return errorResult(err), nil
		}
		body, err = report.Session(h.db, session.ID)
		if err != nil {
			return errorResult(err), nil
		}
	}

	if input.HTML {
		rendered, err := report.RenderHTML(body)
		if err != nil {
			return errorResult(errors.NewInternal(err)), nil
		}
		return successResult(map[string]any{"html": rendered})
	}
	return successResult(map[string]any{"markdown": body})
}

func (h *Handlers) HandleCaptureAssign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureAssignRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.CaptureID == "" {
		return errorResult(errors.NewInvalidRequest("capture_id is required")), nil
	}

	bugID := ""
	if input.BugID != "" {
		bug, err := h.resolveBug("", input.BugID)
		if err != nil {
			return errorResult(err), nil
		}
		bugID = bug.ID
	}

	capture, err := h.engine.AssignCapture(ctx, input.CaptureID, bugID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(capture)
}

func (h *Handlers) HandleBugUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BugUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.BugID == "" {
		return errorResult(errors.NewInvalidRequest("bug_id is required")), nil
	}

	bug, err := h.resolveBug("", input.BugID)
	if err != nil {
		return errorResult(err), nil
	}

	update := db.BugFieldUpdate{
		Notes:       input.Notes,
		Description: input.Description,
	}
	if input.Type != nil {
		typ := model.BugType(*input.Type)
		update.Type = &typ
	}
	updated, err := h.engine.UpdateBug(ctx, bug.ID, update)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(updated)
}

func (h *Handlers) HandleCaptureUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.CaptureID == "" {
		return errorResult(errors.NewInvalidRequest("capture_id is required")), nil
	}

	capture, err := h.engine.SetCaptureConsole(ctx, input.CaptureID, input.IsConsole)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(capture)
}

// errorResult converts an error into an MCP error payload. Internal
// error details never cross the boundary; they may carry file paths or
// SQL text.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if snagErr, ok := err.(*errors.SnagError); ok {
		errorObj := map[string]any{
			"code":    snagErr.Code,
			"message": snagErr.Message,
			"status":  snagErr.Status,
		}
		if snagErr.Code != errors.ErrInternal && snagErr.Details != nil {
			errorObj["details"] = snagErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
