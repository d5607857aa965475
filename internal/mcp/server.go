// Package mcp exposes the review surface to coding assistants over the
// Model Context Protocol. The tool set is deliberately narrow: reads,
// plus the non-state write-backs (assignment, notes, descriptions,
// console flags). No session or bug status transition is reachable
// from here; those belong to the operator's command surface.
package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/server"

	"github.com/snagforge/snag/internal/engine"
)

// NewServer creates an MCP server with the snag review tools
// registered.
func NewServer(db *sql.DB, eng *engine.Engine, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"snag",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, eng)

	s.AddTool(sessionStatusToolDef, h.HandleSessionStatus)
	s.AddTool(bugListToolDef, h.HandleBugList)
	s.AddTool(captureListToolDef, h.HandleCaptureList)
	s.AddTool(sessionReportToolDef, h.HandleSessionReport)
	s.AddTool(captureAssignToolDef, h.HandleCaptureAssign)
	s.AddTool(bugUpdateToolDef, h.HandleBugUpdate)
	s.AddTool(captureUpdateToolDef, h.HandleCaptureUpdate)

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, eng *engine.Engine, version string) error {
	return server.ServeStdio(NewServer(db, eng, version))
}
