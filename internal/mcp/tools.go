package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var sessionStatusToolDef = mcp.NewTool("session_status",
	mcp.WithDescription("Current QA state: the active session, the bug currently capturing (if any), and counts of recorded bugs and unsorted captures."),
)

var bugListToolDef = mcp.NewTool("bug_list",
	mcp.WithDescription("List the bugs recorded in a session, in sequence order. Defaults to the active session."),
	mcp.WithString("session_id",
		mcp.Description("Session to list. Omit for the active session."),
	),
)

var captureListToolDef = mcp.NewTool("capture_list",
	mcp.WithDescription("List captures for a bug, or a session's unsorted captures."),
	mcp.WithString("bug_id",
		mcp.Description("Bug whose captures to list. Omit with unsorted=true to list a session's unsorted captures."),
	),
	mcp.WithString("session_id",
		mcp.Description("Session for unsorted listing. Omit for the active session."),
	),
	mcp.WithBoolean("unsorted",
		mcp.Description("List unsorted captures instead of a bug's."),
	),
)

var sessionReportToolDef = mcp.NewTool("session_report",
	mcp.WithDescription("Ticket-ready markdown report for one bug or a whole session."),
	mcp.WithString("bug_id",
		mcp.Description("Report a single bug. Omit for the whole session."),
	),
	mcp.WithString("session_id",
		mcp.Description("Session to report. Omit for the active session."),
	),
	mcp.WithBoolean("html",
		mcp.Description("Render the report as HTML instead of markdown."),
	),
)

var captureAssignToolDef = mcp.NewTool("capture_assign",
	mcp.WithDescription("Reassign a capture to a bug in the same session, or back to unsorted. The file is relocated to match."),
	mcp.WithString("capture_id",
		mcp.Required(),
		mcp.Description("Capture to reassign."),
	),
	mcp.WithString("bug_id",
		mcp.Description("Target bug. Omit or empty to return the capture to unsorted."),
	),
)

var bugUpdateToolDef = mcp.NewTool("bug_update",
	mcp.WithDescription("Update a bug's notes, description, or type. Status cannot be changed from here."),
	mcp.WithString("bug_id",
		mcp.Required(),
		mcp.Description("Bug to update."),
	),
	mcp.WithString("notes",
		mcp.Description("Replacement one-line notes."),
	),
	mcp.WithString("description",
		mcp.Description("Replacement long-form description (markdown)."),
	),
	mcp.WithString("type",
		mcp.Description("Replacement type: bug, feature, or feedback."),
		mcp.Enum("bug", "feature", "feedback"),
	),
)

var captureUpdateToolDef = mcp.NewTool("capture_update",
	mcp.WithDescription("Flag or unflag a capture as console/log output."),
	mcp.WithString("capture_id",
		mcp.Required(),
		mcp.Description("Capture to update."),
	),
	mcp.WithBoolean("is_console",
		mcp.Required(),
		mcp.Description("Whether the capture shows console/log output."),
	),
)
