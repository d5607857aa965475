package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/snagforge/snag/internal/config"
	"github.com/snagforge/snag/internal/db"
	"github.com/snagforge/snag/internal/engine"
	"github.com/snagforge/snag/internal/errors"
	"github.com/snagforge/snag/internal/model"
	"github.com/snagforge/snag/internal/report"
	"github.com/snagforge/snag/internal/watch"
	"github.com/snagforge/snag/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.App {
	app := &cli.App{
		Name:    "snag",
		Usage:   "QA capture session orchestrator",
		Version: Version,
		Commands: []*cli.Command{
			startCmd(cfg, eng),
			endCmd(database, cfg, eng),
			resumeCmd(database, cfg, eng),
			reviewCmd(cfg, eng),
			syncCmd(cfg, eng),
			bugCmd(database, cfg, eng),
			statusCmd(cfg, eng),
			sessionsCmd(database),
			bugsCmd(database),
			capturesCmd(database),
			assignCmd(database, cfg, eng),
			sortCmd(database, cfg, eng),
			scanCmd(cfg, eng),
			noteCmd(database, cfg, eng),
			describeCmd(database, cfg, eng),
			consoleCmd(cfg, eng),
			deleteBugCmd(database, cfg, eng),
			reportCmd(database),
			watchCmd(database, cfg),
			uiCmd(database),
			triggerCmd(cfg, eng),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// cmdCtx bounds a command with the configured timeout. Session start
// and end touch the filesystem and the capture tool's settings file,
// either of which can stall.
func cmdCtx(cfg *config.Config) (context.Context, context.CancelFunc) {
	secs := config.DefaultCommandTimeoutSecs
	if cfg != nil && cfg.CommandTimeoutSecs > 0 {
		secs = cfg.CommandTimeoutSecs
	}
	return context.WithTimeout(context.Background(), time.Duration(secs)*time.Second)
}

// resolveSessionRef maps a session argument to a session: empty means
// the active one.
func resolveSessionRef(database *sql.DB, ref string) (*model.Session, error) {
	if ref != "" {
		return db.GetSession(database, ref)
	}
	session, err := db.GetActiveSession(database)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NewNotFound("active session", "")
	}
	return session, nil
}

// resolveBugRef accepts a bug ULID or a display id like "BUG-01",
// scoped to the active session, or to the most recent one when
// nothing is active (the review phase runs after the session ends).
func resolveBugRef(database *sql.DB, ref string) (*model.Bug, error) {
	bug, err := db.GetBug(database, ref)
	if err == nil {
		return bug, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	session, serr := db.GetActiveSession(database)
	if serr != nil {
		return nil, serr
	}
	if session == nil {
		sessions, lerr := db.ListSessions(database)
		if lerr != nil {
			return nil, lerr
		}
		if len(sessions) == 0 {
			return nil, err
		}
		session = sessions[0]
	}
	return db.GetBugByDisplayID(database, session.ID, strings.ToUpper(ref))
}

// startCmd creates the start command.
func startCmd(cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start a capture session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "Session notes"},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			session, err := eng.StartSession(ctx, c.String("notes"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(session)
		},
	}
}

// endCmd creates the end command.
func endCmd(database *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "end",
		Usage:     "End the active session (or a named one)",
		ArgsUsage: "[session-id]",
		Action: func(c *cli.Context) error {
			session, err := resolveSessionRef(database, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			if err := eng.EndSession(ctx, session.ID); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"ended": session.ID})
		},
	}
}

// resumeCmd creates the resume command.
func resumeCmd(database *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "resume",
		Usage:     "Reopen an ended session for more capturing",
		ArgsUsage: "<session-id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("session id is required"))
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			if err := eng.ResumeSession(ctx, id); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"resumed": id})
		},
	}
}

// reviewCmd creates the review command.
func reviewCmd(cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Mark an ended session reviewed",
		ArgsUsage: "<session-id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("session id is required"))
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			session, err := eng.ReviewSession(ctx, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(session)
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Mark a reviewed session synced to the tracker",
		ArgsUsage: "<session-id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("session id is required"))
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			session, err := eng.MarkSessionSynced(ctx, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(session)
		},
	}
}

// bugCmd creates the bug command group.
func bugCmd(database *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "bug",
		Usage: "Bug capture lifecycle",
		Subcommands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start capturing a new bug; subsequent captures attach to it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "bug", Usage: "Finding type: bug|feature|feedback"},
					&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "One-line notes"},
				},
				Action: func(c *cli.Context) error {
					ctx, cancel := cmdCtx(cfg)
					defer cancel()

					bug, err := eng.StartBugCapture(ctx, model.BugType(c.String("type")), c.String("notes"))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(bug)
				},
			},
			{
				Name:      "end",
				Usage:     "End capture for the current bug (or a named one)",
				ArgsUsage: "[bug]",
				Action: func(c *cli.Context) error {
					ctx, cancel := cmdCtx(cfg)
					defer cancel()

					ref := c.Args().First()
					var bugID string
					if ref == "" {
						status, err := eng.CurrentStatus(ctx)
						if err != nil {
							return outputError(err)
						}
						if status.CapturingBug == nil {
							return outputError(errors.NewNotFound("capturing bug", ""))
						}
						bugID = status.CapturingBug.ID
					} else {
						bug, err := resolveBugRef(database, ref)
						if err != nil {
							return outputError(err)
						}
						bugID = bug.ID
					}

					if err := eng.EndBugCapture(ctx, bugID); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"ended": bugID})
				},
			},
			{
				Name:      "review",
				Usage:     "Mark a captured bug reviewed",
				ArgsUsage: "<bug>",
				Action: func(c *cli.Context) error {
					ref := c.Args().First()
					if ref == "" {
						return outputError(errors.NewInvalidRequest("bug id is required"))
					}
					bug, err := resolveBugRef(database, ref)
					if err != nil {
						return outputError(err)
					}

					ctx, cancel := cmdCtx(cfg)
					defer cancel()

					updated, err := eng.ReviewBug(ctx, bug.ID)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(updated)
				},
			},
			{
				Name:      "ready",
				Usage:     "Mark a reviewed bug ready for export",
				ArgsUsage: "<bug>",
				Action: func(c *cli.Context) error {
					ref := c.Args().First()
					if ref == "" {
						return outputError(errors.NewInvalidRequest("bug id is required"))
					}
					bug, err := resolveBugRef(database, ref)
					if err != nil {
						return outputError(err)
					}

					ctx, cancel := cmdCtx(cfg)
					defer cancel()

					updated, err := eng.MarkBugReady(ctx, bug.ID)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(updated)
				},
			},
			{
				Name:      "resume",
				Usage:     "Make an existing bug the capturing one again",
				ArgsUsage: "<bug>",
				Action: func(c *cli.Context) error {
					ref := c.Args().First()
					if ref == "" {
						return outputError(errors.NewInvalidRequest("bug id is required"))
					}
					bug, err := resolveBugRef(database, ref)
					if err != nil {
						return outputError(err)
					}

					ctx, cancel := cmdCtx(cfg)
					defer cancel()

					if err := eng.ResumeBugCapture(ctx, bug.ID); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"capturing": bug.ID, "display_id": bug.DisplayID})
				},
			},
		},
	}
}

// statusCmd creates the status command.
func statusCmd(cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the active session and capturing bug",
		Action: func(c *cli.Context) error {
			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			status, err := eng.CurrentStatus(ctx)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(status)
		},
	}
}

// sessionsCmd creates the sessions command.
func sessionsCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List all sessions, newest first",
		Action: func(c *cli.Context) error {
			sessions, err := db.ListSessions(database)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(sessions)
		},
	}
}

// bugsCmd creates the bugs command.
func bugsCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "bugs",
		Usage: "List a session's bugs in sequence order",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session id (defaults to the active session)"},
		},
		Action: func(c *cli.Context) error {
			session, err := resolveSessionRef(database, c.String("session"))
			if err != nil {
				return outputError(err)
			}
			bugs, err := db.ListBugsForSession(database, session.ID)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(bugs)
		},
	}
}

// capturesCmd creates the captures command.
func capturesCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "captures",
		Usage: "List captures for a bug, the unsorted bucket, or a whole session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bug", Aliases: []string{"b"}, Usage: "Bug id or display id"},
			&cli.BoolFlag{Name: "unsorted", Aliases: []string{"u"}, Usage: "Only unsorted captures"},
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session id (defaults to the active session)"},
		},
		Action: func(c *cli.Context) error {
			if ref := c.String("bug"); ref != "" {
				bug, err := resolveBugRef(database, ref)
				if err != nil {
					return outputError(err)
				}
				captures, err := db.ListCapturesForBug(database, bug.ID)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(captures)
			}

			session, err := resolveSessionRef(database, c.String("session"))
			if err != nil {
				return outputError(err)
			}
			var captures []*model.Capture
			if c.Bool("unsorted") {
				captures, err = db.ListUnsortedCaptures(database, session.ID)
			} else {
				captures, err = db.ListCapturesForSession(database, session.ID)
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(captures)
		},
	}
}

// assignCmd creates the assign command.
func assignCmd(database *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "assign",
		Usage:     "Reassign a capture to a bug, or back to unsorted",
		ArgsUsage: "<capture-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bug", Aliases: []string{"b"}, Usage: "Target bug id or display id"},
			&cli.BoolFlag{Name: "unsorted", Aliases: []string{"u"}, Usage: "Return the capture to unsorted"},
		},
		Action: func(c *cli.Context) error {
			captureID := c.Args().First()
			if captureID == "" {
				return outputError(errors.NewInvalidRequest("capture id is required"))
			}
			if c.String("bug") == "" && !c.Bool("unsorted") {
				return outputError(errors.NewInvalidRequest("provide --bug or --unsorted"))
			}

			bugID := ""
			if ref := c.String("bug"); ref != "" {
				bug, err := resolveBugRef(database, ref)
				if err != nil {
					return outputError(err)
				}
				bugID = bug.ID
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			capture, err := eng.AssignCapture(ctx, captureID, bugID)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(capture)
		},
	}
}

// sortCmd creates the sort command.
func sortCmd(database *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "sort",
		Usage:     "Move capture files into the folders their rows say they belong in",
		ArgsUsage: "[session-id]",
		Action: func(c *cli.Context) error {
			session, err := resolveSessionRef(database, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			moved, err := eng.SortSession(ctx, session.ID)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"moved": moved})
		},
	}
}

// scanCmd creates the scan command.
func scanCmd(cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Classify files that landed while no watcher was running",
		Action: func(c *cli.Context) error {
			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			recorded, err := eng.ScanSession(ctx)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"recorded": recorded})
		},
	}
}

// noteCmd creates the note command.
func noteCmd(database *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "note",
		Usage:     "Attach notes to the capturing bug, a named bug, or the session",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bug", Aliases: []string{"b"}, Usage: "Bug id or display id (defaults to the capturing bug)"},
			&cli.BoolFlag{Name: "session", Aliases: []string{"s"}, Usage: "Write session notes instead"},
		},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				return outputError(errors.NewInvalidRequest("note text is required"))
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			if c.Bool("session") {
				session, err := resolveSessionRef(database, "")
				if err != nil {
					return outputError(err)
				}
				if err := eng.SetSessionNotes(ctx, session.ID, text); err != nil {
					return outputError(err)
				}
				return outputJSON(map[string]any{"session": session.ID, "notes": text})
			}

			var bugID string
			if ref := c.String("bug"); ref != "" {
				bug, err := resolveBugRef(database, ref)
				if err != nil {
					return outputError(err)
				}
				bugID = bug.ID
			} else {
				status, err := eng.CurrentStatus(ctx)
				if err != nil {
					return outputError(err)
				}
				if status.CapturingBug == nil {
					return outputError(errors.NewNotFound("capturing bug", ""))
				}
				bugID = status.CapturingBug.ID
			}

			bug, err := eng.UpdateBug(ctx, bugID, db.BugFieldUpdate{Notes: &text})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(bug)
		},
	}
}

// describeCmd creates the describe command.
func describeCmd(database *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Set a bug's long-form description (reads from stdin when piped)",
		ArgsUsage: "<bug> [text]",
		Action: func(c *cli.Context) error {
			ref := c.Args().First()
			if ref == "" {
				return outputError(errors.NewInvalidRequest("bug id is required"))
			}
			bug, err := resolveBugRef(database, ref)
			if err != nil {
				return outputError(err)
			}

			var text string
			if c.NArg() > 1 {
				text = strings.Join(c.Args().Slice()[1:], " ")
			} else if stdinHasData() {
				text, err = readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
			}
			if text == "" {
				return outputError(errors.NewInvalidRequest("description text is required (argument or stdin)"))
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			updated, err := eng.UpdateBug(ctx, bug.ID, db.BugFieldUpdate{Description: &text})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(updated)
		},
	}
}

// consoleCmd creates the console command.
func consoleCmd(cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "console",
		Usage:     "Flag a capture as console/log output",
		ArgsUsage: "<capture-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "off", Usage: "Clear the flag instead"},
		},
		Action: func(c *cli.Context) error {
			captureID := c.Args().First()
			if captureID == "" {
				return outputError(errors.NewInvalidRequest("capture id is required"))
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			capture, err := eng.SetCaptureConsole(ctx, captureID, !c.Bool("off"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(capture)
		},
	}
}

// deleteBugCmd creates the delete-bug command.
func deleteBugCmd(database *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "delete-bug",
		Usage:     "Delete a bug; its captures return to unsorted",
		ArgsUsage: "<bug>",
		Action: func(c *cli.Context) error {
			ref := c.Args().First()
			if ref == "" {
				return outputError(errors.NewInvalidRequest("bug id is required"))
			}
			bug, err := resolveBugRef(database, ref)
			if err != nil {
				return outputError(err)
			}

			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			if err := eng.DeleteBug(ctx, bug.ID); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"deleted": bug.ID, "display_id": bug.DisplayID})
		},
	}
}

// reportCmd creates the report command.
func reportCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Ticket-ready report for a bug, or a whole session with --session",
		ArgsUsage: "[bug]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Report a whole session (id, or empty for the active one)"},
			&cli.BoolFlag{Name: "html", Usage: "Render HTML instead of markdown"},
		},
		Action: func(c *cli.Context) error {
			var body string

			if ref := c.Args().First(); ref != "" {
				bug, err := resolveBugRef(database, ref)
				if err != nil {
					return outputError(err)
				}
				body, err = report.Bug(database, bug.ID)
				if err != nil {
					return outputError(err)
				}
			} else {
				session, err := resolveSessionRef(database, c.String("session"))
				if err != nil {
					return outputError(err)
				}
				body, err = report.Session(database, session.ID)
				if err != nil {
					return outputError(err)
				}
			}

			if c.Bool("html") {
				rendered, err := report.RenderHTML(body)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				fmt.Println(rendered)
				return nil
			}
			fmt.Println(body)
			return nil
		},
	}
}

// watchCmd creates the watch command: the long-running orchestrator.
func watchCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the capture orchestrator until interrupted (one JSON event per line)",
		Action: func(c *cli.Context) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			debounce := time.Duration(cfg.DebounceMillis) * time.Millisecond
			if debounce <= 0 {
				debounce = config.DefaultDebounceMillis * time.Millisecond
			}
			watcher, err := watch.New(debounce, logger)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer watcher.Close()

			eng := engine.New(database, cfg,
				engine.WithWatcher(watcher),
				engine.WithLogger(logger),
			)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if _, err := eng.Recover(ctx); err != nil {
				return outputError(err)
			}

			go eng.Run(ctx)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case ev := <-watcher.Events():
						eng.Enqueue(ev)
					}
				}
			}()

			events, cancel := eng.Events().Subscribe()
			defer cancel()

			encoder := json.NewEncoder(os.Stdout)
			for {
				select {
				case <-ctx.Done():
					logger.Info("shutting down")
					return nil
				case n := <-events:
					_ = encoder.Encode(n)
				}
			}
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the read-only review web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 7433, Usage: "Port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(database, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// triggerCmd creates the trigger command.
func triggerCmd(cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "trigger",
		Usage: "Ask the configured capture tool to take a capture now",
		Action: func(c *cli.Context) error {
			ctx, cancel := cmdCtx(cfg)
			defer cancel()

			if err := eng.TriggerCapture(ctx); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"triggered": true})
		},
	}
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if snagErr, ok := err.(*errors.SnagError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", snagErr.Code, snagErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
