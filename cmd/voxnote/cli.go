package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/voxnote/internal/app"
	"github.com/hpungsan/voxnote/internal/config"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/export"
	"github.com/hpungsan/voxnote/internal/mcp"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/store"
	"github.com/hpungsan/voxnote/internal/transcript"
	"github.com/hpungsan/voxnote/internal/tui"
	"github.com/hpungsan/voxnote/internal/web"
)

// env carries what commands need. It is nil for --help and --version.
type env struct {
	app    *app.App
	cfg    *config.Config
	logger *slog.Logger
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	cliApp := &cli.App{
		Name:    "voxnote",
		Usage:   "Voice notes with live transcription",
		Version: Version,
		Commands: []*cli.Command{
			recordCmd(e),
			noteCmd(e),
			folderCmd(e),
			exportCmd(e),
			importCmd(e),
			exportNoteCmd(e),
			summarizeCmd(e),
			settingsCmd(e),
			recordingsCmd(e),
			serveCmd(e),
			mcpCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// recordCmd creates the record command.
func recordCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record into the active note (or a new one)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "new", Usage: "Record into a new note"},
			&cli.BoolFlag{Name: "headless", Usage: "Record without the terminal UI until interrupted"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("new") {
				if _, err := e.app.NewNote(c.Context, ""); err != nil {
					return outputError(err)
				}
			}
			if err := e.app.StartRecording(c.Context); err != nil {
				return outputError(err)
			}
			if !c.Bool("headless") {
				return runTUI(c.Context, e)
			}
			return recordHeadless(c.Context, e.app)
		},
	}
}

// recordOutput reports a finished headless recording.
type recordOutput struct {
	NoteID     string `json:"note_id"`
	Outcome    string `json:"outcome,omitempty"`
	Segments   int    `json:"segments"`
	Transcript string `json:"transcript"`
	Status     string `json:"status"`
}

// recordHeadless waits for ctx (SIGINT) or for the session to end on its own,
// then stops and reports the result.
func recordHeadless(ctx context.Context, a *app.App) error {
	changed := make(chan struct{}, 1)
	a.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	bg := context.Background()
	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case <-changed:
			v, err := a.View(bg)
			if err != nil {
				return outputError(err)
			}
			done = !v.State.Active()
		}
	}

	sum, err := a.StopRecording(bg)
	if err != nil {
		return outputError(err)
	}
	v, err := a.View(bg)
	if err != nil {
		return outputError(err)
	}
	out := recordOutput{
		NoteID:     v.Active.ID,
		Segments:   len(v.Segments),
		Transcript: transcript.PlainText(v.Active.Transcript),
		Status:     v.Status,
	}
	if sum != nil {
		out.Outcome = string(sum.Outcome)
	}
	return outputJSON(out)
}

// noteCmd creates the note command group.
func noteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "note",
		Usage: "Create, list and edit notes",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "Create a note (optionally reads the transcript from stdin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Folder ID"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title (defaults to the title format)"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
				},
				Action: func(c *cli.Context) error {
					n, err := e.app.NewNote(c.Context, c.String("folder"))
					if err != nil {
						return outputError(err)
					}
					patch, err := notePatchFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					if patch != (store.NotePatch{}) {
						if n, err = e.app.UpdateNote(c.Context, n.ID, patch); err != nil {
							return outputError(err)
						}
					}
					return outputJSON(n)
				},
			},
			{
				Name:  "list",
				Usage: "List notes, most recently modified first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search title and transcript"},
					&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Filter by folder ID"},
					&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
				},
				Action: func(c *cli.Context) error {
					folder := c.String("folder")
					if folder != "" && folder != note.AllFolderID {
						if _, err := e.app.Store().Folder(folder); err != nil {
							return outputError(err)
						}
					}
					notes := e.app.List(store.Filter{
						Search:   c.String("query"),
						FolderID: folder,
						Tag:      c.String("tag"),
					})
					return outputJSON(paginate(notes, c.Int("limit"), c.Int("offset")))
				},
			},
			{
				Name:      "show",
				Usage:     "Print a note",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "json", Usage: "Output format: json|txt|md|html"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "note ID")
					if err != nil {
						return outputError(err)
					}
					if c.String("format") == "json" {
						n, err := e.app.Note(id)
						if err != nil {
							return outputError(err)
						}
						return outputJSON(n)
					}
					body, _, _, err := e.app.RenderNote(id, c.String("format"))
					if err != nil {
						return outputError(err)
					}
					_, err = os.Stdout.Write(body)
					return err
				},
			},
			{
				Name:      "update",
				Usage:     "Update a note (optionally reads the transcript from stdin)",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
					&cli.StringFlag{Name: "tags", Usage: "New comma-separated tags"},
					&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "Move to folder ID"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "note ID")
					if err != nil {
						return outputError(err)
					}
					patch, err := notePatchFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					if c.IsSet("folder") {
						folder := c.String("folder")
						patch.FolderID = &folder
					}
					if patch == (store.NotePatch{}) {
						return outputError(errors.NewInvalidRequest("nothing to update"))
					}
					n, err := e.app.UpdateNote(c.Context, id, patch)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(n)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a note",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "note ID")
					if err != nil {
						return outputError(err)
					}
					if _, err := e.app.DeleteNote(c.Context, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": true, "id": id})
				},
			},
			{
				Name:      "tag",
				Usage:     "Add a tag to a note",
				ArgsUsage: "<id> <tag>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return outputError(errors.NewInvalidRequest("usage: voxnote note tag <id> <tag>"))
					}
					n, err := e.app.AddTag(c.Context, c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(n)
				},
			},
			{
				Name:      "untag",
				Usage:     "Remove a tag from a note",
				ArgsUsage: "<id> <tag>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return outputError(errors.NewInvalidRequest("usage: voxnote note untag <id> <tag>"))
					}
					n, err := e.app.RemoveTag(c.Context, c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(n)
				},
			},
			{
				Name:      "move",
				Usage:     "Move a note to a folder",
				ArgsUsage: "<id> <folder-id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return outputError(errors.NewInvalidRequest("usage: voxnote note move <id> <folder-id>"))
					}
					n, err := e.app.MoveNote(c.Context, c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(n)
				},
			},
		},
	}
}

// folderCmd creates the folder command group.
func folderCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "folder",
		Usage: "Manage folders",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a folder",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					f, err := e.app.CreateFolder(c.Context, strings.Join(c.Args().Slice(), " "))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(f)
				},
			},
			{
				Name:  "list",
				Usage: "List folders",
				Action: func(c *cli.Context) error {
					return outputJSON(map[string]any{"items": e.app.Folders()})
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a folder",
				ArgsUsage: "<id> <name>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return outputError(errors.NewInvalidRequest("usage: voxnote folder rename <id> <name>"))
					}
					f, err := e.app.RenameFolder(c.Context, c.Args().First(), strings.Join(c.Args().Tail(), " "))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(f)
				},
			},
			{
				Name:      "delete",
				Usage:     `Delete a folder; its notes move to "all"`,
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "folder ID")
					if err != nil {
						return outputError(err)
					}
					moved, err := e.app.DeleteFolder(c.Context, id)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": true, "id": id, "moved_notes": moved})
				},
			},
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export every note and folder to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.voxnote/exports/voxnote-<timestamp>.json)"},
		},
		Action: func(c *cli.Context) error {
			output, err := e.app.ExportAll(c.Context, c.String("path"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace every note and folder with a JSON export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
		},
		Action: func(c *cli.Context) error {
			output, err := e.app.ImportAll(c.Context, c.String("path"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportNoteCmd creates the export-note command.
func exportNoteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "export-note",
		Usage:     "Write one note as plain text, Markdown or HTML",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: string(export.FormatMarkdown), Usage: "Output format: txt|md|html"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output file (default: ~/.voxnote/exports/<title>.<format>)"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "note ID")
			if err != nil {
				return outputError(err)
			}
			output, err := e.app.ExportNote(c.Context, id, c.String("format"), c.String("path"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// summarizeCmd creates the summarize command.
func summarizeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize a note's transcript and store the result",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "note ID")
			if err != nil {
				return outputError(err)
			}
			n, err := e.app.SummarizeWait(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"id": n.ID, "summary": transcript.PlainText(n.Summary)})
		},
	}
}

// settingsCmd creates the settings command group.
func settingsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change settings",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the current settings",
				Action: func(c *cli.Context) error {
					s := e.app.Settings()
					if s.APIKey != "" {
						s.APIKey = "[REDACTED]"
					}
					return outputJSON(s)
				},
			},
			{
				Name:      "set",
				Usage:     "Change settings, e.g. voxnote settings set theme=dark silence_timeout=60",
				ArgsUsage: "<key=value>...",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("at least one key=value is required"))
					}
					s, err := applySettings(e.app.Settings(), c.Args().Slice())
					if err != nil {
						return outputError(err)
					}
					if err := e.app.SaveSettings(c.Context, s); err != nil {
						return outputError(err)
					}
					s = e.app.Settings()
					if s.APIKey != "" {
						s.APIKey = "[REDACTED]"
					}
					return outputJSON(s)
				},
			},
		},
	}
}

// recordingsCmd creates the recordings command.
func recordingsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "recordings",
		Usage: "List recorded sessions, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "note", Usage: "Only sessions of this note ID"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
		},
		Action: func(c *cli.Context) error {
			recs, err := e.app.Recordings(c.Context, c.String("note"), c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			items := make([]recordingOutput, 0, len(recs))
			for _, r := range recs {
				items = append(items, recordingOutput{
					ID:           r.ID,
					NoteID:       r.NoteID,
					StartedAt:    time.UnixMilli(r.StartedAt).UTC().Format(time.RFC3339),
					DurationMS:   r.StoppedAt - r.StartedAt,
					Outcome:      r.Outcome,
					ErrorCode:    r.ErrorCode,
					SegmentCount: r.SegmentCount,
					AudioPath:    r.AudioPath,
				})
			}
			return outputJSON(map[string]any{"items": items})
		},
	}
}

type recordingOutput struct {
	ID           string  `json:"id"`
	NoteID       string  `json:"note_id"`
	StartedAt    string  `json:"started_at"`
	DurationMS   int64   `json:"duration_ms"`
	Outcome      string  `json:"outcome"`
	ErrorCode    *string `json:"error_code,omitempty"`
	SegmentCount int     `json:"segment_count"`
	AudioPath    *string `json:"audio_path,omitempty"`
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8180, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(e.app, Version, c.String("bind"), c.Int("port"), e.logger)
			if err != nil {
				return outputError(err)
			}
			return web.Run(c.Context, srv, e.logger)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Action: func(c *cli.Context) error {
			return runMCP(e)
		},
	}
}

func runTUI(ctx context.Context, e *env) error {
	return tui.Run(ctx, e.app)
}

func runMCP(e *env) error {
	if unknown := mcp.ValidateDisabledTools(e.cfg.DisabledTools); len(unknown) > 0 {
		e.logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(e.cfg.DisabledTypes); len(unknown) > 0 {
		e.logger.Warn("unknown types in disabled_types", "types", unknown)
	}
	return mcp.Run(e.app, e.cfg, Version)
}

// Helper functions

// noteListOutput is a page of notes.
type noteListOutput struct {
	Items   []noteItem `json:"items"`
	Total   int        `json:"total"`
	HasMore bool       `json:"has_more"`
}

type noteItem struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	FolderID     string   `json:"folder_id"`
	Tags         []string `json:"tags"`
	LastModified string   `json:"last_modified"`
}

func paginate(notes []*note.Note, limit, offset int) noteListOutput {
	out := noteListOutput{Items: []noteItem{}, Total: len(notes)}
	if limit <= 0 {
		limit = 20
	}
	offset = max(offset, 0)
	if offset >= len(notes) {
		return out
	}
	end := min(offset+limit, len(notes))
	for _, n := range notes[offset:end] {
		out.Items = append(out.Items, noteItem{
			ID:           n.ID,
			Title:        n.Title,
			FolderID:     n.FolderID,
			Tags:         n.Tags,
			LastModified: time.UnixMilli(n.LastModified).UTC().Format(time.RFC3339),
		})
	}
	out.HasMore = end < len(notes)
	return out
}

// notePatchFromFlags builds a patch from --title, --tags and piped stdin.
func notePatchFromFlags(c *cli.Context) (store.NotePatch, error) {
	var patch store.NotePatch
	if c.IsSet("title") {
		title := c.String("title")
		patch.Title = &title
	}
	if c.IsSet("tags") {
		tags := parseTags(c.String("tags"))
		patch.Tags = &tags
	}
	if stdinHasData() {
		text, err := readStdin()
		if err != nil {
			return patch, errors.NewInternal(err)
		}
		if text != "" {
			markup := transcript.FromPlainText(text)
			patch.Transcript = &markup
		}
	}
	return patch, nil
}

// applySettings sets each key=value on s by its JSON field name. Values that
// parse as JSON (numbers, booleans, objects) are used as such; anything else is
// taken as a string.
func applySettings(s note.Settings, assignments []string) (note.Settings, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return s, errors.NewInternal(err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return s, errors.NewInternal(err)
	}
	known := settingKeys()

	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return s, errors.NewInvalidRequest(fmt.Sprintf("expected key=value, got %q", a))
		}
		if !known[key] {
			return s, errors.NewInvalidRequest(fmt.Sprintf("unknown setting %q (known: %s)", key, strings.Join(sortedKeys(known), ", ")))
		}
		if json.Valid([]byte(value)) {
			fields[key] = json.RawMessage(value)
		} else {
			quoted, _ := json.Marshal(value)
			fields[key] = quoted
		}
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return s, errors.NewInternal(err)
	}
	var out note.Settings
	if err := json.Unmarshal(merged, &out); err != nil {
		return s, errors.NewInvalidRequest(fmt.Sprintf("invalid setting value: %v", err))
	}
	return out, nil
}

// settingKeys returns the JSON names of every settings field.
func settingKeys() map[string]bool {
	on := true
	raw, _ := json.Marshal(note.Settings{VADEnabled: &on, DiarizationEnabled: &on, SpeakerChangeThresholdMS: 1})
	var fields map[string]json.RawMessage
	_ = json.Unmarshal(raw, &fields)
	keys := make(map[string]bool, len(fields))
	for k := range fields {
		keys[k] = true
	}
	return keys
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func requireArg(c *cli.Context, what string) (string, error) {
	if c.NArg() == 0 || strings.TrimSpace(c.Args().First()) == "" {
		return "", errors.NewInvalidRequest(what + " is required")
	}
	return c.Args().First(), nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if vErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
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

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
