package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/voxnote/internal/app"
	"github.com/hpungsan/voxnote/internal/config"
	"github.com/hpungsan/voxnote/internal/db"
	"github.com/hpungsan/voxnote/internal/errors"
)

// testSetup creates a running app over a temporary database.
func testSetup(t *testing.T, mutate ...func(*config.Config)) (*Handlers, *app.App, *config.Config) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests
	for _, fn := range mutate {
		fn(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.New(context.Background(), cfg, tmpDir, database, app.Deps{Logger: logger})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		_ = a.Flush(context.Background())
		cancel()
		<-done
	})

	return NewHandlers(a), a, cfg
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// createNote stores a note through the tool and returns its ID.
func createNote(t *testing.T, h *Handlers, args map[string]any) string {
	t.Helper()
	result, err := h.HandleNoteCreate(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return parseOutput(t, result)["id"].(string)
}

func TestHandleNoteCreate(t *testing.T) {
	h, a, _ := testSetup(t)
	ctx := context.Background()

	folder, err := a.CreateFolder(ctx, "Work")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
		check     func(t *testing.T, out map[string]any)
	}{
		{
			name: "defaults",
			args: map[string]any{},
			check: func(t *testing.T, out map[string]any) {
				if out["folder_id"] != "all" {
					t.Errorf("folder_id = %v, want all", out["folder_id"])
				}
				if out["title"] == "" {
					t.Error("expected a default title")
				}
			},
		},
		{
			name: "with fields",
			args: map[string]any{
				"folder_id":  folder.ID,
				"title":      "Standup",
				"transcript": "first line\nsecond line",
				"tags":       []any{"daily", "daily", "team"},
			},
			check: func(t *testing.T, out map[string]any) {
				if out["title"] != "Standup" {
					t.Errorf("title = %v, want Standup", out["title"])
				}
				if out["transcript"] != "first line\nsecond line" {
					t.Errorf("transcript = %q", out["transcript"])
				}
				if tags := out["tags"].([]any); len(tags) != 2 {
					t.Errorf("tags = %v, want deduplicated pair", tags)
				}
			},
		},
		{
			name:      "unknown folder",
			args:      map[string]any{"folder_id": "nope"},
			wantError: true,
			errorCode: "NOT_FOUND",
		},
		{
			name:      "bad argument type",
			args:      map[string]any{"tags": "not-a-list"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleNoteCreate(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.wantError {
				if !result.IsError {
					t.Fatalf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			tt.check(t, parseOutput(t, result))
		})
	}
}

func TestHandleNoteGet(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()
	id := createNote(t, h, map[string]any{"title": "get-me", "transcript": "hello there"})

	t.Run("plain", func(t *testing.T) {
		result, _ := h.HandleNoteGet(ctx, makeRequest(map[string]any{"id": id}))
		out := parseOutput(t, result)
		if out["transcript"] != "hello there" {
			t.Errorf("transcript = %q, want %q", out["transcript"], "hello there")
		}
		if _, ok := out["markup"]; ok {
			t.Error("markup should be omitted by default")
		}
	})

	t.Run("with markup", func(t *testing.T) {
		result, _ := h.HandleNoteGet(ctx, makeRequest(map[string]any{"id": id, "include_markup": true}))
		out := parseOutput(t, result)
		if markup, _ := out["markup"].(string); markup == "" {
			t.Error("expected markup")
		}
	})

	t.Run("missing id", func(t *testing.T) {
		result, _ := h.HandleNoteGet(ctx, makeRequest(map[string]any{}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})

	t.Run("not found", func(t *testing.T) {
		result, _ := h.HandleNoteGet(ctx, makeRequest(map[string]any{"id": "NOPE"}))
		assertErrorCode(t, result, "NOT_FOUND")
	})
}

func TestHandleNoteList(t *testing.T) {
	h, a, _ := testSetup(t)
	ctx := context.Background()

	folder, err := a.CreateFolder(ctx, "Projects")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	for i := 0; i < 5; i++ {
		args := map[string]any{
			"title":      fmt.Sprintf("note-%d", i),
			"transcript": fmt.Sprintf("body %d", i),
		}
		if i%2 == 0 {
			args["tags"] = []any{"even"}
		}
		if i == 4 {
			args["folder_id"] = folder.ID
			args["transcript"] = "Quarterly roadmap"
		}
		createNote(t, h, args)
	}

	tests := []struct {
		name      string
		args      map[string]any
		wantItems int
		wantTotal int
		wantMore  bool
		errorCode string
	}{
		// five created plus the note that exists on first start
		{name: "all", args: map[string]any{}, wantItems: 6, wantTotal: 6},
		{name: "paged", args: map[string]any{"limit": 2}, wantItems: 2, wantTotal: 6, wantMore: true},
		{name: "offset past end", args: map[string]any{"offset": 10}, wantItems: 0, wantTotal: 6},
		{name: "by tag", args: map[string]any{"tag": "even"}, wantItems: 3, wantTotal: 3},
		{name: "by folder", args: map[string]any{"folder_id": folder.ID}, wantItems: 1, wantTotal: 1},
		{name: "by query", args: map[string]any{"query": "ROADMAP"}, wantItems: 1, wantTotal: 1},
		{name: "combined", args: map[string]any{"tag": "even", "query": "body"}, wantItems: 2, wantTotal: 2},
		{name: "unknown folder", args: map[string]any{"folder_id": "nope"}, errorCode: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleNoteList(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.errorCode != "" {
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			out := parseOutput(t, result)
			items := out["items"].([]any)
			if len(items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(items), tt.wantItems)
			}
			page := out["pagination"].(map[string]any)
			if int(page["total"].(float64)) != tt.wantTotal {
				t.Errorf("total = %v, want %d", page["total"], tt.wantTotal)
			}
			if page["has_more"] != tt.wantMore {
				t.Errorf("has_more = %v, want %v", page["has_more"], tt.wantMore)
			}
		})
	}
}

func TestHandleNoteUpdate(t *testing.T) {
	h, a, _ := testSetup(t)
	ctx := context.Background()
	id := createNote(t, h, map[string]any{"title": "before"})
	folder, err := a.CreateFolder(ctx, "Archive")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}

	tests := []struct {
		name      string
		args      map[string]any
		errorCode string
	}{
		{name: "title", args: map[string]any{"id": id, "title": "after"}},
		{name: "transcript", args: map[string]any{"id": id, "transcript": "rewritten"}},
		{name: "tags", args: map[string]any{"id": id, "tags": []any{"x"}}},
		{name: "move", args: map[string]any{"id": id, "folder_id": folder.ID}},
		{name: "no fields", args: map[string]any{"id": id}, errorCode: "INVALID_REQUEST"},
		{name: "no id", args: map[string]any{"title": "x"}, errorCode: "INVALID_REQUEST"},
		{name: "unknown folder", args: map[string]any{"id": id, "folder_id": "nope"}, errorCode: "NOT_FOUND"},
		{name: "unknown note", args: map[string]any{"id": "NOPE", "title": "x"}, errorCode: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleNoteUpdate(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.errorCode != "" {
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			if result.IsError {
				t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}

	n, err := a.Note(id)
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if n.Title != "after" || n.FolderID != folder.ID || len(n.Tags) != 1 {
		t.Errorf("note = %+v, want all updates applied", n)
	}
}

func TestHandleNoteDelete(t *testing.T) {
	h, a, _ := testSetup(t)
	ctx := context.Background()
	id := createNote(t, h, map[string]any{"title": "doomed"})

	result, _ := h.HandleNoteDelete(ctx, makeRequest(map[string]any{"id": id}))
	out := parseOutput(t, result)
	if out["deleted"] != true {
		t.Errorf("deleted = %v, want true", out["deleted"])
	}
	if _, err := a.Note(id); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Note after delete err = %v, want NOT_FOUND", err)
	}

	result, _ = h.HandleNoteDelete(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleNoteExport(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()
	id := createNote(t, h, map[string]any{"title": "Export Me", "transcript": "line one"})
	dir := t.TempDir()

	path := filepath.Join(dir, "note.md")
	result, _ := h.HandleNoteExport(ctx, makeRequest(map[string]any{"id": id, "path": path}))
	out := parseOutput(t, result)
	if out["format"] != "md" {
		t.Errorf("format = %v, want md", out["format"])
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Export Me") {
		t.Errorf("export = %q", data)
	}

	result, _ = h.HandleNoteExport(ctx, makeRequest(map[string]any{"id": id, "format": "pdf", "path": filepath.Join(dir, "x.pdf")}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleExportImportAll(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()
	createNote(t, h, map[string]any{"title": "export-test", "transcript": "keep"})

	exportPath := filepath.Join(t.TempDir(), "export.json")
	exportResult, err := h.HandleNoteExportAll(ctx, makeRequest(map[string]any{"path": exportPath}))
	if err != nil {
		t.Fatalf("export handler returned error: %v", err)
	}
	out := parseOutput(t, exportResult)
	if int(out["notes"].(float64)) != 2 {
		t.Errorf("exported notes = %v, want 2", out["notes"])
	}
	if _, err := os.Stat(exportPath); os.IsNotExist(err) {
		t.Fatal("export file not created")
	}

	h2, a2, _ := testSetup(t)
	importResult, err := h2.HandleNoteImportAll(ctx, makeRequest(map[string]any{"path": exportPath}))
	if err != nil {
		t.Fatalf("import handler returned error: %v", err)
	}
	parseOutput(t, importResult)

	found := false
	for _, n := range a2.Store().Notes() {
		if n.Title == "export-test" {
			found = true
		}
	}
	if !found {
		t.Error("imported note not found")
	}
}

func TestHandleImportAll_Malformed(t *testing.T) {
	h, a, _ := testSetup(t)
	ctx := context.Background()
	createNote(t, h, map[string]any{"title": "survivor"})

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"notes":[{"id":1}]}`), 0600); err != nil {
		t.Fatal(err)
	}

	result, _ := h.HandleNoteImportAll(ctx, makeRequest(map[string]any{"path": path}))
	assertErrorCode(t, result, "MALFORMED_IMPORT")
	if len(a.Store().Notes()) != 2 {
		t.Errorf("notes = %d, want 2 untouched", len(a.Store().Notes()))
	}

	result, _ = h.HandleNoteImportAll(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleImportAll_PathRestricted(t *testing.T) {
	h, _, _ := testSetup(t, func(c *config.Config) { c.AllowUnsafePaths = false })

	path := filepath.Join(t.TempDir(), "outside.json")
	if err := os.WriteFile(path, []byte(`{"notes":[],"folders":[]}`), 0600); err != nil {
		t.Fatal(err)
	}
	result, _ := h.HandleNoteImportAll(context.Background(), makeRequest(map[string]any{"path": path}))
	if !result.IsError {
		t.Fatal("expected import outside allowed paths to fail")
	}
}

func TestHandleFolders(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandleFolderCreate(ctx, makeRequest(map[string]any{"name": "Ideas"}))
	folderID := parseOutput(t, result)["id"].(string)

	result, _ = h.HandleFolderCreate(ctx, makeRequest(map[string]any{"name": "ideas"}))
	assertErrorCode(t, result, "CONFLICT")

	result, _ = h.HandleFolderCreate(ctx, makeRequest(map[string]any{"name": "  "}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleFolderRename(ctx, makeRequest(map[string]any{"id": folderID, "name": "Someday"}))
	if out := parseOutput(t, result); out["name"] != "Someday" {
		t.Errorf("name = %v, want Someday", out["name"])
	}

	createNote(t, h, map[string]any{"folder_id": folderID})

	result, _ = h.HandleFolderList(ctx, makeRequest(nil))
	if items := parseOutput(t, result)["items"].([]any); len(items) != 2 {
		t.Errorf("folders = %d, want 2", len(items))
	}

	result, _ = h.HandleFolderDelete(ctx, makeRequest(map[string]any{"id": folderID}))
	if out := parseOutput(t, result); out["moved_notes"] != float64(1) {
		t.Errorf("moved_notes = %v, want 1", out["moved_notes"])
	}

	result, _ = h.HandleFolderDelete(ctx, makeRequest(map[string]any{"id": "all"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleSummaryGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"- point one\n- point two"}]}}]}`)
	}))
	defer srv.Close()

	h, a, _ := testSetup(t, func(c *config.Config) { c.SummaryEndpoint = srv.URL })
	ctx := context.Background()
	id := createNote(t, h, map[string]any{"transcript": "we discussed the plan"})

	result, _ := h.HandleSummaryGenerate(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "MISSING_CREDENTIAL")

	settings := a.Settings()
	settings.APIKey = "test-key"
	if err := a.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	result, _ = h.HandleSummaryGenerate(ctx, makeRequest(map[string]any{"id": id}))
	out := parseOutput(t, result)
	if out["summary"] != "- point one\n- point two" {
		t.Errorf("summary = %q", out["summary"])
	}

	empty := createNote(t, h, map[string]any{})
	result, _ = h.HandleSummaryGenerate(ctx, makeRequest(map[string]any{"id": empty}))
	assertErrorCode(t, result, "EMPTY_TRANSCRIPT")
}

func TestHandle_CancelledContext(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.HandleNoteList(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "CANCELLED")
}

func TestServerRegistration(t *testing.T) {
	_, a, cfg := testSetup(t)

	s := NewServer(a, cfg, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"note_create",
		"note_get",
		"note_list",
		"note_update",
		"note_delete",
		"note_export",
		"note_export_all",
		"note_import_all",
		"folder_create",
		"folder_list",
		"folder_rename",
		"folder_delete",
		"summary_generate",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	_, a, cfg := testSetup(t)

	cfg.DisabledTools = []string{"note_delete", "note_import_all", "note_import_all"}
	tools := NewServer(a, cfg, "test").ListTools()

	if len(tools) != 11 {
		t.Errorf("registered tool count = %d, want 11", len(tools))
	}
	for _, name := range []string{"note_delete", "note_import_all"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	_, a, cfg := testSetup(t)

	cfg.DisabledTypes = []string{"folder", "summary"}
	tools := NewServer(a, cfg, "test").ListTools()

	if len(tools) != 8 {
		t.Errorf("registered tool count = %d, want 8", len(tools))
	}
	for name := range tools {
		if typ := GetTypeForTool(name); typ != "note" {
			t.Errorf("tool %q of type %q should be disabled", name, typ)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	_, a, cfg := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	if tools := NewServer(a, cfg, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabled(t *testing.T) {
	if unknown := ValidateDisabledTools([]string{"note_list", "fake_tool"}); len(unknown) != 1 || unknown[0] != "fake_tool" {
		t.Errorf("ValidateDisabledTools() = %v, want [fake_tool]", unknown)
	}
	if unknown := ValidateDisabledTools(AllToolNames()); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"note", "recording"}); len(unknown) != 1 || unknown[0] != "recording" {
		t.Errorf("ValidateDisabledTypes() = %v, want [recording]", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)

	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if strings.Contains(errObj["message"].(string), "secret.db") {
		t.Fatal("expected INTERNAL errors to hide the cause")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrappedErr := fmt.Errorf("import: %w", errors.NewMalformedImport("notes[2]: id is required"))

	r := errorResult(wrappedErr)
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)

	if errObj["code"] != string(errors.ErrMalformedImport) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrMalformedImport)
	}
	if msg := errObj["message"].(string); msg != "import: notes[2]: id is required" {
		t.Errorf("message = %q", msg)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewNotFound("note", "abc"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error %s, got success: %s", expectedCode, extractErrorMessage(result))
		return
	}
	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}

func TestDecode_TypeMismatchNamesArgument(t *testing.T) {
	_, err := decode[NoteListRequest](makeRequest(map[string]any{"limit": "ten"}))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `argument "limit"`) {
		t.Errorf("error = %q, want argument name", err.Error())
	}

	got, err := decode[NoteListRequest](makeRequest(nil))
	if err != nil {
		t.Fatalf("empty arguments: %v", err)
	}
	if got.Limit != 0 {
		t.Errorf("Limit = %d, want 0", got.Limit)
	}
}
