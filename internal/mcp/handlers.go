package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/voxnote/internal/app"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/store"
	"github.com/hpungsan/voxnote/internal/transcript"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	excerptLen       = 160
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	app *app.App
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(a *app.App) *Handlers {
	return &Handlers{app: a}
}

// Request types for each tool

// NoteCreateRequest represents the arguments for note_create.
type NoteCreateRequest struct {
	FolderID   string   `json:"folder_id,omitempty"`
	Title      *string  `json:"title,omitempty"`
	Transcript *string  `json:"transcript,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// NoteGetRequest represents the arguments for note_get.
type NoteGetRequest struct {
	ID            string `json:"id"`
	IncludeMarkup bool   `json:"include_markup,omitempty"`
}

// NoteListRequest represents the arguments for note_list.
type NoteListRequest struct {
	Query    string `json:"query,omitempty"`
	FolderID string `json:"folder_id,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// NoteUpdateRequest represents the arguments for note_update.
type NoteUpdateRequest struct {
	ID         string    `json:"id"`
	Title      *string   `json:"title,omitempty"`
	Transcript *string   `json:"transcript,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	FolderID   *string   `json:"folder_id,omitempty"`
}

// IDRequest represents tools addressed by a single ID.
type IDRequest struct {
	ID string `json:"id"`
}

// NoteExportRequest represents the arguments for note_export.
type NoteExportRequest struct {
	ID     string `json:"id"`
	Format string `json:"format,omitempty"`
	Path   string `json:"path,omitempty"`
}

// PathRequest represents the arguments for note_export_all and note_import_all.
type PathRequest struct {
	Path string `json:"path,omitempty"`
}

// FolderRequest represents the arguments for folder_create and folder_rename.
type FolderRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Output types

// NoteOutput is a note with its markup flattened to plain text.
type NoteOutput struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	FolderID       string    `json:"folder_id"`
	Tags           []string  `json:"tags"`
	Transcript     string    `json:"transcript"`
	Summary        string    `json:"summary,omitempty"`
	Segments       int       `json:"segments"`
	AudioReference *string   `json:"audio_reference,omitempty"`
	LastModified   int64     `json:"last_modified"`
	Markup         string    `json:"markup,omitempty"`
	SegmentList    []segment `json:"segment_list,omitempty"`
}

type segment struct {
	TimestampMS int64  `json:"timestamp_ms"`
	Speaker     int    `json:"speaker,omitempty"`
	Text        string `json:"text"`
}

// NoteSummary is the list form of a note.
type NoteSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	FolderID     string   `json:"folder_id"`
	Tags         []string `json:"tags"`
	Excerpt      string   `json:"excerpt"`
	LastModified int64    `json:"last_modified"`
}

// NoteListOutput is the result of note_list.
type NoteListOutput struct {
	Items      []NoteSummary `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// Pagination describes a page of results.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

func toOutput(n *note.Note, withMarkup bool) NoteOutput {
	segs := transcript.ParseSegments(n.Transcript)
	out := NoteOutput{
		ID:             n.ID,
		Title:          n.Title,
		FolderID:       n.FolderID,
		Tags:           n.Tags,
		Transcript:     transcript.PlainText(n.Transcript),
		Summary:        transcript.PlainText(n.Summary),
		Segments:       len(segs),
		AudioReference: n.AudioReference,
		LastModified:   n.LastModified,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if withMarkup {
		out.Markup = n.Transcript
		for _, s := range segs {
			out.SegmentList = append(out.SegmentList, segment{TimestampMS: s.TimestampMS, Speaker: s.Speaker, Text: s.Text})
		}
	}
	return out
}

func toSummary(n *note.Note) NoteSummary {
	text := transcript.PlainText(n.Transcript)
	if r := []rune(text); len(r) > excerptLen {
		text = strings.TrimSpace(string(r[:excerptLen])) + "…"
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteSummary{
		ID:           n.ID,
		Title:        n.Title,
		FolderID:     n.FolderID,
		Tags:         tags,
		Excerpt:      text,
		LastModified: n.LastModified,
	}
}

// Handler implementations

// HandleNoteCreate handles the note_create tool call.
func (h *Handlers) HandleNoteCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	n, err := h.app.NewNote(ctx, input.FolderID)
	if err != nil {
		return errorResult(err), nil
	}

	var patch store.NotePatch
	if input.Title != nil {
		patch.Title = input.Title
	}
	if input.Transcript != nil {
		markup := transcript.FromPlainText(*input.Transcript)
		patch.Transcript = &markup
	}
	if len(input.Tags) > 0 {
		patch.Tags = &input.Tags
	}
	if patch != (store.NotePatch{}) {
		if n, err = h.app.UpdateNote(ctx, n.ID, patch); err != nil {
			return errorResult(err), nil
		}
	}

	return successResult(toOutput(n, false))
}

// HandleNoteGet handles the note_get tool call.
func (h *Handlers) HandleNoteGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}
	if err := ctx.Err(); err != nil {
		return errorResult(err), nil
	}

	n, err := h.app.Note(input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(toOutput(n, input.IncludeMarkup))
}

// HandleNoteList handles the note_list tool call.
func (h *Handlers) HandleNoteList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := ctx.Err(); err != nil {
		return errorResult(err), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset := max(input.Offset, 0)

	if input.FolderID != "" && input.FolderID != note.AllFolderID {
		if _, err := h.app.Store().Folder(input.FolderID); err != nil {
			return errorResult(err), nil
		}
	}

	notes := h.app.List(store.Filter{
		Search:   strings.TrimSpace(input.Query),
		FolderID: input.FolderID,
		Tag:      input.Tag,
	})

	out := NoteListOutput{
		Items: []NoteSummary{},
		Pagination: Pagination{
			Limit:  limit,
			Offset: offset,
			Total:  len(notes),
		},
	}
	if offset < len(notes) {
		end := min(offset+limit, len(notes))
		for _, n := range notes[offset:end] {
			out.Items = append(out.Items, toSummary(n))
		}
		out.Pagination.HasMore = end < len(notes)
	}
	return successResult(out)
}

// HandleNoteUpdate handles the note_update tool call.
func (h *Handlers) HandleNoteUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	patch := store.NotePatch{
		Title:    input.Title,
		Tags:     input.Tags,
		FolderID: input.FolderID,
	}
	if input.Transcript != nil {
		markup := transcript.FromPlainText(*input.Transcript)
		patch.Transcript = &markup
	}
	if patch == (store.NotePatch{}) {
		return errorResult(errors.NewInvalidRequest("at least one of title, transcript, tags or folder_id is required")), nil
	}

	n, err := h.app.UpdateNote(ctx, input.ID, patch)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(toOutput(n, false))
}

// HandleNoteDelete handles the note_delete tool call.
func (h *Handlers) HandleNoteDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if _, err := h.app.DeleteNote(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": true, "id": input.ID})
}

// HandleNoteExport handles the note_export tool call.
func (h *Handlers) HandleNoteExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}
	format := input.Format
	if format == "" {
		format = "md"
	}

	result, err := h.app.ExportNote(ctx, input.ID, format, input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleNoteExportAll handles the note_export_all tool call.
func (h *Handlers) HandleNoteExportAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.app.ExportAll(ctx, input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleNoteImportAll handles the note_import_all tool call.
func (h *Handlers) HandleNoteImportAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Path == "" {
		return errorResult(errors.NewInvalidRequest("path is required")), nil
	}

	result, err := h.app.ImportAll(ctx, input.Path)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFolderCreate handles the folder_create tool call.
func (h *Handlers) HandleFolderCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FolderRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	f, err := h.app.CreateFolder(ctx, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(f)
}

// HandleFolderList handles the folder_list tool call.
func (h *Handlers) HandleFolderList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := ctx.Err(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"items": h.app.Folders()})
}

// HandleFolderRename handles the folder_rename tool call.
func (h *Handlers) HandleFolderRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FolderRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	f, err := h.app.RenameFolder(ctx, input.ID, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(f)
}

// HandleFolderDelete handles the folder_delete tool call.
func (h *Handlers) HandleFolderDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	moved, err := h.app.DeleteFolder(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": true, "id": input.ID, "moved_notes": moved})
}

// HandleSummaryGenerate handles the summary_generate tool call. It blocks
// until the summarization request finishes.
func (h *Handlers) HandleSummaryGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	n, err := h.app.SummarizeWait(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"id": n.ID, "summary": transcript.PlainText(n.Summary)})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if vErr, ok := errors.As(err); ok {
		message := vErr.Message
		// Keep wrapper context such as "import: ..." from fmt.Errorf chains
		if err != error(vErr) && vErr.Code != errors.ErrInternal {
			message = strings.Replace(err.Error(), vErr.Error(), vErr.Message, 1)
		}
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": message,
			"status":  vErr.Status,
		}
		if vErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else if err == context.Canceled || err == context.DeadlineExceeded {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "CANCELLED",
				"message": err.Error(),
				"status":  499,
			},
		}
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

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
