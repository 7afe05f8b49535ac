package web

import (
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/voxnote/internal/app"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/files"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/store"
	"github.com/hpungsan/voxnote/internal/transcript"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	app      *app.App
	renderer *Renderer
}

func (h *Handlers) page(title, nav string) PageData {
	return PageData{
		Title:   title,
		Version: h.renderer.version,
		Nav:     nav,
		Theme:   h.app.Settings().Theme,
	}
}

// HandleList handles GET /notes: list notes with search, folder and tag filters.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.Filter{
		Search:   strings.TrimSpace(q.Get("q")),
		FolderID: q.Get("folder"),
		Tag:      q.Get("tag"),
	}
	if filter.FolderID != "" && filter.FolderID != note.AllFolderID {
		if _, err := h.app.Store().Folder(filter.FolderID); err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
	}

	data := ListPageData{
		PageData: h.page("Notes", "notes"),
		Notes:    h.app.List(filter),
		Folders:  h.app.Folders(),
		Tags:     h.app.Store().AllTags(),
		Filter:   filter,
		Total:    len(h.app.Store().Notes()),
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"notes": data.Notes, "total": data.Total})
		return
	}

	// If htmx targets #results, render only the results fragment
	if r.Header.Get("HX-Target") == "results" {
		h.renderer.renderBlock(w, http.StatusOK, "list", "note-results", data)
		return
	}
	h.renderer.renderPage(w, r, "list", data)
}

// HandleDetail handles GET /notes/{id}: view a single note.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	n, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.renderDetail(w, r, n, r.URL.Query().Get("msg"))
}

func (h *Handlers) renderDetail(w http.ResponseWriter, r *http.Request, n *note.Note, msg string) {
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, n)
		return
	}

	folderName := note.AllFolderName
	if f, err := h.app.Store().Folder(n.FolderID); err == nil {
		folderName = f.Name
	}

	var summary template.HTML
	if n.Summary != "" {
		summary = h.renderer.renderMarkdown(transcript.PlainText(n.Summary))
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:    h.page(n.Title, "notes"),
		Note:        n,
		FolderName:  folderName,
		Segments:    transcript.ParseSegments(n.Transcript),
		PlainText:   transcript.PlainText(n.Transcript),
		SummaryHTML: summary,
		HasAudio:    n.AudioReference != nil,
		CanSeek:     n.AudioReference != nil && h.app.CanPlay(),
		Message:     msg,
	})
}

// HandleDelete handles DELETE /notes/{id}: delete a note.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("note ID is required"))
		return
	}

	if _, err := h.app.DeleteNote(r.Context(), id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/notes")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"deleted": true,
			"id":      id,
		})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

// HandleExportNote handles GET /notes/{id}/export: download a single note.
func (h *Handlers) HandleExportNote(w http.ResponseWriter, r *http.Request) {
	body, name, format, err := h.app.RenderNote(r.PathValue("id"), r.URL.Query().Get("format"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", attachment(name))
	_, _ = w.Write(body)
}

// HandleSummarize handles POST /notes/{id}/summarize: request a summary and wait for it.
func (h *Handlers) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, err := h.app.SummarizeWait(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"id": n.ID, "summary": n.Summary})
		return
	}
	http.Redirect(w, r, "/notes/"+id, http.StatusSeeOther)
}

// HandlePlay handles POST /notes/{id}/play: play retained audio from a segment.
func (h *Handlers) HandlePlay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	segment, err := strconv.Atoi(r.FormValue("segment"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("segment must be an integer"))
		return
	}
	if _, err := h.app.LoadNote(r.Context(), id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if err := h.app.SeekSegment(r.Context(), segment); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"playing": true, "segment": segment})
		return
	}
	http.Redirect(w, r, "/notes/"+id, http.StatusSeeOther)
}

// HandleCreateFolder handles POST /folders: add a folder.
func (h *Handlers) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	f, err := h.app.CreateFolder(r.Context(), r.FormValue("name"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusCreated, f)
		return
	}
	http.Redirect(w, r, "/notes?folder="+f.ID, http.StatusSeeOther)
}

// HandleDeleteFolder handles DELETE /folders/{id}: remove a folder, keeping its notes.
func (h *Handlers) HandleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	moved, err := h.app.DeleteFolder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/notes")
		w.WriteHeader(http.StatusOK)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"deleted": true, "moved_notes": moved})
		return
	}
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

// HandleTransfer handles GET /transfer: the bulk export/import page.
func (h *Handlers) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "transfer", TransferPageData{
		PageData: h.page("Export / Import", "transfer"),
		Notes:    len(h.app.Store().Notes()),
		Folders:  len(h.app.Folders()),
		Message:  r.URL.Query().Get("msg"),
	})
}

// HandleExportAll handles GET /export: download every note and folder as JSON.
func (h *Handlers) HandleExportAll(w http.ResponseWriter, r *http.Request) {
	data, err := h.app.ExportAllBytes(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", attachment(store.DefaultExportName(time.Now())))
	_, _ = w.Write(data)
}

// HandleImport handles POST /import: replace every note and folder with an
// uploaded export. Accepts a multipart "file" field or a raw JSON body.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, files.MaxReadSize)

	var data []byte
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("file is required"))
			return
		}
		defer file.Close()
		data, err = io.ReadAll(file)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest(fmt.Sprintf("read upload: %v", err)))
		return
	}

	out, err := h.app.ImportAllBytes(r.Context(), data)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	msg := fmt.Sprintf("Imported %d notes and %d folders.", out.Notes, out.Folders)
	http.Redirect(w, r, "/transfer?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*note.Note, bool) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("note ID is required"))
		return nil, false
	}
	n, err := h.app.Note(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return nil, false
	}
	return n, true
}

// attachment builds a Content-Disposition value for a download.
func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
