package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hpungsan/voxnote/internal/export"
	"github.com/hpungsan/voxnote/internal/files"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/store"
)

// ExportNoteOutput describes a written single-note export.
type ExportNoteOutput struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Bytes  int    `json:"bytes"`
}

// RenderNote returns the export body and download name of note id.
func (a *App) RenderNote(id, format string) ([]byte, string, export.Format, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, "", "", err
	}
	n, err := a.store.Note(id)
	if err != nil {
		return nil, "", "", err
	}
	body, err := export.Render(n, f)
	if err != nil {
		return nil, "", "", err
	}
	return body, export.Filename(n, f), f, nil
}

// ExportNote writes note id to path, or to the exports directory when path is empty.
func (a *App) ExportNote(ctx context.Context, id, format, path string) (*ExportNoteOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, name, f, err := a.RenderNote(id, format)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(a.policy().ExportsDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, err
		}
	}
	if err := a.policy().ValidatePath(path, files.CheckWrite, "."+string(f)); err != nil {
		return nil, err
	}
	if err := files.WriteAtomic(path, body); err != nil {
		return nil, err
	}
	a.logger.Info("note exported", "note_id", id, "format", f, "path", path)
	return &ExportNoteOutput{Path: path, Format: string(f), Bytes: len(body)}, nil
}

// TransferOutput describes a bulk export or import.
type TransferOutput struct {
	Path    string `json:"path,omitempty"`
	Notes   int    `json:"notes"`
	Folders int    `json:"folders"`
}

// ExportAllBytes returns the bulk export document for the in-memory state,
// including edits not yet flushed.
func (a *App) ExportAllBytes(ctx context.Context) ([]byte, error) {
	var data []byte
	err := a.read(ctx, func() error {
		var err error
		data, err = a.store.ExportAll()
		return err
	})
	return data, err
}

// ExportAll writes every note and folder to path, or to a timestamped file in
// the exports directory when path is empty.
func (a *App) ExportAll(ctx context.Context, path string) (*TransferOutput, error) {
	data, err := a.ExportAllBytes(ctx)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(a.policy().ExportsDir, store.DefaultExportName(a.clock.Now()))
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, err
		}
	}
	if err := a.policy().ValidatePath(path, files.CheckWrite, ".json"); err != nil {
		return nil, err
	}
	if err := files.WriteAtomic(path, data); err != nil {
		return nil, err
	}
	out := &TransferOutput{Path: path, Notes: len(a.store.Notes()), Folders: len(a.store.Folders())}
	a.logger.Info("notes exported", "path", path, "notes", out.Notes, "folders", out.Folders)
	return out, nil
}

// ImportAll replaces every note and folder with the document at path.
func (a *App) ImportAll(ctx context.Context, path string) (*TransferOutput, error) {
	if err := a.policy().ValidatePath(path, files.CheckRead, ".json"); err != nil {
		return nil, err
	}
	data, err := files.ReadLimited(path)
	if err != nil {
		return nil, err
	}
	out, err := a.ImportAllBytes(ctx, data)
	if err != nil {
		return nil, err
	}
	out.Path = path
	return out, nil
}

// ImportAllBytes replaces every note and folder with the given document.
// Malformed input leaves the existing data untouched.
func (a *App) ImportAllBytes(ctx context.Context, data []byte) (*TransferOutput, error) {
	doc, err := store.ParseExport(data)
	if err != nil {
		return nil, err
	}
	var out *TransferOutput
	err = a.do(ctx, func() error {
		a.stopForSwitch()
		res, err := a.store.ImportDocument(ctx, doc)
		if err != nil {
			return err
		}
		// Both slots now hold the imported state.
		a.saver.Cancel()
		a.recordNoteID = ""
		a.filter = store.Filter{}
		a.activate(a.store.Active())
		a.status = "Import complete."
		out = &TransferOutput{Notes: res.Notes, Folders: res.Folders}
		a.logger.Info("notes imported", "notes", res.Notes, "folders", res.Folders)
		return nil
	})
	return out, err
}

// Active returns the active note with the live transcript.
func (a *App) Active(ctx context.Context) (*note.Note, error) {
	var out *note.Note
	err := a.read(ctx, func() error {
		out = a.store.Active()
		out.Transcript = a.acc.Markup()
		return nil
	})
	return out, err
}
