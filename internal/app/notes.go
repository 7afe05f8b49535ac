package app

import (
	"context"

	"github.com/hpungsan/voxnote/internal/db"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/store"
	"github.com/hpungsan/voxnote/internal/transcript"
)

// stopForSwitch ends a running session before the active note changes.
func (a *App) stopForSwitch() {
	if a.ctrl.State().Active() {
		a.ctrl.Stop()
	}
}

func (a *App) activate(n *note.Note) {
	a.acc.Load(n.Transcript)
	a.postActions = false
	a.status = "Note loaded."
}

// NewNote creates a note and makes it active. An empty folderID uses the
// folder currently filtered on.
func (a *App) NewNote(ctx context.Context, folderID string) (*note.Note, error) {
	var out *note.Note
	err := a.do(ctx, func() error {
		a.stopForSwitch()
		if folderID == "" {
			folderID = a.filter.FolderID
		}
		n, err := a.store.CreateNote(folderID)
		if err != nil {
			return err
		}
		a.activate(n)
		a.status = "New note created."
		a.touch()
		out = n
		return nil
	})
	return out, err
}

// LoadNote makes the note with id active.
func (a *App) LoadNote(ctx context.Context, id string) (*note.Note, error) {
	var out *note.Note
	err := a.do(ctx, func() error {
		if id == a.store.ActiveID() {
			out = a.store.Active()
			return nil
		}
		a.stopForSwitch()
		n, err := a.store.SetActive(id)
		if err != nil {
			return err
		}
		a.activate(n)
		out = n
		return nil
	})
	return out, err
}

// Note returns a note by id.
func (a *App) Note(id string) (*note.Note, error) {
	return a.store.Note(id)
}

// UpdateNote applies a field patch. Transcript edits of the active note go
// through the undo history and are rejected while it is being recorded.
func (a *App) UpdateNote(ctx context.Context, id string, patch store.NotePatch) (*note.Note, error) {
	var out *note.Note
	err := a.do(ctx, func() error {
		if patch.Transcript != nil && a.ctrl.State().Active() && (id == a.recordNoteID || id == a.store.ActiveID()) {
			return errBusyRecording()
		}
		// The store validates the whole patch; history only moves once it is accepted.
		prev := a.acc.Markup()
		n, err := a.store.UpdateNote(id, patch)
		if err != nil {
			return err
		}
		if patch.Transcript != nil && id == a.store.ActiveID() {
			if err := a.acc.SetMarkup(*patch.Transcript); err != nil {
				_, _ = a.store.UpdateNote(id, store.NotePatch{Transcript: &prev})
				return err
			}
		}
		a.touch()
		out = n
		return nil
	})
	return out, err
}

// EditTitle renames the active note.
func (a *App) EditTitle(ctx context.Context, title string) error {
	_, err := a.UpdateNote(ctx, a.store.ActiveID(), store.NotePatch{Title: &title})
	return err
}

// EditTranscript replaces the active note's transcript with plain text.
func (a *App) EditTranscript(ctx context.Context, text string) error {
	markup := transcript.FromPlainText(text)
	_, err := a.UpdateNote(ctx, a.store.ActiveID(), store.NotePatch{Transcript: &markup})
	return err
}

// DeleteNote removes a note and returns the active note afterwards.
func (a *App) DeleteNote(ctx context.Context, id string) (*note.Note, error) {
	var out *note.Note
	err := a.do(ctx, func() error {
		wasActive := id == a.store.ActiveID()
		if wasActive || id == a.recordNoteID {
			a.stopForSwitch()
		}
		active, err := a.store.DeleteNote(id)
		if err != nil {
			return err
		}
		if wasActive {
			a.activate(active)
		}
		if err := db.DeleteRecordingsForNote(ctx, a.db, id); err != nil {
			a.logger.Warn("recording log not pruned", "note_id", id, "error", err)
		}
		a.status = "Note deleted."
		a.touch()
		out = active
		return nil
	})
	return out, err
}

// DeleteAllNotes removes every note, leaving one fresh active note.
func (a *App) DeleteAllNotes(ctx context.Context) (*note.Note, error) {
	var out *note.Note
	err := a.do(ctx, func() error {
		a.stopForSwitch()
		out = a.store.DeleteAllNotes()
		a.activate(out)
		a.status = "All notes deleted."
		return a.saveNow()
	})
	return out, err
}

// Undo steps the active transcript back one snapshot.
func (a *App) Undo(ctx context.Context) error {
	return a.do(ctx, func() error {
		if a.acc.Undo() {
			a.transcriptChanged()
		}
		return nil
	})
}

// Redo re-applies the next transcript snapshot.
func (a *App) Redo(ctx context.Context) error {
	return a.do(ctx, func() error {
		if a.acc.Redo() {
			a.transcriptChanged()
		}
		return nil
	})
}

// AddTag tags a note.
func (a *App) AddTag(ctx context.Context, id, tag string) (*note.Note, error) {
	var out *note.Note
	err := a.do(ctx, func() error {
		n, err := a.store.AddTag(id, tag)
		if err != nil {
			return err
		}
		a.touch()
		out = n
		return nil
	})
	return out, err
}

// RemoveTag untags a note.
func (a *App) RemoveTag(ctx context.Context, id, tag string) (*note.Note, error) {
	var out *note.Note
	err := a.do(ctx, func() error {
		n, err := a.store.RemoveTag(id, tag)
		if err != nil {
			return err
		}
		a.touch()
		out = n
		return nil
	})
	return out, err
}

// MoveNote puts a note in another folder.
func (a *App) MoveNote(ctx context.Context, id, folderID string) (*note.Note, error) {
	return a.UpdateNote(ctx, id, store.NotePatch{FolderID: &folderID})
}

// SetFilter replaces the list filter.
func (a *App) SetFilter(ctx context.Context, f store.Filter) error {
	return a.do(ctx, func() error {
		a.filter = f
		return nil
	})
}

// SwitchFolder filters the list to one folder ("all" for every folder).
func (a *App) SwitchFolder(ctx context.Context, folderID string) error {
	return a.do(ctx, func() error {
		if folderID != "" && folderID != note.AllFolderID {
			if _, err := a.store.Folder(folderID); err != nil {
				return err
			}
		}
		a.filter.FolderID = folderID
		return nil
	})
}

// SwitchTag filters the list to one tag ("" for any).
func (a *App) SwitchTag(ctx context.Context, tag string) error {
	return a.do(ctx, func() error {
		a.filter.Tag = tag
		return nil
	})
}

// Search filters the list by title or transcript text.
func (a *App) Search(ctx context.Context, query string) error {
	return a.do(ctx, func() error {
		a.filter.Search = query
		return nil
	})
}

// List returns the notes matching f.
func (a *App) List(f store.Filter) []*note.Note {
	return a.store.Filter(f)
}
