package app

import (
	"context"

	"github.com/hpungsan/voxnote/internal/note"
)

// CreateFolder adds a folder.
func (a *App) CreateFolder(ctx context.Context, name string) (note.Folder, error) {
	var out note.Folder
	err := a.do(ctx, func() error {
		f, err := a.store.CreateFolder(name)
		if err != nil {
			return err
		}
		a.touch()
		out = f
		return nil
	})
	return out, err
}

// RenameFolder renames a folder.
func (a *App) RenameFolder(ctx context.Context, id, name string) (note.Folder, error) {
	var out note.Folder
	err := a.do(ctx, func() error {
		f, err := a.store.RenameFolder(id, name)
		if err != nil {
			return err
		}
		a.touch()
		out = f
		return nil
	})
	return out, err
}

// DeleteFolder removes a folder; its notes move to the all-notes folder.
// A filter on the deleted folder is reset.
func (a *App) DeleteFolder(ctx context.Context, id string) (int, error) {
	var moved int
	err := a.do(ctx, func() error {
		n, err := a.store.DeleteFolder(id)
		if err != nil {
			return err
		}
		if a.filter.FolderID == id {
			a.filter.FolderID = note.AllFolderID
		}
		a.touch()
		moved = n
		return nil
	})
	return moved, err
}

// Folders lists all folders, the all-notes folder first.
func (a *App) Folders() []note.Folder {
	return a.store.Folders()
}
