package app

import (
	"context"
	"time"

	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/session"
	"github.com/hpungsan/voxnote/internal/store"
	"github.com/hpungsan/voxnote/internal/transcript"
)

// View is a consistent snapshot of everything a surface renders.
type View struct {
	State       session.State
	Status      string
	Active      *note.Note
	Segments    []transcript.Segment
	Interim     string
	Speaker     int
	Notes       []*note.Note
	Folders     []note.Folder
	Tags        []string
	Filter      store.Filter
	CanUndo     bool
	CanRedo     bool
	PostActions bool
	Summarizing bool
	CanRecord   bool
	Unsupported string
	Level       float64
	Elapsed     time.Duration
	Settings    note.Settings
}

// View returns a snapshot taken on the app goroutine. The active note carries
// the live transcript.
func (a *App) View(ctx context.Context) (View, error) {
	var v View
	err := a.read(ctx, func() error {
		active := a.store.Active()
		active.Transcript = a.acc.Markup()
		v = View{
			State:       a.ctrl.State(),
			Status:      a.status,
			Active:      active,
			Segments:    a.acc.Segments(),
			Interim:     a.acc.Interim(),
			Speaker:     a.ctrl.Speaker(),
			Notes:       a.store.Filter(a.filter),
			Folders:     a.store.Folders(),
			Tags:        a.store.AllTags(),
			Filter:      a.filter,
			CanUndo:     a.acc.CanUndo(),
			CanRedo:     a.acc.CanRedo(),
			PostActions: a.postActions,
			Summarizing: a.summarizing,
			CanRecord:   a.capErr == nil,
			Level:       a.ctrl.Level(),
			Elapsed:     a.ctrl.Elapsed(),
			Settings:    a.store.Settings(),
		}
		if a.capErr != nil {
			v.Unsupported = statusForError(a.capErr)
		}
		return nil
	})
	return v, err
}
