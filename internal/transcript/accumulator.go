// Package transcript accumulates recognized speech into a note's transcript markup
// and keeps its undo/redo history.
package transcript

import (
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/history"
)

// Accumulator owns the transcript of the active note.
// While recording it is append-only; manual edits are accepted only outside recording.
type Accumulator struct {
	markup    string
	interim   string
	recording bool
	appended  int
	history   *history.Buffer[string]
}

// NewAccumulator returns an accumulator holding markup with fresh history.
func NewAccumulator(markup string) *Accumulator {
	return &Accumulator{
		markup:  markup,
		history: history.New(markup, 0),
	}
}

// Load replaces the transcript with a loaded note's markup and re-seeds history.
func (a *Accumulator) Load(markup string) {
	a.markup = markup
	a.interim = ""
	a.appended = 0
	a.history.Reset(markup)
}

// Markup returns the serialized transcript.
func (a *Accumulator) Markup() string { return a.markup }

// Interim returns the provisional text of the current utterance. It is never persisted.
func (a *Accumulator) Interim() string { return a.interim }

// SetInterim overwrites the provisional text.
func (a *Accumulator) SetInterim(text string) { a.interim = text }

// Recording reports whether a session is appending to this transcript.
func (a *Accumulator) Recording() bool { return a.recording }

// BeginRecording switches to append-only mode and clears interim text.
func (a *Accumulator) BeginRecording() {
	a.recording = true
	a.interim = ""
	a.appended = 0
}

// EndRecording leaves append-only mode. Interim text is discarded.
func (a *Accumulator) EndRecording() {
	a.recording = false
	a.interim = ""
}

// Appended returns the number of segments appended since BeginRecording.
func (a *Accumulator) Appended() int { return a.appended }

// Append adds a finalized segment to the end of the transcript and records a snapshot.
func (a *Accumulator) Append(s Segment) {
	a.markup += Render(s)
	a.interim = ""
	a.appended++
	a.history.Push(a.markup)
}

// SetMarkup replaces the transcript with a manual edit.
func (a *Accumulator) SetMarkup(markup string) error {
	if a.recording {
		return errors.NewInvalidRequest("transcript cannot be edited while recording")
	}
	if markup == a.markup {
		return nil
	}
	a.markup = markup
	a.history.Push(markup)
	return nil
}

// Clear empties the transcript as an undoable edit.
func (a *Accumulator) Clear() error {
	return a.SetMarkup("")
}

// Undo restores the previous snapshot. It is a no-op at the oldest snapshot and while recording.
func (a *Accumulator) Undo() bool {
	if a.recording {
		return false
	}
	m, ok := a.history.Undo()
	if ok {
		a.markup = m
	}
	return ok
}

// Redo re-applies the next snapshot. It is a no-op at the newest snapshot and while recording.
func (a *Accumulator) Redo() bool {
	if a.recording {
		return false
	}
	m, ok := a.history.Redo()
	if ok {
		a.markup = m
	}
	return ok
}

// CanUndo reports whether Undo would change the transcript.
func (a *Accumulator) CanUndo() bool { return !a.recording && a.history.CanUndo() }

// CanRedo reports whether Redo would change the transcript.
func (a *Accumulator) CanRedo() bool { return !a.recording && a.history.CanRedo() }

// Segments parses the current markup into segments for seek lists.
func (a *Accumulator) Segments() []Segment { return ParseSegments(a.markup) }

// PlainText returns the visible text of the transcript.
func (a *Accumulator) PlainText() string { return PlainText(a.markup) }
