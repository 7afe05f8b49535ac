// Package tui is the interactive terminal front end for recording and
// editing notes.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hpungsan/voxnote/internal/app"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/transcript"
)

// Backend is the subset of *app.App the TUI drives.
type Backend interface {
	View(ctx context.Context) (app.View, error)
	ToggleRecording(ctx context.Context) error
	NewNote(ctx context.Context, folderID string) (*note.Note, error)
	LoadNote(ctx context.Context, id string) (*note.Note, error)
	DeleteNote(ctx context.Context, id string) (*note.Note, error)
	EditTitle(ctx context.Context, title string) error
	EditTranscript(ctx context.Context, text string) error
	Undo(ctx context.Context) error
	Redo(ctx context.Context) error
	AddTag(ctx context.Context, id, tag string) (*note.Note, error)
	MoveNote(ctx context.Context, id, folderID string) (*note.Note, error)
	Search(ctx context.Context, query string) error
	SwitchFolder(ctx context.Context, folderID string) error
	SwitchTag(ctx context.Context, tag string) error
	CreateFolder(ctx context.Context, name string) (note.Folder, error)
	Summarize(ctx context.Context, id string) (<-chan app.SummaryResult, error)
	ExportNote(ctx context.Context, id, format, path string) (*app.ExportNoteOutput, error)
	ExportAll(ctx context.Context, path string) (*app.TransferOutput, error)
	Discard(ctx context.Context) error
	SeekSegment(ctx context.Context, i int) error
	ToggleTheme(ctx context.Context) (string, error)
}

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusNotes PanelFocus = iota
	FocusTranscript
)

type mode int

const (
	modeNormal mode = iota
	modeInput
	modeEdit
	modeConfirmDelete
)

type inputKind int

const (
	inputSearch inputKind = iota
	inputTitle
	inputTag
	inputFolder
)

const tickInterval = 200 * time.Millisecond

// Model is the root bubbletea model.
type Model struct {
	backend Backend
	ctx     context.Context
	st      styles

	view   app.View
	loaded bool

	width  int
	height int

	focus    PanelFocus
	selected int
	segment  int

	mode      mode
	inputKind inputKind
	input     textinput.Model
	editor    textarea.Model
	viewport  viewport.Model
	spinner   spinner.Model

	notice    string
	isError   bool
	noticeSeq int
	ticking   bool
}

// New returns a model bound to b. ctx bounds every backend call.
func New(ctx context.Context, b Backend) Model {
	ti := textinput.New()
	ti.CharLimit = 200

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(10)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		backend:  b,
		ctx:      ctx,
		st:       newStyles(note.DefaultSettings()),
		focus:    FocusNotes,
		input:    ti,
		editor:   ta,
		viewport: viewport.New(60, 20),
		spinner:  sp,
	}
}

// Init fetches the first snapshot.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.spinner.Tick)
}

func (m Model) refresh() tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		v, err := b.View(ctx)
		if err != nil {
			return errMsg{err}
		}
		return ViewMsg{View: v}
	}
}

// do runs an intent and refreshes on success.
func (m Model) do(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return errMsg{err}
		}
		return refreshMsg{}
	}
}

func (m Model) summarize(id string) tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		ch, err := b.Summarize(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		select {
		case res := <-ch:
			return summaryMsg{result: res}
		case <-ctx.Done():
			return errMsg{ctx.Err()}
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) setNotice(text string, isErr bool) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	m.isError = isErr
	seq := m.noticeSeq
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch m.mode {
		case modeInput:
			return m.handleInputKey(msg)
		case modeEdit:
			return m.handleEditKey(msg)
		case modeConfirmDelete:
			return m.handleConfirmKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.transcriptWidth()
		m.viewport.Height = m.mainHeight() - 1
		m.editor.SetWidth(max(20, msg.Width-4))
		m.renderTranscript()
		return m, nil

	case ViewMsg:
		return m.applyView(msg.View)

	case refreshMsg:
		return m, m.refresh()

	case tickMsg:
		if !m.view.State.Active() {
			m.ticking = false
			return m, nil
		}
		return m, tea.Batch(m.refresh(), tick())

	case errMsg:
		return m, tea.Batch(m.setNotice(msg.err.Error(), true), m.refresh())

	case noticeMsg:
		return m, m.setNotice(msg.text, false)

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
			m.isError = false
		}
		return m, nil

	case summaryMsg:
		if msg.result.Err != nil {
			return m, tea.Batch(m.setNotice(msg.result.Err.Error(), true), m.refresh())
		}
		return m, m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) applyView(v app.View) (tea.Model, tea.Cmd) {
	prevTheme := m.view.Settings
	first := !m.loaded
	m.view = v
	m.loaded = true
	if first || prevTheme.Theme != v.Settings.Theme || prevTheme.CustomColors != v.Settings.CustomColors {
		m.st = newStyles(v.Settings)
	}
	if m.selected >= len(v.Notes) {
		m.selected = max(0, len(v.Notes)-1)
	}
	if m.segment >= len(v.Segments) {
		m.segment = max(0, len(v.Segments)-1)
	}
	m.renderTranscript()

	var cmd tea.Cmd
	if v.State.Active() && !m.ticking {
		m.ticking = true
		cmd = tick()
	}
	return m, cmd
}

type intentHandler func(m Model) (tea.Model, tea.Cmd)

// intentHandlers is the dispatch table from UI intents to backend calls.
var intentHandlers = map[Intent]intentHandler{
	IntentQuit:           func(m Model) (tea.Model, tea.Cmd) { return m, tea.Quit },
	IntentToggleRecord:   Model.toggleRecording,
	IntentSwitchFocus:    Model.switchFocus,
	IntentDown:           func(m Model) (tea.Model, tea.Cmd) { return m.move(1) },
	IntentUp:             func(m Model) (tea.Model, tea.Cmd) { return m.move(-1) },
	IntentOpen:           Model.open,
	IntentNewNote:        Model.newNote,
	IntentDeleteNote:     Model.confirmDelete,
	IntentUndo:           func(m Model) (tea.Model, tea.Cmd) { return m, m.do(m.backend.Undo) },
	IntentRedo:           func(m Model) (tea.Model, tea.Cmd) { return m, m.do(m.backend.Redo) },
	IntentSearch:         func(m Model) (tea.Model, tea.Cmd) { return m.openInput(inputSearch, "Search", m.view.Filter.Search) },
	IntentEditTitle:      Model.editTitle,
	IntentAddTag:         func(m Model) (tea.Model, tea.Cmd) { return m.openInput(inputTag, "Add tag", "") },
	IntentNewFolder:      func(m Model) (tea.Model, tea.Cmd) { return m.openInput(inputFolder, "New folder", "") },
	IntentCycleFolder:    Model.cycleFolder,
	IntentMoveNote:       Model.moveNote,
	IntentCycleTag:       Model.cycleTag,
	IntentEditTranscript: Model.editTranscript,
	IntentSummarize:      Model.summarizeActive,
	IntentExportNote:     Model.exportNote,
	IntentExportAll:      Model.exportAll,
	IntentDiscard:        Model.discard,
	IntentToggleTheme:    Model.toggleTheme,
}

// handleKey processes key presses in normal mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if intent, ok := keyIntents[msg.String()]; ok {
		return intentHandlers[intent](m)
	}
	if m.focus == FocusTranscript {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// toggleRecording is disabled when the app reported a missing capability at startup.
func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	if m.view.Unsupported != "" {
		cmd := m.setNotice(m.view.Unsupported, true)
		return m, cmd
	}
	return m, m.do(m.backend.ToggleRecording)
}

func (m Model) switchFocus() (tea.Model, tea.Cmd) {
	if m.focus == FocusNotes {
		m.focus = FocusTranscript
	} else {
		m.focus = FocusNotes
	}
	m.renderTranscript()
	return m, nil
}

// move steps the note selection or the segment cursor, clamped to bounds.
func (m Model) move(delta int) (tea.Model, tea.Cmd) {
	if m.focus == FocusNotes {
		m.selected = clamp(m.selected+delta, 0, len(m.view.Notes)-1)
		return m, nil
	}
	next := clamp(m.segment+delta, 0, len(m.view.Segments)-1)
	if next != m.segment {
		m.segment = next
		m.renderTranscript()
	}
	return m, nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

func (m Model) open() (tea.Model, tea.Cmd) {
	b := m.backend
	if m.focus == FocusTranscript {
		i := m.segment
		return m, m.do(func(ctx context.Context) error { return b.SeekSegment(ctx, i) })
	}
	n := m.selectedNote()
	if n == nil {
		return m, nil
	}
	id := n.ID
	return m, m.do(func(ctx context.Context) error {
		_, err := b.LoadNote(ctx, id)
		return err
	})
}

func (m Model) newNote() (tea.Model, tea.Cmd) {
	b := m.backend
	return m, m.do(func(ctx context.Context) error {
		_, err := b.NewNote(ctx, "")
		return err
	})
}

func (m Model) confirmDelete() (tea.Model, tea.Cmd) {
	if m.selectedNote() != nil {
		m.mode = modeConfirmDelete
	}
	return m, nil
}

func (m Model) editTitle() (tea.Model, tea.Cmd) {
	if m.view.Active == nil {
		return m, nil
	}
	return m.openInput(inputTitle, "Title", m.view.Active.Title)
}

func (m Model) cycleFolder() (tea.Model, tea.Cmd) {
	id, b := m.nextFolder(), m.backend
	return m, m.do(func(ctx context.Context) error { return b.SwitchFolder(ctx, id) })
}

func (m Model) moveNote() (tea.Model, tea.Cmd) {
	n := m.selectedNote()
	if n == nil {
		return m, nil
	}
	noteID, folderID, b := n.ID, m.folderAfter(n.FolderID), m.backend
	return m, m.do(func(ctx context.Context) error {
		_, err := b.MoveNote(ctx, noteID, folderID)
		return err
	})
}

func (m Model) cycleTag() (tea.Model, tea.Cmd) {
	tag, b := m.nextTag(), m.backend
	return m, m.do(func(ctx context.Context) error { return b.SwitchTag(ctx, tag) })
}

func (m Model) editTranscript() (tea.Model, tea.Cmd) {
	if m.view.State.Active() || m.view.Active == nil {
		return m, nil
	}
	m.mode = modeEdit
	m.editor.SetValue(transcript.PlainText(m.view.Active.Transcript))
	return m, m.editor.Focus()
}

func (m Model) summarizeActive() (tea.Model, tea.Cmd) {
	if m.view.Active == nil {
		return m, nil
	}
	return m, m.summarize(m.view.Active.ID)
}

func (m Model) exportNote() (tea.Model, tea.Cmd) {
	if m.view.Active == nil {
		return m, nil
	}
	id, ctx, b := m.view.Active.ID, m.ctx, m.backend
	return m, func() tea.Msg {
		out, err := b.ExportNote(ctx, id, "md", "")
		if err != nil {
			return errMsg{err}
		}
		return noticeMsg{text: "Exported to " + out.Path}
	}
}

func (m Model) exportAll() (tea.Model, tea.Cmd) {
	ctx, b := m.ctx, m.backend
	return m, func() tea.Msg {
		out, err := b.ExportAll(ctx, "")
		if err != nil {
			return errMsg{err}
		}
		return noticeMsg{text: fmt.Sprintf("Exported %d notes to %s", out.Notes, out.Path)}
	}
}

func (m Model) discard() (tea.Model, tea.Cmd) {
	if !m.view.PostActions {
		return m, nil
	}
	return m, m.do(m.backend.Discard)
}

func (m Model) toggleTheme() (tea.Model, tea.Cmd) {
	b := m.backend
	return m, m.do(func(ctx context.Context) error {
		_, err := b.ToggleTheme(ctx)
		return err
	})
}

func (m Model) openInput(kind inputKind, prompt, value string) (tea.Model, tea.Cmd) {
	m.mode = modeInput
	m.inputKind = kind
	m.input.Prompt = prompt + ": "
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc:
		m.mode = modeNormal
		m.input.Blur()
		return m, nil
	case KeyEnter:
		m.mode = modeNormal
		m.input.Blur()
		return m, m.submitInput(strings.TrimSpace(m.input.Value()))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput(value string) tea.Cmd {
	b := m.backend
	switch m.inputKind {
	case inputSearch:
		return m.do(func(ctx context.Context) error { return b.Search(ctx, value) })
	case inputTitle:
		return m.do(func(ctx context.Context) error { return b.EditTitle(ctx, value) })
	case inputTag:
		if value == "" || m.view.Active == nil {
			return nil
		}
		id := m.view.Active.ID
		return m.do(func(ctx context.Context) error {
			_, err := b.AddTag(ctx, id, value)
			return err
		})
	case inputFolder:
		return m.do(func(ctx context.Context) error {
			_, err := b.CreateFolder(ctx, value)
			return err
		})
	}
	return nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc:
		m.mode = modeNormal
		m.editor.Blur()
		return m, nil
	case KeySave:
		m.mode = modeNormal
		m.editor.Blur()
		text := m.editor.Value()
		b := m.backend
		return m, m.do(func(ctx context.Context) error { return b.EditTranscript(ctx, text) })
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	if msg.String() != KeyConfirmYes {
		return m, nil
	}
	n := m.selectedNote()
	if n == nil {
		return m, nil
	}
	id, b := n.ID, m.backend
	return m, m.do(func(ctx context.Context) error {
		_, err := b.DeleteNote(ctx, id)
		return err
	})
}

func (m Model) selectedNote() *note.Note {
	if m.selected < 0 || m.selected >= len(m.view.Notes) {
		return nil
	}
	return m.view.Notes[m.selected]
}

// nextFolder cycles the folder filter through every folder.
func (m Model) nextFolder() string {
	current := m.view.Filter.FolderID
	if current == "" {
		current = note.AllFolderID
	}
	return m.folderAfter(current)
}

func (m Model) folderAfter(id string) string {
	folders := m.view.Folders
	if len(folders) == 0 {
		return note.AllFolderID
	}
	for i, f := range folders {
		if f.ID == id {
			return folders[(i+1)%len(folders)].ID
		}
	}
	return folders[0].ID
}

// nextTag cycles the tag filter through "" and every tag.
func (m Model) nextTag() string {
	tags := m.view.Tags
	if len(tags) == 0 {
		return ""
	}
	if m.view.Filter.Tag == "" {
		return tags[0]
	}
	for i, t := range tags {
		if t == m.view.Filter.Tag && i+1 < len(tags) {
			return tags[i+1]
		}
	}
	return ""
}

func (m Model) folderName(id string) string {
	for _, f := range m.view.Folders {
		if f.ID == id {
			return f.Name
		}
	}
	return note.AllFolderName
}
