package tui

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hpungsan/voxnote/internal/app"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/session"
	"github.com/hpungsan/voxnote/internal/store"
	"github.com/hpungsan/voxnote/internal/transcript"
)

type fakeBackend struct {
	view   app.View
	calls  []string
	err    error
	lastID string
	text   string
}

func (f *fakeBackend) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeBackend) View(ctx context.Context) (app.View, error) { return f.view, nil }
func (f *fakeBackend) ToggleRecording(ctx context.Context) error  { return f.record("toggle") }
func (f *fakeBackend) NewNote(ctx context.Context, folderID string) (*note.Note, error) {
	return &note.Note{}, f.record("new")
}
func (f *fakeBackend) LoadNote(ctx context.Context, id string) (*note.Note, error) {
	f.lastID = id
	return &note.Note{ID: id}, f.record("load")
}
func (f *fakeBackend) DeleteNote(ctx context.Context, id string) (*note.Note, error) {
	f.lastID = id
	return &note.Note{}, f.record("delete")
}
func (f *fakeBackend) EditTitle(ctx context.Context, title string) error {
	f.text = title
	return f.record("title")
}
func (f *fakeBackend) EditTranscript(ctx context.Context, text string) error {
	f.text = text
	return f.record("transcript")
}
func (f *fakeBackend) Undo(ctx context.Context) error { return f.record("undo") }
func (f *fakeBackend) Redo(ctx context.Context) error { return f.record("redo") }
func (f *fakeBackend) AddTag(ctx context.Context, id, tag string) (*note.Note, error) {
	f.text = tag
	return &note.Note{}, f.record("tag")
}
func (f *fakeBackend) MoveNote(ctx context.Context, id, folderID string) (*note.Note, error) {
	f.text = folderID
	return &note.Note{}, f.record("move")
}
func (f *fakeBackend) Search(ctx context.Context, query string) error {
	f.text = query
	return f.record("search")
}
func (f *fakeBackend) SwitchFolder(ctx context.Context, folderID string) error {
	f.text = folderID
	return f.record("folder")
}
func (f *fakeBackend) SwitchTag(ctx context.Context, tag string) error {
	f.text = tag
	return f.record("tagfilter")
}
func (f *fakeBackend) CreateFolder(ctx context.Context, name string) (note.Folder, error) {
	f.text = name
	return note.Folder{}, f.record("mkfolder")
}
func (f *fakeBackend) Summarize(ctx context.Context, id string) (<-chan app.SummaryResult, error) {
	ch := make(chan app.SummaryResult, 1)
	ch <- app.SummaryResult{Note: &note.Note{ID: id}}
	return ch, f.record("summarize")
}
func (f *fakeBackend) ExportNote(ctx context.Context, id, format, path string) (*app.ExportNoteOutput, error) {
	return &app.ExportNoteOutput{Path: "/tmp/x." + format}, f.record("export")
}
func (f *fakeBackend) ExportAll(ctx context.Context, path string) (*app.TransferOutput, error) {
	return &app.TransferOutput{Path: "/tmp/all.json", Notes: 2}, f.record("exportall")
}
func (f *fakeBackend) Discard(ctx context.Context) error { return f.record("discard") }
func (f *fakeBackend) SeekSegment(ctx context.Context, i int) error {
	f.text = string(rune('0' + i))
	return f.record("seek")
}
func (f *fakeBackend) ToggleTheme(ctx context.Context) (string, error) {
	return note.ThemeDark, f.record("theme")
}

func sampleView() app.View {
	active := &note.Note{ID: "n1", Title: "Standup", Tags: []string{"work"}, FolderID: note.AllFolderID}
	other := &note.Note{ID: "n2", Title: "Groceries", FolderID: note.AllFolderID}
	segs := []transcript.Segment{
		{Text: "hello", TimestampMS: 1000, Speaker: 1},
		{Text: "hi back", TimestampMS: 4000, Speaker: 2},
	}
	active.Transcript = transcript.Render(segs[0]) + transcript.Render(segs[1])
	return app.View{
		State:    session.Idle,
		Status:   "Saved.",
		Active:   active,
		Segments: segs,
		Notes:    []*note.Note{active, other},
		Folders:  []note.Folder{{ID: note.AllFolderID, Name: note.AllFolderName}, {ID: "f1", Name: "Work"}},
		Tags:     []string{"home", "work"},
		Filter:   store.Filter{},
		CanUndo:  true,
		Settings: note.DefaultSettings(),
	}
}

func setup(t *testing.T) (Model, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{view: sampleView()}
	m := New(context.Background(), fb)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	updated, _ = updated.(Model).Update(ViewMsg{View: fb.view})
	return updated.(Model), fb
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, c := m.Update(msg)
		m = updated.(Model)
		cmd = c
	}
	return m, cmd
}

// exec runs cmd and returns its message, skipping batches.
func exec(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestModel_InitialView(t *testing.T) {
	m, _ := setup(t)
	out := m.View()
	for _, want := range []string{"VOXNOTE", "Standup", "#work", "NOTES (2)", "Groceries", "hello", "[00:04]", "Saved."} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_SpaceTogglesRecording(t *testing.T) {
	m, fb := setup(t)
	_, cmd := press(t, m, " ")
	if msg := exec(cmd); msg != (refreshMsg{}) {
		t.Fatalf("msg = %#v, want refreshMsg", msg)
	}
	if len(fb.calls) != 1 || fb.calls[0] != "toggle" {
		t.Errorf("calls = %v, want [toggle]", fb.calls)
	}
}

func TestModel_RecordDisabledWhenUnsupported(t *testing.T) {
	fb := &fakeBackend{view: sampleView()}
	fb.view.Unsupported = "Not supported: speech recognition"
	m := New(context.Background(), fb)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	updated, _ = updated.(Model).Update(ViewMsg{View: fb.view})
	m = updated.(Model)

	if !strings.Contains(m.View(), "Not supported: speech recognition") {
		t.Error("View() missing unsupported message")
	}
	m, _ = press(t, m, " ")
	if len(fb.calls) != 0 {
		t.Errorf("calls = %v, want none", fb.calls)
	}
	if !m.isError || m.notice != "Not supported: speech recognition" {
		t.Errorf("notice = %q (error %v)", m.notice, m.isError)
	}
}

func TestModel_NavigateAndLoad(t *testing.T) {
	m, fb := setup(t)
	m, _ = press(t, m, "j")
	if m.selected != 1 {
		t.Fatalf("selected = %d, want 1", m.selected)
	}
	m, _ = press(t, m, "j")
	if m.selected != 1 {
		t.Errorf("selected = %d, want clamped at 1", m.selected)
	}
	_, cmd := press(t, m, "enter")
	exec(cmd)
	if fb.lastID != "n2" {
		t.Errorf("loaded %q, want n2", fb.lastID)
	}
}

func TestModel_SeekFromTranscriptFocus(t *testing.T) {
	m, fb := setup(t)
	m, _ = press(t, m, "tab", "j")
	if m.focus != FocusTranscript || m.segment != 1 {
		t.Fatalf("focus = %v segment = %d, want transcript/1", m.focus, m.segment)
	}
	_, cmd := press(t, m, "enter")
	exec(cmd)
	if fb.text != "1" || fb.calls[len(fb.calls)-1] != "seek" {
		t.Errorf("calls = %v text = %q, want seek 1", fb.calls, fb.text)
	}
}

func TestModel_SearchInput(t *testing.T) {
	m, fb := setup(t)
	m, _ = press(t, m, "/")
	if m.mode != modeInput {
		t.Fatalf("mode = %v, want input", m.mode)
	}
	m, _ = press(t, m, "m", "i", "l", "k")
	m, cmd := press(t, m, "enter")
	exec(cmd)
	if m.mode != modeNormal {
		t.Errorf("mode = %v, want normal", m.mode)
	}
	if fb.text != "milk" {
		t.Errorf("search = %q, want milk", fb.text)
	}
}

func TestModel_InputEscCancels(t *testing.T) {
	m, fb := setup(t)
	m, _ = press(t, m, "t", "x", "esc")
	if m.mode != modeNormal {
		t.Errorf("mode = %v, want normal", m.mode)
	}
	if len(fb.calls) != 0 {
		t.Errorf("calls = %v, want none", fb.calls)
	}
}

func TestModel_EditTranscript(t *testing.T) {
	m, fb := setup(t)
	m, _ = press(t, m, "e")
	if m.mode != modeEdit {
		t.Fatalf("mode = %v, want edit", m.mode)
	}
	if !strings.Contains(m.editor.Value(), "hello") {
		t.Errorf("editor = %q, want current transcript", m.editor.Value())
	}
	_, cmd := press(t, m, "ctrl+s")
	exec(cmd)
	if fb.calls[len(fb.calls)-1] != "transcript" {
		t.Errorf("calls = %v, want transcript", fb.calls)
	}
}

func TestModel_EditBlockedWhileRecording(t *testing.T) {
	m, _ := setup(t)
	v := sampleView()
	v.State = session.Speaking
	updated, cmd := m.Update(ViewMsg{View: v})
	m = updated.(Model)
	if cmd == nil {
		t.Error("active session should start the level tick")
	}
	m, _ = press(t, m, "e")
	if m.mode != modeNormal {
		t.Errorf("mode = %v, want normal while recording", m.mode)
	}
}

func TestModel_DeleteNeedsConfirm(t *testing.T) {
	m, fb := setup(t)
	m, _ = press(t, m, "D")
	if !strings.Contains(m.View(), `Delete "Standup"?`) {
		t.Error("confirm prompt not shown")
	}
	m, cmd := press(t, m, "n")
	if cmd != nil || len(fb.calls) != 0 {
		t.Errorf("non-y key should cancel, calls = %v", fb.calls)
	}
	m, _ = press(t, m, "D")
	_, cmd = press(t, m, "y")
	exec(cmd)
	if fb.lastID != "n1" || fb.calls[0] != "delete" {
		t.Errorf("calls = %v id = %q, want delete n1", fb.calls, fb.lastID)
	}
}

func TestModel_FolderAndTagCycling(t *testing.T) {
	m, fb := setup(t)
	_, cmd := press(t, m, "f")
	exec(cmd)
	if fb.text != "f1" {
		t.Errorf("folder = %q, want f1", fb.text)
	}
	_, cmd = press(t, m, "g")
	exec(cmd)
	if fb.text != "home" {
		t.Errorf("tag = %q, want home", fb.text)
	}

	v := sampleView()
	v.Filter.Tag = "work"
	updated, _ := m.Update(ViewMsg{View: v})
	_, cmd = press(t, updated.(Model), "g")
	exec(cmd)
	if fb.text != "" {
		t.Errorf("tag after last = %q, want cleared", fb.text)
	}
}

func TestModel_DiscardOnlyAfterRecording(t *testing.T) {
	m, fb := setup(t)
	_, cmd := press(t, m, "c")
	if cmd != nil {
		t.Error("discard without post actions should do nothing")
	}
	v := sampleView()
	v.PostActions = true
	updated, _ := m.Update(ViewMsg{View: v})
	_, cmd = press(t, updated.(Model), "c")
	exec(cmd)
	if len(fb.calls) != 1 || fb.calls[0] != "discard" {
		t.Errorf("calls = %v, want [discard]", fb.calls)
	}
}

func TestModel_ErrorShownAndCleared(t *testing.T) {
	m, _ := setup(t)
	updated, _ := m.Update(errMsg{err: stderrors.New("BUSY: recording is busy")})
	m = updated.(Model)
	if !strings.Contains(m.View(), "Error: BUSY") {
		t.Error("error not rendered")
	}
	updated, _ = m.Update(clearNoticeMsg{seq: m.noticeSeq - 1})
	if updated.(Model).notice == "" {
		t.Error("stale clear removed a newer notice")
	}
	updated, _ = m.Update(clearNoticeMsg{seq: m.noticeSeq})
	if updated.(Model).notice != "" {
		t.Error("notice not cleared")
	}
}

func TestModel_ExportShowsPath(t *testing.T) {
	m, _ := setup(t)
	_, cmd := press(t, m, "x")
	msg, ok := exec(cmd).(noticeMsg)
	if !ok || msg.text != "Exported to /tmp/x.md" {
		t.Errorf("msg = %#v, want export notice", msg)
	}
}

func TestModel_SummarizeDeliversResult(t *testing.T) {
	m, fb := setup(t)
	_, cmd := press(t, m, "s")
	msg, ok := exec(cmd).(summaryMsg)
	if !ok || msg.result.Note.ID != "n1" {
		t.Errorf("msg = %#v, want summary for n1", msg)
	}
	if fb.calls[0] != "summarize" {
		t.Errorf("calls = %v", fb.calls)
	}
}

func TestModel_BackendErrorBecomesErrMsg(t *testing.T) {
	m, fb := setup(t)
	fb.err = stderrors.New("boom")
	_, cmd := press(t, m, "u")
	if msg, ok := exec(cmd).(errMsg); !ok || msg.err.Error() != "boom" {
		t.Errorf("msg = %#v, want errMsg boom", msg)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}
}

func TestIntentTable_EveryKeyHasHandler(t *testing.T) {
	for key, intent := range keyIntents {
		if intentHandlers[intent] == nil {
			t.Errorf("key %q maps to %q with no handler", key, intent)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want int }{
		{5, 0, 3, 3},
		{-1, 0, 3, 0},
		{2, 0, 3, 2},
		{1, 0, -1, 0},
	}
	for _, c := range cases {
		if got := clamp(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}
