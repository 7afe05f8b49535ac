package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/session"
	"github.com/hpungsan/voxnote/internal/transcript"
)

func (m Model) notesWidth() int {
	if m.width == 0 {
		return 30
	}
	return max(20, m.width*30/100)
}

func (m Model) transcriptWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.notesWidth()-3)
}

func (m Model) mainHeight() int {
	if m.height == 0 {
		return 20
	}
	// header, status, two dividers, notice, input, footer
	return max(5, m.height-7)
}

// renderTranscript rebuilds the viewport content from the current view.
func (m *Model) renderTranscript() {
	if !m.loaded {
		return
	}
	width := max(10, m.transcriptWidth()-2)
	var lines []string

	if len(m.view.Segments) == 0 && m.view.Interim == "" {
		if m.view.Active != nil {
			if text := transcript.PlainText(m.view.Active.Transcript); text != "" {
				lines = append(lines, wrapText(text, width)...)
			}
		}
		if len(lines) == 0 {
			lines = append(lines, "", m.st.Dim.Render("  Press Space to start recording"))
		}
	}

	for i, seg := range m.view.Segments {
		prefix := m.st.Timestamp.Render("[" + formatOffset(seg.TimestampMS) + "]")
		if seg.Speaker > 0 {
			prefix += " " + m.st.Speaker[min(seg.Speaker, 2)].Render(fmt.Sprintf("S%d", seg.Speaker))
		}
		wrapped := wrapText(seg.Text, max(10, width-12))
		first := wrapped[0]
		if m.focus == FocusTranscript && i == m.segment {
			first = m.st.Selected.Render(first)
		}
		lines = append(lines, prefix+" "+first)
		for _, wl := range wrapped[1:] {
			lines = append(lines, strings.Repeat(" ", 12)+wl)
		}
	}

	if m.view.Interim != "" {
		for _, wl := range wrapText(m.view.Interim+"▌", width) {
			lines = append(lines, m.st.Interim.Render(wl))
		}
	}

	if m.view.Active != nil && m.view.Active.Summary != "" {
		lines = append(lines, "", m.st.PanelTitle.Render("SUMMARY"))
		for _, wl := range wrapText(transcript.PlainText(m.view.Active.Summary), width-2) {
			lines = append(lines, m.st.Summary.Render(wl))
		}
	}

	m.viewport.SetContent(strings.Join(lines, "\n"))
	if m.view.State.Active() {
		m.viewport.GotoBottom()
	}
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || !m.loaded {
		return "Loading..."
	}

	divider := m.st.Divider.Render(strings.Repeat("─", m.width))
	sections := []string{
		m.renderHeader(),
		m.renderStatusBar(),
		divider,
	}
	if m.mode == modeEdit {
		sections = append(sections, m.editor.View())
	} else {
		sections = append(sections, m.renderMain())
	}
	sections = append(sections, divider, m.renderNotice())
	if m.mode == modeInput {
		sections = append(sections, m.input.View())
	}
	sections = append(sections, m.renderFooter())
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := m.st.Title.Render("VOXNOTE")
	if m.view.Active != nil {
		title += " " + m.st.Text.Render(m.view.Active.Title)
		if len(m.view.Active.Tags) > 0 {
			title += m.st.Dim.Render("  #" + strings.Join(m.view.Active.Tags, " #"))
		}
	}
	return title
}

func (m Model) renderStatusBar() string {
	var dot string
	switch m.view.State {
	case session.Speaking:
		dot = m.st.Recording.Render("● REC")
	case session.Listening, session.Initializing:
		dot = m.st.Recording.Render("◌ LISTEN")
	default:
		dot = m.st.Idle.Render("○ IDLE")
	}

	parts := []string{dot}
	if m.view.State.Active() {
		parts = append(parts, renderLevel(m.st, m.view.Level), formatDuration(m.view.Elapsed))
	}
	if m.view.Summarizing {
		parts = append(parts, m.spinner.View()+" summarizing")
	}
	if m.view.Unsupported != "" && m.view.Unsupported != m.view.Status {
		parts = append(parts, m.st.Error.Render(m.view.Unsupported))
	}
	if m.view.Status != "" {
		parts = append(parts, m.st.Status.Render(m.view.Status))
	}
	return strings.Join(parts, "  ")
}

func renderLevel(st styles, level float64) string {
	const barLen = 10
	filled := min(int(level*barLen), barLen)
	var b strings.Builder
	for i := 0; i < barLen; i++ {
		switch {
		case i >= filled:
			b.WriteString(st.LevelOff.Render("░"))
		case i >= barLen*7/10:
			b.WriteString(st.LevelHot.Render("█"))
		default:
			b.WriteString(st.LevelOn.Render("█"))
		}
	}
	return b.String()
}

func (m Model) renderMain() string {
	notesW := m.notesWidth()
	height := m.mainHeight()

	left := strings.Split(m.renderNotesPanel(notesW, height), "\n")
	right := []string{m.panelTitle("TRANSCRIPT", m.focus == FocusTranscript)}
	right = append(right, strings.Split(m.viewport.View(), "\n")...)

	sep := m.st.Divider.Render("│")
	rows := make([]string, 0, height)
	for i := 0; i < height; i++ {
		l := strings.Repeat(" ", notesW)
		if i < len(left) {
			l = padRight(left[i], notesW)
		}
		r := ""
		if i < len(right) {
			r = right[i]
		}
		rows = append(rows, l+sep+" "+r)
	}
	return strings.Join(rows, "\n")
}

func (m Model) panelTitle(title string, active bool) string {
	if active {
		return m.st.PanelActive.Render(title)
	}
	return m.st.PanelTitle.Render(title)
}

func (m Model) renderNotesPanel(width, height int) string {
	header := fmt.Sprintf("NOTES (%d)", len(m.view.Notes))
	lines := []string{m.panelTitle(header, m.focus == FocusNotes)}

	var filter []string
	if id := m.view.Filter.FolderID; id != "" && id != note.AllFolderID {
		filter = append(filter, "▸"+m.folderName(id))
	}
	if m.view.Filter.Tag != "" {
		filter = append(filter, "#"+m.view.Filter.Tag)
	}
	if m.view.Filter.Search != "" {
		filter = append(filter, "/"+m.view.Filter.Search)
	}
	if len(filter) > 0 {
		lines = append(lines, m.st.Dim.Render(truncate(strings.Join(filter, " "), width)))
	}

	if len(m.view.Notes) == 0 {
		lines = append(lines, m.st.Dim.Render("  No matching notes"))
	}

	// keep the selection visible
	room := height - len(lines)
	start := 0
	if m.selected >= room {
		start = m.selected - room + 1
	}
	activeID := ""
	if m.view.Active != nil {
		activeID = m.view.Active.ID
	}
	for i := start; i < len(m.view.Notes) && len(lines) < height; i++ {
		n := m.view.Notes[i]
		marker := "  "
		if n.ID == activeID {
			marker = "• "
		}
		line := truncate(marker+n.Title, width)
		if i == m.selected && m.focus == FocusNotes {
			line = m.st.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderNotice() string {
	switch {
	case m.mode == modeConfirmDelete:
		if n := m.selectedNote(); n != nil {
			return m.st.Error.Render(fmt.Sprintf("Delete %q? (y/N)", n.Title))
		}
	case m.notice != "" && m.isError:
		return m.st.Error.Render("Error: " + m.notice)
	case m.notice != "":
		return m.st.Dim.Render(m.notice)
	}
	return ""
}

func (m Model) key(k, desc string) string {
	return m.st.FooterKey.Render(k) + m.st.FooterDesc.Render(" "+desc)
}

func (m Model) renderFooter() string {
	if m.mode == modeEdit {
		return strings.Join([]string{m.key("ctrl+s", "Save"), m.key("esc", "Cancel")}, "  ")
	}
	if m.mode == modeInput {
		return strings.Join([]string{m.key("enter", "OK"), m.key("esc", "Cancel")}, "  ")
	}

	var parts []string
	if m.view.State.Active() {
		parts = append(parts, m.key("Space", "Stop"))
	} else {
		parts = append(parts, m.key("Space", "Record"), m.key("n", "New"), m.key("e", "Edit"))
	}
	if m.view.PostActions {
		parts = append(parts, m.key("s", "Summarize"), m.key("x", "Export"), m.key("c", "Discard"))
	}
	if m.view.CanUndo {
		parts = append(parts, m.key("u", "Undo"))
	}
	if m.view.CanRedo {
		parts = append(parts, m.key("^r", "Redo"))
	}
	parts = append(parts, m.key("/", "Search"), m.key("f", "Folder"), m.key("g", "Tag"), m.key("Tab", "Focus"), m.key("q", "Quit"))
	return strings.Join(parts, "  ")
}

func formatOffset(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width || width < 2 {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case current == "":
				current = word
			case len([]rune(current))+1+len([]rune(word)) <= width:
				current += " " + word
			default:
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
