package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/voxnote/internal/note"
)

// Fixed accent colors.
var (
	ColorRed    = lipgloss.Color("#E53935")
	ColorGreen  = lipgloss.Color("#43A047")
	ColorYellow = lipgloss.Color("#FDD835")
	ColorGray   = lipgloss.Color("#888888")
)

// styles are derived from the user's theme and custom colors.
type styles struct {
	Title       lipgloss.Style
	Dim         lipgloss.Style
	Status      lipgloss.Style
	Recording   lipgloss.Style
	Idle        lipgloss.Style
	Error       lipgloss.Style
	Interim     lipgloss.Style
	Timestamp   lipgloss.Style
	Speaker     [3]lipgloss.Style
	Selected    lipgloss.Style
	PanelTitle  lipgloss.Style
	PanelActive lipgloss.Style
	Divider     lipgloss.Style
	FooterKey   lipgloss.Style
	FooterDesc  lipgloss.Style
	LevelOn     lipgloss.Style
	LevelHot    lipgloss.Style
	LevelOff    lipgloss.Style
	Summary     lipgloss.Style
	Text        lipgloss.Style
}

func newStyles(s note.Settings) styles {
	primary := lipgloss.Color(s.CustomColors.Primary)
	text := lipgloss.Color(s.CustomColors.Text)
	if s.Theme == note.ThemeDark {
		text = lipgloss.Color("#EEEEEE")
	}

	st := styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(primary),
		Dim:         lipgloss.NewStyle().Foreground(ColorGray),
		Status:      lipgloss.NewStyle().Foreground(ColorGray).Italic(true),
		Recording:   lipgloss.NewStyle().Foreground(ColorRed).Bold(true),
		Idle:        lipgloss.NewStyle().Foreground(ColorGray),
		Error:       lipgloss.NewStyle().Foreground(ColorRed),
		Interim:     lipgloss.NewStyle().Foreground(ColorYellow),
		Timestamp:   lipgloss.NewStyle().Foreground(ColorGray),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(primary),
		PanelTitle:  lipgloss.NewStyle().Bold(true).Foreground(text),
		PanelActive: lipgloss.NewStyle().Bold(true).Foreground(primary),
		Divider:     lipgloss.NewStyle().Foreground(ColorGray),
		FooterKey:   lipgloss.NewStyle().Bold(true).Foreground(primary),
		FooterDesc:  lipgloss.NewStyle().Foreground(ColorGray),
		LevelOn:     lipgloss.NewStyle().Foreground(ColorGreen),
		LevelHot:    lipgloss.NewStyle().Foreground(ColorYellow),
		LevelOff:    lipgloss.NewStyle().Foreground(ColorGray),
		Summary:     lipgloss.NewStyle().Foreground(text).PaddingLeft(2),
		Text:        lipgloss.NewStyle().Foreground(text),
	}
	st.Speaker[0] = lipgloss.NewStyle().Foreground(ColorGray)
	st.Speaker[1] = lipgloss.NewStyle().Bold(true).Foreground(primary)
	st.Speaker[2] = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)
	return st
}
