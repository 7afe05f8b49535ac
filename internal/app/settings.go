package app

import (
	"context"

	"github.com/hpungsan/voxnote/internal/note"
)

// Settings returns the current settings.
func (a *App) Settings() note.Settings {
	return a.store.Settings()
}

// SaveSettings validates and persists settings. Recording options apply from
// the next session.
func (a *App) SaveSettings(ctx context.Context, s note.Settings) error {
	return a.do(ctx, func() error {
		if err := a.store.SaveSettings(ctx, s); err != nil {
			return err
		}
		a.status = "Settings saved."
		return nil
	})
}

// ToggleTheme flips between the light and dark theme.
func (a *App) ToggleTheme(ctx context.Context) (string, error) {
	var theme string
	err := a.do(ctx, func() error {
		s := a.store.Settings()
		if s.Theme == note.ThemeDark {
			s.Theme = note.ThemeLight
		} else {
			s.Theme = note.ThemeDark
		}
		theme = s.Theme
		return a.store.SaveSettings(ctx, s)
	})
	return theme, err
}
