package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hpungsan/voxnote/internal/app"
)

// Run starts the TUI on a and blocks until the user quits. Changes made by
// recognition callbacks and timers reach the screen through a subscription;
// bursts are coalesced into one snapshot.
func Run(ctx context.Context, a *app.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))

	changed := make(chan struct{}, 1)
	a.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				v, err := a.View(ctx)
				if err != nil {
					return
				}
				p.Send(ViewMsg{View: v})
			}
		}
	}()

	_, err := p.Run()
	return err
}
