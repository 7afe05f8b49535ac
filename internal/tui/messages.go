package tui

import "github.com/hpungsan/voxnote/internal/app"

// ViewMsg carries a fresh application snapshot.
type ViewMsg struct {
	View app.View
}

// refreshMsg asks the model to fetch a snapshot.
type refreshMsg struct{}

// tickMsg drives the level meter and elapsed time while recording.
type tickMsg struct{}

// errMsg reports a failed intent.
type errMsg struct {
	err error
}

// noticeMsg is a transient informational line.
type noticeMsg struct {
	text string
}

// clearNoticeMsg clears the notice or error line.
type clearNoticeMsg struct {
	seq int
}

// summaryMsg is delivered when a background summary finishes.
type summaryMsg struct {
	result app.SummaryResult
}
