package app

import (
	"context"
	"time"

	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/store"
	"github.com/hpungsan/voxnote/internal/transcript"
)

// SummaryResult is delivered once a summarization request finishes.
type SummaryResult struct {
	Note *note.Note
	Err  error
}

// Summarize requests a summary of note id. Credential, transcript and
// concurrency checks fail synchronously; otherwise the request runs in the
// background and its result arrives on the returned channel. A failed request
// leaves the previous summary untouched.
func (a *App) Summarize(ctx context.Context, id string) (<-chan SummaryResult, error) {
	out := make(chan SummaryResult, 1)
	err := a.do(ctx, func() error {
		if a.summarizing {
			return errors.NewBusy("summarize")
		}
		n, err := a.store.Note(id)
		if err != nil {
			return err
		}
		settings := a.store.Settings()
		text := transcript.PlainText(n.Transcript)
		if id == a.store.ActiveID() {
			text = a.acc.PlainText()
		}
		if settings.APIKey == "" {
			return errors.NewMissingCredential()
		}
		if text == "" {
			return errors.NewEmptyTranscript()
		}

		a.summarizing = true
		a.status = "Summarizing..."
		client := a.summarizer
		timeout := client.HTTP.Timeout + 5*time.Second
		go func() {
			reqCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			summary, err := client.Summarize(reqCtx, text, settings.SummaryFormat, settings.APIKey)
			a.inbox.post(func() {
				out <- a.applySummary(id, summary, err)
				a.changed()
			})
		}()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SummarizeWait is Summarize followed by waiting for the result.
func (a *App) SummarizeWait(ctx context.Context, id string) (*note.Note, error) {
	ch, err := a.Summarize(ctx, id)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-ch:
		return res.Note, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *App) applySummary(id, summary string, err error) SummaryResult {
	a.summarizing = false
	if err != nil {
		a.logger.Warn("summarize failed", "note_id", id, "error", err)
		a.status = "Summary failed: " + err.Error()
		return SummaryResult{Err: err}
	}
	markup := transcript.FromPlainText(summary)
	n, err := a.store.UpdateNote(id, store.NotePatch{Summary: &markup})
	if err != nil {
		a.status = "Summary failed: " + err.Error()
		return SummaryResult{Err: err}
	}
	a.status = "Summary ready."
	a.touch()
	return SummaryResult{Note: n}
}
