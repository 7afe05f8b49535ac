// Package app owns the application state and serializes every UI intent,
// collaborator callback and timer onto one goroutine.
package app

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/hpungsan/voxnote/internal/audio"
	"github.com/hpungsan/voxnote/internal/clock"
	"github.com/hpungsan/voxnote/internal/config"
	"github.com/hpungsan/voxnote/internal/debounce"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/files"
	"github.com/hpungsan/voxnote/internal/session"
	"github.com/hpungsan/voxnote/internal/speech"
	"github.com/hpungsan/voxnote/internal/store"
	"github.com/hpungsan/voxnote/internal/summarize"
	"github.com/hpungsan/voxnote/internal/transcript"
)

// Deps are the optional device collaborators. Surfaces that never record
// (web, MCP, one-shot CLI commands) leave them nil.
type Deps struct {
	Microphone audio.Microphone
	Recognizer speech.Recognizer
	VAD        speech.VAD
	Sink       audio.Sink
	Player     audio.Player
	Clock      clock.Clock
	Logger     *slog.Logger
}

// App is the single application-state object. Its exported methods may be
// called from any goroutine; they run on the goroutine executing Run.
// Subscribers must not call back into App synchronously.
type App struct {
	baseDir string
	db      *sql.DB
	store   *store.Store
	clock   clock.Clock
	logger  *slog.Logger
	player  audio.Player

	inbox *inbox

	// Fields below are owned by the Run goroutine.
	cfg          *config.Config
	acc          *transcript.Accumulator
	ctrl         *session.Controller
	saver        *debounce.Debouncer
	summarizer   *summarize.Client
	filter       store.Filter
	status       string
	postActions  bool
	summarizing  bool
	recordNoteID string
	silenceGen   uint64

	// capErr is the capability probe result from New. Recording stays
	// disabled for the process lifetime when it is set.
	capErr error

	subMu       sync.Mutex
	subscribers []func()
}

// New loads the store and wires the session controller. Call Run before using
// any other method.
func New(ctx context.Context, cfg *config.Config, baseDir string, database *sql.DB, deps Deps) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	st, err := store.Open(ctx, database, deps.Clock)
	if err != nil {
		return nil, err
	}

	a := &App{
		baseDir:    baseDir,
		db:         database,
		store:      st,
		clock:      deps.Clock,
		logger:     deps.Logger,
		player:     deps.Player,
		inbox:      newInbox(),
		cfg:        cfg,
		summarizer: summarize.New(cfg, deps.Logger),
	}

	a.acc = transcript.NewAccumulator(st.Active().Transcript)
	a.saver = debounce.New(saveDelay(cfg), deps.Clock, func() {
		a.inbox.post(a.persist)
	})
	a.ctrl = session.New(a.acc, a.sessionOptions(), session.Deps{
		Microphone: deps.Microphone,
		Recognizer: deps.Recognizer,
		VAD:        deps.VAD,
		Sink:       deps.Sink,
		Saver:      saverFunc(a.transcriptChanged),
		Clock:      deps.Clock,
		Logger:     deps.Logger,
		Post:       a.inbox.post,
		OnEvent:    a.onSessionEvent,
	})
	if err := a.ctrl.Probe(); err != nil {
		a.capErr = err
		a.status = statusForError(err)
		a.logger.Info("recording disabled", "reason", err.Error())
	}
	return a, nil
}

// Run processes intents until ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	a.inbox.run(ctx)
}

// Store exposes the underlying store for read-only listing.
func (a *App) Store() *store.Store { return a.store }

// BaseDir returns the data directory.
func (a *App) BaseDir() string { return a.baseDir }

// Subscribe registers fn to be called on the app goroutine after every state
// change. fn must return quickly and must not call App methods.
func (a *App) Subscribe(fn func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	a.subscribers = append(a.subscribers, fn)
}

// do runs fn on the app goroutine, waits for it and notifies subscribers.
func (a *App) do(ctx context.Context, fn func() error) error {
	return a.call(ctx, fn, true)
}

// read runs fn on the app goroutine without notifying subscribers.
func (a *App) read(ctx context.Context, fn func() error) error {
	return a.call(ctx, fn, false)
}

func (a *App) call(ctx context.Context, fn func() error, notify bool) error {
	done := make(chan error, 1)
	a.inbox.post(func() {
		done <- fn()
		if notify {
			a.changed()
		}
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) changed() {
	a.subMu.Lock()
	subs := append([]func(){}, a.subscribers...)
	a.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// ApplyConfig swaps in a reloaded configuration. Settings that size running
// components take effect for the next save or summary.
func (a *App) ApplyConfig(ctx context.Context, cfg *config.Config) error {
	return a.do(ctx, func() error {
		a.cfg = cfg
		a.saver.Flush()
		a.saver = debounce.New(saveDelay(cfg), a.clock, func() {
			a.inbox.post(a.persist)
		})
		a.summarizer = summarize.New(cfg, a.logger)
		a.logger.Info("configuration applied")
		return nil
	})
}

// Flush stops any recording and writes pending changes. Call it before exit.
func (a *App) Flush(ctx context.Context) error {
	return a.do(ctx, func() error {
		if a.ctrl.State().Active() {
			a.ctrl.Stop()
		}
		a.saver.Cancel()
		return a.save()
	})
}

func (a *App) policy() files.Policy {
	return files.Policy{ExportsDir: filepath.Join(a.baseDir, "exports"), Config: a.cfg}
}

// transcriptChanged copies the live transcript into the active note and
// schedules a save.
func (a *App) transcriptChanged() {
	id := a.store.ActiveID()
	if a.recordNoteID != "" {
		id = a.recordNoteID
	}
	n, err := a.store.Note(id)
	if err != nil {
		a.logger.Warn("transcript target missing", "note_id", id, "error", err)
		return
	}
	if n.Transcript != a.acc.Markup() {
		markup := a.acc.Markup()
		if _, err := a.store.UpdateNote(id, store.NotePatch{Transcript: &markup}); err != nil {
			a.logger.Warn("transcript update failed", "note_id", id, "error", err)
			return
		}
	}
	a.touch()
}

// touch schedules a debounced save.
func (a *App) touch() {
	if !a.ctrl.State().Active() {
		a.status = "Saving..."
	}
	a.saver.Trigger()
}

// persist runs when the debounce fires.
func (a *App) persist() {
	if err := a.save(); err != nil {
		a.status = "Save failed: " + err.Error()
	} else if !a.ctrl.State().Active() {
		a.status = "Saved."
	}
	a.changed()
}

func (a *App) save() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.store.Save(ctx); err != nil {
		a.logger.Error("save failed", "error", err)
		return err
	}
	return nil
}

// saveNow cancels the pending debounce and writes immediately.
func (a *App) saveNow() error {
	a.saver.Cancel()
	return a.save()
}

func saveDelay(cfg *config.Config) time.Duration {
	if cfg.SaveDebounceMS <= 0 {
		return debounce.DefaultDelay
	}
	return time.Duration(cfg.SaveDebounceMS) * time.Millisecond
}

type saverFunc func()

func (f saverFunc) Trigger() { f() }

func errBusyRecording() error {
	return errors.NewBusy("recording")
}
