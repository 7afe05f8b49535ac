// Package session implements the recording session state machine: microphone,
// voice-activity detection and recognition are coordinated here and final
// results are appended to the transcript.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/voxnote/internal/audio"
	"github.com/hpungsan/voxnote/internal/clock"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/speech"
	"github.com/hpungsan/voxnote/internal/transcript"
)

// DefaultSpeakerChangeThreshold is the silence gap after which the next
// utterance is attributed to the other speaker.
const DefaultSpeakerChangeThreshold = 2 * time.Second

// Options are read at Start and stay fixed for the session.
type Options struct {
	VAD                    bool
	Diarization            bool
	RetainAudio            bool
	SpeakerChangeThreshold time.Duration
}

// Saver schedules a debounced save.
type Saver interface {
	Trigger()
}

// Deps are the collaborators of a controller. Post must queue fn to run on the
// goroutine that owns the controller and must not block; collaborator callbacks
// and stream watchers only reach the controller through it.
type Deps struct {
	Microphone audio.Microphone
	Recognizer speech.Recognizer
	VAD        speech.VAD
	// Sink receives audio when VAD is off. Defaults to the recognizer when it is a Sink.
	Sink    audio.Sink
	Saver   Saver
	Clock   clock.Clock
	Logger  *slog.Logger
	Post    func(fn func())
	OnEvent func(Event)
}

// Controller is the recording state machine. It is not safe for concurrent
// use; every method runs on the owning goroutine.
type Controller struct {
	deps Deps
	acc  *transcript.Accumulator
	opts Options

	state State
	// gen increments whenever a session starts or finishes. Callbacks capture it
	// when delivered so events from an earlier session are dropped.
	gen atomic.Uint64

	meter       *audio.Meter
	cancel      context.CancelFunc
	pumpDone    chan struct{}
	vadStarted  bool
	recognizing bool

	sessionID     string
	startedAt     time.Time
	lastSpeechEnd time.Time
	speaker       int
	segments      int
	chunks        [][]byte
	last          *Summary
}

// New wires a controller to acc and subscribes to the recognizer and VAD.
func New(acc *transcript.Accumulator, opts Options, deps Deps) *Controller {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With("component", "session")
	if deps.Post == nil {
		panic("session: Deps.Post is required")
	}
	if deps.Sink == nil {
		if s, ok := deps.Recognizer.(audio.Sink); ok {
			deps.Sink = s
		}
	}

	c := &Controller{deps: deps, acc: acc, opts: opts, speaker: 1}
	if deps.Recognizer != nil {
		deps.Recognizer.Subscribe(recognitionAdapter{c})
	}
	if deps.VAD != nil {
		deps.VAD.Subscribe(vadAdapter{c})
	}
	return c
}

// SetOptions replaces the options used by the next Start.
func (c *Controller) SetOptions(opts Options) { c.opts = opts }

// Options returns the current options.
func (c *Controller) Options() Options { return c.opts }

// SetAccumulator points the controller at another transcript. It is rejected
// while a session is active.
func (c *Controller) SetAccumulator(acc *transcript.Accumulator) error {
	if c.state.Active() {
		return errors.NewBusy("recording")
	}
	c.acc = acc
	return nil
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Speaker returns the speaker index (1 or 2) of the next segment.
func (c *Controller) Speaker() int { return c.speaker }

// SessionID returns the id of the current or last session.
func (c *Controller) SessionID() string { return c.sessionID }

// Last returns the summary of the last finished session, or nil.
func (c *Controller) Last() *Summary { return c.last }

// Level returns the current input level for a visualizer, 0 when not recording.
func (c *Controller) Level() float64 {
	if c.meter == nil {
		return 0
	}
	return c.meter.Level()
}

// Elapsed returns the recording time of the active session.
func (c *Controller) Elapsed() time.Duration {
	if !c.state.Active() {
		return 0
	}
	return c.deps.Clock.Now().Sub(c.startedAt)
}

// PostActionsVisible reports whether summarize, export and discard apply to
// the session that just ended.
func (c *Controller) PostActionsVisible() bool {
	return c.state == Stopped && c.last != nil && c.last.Segments > 0
}

// Status returns the user-facing status line for the current state.
func (c *Controller) Status() string {
	switch c.state {
	case Initializing:
		return "Processing..."
	case Listening:
		return "Listening for speech..."
	case Speaking:
		return "Recording..."
	case Stopped:
		if c.last == nil {
			return "Recording stopped."
		}
		switch c.last.Outcome {
		case OutcomeCaptured:
			return "Recording complete."
		case OutcomeConnectionLost:
			return "Connection lost."
		case OutcomeRecognitionError:
			if vErr, ok := errors.As(c.last.Err); ok {
				if code, ok := vErr.Details["recognizer_code"].(string); ok {
					return fmt.Sprintf("Recognition error: %s", code)
				}
			}
			return "Recognition error."
		}
		return "Recording stopped."
	}
	return ""
}

// Probe reports the first collaborator the current options need that is
// missing, as a CAPABILITY_MISSING error.
func (c *Controller) Probe() error {
	if c.deps.Microphone == nil {
		return errors.NewCapabilityMissing("microphone")
	}
	if c.deps.Recognizer == nil {
		return errors.NewCapabilityMissing("speech recognition")
	}
	if c.opts.VAD && c.deps.VAD == nil {
		return errors.NewCapabilityMissing("voice activity detection")
	}
	if !c.opts.VAD && c.deps.Sink == nil {
		return errors.NewCapabilityMissing("audio sink for continuous recognition")
	}
	return nil
}

// Start begins a session. It is a no-op while a session is active.
func (c *Controller) Start(ctx context.Context) error {
	if c.state.Active() {
		return nil
	}
	if err := c.Probe(); err != nil {
		return err
	}

	c.setState(Initializing)

	stream, err := c.deps.Microphone.Open(ctx)
	if err != nil {
		c.deps.Logger.Warn("microphone unavailable", "error", err)
		c.setState(Idle)
		return errors.NewPermissionDenied(err)
	}

	gen := c.gen.Add(1)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.meter = audio.NewMeter(stream)

	now := c.deps.Clock.Now()
	c.acc.BeginRecording()
	c.sessionID = uuid.NewString()
	c.startedAt = now
	c.lastSpeechEnd = now
	c.speaker = 1
	c.segments = 0
	c.chunks = nil
	c.last = nil

	meter := c.meter
	go func() {
		<-meter.Done()
		c.deps.Post(func() { c.streamEnded(gen) })
	}()

	if c.opts.VAD {
		if err := c.deps.VAD.Start(runCtx, c.meter); err != nil {
			c.deps.Logger.Warn("vad start failed", "error", err)
			c.abort()
			return errors.NewInternal(fmt.Errorf("start voice activity detection: %w", err))
		}
		c.vadStarted = true
		c.deps.Logger.Info("recording started", "session_id", c.sessionID, "vad", true)
		c.setState(Listening)
		return nil
	}

	if err := c.deps.Recognizer.Start(); err != nil {
		c.deps.Logger.Warn("recognizer start failed", "error", err)
		c.abort()
		return errors.NewRecognitionError("start-failed")
	}
	c.recognizing = true
	c.pumpDone = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		audio.Pump(runCtx, meter, c.deps.Sink)
	}(c.pumpDone)
	c.deps.Logger.Info("recording started", "session_id", c.sessionID, "vad", false)
	c.setState(Speaking)
	return nil
}

// Stop ends the active session and returns its summary. Calling Stop when no
// session is active returns the last summary (or nil) and changes nothing.
func (c *Controller) Stop() *Summary {
	if !c.state.Active() {
		return c.last
	}
	outcome := OutcomeNothingCaptured
	if c.segments > 0 {
		outcome = OutcomeCaptured
	}
	return c.finish(outcome, nil)
}

func (c *Controller) speechStart(gen uint64) {
	if gen != c.gen.Load() || !c.state.Active() {
		return
	}
	now := c.deps.Clock.Now()
	if c.opts.Diarization && !c.lastSpeechEnd.IsZero() && now.Sub(c.lastSpeechEnd) > c.threshold() {
		c.speaker = 3 - c.speaker
	}
	if !c.recognizing {
		if err := c.deps.Recognizer.Start(); err != nil {
			c.deps.Logger.Warn("recognizer start failed", "error", err)
			c.finish(OutcomeRecognitionError, errors.NewRecognitionError("start-failed"))
			return
		}
		c.recognizing = true
	}
	c.setState(Speaking)
}

func (c *Controller) speechEnd(gen uint64, chunk []byte) {
	if gen != c.gen.Load() || !c.state.Active() {
		return
	}
	c.lastSpeechEnd = c.deps.Clock.Now()
	if c.recognizing {
		c.recognizing = false
		if err := c.deps.Recognizer.Stop(); err != nil {
			c.deps.Logger.Warn("recognizer stop failed", "error", err)
		}
	}
	if c.opts.RetainAudio && len(chunk) > 0 {
		c.chunks = append(c.chunks, append([]byte(nil), chunk...))
	}
	c.setState(Listening)
}

func (c *Controller) result(gen uint64, res speech.Result) {
	if gen != c.gen.Load() || !c.state.Active() {
		return
	}
	start := res.ResultIndex
	if start < 0 {
		start = 0
	}

	var interim strings.Builder
	for i := start; i < len(res.Spans); i++ {
		span := res.Spans[i]
		if !span.IsFinal {
			interim.WriteString(span.Text)
			continue
		}
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}
		seg := transcript.Segment{
			Text:        text,
			TimestampMS: c.deps.Clock.Now().Sub(c.startedAt).Milliseconds(),
		}
		if c.opts.Diarization {
			seg.Speaker = c.speaker
		}
		c.acc.Append(seg)
		c.segments++
		c.emit(Event{Kind: EventSegment, State: c.state, Segment: seg})
		if c.deps.Saver != nil {
			c.deps.Saver.Trigger()
		}
	}

	if interim.Len() > 0 {
		c.acc.SetInterim(interim.String())
		c.emit(Event{Kind: EventInterim, State: c.state, Interim: interim.String()})
	}
}

func (c *Controller) recognitionError(gen uint64, code string) {
	if gen != c.gen.Load() || !c.state.Active() {
		return
	}
	c.deps.Logger.Warn("recognition error", "code", code, "session_id", c.sessionID)
	c.finish(OutcomeRecognitionError, errors.NewRecognitionError(code))
}

func (c *Controller) recognitionEnded(gen uint64) {
	if gen != c.gen.Load() || !c.state.Active() || !c.recognizing {
		return
	}
	c.recognizing = false
	c.deps.Logger.Warn("recognition ended unexpectedly", "session_id", c.sessionID)
	c.finish(OutcomeConnectionLost, errors.NewConnectionLost())
}

func (c *Controller) streamEnded(gen uint64) {
	if gen != c.gen.Load() || !c.state.Active() {
		return
	}
	c.deps.Logger.Warn("microphone stream ended", "session_id", c.sessionID)
	c.finish(OutcomeConnectionLost, errors.NewConnectionLost())
}

// finish releases every collaborator, leaves the accumulator's recording mode
// and reports the summary.
func (c *Controller) finish(outcome Outcome, err error) *Summary {
	c.gen.Add(1)
	c.release()
	c.acc.EndRecording()

	c.last = &Summary{
		SessionID:   c.sessionID,
		Outcome:     outcome,
		Err:         err,
		Segments:    c.segments,
		StartedAt:   c.startedAt,
		StoppedAt:   c.deps.Clock.Now(),
		AudioChunks: c.chunks,
	}
	c.chunks = nil
	c.deps.Logger.Info("recording stopped",
		"session_id", c.sessionID, "outcome", string(outcome), "segments", c.segments)

	c.setState(Stopped)
	c.emit(Event{Kind: EventStopped, State: Stopped, Summary: c.last})
	return c.last
}

// abort undoes a partially started session and returns to Idle.
func (c *Controller) abort() {
	c.gen.Add(1)
	c.release()
	c.acc.EndRecording()
	c.setState(Idle)
}

func (c *Controller) release() {
	if c.vadStarted {
		c.vadStarted = false
		if err := c.deps.VAD.Stop(); err != nil {
			c.deps.Logger.Warn("vad stop failed", "error", err)
		}
	}
	if c.recognizing {
		c.recognizing = false
		if err := c.deps.Recognizer.Stop(); err != nil {
			c.deps.Logger.Warn("recognizer stop failed", "error", err)
		}
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.pumpDone != nil {
		<-c.pumpDone
		c.pumpDone = nil
	}
	if c.meter != nil {
		if err := c.meter.Close(); err != nil {
			c.deps.Logger.Warn("microphone close failed", "error", err)
		}
		c.meter = nil
	}
}

func (c *Controller) threshold() time.Duration {
	if c.opts.SpeakerChangeThreshold <= 0 {
		return DefaultSpeakerChangeThreshold
	}
	return c.opts.SpeakerChangeThreshold
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.emit(Event{Kind: EventState, State: s})
}

func (c *Controller) emit(ev Event) {
	if c.deps.OnEvent != nil {
		c.deps.OnEvent(ev)
	}
}

type recognitionAdapter struct{ c *Controller }

func (a recognitionAdapter) OnResult(res speech.Result) {
	a.post(func(gen uint64) { a.c.result(gen, res) })
}

func (a recognitionAdapter) OnError(code string) {
	a.post(func(gen uint64) { a.c.recognitionError(gen, code) })
}

func (a recognitionAdapter) OnEnd() {
	a.post(func(gen uint64) { a.c.recognitionEnded(gen) })
}

func (a recognitionAdapter) post(fn func(gen uint64)) {
	gen := a.c.gen.Load()
	a.c.deps.Post(func() { fn(gen) })
}

type vadAdapter struct{ c *Controller }

func (a vadAdapter) OnSpeechStart() {
	gen := a.c.gen.Load()
	a.c.deps.Post(func() { a.c.speechStart(gen) })
}

func (a vadAdapter) OnSpeechEnd(chunk []byte) {
	gen := a.c.gen.Load()
	chunk = append([]byte(nil), chunk...)
	a.c.deps.Post(func() { a.c.speechEnd(gen, chunk) })
}
