// Package vad segments a microphone stream into utterances with WebRTC voice
// activity detection.
package vad

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/voxnote/internal/audio"
	"github.com/hpungsan/voxnote/internal/speech"
)

// Config holds VAD configuration.
type Config struct {
	// SampleRate must be 8000, 16000, 32000 or 48000
	SampleRate int

	// Mode is the aggressiveness, 0-3 (higher filters more non-speech)
	Mode int

	// Hangover is how long silence must last before speech is considered ended
	Hangover time.Duration

	// MinSpeech is the voiced time required before speech start is reported
	MinSpeech time.Duration
}

// DefaultConfig returns the default VAD configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate: audio.DefaultSampleRate,
		Mode:       2,
		Hangover:   700 * time.Millisecond,
		MinSpeech:  30 * time.Millisecond,
	}
}

// classifier labels one 10ms frame as speech or not.
type classifier interface {
	IsSpeech(frame []int16) (bool, error)
}

// Detector implements speech.VAD. Every frame it reads is also forwarded to the
// optional sink, after speech boundaries for that frame have been reported.
type Detector struct {
	cfg    Config
	engine classifier
	sink   audio.Sink
	logger *slog.Logger

	mu       sync.Mutex
	handlers []speech.VADHandler
	cancel   context.CancelFunc
	done     chan struct{}
}

var _ speech.VAD = (*Detector)(nil)

// New returns a WebRTC-backed detector. sink may be nil.
func New(cfg Config, sink audio.Sink, logger *slog.Logger) (*Detector, error) {
	engine, err := newWebRTC(cfg.SampleRate, cfg.Mode)
	if err != nil {
		return nil, err
	}
	return newDetector(cfg, engine, sink, logger), nil
}

func newDetector(cfg Config, engine classifier, sink audio.Sink, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		cfg:    cfg,
		engine: engine,
		sink:   sink,
		logger: logger.With("component", "vad"),
	}
}

// Subscribe registers a handler for speech boundaries.
func (d *Detector) Subscribe(h speech.VADHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Start begins detection on stream. It returns an error if already started.
func (d *Detector) Start(ctx context.Context, stream audio.Stream) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return fmt.Errorf("vad already running")
	}
	if stream.SampleRate() != d.cfg.SampleRate {
		return fmt.Errorf("stream sample rate %d does not match vad rate %d", stream.SampleRate(), d.cfg.SampleRate)
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.loop(ctx, stream, d.done)
	return nil
}

// Stop ends detection and waits for the loop to exit. An utterance in progress is dropped.
func (d *Detector) Stop() error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (d *Detector) loop(ctx context.Context, stream audio.Stream, done chan struct{}) {
	defer close(done)

	t := newTracker(d.cfg)
	frameLen := d.cfg.SampleRate / 100
	var pending []int16
	frames := stream.Frames()

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			pending = append(pending, f...)
			for len(pending) >= frameLen {
				frame := pending[:frameLen]
				voiced, err := d.engine.IsSpeech(frame)
				if err != nil {
					d.logger.Warn("vad frame rejected", "error", err)
					voiced = false
				}
				switch t.update(frame, voiced) {
				case eventStart:
					d.each(func(h speech.VADHandler) { h.OnSpeechStart() })
				case eventEnd:
					chunk := t.takeChunk()
					d.each(func(h speech.VADHandler) { h.OnSpeechEnd(chunk) })
				}
				pending = pending[frameLen:]
			}
			if d.sink != nil {
				d.sink.Write(f)
			}
		}
	}
}

func (d *Detector) each(fn func(speech.VADHandler)) {
	d.mu.Lock()
	hs := append([]speech.VADHandler(nil), d.handlers...)
	d.mu.Unlock()
	for _, h := range hs {
		fn(h)
	}
}
