// Package speechtest provides scripted recognizer and VAD doubles.
package speechtest

import (
	"context"
	"errors"
	"sync"

	"github.com/hpungsan/voxnote/internal/audio"
	"github.com/hpungsan/voxnote/internal/speech"
)

// Recognizer records Start/Stop calls and lets tests emit events.
type Recognizer struct {
	StartErr error
	StopErr  error

	mu       sync.Mutex
	handlers []speech.RecognitionHandler
	starts   int
	stops    int
	active   bool
}

func (r *Recognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	if r.StartErr != nil {
		return r.StartErr
	}
	r.active = true
	return nil
}

func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	r.active = false
	return r.StopErr
}

func (r *Recognizer) Subscribe(h speech.RecognitionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// Starts returns the number of Start calls.
func (r *Recognizer) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

// Stops returns the number of Stop calls.
func (r *Recognizer) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// Active reports whether the recognizer was started and not stopped.
func (r *Recognizer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Recognizer) each(fn func(speech.RecognitionHandler)) {
	r.mu.Lock()
	hs := append([]speech.RecognitionHandler(nil), r.handlers...)
	r.mu.Unlock()
	for _, h := range hs {
		fn(h)
	}
}

// Final emits a single final span.
func (r *Recognizer) Final(text string) {
	r.Emit(speech.Result{Spans: []speech.Span{{Text: text, IsFinal: true}}})
}

// Interim emits a single non-final span.
func (r *Recognizer) Interim(text string) {
	r.Emit(speech.Result{Spans: []speech.Span{{Text: text}}})
}

// Emit delivers a result.
func (r *Recognizer) Emit(res speech.Result) {
	r.each(func(h speech.RecognitionHandler) { h.OnResult(res) })
}

// Fail delivers an error code.
func (r *Recognizer) Fail(code string) {
	r.each(func(h speech.RecognitionHandler) { h.OnError(code) })
}

// End delivers an unrequested end of recognition.
func (r *Recognizer) End() {
	r.each(func(h speech.RecognitionHandler) { h.OnEnd() })
}

// VAD records Start/Stop calls and lets tests emit speech boundaries.
type VAD struct {
	StartErr error

	mu       sync.Mutex
	handlers []speech.VADHandler
	stream   audio.Stream
	starts   int
	stops    int
}

func (v *VAD) Start(ctx context.Context, stream audio.Stream) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.starts++
	if v.StartErr != nil {
		return v.StartErr
	}
	if stream == nil {
		return errors.New("nil stream")
	}
	v.stream = stream
	return nil
}

func (v *VAD) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stops++
	v.stream = nil
	return nil
}

func (v *VAD) Subscribe(h speech.VADHandler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.handlers = append(v.handlers, h)
}

// Running reports whether Start succeeded and Stop has not been called since.
func (v *VAD) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stream != nil
}

// Stops returns the number of Stop calls.
func (v *VAD) Stops() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stops
}

func (v *VAD) each(fn func(speech.VADHandler)) {
	v.mu.Lock()
	hs := append([]speech.VADHandler(nil), v.handlers...)
	v.mu.Unlock()
	for _, h := range hs {
		fn(h)
	}
}

// SpeechStart emits a speech-start transition.
func (v *VAD) SpeechStart() {
	v.each(func(h speech.VADHandler) { h.OnSpeechStart() })
}

// SpeechEnd emits a speech-end transition with an utterance chunk.
func (v *VAD) SpeechEnd(chunk []byte) {
	v.each(func(h speech.VADHandler) { h.OnSpeechEnd(chunk) })
}
