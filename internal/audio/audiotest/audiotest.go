// Package audiotest provides in-memory microphone and stream doubles.
package audiotest

import (
	"context"
	"sync"

	"github.com/hpungsan/voxnote/internal/audio"
)

// Stream is a stream fed by Send.
type Stream struct {
	Rate int

	mu     sync.Mutex
	ch     chan []int16
	closed bool
}

// NewStream returns an open stream with a buffered frame channel.
func NewStream(rate int) *Stream {
	return &Stream{Rate: rate, ch: make(chan []int16, 256)}
}

// Send delivers a frame. It is dropped if the stream is closed.
func (s *Stream) Send(frame []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.ch <- frame
	}
}

func (s *Stream) Frames() <-chan []int16 { return s.ch }
func (s *Stream) SampleRate() int        { return s.Rate }

// Close ends the stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Microphone hands out Streams, or Err when set.
type Microphone struct {
	Err error

	mu     sync.Mutex
	opened []*Stream
}

// Open returns a new stream or the configured error.
func (m *Microphone) Open(ctx context.Context) (audio.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	s := NewStream(audio.DefaultSampleRate)
	m.mu.Lock()
	m.opened = append(m.opened, s)
	m.mu.Unlock()
	return s, nil
}

// Opened returns every stream handed out so far.
func (m *Microphone) Opened() []*Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Stream(nil), m.opened...)
}

// Last returns the most recently opened stream, or nil.
func (m *Microphone) Last() *Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opened) == 0 {
		return nil
	}
	return m.opened[len(m.opened)-1]
}

// Sink records written frames.
type Sink struct {
	mu     sync.Mutex
	frames [][]int16
}

func (s *Sink) Write(frame []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
}

// Frames returns the recorded frames.
func (s *Sink) Frames() [][]int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]int16(nil), s.frames...)
}
