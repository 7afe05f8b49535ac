// Package wsrecognizer is a streaming speech recognizer spoken to over a websocket.
//
// Each utterance opens a connection. The client sends a JSON config frame, then
// binary PCM16LE audio, and finally {"type":"stop"}. The server answers with
//
//	{"type":"transcript","text":"...","is_final":true}
//	{"type":"error","code":"...","message":"..."}
//	{"type":"done"}
//
// and closes the connection once the last final transcript is out.
package wsrecognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hpungsan/voxnote/internal/audio"
	"github.com/hpungsan/voxnote/internal/speech"
)

// Config configures the recognizer.
type Config struct {
	URL        string
	Language   string
	DocTitle   string
	SampleRate int

	// PreRoll is how much audio before Start is replayed, so the onset of an
	// utterance detected by VAD is not clipped.
	PreRoll time.Duration

	// DrainTimeout bounds how long final transcripts are awaited after Stop.
	DrainTimeout time.Duration

	HandshakeTimeout time.Duration
	Logger           *slog.Logger
}

type configMessage struct {
	Language   string `json:"language"`
	DocTitle   string `json:"docTitle,omitempty"`
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
}

type serverMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type utterance struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	stopped atomic.Bool
}

func (u *utterance) write(messageType int, data []byte) error {
	u.writeMu.Lock()
	defer u.writeMu.Unlock()
	return u.conn.WriteMessage(messageType, data)
}

// Recognizer implements speech.Recognizer and audio.Sink.
type Recognizer struct {
	cfg    Config
	dialer websocket.Dialer
	logger *slog.Logger

	mu       sync.Mutex
	handlers []speech.RecognitionHandler
	current  *utterance
	dialing  bool
	gen      uint64
	preroll  [][]int16
	preLen   int
}

var (
	_ speech.Recognizer = (*Recognizer)(nil)
	_ audio.Sink        = (*Recognizer)(nil)
)

// New returns a recognizer for cfg. No connection is made until Start.
func New(cfg Config) *Recognizer {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	if cfg.PreRoll == 0 {
		cfg.PreRoll = 300 * time.Millisecond
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{
		cfg:    cfg,
		dialer: websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		logger: logger.With("component", "wsrecognizer"),
	}
}

// Subscribe registers a handler for recognition events.
func (r *Recognizer) Subscribe(h speech.RecognitionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// Start opens a connection for a new utterance and replays the pre-roll buffer.
// Starting an already started recognizer is a no-op. The dial runs without
// holding the lock, so Write keeps buffering pre-roll meanwhile.
func (r *Recognizer) Start() error {
	r.mu.Lock()
	if r.current != nil || r.dialing {
		r.mu.Unlock()
		return nil
	}
	r.dialing = true
	gen := r.gen
	r.mu.Unlock()

	u, err := r.dial()

	r.mu.Lock()
	r.dialing = false
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if gen != r.gen {
		// Stop was called while dialing.
		r.mu.Unlock()
		u.conn.Close()
		return nil
	}
	preroll := r.preroll
	r.preroll = nil
	r.preLen = 0
	// Hold the write lock across publish and replay so frames written by
	// Write land after the pre-roll.
	u.writeMu.Lock()
	r.current = u
	r.mu.Unlock()

	for _, f := range preroll {
		if err = u.conn.WriteMessage(websocket.BinaryMessage, audio.Int16ToBytes(f)); err != nil {
			break
		}
	}
	u.writeMu.Unlock()
	if err != nil {
		r.detach(u)
		u.conn.Close()
		return fmt.Errorf("failed to send audio: %w", err)
	}

	go r.readLoop(u)
	return nil
}

// dial connects and sends the config frame.
func (r *Recognizer) dial() (*utterance, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.HandshakeTimeout)
	defer cancel()
	conn, _, err := r.dialer.DialContext(ctx, r.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to recognizer: %w", err)
	}

	u := &utterance{conn: conn}
	cfgMsg, _ := json.Marshal(configMessage{
		Language:   r.cfg.Language,
		DocTitle:   r.cfg.DocTitle,
		SampleRate: r.cfg.SampleRate,
		Encoding:   "pcm_s16le",
	})
	if err := u.write(websocket.TextMessage, cfgMsg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send recognizer config: %w", err)
	}
	return u, nil
}

// Write streams a frame to the active utterance, or keeps it as pre-roll when idle.
func (r *Recognizer) Write(frame []int16) {
	r.mu.Lock()
	u := r.current
	if u == nil {
		r.keepPreRoll(frame)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	if err := u.write(websocket.BinaryMessage, audio.Int16ToBytes(frame)); err != nil {
		// The read loop observes the broken connection and reports it.
		r.logger.Debug("audio write failed", "error", err)
	}
}

func (r *Recognizer) keepPreRoll(frame []int16) {
	limit := int(r.cfg.PreRoll.Seconds() * float64(r.cfg.SampleRate))
	r.preroll = append(r.preroll, frame)
	r.preLen += len(frame)
	for r.preLen > limit && len(r.preroll) > 0 {
		r.preLen -= len(r.preroll[0])
		r.preroll = r.preroll[1:]
	}
}

// Stop ends the current utterance. Final transcripts still in flight are delivered
// until the server closes or DrainTimeout passes. OnEnd is not reported for it.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	u := r.current
	r.current = nil
	r.gen++
	r.mu.Unlock()
	if u == nil {
		return nil
	}

	u.stopped.Store(true)
	_ = u.conn.SetReadDeadline(time.Now().Add(r.cfg.DrainTimeout))
	if err := u.write(websocket.TextMessage, []byte(`{"type":"stop"}`)); err != nil {
		u.conn.Close()
		return fmt.Errorf("failed to stop recognizer: %w", err)
	}
	return nil
}

func (r *Recognizer) readLoop(u *utterance) {
	defer u.conn.Close()
	for {
		_, data, err := u.conn.ReadMessage()
		if err != nil {
			if u.stopped.Load() {
				return
			}
			r.logger.Warn("recognizer connection ended", "error", err)
			r.detach(u)
			r.each(func(h speech.RecognitionHandler) { h.OnEnd() })
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			r.logger.Debug("ignoring malformed recognizer message", "error", err)
			continue
		}

		switch msg.Type {
		case "transcript":
			res := speech.Result{Spans: []speech.Span{{Text: msg.Text, IsFinal: msg.IsFinal}}}
			r.each(func(h speech.RecognitionHandler) { h.OnResult(res) })
		case "error":
			code := msg.Code
			if code == "" {
				code = msg.Message
			}
			u.stopped.Store(true)
			r.detach(u)
			r.each(func(h speech.RecognitionHandler) { h.OnError(code) })
			return
		case "done":
			if u.stopped.Load() {
				return
			}
		}
	}
}

func (r *Recognizer) detach(u *utterance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == u {
		r.current = nil
	}
}

func (r *Recognizer) each(fn func(speech.RecognitionHandler)) {
	r.mu.Lock()
	hs := append([]speech.RecognitionHandler(nil), r.handlers...)
	r.mu.Unlock()
	for _, h := range hs {
		fn(h)
	}
}
