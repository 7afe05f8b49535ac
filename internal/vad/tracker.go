package vad

import (
	"time"

	"github.com/hpungsan/voxnote/internal/audio"
)

type event int

const (
	eventNone event = iota
	eventStart
	eventEnd
)

// tracker turns per-frame decisions into speech start/end events.
// Durations are measured in audio time, not wall time.
type tracker struct {
	frameDur  time.Duration
	hangover  time.Duration
	minSpeech time.Duration

	speaking bool
	voiced   time.Duration
	silence  time.Duration
	lead     [][]int16
	chunk    []byte
}

func newTracker(cfg Config) *tracker {
	return &tracker{
		frameDur:  10 * time.Millisecond,
		hangover:  cfg.Hangover,
		minSpeech: cfg.MinSpeech,
	}
}

func (t *tracker) update(frame []int16, voiced bool) event {
	if !t.speaking {
		if !voiced {
			t.voiced = 0
			t.lead = t.lead[:0]
			return eventNone
		}
		t.voiced += t.frameDur
		t.lead = append(t.lead, append([]int16(nil), frame...))
		if t.voiced < t.minSpeech {
			return eventNone
		}
		t.speaking = true
		t.silence = 0
		for _, f := range t.lead {
			t.chunk = append(t.chunk, audio.Int16ToBytes(f)...)
		}
		t.lead = t.lead[:0]
		return eventStart
	}

	t.chunk = append(t.chunk, audio.Int16ToBytes(frame)...)
	if voiced {
		t.silence = 0
		return eventNone
	}
	t.silence += t.frameDur
	if t.silence < t.hangover {
		return eventNone
	}
	t.speaking = false
	t.voiced = 0
	return eventEnd
}

func (t *tracker) takeChunk() []byte {
	c := t.chunk
	t.chunk = nil
	return c
}
