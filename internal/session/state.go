package session

import (
	"time"

	"github.com/hpungsan/voxnote/internal/transcript"
)

// State is the recording state.
type State int

const (
	Idle State = iota
	Initializing
	Listening
	Speaking
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Listening:
		return "listening"
	case Speaking:
		return "speaking"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Active reports whether a session holds the microphone.
func (s State) Active() bool {
	return s == Initializing || s == Listening || s == Speaking
}

// Outcome describes how a session ended.
type Outcome string

const (
	OutcomeCaptured         Outcome = "captured"
	OutcomeNothingCaptured  Outcome = "nothing_captured"
	OutcomeConnectionLost   Outcome = "connection_lost"
	OutcomeRecognitionError Outcome = "recognition_error"
)

// Summary is the record of a finished session.
type Summary struct {
	SessionID string
	Outcome   Outcome
	// Err is set for connection_lost and recognition_error
	Err       error
	Segments  int
	StartedAt time.Time
	StoppedAt time.Time
	// AudioChunks holds retained PCM16LE utterances, in order, when audio retention is on
	AudioChunks [][]byte
}

// EventKind identifies a controller notification.
type EventKind int

const (
	EventState EventKind = iota
	EventSegment
	EventInterim
	EventStopped
)

// Event is delivered to Deps.OnEvent on the controller's goroutine.
type Event struct {
	Kind    EventKind
	State   State
	Segment transcript.Segment
	Interim string
	Summary *Summary
}
