// Package speech defines the recognition and voice-activity collaborators of a
// recording session.
package speech

import (
	"context"

	"github.com/hpungsan/voxnote/internal/audio"
)

// Span is one recognition hypothesis. Final spans never change again.
type Span struct {
	Text    string
	IsFinal bool
}

// Result is a recognition event. Spans before ResultIndex were already delivered
// as final and are repeated only for context.
type Result struct {
	ResultIndex int
	Spans       []Span
}

// RecognitionHandler receives recognizer events.
type RecognitionHandler interface {
	OnResult(Result)
	// OnError reports a recognizer failure by its engine error code.
	OnError(code string)
	// OnEnd reports that recognition ended without a Stop call.
	OnEnd()
}

// Recognizer turns speech into text. Start and Stop are called once per utterance
// when voice-activity detection is enabled.
type Recognizer interface {
	Start() error
	Stop() error
	Subscribe(RecognitionHandler)
}

// VADHandler receives voice-activity transitions.
type VADHandler interface {
	OnSpeechStart()
	// OnSpeechEnd delivers the utterance as PCM16LE bytes.
	OnSpeechEnd(chunk []byte)
}

// VAD detects speech boundaries on a microphone stream.
type VAD interface {
	Start(ctx context.Context, stream audio.Stream) error
	Stop() error
	Subscribe(VADHandler)
}
