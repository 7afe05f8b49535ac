package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/hpungsan/voxnote/internal/audio"
)

type webrtcEngine struct {
	vad        *webrtcvad.VAD
	sampleRate int
}

func newWebRTC(sampleRate, mode int) (*webrtcEngine, error) {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("invalid sample rate %d, must be one of 8000, 16000, 32000, 48000", sampleRate)
	}
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}
	return &webrtcEngine{vad: v, sampleRate: sampleRate}, nil
}

// IsSpeech classifies one 10ms frame.
func (w *webrtcEngine) IsSpeech(frame []int16) (bool, error) {
	// WebRTC accepts 10, 20 or 30ms frames.
	n := len(frame)
	if n != w.sampleRate/100 && n != w.sampleRate/50 && n != w.sampleRate*3/100 {
		return false, fmt.Errorf("invalid frame: %d samples at %d Hz", n, w.sampleRate)
	}
	return w.vad.Process(w.sampleRate, audio.Int16ToBytes(frame))
}
