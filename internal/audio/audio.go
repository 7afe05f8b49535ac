// Package audio captures microphone PCM and stores retained utterances.
package audio

import (
	"context"
	"encoding/binary"
)

// DefaultSampleRate is the capture rate used by VAD and recognition.
const DefaultSampleRate = 16000

// Stream is an open microphone stream delivering mono 16-bit PCM frames.
// Frames is closed when the stream ends.
type Stream interface {
	Frames() <-chan []int16
	SampleRate() int
	Close() error
}

// Microphone acquires an input stream. Open fails when the device is unavailable
// or access is refused.
type Microphone interface {
	Open(ctx context.Context) (Stream, error)
}

// Sink receives PCM frames, e.g. a streaming recognizer.
type Sink interface {
	Write(frame []int16)
}

// Int16ToBytes converts samples to little-endian PCM16 bytes.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// BytesToInt16 converts little-endian PCM16 bytes to samples. A trailing odd byte is dropped.
func BytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

// Pump forwards every frame of stream to sink until the stream ends or ctx is done.
func Pump(ctx context.Context, stream Stream, sink Sink) {
	frames := stream.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			sink.Write(f)
		}
	}
}
