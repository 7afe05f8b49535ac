package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV writes PCM16LE chunks as one mono WAV file. Chunks are concatenated in order.
func WriteWAV(path string, sampleRate int, chunks [][]byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = cErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	format := &goaudio.Format{NumChannels: 1, SampleRate: sampleRate}
	for _, chunk := range chunks {
		samples := BytesToInt16(chunk)
		data := make([]int, len(samples))
		for i, s := range samples {
			data[i] = int(s)
		}
		buf := &goaudio.IntBuffer{Format: format, Data: data, SourceBitDepth: 16}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("write wav: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}
