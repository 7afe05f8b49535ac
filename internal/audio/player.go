package audio

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

// Player plays retained audio from a segment timestamp.
type Player interface {
	Load(path string) error
	Seek(ms int64) error
	Stop() error
}

// ReadWAV decodes a mono 16-bit WAV file written by WriteWAV.
func ReadWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s is not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if dec.BitDepth != 16 || dec.NumChans != 1 {
		return nil, 0, fmt.Errorf("unsupported wav format: %d-bit, %d channels", dec.BitDepth, dec.NumChans)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, int(dec.SampleRate), nil
}

// SampleOffset converts a millisecond position to a sample index clamped to n.
func SampleOffset(ms int64, rate, n int) int {
	if ms <= 0 {
		return 0
	}
	off := int(ms * int64(rate) / 1000)
	if off > n {
		return n
	}
	return off
}

// PortAudioPlayer plays a loaded WAV file on the default output device.
type PortAudioPlayer struct {
	FramesPerBuffer int

	mu      sync.Mutex
	samples []int16
	rate    int
	stop    chan struct{}
	done    chan struct{}
}

// Load decodes path and stops any playback in progress.
func (p *PortAudioPlayer) Load(path string) error {
	samples, rate, err := ReadWAV(path)
	if err != nil {
		return err
	}
	if err := p.Stop(); err != nil {
		return err
	}
	p.mu.Lock()
	p.samples, p.rate = samples, rate
	p.mu.Unlock()
	return nil
}

// Seek restarts playback at ms.
func (p *PortAudioPlayer) Seek(ms int64) error {
	if err := p.Stop(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.samples == nil {
		return fmt.Errorf("no audio loaded")
	}

	frames := p.FramesPerBuffer
	if frames == 0 {
		frames = DefaultFramesPerBuffer
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	out := make([]int16, frames)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(p.rate), frames, out)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start output stream: %w", err)
	}

	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go playLoop(stream, out, p.samples[SampleOffset(ms, p.rate, len(p.samples)):], p.stop, p.done)
	return nil
}

func playLoop(stream *portaudio.Stream, out, samples []int16, stop, done chan struct{}) {
	defer close(done)
	defer portaudio.Terminate()
	defer stream.Close()
	defer stream.Stop()

	for len(samples) > 0 {
		select {
		case <-stop:
			return
		default:
		}
		n := copy(out, samples)
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
		samples = samples[n:]
		if err := stream.Write(); err != nil {
			return
		}
	}
}

// Stop ends playback and waits for the device to be released.
func (p *PortAudioPlayer) Stop() error {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}
