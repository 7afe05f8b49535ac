package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// DefaultFramesPerBuffer is 20ms at 16kHz.
const DefaultFramesPerBuffer = 320

// PortAudioMicrophone opens the default (or a named) input device through PortAudio.
type PortAudioMicrophone struct {
	SampleRate      int
	FramesPerBuffer int
	DeviceName      string
}

// Open initializes PortAudio and starts capturing. The returned stream owns the
// PortAudio session; Close terminates it.
func (m *PortAudioMicrophone) Open(ctx context.Context) (Stream, error) {
	rate := m.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}
	frames := m.FramesPerBuffer
	if frames == 0 {
		frames = rate / 50
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	buf := make([]int16, frames)
	stream, err := m.openStream(rate, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &paStream{
		stream: stream,
		rate:   rate,
		out:    make(chan []int16, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.captureLoop(ctx, buf)
	return s, nil
}

func (m *PortAudioMicrophone) openStream(rate int, buf []int16) (*portaudio.Stream, error) {
	if m.DeviceName == "" || m.DeviceName == "default" {
		return portaudio.OpenDefaultStream(1, 0, float64(rate), len(buf), buf)
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == m.DeviceName && dev.MaxInputChannels > 0 {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   dev,
					Channels: 1,
					Latency:  dev.DefaultLowInputLatency,
				},
				SampleRate:      float64(rate),
				FramesPerBuffer: len(buf),
			}
			return portaudio.OpenStream(params, buf)
		}
	}
	return nil, fmt.Errorf("input device not found: %s", m.DeviceName)
}

type paStream struct {
	stream    *portaudio.Stream
	rate      int
	out       chan []int16
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func (s *paStream) Frames() <-chan []int16 { return s.out }
func (s *paStream) SampleRate() int        { return s.rate }

func (s *paStream) captureLoop(ctx context.Context, buf []int16) {
	defer close(s.done)
	defer close(s.out)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.stream.Read(); err != nil {
			// Input overflow is recoverable; anything after cancel ends the loop.
			if ctx.Err() != nil {
				return
			}
			continue
		}
		frame := make([]int16, len(buf))
		copy(frame, buf)
		select {
		case s.out <- frame:
		case <-ctx.Done():
			return
		default:
			// Consumer is behind; drop the frame rather than block capture.
		}
	}
}

// Close stops capture and releases the device. Safe to call more than once.
func (s *paStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.stream.Stop()
		<-s.done
		err = s.stream.Close()
		if tErr := portaudio.Terminate(); err == nil {
			err = tErr
		}
	})
	return err
}
