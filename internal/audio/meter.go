package audio

import (
	"math"
	"sync"
	"sync/atomic"
)

// Meter taps a stream and tracks its input level for a visualizer.
// The tapped stream must be consumed in place of the original.
type Meter struct {
	src   Stream
	out   chan []int16
	level atomic.Uint64
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewMeter starts metering src and returns the meter, which is itself a Stream.
func NewMeter(src Stream) *Meter {
	m := &Meter{
		src:  src,
		out:  make(chan []int16, cap(src.Frames())+1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go m.loop()
	return m
}

func (m *Meter) loop() {
	defer close(m.done)
	defer close(m.out)
	in := m.src.Frames()
	for {
		select {
		case <-m.stop:
			return
		case f, ok := <-in:
			if !ok {
				return
			}
			m.level.Store(math.Float64bits(RMS(f)))
			select {
			case m.out <- f:
			case <-m.stop:
				return
			}
		}
	}
}

// Level returns the RMS of the latest frame, normalized to 0..1.
func (m *Meter) Level() float64 {
	return math.Float64frombits(m.level.Load())
}

// Frames returns the forwarded frames.
func (m *Meter) Frames() <-chan []int16 { return m.out }

// Done is closed once metering has stopped, either because Close was called
// or because the source stream ended.
func (m *Meter) Done() <-chan struct{} { return m.done }

// SampleRate returns the source sample rate.
func (m *Meter) SampleRate() int { return m.src.SampleRate() }

// Close stops metering and closes the source stream. Safe to call more than once.
func (m *Meter) Close() error {
	var err error
	m.once.Do(func() {
		close(m.stop)
		<-m.done
		m.level.Store(0)
		err = m.src.Close()
	})
	return err
}

// RMS returns the root-mean-square amplitude of a frame, normalized to 0..1.
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s) / 32768
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}
