package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"github.com/hpungsan/voxnote/internal/audio"
	"github.com/hpungsan/voxnote/internal/audio/audiotest"
)

func TestPCMConversionRoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 1234}
	b := audio.Int16ToBytes(in)
	if len(b) != 12 {
		t.Fatalf("len(bytes) = %d, want 12", len(b))
	}
	if b[2] != 0x01 || b[3] != 0x00 {
		t.Errorf("not little-endian: % x", b[2:4])
	}
	out := audio.BytesToInt16(append(b, 0xff))
	if len(out) != len(in) {
		t.Fatalf("len(samples) = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d = %d, want %d", i, out[i], in[i])
		}
	}
}

func TestRMS(t *testing.T) {
	if got := audio.RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
	if got := audio.RMS([]int16{0, 0, 0}); got != 0 {
		t.Errorf("RMS(silence) = %v, want 0", got)
	}
	got := audio.RMS([]int16{16384, -16384})
	if got < 0.49 || got > 0.51 {
		t.Errorf("RMS(half scale) = %v, want ~0.5", got)
	}
}

func TestPump(t *testing.T) {
	stream := audiotest.NewStream(16000)
	sink := &audiotest.Sink{}

	stream.Send([]int16{1})
	stream.Send([]int16{2})
	stream.Close()

	audio.Pump(context.Background(), stream, sink)

	frames := sink.Frames()
	if len(frames) != 2 || frames[0][0] != 1 || frames[1][0] != 2 {
		t.Errorf("sink frames = %v, want [[1] [2]]", frames)
	}
}

func TestMeter_ForwardsAndCloses(t *testing.T) {
	src := audiotest.NewStream(16000)
	m := audio.NewMeter(src)

	src.Send([]int16{16384, -16384})
	select {
	case f := <-m.Frames():
		if len(f) != 2 {
			t.Fatalf("forwarded frame = %v", f)
		}
	case <-time.After(time.Second):
		t.Fatal("frame not forwarded")
	}
	if lvl := m.Level(); lvl < 0.49 || lvl > 0.51 {
		t.Errorf("Level() = %v, want ~0.5", lvl)
	}
	if m.SampleRate() != 16000 {
		t.Errorf("SampleRate() = %d", m.SampleRate())
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if !src.Closed() {
		t.Error("source stream not closed")
	}
	if m.Level() != 0 {
		t.Errorf("Level() after Close = %v, want 0", m.Level())
	}
}

func TestMeter_DoneWhenSourceEnds(t *testing.T) {
	src := audiotest.NewStream(16000)
	m := audio.NewMeter(src)

	src.Close()
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after source ended")
	}
	if _, ok := <-m.Frames(); ok {
		t.Error("Frames() still open after source ended")
	}
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	chunks := [][]byte{
		audio.Int16ToBytes([]int16{1, 2, 3}),
		audio.Int16ToBytes([]int16{4, 5}),
	}

	if err := audio.WriteWAV(path, 16000, chunks); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("IsValidFile() = false")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	if dec.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", dec.SampleRate)
	}
	want := []int{1, 2, 3, 4, 5}
	if len(buf.Data) != len(want) {
		t.Fatalf("samples = %v, want %v", buf.Data, want)
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestReadWAV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	want := []int16{0, 1000, -1000, 32767, -32768}
	if err := audio.WriteWAV(path, 16000, [][]byte{audio.Int16ToBytes(want)}); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	got, rate, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d, want 16000", rate)
	}
	if len(got) != len(want) {
		t.Fatalf("samples = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSampleOffset(t *testing.T) {
	tests := []struct {
		ms   int64
		rate int
		n    int
		want int
	}{
		{0, 16000, 100, 0},
		{-5, 16000, 100, 0},
		{1, 16000, 100, 16},
		{1000, 16000, 100, 100},
	}
	for _, tt := range tests {
		if got := audio.SampleOffset(tt.ms, tt.rate, tt.n); got != tt.want {
			t.Errorf("SampleOffset(%d, %d, %d) = %d, want %d", tt.ms, tt.rate, tt.n, got, tt.want)
		}
	}
}
