package debounce

import (
	"testing"
	"time"

	"github.com/hpungsan/voxnote/internal/clock"
)

func TestDebouncer_BurstCollapsesToOneCall(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	d := New(500*time.Millisecond, clk, func() { calls++ })

	// Ten triggers within 100ms.
	for i := 0; i < 10; i++ {
		d.Trigger()
		clk.Advance(10 * time.Millisecond)
	}
	if calls != 0 {
		t.Fatalf("calls during burst = %d, want 0", calls)
	}

	clk.Advance(499 * time.Millisecond)
	if calls != 0 {
		t.Fatalf("calls before quiet period elapsed = %d, want 0", calls)
	}
	clk.Advance(time.Second)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if d.Pending() {
		t.Error("Pending() = true after fire")
	}
}

func TestDebouncer_TriggerRestartsDelay(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	var firedAt time.Duration
	start := clk.Now()
	d := New(500*time.Millisecond, clk, func() { firedAt = clk.Now().Sub(start) })

	d.Trigger()
	clk.Advance(400 * time.Millisecond)
	d.Trigger()
	clk.Advance(2 * time.Second)

	if firedAt != 900*time.Millisecond {
		t.Errorf("fired at %v, want 900ms", firedAt)
	}
}

func TestDebouncer_SeparateBurstsFireSeparately(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	d := New(500*time.Millisecond, clk, func() { calls++ })

	d.Trigger()
	clk.Advance(600 * time.Millisecond)
	d.Trigger()
	clk.Advance(600 * time.Millisecond)

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	d := New(500*time.Millisecond, clk, func() { calls++ })

	if d.Flush() {
		t.Error("Flush() with nothing pending = true")
	}

	d.Trigger()
	if !d.Flush() {
		t.Error("Flush() = false, want true")
	}
	if calls != 1 {
		t.Fatalf("calls after Flush = %d, want 1", calls)
	}

	clk.Advance(time.Second)
	if calls != 1 {
		t.Errorf("calls after Advance = %d, want 1 (timer must not fire again)", calls)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	d := New(500*time.Millisecond, clk, func() { calls++ })

	d.Trigger()
	d.Cancel()
	clk.Advance(time.Second)
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}
