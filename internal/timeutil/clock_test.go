package timeutil

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}
	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() moved without Advance: %v", got)
	}

	clock.Advance(250 * time.Millisecond)
	if d := clock.Since(start); d != 250*time.Millisecond {
		t.Errorf("Since() = %v, want 250ms", d)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewSteppingClock(start, 5*time.Millisecond)

	t0 := clock.Now()
	if d := clock.Since(t0); d != 5*time.Millisecond {
		t.Errorf("Since() = %v, want 5ms", d)
	}
	if got := clock.Now(); !got.Equal(start.Add(10 * time.Millisecond)) {
		t.Errorf("third reading = %v", got)
	}
}

func TestMockClock_Concurrent(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Advance(time.Millisecond)
				_ = clock.Now()
			}
		}()
	}
	wg.Wait()

	if got := clock.Now(); !got.Equal(time.Unix(0, 0).Add(time.Second)) {
		t.Errorf("Now() = %v, want 1s after epoch", got)
	}
}

var _ Clock = RealClock{}
var _ Clock = (*MockClock)(nil)
