// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"testing"
	"time"
)

func TestFakeClock_Now(t *testing.T) {
	t.Parallel()

	initial := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(initial)

	if got := clock.Now(); !got.Equal(initial) {
		t.Errorf("FakeClock.Now() = %v, want %v", got, initial)
	}
}

func TestFakeClock_ZeroDefault(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	if want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC); !clock.Now().Equal(want) {
		t.Errorf("NewFakeClock(zero).Now() = %v, want %v", clock.Now(), want)
	}
}

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	start := clock.Now()

	clock.Advance(90 * time.Second)
	if got := clock.Now().Sub(start); got != 90*time.Second {
		t.Errorf("after Advance, elapsed = %v, want 90s", got)
	}

	target := time.Date(2030, 3, 1, 8, 0, 0, 0, time.UTC)
	clock.Set(target)
	if !clock.Now().Equal(target) {
		t.Errorf("after Set, Now() = %v, want %v", clock.Now(), target)
	}
}

func TestFakeClock_ConcurrentAdvance(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	start := clock.Now()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
		}()
	}
	wg.Wait()

	if got := clock.Now().Sub(start); got != 50*time.Second {
		t.Errorf("elapsed = %v, want 50s", got)
	}
}
