package server

import (
	"testing"
	"time"
)

type expiredCall struct {
	sessionIndex int
	sessionSeq   uint64
}

func TestLoginWatcherExpiresOnSweep(t *testing.T) {
	var calls []expiredCall
	w := newLoginWatcher(true, 20*time.Millisecond, func(idx int, seq uint64) {
		calls = append(calls, expiredCall{idx, seq})
	})

	w.track(3, 77)
	w.sweep()
	if len(calls) != 0 {
		t.Fatalf("expired before the deadline: %v", calls)
	}

	time.Sleep(50 * time.Millisecond)
	w.sweep()
	if len(calls) != 1 || calls[0] != (expiredCall{3, 77}) {
		t.Fatalf("expected one expiry for {3, 77}, got %v", calls)
	}

	// Entries fire once.
	w.sweep()
	if len(calls) != 1 {
		t.Fatalf("entry expired twice: %v", calls)
	}
}

func TestLoginWatcherSettleSuppressesExpiry(t *testing.T) {
	var calls []expiredCall
	w := newLoginWatcher(true, 20*time.Millisecond, func(idx int, seq uint64) {
		calls = append(calls, expiredCall{idx, seq})
	})

	w.track(3, 77)
	w.settle(3, 77)

	time.Sleep(50 * time.Millisecond)
	w.sweep()
	if len(calls) != 0 {
		t.Fatalf("settled session expired: %v", calls)
	}
}

// A settle carrying a stale seq belongs to a previous occupant of the slot
// and must not clear the current occupant's clock.
func TestLoginWatcherSettleChecksSeq(t *testing.T) {
	var calls []expiredCall
	w := newLoginWatcher(true, 20*time.Millisecond, func(idx int, seq uint64) {
		calls = append(calls, expiredCall{idx, seq})
	})

	w.track(3, 77)
	w.settle(3, 76)

	time.Sleep(50 * time.Millisecond)
	w.sweep()
	if len(calls) != 1 {
		t.Fatalf("expected the current occupant to expire, got %v", calls)
	}
}

func TestLoginWatcherDisabled(t *testing.T) {
	w := newLoginWatcher(false, time.Millisecond, func(int, uint64) {
		t.Fatal("disabled watcher reported an expiry")
	})
	w.track(1, 1)
	w.settle(1, 1)
	w.sweep()
}
