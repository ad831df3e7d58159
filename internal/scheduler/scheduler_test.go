package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestScheduleFiresAtTime(t *testing.T) {
	mock := clock.NewMock()
	s := NewWithClock(mock)

	var fired atomic.Int32
	at := mock.Now().Add(2 * time.Hour)
	if !s.Schedule("u1", at, func() { fired.Add(1) }) {
		t.Fatal("schedule refused a future time")
	}

	mock.Add(time.Hour)
	if fired.Load() != 0 {
		t.Fatal("fired an hour early")
	}

	mock.Add(time.Hour)
	if fired.Load() != 1 {
		t.Fatalf("fired %d times, want 1", fired.Load())
	}
	if s.Pending("u1") {
		t.Fatal("job still pending after firing")
	}

	// One-shot: nothing more fires.
	mock.Add(24 * time.Hour)
	if fired.Load() != 1 {
		t.Fatalf("fired %d times after firing once", fired.Load())
	}
}

func TestRescheduleReplacesPendingJob(t *testing.T) {
	mock := clock.NewMock()
	s := NewWithClock(mock)

	var old, replacement atomic.Int32
	s.Schedule("u1", mock.Now().Add(time.Hour), func() { old.Add(1) })
	s.Schedule("u1", mock.Now().Add(3*time.Hour), func() { replacement.Add(1) })

	// The original deadline passes without the old job firing.
	mock.Add(2 * time.Hour)
	if old.Load() != 0 {
		t.Fatal("replaced job fired")
	}

	mock.Add(time.Hour)
	if replacement.Load() != 1 {
		t.Fatalf("replacement fired %d times, want 1", replacement.Load())
	}
}

func TestCancelStopsJob(t *testing.T) {
	mock := clock.NewMock()
	s := NewWithClock(mock)

	var fired atomic.Int32
	s.Schedule("u1", mock.Now().Add(time.Hour), func() { fired.Add(1) })
	s.Cancel("u1")

	mock.Add(2 * time.Hour)
	if fired.Load() != 0 {
		t.Fatal("cancelled job fired")
	}
	if s.Pending("u1") {
		t.Fatal("cancelled job still pending")
	}

	// Cancelling an unknown key is a no-op.
	s.Cancel("nobody")
}

func TestScheduleRefusesPastTimes(t *testing.T) {
	mock := clock.NewMock()
	s := NewWithClock(mock)

	if s.Schedule("u1", mock.Now().Add(-time.Minute), func() {}) {
		t.Fatal("scheduled a job in the past")
	}
	if s.Schedule("u1", mock.Now(), func() {}) {
		t.Fatal("scheduled a job for the present instant")
	}
	if s.Pending("u1") {
		t.Fatal("refused job left pending state behind")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	mock := clock.NewMock()
	s := NewWithClock(mock)

	var a, b atomic.Int32
	s.Schedule("a", mock.Now().Add(time.Hour), func() { a.Add(1) })
	s.Schedule("b", mock.Now().Add(time.Hour), func() { b.Add(1) })
	s.Cancel("a")

	mock.Add(time.Hour)
	if a.Load() != 0 {
		t.Fatal("cancelled key fired")
	}
	if b.Load() != 1 {
		t.Fatalf("independent key fired %d times, want 1", b.Load())
	}
}
