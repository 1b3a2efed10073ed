package app

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestSchedulerTickRunsDueTasks(t *testing.T) {
	s := NewScheduler(log.New(io.Discard))
	runs := 0
	if err := s.Register("count", time.Second, func(time.Time) { runs++ }); err != nil {
		t.Fatalf("Register: %v", err)
	}

	start := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.Tick(start)
	if runs != 1 {
		t.Fatalf("first tick runs = %d, want 1", runs)
	}

	// Same instant again: idempotent, nothing due.
	s.Tick(start)
	if runs != 1 {
		t.Fatalf("repeated tick runs = %d, want 1", runs)
	}

	s.Tick(start.Add(500 * time.Millisecond))
	if runs != 1 {
		t.Fatalf("early tick runs = %d, want 1", runs)
	}

	s.Tick(start.Add(time.Second))
	if runs != 2 {
		t.Fatalf("due tick runs = %d, want 2", runs)
	}
}

func TestSchedulerRejectsDuplicateNames(t *testing.T) {
	s := NewScheduler(log.New(io.Discard))
	if err := s.Register("tick", time.Second, func(time.Time) {}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register("tick", time.Second, func(time.Time) {}); err == nil {
		t.Fatal("duplicate registration accepted")
	}
}

func TestSchedulerRejectsBadIntervals(t *testing.T) {
	s := NewScheduler(log.New(io.Discard))
	if err := s.Register("bad", 0, func(time.Time) {}); err == nil {
		t.Fatal("zero interval accepted")
	}
	if err := s.Register("", time.Second, func(time.Time) {}); err == nil {
		t.Fatal("empty name accepted")
	}
}

func TestSchedulerPanicDoesNotStopOthers(t *testing.T) {
	s := NewScheduler(log.New(io.Discard))
	ran := false
	if err := s.Register("boom", time.Second, func(time.Time) { panic("boom") }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register("steady", time.Second, func(time.Time) { ran = true }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.Tick(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	if !ran {
		t.Fatal("panicking task stopped the others")
	}
}
