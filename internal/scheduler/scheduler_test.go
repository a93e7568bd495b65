package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRejectsInvalidExpressions(t *testing.T) {
	for _, expr := range []string{"", "not a cron", "99 * * * *", "* * *"} {
		if _, err := New(expr, func(context.Context) {}); err == nil {
			t.Errorf("New(%q) accepted an invalid expression", expr)
		}
	}
}

func TestNewAcceptsStandardExpressions(t *testing.T) {
	for _, expr := range []string{"* * * * *", "*/15 * * * *", "0 9 * * 1", "@hourly"} {
		if _, err := New(expr, func(context.Context) {}); err != nil {
			t.Errorf("New(%q): %v", expr, err)
		}
	}
}

func TestTriggerNowRunsJob(t *testing.T) {
	var calls atomic.Int64
	s, err := New("* * * * *", func(context.Context) { calls.Add(1) })
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.TriggerNow(context.Background()); err != nil {
		t.Fatalf("TriggerNow: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("job ran %d times, want 1", calls.Load())
	}
}

func TestTriggerNowRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s, err := New("* * * * *", func(context.Context) {
		close(started)
		<-release
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	go func() {
		_ = s.TriggerNow(context.Background())
	}()
	<-started

	if err := s.TriggerNow(context.Background()); !errors.Is(err, ErrRunInFlight) {
		t.Errorf("overlapping trigger err = %v, want ErrRunInFlight", err)
	}
	close(release)
}

func TestScheduledFiringSkipsWhileRunInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int64
	s, err := New("* * * * *", func(context.Context) {
		calls.Add(1)
		close(started)
		<-release
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	go func() { _ = s.TriggerNow(context.Background()) }()
	<-started

	// A scheduled firing arriving now must be dropped, not queued.
	s.fire()
	if calls.Load() != 1 {
		t.Fatalf("job ran %d times, want 1", calls.Load())
	}
	close(release)
}

func TestStartStop(t *testing.T) {
	s, err := New("* * * * *", func(context.Context) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	s.Stop()
}
