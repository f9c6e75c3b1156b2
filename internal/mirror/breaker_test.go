package mirror

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(2, 100*time.Millisecond, testLogger())
	boom := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		if err := b.Execute(func() error { return boom }); err != boom {
			t.Fatalf("attempt %d: expected backend error, got %v", i, err)
		}
	}

	if b.State() != "open" {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	// While open, calls are rejected without reaching the backend.
	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != ErrMirrorUnavailable {
		t.Fatalf("expected ErrMirrorUnavailable, got %v", err)
	}
	if called {
		t.Fatal("backend was called while breaker open")
	}
}

func TestBreakerRecoversAfterCooldown(t *testing.T) {
	b := NewBreaker(1, 20*time.Millisecond, testLogger())

	if err := b.Execute(func() error { return errors.New("boom") }); err == nil {
		t.Fatal("expected failure to open breaker")
	}
	if b.State() != "open" {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	time.Sleep(30 * time.Millisecond)

	// First call after the cooldown probes the backend and closes on success.
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected probe to succeed, got %v", err)
	}
	if b.State() != "closed" {
		t.Fatalf("expected closed breaker, got %s", b.State())
	}
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	b := NewBreaker(1, 20*time.Millisecond, testLogger())

	b.Execute(func() error { return errors.New("boom") })
	time.Sleep(30 * time.Millisecond)

	if err := b.Execute(func() error { return errors.New("still down") }); err == nil {
		t.Fatal("expected probe failure")
	}
	if b.State() != "open" {
		t.Fatalf("expected breaker to reopen, got %s", b.State())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(2, time.Second, testLogger())
	boom := errors.New("flaky")

	// Alternating failures never accumulate to the threshold.
	for i := 0; i < 5; i++ {
		b.Execute(func() error { return boom })
		b.Execute(func() error { return nil })
	}

	if b.State() != "closed" {
		t.Fatalf("expected closed breaker, got %s", b.State())
	}
}
