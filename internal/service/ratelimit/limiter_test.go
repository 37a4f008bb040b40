package ratelimit

import (
	"testing"
	"time"
)

func TestAllowRefill(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("alphavantage", 2, 0.5) {
			t.Fatalf("call %d denied within capacity", i)
		}
	}
	if l.Allow("alphavantage", 2, 0.5) {
		t.Fatal("third call should be denied")
	}
	if !l.Allow("yahoo", 2, 0.5) {
		t.Fatal("keys must not share a bucket")
	}

	now = now.Add(2 * time.Second)
	if !l.Allow("alphavantage", 2, 0.5) {
		t.Fatal("bucket should have refilled one token")
	}
	if l.Allow("alphavantage", 2, 0.5) {
		t.Fatal("only one token should have been refilled")
	}
}

func TestZeroCapacityDisables(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		if !l.Allow("k", 0, 0) {
			t.Fatal("zero capacity must not limit")
		}
	}
}
