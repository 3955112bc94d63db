package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "Senior Go Engineer", limit: 0, expect: ""},
		{name: "shorter than limit", input: "Go", limit: 10, expect: "Go"},
		{name: "truncates", input: "Requirements: React", limit: 12, expect: "Requirements..."},
		{name: "counts runes", input: "zażółć gęślą", limit: 6, expect: "zażółć..."},
		{name: "trims whitespace", input: "  \n{}\t ", limit: 5, expect: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestWaitWith(t *testing.T) {
	var slept time.Duration
	err := WaitWith(context.Background(), 3*time.Second, func(d time.Duration) { slept = d })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != 3*time.Second {
		t.Fatalf("expected 3s sleep, got %s", slept)
	}
}

func TestWaitWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	defer close(block)

	err := WaitWith(ctx, time.Minute, func(time.Duration) { <-block })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if err := WaitFor(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected zero wait to report cancellation, got %v", err)
	}
}
