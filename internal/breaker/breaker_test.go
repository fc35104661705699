package breaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func TestCall_PassesResult(t *testing.T) {
	b := New("test", DefaultSettings())

	got, err := Call(b, func() (string, error) {
		return "hola", nil
	})
	if err != nil {
		t.Fatalf("Call() unexpected error: %v", err)
	}
	if got != "hola" {
		t.Errorf("Call() = %q, want %q", got, "hola")
	}
}

func TestCall_NilBreaker(t *testing.T) {
	got, err := Call[int](nil, func() (int, error) {
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Errorf("Call() = %d, %v, want 7, nil", got, err)
	}
}

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b := New("tripping", Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	failure := errors.New("backend down")

	calls := 0
	for i := 0; i < 2; i++ {
		err := b.Do(func() error {
			calls++
			return failure
		})
		if !errors.Is(err, failure) {
			t.Fatalf("Expected backend error, got %v", err)
		}
	}

	err := b.Do(func() error {
		calls++
		return nil
	})
	if !IsOpen(err) {
		t.Errorf("Expected open breaker error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 backend calls, got %d", calls)
	}
}

func TestBreaker_CallerErrorsDoNotTrip(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		err  error
	}{
		{"rejected input", &StatusError{Service: "translation service", StatusCode: http.StatusBadRequest}},
		{"wrapped rejection", fmt.Errorf("google: %w", &StatusError{Service: "tts", StatusCode: http.StatusNotFound})},
		{"openai rejection", &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "invalid image"}},
		{"cancelled request", fmt.Errorf("call failed: %w", cancelled.Err())},
		{"expired deadline", context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("caller-errors", Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

			for i := 0; i < 5; i++ {
				if err := b.Do(func() error { return tt.err }); IsOpen(err) {
					t.Fatalf("Breaker opened after %d caller errors", i)
				}
			}

			called := false
			if err := b.Do(func() error { called = true; return nil }); err != nil || !called {
				t.Errorf("Healthy call was rejected: %v", err)
			}
		})
	}
}

func TestBreaker_BackendErrorsTrip(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"server error", &StatusError{Service: "inference server", StatusCode: http.StatusBadGateway}},
		{"rate limited", &StatusError{Service: "translation service", StatusCode: http.StatusTooManyRequests}},
		{"openai outage", &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable}},
		{"transport", errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("backend-errors", Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})
			_ = b.Do(func() error { return tt.err })
			_ = b.Do(func() error { return tt.err })

			if err := b.Do(func() error { return nil }); !IsOpen(err) {
				t.Errorf("Expected open breaker, got %v", err)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Service: "speech service", StatusCode: 503}
	if err.Error() != "speech service returned status 503" {
		t.Errorf("Error() = %q", err.Error())
	}

	err.Body = "overloaded"
	if err.Error() != "speech service returned status 503: overloaded" {
		t.Errorf("Error() = %q", err.Error())
	}
}
