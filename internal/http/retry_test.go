package http

import (
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// TestNewRetryClient_SucceedsAfterFailures verifies fail, fail, succeed with 3 attempts.
func TestNewRetryClient_SucceedsAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(nethttp.StatusBadGateway)
			return
		}
		w.WriteHeader(nethttp.StatusCreated)
	}))
	defer srv.Close()

	policy := RetryPolicy{Attempts: 3, Delay: 20 * time.Millisecond}
	rc := NewRetryClient(srv.Client(), policy, nil)

	req, err := retryablehttp.NewRequest("POST", srv.URL, []byte("body"))
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 POSTs, got %d", got)
	}
	if elapsed := time.Since(start); elapsed < 2*policy.Delay {
		t.Errorf("expected at least %v of delay, took %v", 2*policy.Delay, elapsed)
	}
}

// TestNewRetryClient_ExhaustedReturnsLastResponse verifies the final status is handed back.
func TestNewRetryClient_ExhaustedReturnsLastResponse(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(nethttp.StatusBadRequest)
		io.WriteString(w, "bad document")
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), RetryPolicy{Attempts: 2, Delay: time.Millisecond}, nil)
	req, _ := retryablehttp.NewRequest("POST", srv.URL, []byte("x"))

	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "bad document" {
		t.Errorf("body = %q", body)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 POSTs, got %d", got)
	}
}

// TestNewRetryClient_SingleAttempt verifies the default policy never retries.
func TestNewRetryClient_SingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), DefaultRetryPolicy(), nil)
	req, _ := retryablehttp.NewRequest("POST", srv.URL, nil)
	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 POST, got %d", got)
	}
}

// TestNewRetryClient_ContextCancelledDuringSleep verifies cancellation ends the wait early.
func TestNewRetryClient_ContextCancelledDuringSleep(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rc := NewRetryClient(srv.Client(), RetryPolicy{Attempts: 5, Delay: 5 * time.Second}, nil)
	req, _ := retryablehttp.NewRequestWithContext(ctx, "POST", srv.URL, nil)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := rc.Do(req)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expected quick return after cancel, took %v", elapsed)
	}
}

func TestCheckRetry(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name      string
		ctx       context.Context
		status    int
		err       error
		wantRetry bool
		wantErr   bool
	}{
		{"ok", context.Background(), 200, nil, false, false},
		{"created", context.Background(), 201, nil, false, false},
		{"client error", context.Background(), 400, nil, true, false},
		{"server error", context.Background(), 503, nil, true, false},
		{"transport error", context.Background(), 0, errors.New("connection refused"), true, false},
		{"cancelled", cancelled, 0, errors.New("canceled"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *nethttp.Response
			if tt.err == nil {
				resp = &nethttp.Response{StatusCode: tt.status}
			}
			retry, err := CheckRetry(tt.ctx, resp, tt.err)
			if retry != tt.wantRetry {
				t.Errorf("retry = %v, want %v", retry, tt.wantRetry)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryPolicyValidate(t *testing.T) {
	tests := []struct {
		policy  RetryPolicy
		wantErr bool
	}{
		{RetryPolicy{Attempts: 1}, false},
		{RetryPolicy{Attempts: 3, Delay: time.Second}, false},
		{RetryPolicy{Attempts: 0}, true},
		{RetryPolicy{Attempts: 100}, true},
		{RetryPolicy{Attempts: 1, Delay: -time.Second}, true},
	}
	for _, tt := range tests {
		if err := tt.policy.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.policy, err, tt.wantErr)
		}
	}
}

type closeCountingTransport struct {
	rt     nethttp.RoundTripper
	closed int32
}

func (c *closeCountingTransport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	return c.rt.RoundTrip(req)
}

func (c *closeCountingTransport) CloseIdleConnections() {
	atomic.AddInt32(&c.closed, 1)
}

// TestNewRetryClient_FailureKeepsSharedIdlePool verifies an exhausted request
// does not close idle connections other workers are reusing.
func TestNewRetryClient_FailureKeepsSharedIdlePool(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := &closeCountingTransport{rt: srv.Client().Transport}
	shared := &nethttp.Client{Transport: tr}
	rc := NewRetryClient(shared, RetryPolicy{Attempts: 2, Delay: time.Millisecond}, nil)

	req, err := retryablehttp.NewRequest("POST", srv.URL, []byte("body"))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := rc.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != nethttp.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&tr.closed); got != 0 {
		t.Errorf("shared transport had idle connections closed %d time(s)", got)
	}
	if shared.Transport != tr {
		t.Error("the caller's client must not be modified")
	}
}
