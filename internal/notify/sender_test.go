package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orrn/printdesk/internal/config"
)

type received struct {
	event     string
	signature string
	body      []byte
}

func newSubscriber(t *testing.T, status int) (*httptest.Server, chan received, *atomic.Int64) {
	t.Helper()
	ch := make(chan received, 10)
	calls := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		ch <- received{
			event:     r.Header.Get("X-Printdesk-Event"),
			signature: r.Header.Get("X-Printdesk-Signature"),
			body:      body,
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, ch, calls
}

func waitFor(t *testing.T, ch chan received) received {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for webhook")
		return received{}
	}
}

func TestSender_DeliversSignedEvent(t *testing.T) {
	srv, ch, _ := newSubscriber(t, http.StatusOK)
	s := NewSender(config.NotifyConfig{URLs: []string{srv.URL}, Secret: "s3cret", RetryDelay: 10 * time.Millisecond})
	s.Start()
	defer s.Stop()

	s.Notify("print_completed", map[string]string{"order_id": "o1"})

	r := waitFor(t, ch)
	if r.event != "print_completed" {
		t.Errorf("unexpected event header %q", r.event)
	}

	var payload struct {
		Event     string          `json:"event"`
		Data      json.RawMessage `json:"data"`
		Signature string          `json:"signature"`
	}
	if err := json.Unmarshal(r.body, &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	want := Sign([]byte(`{"order_id":"o1"}`), "s3cret")
	if payload.Signature != want || r.signature != want {
		t.Errorf("expected signature %s, got body=%s header=%s", want, payload.Signature, r.signature)
	}
}

func TestSender_RetriesServerErrors(t *testing.T) {
	srv, ch, calls := newSubscriber(t, http.StatusBadGateway)
	s := NewSender(config.NotifyConfig{URLs: []string{srv.URL}, RetryCount: 3, RetryDelay: 5 * time.Millisecond})
	s.Start()
	defer s.Stop()

	s.Notify("print_failed", nil)
	for i := 0; i < 3; i++ {
		waitFor(t, ch)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestSender_DoesNotRetryClientErrors(t *testing.T) {
	srv, ch, calls := newSubscriber(t, http.StatusUnauthorized)
	s := NewSender(config.NotifyConfig{URLs: []string{srv.URL}, RetryCount: 3, RetryDelay: 5 * time.Millisecond})
	s.Start()
	defer s.Stop()

	s.Notify("print_failed", nil)
	waitFor(t, ch)

	select {
	case <-ch:
		t.Error("client error was retried")
	case <-time.After(100 * time.Millisecond):
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", calls.Load())
	}
}

func TestSender_NotifyNeverBlocks(t *testing.T) {
	s := NewSender(config.NotifyConfig{URLs: []string{"http://127.0.0.1:1"}, QueueSize: 1})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.Notify("lease_expired", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}

func TestSender_Disabled(t *testing.T) {
	s := NewSender(config.NotifyConfig{})
	if s.Enabled() {
		t.Error("sender without urls should be disabled")
	}
	s.Start()
	s.Notify("print_completed", nil)
	s.Stop()
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&statusError{code: 400}, true},
		{&statusError{code: 404}, true},
		{&statusError{code: 500}, false},
		{io.EOF, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := isClientError(tt.err); got != tt.want {
			t.Errorf("isClientError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
