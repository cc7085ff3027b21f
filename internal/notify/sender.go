package notify

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/orrn/printdesk/internal/config"
)

type Payload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Signature string      `json:"signature,omitempty"`
}

type task struct {
	url     string
	payload *Payload
	attempt int
}

// statusError is a non-2xx reply from a subscriber.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http error: %d", e.code)
}

// Sender posts lifecycle events to every configured webhook URL from a small
// worker pool. Notify never blocks; events are dropped when the queue is full.
type Sender struct {
	urls        []string
	secret      string
	httpClient  *http.Client
	retryCount  int
	retryDelay  time.Duration
	workerCount int
	queue       chan *task
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

func NewSender(cfg config.NotifyConfig) *Sender {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}

	return &Sender{
		urls:   cfg.URLs,
		secret: cfg.Secret,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryCount:  cfg.RetryCount,
		retryDelay:  cfg.RetryDelay,
		workerCount: cfg.WorkerCount,
		queue:       make(chan *task, cfg.QueueSize),
		stopCh:      make(chan struct{}),
	}
}

// Enabled reports whether any subscriber is configured.
func (s *Sender) Enabled() bool {
	return len(s.urls) > 0
}

func (s *Sender) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || !s.Enabled() {
		return
	}
	s.running = true

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *Sender) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

func (s *Sender) Notify(event string, data interface{}) {
	for _, url := range s.urls {
		t := &task{
			url: url,
			payload: &Payload{
				Event:     event,
				Timestamp: time.Now().UTC(),
				Data:      data,
			},
		}

		select {
		case s.queue <- t:
		default:
			log.Printf("[notify] queue full, dropping %s event for %s", event, url)
		}
	}
}

func (s *Sender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-s.queue:
			if err := s.sendWithRetry(t); err != nil {
				log.Printf("[notify worker %d] failed to send %s to %s after %d attempts: %v",
					id, t.payload.Event, t.url, t.attempt, err)
			}
		}
	}
}

func (s *Sender) sendWithRetry(t *task) error {
	var lastErr error
	for t.attempt < s.retryCount {
		t.attempt++

		err := s.send(t.url, t.payload)
		if err == nil {
			return nil
		}
		lastErr = err

		if isClientError(err) {
			log.Printf("[notify] client error from %s, not retrying: %v", t.url, err)
			return err
		}

		if t.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(t.attempt-1))
			log.Printf("[notify] retry %d/%d for %s in %v: %v", t.attempt, s.retryCount, t.url, backoff, err)

			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested")
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) send(url string, payload *Payload) error {
	body, err := s.encode(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Printdesk-Event", payload.Event)
	if payload.Signature != "" {
		req.Header.Set("X-Printdesk-Signature", payload.Signature)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

// encode signs the data part of the payload when a secret is configured.
func (s *Sender) encode(payload *Payload) ([]byte, error) {
	if s.secret != "" {
		data, err := json.Marshal(payload.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal data: %w", err)
		}
		payload.Signature = Sign(data, s.secret)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return body, nil
}

// Sign returns the hex HMAC-SHA256 of payload.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code >= 400 && se.code < 500
}
