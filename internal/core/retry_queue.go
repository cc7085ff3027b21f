package core

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/orrn/printdesk/internal/config"
)

const (
	defaultRetryQueueSize = 100
	defaultRetryDelay     = 10 * time.Second
	maxRetryBackoff       = 5 * time.Minute
	retryEntryMaxAge      = time.Hour
	retryTickInterval     = time.Second
)

// RetryEntry is a print job submission waiting to be sent again.
type RetryEntry struct {
	OrderID       string           `json:"orderId"`
	JobID         string           `json:"jobId"`
	PrinterIndex  int              `json:"printerIndex"`
	Request       *PrintJobRequest `json:"-"`
	Attempts      int              `json:"attempts"`
	LastError     string           `json:"lastError,omitempty"`
	EnqueuedAt    time.Time        `json:"enqueuedAt"`
	NextAttemptAt time.Time        `json:"nextAttemptAt"`
}

type RetryQueueStatus struct {
	Size     int          `json:"size"`
	Capacity int          `json:"capacity"`
	Items    []RetryEntry `json:"items"`
}

// RetrySendFunc re-sends one entry; a nil error removes it from the queue.
type RetrySendFunc func(ctx context.Context, entry *RetryEntry) error

// RetryQueue holds failed submissions in memory, keyed by job ID. Entries are
// lost on restart; durable order state is the source of truth.
type RetryQueue struct {
	mu         sync.Mutex
	entries    map[string]*RetryEntry
	capacity   int
	maxRetries int
	baseDelay  time.Duration
	now        func() time.Time

	send    RetrySendFunc
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

func NewRetryQueue(cfg *config.QueueConfig) *RetryQueue {
	if cfg == nil {
		cfg = &config.QueueConfig{
			MaxRetries:     3,
			RetryDelay:     defaultRetryDelay,
			RetryQueueSize: defaultRetryQueueSize,
		}
	}
	capacity := cfg.RetryQueueSize
	if capacity < 1 {
		capacity = defaultRetryQueueSize
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	return &RetryQueue{
		entries:    make(map[string]*RetryEntry),
		capacity:   capacity,
		maxRetries: cfg.MaxRetries,
		baseDelay:  delay,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
}

func (q *RetryQueue) Start(send RetrySendFunc) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.send = send
	q.mu.Unlock()

	q.wg.Add(1)
	go q.loop()
}

func (q *RetryQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	close(q.stopCh)
	q.wg.Wait()
}

// Enqueue adds entry unless one for the same job is already waiting. It
// returns false when the queue is full and the entry was dropped.
func (q *RetryQueue) Enqueue(entry *RetryEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if existing, ok := q.entries[entry.JobID]; ok {
		existing.LastError = entry.LastError
		return true
	}

	if len(q.entries) >= q.capacity {
		log.Printf("[retry] queue full (%d), dropping job %s for order %s", q.capacity, entry.JobID, entry.OrderID)
		return false
	}

	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = now
	}
	entry.NextAttemptAt = now.Add(q.calculateBackoff(entry.Attempts))
	q.entries[entry.JobID] = entry
	return true
}

// RemoveOrder drops every entry of an order.
func (q *RetryQueue) RemoveOrder(orderID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, e := range q.entries {
		if e.OrderID == orderID {
			delete(q.entries, id)
			removed++
		}
	}
	return removed
}

func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *RetryQueue) Status() RetryQueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]RetryEntry, 0, len(q.entries))
	for _, e := range q.entries {
		items = append(items, *e)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].EnqueuedAt.Before(items[j].EnqueuedAt)
	})

	return RetryQueueStatus{
		Size:     len(items),
		Capacity: q.capacity,
		Items:    items,
	}
}

func (q *RetryQueue) calculateBackoff(attempts int) time.Duration {
	if attempts > 20 {
		return maxRetryBackoff
	}
	backoff := q.baseDelay * time.Duration(1<<uint(attempts))
	if backoff > maxRetryBackoff || backoff <= 0 {
		backoff = maxRetryBackoff
	}
	return backoff
}

func (q *RetryQueue) loop() {
	defer q.wg.Done()

	ticker := time.NewTicker(retryTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.cleanup()
			q.processDue(context.Background())
		}
	}
}

// due detaches the entries whose next attempt time has passed.
func (q *RetryQueue) due() []*RetryEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var ready []*RetryEntry
	for _, e := range q.entries {
		if !e.NextAttemptAt.After(now) {
			ready = append(ready, e)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].NextAttemptAt.Before(ready[j].NextAttemptAt)
	})
	return ready
}

func (q *RetryQueue) processDue(ctx context.Context) {
	q.mu.Lock()
	send := q.send
	q.mu.Unlock()
	if send == nil {
		return
	}

	for _, entry := range q.due() {
		err := send(ctx, entry)

		q.mu.Lock()
		current, ok := q.entries[entry.JobID]
		if !ok || current != entry {
			q.mu.Unlock()
			continue
		}
		if err == nil {
			delete(q.entries, entry.JobID)
			q.mu.Unlock()
			log.Printf("[retry] job %s for order %s delivered after %d retries", entry.JobID, entry.OrderID, entry.Attempts+1)
			continue
		}

		entry.Attempts++
		entry.LastError = err.Error()
		if entry.Attempts >= q.maxRetries {
			delete(q.entries, entry.JobID)
			q.mu.Unlock()
			log.Printf("[retry] giving up on job %s for order %s after %d retries: %v", entry.JobID, entry.OrderID, entry.Attempts, err)
			continue
		}
		entry.NextAttemptAt = q.now().Add(q.calculateBackoff(entry.Attempts))
		q.mu.Unlock()

		log.Printf("[retry] retry %d/%d for job %s failed, next attempt at %s: %v",
			entry.Attempts, q.maxRetries, entry.JobID, entry.NextAttemptAt.Format(time.RFC3339), err)
	}
}

func (q *RetryQueue) cleanup() {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-retryEntryMaxAge)
	for id, e := range q.entries {
		if e.EnqueuedAt.Before(cutoff) {
			delete(q.entries, id)
			log.Printf("[retry] expired job %s for order %s", e.JobID, e.OrderID)
		}
	}
}
