package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orrn/printdesk/internal/db"
)

const maxWriteAttempts = 3

// setStatus is the only place an order's print status is assigned.
func setStatus(o *db.Order, to string, isAdmin bool) error {
	from := o.PrintStatus
	result := ValidateTransition(from, to, isAdmin)
	if !result.Allowed {
		return &TransitionError{From: from, To: to, Reason: result.Reason}
	}
	o.PrintStatus = to
	return nil
}

func clearLease(o *db.Order) {
	o.PrintingBy = ""
	o.PrintingHeartbeatAt = nil
}

func cloneOrder(o *db.Order) *db.Order {
	c := *o
	if o.PrintSegments != nil {
		c.PrintSegments = make([]db.PrintSegment, len(o.PrintSegments))
		copy(c.PrintSegments, o.PrintSegments)
	}
	return &c
}

func getOrder(ctx context.Context, store OrderStore, id string) (*db.Order, error) {
	order, err := store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return order, nil
}

// updateOrder re-reads the order, lets fn mutate a copy and writes it back
// guarded by the version the copy was read at. Lost races are retried with a
// fresh read so fn always decides on current state. It returns the state
// before and after the write.
func updateOrder(ctx context.Context, store OrderStore, id string, fn func(o *db.Order) error) (before, after *db.Order, err error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		current, err := getOrder(ctx, store, id)
		if err != nil {
			return nil, nil, err
		}

		next := cloneOrder(current)
		if err := fn(next); err != nil {
			return current, nil, err
		}

		err = store.UpdatePrintState(ctx, next, current.Version)
		if err == nil {
			return current, next, nil
		}
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		if !errors.Is(err, db.ErrVersionConflict) {
			return nil, nil, fmt.Errorf("failed to save order %s: %w", id, err)
		}
	}
	return nil, nil, ErrConcurrentUpdate
}

func isEscalated(o *db.Order) bool {
	return o.MaxPrintAttempts > 0 && o.PrintAttempt >= o.MaxPrintAttempts
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// currentCycleJob reports whether job was created for the order's current
// print cycle. Jobs from before a reprint or admin reset do not count.
func currentCycleJob(o *db.Order, job *db.PrintJob) bool {
	if job == nil {
		return false
	}
	if o.PrintQueuedAt == nil {
		return true
	}
	return !job.CreatedAt.Before(o.PrintQueuedAt.Truncate(time.Millisecond))
}
