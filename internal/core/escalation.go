package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/orrn/printdesk/internal/db"
)

// EscalationMonitor counts failed print attempts and owns the admin overrides
// for orders that ran out of them.
type EscalationMonitor struct {
	orders     OrderStore
	jobs       JobStore
	registry   *PrinterRegistry
	recorder   *Recorder
	retryQueue *RetryQueue
	now        func() time.Time
}

func NewEscalationMonitor(orders OrderStore, jobs JobStore, registry *PrinterRegistry, recorder *Recorder, retryQueue *RetryQueue) *EscalationMonitor {
	return &EscalationMonitor{
		orders:     orders,
		jobs:       jobs,
		registry:   registry,
		recorder:   recorder,
		retryQueue: retryQueue,
		now:        time.Now,
	}
}

// RecordFailure counts one failed attempt. A worker failure requires the
// worker to hold the lease and moves the order back to pending; a dispatch
// failure (empty workerID) applies to a pending order and keeps it pending.
func (m *EscalationMonitor) RecordFailure(ctx context.Context, orderID, workerID, message string) (*db.Order, error) {
	if message == "" {
		message = "print failed"
	}

	before, after, err := updateOrder(ctx, m.orders, orderID, func(o *db.Order) error {
		if workerID != "" {
			if o.PrintStatus != StatusPrinting || o.PrintingBy != workerID {
				return ErrLeaseNotHeld
			}
			if err := setStatus(o, StatusPending, false); err != nil {
				return err
			}
		} else {
			switch o.PrintStatus {
			case StatusPending:
			case StatusPrinting:
				return ErrLeaseHeld
			default:
				return &TransitionError{From: o.PrintStatus, To: StatusPending,
					Reason: fmt.Sprintf("dispatch failure recorded for order in status %s", displayStatus(o.PrintStatus))}
			}
		}

		o.PrintAttempt++
		o.PrintError = message
		o.PrintStartedAt = nil
		clearLease(o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	jobID := ""
	if workerID != "" {
		jobID = m.finishJob(ctx, after, db.JobStatusFailed, message)
	}

	m.recorder.Log(ctx, LogEntry{
		Action:         ActionPrintFailed,
		OrderID:        orderID,
		PrintJobID:     jobID,
		PreviousStatus: before.PrintStatus,
		NewStatus:      after.PrintStatus,
		Reason:         message,
		Metadata: map[string]interface{}{
			"printAttempt":     after.PrintAttempt,
			"maxPrintAttempts": after.MaxPrintAttempts,
			"workerId":         workerID,
		},
	})
	m.recorder.Notify(EventPrintFailed, orderEvent(after, workerID))

	if isEscalated(after) {
		m.escalate(ctx, after)
	}
	return after, nil
}

func (m *EscalationMonitor) escalate(ctx context.Context, o *db.Order) {
	if m.retryQueue != nil {
		m.retryQueue.RemoveOrder(o.ID)
	}

	reason := fmt.Sprintf("print failed %d of %d attempts: %s", o.PrintAttempt, o.MaxPrintAttempts, o.PrintError)
	log.Printf("[escalation] order %s requires admin action: %s", o.ID, reason)

	m.recorder.Log(ctx, LogEntry{
		Action:         ActionPrintEscalated,
		OrderID:        o.ID,
		PreviousStatus: o.PrintStatus,
		NewStatus:      o.PrintStatus,
		Reason:         reason,
	})
	m.recorder.Alert(ctx, AlertEscalation, o.ID, "", "order "+orderLabel(o)+" requires admin action: "+reason)
	m.recorder.Notify(EventPrintEscalated, orderEvent(o, ""))
}

// RequiresAdmin lists orders whose attempts are exhausted.
func (m *EscalationMonitor) RequiresAdmin(ctx context.Context) ([]*db.Order, error) {
	escalated := true
	orders, err := m.orders.ListOrders(ctx, db.OrderFilter{Escalated: &escalated})
	if err != nil {
		return nil, fmt.Errorf("failed to list escalated orders: %w", err)
	}
	return orders, nil
}

// ForceReset gives an order a fresh set of attempts and puts it back in the
// queue, releasing any lease.
func (m *EscalationMonitor) ForceReset(ctx context.Context, orderID string, admin Actor, reason string) (*db.Order, error) {
	now := m.now().UTC()
	before, after, err := updateOrder(ctx, m.orders, orderID, func(o *db.Order) error {
		if o.PrintStatus != StatusPending {
			if err := setStatus(o, StatusPending, admin.IsAdmin); err != nil {
				return err
			}
		}
		o.PrintAttempt = 0
		o.PrintError = ""
		o.PrintStartedAt = nil
		o.PrintCompletedAt = nil
		o.PrintQueuedAt = &now
		clearLease(o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	jobID := m.finishJob(ctx, before, db.JobStatusFailed, "reset by admin")
	if m.retryQueue != nil {
		m.retryQueue.RemoveOrder(orderID)
	}

	m.recorder.Log(ctx, LogEntry{
		Action:         ActionAdminReset,
		OrderID:        orderID,
		PrintJobID:     jobID,
		AdminEmail:     admin.Email,
		PreviousStatus: before.PrintStatus,
		NewStatus:      after.PrintStatus,
		Reason:         reason,
		Metadata: map[string]interface{}{
			"previousAttempt": before.PrintAttempt,
			"previousWorker":  before.PrintingBy,
		},
	})
	return after, nil
}

// ForceComplete marks a printing order as printed on an admin's word.
func (m *EscalationMonitor) ForceComplete(ctx context.Context, orderID string, admin Actor, reason string) (*db.Order, error) {
	now := m.now().UTC()
	before, after, err := updateOrder(ctx, m.orders, orderID, func(o *db.Order) error {
		if isEscalated(o) {
			return &TransitionError{From: o.PrintStatus, To: StatusPrinted,
				Reason: "order exhausted its print attempts; only a reset is available for escalated orders"}
		}
		if err := setStatus(o, StatusPrinted, admin.IsAdmin); err != nil {
			return err
		}
		if o.PrintStartedAt == nil {
			o.PrintStartedAt = &now
		}
		o.PrintCompletedAt = &now
		o.PrintError = ""
		clearLease(o)
		completeSegments(o, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	jobID := m.finishJob(ctx, after, db.JobStatusCompleted, "")
	if m.retryQueue != nil {
		m.retryQueue.RemoveOrder(orderID)
	}
	if m.registry != nil {
		m.registry.RecordPrint(ctx, after.PrinterName, copiesOf(after))
	}

	m.recorder.Log(ctx, LogEntry{
		Action:         ActionAdminForceComplete,
		OrderID:        orderID,
		PrintJobID:     jobID,
		AdminEmail:     admin.Email,
		PreviousStatus: before.PrintStatus,
		NewStatus:      after.PrintStatus,
		Reason:         reason,
		Metadata: map[string]interface{}{
			"previousWorker": before.PrintingBy,
		},
	})
	m.recorder.Notify(EventPrintCompleted, orderEvent(after, ""))
	return after, nil
}

// Reprint sends a printed order back to the queue as a new print cycle.
func (m *EscalationMonitor) Reprint(ctx context.Context, orderID string, admin Actor, reason string) (*db.Order, error) {
	now := m.now().UTC()
	before, after, err := updateOrder(ctx, m.orders, orderID, func(o *db.Order) error {
		if o.PrintStatus != StatusPrinted {
			return &TransitionError{From: o.PrintStatus, To: StatusPending,
				Reason: fmt.Sprintf("only printed orders can be reprinted, order is %s", displayStatus(o.PrintStatus))}
		}
		if err := setStatus(o, StatusPending, admin.IsAdmin); err != nil {
			return err
		}
		o.PrintAttempt = 0
		o.PrintError = ""
		o.PrintStartedAt = nil
		o.PrintCompletedAt = nil
		o.PrintQueuedAt = &now
		clearLease(o)
		resetSegments(o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.recorder.Log(ctx, LogEntry{
		Action:         ActionAdminReprint,
		OrderID:        orderID,
		AdminEmail:     admin.Email,
		PreviousStatus: before.PrintStatus,
		NewStatus:      after.PrintStatus,
		Reason:         reason,
	})
	return after, nil
}

// finishJob moves the order's current job to status unless it is already
// completed. It returns the job ID, or "" when there is none.
func (m *EscalationMonitor) finishJob(ctx context.Context, o *db.Order, status, message string) string {
	return finishCurrentJob(ctx, m.jobs, o, status, message)
}

func finishCurrentJob(ctx context.Context, jobs JobStore, o *db.Order, status, message string) string {
	if jobs == nil {
		return ""
	}
	job, err := jobs.GetLatestJobForOrder(ctx, o.ID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.Printf("[jobs] failed to load job for order %s: %v", o.ID, err)
		}
		return ""
	}
	if !currentCycleJob(o, job) || job.Status == db.JobStatusCompleted || job.Status == status {
		return job.JobID
	}
	if err := jobs.UpdateJobStatus(ctx, job.JobID, status, message); err != nil {
		log.Printf("[jobs] failed to mark job %s %s: %v", job.JobID, status, err)
	}
	return job.JobID
}

func completeSegments(o *db.Order, now time.Time) {
	for i := range o.PrintSegments {
		if o.PrintSegments[i].Status == "completed" {
			continue
		}
		o.PrintSegments[i].Status = "completed"
		o.PrintSegments[i].CompletedAt = timePtr(now)
		o.PrintSegments[i].Error = ""
	}
}

func resetSegments(o *db.Order) {
	for i := range o.PrintSegments {
		o.PrintSegments[i].Status = StatusPending
		o.PrintSegments[i].StartedAt = nil
		o.PrintSegments[i].CompletedAt = nil
		o.PrintSegments[i].Error = ""
		o.PrintSegments[i].PrintJobID = ""
	}
}

func copiesOf(o *db.Order) int {
	if o.PrintingOptions.Copies > 0 {
		return o.PrintingOptions.Copies
	}
	return 1
}

func orderLabel(o *db.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID
}

func formatAttempts(o *db.Order) string {
	return strconv.Itoa(o.PrintAttempt) + "/" + strconv.Itoa(o.MaxPrintAttempts)
}
