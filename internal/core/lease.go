package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/orrn/printdesk/internal/config"
	"github.com/orrn/printdesk/internal/db"
)

const defaultStaleAfter = 2 * time.Minute

// LeaseManager hands out the exclusive right to print an order and takes it
// back from workers that stopped sending heartbeats.
type LeaseManager struct {
	orders     OrderStore
	jobs       JobStore
	registry   *PrinterRegistry
	escalation *EscalationMonitor
	recorder   *Recorder
	config     *config.LeaseConfig
	now        func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewLeaseManager(orders OrderStore, jobs JobStore, registry *PrinterRegistry, escalation *EscalationMonitor, recorder *Recorder, cfg *config.LeaseConfig) *LeaseManager {
	if cfg == nil {
		cfg = &config.LeaseConfig{StaleAfter: defaultStaleAfter}
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}
	return &LeaseManager{
		orders:     orders,
		jobs:       jobs,
		registry:   registry,
		escalation: escalation,
		recorder:   recorder,
		config:     cfg,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
}

func (m *LeaseManager) StaleAfter() time.Duration {
	return m.config.StaleAfter
}

// IsStale reports whether a printing order's heartbeat is older than the
// stale threshold. Orders in any other status are never stale.
func (m *LeaseManager) IsStale(o *db.Order, now time.Time) bool {
	if o.PrintStatus != StatusPrinting {
		return false
	}
	if o.PrintingHeartbeatAt == nil {
		return true
	}
	return now.Sub(*o.PrintingHeartbeatAt) > m.config.StaleAfter
}

// Claim gives workerID the lease on a pending order, or on a printing order
// whose lease went stale. Of several concurrent claimers exactly one wins;
// the others get ErrLeaseHeld.
func (m *LeaseManager) Claim(ctx context.Context, orderID, workerID, printerName string) (*db.Order, error) {
	if workerID == "" {
		return nil, fmt.Errorf("%w: worker id is required", ErrInvalidInput)
	}

	current, err := getOrder(ctx, m.orders, orderID)
	if err != nil {
		return nil, err
	}
	if isEscalated(current) {
		return nil, ErrRequiresAdmin
	}
	if current.PaymentStatus != db.PaymentCompleted {
		return nil, ErrPaymentIncomplete
	}

	now := m.now().UTC()
	reclaim := false

	candidate := cloneOrder(current)
	switch {
	case current.PrintStatus == StatusPrinting && current.PrintingBy == workerID && !m.IsStale(current, now):
		return current, nil
	case current.PrintStatus == StatusPrinting:
		if !m.IsStale(current, now) {
			return nil, ErrLeaseHeld
		}
		// A stale lease is first released, then claimed like a pending order.
		if err := setStatus(candidate, StatusPending, false); err != nil {
			return nil, err
		}
		reclaim = true
	case current.PrintStatus == StatusPending && current.PrintingBy != "":
		return nil, ErrLeaseHeld
	}
	if err := setStatus(candidate, StatusPrinting, false); err != nil {
		return nil, err
	}

	claimed, err := m.orders.ClaimLease(ctx, orderID, workerID, printerName, now, now.Add(-m.config.StaleAfter))
	if err != nil {
		if errors.Is(err, db.ErrVersionConflict) {
			return nil, ErrLeaseHeld
		}
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to claim order %s: %w", orderID, err)
	}

	jobID := ""
	if m.jobs != nil {
		if job, err := m.jobs.GetLatestJobForOrder(ctx, orderID); err == nil && currentCycleJob(claimed, job) &&
			(job.Status == db.JobStatusPending || job.Status == db.JobStatusPrinting) {
			jobID = job.JobID
			if job.Status == db.JobStatusPending {
				if err := m.jobs.UpdateJobStatus(ctx, job.JobID, db.JobStatusPrinting, ""); err != nil {
					log.Printf("[lease] failed to mark job %s printing: %v", job.JobID, err)
				}
			}
		}
	}

	action := ActionLeaseClaimed
	metadata := map[string]interface{}{
		"workerId":    workerID,
		"printerName": printerName,
	}
	if reclaim {
		action = ActionLeaseReclaimed
		metadata["previousWorker"] = current.PrintingBy
		log.Printf("[lease] order %s reclaimed by %s from stale worker %s", orderID, workerID, current.PrintingBy)
	}

	m.recorder.Log(ctx, LogEntry{
		Action:         action,
		OrderID:        orderID,
		PrintJobID:     jobID,
		PreviousStatus: current.PrintStatus,
		NewStatus:      claimed.PrintStatus,
		Metadata:       metadata,
	})
	return claimed, nil
}

// Heartbeat refreshes the lease. It fails with ErrLeaseNotHeld once the lease
// was released, reclaimed or overridden by an admin.
func (m *LeaseManager) Heartbeat(ctx context.Context, orderID, workerID string) (*db.Order, error) {
	err := m.orders.TouchHeartbeat(ctx, orderID, workerID, m.now().UTC())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		if errors.Is(err, db.ErrVersionConflict) {
			return nil, ErrLeaseNotHeld
		}
		return nil, fmt.Errorf("failed to refresh lease on order %s: %w", orderID, err)
	}
	return getOrder(ctx, m.orders, orderID)
}

// Complete finishes the print held by workerID.
func (m *LeaseManager) Complete(ctx context.Context, orderID, workerID string) (*db.Order, error) {
	now := m.now().UTC()
	before, after, err := updateOrder(ctx, m.orders, orderID, func(o *db.Order) error {
		if o.PrintStatus != StatusPrinting || o.PrintingBy != workerID {
			return ErrLeaseNotHeld
		}
		if err := setStatus(o, StatusPrinted, false); err != nil {
			return err
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

	jobID := finishCurrentJob(ctx, m.jobs, after, db.JobStatusCompleted, "")
	if m.registry != nil {
		m.registry.RecordPrint(ctx, after.PrinterName, copiesOf(after))
	}

	var duration int64
	if before.PrintStartedAt != nil {
		duration = now.Sub(*before.PrintStartedAt).Milliseconds()
	}
	m.recorder.Log(ctx, LogEntry{
		Action:         ActionPrintCompleted,
		OrderID:        orderID,
		PrintJobID:     jobID,
		PreviousStatus: before.PrintStatus,
		NewStatus:      after.PrintStatus,
		Metadata: map[string]interface{}{
			"workerId":    workerID,
			"printerName": after.PrinterName,
			"durationMs":  duration,
		},
	})
	m.recorder.Notify(EventPrintCompleted, orderEvent(after, workerID))
	return after, nil
}

// Fail reports a failed print by the lease holder.
func (m *LeaseManager) Fail(ctx context.Context, orderID, workerID, message string) (*db.Order, error) {
	return m.escalation.RecordFailure(ctx, orderID, workerID, message)
}

// ReleaseIfStale puts a printing order with a stale lease back to pending.
// Releasing is a recovery, so the attempt counter is left alone. It reports
// whether the order was released.
func (m *LeaseManager) ReleaseIfStale(ctx context.Context, orderID string) (bool, error) {
	now := m.now().UTC()
	before, after, err := updateOrder(ctx, m.orders, orderID, func(o *db.Order) error {
		if !m.IsStale(o, now) {
			return errNotStale
		}
		if err := setStatus(o, StatusPending, false); err != nil {
			return err
		}
		o.PrintStartedAt = nil
		clearLease(o)
		return nil
	})
	if errors.Is(err, errNotStale) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	jobID := finishCurrentJob(ctx, m.jobs, before, db.JobStatusPending, "lease expired")

	var lastHeartbeat string
	if before.PrintingHeartbeatAt != nil {
		lastHeartbeat = before.PrintingHeartbeatAt.Format(time.RFC3339)
	}
	reason := fmt.Sprintf("no heartbeat from %s for more than %s", before.PrintingBy, m.config.StaleAfter)
	log.Printf("[lease] order %s released: %s", orderID, reason)

	m.recorder.Log(ctx, LogEntry{
		Action:         ActionLeaseExpired,
		OrderID:        orderID,
		PrintJobID:     jobID,
		PreviousStatus: before.PrintStatus,
		NewStatus:      after.PrintStatus,
		Reason:         reason,
		Metadata: map[string]interface{}{
			"previousWorker": before.PrintingBy,
			"lastHeartbeat":  lastHeartbeat,
		},
	})
	m.recorder.Alert(ctx, AlertStaleLease, orderID, "", "lease on order "+orderLabel(before)+" expired: "+reason)
	m.recorder.Notify(EventLeaseExpired, orderEvent(before, before.PrintingBy))
	return true, nil
}

var errNotStale = errors.New("lease is not stale")

// SweepStale releases every stale lease and returns the released order IDs.
func (m *LeaseManager) SweepStale(ctx context.Context) ([]string, error) {
	printing, err := m.orders.ListOrders(ctx, db.OrderFilter{PrintStatus: StatusPrinting})
	if err != nil {
		return nil, fmt.Errorf("failed to list printing orders: %w", err)
	}

	now := m.now().UTC()
	released := []string{}
	for _, o := range printing {
		if !m.IsStale(o, now) {
			continue
		}
		ok, err := m.ReleaseIfStale(ctx, o.ID)
		if err != nil {
			log.Printf("[lease] failed to release order %s: %v", o.ID, err)
			continue
		}
		if ok {
			released = append(released, o.ID)
		}
	}
	return released, nil
}

// Start runs SweepStale periodically when a sweep interval is configured.
func (m *LeaseManager) Start() {
	if m.config.SweepInterval <= 0 {
		return
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.sweepLoop()
}

func (m *LeaseManager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopCh)
	m.wg.Wait()
}

func (m *LeaseManager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			if _, err := m.SweepStale(context.Background()); err != nil {
				log.Printf("[lease] sweep failed: %v", err)
			}
		}
	}
}
