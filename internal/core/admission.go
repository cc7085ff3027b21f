package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/orrn/printdesk/internal/db"
)

const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

const defaultDispatchWorkers = 2

type OrderOutcome struct {
	OrderID        string `json:"orderId"`
	OrderNumber    string `json:"orderNumber,omitempty"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	JobID          string `json:"jobId,omitempty"`
	DeliveryNumber string `json:"deliveryNumber,omitempty"`
}

type BatchReport struct {
	Results []OrderOutcome `json:"results"`
	Total   int            `json:"total"`
	Success int            `json:"success"`
	Skipped int            `json:"skipped"`
	Failed  int            `json:"failed"`
}

// Admission moves paid orders into the print queue and pushes queued orders
// to the printers.
type Admission struct {
	orders     OrderStore
	jobs       JobStore
	dispatch   *DispatchClient
	leases     *LeaseManager
	escalation *EscalationMonitor
	recorder   *Recorder
	workers    int
	now        func() time.Time

	// batchMu serializes batch runs so overlapping callers cannot send the
	// same job twice.
	batchMu sync.Mutex
}

func NewAdmission(orders OrderStore, jobs JobStore, dispatch *DispatchClient, leases *LeaseManager, escalation *EscalationMonitor, recorder *Recorder, workers int) *Admission {
	if workers < 1 {
		workers = defaultDispatchWorkers
	}
	return &Admission{
		orders:     orders,
		jobs:       jobs,
		dispatch:   dispatch,
		leases:     leases,
		escalation: escalation,
		recorder:   recorder,
		workers:    workers,
		now:        time.Now,
	}
}

var errAlreadyQueued = errors.New("order is already pending")

// AdmitOrder puts a paid order with at least one file into the pending state.
// Orders already pending are returned unchanged. Admitting a printing or
// printed order is a reprint.
func (a *Admission) AdmitOrder(ctx context.Context, orderID string, actor Actor) (*db.Order, error) {
	now := a.now().UTC()
	before, after, err := updateOrder(ctx, a.orders, orderID, func(o *db.Order) error {
		if o.PaymentStatus != db.PaymentCompleted {
			return ErrPaymentIncomplete
		}
		if len(o.Files()) == 0 {
			return ErrNoFile
		}

		switch o.PrintStatus {
		case StatusPending:
			return errAlreadyQueued
		case StatusPrinting:
			if a.leases != nil && !a.leases.IsStale(o, now) && !actor.IsAdmin {
				return ErrLeaseHeld
			}
		}

		from := o.PrintStatus
		if err := setStatus(o, StatusPending, actor.IsAdmin); err != nil {
			return err
		}
		// A requeue starts a new cycle so the interrupted job no longer
		// counts as this cycle's dispatch.
		o.PrintQueuedAt = &now
		o.PrintCompletedAt = nil
		if from == StatusPrinted {
			o.PrintAttempt = 0
			resetSegments(o)
		}
		o.PrintError = ""
		o.PrintStartedAt = nil
		clearLease(o)
		return nil
	})
	if errors.Is(err, errAlreadyQueued) {
		return before, nil
	}
	if err != nil {
		return nil, err
	}

	if before.PrintStatus == StatusPrinting {
		finishCurrentJob(ctx, a.jobs, before, db.JobStatusFailed, admitReason(StatusPrinting))
	}

	a.recorder.Log(ctx, LogEntry{
		Action:         ActionAdmitted,
		OrderID:        orderID,
		AdminEmail:     actor.Email,
		PreviousStatus: before.PrintStatus,
		NewStatus:      after.PrintStatus,
		Reason:         admitReason(before.PrintStatus),
	})
	return after, nil
}

func admitReason(from string) string {
	switch from {
	case StatusPrinting:
		return "requeued while printing"
	case StatusPrinted:
		return "reprint"
	}
	return "payment confirmed"
}

// ProcessAllPending dispatches every queued, paid order that is not yet with
// a printer. Each order's outcome is independent of the others; a second run
// without new orders skips everything.
func (a *Admission) ProcessAllPending(ctx context.Context, printerIndex int) (*BatchReport, error) {
	a.batchMu.Lock()
	defer a.batchMu.Unlock()

	candidates, err := a.collectCandidates(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]OrderOutcome, len(candidates))
	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i, o := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, o *db.Order) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = a.dispatchOrder(ctx, o, printerIndex)
		}(i, o)
	}
	wg.Wait()

	report := &BatchReport{Results: results, Total: len(results)}
	noPrinter := false
	for _, r := range results {
		switch r.Status {
		case OutcomeSuccess:
			report.Success++
		case OutcomeSkipped:
			report.Skipped++
		case OutcomeFailed:
			report.Failed++
			if r.Reason == ErrNoPrinterConfigured.Error() {
				noPrinter = true
			}
		}
	}
	if noPrinter {
		a.recorder.Alert(ctx, AlertDispatchFailed, "", "", "print dispatch skipped: no printer configured")
	}
	return report, nil
}

func (a *Admission) collectCandidates(ctx context.Context) ([]*db.Order, error) {
	pending, err := a.orders.ListOrders(ctx, db.OrderFilter{
		PrintStatus:   StatusPending,
		PaymentStatus: db.PaymentCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}

	unqueued, err := a.orders.ListOrders(ctx, db.OrderFilter{
		PrintStatus:   "none",
		PaymentStatus: db.PaymentCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unqueued orders: %w", err)
	}

	return append(unqueued, pending...), nil
}

// dispatchOrder applies the duplicate-job guard and sends one order.
func (a *Admission) dispatchOrder(ctx context.Context, o *db.Order, printerIndex int) OrderOutcome {
	outcome := OrderOutcome{OrderID: o.ID, OrderNumber: o.OrderNumber}

	if len(o.Files()) == 0 {
		outcome.Status = OutcomeSkipped
		outcome.Reason = ErrNoFile.Error()
		return outcome
	}
	if isEscalated(o) {
		outcome.Status = OutcomeSkipped
		outcome.Reason = "requires admin action"
		return outcome
	}

	if o.PrintStatus == "" {
		admitted, err := a.AdmitOrder(ctx, o.ID, Actor{})
		if err != nil {
			outcome.Status = OutcomeFailed
			outcome.Reason = err.Error()
			return outcome
		}
		o = admitted
	}

	var job *db.PrintJob
	latest, err := a.jobs.GetLatestJobForOrder(ctx, o.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		outcome.Status = OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}
	if currentCycleJob(o, latest) {
		job = latest
	}

	resend := false
	if job != nil {
		outcome.JobID = job.JobID
		switch job.Status {
		case db.JobStatusCompleted:
			outcome.Status = OutcomeSkipped
			outcome.Reason = "already printed"
			return outcome
		case db.JobStatusPrinting:
			outcome.Status = OutcomeSkipped
			outcome.Reason = "already printing"
			return outcome
		case db.JobStatusPending:
			if job.DeliveryNumber != "" && job.ErrorMessage == "" {
				outcome.Status = OutcomeSkipped
				outcome.Reason = "already dispatched"
				return outcome
			}
			resend = true
		}
	}

	var req *PrintJobRequest
	if resend {
		req = BuildRequest(o, job.JobID)
	} else {
		req = BuildRequest(o, "")
		newJob := &db.PrintJob{
			JobID:             req.JobID,
			OrderID:           o.ID,
			OrderNumber:       o.OrderNumber,
			FileURL:           o.FileURL,
			FileURLs:          o.FileURLs,
			OptionsJSON:       optionsJSON(o),
			Priority:          req.Priority,
			EstimatedDuration: req.EstimatedDuration,
			Status:            db.JobStatusPending,
			PrinterIndex:      printerIndex,
			CreatedAt:         a.now().UTC(),
		}
		if err := a.jobs.CreateJob(ctx, newJob); err != nil {
			outcome.Status = OutcomeFailed
			outcome.Reason = fmt.Sprintf("failed to create print job: %v", err)
			return outcome
		}
		outcome.JobID = newJob.JobID
	}

	result := a.dispatch.Send(ctx, req, printerIndex)
	outcome.DeliveryNumber = result.DeliveryNumber

	if err := a.jobs.RecordDispatch(ctx, req.JobID, result.DeliveryNumber, result.PrinterIndex, resend, result.Error); err != nil {
		log.Printf("[dispatch] failed to record dispatch of job %s: %v", req.JobID, err)
	}

	if result.Success {
		outcome.Status = OutcomeSuccess
		outcome.Reason = result.Message
		a.recorder.Log(ctx, LogEntry{
			Action:         ActionDispatched,
			OrderID:        o.ID,
			PrintJobID:     req.JobID,
			PreviousStatus: o.PrintStatus,
			NewStatus:      o.PrintStatus,
			Metadata: map[string]interface{}{
				"deliveryNumber": result.DeliveryNumber,
				"printerIndex":   result.PrinterIndex,
				"resend":         resend,
			},
		})
		return outcome
	}

	outcome.Status = OutcomeFailed
	outcome.Reason = result.Message
	a.recorder.Log(ctx, LogEntry{
		Action:         ActionDispatchFailed,
		OrderID:        o.ID,
		PrintJobID:     req.JobID,
		PreviousStatus: o.PrintStatus,
		NewStatus:      o.PrintStatus,
		Reason:         result.Error,
		Metadata: map[string]interface{}{
			"deliveryNumber": result.DeliveryNumber,
			"printerIndex":   result.PrinterIndex,
			"queued":         result.Queued,
		},
	})

	// A missing printer configuration is not the order's fault.
	if result.Error == ErrNoPrinterConfigured.Error() {
		outcome.Reason = ErrNoPrinterConfigured.Error()
		return outcome
	}

	if _, err := a.escalation.RecordFailure(ctx, o.ID, "", result.Error); err != nil {
		log.Printf("[dispatch] failed to record failure for order %s: %v", o.ID, err)
	}
	return outcome
}

// Redispatch is the retry queue's send function. Entries whose order left
// the queue in the meantime are dropped by returning nil.
func (a *Admission) Redispatch(ctx context.Context, entry *RetryEntry) error {
	o, err := getOrder(ctx, a.orders, entry.OrderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil
		}
		return err
	}
	if o.PrintStatus != StatusPending || isEscalated(o) {
		return nil
	}
	job, err := a.jobs.GetLatestJobForOrder(ctx, o.ID)
	if err != nil || job.JobID != entry.JobID || job.Status != db.JobStatusPending {
		return nil
	}

	deliveryNumber, resolved, sendErr := a.dispatch.Deliver(ctx, entry.Request, entry.PrinterIndex)
	errMsg := ""
	if sendErr != nil {
		errMsg = sendErr.Error()
	}
	if err := a.jobs.RecordDispatch(ctx, entry.JobID, deliveryNumber, resolved, true, errMsg); err != nil {
		log.Printf("[retry] failed to record dispatch of job %s: %v", entry.JobID, err)
	}
	if sendErr != nil {
		return sendErr
	}

	a.recorder.Log(ctx, LogEntry{
		Action:         ActionDispatched,
		OrderID:        o.ID,
		PrintJobID:     entry.JobID,
		PreviousStatus: o.PrintStatus,
		NewStatus:      o.PrintStatus,
		Metadata: map[string]interface{}{
			"deliveryNumber": deliveryNumber,
			"printerIndex":   resolved,
			"retry":          entry.Attempts + 1,
		},
	})
	return nil
}

func optionsJSON(o *db.Order) string {
	b, err := json.Marshal(o.PrintingOptions)
	if err != nil {
		return "{}"
	}
	return string(b)
}
