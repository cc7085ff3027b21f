package core

import (
	"context"
	"time"

	"github.com/orrn/printdesk/internal/db"
)

// OrderStore persists order documents. UpdatePrintState and ClaimLease are
// compare-and-set writes and report db.ErrVersionConflict when they lose.
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*db.Order, error)
	UpsertOrder(ctx context.Context, order *db.Order) error
	ListOrders(ctx context.Context, filter db.OrderFilter) ([]*db.Order, error)
	UpdatePrintState(ctx context.Context, order *db.Order, expectedVersion int64) error
	ClaimLease(ctx context.Context, id, workerID, printerName string, now, staleBefore time.Time) (*db.Order, error)
	TouchHeartbeat(ctx context.Context, id, workerID string, now time.Time) error
}

type JobStore interface {
	CreateJob(ctx context.Context, job *db.PrintJob) error
	GetLatestJobForOrder(ctx context.Context, orderID string) (*db.PrintJob, error)
	UpdateJobStatus(ctx context.Context, jobID, status, errorMsg string) error
	RecordDispatch(ctx context.Context, jobID, deliveryNumber string, printerIndex int, retry bool, errorMsg string) error
	CountCompletedSince(ctx context.Context, since time.Time) (int64, error)
}

type LogStore interface {
	AppendLog(ctx context.Context, entry *db.PrintLog) error
	ListLogs(ctx context.Context, filter db.LogFilter) ([]*db.PrintLog, error)
}

type AlertStore interface {
	CreateAlert(ctx context.Context, alert *db.Alert) error
	ListRecentAlerts(ctx context.Context, limit int) ([]*db.Alert, error)
	AcknowledgeAlert(ctx context.Context, id int64) error
}

type PrinterStore interface {
	UpsertPrinter(ctx context.Context, printer *db.Printer) error
	ListPrinters(ctx context.Context) ([]*db.Printer, error)
	UpdatePrinterStatus(ctx context.Context, id, status, errorMsg string) error
	RecordSuccess(ctx context.Context, id string, copies int, at time.Time) error
}

type CounterStore interface {
	IncrementDailyCounter(ctx context.Context, printerID string, date time.Time, count int) error
	GetCountersForDate(ctx context.Context, date time.Time) ([]*db.PrintCounter, error)
}

// Notifier delivers lifecycle events to external subscribers. Implementations
// must not block the caller.
type Notifier interface {
	Notify(event string, data interface{})
}

const (
	EventPrintCompleted       = "print_completed"
	EventPrintFailed          = "print_failed"
	EventPrintEscalated       = "print_escalated"
	EventPrinterStatusChanged = "printer_status_changed"
	EventLeaseExpired         = "lease_expired"
)

// Actor identifies who triggered a change. Email is empty for workers and
// the shop backend.
type Actor struct {
	Email   string
	IsAdmin bool
}

type OrderEventData struct {
	OrderID      string `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	PrintStatus  string `json:"print_status"`
	PrintAttempt int    `json:"print_attempt"`
	PrinterName  string `json:"printer_name,omitempty"`
	WorkerID     string `json:"worker_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

type PrinterStatusChange struct {
	PrinterID   string    `json:"printer_id"`
	PrinterName string    `json:"printer_name"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func orderEvent(o *db.Order, workerID string) *OrderEventData {
	return &OrderEventData{
		OrderID:      o.ID,
		OrderNumber:  o.OrderNumber,
		PrintStatus:  o.PrintStatus,
		PrintAttempt: o.PrintAttempt,
		PrinterName:  o.PrinterName,
		WorkerID:     workerID,
		Error:        o.PrintError,
	}
}
