package core

import (
	"context"
	"encoding/json"
	"log"

	"github.com/orrn/printdesk/internal/db"
)

const (
	ActionAdmitted           = "admitted"
	ActionDispatched         = "dispatched"
	ActionDispatchFailed     = "dispatch_failed"
	ActionLeaseClaimed       = "lease_claimed"
	ActionLeaseReclaimed     = "lease_reclaimed"
	ActionLeaseExpired       = "lease_expired"
	ActionPrintCompleted     = "print_completed"
	ActionPrintFailed        = "print_failed"
	ActionPrintEscalated     = "print_escalated"
	ActionAdminReset         = "admin_reset"
	ActionAdminForceComplete = "admin_force_complete"
	ActionAdminReprint       = "admin_reprint"
)

const (
	AlertEscalation     = "escalation"
	AlertPrinterError   = "printer_error"
	AlertStaleLease     = "stale_lease"
	AlertDispatchFailed = "dispatch_failed"
)

type LogEntry struct {
	Action         string
	OrderID        string
	PrintJobID     string
	AdminEmail     string
	PreviousStatus string
	NewStatus      string
	Reason         string
	Metadata       map[string]interface{}
}

// Recorder is the write side of the print log, alerts and notifications.
// Audit writes never fail the operation that triggered them.
type Recorder struct {
	logs     LogStore
	alerts   AlertStore
	notifier Notifier
}

func NewRecorder(logs LogStore, alerts AlertStore, notifier Notifier) *Recorder {
	return &Recorder{
		logs:     logs,
		alerts:   alerts,
		notifier: notifier,
	}
}

func (r *Recorder) Log(ctx context.Context, e LogEntry) {
	if r == nil || r.logs == nil {
		return
	}

	metadata := "{}"
	if len(e.Metadata) > 0 {
		if b, err := json.Marshal(e.Metadata); err == nil {
			metadata = string(b)
		}
	}

	entry := &db.PrintLog{
		Action:         e.Action,
		OrderID:        e.OrderID,
		PrintJobID:     e.PrintJobID,
		AdminEmail:     e.AdminEmail,
		PreviousStatus: e.PreviousStatus,
		NewStatus:      e.NewStatus,
		Reason:         e.Reason,
		MetadataJSON:   metadata,
	}
	if err := r.logs.AppendLog(ctx, entry); err != nil {
		log.Printf("[printlog] failed to record %s for order %s: %v", e.Action, e.OrderID, err)
	}
}

func (r *Recorder) Alert(ctx context.Context, alertType, orderID, printerID, message string) {
	if r == nil || r.alerts == nil {
		return
	}
	alert := &db.Alert{
		Type:      alertType,
		OrderID:   orderID,
		PrinterID: printerID,
		Message:   message,
	}
	if err := r.alerts.CreateAlert(ctx, alert); err != nil {
		log.Printf("[printlog] failed to raise %s alert: %v", alertType, err)
	}
}

func (r *Recorder) Notify(event string, data interface{}) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Notify(event, data)
}
