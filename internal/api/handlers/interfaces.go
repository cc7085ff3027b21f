package handlers

import (
	"context"

	"github.com/orrn/printdesk/internal/archive"
	"github.com/orrn/printdesk/internal/core"
	"github.com/orrn/printdesk/internal/db"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

type OrderAdmitter interface {
	AdmitOrder(ctx context.Context, orderID string, actor core.Actor) (*db.Order, error)
	ProcessAllPending(ctx context.Context, printerIndex int) (*core.BatchReport, error)
}

type PrinterProber interface {
	CheckHealth(ctx context.Context, printerIndex int) core.HealthStatus
	RetryQueueStatus() core.RetryQueueStatus
	PrinterURLs() []string
}

type MonitorSource interface {
	Snapshot(ctx context.Context) (*core.MonitorData, error)
	FormatOrder(o *db.Order) core.OrderView
}

type LeaseService interface {
	Claim(ctx context.Context, orderID, workerID, printerName string) (*db.Order, error)
	Heartbeat(ctx context.Context, orderID, workerID string) (*db.Order, error)
	Complete(ctx context.Context, orderID, workerID string) (*db.Order, error)
	Fail(ctx context.Context, orderID, workerID, message string) (*db.Order, error)
	SweepStale(ctx context.Context) ([]string, error)
}

type EscalationService interface {
	RequiresAdmin(ctx context.Context) ([]*db.Order, error)
	ForceReset(ctx context.Context, orderID string, admin core.Actor, reason string) (*db.Order, error)
	ForceComplete(ctx context.Context, orderID string, admin core.Actor, reason string) (*db.Order, error)
	Reprint(ctx context.Context, orderID string, admin core.Actor, reason string) (*db.Order, error)
}

type PrinterDirectory interface {
	RecordHeartbeat(ctx context.Context, in core.HeartbeatInput) (*db.Printer, error)
	List() []*db.Printer
}

type OrderRepository interface {
	GetOrder(ctx context.Context, id string) (*db.Order, error)
	UpsertOrder(ctx context.Context, order *db.Order) error
}

type LogReader interface {
	ListLogs(ctx context.Context, filter db.LogFilter) ([]*db.PrintLog, error)
}

type AlertAcknowledger interface {
	AcknowledgeAlert(ctx context.Context, id int64) error
}

type HistoryArchiver interface {
	RunArchive(ctx context.Context) (*archive.RunResult, error)
	ListArchives(ctx context.Context) ([]*archive.ArchiveFile, error)
	DeleteArchive(ctx context.Context, filename string) error
}
