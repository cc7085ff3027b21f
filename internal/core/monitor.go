package core

import (
	"context"
	"fmt"
	"time"

	"github.com/orrn/printdesk/internal/db"
)

const (
	monitorLogLimit     = 50
	monitorAlertLimit   = 20
	monitorPrintedLimit = 50
)

// OrderView is an order as shown on the print monitor.
type OrderView struct {
	ID                  string             `json:"id"`
	OrderNumber         string             `json:"orderNumber"`
	PaymentStatus       string             `json:"paymentStatus"`
	PrintStatus         string             `json:"printStatus"`
	PrintAttempt        int                `json:"printAttempt"`
	MaxPrintAttempts    int                `json:"maxPrintAttempts"`
	Attempts            string             `json:"attempts"`
	PrintError          string             `json:"printError,omitempty"`
	PrinterName         string             `json:"printerName,omitempty"`
	PrintingBy          string             `json:"printingBy,omitempty"`
	PrintStartedAt      *time.Time         `json:"printStartedAt,omitempty"`
	PrintCompletedAt    *time.Time         `json:"printCompletedAt,omitempty"`
	PrintingHeartbeatAt *time.Time         `json:"printingHeartbeatAt,omitempty"`
	IsStale             bool               `json:"isStale"`
	RequiresAdmin       bool               `json:"requiresAdmin"`
	FileURL             string             `json:"fileURL,omitempty"`
	FileURLs            []string           `json:"fileURLs,omitempty"`
	PrintingOptions     db.PrintingOptions `json:"printingOptions"`
	Segments            []SequencedSegment `json:"segments"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

type Throughput struct {
	CompletedLastHour int64              `json:"completedLastHour"`
	PrintsToday       int64              `json:"printsToday"`
	ByPrinter         []*db.PrintCounter `json:"byPrinter"`
}

type MonitorData struct {
	Pending      []OrderView      `json:"pending"`
	Printing     []OrderView      `json:"printing"`
	Printed      []OrderView      `json:"printed"`
	Escalated    []OrderView      `json:"escalated"`
	Printers     []*db.Printer    `json:"printers"`
	RecentLogs   []*db.PrintLog   `json:"recentLogs"`
	RecentAlerts []*db.Alert      `json:"recentAlerts"`
	Throughput   Throughput       `json:"throughput"`
	RetryQueue   RetryQueueStatus `json:"retryQueue"`
	GeneratedAt  time.Time        `json:"generatedAt"`
}

// Monitor assembles the admin dashboard from the other components.
type Monitor struct {
	orders   OrderStore
	jobs     JobStore
	logs     LogStore
	alerts   AlertStore
	counters CounterStore
	registry *PrinterRegistry
	leases   *LeaseManager
	dispatch *DispatchClient
	now      func() time.Time
}

func NewMonitor(orders OrderStore, jobs JobStore, logs LogStore, alerts AlertStore, counters CounterStore,
	registry *PrinterRegistry, leases *LeaseManager, dispatch *DispatchClient) *Monitor {
	return &Monitor{
		orders:   orders,
		jobs:     jobs,
		logs:     logs,
		alerts:   alerts,
		counters: counters,
		registry: registry,
		leases:   leases,
		dispatch: dispatch,
		now:      time.Now,
	}
}

// FormatOrder builds the monitor view of o, including segment execution
// order and lease staleness.
func (m *Monitor) FormatOrder(o *db.Order) OrderView {
	return formatOrder(o, m.leases, m.now())
}

func formatOrder(o *db.Order, leases *LeaseManager, now time.Time) OrderView {
	v := OrderView{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		PaymentStatus:       o.PaymentStatus,
		PrintStatus:         o.PrintStatus,
		PrintAttempt:        o.PrintAttempt,
		MaxPrintAttempts:    o.MaxPrintAttempts,
		Attempts:            formatAttempts(o),
		PrintError:          o.PrintError,
		PrinterName:         o.PrinterName,
		PrintingBy:          o.PrintingBy,
		PrintStartedAt:      o.PrintStartedAt,
		PrintCompletedAt:    o.PrintCompletedAt,
		PrintingHeartbeatAt: o.PrintingHeartbeatAt,
		RequiresAdmin:       isEscalated(o),
		FileURL:             o.FileURL,
		FileURLs:            o.FileURLs,
		PrintingOptions:     o.PrintingOptions,
		Segments:            SequenceSegments(o.PrintSegments),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	if leases != nil {
		v.IsStale = leases.IsStale(o, now)
	}
	return v
}

func (m *Monitor) formatAll(orders []*db.Order, now time.Time) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, formatOrder(o, m.leases, now))
	}
	return views
}

func (m *Monitor) Snapshot(ctx context.Context) (*MonitorData, error) {
	now := m.now()
	data := &MonitorData{GeneratedAt: now.UTC()}

	pending, err := m.orders.ListOrders(ctx, db.OrderFilter{PrintStatus: StatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}
	queued := make([]*db.Order, 0, len(pending))
	var escalated []*db.Order
	for _, o := range pending {
		if isEscalated(o) {
			escalated = append(escalated, o)
		} else {
			queued = append(queued, o)
		}
	}
	data.Pending = m.formatAll(queued, now)
	data.Escalated = m.formatAll(escalated, now)

	printing, err := m.orders.ListOrders(ctx, db.OrderFilter{PrintStatus: StatusPrinting})
	if err != nil {
		return nil, fmt.Errorf("failed to list printing orders: %w", err)
	}
	data.Printing = m.formatAll(printing, now)

	printed, err := m.orders.ListOrders(ctx, db.OrderFilter{
		PrintStatus: StatusPrinted,
		NewestFirst: true,
		Limit:       monitorPrintedLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list printed orders: %w", err)
	}
	data.Printed = m.formatAll(printed, now)

	if m.registry != nil {
		data.Printers = m.registry.List()
	} else {
		data.Printers = []*db.Printer{}
	}

	logs, err := m.logs.ListLogs(ctx, db.LogFilter{Limit: monitorLogLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list print logs: %w", err)
	}
	data.RecentLogs = nonNil(logs)

	alerts, err := m.alerts.ListRecentAlerts(ctx, monitorAlertLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	data.RecentAlerts = nonNil(alerts)

	data.Throughput, err = m.throughput(ctx, now)
	if err != nil {
		return nil, err
	}

	if m.dispatch != nil {
		data.RetryQueue = m.dispatch.RetryQueueStatus()
	} else {
		data.RetryQueue = RetryQueueStatus{Items: []RetryEntry{}}
	}
	return data, nil
}

func (m *Monitor) throughput(ctx context.Context, now time.Time) (Throughput, error) {
	t := Throughput{ByPrinter: []*db.PrintCounter{}}

	completed, err := m.jobs.CountCompletedSince(ctx, now.Add(-time.Hour))
	if err != nil {
		return t, fmt.Errorf("failed to count completed jobs: %w", err)
	}
	t.CompletedLastHour = completed

	if m.counters == nil {
		return t, nil
	}
	counters, err := m.counters.GetCountersForDate(ctx, now)
	if err != nil {
		return t, fmt.Errorf("failed to load print counters: %w", err)
	}
	for _, c := range counters {
		t.PrintsToday += c.Count
	}
	t.ByPrinter = nonNil(counters)
	return t, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
