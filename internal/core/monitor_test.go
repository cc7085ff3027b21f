package core

import (
	"context"
	"testing"
	"time"

	"github.com/orrn/printdesk/internal/db"
)

func TestMonitor_Snapshot(t *testing.T) {
	ps := newPrinterServer(t)
	env := newTestEnv(t, ps.URL)
	env.setClock(t0)

	env.registry.RecordHeartbeat(context.Background(), HeartbeatInput{ID: "printer-1"})

	segmented := paidOrder("queued")
	segmented.PrintSegments = []db.PrintSegment{
		{SegmentID: "first", PageRange: pages(1, 4)},
		{SegmentID: "last", PageRange: pages(5, 9)},
	}
	env.createOrder(t, segmented)
	env.admission.AdmitOrder(context.Background(), "queued", Actor{})

	env.queuedOrder(t, "stuck")
	env.forceState(t, "stuck", func(o *db.Order) { o.PrintAttempt = 3 })

	env.queuedOrder(t, "leased")
	env.leases.Claim(context.Background(), "leased", "worker-1", "printer-1")

	env.queuedOrder(t, "done")
	env.leases.Claim(context.Background(), "done", "worker-2", "printer-1")
	env.leases.Complete(context.Background(), "done", "worker-2")

	env.setClock(t0.Add(5 * time.Minute))
	data, err := env.monitor.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	if len(data.Pending) != 1 || data.Pending[0].ID != "queued" {
		t.Fatalf("unexpected pending list %+v", data.Pending)
	}
	queued := data.Pending[0]
	if len(queued.Segments) != 2 || queued.Segments[0].SegmentID != "last" || queued.Segments[0].ExecutionOrder != 1 {
		t.Errorf("expected sequenced segments, got %+v", queued.Segments)
	}
	if queued.Attempts != "0/3" || queued.RequiresAdmin {
		t.Errorf("unexpected attempts %s requiresAdmin=%v", queued.Attempts, queued.RequiresAdmin)
	}

	if len(data.Escalated) != 1 || data.Escalated[0].ID != "stuck" || !data.Escalated[0].RequiresAdmin {
		t.Errorf("unexpected escalated list %+v", data.Escalated)
	}
	if data.Escalated[0].Attempts != "3/3" {
		t.Errorf("expected 3/3 attempts, got %s", data.Escalated[0].Attempts)
	}

	if len(data.Printing) != 1 || data.Printing[0].ID != "leased" {
		t.Fatalf("unexpected printing list %+v", data.Printing)
	}
	if !data.Printing[0].IsStale {
		t.Error("lease without heartbeat for 5 minutes should be stale")
	}

	if len(data.Printed) != 1 || data.Printed[0].ID != "done" {
		t.Errorf("unexpected printed list %+v", data.Printed)
	}

	if len(data.Printers) != 1 || data.Printers[0].ID != "printer-1" {
		t.Errorf("unexpected printers %+v", data.Printers)
	}
	if len(data.RecentLogs) == 0 {
		t.Error("expected recent log entries")
	}
	if data.Throughput.PrintsToday != 2 {
		t.Errorf("expected 2 prints today, got %d", data.Throughput.PrintsToday)
	}
	if data.RetryQueue.Items == nil || data.RecentAlerts == nil {
		t.Error("lists must be empty, not nil")
	}
	if !data.GeneratedAt.Equal(t0.Add(5 * time.Minute)) {
		t.Errorf("unexpected generation time %s", data.GeneratedAt)
	}
}

func TestMonitor_SnapshotEmpty(t *testing.T) {
	env := newTestEnv(t)

	data, err := env.monitor.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if data.Pending == nil || data.Printing == nil || data.Printed == nil || data.Escalated == nil {
		t.Error("order lists must be empty, not nil")
	}
	if data.Printers == nil || data.RecentLogs == nil || data.Throughput.ByPrinter == nil {
		t.Error("dashboard lists must be empty, not nil")
	}
}
