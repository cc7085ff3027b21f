package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func testOrder(id string) *Order {
	return &Order{
		ID:              id,
		OrderNumber:     "ORD-" + id,
		PaymentStatus:   PaymentCompleted,
		FileURL:         "https://files.example.com/" + id + ".pdf",
		PrintingOptions: PrintingOptions{PrintMode: "color", Copies: 2},
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		database, err := Open(Config{Path: path})
		if err != nil {
			t.Fatalf("open %d failed: %v", i, err)
		}
		database.Close()
	}
}

func TestOrderOperations_UpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	duplex := true
	o := testOrder("o1")
	o.FileURLs = []string{"https://files.example.com/extra.pdf"}
	o.PrintSegments = []PrintSegment{{SegmentID: "s1", PageRange: &PageRange{Start: 2, End: 4}, Duplex: &duplex}}
	if err := store.Orders.UpsertOrder(ctx, o); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := store.Orders.GetOrder(ctx, "o1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.MaxPrintAttempts != 3 || got.Version != 1 || got.PrintStatus != "" {
		t.Errorf("unexpected defaults: %+v", got)
	}
	if got.PrintingOptions.PrintMode != "color" || len(got.FileURLs) != 1 {
		t.Errorf("json columns not decoded: %+v", got)
	}
	if len(got.PrintSegments) != 1 || got.PrintSegments[0].PageRange.End != 4 || !*got.PrintSegments[0].Duplex {
		t.Errorf("segments not decoded: %+v", got.PrintSegments)
	}

	o.PaymentStatus = PaymentRefunded
	o.PrintStatus = "pending"
	if err := store.Orders.UpsertOrder(ctx, o); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	got, _ = store.Orders.GetOrder(ctx, "o1")
	if got.PaymentStatus != PaymentRefunded || got.Version != 2 {
		t.Errorf("shop fields not updated: %+v", got)
	}
	if got.PrintStatus != "" {
		t.Errorf("upsert must not overwrite print state, got %q", got.PrintStatus)
	}

	if _, err := store.Orders.GetOrder(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderOperations_UpsertFreezesFilesInPrintFlow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	o := testOrder("o1")
	o.MaxPrintAttempts = 5
	o.PrintSegments = []PrintSegment{{SegmentID: "s1"}}
	store.Orders.UpsertOrder(ctx, o)

	// Before the print flow starts the shop may still swap files.
	o.FileURL = "https://files.example.com/v2.pdf"
	o.MaxPrintAttempts = 0
	if err := store.Orders.UpsertOrder(ctx, o); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, _ := store.Orders.GetOrder(ctx, "o1")
	if got.FileURL != "https://files.example.com/v2.pdf" {
		t.Errorf("file of an unqueued order should be replaceable, got %s", got.FileURL)
	}
	if got.MaxPrintAttempts != 5 {
		t.Errorf("omitted attempt limit must keep the stored one, got %d", got.MaxPrintAttempts)
	}

	got.PrintStatus = "printing"
	got.PrintSegments[0].Status = "completed"
	if err := store.Orders.UpdatePrintState(ctx, got, got.Version); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	o.FileURL = "https://files.example.com/v3.pdf"
	o.FileURLs = []string{"https://files.example.com/extra.pdf"}
	o.PrintSegments = []PrintSegment{{SegmentID: "other"}}
	o.PaymentStatus = PaymentRefunded
	if err := store.Orders.UpsertOrder(ctx, o); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, _ = store.Orders.GetOrder(ctx, "o1")
	if got.FileURL != "https://files.example.com/v2.pdf" || len(got.FileURLs) != 0 {
		t.Errorf("files must not change once printing, got %s %v", got.FileURL, got.FileURLs)
	}
	if len(got.PrintSegments) != 1 || got.PrintSegments[0].SegmentID != "s1" || got.PrintSegments[0].Status != "completed" {
		t.Errorf("segments must not change once printing, got %+v", got.PrintSegments)
	}
	if got.PaymentStatus != PaymentRefunded {
		t.Errorf("shop fields should still update, got %s", got.PaymentStatus)
	}

	o.MaxPrintAttempts = 7
	store.Orders.UpsertOrder(ctx, o)
	if got, _ = store.Orders.GetOrder(ctx, "o1"); got.MaxPrintAttempts != 7 {
		t.Errorf("explicit attempt limit should apply, got %d", got.MaxPrintAttempts)
	}
}

func TestOrderOperations_UpdatePrintState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Orders.UpsertOrder(ctx, testOrder("o1"))

	o, _ := store.Orders.GetOrder(ctx, "o1")
	stale := *o

	queued := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	o.PrintStatus = "pending"
	o.PrintQueuedAt = &queued
	if err := store.Orders.UpdatePrintState(ctx, o, o.Version); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if o.Version != 2 {
		t.Errorf("expected version 2, got %d", o.Version)
	}

	stale.PrintStatus = "printed"
	if err := store.Orders.UpdatePrintState(ctx, &stale, stale.Version); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	got, _ := store.Orders.GetOrder(ctx, "o1")
	if got.PrintStatus != "pending" || !got.PrintQueuedAt.Equal(queued) {
		t.Errorf("unexpected stored state %+v", got)
	}

	missing := testOrder("missing")
	if err := store.Orders.UpdatePrintState(ctx, missing, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderOperations_ClaimLease(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Orders.UpsertOrder(ctx, testOrder("o1"))
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	if _, err := store.Orders.ClaimLease(ctx, "o1", "w1", "p1", now, now.Add(-time.Minute)); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("order without print status must not be claimable, got %v", err)
	}

	o, _ := store.Orders.GetOrder(ctx, "o1")
	o.PrintStatus = "pending"
	store.Orders.UpdatePrintState(ctx, o, o.Version)

	claimed, err := store.Orders.ClaimLease(ctx, "o1", "w1", "p1", now, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed.PrintStatus != "printing" || claimed.PrintingBy != "w1" || !claimed.PrintingHeartbeatAt.Equal(now) {
		t.Errorf("unexpected claimed order %+v", claimed)
	}

	if _, err := store.Orders.ClaimLease(ctx, "o1", "w2", "p2", now, now.Add(-time.Minute)); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("fresh lease must not be claimable, got %v", err)
	}

	later := now.Add(5 * time.Minute)
	reclaimed, err := store.Orders.ClaimLease(ctx, "o1", "w2", "p2", later, later.Add(-time.Minute))
	if err != nil {
		t.Fatalf("stale reclaim failed: %v", err)
	}
	if reclaimed.PrintingBy != "w2" {
		t.Errorf("expected w2 to hold the lease, got %s", reclaimed.PrintingBy)
	}

	if _, err := store.Orders.ClaimLease(ctx, "missing", "w1", "", now, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderOperations_TouchHeartbeat(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Orders.UpsertOrder(ctx, testOrder("o1"))
	o, _ := store.Orders.GetOrder(ctx, "o1")
	o.PrintStatus = "pending"
	store.Orders.UpdatePrintState(ctx, o, o.Version)

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.Orders.ClaimLease(ctx, "o1", "w1", "", now, now)

	if err := store.Orders.TouchHeartbeat(ctx, "o1", "w1", now.Add(time.Minute)); err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}
	got, _ := store.Orders.GetOrder(ctx, "o1")
	if !got.PrintingHeartbeatAt.Equal(now.Add(time.Minute)) {
		t.Errorf("heartbeat not stored: %v", got.PrintingHeartbeatAt)
	}

	if err := store.Orders.TouchHeartbeat(ctx, "o1", "w2", now); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict for non-holder, got %v", err)
	}
	if err := store.Orders.TouchHeartbeat(ctx, "missing", "w1", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderOperations_ListOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		store.Orders.UpsertOrder(ctx, testOrder(id))
		time.Sleep(2 * time.Millisecond)
	}
	set := func(id, status string, attempt int) {
		o, _ := store.Orders.GetOrder(ctx, id)
		o.PrintStatus = status
		o.PrintAttempt = attempt
		if err := store.Orders.UpdatePrintState(ctx, o, o.Version); err != nil {
			t.Fatalf("update %s failed: %v", id, err)
		}
	}
	set("a", "pending", 0)
	set("b", "pending", 3)
	set("c", "printed", 0)

	ids := func(orders []*Order) []string {
		var out []string
		for _, o := range orders {
			out = append(out, o.ID)
		}
		return out
	}
	escalated := true
	notEscalated := false

	tests := []struct {
		name   string
		filter OrderFilter
		want   []string
	}{
		{"all", OrderFilter{}, []string{"a", "b", "c", "d"}},
		{"newest first", OrderFilter{NewestFirst: true, Limit: 2}, []string{"d", "c"}},
		{"pending", OrderFilter{PrintStatus: "pending"}, []string{"a", "b"}},
		{"no status", OrderFilter{PrintStatus: "none"}, []string{"d"}},
		{"escalated", OrderFilter{Escalated: &escalated}, []string{"b"}},
		{"pending not escalated", OrderFilter{PrintStatus: "pending", Escalated: &notEscalated}, []string{"a"}},
		{"unpaid", OrderFilter{PaymentStatus: PaymentPending}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Orders.ListOrders(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			gotIDs := ids(got)
			if len(gotIDs) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, gotIDs)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, gotIDs)
				}
			}
		})
	}
}

func TestJobOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Jobs.GetLatestJobForOrder(ctx, "o1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first := &PrintJob{JobID: "j1", OrderID: "o1", FileURLs: []string{"a.pdf"}}
	second := &PrintJob{JobID: "j2", OrderID: "o1"}
	if err := store.Jobs.CreateJob(ctx, first); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.Jobs.CreateJob(ctx, second); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.ID == 0 || first.Status != JobStatusPending {
		t.Errorf("expected id and default status, got %+v", first)
	}

	latest, err := store.Jobs.GetLatestJobForOrder(ctx, "o1")
	if err != nil || latest.JobID != "j2" {
		t.Fatalf("expected j2 as latest, got %+v (%v)", latest, err)
	}

	if err := store.Jobs.RecordDispatch(ctx, "j2", "P1-1-1-abcd", 2, false, "timeout"); err != nil {
		t.Fatalf("record dispatch failed: %v", err)
	}
	if err := store.Jobs.RecordDispatch(ctx, "j2", "P1-2-2-abcd", 1, true, ""); err != nil {
		t.Fatalf("record dispatch failed: %v", err)
	}
	job, _ := store.Jobs.GetJob(ctx, "j2")
	if job.DeliveryNumber != "P1-2-2-abcd" || job.RetryCount != 1 || job.ErrorMessage != "" || job.PrinterIndex != 1 {
		t.Errorf("unexpected job after dispatches: %+v", job)
	}

	since := time.Now().Add(-time.Minute)
	store.Jobs.UpdateJobStatus(ctx, "j2", JobStatusPrinting, "")
	store.Jobs.UpdateJobStatus(ctx, "j2", JobStatusCompleted, "")
	job, _ = store.Jobs.GetJob(ctx, "j2")
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Errorf("expected start and completion times, got %+v", job)
	}

	count, err := store.Jobs.CountCompletedSince(ctx, since)
	if err != nil || count != 1 {
		t.Errorf("expected 1 completed job, got %d (%v)", count, err)
	}

	pending, _ := store.Jobs.ListJobsByStatus(ctx, JobStatusPending, 10)
	if len(pending) != 1 || pending[0].JobID != "j1" || len(pending[0].FileURLs) != 1 {
		t.Errorf("unexpected pending jobs %+v", pending)
	}
}

func TestLogAndAlertOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, action := range []string{"admitted", "dispatched", "print_failed"} {
		store.Logs.AppendLog(ctx, &PrintLog{Action: action, OrderID: "o1", CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}
	store.Logs.AppendLog(ctx, &PrintLog{Action: "admitted", OrderID: "o2", CreatedAt: base})

	logs, err := store.Logs.ListLogs(ctx, LogFilter{OrderID: "o1"})
	if err != nil {
		t.Fatalf("list logs failed: %v", err)
	}
	if len(logs) != 3 || logs[0].Action != "print_failed" || logs[0].MetadataJSON != "{}" {
		t.Errorf("expected newest first with empty metadata, got %+v", logs)
	}
	admitted, _ := store.Logs.ListLogs(ctx, LogFilter{Action: "admitted"})
	if len(admitted) != 2 {
		t.Errorf("expected 2 admitted entries, got %d", len(admitted))
	}

	a := &Alert{Type: "escalation", OrderID: "o1", Message: "order o1 requires admin action"}
	store.Alerts.CreateAlert(ctx, a)
	store.Alerts.CreateAlert(ctx, &Alert{Type: "printer_error", PrinterID: "p1", Message: "printer p1 is offline"})

	alerts, _ := store.Alerts.ListRecentAlerts(ctx, 10)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if err := store.Alerts.AcknowledgeAlert(ctx, a.ID); err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	alerts, _ = store.Alerts.ListRecentAlerts(ctx, 10)
	if len(alerts) != 1 || alerts[0].Type != "printer_error" {
		t.Errorf("acknowledged alert still listed: %+v", alerts)
	}
	if err := store.Alerts.AcknowledgeAlert(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPrinterAndCounterOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seen := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	p := &Printer{ID: "p1", Name: "Front", ConnectionType: "http", Status: PrinterOnline, LastSeenAt: &seen}
	if err := store.Printers.UpsertPrinter(ctx, p); err != nil {
		t.Fatalf("upsert printer failed: %v", err)
	}
	store.Printers.UpdatePrinterStatus(ctx, "p1", PrinterError, "paper jam")
	store.Printers.RecordSuccess(ctx, "p1", 3, seen)

	got, err := store.Printers.GetPrinter(ctx, "p1")
	if err != nil {
		t.Fatalf("get printer failed: %v", err)
	}
	if got.Status != PrinterError || got.ErrorMessage != "paper jam" || got.TotalPrints != 3 {
		t.Errorf("unexpected printer %+v", got)
	}
	if got.LastSuccessfulPrintAt == nil || !got.LastSuccessfulPrintAt.Equal(seen) {
		t.Errorf("unexpected last print time %v", got.LastSuccessfulPrintAt)
	}

	store.Counters.IncrementDailyCounter(ctx, "p1", seen, 2)
	store.Counters.IncrementDailyCounter(ctx, "p1", seen, 3)
	store.Counters.IncrementDailyCounter(ctx, "p1", seen.AddDate(0, 0, 1), 1)

	today, _ := store.Counters.GetCountersForDate(ctx, seen)
	if len(today) != 1 || today[0].Count != 5 {
		t.Errorf("expected 5 prints on the first day, got %+v", today)
	}
	week, _ := store.Counters.GetCounters(ctx, "p1", seen, seen.AddDate(0, 0, 7))
	if len(week) != 2 {
		t.Errorf("expected 2 daily counters, got %d", len(week))
	}
}

func TestAdminAndSettingsOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if n, _ := store.Admins.CountAdmins(ctx); n != 0 {
		t.Fatalf("expected no admins, got %d", n)
	}
	store.Admins.CreateAdmin(ctx, &Admin{Email: "Admin@Example.com", PasswordHash: "hash"})

	a, err := store.Admins.GetAdmin(ctx, "admin@example.COM")
	if err != nil || a.Email != "admin@example.com" {
		t.Fatalf("expected case-insensitive lookup, got %+v (%v)", a, err)
	}
	store.Admins.UpdatePassword(ctx, "ADMIN@example.com", "new-hash")
	a, _ = store.Admins.GetAdmin(ctx, "admin@example.com")
	if a.PasswordHash != "new-hash" {
		t.Errorf("password not updated")
	}

	if _, err := store.Settings.GetSetting(ctx, "jwt_secret"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	store.Settings.SetSetting(ctx, "jwt_secret", "one")
	store.Settings.SetSetting(ctx, "jwt_secret", "two")
	s, _ := store.Settings.GetSetting(ctx, "jwt_secret")
	if s.Value != "two" {
		t.Errorf("expected overwritten setting, got %q", s.Value)
	}
}
