package core

import (
	"context"
	"testing"
	"time"

	"github.com/orrn/printdesk/internal/config"
	"github.com/orrn/printdesk/internal/db"
)

func TestPrinterRegistry_RecordHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(t0)

	p, err := env.registry.RecordHeartbeat(context.Background(), HeartbeatInput{
		ID:          "printer-1",
		Name:        "Front Desk",
		Address:     "http://10.0.0.5:9100",
		QueueLength: 2,
	})
	if err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}
	if p.Status != db.PrinterOnline || p.Name != "Front Desk" || p.QueueLength != 2 {
		t.Errorf("unexpected printer %+v", p)
	}
	if p.LastSeenAt == nil || !p.LastSeenAt.Equal(t0) {
		t.Errorf("expected last seen %s, got %v", t0, p.LastSeenAt)
	}

	stored, err := env.store.Printers.GetPrinter(context.Background(), "printer-1")
	if err != nil {
		t.Fatalf("printer was not persisted: %v", err)
	}
	if stored.Address != "http://10.0.0.5:9100" {
		t.Errorf("unexpected stored printer %+v", stored)
	}

	p, err = env.registry.RecordHeartbeat(context.Background(), HeartbeatInput{
		ID:           "printer-1",
		Status:       db.PrinterError,
		ErrorMessage: "out of toner",
	})
	if err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}
	if p.Name != "Front Desk" || p.Status != db.PrinterError {
		t.Errorf("partial heartbeat must keep known fields, got %+v", p)
	}
	if !contains(env.alertTypes(t), AlertPrinterError) {
		t.Error("expected printer_error alert")
	}
	if !env.notifier.has(EventPrinterStatusChanged) {
		t.Error("expected printer_status_changed notification")
	}
}

func TestPrinterRegistry_RecordHeartbeatValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		in   HeartbeatInput
	}{
		{"missing id", HeartbeatInput{ID: "  "}},
		{"unknown status", HeartbeatInput{ID: "p", Status: "sleeping"}},
		{"negative queue", HeartbeatInput{ID: "p", QueueLength: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.registry.RecordHeartbeat(context.Background(), tt.in); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if len(env.registry.List()) != 0 {
		t.Error("invalid heartbeats must not register printers")
	}
}

func TestPrinterRegistry_MarkOffline(t *testing.T) {
	store := newTestStore(t)
	recorder := NewRecorder(store.Logs, store.Alerts, nil)
	registry := NewPrinterRegistry(store.Printers, store.Counters, recorder, &config.PrintersConfig{
		OfflineAfter: time.Minute,
	})
	registry.now = func() time.Time { return t0 }

	registry.RecordHeartbeat(context.Background(), HeartbeatInput{ID: "silent"})
	registry.RecordHeartbeat(context.Background(), HeartbeatInput{ID: "service", Status: db.PrinterMaintenance})

	registry.now = func() time.Time { return t0.Add(30 * time.Second) }
	registry.RecordHeartbeat(context.Background(), HeartbeatInput{ID: "alive"})

	registry.now = func() time.Time { return t0.Add(80 * time.Second) }
	changed := registry.MarkOffline(context.Background())
	if len(changed) != 1 || changed[0] != "silent" {
		t.Fatalf("expected only the silent printer to go offline, got %v", changed)
	}

	p, err := registry.Get("silent")
	if err != nil {
		t.Fatalf("printer missing: %v", err)
	}
	if p.Status != db.PrinterOffline {
		t.Errorf("expected offline, got %s", p.Status)
	}
	stored, _ := store.Printers.GetPrinter(context.Background(), "silent")
	if stored.Status != db.PrinterOffline {
		t.Errorf("offline status not persisted, got %s", stored.Status)
	}

	if again := registry.MarkOffline(context.Background()); len(again) != 0 {
		t.Errorf("offline printers must not be reported twice, got %v", again)
	}
}

func TestPrinterRegistry_RecordPrint(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(t0)
	env.registry.RecordHeartbeat(context.Background(), HeartbeatInput{ID: "printer-1", Name: "Front Desk"})

	env.registry.RecordPrint(context.Background(), "Front Desk", 3)
	env.registry.RecordPrint(context.Background(), "printer-1", 0)

	p, _ := env.registry.Get("printer-1")
	if p.TotalPrints != 4 {
		t.Errorf("expected 4 prints, got %d", p.TotalPrints)
	}
	if p.LastSuccessfulPrintAt == nil {
		t.Error("expected last successful print time")
	}

	counters, err := env.store.Counters.GetCountersForDate(context.Background(), t0)
	if err != nil {
		t.Fatalf("failed to read counters: %v", err)
	}
	if len(counters) != 1 || counters[0].Count != 4 {
		t.Errorf("expected one counter of 4, got %+v", counters)
	}
}

func TestPrinterRegistry_LoadAndList(t *testing.T) {
	env := newTestEnv(t)
	env.registry.RecordHeartbeat(context.Background(), HeartbeatInput{ID: "p2", Name: "Basement"})
	env.registry.RecordHeartbeat(context.Background(), HeartbeatInput{ID: "p1", Name: "Attic"})

	fresh := NewPrinterRegistry(env.store.Printers, env.store.Counters, env.recorder, nil)
	if err := fresh.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	list := fresh.List()
	if len(list) != 2 || list[0].Name != "Attic" || list[1].Name != "Basement" {
		t.Errorf("expected printers sorted by name, got %+v", list)
	}
	if _, err := fresh.Get("missing"); err != ErrPrinterNotFound {
		t.Errorf("expected ErrPrinterNotFound, got %v", err)
	}
}
