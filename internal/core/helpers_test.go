package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orrn/printdesk/internal/config"
	"github.com/orrn/printdesk/internal/db"
)

type testEnv struct {
	store      *db.Store
	recorder   *Recorder
	notifier   *recordingNotifier
	retryQueue *RetryQueue
	registry   *PrinterRegistry
	escalation *EscalationMonitor
	leases     *LeaseManager
	dispatch   *DispatchClient
	admission  *Admission
	monitor    *Monitor
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) has(event string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	database, err := db.Open(db.Config{Path: filepath.Join(t.TempDir(), "printdesk.db")})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return db.NewStore(database)
}

func newTestEnv(t *testing.T, printerURLs ...string) *testEnv {
	t.Helper()
	store := newTestStore(t)
	notifier := &recordingNotifier{}
	recorder := NewRecorder(store.Logs, store.Alerts, notifier)
	rq := NewRetryQueue(&config.QueueConfig{MaxRetries: 3, RetryDelay: time.Second, RetryQueueSize: 10})
	registry := NewPrinterRegistry(store.Printers, store.Counters, recorder, nil)
	escalation := NewEscalationMonitor(store.Orders, store.Jobs, registry, recorder, rq)
	leases := NewLeaseManager(store.Orders, store.Jobs, registry, escalation, recorder,
		&config.LeaseConfig{StaleAfter: 2 * time.Minute})
	dispatch := NewDispatchClient(printerURLs, 2*time.Second, rq)
	admission := NewAdmission(store.Orders, store.Jobs, dispatch, leases, escalation, recorder, 2)
	monitor := NewMonitor(store.Orders, store.Jobs, store.Logs, store.Alerts, store.Counters, registry, leases, dispatch)

	return &testEnv{
		store:      store,
		recorder:   recorder,
		notifier:   notifier,
		retryQueue: rq,
		registry:   registry,
		escalation: escalation,
		leases:     leases,
		dispatch:   dispatch,
		admission:  admission,
		monitor:    monitor,
	}
}

// setClock pins every component to the same clock.
func (e *testEnv) setClock(now time.Time) {
	clock := func() time.Time { return now }
	e.leases.now = clock
	e.escalation.now = clock
	e.admission.now = clock
	e.registry.now = clock
	e.monitor.now = clock
}

func paidOrder(id string) *db.Order {
	return &db.Order{
		ID:               id,
		OrderNumber:      "ORD-" + id,
		PaymentStatus:    db.PaymentCompleted,
		FileURL:          "https://files.example.com/" + id + ".pdf",
		PrintingOptions:  db.PrintingOptions{PrintMode: "bw", PaperSize: "A4", Copies: 2},
		MaxPrintAttempts: 3,
	}
}

func (e *testEnv) createOrder(t *testing.T, o *db.Order) *db.Order {
	t.Helper()
	ctx := context.Background()
	if err := e.store.Orders.UpsertOrder(ctx, o); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	return e.getOrder(t, o.ID)
}

func (e *testEnv) getOrder(t *testing.T, id string) *db.Order {
	t.Helper()
	o, err := e.store.Orders.GetOrder(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get order %s: %v", id, err)
	}
	return o
}

// forceState writes print fields directly, bypassing the state machine.
func (e *testEnv) forceState(t *testing.T, id string, fn func(o *db.Order)) *db.Order {
	t.Helper()
	o := e.getOrder(t, id)
	fn(o)
	if err := e.store.Orders.UpdatePrintState(context.Background(), o, o.Version); err != nil {
		t.Fatalf("failed to update order %s: %v", id, err)
	}
	return e.getOrder(t, id)
}

func (e *testEnv) logActions(t *testing.T, orderID string) []string {
	t.Helper()
	logs, err := e.store.Logs.ListLogs(context.Background(), db.LogFilter{OrderID: orderID, Limit: 100})
	if err != nil {
		t.Fatalf("failed to list logs: %v", err)
	}
	actions := make([]string, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		actions = append(actions, logs[i].Action)
	}
	return actions
}

func (e *testEnv) alertTypes(t *testing.T) []string {
	t.Helper()
	alerts, err := e.store.Alerts.ListRecentAlerts(context.Background(), 100)
	if err != nil {
		t.Fatalf("failed to list alerts: %v", err)
	}
	types := make([]string, 0, len(alerts))
	for _, a := range alerts {
		types = append(types, a.Type)
	}
	return types
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

// printerServer is a fake printer-side service.
type printerServer struct {
	*httptest.Server
	received atomic.Int64
	status   atomic.Int64

	mu       sync.Mutex
	requests []PrintJobRequest
	headers  []string
}

func newPrinterServer(t *testing.T) *printerServer {
	t.Helper()
	ps := &printerServer{}
	ps.status.Store(http.StatusAccepted)
	ps.Server = httptest.NewServer(http.HandlerFunc(ps.handle))
	t.Cleanup(ps.Close)
	return ps
}

func (ps *printerServer) handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case healthPath:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(ps.status.Load()))
		_, _ = w.Write([]byte(`{"status":"ok","queue_length":0}`))
	case printJobsPath:
		var req PrintJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ps.received.Add(1)
		ps.mu.Lock()
		ps.requests = append(ps.requests, req)
		ps.headers = append(ps.headers, r.Header.Get("X-Delivery-Number"))
		ps.mu.Unlock()
		w.WriteHeader(int(ps.status.Load()))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
