package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/orrn/printdesk/internal/config"
	"github.com/orrn/printdesk/internal/db"
)

const defaultHealthCheckInterval = 30 * time.Second

var validPrinterStatuses = map[string]bool{
	db.PrinterOnline:      true,
	db.PrinterOffline:     true,
	db.PrinterError:       true,
	db.PrinterMaintenance: true,
}

// HeartbeatInput is what a printer-side service reports about itself.
type HeartbeatInput struct {
	ID             string `json:"id" binding:"required"`
	Name           string `json:"name"`
	ConnectionType string `json:"connectionType"`
	Address        string `json:"address"`
	Status         string `json:"status"`
	QueueLength    int    `json:"queue_length"`
	ErrorMessage   string `json:"errorMessage"`
}

// PrinterRegistry keeps the last observed state of every printer in memory,
// backed by the printers table.
type PrinterRegistry struct {
	store    PrinterStore
	counters CounterStore
	recorder *Recorder
	config   *config.PrintersConfig
	printers map[string]*db.Printer
	mu       sync.RWMutex
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
	started  bool
}

func NewPrinterRegistry(store PrinterStore, counters CounterStore, recorder *Recorder, cfg *config.PrintersConfig) *PrinterRegistry {
	if cfg == nil {
		cfg = &config.PrintersConfig{
			HealthCheckInterval: defaultHealthCheckInterval,
			OfflineAfter:        2 * time.Minute,
		}
	}
	return &PrinterRegistry{
		store:    store,
		counters: counters,
		recorder: recorder,
		config:   cfg,
		printers: make(map[string]*db.Printer),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Load replaces the in-memory view with the printers table.
func (r *PrinterRegistry) Load(ctx context.Context) error {
	printers, err := r.store.ListPrinters(ctx)
	if err != nil {
		return fmt.Errorf("failed to load printers: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.printers = make(map[string]*db.Printer, len(printers))
	for _, p := range printers {
		r.printers[p.ID] = p
	}
	return nil
}

func (r *PrinterRegistry) Start(ctx context.Context) error {
	if err := r.Load(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.started = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.healthCheckLoop()
	return nil
}

func (r *PrinterRegistry) Stop() {
	r.mu.Lock()
	started := r.started
	r.started = false
	r.mu.Unlock()
	if !started {
		return
	}

	close(r.stopCh)
	r.wg.Wait()
}

func (r *PrinterRegistry) healthCheckLoop() {
	defer r.wg.Done()

	interval := r.config.HealthCheckInterval
	if interval <= 0 {
		interval = defaultHealthCheckInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.MarkOffline(context.Background())
		}
	}
}

// RecordHeartbeat upserts a printer from its own status report.
func (r *PrinterRegistry) RecordHeartbeat(ctx context.Context, in HeartbeatInput) (*db.Printer, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: printer id is required", ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = db.PrinterOnline
	}
	if !validPrinterStatuses[status] {
		return nil, fmt.Errorf("%w: unknown printer status %s", ErrInvalidInput, status)
	}
	if in.QueueLength < 0 {
		return nil, fmt.Errorf("%w: queue length must be non-negative", ErrInvalidInput)
	}

	now := r.now().UTC()

	r.mu.RLock()
	existing := r.printers[id]
	r.mu.RUnlock()

	p := &db.Printer{ID: id, ConnectionType: "http"}
	oldStatus := ""
	if existing != nil {
		copied := *existing
		p = &copied
		oldStatus = existing.Status
	}
	if in.Name != "" {
		p.Name = in.Name
	}
	if p.Name == "" {
		p.Name = id
	}
	if in.ConnectionType != "" {
		p.ConnectionType = in.ConnectionType
	}
	if in.Address != "" {
		p.Address = in.Address
	}
	p.Status = status
	p.QueueLength = in.QueueLength
	p.ErrorMessage = in.ErrorMessage
	p.LastSeenAt = &now

	if err := r.store.UpsertPrinter(ctx, p); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.printers[id] = p
	r.mu.Unlock()

	if oldStatus != status {
		r.statusChanged(ctx, p, oldStatus)
	}

	result := *p
	return &result, nil
}

func (r *PrinterRegistry) statusChanged(ctx context.Context, p *db.Printer, oldStatus string) {
	log.Printf("[registry] printer %s status %s -> %s", p.ID, displayStatus(oldStatus), p.Status)

	if p.Status == db.PrinterError || p.Status == db.PrinterOffline {
		msg := fmt.Sprintf("printer %s is %s", p.Name, p.Status)
		if p.ErrorMessage != "" {
			msg += ": " + p.ErrorMessage
		}
		r.recorder.Alert(ctx, AlertPrinterError, "", p.ID, msg)
	}

	r.recorder.Notify(EventPrinterStatusChanged, &PrinterStatusChange{
		PrinterID:   p.ID,
		PrinterName: p.Name,
		OldStatus:   oldStatus,
		NewStatus:   p.Status,
		Error:       p.ErrorMessage,
		Timestamp:   r.now().UTC(),
	})
}

// MarkOffline flags printers that have not reported within the offline
// threshold. It returns the IDs that changed.
func (r *PrinterRegistry) MarkOffline(ctx context.Context) []string {
	threshold := r.config.OfflineAfter
	if threshold <= 0 {
		return nil
	}
	cutoff := r.now().Add(-threshold)

	r.mu.Lock()
	var changed []*db.Printer
	var previous []string
	for _, p := range r.printers {
		if p.Status == db.PrinterOffline || p.Status == db.PrinterMaintenance {
			continue
		}
		if p.LastSeenAt != nil && p.LastSeenAt.After(cutoff) {
			continue
		}
		copied := *p
		previous = append(previous, p.Status)
		copied.Status = db.PrinterOffline
		copied.ErrorMessage = "no heartbeat received"
		r.printers[p.ID] = &copied
		changed = append(changed, &copied)
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(changed))
	for i, p := range changed {
		if err := r.store.UpdatePrinterStatus(ctx, p.ID, p.Status, p.ErrorMessage); err != nil {
			log.Printf("[registry] failed to mark printer %s offline: %v", p.ID, err)
		}
		r.statusChanged(ctx, p, previous[i])
		ids = append(ids, p.ID)
	}
	return ids
}

// RecordPrint credits a finished print to a printer, matched by ID or name.
func (r *PrinterRegistry) RecordPrint(ctx context.Context, printer string, copies int) {
	if printer == "" {
		return
	}
	if copies < 1 {
		copies = 1
	}
	now := r.now().UTC()

	r.mu.Lock()
	id := printer
	if p := r.findLocked(printer); p != nil {
		id = p.ID
		copied := *p
		copied.TotalPrints += int64(copies)
		copied.LastSuccessfulPrintAt = &now
		r.printers[p.ID] = &copied
	}
	r.mu.Unlock()

	if err := r.store.RecordSuccess(ctx, id, copies, now); err != nil {
		log.Printf("[registry] failed to record print for %s: %v", id, err)
	}
	if r.counters != nil {
		if err := r.counters.IncrementDailyCounter(ctx, id, now, copies); err != nil {
			log.Printf("[registry] failed to increment counter for %s: %v", id, err)
		}
	}
}

func (r *PrinterRegistry) findLocked(printer string) *db.Printer {
	if p, ok := r.printers[printer]; ok {
		return p
	}
	for _, p := range r.printers {
		if p.Name == printer {
			return p
		}
	}
	return nil
}

func (r *PrinterRegistry) Get(id string) (*db.Printer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.printers[id]
	if !ok {
		return nil, ErrPrinterNotFound
	}
	copied := *p
	return &copied, nil
}

// List returns a snapshot ordered by name.
func (r *PrinterRegistry) List() []*db.Printer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	printers := make([]*db.Printer, 0, len(r.printers))
	for _, p := range r.printers {
		copied := *p
		printers = append(printers, &copied)
	}
	sort.Slice(printers, func(i, j int) bool {
		if printers[i].Name != printers[j].Name {
			return printers[i].Name < printers[j].Name
		}
		return printers[i].ID < printers[j].ID
	})
	return printers
}
