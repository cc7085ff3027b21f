package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store groups the per-table operations over one database handle.
type Store struct {
	DB       *sql.DB
	Orders   *OrderOperations
	Jobs     *JobOperations
	Printers *PrinterOperations
	Logs     *LogOperations
	Alerts   *AlertOperations
	Counters *CounterOperations
	Admins   *AdminOperations
	Settings *SettingsOperations
}

func NewStore(database *sql.DB) *Store {
	return &Store{
		DB:       database,
		Orders:   &OrderOperations{db: database},
		Jobs:     &JobOperations{db: database},
		Printers: &PrinterOperations{db: database},
		Logs:     &LogOperations{db: database},
		Alerts:   &AlertOperations{db: database},
		Counters: &CounterOperations{db: database},
		Admins:   &AdminOperations{db: database},
		Settings: &SettingsOperations{db: database},
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

type OrderOperations struct {
	db *sql.DB
}

func scanOrder(row scanner) (*Order, error) {
	o := &Order{}
	var (
		fileURLs, options, segments                   string
		printStatus, printingBy                       sql.NullString
		startedAt, completedAt, heartbeatAt, queuedAt sql.NullInt64
		createdAt, updatedAt                          int64
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.PaymentStatus, &o.FileURL, &fileURLs, &options,
		&printStatus, &o.PrintAttempt, &o.MaxPrintAttempts, &o.PrintError, &o.PrinterName,
		&startedAt, &completedAt, &printingBy, &heartbeatAt,
		&segments, &queuedAt, &o.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	o.PrintStatus = printStatus.String
	o.PrintingBy = printingBy.String
	o.PrintStartedAt = fromNullMillis(startedAt)
	o.PrintCompletedAt = fromNullMillis(completedAt)
	o.PrintingHeartbeatAt = fromNullMillis(heartbeatAt)
	o.PrintQueuedAt = fromNullMillis(queuedAt)
	o.CreatedAt = fromMillis(createdAt)
	o.UpdatedAt = fromMillis(updatedAt)

	if err := json.Unmarshal([]byte(fileURLs), &o.FileURLs); err != nil {
		return nil, fmt.Errorf("failed to decode file urls of order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal([]byte(options), &o.PrintingOptions); err != nil {
		return nil, fmt.Errorf("failed to decode printing options of order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal([]byte(segments), &o.PrintSegments); err != nil {
		return nil, fmt.Errorf("failed to decode segments of order %s: %w", o.ID, err)
	}
	return o, nil
}

func marshalJSON(v interface{}, empty string) (string, error) {
	if v == nil {
		return empty, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func (o *OrderOperations) GetOrder(ctx context.Context, id string) (*Order, error) {
	order, err := scanOrder(o.db.QueryRowContext(ctx, GetOrderByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (o *OrderOperations) UpsertOrder(ctx context.Context, order *Order) error {
	fileURLs, err := marshalJSON(order.FileURLs, "[]")
	if err != nil {
		return fmt.Errorf("failed to encode file urls: %w", err)
	}
	options, err := marshalJSON(order.PrintingOptions, "{}")
	if err != nil {
		return fmt.Errorf("failed to encode printing options: %w", err)
	}
	segments, err := marshalJSON(order.PrintSegments, "[]")
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}

	now := time.Now()
	maxAttempts := order.MaxPrintAttempts
	if maxAttempts < 0 {
		maxAttempts = 0
	}

	_, err = o.db.ExecContext(ctx, UpsertOrder,
		order.ID, order.OrderNumber, order.PaymentStatus, order.FileURL, fileURLs, options,
		nullString(order.PrintStatus), maxAttempts, DefaultMaxPrintAttempts, segments,
		toMillis(now), toMillis(now), maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	return nil
}

func (o *OrderOperations) ListOrders(ctx context.Context, filter OrderFilter) ([]*Order, error) {
	var conditions []string
	var args []interface{}

	switch filter.PrintStatus {
	case "":
	case "none":
		conditions = append(conditions, "print_status IS NULL")
	default:
		conditions = append(conditions, "print_status = ?")
		args = append(args, filter.PrintStatus)
	}
	if filter.PaymentStatus != "" {
		conditions = append(conditions, "payment_status = ?")
		args = append(args, filter.PaymentStatus)
	}
	if filter.Escalated != nil {
		if *filter.Escalated {
			conditions = append(conditions, "print_attempt >= max_print_attempts")
		} else {
			conditions = append(conditions, "print_attempt < max_print_attempts")
		}
	}

	query := ListOrdersBase
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.NewestFirst {
		query += " ORDER BY created_at DESC, id DESC"
	} else {
		query += " ORDER BY created_at ASC, id ASC"
	}

	limit := 500
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// UpdatePrintState persists the print fields of order if its stored version
// still equals expectedVersion. On success order.Version is advanced.
func (o *OrderOperations) UpdatePrintState(ctx context.Context, order *Order, expectedVersion int64) error {
	segments, err := marshalJSON(order.PrintSegments, "[]")
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}

	now := time.Now()
	result, err := o.db.ExecContext(ctx, UpdateOrderPrintState,
		nullString(order.PrintStatus), order.PrintAttempt, order.MaxPrintAttempts, order.PrintError, order.PrinterName,
		nullMillis(order.PrintStartedAt), nullMillis(order.PrintCompletedAt),
		nullString(order.PrintingBy), nullMillis(order.PrintingHeartbeatAt),
		segments, nullMillis(order.PrintQueuedAt), toMillis(now),
		order.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update order print state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		if _, err := o.GetOrder(ctx, order.ID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	order.Version = expectedVersion + 1
	order.UpdatedAt = now.UTC()
	return nil
}

// ClaimLease atomically hands the print lease on an order to workerID.
// It returns ErrVersionConflict when the order is not claimable.
func (o *OrderOperations) ClaimLease(ctx context.Context, id, workerID, printerName string, now, staleBefore time.Time) (*Order, error) {
	result, err := o.db.ExecContext(ctx, ClaimOrderLease,
		workerID, printerName, toMillis(now), toMillis(now), toMillis(now),
		id, toMillis(staleBefore))
	if err != nil {
		return nil, fmt.Errorf("failed to claim lease: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		if _, err := o.GetOrder(ctx, id); errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrVersionConflict
	}

	return o.GetOrder(ctx, id)
}

func (o *OrderOperations) TouchHeartbeat(ctx context.Context, id, workerID string, now time.Time) error {
	result, err := o.db.ExecContext(ctx, TouchOrderHeartbeat, toMillis(now), toMillis(now), id, workerID)
	if err != nil {
		return fmt.Errorf("failed to refresh heartbeat: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		if _, err := o.GetOrder(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

type JobOperations struct {
	db *sql.DB
}

func scanJob(row scanner) (*PrintJob, error) {
	j := &PrintJob{}
	var fileURLs string
	var createdAt int64
	var startedAt, completedAt sql.NullInt64
	err := row.Scan(
		&j.ID, &j.JobID, &j.OrderID, &j.OrderNumber, &j.FileURL, &fileURLs, &j.OptionsJSON, &j.Priority,
		&j.EstimatedDuration, &j.Status, &j.PrinterIndex, &j.DeliveryNumber, &j.ErrorMessage, &j.RetryCount,
		&createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fileURLs), &j.FileURLs); err != nil {
		return nil, fmt.Errorf("failed to decode file urls of job %s: %w", j.JobID, err)
	}
	j.CreatedAt = fromMillis(createdAt)
	j.StartedAt = fromNullMillis(startedAt)
	j.CompletedAt = fromNullMillis(completedAt)
	return j, nil
}

func (o *JobOperations) CreateJob(ctx context.Context, j *PrintJob) error {
	fileURLs, err := marshalJSON(j.FileURLs, "[]")
	if err != nil {
		return fmt.Errorf("failed to encode file urls: %w", err)
	}
	if j.OptionsJSON == "" {
		j.OptionsJSON = "{}"
	}
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}

	result, err := o.db.ExecContext(ctx, InsertJob,
		j.JobID, j.OrderID, j.OrderNumber, j.FileURL, fileURLs, j.OptionsJSON,
		j.Priority, j.EstimatedDuration, j.Status, j.PrinterIndex, j.DeliveryNumber, toMillis(j.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get job id: %w", err)
	}
	j.ID = id
	return nil
}

func (o *JobOperations) GetJob(ctx context.Context, jobID string) (*PrintJob, error) {
	j, err := scanJob(o.db.QueryRowContext(ctx, GetJobByJobID, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// GetLatestJobForOrder returns the newest job of an order, or ErrNotFound.
func (o *JobOperations) GetLatestJobForOrder(ctx context.Context, orderID string) (*PrintJob, error) {
	j, err := scanJob(o.db.QueryRowContext(ctx, GetLatestJobByOrder, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job for order: %w", err)
	}
	return j, nil
}

func (o *JobOperations) ListJobsByStatus(ctx context.Context, status string, limit int) ([]*PrintJob, error) {
	rows, err := o.db.QueryContext(ctx, ListJobsByStatus, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by status: %w", err)
	}
	defer rows.Close()

	var jobs []*PrintJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (o *JobOperations) UpdateJobStatus(ctx context.Context, jobID, status, errorMsg string) error {
	var startedAt, completedAt interface{}
	now := toMillis(time.Now())

	switch status {
	case JobStatusPrinting:
		startedAt = now
	case JobStatusCompleted, JobStatusFailed:
		completedAt = now
	}

	_, err := o.db.ExecContext(ctx, UpdateJobStatus, status, errorMsg, startedAt, completedAt, jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// RecordDispatch stores the delivery number of a (re)send and bumps the retry
// counter when retry is true.
func (o *JobOperations) RecordDispatch(ctx context.Context, jobID, deliveryNumber string, printerIndex int, retry bool, errorMsg string) error {
	inc := 0
	if retry {
		inc = 1
	}
	_, err := o.db.ExecContext(ctx, UpdateJobDispatch, deliveryNumber, printerIndex, inc, errorMsg, jobID)
	if err != nil {
		return fmt.Errorf("failed to record dispatch: %w", err)
	}
	return nil
}

func (o *JobOperations) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := o.db.QueryRowContext(ctx, CountJobsCompletedSince, toMillis(since)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed jobs: %w", err)
	}
	return count, nil
}

type PrinterOperations struct {
	db *sql.DB
}

func scanPrinter(row scanner) (*Printer, error) {
	p := &Printer{}
	var lastSeen, lastSuccess sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(
		&p.ID, &p.Name, &p.ConnectionType, &p.Address, &p.Status, &p.QueueLength, &lastSeen,
		&lastSuccess, &p.ErrorMessage, &p.TotalPrints, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.LastSeenAt = fromNullMillis(lastSeen)
	p.LastSuccessfulPrintAt = fromNullMillis(lastSuccess)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

func (o *PrinterOperations) UpsertPrinter(ctx context.Context, p *Printer) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := o.db.ExecContext(ctx, UpsertPrinter,
		p.ID, p.Name, p.ConnectionType, p.Address, p.Status, p.QueueLength, nullMillis(p.LastSeenAt),
		p.ErrorMessage, toMillis(p.CreatedAt), toMillis(now))
	if err != nil {
		return fmt.Errorf("failed to upsert printer: %w", err)
	}
	return nil
}

func (o *PrinterOperations) GetPrinter(ctx context.Context, id string) (*Printer, error) {
	p, err := scanPrinter(o.db.QueryRowContext(ctx, GetPrinterByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get printer: %w", err)
	}
	return p, nil
}

func (o *PrinterOperations) ListPrinters(ctx context.Context) ([]*Printer, error) {
	rows, err := o.db.QueryContext(ctx, ListPrinters)
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	defer rows.Close()

	var printers []*Printer
	for rows.Next() {
		p, err := scanPrinter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, p)
	}
	return printers, rows.Err()
}

func (o *PrinterOperations) UpdatePrinterStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := o.db.ExecContext(ctx, UpdatePrinterStatus, status, errorMsg, toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update printer status: %w", err)
	}
	return nil
}

func (o *PrinterOperations) RecordSuccess(ctx context.Context, id string, copies int, at time.Time) error {
	_, err := o.db.ExecContext(ctx, RecordPrinterSuccess, copies, toMillis(at), toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to record printer success: %w", err)
	}
	return nil
}

// LogOperations only ever inserts and reads: print logs are immutable.
type LogOperations struct {
	db *sql.DB
}

func (o *LogOperations) AppendLog(ctx context.Context, l *PrintLog) error {
	if l.MetadataJSON == "" {
		l.MetadataJSON = "{}"
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	result, err := o.db.ExecContext(ctx, InsertPrintLog,
		l.Action, l.OrderID, l.PrintJobID, l.AdminEmail, l.PreviousStatus, l.NewStatus,
		l.Reason, l.MetadataJSON, toMillis(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append print log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get print log id: %w", err)
	}
	l.ID = id
	return nil
}

func (o *LogOperations) ListLogs(ctx context.Context, filter LogFilter) ([]*PrintLog, error) {
	var conditions []string
	var args []interface{}

	if filter.OrderID != "" {
		conditions = append(conditions, "order_id = ?")
		args = append(args, filter.OrderID)
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}

	query := ListPrintLogsBase
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"

	limit := 50
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	args = append(args, limit)

	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list print logs: %w", err)
	}
	defer rows.Close()

	var logs []*PrintLog
	for rows.Next() {
		l := &PrintLog{}
		var createdAt int64
		if err := rows.Scan(
			&l.ID, &l.Action, &l.OrderID, &l.PrintJobID, &l.AdminEmail, &l.PreviousStatus,
			&l.NewStatus, &l.Reason, &l.MetadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan print log: %w", err)
		}
		l.CreatedAt = fromMillis(createdAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

type AlertOperations struct {
	db *sql.DB
}

func (o *AlertOperations) CreateAlert(ctx context.Context, a *Alert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	result, err := o.db.ExecContext(ctx, InsertAlert, a.Type, a.OrderID, a.PrinterID, a.Message, toMillis(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get alert id: %w", err)
	}
	a.ID = id
	return nil
}

func (o *AlertOperations) ListRecentAlerts(ctx context.Context, limit int) ([]*Alert, error) {
	rows, err := o.db.QueryContext(ctx, ListRecentAlerts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		a := &Alert{}
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.Type, &a.OrderID, &a.PrinterID, &a.Message, &a.Acknowledged, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.CreatedAt = fromMillis(createdAt)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (o *AlertOperations) AcknowledgeAlert(ctx context.Context, id int64) error {
	result, err := o.db.ExecContext(ctx, AcknowledgeAlert, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type CounterOperations struct {
	db *sql.DB
}

func (o *CounterOperations) IncrementDailyCounter(ctx context.Context, printerID string, date time.Time, count int) error {
	dateStr := date.Format("2006-01-02")
	_, err := o.db.ExecContext(ctx, InsertPrintCounter, printerID, dateStr, count, count)
	if err != nil {
		return fmt.Errorf("failed to increment daily counter: %w", err)
	}
	return nil
}

func (o *CounterOperations) GetCountersForDate(ctx context.Context, date time.Time) ([]*PrintCounter, error) {
	rows, err := o.db.QueryContext(ctx, GetPrintCountersByDate, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get counters: %w", err)
	}
	defer rows.Close()
	return scanCounters(rows)
}

func (o *CounterOperations) GetCounters(ctx context.Context, printerID string, from, to time.Time) ([]*PrintCounter, error) {
	rows, err := o.db.QueryContext(ctx, GetPrintCountersByDateRange, printerID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get counters: %w", err)
	}
	defer rows.Close()
	return scanCounters(rows)
}

func scanCounters(rows *sql.Rows) ([]*PrintCounter, error) {
	var counters []*PrintCounter
	for rows.Next() {
		c := &PrintCounter{}
		var dateStr string
		if err := rows.Scan(&c.ID, &c.PrinterID, &dateStr, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		c.Date, _ = time.Parse("2006-01-02", dateStr)
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

type AdminOperations struct {
	db *sql.DB
}

func (o *AdminOperations) CreateAdmin(ctx context.Context, a *Admin) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := o.db.ExecContext(ctx, InsertAdmin, strings.ToLower(a.Email), a.PasswordHash, toMillis(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (o *AdminOperations) GetAdmin(ctx context.Context, email string) (*Admin, error) {
	a := &Admin{}
	var createdAt int64
	err := o.db.QueryRowContext(ctx, GetAdminByEmail, strings.ToLower(email)).Scan(&a.Email, &a.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	a.CreatedAt = fromMillis(createdAt)
	return a, nil
}

func (o *AdminOperations) CountAdmins(ctx context.Context) (int, error) {
	var count int
	if err := o.db.QueryRowContext(ctx, CountAdmins).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

func (o *AdminOperations) UpdatePassword(ctx context.Context, email, hash string) error {
	_, err := o.db.ExecContext(ctx, UpdateAdminPassword, hash, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	return nil
}

type SettingsOperations struct {
	db *sql.DB
}

func (o *SettingsOperations) GetSetting(ctx context.Context, key string) (*Setting, error) {
	s := &Setting{Key: key}
	var updatedAt int64
	err := o.db.QueryRowContext(ctx, GetSetting, key).Scan(&s.Value, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	s.UpdatedAt = fromMillis(updatedAt)
	return s, nil
}

func (o *SettingsOperations) SetSetting(ctx context.Context, key, value string) error {
	_, err := o.db.ExecContext(ctx, SetSetting, key, value, toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
