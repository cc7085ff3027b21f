package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/orrn/printdesk/internal/config"
)

const (
	filePrefix = "print_history_"
	fileSuffix = ".db"
)

var ErrArchiveNotFound = errors.New("archive not found")

// Archiver moves finished print jobs and old print logs out of the live
// database into monthly SQLite files under the archive directory.
type Archiver struct {
	db          *sql.DB
	archivePath string
	archiveDays int
	interval    time.Duration
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	now         func() time.Time
}

type ArchiveFile struct {
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
	Month        string    `json:"month"`
	JobsArchived int       `json:"jobsArchived"`
	LogsArchived int       `json:"logsArchived"`
}

type RunResult struct {
	ArchiveFile  string    `json:"archiveFile,omitempty"`
	Cutoff       time.Time `json:"cutoff"`
	JobsArchived int       `json:"jobsArchived"`
	LogsArchived int       `json:"logsArchived"`
}

func NewArchiver(db *sql.DB, cfg config.ArchiveConfig) (*Archiver, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/archives"
	}
	if cfg.Days <= 0 {
		cfg.Days = 30
	}

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &Archiver{
		db:          db,
		archivePath: cfg.Path,
		archiveDays: cfg.Days,
		interval:    cfg.Interval,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}, nil
}

// Start runs the archive on a ticker. A zero interval disables the loop;
// RunArchive can still be triggered from the admin API.
func (a *Archiver) Start() {
	if a.interval <= 0 {
		return
	}
	a.wg.Add(1)
	go a.runPeriodicArchive()
}

func (a *Archiver) Stop() {
	close(a.stopCh)
	a.wg.Wait()
}

func (a *Archiver) runPeriodicArchive() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			result, err := a.RunArchive(ctx)
			cancel()
			if err != nil {
				log.Printf("[archive] run failed: %v", err)
				continue
			}
			if result.JobsArchived > 0 || result.LogsArchived > 0 {
				log.Printf("[archive] moved %d jobs and %d logs to %s",
					result.JobsArchived, result.LogsArchived, result.ArchiveFile)
			}
		}
	}
}

// RunArchive copies every completed or failed job finished before the cutoff,
// and every print log written before it, into the archive file of the
// current month, then deletes them from the live database.
func (a *Archiver) RunArchive(ctx context.Context) (*RunResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now().UTC()
	cutoff := now.AddDate(0, 0, -a.archiveDays)
	result := &RunResult{Cutoff: cutoff}

	jobs, err := a.getJobsForArchival(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs for archival: %w", err)
	}
	logs, err := a.getLogsForArchival(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs for archival: %w", err)
	}
	if len(jobs) == 0 && len(logs) == 0 {
		return result, nil
	}

	filename := filePrefix + now.Format("2006_01") + fileSuffix
	archiveDB, err := openOrCreateArchiveDB(filepath.Join(a.archivePath, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create archive database: %w", err)
	}
	defer archiveDB.Close()

	tx, err := archiveDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	for _, job := range jobs {
		if err := insertJob(ctx, tx, job); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to insert job to archive: %w", err)
		}
	}
	for _, l := range logs {
		if err := insertLog(ctx, tx, l); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to insert log to archive: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	if err := a.deleteArchived(ctx, jobs, logs, filename, cutoff, now); err != nil {
		return nil, fmt.Errorf("failed to delete archived rows: %w", err)
	}

	result.ArchiveFile = filename
	result.JobsArchived = len(jobs)
	result.LogsArchived = len(logs)
	return result, nil
}

type archivedJob struct {
	ID                int64
	JobID             string
	OrderID           string
	OrderNumber       string
	FileURL           string
	FileURLsJSON      string
	OptionsJSON       string
	Priority          int
	EstimatedDuration int
	Status            string
	PrinterIndex      int
	DeliveryNumber    string
	ErrorMessage      string
	RetryCount        int
	CreatedAt         int64
	StartedAt         sql.NullInt64
	CompletedAt       sql.NullInt64
}

type archivedLog struct {
	ID             int64
	Action         string
	OrderID        string
	PrintJobID     string
	AdminEmail     string
	PreviousStatus string
	NewStatus      string
	Reason         string
	MetadataJSON   string
	CreatedAt      int64
}

func (a *Archiver) getJobsForArchival(ctx context.Context, cutoff time.Time) ([]*archivedJob, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, job_id, order_id, order_number, file_url, file_urls_json, options_json,
			priority, estimated_duration, status, printer_index, delivery_number,
			error_message, retry_count, created_at, started_at, completed_at
		FROM print_jobs
		WHERE status IN ('completed', 'failed')
		AND completed_at IS NOT NULL
		AND completed_at < ?
		ORDER BY completed_at ASC
	`, cutoff.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*archivedJob
	for rows.Next() {
		job := &archivedJob{}
		if err := rows.Scan(
			&job.ID, &job.JobID, &job.OrderID, &job.OrderNumber, &job.FileURL, &job.FileURLsJSON,
			&job.OptionsJSON, &job.Priority, &job.EstimatedDuration, &job.Status, &job.PrinterIndex,
			&job.DeliveryNumber, &job.ErrorMessage, &job.RetryCount, &job.CreatedAt,
			&job.StartedAt, &job.CompletedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (a *Archiver) getLogsForArchival(ctx context.Context, cutoff time.Time) ([]*archivedLog, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, action, order_id, print_job_id, admin_email, previous_status,
			new_status, reason, metadata_json, created_at
		FROM print_logs
		WHERE created_at < ?
		ORDER BY created_at ASC
	`, cutoff.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*archivedLog
	for rows.Next() {
		l := &archivedLog{}
		if err := rows.Scan(
			&l.ID, &l.Action, &l.OrderID, &l.PrintJobID, &l.AdminEmail, &l.PreviousStatus,
			&l.NewStatus, &l.Reason, &l.MetadataJSON, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func openOrCreateArchiveDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS print_jobs (
			id INTEGER PRIMARY KEY,
			job_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			order_number TEXT,
			file_url TEXT,
			file_urls_json TEXT,
			options_json TEXT,
			priority INTEGER DEFAULT 0,
			estimated_duration INTEGER DEFAULT 0,
			status TEXT NOT NULL,
			printer_index INTEGER,
			delivery_number TEXT,
			error_message TEXT,
			retry_count INTEGER DEFAULT 0,
			created_at INTEGER NOT NULL,
			started_at INTEGER,
			completed_at INTEGER
		);

		CREATE TABLE IF NOT EXISTS print_logs (
			id INTEGER PRIMARY KEY,
			action TEXT NOT NULL,
			order_id TEXT NOT NULL,
			print_job_id TEXT,
			admin_email TEXT,
			previous_status TEXT,
			new_status TEXT,
			reason TEXT,
			metadata_json TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_archive_jobs_order_id ON print_jobs(order_id);
		CREATE INDEX IF NOT EXISTS idx_archive_logs_order_id ON print_logs(order_id);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func insertJob(ctx context.Context, tx *sql.Tx, job *archivedJob) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO print_jobs (id, job_id, order_id, order_number, file_url, file_urls_json,
			options_json, priority, estimated_duration, status, printer_index, delivery_number,
			error_message, retry_count, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.JobID, job.OrderID, job.OrderNumber, job.FileURL, job.FileURLsJSON,
		job.OptionsJSON, job.Priority, job.EstimatedDuration, job.Status, job.PrinterIndex,
		job.DeliveryNumber, job.ErrorMessage, job.RetryCount, job.CreatedAt,
		job.StartedAt, job.CompletedAt)
	return err
}

func insertLog(ctx context.Context, tx *sql.Tx, l *archivedLog) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO print_logs (id, action, order_id, print_job_id, admin_email,
			previous_status, new_status, reason, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.Action, l.OrderID, l.PrintJobID, l.AdminEmail,
		l.PreviousStatus, l.NewStatus, l.Reason, l.MetadataJSON, l.CreatedAt)
	return err
}

func (a *Archiver) deleteArchived(ctx context.Context, jobs []*archivedJob, logs []*archivedLog, filename string, cutoff, now time.Time) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if _, err := tx.ExecContext(ctx, "DELETE FROM print_jobs WHERE id = ?", job.ID); err != nil {
			tx.Rollback()
			return err
		}
	}
	for _, l := range logs {
		if _, err := tx.ExecContext(ctx, "DELETE FROM print_logs WHERE id = ?", l.ID); err != nil {
			tx.Rollback()
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO archive_runs (archive_file, cutoff, jobs_archived, logs_archived, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, filename, cutoff.UnixMilli(), len(jobs), len(logs), now.UnixMilli()); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ListArchives returns the archive files, newest month first, with the row
// counts recorded by each run.
func (a *Archiver) ListArchives(ctx context.Context) ([]*ArchiveFile, error) {
	files, err := os.ReadDir(a.archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	archives := []*ArchiveFile{}
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		archive := &ArchiveFile{
			Filename:  name,
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
			Month:     strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix),
		}
		if err := a.db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(jobs_archived), 0), COALESCE(SUM(logs_archived), 0)
			FROM archive_runs WHERE archive_file = ?
		`, name).Scan(&archive.JobsArchived, &archive.LogsArchived); err != nil {
			return nil, fmt.Errorf("failed to count archived rows: %w", err)
		}
		archives = append(archives, archive)
	}

	sort.Slice(archives, func(i, j int) bool { return archives[i].Month > archives[j].Month })
	return archives, nil
}

func (a *Archiver) DeleteArchive(ctx context.Context, filename string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if filepath.Base(filename) != filename || !strings.HasPrefix(filename, filePrefix) {
		return ErrArchiveNotFound
	}
	filePath := filepath.Join(a.archivePath, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return ErrArchiveNotFound
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete archive: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, "DELETE FROM archive_runs WHERE archive_file = ?", filename); err != nil {
		return fmt.Errorf("failed to delete archive run records: %w", err)
	}

	return nil
}

func (a *Archiver) ArchiveDays() int {
	return a.archiveDays
}
