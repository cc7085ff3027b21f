package archive

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/orrn/printdesk/internal/config"
	"github.com/orrn/printdesk/internal/db"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestArchiver(t *testing.T) (*Archiver, *sql.DB) {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Open(db.Config{Path: filepath.Join(dir, "printdesk.db")})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	a, err := NewArchiver(database, config.ArchiveConfig{Path: filepath.Join(dir, "archives"), Days: 30})
	if err != nil {
		t.Fatalf("failed to create archiver: %v", err)
	}
	a.now = func() time.Time { return base }
	return a, database
}

func seedJob(t *testing.T, database *sql.DB, jobID, status string, completedAt *time.Time) {
	t.Helper()
	var completed interface{}
	if completedAt != nil {
		completed = completedAt.UnixMilli()
	}
	if _, err := database.Exec(`INSERT INTO print_jobs (job_id, order_id, status, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?)`, jobID, "order-"+jobID, status, base.AddDate(0, -3, 0).UnixMilli(), completed); err != nil {
		t.Fatalf("failed to insert job: %v", err)
	}
}

func seedLog(t *testing.T, database *sql.DB, orderID string, at time.Time) {
	t.Helper()
	if _, err := database.Exec(`INSERT INTO print_logs (action, order_id, new_status, created_at)
		VALUES ('status_change', ?, 'printed', ?)`, orderID, at.UnixMilli()); err != nil {
		t.Fatalf("failed to insert log: %v", err)
	}
}

func count(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

func TestRunArchive_MovesOldRows(t *testing.T) {
	a, database := newTestArchiver(t)
	ctx := context.Background()

	old := base.AddDate(0, 0, -45)
	recent := base.AddDate(0, 0, -2)
	seedJob(t, database, "old-done", "completed", &old)
	seedJob(t, database, "old-failed", "failed", &old)
	seedJob(t, database, "recent-done", "completed", &recent)
	seedJob(t, database, "still-pending", "pending", nil)
	seedLog(t, database, "o1", old)
	seedLog(t, database, "o2", recent)

	result, err := a.RunArchive(ctx)
	if err != nil {
		t.Fatalf("RunArchive failed: %v", err)
	}
	if result.JobsArchived != 2 || result.LogsArchived != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.ArchiveFile != "print_history_2024_05.db" {
		t.Errorf("unexpected archive file %s", result.ArchiveFile)
	}

	if n := count(t, database, "print_jobs"); n != 2 {
		t.Errorf("expected 2 live jobs, got %d", n)
	}
	if n := count(t, database, "print_logs"); n != 1 {
		t.Errorf("expected 1 live log, got %d", n)
	}

	archiveDB, err := sql.Open("sqlite3", filepath.Join(a.archivePath, result.ArchiveFile))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer archiveDB.Close()
	if n := count(t, archiveDB, "print_jobs"); n != 2 {
		t.Errorf("expected 2 archived jobs, got %d", n)
	}
	var orderID string
	if err := archiveDB.QueryRow("SELECT order_id FROM print_logs").Scan(&orderID); err != nil || orderID != "o1" {
		t.Errorf("expected archived log for o1, got %q (%v)", orderID, err)
	}
}

func TestRunArchive_NothingToDo(t *testing.T) {
	a, database := newTestArchiver(t)

	recent := base.AddDate(0, 0, -1)
	seedJob(t, database, "recent", "completed", &recent)

	result, err := a.RunArchive(context.Background())
	if err != nil {
		t.Fatalf("RunArchive failed: %v", err)
	}
	if result.ArchiveFile != "" || result.JobsArchived != 0 {
		t.Errorf("expected an empty run, got %+v", result)
	}

	archives, err := a.ListArchives(context.Background())
	if err != nil {
		t.Fatalf("ListArchives failed: %v", err)
	}
	if len(archives) != 0 {
		t.Errorf("expected no archive files, got %d", len(archives))
	}
}

func TestListAndDeleteArchives(t *testing.T) {
	a, database := newTestArchiver(t)
	ctx := context.Background()

	old := base.AddDate(0, 0, -40)
	seedJob(t, database, "j1", "completed", &old)
	seedLog(t, database, "o1", old)
	if _, err := a.RunArchive(ctx); err != nil {
		t.Fatalf("RunArchive failed: %v", err)
	}

	// A second run in the same month appends to the same file.
	seedJob(t, database, "j2", "failed", &old)
	if _, err := a.RunArchive(ctx); err != nil {
		t.Fatalf("RunArchive failed: %v", err)
	}

	archives, err := a.ListArchives(ctx)
	if err != nil {
		t.Fatalf("ListArchives failed: %v", err)
	}
	if len(archives) != 1 {
		t.Fatalf("expected 1 archive, got %d", len(archives))
	}
	if archives[0].Month != "2024_05" || archives[0].JobsArchived != 2 || archives[0].LogsArchived != 1 {
		t.Errorf("unexpected archive %+v", archives[0])
	}

	if err := a.DeleteArchive(ctx, "../printdesk.db"); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("expected ErrArchiveNotFound for a path outside the archive dir, got %v", err)
	}
	if err := a.DeleteArchive(ctx, archives[0].Filename); err != nil {
		t.Fatalf("DeleteArchive failed: %v", err)
	}
	if err := a.DeleteArchive(ctx, archives[0].Filename); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("expected ErrArchiveNotFound, got %v", err)
	}
	if n := count(t, database, "archive_runs"); n != 0 {
		t.Errorf("expected run records to be removed, got %d", n)
	}
}

func TestStartStop_DisabledInterval(t *testing.T) {
	a, _ := newTestArchiver(t)
	a.Start()
	a.Stop()
}
