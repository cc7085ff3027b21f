package db

const orderColumns = `id, order_number, payment_status, file_url, file_urls_json, printing_options_json,
	print_status, print_attempt, max_print_attempts, print_error, printer_name,
	print_started_at, print_completed_at, printing_by, printing_heartbeat_at,
	print_segments_json, print_queued_at, version, created_at, updated_at`

const (
	GetOrderByID = `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	ListOrdersBase = `SELECT ` + orderColumns + ` FROM orders`

	// UpsertOrder writes the shop-owned fields only; print state is left alone
	// for existing rows. Files and segments are frozen once the order entered
	// the print flow, and a zero attempt limit keeps the stored one.
	UpsertOrder = `
		INSERT INTO orders (id, order_number, payment_status, file_url, file_urls_json, printing_options_json,
			print_status, max_print_attempts, print_segments_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, COALESCE(NULLIF(?, 0), ?), ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_number = excluded.order_number,
			payment_status = excluded.payment_status,
			file_url = CASE WHEN orders.print_status IS NULL THEN excluded.file_url ELSE orders.file_url END,
			file_urls_json = CASE WHEN orders.print_status IS NULL THEN excluded.file_urls_json ELSE orders.file_urls_json END,
			printing_options_json = excluded.printing_options_json,
			print_segments_json = CASE WHEN orders.print_status IS NULL THEN excluded.print_segments_json ELSE orders.print_segments_json END,
			max_print_attempts = CASE WHEN ? > 0 THEN excluded.max_print_attempts ELSE orders.max_print_attempts END,
			version = orders.version + 1,
			updated_at = excluded.updated_at
	`

	UpdateOrderPrintState = `
		UPDATE orders SET
			print_status = ?, print_attempt = ?, max_print_attempts = ?, print_error = ?, printer_name = ?,
			print_started_at = ?, print_completed_at = ?, printing_by = ?, printing_heartbeat_at = ?,
			print_segments_json = ?, print_queued_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	// ClaimOrderLease is the compare-and-set that grants a lease. It matches a
	// free pending order or a printing order whose heartbeat is older than the
	// stale cutoff, and never an order that exhausted its attempts.
	ClaimOrderLease = `
		UPDATE orders SET
			print_status = 'printing', printing_by = ?, printer_name = ?,
			print_started_at = ?, printing_heartbeat_at = ?, print_completed_at = NULL,
			version = version + 1, updated_at = ?
		WHERE id = ?
			AND print_attempt < max_print_attempts
			AND (
				(print_status = 'pending' AND printing_by IS NULL)
				OR (print_status = 'printing' AND (printing_heartbeat_at IS NULL OR printing_heartbeat_at < ?))
			)
	`

	TouchOrderHeartbeat = `
		UPDATE orders SET printing_heartbeat_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND print_status = 'printing' AND printing_by = ?
	`
)

const jobColumns = `id, job_id, order_id, order_number, file_url, file_urls_json, options_json, priority,
	estimated_duration, status, printer_index, delivery_number, error_message, retry_count,
	created_at, started_at, completed_at`

const (
	InsertJob = `
		INSERT INTO print_jobs (job_id, order_id, order_number, file_url, file_urls_json, options_json,
			priority, estimated_duration, status, printer_index, delivery_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetJobByJobID = `SELECT ` + jobColumns + ` FROM print_jobs WHERE job_id = ?`

	GetLatestJobByOrder = `
		SELECT ` + jobColumns + ` FROM print_jobs WHERE order_id = ? ORDER BY id DESC LIMIT 1
	`

	ListJobsByStatus = `
		SELECT ` + jobColumns + ` FROM print_jobs WHERE status = ? ORDER BY priority DESC, created_at ASC LIMIT ?
	`

	UpdateJobStatus = `
		UPDATE print_jobs SET status = ?, error_message = ?,
			started_at = COALESCE(?, started_at), completed_at = ?
		WHERE job_id = ?
	`

	UpdateJobDispatch = `
		UPDATE print_jobs SET delivery_number = ?, printer_index = ?, retry_count = retry_count + ?, error_message = ?
		WHERE job_id = ?
	`

	CountJobsCompletedSince = `
		SELECT COUNT(*) FROM print_jobs WHERE status = 'completed' AND completed_at >= ?
	`
)

const printerColumns = `id, name, connection_type, address, status, queue_length, last_seen_at,
	last_successful_print_at, error_message, total_prints, created_at, updated_at`

const (
	UpsertPrinter = `
		INSERT INTO printers (id, name, connection_type, address, status, queue_length, last_seen_at,
			error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			connection_type = excluded.connection_type,
			address = excluded.address,
			status = excluded.status,
			queue_length = excluded.queue_length,
			last_seen_at = excluded.last_seen_at,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`

	GetPrinterByID = `SELECT ` + printerColumns + ` FROM printers WHERE id = ?`

	ListPrinters = `SELECT ` + printerColumns + ` FROM printers ORDER BY name ASC`

	UpdatePrinterStatus = `
		UPDATE printers SET status = ?, error_message = ?, updated_at = ? WHERE id = ?
	`

	RecordPrinterSuccess = `
		UPDATE printers SET total_prints = total_prints + ?, last_successful_print_at = ?, updated_at = ? WHERE id = ?
	`
)

const (
	InsertPrintLog = `
		INSERT INTO print_logs (action, order_id, print_job_id, admin_email, previous_status, new_status,
			reason, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	ListPrintLogsBase = `
		SELECT id, action, order_id, print_job_id, admin_email, previous_status, new_status, reason,
			metadata_json, created_at
		FROM print_logs
	`
)

const (
	InsertAlert = `
		INSERT INTO alerts (type, order_id, printer_id, message, acknowledged, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`

	ListRecentAlerts = `
		SELECT id, type, order_id, printer_id, message, acknowledged, created_at
		FROM alerts WHERE acknowledged = 0 ORDER BY created_at DESC, id DESC LIMIT ?
	`

	AcknowledgeAlert = `UPDATE alerts SET acknowledged = 1 WHERE id = ?`
)

const (
	InsertPrintCounter = `
		INSERT INTO print_counters (printer_id, date, count)
		VALUES (?, ?, ?)
		ON CONFLICT(printer_id, date) DO UPDATE SET count = count + ?
	`

	GetPrintCountersByDate = `
		SELECT id, printer_id, date, count
		FROM print_counters WHERE date = ? ORDER BY count DESC
	`

	GetPrintCountersByDateRange = `
		SELECT id, printer_id, date, count
		FROM print_counters WHERE printer_id = ? AND date >= ? AND date <= ? ORDER BY date ASC
	`
)

const (
	InsertAdmin = `INSERT INTO admins (email, password_hash, created_at) VALUES (?, ?, ?)`

	GetAdminByEmail = `SELECT email, password_hash, created_at FROM admins WHERE email = ?`

	CountAdmins = `SELECT COUNT(*) FROM admins`

	UpdateAdminPassword = `UPDATE admins SET password_hash = ? WHERE email = ?`
)

const (
	GetSetting = `SELECT value, updated_at FROM settings WHERE key = ?`

	SetSetting = `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
)

const (
	GetAppliedMigrations = `SELECT version FROM schema_migrations`
)
