package db

import (
	"time"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// DefaultMaxPrintAttempts applies to new orders that do not set a limit.
const DefaultMaxPrintAttempts = 3

const (
	JobStatusPending   = "pending"
	JobStatusPrinting  = "printing"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

const (
	PrinterOnline      = "online"
	PrinterOffline     = "offline"
	PrinterError       = "error"
	PrinterMaintenance = "maintenance"
)

type PrintingOptions struct {
	PrintMode   string `json:"printMode,omitempty"`
	PaperSize   string `json:"paperSize,omitempty"`
	Copies      int    `json:"copies,omitempty"`
	Duplex      bool   `json:"duplex,omitempty"`
	Orientation string `json:"orientation,omitempty"`
}

type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PrintSegment is stored as received; every field may be missing.
type PrintSegment struct {
	SegmentID   string     `json:"segmentId,omitempty"`
	PageRange   *PageRange `json:"pageRange,omitempty"`
	PrintMode   string     `json:"printMode,omitempty"`
	Copies      int        `json:"copies,omitempty"`
	PaperSize   string     `json:"paperSize,omitempty"`
	Duplex      *bool      `json:"duplex,omitempty"`
	Status      string     `json:"status,omitempty"`
	PrintJobID  string     `json:"printJobId,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type Order struct {
	ID                  string          `json:"id"`
	OrderNumber         string          `json:"orderNumber"`
	PaymentStatus       string          `json:"paymentStatus"`
	FileURL             string          `json:"fileURL,omitempty"`
	FileURLs            []string        `json:"fileURLs,omitempty"`
	PrintingOptions     PrintingOptions `json:"printingOptions"`
	PrintStatus         string          `json:"printStatus,omitempty"`
	PrintAttempt        int             `json:"printAttempt"`
	MaxPrintAttempts    int             `json:"maxPrintAttempts"`
	PrintError          string          `json:"printError,omitempty"`
	PrinterName         string          `json:"printerName,omitempty"`
	PrintStartedAt      *time.Time      `json:"printStartedAt,omitempty"`
	PrintCompletedAt    *time.Time      `json:"printCompletedAt,omitempty"`
	PrintingBy          string          `json:"printingBy,omitempty"`
	PrintingHeartbeatAt *time.Time      `json:"printingHeartbeatAt,omitempty"`
	PrintSegments       []PrintSegment  `json:"printSegments,omitempty"`
	PrintQueuedAt       *time.Time      `json:"printQueuedAt,omitempty"`
	Version             int64           `json:"version"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// Files returns every file reference of the order, single URL first.
func (o *Order) Files() []string {
	files := make([]string, 0, len(o.FileURLs)+1)
	if o.FileURL != "" {
		files = append(files, o.FileURL)
	}
	for _, u := range o.FileURLs {
		if u != "" && u != o.FileURL {
			files = append(files, u)
		}
	}
	return files
}

type PrintJob struct {
	ID                int64      `json:"id"`
	JobID             string     `json:"jobId"`
	OrderID           string     `json:"orderId"`
	OrderNumber       string     `json:"orderNumber"`
	FileURL           string     `json:"fileURL,omitempty"`
	FileURLs          []string   `json:"fileURLs,omitempty"`
	OptionsJSON       string     `json:"-"`
	Priority          int        `json:"priority"`
	EstimatedDuration int        `json:"estimatedDuration"`
	Status            string     `json:"status"`
	PrinterIndex      int        `json:"printerIndex"`
	DeliveryNumber    string     `json:"deliveryNumber,omitempty"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	RetryCount        int        `json:"retryCount"`
	CreatedAt         time.Time  `json:"createdAt"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

type Printer struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	ConnectionType        string     `json:"connectionType"`
	Address               string     `json:"address"`
	Status                string     `json:"status"`
	QueueLength           int        `json:"queue_length"`
	LastSeenAt            *time.Time `json:"lastSeenAt,omitempty"`
	LastSuccessfulPrintAt *time.Time `json:"lastSuccessfulPrintAt,omitempty"`
	ErrorMessage          string     `json:"errorMessage,omitempty"`
	TotalPrints           int64      `json:"totalPrints"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

type PrintLog struct {
	ID             int64     `json:"id"`
	Action         string    `json:"action"`
	OrderID        string    `json:"orderId"`
	PrintJobID     string    `json:"printJobId,omitempty"`
	AdminEmail     string    `json:"adminEmail,omitempty"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Reason         string    `json:"reason,omitempty"`
	MetadataJSON   string    `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"timestamp"`
}

type PrintCounter struct {
	ID        int64     `json:"id"`
	PrinterID string    `json:"printerId"`
	Date      time.Time `json:"date"`
	Count     int64     `json:"count"`
}

type Alert struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	OrderID      string    `json:"orderId,omitempty"`
	PrinterID    string    `json:"printerId,omitempty"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Admin struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderFilter struct {
	PrintStatus   string
	PaymentStatus string
	// Escalated: nil means any, true only orders at or past their attempt limit.
	Escalated   *bool
	NewestFirst bool
	Limit       int
}

type LogFilter struct {
	OrderID string
	Action  string
	Limit   int
}
