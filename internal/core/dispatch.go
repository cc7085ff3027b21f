package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/orrn/printdesk/internal/db"
)

const (
	defaultDispatchTimeout = 10 * time.Second
	printJobsPath          = "/print-jobs"
	healthPath             = "/health"
)

// ParsePrinterURLs accepts a JSON array, a bracket-wrapped list that is not
// valid JSON, or a comma-separated string. URLs are trimmed of whitespace,
// quotes and trailing slashes; empty items are dropped.
func ParsePrinterURLs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var items []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			inner := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
			items = strings.Split(inner, ",")
		}
	} else {
		items = strings.Split(raw, ",")
	}

	urls := make([]string, 0, len(items))
	for _, item := range items {
		u := strings.TrimSpace(item)
		u = strings.Trim(u, `"'`)
		u = strings.TrimSpace(u)
		u = strings.TrimRight(u, "/")
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// PrintJobRequest is the payload posted to a printer-side service.
type PrintJobRequest struct {
	JobID             string             `json:"jobId"`
	DeliveryNumber    string             `json:"deliveryNumber"`
	OrderID           string             `json:"orderId"`
	OrderNumber       string             `json:"orderNumber"`
	FileURL           string             `json:"fileURL,omitempty"`
	FileURLs          []string           `json:"fileURLs,omitempty"`
	PrintingOptions   db.PrintingOptions `json:"printingOptions"`
	Segments          []SequencedSegment `json:"segments,omitempty"`
	Priority          int                `json:"priority"`
	EstimatedDuration int                `json:"estimatedDuration"`
}

type DispatchResult struct {
	Success        bool   `json:"success"`
	JobID          string `json:"jobId,omitempty"`
	DeliveryNumber string `json:"deliveryNumber,omitempty"`
	PrinterIndex   int    `json:"printerIndex"`
	Message        string `json:"message"`
	Error          string `json:"error,omitempty"`
	Queued         bool   `json:"queued,omitempty"`
}

type HealthStatus struct {
	PrinterIndex int                    `json:"printerIndex"`
	URL          string                 `json:"url,omitempty"`
	Healthy      bool                   `json:"healthy"`
	StatusCode   int                    `json:"statusCode,omitempty"`
	LatencyMs    int64                  `json:"latencyMs"`
	Message      string                 `json:"message"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CheckedAt    time.Time              `json:"checkedAt"`
}

// DispatchClient submits print jobs to printer-side services over HTTP.
type DispatchClient struct {
	urls       []string
	httpClient *http.Client
	retryQueue *RetryQueue
	seq        atomic.Uint64
}

func NewDispatchClient(urls []string, timeout time.Duration, retryQueue *RetryQueue) *DispatchClient {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &DispatchClient{
		urls: urls,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryQueue: retryQueue,
	}
}

func (c *DispatchClient) PrinterURLs() []string {
	out := make([]string, len(c.urls))
	copy(out, c.urls)
	return out
}

func (c *DispatchClient) RetryQueueStatus() RetryQueueStatus {
	if c.retryQueue == nil {
		return RetryQueueStatus{Items: []RetryEntry{}}
	}
	return c.retryQueue.Status()
}

// resolve maps a 1-based printer index to a base URL. Out of range indexes
// fall back to the first printer.
func (c *DispatchClient) resolve(printerIndex int) (string, int, error) {
	if len(c.urls) == 0 {
		return "", 1, ErrNoPrinterConfigured
	}
	if printerIndex < 1 || printerIndex > len(c.urls) {
		printerIndex = 1
	}
	return c.urls[printerIndex-1], printerIndex, nil
}

// nextDeliveryNumber never repeats within a process; the random suffix keeps
// separate processes apart.
func (c *DispatchClient) nextDeliveryNumber(printerIndex int) string {
	seq := c.seq.Add(1)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return fmt.Sprintf("P%d-%d-%d-%s", printerIndex, time.Now().UnixMilli(), seq, suffix)
}

// BuildRequest turns an order into a print job payload. An empty jobID gets a
// fresh one.
func BuildRequest(order *db.Order, jobID string) *PrintJobRequest {
	if jobID == "" {
		jobID = uuid.NewString()
	}

	var segments []SequencedSegment
	if len(order.PrintSegments) > 0 {
		segments = SequenceSegments(order.PrintSegments)
	}

	return &PrintJobRequest{
		JobID:             jobID,
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		FileURL:           order.FileURL,
		FileURLs:          order.FileURLs,
		PrintingOptions:   order.PrintingOptions,
		Segments:          segments,
		EstimatedDuration: EstimateDuration(order),
	}
}

// EstimateDuration is a rough print time in seconds.
func EstimateDuration(order *db.Order) int {
	copies := order.PrintingOptions.Copies
	if copies < 1 {
		copies = 1
	}
	files := len(order.Files())
	if files < 1 {
		files = 1
	}

	if len(order.PrintSegments) == 0 {
		return 30 + 15*files*copies
	}

	total := 30
	for _, s := range SequenceSegments(order.PrintSegments) {
		pages := s.PageRange.End - s.PageRange.Start + 1
		if pages < 1 {
			pages = 1
		}
		total += 2 * pages * s.Copies
	}
	return total
}

// SendPrintJobFromOrder sends a new print job for order. It never blocks past
// the client timeout and reports failures in the result.
func (c *DispatchClient) SendPrintJobFromOrder(ctx context.Context, order *db.Order, printerIndex int) DispatchResult {
	return c.Send(ctx, BuildRequest(order, ""), printerIndex)
}

// Send posts req and queues it for retry when the printer cannot be reached.
func (c *DispatchClient) Send(ctx context.Context, req *PrintJobRequest, printerIndex int) DispatchResult {
	result := DispatchResult{JobID: req.JobID, PrinterIndex: printerIndex}

	deliveryNumber, resolved, err := c.Deliver(ctx, req, printerIndex)
	result.PrinterIndex = resolved
	if errors.Is(err, ErrNoPrinterConfigured) {
		result.Message = ErrNoPrinterConfigured.Error()
		result.Error = err.Error()
		return result
	}
	result.DeliveryNumber = deliveryNumber

	if err != nil {
		result.Message = "printer unreachable, job queued for retry"
		result.Error = err.Error()
		if c.retryQueue != nil {
			result.Queued = c.retryQueue.Enqueue(&RetryEntry{
				OrderID:      req.OrderID,
				JobID:        req.JobID,
				PrinterIndex: resolved,
				Request:      req,
				LastError:    err.Error(),
			})
		}
		if !result.Queued {
			result.Message = "printer unreachable"
		}
		log.Printf("[dispatch] job %s for order %s failed on printer %d: %v", req.JobID, req.OrderID, resolved, err)
		return result
	}

	result.Success = true
	result.Message = "print job sent"
	return result
}

// Deliver posts req once with a fresh delivery number and returns it along
// with the printer index actually used.
func (c *DispatchClient) Deliver(ctx context.Context, req *PrintJobRequest, printerIndex int) (string, int, error) {
	baseURL, resolved, err := c.resolve(printerIndex)
	if err != nil {
		return "", resolved, err
	}

	payload := *req
	payload.DeliveryNumber = c.nextDeliveryNumber(resolved)

	body, err := json.Marshal(&payload)
	if err != nil {
		return payload.DeliveryNumber, resolved, fmt.Errorf("marshal print job: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+printJobsPath, bytes.NewReader(body))
	if err != nil {
		return payload.DeliveryNumber, resolved, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Delivery-Number", payload.DeliveryNumber)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return payload.DeliveryNumber, resolved, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return payload.DeliveryNumber, resolved, fmt.Errorf("printer responded with status %d", resp.StatusCode)
	}
	return payload.DeliveryNumber, resolved, nil
}

// CheckHealth queries the printer-side service. Failures are reported in the
// returned status, never as an error.
func (c *DispatchClient) CheckHealth(ctx context.Context, printerIndex int) HealthStatus {
	status := HealthStatus{
		PrinterIndex: printerIndex,
		CheckedAt:    time.Now().UTC(),
	}

	baseURL, resolved, err := c.resolve(printerIndex)
	status.PrinterIndex = resolved
	if err != nil {
		status.Message = err.Error()
		return status
	}
	status.URL = baseURL

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+healthPath, nil)
	if err != nil {
		status.Message = fmt.Sprintf("create request: %v", err)
		return status
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	status.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		status.Message = fmt.Sprintf("printer unreachable: %v", err)
		return status
	}
	defer resp.Body.Close()

	status.StatusCode = resp.StatusCode
	var details map[string]interface{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&details); err == nil {
		status.Details = details
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status.Message = fmt.Sprintf("printer responded with status %d", resp.StatusCode)
		return status
	}

	status.Healthy = true
	status.Message = "ok"
	return status
}
