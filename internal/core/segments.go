package core

import (
	"sort"
	"time"

	"github.com/orrn/printdesk/internal/db"
)

const (
	defaultPrintMode = "bw"
	defaultPaperSize = "A4"
	defaultCopies    = 1
)

// SequencedSegment is a print segment with every field filled in and its
// position in the physical print run.
type SequencedSegment struct {
	SegmentID      string       `json:"segmentId"`
	PageRange      db.PageRange `json:"pageRange"`
	PrintMode      string       `json:"printMode"`
	Copies         int          `json:"copies"`
	PaperSize      string       `json:"paperSize"`
	Duplex         bool         `json:"duplex"`
	Status         string       `json:"status"`
	PrintJobID     string       `json:"printJobId,omitempty"`
	StartedAt      *time.Time   `json:"startedAt,omitempty"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty"`
	Error          string       `json:"error,omitempty"`
	ExecutionOrder int          `json:"executionOrder"`
}

func normalizeSegment(s db.PrintSegment) SequencedSegment {
	out := SequencedSegment{
		SegmentID:   s.SegmentID,
		PageRange:   db.PageRange{Start: 1, End: 1},
		PrintMode:   s.PrintMode,
		Copies:      s.Copies,
		PaperSize:   s.PaperSize,
		Status:      s.Status,
		PrintJobID:  s.PrintJobID,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		Error:       s.Error,
	}
	if s.PageRange != nil {
		out.PageRange = *s.PageRange
	}
	if out.PrintMode == "" {
		out.PrintMode = defaultPrintMode
	}
	if out.Copies < 1 {
		out.Copies = defaultCopies
	}
	if out.PaperSize == "" {
		out.PaperSize = defaultPaperSize
	}
	if s.Duplex != nil {
		out.Duplex = *s.Duplex
	}
	if out.Status == "" {
		out.Status = StatusPending
	}
	return out
}

// SequenceSegments returns the segments in physical print order: highest page
// range end first, ties broken by higher start. Equal ranges keep their upload
// order. The input is not modified.
func SequenceSegments(segments []db.PrintSegment) []SequencedSegment {
	out := make([]SequencedSegment, len(segments))
	for i, s := range segments {
		out[i] = normalizeSegment(s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PageRange.End != out[j].PageRange.End {
			return out[i].PageRange.End > out[j].PageRange.End
		}
		return out[i].PageRange.Start > out[j].PageRange.Start
	})

	for i := range out {
		out[i].ExecutionOrder = i + 1
	}
	return out
}
