// Package history keeps answered questions with a review status so that
// generated stories can be approved or rejected before publication.
package history

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("history entry not found")
	// ErrInvalidStatus is returned for statuses other than the three known ones.
	ErrInvalidStatus = errors.New("invalid status")
)

// Status is the review state of an entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Entry is one stored answer.
type Entry struct {
	ID         string          `json:"id"`
	ResultID   string          `json:"result_id"`
	Query      string          `json:"query"`
	Intent     string          `json:"intent"`
	Domain     string          `json:"domain"`
	OutputMode string          `json:"output_mode"`
	Template   string          `json:"template"`
	Confidence float64         `json:"confidence"`
	Status     Status          `json:"status"`
	ReviewedBy string          `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	ReviewedAt *time.Time      `json:"reviewed_at,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}
