// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer that move them.
package queue

// Queue names. Durable; one queue per event kind.
const (
	ContentCreatedQueue = "content.created"
	ContentDeletedQueue = "content.deleted"
	SweepReportQueue    = "maintenance.sweep"
)

// ContentEvent is published when a content item is created or deleted. It
// carries enough information for downstream consumers to log or trigger
// analytics without querying the primary database.
type ContentEvent struct {
	ContentID  string `json:"content_id"`
	LinkID     string `json:"link_id,omitempty"`
	EmployeeID string `json:"employee_id,omitempty"`
	Department string `json:"department"`
	OccurredAt string `json:"occurred_at"`
}

// SweepReportEvent summarizes one run of the orphan reconciliation sweep.
type SweepReportEvent struct {
	StartedAt  string      `json:"started_at"`
	FinishedAt string      `json:"finished_at"`
	Steps      []SweepStep `json:"steps"`
}

// SweepStep is one step of a sweep run: what was scanned, how many rows were
// removed or rewritten, and the error if the step failed.
type SweepStep struct {
	Name    string `json:"name"`
	Removed int64  `json:"removed"`
	Error   string `json:"error,omitempty"`
}
