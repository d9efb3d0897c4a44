package ports

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrSubmissionNotFound = errors.New("contact submission not found")

// Submission is one persisted contact-form record.
type Submission struct {
	SubmissionID   uint64
	Category       string
	Payload        json.RawMessage
	SourceAddress  string
	ClientAgent    *string
	CreatedAt      time.Time
	RelayDelivered bool
	RelayResponse  *string
}

type SubmissionCreate struct {
	Category      string
	Payload       json.RawMessage
	SourceAddress string
	ClientAgent   *string
}

// SubmissionRepository stores submissions. Implementations assign ids and
// creation times themselves and never retry failed storage calls.
type SubmissionRepository interface {
	// Save inserts a new record with RelayDelivered=false and no relay response.
	Save(ctx context.Context, input SubmissionCreate) (Submission, error)
	Get(ctx context.Context, submissionID uint64) (Submission, error)
	// ListAll returns every record ordered by creation time, oldest first.
	ListAll(ctx context.Context) ([]Submission, error)
	// UpdateRelayStatus records the outcome of a relay attempt. It returns
	// ErrSubmissionNotFound for unknown ids and never clears a delivered flag.
	UpdateRelayStatus(ctx context.Context, submissionID uint64, delivered bool, response *string) error
}
