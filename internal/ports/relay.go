package ports

import (
	"context"

	"github.com/zyzu25/CIANCSC/internal/domain/contact"
)

type Announcement struct {
	SubmissionID  uint64
	SourceAddress string
	Form          contact.Form
}

// RelayOutcome is the result of one delivery attempt. Response is a short
// success marker or the failure detail.
type RelayOutcome struct {
	Delivered bool
	Response  string
}

// Relay announces new submissions to an external chat system. Failures are
// reported in the outcome, not as errors.
type Relay interface {
	Announce(ctx context.Context, announcement Announcement) RelayOutcome
}
