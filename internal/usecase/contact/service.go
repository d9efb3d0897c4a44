package contact

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	domain "github.com/zyzu25/CIANCSC/internal/domain/contact"
	"github.com/zyzu25/CIANCSC/internal/errs"
	"github.com/zyzu25/CIANCSC/internal/ports"
)

// ErrPersistence marks failures to store a submission.
var ErrPersistence = errors.New("submission could not be stored")

type Service struct {
	repo  ports.SubmissionRepository
	relay ports.Relay
}

func NewService(repo ports.SubmissionRepository, relay ports.Relay) *Service {
	return &Service{repo: repo, relay: relay}
}

type SubmitInput struct {
	Category      string
	Payload       json.RawMessage
	SourceAddress string
	ClientAgent   string
}

type SubmitResult struct {
	SubmissionID          uint64
	Category              domain.Category
	NotificationDelivered bool
}

// Submit validates, stores and announces one submission. Only validation and
// storage failures are returned; the relay outcome is recorded on the stored
// row and reported in the result.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if ctx == nil {
		return SubmitResult{}, errors.New("context is required")
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.contact"))

	form, err := domain.Validate(input.Category, input.Payload)
	if err != nil {
		logging.Info(logCtx, "submission rejected", slog.String("category", input.Category), slog.Any("err", errs.Loggable(err)))
		return SubmitResult{}, err
	}
	logCtx = logging.WithAttrs(logCtx, slog.String("category", form.Category().String()))

	source := strings.TrimSpace(input.SourceAddress)
	if source == "" {
		source = "unknown"
	}

	saved, err := s.repo.Save(ctx, ports.SubmissionCreate{
		Category:      form.Category().String(),
		Payload:       input.Payload,
		SourceAddress: source,
		ClientAgent:   optional(input.ClientAgent),
	})
	if err != nil {
		logging.Error(logCtx, "store submission failed", slog.Any("err", errs.Loggable(err)))
		return SubmitResult{}, errors.Join(ErrPersistence, errs.Wrap(err, "save submission"))
	}
	logCtx = logging.WithAttrs(logCtx, slog.Uint64("submission_id", saved.SubmissionID))
	logging.Info(logCtx, "submission stored")

	// The row is committed; a cancelled request must not cut the announce short.
	relayCtx := context.WithoutCancel(logCtx)
	outcome := s.relay.Announce(relayCtx, ports.Announcement{
		SubmissionID:  saved.SubmissionID,
		SourceAddress: source,
		Form:          form,
	})
	if !outcome.Delivered {
		logging.Warn(logCtx, "submission announce failed", slog.String("relay_response", outcome.Response))
	}

	if err := s.repo.UpdateRelayStatus(relayCtx, saved.SubmissionID, outcome.Delivered, optional(outcome.Response)); err != nil {
		logging.Error(logCtx, "record relay status failed", slog.Any("err", errs.Loggable(err)))
	}

	return SubmitResult{
		SubmissionID:          saved.SubmissionID,
		Category:              form.Category(),
		NotificationDelivered: outcome.Delivered,
	}, nil
}

func (s *Service) Get(ctx context.Context, submissionID uint64) (ports.Submission, error) {
	sub, err := s.repo.Get(ctx, submissionID)
	if err != nil {
		return ports.Submission{}, errs.Wrap(err, "get submission")
	}
	return sub, nil
}

// List returns every stored submission, oldest first.
func (s *Service) List(ctx context.Context) ([]ports.Submission, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list submissions")
	}
	return items, nil
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
