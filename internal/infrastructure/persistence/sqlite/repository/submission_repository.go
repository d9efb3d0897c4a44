package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zyzu25/CIANCSC/internal/errs"
	"github.com/zyzu25/CIANCSC/internal/infrastructure/persistence/sqlite/model"
	"github.com/zyzu25/CIANCSC/internal/ports"
)

type SubmissionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ ports.SubmissionRepository = (*SubmissionRepository)(nil)

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db, now: time.Now}
}

// WithClock replaces the creation-time source.
func (r *SubmissionRepository) WithClock(now func() time.Time) *SubmissionRepository {
	r.now = now
	return r
}

func (r *SubmissionRepository) conn(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	return r.db.WithContext(ctx), nil
}

func (r *SubmissionRepository) Save(ctx context.Context, input ports.SubmissionCreate) (ports.Submission, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return ports.Submission{}, err
	}
	if input.Category == "" {
		return ports.Submission{}, errors.New("category is required")
	}

	payload := input.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	row := model.Submission{
		Category:       input.Category,
		Payload:        datatypes.JSON(payload),
		SourceAddress:  input.SourceAddress,
		ClientAgent:    input.ClientAgent,
		CreatedAt:      r.now().UTC(),
		RelayDelivered: false,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Submission{}, errs.Wrap(err, "insert submission")
	}
	return mapSubmission(row), nil
}

func (r *SubmissionRepository) Get(ctx context.Context, submissionID uint64) (ports.Submission, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return ports.Submission{}, err
	}
	row, err := takeSubmission(db, submissionID)
	if err != nil {
		return ports.Submission{}, err
	}
	return mapSubmission(row), nil
}

func (r *SubmissionRepository) ListAll(ctx context.Context) ([]ports.Submission, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Submission
	if err := db.Order("created_at asc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query submissions")
	}

	items := make([]ports.Submission, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapSubmission(row))
	}
	return items, nil
}

func (r *SubmissionRepository) UpdateRelayStatus(ctx context.Context, submissionID uint64, delivered bool, response *string) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		row, err := takeSubmission(tx, submissionID)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.Submission{}).
			Where("id = ?", row.SubmissionID).
			Updates(map[string]any{
				"relay_delivered": row.RelayDelivered || delivered,
				"relay_response":  response,
			}).Error; err != nil {
			return errs.Wrap(err, "update relay status")
		}
		return nil
	})
}

func takeSubmission(db *gorm.DB, submissionID uint64) (model.Submission, error) {
	var row model.Submission
	if err := db.Where("id = ?", submissionID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Submission{}, errs.Wrapf(ports.ErrSubmissionNotFound, "submission %d", submissionID)
		}
		return model.Submission{}, errs.Wrap(err, "query submission")
	}
	return row, nil
}

func mapSubmission(row model.Submission) ports.Submission {
	return ports.Submission{
		SubmissionID:   row.SubmissionID,
		Category:       row.Category,
		Payload:        json.RawMessage(row.Payload),
		SourceAddress:  row.SourceAddress,
		ClientAgent:    row.ClientAgent,
		CreatedAt:      row.CreatedAt.UTC(),
		RelayDelivered: row.RelayDelivered,
		RelayResponse:  row.RelayResponse,
	}
}
