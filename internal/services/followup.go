package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/followup"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/student"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type FollowUpService interface {
	Create(ctx context.Context, record *types.FollowUpRecord) (*types.FollowUpRecord, error)
	Get(ctx context.Context, recordID uuid.UUID) (*types.FollowUpRecord, error)
	List(ctx context.Context, filter followup.ListFilter) ([]*types.FollowUpRecord, int64, error)
	Update(ctx context.Context, recordID uuid.UUID, fields map[string]any) error
	MarkDone(ctx context.Context, recordID uuid.UUID, result *string) error
	Delete(ctx context.Context, recordID uuid.UUID) error
}

type followUpService struct {
	db           *gorm.DB
	log          *logger.Logger
	followUpRepo followup.FollowUpRepo
	studentRepo  student.StudentRepo
}

func NewFollowUpService(
	db *gorm.DB,
	log *logger.Logger,
	followUpRepo followup.FollowUpRepo,
	studentRepo student.StudentRepo,
) FollowUpService {
	serviceLog := log.With("service", "FollowUpService")
	return &followUpService{
		db:           db,
		log:          serviceLog,
		followUpRepo: followUpRepo,
		studentRepo:  studentRepo,
	}
}

// Create assigns the next per-student sequence number under a row lock. The
// caller never supplies seq_no.
func (fs *followUpService) Create(ctx context.Context, record *types.FollowUpRecord) (*types.FollowUpRecord, error) {
	if record.Content == "" {
		return nil, apierr.Invalid("empty_content", errors.New("follow-up content is required"))
	}
	if _, err := fs.studentRepo.GetByID(ctx, nil, record.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("student_not_found", err)
		}
		return nil, err
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = types.FollowUpPending
	}
	if record.Purpose == "" {
		record.Purpose = types.FollowUpPurposeOther
	}
	if record.Urgency == "" {
		record.Urgency = types.UrgencyNormal
	}

	if err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		maxSeq, mErr := fs.followUpRepo.MaxSeqNoLocked(ctx, tx, record.StudentID)
		if mErr != nil {
			return fmt.Errorf("lock max seq: %w", mErr)
		}
		record.SeqNo = maxSeq + 1
		_, cErr := fs.followUpRepo.Create(ctx, tx, record)
		return cErr
	}); err != nil {
		return nil, fmt.Errorf("create follow-up: %w", err)
	}
	return record, nil
}

func (fs *followUpService) Get(ctx context.Context, recordID uuid.UUID) (*types.FollowUpRecord, error) {
	record, err := fs.followUpRepo.GetByID(ctx, nil, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("follow_up_not_found", err)
		}
		return nil, err
	}
	return record, nil
}

func (fs *followUpService) List(ctx context.Context, filter followup.ListFilter) ([]*types.FollowUpRecord, int64, error) {
	return fs.followUpRepo.List(ctx, nil, filter)
}

func (fs *followUpService) Update(ctx context.Context, recordID uuid.UUID, fields map[string]any) error {
	// seq_no is assigned once at create and never rewritten.
	delete(fields, "seq_no")
	delete(fields, "student_id")
	return fs.followUpRepo.UpdateFields(ctx, nil, recordID, fields)
}

func (fs *followUpService) MarkDone(ctx context.Context, recordID uuid.UUID, result *string) error {
	record, err := fs.followUpRepo.GetByID(ctx, nil, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("follow_up_not_found", err)
		}
		return err
	}
	if record.Status == types.FollowUpDone {
		return nil
	}
	fields := map[string]any{
		"status":  types.FollowUpDone,
		"done_at": time.Now().UTC(),
	}
	if result != nil {
		fields["result"] = *result
	}
	return fs.followUpRepo.UpdateFields(ctx, nil, recordID, fields)
}

func (fs *followUpService) Delete(ctx context.Context, recordID uuid.UUID) error {
	return fs.followUpRepo.Delete(ctx, nil, recordID)
}
