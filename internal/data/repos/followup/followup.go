package followup

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type FollowUpRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.FollowUpRecord) (*types.FollowUpRecord, error)
	GetByID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.FollowUpRecord, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.FollowUpRecord, int64, error)
	MaxSeqNoLocked(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) error
}

// ListFilter narrows follow-up listing. Zero values mean no constraint.
type ListFilter struct {
	StudentID uuid.UUID
	OwnerID   uuid.UUID
	Status    string
	Offset    int
	Limit     int
}

type followUpRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFollowUpRepo(db *gorm.DB, baseLog *logger.Logger) FollowUpRepo {
	repoLog := baseLog.With("repo", "FollowUpRepo")
	return &followUpRepo{db: db, log: repoLog}
}

func (fr *followUpRepo) Create(ctx context.Context, tx *gorm.DB, record *types.FollowUpRecord) (*types.FollowUpRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (fr *followUpRepo) GetByID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.FollowUpRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	var result types.FollowUpRecord
	if err := transaction.WithContext(ctx).
		Where("id = ?", recordID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (fr *followUpRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.FollowUpRecord, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	query := transaction.WithContext(ctx).Model(&types.FollowUpRecord{})
	if filter.StudentID != uuid.Nil {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.OwnerID != uuid.Nil {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var results []*types.FollowUpRecord
	if err := query.Order("seq_no DESC").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// MaxSeqNoLocked reads the student's highest live sequence number under a row
// lock. Callers run inside a transaction so the next number cannot be taken
// by a concurrent create.
func (fr *followUpRepo) MaxSeqNoLocked(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var rows []*types.FollowUpRecord
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ?", studentID).
		Order("seq_no DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].SeqNo, nil
}

func (fr *followUpRepo) UpdateFields(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.FollowUpRecord{}).
		Where("id = ?", recordID).
		Updates(fields).Error
}

func (fr *followUpRepo) Delete(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", recordID).
		Delete(&types.FollowUpRecord{}).Error
}
