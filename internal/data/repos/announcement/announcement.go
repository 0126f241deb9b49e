package announcement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type AnnouncementRepo interface {
	Create(ctx context.Context, tx *gorm.DB, announcement *types.Announcement) (*types.Announcement, error)
	GetByID(ctx context.Context, tx *gorm.DB, announcementID uuid.UUID) (*types.Announcement, error)
	List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Announcement, int64, error)
	ListActive(ctx context.Context, tx *gorm.DB, at time.Time) ([]*types.Announcement, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, announcementID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, announcementID uuid.UUID) error
}

type announcementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnouncementRepo(db *gorm.DB, baseLog *logger.Logger) AnnouncementRepo {
	repoLog := baseLog.With("repo", "AnnouncementRepo")
	return &announcementRepo{db: db, log: repoLog}
}

func (ar *announcementRepo) Create(ctx context.Context, tx *gorm.DB, announcement *types.Announcement) (*types.Announcement, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if err := transaction.WithContext(ctx).Create(announcement).Error; err != nil {
		return nil, err
	}
	return announcement, nil
}

func (ar *announcementRepo) GetByID(ctx context.Context, tx *gorm.DB, announcementID uuid.UUID) (*types.Announcement, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.Announcement
	if err := transaction.WithContext(ctx).
		Where("id = ?", announcementID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *announcementRepo) List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Announcement, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	query := transaction.WithContext(ctx).Model(&types.Announcement{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.Announcement
	if err := query.
		Order("pinned DESC, publish_at DESC").
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (ar *announcementRepo) ListActive(ctx context.Context, tx *gorm.DB, at time.Time) ([]*types.Announcement, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Announcement
	if err := transaction.WithContext(ctx).
		Where("publish_at <= ? AND (expire_at IS NULL OR expire_at >= ?)", at, at).
		Order("pinned DESC, publish_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *announcementRepo) UpdateFields(ctx context.Context, tx *gorm.DB, announcementID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Announcement{}).
		Where("id = ?", announcementID).
		Updates(fields).Error
}

func (ar *announcementRepo) Delete(ctx context.Context, tx *gorm.DB, announcementID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", announcementID).
		Delete(&types.Announcement{}).Error
}
