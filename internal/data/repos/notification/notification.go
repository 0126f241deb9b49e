package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type NotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Notification) ([]*types.Notification, error)
	GetByID(ctx context.Context, tx *gorm.DB, notificationID uuid.UUID) (*types.Notification, error)
	ListForPerson(ctx context.Context, tx *gorm.DB, personID uuid.UUID, unreadOnly bool, offset, limit int) ([]*types.Notification, int64, error)
	MarkRead(ctx context.Context, tx *gorm.DB, notificationID, personID uuid.UUID, readAt time.Time) (int64, error)
	MarkAllRead(ctx context.Context, tx *gorm.DB, personID uuid.UUID, readAt time.Time) (int64, error)
	CountUnread(ctx context.Context, tx *gorm.DB, personID uuid.UUID) (int64, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	repoLog := baseLog.With("repo", "NotificationRepo")
	return &notificationRepo{db: db, log: repoLog}
}

func (nr *notificationRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Notification) ([]*types.Notification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	if len(rows) == 0 {
		return []*types.Notification{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (nr *notificationRepo) GetByID(ctx context.Context, tx *gorm.DB, notificationID uuid.UUID) (*types.Notification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	var result types.Notification
	if err := transaction.WithContext(ctx).
		Where("id = ?", notificationID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (nr *notificationRepo) ListForPerson(ctx context.Context, tx *gorm.DB, personID uuid.UUID, unreadOnly bool, offset, limit int) ([]*types.Notification, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.Notification{}).
		Where("person_id = ?", personID)
	if unreadOnly {
		query = query.Where("is_read = false")
	}

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

	var results []*types.Notification
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// MarkRead is idempotent: the is_read guard means a repeat call matches zero
// rows and the original read_at survives.
func (nr *notificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, notificationID, personID uuid.UUID, readAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	result := transaction.WithContext(ctx).
		Model(&types.Notification{}).
		Where("id = ? AND person_id = ? AND is_read = false", notificationID, personID).
		Updates(map[string]any{
			"is_read": true,
			"read_at": readAt,
		})
	return result.RowsAffected, result.Error
}

func (nr *notificationRepo) MarkAllRead(ctx context.Context, tx *gorm.DB, personID uuid.UUID, readAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	result := transaction.WithContext(ctx).
		Model(&types.Notification{}).
		Where("person_id = ? AND is_read = false", personID).
		Updates(map[string]any{
			"is_read": true,
			"read_at": readAt,
		})
	return result.RowsAffected, result.Error
}

func (nr *notificationRepo) CountUnread(ctx context.Context, tx *gorm.DB, personID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Notification{}).
		Where("person_id = ? AND is_read = false", personID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
