package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type ReminderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, reminder *types.Reminder) (*types.Reminder, error)
	GetByID(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) (*types.Reminder, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Reminder, int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) error

	CreateRecipients(ctx context.Context, tx *gorm.DB, rows []*types.ReminderRecipient) ([]*types.ReminderRecipient, error)
	HardDeleteRecipients(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) error
	ListRecipients(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) ([]*types.ReminderRecipient, error)
	FirstRecipient(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) (*types.ReminderRecipient, error)
	GetRecipient(ctx context.Context, tx *gorm.DB, reminderID, personID uuid.UUID) (*types.ReminderRecipient, error)
	MarkRecipientRead(ctx context.Context, tx *gorm.DB, reminderID, personID uuid.UUID, readAt time.Time) (int64, error)
	MarkAllReadForPerson(ctx context.Context, tx *gorm.DB, personID uuid.UUID, readAt time.Time) (int64, error)
	MarkAllReadForReminder(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID, readAt time.Time) (int64, error)
	MarkSelectedRead(ctx context.Context, tx *gorm.DB, personID uuid.UUID, reminderIDs []uuid.UUID, readAt time.Time) (int64, error)
	ListInbox(ctx context.Context, tx *gorm.DB, personID uuid.UUID, unreadOnly bool, offset, limit int) ([]*types.ReminderRecipient, int64, error)
	CountUnread(ctx context.Context, tx *gorm.DB, personID uuid.UUID) (int64, error)
}

// ListFilter narrows reminder listing. Zero values mean no constraint.
type ListFilter struct {
	SenderID  uuid.UUID
	StudentID uuid.UUID
	E2EType   string
	Urgency   string
	Category  string
	ActiveAt  *time.Time
	Offset    int
	Limit     int
}

type reminderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReminderRepo(db *gorm.DB, baseLog *logger.Logger) ReminderRepo {
	repoLog := baseLog.With("repo", "ReminderRepo")
	return &reminderRepo{db: db, log: repoLog}
}

func (rr *reminderRepo) Create(ctx context.Context, tx *gorm.DB, reminder *types.Reminder) (*types.Reminder, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if err := transaction.WithContext(ctx).Create(reminder).Error; err != nil {
		return nil, err
	}
	return reminder, nil
}

func (rr *reminderRepo) GetByID(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) (*types.Reminder, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var result types.Reminder
	if err := transaction.WithContext(ctx).
		Preload("Recipients").
		Where("id = ?", reminderID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (rr *reminderRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Reminder, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	query := transaction.WithContext(ctx).Model(&types.Reminder{})
	if filter.SenderID != uuid.Nil {
		query = query.Where("sender_id = ?", filter.SenderID)
	}
	if filter.StudentID != uuid.Nil {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.E2EType != "" {
		query = query.Where("e2e_type = ?", filter.E2EType)
	}
	if filter.Urgency != "" {
		query = query.Where("urgency = ?", filter.Urgency)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveAt != nil {
		at := *filter.ActiveAt
		query = query.Where("start_at <= ? AND (end_at IS NULL OR end_at >= ?)", at, at)
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

	var results []*types.Reminder
	if err := query.
		Preload("Recipients").
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (rr *reminderRepo) UpdateFields(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Reminder{}).
		Where("id = ?", reminderID).
		Updates(fields).Error
}

func (rr *reminderRepo) Delete(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", reminderID).
		Delete(&types.Reminder{}).Error
}

func (rr *reminderRepo) CreateRecipients(ctx context.Context, tx *gorm.DB, rows []*types.ReminderRecipient) ([]*types.ReminderRecipient, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(rows) == 0 {
		return []*types.ReminderRecipient{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// HardDeleteRecipients removes all recipient rows for the reminder, bypassing
// soft delete. Replacing the recipient set discards read state on purpose.
func (rr *reminderRepo) HardDeleteRecipients(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("reminder_id = ?", reminderID).
		Delete(&types.ReminderRecipient{}).Error
}

func (rr *reminderRepo) ListRecipients(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) ([]*types.ReminderRecipient, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.ReminderRecipient
	if err := transaction.WithContext(ctx).
		Where("reminder_id = ?", reminderID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FirstRecipient returns the earliest-inserted recipient row, or nil when the
// reminder has none. Batch inserts can share a timestamp, so the id breaks
// ties to keep the representative stable.
func (rr *reminderRepo) FirstRecipient(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) (*types.ReminderRecipient, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var result types.ReminderRecipient
	err := transaction.WithContext(ctx).
		Where("reminder_id = ?", reminderID).
		Order("created_at ASC, id ASC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (rr *reminderRepo) GetRecipient(ctx context.Context, tx *gorm.DB, reminderID, personID uuid.UUID) (*types.ReminderRecipient, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var result types.ReminderRecipient
	if err := transaction.WithContext(ctx).
		Where("reminder_id = ? AND person_id = ?", reminderID, personID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkRecipientRead flips the row to read once. The is_read guard makes the
// call idempotent; a second call matches zero rows and read_at keeps its
// first value.
func (rr *reminderRepo) MarkRecipientRead(ctx context.Context, tx *gorm.DB, reminderID, personID uuid.UUID, readAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	result := transaction.WithContext(ctx).
		Model(&types.ReminderRecipient{}).
		Where("reminder_id = ? AND person_id = ? AND is_read = false", reminderID, personID).
		Updates(map[string]any{
			"is_read": true,
			"read_at": readAt,
		})
	return result.RowsAffected, result.Error
}

func (rr *reminderRepo) MarkAllReadForPerson(ctx context.Context, tx *gorm.DB, personID uuid.UUID, readAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	result := transaction.WithContext(ctx).
		Model(&types.ReminderRecipient{}).
		Where("person_id = ? AND is_read = false", personID).
		Updates(map[string]any{
			"is_read": true,
			"read_at": readAt,
		})
	return result.RowsAffected, result.Error
}

// MarkAllReadForReminder flips every unread recipient row of one reminder.
func (rr *reminderRepo) MarkAllReadForReminder(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID, readAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	result := transaction.WithContext(ctx).
		Model(&types.ReminderRecipient{}).
		Where("reminder_id = ? AND is_read = false", reminderID).
		Updates(map[string]any{
			"is_read": true,
			"read_at": readAt,
		})
	return result.RowsAffected, result.Error
}

// MarkSelectedRead marks only the given reminders read for the person. Rows
// already read and reminders the person does not receive are left untouched.
func (rr *reminderRepo) MarkSelectedRead(ctx context.Context, tx *gorm.DB, personID uuid.UUID, reminderIDs []uuid.UUID, readAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(reminderIDs) == 0 {
		return 0, nil
	}
	result := transaction.WithContext(ctx).
		Model(&types.ReminderRecipient{}).
		Where("person_id = ? AND reminder_id IN ? AND is_read = false", personID, reminderIDs).
		Updates(map[string]any{
			"is_read": true,
			"read_at": readAt,
		})
	return result.RowsAffected, result.Error
}

func (rr *reminderRepo) ListInbox(ctx context.Context, tx *gorm.DB, personID uuid.UUID, unreadOnly bool, offset, limit int) ([]*types.ReminderRecipient, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.ReminderRecipient{}).
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

	var results []*types.ReminderRecipient
	if err := query.
		Preload("Reminder").
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (rr *reminderRepo) CountUnread(ctx context.Context, tx *gorm.DB, personID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ReminderRecipient{}).
		Where("person_id = ? AND is_read = false", personID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
