package evaluation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type EvaluationRepo interface {
	CreateTasks(ctx context.Context, tx *gorm.DB, tasks []*types.EvaluationTask) ([]*types.EvaluationTask, error)
	GetTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.EvaluationTask, error)
	ListTasks(ctx context.Context, tx *gorm.DB, filter TaskFilter) ([]*types.EvaluationTask, int64, error)
	UpdateTaskFields(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, fields map[string]any) error

	CreateFeedback(ctx context.Context, tx *gorm.DB, feedback *types.FeedbackRecord) (*types.FeedbackRecord, error)
	GetFeedback(ctx context.Context, tx *gorm.DB, feedbackID uuid.UUID) (*types.FeedbackRecord, error)
	GetFeedbackByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.FeedbackRecord, error)
	ListFeedbackByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, offset, limit int) ([]*types.FeedbackRecord, int64, error)
	UpdateFeedbackFields(ctx context.Context, tx *gorm.DB, feedbackID uuid.UUID, fields map[string]any) error

	GetOrCreateStatus(ctx context.Context, tx *gorm.DB, studentID, pieceID uuid.UUID, actorID *uuid.UUID) (*types.StudentPieceStatus, error)
	TouchStatusWithFeedback(ctx context.Context, tx *gorm.DB, statusID uuid.UUID, feedbackID uuid.UUID, reviewedAt time.Time, actorID *uuid.UUID) error
	RefreshStatusProvenance(ctx context.Context, tx *gorm.DB, statusID uuid.UUID, feedbackID uuid.UUID, reviewedAt time.Time) error
	GetStatusByID(ctx context.Context, tx *gorm.DB, statusID uuid.UUID) (*types.StudentPieceStatus, error)
	ListStatusesByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.StudentPieceStatus, error)
	GetStatus(ctx context.Context, tx *gorm.DB, studentID, pieceID uuid.UUID) (*types.StudentPieceStatus, error)
}

// TaskFilter narrows task listing. Zero values mean no constraint.
type TaskFilter struct {
	AssigneeID uuid.UUID
	StudentID  uuid.UUID
	BatchID    uuid.UUID
	Status     string
	Offset     int
	Limit      int
}

type evaluationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) EvaluationRepo {
	repoLog := baseLog.With("repo", "EvaluationRepo")
	return &evaluationRepo{db: db, log: repoLog}
}

func (er *evaluationRepo) CreateTasks(ctx context.Context, tx *gorm.DB, tasks []*types.EvaluationTask) ([]*types.EvaluationTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if len(tasks) == 0 {
		return []*types.EvaluationTask{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (er *evaluationRepo) GetTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.EvaluationTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var result types.EvaluationTask
	if err := transaction.WithContext(ctx).
		Where("id = ?", taskID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (er *evaluationRepo) ListTasks(ctx context.Context, tx *gorm.DB, filter TaskFilter) ([]*types.EvaluationTask, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	query := transaction.WithContext(ctx).Model(&types.EvaluationTask{})
	if filter.AssigneeID != uuid.Nil {
		query = query.Where("assignee_id = ?", filter.AssigneeID)
	}
	if filter.StudentID != uuid.Nil {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.BatchID != uuid.Nil {
		query = query.Where("batch_id = ?", filter.BatchID)
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

	var results []*types.EvaluationTask
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (er *evaluationRepo) UpdateTaskFields(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.EvaluationTask{}).
		Where("id = ?", taskID).
		Updates(fields).Error
}

func (er *evaluationRepo) CreateFeedback(ctx context.Context, tx *gorm.DB, feedback *types.FeedbackRecord) (*types.FeedbackRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if err := transaction.WithContext(ctx).Create(feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (er *evaluationRepo) GetFeedback(ctx context.Context, tx *gorm.DB, feedbackID uuid.UUID) (*types.FeedbackRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var result types.FeedbackRecord
	if err := transaction.WithContext(ctx).
		Preload("Details").
		Where("id = ?", feedbackID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (er *evaluationRepo) GetFeedbackByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.FeedbackRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var result types.FeedbackRecord
	if err := transaction.WithContext(ctx).
		Preload("Details").
		Where("task_id = ?", taskID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (er *evaluationRepo) ListFeedbackByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, offset, limit int) ([]*types.FeedbackRecord, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.FeedbackRecord{}).
		Where("student_id = ?", studentID)

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

	var results []*types.FeedbackRecord
	if err := query.
		Preload("Details").
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (er *evaluationRepo) UpdateFeedbackFields(ctx context.Context, tx *gorm.DB, feedbackID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.FeedbackRecord{}).
		Where("id = ?", feedbackID).
		Updates(fields).Error
}

// GetOrCreateStatus returns the live (student, piece) counter row, creating it
// with a zero count when absent. A freshly created row carries the acting
// person as creator and updater.
func (er *evaluationRepo) GetOrCreateStatus(ctx context.Context, tx *gorm.DB, studentID, pieceID uuid.UUID, actorID *uuid.UUID) (*types.StudentPieceStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var status types.StudentPieceStatus
	if err := transaction.WithContext(ctx).
		Where(&types.StudentPieceStatus{StudentID: studentID, PieceID: pieceID}).
		Attrs(&types.StudentPieceStatus{CreatedByID: actorID, UpdatedByID: actorID}).
		FirstOrCreate(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// TouchStatusWithFeedback applies one review to the counter row. The increment
// runs in storage, so concurrent feedbacks never lose counts.
func (er *evaluationRepo) TouchStatusWithFeedback(ctx context.Context, tx *gorm.DB, statusID uuid.UUID, feedbackID uuid.UUID, reviewedAt time.Time, actorID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	return transaction.WithContext(ctx).
		Model(&types.StudentPieceStatus{}).
		Where("id = ?", statusID).
		Updates(map[string]any{
			"review_count":     gorm.Expr("review_count + 1"),
			"last_feedback_id": feedbackID,
			"last_reviewed_at": reviewedAt,
			"updated_by_id":    actorID,
		}).Error
}

// RefreshStatusProvenance restamps which feedback last covered the pair
// without counting a new review.
func (er *evaluationRepo) RefreshStatusProvenance(ctx context.Context, tx *gorm.DB, statusID uuid.UUID, feedbackID uuid.UUID, reviewedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	return transaction.WithContext(ctx).
		Model(&types.StudentPieceStatus{}).
		Where("id = ?", statusID).
		Updates(map[string]any{
			"last_feedback_id": feedbackID,
			"last_reviewed_at": reviewedAt,
		}).Error
}

func (er *evaluationRepo) GetStatusByID(ctx context.Context, tx *gorm.DB, statusID uuid.UUID) (*types.StudentPieceStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var result types.StudentPieceStatus
	if err := transaction.WithContext(ctx).
		Where("id = ?", statusID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (er *evaluationRepo) ListStatusesByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.StudentPieceStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var results []*types.StudentPieceStatus
	if err := transaction.WithContext(ctx).
		Preload("Piece").
		Where("student_id = ?", studentID).
		Order("last_reviewed_at DESC NULLS LAST").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *evaluationRepo) GetStatus(ctx context.Context, tx *gorm.DB, studentID, pieceID uuid.UUID) (*types.StudentPieceStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var result types.StudentPieceStatus
	if err := transaction.WithContext(ctx).
		Where("student_id = ? AND piece_id = ?", studentID, pieceID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
