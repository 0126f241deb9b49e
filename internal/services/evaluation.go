package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/curriculum"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/evaluation"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/notification"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/student"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

// SubmitFeedbackInput carries a teacher's write-up for one task.
type SubmitFeedbackInput struct {
	TaskID             uuid.UUID
	TeacherContent     string
	ResearcherFeedback *string
	ProduceImpression  bool
	ImpressionText     *string
	PieceIDs           []uuid.UUID
	CourseVersionID    *uuid.UUID
	LessonVersionID    *uuid.UUID
	ActorID            *uuid.UUID
}

// CreateTaskBatchInput creates one task per student, all sharing a batch id.
type CreateTaskBatchInput struct {
	StudentIDs []uuid.UUID
	AssigneeID uuid.UUID
	Note       *string
}

type EvaluationService interface {
	CreateTask(ctx context.Context, task *types.EvaluationTask) (*types.EvaluationTask, error)
	CreateTaskBatch(ctx context.Context, input CreateTaskBatchInput) ([]*types.EvaluationTask, error)
	GetTask(ctx context.Context, taskID uuid.UUID) (*types.EvaluationTask, error)
	ListTasks(ctx context.Context, filter evaluation.TaskFilter) ([]*types.EvaluationTask, int64, error)
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status string) error

	SubmitFeedback(ctx context.Context, input SubmitFeedbackInput) (*types.FeedbackRecord, error)
	GetFeedback(ctx context.Context, feedbackID uuid.UUID) (*types.FeedbackRecord, error)
	ListFeedbackByStudent(ctx context.Context, studentID uuid.UUID, offset, limit int) ([]*types.FeedbackRecord, int64, error)

	UpdateByFeedback(ctx context.Context, feedbackID uuid.UUID) (int, error)
	TouchWithFeedback(ctx context.Context, statusID, feedbackID uuid.UUID) error
	ListPieceStatuses(ctx context.Context, studentID uuid.UUID) ([]*types.StudentPieceStatus, error)
}

type evaluationService struct {
	db               *gorm.DB
	log              *logger.Logger
	evaluationRepo   evaluation.EvaluationRepo
	curriculumRepo   curriculum.CurriculumRepo
	studentRepo      student.StudentRepo
	notificationRepo notification.NotificationRepo
}

func NewEvaluationService(
	db *gorm.DB,
	log *logger.Logger,
	evaluationRepo evaluation.EvaluationRepo,
	curriculumRepo curriculum.CurriculumRepo,
	studentRepo student.StudentRepo,
	notificationRepo notification.NotificationRepo,
) EvaluationService {
	serviceLog := log.With("service", "EvaluationService")
	return &evaluationService{
		db:               db,
		log:              serviceLog,
		evaluationRepo:   evaluationRepo,
		curriculumRepo:   curriculumRepo,
		studentRepo:      studentRepo,
		notificationRepo: notificationRepo,
	}
}

func (es *evaluationService) CreateTask(ctx context.Context, task *types.EvaluationTask) (*types.EvaluationTask, error) {
	if _, err := es.studentRepo.GetByID(ctx, nil, task.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("student_not_found", err)
		}
		return nil, err
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = types.TaskPending
	}
	if task.Source == "" {
		task.Source = types.TaskSourceManual
	}

	if err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := es.evaluationRepo.CreateTasks(ctx, tx, []*types.EvaluationTask{task}); err != nil {
			return err
		}
		return es.notifyAssignee(ctx, tx, task)
	}); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// CreateTaskBatch creates one pending task per distinct student. All tasks in
// the batch share a generated batch id so they can be listed and cancelled
// together.
func (es *evaluationService) CreateTaskBatch(ctx context.Context, input CreateTaskBatchInput) ([]*types.EvaluationTask, error) {
	if len(input.StudentIDs) == 0 {
		return nil, apierr.Invalid("empty_batch", errors.New("batch needs at least one student"))
	}

	seen := map[uuid.UUID]bool{}
	batchID := uuid.New()
	tasks := make([]*types.EvaluationTask, 0, len(input.StudentIDs))
	for _, studentID := range input.StudentIDs {
		if seen[studentID] {
			continue
		}
		seen[studentID] = true
		tasks = append(tasks, &types.EvaluationTask{
			ID:         uuid.New(),
			BatchID:    &batchID,
			StudentID:  studentID,
			AssigneeID: input.AssigneeID,
			Status:     types.TaskPending,
			Source:     types.TaskSourceBatch,
			Note:       input.Note,
		})
	}

	if err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := es.evaluationRepo.CreateTasks(ctx, tx, tasks); err != nil {
			return err
		}
		for _, task := range tasks {
			if err := es.notifyAssignee(ctx, tx, task); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("create task batch: %w", err)
	}
	return tasks, nil
}

func (es *evaluationService) GetTask(ctx context.Context, taskID uuid.UUID) (*types.EvaluationTask, error) {
	task, err := es.evaluationRepo.GetTask(ctx, nil, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("task_not_found", err)
		}
		return nil, err
	}
	return task, nil
}

func (es *evaluationService) ListTasks(ctx context.Context, filter evaluation.TaskFilter) ([]*types.EvaluationTask, int64, error) {
	return es.evaluationRepo.ListTasks(ctx, nil, filter)
}

func (es *evaluationService) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status string) error {
	switch status {
	case types.TaskPending, types.TaskInProgress, types.TaskDone, types.TaskCancelled:
	default:
		return apierr.Invalid("invalid_task_status", fmt.Errorf("unknown task status %q", status))
	}
	task, err := es.evaluationRepo.GetTask(ctx, nil, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("task_not_found", err)
		}
		return err
	}
	if task.Status == types.TaskDone && status != types.TaskDone {
		return apierr.Conflict("task_already_done", errors.New("finished tasks cannot change status"))
	}
	return es.evaluationRepo.UpdateTaskFields(ctx, nil, taskID, map[string]any{"status": status})
}

// SubmitFeedback writes the feedback record, its piece details, the task
// transition to done, and the per-piece counters in one transaction. A task
// accepts exactly one feedback.
func (es *evaluationService) SubmitFeedback(ctx context.Context, input SubmitFeedbackInput) (*types.FeedbackRecord, error) {
	if input.TeacherContent == "" {
		return nil, apierr.Invalid("empty_feedback", errors.New("teacher content is required"))
	}

	task, err := es.evaluationRepo.GetTask(ctx, nil, input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("task_not_found", err)
		}
		return nil, err
	}
	if task.Status == types.TaskDone {
		return nil, apierr.Conflict("task_already_done", errors.New("task already has feedback"))
	}
	if task.Status == types.TaskCancelled {
		return nil, apierr.Conflict("task_cancelled", errors.New("cancelled tasks do not accept feedback"))
	}

	pieceIDs := dedupUUIDs(input.PieceIDs)
	pieces, err := es.curriculumRepo.GetPiecesByIDs(ctx, nil, pieceIDs)
	if err != nil {
		return nil, fmt.Errorf("load pieces: %w", err)
	}
	if len(pieces) != len(pieceIDs) {
		return nil, apierr.Invalid("unknown_piece", errors.New("feedback references a piece that does not exist"))
	}

	feedback := &types.FeedbackRecord{
		ID:                 uuid.New(),
		TaskID:             task.ID,
		StudentID:          task.StudentID,
		TeacherID:          task.AssigneeID,
		TeacherContent:     input.TeacherContent,
		ResearcherFeedback: input.ResearcherFeedback,
		ProduceImpression:  input.ProduceImpression,
		ImpressionText:     input.ImpressionText,
		CreatedByID:        input.ActorID,
		UpdatedByID:        input.ActorID,
	}
	for _, pieceID := range pieceIDs {
		feedback.Details = append(feedback.Details, &types.FeedbackPieceDetail{
			ID:              uuid.New(),
			FeedbackID:      feedback.ID,
			PieceID:         pieceID,
			CourseVersionID: input.CourseVersionID,
			LessonVersionID: input.LessonVersionID,
		})
	}

	if err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := es.evaluationRepo.CreateFeedback(ctx, tx, feedback); cErr != nil {
			return fmt.Errorf("create feedback: %w", cErr)
		}
		if uErr := es.evaluationRepo.UpdateTaskFields(ctx, tx, task.ID, map[string]any{
			"status": types.TaskDone,
		}); uErr != nil {
			return fmt.Errorf("finish task: %w", uErr)
		}
		if _, aErr := es.applyFeedbackToStatuses(ctx, tx, feedback); aErr != nil {
			return aErr
		}
		if input.ProduceImpression && input.ImpressionText != nil {
			if sErr := es.studentRepo.UpdateFields(ctx, tx, task.StudentID, map[string]any{
				"teacher_impression_current": *input.ImpressionText,
			}); sErr != nil {
				return fmt.Errorf("update student impression: %w", sErr)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	es.log.Info("Feedback submitted", "task_id", task.ID, "feedback_id", feedback.ID, "pieces", len(pieceIDs))
	return feedback, nil
}

func (es *evaluationService) GetFeedback(ctx context.Context, feedbackID uuid.UUID) (*types.FeedbackRecord, error) {
	feedback, err := es.evaluationRepo.GetFeedback(ctx, nil, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("feedback_not_found", err)
		}
		return nil, err
	}
	return feedback, nil
}

func (es *evaluationService) ListFeedbackByStudent(ctx context.Context, studentID uuid.UUID, offset, limit int) ([]*types.FeedbackRecord, int64, error) {
	return es.evaluationRepo.ListFeedbackByStudent(ctx, nil, studentID, offset, limit)
}

// UpdateByFeedback re-applies one feedback's piece details to the per-piece
// counters in a single transaction. Each distinct piece bumps its counter by
// one; the call is deliberately not idempotent, so replaying the same
// feedback counts the review again. Returns the number of pieces processed.
func (es *evaluationService) UpdateByFeedback(ctx context.Context, feedbackID uuid.UUID) (int, error) {
	feedback, err := es.evaluationRepo.GetFeedback(ctx, nil, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apierr.NotFound("feedback_not_found", err)
		}
		return 0, err
	}

	if len(feedback.Details) == 0 {
		return 0, nil
	}

	var processed int
	if err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, aErr := es.applyFeedbackToStatuses(ctx, tx, feedback)
		if aErr != nil {
			return aErr
		}
		processed = n
		return nil
	}); err != nil {
		return 0, err
	}
	return processed, nil
}

// TouchWithFeedback restamps a status row's provenance from a feedback record
// without bumping the review counter. Feedback for a different student is a
// validation error and writes nothing.
func (es *evaluationService) TouchWithFeedback(ctx context.Context, statusID, feedbackID uuid.UUID) error {
	status, err := es.evaluationRepo.GetStatusByID(ctx, nil, statusID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("piece_status_not_found", err)
		}
		return err
	}
	feedback, err := es.evaluationRepo.GetFeedback(ctx, nil, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("feedback_not_found", err)
		}
		return err
	}
	if feedback.StudentID != status.StudentID {
		return apierr.Invalid("student_mismatch", fmt.Errorf(
			"feedback belongs to student %s, status row to %s",
			feedback.StudentID, status.StudentID,
		))
	}

	reviewedAt := feedback.CreatedAt
	if reviewedAt.IsZero() {
		reviewedAt = time.Now().UTC()
	}
	return es.evaluationRepo.RefreshStatusProvenance(ctx, nil, statusID, feedbackID, reviewedAt)
}

func (es *evaluationService) ListPieceStatuses(ctx context.Context, studentID uuid.UUID) ([]*types.StudentPieceStatus, error) {
	return es.evaluationRepo.ListStatusesByStudent(ctx, nil, studentID)
}

// applyFeedbackToStatuses walks the feedback's details and applies one review
// per distinct piece. Counter rows are created lazily on first review carrying
// the feedback's audit actor; every increment restamps the updater. The
// feedback's own student always matches the status row's student because the
// row is looked up by (feedback.student, piece); a detail naming another
// student cannot exist.
func (es *evaluationService) applyFeedbackToStatuses(ctx context.Context, tx *gorm.DB, feedback *types.FeedbackRecord) (int, error) {
	reviewedAt := time.Now().UTC()
	actorID := feedback.UpdatedByID
	if actorID == nil {
		actorID = feedback.CreatedByID
	}

	seen := map[uuid.UUID]bool{}
	processed := 0
	for _, detail := range feedback.Details {
		if seen[detail.PieceID] {
			continue
		}
		seen[detail.PieceID] = true

		status, gErr := es.evaluationRepo.GetOrCreateStatus(ctx, tx, feedback.StudentID, detail.PieceID, actorID)
		if gErr != nil {
			return 0, fmt.Errorf("get or create piece status: %w", gErr)
		}
		if status.StudentID != feedback.StudentID {
			return 0, apierr.Conflict("student_mismatch", fmt.Errorf(
				"piece status row belongs to student %s, feedback belongs to %s",
				status.StudentID, feedback.StudentID,
			))
		}
		if tErr := es.evaluationRepo.TouchStatusWithFeedback(ctx, tx, status.ID, feedback.ID, reviewedAt, actorID); tErr != nil {
			return 0, fmt.Errorf("touch piece status: %w", tErr)
		}
		processed++
	}
	return processed, nil
}

func (es *evaluationService) notifyAssignee(ctx context.Context, tx *gorm.DB, task *types.EvaluationTask) error {
	linkType := types.LinkTypeTask
	linkID := task.ID
	_, err := es.notificationRepo.Create(ctx, tx, []*types.Notification{{
		ID:       uuid.New(),
		PersonID: task.AssigneeID,
		Type:     types.NotificationTypeTaskAssigned,
		Title:    "New evaluation task",
		Content:  "You have been assigned a student evaluation.",
		LinkType: &linkType,
		LinkID:   &linkID,
	}})
	return err
}

// uuidField reads a uuid out of an update map, where JSON binding leaves a
// string and programmatic callers pass the type directly.
func uuidField(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("expected a uuid, got %T", raw)
	}
}

func dedupUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
