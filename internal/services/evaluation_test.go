package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/curriculum"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/evaluation"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/notification"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/student"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/testutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

func newEvaluationEnv(t *testing.T) (context.Context, *gorm.DB, evaluation.EvaluationRepo, EvaluationService) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	evalRepo := evaluation.NewEvaluationRepo(tx, log)
	svc := NewEvaluationService(
		tx,
		log,
		evalRepo,
		curriculum.NewCurriculumRepo(tx, log),
		student.NewStudentRepo(tx, log),
		notification.NewNotificationRepo(tx, log),
	)
	return context.Background(), tx, evalRepo, svc
}

func TestSubmitFeedbackAggregatesPieceStatuses(t *testing.T) {
	ctx, tx, evalRepo, svc := newEvaluationEnv(t)

	teacher := testutil.SeedPerson(t, ctx, tx, "teacher", types.RoleTeacher)
	stu := testutil.SeedStudent(t, ctx, tx, "kiddo")
	course := testutil.SeedCourse(t, ctx, tx, "beginner track")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 1)
	pieceA := testutil.SeedPiece(t, ctx, tx, course.ID, lesson.ID, "Burgmuller 1")
	pieceB := testutil.SeedPiece(t, ctx, tx, course.ID, lesson.ID, "Burgmuller 2")
	task := testutil.SeedTask(t, ctx, tx, stu.ID, teacher.ID)

	fb, err := svc.SubmitFeedback(ctx, SubmitFeedbackInput{
		TaskID:         task.ID,
		TeacherContent: "good articulation this week",
		PieceIDs:       []uuid.UUID{pieceA.ID, pieceB.ID, pieceA.ID},
		ActorID:        &teacher.ID,
	})
	if err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if len(fb.Details) != 2 {
		t.Fatalf("details: want=2 got=%d", len(fb.Details))
	}

	gotTask, err := evalRepo.GetTask(ctx, tx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if gotTask.Status != types.TaskDone {
		t.Fatalf("task status: want=%q got=%q", types.TaskDone, gotTask.Status)
	}

	statusA, err := evalRepo.GetStatus(ctx, tx, stu.ID, pieceA.ID)
	if err != nil {
		t.Fatalf("GetStatus A: %v", err)
	}
	if statusA.ReviewCount != 1 {
		t.Fatalf("piece A count after first feedback: want=1 got=%d", statusA.ReviewCount)
	}
	if statusA.LastFeedbackID == nil || *statusA.LastFeedbackID != fb.ID {
		t.Fatalf("piece A last feedback: want=%s got=%v", fb.ID, statusA.LastFeedbackID)
	}
	if statusA.LastReviewedAt == nil {
		t.Fatalf("piece A last reviewed at not stamped")
	}
	if statusA.CreatedByID == nil || *statusA.CreatedByID != teacher.ID {
		t.Fatalf("piece A created_by: want=%s got=%v", teacher.ID, statusA.CreatedByID)
	}
	if statusA.UpdatedByID == nil || *statusA.UpdatedByID != teacher.ID {
		t.Fatalf("piece A updated_by: want=%s got=%v", teacher.ID, statusA.UpdatedByID)
	}

	// A second review on piece A only, by another teacher; piece B stays at one.
	teacher2 := testutil.SeedPerson(t, ctx, tx, "substitute", types.RoleTeacher)
	task2 := testutil.SeedTask(t, ctx, tx, stu.ID, teacher2.ID)
	fb2, err := svc.SubmitFeedback(ctx, SubmitFeedbackInput{
		TaskID:         task2.ID,
		TeacherContent: "piece A again",
		PieceIDs:       []uuid.UUID{pieceA.ID},
		ActorID:        &teacher2.ID,
	})
	if err != nil {
		t.Fatalf("SubmitFeedback (second): %v", err)
	}

	statusA, err = evalRepo.GetStatus(ctx, tx, stu.ID, pieceA.ID)
	if err != nil {
		t.Fatalf("GetStatus A (second): %v", err)
	}
	if statusA.ReviewCount != 2 {
		t.Fatalf("piece A count after second feedback: want=2 got=%d", statusA.ReviewCount)
	}
	if statusA.LastFeedbackID == nil || *statusA.LastFeedbackID != fb2.ID {
		t.Fatalf("piece A last feedback not advanced")
	}
	if statusA.CreatedByID == nil || *statusA.CreatedByID != teacher.ID {
		t.Fatalf("piece A created_by changed on increment")
	}
	if statusA.UpdatedByID == nil || *statusA.UpdatedByID != teacher2.ID {
		t.Fatalf("piece A updated_by: want=%s got=%v", teacher2.ID, statusA.UpdatedByID)
	}

	statusB, err := evalRepo.GetStatus(ctx, tx, stu.ID, pieceB.ID)
	if err != nil {
		t.Fatalf("GetStatus B: %v", err)
	}
	if statusB.ReviewCount != 1 {
		t.Fatalf("piece B count: want=1 got=%d", statusB.ReviewCount)
	}
	if statusB.LastFeedbackID == nil || *statusB.LastFeedbackID != fb.ID {
		t.Fatalf("piece B last feedback: want=%s got=%v", fb.ID, statusB.LastFeedbackID)
	}
}

func TestSubmitFeedbackUpdatesImpression(t *testing.T) {
	ctx, tx, _, svc := newEvaluationEnv(t)

	teacher := testutil.SeedPerson(t, ctx, tx, "teacher", types.RoleTeacher)
	stu := testutil.SeedStudent(t, ctx, tx, "kiddo")
	task := testutil.SeedTask(t, ctx, tx, stu.ID, teacher.ID)

	if _, err := svc.SubmitFeedback(ctx, SubmitFeedbackInput{
		TaskID:            task.ID,
		TeacherContent:    "steady progress",
		ProduceImpression: true,
		ImpressionText:    testutil.PtrString("focused, responds well to metronome work"),
	}); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}

	var got types.Student
	if err := tx.WithContext(ctx).Where("id = ?", stu.ID).First(&got).Error; err != nil {
		t.Fatalf("reload student: %v", err)
	}
	if got.TeacherImpressionCurrent == nil || *got.TeacherImpressionCurrent != "focused, responds well to metronome work" {
		t.Fatalf("impression not updated: %v", got.TeacherImpressionCurrent)
	}
}

func TestSubmitFeedbackRejectsFinishedTask(t *testing.T) {
	ctx, tx, _, svc := newEvaluationEnv(t)

	teacher := testutil.SeedPerson(t, ctx, tx, "teacher", types.RoleTeacher)
	stu := testutil.SeedStudent(t, ctx, tx, "kiddo")
	task := testutil.SeedTask(t, ctx, tx, stu.ID, teacher.ID)
	if err := tx.WithContext(ctx).Model(&types.EvaluationTask{}).
		Where("id = ?", task.ID).
		Update("status", types.TaskDone).Error; err != nil {
		t.Fatalf("mark task done: %v", err)
	}

	_, err := svc.SubmitFeedback(ctx, SubmitFeedbackInput{
		TaskID:         task.ID,
		TeacherContent: "late write-up",
	})
	if err == nil {
		t.Fatalf("expected error for finished task")
	}
	if apierr.StatusOf(err) != 409 {
		t.Fatalf("status: want=409 got=%d (%v)", apierr.StatusOf(err), err)
	}
}

func TestUpdateByFeedbackNoDetailsIsNoOp(t *testing.T) {
	ctx, tx, evalRepo, svc := newEvaluationEnv(t)

	teacher := testutil.SeedPerson(t, ctx, tx, "teacher", types.RoleTeacher)
	stu := testutil.SeedStudent(t, ctx, tx, "kiddo")
	task := testutil.SeedTask(t, ctx, tx, stu.ID, teacher.ID)
	fb := testutil.SeedFeedback(t, ctx, tx, task.ID, stu.ID, teacher.ID)

	processed, err := svc.UpdateByFeedback(ctx, fb.ID)
	if err != nil {
		t.Fatalf("UpdateByFeedback: %v", err)
	}
	if processed != 0 {
		t.Fatalf("processed: want=0 got=%d", processed)
	}

	statuses, err := evalRepo.ListStatusesByStudent(ctx, tx, stu.ID)
	if err != nil {
		t.Fatalf("ListStatusesByStudent: %v", err)
	}
	if len(statuses) != 0 {
		t.Fatalf("statuses: want=0 got=%d", len(statuses))
	}
}

func TestUpdateByFeedbackIncrementsOnEveryCall(t *testing.T) {
	ctx, tx, evalRepo, svc := newEvaluationEnv(t)

	teacher := testutil.SeedPerson(t, ctx, tx, "teacher", types.RoleTeacher)
	stu := testutil.SeedStudent(t, ctx, tx, "kiddo")
	course := testutil.SeedCourse(t, ctx, tx, "beginner track")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 1)
	piece := testutil.SeedPiece(t, ctx, tx, course.ID, lesson.ID, "Czerny 599 no. 12")
	task := testutil.SeedTask(t, ctx, tx, stu.ID, teacher.ID)
	fb := testutil.SeedFeedback(t, ctx, tx, task.ID, stu.ID, teacher.ID, piece.ID)

	for i := 1; i <= 2; i++ {
		processed, err := svc.UpdateByFeedback(ctx, fb.ID)
		if err != nil {
			t.Fatalf("UpdateByFeedback (%d): %v", i, err)
		}
		if processed != 1 {
			t.Fatalf("processed (%d): want=1 got=%d", i, processed)
		}
	}

	status, err := evalRepo.GetStatus(ctx, tx, stu.ID, piece.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	// Replays stack, they do not dedup.
	if status.ReviewCount != 2 {
		t.Fatalf("review count: want=2 got=%d", status.ReviewCount)
	}
}

func TestUpdateByFeedbackStampsReviewTimeAtApplication(t *testing.T) {
	ctx, tx, evalRepo, svc := newEvaluationEnv(t)

	teacher := testutil.SeedPerson(t, ctx, tx, "teacher", types.RoleTeacher)
	stu := testutil.SeedStudent(t, ctx, tx, "kiddo")
	course := testutil.SeedCourse(t, ctx, tx, "beginner track")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 1)
	piece := testutil.SeedPiece(t, ctx, tx, course.ID, lesson.ID, "Czerny 599 no. 20")
	task := testutil.SeedTask(t, ctx, tx, stu.ID, teacher.ID)

	// A write-up from last week, replayed today.
	fb := &types.FeedbackRecord{
		ID:             uuid.New(),
		TaskID:         task.ID,
		StudentID:      stu.ID,
		TeacherID:      teacher.ID,
		TeacherContent: "from last week",
		CreatedAt:      time.Now().UTC().Add(-7 * 24 * time.Hour),
	}
	if err := tx.WithContext(ctx).Create(fb).Error; err != nil {
		t.Fatalf("create feedback: %v", err)
	}
	detail := &types.FeedbackPieceDetail{ID: uuid.New(), FeedbackID: fb.ID, PieceID: piece.ID}
	if err := tx.WithContext(ctx).Create(detail).Error; err != nil {
		t.Fatalf("create detail: %v", err)
	}

	before := time.Now().UTC().Add(-time.Minute)
	if _, err := svc.UpdateByFeedback(ctx, fb.ID); err != nil {
		t.Fatalf("UpdateByFeedback: %v", err)
	}

	status, err := evalRepo.GetStatus(ctx, tx, stu.ID, piece.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.LastReviewedAt == nil || status.LastReviewedAt.Before(before) {
		t.Fatalf("last_reviewed_at backdated: %v", status.LastReviewedAt)
	}
}

func TestTouchWithFeedbackRefreshesProvenanceOnly(t *testing.T) {
	ctx, tx, evalRepo, svc := newEvaluationEnv(t)

	teacher := testutil.SeedPerson(t, ctx, tx, "teacher", types.RoleTeacher)
	stu := testutil.SeedStudent(t, ctx, tx, "kiddo")
	course := testutil.SeedCourse(t, ctx, tx, "beginner track")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 1)
	piece := testutil.SeedPiece(t, ctx, tx, course.ID, lesson.ID, "Hanon 1")
	task := testutil.SeedTask(t, ctx, tx, stu.ID, teacher.ID)
	fb := testutil.SeedFeedback(t, ctx, tx, task.ID, stu.ID, teacher.ID, piece.ID)

	if _, err := svc.UpdateByFeedback(ctx, fb.ID); err != nil {
		t.Fatalf("UpdateByFeedback: %v", err)
	}
	status, err := evalRepo.GetStatus(ctx, tx, stu.ID, piece.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}

	task2 := testutil.SeedTask(t, ctx, tx, stu.ID, teacher.ID)
	fb2 := testutil.SeedFeedback(t, ctx, tx, task2.ID, stu.ID, teacher.ID, piece.ID)

	if err := svc.TouchWithFeedback(ctx, status.ID, fb2.ID); err != nil {
		t.Fatalf("TouchWithFeedback: %v", err)
	}

	got, err := evalRepo.GetStatusByID(ctx, tx, status.ID)
	if err != nil {
		t.Fatalf("GetStatusByID: %v", err)
	}
	if got.ReviewCount != 1 {
		t.Fatalf("review count changed on touch: want=1 got=%d", got.ReviewCount)
	}
	if got.LastFeedbackID == nil || *got.LastFeedbackID != fb2.ID {
		t.Fatalf("last feedback not refreshed: %v", got.LastFeedbackID)
	}
}

func TestTouchWithFeedbackRejectsCrossStudent(t *testing.T) {
	ctx, tx, evalRepo, svc := newEvaluationEnv(t)

	teacher := testutil.SeedPerson(t, ctx, tx, "teacher", types.RoleTeacher)
	stuA := testutil.SeedStudent(t, ctx, tx, "anna")
	stuB := testutil.SeedStudent(t, ctx, tx, "ben")
	course := testutil.SeedCourse(t, ctx, tx, "beginner track")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 1)
	piece := testutil.SeedPiece(t, ctx, tx, course.ID, lesson.ID, "Hanon 2")

	taskA := testutil.SeedTask(t, ctx, tx, stuA.ID, teacher.ID)
	fbA := testutil.SeedFeedback(t, ctx, tx, taskA.ID, stuA.ID, teacher.ID, piece.ID)
	if _, err := svc.UpdateByFeedback(ctx, fbA.ID); err != nil {
		t.Fatalf("UpdateByFeedback: %v", err)
	}
	status, err := evalRepo.GetStatus(ctx, tx, stuA.ID, piece.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}

	taskB := testutil.SeedTask(t, ctx, tx, stuB.ID, teacher.ID)
	fbB := testutil.SeedFeedback(t, ctx, tx, taskB.ID, stuB.ID, teacher.ID, piece.ID)

	err = svc.TouchWithFeedback(ctx, status.ID, fbB.ID)
	if err == nil {
		t.Fatalf("expected cross-student rejection")
	}
	if apierr.CodeOf(err) != "student_mismatch" {
		t.Fatalf("code: want=student_mismatch got=%q", apierr.CodeOf(err))
	}

	got, err := evalRepo.GetStatusByID(ctx, tx, status.ID)
	if err != nil {
		t.Fatalf("GetStatusByID: %v", err)
	}
	if got.LastFeedbackID == nil || *got.LastFeedbackID != fbA.ID {
		t.Fatalf("provenance changed on rejected touch")
	}
}

func TestCreateTaskBatchSharesBatchID(t *testing.T) {
	ctx, tx, evalRepo, svc := newEvaluationEnv(t)

	teacher := testutil.SeedPerson(t, ctx, tx, "teacher", types.RoleTeacher)
	stuA := testutil.SeedStudent(t, ctx, tx, "anna")
	stuB := testutil.SeedStudent(t, ctx, tx, "ben")

	tasks, err := svc.CreateTaskBatch(ctx, CreateTaskBatchInput{
		StudentIDs: []uuid.UUID{stuA.ID, stuB.ID, stuA.ID},
		AssigneeID: teacher.ID,
	})
	if err != nil {
		t.Fatalf("CreateTaskBatch: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks: want=2 got=%d", len(tasks))
	}
	if tasks[0].BatchID == nil || tasks[1].BatchID == nil {
		t.Fatalf("batch id missing")
	}
	if *tasks[0].BatchID != *tasks[1].BatchID {
		t.Fatalf("batch ids differ")
	}

	listed, total, err := evalRepo.ListTasks(ctx, tx, evaluation.TaskFilter{BatchID: *tasks[0].BatchID})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 2 || len(listed) != 2 {
		t.Fatalf("ListTasks by batch: want=2 got total=%d len=%d", total, len(listed))
	}
}
