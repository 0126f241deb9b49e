package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/types"
)

func SeedPerson(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, roles ...string) *types.Person {
	tb.Helper()
	p := &types.Person{
		ID:     uuid.New(),
		Name:   name,
		Status: types.StatusEnabled,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed person: %v", err)
	}
	for _, role := range roles {
		pr := &types.PersonRole{ID: uuid.New(), PersonID: p.ID, Role: role}
		if err := tx.WithContext(ctx).Create(pr).Error; err != nil {
			tb.Fatalf("seed person role: %v", err)
		}
	}
	return p
}

func SeedStudent(tb testing.TB, ctx context.Context, tx *gorm.DB, nickname string) *types.Student {
	tb.Helper()
	s := &types.Student{
		ID:         uuid.New(),
		PlatformID: fmt.Sprintf("plat-%s", uuid.NewString()[:8]),
		Nickname:   nickname,
		Status:     types.StatusEnabled,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return s
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:     uuid.New(),
		Name:   name,
		Status: types.StatusEnabled,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, sortOrder int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:        uuid.New(),
		CourseID:  courseID,
		Name:      fmt.Sprintf("lesson %d", sortOrder),
		Status:    types.StatusEnabled,
		SortOrder: sortOrder,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedPiece(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, lessonID uuid.UUID, name string) *types.Piece {
	tb.Helper()
	p := &types.Piece{
		ID:         uuid.New(),
		CourseID:   courseID,
		LessonID:   lessonID,
		Name:       name,
		Status:     types.StatusEnabled,
		Attribute:  types.PieceEtude,
		IsRequired: true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed piece: %v", err)
	}
	return p
}

func SeedTask(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, assigneeID uuid.UUID) *types.EvaluationTask {
	tb.Helper()
	task := &types.EvaluationTask{
		ID:         uuid.New(),
		StudentID:  studentID,
		AssigneeID: assigneeID,
		Status:     types.TaskPending,
		Source:     types.TaskSourceManual,
	}
	if err := tx.WithContext(ctx).Create(task).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return task
}

func SeedFeedback(tb testing.TB, ctx context.Context, tx *gorm.DB, taskID, studentID, teacherID uuid.UUID, pieceIDs ...uuid.UUID) *types.FeedbackRecord {
	tb.Helper()
	fb := &types.FeedbackRecord{
		ID:             uuid.New(),
		TaskID:         taskID,
		StudentID:      studentID,
		TeacherID:      teacherID,
		TeacherContent: "played well",
	}
	if err := tx.WithContext(ctx).Create(fb).Error; err != nil {
		tb.Fatalf("seed feedback: %v", err)
	}
	for _, pieceID := range pieceIDs {
		detail := &types.FeedbackPieceDetail{
			ID:         uuid.New(),
			FeedbackID: fb.ID,
			PieceID:    pieceID,
		}
		if err := tx.WithContext(ctx).Create(detail).Error; err != nil {
			tb.Fatalf("seed feedback detail: %v", err)
		}
		fb.Details = append(fb.Details, detail)
	}
	return fb
}

func SeedReminder(tb testing.TB, ctx context.Context, tx *gorm.DB, senderID uuid.UUID, e2eType string) *types.Reminder {
	tb.Helper()
	r := &types.Reminder{
		ID:       uuid.New(),
		SenderID: senderID,
		E2EType:  e2eType,
		Urgency:  types.UrgencyNormal,
		Category: types.ReminderCategoryOther,
		StartAt:  time.Now().UTC().Add(-time.Hour),
		Content:  "watch the wrist position",
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed reminder: %v", err)
	}
	return r
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrString(v string) *string { return &v }
