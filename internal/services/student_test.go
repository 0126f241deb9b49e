package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/curriculum"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/student"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/testutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

func newStudentEnv(t *testing.T) (context.Context, *gorm.DB, student.StudentRepo, StudentService) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	studentRepo := student.NewStudentRepo(tx, log)
	currRepo := curriculum.NewCurriculumRepo(tx, log)
	svc := NewStudentService(tx, log, studentRepo, currRepo)
	return context.Background(), tx, studentRepo, svc
}

func seedVersion(t *testing.T, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, released bool) *types.CourseVersion {
	t.Helper()
	v := &types.CourseVersion{
		ID:           uuid.New(),
		CourseID:     courseID,
		VersionLabel: "v-" + uuid.NewString()[:8],
		Status:       types.StatusEnabled,
	}
	if released {
		now := time.Now().UTC()
		v.ReleasedAt = &now
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		t.Fatalf("seed version: %v", err)
	}
	return v
}

func TestEnrollRequiresReleasedVersion(t *testing.T) {
	ctx, tx, _, svc := newStudentEnv(t)

	stu := testutil.SeedStudent(t, ctx, tx, "enrol guard")
	course := testutil.SeedCourse(t, ctx, tx, "guarded course")
	draft := seedVersion(t, ctx, tx, course.ID, false)

	_, err := svc.Enroll(ctx, &types.CourseRecord{
		StudentID:       stu.ID,
		CourseVersionID: draft.ID,
	})
	if err == nil {
		t.Fatalf("expected rejection against a draft version")
	}
	if apierr.CodeOf(err) != "version_not_released" {
		t.Fatalf("code: want=version_not_released got=%q", apierr.CodeOf(err))
	}

	released := seedVersion(t, ctx, tx, course.ID, true)
	record, err := svc.Enroll(ctx, &types.CourseRecord{
		StudentID:       stu.ID,
		CourseVersionID: released.ID,
	})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if record.CourseID != course.ID {
		t.Fatalf("record course: want=%s got=%s", course.ID, record.CourseID)
	}
	if record.CourseStatus != types.LearnNotStarted || record.RecordStatus != types.RecordActive {
		t.Fatalf("record defaults: %s/%s", record.CourseStatus, record.RecordStatus)
	}
	if record.StartAt.IsZero() {
		t.Fatalf("start_at not defaulted")
	}
}

func TestCloseCourseRecordIsIdempotent(t *testing.T) {
	ctx, tx, studentRepo, svc := newStudentEnv(t)

	stu := testutil.SeedStudent(t, ctx, tx, "closer")
	course := testutil.SeedCourse(t, ctx, tx, "closing course")
	released := seedVersion(t, ctx, tx, course.ID, true)

	record, err := svc.Enroll(ctx, &types.CourseRecord{
		StudentID:       stu.ID,
		CourseVersionID: released.ID,
	})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	if err := svc.CloseCourseRecord(ctx, record.ID); err != nil {
		t.Fatalf("CloseCourseRecord: %v", err)
	}
	got, err := studentRepo.GetCourseRecord(ctx, tx, record.ID)
	if err != nil {
		t.Fatalf("GetCourseRecord: %v", err)
	}
	if got.RecordStatus != types.RecordClosed {
		t.Fatalf("record not closed: %s", got.RecordStatus)
	}
	if got.EndAt == nil {
		t.Fatalf("end_at not stamped")
	}
	firstEnd := *got.EndAt

	if err := svc.CloseCourseRecord(ctx, record.ID); err != nil {
		t.Fatalf("second close: %v", err)
	}
	again, err := studentRepo.GetCourseRecord(ctx, tx, record.ID)
	if err != nil {
		t.Fatalf("GetCourseRecord: %v", err)
	}
	if !again.EndAt.Equal(firstEnd) {
		t.Fatalf("end_at moved on repeat close")
	}
}

func TestSetTagsRejectsUnknownTag(t *testing.T) {
	ctx, tx, studentRepo, svc := newStudentEnv(t)

	stu := testutil.SeedStudent(t, ctx, tx, "tagged")
	tag, err := svc.CreateTag(ctx, &types.StudentTag{Name: "adult beginner"})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	if err := svc.SetTags(ctx, stu.ID, []uuid.UUID{tag.ID, uuid.New()}); err == nil {
		t.Fatalf("expected unknown_tag")
	} else if apierr.CodeOf(err) != "unknown_tag" {
		t.Fatalf("code: want=unknown_tag got=%q", apierr.CodeOf(err))
	}

	// Duplicates in the input collapse to one link.
	if err := svc.SetTags(ctx, stu.ID, []uuid.UUID{tag.ID, tag.ID}); err != nil {
		t.Fatalf("SetTags: %v", err)
	}
	got, err := studentRepo.GetByID(ctx, tx, stu.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Tags) != 1 {
		t.Fatalf("tags: want=1 got=%d", len(got.Tags))
	}
}
