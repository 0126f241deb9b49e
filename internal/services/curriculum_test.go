package services

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/curriculum"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/testutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

func newCurriculumEnv(t *testing.T) (context.Context, *gorm.DB, curriculum.CurriculumRepo, CurriculumService) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	currRepo := curriculum.NewCurriculumRepo(tx, log)
	svc := NewCurriculumService(tx, log, currRepo)
	return context.Background(), tx, currRepo, svc
}

func TestCreateLessonAssignsNextSortOrder(t *testing.T) {
	ctx, tx, _, svc := newCurriculumEnv(t)

	course := testutil.SeedCourse(t, ctx, tx, "sort order course")
	testutil.SeedLesson(t, ctx, tx, course.ID, 1)
	testutil.SeedLesson(t, ctx, tx, course.ID, 2)

	lesson, err := svc.CreateLesson(ctx, &types.Lesson{
		CourseID: course.ID,
		Name:     "week three",
	})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	if lesson.SortOrder != 3 {
		t.Fatalf("sort order: want=3 got=%d", lesson.SortOrder)
	}
}

func TestCreatePieceInheritsLessonCourse(t *testing.T) {
	ctx, tx, _, svc := newCurriculumEnv(t)

	course := testutil.SeedCourse(t, ctx, tx, "inherit course")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 1)
	other := testutil.SeedCourse(t, ctx, tx, "other course")

	piece, err := svc.CreatePiece(ctx, &types.Piece{
		LessonID:  lesson.ID,
		Name:      "Clementi sonatina",
		Attribute: types.PieceEtude,
	})
	if err != nil {
		t.Fatalf("CreatePiece: %v", err)
	}
	if piece.CourseID != course.ID {
		t.Fatalf("piece course: want=%s got=%s", course.ID, piece.CourseID)
	}

	// A stated course that contradicts the lesson is rejected.
	_, err = svc.CreatePiece(ctx, &types.Piece{
		CourseID:  other.ID,
		LessonID:  lesson.ID,
		Name:      "mismatched",
		Attribute: types.PieceEtude,
	})
	if err == nil {
		t.Fatalf("expected course_mismatch")
	}
	if apierr.CodeOf(err) != "course_mismatch" {
		t.Fatalf("code: want=course_mismatch got=%q", apierr.CodeOf(err))
	}
}

func TestDeleteLessonCascadesToPieces(t *testing.T) {
	ctx, tx, currRepo, svc := newCurriculumEnv(t)

	course := testutil.SeedCourse(t, ctx, tx, "cascade course")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 1)
	testutil.SeedPiece(t, ctx, tx, course.ID, lesson.ID, "piece one")
	testutil.SeedPiece(t, ctx, tx, course.ID, lesson.ID, "piece two")

	if err := svc.DeleteLesson(ctx, lesson.ID); err != nil {
		t.Fatalf("DeleteLesson: %v", err)
	}

	pieces, err := currRepo.ListPieces(ctx, tx, lesson.ID)
	if err != nil {
		t.Fatalf("ListPieces: %v", err)
	}
	if len(pieces) != 0 {
		t.Fatalf("pieces survived lesson delete: %d", len(pieces))
	}
}

func TestReleaseVersionFreezesSnapshotOnce(t *testing.T) {
	ctx, tx, currRepo, svc := newCurriculumEnv(t)

	course := testutil.SeedCourse(t, ctx, tx, "release course")
	lesson1 := testutil.SeedLesson(t, ctx, tx, course.ID, 1)
	lesson2 := testutil.SeedLesson(t, ctx, tx, course.ID, 2)
	// Seed out of name order to check the snapshot sorts pieces.
	testutil.SeedPiece(t, ctx, tx, course.ID, lesson1.ID, "Zephyr etude")
	testutil.SeedPiece(t, ctx, tx, course.ID, lesson1.ID, "Arabesque")
	testutil.SeedPiece(t, ctx, tx, course.ID, lesson2.ID, "Minuet in G")

	version, err := svc.CreateVersion(ctx, &types.CourseVersion{
		CourseID:     course.ID,
		VersionLabel: "2026 spring",
	})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	released, err := svc.ReleaseVersion(ctx, version.ID)
	if err != nil {
		t.Fatalf("ReleaseVersion: %v", err)
	}
	if !released.IsReleased() {
		t.Fatalf("version not marked released")
	}

	var snapshot struct {
		Lessons []struct {
			Name   string `json:"name"`
			Pieces []struct {
				Name string `json:"name"`
			} `json:"pieces"`
		} `json:"lessons"`
	}
	if err := json.Unmarshal(released.ContentSnapshot, &snapshot); err != nil {
		t.Fatalf("parse snapshot: %v", err)
	}
	if len(snapshot.Lessons) != 2 {
		t.Fatalf("snapshot lessons: want=2 got=%d", len(snapshot.Lessons))
	}
	first := snapshot.Lessons[0]
	if len(first.Pieces) != 2 {
		t.Fatalf("first lesson pieces: want=2 got=%d", len(first.Pieces))
	}
	if first.Pieces[0].Name != "Arabesque" || first.Pieces[1].Name != "Zephyr etude" {
		t.Fatalf("pieces not name-sorted: %+v", first.Pieces)
	}

	lvs, err := currRepo.ListLessonVersions(ctx, tx, version.ID)
	if err != nil {
		t.Fatalf("ListLessonVersions: %v", err)
	}
	if len(lvs) != 2 {
		t.Fatalf("lesson versions: want=2 got=%d", len(lvs))
	}

	// Releasing again is a conflict; the snapshot never changes.
	_, err = svc.ReleaseVersion(ctx, version.ID)
	if err == nil {
		t.Fatalf("expected conflict on second release")
	}
	if apierr.CodeOf(err) != "already_released" {
		t.Fatalf("code: want=already_released got=%q", apierr.CodeOf(err))
	}
}

func TestUpdateLessonKeepsItsCourse(t *testing.T) {
	ctx, tx, currRepo, svc := newCurriculumEnv(t)

	course := testutil.SeedCourse(t, ctx, tx, "pinned course")
	other := testutil.SeedCourse(t, ctx, tx, "tempting course")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 1)

	if err := svc.UpdateLesson(ctx, lesson.ID, map[string]any{
		"name":      "renamed",
		"course_id": other.ID,
	}); err != nil {
		t.Fatalf("UpdateLesson: %v", err)
	}

	got, err := currRepo.GetLesson(ctx, tx, lesson.ID)
	if err != nil {
		t.Fatalf("GetLesson: %v", err)
	}
	if got.Name != "renamed" {
		t.Fatalf("name not updated")
	}
	if got.CourseID != course.ID {
		t.Fatalf("lesson moved between courses")
	}
}
