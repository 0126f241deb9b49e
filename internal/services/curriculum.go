package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appdb "github.com/lessonworks/pianoschool-backend/internal/data/db"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/curriculum"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

// snapshotPiece and friends shape the frozen JSON written on release.
type snapshotPiece struct {
	PieceID    uuid.UUID `json:"piece_id"`
	Name       string    `json:"name"`
	Attribute  string    `json:"attribute"`
	IsRequired bool      `json:"is_required"`
}

type snapshotLesson struct {
	LessonID  uuid.UUID       `json:"lesson_id"`
	Name      string          `json:"name"`
	SortOrder int             `json:"sort_order"`
	Pieces    []snapshotPiece `json:"pieces"`
}

type courseSnapshot struct {
	CourseID     uuid.UUID        `json:"course_id"`
	CourseName   string           `json:"course_name"`
	VersionLabel string           `json:"version_label"`
	ReleasedAt   time.Time        `json:"released_at"`
	Lessons      []snapshotLesson `json:"lessons"`
}

type CurriculumService interface {
	CreateCourse(ctx context.Context, course *types.Course) (*types.Course, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	ListCourses(ctx context.Context, status string) ([]*types.Course, error)
	UpdateCourse(ctx context.Context, courseID uuid.UUID, fields map[string]any) error
	DeleteCourse(ctx context.Context, courseID uuid.UUID) error

	CreateLesson(ctx context.Context, lesson *types.Lesson) (*types.Lesson, error)
	ListLessons(ctx context.Context, courseID uuid.UUID) ([]*types.Lesson, error)
	UpdateLesson(ctx context.Context, lessonID uuid.UUID, fields map[string]any) error
	DeleteLesson(ctx context.Context, lessonID uuid.UUID) error

	CreatePiece(ctx context.Context, piece *types.Piece) (*types.Piece, error)
	ListPieces(ctx context.Context, lessonID uuid.UUID) ([]*types.Piece, error)
	UpdatePiece(ctx context.Context, pieceID uuid.UUID, fields map[string]any) error
	DeletePiece(ctx context.Context, pieceID uuid.UUID) error

	CreateVersion(ctx context.Context, version *types.CourseVersion) (*types.CourseVersion, error)
	ListVersions(ctx context.Context, courseID uuid.UUID) ([]*types.CourseVersion, error)
	GetVersion(ctx context.Context, versionID uuid.UUID) (*types.CourseVersion, error)
	ReleaseVersion(ctx context.Context, versionID uuid.UUID) (*types.CourseVersion, error)
}

type curriculumService struct {
	db             *gorm.DB
	log            *logger.Logger
	curriculumRepo curriculum.CurriculumRepo
}

func NewCurriculumService(
	db *gorm.DB,
	log *logger.Logger,
	curriculumRepo curriculum.CurriculumRepo,
) CurriculumService {
	serviceLog := log.With("service", "CurriculumService")
	return &curriculumService{
		db:             db,
		log:            serviceLog,
		curriculumRepo: curriculumRepo,
	}
}

func (cs *curriculumService) CreateCourse(ctx context.Context, course *types.Course) (*types.Course, error) {
	if course.Name == "" {
		return nil, apierr.Invalid("empty_course_name", errors.New("course name is required"))
	}
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	if course.Status == "" {
		course.Status = types.StatusEnabled
	}
	created, err := cs.curriculumRepo.CreateCourse(ctx, nil, course)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return created, nil
}

func (cs *curriculumService) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	course, err := cs.curriculumRepo.GetCourse(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("course_not_found", err)
		}
		return nil, err
	}
	return course, nil
}

func (cs *curriculumService) ListCourses(ctx context.Context, status string) ([]*types.Course, error) {
	return cs.curriculumRepo.ListCourses(ctx, nil, status)
}

func (cs *curriculumService) UpdateCourse(ctx context.Context, courseID uuid.UUID, fields map[string]any) error {
	return cs.curriculumRepo.UpdateCourseFields(ctx, nil, courseID, fields)
}

func (cs *curriculumService) DeleteCourse(ctx context.Context, courseID uuid.UUID) error {
	return cs.curriculumRepo.DeleteCourse(ctx, nil, courseID)
}

func (cs *curriculumService) CreateLesson(ctx context.Context, lesson *types.Lesson) (*types.Lesson, error) {
	if lesson.Name == "" {
		return nil, apierr.Invalid("empty_lesson_name", errors.New("lesson name is required"))
	}
	if _, err := cs.curriculumRepo.GetCourse(ctx, nil, lesson.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("course_not_found", err)
		}
		return nil, err
	}
	if lesson.ID == uuid.Nil {
		lesson.ID = uuid.New()
	}
	if lesson.Status == "" {
		lesson.Status = types.StatusEnabled
	}

	var created *types.Lesson
	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if lesson.SortOrder == 0 {
			max, mErr := cs.curriculumRepo.MaxLessonSortOrder(ctx, tx, lesson.CourseID)
			if mErr != nil {
				return fmt.Errorf("next sort order: %w", mErr)
			}
			lesson.SortOrder = max + 1
		}
		var cErr error
		created, cErr = cs.curriculumRepo.CreateLesson(ctx, tx, lesson)
		return cErr
	}); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	return created, nil
}

func (cs *curriculumService) ListLessons(ctx context.Context, courseID uuid.UUID) ([]*types.Lesson, error) {
	return cs.curriculumRepo.ListLessons(ctx, nil, courseID)
}

func (cs *curriculumService) UpdateLesson(ctx context.Context, lessonID uuid.UUID, fields map[string]any) error {
	// A lesson never moves between courses; its pieces carry the denormalized
	// course id.
	delete(fields, "course_id")
	return cs.curriculumRepo.UpdateLessonFields(ctx, nil, lessonID, fields)
}

func (cs *curriculumService) DeleteLesson(ctx context.Context, lessonID uuid.UUID) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pieces, pErr := cs.curriculumRepo.ListPieces(ctx, tx, lessonID)
		if pErr != nil {
			return pErr
		}
		for _, piece := range pieces {
			if dErr := cs.curriculumRepo.DeletePiece(ctx, tx, piece.ID); dErr != nil {
				return dErr
			}
		}
		return cs.curriculumRepo.DeleteLesson(ctx, tx, lessonID)
	})
}

// CreatePiece forces the denormalized course reference to the lesson's own
// course; a mismatching course id in the input is a validation error.
func (cs *curriculumService) CreatePiece(ctx context.Context, piece *types.Piece) (*types.Piece, error) {
	if piece.Name == "" {
		return nil, apierr.Invalid("empty_piece_name", errors.New("piece name is required"))
	}
	lesson, err := cs.curriculumRepo.GetLesson(ctx, nil, piece.LessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("lesson_not_found", err)
		}
		return nil, err
	}
	if piece.CourseID != uuid.Nil && piece.CourseID != lesson.CourseID {
		return nil, apierr.Invalid("course_mismatch", fmt.Errorf(
			"piece names course %s but lesson belongs to %s",
			piece.CourseID, lesson.CourseID,
		))
	}
	piece.CourseID = lesson.CourseID

	if piece.ID == uuid.Nil {
		piece.ID = uuid.New()
	}
	if piece.Status == "" {
		piece.Status = types.StatusEnabled
	}
	if piece.Attribute == "" {
		piece.Attribute = types.PieceMusic
	}

	created, err := cs.curriculumRepo.CreatePiece(ctx, nil, piece)
	if err != nil {
		return nil, fmt.Errorf("create piece: %w", err)
	}
	return created, nil
}

func (cs *curriculumService) ListPieces(ctx context.Context, lessonID uuid.UUID) ([]*types.Piece, error) {
	return cs.curriculumRepo.ListPieces(ctx, nil, lessonID)
}

func (cs *curriculumService) UpdatePiece(ctx context.Context, pieceID uuid.UUID, fields map[string]any) error {
	if rawLessonID, ok := fields["lesson_id"]; ok {
		lessonID, lErr := uuidField(rawLessonID)
		if lErr != nil {
			return apierr.Invalid("invalid_lesson_id", lErr)
		}
		lesson, err := cs.curriculumRepo.GetLesson(ctx, nil, lessonID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.NotFound("lesson_not_found", err)
			}
			return err
		}
		fields["course_id"] = lesson.CourseID
	} else {
		delete(fields, "course_id")
	}
	return cs.curriculumRepo.UpdatePieceFields(ctx, nil, pieceID, fields)
}

func (cs *curriculumService) DeletePiece(ctx context.Context, pieceID uuid.UUID) error {
	return cs.curriculumRepo.DeletePiece(ctx, nil, pieceID)
}

func (cs *curriculumService) CreateVersion(ctx context.Context, version *types.CourseVersion) (*types.CourseVersion, error) {
	if version.VersionLabel == "" {
		return nil, apierr.Invalid("empty_version_label", errors.New("version label is required"))
	}
	if _, err := cs.curriculumRepo.GetCourse(ctx, nil, version.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("course_not_found", err)
		}
		return nil, err
	}
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	if version.Status == "" {
		version.Status = types.StatusEnabled
	}
	created, err := cs.curriculumRepo.CreateVersion(ctx, nil, version)
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			return nil, apierr.Conflict("version_label_taken", err)
		}
		return nil, fmt.Errorf("create version: %w", err)
	}
	return created, nil
}

func (cs *curriculumService) ListVersions(ctx context.Context, courseID uuid.UUID) ([]*types.CourseVersion, error) {
	return cs.curriculumRepo.ListVersions(ctx, nil, courseID)
}

func (cs *curriculumService) GetVersion(ctx context.Context, versionID uuid.UUID) (*types.CourseVersion, error) {
	version, err := cs.curriculumRepo.GetVersion(ctx, nil, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("version_not_found", err)
		}
		return nil, err
	}
	return version, nil
}

// ReleaseVersion freezes the course's live curriculum into the version: it
// stamps released_at, writes the JSON snapshot (lessons by sort_order, pieces
// by name), and persists the per-lesson and per-piece version rows, all in
// one transaction. A version releases at most once.
func (cs *curriculumService) ReleaseVersion(ctx context.Context, versionID uuid.UUID) (*types.CourseVersion, error) {
	var released *types.CourseVersion

	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, vErr := cs.curriculumRepo.GetVersionLocked(ctx, tx, versionID)
		if vErr != nil {
			if errors.Is(vErr, gorm.ErrRecordNotFound) {
				return apierr.NotFound("version_not_found", vErr)
			}
			return vErr
		}
		if version.IsReleased() {
			return apierr.Conflict("already_released", fmt.Errorf(
				"version %s released at %s", version.ID, version.ReleasedAt,
			))
		}

		course, cErr := cs.curriculumRepo.GetCourse(ctx, tx, version.CourseID)
		if cErr != nil {
			return fmt.Errorf("load course: %w", cErr)
		}
		lessons, lErr := cs.curriculumRepo.ListLessons(ctx, tx, version.CourseID)
		if lErr != nil {
			return fmt.Errorf("load lessons: %w", lErr)
		}

		releasedAt := time.Now().UTC()
		snapshot := courseSnapshot{
			CourseID:     course.ID,
			CourseName:   course.Name,
			VersionLabel: version.VersionLabel,
			ReleasedAt:   releasedAt,
			Lessons:      make([]snapshotLesson, 0, len(lessons)),
		}

		var lessonVersions []*types.LessonVersion
		var pieceVersions []*types.PieceVersion

		for _, lesson := range lessons {
			pieces, pErr := cs.curriculumRepo.ListPieces(ctx, tx, lesson.ID)
			if pErr != nil {
				return fmt.Errorf("load pieces for lesson %s: %w", lesson.ID, pErr)
			}
			sort.Slice(pieces, func(i, j int) bool { return pieces[i].Name < pieces[j].Name })

			lv := &types.LessonVersion{
				ID:              uuid.New(),
				LessonID:        lesson.ID,
				CourseVersionID: version.ID,
				SortOrder:       lesson.SortOrder,
				Description:     lesson.Description,
			}
			lessonVersions = append(lessonVersions, lv)

			snapLesson := snapshotLesson{
				LessonID:  lesson.ID,
				Name:      lesson.Name,
				SortOrder: lesson.SortOrder,
				Pieces:    make([]snapshotPiece, 0, len(pieces)),
			}
			for _, piece := range pieces {
				pieceVersions = append(pieceVersions, &types.PieceVersion{
					ID:              uuid.New(),
					PieceID:         piece.ID,
					LessonVersionID: lv.ID,
					Attribute:       piece.Attribute,
					IsRequired:      piece.IsRequired,
					Description:     piece.Description,
				})
				snapLesson.Pieces = append(snapLesson.Pieces, snapshotPiece{
					PieceID:    piece.ID,
					Name:       piece.Name,
					Attribute:  piece.Attribute,
					IsRequired: piece.IsRequired,
				})
			}
			snapshot.Lessons = append(snapshot.Lessons, snapLesson)
		}

		raw, mErr := json.Marshal(snapshot)
		if mErr != nil {
			return fmt.Errorf("marshal snapshot: %w", mErr)
		}

		if _, cvErr := cs.curriculumRepo.CreateLessonVersions(ctx, tx, lessonVersions); cvErr != nil {
			return fmt.Errorf("create lesson versions: %w", cvErr)
		}
		if _, pvErr := cs.curriculumRepo.CreatePieceVersions(ctx, tx, pieceVersions); pvErr != nil {
			return fmt.Errorf("create piece versions: %w", pvErr)
		}
		if uErr := cs.curriculumRepo.UpdateVersionFields(ctx, tx, version.ID, map[string]any{
			"released_at":      releasedAt,
			"content_snapshot": raw,
		}); uErr != nil {
			return fmt.Errorf("stamp release: %w", uErr)
		}

		version.ReleasedAt = &releasedAt
		version.ContentSnapshot = raw
		released = version
		return nil
	})
	if err != nil {
		return nil, err
	}

	cs.log.Info("Course version released", "version_id", released.ID, "course_id", released.CourseID)
	return released, nil
}
