package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appdb "github.com/lessonworks/pianoschool-backend/internal/data/db"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/curriculum"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/student"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type StudentService interface {
	Create(ctx context.Context, s *types.Student) (*types.Student, error)
	Get(ctx context.Context, studentID uuid.UUID) (*types.Student, error)
	List(ctx context.Context, filter student.ListFilter) ([]*types.Student, int64, error)
	Update(ctx context.Context, studentID uuid.UUID, fields map[string]any) error
	Disable(ctx context.Context, studentID uuid.UUID) error
	SetTags(ctx context.Context, studentID uuid.UUID, tagIDs []uuid.UUID) error

	CreateTag(ctx context.Context, tag *types.StudentTag) (*types.StudentTag, error)
	ListTags(ctx context.Context) ([]*types.StudentTag, error)

	Enroll(ctx context.Context, record *types.CourseRecord) (*types.CourseRecord, error)
	ListCourseRecords(ctx context.Context, studentID uuid.UUID) ([]*types.CourseRecord, error)
	UpdateCourseRecord(ctx context.Context, recordID uuid.UUID, fields map[string]any) error
	CloseCourseRecord(ctx context.Context, recordID uuid.UUID) error
}

type studentService struct {
	db             *gorm.DB
	log            *logger.Logger
	studentRepo    student.StudentRepo
	curriculumRepo curriculum.CurriculumRepo
}

func NewStudentService(
	db *gorm.DB,
	log *logger.Logger,
	studentRepo student.StudentRepo,
	curriculumRepo curriculum.CurriculumRepo,
) StudentService {
	serviceLog := log.With("service", "StudentService")
	return &studentService{
		db:             db,
		log:            serviceLog,
		studentRepo:    studentRepo,
		curriculumRepo: curriculumRepo,
	}
}

func (ss *studentService) Create(ctx context.Context, s *types.Student) (*types.Student, error) {
	if s.PlatformID == "" {
		return nil, apierr.Invalid("empty_platform_id", errors.New("platform id is required"))
	}
	if s.Nickname == "" {
		return nil, apierr.Invalid("empty_nickname", errors.New("nickname is required"))
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = types.StatusEnabled
	}
	created, err := ss.studentRepo.Create(ctx, nil, []*types.Student{s})
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			return nil, apierr.Conflict("platform_id_taken", err)
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	return created[0], nil
}

func (ss *studentService) Get(ctx context.Context, studentID uuid.UUID) (*types.Student, error) {
	s, err := ss.studentRepo.GetByID(ctx, nil, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("student_not_found", err)
		}
		return nil, err
	}
	return s, nil
}

func (ss *studentService) List(ctx context.Context, filter student.ListFilter) ([]*types.Student, int64, error) {
	return ss.studentRepo.List(ctx, nil, filter)
}

func (ss *studentService) Update(ctx context.Context, studentID uuid.UUID, fields map[string]any) error {
	// platform_id is the upstream identity; it never changes.
	delete(fields, "platform_id")
	return ss.studentRepo.UpdateFields(ctx, nil, studentID, fields)
}

// Disable takes the student out of circulation. Students are never deleted,
// so this is the terminal state change.
func (ss *studentService) Disable(ctx context.Context, studentID uuid.UUID) error {
	return ss.studentRepo.UpdateFields(ctx, nil, studentID, map[string]any{
		"status": types.StatusDisabled,
	})
}

func (ss *studentService) SetTags(ctx context.Context, studentID uuid.UUID, tagIDs []uuid.UUID) error {
	tagIDs = dedupUUIDs(tagIDs)
	tags, err := ss.studentRepo.GetTagsByIDs(ctx, nil, tagIDs)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	if len(tags) != len(tagIDs) {
		return apierr.Invalid("unknown_tag", errors.New("tag list references a tag that does not exist"))
	}
	return ss.studentRepo.ReplaceTags(ctx, nil, studentID, tagIDs)
}

func (ss *studentService) CreateTag(ctx context.Context, tag *types.StudentTag) (*types.StudentTag, error) {
	if tag.Name == "" {
		return nil, apierr.Invalid("empty_tag_name", errors.New("tag name is required"))
	}
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	created, err := ss.studentRepo.CreateTag(ctx, nil, tag)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return created, nil
}

func (ss *studentService) ListTags(ctx context.Context) ([]*types.StudentTag, error) {
	return ss.studentRepo.ListTags(ctx, nil)
}

// Enroll opens a course record against a released course version.
func (ss *studentService) Enroll(ctx context.Context, record *types.CourseRecord) (*types.CourseRecord, error) {
	if _, err := ss.studentRepo.GetByID(ctx, nil, record.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("student_not_found", err)
		}
		return nil, err
	}
	version, err := ss.curriculumRepo.GetVersion(ctx, nil, record.CourseVersionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("version_not_found", err)
		}
		return nil, err
	}
	if !version.IsReleased() {
		return nil, apierr.Invalid("version_not_released", errors.New("students enrol against released versions only"))
	}
	if record.CourseID != uuid.Nil && record.CourseID != version.CourseID {
		return nil, apierr.Invalid("course_mismatch", fmt.Errorf(
			"record names course %s but version belongs to %s",
			record.CourseID, version.CourseID,
		))
	}
	record.CourseID = version.CourseID

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CourseStatus == "" {
		record.CourseStatus = types.LearnNotStarted
	}
	if record.RecordStatus == "" {
		record.RecordStatus = types.RecordActive
	}
	if record.StartAt.IsZero() {
		record.StartAt = time.Now().UTC()
	}

	created, err := ss.studentRepo.CreateCourseRecord(ctx, nil, record)
	if err != nil {
		return nil, fmt.Errorf("create course record: %w", err)
	}
	return created, nil
}

func (ss *studentService) ListCourseRecords(ctx context.Context, studentID uuid.UUID) ([]*types.CourseRecord, error) {
	return ss.studentRepo.ListCourseRecords(ctx, nil, studentID)
}

func (ss *studentService) UpdateCourseRecord(ctx context.Context, recordID uuid.UUID, fields map[string]any) error {
	delete(fields, "student_id")
	delete(fields, "course_id")
	delete(fields, "course_version_id")
	return ss.studentRepo.UpdateCourseRecordFields(ctx, nil, recordID, fields)
}

func (ss *studentService) CloseCourseRecord(ctx context.Context, recordID uuid.UUID) error {
	record, err := ss.studentRepo.GetCourseRecord(ctx, nil, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("course_record_not_found", err)
		}
		return err
	}
	if record.RecordStatus == types.RecordClosed {
		return nil
	}
	return ss.studentRepo.UpdateCourseRecordFields(ctx, nil, recordID, map[string]any{
		"record_status": types.RecordClosed,
		"end_at":        time.Now().UTC(),
	})
}
