package curriculum

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type CurriculumRepo interface {
	CreateCourse(ctx context.Context, tx *gorm.DB, course *types.Course) (*types.Course, error)
	GetCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error)
	ListCourses(ctx context.Context, tx *gorm.DB, status string) ([]*types.Course, error)
	UpdateCourseFields(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, fields map[string]any) error
	DeleteCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error

	CreateLesson(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error)
	GetLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Lesson, error)
	ListLessons(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Lesson, error)
	MaxLessonSortOrder(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int, error)
	UpdateLessonFields(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, fields map[string]any) error
	DeleteLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) error

	CreatePiece(ctx context.Context, tx *gorm.DB, piece *types.Piece) (*types.Piece, error)
	GetPiece(ctx context.Context, tx *gorm.DB, pieceID uuid.UUID) (*types.Piece, error)
	GetPiecesByIDs(ctx context.Context, tx *gorm.DB, pieceIDs []uuid.UUID) ([]*types.Piece, error)
	ListPieces(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.Piece, error)
	ListPiecesByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Piece, error)
	UpdatePieceFields(ctx context.Context, tx *gorm.DB, pieceID uuid.UUID, fields map[string]any) error
	DeletePiece(ctx context.Context, tx *gorm.DB, pieceID uuid.UUID) error

	CreateVersion(ctx context.Context, tx *gorm.DB, version *types.CourseVersion) (*types.CourseVersion, error)
	GetVersion(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.CourseVersion, error)
	GetVersionLocked(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.CourseVersion, error)
	ListVersions(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseVersion, error)
	UpdateVersionFields(ctx context.Context, tx *gorm.DB, versionID uuid.UUID, fields map[string]any) error
	CreateLessonVersions(ctx context.Context, tx *gorm.DB, rows []*types.LessonVersion) ([]*types.LessonVersion, error)
	CreatePieceVersions(ctx context.Context, tx *gorm.DB, rows []*types.PieceVersion) ([]*types.PieceVersion, error)
	ListLessonVersions(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.LessonVersion, error)
	ListPieceVersions(ctx context.Context, tx *gorm.DB, lessonVersionIDs []uuid.UUID) ([]*types.PieceVersion, error)
}

type curriculumRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurriculumRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumRepo {
	repoLog := baseLog.With("repo", "CurriculumRepo")
	return &curriculumRepo{db: db, log: repoLog}
}

func (cr *curriculumRepo) CreateCourse(ctx context.Context, tx *gorm.DB, course *types.Course) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(course).Error; err != nil {
		return nil, err
	}
	return course, nil
}

func (cr *curriculumRepo) GetCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.Course
	if err := transaction.WithContext(ctx).
		Where("id = ?", courseID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *curriculumRepo) ListCourses(ctx context.Context, tx *gorm.DB, status string) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	query := transaction.WithContext(ctx).Model(&types.Course{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var results []*types.Course
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *curriculumRepo) UpdateCourseFields(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Course{}).
		Where("id = ?", courseID).
		Updates(fields).Error
}

func (cr *curriculumRepo) DeleteCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", courseID).
		Delete(&types.Course{}).Error
}

func (cr *curriculumRepo) CreateLesson(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(lesson).Error; err != nil {
		return nil, err
	}
	return lesson, nil
}

func (cr *curriculumRepo) GetLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.Lesson
	if err := transaction.WithContext(ctx).
		Where("id = ?", lessonID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *curriculumRepo) ListLessons(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Lesson
	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *curriculumRepo) MaxLessonSortOrder(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var max int
	if err := transaction.WithContext(ctx).
		Model(&types.Lesson{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

func (cr *curriculumRepo) UpdateLessonFields(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Lesson{}).
		Where("id = ?", lessonID).
		Updates(fields).Error
}

func (cr *curriculumRepo) DeleteLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", lessonID).
		Delete(&types.Lesson{}).Error
}

func (cr *curriculumRepo) CreatePiece(ctx context.Context, tx *gorm.DB, piece *types.Piece) (*types.Piece, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(piece).Error; err != nil {
		return nil, err
	}
	return piece, nil
}

func (cr *curriculumRepo) GetPiece(ctx context.Context, tx *gorm.DB, pieceID uuid.UUID) (*types.Piece, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.Piece
	if err := transaction.WithContext(ctx).
		Where("id = ?", pieceID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *curriculumRepo) GetPiecesByIDs(ctx context.Context, tx *gorm.DB, pieceIDs []uuid.UUID) ([]*types.Piece, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Piece
	if len(pieceIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", pieceIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *curriculumRepo) ListPieces(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.Piece, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Piece
	if err := transaction.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *curriculumRepo) ListPiecesByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Piece, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Piece
	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *curriculumRepo) UpdatePieceFields(ctx context.Context, tx *gorm.DB, pieceID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Piece{}).
		Where("id = ?", pieceID).
		Updates(fields).Error
}

func (cr *curriculumRepo) DeletePiece(ctx context.Context, tx *gorm.DB, pieceID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", pieceID).
		Delete(&types.Piece{}).Error
}

func (cr *curriculumRepo) CreateVersion(ctx context.Context, tx *gorm.DB, version *types.CourseVersion) (*types.CourseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(version).Error; err != nil {
		return nil, err
	}
	return version, nil
}

func (cr *curriculumRepo) GetVersion(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.CourseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.CourseVersion
	if err := transaction.WithContext(ctx).
		Where("id = ?", versionID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *curriculumRepo) GetVersionLocked(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (*types.CourseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.CourseVersion
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", versionID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *curriculumRepo) ListVersions(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.CourseVersion
	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *curriculumRepo) UpdateVersionFields(ctx context.Context, tx *gorm.DB, versionID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.CourseVersion{}).
		Where("id = ?", versionID).
		Updates(fields).Error
}

func (cr *curriculumRepo) CreateLessonVersions(ctx context.Context, tx *gorm.DB, rows []*types.LessonVersion) ([]*types.LessonVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(rows) == 0 {
		return []*types.LessonVersion{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (cr *curriculumRepo) CreatePieceVersions(ctx context.Context, tx *gorm.DB, rows []*types.PieceVersion) ([]*types.PieceVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(rows) == 0 {
		return []*types.PieceVersion{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (cr *curriculumRepo) ListLessonVersions(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.LessonVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.LessonVersion
	if err := transaction.WithContext(ctx).
		Where("course_version_id = ?", versionID).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *curriculumRepo) ListPieceVersions(ctx context.Context, tx *gorm.DB, lessonVersionIDs []uuid.UUID) ([]*types.PieceVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.PieceVersion
	if len(lessonVersionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("lesson_version_id IN ?", lessonVersionIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
