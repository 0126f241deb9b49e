package student

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type StudentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, students []*types.Student) ([]*types.Student, error)
	GetByID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.Student, error)
	GetByPlatformID(ctx context.Context, tx *gorm.DB, platformID string) (*types.Student, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Student, int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, fields map[string]any) error
	ReplaceTags(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, tagIDs []uuid.UUID) error

	CreateTag(ctx context.Context, tx *gorm.DB, tag *types.StudentTag) (*types.StudentTag, error)
	ListTags(ctx context.Context, tx *gorm.DB) ([]*types.StudentTag, error)
	GetTagsByIDs(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) ([]*types.StudentTag, error)

	CreateCourseRecord(ctx context.Context, tx *gorm.DB, record *types.CourseRecord) (*types.CourseRecord, error)
	GetCourseRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.CourseRecord, error)
	ListCourseRecords(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.CourseRecord, error)
	UpdateCourseRecordFields(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, fields map[string]any) error
}

// ListFilter narrows student listing. Zero values mean no constraint.
type ListFilter struct {
	Status   string
	Nickname string
	TagID    uuid.UUID
	Offset   int
	Limit    int
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	repoLog := baseLog.With("repo", "StudentRepo")
	return &studentRepo{db: db, log: repoLog}
}

func (sr *studentRepo) Create(ctx context.Context, tx *gorm.DB, students []*types.Student) ([]*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(students) == 0 {
		return []*types.Student{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (sr *studentRepo) GetByID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var result types.Student
	if err := transaction.WithContext(ctx).
		Preload("Tags").
		Where("id = ?", studentID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (sr *studentRepo) GetByPlatformID(ctx context.Context, tx *gorm.DB, platformID string) (*types.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var result types.Student
	if err := transaction.WithContext(ctx).
		Preload("Tags").
		Where("platform_id = ?", platformID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (sr *studentRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Student, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	query := transaction.WithContext(ctx).Model(&types.Student{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Nickname != "" {
		query = query.Where("nickname ILIKE ? OR remark_name ILIKE ?", "%"+filter.Nickname+"%", "%"+filter.Nickname+"%")
	}
	if filter.TagID != uuid.Nil {
		query = query.Where(
			"id IN (?)",
			transaction.WithContext(ctx).
				Table("student_tag_link").
				Select("student_id").
				Where("student_tag_id = ?", filter.TagID),
		)
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

	var results []*types.Student
	if err := query.Preload("Tags").Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (sr *studentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(fields) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.Student{}).
		Where("id = ?", studentID).
		Updates(fields).Error
}

func (sr *studentRepo) ReplaceTags(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, tagIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	tags := make([]*types.StudentTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		tags = append(tags, &types.StudentTag{ID: id})
	}

	return transaction.WithContext(ctx).
		Model(&types.Student{ID: studentID}).
		Association("Tags").
		Replace(tags)
}

func (sr *studentRepo) CreateTag(ctx context.Context, tx *gorm.DB, tag *types.StudentTag) (*types.StudentTag, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if err := transaction.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

func (sr *studentRepo) ListTags(ctx context.Context, tx *gorm.DB) ([]*types.StudentTag, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.StudentTag
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *studentRepo) GetTagsByIDs(ctx context.Context, tx *gorm.DB, tagIDs []uuid.UUID) ([]*types.StudentTag, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.StudentTag
	if len(tagIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", tagIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *studentRepo) CreateCourseRecord(ctx context.Context, tx *gorm.DB, record *types.CourseRecord) (*types.CourseRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (sr *studentRepo) GetCourseRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.CourseRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var result types.CourseRecord
	if err := transaction.WithContext(ctx).
		Where("id = ?", recordID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (sr *studentRepo) ListCourseRecords(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.CourseRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.CourseRecord
	if err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("start_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *studentRepo) UpdateCourseRecordFields(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(fields) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.CourseRecord{}).
		Where("id = ?", recordID).
		Updates(fields).Error
}
