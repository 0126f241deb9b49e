package person

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type PersonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, persons []*types.Person) ([]*types.Person, error)
	GetByID(ctx context.Context, tx *gorm.DB, personID uuid.UUID) (*types.Person, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, personIDs []uuid.UUID) ([]*types.Person, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Person, int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, personID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, personID uuid.UUID) error

	RolesOf(ctx context.Context, tx *gorm.DB, personID uuid.UUID) ([]string, error)
	RolesOfMany(ctx context.Context, tx *gorm.DB, personIDs []uuid.UUID) (map[uuid.UUID][]string, error)
	SetRoles(ctx context.Context, tx *gorm.DB, personID uuid.UUID, roles []string) error
	IDsWithRole(ctx context.Context, tx *gorm.DB, role string) ([]uuid.UUID, error)
}

// ListFilter narrows person listing. Zero values mean no constraint.
type ListFilter struct {
	Role   string
	Status string
	Name   string
	Offset int
	Limit  int
}

type personRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonRepo(db *gorm.DB, baseLog *logger.Logger) PersonRepo {
	repoLog := baseLog.With("repo", "PersonRepo")
	return &personRepo{db: db, log: repoLog}
}

func (pr *personRepo) Create(ctx context.Context, tx *gorm.DB, persons []*types.Person) ([]*types.Person, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(persons) == 0 {
		return []*types.Person{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&persons).Error; err != nil {
		return nil, err
	}

	return persons, nil
}

func (pr *personRepo) GetByID(ctx context.Context, tx *gorm.DB, personID uuid.UUID) (*types.Person, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Person
	if err := transaction.WithContext(ctx).
		Preload("Roles").
		Where("id = ?", personID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *personRepo) GetByIDs(ctx context.Context, tx *gorm.DB, personIDs []uuid.UUID) ([]*types.Person, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Person
	if len(personIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Roles").
		Where("id IN ?", personIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *personRepo) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]*types.Person, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	query := transaction.WithContext(ctx).Model(&types.Person{})
	if filter.Role != "" {
		query = query.Where(
			"id IN (?)",
			transaction.WithContext(ctx).
				Model(&types.PersonRole{}).
				Select("person_id").
				Where("role = ?", filter.Role),
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Name != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Name+"%")
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

	var results []*types.Person
	if err := query.Preload("Roles").Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (pr *personRepo) UpdateFields(ctx context.Context, tx *gorm.DB, personID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(fields) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.Person{}).
		Where("id = ?", personID).
		Updates(fields).Error
}

func (pr *personRepo) Delete(ctx context.Context, tx *gorm.DB, personID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", personID).
		Delete(&types.Person{}).Error
}

func (pr *personRepo) RolesOf(ctx context.Context, tx *gorm.DB, personID uuid.UUID) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var roles []string
	if err := transaction.WithContext(ctx).
		Model(&types.PersonRole{}).
		Where("person_id = ?", personID).
		Pluck("role", &roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (pr *personRepo) RolesOfMany(ctx context.Context, tx *gorm.DB, personIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	result := map[uuid.UUID][]string{}
	if len(personIDs) == 0 {
		return result, nil
	}

	var rows []*types.PersonRole
	if err := transaction.WithContext(ctx).
		Where("person_id IN ?", personIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.PersonID] = append(result[row.PersonID], row.Role)
	}
	return result, nil
}

// SetRoles replaces the person's role rows with exactly the given set.
func (pr *personRepo) SetRoles(ctx context.Context, tx *gorm.DB, personID uuid.UUID, roles []string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).
		Where("person_id = ?", personID).
		Delete(&types.PersonRole{}).Error; err != nil {
		return err
	}

	if len(roles) == 0 {
		return nil
	}

	seen := map[string]bool{}
	rows := make([]*types.PersonRole, 0, len(roles))
	for _, role := range roles {
		if seen[role] {
			continue
		}
		seen[role] = true
		rows = append(rows, &types.PersonRole{PersonID: personID, Role: role})
	}
	return transaction.WithContext(ctx).Create(&rows).Error
}

func (pr *personRepo) IDsWithRole(ctx context.Context, tx *gorm.DB, role string) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.PersonRole{}).
		Where("role = ?", role).
		Pluck("person_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
