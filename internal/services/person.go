package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/person"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type PersonService interface {
	Create(ctx context.Context, p *types.Person, roles []string) (*types.Person, error)
	Get(ctx context.Context, personID uuid.UUID) (*types.Person, error)
	List(ctx context.Context, filter person.ListFilter) ([]*types.Person, int64, error)
	Update(ctx context.Context, personID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, personID uuid.UUID) error

	RolesOf(ctx context.Context, personID uuid.UUID) ([]string, error)
	SetRoles(ctx context.Context, personID uuid.UUID, roles []string) error
}

type personService struct {
	db         *gorm.DB
	log        *logger.Logger
	personRepo person.PersonRepo
}

func NewPersonService(
	db *gorm.DB,
	log *logger.Logger,
	personRepo person.PersonRepo,
) PersonService {
	serviceLog := log.With("service", "PersonService")
	return &personService{
		db:         db,
		log:        serviceLog,
		personRepo: personRepo,
	}
}

func validRoles(roles []string) error {
	for _, role := range roles {
		switch role {
		case types.RoleTeacher, types.RoleResearcher, types.RoleOperator:
		default:
			return apierr.Invalid("unknown_role", fmt.Errorf("unknown role %q", role))
		}
	}
	return nil
}

func (ps *personService) Create(ctx context.Context, p *types.Person, roles []string) (*types.Person, error) {
	if p.Name == "" {
		return nil, apierr.Invalid("empty_name", errors.New("person name is required"))
	}
	if err := validRoles(roles); err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = types.StatusEnabled
	}

	if err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := ps.personRepo.Create(ctx, tx, []*types.Person{p}); cErr != nil {
			return cErr
		}
		return ps.personRepo.SetRoles(ctx, tx, p.ID, roles)
	}); err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return p, nil
}

func (ps *personService) Get(ctx context.Context, personID uuid.UUID) (*types.Person, error) {
	p, err := ps.personRepo.GetByID(ctx, nil, personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("person_not_found", err)
		}
		return nil, err
	}
	return p, nil
}

func (ps *personService) List(ctx context.Context, filter person.ListFilter) ([]*types.Person, int64, error) {
	return ps.personRepo.List(ctx, nil, filter)
}

func (ps *personService) Update(ctx context.Context, personID uuid.UUID, fields map[string]any) error {
	return ps.personRepo.UpdateFields(ctx, nil, personID, fields)
}

func (ps *personService) Delete(ctx context.Context, personID uuid.UUID) error {
	return ps.personRepo.Delete(ctx, nil, personID)
}

func (ps *personService) RolesOf(ctx context.Context, personID uuid.UUID) ([]string, error) {
	return ps.personRepo.RolesOf(ctx, nil, personID)
}

// SetRoles replaces the person's role set wholesale.
func (ps *personService) SetRoles(ctx context.Context, personID uuid.UUID, roles []string) error {
	if err := validRoles(roles); err != nil {
		return err
	}
	if _, err := ps.personRepo.GetByID(ctx, nil, personID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("person_not_found", err)
		}
		return err
	}
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ps.personRepo.SetRoles(ctx, tx, personID, roles)
	})
}
