package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/announcement"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type AnnouncementService interface {
	Create(ctx context.Context, a *types.Announcement) (*types.Announcement, error)
	Get(ctx context.Context, announcementID uuid.UUID) (*types.Announcement, error)
	List(ctx context.Context, offset, limit int) ([]*types.Announcement, int64, error)
	ListActive(ctx context.Context) ([]*types.Announcement, error)
	Update(ctx context.Context, announcementID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, announcementID uuid.UUID) error
}

type announcementService struct {
	db               *gorm.DB
	log              *logger.Logger
	announcementRepo announcement.AnnouncementRepo
}

func NewAnnouncementService(
	db *gorm.DB,
	log *logger.Logger,
	announcementRepo announcement.AnnouncementRepo,
) AnnouncementService {
	serviceLog := log.With("service", "AnnouncementService")
	return &announcementService{
		db:               db,
		log:              serviceLog,
		announcementRepo: announcementRepo,
	}
}

func (as *announcementService) Create(ctx context.Context, a *types.Announcement) (*types.Announcement, error) {
	if a.Title == "" || a.Content == "" {
		return nil, apierr.Invalid("empty_announcement", errors.New("title and content are required"))
	}
	if a.PublishAt.IsZero() {
		a.PublishAt = time.Now().UTC()
	}
	if a.ExpireAt != nil && a.PublishAt.After(*a.ExpireAt) {
		return nil, apierr.Invalid("invalid_window", errors.New("publish_at must not be after expire_at"))
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	created, err := as.announcementRepo.Create(ctx, nil, a)
	if err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return created, nil
}

func (as *announcementService) Get(ctx context.Context, announcementID uuid.UUID) (*types.Announcement, error) {
	a, err := as.announcementRepo.GetByID(ctx, nil, announcementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("announcement_not_found", err)
		}
		return nil, err
	}
	return a, nil
}

func (as *announcementService) List(ctx context.Context, offset, limit int) ([]*types.Announcement, int64, error) {
	return as.announcementRepo.List(ctx, nil, offset, limit)
}

func (as *announcementService) ListActive(ctx context.Context) ([]*types.Announcement, error) {
	return as.announcementRepo.ListActive(ctx, nil, time.Now().UTC())
}

func (as *announcementService) Update(ctx context.Context, announcementID uuid.UUID, fields map[string]any) error {
	return as.announcementRepo.UpdateFields(ctx, nil, announcementID, fields)
}

func (as *announcementService) Delete(ctx context.Context, announcementID uuid.UUID) error {
	return as.announcementRepo.Delete(ctx, nil, announcementID)
}
