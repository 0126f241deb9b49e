package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/notification"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type NotificationService interface {
	Create(ctx context.Context, n *types.Notification) (*types.Notification, error)
	List(ctx context.Context, personID uuid.UUID, unreadOnly bool, offset, limit int) ([]*types.Notification, int64, error)
	MarkRead(ctx context.Context, notificationID, personID uuid.UUID) error
	MarkAllRead(ctx context.Context, personID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, personID uuid.UUID) (int64, error)
}

type notificationService struct {
	db               *gorm.DB
	log              *logger.Logger
	notificationRepo notification.NotificationRepo
}

func NewNotificationService(
	db *gorm.DB,
	log *logger.Logger,
	notificationRepo notification.NotificationRepo,
) NotificationService {
	serviceLog := log.With("service", "NotificationService")
	return &notificationService{
		db:               db,
		log:              serviceLog,
		notificationRepo: notificationRepo,
	}
}

func (ns *notificationService) Create(ctx context.Context, n *types.Notification) (*types.Notification, error) {
	if n.Content == "" {
		return nil, apierr.Invalid("empty_content", errors.New("notification content is required"))
	}
	// The link pair is all-or-nothing; storage enforces the same check.
	if (n.LinkType == nil) != (n.LinkID == nil) {
		return nil, apierr.Invalid("incoherent_link", errors.New("link_type and link_id must be set together"))
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Type == "" {
		n.Type = types.NotificationTypeSystem
	}
	created, err := ns.notificationRepo.Create(ctx, nil, []*types.Notification{n})
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return created[0], nil
}

func (ns *notificationService) List(ctx context.Context, personID uuid.UUID, unreadOnly bool, offset, limit int) ([]*types.Notification, int64, error) {
	return ns.notificationRepo.ListForPerson(ctx, nil, personID, unreadOnly, offset, limit)
}

func (ns *notificationService) MarkRead(ctx context.Context, notificationID, personID uuid.UUID) error {
	n, err := ns.notificationRepo.GetByID(ctx, nil, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("notification_not_found", err)
		}
		return err
	}
	if n.PersonID != personID {
		return apierr.New(403, "not_your_notification", errors.New("notification belongs to another person"))
	}
	_, err = ns.notificationRepo.MarkRead(ctx, nil, notificationID, personID, time.Now().UTC())
	return err
}

func (ns *notificationService) MarkAllRead(ctx context.Context, personID uuid.UUID) (int64, error) {
	return ns.notificationRepo.MarkAllRead(ctx, nil, personID, time.Now().UTC())
}

func (ns *notificationService) UnreadCount(ctx context.Context, personID uuid.UUID) (int64, error) {
	return ns.notificationRepo.CountUnread(ctx, nil, personID)
}
