package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/person"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/reminder"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

// CreateReminderInput carries a new reminder and its target persons. Receiver
// is the single-recipient convenience field; RecipientIDs is the explicit
// list. The resolved set is the union of both.
type CreateReminderInput struct {
	SenderID     uuid.UUID
	ReceiverID   *uuid.UUID
	RecipientIDs []uuid.UUID
	Urgency      string
	Category     string
	StudentID    *uuid.UUID
	FeedbackID   *uuid.UUID
	StartAt      time.Time
	EndAt        *time.Time
	Content      string
}

type ReminderService interface {
	CreateReminder(ctx context.Context, input CreateReminderInput) (*types.Reminder, error)
	GetReminder(ctx context.Context, reminderID uuid.UUID) (*types.Reminder, error)
	ListReminders(ctx context.Context, filter reminder.ListFilter) ([]*types.Reminder, int64, error)
	DeleteReminder(ctx context.Context, reminderID uuid.UUID) error

	SetRecipients(ctx context.Context, reminderID uuid.UUID, personIDs []uuid.UUID, clearExisting bool) error
	ComputeE2EType(ctx context.Context, tx *gorm.DB, rem *types.Reminder) (string, error)

	MarkRead(ctx context.Context, reminderID, personID uuid.UUID) error
	MarkAllRead(ctx context.Context, reminderID uuid.UUID) (int64, error)
	BulkMarkRead(ctx context.Context, personID uuid.UUID, reminderIDs []uuid.UUID) (int64, error)
	MarkInboxRead(ctx context.Context, personID uuid.UUID) (int64, error)
	Inbox(ctx context.Context, personID uuid.UUID, unreadOnly bool, offset, limit int) ([]*types.ReminderRecipient, int64, error)
	UnreadCount(ctx context.Context, personID uuid.UUID) (int64, error)
}

type reminderService struct {
	db           *gorm.DB
	log          *logger.Logger
	reminderRepo reminder.ReminderRepo
	personRepo   person.PersonRepo
}

func NewReminderService(
	db *gorm.DB,
	log *logger.Logger,
	reminderRepo reminder.ReminderRepo,
	personRepo person.PersonRepo,
) ReminderService {
	serviceLog := log.With("service", "ReminderService")
	return &reminderService{
		db:           db,
		log:          serviceLog,
		reminderRepo: reminderRepo,
		personRepo:   personRepo,
	}
}

// CreateReminder validates, resolves the recipient set, then creates the
// reminder and fans out unread recipient rows in one transaction. The e2e
// type is computed from the sender's roles and the representative receiver.
func (rs *reminderService) CreateReminder(ctx context.Context, input CreateReminderInput) (*types.Reminder, error) {
	if input.Content == "" {
		return nil, apierr.Invalid("empty_content", errors.New("reminder content is required"))
	}
	if input.EndAt != nil && input.StartAt.After(*input.EndAt) {
		return nil, apierr.Invalid("invalid_window", errors.New("start_at must not be after end_at"))
	}

	// Union the convenience receiver into the explicit list, receiver first
	// so it stays the representative when no explicit list is given.
	resolved := make([]uuid.UUID, 0, len(input.RecipientIDs)+1)
	if input.ReceiverID != nil && *input.ReceiverID != uuid.Nil {
		resolved = append(resolved, *input.ReceiverID)
	}
	resolved = append(resolved, input.RecipientIDs...)
	resolved = dedupUUIDs(resolved)
	if len(resolved) == 0 {
		return nil, apierr.Invalid("no_recipients", errors.New("reminder needs at least one recipient"))
	}

	if input.Urgency == "" {
		input.Urgency = types.UrgencyNormal
	}
	if input.Category == "" {
		input.Category = types.ReminderCategoryOther
	}
	if input.StartAt.IsZero() {
		input.StartAt = time.Now().UTC()
	}

	rem := &types.Reminder{
		ID:         uuid.New(),
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Urgency:    input.Urgency,
		Category:   input.Category,
		StudentID:  input.StudentID,
		FeedbackID: input.FeedbackID,
		StartAt:    input.StartAt,
		EndAt:      input.EndAt,
		Content:    input.Content,
	}

	if err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]*types.ReminderRecipient, 0, len(resolved))
		for _, personID := range resolved {
			rows = append(rows, &types.ReminderRecipient{
				ID:         uuid.New(),
				ReminderID: rem.ID,
				PersonID:   personID,
			})
		}

		e2e, eErr := rs.computeE2EFromIDs(ctx, tx, rem.SenderID, rem.ReceiverID, resolved)
		if eErr != nil {
			return eErr
		}
		rem.E2EType = e2e

		if _, cErr := rs.reminderRepo.Create(ctx, tx, rem); cErr != nil {
			return fmt.Errorf("create reminder: %w", cErr)
		}
		if _, rErr := rs.reminderRepo.CreateRecipients(ctx, tx, rows); rErr != nil {
			return fmt.Errorf("fan out recipients: %w", rErr)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	rs.log.Info("Reminder created", "reminder_id", rem.ID, "e2e_type", rem.E2EType, "recipients", len(resolved))
	return rem, nil
}

func (rs *reminderService) GetReminder(ctx context.Context, reminderID uuid.UUID) (*types.Reminder, error) {
	rem, err := rs.reminderRepo.GetByID(ctx, nil, reminderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("reminder_not_found", err)
		}
		return nil, err
	}
	return rem, nil
}

func (rs *reminderService) ListReminders(ctx context.Context, filter reminder.ListFilter) ([]*types.Reminder, int64, error) {
	return rs.reminderRepo.List(ctx, nil, filter)
}

func (rs *reminderService) DeleteReminder(ctx context.Context, reminderID uuid.UUID) error {
	return rs.reminderRepo.Delete(ctx, nil, reminderID)
}

// SetRecipients replaces the reminder's recipient set. Existing rows are hard
// deleted when clearing (their read state is gone for good), the new list is
// deduplicated preserving first occurrence, fresh rows start unread, and the
// e2e type is recomputed last. The whole replacement is atomic.
func (rs *reminderService) SetRecipients(ctx context.Context, reminderID uuid.UUID, personIDs []uuid.UUID, clearExisting bool) error {
	rem, err := rs.reminderRepo.GetByID(ctx, nil, reminderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("reminder_not_found", err)
		}
		return err
	}

	deduped := dedupUUIDs(personIDs)

	return rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := map[uuid.UUID]bool{}
		if clearExisting {
			if dErr := rs.reminderRepo.HardDeleteRecipients(ctx, tx, reminderID); dErr != nil {
				return fmt.Errorf("clear recipients: %w", dErr)
			}
		} else {
			current, lErr := rs.reminderRepo.ListRecipients(ctx, tx, reminderID)
			if lErr != nil {
				return fmt.Errorf("list recipients: %w", lErr)
			}
			for _, row := range current {
				existing[row.PersonID] = true
			}
		}

		rows := make([]*types.ReminderRecipient, 0, len(deduped))
		for _, personID := range deduped {
			if existing[personID] {
				continue
			}
			rows = append(rows, &types.ReminderRecipient{
				ID:         uuid.New(),
				ReminderID: reminderID,
				PersonID:   personID,
			})
		}
		if _, cErr := rs.reminderRepo.CreateRecipients(ctx, tx, rows); cErr != nil {
			return fmt.Errorf("create recipients: %w", cErr)
		}

		e2e, eErr := rs.ComputeE2EType(ctx, tx, rem)
		if eErr != nil {
			return eErr
		}
		if e2e != rem.E2EType {
			if uErr := rs.reminderRepo.UpdateFields(ctx, tx, reminderID, map[string]any{"e2e_type": e2e}); uErr != nil {
				return fmt.Errorf("update e2e type: %w", uErr)
			}
		}
		return nil
	})
}

// ComputeE2EType derives the routing label from the sender's roles and the
// representative receiver: the convenience receiver when set, else the first
// recipient by insertion order, else letter O.
func (rs *reminderService) ComputeE2EType(ctx context.Context, tx *gorm.DB, rem *types.Reminder) (string, error) {
	senderRoles, err := rs.personRepo.RolesOf(ctx, tx, rem.SenderID)
	if err != nil {
		return "", fmt.Errorf("load sender roles: %w", err)
	}
	senderLetter := types.PickRoleLetter(senderRoles)

	receiverLetter := "O"
	switch {
	case rem.ReceiverID != nil && *rem.ReceiverID != uuid.Nil:
		roles, rErr := rs.personRepo.RolesOf(ctx, tx, *rem.ReceiverID)
		if rErr != nil {
			return "", fmt.Errorf("load receiver roles: %w", rErr)
		}
		receiverLetter = types.PickRoleLetter(roles)
	default:
		first, fErr := rs.reminderRepo.FirstRecipient(ctx, tx, rem.ID)
		if fErr != nil {
			return "", fmt.Errorf("load first recipient: %w", fErr)
		}
		if first != nil {
			roles, rErr := rs.personRepo.RolesOf(ctx, tx, first.PersonID)
			if rErr != nil {
				return "", fmt.Errorf("load recipient roles: %w", rErr)
			}
			receiverLetter = types.PickRoleLetter(roles)
		}
	}

	return types.E2ELabel(senderLetter, receiverLetter), nil
}

func (rs *reminderService) MarkRead(ctx context.Context, reminderID, personID uuid.UUID) error {
	if _, err := rs.reminderRepo.GetRecipient(ctx, nil, reminderID, personID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("recipient_not_found", err)
		}
		return err
	}
	_, err := rs.reminderRepo.MarkRecipientRead(ctx, nil, reminderID, personID, time.Now().UTC())
	return err
}

func (rs *reminderService) MarkAllRead(ctx context.Context, reminderID uuid.UUID) (int64, error) {
	return rs.reminderRepo.MarkAllReadForReminder(ctx, nil, reminderID, time.Now().UTC())
}

func (rs *reminderService) BulkMarkRead(ctx context.Context, personID uuid.UUID, reminderIDs []uuid.UUID) (int64, error) {
	return rs.reminderRepo.MarkSelectedRead(ctx, nil, personID, dedupUUIDs(reminderIDs), time.Now().UTC())
}

// MarkInboxRead flips every unread recipient row the person has, across all
// reminders. Rows already read keep their original read_at.
func (rs *reminderService) MarkInboxRead(ctx context.Context, personID uuid.UUID) (int64, error) {
	return rs.reminderRepo.MarkAllReadForPerson(ctx, nil, personID, time.Now().UTC())
}

func (rs *reminderService) Inbox(ctx context.Context, personID uuid.UUID, unreadOnly bool, offset, limit int) ([]*types.ReminderRecipient, int64, error) {
	return rs.reminderRepo.ListInbox(ctx, nil, personID, unreadOnly, offset, limit)
}

func (rs *reminderService) UnreadCount(ctx context.Context, personID uuid.UUID) (int64, error) {
	return rs.reminderRepo.CountUnread(ctx, nil, personID)
}

// computeE2EFromIDs is the create-time variant: the recipient rows are not in
// storage yet, so the representative falls back to the first resolved id.
func (rs *reminderService) computeE2EFromIDs(ctx context.Context, tx *gorm.DB, senderID uuid.UUID, receiverID *uuid.UUID, resolved []uuid.UUID) (string, error) {
	senderRoles, err := rs.personRepo.RolesOf(ctx, tx, senderID)
	if err != nil {
		return "", fmt.Errorf("load sender roles: %w", err)
	}
	senderLetter := types.PickRoleLetter(senderRoles)

	var representative uuid.UUID
	if receiverID != nil && *receiverID != uuid.Nil {
		representative = *receiverID
	} else if len(resolved) > 0 {
		representative = resolved[0]
	}

	receiverLetter := "O"
	if representative != uuid.Nil {
		roles, rErr := rs.personRepo.RolesOf(ctx, tx, representative)
		if rErr != nil {
			return "", fmt.Errorf("load receiver roles: %w", rErr)
		}
		receiverLetter = types.PickRoleLetter(roles)
	}

	return types.E2ELabel(senderLetter, receiverLetter), nil
}
