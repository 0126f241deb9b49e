package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// End-to-end reminder types: sender role letter, "2", receiver role letter.
// All nine pairings over {T, R, O} are representable; same-role reminders
// (T2T, R2R, O2O) are first-class rather than collapsing to a default.
const (
	E2ET2T = "T2T"
	E2ET2R = "T2R"
	E2ET2O = "T2O"
	E2ER2T = "R2T"
	E2ER2R = "R2R"
	E2ER2O = "R2O"
	E2EO2T = "O2T"
	E2EO2R = "O2R"
	E2EO2O = "O2O"
)

// Reminder urgency.
const (
	UrgencyUrgent = "urgent"
	UrgencyNormal = "normal"
)

// Reminder categories.
const (
	ReminderCategoryTeachingQuality = "teaching_quality"
	ReminderCategoryStudentAttitude = "student_attitude"
	ReminderCategoryInjury          = "injury"
	ReminderCategoryOther           = "other"
)

// PickRoleLetter collapses a person's role set to a single letter with fixed
// priority teacher > researcher > operator. A person with no recognized role
// defaults to operator. Total over any input.
func PickRoleLetter(roles []string) string {
	letter := "O"
	hasResearcher := false
	for _, r := range roles {
		switch r {
		case RoleTeacher:
			return "T"
		case RoleResearcher:
			hasResearcher = true
		}
	}
	if hasResearcher {
		letter = "R"
	}
	return letter
}

// E2ELabel builds the end-to-end type from two role letters.
func E2ELabel(senderLetter, receiverLetter string) string {
	return senderLetter + "2" + receiverLetter
}

// Reminder routes a message from a sender to one or more recipients. The
// convenience receiver is a single-recipient shortcut; the recipient rows are
// authoritative.
type Reminder struct {
	ID          uuid.UUID            `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SenderID    uuid.UUID            `gorm:"type:uuid;not null;index" json:"sender_id"`
	Sender      *Person              `gorm:"foreignKey:SenderID;references:ID" json:"sender,omitempty"`
	ReceiverID  *uuid.UUID           `gorm:"type:uuid;index" json:"receiver_id,omitempty"`
	Receiver    *Person              `gorm:"foreignKey:ReceiverID;references:ID" json:"receiver,omitempty"`
	E2EType     string               `gorm:"column:e2e_type;not null;index" json:"e2e_type"`
	Urgency     string               `gorm:"column:urgency;not null;default:'normal';index" json:"urgency"`
	Category    string               `gorm:"column:category;not null;default:'other';index" json:"category"`
	StudentID   *uuid.UUID           `gorm:"type:uuid;index" json:"student_id,omitempty"`
	Student     *Student             `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	FeedbackID  *uuid.UUID           `gorm:"type:uuid" json:"feedback_id,omitempty"`
	Feedback    *FeedbackRecord      `gorm:"constraint:OnDelete:SET NULL;foreignKey:FeedbackID;references:ID" json:"feedback,omitempty"`
	StartAt     time.Time            `gorm:"column:start_at;not null;index" json:"start_at"`
	EndAt       *time.Time           `gorm:"column:end_at;index" json:"end_at,omitempty"`
	Content     string               `gorm:"column:content;not null" json:"content"`
	Recipients  []*ReminderRecipient `gorm:"foreignKey:ReminderID;references:ID" json:"recipients,omitempty"`
	CreatedByID *uuid.UUID           `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID *uuid.UUID           `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt   time.Time            `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time            `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt       `gorm:"index" json:"deleted_at,omitempty"`
}

func (Reminder) TableName() string { return "reminder" }

// IsActive reports whether the reminder's validity window covers at. An
// absent bound is unbounded in that direction.
func (r *Reminder) IsActive(at time.Time) bool {
	if !r.StartAt.IsZero() && at.Before(r.StartAt) {
		return false
	}
	if r.EndAt != nil && at.After(*r.EndAt) {
		return false
	}
	return true
}

// ReminderRecipient is one person's read-state row for one reminder.
// (reminder_id, person_id) is unique among live rows. is_read flips to true
// at most once; read_at is written on the same update.
type ReminderRecipient struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ReminderID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"reminder_id"`
	Reminder    *Reminder      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ReminderID;references:ID" json:"reminder,omitempty"`
	PersonID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_recipient_person_read" json:"person_id"`
	Person      *Person        `gorm:"foreignKey:PersonID;references:ID" json:"person,omitempty"`
	IsRead      bool           `gorm:"column:is_read;not null;default:false;index:idx_recipient_person_read" json:"is_read"`
	ReadAt      *time.Time     `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedByID *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReminderRecipient) TableName() string { return "reminder_recipient" }
