package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types.
const (
	NotificationTypeTaskAssigned     = "task_assigned"
	NotificationTypeFeedbackReceived = "feedback_received"
	NotificationTypeReminder         = "reminder"
	NotificationTypeFollowUpDue      = "follow_up_due"
	NotificationTypeSystem           = "system"
)

// Notification link target kinds. LinkType and LinkID are set together or
// not at all.
const (
	LinkTypeTask     = "task"
	LinkTypeFeedback = "feedback"
	LinkTypeReminder = "reminder"
	LinkTypeFollowUp = "follow_up"
	LinkTypeStudent  = "student"
)

// Notification is a per-person inbox entry, optionally linking to the domain
// object that produced it.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_notification_person_read" json:"person_id"`
	Person    *Person        `gorm:"foreignKey:PersonID;references:ID" json:"person,omitempty"`
	Type      string         `gorm:"column:type;not null;index" json:"type"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Content   string         `gorm:"column:content;not null" json:"content"`
	LinkType  *string        `gorm:"column:link_type" json:"link_type,omitempty"`
	LinkID    *uuid.UUID     `gorm:"column:link_id;type:uuid" json:"link_id,omitempty"`
	IsRead    bool           `gorm:"column:is_read;not null;default:false;index:idx_notification_person_read" json:"is_read"`
	ReadAt    *time.Time     `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Notification) TableName() string { return "notification" }
