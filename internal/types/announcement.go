package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Announcement is a broadcast visible to everyone while its publish window
// covers now. There is no per-person read state.
type Announcement struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Content     string         `gorm:"column:content;not null" json:"content"`
	PublishAt   time.Time      `gorm:"column:publish_at;not null;index" json:"publish_at"`
	ExpireAt    *time.Time     `gorm:"column:expire_at;index" json:"expire_at,omitempty"`
	Pinned      bool           `gorm:"column:pinned;not null;default:false" json:"pinned"`
	CreatedByID *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Announcement) TableName() string { return "announcement" }

// IsActive reports whether the announcement is visible at the given time.
func (a *Announcement) IsActive(at time.Time) bool {
	if at.Before(a.PublishAt) {
		return false
	}
	if a.ExpireAt != nil && at.After(*a.ExpireAt) {
		return false
	}
	return true
}
