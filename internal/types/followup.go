package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Follow-up record status.
const (
	FollowUpPending = "pending"
	FollowUpDone    = "done"
)

// Follow-up purposes.
const (
	FollowUpPurposeRenewal    = "renewal"
	FollowUpPurposeRecovery   = "recovery"
	FollowUpPurposeCare       = "care"
	FollowUpPurposeComplaint  = "complaint"
	FollowUpPurposeOther      = "other"
)

// FollowUpRecord is one entry in a student's follow-up timeline. SeqNo is
// per-student and monotonic among live rows; it is assigned under a row lock
// at create time, never supplied by callers.
type FollowUpRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	Student     *Student       `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	SeqNo       int            `gorm:"column:seq_no;not null" json:"seq_no"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       *Person        `gorm:"foreignKey:OwnerID;references:ID" json:"owner,omitempty"`
	Purpose     string         `gorm:"column:purpose;not null;default:'other'" json:"purpose"`
	Urgency     string         `gorm:"column:urgency;not null;default:'normal'" json:"urgency"`
	Status      string         `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Content     string         `gorm:"column:content;not null" json:"content"`
	Result      *string        `gorm:"column:result" json:"result,omitempty"`
	DueAt       *time.Time     `gorm:"column:due_at;index" json:"due_at,omitempty"`
	DoneAt      *time.Time     `gorm:"column:done_at" json:"done_at,omitempty"`
	CreatedByID *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FollowUpRecord) TableName() string { return "follow_up_record" }
