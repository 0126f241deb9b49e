package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentPieceStatus aggregates how often one student has been reviewed on one
// piece. (student_id, piece_id) is unique among live rows (partial index, see
// db.AutoMigrateAll). last_feedback is a weak reference: deleting the feedback
// nulls it without rolling back review_count or last_reviewed_at.
type StudentPieceStatus struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"student_id"`
	Student        *Student        `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	PieceID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"piece_id"`
	Piece          *Piece          `gorm:"foreignKey:PieceID;references:ID" json:"piece,omitempty"`
	LastFeedbackID *uuid.UUID      `gorm:"type:uuid" json:"last_feedback_id,omitempty"`
	LastFeedback   *FeedbackRecord `gorm:"constraint:OnDelete:SET NULL;foreignKey:LastFeedbackID;references:ID" json:"last_feedback,omitempty"`
	ReviewCount    int             `gorm:"column:review_count;not null;default:0;index" json:"review_count"`
	LastReviewedAt *time.Time      `gorm:"column:last_reviewed_at;index" json:"last_reviewed_at,omitempty"`
	CreatedByID    *uuid.UUID      `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID    *uuid.UUID      `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudentPieceStatus) TableName() string { return "student_piece_status" }
