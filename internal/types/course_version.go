package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseVersion freezes one course's curriculum tree for historical lookup.
// Release stamps released_at and captures the JSON snapshot exactly once.
type CourseVersion struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course          *Course        `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
	VersionLabel    string         `gorm:"column:version_label;not null;index" json:"version_label"`
	Status          string         `gorm:"column:status;not null;default:'enabled';index" json:"status"`
	ReleasedAt      *time.Time     `gorm:"column:released_at;index" json:"released_at,omitempty"`
	ContentSnapshot datatypes.JSON `gorm:"column:content_snapshot;type:jsonb" json:"content_snapshot,omitempty"`
	CreatedByID     *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID     *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseVersion) TableName() string { return "course_version" }

func (cv *CourseVersion) IsReleased() bool { return cv.ReleasedAt != nil }

// LessonVersion records a lesson as it stood in one course version. Category
// and focus live here, not on the live lesson.
type LessonVersion struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LessonID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson          *Lesson        `gorm:"foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	CourseVersionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_version_id"`
	CourseVersion   *CourseVersion `gorm:"foreignKey:CourseVersionID;references:ID" json:"course_version,omitempty"`
	SortOrder       int            `gorm:"column:sort_order;not null;index" json:"sort_order"`
	Category        *string        `gorm:"column:category" json:"category,omitempty"`
	Focus           *string        `gorm:"column:focus" json:"focus,omitempty"`
	Description     *string        `gorm:"column:description" json:"description,omitempty"`
	CreatedByID     *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID     *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonVersion) TableName() string { return "lesson_version" }

type PieceVersion struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PieceID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"piece_id"`
	Piece           *Piece         `gorm:"foreignKey:PieceID;references:ID" json:"piece,omitempty"`
	LessonVersionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_version_id"`
	LessonVersion   *LessonVersion `gorm:"foreignKey:LessonVersionID;references:ID" json:"lesson_version,omitempty"`
	Attribute       string         `gorm:"column:attribute;not null" json:"attribute"`
	IsRequired      bool           `gorm:"column:is_required;not null;default:true" json:"is_required"`
	Description     *string        `gorm:"column:description" json:"description,omitempty"`
	CreatedByID     *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID     *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PieceVersion) TableName() string { return "piece_version" }
