package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Piece attributes.
const (
	PieceEtude     = "etude"
	PieceMusic     = "music"
	PieceTechnique = "technique"
)

// Lesson categories and focuses (recorded per course version).
const (
	LessonCategoryBasic     = "basic"
	LessonCategoryZeroBasic = "zero_basic"

	LessonFocusWrist      = "wrist"
	LessonFocusArm        = "arm"
	LessonFocusLiftFinger = "lift_finger"
)

// Course is the top of the curriculum hierarchy. Name is unique among live
// rows (partial index, see db.AutoMigrateAll).
type Course struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null;index" json:"name"`
	Status      string         `gorm:"column:status;not null;default:'enabled';index" json:"status"`
	Description *string        `gorm:"column:description" json:"description,omitempty"`
	CreatedByID *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

// Lesson belongs to a course; sort_order starts at 1 and is unique per course
// among live rows.
type Lesson struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course      *Course        `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Status      string         `gorm:"column:status;not null;default:'enabled';index" json:"status"`
	SortOrder   int            `gorm:"column:sort_order;not null;index" json:"sort_order"`
	Description *string        `gorm:"column:description" json:"description,omitempty"`
	CreatedByID *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

// Piece keeps a denormalized course reference that must always equal its
// lesson's course; the curriculum service enforces this on every write.
type Piece struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course      *Course        `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
	LessonID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson      *Lesson        `gorm:"foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Status      string         `gorm:"column:status;not null;default:'enabled';index" json:"status"`
	Attribute   string         `gorm:"column:attribute;not null;index" json:"attribute"`
	IsRequired  bool           `gorm:"column:is_required;not null;default:true;index" json:"is_required"`
	Description *string        `gorm:"column:description" json:"description,omitempty"`
	CreatedByID *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Piece) TableName() string { return "piece" }
