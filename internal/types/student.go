package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course learn statuses on a student's course record.
const (
	LearnNotStarted  = "not_started"
	LearnLearning    = "learning"
	LearnFinished    = "finished"
	LearnPaused      = "paused"
	LearnTransferred = "transferred"
)

// Record statuses. A student may hold several active records in parallel.
const (
	RecordActive = "active"
	RecordClosed = "closed"
)

// Student is an independent entity sourced from the lesson platform. Students
// are never hard-deleted; they are disabled instead.
type Student struct {
	ID                       uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlatformID               string        `gorm:"column:platform_id;not null;uniqueIndex" json:"platform_id"`
	Nickname                 string        `gorm:"column:nickname;not null;index" json:"nickname"`
	RemarkName               *string       `gorm:"column:remark_name" json:"remark_name,omitempty"`
	Status                   string        `gorm:"column:status;not null;default:'enabled';index" json:"status"`
	TeacherImpressionCurrent *string       `gorm:"column:teacher_impression_current" json:"teacher_impression_current,omitempty"`
	OpNote                   *string       `gorm:"column:op_note" json:"op_note,omitempty"`
	Tags                     []*StudentTag `gorm:"many2many:student_tag_link;" json:"tags,omitempty"`
	CreatedByID              *uuid.UUID    `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID              *uuid.UUID    `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt                time.Time     `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt                time.Time     `gorm:"not null;default:now()" json:"updated_at"`
}

func (Student) TableName() string { return "student" }

type StudentTag struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (StudentTag) TableName() string { return "student_tag" }

// CourseRecord tracks one student's enrolment in one released course version.
type CourseRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	Student         *Student       `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	CourseID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course          *Course        `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
	CourseVersionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_version_id"`
	CourseVersion   *CourseVersion `gorm:"foreignKey:CourseVersionID;references:ID" json:"course_version,omitempty"`
	CourseStatus    string         `gorm:"column:course_status;not null;default:'not_started'" json:"course_status"`
	RecordStatus    string         `gorm:"column:record_status;not null;default:'active';index" json:"record_status"`
	StartAt         time.Time      `gorm:"column:start_at;not null" json:"start_at"`
	EndAt           *time.Time     `gorm:"column:end_at" json:"end_at,omitempty"`
	CreatedByID     *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID     *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseRecord) TableName() string { return "course_record" }
