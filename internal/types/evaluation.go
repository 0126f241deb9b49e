package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Evaluation task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
	TaskCancelled  = "cancelled"
)

// Task sources. Batch-created tasks share a batch_id.
const (
	TaskSourceManual = "manual"
	TaskSourceBatch  = "batch"
	TaskSourceSystem = "system"
)

type EvaluationTask struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BatchID     *uuid.UUID     `gorm:"type:uuid;index" json:"batch_id,omitempty"`
	StudentID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	Student     *Student       `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	AssigneeID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_task_assignee_status" json:"assignee_id"`
	Assignee    *Person        `gorm:"foreignKey:AssigneeID;references:ID" json:"assignee,omitempty"`
	Status      string         `gorm:"column:status;not null;default:'pending';index:idx_task_assignee_status" json:"status"`
	Source      string         `gorm:"column:source;not null;index" json:"source"`
	Note        *string        `gorm:"column:note" json:"note,omitempty"`
	CreatedByID *uuid.UUID     `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID *uuid.UUID     `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (EvaluationTask) TableName() string { return "evaluation_task" }

// FeedbackRecord is a teacher's write-up for one task (1:1).
type FeedbackRecord struct {
	ID                 uuid.UUID              `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TaskID             uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex" json:"task_id"`
	Task               *EvaluationTask        `gorm:"foreignKey:TaskID;references:ID" json:"task,omitempty"`
	StudentID          uuid.UUID              `gorm:"type:uuid;not null;index:idx_feedback_student_created" json:"student_id"`
	Student            *Student               `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	TeacherID          uuid.UUID              `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Teacher            *Person                `gorm:"foreignKey:TeacherID;references:ID" json:"teacher,omitempty"`
	TeacherContent     string                 `gorm:"column:teacher_content;not null" json:"teacher_content"`
	ResearcherFeedback *string                `gorm:"column:researcher_feedback" json:"researcher_feedback,omitempty"`
	ProduceImpression  bool                   `gorm:"column:produce_impression;not null;default:false" json:"produce_impression"`
	ImpressionText     *string                `gorm:"column:impression_text" json:"impression_text,omitempty"`
	Details            []*FeedbackPieceDetail `gorm:"foreignKey:FeedbackID;references:ID" json:"details,omitempty"`
	CreatedByID        *uuid.UUID             `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID        *uuid.UUID             `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt          time.Time              `gorm:"not null;default:now();index:idx_feedback_student_created" json:"created_at"`
	UpdatedAt          time.Time              `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt         `gorm:"index" json:"deleted_at,omitempty"`
}

func (FeedbackRecord) TableName() string { return "feedback_record" }

// FeedbackPieceDetail names one piece covered by a feedback record. The
// version pointers are provenance only; the piece reference is authoritative.
type FeedbackPieceDetail struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FeedbackID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"feedback_id"`
	Feedback        *FeedbackRecord `gorm:"constraint:OnDelete:CASCADE;foreignKey:FeedbackID;references:ID" json:"feedback,omitempty"`
	PieceID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"piece_id"`
	Piece           *Piece          `gorm:"foreignKey:PieceID;references:ID" json:"piece,omitempty"`
	CourseVersionID *uuid.UUID      `gorm:"type:uuid" json:"course_version_id,omitempty"`
	CourseVersion   *CourseVersion  `gorm:"foreignKey:CourseVersionID;references:ID" json:"course_version,omitempty"`
	LessonVersionID *uuid.UUID      `gorm:"type:uuid" json:"lesson_version_id,omitempty"`
	LessonVersion   *LessonVersion  `gorm:"foreignKey:LessonVersionID;references:ID" json:"lesson_version,omitempty"`
	CreatedByID     *uuid.UUID      `gorm:"type:uuid" json:"created_by_id,omitempty"`
	UpdatedByID     *uuid.UUID      `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (FeedbackPieceDetail) TableName() string { return "feedback_piece_detail" }
