package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Person roles. A person may hold any subset; the reminder routing logic
// collapses the set to a single letter with priority teacher > researcher >
// operator.
const (
	RoleTeacher    = "teacher"
	RoleResearcher = "researcher"
	RoleOperator   = "operator"
)

type Person struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Status    string         `gorm:"column:status;not null;default:'enabled';index" json:"status"`
	Email     *string        `gorm:"column:email" json:"email,omitempty"`
	Phone     *string        `gorm:"column:phone" json:"phone,omitempty"`
	Roles     []*PersonRole  `gorm:"foreignKey:PersonID;references:ID" json:"roles,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Person) TableName() string { return "person" }

type PersonRole struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_person_role;index" json:"person_id"`
	Person    *Person   `gorm:"constraint:OnDelete:CASCADE;foreignKey:PersonID;references:ID" json:"person,omitempty"`
	Role      string    `gorm:"column:role;not null;uniqueIndex:uq_person_role;index" json:"role"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (PersonRole) TableName() string { return "person_role" }
