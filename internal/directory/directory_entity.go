package directory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the read-only projection of the organization directory consumed
// by the workflow resolver. User management itself lives outside this
// service.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	FullName     string     `gorm:"type:varchar(255)"`
	Email        string     `gorm:"type:text;not null;uniqueIndex"`
	Role         string     `gorm:"type:varchar(50);not null;default:'EMPLOYEE';index"`
	PositionID   *uuid.UUID `gorm:"type:uuid;index"`
	DepartmentID *uuid.UUID `gorm:"type:uuid"`
	ManagerID    *uuid.UUID `gorm:"type:uuid"`
	HRID         *uuid.UUID `gorm:"type:uuid;column:hr_id"`
	TeamLeadID   *uuid.UUID `gorm:"type:uuid"`
	IsActive     bool       `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
