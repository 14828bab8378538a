package holiday

import (
	"time"

	"github.com/google/uuid"
)

type Holiday struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index:idx_holidays_company_date"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Date      time.Time `gorm:"type:date;not null;index:idx_holidays_company_date"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
