package notification

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_recipient"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_recipient"`
	Kind        string    `gorm:"type:varchar(50);not null"`
	Subject     string    `gorm:"type:varchar(200);not null"`
	Body        string    `gorm:"type:text"`
	ReadAt      *time.Time
	CreatedAt   time.Time
}

func (Notification) TableName() string {
	return "notifications"
}
