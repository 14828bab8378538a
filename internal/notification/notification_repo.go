package notification

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=notification_repo.go -destination=mock/notification_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, companyID, recipientID string, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, companyID, recipientID, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repository) ListByRecipient(ctx context.Context, companyID, recipientID string, unreadOnly bool) ([]Notification, error) {
	db := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		db = db.Where("read_at IS NULL")
	}

	var notifications []Notification
	err := db.Order("created_at DESC").Limit(100).Find(&notifications).Error
	return notifications, err
}

func (r *repository) MarkRead(ctx context.Context, companyID, recipientID, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", id).
		Where("company_id = ?", companyID).
		Where("recipient_id = ?", recipientID).
		Where("read_at IS NULL").
		Update("read_at", now).Error
}
