package notification

import (
	"context"
)

// Repository defines the notification repository interface
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error
	ListByRecipient(ctx context.Context, companyID, recipientID string, page, pageSize int, unreadOnly bool) ([]*Notification, int, error)
	GetUnreadCount(ctx context.Context, companyID, recipientID string) (int, error)
	MarkAsRead(ctx context.Context, companyID, recipientID string, ids []string) error
	MarkAllAsRead(ctx context.Context, companyID, recipientID string) error
}
