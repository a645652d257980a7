package notification

import (
	"context"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/sse"
)

// Notifier is the fire-and-forget side other services depend on. Delivery
// failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, req CreateNotificationRequest)
}

// Service defines the notification service interface
type Service interface {
	Notifier

	List(ctx context.Context, caller user.Caller, page, pageSize int, unreadOnly bool) (*NotificationListResponse, error)
	MarkAsRead(ctx context.Context, caller user.Caller, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, caller user.Caller) error

	// SSE subscription
	Subscribe(ctx context.Context, employeeID string) (chan sse.Event, func())

	// Lifecycle
	Stop()
}
