package notification

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
)

// ============= Request DTOs =============

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	CompanyID   string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
}

// MarkAsReadRequest represents a request to mark notifications as read
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

// MaxMarkAsRead caps how many ids one request may mark.
const MaxMarkAsRead = 100

func (r *MarkAsReadRequest) Validate() error {
	var errs validator.ValidationErrors
	switch {
	case len(r.NotificationIDs) == 0:
		errs.Add("notification_ids", "at least one id is required")
	case len(r.NotificationIDs) > MaxMarkAsRead:
		errs.Add("notification_ids", "at most 100 ids per request")
	}
	for i, id := range r.NotificationIDs {
		if !validator.IsValidUUID(id) {
			errs.Add(fmt.Sprintf("notification_ids[%d]", i), "must be a valid UUID")
		}
	}
	return errs.OrNil()
}

// ============= Response DTOs =============

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func ToResponse(n *Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// NotificationListResponse represents a paginated list of notifications
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

// SSETokenResponse carries the short-lived token the stream endpoint accepts.
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
