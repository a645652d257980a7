package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeAttendancePending  NotificationType = "attendance_pending"
	TypeAttendanceApproved NotificationType = "attendance_approved"
	TypeAttendanceRejected NotificationType = "attendance_rejected"
	TypeLeaveRequest       NotificationType = "leave_request"
	TypeEmergencyLeave     NotificationType = "emergency_leave"
	TypeLeaveApproved      NotificationType = "leave_approved"
	TypeLeaveRejected      NotificationType = "leave_rejected"
	TypeOrderPending       NotificationType = "marketplace_order_pending"
	TypeOrderApproved      NotificationType = "marketplace_order_approved"
	TypeOrderRejected      NotificationType = "marketplace_order_rejected"
	TypePointsGranted      NotificationType = "points_granted"
)

// Notification represents a notification entity. RecipientID is an employee ID.
type Notification struct {
	ID          string
	CompanyID   string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
