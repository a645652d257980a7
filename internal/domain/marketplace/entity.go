package marketplace

import "time"

type Item struct {
	ID               string
	CompanyID        string
	Name             string
	Description      *string
	PointsPrice      int
	ApprovalRequired bool
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusConsumed OrderStatus = "consumed"
)

type Order struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	ItemID          string
	PointsSpent     int
	Status          OrderStatus
	RejectionReason *string
	ReviewedBy      *string
	ReviewedAt      *time.Time
	ConsumedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Relationships (for responses)
	ItemName *string
}
