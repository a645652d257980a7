package marketplace

import (
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
)

type CreateItemRequest struct {
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	PointsPrice      int     `json:"points_price"`
	ApprovalRequired bool    `json:"approval_required"`
}

func (r *CreateItemRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if r.PointsPrice <= 0 {
		errs.Add("points_price", "must be greater than 0")
	}
	return errs.OrNil()
}

type PurchaseRequest struct {
	ItemID string `json:"item_id"`
}

func (r *PurchaseRequest) Validate() error {
	if !validator.IsValidUUID(r.ItemID) {
		return validator.ValidationErrors{{Field: "item_id", Message: "must be a valid UUID"}}
	}
	return nil
}

type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectOrderRequest) Validate() error {
	if validator.IsEmpty(r.Reason) {
		return validator.ValidationErrors{{Field: "reason", Message: "reason is required"}}
	}
	return nil
}

type GrantPointsRequest struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

func (r *GrantPointsRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Points <= 0 {
		errs.Add("points", "must be greater than 0")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}
	return errs.OrNil()
}

type ItemResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	PointsPrice      int     `json:"points_price"`
	ApprovalRequired bool    `json:"approval_required"`
	IsActive         bool    `json:"is_active"`
}

func ToItemResponse(i Item) ItemResponse {
	return ItemResponse{
		ID:               i.ID,
		Name:             i.Name,
		Description:      i.Description,
		PointsPrice:      i.PointsPrice,
		ApprovalRequired: i.ApprovalRequired,
		IsActive:         i.IsActive,
	}
}

type OrderResponse struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employee_id"`
	ItemID          string     `json:"item_id"`
	ItemName        *string    `json:"item_name,omitempty"`
	PointsSpent     int        `json:"points_spent"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	ReviewedBy      *string    `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func ToOrderResponse(o Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		EmployeeID:      o.EmployeeID,
		ItemID:          o.ItemID,
		ItemName:        o.ItemName,
		PointsSpent:     o.PointsSpent,
		Status:          string(o.Status),
		RejectionReason: o.RejectionReason,
		ReviewedBy:      o.ReviewedBy,
		ReviewedAt:      o.ReviewedAt,
		CreatedAt:       o.CreatedAt,
	}
}

type WalletResponse struct {
	EmployeeID string `json:"employee_id"`
	Points     int    `json:"points"`
}
