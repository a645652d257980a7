package attendance

import (
	"context"
	"time"
)

// LogRepository methods take companyID for tenant isolation.
type LogRepository interface {
	GetByID(ctx context.Context, companyID, id string) (Log, error)
	// GetByEmployeeDate returns ErrAttendanceNotFound when there is no log for that date.
	GetByEmployeeDate(ctx context.Context, companyID, employeeID string, date time.Time) (Log, error)
	Create(ctx context.Context, l Log) (Log, error)
	Update(ctx context.Context, l Log) (Log, error)
	ListByEmployeeRange(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]Log, error)
	ListByCompanyRange(ctx context.Context, companyID string, from, to time.Time) ([]Log, error)
}

type PendingRepository interface {
	GetByID(ctx context.Context, companyID, id string) (PendingAttendance, error)
	// FindOpen returns the undecided request of a kind for the employee and date, if any.
	FindOpen(ctx context.Context, companyID, employeeID string, kind PendingKind, date time.Time) (*PendingAttendance, error)
	Create(ctx context.Context, p PendingAttendance) (PendingAttendance, error)
	List(ctx context.Context, companyID string, status *PendingStatus) ([]PendingAttendance, error)
	// Decide moves a pending row to a terminal status. It reports false if the
	// row was no longer pending, so the first decision wins.
	Decide(ctx context.Context, companyID, id string, status PendingStatus, reviewerID *string, note *string, at time.Time) (bool, error)
	// ListExpired returns rows still pending that were requested before cutoff.
	ListExpired(ctx context.Context, companyID string, cutoff time.Time) ([]PendingAttendance, error)
}
