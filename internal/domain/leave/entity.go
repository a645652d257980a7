package leave

import "time"

type LeaveType string

const (
	LeaveTypeVacation  LeaveType = "vacation"
	LeaveTypeSick      LeaveType = "sick"
	LeaveTypePersonal  LeaveType = "personal"
	LeaveTypeEmergency LeaveType = "emergency"
	LeaveTypeRegular   LeaveType = "regular"
)

func AllLeaveTypes() []string {
	return []string{
		string(LeaveTypeVacation),
		string(LeaveTypeSick),
		string(LeaveTypePersonal),
		string(LeaveTypeEmergency),
		string(LeaveTypeRegular),
	}
}

// DrawsEmergencyBalance reports which counter a request of this type consumes.
func (t LeaveType) DrawsEmergencyBalance() bool {
	return t == LeaveTypeEmergency
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending  LeaveRequestStatus = "pending"
	LeaveRequestStatusApproved LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected LeaveRequestStatus = "rejected"

	// LeaveRequestStatusDeleted is never stored; it is the ledger target when a request is removed.
	LeaveRequestStatusDeleted LeaveRequestStatus = "deleted"
)

type LeaveRequest struct {
	ID         string
	CompanyID  string
	EmployeeID string
	LeaveType  LeaveType

	StartDate time.Time
	EndDate   time.Time
	Days      int // inclusive day count

	Reason          string
	Status          LeaveRequestStatus
	ReviewedBy      *string
	ReviewedAt      *time.Time
	RejectionReason *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	EmployeeName *string
}

// InclusiveDays counts calendar days from start to end, both included.
func InclusiveDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}
