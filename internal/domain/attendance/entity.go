package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/shopspring/decimal"
)

type LogStatus string

const (
	LogStatusCheckedIn  LogStatus = "checked_in"
	LogStatusOnBreak    LogStatus = "on_break"
	LogStatusCheckedOut LogStatus = "checked_out"
)

// Tier is the day classification.
type Tier string

const (
	TierOnTime         Tier = "on_time"
	TierLate1          Tier = "late_tier1"
	TierLate2          Tier = "late_tier2"
	TierLate3          Tier = "late_tier3"
	TierEarlyDeparture Tier = "early_departure"
	TierAbsent         Tier = "absent"
)

func (t Tier) IsLate() bool {
	return t == TierLate1 || t == TierLate2 || t == TierLate3
}

// Log is one employee's attendance for one date, with the classification
// snapshot taken at check-in and check-out.
type Log struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Date       time.Time

	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Status       LogStatus

	BreakStartedAt *time.Time
	BreakMinutes   int

	LateMinutes       int
	LateExcessMinutes int
	LateTier          Tier
	LateDeductionDays decimal.Decimal

	EarlyDepartureMinutes       int
	EarlyDepartureDeductionDays decimal.Decimal
	OvertimeMinutes             int
	WorkedMinutes               int

	CheckInLatitude  *float64
	CheckInLongitude *float64
	CheckInIP        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type PendingKind string

const (
	PendingKindCheckIn  PendingKind = "check_in"
	PendingKindCheckOut PendingKind = "check_out"
)

type PendingStatus string

const (
	PendingStatusPending      PendingStatus = "pending"
	PendingStatusApproved     PendingStatus = "approved"
	PendingStatusRejected     PendingStatus = "rejected"
	PendingStatusAutoRejected PendingStatus = "auto_rejected"
)

func (s PendingStatus) IsTerminal() bool {
	return s != PendingStatusPending
}

// Evidence is what the client captured plus what the server derived from it.
type Evidence struct {
	Latitude  *float64
	Longitude *float64
	IPAddress *string
	SelfieURL *string

	LocationVerified          bool
	IPVerified                bool
	SelfieVerified            bool
	VPNDetected               bool
	LocationSpoofingSuspected bool
}

// PendingAttendance holds a check-in or check-out waiting for a decision.
type PendingAttendance struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	Kind        PendingKind
	Date        time.Time
	RequestedAt time.Time
	Evidence

	VerificationLevel policy.VerificationLevel
	RequiredMode      policy.VerificationMode
	ApproverID        *string

	Status     PendingStatus
	ReviewedBy *string
	ReviewedAt *time.Time
	ReviewNote *string

	CreatedAt time.Time
}
