package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// CheckRequest is the evidence sent with a check-in or check-out.
type CheckRequest struct {
	Latitude                  *float64 `json:"latitude,omitempty"`
	Longitude                 *float64 `json:"longitude,omitempty"`
	SelfieURL                 *string  `json:"selfie_url,omitempty"`
	VPNDetected               bool     `json:"vpn_detected"`
	LocationSpoofingSuspected bool     `json:"location_spoofing_suspected"`

	// Set by the handler from the connection, never from the body.
	IPAddress string `json:"-"`
}

func (r *CheckRequest) Validate() error {
	var errs validator.ValidationErrors

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs.Add("location", "latitude and longitude must be sent together")
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		errs.Add("latitude", "must be between -90 and 90")
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		errs.Add("longitude", "must be between -180 and 180")
	}
	if r.SelfieURL != nil && validator.IsEmpty(*r.SelfieURL) {
		errs.Add("selfie_url", "selfie_url cannot be blank")
	}

	return errs.OrNil()
}

type ReviewPendingRequest struct {
	Note *string `json:"note,omitempty"`
}

type ListLogsFilter struct {
	Month string // "YYYY-MM", defaults to the current month
}

func (f *ListLogsFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Month != "" {
		if _, ok := validator.IsValidMonth(f.Month); !ok {
			errs.Add("month", "must be YYYY-MM")
		}
	}
	return errs.OrNil()
}

type LogResponse struct {
	ID                          string          `json:"id"`
	EmployeeID                  string          `json:"employee_id"`
	Date                        string          `json:"date"`
	CheckInTime                 *time.Time      `json:"check_in_time,omitempty"`
	CheckOutTime                *time.Time      `json:"check_out_time,omitempty"`
	Status                      string          `json:"status"`
	BreakMinutes                int             `json:"break_minutes"`
	LateMinutes                 int             `json:"late_minutes"`
	LateExcessMinutes           int             `json:"late_excess_minutes"`
	LateTier                    string          `json:"late_tier"`
	LateDeductionDays           decimal.Decimal `json:"late_deduction_days"`
	EarlyDepartureMinutes       int             `json:"early_departure_minutes"`
	EarlyDepartureDeductionDays decimal.Decimal `json:"early_departure_deduction_days"`
	OvertimeMinutes             int             `json:"overtime_minutes"`
	WorkedMinutes               int             `json:"worked_minutes"`
}

func ToLogResponse(l Log) LogResponse {
	return LogResponse{
		ID:                          l.ID,
		EmployeeID:                  l.EmployeeID,
		Date:                        l.Date.Format("2006-01-02"),
		CheckInTime:                 l.CheckInTime,
		CheckOutTime:                l.CheckOutTime,
		Status:                      string(l.Status),
		BreakMinutes:                l.BreakMinutes,
		LateMinutes:                 l.LateMinutes,
		LateExcessMinutes:           l.LateExcessMinutes,
		LateTier:                    string(l.LateTier),
		LateDeductionDays:           l.LateDeductionDays,
		EarlyDepartureMinutes:       l.EarlyDepartureMinutes,
		EarlyDepartureDeductionDays: l.EarlyDepartureDeductionDays,
		OvertimeMinutes:             l.OvertimeMinutes,
		WorkedMinutes:               l.WorkedMinutes,
	}
}

type PendingResponse struct {
	ID                        string     `json:"id"`
	EmployeeID                string     `json:"employee_id"`
	Kind                      string     `json:"kind"`
	Date                      string     `json:"date"`
	RequestedAt               time.Time  `json:"requested_at"`
	VerificationLevel         int        `json:"verification_level"`
	RequiredMode              string     `json:"required_mode,omitempty"`
	ApproverID                *string    `json:"approver_id,omitempty"`
	LocationVerified          bool       `json:"location_verified"`
	IPVerified                bool       `json:"ip_verified"`
	SelfieVerified            bool       `json:"selfie_verified"`
	VPNDetected               bool       `json:"vpn_detected"`
	LocationSpoofingSuspected bool       `json:"location_spoofing_suspected"`
	Status                    string     `json:"status"`
	ReviewedBy                *string    `json:"reviewed_by,omitempty"`
	ReviewedAt                *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote                *string    `json:"review_note,omitempty"`
}

func ToPendingResponse(p PendingAttendance) PendingResponse {
	mode := ""
	if p.RequiredMode != 0 {
		mode = p.RequiredMode.String()
	}
	return PendingResponse{
		ID:                        p.ID,
		EmployeeID:                p.EmployeeID,
		Kind:                      string(p.Kind),
		Date:                      p.Date.Format("2006-01-02"),
		RequestedAt:               p.RequestedAt,
		VerificationLevel:         int(p.VerificationLevel),
		RequiredMode:              mode,
		ApproverID:                p.ApproverID,
		LocationVerified:          p.LocationVerified,
		IPVerified:                p.IPVerified,
		SelfieVerified:            p.SelfieVerified,
		VPNDetected:               p.VPNDetected,
		LocationSpoofingSuspected: p.LocationSpoofingSuspected,
		Status:                    string(p.Status),
		ReviewedBy:                p.ReviewedBy,
		ReviewedAt:                p.ReviewedAt,
		ReviewNote:                p.ReviewNote,
	}
}

// CheckResult is returned by check-in and check-out: either the log was
// written, or the attempt waits in the pending queue.
type CheckResult struct {
	Recorded bool             `json:"recorded"`
	Log      *LogResponse     `json:"log,omitempty"`
	Pending  *PendingResponse `json:"pending,omitempty"`
}

// SelfieUploadResponse is returned by the selfie upload; SelfieURL goes into
// the next check-in or check-out.
type SelfieUploadResponse struct {
	Path      string `json:"path"`
	SelfieURL string `json:"selfie_url"`
}
