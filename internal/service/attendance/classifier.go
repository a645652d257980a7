package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/shopspring/decimal"
)

// Schedule is one working day's expected start and end in absolute time.
type Schedule struct {
	Start        time.Time
	End          time.Time
	BreakMinutes int
}

// ScheduleFor builds the schedule for date's calendar day, read in date's own
// location, with clock times in the policy timezone.
func ScheduleFor(date time.Time, eff policy.EffectivePolicy) (Schedule, error) {
	loc := eff.Location()
	start, err := time.Parse("15:04", eff.WorkStartTime)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: work_start_time %q", attendance.ErrInvalidSchedule, eff.WorkStartTime)
	}
	end, err := time.Parse("15:04", eff.WorkEndTime)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: work_end_time %q", attendance.ErrInvalidSchedule, eff.WorkEndTime)
	}

	y, m, d := date.Date()
	s := Schedule{
		Start:        time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, loc),
		End:          time.Date(y, m, d, end.Hour(), end.Minute(), 0, 0, loc),
		BreakMinutes: eff.BreakDurationMinutes,
	}
	// overnight shift
	if !s.End.After(s.Start) {
		s.End = s.End.AddDate(0, 0, 1)
	}
	return s, nil
}

func minutesBetween(from, to time.Time) int {
	diff := to.Sub(from).Minutes()
	if diff <= 0 {
		return 0
	}
	return int(math.Floor(diff))
}

// LateResult describes how a late check-in was absorbed and charged.
type LateResult struct {
	LateMinutes      int
	BalanceUsed      int
	ExcessMinutes    int
	RemainingBalance int
	Tier             attendance.Tier
	DeductionDays    decimal.Decimal
}

// ClassifyLateness consumes the monthly late balance first and tiers only the
// excess: under 15 minutes tier 1, 15 to 30 tier 2, over 30 tier 3. A positive
// daily allowance caps how much balance one day may consume.
func ClassifyLateness(checkIn, scheduledStart time.Time, balance int, p policy.CompanyPolicy) LateResult {
	if balance < 0 {
		balance = 0
	}
	res := LateResult{
		LateMinutes:      minutesBetween(scheduledStart, checkIn),
		RemainingBalance: balance,
		Tier:             attendance.TierOnTime,
		DeductionDays:    decimal.Zero,
	}
	if res.LateMinutes == 0 {
		return res
	}

	usable := balance
	if p.DailyLateAllowanceMinutes > 0 && usable > p.DailyLateAllowanceMinutes {
		usable = p.DailyLateAllowanceMinutes
	}
	res.BalanceUsed = min(res.LateMinutes, usable)
	res.ExcessMinutes = res.LateMinutes - res.BalanceUsed
	res.RemainingBalance = balance - res.BalanceUsed

	switch {
	case res.ExcessMinutes == 0:
		res.Tier = attendance.TierOnTime
	case res.ExcessMinutes < 15:
		res.Tier = attendance.TierLate1
		res.DeductionDays = p.LateTier1Deduction
	case res.ExcessMinutes <= 30:
		res.Tier = attendance.TierLate2
		res.DeductionDays = p.LateTier2Deduction
	default:
		res.Tier = attendance.TierLate3
		res.DeductionDays = p.LateTier3Deduction
	}
	return res
}

// EarlyResult describes how leaving before the scheduled end was handled.
type EarlyResult struct {
	ShortfallMinutes int
	BalanceUsed      int
	RemainingBalance int
	Deducted         bool
	DeductionDays    decimal.Decimal
}

// ClassifyEarlyDeparture debits a shortfall under the grace period from the
// late balance; a shortfall at or over the threshold is charged the
// early-departure deduction. Anything in between is tolerated.
func ClassifyEarlyDeparture(checkOut, scheduledEnd time.Time, balance int, p policy.CompanyPolicy) EarlyResult {
	if balance < 0 {
		balance = 0
	}
	res := EarlyResult{
		ShortfallMinutes: minutesBetween(checkOut, scheduledEnd),
		RemainingBalance: balance,
		DeductionDays:    decimal.Zero,
	}
	if res.ShortfallMinutes == 0 {
		return res
	}

	switch {
	case res.ShortfallMinutes < p.EarlyDepartureGraceMinutes:
		res.BalanceUsed = min(res.ShortfallMinutes, balance)
		res.RemainingBalance = balance - res.BalanceUsed
	case res.ShortfallMinutes >= p.EarlyDepartureThresholdMinutes:
		res.Deducted = true
		res.DeductionDays = p.EarlyDepartureDeduction
	}
	return res
}

// WorkedMinutes is (checkOut - checkIn) - break, floored at zero.
func WorkedMinutes(checkIn, checkOut time.Time, breakMinutes int) int {
	worked := minutesBetween(checkIn, checkOut) - breakMinutes
	if worked < 0 {
		return 0
	}
	return worked
}

// IsAbsent reports whether a working day with no check-in has passed the
// auto-absent cutoff. Non-working days (weekends, holidays) are never absent.
func IsAbsent(checkIn *time.Time, scheduledStart, now time.Time, autoAbsentAfterHours int, nonWorkingDay bool) bool {
	if nonWorkingDay || checkIn != nil {
		return false
	}
	cutoff := scheduledStart.Add(time.Duration(autoAbsentAfterHours) * time.Hour)
	return !now.Before(cutoff)
}

// DayInput is everything needed to classify one employee-day.
type DayInput struct {
	CheckIn       *time.Time
	CheckOut      *time.Time
	Schedule      Schedule
	BreakMinutes  int // recorded break; the scheduled break applies when zero
	LateBalance   int
	NonWorkingDay bool
	Now           time.Time
}

// DayClassification is the outcome for one day.
type DayClassification struct {
	LateMinutes           int
	EarlyDepartureMinutes int
	WorkedMinutes         int
	OvertimeMinutes       int
	Tier                  attendance.Tier
	Late                  LateResult
	Early                 EarlyResult
}

// ClassifyDay combines the rules with precedence absent, late, early departure, on time.
func ClassifyDay(in DayInput, p policy.CompanyPolicy) DayClassification {
	out := DayClassification{Tier: attendance.TierOnTime}

	if in.CheckIn == nil {
		if IsAbsent(nil, in.Schedule.Start, in.Now, p.AutoAbsentAfterHours, in.NonWorkingDay) {
			out.Tier = attendance.TierAbsent
		}
		return out
	}

	balance := in.LateBalance
	if !in.NonWorkingDay {
		out.Late = ClassifyLateness(*in.CheckIn, in.Schedule.Start, balance, p)
		out.LateMinutes = out.Late.LateMinutes
		balance = out.Late.RemainingBalance
	}

	if in.CheckOut != nil {
		breakMinutes := in.BreakMinutes
		if breakMinutes == 0 {
			breakMinutes = in.Schedule.BreakMinutes
		}
		out.WorkedMinutes = WorkedMinutes(*in.CheckIn, *in.CheckOut, breakMinutes)
		if !in.NonWorkingDay {
			out.Early = ClassifyEarlyDeparture(*in.CheckOut, in.Schedule.End, balance, p)
			out.EarlyDepartureMinutes = out.Early.ShortfallMinutes
			out.OvertimeMinutes = minutesBetween(in.Schedule.End, *in.CheckOut)
		}
	}

	switch {
	case out.Late.Tier.IsLate():
		out.Tier = out.Late.Tier
	case out.Early.Deducted:
		out.Tier = attendance.TierEarlyDeparture
	}
	return out
}
