package payroll

import (
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func autoInput(now time.Time) AutoInput {
	p := fixtures.DefaultCompanyPolicy("company-1")
	p.Timezone = "UTC"
	return AutoInput{
		Employee: employee.Employee{
			ID:         "emp-1",
			CompanyID:  "company-1",
			SalaryType: employee.SalaryTypeMonthly,
			BaseSalary: dec("3000"),
		},
		Policy: policy.Resolve(policy.EmployeeOverride{}, p),
		Month:  may2024,
		Now:    now,
	}
}

func byKey(rows []payroll.SalaryAdjustment) map[string]payroll.SalaryAdjustment {
	out := make(map[string]payroll.SalaryAdjustment, len(rows))
	for _, r := range rows {
		out[*r.SourceKey] = r
	}
	return out
}

func TestBuildAutoAdjustments_FromLogs(t *testing.T) {
	in := autoInput(day(3).Add(12 * time.Hour))
	checkIn := day(1).Add(9*time.Hour + 25*time.Minute)
	in.Logs = []attendance.Log{{
		Date:              day(1),
		CheckInTime:       &checkIn,
		LateExcessMinutes: 10,
		LateTier:          attendance.TierLate1,
		LateDeductionDays: dec("0.25"),
		OvertimeMinutes:   90,
	}}

	rows := byKey(BuildAutoAdjustments(in))
	require.Len(t, rows, 3)

	late := rows["late:2024-05-01"]
	assert.True(t, late.IsAutoGenerated)
	assert.True(t, late.Deduction.Equal(dec("25")), "daily rate is base / 30")

	// 12.5 hourly x 1.5 x 1.5 hours
	assert.True(t, rows["overtime:2024-05-01"].Bonus.Equal(dec("28.13")))

	absent := rows["absent:2024-05-02"]
	assert.True(t, absent.Deduction.Equal(dec("100")))

	_, ok := rows["absent:2024-05-03"]
	assert.False(t, ok, "today is not absent before the cutoff")
}

func TestBuildAutoAdjustments_LeaveWeekendsAndHolidays(t *testing.T) {
	in := autoInput(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	in.ApprovedLeaves = []leave.LeaveRequest{
		{LeaveType: leave.LeaveTypePersonal, StartDate: day(6), EndDate: day(10)},
		{LeaveType: leave.LeaveTypeSick, StartDate: day(13), EndDate: day(13)},
	}
	in.Holidays = holiday.NewSet([]holiday.Holiday{{Date: day(14), Name: "Public holiday"}})

	rows := byKey(BuildAutoAdjustments(in))

	var unexcused []string
	for key := range rows {
		if strings.HasPrefix(key, "unexcused:") {
			unexcused = append(unexcused, key)
		}
	}
	assert.ElementsMatch(t, []string{"unexcused:2024-05-09", "unexcused:2024-05-10"}, unexcused)

	for _, key := range []string{
		"absent:2024-05-04", // Saturday
		"absent:2024-05-05", // Sunday
		"absent:2024-05-06", // excused personal leave
		"absent:2024-05-13", // sick leave
		"absent:2024-05-14", // holiday
	} {
		_, ok := rows[key]
		assert.False(t, ok, key)
	}
	_, ok := rows["absent:2024-05-15"]
	assert.True(t, ok)
}

func TestBuildAutoAdjustments_StableKeys(t *testing.T) {
	in := autoInput(day(10))

	first := BuildAutoAdjustments(in)
	second := BuildAutoAdjustments(in)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, *first[i].SourceKey, *second[i].SourceKey)
	}
}

func TestBuildAutoAdjustments_NoAbsenceBeforeHireDate(t *testing.T) {
	in := autoInput(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	in.Employee.CreatedAt = day(20).Add(14 * time.Hour)

	rows := byKey(BuildAutoAdjustments(in))

	for key := range rows {
		assert.GreaterOrEqual(t, key, "absent:2024-05-20", key)
	}
	_, ok := rows["absent:2024-05-20"]
	assert.True(t, ok, "the hire day itself is a working day")
	// 20 to 31 May holds 10 weekdays
	assert.Len(t, rows, 10)
}

func TestBuildAutoAdjustments_PendingDayIsNotAbsent(t *testing.T) {
	in := autoInput(day(10))
	in.PendingDates = []time.Time{day(2)}

	rows := byKey(BuildAutoAdjustments(in))
	_, ok := rows["absent:2024-05-02"]
	assert.False(t, ok)
	_, ok = rows["absent:2024-05-03"]
	assert.True(t, ok)
}

func TestBuildAutoAdjustments_Freelancer(t *testing.T) {
	in := autoInput(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	in.Employee = employee.Employee{ID: "emp-2", CompanyID: "company-1", IsFreelancer: true, HourlyRate: dec("50")}
	checkIn := day(1).Add(9*time.Hour + 25*time.Minute)
	in.Logs = []attendance.Log{{
		Date:              day(1),
		CheckInTime:       &checkIn,
		LateExcessMinutes: 10,
		LateTier:          attendance.TierLate1,
		LateDeductionDays: dec("0.25"),
		OvertimeMinutes:   120,
	}}
	in.ApprovedLeaves = []leave.LeaveRequest{{LeaveType: leave.LeaveTypePersonal, StartDate: day(6), EndDate: day(10)}}

	rows := byKey(BuildAutoAdjustments(in))

	require.Len(t, rows, 1, "no overtime, absence or unexcused rows")
	late, ok := rows["late:2024-05-01"]
	require.True(t, ok)
	// 0.25 days of 8 hours at 50
	assert.True(t, late.Deduction.Equal(dec("100")))
}
