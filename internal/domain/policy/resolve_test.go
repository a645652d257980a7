package policy_test

import (
	"testing"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/fixtures"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestResolveWithoutOverridesKeepsCompanyDefaults(t *testing.T) {
	company := fixtures.DefaultCompanyPolicy("company-1")
	company.AllowedWifiIPs = []string{"10.0.0.0/24"}

	eff := policy.Resolve(policy.EmployeeOverride{}, company)

	assert.Equal(t, company.VerificationLevel, eff.VerificationLevel)
	assert.Equal(t, company.Level3Mode, eff.Level3Mode)
	assert.Equal(t, company.AllowedWifiIPs, eff.AllowedWifiIPs)
	assert.Nil(t, eff.ApproverID)
}

func TestResolveOverridesWin(t *testing.T) {
	company := fixtures.DefaultCompanyPolicy("company-1")
	company.AllowedWifiIPs = []string{"10.0.0.0/24"}

	override := policy.EmployeeOverride{
		ManagerID:              ptr("manager-1"),
		VerificationLevel:      ptr(policy.LevelEvidence),
		VerificationApproverID: ptr("approver-9"),
		Level3Mode:             ptr(policy.ModeWifiIP),
		AllowedWifiIPs:         []string{},
		WorkStartTime:          ptr("07:30"),
		BreakDurationMinutes:   ptr(30),
	}

	eff := policy.Resolve(override, company)

	assert.Equal(t, policy.LevelEvidence, eff.VerificationLevel)
	assert.Equal(t, policy.ModeWifiIP, eff.Level3Mode)
	assert.Empty(t, eff.AllowedWifiIPs, "an empty override list replaces the company list")
	assert.Equal(t, "07:30", eff.WorkStartTime)
	assert.Equal(t, company.WorkEndTime, eff.WorkEndTime)
	assert.Equal(t, 30, eff.BreakDurationMinutes)
	require.NotNil(t, eff.ApproverID)
	assert.Equal(t, "approver-9", *eff.ApproverID)

	// company value untouched
	assert.Equal(t, []string{"10.0.0.0/24"}, company.AllowedWifiIPs)
}

func TestResolveFallsBackToDirectManager(t *testing.T) {
	eff := policy.Resolve(policy.EmployeeOverride{ManagerID: ptr("manager-1")}, fixtures.DefaultCompanyPolicy("c"))
	require.NotNil(t, eff.ApproverID)
	assert.Equal(t, "manager-1", *eff.ApproverID)
}

func TestCompanyPolicyValidate(t *testing.T) {
	p := fixtures.DefaultCompanyPolicy("c")
	require.NoError(t, p.Validate())

	p.EmergencyLeaveDays = p.AnnualLeaveDays + 1
	p.VerificationLevel = policy.LevelEvidence
	p.Level3Mode = 0
	p.AllowedWifiIPs = []string{"not-an-ip"}

	err := p.Validate()
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	fields := vErrs.ToMap()
	assert.Contains(t, fields, "emergency_leave_days")
	assert.Contains(t, fields, "level3_verification_mode")
	assert.Contains(t, fields, "allowed_wifi_ips[0]")

	p = fixtures.DefaultCompanyPolicy("c")
	p.VerificationLevel = 4
	assert.Error(t, p.Validate())
}

func TestUpdatePolicyRequestApplyTo(t *testing.T) {
	base := fixtures.DefaultCompanyPolicy("c")
	req := policy.UpdatePolicyRequest{
		MonthlyLateAllowanceMinutes: ptr(90),
		Level3Mode:                  ptr("location_selfie_ip"),
		WeekendDays:                 []int{5, 6},
	}
	require.NoError(t, req.Validate())

	updated := req.ApplyTo(base)
	assert.Equal(t, 90, updated.MonthlyLateAllowanceMinutes)
	assert.Equal(t, "location_selfie_ip", updated.Level3Mode.String())
	assert.True(t, updated.IsWeekend(5))
	assert.False(t, updated.IsWeekend(0))
	assert.Equal(t, base.DailyLateAllowanceMinutes, updated.DailyLateAllowanceMinutes)

	bad := policy.UpdatePolicyRequest{Level3Mode: ptr("ip_location"), WeekendDays: []int{7}}
	assert.Error(t, bad.Validate())
}
