package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
	policies     policy.PolicyService
	deleter      audit.Deleter
	recorder     audit.Recorder
}

func NewEmployeeService(
	employeeRepo employee.EmployeeRepository,
	policies policy.PolicyService,
	deleter audit.Deleter,
	recorder audit.Recorder,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		employeeRepo: employeeRepo,
		policies:     policies,
		deleter:      deleter,
		recorder:     recorder,
	}
}

// canView lets employees see themselves and delegates everyone else to employee.view_all.
func canView(caller user.Caller, employeeID string) error {
	if caller.EmployeeID == employeeID {
		return nil
	}
	return user.AccessManagerWithPermission(user.PermissionEmployeeViewAll).Authorize(caller)
}

func (s *EmployeeServiceImpl) checkManager(ctx context.Context, companyID string, employeeID string, managerID *string) error {
	if managerID == nil {
		return nil
	}
	if employeeID != "" && *managerID == employeeID {
		return employee.ErrSelfManager
	}
	if _, err := s.employeeRepo.GetByID(ctx, companyID, *managerID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.ErrManagerNotFound
		}
		return fmt.Errorf("failed to get manager: %w", err)
	}
	return nil
}

// checkEffective rejects overrides that would leave the employee with an
// unusable policy, such as level 3 with no requirement on either side.
func checkEffective(p policy.CompanyPolicy, e employee.Employee) error {
	return policy.Resolve(e.Override(), p).CompanyPolicy.Validate()
}

// Create implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Create(ctx context.Context, caller user.Caller, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return employee.EmployeeResponse{}, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	exists, err := s.employeeRepo.EmailExists(ctx, caller.CompanyID, req.Email, nil)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return employee.EmployeeResponse{}, employee.ErrEmailExists
	}
	if err := s.checkManager(ctx, caller.CompanyID, "", req.ManagerID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	p, err := s.policies.Get(ctx, caller.CompanyID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	entity := req.ToEntity(caller.CompanyID, p.MonthlyLateAllowanceMinutes, p.AnnualLeaveDays, p.EmergencyLeaveDays)
	if err := checkEffective(p, entity); err != nil {
		return employee.EmployeeResponse{}, err
	}

	created, err := s.employeeRepo.Create(ctx, entity)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to create employee: %w", err)
	}

	resp := employee.ToResponse(created)
	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   audit.KindEmployee.Table(),
		RecordID:    created.ID,
		Action:      audit.ActionInsert,
		NewData:     audit.JSON(resp),
		Description: fmt.Sprintf("Created employee %s", created.FullName),
	})
	return resp, nil
}

// Update implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Update(ctx context.Context, caller user.Caller, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	current, err := s.employeeRepo.GetByID(ctx, caller.CompanyID, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	if req.Email != nil && *req.Email != current.Email {
		exists, err := s.employeeRepo.EmailExists(ctx, caller.CompanyID, *req.Email, &id)
		if err != nil {
			return employee.EmployeeResponse{}, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return employee.EmployeeResponse{}, employee.ErrEmailExists
		}
	}
	if err := s.checkManager(ctx, caller.CompanyID, id, req.ManagerID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	next := req.ApplyTo(current)
	p, err := s.policies.Get(ctx, caller.CompanyID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := checkEffective(p, next); err != nil {
		return employee.EmployeeResponse{}, err
	}

	updated, err := s.employeeRepo.Update(ctx, next)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to update employee: %w", err)
	}

	resp := employee.ToResponse(updated)
	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   audit.KindEmployee.Table(),
		RecordID:    id,
		Action:      audit.ActionUpdate,
		OldData:     audit.JSON(employee.ToResponse(current)),
		NewData:     audit.JSON(resp),
		Description: fmt.Sprintf("Updated employee %s", updated.FullName),
	})
	return resp, nil
}

// Get implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Get(ctx context.Context, caller user.Caller, id string) (employee.EmployeeResponse, error) {
	if err := canView(caller, id); err != nil {
		return employee.EmployeeResponse{}, err
	}
	e, err := s.employeeRepo.GetByID(ctx, caller.CompanyID, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return employee.ToResponse(e), nil
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context, caller user.Caller) ([]employee.EmployeeResponse, error) {
	if err := user.AccessManagerWithPermission(user.PermissionEmployeeViewAll).Authorize(caller); err != nil {
		return nil, err
	}
	employees, err := s.employeeRepo.List(ctx, caller.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	out := make([]employee.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, employee.ToResponse(e))
	}
	return out, nil
}

// Delete implements employee.EmployeeService. The row moves to the deleted-record log.
func (s *EmployeeServiceImpl) Delete(ctx context.Context, caller user.Caller, id string) error {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return err
	}
	if id == caller.EmployeeID {
		return fmt.Errorf("%w: cannot delete yourself", user.ErrInsufficientPermissions)
	}
	return s.deleter.DeleteRecord(ctx, caller, audit.KindEmployee, id)
}

// GetVerification implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetVerification(ctx context.Context, caller user.Caller, id string) (employee.VerificationResponse, error) {
	if err := canView(caller, id); err != nil {
		return employee.VerificationResponse{}, err
	}
	e, err := s.employeeRepo.GetByID(ctx, caller.CompanyID, id)
	if err != nil {
		return employee.VerificationResponse{}, err
	}
	p, err := s.policies.Get(ctx, caller.CompanyID)
	if err != nil {
		return employee.VerificationResponse{}, err
	}

	eff := policy.Resolve(e.Override(), p)
	resp := employee.VerificationResponse{
		EmployeeID:     e.ID,
		Level:          int(eff.VerificationLevel),
		AllowedWifiIPs: eff.AllowedWifiIPs,
		WorkStartTime:  eff.WorkStartTime,
		WorkEndTime:    eff.WorkEndTime,
	}
	switch eff.VerificationLevel {
	case policy.LevelApprover:
		resp.ApproverID = eff.ApproverID
	case policy.LevelEvidence:
		resp.Mode = eff.Level3Mode
	}
	return resp, nil
}
