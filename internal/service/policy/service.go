package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/fixtures"
)

type PolicyServiceImpl struct {
	repo     policy.PolicyRepository
	recorder audit.Recorder
}

func NewPolicyService(repo policy.PolicyRepository, recorder audit.Recorder) policy.PolicyService {
	return &PolicyServiceImpl{repo: repo, recorder: recorder}
}

// Get implements policy.PolicyService.
func (s *PolicyServiceImpl) Get(ctx context.Context, companyID string) (policy.CompanyPolicy, error) {
	p, err := s.repo.GetByCompanyID(ctx, companyID)
	if errors.Is(err, policy.ErrPolicyNotFound) {
		return fixtures.DefaultCompanyPolicy(companyID), nil
	}
	if err != nil {
		return policy.CompanyPolicy{}, fmt.Errorf("failed to get company policy: %w", err)
	}
	return p, nil
}

// Update implements policy.PolicyService.
func (s *PolicyServiceImpl) Update(ctx context.Context, caller user.Caller, req policy.UpdatePolicyRequest) (policy.CompanyPolicy, error) {
	if err := user.AccessAdmin().Authorize(caller); err != nil {
		return policy.CompanyPolicy{}, err
	}
	if err := req.Validate(); err != nil {
		return policy.CompanyPolicy{}, err
	}

	current, err := s.Get(ctx, caller.CompanyID)
	if err != nil {
		return policy.CompanyPolicy{}, err
	}

	next := req.ApplyTo(current)
	next.CompanyID = caller.CompanyID
	if err := next.Validate(); err != nil {
		return policy.CompanyPolicy{}, err
	}

	saved, err := s.repo.Upsert(ctx, next)
	if err != nil {
		return policy.CompanyPolicy{}, fmt.Errorf("failed to save company policy: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		CompanyID:   caller.CompanyID,
		ActorID:     &caller.EmployeeID,
		TableName:   "company_policies",
		RecordID:    caller.CompanyID,
		Action:      audit.ActionUpdate,
		OldData:     audit.JSON(policy.ToResponse(current)),
		NewData:     audit.JSON(policy.ToResponse(saved)),
		Description: "Updated company policy",
	})

	return saved, nil
}
