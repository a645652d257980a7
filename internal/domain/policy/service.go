package policy

import (
	"context"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

type PolicyService interface {
	// Get returns the saved policy or the company defaults.
	Get(ctx context.Context, companyID string) (CompanyPolicy, error)
	Update(ctx context.Context, caller user.Caller, req UpdatePolicyRequest) (CompanyPolicy, error)
}
