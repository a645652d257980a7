package policy

import "context"

type PolicyRepository interface {
	// GetByCompanyID returns ErrPolicyNotFound when the company never saved a policy.
	GetByCompanyID(ctx context.Context, companyID string) (CompanyPolicy, error)
	Upsert(ctx context.Context, p CompanyPolicy) (CompanyPolicy, error)
	// ListCompanyIDs returns every company that has employees, for scheduled jobs.
	ListCompanyIDs(ctx context.Context) ([]string, error)
}
