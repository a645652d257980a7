package employee

import (
	"context"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

type EmployeeService interface {
	Create(ctx context.Context, caller user.Caller, req CreateEmployeeRequest) (EmployeeResponse, error)
	Update(ctx context.Context, caller user.Caller, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Get(ctx context.Context, caller user.Caller, id string) (EmployeeResponse, error)
	List(ctx context.Context, caller user.Caller) ([]EmployeeResponse, error)
	Delete(ctx context.Context, caller user.Caller, id string) error
	GetVerification(ctx context.Context, caller user.Caller, id string) (VerificationResponse, error)
}
