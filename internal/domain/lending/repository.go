package lending

import (
	"context"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LoanFilter represents filter options for querying loans
type LoanFilter struct {
	shared.Filter
	Status     *LoanStatus
	ProviderID *uuid.UUID
}

// LoanRepository defines the persistence port for the Loan aggregate.
// Save and SaveWithLock persist the loan together with its installments
// in one transaction; SaveWithLock additionally enforces the optimistic
// version check and returns shared.ErrConcurrencyConflict when the row
// was changed underneath.
type LoanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Loan, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, loanNumber string) (*Loan, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter LoanFilter) ([]Loan, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter LoanFilter) (int64, error)
	Save(ctx context.Context, loan *Loan) error
	SaveWithLock(ctx context.Context, loan *Loan) error
	GenerateLoanNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// ProviderRepository defines the persistence port for BNPL service providers
type ProviderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Provider, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Provider, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, provider *Provider) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
