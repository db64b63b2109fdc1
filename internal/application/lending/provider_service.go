package lending

import (
	"context"
	"fmt"

	"github.com/bnpl/backend/internal/domain/lending"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProviderService manages BNPL service providers
type ProviderService struct {
	providerRepo lending.ProviderRepository
	logger       *zap.Logger
}

// NewProviderService creates a new ProviderService
func NewProviderService(providerRepo lending.ProviderRepository, logger *zap.Logger) *ProviderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderService{
		providerRepo: providerRepo,
		logger:       logger,
	}
}

// ProviderCommand carries provider details for create and update
type ProviderCommand struct {
	Name                   string
	PhoneNumber            string
	Email                  string
	Website                string
	DownPaymentPercentage  decimal.Decimal
	InterestRatePercentage decimal.Decimal
}

// CreateProvider registers a new BNPL service provider
func (s *ProviderService) CreateProvider(ctx context.Context, tenantID uuid.UUID, cmd ProviderCommand) (*lending.Provider, error) {
	provider, err := lending.NewProvider(
		tenantID,
		cmd.Name,
		cmd.PhoneNumber,
		cmd.Email,
		cmd.Website,
		cmd.DownPaymentPercentage,
		cmd.InterestRatePercentage,
	)
	if err != nil {
		return nil, err
	}

	if err := s.providerRepo.Save(ctx, provider); err != nil {
		return nil, fmt.Errorf("failed to save provider: %w", err)
	}

	s.logger.Info("provider created",
		zap.String("provider_id", provider.ID.String()),
		zap.String("name", provider.Name),
	)

	return provider, nil
}

// UpdateProvider replaces a provider's details and terms. Existing loans
// keep their snapshotted terms.
func (s *ProviderService) UpdateProvider(ctx context.Context, tenantID, providerID uuid.UUID, cmd ProviderCommand) (*lending.Provider, error) {
	provider, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	if provider == nil {
		return nil, shared.ErrNotFound
	}

	if err := provider.Update(
		cmd.Name,
		cmd.PhoneNumber,
		cmd.Email,
		cmd.Website,
		cmd.DownPaymentPercentage,
		cmd.InterestRatePercentage,
	); err != nil {
		return nil, err
	}

	if err := s.providerRepo.Save(ctx, provider); err != nil {
		return nil, fmt.Errorf("failed to save provider: %w", err)
	}

	return provider, nil
}

// GetProvider returns a single provider
func (s *ProviderService) GetProvider(ctx context.Context, tenantID, providerID uuid.UUID) (*lending.Provider, error) {
	provider, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	if provider == nil {
		return nil, shared.ErrNotFound
	}
	return provider, nil
}

// ListProviders returns a page of providers for the tenant
func (s *ProviderService) ListProviders(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[lending.Provider], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	providers, err := s.providerRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	total, err := s.providerRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count providers: %w", err)
	}

	page := shared.NewPaginated(providers, total, filter.Page, filter.PageSize)
	return &page, nil
}

// DeleteProvider removes a provider. Loans referencing it keep their
// snapshotted terms and provider name.
func (s *ProviderService) DeleteProvider(ctx context.Context, tenantID, providerID uuid.UUID) error {
	provider, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, providerID)
	if err != nil {
		return fmt.Errorf("failed to load provider: %w", err)
	}
	if provider == nil {
		return shared.ErrNotFound
	}

	if err := s.providerRepo.Delete(ctx, tenantID, providerID); err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}

	s.logger.Info("provider deleted", zap.String("provider_id", providerID.String()))

	return nil
}
