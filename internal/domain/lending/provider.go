package lending

import (
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Provider is a BNPL service provider aggregate: the party financing
// deferred purchases. Loans snapshot the provider terms at purchase time,
// so editing a provider never rewrites existing loans.
type Provider struct {
	shared.TenantAggregateRoot
	Name                   string          `json:"name"`
	PhoneNumber            string          `json:"phone_number"`
	Email                  string          `json:"email"`
	Website                string          `json:"website"`
	DownPaymentPercentage  decimal.Decimal `json:"down_payment_percentage"`  // 0-100
	InterestRatePercentage decimal.Decimal `json:"interest_rate_percentage"` // >= 0
}

// NewProvider creates a new BNPL service provider
func NewProvider(
	tenantID uuid.UUID,
	name string,
	phoneNumber string,
	email string,
	website string,
	downPaymentPercentage decimal.Decimal,
	interestRatePercentage decimal.Decimal,
) (*Provider, error) {
	if err := validateProviderTerms(name, downPaymentPercentage, interestRatePercentage); err != nil {
		return nil, err
	}

	p := &Provider{
		TenantAggregateRoot:    shared.NewTenantAggregateRoot(tenantID),
		Name:                   name,
		PhoneNumber:            phoneNumber,
		Email:                  email,
		Website:                website,
		DownPaymentPercentage:  downPaymentPercentage,
		InterestRatePercentage: interestRatePercentage,
	}

	p.AddDomainEvent(NewProviderCreatedEvent(p))

	return p, nil
}

// Update replaces the provider's contact details and terms
func (p *Provider) Update(
	name string,
	phoneNumber string,
	email string,
	website string,
	downPaymentPercentage decimal.Decimal,
	interestRatePercentage decimal.Decimal,
) error {
	if err := validateProviderTerms(name, downPaymentPercentage, interestRatePercentage); err != nil {
		return err
	}

	p.Name = name
	p.PhoneNumber = phoneNumber
	p.Email = email
	p.Website = website
	p.DownPaymentPercentage = downPaymentPercentage
	p.InterestRatePercentage = interestRatePercentage
	p.Touch()
	p.IncrementVersion()

	return nil
}

// ExpectedDownPayment computes the down payment the provider's terms call
// for on a given sale price, rounded down to the minor unit.
func (p *Provider) ExpectedDownPayment(totalAmount int64) int64 {
	return decimal.NewFromInt(totalAmount).Mul(p.DownPaymentPercentage).Div(oneHundred).IntPart()
}

func validateProviderTerms(name string, downPaymentPercentage, interestRatePercentage decimal.Decimal) error {
	if name == "" {
		return shared.NewDomainError("INVALID_PROVIDER_NAME", "Provider name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_PROVIDER_NAME", "Provider name cannot exceed 100 characters")
	}
	if downPaymentPercentage.IsNegative() || downPaymentPercentage.GreaterThan(oneHundred) {
		return shared.NewDomainError("INVALID_PROVIDER_TERMS", "Down payment percentage must be between 0 and 100")
	}
	if interestRatePercentage.IsNegative() {
		return shared.NewDomainError("INVALID_PROVIDER_TERMS", "Interest rate percentage cannot be negative")
	}
	return nil
}
