package handler

import (
	applending "github.com/bnpl/backend/internal/application/lending"
	"github.com/bnpl/backend/internal/domain/lending"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/bnpl/backend/internal/interfaces/http/dto"
	"github.com/bnpl/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderHandler handles BNPL service provider endpoints
type ProviderHandler struct {
	BaseHandler
	providerService *applending.ProviderService
}

// NewProviderHandler creates a new ProviderHandler
func NewProviderHandler(providerService *applending.ProviderService) *ProviderHandler {
	return &ProviderHandler{
		providerService: providerService,
	}
}

// ProviderRequest represents a request to create or update a provider.
// Percentages are decimal strings ("20.5").
type ProviderRequest struct {
	Name                   string `json:"name" binding:"required,max=200"`
	PhoneNumber            string `json:"phone_number" binding:"omitempty,max=50"`
	Email                  string `json:"email" binding:"omitempty,email"`
	Website                string `json:"website" binding:"omitempty,url"`
	DownPaymentPercentage  string `json:"down_payment_percentage" binding:"omitempty,decimal"`
	InterestRatePercentage string `json:"interest_rate_percentage" binding:"omitempty,decimal"`
}

// ToCommand converts the request into an application command
func (r *ProviderRequest) ToCommand() (applending.ProviderCommand, error) {
	var cmd applending.ProviderCommand

	downPayment := decimal.Zero
	if r.DownPaymentPercentage != "" {
		var err error
		downPayment, err = decimal.NewFromString(r.DownPaymentPercentage)
		if err != nil {
			return cmd, err
		}
	}

	interestRate := decimal.Zero
	if r.InterestRatePercentage != "" {
		var err error
		interestRate, err = decimal.NewFromString(r.InterestRatePercentage)
		if err != nil {
			return cmd, err
		}
	}

	cmd.Name = r.Name
	cmd.PhoneNumber = r.PhoneNumber
	cmd.Email = r.Email
	cmd.Website = r.Website
	cmd.DownPaymentPercentage = downPayment
	cmd.InterestRatePercentage = interestRate
	return cmd, nil
}

// ProviderResponse represents a provider in API responses
type ProviderResponse struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	PhoneNumber            string          `json:"phone_number,omitempty"`
	Email                  string          `json:"email,omitempty"`
	Website                string          `json:"website,omitempty"`
	DownPaymentPercentage  decimal.Decimal `json:"down_payment_percentage"`
	InterestRatePercentage decimal.Decimal `json:"interest_rate_percentage"`
	Version                int             `json:"version"`
	dto.TimestampResponse
}

// ToProviderResponse converts a domain provider to its response DTO
func ToProviderResponse(p *lending.Provider) *ProviderResponse {
	return &ProviderResponse{
		ID:                     p.ID.String(),
		Name:                   p.Name,
		PhoneNumber:            p.PhoneNumber,
		Email:                  p.Email,
		Website:                p.Website,
		DownPaymentPercentage:  p.DownPaymentPercentage,
		InterestRatePercentage: p.InterestRatePercentage,
		Version:                p.Version,
		TimestampResponse: dto.TimestampResponse{
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
	}
}

// CreateProvider registers a new BNPL service provider
func (h *ProviderHandler) CreateProvider(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	provider, err := h.providerService.CreateProvider(c.Request.Context(), tenantID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ToProviderResponse(provider))
}

// GetProvider returns a single provider
func (h *ProviderHandler) GetProvider(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid provider ID")
		return
	}

	provider, err := h.providerService.GetProvider(c.Request.Context(), tenantID, providerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToProviderResponse(provider))
}

// ListProviders returns providers for the tenant, paginated
func (h *ProviderHandler) ListProviders(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}

	result, err := h.providerService.ListProviders(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]*ProviderResponse, 0, len(result.Items))
	for i := range result.Items {
		responses = append(responses, ToProviderResponse(&result.Items[i]))
	}

	h.SuccessWithMeta(c, responses, result.Total, result.Page, result.PageSize)
}

// UpdateProvider replaces a provider's contact details and terms
func (h *ProviderHandler) UpdateProvider(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid provider ID")
		return
	}

	var req ProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	provider, err := h.providerService.UpdateProvider(c.Request.Context(), tenantID, providerID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToProviderResponse(provider))
}

// DeleteProvider removes a provider. Existing loans keep their
// snapshotted terms.
func (h *ProviderHandler) DeleteProvider(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid provider ID")
		return
	}

	if err := h.providerService.DeleteProvider(c.Request.Context(), tenantID, providerID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
