package handler

import (
	"context"

	applending "github.com/bnpl/backend/internal/application/lending"
	"github.com/bnpl/backend/internal/domain/lending"
	"github.com/bnpl/backend/internal/infrastructure/logger"
	"github.com/bnpl/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LendingHandler handles BNPL purchase and payment endpoints
type LendingHandler struct {
	BaseHandler
	ledgerService *applending.LedgerService
}

// NewLendingHandler creates a new LendingHandler
func NewLendingHandler(ledgerService *applending.LedgerService) *LendingHandler {
	return &LendingHandler{
		ledgerService: ledgerService,
	}
}

// CreatePurchase converts a purchase into an installment loan
func (h *LendingHandler) CreatePurchase(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	loan, err := h.ledgerService.CreatePurchase(c.Request.Context(), tenantID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ToLoanResponse(loan))
}

// GetPurchase returns a loan with its full installment schedule
func (h *LendingHandler) GetPurchase(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid loan ID")
		return
	}

	loan, err := h.ledgerService.GetPurchase(c.Request.Context(), tenantID, loanID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToLoanResponse(loan))
}

// ListPurchases returns loans for the tenant, filtered and paginated
func (h *LendingHandler) ListPurchases(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ListPurchasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := req.ToFilter()
	result, err := h.ledgerService.ListPurchases(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, ToLoanListResponse(result.Items), result.Total, result.Page, result.PageSize)
}

// MakePayment applies one payment event against a loan
func (h *LendingHandler) MakePayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid loan ID")
		return
	}

	var req MakePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.MakePayment(c.Request.Context(), tenantID, loanID, cmd)
	if err != nil {
		logger.L(c.Request.Context()).Warn("payment rejected",
			zap.String("loan_id", loanID.String()),
			zap.Error(err),
		)
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToPaymentResultResponse(result))
}

// CancelPurchase closes a loan by cancellation
func (h *LendingHandler) CancelPurchase(c *gin.Context) {
	h.closeLoan(c, h.ledgerService.CancelLoan)
}

// MarkDefaulted closes a loan by default
func (h *LendingHandler) MarkDefaulted(c *gin.Context) {
	h.closeLoan(c, h.ledgerService.MarkDefaulted)
}

// closeLoan handles the shared shape of the cancel and default endpoints
func (h *LendingHandler) closeLoan(c *gin.Context, action func(ctx context.Context, tenantID, loanID uuid.UUID, reason string) (*lending.Loan, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid loan ID")
		return
	}

	var req CloseLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		middleware.HandleValidationError(c, err)
		return
	}

	loan, err := action(c.Request.Context(), tenantID, loanID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToLoanResponse(loan))
}
