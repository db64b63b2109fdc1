package lending

import (
	"context"

	"github.com/bnpl/backend/internal/domain/lending"
	"github.com/bnpl/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LoanLifecycleHandler records loan lifecycle events into the structured
// activity log so payment allocation and loan closure leave an audit trail
type LoanLifecycleHandler struct {
	logger *zap.Logger
}

// NewLoanLifecycleHandler creates a new handler for loan lifecycle events
func NewLoanLifecycleHandler(logger *zap.Logger) *LoanLifecycleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanLifecycleHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LoanLifecycleHandler) EventTypes() []string {
	return []string{
		"LoanCreated",
		"PaymentRecorded",
		"LoanCompleted",
		"LoanCancelled",
		"LoanDefaulted",
	}
}

// Handle processes a loan lifecycle event
func (h *LoanLifecycleHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	base := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("tenant_id", event.TenantID().String()),
	}

	switch e := event.(type) {
	case *lending.LoanCreatedEvent:
		h.logger.Info("loan created",
			append(base,
				zap.String("loan_id", e.LoanID.String()),
				zap.String("loan_number", e.LoanNumber),
				zap.Int64("total_amount", e.TotalAmount),
				zap.Int64("bnpl_amount", e.BNPLAmount),
				zap.Int("installments", e.NumberOfInstallments),
			)...,
		)
	case *lending.PaymentRecordedEvent:
		h.logger.Info("payment recorded",
			append(base,
				zap.String("loan_id", e.LoanID.String()),
				zap.String("loan_number", e.LoanNumber),
				zap.String("receipt_number", e.ReceiptNumber),
				zap.Int64("amount", e.Amount),
				zap.String("target_type", string(e.TargetType)),
				zap.Ints("sequences", e.Sequences),
				zap.Int64("remaining", e.Remaining),
			)...,
		)
	case *lending.LoanCompletedEvent:
		h.logger.Info("loan completed",
			append(base,
				zap.String("loan_id", e.LoanID.String()),
				zap.String("loan_number", e.LoanNumber),
				zap.Int64("bnpl_amount", e.BNPLAmount),
				zap.Time("completed_at", e.CompletedAt),
			)...,
		)
	case *lending.LoanCancelledEvent:
		h.logger.Info("loan cancelled",
			append(base,
				zap.String("loan_id", e.LoanID.String()),
				zap.String("loan_number", e.LoanNumber),
				zap.Int64("amount_paid", e.AmountPaid),
				zap.String("reason", e.Reason),
			)...,
		)
	case *lending.LoanDefaultedEvent:
		h.logger.Warn("loan defaulted",
			append(base,
				zap.String("loan_id", e.LoanID.String()),
				zap.String("loan_number", e.LoanNumber),
				zap.Int64("amount_paid", e.AmountPaid),
				zap.Int64("remaining", e.Remaining),
				zap.String("reason", e.Reason),
			)...,
		)
	default:
		h.logger.Debug("unhandled loan event", append(base, zap.String("event_type", event.EventType()))...)
	}

	return nil
}

// Ensure LoanLifecycleHandler implements shared.EventHandler
var _ shared.EventHandler = (*LoanLifecycleHandler)(nil)
