package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnpl/backend/internal/domain/lending"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/bnpl/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService owns the authoritative loan + installment set per
// purchase. All payment allocation runs inside a per-loan critical
// section with a bounded wait, backed by the repository's optimistic
// version check, so two concurrent payments against the same loan can
// never both read a stale balance and double-apply.
type LedgerService struct {
	loanRepo       lending.LoanRepository
	providerRepo   lending.ProviderRepository
	locker         *LoanLocker
	receipts       shared.IdempotencyStore
	receiptTTL     time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewLedgerService creates a new LedgerService. The idempotency store and
// event publisher are optional; the loan aggregate remains the
// authoritative duplicate-receipt check either way.
func NewLedgerService(
	loanRepo lending.LoanRepository,
	providerRepo lending.ProviderRepository,
	locker *LoanLocker,
	receipts shared.IdempotencyStore,
	receiptTTL time.Duration,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if receiptTTL <= 0 {
		receiptTTL = 24 * time.Hour
	}
	return &LedgerService{
		loanRepo:       loanRepo,
		providerRepo:   providerRepo,
		locker:         locker,
		receipts:       receipts,
		receiptTTL:     receiptTTL,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// CreatePurchaseCommand carries a validated purchase to convert into a loan
type CreatePurchaseCommand struct {
	ProviderID           *uuid.UUID
	TotalAmount          valueobject.Money
	DownPayment          valueobject.Money
	NumberOfInstallments int
	PaymentIntervalDays  int
	PurchaseDate         time.Time
}

// MakePaymentCommand carries one payment event. Exactly one of
// InstallmentID or InstallmentsCount must be set; ReceiptNumber is
// optional and server-generated when empty.
type MakePaymentCommand struct {
	InstallmentID     *uuid.UUID
	InstallmentsCount int
	Amount            valueobject.Money
	Method            string
	ReceiptNumber     string
}

// MakePaymentResult reports the outcome of a committed payment
type MakePaymentResult struct {
	Loan          *lending.Loan
	Installments  []*lending.Installment
	ReceiptNumber string
}

// CreatePurchase converts a purchase into a loan with its installment
// schedule and persists both atomically.
func (s *LedgerService) CreatePurchase(ctx context.Context, tenantID uuid.UUID, cmd CreatePurchaseCommand) (*lending.Loan, error) {
	var provider *lending.Provider
	if cmd.ProviderID != nil {
		p, err := s.providerRepo.FindByIDForTenant(ctx, tenantID, *cmd.ProviderID)
		if err != nil {
			return nil, fmt.Errorf("failed to load provider: %w", err)
		}
		if p == nil {
			return nil, shared.NewDomainError("PROVIDER_NOT_FOUND", "BNPL service provider not found")
		}
		provider = p
	}

	purchaseDate := cmd.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}

	loanNumber, err := s.loanRepo.GenerateLoanNumber(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate loan number: %w", err)
	}

	loan, err := lending.NewLoan(
		tenantID,
		loanNumber,
		cmd.TotalAmount,
		cmd.DownPayment,
		cmd.NumberOfInstallments,
		cmd.PaymentIntervalDays,
		purchaseDate,
		provider,
	)
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.Save(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	s.logger.Info("loan created",
		zap.String("loan_id", loan.ID.String()),
		zap.String("loan_number", loan.LoanNumber),
		zap.Int64("bnpl_amount", loan.BNPLAmount),
		zap.Int("installments", loan.NumberOfInstallments),
	)

	s.publishEvents(ctx, loan)

	return loan, nil
}

// MakePayment validates and allocates a payment against a loan inside the
// loan's critical section. The commit is all-or-nothing: every rejection
// leaves loan and installment state unchanged.
func (s *LedgerService) MakePayment(ctx context.Context, tenantID, loanID uuid.UUID, cmd MakePaymentCommand) (*MakePaymentResult, error) {
	release, err := s.locker.Acquire(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer release()

	loan, err := s.loanRepo.FindByIDForTenant(ctx, tenantID, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	if loan == nil {
		return nil, shared.ErrNotFound
	}
	// Minor units only compare within one denomination.
	if cmd.Amount.Currency() != loan.Currency {
		return nil, lending.NewCurrencyMismatchError(loan.Currency, cmd.Amount.Currency())
	}

	// Cross-process duplicate pre-check. The aggregate's own payment
	// record scan stays authoritative; a store failure only disables
	// the fast path.
	if cmd.ReceiptNumber != "" && s.receipts != nil {
		processed, err := s.receipts.IsProcessed(ctx, receiptKey(loanID, cmd.ReceiptNumber))
		if err != nil {
			s.logger.Warn("receipt store lookup failed", zap.Error(err))
		} else if processed {
			return nil, lending.NewDuplicateReceiptError(cmd.ReceiptNumber)
		}
	}

	result, err := loan.AllocatePayment(lending.PaymentRequest{
		InstallmentID:     cmd.InstallmentID,
		InstallmentsCount: cmd.InstallmentsCount,
		Amount:            cmd.Amount.Amount(),
		Method:            cmd.Method,
		ReceiptNumber:     cmd.ReceiptNumber,
	})
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.SaveWithLock(ctx, loan); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, shared.ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	if s.receipts != nil {
		if _, err := s.receipts.MarkProcessed(ctx, receiptKey(loanID, result.ReceiptNumber), s.receiptTTL); err != nil {
			s.logger.Warn("failed to mark receipt processed", zap.Error(err))
		}
	}

	s.logger.Info("payment recorded",
		zap.String("loan_id", loan.ID.String()),
		zap.String("receipt_number", result.ReceiptNumber),
		zap.Int64("amount", result.Record.Amount),
		zap.String("loan_status", loan.Status.String()),
	)

	s.publishEvents(ctx, loan)

	return &MakePaymentResult{
		Loan:          loan,
		Installments:  result.Installments,
		ReceiptNumber: result.ReceiptNumber,
	}, nil
}

// GetPurchase returns the loan with its installments. Read-only; no
// allocation logic runs here.
func (s *LedgerService) GetPurchase(ctx context.Context, tenantID, loanID uuid.UUID) (*lending.Loan, error) {
	loan, err := s.loanRepo.FindByIDForTenant(ctx, tenantID, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	if loan == nil {
		return nil, shared.ErrNotFound
	}
	return loan, nil
}

// ListPurchases returns a page of loans for the tenant
func (s *LedgerService) ListPurchases(ctx context.Context, tenantID uuid.UUID, filter lending.LoanFilter) (*shared.Paginated[lending.Loan], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	loans, err := s.loanRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	total, err := s.loanRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count loans: %w", err)
	}

	page := shared.NewPaginated(loans, total, filter.Page, filter.PageSize)
	return &page, nil
}

// CancelLoan closes a loan through an external cancellation action
func (s *LedgerService) CancelLoan(ctx context.Context, tenantID, loanID uuid.UUID, reason string) (*lending.Loan, error) {
	return s.closeLoan(ctx, tenantID, loanID, func(loan *lending.Loan) error {
		return loan.Cancel(reason)
	})
}

// MarkDefaulted closes a loan through an external default action
func (s *LedgerService) MarkDefaulted(ctx context.Context, tenantID, loanID uuid.UUID, reason string) (*lending.Loan, error) {
	return s.closeLoan(ctx, tenantID, loanID, func(loan *lending.Loan) error {
		return loan.MarkDefaulted(reason)
	})
}

func (s *LedgerService) closeLoan(ctx context.Context, tenantID, loanID uuid.UUID, transition func(*lending.Loan) error) (*lending.Loan, error) {
	release, err := s.locker.Acquire(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer release()

	loan, err := s.loanRepo.FindByIDForTenant(ctx, tenantID, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	if loan == nil {
		return nil, shared.ErrNotFound
	}

	if err := transition(loan); err != nil {
		return nil, err
	}

	if err := s.loanRepo.SaveWithLock(ctx, loan); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, shared.ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to commit loan closure: %w", err)
	}

	s.logger.Info("loan closed",
		zap.String("loan_id", loan.ID.String()),
		zap.String("status", loan.Status.String()),
	)

	s.publishEvents(ctx, loan)

	return loan, nil
}

func (s *LedgerService) publishEvents(ctx context.Context, loan *lending.Loan) {
	events := loan.GetDomainEvents()
	if len(events) == 0 || s.eventPublisher == nil {
		loan.ClearDomainEvents()
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	loan.ClearDomainEvents()
}

func receiptKey(loanID uuid.UUID, receiptNumber string) string {
	return fmt.Sprintf("lending:receipt:%s:%s", loanID, receiptNumber)
}
