package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bnpl/backend/internal/domain/lending"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/bnpl/backend/internal/domain/shared/valueobject"
	"github.com/bnpl/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func decimalFromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func setupLendingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.LoanModel{}, &models.InstallmentModel{}, &models.ProviderModel{})
	require.NoError(t, err)

	return db
}

func newTestLoan(t *testing.T, tenantID uuid.UUID, loanNumber string) *lending.Loan {
	t.Helper()
	loan, err := lending.NewLoan(
		tenantID,
		loanNumber,
		valueobject.NewMoney(1000, "USD"),
		valueobject.NewMoney(0, "USD"),
		3,
		30,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		nil,
	)
	require.NoError(t, err)
	return loan
}

func TestGormLoanRepository_SaveAndFind(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("round-trips a loan with its installments", func(t *testing.T) {
		loan := newTestLoan(t, tenantID, "BNPL-20260301-00001")
		require.NoError(t, repo.Save(ctx, loan))

		found, err := repo.FindByIDForTenant(ctx, tenantID, loan.ID)
		require.NoError(t, err)
		require.NotNil(t, found)

		assert.Equal(t, loan.LoanNumber, found.LoanNumber)
		assert.Equal(t, int64(1000), found.BNPLAmount)
		assert.Equal(t, lending.LoanStatusActive, found.Status)
		require.Len(t, found.Installments, 3)
		assert.Equal(t, 1, found.Installments[0].Sequence)
		assert.Equal(t, 3, found.Installments[2].Sequence)
		assert.Equal(t, int64(334), found.Installments[2].AmountExpected)
		assert.Empty(t, found.Payments)
	})

	t.Run("returns nil for a missing loan", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("scopes loans to their tenant", func(t *testing.T) {
		loan := newTestLoan(t, tenantID, "BNPL-20260301-00002")
		require.NoError(t, repo.Save(ctx, loan))

		found, err := repo.FindByIDForTenant(ctx, uuid.New(), loan.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("finds by loan number", func(t *testing.T) {
		loan := newTestLoan(t, tenantID, "BNPL-20260301-00003")
		require.NoError(t, repo.Save(ctx, loan))

		found, err := repo.FindByNumber(ctx, tenantID, "BNPL-20260301-00003")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, loan.ID, found.ID)
	})
}

func TestGormLoanRepository_SaveWithLock(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("persists a committed payment and installment state", func(t *testing.T) {
		loan := newTestLoan(t, tenantID, "BNPL-20260301-00010")
		require.NoError(t, repo.Save(ctx, loan))

		loaded, err := repo.FindByIDForTenant(ctx, tenantID, loan.ID)
		require.NoError(t, err)

		_, err = loaded.AllocatePayment(lending.PaymentRequest{
			InstallmentID: &loaded.Installments[0].ID,
			Amount:        333,
			Method:        "CASH",
		})
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		reloaded, err := repo.FindByIDForTenant(ctx, tenantID, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(333), reloaded.AmountPaid)
		assert.Equal(t, 2, reloaded.GetVersion())
		assert.Equal(t, int64(1), reloaded.ReceiptSeq)
		require.Len(t, reloaded.Payments, 1)
		assert.Equal(t, fmt.Sprintf("%s/1", loan.ID), reloaded.Payments[0].ReceiptNumber)
		assert.Equal(t, lending.InstallmentStatusPaid, reloaded.Installments[0].Status)
		assert.NotNil(t, reloaded.Installments[0].PaidDate)
	})

	t.Run("rejects a stale version with a concurrency conflict", func(t *testing.T) {
		loan := newTestLoan(t, tenantID, "BNPL-20260301-00011")
		require.NoError(t, repo.Save(ctx, loan))

		first, err := repo.FindByIDForTenant(ctx, tenantID, loan.ID)
		require.NoError(t, err)
		second, err := repo.FindByIDForTenant(ctx, tenantID, loan.ID)
		require.NoError(t, err)

		_, err = first.AllocatePayment(lending.PaymentRequest{
			InstallmentID: &first.Installments[0].ID, Amount: 333,
		})
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, first))

		// The second copy read the pre-payment state; its version check
		// must fail rather than double-apply.
		_, err = second.AllocatePayment(lending.PaymentRequest{
			InstallmentID: &second.Installments[0].ID, Amount: 333,
		})
		require.NoError(t, err)
		err = repo.SaveWithLock(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		reloaded, err := repo.FindByIDForTenant(ctx, tenantID, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(333), reloaded.AmountPaid)
		assert.Len(t, reloaded.Payments, 1)
	})
}

func TestGormLoanRepository_FindAllForTenant(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	for i := 0; i < 3; i++ {
		loan := newTestLoan(t, tenantID, fmt.Sprintf("BNPL-20260301-%05d", i+1))
		require.NoError(t, repo.Save(ctx, loan))
	}
	completedLoan := newTestLoan(t, tenantID, "BNPL-20260301-00099")
	_, err := completedLoan.AllocatePayment(lending.PaymentRequest{InstallmentsCount: 3, Amount: 1000})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, completedLoan))

	t.Run("lists all loans for the tenant", func(t *testing.T) {
		loans, err := repo.FindAllForTenant(ctx, tenantID, lending.LoanFilter{})
		require.NoError(t, err)
		assert.Len(t, loans, 4)
	})

	t.Run("filters by status", func(t *testing.T) {
		completed := lending.LoanStatusCompleted
		loans, err := repo.FindAllForTenant(ctx, tenantID, lending.LoanFilter{Status: &completed})
		require.NoError(t, err)
		require.Len(t, loans, 1)
		assert.Equal(t, "BNPL-20260301-00099", loans[0].LoanNumber)

		count, err := repo.CountForTenant(ctx, tenantID, lending.LoanFilter{Status: &completed})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("paginates", func(t *testing.T) {
		filter := lending.LoanFilter{}
		filter.Page = 1
		filter.PageSize = 2
		loans, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Len(t, loans, 2)
	})
}

func TestGormLoanRepository_GenerateLoanNumber(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	date := time.Now().Format("20060102")

	first, err := repo.GenerateLoanNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("BNPL-%s-00001", date), first)

	loan := newTestLoan(t, tenantID, first)
	require.NoError(t, repo.Save(ctx, loan))

	second, err := repo.GenerateLoanNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("BNPL-%s-00002", date), second)

	// Counters are per tenant
	other, err := repo.GenerateLoanNumber(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("BNPL-%s-00001", date), other)
}

func TestGormProviderRepository(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormProviderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	newProvider := func(t *testing.T, name string) *lending.Provider {
		t.Helper()
		p, err := lending.NewProvider(tenantID, name, "555-0100", "", "",
			decimalFromInt(20), decimalFromInt(5))
		require.NoError(t, err)
		return p
	}

	t.Run("round-trips a provider", func(t *testing.T) {
		p := newProvider(t, "PayLater Inc")
		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindByIDForTenant(ctx, tenantID, p.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "PayLater Inc", found.Name)
		assert.True(t, found.DownPaymentPercentage.Equal(decimalFromInt(20)))
	})

	t.Run("updates in place", func(t *testing.T) {
		p := newProvider(t, "Before")
		require.NoError(t, repo.Save(ctx, p))

		require.NoError(t, p.Update("After", "", "", "", decimalFromInt(10), decimalFromInt(2)))
		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindByIDForTenant(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", found.Name)
		assert.Equal(t, 2, found.GetVersion())
	})

	t.Run("deletes and reports missing rows", func(t *testing.T) {
		p := newProvider(t, "Gone Soon")
		require.NoError(t, repo.Save(ctx, p))

		require.NoError(t, repo.Delete(ctx, tenantID, p.ID))
		assert.ErrorIs(t, repo.Delete(ctx, tenantID, p.ID), shared.ErrNotFound)

		found, err := repo.FindByIDForTenant(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
