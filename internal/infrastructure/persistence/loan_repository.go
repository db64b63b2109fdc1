package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnpl/backend/internal/domain/lending"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/bnpl/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// installmentUpdateColumns are the installment fields payment allocation
// is allowed to change; schedule fields stay immutable after creation.
var installmentUpdateColumns = []string{"amount_paid", "status", "paid_date", "updated_at"}

// GormLoanRepository implements lending.LoanRepository using GORM
type GormLoanRepository struct {
	db *gorm.DB
}

// NewGormLoanRepository creates a new GormLoanRepository
func NewGormLoanRepository(db *gorm.DB) *GormLoanRepository {
	return &GormLoanRepository{db: db}
}

// FindByID finds a loan by its ID
func (r *GormLoanRepository) FindByID(ctx context.Context, id uuid.UUID) (*lending.Loan, error) {
	var model models.LoanModel
	if err := r.loanQuery(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a loan by ID for a specific tenant
func (r *GormLoanRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*lending.Loan, error) {
	var model models.LoanModel
	if err := r.loanQuery(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a loan by its loan number for a tenant
func (r *GormLoanRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, loanNumber string) (*lending.Loan, error) {
	var model models.LoanModel
	if err := r.loanQuery(ctx).
		Where("tenant_id = ? AND loan_number = ?", tenantID, loanNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all loans for a tenant with filtering
func (r *GormLoanRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter lending.LoanFilter) ([]lending.Loan, error) {
	var loanModels []models.LoanModel
	query := r.loanQuery(ctx).Where("tenant_id = ?", tenantID)
	query = r.applyLoanFilter(query, filter)

	if err := query.Find(&loanModels).Error; err != nil {
		return nil, err
	}
	loans := make([]lending.Loan, len(loanModels))
	for i := range loanModels {
		loans[i] = *loanModels[i].ToDomain()
	}
	return loans, nil
}

// CountForTenant counts loans for a tenant matching the filter
func (r *GormLoanRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter lending.LoanFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.LoanModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyLoanFilterWithoutPagination(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates the loan together with its installment schedule
func (r *GormLoanRepository) Save(ctx context.Context, loan *lending.Loan) error {
	model := models.LoanModelFromDomain(loan)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock persists the loan and its installments in one transaction,
// guarded by the optimistic version check. A zero row count means another
// transaction committed first; callers treat that as a retryable conflict.
func (r *GormLoanRepository) SaveWithLock(ctx context.Context, loan *lending.Loan) error {
	model := models.LoanModelFromDomain(loan)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.LoanModel{}).
			Omit(clause.Associations).
			Where("id = ? AND version = ?", loan.ID, loan.Version-1).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range model.Installments {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(installmentUpdateColumns),
			}).Create(&model.Installments[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GenerateLoanNumber generates a unique loan number for the tenant.
// Format: BNPL-YYYYMMDD-XXXXX with a per-day counter.
func (r *GormLoanRepository) GenerateLoanNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("BNPL-%s-", date)

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.LoanModel{}).
		Select("loan_number").
		Where("tenant_id = ? AND loan_number LIKE ?", tenantID, prefix+"%").
		Order("loan_number DESC").
		Limit(1).
		Pluck("loan_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// loanQuery returns the base query with installments preloaded in
// processing order
func (r *GormLoanRepository) loanQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		})
}

// applyLoanFilter applies filter options to the query
func (r *GormLoanRepository) applyLoanFilter(query *gorm.DB, filter lending.LoanFilter) *gorm.DB {
	query = r.applyLoanFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, LoanSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))
}

func (r *GormLoanRepository) applyLoanFilterWithoutPagination(query *gorm.DB, filter lending.LoanFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}
	if filter.Search != "" {
		query = query.Where("loan_number ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormLoanRepository implements lending.LoanRepository
var _ lending.LoanRepository = (*GormLoanRepository)(nil)
