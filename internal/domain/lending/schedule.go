package lending

import (
	"time"

	"github.com/google/uuid"
)

// InstallmentBase returns the canonical per-installment amount for a
// financed balance split into count parts: the floor of the division.
// The remainder is absorbed by the final installment.
func InstallmentBase(bnplAmount int64, count int) int64 {
	return bnplAmount / int64(count)
}

// GenerateSchedule splits a financed balance into an ordered list of
// installment obligations. Installments 1..count-1 carry the base amount;
// the last one carries base plus the integer-division remainder, so the
// schedule sums to bnplAmount exactly in minor units. The installment at
// sequence k falls due k*intervalDays after startDate.
func GenerateSchedule(bnplAmount int64, count, intervalDays int, startDate time.Time, currency string) ([]Installment, error) {
	if count < 1 {
		return nil, NewInvalidScheduleError("Number of installments must be at least 1")
	}
	if intervalDays < 1 {
		return nil, NewInvalidScheduleError("Payment interval must be at least 1 day")
	}
	if bnplAmount <= 0 {
		return nil, NewInvalidScheduleError("Financed amount must be positive")
	}
	// Every installment must carry a positive obligation. A base of zero
	// would leave head installments unpayable and pending forever.
	if bnplAmount < int64(count) {
		return nil, NewInvalidScheduleError("Financed amount must cover at least one minor unit per installment")
	}

	base := InstallmentBase(bnplAmount, count)
	now := time.Now()

	installments := make([]Installment, count)
	for i := 0; i < count; i++ {
		sequence := i + 1
		amount := base
		if sequence == count {
			amount = bnplAmount - base*int64(count-1)
		}
		installments[i] = Installment{
			ID:             uuid.New(),
			Sequence:       sequence,
			DueDate:        startDate.AddDate(0, 0, sequence*intervalDays),
			AmountExpected: amount,
			AmountPaid:     0,
			Currency:       currency,
			Status:         InstallmentStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	return installments, nil
}
