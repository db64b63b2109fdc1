package lending

import (
	"context"
	"sync"
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultLockWait bounds how long a payment request waits for another
// in-flight payment on the same loan before surfacing a retryable conflict.
const DefaultLockWait = 3 * time.Second

// LoanLocker serializes allocation operations per loan. Each loan gets its
// own critical section, so payments against different loans proceed fully
// in parallel. Waiters time out with shared.ErrConcurrencyConflict rather
// than blocking indefinitely; the repository's optimistic version check
// covers contention across processes.
type LoanLocker struct {
	mu      sync.Mutex
	locks   map[uuid.UUID]*loanLock
	maxWait time.Duration
}

type loanLock struct {
	sem  chan struct{}
	refs int
}

// NewLoanLocker creates a locker with the given bounded wait.
// A non-positive maxWait falls back to DefaultLockWait.
func NewLoanLocker(maxWait time.Duration) *LoanLocker {
	if maxWait <= 0 {
		maxWait = DefaultLockWait
	}
	return &LoanLocker{
		locks:   make(map[uuid.UUID]*loanLock),
		maxWait: maxWait,
	}
}

// Acquire enters the loan's critical section, waiting up to the configured
// bound. It returns a release function that must be called exactly once.
func (l *LoanLocker) Acquire(ctx context.Context, loanID uuid.UUID) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[loanID]
	if !ok {
		lk = &loanLock{sem: make(chan struct{}, 1)}
		l.locks[loanID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case lk.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lk.sem
				l.put(loanID, lk)
			})
		}, nil
	case <-timer.C:
		l.put(loanID, lk)
		return nil, shared.ErrConcurrencyConflict
	case <-ctx.Done():
		l.put(loanID, lk)
		return nil, ctx.Err()
	}
}

// put drops one reference and frees the entry once nobody holds or waits on it
func (l *LoanLocker) put(loanID uuid.UUID, lk *loanLock) {
	l.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, loanID)
	}
	l.mu.Unlock()
}
