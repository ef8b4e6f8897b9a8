package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"position-auction/internal/auctionerrors"
	"position-auction/utils"
)

type holdState string

const (
	holdOpen     holdState = "open"
	holdReleased holdState = "released"
	holdCaptured holdState = "captured"
)

type ledgerHold struct {
	account string
	amount  decimal.Decimal
	state   holdState
}

// MemoryLedger is an in-process Ledger with per-account balances. It backs
// local runs and tests; production deployments talk to the wallet service.
type MemoryLedger struct {
	mu             sync.Mutex
	balances       map[string]decimal.Decimal
	holds          map[string]ledgerHold
	defaultBalance decimal.Decimal
}

// MemoryOption customizes construction.
type MemoryOption func(*MemoryLedger)

// WithDefaultBalance credits every account this amount the first time it is
// seen, so demo deployments work without an onboarding flow.
func WithDefaultBalance(amount decimal.Decimal) MemoryOption {
	return func(l *MemoryLedger) { l.defaultBalance = amount }
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger(opts ...MemoryOption) *MemoryLedger {
	l := &MemoryLedger{
		balances: make(map[string]decimal.Decimal),
		holds:    make(map[string]ledgerHold),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// seed must be called with the mutex held.
func (l *MemoryLedger) seed(account string) {
	if _, seen := l.balances[account]; !seen && l.defaultBalance.IsPositive() {
		l.balances[account] = l.defaultBalance
	}
}

// Credit adds funds to an account.
func (l *MemoryLedger) Credit(account string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = l.balances[account].Add(amount)
}

// Balance returns the available (unheld) balance of an account.
func (l *MemoryLedger) Balance(account string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seed(account)
	return l.balances[account]
}

// Hold reserves amount against account.
func (l *MemoryLedger) Hold(ctx context.Context, account string, amount decimal.Decimal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", auctionerrors.ErrLedgerUnavailable, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seed(account)
	if l.balances[account].LessThan(amount) {
		return "", fmt.Errorf("hold %s for account %s: %w", amount.String(), account, auctionerrors.ErrInsufficientFunds)
	}
	l.balances[account] = l.balances[account].Sub(amount)

	holdID := utils.GenerateID()
	l.holds[holdID] = ledgerHold{account: account, amount: amount, state: holdOpen}
	return holdID, nil
}

// Release returns held funds to the account. Idempotent on holdID.
func (l *MemoryLedger) Release(ctx context.Context, holdID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", auctionerrors.ErrLedgerUnavailable, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holds[holdID]
	if !ok {
		return fmt.Errorf("release hold %s: %w", holdID, auctionerrors.ErrHoldNotFound)
	}
	switch h.state {
	case holdReleased:
		return nil // retry of an applied release
	case holdCaptured:
		return fmt.Errorf("release hold %s: already captured: %w", holdID, auctionerrors.ErrConflict)
	}

	l.balances[h.account] = l.balances[h.account].Add(h.amount)
	h.state = holdReleased
	l.holds[holdID] = h
	return nil
}

// Capture finalizes held funds. Idempotent on holdID.
func (l *MemoryLedger) Capture(ctx context.Context, holdID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", auctionerrors.ErrLedgerUnavailable, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holds[holdID]
	if !ok {
		return fmt.Errorf("capture hold %s: %w", holdID, auctionerrors.ErrHoldNotFound)
	}
	switch h.state {
	case holdCaptured:
		return nil // retry of an applied capture
	case holdReleased:
		return fmt.Errorf("capture hold %s: already released: %w", holdID, auctionerrors.ErrConflict)
	}

	h.state = holdCaptured
	l.holds[holdID] = h
	return nil
}
