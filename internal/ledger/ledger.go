// Package ledger defines the escrow contract consumed by the auction engine.
// The real ledger lives in the wallet system; this engine only needs
// hold/release/capture semantics, idempotent on the hold id.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger reserves, returns and settles escrowed funds. Release and Capture
// must be idempotent on holdID so callers can retry after transport failures.
type Ledger interface {
	// Hold reserves amount against account and returns the hold id.
	Hold(ctx context.Context, account string, amount decimal.Decimal) (string, error)
	// Release returns a held reservation to the account.
	Release(ctx context.Context, holdID string) error
	// Capture converts a held reservation into a final transfer.
	Capture(ctx context.Context, holdID string) error
}
