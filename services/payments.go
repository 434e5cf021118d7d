package services

import "context"

// PaymentConfirmer is the narrow hook into the external credit ledger. The
// engine calls out before finalizing a paid registration and treats a
// negative confirmation as a registration rejection; it performs no ledger
// bookkeeping of its own.
type PaymentConfirmer interface {
	// ConfirmDebit reports whether the registrant's account covers the
	// entry fee and the debit was accepted.
	ConfirmDebit(ctx context.Context, userID int, amount int) (bool, error)
}

// NoopPaymentConfirmer accepts every debit. Used when no ledger is wired,
// e.g. free-entry deployments and tests.
type NoopPaymentConfirmer struct{}

func (NoopPaymentConfirmer) ConfirmDebit(ctx context.Context, userID int, amount int) (bool, error) {
	return true, nil
}
