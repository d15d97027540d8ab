package wallet

import (
	"context"
	"errors"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
)

// Tee records every charge to each wallet in order. A failing wallet does
// not stop the others; all failures are returned together.
type Tee struct {
	wallets []ports.Wallet
}

var _ ports.Wallet = (*Tee)(nil)

func NewTee(wallets ...ports.Wallet) *Tee {
	kept := make([]ports.Wallet, 0, len(wallets))
	for _, w := range wallets {
		if w != nil {
			kept = append(kept, w)
		}
	}
	return &Tee{wallets: kept}
}

func (t *Tee) RecordUsage(ctx context.Context, userID string, usage domain.UsageRecord) error {
	var errs []error
	for _, w := range t.wallets {
		if err := w.RecordUsage(ctx, userID, usage); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
