package handlers

import (
	"context"

	"billing/internal/pricing"
	"billing/internal/services"
	"billing/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (map[string]any, error)
	GetByID(ctx context.Context, userID string) (map[string]any, error)
}

type WalletStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID string) error
	GetByUser(ctx context.Context, userID string) (store.Wallet, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID, reason string, limit, offset int) ([]map[string]any, error)
	ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error)
	SumByUser(ctx context.Context, userID string) (int64, error)
}

type UsageStore interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error)
}

type CatalogStore interface {
	ListEnabled(ctx context.Context) ([]store.CatalogEntry, error)
	Upsert(ctx context.Context, tx store.Execer, input store.CatalogEntryInput) error
}

type WalletService interface {
	Charge(ctx context.Context, req services.ChargeRequest) (services.ChargeResult, error)
	Credit(ctx context.Context, userID string, tokens int64, reason string, meta map[string]string) (int64, error)
	TopUp(ctx context.Context, userID string, millions int64, dev bool) (services.TopUpResult, error)
	Balance(ctx context.Context, userID string) (int64, error)
}

// keeps the image-counts type out of handler payload structs
type imageCountsPayload struct {
	In  int64 `json:"in"`
	Out int64 `json:"out"`
}

func (p *imageCountsPayload) toPricing() *pricing.ImageCounts {
	if p == nil {
		return nil
	}
	return &pricing.ImageCounts{In: p.In, Out: p.Out}
}
