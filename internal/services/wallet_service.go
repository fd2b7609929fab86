package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"billing/internal/db"
	"billing/internal/pricing"
	"billing/internal/store"
	"billing/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownModel        = errors.New("unknown or disabled model")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrInvalidAmount       = errors.New("invalid amount")
)

const tokensPerMillion = 1_000_000

type WalletService struct {
	txRunner          db.TxRunner
	walletStore       WalletStore
	txStore           TransactionStore
	usageStore        UsageStore
	catalogStore      CatalogStore
	hub               BalanceHub
	millionPriceUSD   decimal.Decimal
	profitMargin      decimal.Decimal
	imageChargeTokens int64
}

type WalletStore interface {
	GetOrCreateForUpdate(ctx context.Context, tx store.Tx, userID, newID string) (store.Wallet, error)
	UpdateBalance(ctx context.Context, tx store.Execer, walletID string, balanceTokens int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

type UsageStore interface {
	Insert(ctx context.Context, tx store.Execer, input store.UsageRecordInput) error
}

type CatalogStore interface {
	GetEnabledByAlias(ctx context.Context, alias string) (store.CatalogEntry, error)
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

func NewWalletService(txRunner db.TxRunner, walletStore WalletStore, txStore TransactionStore, usageStore UsageStore, catalogStore CatalogStore, hub BalanceHub, millionPriceUSD, profitMargin string, imageChargeTokens int64) *WalletService {
	return &WalletService{
		txRunner:          txRunner,
		walletStore:       walletStore,
		txStore:           txStore,
		usageStore:        usageStore,
		catalogStore:      catalogStore,
		hub:               hub,
		millionPriceUSD:   decimalOr(millionPriceUSD, "1.00"),
		profitMargin:      decimalOr(profitMargin, "0.20"),
		imageChargeTokens: imageChargeTokens,
	}
}

type ChargeRequest struct {
	UserID       string
	ModelAlias   string
	InputTokens  int64
	OutputTokens int64
	ImageCounts  *pricing.ImageCounts
}

type ChargeResult struct {
	CostUSD       decimal.Decimal
	TokensDebited int64
	BalanceTokens int64
}

// Charge debits the user's wallet for one chargeable operation. Cost and
// debit amount are computed before the wallet row is touched; the balance
// check, debit, transaction row and usage record then commit as one unit or
// not at all. Zero-unit charges succeed and write zero-delta bookkeeping.
func (s *WalletService) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.InputTokens < 0 || req.OutputTokens < 0 {
		return ChargeResult{}, ErrInvalidAmount
	}
	if req.ImageCounts != nil && (req.ImageCounts.In < 0 || req.ImageCounts.Out < 0) {
		return ChargeResult{}, ErrInvalidAmount
	}
	row, err := s.catalogStore.GetEnabledByAlias(ctx, req.ModelAlias)
	if err != nil {
		if err == sql.ErrNoRows {
			return ChargeResult{}, ErrUnknownModel
		}
		return ChargeResult{}, err
	}
	entry, err := entryFromCatalog(row)
	if err != nil {
		return ChargeResult{}, err
	}
	costUSD := pricing.Cost(entry, req.InputTokens, req.OutputTokens, req.ImageCounts)
	debit := pricing.DebitTokens(entry, req.InputTokens, req.OutputTokens, s.imageChargeTokens)

	var balanceAfter int64
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.walletStore.GetOrCreateForUpdate(ctx, tx, req.UserID, uuid.NewString())
		if err != nil {
			return err
		}
		if wallet.BalanceTokens < debit {
			return ErrInsufficientBalance
		}
		balanceAfter = wallet.BalanceTokens - debit
		if err := s.walletStore.UpdateBalance(ctx, tx, wallet.ID, balanceAfter); err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]string{
			"model_alias": req.ModelAlias,
			"usd":         costUSD.StringFixed(4),
		})
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:          uuid.NewString(),
			UserID:      req.UserID,
			DeltaTokens: -debit,
			Reason:      "usage",
			Meta:        string(meta),
		}); err != nil {
			return err
		}
		return s.usageStore.Insert(ctx, tx, store.UsageRecordInput{
			ID:           uuid.NewString(),
			UserID:       req.UserID,
			ModelAlias:   req.ModelAlias,
			InputTokens:  req.InputTokens,
			OutputTokens: req.OutputTokens,
			CostUSD:      costUSD.StringFixed(4),
		})
	})
	if err != nil {
		return ChargeResult{}, err
	}
	s.hub.BroadcastBalance(req.UserID, websocket.BalanceUpdate{BalanceTokens: balanceAfter})
	return ChargeResult{CostUSD: costUSD, TokensDebited: debit, BalanceTokens: balanceAfter}, nil
}

// Credit adds tokens to the user's wallet under the same row-lock discipline
// as Charge and appends one positive-delta transaction.
func (s *WalletService) Credit(ctx context.Context, userID string, tokens int64, reason string, meta map[string]string) (int64, error) {
	if tokens < 0 {
		return 0, ErrInvalidAmount
	}
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.walletStore.GetOrCreateForUpdate(ctx, tx, userID, uuid.NewString())
		if err != nil {
			return err
		}
		balanceAfter = wallet.BalanceTokens + tokens
		if err := s.walletStore.UpdateBalance(ctx, tx, wallet.ID, balanceAfter); err != nil {
			return err
		}
		metaJSON, _ := json.Marshal(meta)
		return s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:          uuid.NewString(),
			UserID:      userID,
			DeltaTokens: tokens,
			Reason:      reason,
			Meta:        string(metaJSON),
		})
	})
	if err != nil {
		return 0, err
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{BalanceTokens: balanceAfter})
	return balanceAfter, nil
}

type TopUpResult struct {
	AddedTokens   int64
	PriceUSD      decimal.Decimal
	BalanceTokens int64
}

// TopUp credits whole millions of tokens, priced at the configured base
// price per million plus the profit margin, rounded to cents.
func (s *WalletService) TopUp(ctx context.Context, userID string, millions int64, dev bool) (TopUpResult, error) {
	if millions < 1 {
		return TopUpResult{}, ErrInvalidAmount
	}
	price := s.millionPriceUSD.
		Mul(decimal.NewFromInt(millions)).
		Mul(decimal.NewFromInt(1).Add(s.profitMargin)).
		RoundBank(2)
	tokens := millions * tokensPerMillion
	reason := "topup"
	if dev {
		reason = "topup_dev"
	}
	balance, err := s.Credit(ctx, userID, tokens, reason, map[string]string{
		"price_usd": price.StringFixed(2),
		"millions":  fmt.Sprintf("%d", millions),
	})
	if err != nil {
		return TopUpResult{}, err
	}
	return TopUpResult{AddedTokens: tokens, PriceUSD: price, BalanceTokens: balance}, nil
}

// Balance reads the current token balance, creating a zero wallet on first
// touch inside the same locked section so creation cannot race a debit.
func (s *WalletService) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.walletStore.GetOrCreateForUpdate(ctx, tx, userID, uuid.NewString())
		if err != nil {
			return err
		}
		balance = wallet.BalanceTokens
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func entryFromCatalog(row store.CatalogEntry) (pricing.Entry, error) {
	entry := pricing.Entry{Alias: row.Alias, Mode: row.PricingMode}
	var err error
	if entry.InputPerMillionUSD, err = decimalOrZero(row.InputPerMillionUSD); err != nil {
		return pricing.Entry{}, err
	}
	if entry.OutputPerMillionUSD, err = decimalOrZero(row.OutputPerMillionUSD); err != nil {
		return pricing.Entry{}, err
	}
	if entry.PerImageInputUSD, err = decimalOrZero(row.PerImageInputUSD); err != nil {
		return pricing.Entry{}, err
	}
	if entry.PerImageOutputUSD, err = decimalOrZero(row.PerImageOutputUSD); err != nil {
		return pricing.Entry{}, err
	}
	return entry, nil
}

func decimalOrZero(raw *string) (decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func decimalOr(raw, fallback string) decimal.Decimal {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		value, _ = decimal.NewFromString(fallback)
	}
	return value
}
