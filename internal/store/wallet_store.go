package store

import (
	"context"
	"database/sql"
)

type WalletStore struct {
	db DB
}

type Wallet struct {
	ID            string `db:"id"`
	UserID        string `db:"user_id"`
	BalanceTokens int64  `db:"balance_tokens"`
	CreatedAt     any    `db:"created_at"`
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

// GetOrCreateForUpdate locks the user's wallet row for the duration of the
// surrounding transaction, creating a zero-balance wallet on first touch.
// Creation happens inside the same transaction as the caller's balance
// check, so a first debit cannot race wallet creation. newID is used only
// when a wallet does not exist yet.
func (s *WalletStore) GetOrCreateForUpdate(ctx context.Context, tx Tx, userID, newID string) (Wallet, error) {
	row, err := s.getForUpdate(ctx, tx, userID)
	if err == nil {
		return row, nil
	}
	if err != sql.ErrNoRows {
		return Wallet{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id, balance_tokens)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, newID, userID); err != nil {
		return Wallet{}, err
	}
	return s.getForUpdate(ctx, tx, userID)
}

func (s *WalletStore) getForUpdate(ctx context.Context, tx Getter, userID string) (Wallet, error) {
	var row Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, balance_tokens
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) Create(ctx context.Context, tx Execer, id, userID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id, balance_tokens)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, id, userID)
	return err
}

func (s *WalletStore) GetByUser(ctx context.Context, userID string) (Wallet, error) {
	var row Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, balance_tokens, created_at
		FROM wallets
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) UpdateBalance(ctx context.Context, tx Execer, walletID string, balanceTokens int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance_tokens = $1, updated_at = NOW()
		WHERE id = $2
	`, balanceTokens, walletID)
	return err
}
