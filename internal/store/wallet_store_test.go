package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestWalletStoreGetOrCreateForUpdateExisting(t *testing.T) {
	ctx := context.Background()
	store := NewWalletStore(stubDB{})
	tx := stubTx{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected row lock, got query: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*Wallet) = Wallet{ID: "wallet-1", UserID: "user-1", BalanceTokens: 500}
			return nil
		},
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			t.Fatalf("unexpected insert for existing wallet: %s", query)
			return stubResult{}, nil
		},
	}
	wallet, err := store.GetOrCreateForUpdate(ctx, tx, "user-1", "new-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.ID != "wallet-1" || wallet.BalanceTokens != 500 {
		t.Fatalf("unexpected wallet: %#v", wallet)
	}
}

func TestWalletStoreGetOrCreateForUpdateCreates(t *testing.T) {
	ctx := context.Background()
	store := NewWalletStore(stubDB{})
	gets := 0
	inserted := false
	tx := stubTx{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			gets++
			if gets == 1 {
				return sql.ErrNoRows
			}
			*dest.(*Wallet) = Wallet{ID: "new-id", UserID: "user-1", BalanceTokens: 0}
			return nil
		},
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO wallets") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != "new-id" || args[1] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			inserted = true
			return stubResult{rows: 1}, nil
		},
	}
	wallet, err := store.GetOrCreateForUpdate(ctx, tx, "user-1", "new-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Fatal("expected wallet insert")
	}
	if gets != 2 {
		t.Fatalf("expected re-select after insert, got %d gets", gets)
	}
	if wallet.BalanceTokens != 0 {
		t.Fatalf("expected zero balance, got %d", wallet.BalanceTokens)
	}
}

func TestWalletStoreUpdateBalance(t *testing.T) {
	ctx := context.Background()
	store := NewWalletStore(stubDB{})
	called := false
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE wallets") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != int64(700) || args[1] != "wallet-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			called = true
			return stubResult{rows: 1}, nil
		},
	}
	if err := store.UpdateBalance(ctx, execer, "wallet-1", 700); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected update")
	}
}

func TestWalletStoreGetByUser(t *testing.T) {
	ctx := context.Background()
	store := NewWalletStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM wallets") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*Wallet) = Wallet{ID: "wallet-1", UserID: "user-1", BalanceTokens: 42}
			return nil
		},
	})
	wallet, err := store.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.BalanceTokens != 42 {
		t.Fatalf("unexpected balance: %d", wallet.BalanceTokens)
	}
}
