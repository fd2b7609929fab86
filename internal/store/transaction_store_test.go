package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestTransactionStoreCreate(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{})
	called := false
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO transactions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 5 {
				t.Fatalf("expected 5 args, got %d", len(args))
			}
			if args[2] != int64(-300) || args[3] != "usage" {
				t.Fatalf("unexpected args: %#v", args)
			}
			called = true
			return stubResult{rows: 1}, nil
		},
	}
	err := store.Create(ctx, execer, TransactionInput{
		ID:          "tx-1",
		UserID:      "user-1",
		DeltaTokens: -300,
		Reason:      "usage",
		Meta:        `{"model_alias":"robot-4o-mini"}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected insert")
	}
}

func TestTransactionStoreListByUserWithReason(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "AND reason = $2") {
				t.Fatalf("expected reason filter, got query: %s", query)
			}
			if len(args) != 4 || args[0] != "user-1" || args[1] != "usage" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]transactionRow) = []transactionRow{
				{ID: "tx-1", UserID: "user-1", DeltaTokens: -300, Reason: "usage", Meta: "{}"},
			}
			return nil
		},
	})
	rows, err := store.ListByUser(ctx, "user-1", "usage", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0]["delta_tokens"] != int64(-300) {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestTransactionStoreListByUserNoReason(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if strings.Contains(query, "AND reason") {
				t.Fatalf("unexpected reason filter: %s", query)
			}
			if len(args) != 3 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.ListByUser(ctx, "user-1", "", 50, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreSumByUser(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "SUM(delta_tokens)") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*int64) = 999_700
			return nil
		},
	})
	sum, err := store.SumByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != 999_700 {
		t.Fatalf("unexpected sum: %d", sum)
	}
}
