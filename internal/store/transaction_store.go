package store

import (
	"context"
	"fmt"
)

type TransactionStore struct {
	db DB
}

type transactionRow struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	Username    *string `db:"username"`
	DeltaTokens int64   `db:"delta_tokens"`
	Reason      string  `db:"reason"`
	Meta        string  `db:"meta"`
	CreatedAt   any     `db:"created_at"`
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, user_id, delta_tokens, reason, meta)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.DeltaTokens, input.Reason, input.Meta,
	)
	return err
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID, reason string, limit, offset int) ([]map[string]any, error) {
	var rows []transactionRow
	query := `
		SELECT id, user_id, delta_tokens, reason, meta, created_at
		FROM transactions
		WHERE user_id = $1
	`
	args := []any{userID}
	param := 2
	if reason != "" {
		query += " AND reason = $2"
		args = append(args, reason)
		param = 3
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(param) + " OFFSET $" + itoa(param+1)
	args = append(args, limit, offset)
	err := s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}
	return transactionRowsToMaps(rows), nil
}

func (s *TransactionStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	var rows []transactionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.user_id, u.username, t.delta_tokens, t.reason, t.meta, t.created_at
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return transactionRowsToMaps(rows), nil
}

// SumByUser returns the net token delta of a user's transaction history.
// A healthy ledger keeps it equal to the wallet balance.
func (s *TransactionStore) SumByUser(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(delta_tokens), 0)
		FROM transactions
		WHERE user_id = $1
	`, userID)
	return sum, err
}

type TransactionInput struct {
	ID          string
	UserID      string
	DeltaTokens int64
	Reason      string
	Meta        string
}

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}

func derefStringPtr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func transactionRowsToMaps(rows []transactionRow) []map[string]any {
	maps := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		maps = append(maps, map[string]any{
			"id":           row.ID,
			"user_id":      row.UserID,
			"username":     derefStringPtr(row.Username),
			"delta_tokens": row.DeltaTokens,
			"reason":       row.Reason,
			"meta":         row.Meta,
			"created_at":   row.CreatedAt,
		})
	}
	return maps
}
