package store

import "context"

type UsageStore struct {
	db DB
}

type usageRow struct {
	ID           string `db:"id"`
	UserID       string `db:"user_id"`
	ModelAlias   string `db:"model_alias"`
	InputTokens  int64  `db:"input_tokens"`
	OutputTokens int64  `db:"output_tokens"`
	CostUSD      string `db:"cost_usd"`
	CreatedAt    any    `db:"created_at"`
}

func NewUsageStore(db DB) *UsageStore {
	return &UsageStore{db: db}
}

func (s *UsageStore) Insert(ctx context.Context, tx Execer, input UsageRecordInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO usage_records (id, user_id, model_alias, input_tokens, output_tokens, cost_usd)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, input.ID, input.UserID, input.ModelAlias, input.InputTokens, input.OutputTokens, input.CostUSD)
	return err
}

func (s *UsageStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error) {
	var rows []usageRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, model_alias, input_tokens, output_tokens, cost_usd, created_at
		FROM usage_records
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		records = append(records, map[string]any{
			"id":            row.ID,
			"user_id":       row.UserID,
			"model_alias":   row.ModelAlias,
			"input_tokens":  row.InputTokens,
			"output_tokens": row.OutputTokens,
			"cost_usd":      row.CostUSD,
			"created_at":    row.CreatedAt,
		})
	}
	return records, nil
}

type UsageRecordInput struct {
	ID           string
	UserID       string
	ModelAlias   string
	InputTokens  int64
	OutputTokens int64
	CostUSD      string
}
