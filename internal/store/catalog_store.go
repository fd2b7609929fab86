package store

import "context"

type CatalogStore struct {
	db DB
}

// CatalogEntry prices one public model alias. Text-mode entries carry USD per
// million input/output tokens; image-mode entries carry USD per request.
// Price columns are NUMERIC and scanned as strings to avoid float drift.
type CatalogEntry struct {
	ID                  string  `db:"id"`
	Alias               string  `db:"alias"`
	FriendlyName        string  `db:"friendly_name"`
	Provider            string  `db:"provider"`
	ModelName           string  `db:"model_name"`
	PricingMode         string  `db:"pricing_mode"`
	InputPerMillionUSD  *string `db:"input_per_million_usd"`
	OutputPerMillionUSD *string `db:"output_per_million_usd"`
	CachedPerMillionUSD *string `db:"cached_per_million_usd"`
	PerImageInputUSD    *string `db:"per_image_input_usd"`
	PerImageOutputUSD   *string `db:"per_image_output_usd"`
	Enabled             bool    `db:"enabled"`
}

func NewCatalogStore(db DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// GetEnabledByAlias returns sql.ErrNoRows for unknown and disabled aliases
// alike; a disabled entry must not price new usage.
func (s *CatalogStore) GetEnabledByAlias(ctx context.Context, alias string) (CatalogEntry, error) {
	var row CatalogEntry
	err := s.db.GetContext(ctx, &row, `
		SELECT id, alias, friendly_name, provider, model_name, pricing_mode,
		       input_per_million_usd, output_per_million_usd, cached_per_million_usd,
		       per_image_input_usd, per_image_output_usd, enabled
		FROM model_catalog
		WHERE alias = $1 AND enabled = TRUE
	`, alias)
	if err != nil {
		return CatalogEntry{}, err
	}
	return row, nil
}

func (s *CatalogStore) ListEnabled(ctx context.Context) ([]CatalogEntry, error) {
	var rows []CatalogEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, alias, friendly_name, provider, model_name, pricing_mode,
		       input_per_million_usd, output_per_million_usd, cached_per_million_usd,
		       per_image_input_usd, per_image_output_usd, enabled
		FROM model_catalog
		WHERE enabled = TRUE
		ORDER BY alias
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *CatalogStore) Upsert(ctx context.Context, tx Execer, input CatalogEntryInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO model_catalog (id, alias, friendly_name, provider, model_name, pricing_mode,
		                           input_per_million_usd, output_per_million_usd, cached_per_million_usd,
		                           per_image_input_usd, per_image_output_usd, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (alias) DO UPDATE SET
			friendly_name = EXCLUDED.friendly_name,
			provider = EXCLUDED.provider,
			model_name = EXCLUDED.model_name,
			pricing_mode = EXCLUDED.pricing_mode,
			input_per_million_usd = EXCLUDED.input_per_million_usd,
			output_per_million_usd = EXCLUDED.output_per_million_usd,
			cached_per_million_usd = EXCLUDED.cached_per_million_usd,
			per_image_input_usd = EXCLUDED.per_image_input_usd,
			per_image_output_usd = EXCLUDED.per_image_output_usd,
			enabled = EXCLUDED.enabled
	`, input.ID, input.Alias, input.FriendlyName, input.Provider, input.ModelName, input.PricingMode,
		input.InputPerMillionUSD, input.OutputPerMillionUSD, input.CachedPerMillionUSD,
		input.PerImageInputUSD, input.PerImageOutputUSD, input.Enabled)
	return err
}

type CatalogEntryInput struct {
	ID                  string
	Alias               string
	FriendlyName        string
	Provider            string
	ModelName           string
	PricingMode         string
	InputPerMillionUSD  *string
	OutputPerMillionUSD *string
	CachedPerMillionUSD *string
	PerImageInputUSD    *string
	PerImageOutputUSD   *string
	Enabled             bool
}
