package handlers

import (
	"encoding/json"
	"net/http"

	"billing/internal/pricing"
	"billing/internal/store"
	"billing/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.ListEnabled(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load models")
		return
	}
	normalized := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		normalized = append(normalized, map[string]any{
			"alias":                  entry.Alias,
			"friendly_name":          entry.FriendlyName,
			"provider":               entry.Provider,
			"model_name":             entry.ModelName,
			"pricing_mode":           entry.PricingMode,
			"input_per_million_usd":  valueToString(entry.InputPerMillionUSD),
			"output_per_million_usd": valueToString(entry.OutputPerMillionUSD),
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

type upsertModelRequest struct {
	FriendlyName        string  `json:"friendly_name"`
	Provider            string  `json:"provider"`
	ModelName           string  `json:"model_name"`
	PricingMode         string  `json:"pricing_mode"`
	InputPerMillionUSD  *string `json:"input_per_million_usd"`
	OutputPerMillionUSD *string `json:"output_per_million_usd"`
	CachedPerMillionUSD *string `json:"cached_per_million_usd"`
	PerImageInputUSD    *string `json:"per_image_input_usd"`
	PerImageOutputUSD   *string `json:"per_image_output_usd"`
	Enabled             bool    `json:"enabled"`
}

func (h *Handler) AdminUpsertModel(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	if err := validator.ValidateAlias(alias); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_model_alias")
		return
	}
	var req upsertModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.PricingMode != pricing.ModeText && req.PricingMode != pricing.ModeImage {
		respondError(w, http.StatusBadRequest, "invalid_pricing_mode")
		return
	}
	if req.ModelName == "" {
		respondError(w, http.StatusBadRequest, "model_name is required")
		return
	}
	if !validPrices(req.InputPerMillionUSD, req.OutputPerMillionUSD, req.CachedPerMillionUSD, req.PerImageInputUSD, req.PerImageOutputUSD) {
		respondError(w, http.StatusBadRequest, "invalid_price")
		return
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.catalog.Upsert(r.Context(), tx, store.CatalogEntryInput{
			ID:                  uuid.NewString(),
			Alias:               alias,
			FriendlyName:        req.FriendlyName,
			Provider:            req.Provider,
			ModelName:           req.ModelName,
			PricingMode:         req.PricingMode,
			InputPerMillionUSD:  req.InputPerMillionUSD,
			OutputPerMillionUSD: req.OutputPerMillionUSD,
			CachedPerMillionUSD: req.CachedPerMillionUSD,
			PerImageInputUSD:    req.PerImageInputUSD,
			PerImageOutputUSD:   req.PerImageOutputUSD,
			Enabled:             req.Enabled,
		})
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save model")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"alias": alias})
}

func validPrices(prices ...*string) bool {
	for _, price := range prices {
		if price == nil {
			continue
		}
		parsed, err := decimal.NewFromString(*price)
		if err != nil || parsed.IsNegative() {
			return false
		}
	}
	return true
}

func (h *Handler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r)
	transactions, err := h.transactions.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

// AdminReconcile compares a user's wallet balance against the net of their
// transaction history. A non-zero difference means the ledger and the wallet
// disagree and needs investigation.
func (h *Handler) AdminReconcile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	wallet, err := h.wallets.GetByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "wallet not found")
		return
	}
	sum, err := h.transactions.SumByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to sum transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"balance_tokens": wallet.BalanceTokens,
		"ledger_sum":     sum,
		"difference":     wallet.BalanceTokens - sum,
	})
}
