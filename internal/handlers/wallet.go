package handlers

import (
	"encoding/json"
	"net/http"

	"billing/internal/middleware"
	"billing/internal/services"
	"billing/internal/validator"
)

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load wallet")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"balance_tokens": balance})
}

type topUpRequest struct {
	Millions int64 `json:"millions"`
	Dev      bool  `json:"dev"`
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req := topUpRequest{Millions: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	// dev top-ups only exist outside production
	dev := req.Dev && h.cfg.IsDevelopment()
	result, err := h.service.TopUp(r.Context(), userID, req.Millions, dev)
	if err != nil {
		if err == services.ErrInvalidAmount {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		respondError(w, http.StatusInternalServerError, "topup_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"added_tokens":   result.AddedTokens,
		"price_usd":      result.PriceUSD.StringFixed(2),
		"balance_tokens": result.BalanceTokens,
	})
}

type chargeRequest struct {
	ModelAlias   string              `json:"model_alias"`
	InputTokens  int64               `json:"input_tokens"`
	OutputTokens int64               `json:"output_tokens"`
	ImageCounts  *imageCountsPayload `json:"image_counts"`
}

func (h *Handler) Charge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateAlias(req.ModelAlias); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_model_alias")
		return
	}
	if req.InputTokens < 0 || req.OutputTokens < 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	result, err := h.service.Charge(r.Context(), services.ChargeRequest{
		UserID:       userID,
		ModelAlias:   req.ModelAlias,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		ImageCounts:  req.ImageCounts.toPricing(),
	})
	if err != nil {
		if err == services.ErrUnknownModel {
			respondError(w, http.StatusNotFound, "unknown_model")
			return
		}
		if err == services.ErrInsufficientBalance {
			respondError(w, http.StatusPaymentRequired, "insufficient_balance")
			return
		}
		if err == services.ErrInvalidAmount {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		respondError(w, http.StatusInternalServerError, "charge_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"usd_cost":       result.CostUSD.StringFixed(4),
		"tokens_debited": result.TokensDebited,
		"balance_tokens": result.BalanceTokens,
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parseLimitOffset(r)
	reason := r.URL.Query().Get("reason")
	transactions, err := h.transactions.ListByUser(r.Context(), userID, reason, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

func (h *Handler) ListUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parseLimitOffset(r)
	records, err := h.usage.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load usage records")
		return
	}
	respondJSON(w, http.StatusOK, records)
}
