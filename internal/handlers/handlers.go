package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"billing/internal/config"
	"billing/internal/db"
	"billing/internal/middleware"
	"billing/internal/websocket"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	users        UserStore
	admins       middleware.AdminStore
	wallets      WalletStore
	transactions TransactionStore
	usage        UsageStore
	catalog      CatalogStore
	service      WalletService
	hub          *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, admins middleware.AdminStore, wallets WalletStore, transactions TransactionStore, usage UsageStore, catalog CatalogStore, service WalletService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		admins:       admins,
		wallets:      wallets,
		transactions: transactions,
		usage:        usage,
		catalog:      catalog,
		service:      service,
		hub:          hub,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func valueToString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
