package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"billing/internal/auth"
	"billing/internal/config"
	"billing/internal/middleware"
	"billing/internal/services"
	"billing/internal/store"
	"billing/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (map[string]any, error)
	getByIDFn    func(ctx context.Context, userID string) (map[string]any, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubAdminStore struct {
	isAdminFn func(ctx context.Context, userID string) (bool, error)
}

func (s stubAdminStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if s.isAdminFn == nil {
		return false, nil
	}
	return s.isAdminFn(ctx, userID)
}

type stubWalletStore struct {
	createFn    func(ctx context.Context, tx store.Execer, id, userID string) error
	getByUserFn func(ctx context.Context, userID string) (store.Wallet, error)
}

func (s stubWalletStore) Create(ctx context.Context, tx store.Execer, id, userID string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, userID)
}

func (s stubWalletStore) GetByUser(ctx context.Context, userID string) (store.Wallet, error) {
	if s.getByUserFn == nil {
		return store.Wallet{}, nil
	}
	return s.getByUserFn(ctx, userID)
}

type stubTransactionStore struct {
	listByUserFn func(ctx context.Context, userID, reason string, limit, offset int) ([]map[string]any, error)
	listAllFn    func(ctx context.Context, limit, offset int) ([]map[string]any, error)
	sumByUserFn  func(ctx context.Context, userID string) (int64, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, reason string, limit, offset int) ([]map[string]any, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, reason, limit, offset)
}

func (s stubTransactionStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

func (s stubTransactionStore) SumByUser(ctx context.Context, userID string) (int64, error) {
	if s.sumByUserFn == nil {
		return 0, nil
	}
	return s.sumByUserFn(ctx, userID)
}

type stubUsageStore struct {
	listByUserFn func(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error)
}

func (s stubUsageStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

type stubCatalogStore struct {
	listEnabledFn func(ctx context.Context) ([]store.CatalogEntry, error)
	upsertFn      func(ctx context.Context, tx store.Execer, input store.CatalogEntryInput) error
}

func (s stubCatalogStore) ListEnabled(ctx context.Context) ([]store.CatalogEntry, error) {
	if s.listEnabledFn == nil {
		return nil, nil
	}
	return s.listEnabledFn(ctx)
}

func (s stubCatalogStore) Upsert(ctx context.Context, tx store.Execer, input store.CatalogEntryInput) error {
	if s.upsertFn == nil {
		return nil
	}
	return s.upsertFn(ctx, tx, input)
}

type stubService struct {
	chargeFn  func(ctx context.Context, req services.ChargeRequest) (services.ChargeResult, error)
	creditFn  func(ctx context.Context, userID string, tokens int64, reason string, meta map[string]string) (int64, error)
	topUpFn   func(ctx context.Context, userID string, millions int64, dev bool) (services.TopUpResult, error)
	balanceFn func(ctx context.Context, userID string) (int64, error)
}

func (s stubService) Charge(ctx context.Context, req services.ChargeRequest) (services.ChargeResult, error) {
	if s.chargeFn == nil {
		return services.ChargeResult{}, nil
	}
	return s.chargeFn(ctx, req)
}

func (s stubService) Credit(ctx context.Context, userID string, tokens int64, reason string, meta map[string]string) (int64, error) {
	if s.creditFn == nil {
		return 0, nil
	}
	return s.creditFn(ctx, userID, tokens, reason, meta)
}

func (s stubService) TopUp(ctx context.Context, userID string, millions int64, dev bool) (services.TopUpResult, error) {
	if s.topUpFn == nil {
		return services.TopUpResult{}, nil
	}
	return s.topUpFn(ctx, userID, millions, dev)
}

func (s stubService) Balance(ctx context.Context, userID string) (int64, error) {
	if s.balanceFn == nil {
		return 0, nil
	}
	return s.balanceFn(ctx, userID)
}

func testConfig(appEnv string) config.Config {
	return config.Config{
		AppEnv:                appEnv,
		Port:                  "0",
		JWTSecret:             "secret",
		TokenTTL:              time.Minute,
		AllowedOrigins:        "*",
		MillionTokensPriceUSD: "1.00",
		ProfitMargin:          "0.20",
		ImageChargeTokens:     1000,
	}
}

func newTestHandler(txRunner fakeTxRunner, cfg config.Config, users stubUserStore, wallets stubWalletStore, transactions stubTransactionStore, usage stubUsageStore, catalog stubCatalogStore, service stubService) *Handler {
	return New(txRunner, cfg, users, stubAdminStore{}, wallets, transactions, usage, catalog, service, websocket.NewHub())
}

func authedRequest(t *testing.T, method, target string, body string) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("secret", "user-1", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serveAuthed(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}

func stringPtr(value string) *string {
	return &value
}
