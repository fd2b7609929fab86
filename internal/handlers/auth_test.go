package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"billing/internal/auth"
	"billing/internal/store"

	"github.com/lib/pq"
)

func TestRegisterCreatesUserAndWallet(t *testing.T) {
	userCreated := false
	walletCreated := false
	var createdUserID string
	handler := newTestHandler(fakeTxRunner{}, testConfig("test"), stubUserStore{
		createFn: func(_ context.Context, _ store.Execer, id, username, email, passwordHash string) error {
			if username != "newkid" || email != "newkid@example.com" {
				t.Fatalf("unexpected user: %s %s", username, email)
			}
			if passwordHash == "supersecret" {
				t.Fatal("password stored in plain text")
			}
			createdUserID = id
			userCreated = true
			return nil
		},
	}, stubWalletStore{
		createFn: func(_ context.Context, _ store.Execer, _, userID string) error {
			if userID != createdUserID {
				t.Fatalf("wallet owner mismatch: %s vs %s", userID, createdUserID)
			}
			walletCreated = true
			return nil
		},
	}, stubTransactionStore{}, stubUsageStore{}, stubCatalogStore{}, stubService{})

	body := `{"username":"newkid","email":"newkid@example.com","password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !userCreated || !walletCreated {
		t.Fatal("expected user and wallet creation")
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["token"] == "" {
		t.Fatal("expected token in response")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, testConfig("test"), stubUserStore{
		createFn: func(context.Context, store.Execer, string, string, string, string) error {
			return &pq.Error{Code: "23505"}
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubUsageStore{}, stubCatalogStore{}, stubService{})

	body := `{"username":"newkid","email":"newkid@example.com","password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, testConfig("test"), stubUserStore{}, stubWalletStore{}, stubTransactionStore{}, stubUsageStore{}, stubCatalogStore{}, stubService{})
	body := `{"username":"newkid","email":"newkid@example.com","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("supersecret")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	handler := newTestHandler(fakeTxRunner{}, testConfig("test"), stubUserStore{
		getByEmailFn: func(_ context.Context, email string) (map[string]any, error) {
			if email != "kid@example.com" {
				t.Fatalf("unexpected email: %s", email)
			}
			return map[string]any{"id": "user-1", "password_hash": hash}, nil
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubUsageStore{}, stubCatalogStore{}, stubService{})

	body := `{"email":"kid@example.com","password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["token"] == "" {
		t.Fatal("expected token in response")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("supersecret")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	handler := newTestHandler(fakeTxRunner{}, testConfig("test"), stubUserStore{
		getByEmailFn: func(context.Context, string) (map[string]any, error) {
			return map[string]any{"id": "user-1", "password_hash": hash}, nil
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubUsageStore{}, stubCatalogStore{}, stubService{})

	body := `{"email":"kid@example.com","password":"wrongpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, testConfig("test"), stubUserStore{
		getByEmailFn: func(context.Context, string) (map[string]any, error) {
			return nil, sql.ErrNoRows
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubUsageStore{}, stubCatalogStore{}, stubService{})

	body := `{"email":"nobody@example.com","password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMe(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, testConfig("test"), stubUserStore{
		getByIDFn: func(_ context.Context, userID string) (map[string]any, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user: %s", userID)
			}
			return map[string]any{"id": "user-1", "username": "kid", "email": "kid@example.com", "is_admin": false}, nil
		},
	}, stubWalletStore{}, stubTransactionStore{}, stubUsageStore{}, stubCatalogStore{}, stubService{})

	rr := serveAuthed(handler.Me, authedRequest(t, http.MethodGet, "/auth/me", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["username"] != "kid" || payload["is_admin"] != false {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}
