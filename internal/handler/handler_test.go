package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/config"
	"github.com/centilliongw/portal-api/internal/handler"
	"github.com/centilliongw/portal-api/internal/model"
	"github.com/centilliongw/portal-api/internal/queue"
	"github.com/centilliongw/portal-api/internal/repository"
	"github.com/centilliongw/portal-api/internal/router"
	"github.com/centilliongw/portal-api/internal/utils"
)

// env wires the full route table against the in-memory store, with the rate
// limiter and response cache disabled (nil Redis makes them pass-throughs)
// and the queue publisher replaced by a recorder.
type env struct {
	e     *echo.Echo
	store *repository.MemoryStore
	cfg   config.Config

	mu        sync.Mutex
	published []queue.VerificationEmailEvent
}

func newEnv(t *testing.T) *env {
	t.Helper()
	en := &env{
		store: repository.NewMemoryStore(),
		cfg: config.Config{
			JWTSecret:  "test-secret",
			JWTTTLMin:  60,
			BcryptCost: 4,
		},
	}

	accounts := en.store.Accounts()
	forms := en.store.Forms()
	documents := en.store.Documents()

	authH := handler.NewAuthHandler(&en.cfg, accounts, func(_ context.Context, ev queue.VerificationEmailEvent) error {
		en.mu.Lock()
		defer en.mu.Unlock()
		en.published = append(en.published, ev)
		return nil
	})
	formH := handler.NewFormHandler(forms, accounts, documents)
	docH := handler.NewDocumentHandler(documents, accounts)
	adminH := handler.NewAdminHandler(accounts, forms, documents)

	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	en.e = echo.New()
	router.RegisterRoutes(en.e)
	router.RegisterAuth(en.e, authH, en.cfg.JWTSecret, passthrough)
	router.RegisterPortal(en.e, formH, docH, en.cfg.JWTSecret)
	router.RegisterAdmin(en.e, adminH, formH, accounts, en.cfg.JWTSecret, passthrough)
	return en
}

// do performs a request against the route table and returns the recorder.
func (en *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(bs)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	en.e.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorder body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// register creates an account through the API and returns its id.
func (en *env) register(t *testing.T, name, email string) string {
	t.Helper()
	rec := en.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"fullName": name,
		"email":    email,
		"age":      "30",
		"phone":    "+6611111111",
		"country":  "Thailand",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	a, err := en.store.Accounts().GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("registered account missing: %v", err)
	}
	return a.ID
}

// verify consumes the account's verification token through the API and
// returns the session token the endpoint issues.
func (en *env) verify(t *testing.T, email string) string {
	t.Helper()
	a, err := en.store.Accounts().GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("account %s: %v", email, err)
	}
	if a.VerificationToken == nil {
		t.Fatalf("account %s has no verification token", email)
	}
	rec := en.do(t, http.MethodGet, "/api/auth/verify-email?token="+*a.VerificationToken, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	return decode(t, rec)["token"].(string)
}

// onboard registers, verifies and sets a password; returns id and a fresh
// login token.
func (en *env) onboard(t *testing.T, name, email, password string) (string, string) {
	t.Helper()
	id := en.register(t, name, email)
	tok := en.verify(t, email)

	rec := en.do(t, http.MethodPost, "/api/auth/change-password", tok, map[string]any{
		"newPassword": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set password: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = en.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	return id, decode(t, rec)["token"].(string)
}

// admin seeds a verified admin account directly and mints its session token.
func (en *env) admin(t *testing.T) (string, string) {
	t.Helper()
	hash, err := utils.HashPassword("admin-pass", en.cfg.BcryptCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a := model.Account{
		ID:           "admin_1",
		FullName:     "Portal Admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		IsVerified:   true,
		PasswordSet:  true,
		Role:         model.RoleAdmin,
	}
	if err := en.store.Accounts().Create(context.Background(), a); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	tok, err := utils.NewSessionToken(en.cfg.JWTSecret, a.ID, a.Role, en.cfg.JWTTTLMin)
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}
	return a.ID, tok.Token
}

// completeForm fills every required field through the API.
func (en *env) completeForm(t *testing.T, token string) {
	t.Helper()
	rec := en.do(t, http.MethodPost, "/api/treatment-form", token, map[string]any{
		"dateOfBirth":    "1992-04-15",
		"gender":         "Female",
		"occupation":     "Architect",
		"purposeOfVisit": []string{"Cosmetic Surgery"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save form: status %d body %s", rec.Code, rec.Body.String())
	}
}

// uploadRequiredDocuments pushes the three mandatory uploads through the API.
func (en *env) uploadRequiredDocuments(t *testing.T, token string) {
	t.Helper()
	for _, cat := range model.RequiredDocumentCategories {
		rec := en.do(t, http.MethodPost, "/api/documents", token, map[string]any{
			"name":     cat + ".pdf",
			"mimeType": "application/pdf",
			"category": cat,
			"fileData": "JVBERi0xLjQ=", // "%PDF-1.4"
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("upload %s: status %d body %s", cat, rec.Code, rec.Body.String())
		}
	}
}

// publishedEvents snapshots the recorded queue events.
func (en *env) publishedEvents() []queue.VerificationEmailEvent {
	en.mu.Lock()
	defer en.mu.Unlock()
	out := make([]queue.VerificationEmailEvent, len(en.published))
	copy(out, en.published)
	return out
}

// expire backdates an account's verification token.
func (en *env) expireToken(t *testing.T, email string) string {
	t.Helper()
	a, err := en.store.Accounts().GetByEmail(context.Background(), email)
	if err != nil || a.VerificationToken == nil {
		t.Fatalf("account %s token state: %v", email, err)
	}
	token := *a.VerificationToken
	past := time.Now().Add(-time.Hour)
	// Recreate the expiry in the past through the store's own mutation path.
	if err := en.store.ExpireVerification(a.ID, past); err != nil {
		t.Fatalf("expire token: %v", err)
	}
	return token
}
