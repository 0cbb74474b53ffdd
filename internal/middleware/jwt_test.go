package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/utils"
)

const jwtTestSecret = "jwt-test-secret"

func newAuthedEcho() *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"id":   c.Get("account_id"),
			"role": c.Get("role"),
		})
	}, JWTAuth(jwtTestSecret))
	return e
}

func TestJWTAuthAcceptsHeaderAndCookie(t *testing.T) {
	e := newAuthedEcho()
	tok, err := utils.NewSessionToken(jwtTestSecret, "user_1", "user", 60)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	// Authorization header.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("header token: status %d body %s", rec.Code, rec.Body.String())
	}

	// Cookie fallback for browser clients.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok.Token})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie token: status %d", rec.Code)
	}
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	e := newAuthedEcho()

	wrongSecret, _ := utils.NewSessionToken("some-other-secret", "user_1", "user", 60)
	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "user"})
	noSubSigned, _ := noSub.SignedString([]byte(jwtTestSecret))
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user_1", "role": "admin",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"missing":      "",
		"garbage":      "not.a.jwt",
		"wrong secret": wrongSecret.Token,
		"no subject":   noSubSigned,
		"alg none":     unsigned,
	}
	for name, raw := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if raw != "" {
			req.Header.Set("Authorization", "Bearer "+raw)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status %d, want 401", name, rec.Code)
		}
	}
}
