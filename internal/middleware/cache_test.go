package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/centilliongw/portal-api/internal/config"
)

func cacheTestConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled: true,
		Methods: map[string]bool{http.MethodGet: true},
		TTL:     30 * time.Second,
		Prefix:  "cache:test",
	}
}

func newCachedEcho(t *testing.T, handler echo.HandlerFunc) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	e := echo.New()
	e.GET("/stats", handler, NewRedisCache(cacheTestConfig(), rdb))
	return e, mr
}

func TestCacheMissThenHit(t *testing.T) {
	calls := 0
	e, _ := newCachedEcho(t, func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	})

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first request X-Cache = %q, want MISS", first.Header().Get("X-Cache"))
	}

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second request X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("cached body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	calls := 0
	e, _ := newCachedEcho(t, func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"q": c.QueryParam("page")})
	})

	for _, q := range []string{"?page=1", "?page=2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats"+q, nil))
		if rec.Header().Get("X-Cache") != "MISS" {
			t.Fatalf("query %q should miss, got %q", q, rec.Header().Get("X-Cache"))
		}
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

func TestCacheSkipsErrorResponses(t *testing.T) {
	calls := 0
	e, _ := newCachedEcho(t, func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false})
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
		if rec.Header().Get("X-Cache") == "HIT" {
			t.Fatal("error response served from cache")
		}
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2 (errors are not cached)", calls)
	}
}

func TestCacheSkipsOversizedResponses(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := cacheTestConfig()
	cfg.MaxBodyBytes = 16

	calls := 0
	big := strings.Repeat("x", 64)
	e := echo.New()
	e.GET("/stats", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, big)
	}, NewRedisCache(cfg, rdb))

	// A body over the capture limit must never be cached: a hit would
	// serve only the captured prefix.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
		if got := rec.Header().Get("X-Cache"); got != "MISS" {
			t.Fatalf("request %d X-Cache = %q, want MISS", i, got)
		}
		if rec.Body.String() != big {
			t.Fatalf("request %d body is %d bytes, want %d", i, rec.Body.Len(), len(big))
		}
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

func TestCacheExpires(t *testing.T) {
	calls := 0
	e, mr := newCachedEcho(t, func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, strconv.Itoa(calls))
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stats", nil))
	mr.FastForward(time.Minute) // past the 30s TTL

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("after TTL X-Cache = %q, want MISS", rec.Header().Get("X-Cache"))
	}
}

func TestCacheDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	calls := 0
	e.GET("/stats", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "ok")
	}, NewRedisCache(config.CacheConfig{Enabled: false}, nil))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("pass-through ran handler %d times, want 2", calls)
	}
}
