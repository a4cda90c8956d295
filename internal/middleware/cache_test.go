package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/config"
)

func requestContext(t *testing.T, target, route string, userID int64) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(route)
	if userID > 0 {
		c.Set("user_id", userID)
	}
	return c
}

func TestCacheKeySeparatesUsers(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "parking:cache", KeyStrategy: "route_query"}
	route := "/v1/parking/current"

	keyA := cacheKeyFrom(cfg, requestContext(t, route, route, 1))
	keyB := cacheKeyFrom(cfg, requestContext(t, route, route, 2))
	keyAnon := cacheKeyFrom(cfg, requestContext(t, route, route, 0))

	if keyA == keyB {
		t.Fatalf("users 1 and 2 share cache key %s", keyA)
	}
	if keyA == keyAnon || keyB == keyAnon {
		t.Fatal("unauthenticated requests share a cache key with a user")
	}

	// The same user hitting the same route keys identically, so caching
	// still works where it should.
	if again := cacheKeyFrom(cfg, requestContext(t, route, route, 1)); again != keyA {
		t.Fatalf("key not stable for one user: %s vs %s", keyA, again)
	}
}

func TestCacheKeyIncludesUserForEveryStrategy(t *testing.T) {
	route := "/v1/reservations"
	for _, strategy := range []string{"route", "method_route", "method_route_query", "route_query"} {
		cfg := config.CacheConfig{Prefix: "parking:cache", KeyStrategy: strategy}
		keyA := cacheKeyFrom(cfg, requestContext(t, route, route, 1))
		keyB := cacheKeyFrom(cfg, requestContext(t, route, route, 2))
		if keyA == keyB {
			t.Fatalf("strategy %s keys user-independently: %s", strategy, keyA)
		}
	}
}

func TestCacheKeySeparatesQueries(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "parking:cache", KeyStrategy: "route_query"}
	route := "/v1/slots"

	keyAll := cacheKeyFrom(cfg, requestContext(t, route, route, 1))
	keyFiltered := cacheKeyFrom(cfg, requestContext(t, route+"?status=AVAILABLE", route, 1))
	if keyAll == keyFiltered {
		t.Fatal("query string not reflected in cache key")
	}
}

func TestRateKeyCarriesAuthenticatedUser(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "parking:rl", KeyStrategy: "ip_user_route"}
	route := "/v1/parking/checkin"

	keyUser := buildRateKey(cfg, requestContext(t, route, route, 7))
	keyAnon := buildRateKey(cfg, requestContext(t, route, route, 0))
	if keyUser == keyAnon {
		t.Fatal("limiter key ignores the authenticated user")
	}
}
