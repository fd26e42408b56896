package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hall-booking/internal/config"
	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, id uint64, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, model.Account{ID: id, Role: role}, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func whoAmI(c echo.Context) error {
	id, role, ok := CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": role, "ok": ok})
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, JWTAuth(secret))

	t.Run("missing header", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing bearer token")
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token sets numeric id", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", bearer(t, 77, model.RoleRequester))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":77,"role":"REQUESTER","ok":true}`, rec.Body.String())
	})
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoAmI, JWTAuth(secret), RequireRole(model.RoleAdmin))

	rec := serve(e, http.MethodGet, "/admin", bearer(t, 2, model.RoleRequester))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, http.MethodGet, "/admin", bearer(t, 1, model.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user"}

	req := httptest.NewRequest(http.MethodGet, "/v1/bookings/mine", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "rl:ip:10.0.0.9:user:anon", buildRateKey(cfg, c))

	c.Set(ctxUserID, uint64(15))
	assert.Equal(t, "rl:ip:10.0.0.9:user:15", buildRateKey(cfg, c))
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	e := echo.New()
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "fine") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, log),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, "halls", log))

	rec := serve(e, http.MethodGet, "/ok", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))

	// nil client invalidation is a no-op
	NewCacheInvalidator(config.CacheConfig{Prefix: "cache"}, nil, log).Invalidate(context.Background(), "halls")
}

func TestPayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "short and stout") })

	rec := serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"level":"warning"`)
}
