package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hall-booking/internal/booking"
	"github.com/iliyamo/hall-booking/internal/config"
	"github.com/iliyamo/hall-booking/internal/handler"
	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/repository"
	"github.com/iliyamo/hall-booking/internal/utils"
)

const secret = "router-secret"

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	halls := repository.NewHallRepo(db)
	bookings := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	core := booking.NewService(halls, bookings, nil)
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 5, RefreshTTLDays: 1}

	e := echo.New()
	e.Validator = handler.NewRequestValidator()
	g := Guards{JWTSecret: secret}
	hallH := handler.NewHallHandler(halls, bookings, core, nil, log)
	RegisterRoutes(e, db)
	RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), g)
	RegisterPublic(e, hallH, handler.NewDepartmentHandler(repository.NewDepartmentRepo(db), log), g)
	RegisterBookings(e, handler.NewBookingHandler(core, bookings, log), g)
	RegisterAdmin(e, handler.NewAdminHandler(cfg, core, bookings, users, tokens, repository.NewReportRepo(db), log), hallH, g)
	return e
}

func call(e *echo.Echo, method, path string, id uint64, role model.Role) int {
	req := httptest.NewRequest(method, path, nil)
	if id != 0 {
		tok, _ := utils.NewAccessToken(secret, model.Account{ID: id, Role: role}, 5)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e := newServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/v1/admin/bookings"},
		{http.MethodPost, "/v1/admin/bookings/1/approve"},
		{http.MethodPost, "/v1/admin/halls"},
		{http.MethodGet, "/v1/admin/stats"},
		{http.MethodPatch, "/v1/admin/requesters/4/active"},
	}
	for _, p := range paths {
		assert.Equal(t, http.StatusUnauthorized, call(e, p.method, p.path, 0, ""), p.path)
		assert.Equal(t, http.StatusForbidden, call(e, p.method, p.path, 7, model.RoleRequester), p.path)
	}
}

func TestBookingRoutesRequireSession(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/bookings/mine", 0, ""))
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/halls/1/availability", 0, ""))
	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodGet, "/v1/halls/1/availability", 7, model.RoleRequester))
	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodGet, "/v1/bookings/abc", 7, model.RoleRequester))
}

func TestHealthRoute(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", 0, ""))
}
