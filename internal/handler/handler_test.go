package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hall-booking/internal/booking"
	"github.com/iliyamo/hall-booking/internal/config"
	"github.com/iliyamo/hall-booking/internal/middleware"
	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/repository"
	"github.com/iliyamo/hall-booking/internal/utils"
)

const secret = "handler-secret"

var hallCols = []string{"id", "name", "location", "capacity", "amenities", "description", "image_url", "is_active", "created_at", "updated_at"}

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func bearer(t *testing.T, id uint64, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, model.Account{ID: id, Role: role}, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func do(e *echo.Echo, method, path, body, auth string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func hallHandler(db *sql.DB) *HallHandler {
	halls := repository.NewHallRepo(db)
	bookings := repository.NewBookingRepo(db)
	core := booking.NewService(halls, bookings, nil)
	return NewHallHandler(halls, bookings, core, nil, quietLog())
}

func TestWriteBookingError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{booking.ErrNotFound, http.StatusNotFound},
		{booking.ErrConflict, http.StatusConflict},
		{booking.ErrInvalidState, http.StatusConflict},
		{booking.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: purpose too short", booking.ErrInvalid), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, writeBookingError(c, quietLog(), tc.err))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeBookingError(c, quietLog(), fmt.Errorf("%w: purpose too short", booking.ErrInvalid)))
	assert.Contains(t, rec.Body.String(), "purpose too short")
}

func TestRequestValidatorMessages(t *testing.T) {
	v := NewRequestValidator()

	err := v.Validate(&createBookingReq{Date: "2026-05-01", StartTime: "10:00", EndTime: "11:00", Purpose: "x", Attendees: 1})
	require.Error(t, err)
	assert.Equal(t, "hall_id is required", err.Error())

	err = v.Validate(&createBookingReq{HallID: 1, Date: "01/05/2026", StartTime: "10:00", EndTime: "11:00", Purpose: "x", Attendees: 1})
	require.Error(t, err)
	assert.Equal(t, "date must match 2006-01-02", err.Error())

	err = v.Validate(&loginReq{Email: "not-an-email", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email", err.Error())

	assert.NoError(t, v.Validate(&createBookingReq{HallID: 1, Date: "2026-05-01", StartTime: "10:00", EndTime: "11:00", Purpose: "x", Attendees: 1}))
}

func TestHealthAndReady(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	e := echo.New()
	e.GET("/healthz", Health)
	e.GET("/readyz", Ready(db))

	rec := do(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	mock.ExpectPing()
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/readyz", "", "").Code)

	mock.ExpectPing().WillReturnError(errors.New("dial tcp: refused"))
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/readyz", "", "").Code)
}

func TestHallGet(t *testing.T) {
	db, mock := newMockDB(t)
	h := hallHandler(db)
	e := newEcho()
	e.GET("/v1/halls/:id", h.Get)

	now := time.Now()
	mock.ExpectQuery(`FROM halls WHERE id = \?`).WithArgs(1).
		WillReturnRows(sqlmock.NewRows(hallCols).AddRow(1, "Board Room", "First Floor", 30, []byte(`["AC"]`), nil, nil, true, now, now))
	mock.ExpectQuery(`FROM halls WHERE id = \?`).WithArgs(2).
		WillReturnRows(sqlmock.NewRows(hallCols).AddRow(2, "Old Annex", "Basement", 20, nil, nil, nil, false, now, now))
	mock.ExpectQuery(`FROM halls WHERE id = \?`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(hallCols))

	rec := do(e, http.MethodGet, "/v1/halls/1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amenities":["AC"]`)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/v1/halls/2", "", "").Code, "inactive halls are hidden")
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/v1/halls/3", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/halls/abc", "", "").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRequiresQuery(t *testing.T) {
	db, _ := newMockDB(t)
	h := hallHandler(db)
	e := newEcho()
	e.GET("/v1/halls/:id/availability", h.Availability)

	rec := do(e, http.MethodGet, "/v1/halls/1/availability?date=2099-05-01&start=10:00", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(e, http.MethodGet, "/v1/halls/1/availability?date=2099-05-01&start=10:00&end=11:00&exclude=x", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingConflict(t *testing.T) {
	db, mock := newMockDB(t)
	halls := repository.NewHallRepo(db)
	bookings := repository.NewBookingRepo(db)
	h := NewBookingHandler(booking.NewService(halls, bookings, nil), bookings, quietLog())

	e := newEcho()
	e.POST("/v1/bookings", h.Create, middleware.JWTAuth(secret))

	now := time.Now()
	mock.ExpectQuery(`FROM halls WHERE id = \?`).WithArgs(1).
		WillReturnRows(sqlmock.NewRows(hallCols).AddRow(1, "Board Room", "First Floor", 30, nil, nil, nil, true, now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`start_time < \? AND end_time > \?`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectRollback()

	body := `{"hall_id":1,"date":"2099-05-01","start_time":"10:00","end_time":"11:00","purpose":"Department seminar","attendees":20}`
	rec := do(e, http.MethodPost, "/v1/bookings", body, bearer(t, 2, model.RoleRequester))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	rec = do(e, http.MethodPost, "/v1/bookings", `{"hall_id":1}`, bearer(t, 2, model.RoleRequester))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date is required")

	rec = do(e, http.MethodPost, "/v1/bookings", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("correct horse", 4)
	require.NoError(t, err)
	cols := []string{"id", "name", "email", "password_hash", "role", "department_id", "department", "is_active", "created_at", "updated_at"}
	now := time.Now()

	db, mock := newMockDB(t)
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), quietLog())
	e := newEcho()
	e.POST("/v1/auth/login", h.Login)

	mock.ExpectQuery(`WHERE u.email=\?`).WithArgs("dana@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(2, "Dana", "dana@example.com", hash, "REQUESTER", nil, nil, true, now, now))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).WithArgs(2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	rec := do(e, http.MethodPost, "/v1/auth/login", `{"email":"Dana@Example.com","password":"correct horse"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"refresh"`)
	assert.NotContains(t, rec.Body.String(), hash)

	mock.ExpectQuery(`WHERE u.email=\?`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(2, "Dana", "dana@example.com", hash, "REQUESTER", nil, nil, true, now, now))
	rec = do(e, http.MethodPost, "/v1/auth/login", `{"email":"dana@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	mock.ExpectQuery(`WHERE u.email=\?`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(2, "Dana", "dana@example.com", hash, "REQUESTER", nil, nil, false, now, now))
	rec = do(e, http.MethodPost, "/v1/auth/login", `{"email":"dana@example.com","password":"correct horse"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	mock.ExpectQuery(`WHERE u.email=\?`).WillReturnRows(sqlmock.NewRows(cols))
	rec = do(e, http.MethodPost, "/v1/auth/login", `{"email":"ghost@example.com","password":"x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}
