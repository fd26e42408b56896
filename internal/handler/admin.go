package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hall-booking/internal/booking"
	"github.com/iliyamo/hall-booking/internal/config"
	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/repository"
	"github.com/iliyamo/hall-booking/internal/utils"
)

const maxPageSize = 100

// AdminHandler bundles the admin-only endpoints: booking decisions and
// listings, requester accounts and reports.
type AdminHandler struct {
	Cfg      config.Config
	Core     *booking.Service
	Bookings *repository.BookingRepo
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Reports  *repository.ReportRepo
	Log      logrus.FieldLogger
}

// NewAdminHandler constructs an AdminHandler and panics if a dependency is nil.
func NewAdminHandler(cfg config.Config, core *booking.Service, bookings *repository.BookingRepo, users *repository.UserRepo, tokens *repository.TokenRepo, reports *repository.ReportRepo, log logrus.FieldLogger) *AdminHandler {
	if core == nil || bookings == nil || users == nil || tokens == nil || reports == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Core: core, Bookings: bookings, Users: users, Tokens: tokens, Reports: reports, Log: log}
}

// ---- Bookings ----

// Pending handles GET /v1/admin/bookings/pending, oldest first.
func (h *AdminHandler) Pending(c echo.Context) error {
	list, err := h.Bookings.ListPending(c.Request().Context())
	if err != nil {
		return serverError(c, h.Log, err, "could not list bookings")
	}
	return c.JSON(http.StatusOK, list)
}

// ListBookings handles GET /v1/admin/bookings with pagination and filters.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if size < 1 {
		size = 20
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	switch model.BookingStatus(status) {
	case "", model.StatusPending, model.StatusApproved, model.StatusRejected, model.StatusCancelled:
	default:
		return badRequest(c, "status must be one of PENDING, APPROVED, REJECTED, CANCELLED")
	}
	hallID, err := queryUint(c, "hall_id")
	if err != nil {
		return badRequest(c, "invalid hall_id")
	}

	items, total, err := h.Bookings.Search(c.Request().Context(), repository.BookingQuery{
		Status:   status,
		HallID:   hallID,
		Search:   c.QueryParam("q"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return serverError(c, h.Log, err, "could not list bookings")
	}
	pages := (total + int64(size) - 1) / int64(size)
	return c.JSON(http.StatusOK, echo.Map{
		"items":       items,
		"page":        page,
		"page_size":   size,
		"total":       total,
		"total_pages": pages,
	})
}

type decisionReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Approve handles POST /v1/admin/bookings/:id/approve.
func (h *AdminHandler) Approve(c echo.Context) error {
	return h.decide(c, booking.Approve)
}

// Reject handles POST /v1/admin/bookings/:id/reject.  A reason is required.
func (h *AdminHandler) Reject(c echo.Context) error {
	return h.decide(c, booking.Reject)
}

func (h *AdminHandler) decide(c echo.Context, d booking.Decision) error {
	who, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req decisionReq
	if c.Request().ContentLength != 0 {
		if ok, err := bindValid(c, &req); !ok {
			return err
		}
	}
	b, err := h.Core.DecideBooking(c.Request().Context(), who, id, d, req.Reason)
	if err != nil {
		return writeBookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles POST /v1/admin/bookings/:id/cancel.
func (h *AdminHandler) Cancel(c echo.Context) error {
	who, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	b, err := h.Core.CancelBooking(c.Request().Context(), who, id)
	if err != nil {
		return writeBookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Logs handles GET /v1/admin/logs: the latest booking activity.
func (h *AdminHandler) Logs(c echo.Context) error {
	list, err := h.Bookings.ListRecentActivity(c.Request().Context(), 100)
	if err != nil {
		return serverError(c, h.Log, err, "could not load activity")
	}
	return c.JSON(http.StatusOK, list)
}

// ---- Requester accounts ----

type createRequesterReq struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	DepartmentID *uint64 `json:"department_id" validate:"required"`
}

type setActiveReq struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ListRequesters handles GET /v1/admin/requesters.
func (h *AdminHandler) ListRequesters(c echo.Context) error {
	list, err := h.Users.ListByRole(c.Request().Context(), model.RoleRequester)
	if err != nil {
		return serverError(c, h.Log, err, "could not list requesters")
	}
	return c.JSON(http.StatusOK, list)
}

// CreateRequester handles POST /v1/admin/requesters.
func (h *AdminHandler) CreateRequester(c echo.Context) error {
	var req createRequesterReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if len(req.Password) < utils.PasswordMinLength {
		return badRequest(c, "password must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, repository.NewAccount{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         model.RoleRequester,
		DepartmentID: req.DepartmentID,
	}, h.Cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, repository.ErrDepartmentNotFound):
		return badRequest(c, "department not found")
	case err != nil:
		return serverError(c, h.Log, err, "create user failed")
	}
	acc, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return serverError(c, h.Log, err, "load user failed")
	}
	return c.JSON(http.StatusCreated, acc)
}

// SetRequesterActive handles PATCH /v1/admin/requesters/:id/active.
// Deactivation also revokes the account's refresh tokens.
func (h *AdminHandler) SetRequesterActive(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req setActiveReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Users.SetActive(ctx, id, model.RoleRequester, *req.IsActive); {
	case errors.Is(err, repository.ErrAccountNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "requester not found"})
	case err != nil && !errors.Is(err, repository.ErrNoChange):
		return serverError(c, h.Log, err, "update user failed")
	}
	if !*req.IsActive {
		if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
			h.Log.WithError(err).WithField("user_id", id).Warn("could not revoke sessions of deactivated account")
		}
	}
	acc, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return serverError(c, h.Log, err, "load user failed")
	}
	return c.JSON(http.StatusOK, acc)
}

// ---- Reports ----

// Report handles GET /v1/admin/reports.
func (h *AdminHandler) Report(c echo.Context) error {
	r, err := h.Reports.Summary(c.Request().Context())
	if err != nil {
		return serverError(c, h.Log, err, "could not build report")
	}
	return c.JSON(http.StatusOK, r)
}

// Stats handles GET /v1/admin/stats: 30-day figures plus the next five
// active bookings.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	now := time.Now()
	s, err := h.Reports.Stats(ctx, now)
	if err != nil {
		return serverError(c, h.Log, err, "could not build stats")
	}
	s.Upcoming, err = h.Bookings.ListUpcoming(ctx, now.Format("2006-01-02"), 5)
	if err != nil {
		return serverError(c, h.Log, err, "could not list upcoming bookings")
	}
	return c.JSON(http.StatusOK, s)
}
