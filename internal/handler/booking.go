package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hall-booking/internal/booking"
	"github.com/iliyamo/hall-booking/internal/repository"
)

// BookingHandler serves the requester-facing booking endpoints.  Admins
// may use them too; the core decides what each caller is allowed to do.
type BookingHandler struct {
	Core     *booking.Service
	Bookings *repository.BookingRepo
	Log      logrus.FieldLogger
}

// NewBookingHandler constructs a BookingHandler and panics if a dependency is nil.
func NewBookingHandler(core *booking.Service, bookings *repository.BookingRepo, log logrus.FieldLogger) *BookingHandler {
	if core == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Core: core, Bookings: bookings, Log: log}
}

type createBookingReq struct {
	HallID    uint64 `json:"hall_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Purpose   string `json:"purpose" validate:"required"`
	Attendees uint32 `json:"attendees" validate:"required,gt=0"`
}

type updateBookingReq struct {
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   *string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Purpose   *string `json:"purpose"`
	Attendees *uint32 `json:"attendees" validate:"omitempty,gt=0"`
}

// Create handles POST /v1/bookings.  The purpose length and the time
// window are enforced by the core so the limits stay configurable.
func (h *BookingHandler) Create(c echo.Context) error {
	who, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var req createBookingReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	b, err := h.Core.CreateBooking(c.Request().Context(), who, booking.CreateInput{
		HallID:    req.HallID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Purpose:   req.Purpose,
		Attendees: req.Attendees,
	})
	if err != nil {
		return writeBookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Mine handles GET /v1/bookings/mine, newest first.
func (h *BookingHandler) Mine(c echo.Context) error {
	who, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.Bookings.ListByRequester(c.Request().Context(), who.UserID, who.Role)
	if err != nil {
		return serverError(c, h.Log, err, "could not list bookings")
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/bookings/:id for the owner or an admin.
func (h *BookingHandler) Get(c echo.Context) error {
	who, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx := c.Request().Context()
	if _, err := h.Core.Get(ctx, who, id); err != nil {
		return writeBookingError(c, h.Log, err)
	}
	d, err := h.Bookings.GetDetail(ctx, id)
	if err != nil {
		return serverError(c, h.Log, err, "could not load booking")
	}
	return c.JSON(http.StatusOK, d)
}

// Update handles PATCH /v1/bookings/:id while the booking is pending.
func (h *BookingHandler) Update(c echo.Context) error {
	who, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req updateBookingReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	b, err := h.Core.UpdateBooking(c.Request().Context(), who, id, booking.UpdateInput{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Purpose:   req.Purpose,
		Attendees: req.Attendees,
	})
	if err != nil {
		return writeBookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles POST /v1/bookings/:id/cancel and DELETE /v1/bookings/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
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
