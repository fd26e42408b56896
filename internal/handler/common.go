package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hall-booking/internal/booking"
	"github.com/iliyamo/hall-booking/internal/middleware"
)

// identity builds the caller identity from the JWT values in context.
func identity(c echo.Context) (booking.Identity, bool) {
	id, role, ok := middleware.CurrentUser(c)
	if !ok {
		return booking.Identity{}, false
	}
	return booking.Identity{UserID: id, Role: role}, true
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryUint reads an optional numeric query parameter; zero when absent.
func queryUint(c echo.Context, name string) (uint64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// serverError logs err and answers 500 with a generic message.
func serverError(c echo.Context, log logrus.FieldLogger, err error, msg string) error {
	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Error(msg)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// writeBookingError maps the booking core's errors to HTTP responses.
// Anything unrecognised is logged and reported as 500.
func writeBookingError(c echo.Context, log logrus.FieldLogger, err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "hall is already booked for that time"})
	case errors.Is(err, booking.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is no longer in a state that allows this"})
	case errors.Is(err, booking.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrInvalid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return serverError(c, log, err, "booking operation failed")
}
