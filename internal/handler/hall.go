package handler // handler package contains hall handlers

import (
	"context"
	"errors"   // errors package for comparing sentinels
	"net/http" // http defines status code constants
	"strings"  // strings manipulates and trims text
	"time"

	"github.com/labstack/echo/v4" // echo framework supplies request context
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hall-booking/internal/booking"
	"github.com/iliyamo/hall-booking/internal/middleware"
	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/repository"
)

// Cache tags used by the response cache on public listings.
const (
	CacheTagHalls       = "halls"
	CacheTagDepartments = "departments"
)

// HallHandler serves hall browsing, availability and admin management.
type HallHandler struct {
	Halls    *repository.HallRepo
	Bookings *repository.BookingRepo
	Core     *booking.Service
	Cache    *middleware.CacheInvalidator
	Log      logrus.FieldLogger
}

// NewHallHandler constructs a HallHandler and panics if a dependency is nil.
func NewHallHandler(halls *repository.HallRepo, bookings *repository.BookingRepo, core *booking.Service, cache *middleware.CacheInvalidator, log logrus.FieldLogger) *HallHandler {
	if halls == nil || bookings == nil || core == nil {
		panic("nil dependency passed to NewHallHandler")
	}
	return &HallHandler{Halls: halls, Bookings: bookings, Core: core, Cache: cache, Log: log}
}

type hallBody struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=120"`
	Location    *string  `json:"location" validate:"omitempty,max=255"`
	Capacity    *uint32  `json:"capacity" validate:"omitempty,gt=0"`
	Amenities   []string `json:"amenities" validate:"omitempty,dive,min=1,max=60"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url"`
	IsActive    *bool    `json:"is_active"`
}

// List handles GET /v1/halls: active halls ordered by name.
func (h *HallHandler) List(c echo.Context) error {
	halls, err := h.Halls.List(c.Request().Context(), false)
	if err != nil {
		return serverError(c, h.Log, err, "could not list halls")
	}
	return c.JSON(http.StatusOK, halls)
}

// AdminList handles GET /v1/admin/halls and includes deactivated halls.
func (h *HallHandler) AdminList(c echo.Context) error {
	halls, err := h.Halls.List(c.Request().Context(), true)
	if err != nil {
		return serverError(c, h.Log, err, "could not list halls")
	}
	return c.JSON(http.StatusOK, halls)
}

// Get handles GET /v1/halls/:id.  Deactivated halls are hidden.
func (h *HallHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	hall, err := h.Halls.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrHallNotFound) || (err == nil && !hall.IsActive) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
	}
	if err != nil {
		return serverError(c, h.Log, err, "could not load hall")
	}
	return c.JSON(http.StatusOK, hall)
}

// Availability handles GET /v1/halls/:id/availability?date&start&end&exclude.
func (h *HallHandler) Availability(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	date, start, end := c.QueryParam("date"), c.QueryParam("start"), c.QueryParam("end")
	if date == "" || start == "" || end == "" {
		return badRequest(c, "date, start and end are required")
	}
	exclude, err := queryUint(c, "exclude")
	if err != nil {
		return badRequest(c, "invalid exclude")
	}

	free, err := h.Core.CheckAvailability(c.Request().Context(), id, date, start, end, exclude)
	if err != nil {
		return writeBookingError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hall_id":   id,
		"date":      date,
		"start":     start,
		"end":       end,
		"available": free,
	})
}

// DayBookings handles GET /v1/halls/:id/bookings?date and lists the slots
// taken by active bookings on that date.
func (h *HallHandler) DayBookings(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	date := c.QueryParam("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	ctx := c.Request().Context()
	hall, err := h.Halls.GetByID(ctx, id)
	if errors.Is(err, repository.ErrHallNotFound) || (err == nil && !hall.IsActive) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
	}
	if err != nil {
		return serverError(c, h.Log, err, "could not load hall")
	}

	list, err := h.Bookings.ListActiveOnDate(ctx, id, date, 0)
	if err != nil {
		return serverError(c, h.Log, err, "could not list bookings")
	}
	type slot struct {
		BookingID uint64              `json:"booking_id"`
		Start     string              `json:"start_time"`
		End       string              `json:"end_time"`
		Status    model.BookingStatus `json:"status"`
	}
	out := make([]slot, 0, len(list))
	for _, b := range list {
		out = append(out, slot{BookingID: b.ID, Start: b.StartTime, End: b.EndTime, Status: b.Status})
	}
	return c.JSON(http.StatusOK, echo.Map{"hall_id": id, "date": date, "bookings": out})
}

// Create handles POST /v1/admin/halls.
func (h *HallHandler) Create(c echo.Context) error {
	var body hallBody
	if ok, err := bindValid(c, &body); !ok {
		return err
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		return badRequest(c, "name is required")
	}
	if body.Capacity == nil {
		return badRequest(c, "capacity is required")
	}
	hall := &model.Hall{Amenities: body.Amenities, Capacity: *body.Capacity}
	applyHallBody(hall, body)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if dup, err := h.Halls.ExistsActiveByName(ctx, hall.Name, 0); err != nil {
		return serverError(c, h.Log, err, "db error")
	} else if dup {
		return c.JSON(http.StatusConflict, echo.Map{"error": "an active hall with this name already exists"})
	}
	if err := h.Halls.Create(ctx, hall); err != nil {
		return serverError(c, h.Log, err, "could not create hall")
	}
	h.Cache.Invalidate(ctx, CacheTagHalls)
	return c.JSON(http.StatusCreated, hall)
}

// Update handles PUT/PATCH /v1/admin/halls/:id.  Omitted fields keep their
// current value.
func (h *HallHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body hallBody
	if ok, err := bindValid(c, &body); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hall, err := h.Halls.GetByID(ctx, id)
	if errors.Is(err, repository.ErrHallNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
	}
	if err != nil {
		return serverError(c, h.Log, err, "db error")
	}
	applyHallBody(hall, body)
	if body.Capacity != nil {
		hall.Capacity = *body.Capacity
	}
	if body.Amenities != nil {
		hall.Amenities = body.Amenities
	}

	if hall.IsActive {
		if dup, err := h.Halls.ExistsActiveByName(ctx, hall.Name, hall.ID); err != nil {
			return serverError(c, h.Log, err, "db error")
		} else if dup {
			return c.JSON(http.StatusConflict, echo.Map{"error": "an active hall with this name already exists"})
		}
	}
	switch err := h.Halls.Update(ctx, hall); {
	case errors.Is(err, repository.ErrHallNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
	case err != nil && !errors.Is(err, repository.ErrNoChange):
		return serverError(c, h.Log, err, "could not update hall")
	}
	h.Cache.Invalidate(ctx, CacheTagHalls)

	updated, err := h.Halls.GetByID(ctx, id)
	if err != nil {
		return serverError(c, h.Log, err, "db error")
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/admin/halls/:id as a soft delete.  Existing
// bookings keep referencing the hall.
func (h *HallHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx := c.Request().Context()
	switch err := h.Halls.Deactivate(ctx, id); {
	case errors.Is(err, repository.ErrHallNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
	case err != nil && !errors.Is(err, repository.ErrNoChange):
		return serverError(c, h.Log, err, "could not delete hall")
	}
	h.Cache.Invalidate(ctx, CacheTagHalls)
	return c.NoContent(http.StatusNoContent)
}

// applyHallBody copies the scalar fields present in body onto hall.
func applyHallBody(hall *model.Hall, body hallBody) {
	if body.Name != nil {
		hall.Name = strings.TrimSpace(*body.Name)
	}
	if body.Location != nil {
		hall.Location = strings.TrimSpace(*body.Location)
	}
	if body.Description != nil {
		hall.Description = trimmedOrNil(*body.Description)
	}
	if body.ImageURL != nil {
		hall.ImageURL = trimmedOrNil(*body.ImageURL)
	}
	if body.IsActive != nil {
		hall.IsActive = *body.IsActive
	}
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
