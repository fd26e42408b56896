package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hall-booking/internal/handler"
	"github.com/iliyamo/hall-booking/internal/model"
)

// RegisterBookings registers the booking endpoints under /v1/bookings.
// Both roles may use them; ownership is checked by the booking core.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, g Guards) {
	b := e.Group("/v1/bookings", g.authed(model.RoleAdmin, model.RoleRequester)...)
	b.POST("", h.Create)
	b.GET("/mine", h.Mine)
	b.GET("/:id", h.Get)
	b.PATCH("/:id", h.Update)
	b.POST("/:id/cancel", h.Cancel)
	b.DELETE("/:id", h.Cancel)
}
