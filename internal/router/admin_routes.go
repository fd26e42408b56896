package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hall-booking/internal/handler"
	"github.com/iliyamo/hall-booking/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, halls *handler.HallHandler, g Guards) {
	adm := e.Group("/v1/admin", g.authed(model.RoleAdmin)...)

	// ---- Halls ----
	adm.GET("/halls", halls.AdminList)
	adm.POST("/halls", halls.Create)
	adm.PUT("/halls/:id", halls.Update)
	adm.PATCH("/halls/:id", halls.Update)
	adm.DELETE("/halls/:id", halls.Delete)

	// ---- Bookings ----
	adm.GET("/bookings/pending", a.Pending)
	adm.GET("/bookings", a.ListBookings)
	adm.POST("/bookings/:id/approve", a.Approve)
	adm.POST("/bookings/:id/reject", a.Reject)
	adm.POST("/bookings/:id/cancel", a.Cancel)
	adm.GET("/logs", a.Logs)

	// ---- Requesters ----
	adm.GET("/requesters", a.ListRequesters)
	adm.POST("/requesters", a.CreateRequester)
	adm.PATCH("/requesters/:id/active", a.SetRequesterActive)

	// ---- Reports ----
	adm.GET("/reports", a.Report)
	adm.GET("/stats", a.Stats)
}
