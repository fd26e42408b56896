package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/hall-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/hall-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/hall-booking/internal/model"
)

// Guards carries the middleware shared by the route groups.  Cache builds
// a response cache for a tag; it may return a pass-through middleware.
type Guards struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     func(tag string) echo.MiddlewareFunc
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func (g Guards) limit() echo.MiddlewareFunc {
	if g.RateLimit == nil {
		return passThrough
	}
	return g.RateLimit
}

func (g Guards) cache(tag string) echo.MiddlewareFunc {
	if g.Cache == nil {
		return passThrough
	}
	return g.Cache(tag)
}

// authed returns JWTAuth followed by the rate limiter so the limiter can
// key on the account id.
func (g Guards) authed(roles ...model.Role) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{middleware.JWTAuth(g.JWTSecret), g.limit()}
	if len(roles) > 0 {
		mw = append(mw, middleware.RequireRole(roles...))
	}
	return mw
}

// RegisterRoutes registers the health endpoints.  /healthz is liveness
// only; /readyz also pings the database.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the authentication routes.  Login, refresh and
// logout live under /v1/auth without JWT; /v1/me requires a valid access
// token of either role.  There is no self-registration: accounts are
// created by an admin.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	auth := e.Group("/v1/auth", g.limit())
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/refresh-access", a.RefreshAccess)
	auth.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, g.authed(model.RoleAdmin, model.RoleRequester)...)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The
// listings are served through the response cache; admin writes
// invalidate it.  Availability and the day calendar need a session.
func RegisterPublic(e *echo.Echo, h *handler.HallHandler, d *handler.DepartmentHandler, g Guards) {
	e.GET("/v1/halls", h.List, g.limit(), g.cache(handler.CacheTagHalls))
	e.GET("/v1/halls/:id", h.Get, g.limit(), g.cache(handler.CacheTagHalls))
	e.GET("/v1/departments", d.List, g.limit(), g.cache(handler.CacheTagDepartments))

	e.GET("/v1/halls/:id/availability", h.Availability, g.authed(model.RoleAdmin, model.RoleRequester)...)
	e.GET("/v1/halls/:id/bookings", h.DayBookings, g.authed(model.RoleAdmin, model.RoleRequester)...)
}
