package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hall-booking/internal/repository"
)

// DepartmentHandler serves the public department list.
type DepartmentHandler struct {
	Departments *repository.DepartmentRepo
	Log         logrus.FieldLogger
}

func NewDepartmentHandler(d *repository.DepartmentRepo, log logrus.FieldLogger) *DepartmentHandler {
	return &DepartmentHandler{Departments: d, Log: log}
}

// List handles GET /v1/departments.
func (h *DepartmentHandler) List(c echo.Context) error {
	list, err := h.Departments.ListActive(c.Request().Context())
	if err != nil {
		return serverError(c, h.Log, err, "could not list departments")
	}
	return c.JSON(http.StatusOK, list)
}
