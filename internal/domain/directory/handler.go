package directory

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(g *echo.Group) {
	g.GET("/doctors", h.list)
	g.GET("/doctors/:id", h.get)
}

func (h *Handler) list(c echo.Context) error {
	doctors, err := h.svc.Doctors(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to derive doctors")
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor id must be numeric")
	}
	doc, err := h.svc.FindDoctor(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to derive doctors")
	}
	return c.JSON(http.StatusOK, doc)
}
