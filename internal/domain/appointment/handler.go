package appointment

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(g *echo.Group) {
	g.POST("/tokens", h.issueToken)
	g.GET("/tokens", h.listTokens)
	g.GET("/appointments", h.list)
	g.GET("/appointments/:id", h.get)
	g.PATCH("/appointments/:id", h.applyUpdate)
	g.DELETE("/appointments/:id", h.delete)
}

func mapError(err error, notFoundMsg string) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFoundMsg)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) issueToken(c echo.Context) error {
	var req IssueTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.IssueToken(c.Request().Context(), req)
	if err != nil {
		return mapError(err, "doctor not found")
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) listTokens(c echo.Context) error {
	tokens, err := h.svc.ListTokens(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tokens")
	}
	return c.JSON(http.StatusOK, tokens)
}

func (h *Handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	if status := c.QueryParam("status"); status != "" {
		items, err := h.svc.ListByStatus(ctx, Status(status))
		if err != nil {
			return mapError(err, "appointment not found")
		}
		return c.JSON(http.StatusOK, items)
	}
	items, err := h.svc.List(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) get(c echo.Context) error {
	a, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) applyUpdate(c echo.Context) error {
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.ApplyUpdate(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return mapError(err, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err, "appointment not found")
	}
	return c.NoContent(http.StatusNoContent)
}
