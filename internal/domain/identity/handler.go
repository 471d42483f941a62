package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careflow/careflow/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(g *echo.Group) {
	g.POST("/patients", h.create)
	g.POST("/patients/import", h.importBatch)
	g.GET("/patients", h.list)
	g.GET("/patients/lookup", h.lookupByPhone)
	g.GET("/patients/:id", h.get)
	g.PUT("/patients/:id", h.update)
	g.DELETE("/patients/:id", h.delete)
	g.POST("/patients/:id/deactivate", h.deactivate)
}

func (h *Handler) create(c echo.Context) error {
	var p PatientRecord
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := h.svc.CreatePatient(c.Request().Context(), &p)
	if err != nil {
		var nerr *NormalizationError
		if errors.As(err, &nerr) {
			return echo.NewHTTPError(http.StatusBadRequest, nerr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create patient")
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) importBatch(c echo.Context) error {
	var raw []map[string]interface{}
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.ImportBatch(c.Request().Context(), raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to import patients")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) list(c echo.Context) error {
	params := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patients")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) lookupByPhone(c echo.Context) error {
	phone := c.QueryParam("phone")
	if phone == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "phone query parameter is required")
	}
	p, err := h.svc.LookupByPhone(c.Request().Context(), phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no patient with that phone")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) get(c echo.Context) error {
	p, err := h.svc.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) update(c echo.Context) error {
	var p PatientRecord
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p.PatientID = c.Param("id")
	updated, err := h.svc.UpdatePatient(c.Request().Context(), &p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update patient")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) delete(c echo.Context) error {
	if err := h.svc.DeletePatient(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		if errors.Is(err, ErrReferenced) {
			return echo.NewHTTPError(http.StatusConflict, "patient has appointments; deactivate instead")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete patient")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) deactivate(c echo.Context) error {
	p, err := h.svc.Deactivate(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to deactivate patient")
	}
	return c.JSON(http.StatusOK, p)
}
