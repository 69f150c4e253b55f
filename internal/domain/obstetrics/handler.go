package obstetrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/anc/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "midwife"))
	readGroup.GET("/obstetrics/viability", h.AssessViability)
	readGroup.GET("/obstetrics/birth-weight", h.BirthWeightGuidance)
	readGroup.GET("/obstetrics/dating", h.Dating)
	readGroup.GET("/patients/:id/prior-pregnancies", h.ListPriorPregnancies)
	readGroup.GET("/prior-pregnancies/:id", h.GetPriorPregnancy)
}

func (h *Handler) AssessViability(c echo.Context) error {
	a, err := h.svc.AssessViability(c.QueryParam("months"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) BirthWeightGuidance(c echo.Context) error {
	kg, err := strconv.ParseFloat(c.QueryParam("kg"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid kg")
	}
	g, err := h.svc.BirthWeightGuidance(kg)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Dating(c echo.Context) error {
	lmp, err := time.Parse("2006-01-02", c.QueryParam("lmp"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lmp, expected YYYY-MM-DD")
	}
	d, err := h.svc.Dating(lmp)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListPriorPregnancies(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	items, err := h.svc.ListPriorPregnancies(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*PregnancyRecord{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetPriorPregnancy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPriorPregnancy(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prior pregnancy not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
