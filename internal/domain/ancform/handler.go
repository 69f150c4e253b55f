package ancform

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/anc/internal/domain/obstetrics"
	"github.com/ehr/anc/internal/platform/auth"
)

// StreamConnector attaches a live connection to a feed topic.
type StreamConnector interface {
	Connect(c echo.Context, topic string) error
}

type Handler struct {
	svc    *Service
	stream StreamConnector
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// WithStream enables GET /anc-sessions/:id/stream.
func (h *Handler) WithStream(s StreamConnector) *Handler {
	h.stream = s
	return h
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/anc-sessions", auth.RequireRole("admin", "physician", "nurse", "midwife"))
	g.POST("", h.StartSession)
	g.GET("/:id", h.GetSession)
	g.POST("/:id/changes", h.ApplyChanges)
	g.POST("/:id/submit", h.Submit, auth.RequireScope("anc", "write"))
	g.DELETE("/:id", h.Discard)
	if h.stream != nil {
		g.GET("/:id/stream", h.Stream)
	}
}

type startRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

type changesRequest struct {
	Changes []FieldChange `json:"changes"`
}

func (h *Handler) StartSession(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := h.svc.StartSession(c.Request().Context(), req.PatientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, sess.View())
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sess, err := h.svc.GetSession(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) ApplyChanges(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req changesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := h.svc.ApplyChanges(c.Request().Context(), id, req.Changes)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) Submit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	res, err := h.svc.Submit(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		var incomplete *obstetrics.IncompleteError
		if errors.As(err, &incomplete) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"message": incomplete.Error(),
				"missing": incomplete.Missing,
			})
		}
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Discard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Discard(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream follows a draft: every accepted change batch, the submission and a
// discard are pushed as events.
func (h *Handler) Stream(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := h.svc.GetSession(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return h.stream.Connect(c, SessionTopic(id))
}

func mapError(err error) error {
	var changeErr *ChangeError
	switch {
	case errors.Is(err, ErrDraftNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDraftConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &changeErr), errors.Is(err, ErrInvalidValue):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
