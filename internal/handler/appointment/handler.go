package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/handler"
	"github.com/agendly/agenda-api/internal/middleware"
	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/service/appointment"
)

type Handler struct {
	service appointment.AppointmentService
}

func NewHandler(service appointment.AppointmentService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.CancelAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	session := middleware.SessionFromContext(c)
	created, err := h.service.CreateAppointment(c.Request.Context(), session.AccountID, &req)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrEstablishmentNotFound),
			errors.Is(err, appointment.ErrServiceNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse(err.Error()))
		case errors.Is(err, appointment.ErrNoRelationship),
			errors.Is(err, appointment.ErrClientBlocked):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse(err.Error()))
		case errors.Is(err, appointment.ErrTimeConflict):
			c.JSON(http.StatusConflict, handler.NewErrorResponse(err.Error()))
		case errors.Is(err, appointment.ErrAppointmentLimit):
			c.JSON(http.StatusPaymentRequired, handler.NewErrorResponse("appointment limit reached, upgrade to premium"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to create appointment"))
		}
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment id"))
		return
	}

	session := middleware.SessionFromContext(c)
	got, err := h.service.GetAppointment(c.Request.Context(), session.AccountID, id)
	if err != nil {
		h.writeError(c, err, "failed to get appointment")
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(got))
}

// ListAppointments scopes results to the caller: clients see their own
// bookings, establishment accounts see one establishment they own, and
// administrators may query globally.
func (h *Handler) ListAppointments(c *gin.Context) {
	session := middleware.SessionFromContext(c)

	filters := &model.AppointmentFilters{}
	if raw := c.Query("status"); raw != "" {
		filters.Status = model.AppointmentStatus(raw)
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from time"))
			return
		}
		filters.StartDate = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid to time"))
			return
		}
		filters.EndDate = t
	}

	var appointments []*model.Appointment
	var err error
	switch session.Role {
	case model.RoleClient:
		filters.ClientID = session.AccountID
		appointments, err = h.service.ListAppointments(c.Request.Context(), filters)
	case model.RoleAdministrator:
		if raw := c.Query("establishment_id"); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
				return
			}
			filters.EstablishmentID = id
		}
		appointments, err = h.service.ListAppointments(c.Request.Context(), filters)
	default:
		id, parseErr := uuid.Parse(c.Query("establishment_id"))
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("establishment id is required"))
			return
		}
		appointments, err = h.service.ListEstablishmentAppointments(c.Request.Context(), session.AccountID, id, filters)
	}
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrEstablishmentNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("establishment not found"))
		case errors.Is(err, appointment.ErrForbidden):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("not the establishment owner"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list appointments"))
		}
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment id"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	session := middleware.SessionFromContext(c)
	updated, err := h.service.UpdateAppointment(c.Request.Context(), session.AccountID, id, &req)
	if err != nil {
		if errors.Is(err, appointment.ErrTimeConflict) {
			c.JSON(http.StatusConflict, handler.NewErrorResponse(err.Error()))
			return
		}
		h.writeError(c, err, "failed to update appointment")
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment id"))
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	session := middleware.SessionFromContext(c)
	if err := h.service.CancelAppointment(c.Request.Context(), session.AccountID, id, req.Reason); err != nil {
		h.writeError(c, err, "failed to cancel appointment")
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("appointment not found"))
	case errors.Is(err, appointment.ErrForbidden):
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("not allowed"))
	case errors.Is(err, appointment.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, handler.NewErrorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(fallback))
	}
}
