package establishment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/agendly/agenda-api/internal/handler"
	"github.com/agendly/agenda-api/internal/middleware"
	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/service/availability"
	"github.com/agendly/agenda-api/internal/service/catalog"
	"github.com/agendly/agenda-api/internal/service/client"
	"github.com/agendly/agenda-api/internal/service/establishment"
)

// slug lookups back the public booking page, so they get a short-lived
// in-process cache
const slugCacheTTL = time.Minute

type Handler struct {
	service      establishment.EstablishmentService
	catalogSvc   catalog.CatalogService
	availability availability.AvailabilityService
	clients      client.ClientService
	slugCache    *gocache.Cache
}

func NewHandler(service establishment.EstablishmentService, catalogSvc catalog.CatalogService, availabilitySvc availability.AvailabilityService, clients client.ClientService) *Handler {
	return &Handler{
		service:      service,
		catalogSvc:   catalogSvc,
		availability: availabilitySvc,
		clients:      clients,
		slugCache:    gocache.New(slugCacheTTL, 5*time.Minute),
	}
}

// RegisterRoutes mounts the owner-facing establishment routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	establishments := r.Group("/establishments")
	{
		establishments.POST("", h.CreateEstablishment)
		establishments.GET("", h.ListEstablishments)
		establishments.GET("/:id", h.GetEstablishment)
		establishments.PUT("/:id", h.UpdateEstablishment)
		establishments.DELETE("/:id", h.DeleteEstablishment)

		establishments.POST("/:id/services", h.CreateService)
		establishments.GET("/:id/services", h.ListServices)
		establishments.PUT("/:id/services/:serviceId", h.UpdateService)
		establishments.DELETE("/:id/services/:serviceId", h.DeleteService)

		establishments.POST("/:id/hours", h.CreateAvailableHour)
		establishments.GET("/:id/hours", h.ListAvailableHours)
		establishments.DELETE("/:id/hours/:hourId", h.DeleteAvailableHour)

		establishments.GET("/:id/clients", h.ListClients)
		establishments.PUT("/:id/clients/:clientId/block", h.BlockClient)
		establishments.PUT("/:id/clients/:clientId/unblock", h.UnblockClient)
	}
}

// RegisterPublicRoutes mounts the unauthenticated slug lookup used by the
// public booking page.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/lookup/:slug", h.LookupBySlug)
}

// RegisterClientRoutes mounts the client-facing routes.
func (h *Handler) RegisterClientRoutes(r *gin.RouterGroup) {
	r.GET("/my/establishments", h.ListMyEstablishments)
}

func (h *Handler) CreateEstablishment(c *gin.Context) {
	var req model.CreateEstablishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	// The owner is always the authenticated account.
	session := middleware.SessionFromContext(c)
	req.OwnerID = session.AccountID.String()

	est, err := h.service.CreateEstablishment(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, establishment.ErrSlugCollision) {
			c.JSON(http.StatusConflict, handler.NewErrorResponse("could not allocate a unique URL, try again"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to create establishment"))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(est))
}

func (h *Handler) ListEstablishments(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	ests, err := h.service.ListByOwner(c.Request.Context(), session.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list establishments"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(ests))
}

func (h *Handler) GetEstablishment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	est, err := h.service.GetEstablishment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, establishment.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("establishment not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to get establishment"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(est))
}

func (h *Handler) UpdateEstablishment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	var req model.UpdateEstablishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	session := middleware.SessionFromContext(c)
	est, err := h.service.UpdateEstablishment(c.Request.Context(), session.AccountID, id, &req)
	if err != nil {
		h.writeOwnershipError(c, err, "failed to update establishment")
		return
	}

	h.slugCache.Delete(est.Slug)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(est))
}

func (h *Handler) DeleteEstablishment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	session := middleware.SessionFromContext(c)
	if err := h.service.DeleteEstablishment(c.Request.Context(), session.AccountID, id); err != nil {
		h.writeOwnershipError(c, err, "failed to delete establishment")
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// LookupBySlug resolves a public establishment page by its unique URL.
func (h *Handler) LookupBySlug(c *gin.Context) {
	slug := c.Param("slug")

	if cached, found := h.slugCache.Get(slug); found {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(cached))
		return
	}

	est, err := h.service.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, establishment.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("establishment not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to look up establishment"))
		return
	}

	h.slugCache.Set(slug, est, gocache.DefaultExpiration)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(est))
}

func (h *Handler) CreateService(c *gin.Context) {
	establishmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	var req model.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	session := middleware.SessionFromContext(c)
	svc, err := h.catalogSvc.CreateService(c.Request.Context(), session.AccountID, establishmentID, &req)
	if err != nil {
		h.writeCatalogError(c, err, "failed to create service")
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(svc))
}

func (h *Handler) ListServices(c *gin.Context) {
	establishmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	services, err := h.catalogSvc.ListServices(c.Request.Context(), establishmentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list services"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(services))
}

func (h *Handler) UpdateService(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("serviceId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service id"))
		return
	}

	var req model.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	session := middleware.SessionFromContext(c)
	svc, err := h.catalogSvc.UpdateService(c.Request.Context(), session.AccountID, serviceID, &req)
	if err != nil {
		h.writeCatalogError(c, err, "failed to update service")
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(svc))
}

func (h *Handler) DeleteService(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("serviceId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service id"))
		return
	}

	session := middleware.SessionFromContext(c)
	if err := h.catalogSvc.DeleteService(c.Request.Context(), session.AccountID, serviceID); err != nil {
		h.writeCatalogError(c, err, "failed to delete service")
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) CreateAvailableHour(c *gin.Context) {
	establishmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	var req model.CreateAvailableHourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	session := middleware.SessionFromContext(c)
	hour, err := h.availability.CreateWindow(c.Request.Context(), session.AccountID, establishmentID, &req)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrEstablishmentNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("establishment not found"))
		case errors.Is(err, availability.ErrNotOwner):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("not the establishment owner"))
		case errors.Is(err, availability.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to create availability window"))
		}
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(hour))
}

func (h *Handler) ListAvailableHours(c *gin.Context) {
	establishmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	hours, err := h.availability.ListWindows(c.Request.Context(), establishmentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list availability windows"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(hours))
}

func (h *Handler) DeleteAvailableHour(c *gin.Context) {
	hourID, err := uuid.Parse(c.Param("hourId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid window id"))
		return
	}

	session := middleware.SessionFromContext(c)
	if err := h.availability.DeleteWindow(c.Request.Context(), session.AccountID, hourID); err != nil {
		switch {
		case errors.Is(err, availability.ErrWindowNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("window not found"))
		case errors.Is(err, availability.ErrNotOwner):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("not the establishment owner"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to delete availability window"))
		}
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// ListMyEstablishments returns the establishments the authenticated client
// is actively associated with.
func (h *Handler) ListMyEstablishments(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	ests, err := h.clients.ListEstablishments(c.Request.Context(), session.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list establishments"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(ests))
}

func (h *Handler) ListClients(c *gin.Context) {
	establishmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	session := middleware.SessionFromContext(c)
	clients, err := h.clients.ListClients(c.Request.Context(), session.AccountID, establishmentID)
	if err != nil {
		h.writeClientError(c, err, "failed to list clients")
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(clients))
}

func (h *Handler) BlockClient(c *gin.Context) {
	h.setClientStatus(c, h.clients.BlockClient)
}

func (h *Handler) UnblockClient(c *gin.Context) {
	h.setClientStatus(c, h.clients.UnblockClient)
}

func (h *Handler) setClientStatus(c *gin.Context, fn func(ctx context.Context, actorID, establishmentID, clientID uuid.UUID) error) {
	establishmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}
	clientID, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid client id"))
		return
	}

	session := middleware.SessionFromContext(c)
	if err := fn(c.Request.Context(), session.AccountID, establishmentID, clientID); err != nil {
		h.writeClientError(c, err, "failed to update client")
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) writeOwnershipError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, establishment.ErrNotFound):
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("establishment not found"))
	case errors.Is(err, establishment.ErrNotOwner):
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("not the establishment owner"))
	default:
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(fallback))
	}
}

func (h *Handler) writeCatalogError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, catalog.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("service not found"))
	case errors.Is(err, catalog.ErrEstablishmentNotFound):
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("establishment not found"))
	case errors.Is(err, catalog.ErrNotOwner):
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("not the establishment owner"))
	default:
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(fallback))
	}
}

func (h *Handler) writeClientError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, client.ErrEstablishmentNotFound):
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("establishment not found"))
	case errors.Is(err, client.ErrNotOwner):
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("not the establishment owner"))
	case errors.Is(err, client.ErrNoRelationship):
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("client not associated"))
	default:
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(fallback))
	}
}
