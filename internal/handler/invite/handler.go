package invite

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/handler"
	"github.com/agendly/agenda-api/internal/middleware"
	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/service/invite"
)

type Handler struct {
	service invite.InviteService
}

func NewHandler(service invite.InviteService) *Handler {
	return &Handler{service: service}
}

// RegisterEstablishmentRoutes mounts the owner-facing invite routes under
// an establishment group.
func (h *Handler) RegisterEstablishmentRoutes(establishments *gin.RouterGroup) {
	establishments.POST("/:id/invites", h.CreateInvite)
	establishments.GET("/:id/invites", h.ListInvites)
}

// RegisterRedeemRoute mounts the client-facing redemption endpoint. The
// caller is expected to attach a tight rate limit to the group.
func (h *Handler) RegisterRedeemRoute(r *gin.RouterGroup) {
	r.POST("/invites/redeem", h.RedeemInvite)
}

func (h *Handler) CreateInvite(c *gin.Context) {
	establishmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	var req model.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	session := middleware.SessionFromContext(c)
	resp, err := h.service.CreateInvite(c.Request.Context(), session.AccountID, establishmentID, &req)
	if err != nil {
		switch {
		case errors.Is(err, invite.ErrNotEstablished):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("establishment not found"))
		case errors.Is(err, invite.ErrNotOwner):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("not the establishment owner"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to create invite"))
		}
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

func (h *Handler) ListInvites(c *gin.Context) {
	establishmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	session := middleware.SessionFromContext(c)
	invites, err := h.service.ListInvites(c.Request.Context(), session.AccountID, establishmentID)
	if err != nil {
		switch {
		case errors.Is(err, invite.ErrNotEstablished):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("establishment not found"))
		case errors.Is(err, invite.ErrNotOwner):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("not the establishment owner"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list invites"))
		}
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(invites))
}

// RedeemInvite associates the authenticated client with an establishment.
// All redemption failures come back as the same message so callers cannot
// probe for valid codes.
func (h *Handler) RedeemInvite(c *gin.Context) {
	var req model.RedeemInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	establishmentID, err := uuid.Parse(req.EstablishmentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid establishment id"))
		return
	}

	session := middleware.SessionFromContext(c)
	if err := h.service.RedeemInvite(c.Request.Context(), session.AccountID, establishmentID, req.Code); err != nil {
		if errors.Is(err, invite.ErrInvalidInvite) || errors.Is(err, invite.ErrExpiredInvite) {
			c.JSON(http.StatusUnprocessableEntity, handler.NewErrorResponse("invalid or expired invite"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to redeem invite"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
