package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/saeidsamfoladi/Telegrambot/internal/services"

	"github.com/gin-gonic/gin"
)

type InviteHandler struct {
	inviteService *services.InviteService
}

func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

type MintInviteRequest struct {
	AllowedUses int    `json:"allowed_uses" binding:"required,min=1"`
	TTLHours    int    `json:"ttl_hours" binding:"min=0"`
	Note        string `json:"note" binding:"max=255"`
}

func (h *InviteHandler) ListInvites(c *gin.Context) {
	invites, err := h.inviteService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, invites)
}

func (h *InviteHandler) MintInvite(c *gin.Context) {
	var req MintInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	createdBy := int64(c.GetUint("admin_id"))
	invite, err := h.inviteService.Mint(createdBy, req.AllowedUses, time.Duration(req.TTLHours)*time.Hour, req.Note)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, invite)
}

func (h *InviteHandler) RevokeInvite(c *gin.Context) {
	if err := h.inviteService.Revoke(c.Param("code")); err != nil {
		if errors.Is(err, services.ErrInviteNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "invite code not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "invite code revoked"})
}
