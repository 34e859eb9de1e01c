package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/saeidsamfoladi/Telegrambot/internal/services"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

func (h *MemberHandler) ListMembers(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	members, err := h.memberService.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) CountMembers(c *gin.Context) {
	count, err := h.memberService.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *MemberHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if !services.IsValidCode(code) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid code format"})
		return
	}

	member, err := h.memberService.FindByCode(code)
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, member)
}
