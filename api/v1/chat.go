package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Message string `json:"message"`
}

// Converse handler pour POST /api/chat/conversation
func (h *Handler) Converse(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	reply, err := h.services.Chat.Send(c.Request.Context(), currentUser(c), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// ResetChat handler pour POST /api/chat/reset
func (h *Handler) ResetChat(c *gin.Context) {
	h.services.Chat.Reset(currentUser(c))
	c.JSON(http.StatusOK, gin.H{"msg": "conversation reset"})
}
