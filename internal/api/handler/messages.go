package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetConversation returns the caller's full history with :userId, oldest first.
func (h *Handler) GetConversation(c *gin.Context) {
	me := currentUser(c)
	history, err := h.Messages.GetConversation(c.Request.Context(), me, c.Param("userId"), me)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// MarkMessagesRead marks everything :userId sent to the caller as read.
func (h *Handler) MarkMessagesRead(c *gin.Context) {
	updated, err := h.Messages.MarkRead(c.Request.Context(), currentUser(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Messages marked as read", "updated": updated})
}
