package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestConnection sends a connection request from the caller to user :id.
func (h *Handler) RequestConnection(c *gin.Context) {
	req, err := h.Connections.Request(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connection request sent", "request": req})
}

// AcceptConnection accepts request :id addressed to the caller.
func (h *Handler) AcceptConnection(c *gin.Context) {
	req, err := h.Connections.Accept(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connection accepted", "request": req})
}

// RejectConnection rejects request :id addressed to the caller.
func (h *Handler) RejectConnection(c *gin.Context) {
	req, err := h.Connections.Reject(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Connection rejected", "request": req})
}

func (h *Handler) ListPendingRequests(c *gin.Context) {
	pending, err := h.Connections.ListPending(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

func (h *Handler) ListOutgoingRequests(c *gin.Context) {
	outgoing, err := h.Connections.ListOutgoing(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outgoing)
}

func (h *Handler) ListConnections(c *gin.Context) {
	profiles, err := h.Connections.Connections(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}
