package handler

import (
	"campusnet/backend/internal/models"
	"campusnet/backend/internal/storage"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type createNotificationRequest struct {
	UserID    string                  `json:"userId"`
	Type      models.NotificationType `json:"type"`
	Content   string                  `json:"content"`
	RelatedID string                  `json:"relatedId"`
	Link      string                  `json:"link"`
}

// ListNotifications returns the caller's notifications, newest first, and the
// number of unread ones in the X-Unread-Count header.
func (h *Handler) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	me := currentUser(c)

	list, err := h.Notifications.List(ctx, me)
	if err != nil {
		respondError(c, err)
		return
	}
	unread, err := h.Notifications.UnreadCount(ctx, me)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("X-Unread-Count", strconv.FormatInt(unread, 10))
	c.JSON(http.StatusOK, list)
}

// CreateNotification stores a notification for the caller. userId in the body
// is optional and must match the caller when present.
func (h *Handler) CreateNotification(c *gin.Context) {
	var body createNotificationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, fmt.Errorf("%w: %v", storage.ErrValidation, err))
		return
	}

	me := currentUser(c)
	if body.UserID != "" && body.UserID != me {
		respondError(c, fmt.Errorf("%w: notifications can only be created for yourself", storage.ErrUnauthorized))
		return
	}

	n, err := h.Notifications.Create(c.Request.Context(), me, body.Type, body.Content, body.RelatedID, body.Link)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid notification id", storage.ErrValidation))
		return
	}

	n, err := h.Notifications.MarkRead(c.Request.Context(), uint(id), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// ClearNotifications deletes all of the caller's notifications.
func (h *Handler) ClearNotifications(c *gin.Context) {
	deleted, err := h.Notifications.ClearAll(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications cleared", "deleted": deleted})
}
