package handler

import (
	"campusnet/backend/internal/chathub"
	"campusnet/backend/internal/config"
	"campusnet/backend/internal/connection"
	"campusnet/backend/internal/messaging"
	"campusnet/backend/internal/notification"
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Pinger reports whether the backing database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the services the HTTP and websocket routes call into.
type Handler struct {
	Hub           *chathub.ManagerService
	Messages      *messaging.Service
	Connections   *connection.Service
	Notifications *notification.Service
	DB            Pinger

	jwtSecret      []byte
	allowedOrigins []string
	upgrader       websocket.Upgrader
	// sessionCtx bounds the work done for frames on live sessions.
	sessionCtx context.Context
}

func NewHandler(
	ctx context.Context,
	cfg config.Config,
	hub *chathub.ManagerService,
	messages *messaging.Service,
	connections *connection.Service,
	notifications *notification.Service,
	db Pinger,
) *Handler {
	h := &Handler{
		Hub:            hub,
		Messages:       messages,
		Connections:    connections,
		Notifications:  notifications,
		DB:             db,
		jwtSecret:      []byte(cfg.JWTSecret),
		allowedOrigins: cfg.AllowedOrigins,
		sessionCtx:     ctx,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// RegisterRoutes mounts every route on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api", h.RequireAuth())

	messages := api.Group("/messages")
	messages.GET("/:userId", h.GetConversation)
	messages.PUT("/read/:userId", h.MarkMessagesRead)

	users := api.Group("/users")
	users.POST("/connect/:id", h.RequestConnection)
	users.POST("/accept/:id", h.AcceptConnection)
	users.POST("/reject/:id", h.RejectConnection)
	users.GET("/requests/pending", h.ListPendingRequests)
	users.GET("/requests/outgoing", h.ListOutgoingRequests)
	users.GET("/connections", h.ListConnections)

	notifications := api.Group("/notifications")
	notifications.GET("", h.ListNotifications)
	notifications.POST("", h.CreateNotification)
	notifications.PUT("/:id/read", h.MarkNotificationRead)
	notifications.DELETE("", h.ClearNotifications)
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.DB.Ping(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// checkOrigin accepts non-browser clients (no Origin header) and the configured origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin)
}
