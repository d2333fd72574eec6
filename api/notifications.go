package api

import (
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/service/notifications"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service notifications.NotificationUseCase
}

func NewNotificationHandler(service notifications.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.Use(RequireUser())
	router.GET("", h.list)
	router.PATCH("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	result, err := h.service.List(c.Request.Context(), userID(c), unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
