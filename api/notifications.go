package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/repository"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	repo repository.NotificationRepository
}

type notificationResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

func NewNotificationHandler(repo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.PUT("/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *gin.Context) {
	notifications, err := h.repo.ListByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, notificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	success(c, http.StatusOK, "notifications retrieved successfully", out)
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, domain.BadRequest("invalid notification id"))
		return
	}
	if err := h.repo.MarkRead(c.Request.Context(), id, currentUserID(c)); err != nil {
		if err == repository.ErrNotFound {
			fail(c, domain.NotFound("notification not found"))
			return
		}
		fail(c, err)
		return
	}
	success(c, http.StatusOK, "notification marked as read", nil)
}
