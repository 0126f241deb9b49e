package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lessonworks/pianoschool-backend/internal/http/response"
	"github.com/lessonworks/pianoschool-backend/internal/platform/ctxutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/services"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type NotificationHandler struct {
	log                 *logger.Logger
	notificationService services.NotificationService
}

func NewNotificationHandler(log *logger.Logger, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		log:                 log.With("handler", "NotificationHandler"),
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) Create(c *gin.Context) {
	var req struct {
		PersonID uuid.UUID  `json:"person_id"`
		Type     string     `json:"type"`
		Title    string     `json:"title"`
		Content  string     `json:"content"`
		LinkType *string    `json:"link_type"`
		LinkID   *uuid.UUID `json:"link_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	n := types.Notification{
		PersonID: req.PersonID,
		Type:     req.Type,
		Title:    req.Title,
		Content:  req.Content,
		LinkType: req.LinkType,
		LinkID:   req.LinkID,
	}
	created, err := h.notificationService.Create(c.Request.Context(), &n)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"notification": created})
}

func (h *NotificationHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	offset, limit := pageParams(c)
	notifications, total, err := h.notificationService.List(c.Request.Context(), rd.PersonID, boolQuery(c, "unread_only"), offset, limit)
	if err != nil {
		h.log.Error("List failed", "error", err, "person_id", rd.PersonID)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notifications": notifications, "total": total})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	notificationID := idParam(c, "id")
	if notificationID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_notification_id", nil)
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), notificationID, rd.PersonID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), rd.PersonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": updated})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	count, err := h.notificationService.UnreadCount(c.Request.Context(), rd.PersonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"unread": count})
}
