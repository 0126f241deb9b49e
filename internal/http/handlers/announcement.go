package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lessonworks/pianoschool-backend/internal/http/response"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/services"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type AnnouncementHandler struct {
	log                 *logger.Logger
	announcementService services.AnnouncementService
}

func NewAnnouncementHandler(log *logger.Logger, announcementService services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{
		log:                 log.With("handler", "AnnouncementHandler"),
		announcementService: announcementService,
	}
}

func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req struct {
		Title     string     `json:"title"`
		Content   string     `json:"content"`
		PublishAt *time.Time `json:"publish_at"`
		ExpireAt  *time.Time `json:"expire_at"`
		Pinned    bool       `json:"pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	a := types.Announcement{
		Title:    req.Title,
		Content:  req.Content,
		ExpireAt: req.ExpireAt,
		Pinned:   req.Pinned,
	}
	if req.PublishAt != nil {
		a.PublishAt = *req.PublishAt
	}
	created, err := h.announcementService.Create(c.Request.Context(), &a)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"announcement": created})
}

func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcementID := idParam(c, "id")
	if announcementID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_announcement_id", nil)
		return
	}
	a, err := h.announcementService.Get(c.Request.Context(), announcementID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"announcement": a})
}

func (h *AnnouncementHandler) List(c *gin.Context) {
	if boolQuery(c, "active") {
		announcements, err := h.announcementService.ListActive(c.Request.Context())
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"announcements": announcements})
		return
	}
	offset, limit := pageParams(c)
	announcements, total, err := h.announcementService.List(c.Request.Context(), offset, limit)
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"announcements": announcements, "total": total})
}

func (h *AnnouncementHandler) Update(c *gin.Context) {
	announcementID := idParam(c, "id")
	if announcementID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_announcement_id", nil)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.announcementService.Update(c.Request.Context(), announcementID, fields); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *AnnouncementHandler) Delete(c *gin.Context) {
	announcementID := idParam(c, "id")
	if announcementID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_announcement_id", nil)
		return
	}
	if err := h.announcementService.Delete(c.Request.Context(), announcementID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
