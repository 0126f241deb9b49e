package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/reminder"
	"github.com/lessonworks/pianoschool-backend/internal/http/response"
	"github.com/lessonworks/pianoschool-backend/internal/platform/ctxutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/services"
)

type ReminderHandler struct {
	log             *logger.Logger
	reminderService services.ReminderService
}

func NewReminderHandler(log *logger.Logger, reminderService services.ReminderService) *ReminderHandler {
	return &ReminderHandler{
		log:             log.With("handler", "ReminderHandler"),
		reminderService: reminderService,
	}
}

func (h *ReminderHandler) Create(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		ReceiverID   *uuid.UUID  `json:"receiver_id"`
		RecipientIDs []uuid.UUID `json:"recipient_ids"`
		Urgency      string      `json:"urgency"`
		Category     string      `json:"category"`
		StudentID    *uuid.UUID  `json:"student_id"`
		FeedbackID   *uuid.UUID  `json:"feedback_id"`
		StartAt      *time.Time  `json:"start_at"`
		EndAt        *time.Time  `json:"end_at"`
		Content      string      `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := services.CreateReminderInput{
		SenderID:     rd.PersonID,
		ReceiverID:   req.ReceiverID,
		RecipientIDs: req.RecipientIDs,
		Urgency:      req.Urgency,
		Category:     req.Category,
		StudentID:    req.StudentID,
		FeedbackID:   req.FeedbackID,
		EndAt:        req.EndAt,
		Content:      req.Content,
	}
	if req.StartAt != nil {
		input.StartAt = *req.StartAt
	}
	created, err := h.reminderService.CreateReminder(c.Request.Context(), input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"reminder": created})
}

func (h *ReminderHandler) Get(c *gin.Context) {
	reminderID := idParam(c, "id")
	if reminderID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_reminder_id", nil)
		return
	}
	rem, err := h.reminderService.GetReminder(c.Request.Context(), reminderID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reminder": rem})
}

func (h *ReminderHandler) List(c *gin.Context) {
	offset, limit := pageParams(c)
	filter := reminder.ListFilter{
		SenderID:  idQuery(c, "sender_id"),
		StudentID: idQuery(c, "student_id"),
		E2EType:   c.Query("e2e_type"),
		Urgency:   c.Query("urgency"),
		Category:  c.Query("category"),
		Offset:    offset,
		Limit:     limit,
	}
	if boolQuery(c, "active") {
		now := time.Now().UTC()
		filter.ActiveAt = &now
	}
	reminders, total, err := h.reminderService.ListReminders(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reminders": reminders, "total": total})
}

func (h *ReminderHandler) Delete(c *gin.Context) {
	reminderID := idParam(c, "id")
	if reminderID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_reminder_id", nil)
		return
	}
	if err := h.reminderService.DeleteReminder(c.Request.Context(), reminderID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *ReminderHandler) SetRecipients(c *gin.Context) {
	reminderID := idParam(c, "id")
	if reminderID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_reminder_id", nil)
		return
	}
	var req struct {
		PersonIDs     []uuid.UUID `json:"person_ids"`
		ClearExisting bool        `json:"clear_existing"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.reminderService.SetRecipients(c.Request.Context(), reminderID, req.PersonIDs, req.ClearExisting); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *ReminderHandler) MarkRead(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	reminderID := idParam(c, "id")
	if reminderID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_reminder_id", nil)
		return
	}
	if err := h.reminderService.MarkRead(c.Request.Context(), reminderID, rd.PersonID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *ReminderHandler) MarkAllRead(c *gin.Context) {
	reminderID := idParam(c, "id")
	if reminderID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_reminder_id", nil)
		return
	}
	updated, err := h.reminderService.MarkAllRead(c.Request.Context(), reminderID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": updated})
}

func (h *ReminderHandler) BulkMarkRead(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		ReminderIDs []uuid.UUID `json:"reminder_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updated, err := h.reminderService.BulkMarkRead(c.Request.Context(), rd.PersonID, req.ReminderIDs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": updated})
}

func (h *ReminderHandler) MarkInboxRead(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	updated, err := h.reminderService.MarkInboxRead(c.Request.Context(), rd.PersonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": updated})
}

func (h *ReminderHandler) Inbox(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	offset, limit := pageParams(c)
	entries, total, err := h.reminderService.Inbox(c.Request.Context(), rd.PersonID, boolQuery(c, "unread_only"), offset, limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"inbox": entries, "total": total})
}

func (h *ReminderHandler) UnreadCount(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	count, err := h.reminderService.UnreadCount(c.Request.Context(), rd.PersonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"unread": count})
}
