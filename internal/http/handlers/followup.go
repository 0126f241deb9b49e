package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/followup"
	"github.com/lessonworks/pianoschool-backend/internal/http/response"
	"github.com/lessonworks/pianoschool-backend/internal/platform/ctxutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/services"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type FollowUpHandler struct {
	log             *logger.Logger
	followUpService services.FollowUpService
}

func NewFollowUpHandler(log *logger.Logger, followUpService services.FollowUpService) *FollowUpHandler {
	return &FollowUpHandler{
		log:             log.With("handler", "FollowUpHandler"),
		followUpService: followUpService,
	}
}

func (h *FollowUpHandler) Create(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req struct {
		StudentID uuid.UUID  `json:"student_id"`
		OwnerID   *uuid.UUID `json:"owner_id"`
		Purpose   string     `json:"purpose"`
		Urgency   string     `json:"urgency"`
		Content   string     `json:"content"`
		DueAt     *time.Time `json:"due_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	record := types.FollowUpRecord{
		StudentID: req.StudentID,
		OwnerID:   rd.PersonID,
		Purpose:   req.Purpose,
		Urgency:   req.Urgency,
		Content:   req.Content,
		DueAt:     req.DueAt,
	}
	if req.OwnerID != nil {
		record.OwnerID = *req.OwnerID
	}
	created, err := h.followUpService.Create(c.Request.Context(), &record)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"follow_up": created})
}

func (h *FollowUpHandler) Get(c *gin.Context) {
	recordID := idParam(c, "id")
	if recordID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_record_id", nil)
		return
	}
	record, err := h.followUpService.Get(c.Request.Context(), recordID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"follow_up": record})
}

func (h *FollowUpHandler) List(c *gin.Context) {
	offset, limit := pageParams(c)
	filter := followup.ListFilter{
		StudentID: idQuery(c, "student_id"),
		OwnerID:   idQuery(c, "owner_id"),
		Status:    c.Query("status"),
		Offset:    offset,
		Limit:     limit,
	}
	records, total, err := h.followUpService.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"follow_ups": records, "total": total})
}

func (h *FollowUpHandler) Update(c *gin.Context) {
	recordID := idParam(c, "id")
	if recordID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_record_id", nil)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.followUpService.Update(c.Request.Context(), recordID, fields); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *FollowUpHandler) MarkDone(c *gin.Context) {
	recordID := idParam(c, "id")
	if recordID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_record_id", nil)
		return
	}
	var req struct {
		Result *string `json:"result"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.followUpService.MarkDone(c.Request.Context(), recordID, req.Result); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *FollowUpHandler) Delete(c *gin.Context) {
	recordID := idParam(c, "id")
	if recordID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_record_id", nil)
		return
	}
	if err := h.followUpService.Delete(c.Request.Context(), recordID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
