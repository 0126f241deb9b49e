package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/student"
	"github.com/lessonworks/pianoschool-backend/internal/http/response"
	"github.com/lessonworks/pianoschool-backend/internal/platform/ctxutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/services"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type StudentHandler struct {
	log            *logger.Logger
	studentService services.StudentService
}

func NewStudentHandler(log *logger.Logger, studentService services.StudentService) *StudentHandler {
	return &StudentHandler{
		log:            log.With("handler", "StudentHandler"),
		studentService: studentService,
	}
}

func (h *StudentHandler) Create(c *gin.Context) {
	var req struct {
		PlatformID string  `json:"platform_id"`
		Nickname   string  `json:"nickname"`
		RemarkName *string `json:"remark_name"`
		OpNote     *string `json:"op_note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	s := types.Student{
		PlatformID: req.PlatformID,
		Nickname:   req.Nickname,
		RemarkName: req.RemarkName,
		OpNote:     req.OpNote,
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.PersonID != uuid.Nil {
		pid := rd.PersonID
		s.CreatedByID = &pid
		s.UpdatedByID = &pid
	}
	created, err := h.studentService.Create(c.Request.Context(), &s)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"student": created})
}

func (h *StudentHandler) Get(c *gin.Context) {
	studentID := idParam(c, "id")
	if studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", nil)
		return
	}
	s, err := h.studentService.Get(c.Request.Context(), studentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"student": s})
}

func (h *StudentHandler) List(c *gin.Context) {
	offset, limit := pageParams(c)
	filter := student.ListFilter{
		Status:   c.Query("status"),
		Nickname: c.Query("nickname"),
		TagID:    idQuery(c, "tag_id"),
		Offset:   offset,
		Limit:    limit,
	}
	students, total, err := h.studentService.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"students": students, "total": total})
}

func (h *StudentHandler) Update(c *gin.Context) {
	studentID := idParam(c, "id")
	if studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", nil)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.PersonID != uuid.Nil {
		fields["updated_by_id"] = rd.PersonID
	}
	if err := h.studentService.Update(c.Request.Context(), studentID, fields); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *StudentHandler) Disable(c *gin.Context) {
	studentID := idParam(c, "id")
	if studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", nil)
		return
	}
	if err := h.studentService.Disable(c.Request.Context(), studentID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *StudentHandler) SetTags(c *gin.Context) {
	studentID := idParam(c, "id")
	if studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", nil)
		return
	}
	var req struct {
		TagIDs []uuid.UUID `json:"tag_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.studentService.SetTags(c.Request.Context(), studentID, req.TagIDs); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *StudentHandler) CreateTag(c *gin.Context) {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tag := types.StudentTag{Name: req.Name, Description: req.Description}
	created, err := h.studentService.CreateTag(c.Request.Context(), &tag)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"tag": created})
}

func (h *StudentHandler) ListTags(c *gin.Context) {
	tags, err := h.studentService.ListTags(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tags": tags})
}

func (h *StudentHandler) Enroll(c *gin.Context) {
	studentID := idParam(c, "id")
	if studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", nil)
		return
	}
	var req struct {
		CourseVersionID uuid.UUID  `json:"course_version_id"`
		StartAt         *time.Time `json:"start_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	record := types.CourseRecord{
		StudentID:       studentID,
		CourseVersionID: req.CourseVersionID,
	}
	if req.StartAt != nil {
		record.StartAt = *req.StartAt
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.PersonID != uuid.Nil {
		pid := rd.PersonID
		record.CreatedByID = &pid
		record.UpdatedByID = &pid
	}
	created, err := h.studentService.Enroll(c.Request.Context(), &record)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"course_record": created})
}

func (h *StudentHandler) ListCourseRecords(c *gin.Context) {
	studentID := idParam(c, "id")
	if studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", nil)
		return
	}
	records, err := h.studentService.ListCourseRecords(c.Request.Context(), studentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course_records": records})
}

func (h *StudentHandler) UpdateCourseRecord(c *gin.Context) {
	recordID := idParam(c, "recordID")
	if recordID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_record_id", nil)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.studentService.UpdateCourseRecord(c.Request.Context(), recordID, fields); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *StudentHandler) CloseCourseRecord(c *gin.Context) {
	recordID := idParam(c, "recordID")
	if recordID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_record_id", nil)
		return
	}
	if err := h.studentService.CloseCourseRecord(c.Request.Context(), recordID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
