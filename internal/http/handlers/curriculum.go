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

type CurriculumHandler struct {
	log               *logger.Logger
	curriculumService services.CurriculumService
}

func NewCurriculumHandler(log *logger.Logger, curriculumService services.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{
		log:               log.With("handler", "CurriculumHandler"),
		curriculumService: curriculumService,
	}
}

func stampCreator(c *gin.Context, createdBy, updatedBy **uuid.UUID) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		return
	}
	pid := rd.PersonID
	*createdBy = &pid
	*updatedBy = &pid
}

func (h *CurriculumHandler) CreateCourse(c *gin.Context) {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course := types.Course{Name: req.Name, Description: req.Description}
	stampCreator(c, &course.CreatedByID, &course.UpdatedByID)
	created, err := h.curriculumService.CreateCourse(c.Request.Context(), &course)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"course": created})
}

func (h *CurriculumHandler) GetCourse(c *gin.Context) {
	courseID := idParam(c, "id")
	if courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", nil)
		return
	}
	course, err := h.curriculumService.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

func (h *CurriculumHandler) ListCourses(c *gin.Context) {
	courses, err := h.curriculumService.ListCourses(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

func (h *CurriculumHandler) UpdateCourse(c *gin.Context) {
	courseID := idParam(c, "id")
	if courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", nil)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.curriculumService.UpdateCourse(c.Request.Context(), courseID, fields); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *CurriculumHandler) DeleteCourse(c *gin.Context) {
	courseID := idParam(c, "id")
	if courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", nil)
		return
	}
	if err := h.curriculumService.DeleteCourse(c.Request.Context(), courseID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *CurriculumHandler) CreateLesson(c *gin.Context) {
	courseID := idParam(c, "id")
	if courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", nil)
		return
	}
	var req struct {
		Name        string  `json:"name"`
		SortOrder   int     `json:"sort_order"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lesson := types.Lesson{
		CourseID:    courseID,
		Name:        req.Name,
		SortOrder:   req.SortOrder,
		Description: req.Description,
	}
	stampCreator(c, &lesson.CreatedByID, &lesson.UpdatedByID)
	created, err := h.curriculumService.CreateLesson(c.Request.Context(), &lesson)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"lesson": created})
}

func (h *CurriculumHandler) ListLessons(c *gin.Context) {
	courseID := idParam(c, "id")
	if courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", nil)
		return
	}
	lessons, err := h.curriculumService.ListLessons(c.Request.Context(), courseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}

func (h *CurriculumHandler) UpdateLesson(c *gin.Context) {
	lessonID := idParam(c, "lessonID")
	if lessonID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lesson_id", nil)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.curriculumService.UpdateLesson(c.Request.Context(), lessonID, fields); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *CurriculumHandler) DeleteLesson(c *gin.Context) {
	lessonID := idParam(c, "lessonID")
	if lessonID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lesson_id", nil)
		return
	}
	if err := h.curriculumService.DeleteLesson(c.Request.Context(), lessonID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *CurriculumHandler) CreatePiece(c *gin.Context) {
	lessonID := idParam(c, "lessonID")
	if lessonID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lesson_id", nil)
		return
	}
	var req struct {
		Name        string  `json:"name"`
		Attribute   string  `json:"attribute"`
		IsRequired  *bool   `json:"is_required"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	piece := types.Piece{
		LessonID:    lessonID,
		Name:        req.Name,
		Attribute:   req.Attribute,
		IsRequired:  true,
		Description: req.Description,
	}
	if req.IsRequired != nil {
		piece.IsRequired = *req.IsRequired
	}
	stampCreator(c, &piece.CreatedByID, &piece.UpdatedByID)
	created, err := h.curriculumService.CreatePiece(c.Request.Context(), &piece)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"piece": created})
}

func (h *CurriculumHandler) ListPieces(c *gin.Context) {
	lessonID := idParam(c, "lessonID")
	if lessonID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lesson_id", nil)
		return
	}
	pieces, err := h.curriculumService.ListPieces(c.Request.Context(), lessonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pieces": pieces})
}

func (h *CurriculumHandler) UpdatePiece(c *gin.Context) {
	pieceID := idParam(c, "pieceID")
	if pieceID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_piece_id", nil)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.curriculumService.UpdatePiece(c.Request.Context(), pieceID, fields); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *CurriculumHandler) DeletePiece(c *gin.Context) {
	pieceID := idParam(c, "pieceID")
	if pieceID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_piece_id", nil)
		return
	}
	if err := h.curriculumService.DeletePiece(c.Request.Context(), pieceID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *CurriculumHandler) CreateVersion(c *gin.Context) {
	courseID := idParam(c, "id")
	if courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", nil)
		return
	}
	var req struct {
		VersionLabel string `json:"version_label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	version := types.CourseVersion{
		CourseID:     courseID,
		VersionLabel: req.VersionLabel,
	}
	stampCreator(c, &version.CreatedByID, &version.UpdatedByID)
	created, err := h.curriculumService.CreateVersion(c.Request.Context(), &version)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"version": created})
}

func (h *CurriculumHandler) ListVersions(c *gin.Context) {
	courseID := idParam(c, "id")
	if courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", nil)
		return
	}
	versions, err := h.curriculumService.ListVersions(c.Request.Context(), courseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}

func (h *CurriculumHandler) GetVersion(c *gin.Context) {
	versionID := idParam(c, "versionID")
	if versionID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_version_id", nil)
		return
	}
	version, err := h.curriculumService.GetVersion(c.Request.Context(), versionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}

func (h *CurriculumHandler) ReleaseVersion(c *gin.Context) {
	versionID := idParam(c, "versionID")
	if versionID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_version_id", nil)
		return
	}
	version, err := h.curriculumService.ReleaseVersion(c.Request.Context(), versionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": version})
}
