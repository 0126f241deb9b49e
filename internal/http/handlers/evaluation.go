package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/evaluation"
	"github.com/lessonworks/pianoschool-backend/internal/http/response"
	"github.com/lessonworks/pianoschool-backend/internal/platform/ctxutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/services"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type EvaluationHandler struct {
	log               *logger.Logger
	evaluationService services.EvaluationService
}

func NewEvaluationHandler(log *logger.Logger, evaluationService services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{
		log:               log.With("handler", "EvaluationHandler"),
		evaluationService: evaluationService,
	}
}

func (h *EvaluationHandler) CreateTask(c *gin.Context) {
	var req struct {
		StudentID  uuid.UUID `json:"student_id"`
		AssigneeID uuid.UUID `json:"assignee_id"`
		Note       *string   `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	task := types.EvaluationTask{
		StudentID:  req.StudentID,
		AssigneeID: req.AssigneeID,
		Note:       req.Note,
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.PersonID != uuid.Nil {
		pid := rd.PersonID
		task.CreatedByID = &pid
	}
	created, err := h.evaluationService.CreateTask(c.Request.Context(), &task)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"task": created})
}

func (h *EvaluationHandler) CreateTaskBatch(c *gin.Context) {
	var req struct {
		StudentIDs []uuid.UUID `json:"student_ids"`
		AssigneeID uuid.UUID   `json:"assignee_id"`
		Note       *string     `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tasks, err := h.evaluationService.CreateTaskBatch(c.Request.Context(), services.CreateTaskBatchInput{
		StudentIDs: req.StudentIDs,
		AssigneeID: req.AssigneeID,
		Note:       req.Note,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"tasks": tasks})
}

func (h *EvaluationHandler) GetTask(c *gin.Context) {
	taskID := idParam(c, "id")
	if taskID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_task_id", nil)
		return
	}
	task, err := h.evaluationService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"task": task})
}

func (h *EvaluationHandler) ListTasks(c *gin.Context) {
	offset, limit := pageParams(c)
	filter := evaluation.TaskFilter{
		AssigneeID: idQuery(c, "assignee_id"),
		StudentID:  idQuery(c, "student_id"),
		BatchID:    idQuery(c, "batch_id"),
		Status:     c.Query("status"),
		Offset:     offset,
		Limit:      limit,
	}
	tasks, total, err := h.evaluationService.ListTasks(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("ListTasks failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tasks": tasks, "total": total})
}

func (h *EvaluationHandler) UpdateTaskStatus(c *gin.Context) {
	taskID := idParam(c, "id")
	if taskID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_task_id", nil)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.evaluationService.UpdateTaskStatus(c.Request.Context(), taskID, req.Status); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *EvaluationHandler) SubmitFeedback(c *gin.Context) {
	taskID := idParam(c, "id")
	if taskID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_task_id", nil)
		return
	}
	var req struct {
		TeacherContent     string      `json:"teacher_content"`
		ResearcherFeedback *string     `json:"researcher_feedback"`
		ProduceImpression  bool        `json:"produce_impression"`
		ImpressionText     *string     `json:"impression_text"`
		PieceIDs           []uuid.UUID `json:"piece_ids"`
		CourseVersionID    *uuid.UUID  `json:"course_version_id"`
		LessonVersionID    *uuid.UUID  `json:"lesson_version_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := services.SubmitFeedbackInput{
		TaskID:             taskID,
		TeacherContent:     req.TeacherContent,
		ResearcherFeedback: req.ResearcherFeedback,
		ProduceImpression:  req.ProduceImpression,
		ImpressionText:     req.ImpressionText,
		PieceIDs:           req.PieceIDs,
		CourseVersionID:    req.CourseVersionID,
		LessonVersionID:    req.LessonVersionID,
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.PersonID != uuid.Nil {
		pid := rd.PersonID
		input.ActorID = &pid
	}
	feedback, err := h.evaluationService.SubmitFeedback(c.Request.Context(), input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"feedback": feedback})
}

func (h *EvaluationHandler) GetFeedback(c *gin.Context) {
	feedbackID := idParam(c, "id")
	if feedbackID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_feedback_id", nil)
		return
	}
	feedback, err := h.evaluationService.GetFeedback(c.Request.Context(), feedbackID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"feedback": feedback})
}

func (h *EvaluationHandler) ListStudentFeedback(c *gin.Context) {
	studentID := idParam(c, "id")
	if studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", nil)
		return
	}
	offset, limit := pageParams(c)
	records, total, err := h.evaluationService.ListFeedbackByStudent(c.Request.Context(), studentID, offset, limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"feedback": records, "total": total})
}

func (h *EvaluationHandler) ReapplyFeedback(c *gin.Context) {
	feedbackID := idParam(c, "id")
	if feedbackID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_feedback_id", nil)
		return
	}
	processed, err := h.evaluationService.UpdateByFeedback(c.Request.Context(), feedbackID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"processed": processed})
}

func (h *EvaluationHandler) TouchPieceStatus(c *gin.Context) {
	statusID := idParam(c, "id")
	if statusID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_status_id", nil)
		return
	}
	var req struct {
		FeedbackID uuid.UUID `json:"feedback_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.evaluationService.TouchWithFeedback(c.Request.Context(), statusID, req.FeedbackID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *EvaluationHandler) ListStudentPieceStatuses(c *gin.Context) {
	studentID := idParam(c, "id")
	if studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", nil)
		return
	}
	statuses, err := h.evaluationService.ListPieceStatuses(c.Request.Context(), studentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"piece_statuses": statuses})
}
