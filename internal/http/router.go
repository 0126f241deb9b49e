package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/lessonworks/pianoschool-backend/internal/http/handlers"
	httpMW "github.com/lessonworks/pianoschool-backend/internal/http/middleware"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	PersonHandler       *httpH.PersonHandler
	StudentHandler      *httpH.StudentHandler
	CurriculumHandler   *httpH.CurriculumHandler
	EvaluationHandler   *httpH.EvaluationHandler
	ReminderHandler     *httpH.ReminderHandler
	FollowUpHandler     *httpH.FollowUpHandler
	NotificationHandler *httpH.NotificationHandler
	AnnouncementHandler *httpH.AnnouncementHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// People and roles
		if cfg.PersonHandler != nil {
			protected.POST("/people", cfg.PersonHandler.Create)
			protected.GET("/people", cfg.PersonHandler.List)
			protected.GET("/people/:id", cfg.PersonHandler.Get)
			protected.PATCH("/people/:id", cfg.PersonHandler.Update)
			protected.DELETE("/people/:id", cfg.PersonHandler.Delete)
			protected.GET("/people/:id/roles", cfg.PersonHandler.Roles)
			protected.PUT("/people/:id/roles", cfg.PersonHandler.SetRoles)
		}

		// Students
		if cfg.StudentHandler != nil {
			protected.POST("/students", cfg.StudentHandler.Create)
			protected.GET("/students", cfg.StudentHandler.List)
			protected.GET("/students/:id", cfg.StudentHandler.Get)
			protected.PATCH("/students/:id", cfg.StudentHandler.Update)
			protected.POST("/students/:id/disable", cfg.StudentHandler.Disable)
			protected.PUT("/students/:id/tags", cfg.StudentHandler.SetTags)
			protected.POST("/student-tags", cfg.StudentHandler.CreateTag)
			protected.GET("/student-tags", cfg.StudentHandler.ListTags)
			protected.POST("/students/:id/course-records", cfg.StudentHandler.Enroll)
			protected.GET("/students/:id/course-records", cfg.StudentHandler.ListCourseRecords)
			protected.PATCH("/course-records/:recordID", cfg.StudentHandler.UpdateCourseRecord)
			protected.POST("/course-records/:recordID/close", cfg.StudentHandler.CloseCourseRecord)
		}

		// Curriculum
		if cfg.CurriculumHandler != nil {
			protected.POST("/courses", cfg.CurriculumHandler.CreateCourse)
			protected.GET("/courses", cfg.CurriculumHandler.ListCourses)
			protected.GET("/courses/:id", cfg.CurriculumHandler.GetCourse)
			protected.PATCH("/courses/:id", cfg.CurriculumHandler.UpdateCourse)
			protected.DELETE("/courses/:id", cfg.CurriculumHandler.DeleteCourse)
			protected.POST("/courses/:id/lessons", cfg.CurriculumHandler.CreateLesson)
			protected.GET("/courses/:id/lessons", cfg.CurriculumHandler.ListLessons)
			protected.PATCH("/lessons/:lessonID", cfg.CurriculumHandler.UpdateLesson)
			protected.DELETE("/lessons/:lessonID", cfg.CurriculumHandler.DeleteLesson)
			protected.POST("/lessons/:lessonID/pieces", cfg.CurriculumHandler.CreatePiece)
			protected.GET("/lessons/:lessonID/pieces", cfg.CurriculumHandler.ListPieces)
			protected.PATCH("/pieces/:pieceID", cfg.CurriculumHandler.UpdatePiece)
			protected.DELETE("/pieces/:pieceID", cfg.CurriculumHandler.DeletePiece)
			protected.POST("/courses/:id/versions", cfg.CurriculumHandler.CreateVersion)
			protected.GET("/courses/:id/versions", cfg.CurriculumHandler.ListVersions)
			protected.GET("/course-versions/:versionID", cfg.CurriculumHandler.GetVersion)
			protected.POST("/course-versions/:versionID/release", cfg.CurriculumHandler.ReleaseVersion)
		}

		// Evaluation pipeline
		if cfg.EvaluationHandler != nil {
			protected.POST("/evaluation-tasks", cfg.EvaluationHandler.CreateTask)
			protected.POST("/evaluation-tasks/batch", cfg.EvaluationHandler.CreateTaskBatch)
			protected.GET("/evaluation-tasks", cfg.EvaluationHandler.ListTasks)
			protected.GET("/evaluation-tasks/:id", cfg.EvaluationHandler.GetTask)
			protected.PATCH("/evaluation-tasks/:id/status", cfg.EvaluationHandler.UpdateTaskStatus)
			protected.POST("/evaluation-tasks/:id/feedback", cfg.EvaluationHandler.SubmitFeedback)
			protected.GET("/feedback/:id", cfg.EvaluationHandler.GetFeedback)
			protected.POST("/feedback/:id/reapply", cfg.EvaluationHandler.ReapplyFeedback)
			protected.GET("/students/:id/feedback", cfg.EvaluationHandler.ListStudentFeedback)
			protected.GET("/students/:id/piece-statuses", cfg.EvaluationHandler.ListStudentPieceStatuses)
			protected.POST("/piece-statuses/:id/touch", cfg.EvaluationHandler.TouchPieceStatus)
		}

		// Reminders
		if cfg.ReminderHandler != nil {
			protected.POST("/reminders", cfg.ReminderHandler.Create)
			protected.GET("/reminders", cfg.ReminderHandler.List)
			protected.GET("/reminders/:id", cfg.ReminderHandler.Get)
			protected.DELETE("/reminders/:id", cfg.ReminderHandler.Delete)
			protected.PUT("/reminders/:id/recipients", cfg.ReminderHandler.SetRecipients)
			protected.POST("/reminders/:id/read", cfg.ReminderHandler.MarkRead)
			protected.POST("/reminders/:id/read-all", cfg.ReminderHandler.MarkAllRead)
			protected.POST("/reminders/bulk-read", cfg.ReminderHandler.BulkMarkRead)
			protected.GET("/reminders/inbox/me", cfg.ReminderHandler.Inbox)
			protected.GET("/reminders/inbox/unread-count", cfg.ReminderHandler.UnreadCount)
			protected.POST("/reminders/inbox/read-all", cfg.ReminderHandler.MarkInboxRead)
		}

		// Follow-ups
		if cfg.FollowUpHandler != nil {
			protected.POST("/follow-ups", cfg.FollowUpHandler.Create)
			protected.GET("/follow-ups", cfg.FollowUpHandler.List)
			protected.GET("/follow-ups/:id", cfg.FollowUpHandler.Get)
			protected.PATCH("/follow-ups/:id", cfg.FollowUpHandler.Update)
			protected.POST("/follow-ups/:id/done", cfg.FollowUpHandler.MarkDone)
			protected.DELETE("/follow-ups/:id", cfg.FollowUpHandler.Delete)
		}

		// Notifications
		if cfg.NotificationHandler != nil {
			protected.POST("/notifications", cfg.NotificationHandler.Create)
			protected.GET("/notifications", cfg.NotificationHandler.List)
			protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
			protected.POST("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
			protected.GET("/notifications/unread-count", cfg.NotificationHandler.UnreadCount)
		}

		// Announcements
		if cfg.AnnouncementHandler != nil {
			protected.POST("/announcements", cfg.AnnouncementHandler.Create)
			protected.GET("/announcements", cfg.AnnouncementHandler.List)
			protected.GET("/announcements/:id", cfg.AnnouncementHandler.Get)
			protected.PATCH("/announcements/:id", cfg.AnnouncementHandler.Update)
			protected.DELETE("/announcements/:id", cfg.AnnouncementHandler.Delete)
		}
	}

	return r
}
