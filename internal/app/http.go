package app

import (
	"github.com/gin-gonic/gin"

	"github.com/lessonworks/pianoschool-backend/internal/http"
	httpH "github.com/lessonworks/pianoschool-backend/internal/http/handlers"
	httpMW "github.com/lessonworks/pianoschool-backend/internal/http/middleware"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	Person       *httpH.PersonHandler
	Student      *httpH.StudentHandler
	Curriculum   *httpH.CurriculumHandler
	Evaluation   *httpH.EvaluationHandler
	Reminder     *httpH.ReminderHandler
	FollowUp     *httpH.FollowUpHandler
	Notification *httpH.NotificationHandler
	Announcement *httpH.AnnouncementHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(),
		Auth:         httpH.NewAuthHandler(services.Auth),
		Person:       httpH.NewPersonHandler(log, services.Person),
		Student:      httpH.NewStudentHandler(log, services.Student),
		Curriculum:   httpH.NewCurriculumHandler(log, services.Curriculum),
		Evaluation:   httpH.NewEvaluationHandler(log, services.Evaluation),
		Reminder:     httpH.NewReminderHandler(log, services.Reminder),
		FollowUp:     httpH.NewFollowUpHandler(log, services.FollowUp),
		Notification: httpH.NewNotificationHandler(log, services.Notification),
		Announcement: httpH.NewAnnouncementHandler(log, services.Announcement),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		HealthHandler:  handlers.Health,
		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,

		PersonHandler:       handlers.Person,
		StudentHandler:      handlers.Student,
		CurriculumHandler:   handlers.Curriculum,
		EvaluationHandler:   handlers.Evaluation,
		ReminderHandler:     handlers.Reminder,
		FollowUpHandler:     handlers.FollowUp,
		NotificationHandler: handlers.Notification,
		AnnouncementHandler: handlers.Announcement,
	})
}
