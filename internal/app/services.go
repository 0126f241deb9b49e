package app

import (
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Person       services.PersonService
	Student      services.StudentService
	Curriculum   services.CurriculumService
	Evaluation   services.EvaluationService
	Reminder     services.ReminderService
	FollowUp     services.FollowUpService
	Notification services.NotificationService
	Announcement services.AnnouncementService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:         services.NewAuthService(db, log, repos.Account, repos.Person, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Person:       services.NewPersonService(db, log, repos.Person),
		Student:      services.NewStudentService(db, log, repos.Student, repos.Curriculum),
		Curriculum:   services.NewCurriculumService(db, log, repos.Curriculum),
		Evaluation:   services.NewEvaluationService(db, log, repos.Evaluation, repos.Curriculum, repos.Student, repos.Notification),
		Reminder:     services.NewReminderService(db, log, repos.Reminder, repos.Person),
		FollowUp:     services.NewFollowUpService(db, log, repos.FollowUp, repos.Student),
		Notification: services.NewNotificationService(db, log, repos.Notification),
		Announcement: services.NewAnnouncementService(db, log, repos.Announcement),
	}
}
