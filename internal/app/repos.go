package app

import (
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/account"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/announcement"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/curriculum"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/evaluation"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/followup"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/notification"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/person"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/reminder"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/student"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
)

type Repos struct {
	Account      account.AccountRepo
	Person       person.PersonRepo
	Student      student.StudentRepo
	Curriculum   curriculum.CurriculumRepo
	Evaluation   evaluation.EvaluationRepo
	Reminder     reminder.ReminderRepo
	FollowUp     followup.FollowUpRepo
	Notification notification.NotificationRepo
	Announcement announcement.AnnouncementRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Account:      account.NewAccountRepo(db, log),
		Person:       person.NewPersonRepo(db, log),
		Student:      student.NewStudentRepo(db, log),
		Curriculum:   curriculum.NewCurriculumRepo(db, log),
		Evaluation:   evaluation.NewEvaluationRepo(db, log),
		Reminder:     reminder.NewReminderRepo(db, log),
		FollowUp:     followup.NewFollowUpRepo(db, log),
		Notification: notification.NewNotificationRepo(db, log),
		Announcement: announcement.NewAnnouncementRepo(db, log),
	}
}
