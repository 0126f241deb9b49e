package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/types"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity + auth
		// =========================
		&types.Person{},
		&types.PersonRole{},
		&types.Account{},
		&types.AccountToken{},

		// =========================
		// Students
		// =========================
		&types.Student{},
		&types.StudentTag{},
		&types.CourseRecord{},

		// =========================
		// Curriculum (drafts + released versions)
		// =========================
		&types.Course{},
		&types.Lesson{},
		&types.Piece{},
		&types.CourseVersion{},
		&types.LessonVersion{},
		&types.PieceVersion{},

		// =========================
		// Evaluation pipeline
		// =========================
		&types.EvaluationTask{},
		&types.FeedbackRecord{},
		&types.FeedbackPieceDetail{},
		&types.StudentPieceStatus{},

		// =========================
		// Reminders + follow-ups
		// =========================
		&types.Reminder{},
		&types.ReminderRecipient{},
		&types.FollowUpRecord{},

		// =========================
		// Messaging
		// =========================
		&types.Notification{},
		&types.Announcement{},
	)
}

// EnsureUniqueIndexes creates the partial unique indexes gorm tags cannot
// express. Uniqueness is scoped to live rows: a soft-deleted row frees its
// key for reuse.
func EnsureUniqueIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_piece_status_student_piece
		ON student_piece_status (student_id, piece_id)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_piece_status_student_piece: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_reminder_recipient_person
		ON reminder_recipient (reminder_id, person_id)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_reminder_recipient_person: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_course_name_live
		ON course (name)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_name_live: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_lesson_course_sort
		ON lesson (course_id, sort_order)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_lesson_course_sort: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_piece_lesson_name
		ON piece (lesson_id, name)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_piece_lesson_name: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_course_version_label
		ON course_version (course_id, version_label)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_version_label: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_follow_up_student_seq
		ON follow_up_record (student_id, seq_no)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_follow_up_student_seq: %w", err)
	}

	return nil
}

// EnsureCheckConstraints adds integrity checks gorm does not model. The
// notification link pair is all-or-nothing.
func EnsureCheckConstraints(db *gorm.DB) error {
	if err := db.Exec(`
		DO $$ BEGIN
			ALTER TABLE notification
			ADD CONSTRAINT chk_notification_link_pair
			CHECK ((link_type IS NULL) = (link_id IS NULL));
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("add chk_notification_link_pair: %w", err)
	}

	if err := db.Exec(`
		DO $$ BEGIN
			ALTER TABLE student_piece_status
			ADD CONSTRAINT chk_piece_status_review_count
			CHECK (review_count >= 0);
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("add chk_piece_status_review_count: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureUniqueIndexes(s.db); err != nil {
		s.log.Error("Unique index migration failed", "error", err)
		return err
	}
	if err := EnsureCheckConstraints(s.db); err != nil {
		s.log.Error("Check constraint migration failed", "error", err)
		return err
	}

	return nil
}
