package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/followup"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/student"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/testutil"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

func newFollowUpEnv(t *testing.T) (context.Context, *gorm.DB, FollowUpService) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	svc := NewFollowUpService(tx, log, followup.NewFollowUpRepo(tx, log), student.NewStudentRepo(tx, log))
	return context.Background(), tx, svc
}

func TestFollowUpSeqNoCountsPerStudent(t *testing.T) {
	ctx, tx, svc := newFollowUpEnv(t)

	owner := testutil.SeedPerson(t, ctx, tx, "owner", types.RoleOperator)
	stuA := testutil.SeedStudent(t, ctx, tx, "anna")
	stuB := testutil.SeedStudent(t, ctx, tx, "ben")

	for want := 1; want <= 3; want++ {
		rec, err := svc.Create(ctx, &types.FollowUpRecord{
			StudentID: stuA.ID,
			OwnerID:   owner.ID,
			Content:   "call the parents",
		})
		if err != nil {
			t.Fatalf("Create (%d): %v", want, err)
		}
		if rec.SeqNo != want {
			t.Fatalf("seq no: want=%d got=%d", want, rec.SeqNo)
		}
	}

	// Another student starts from one.
	rec, err := svc.Create(ctx, &types.FollowUpRecord{
		StudentID: stuB.ID,
		OwnerID:   owner.ID,
		Content:   "schedule a makeup lesson",
	})
	if err != nil {
		t.Fatalf("Create (other student): %v", err)
	}
	if rec.SeqNo != 1 {
		t.Fatalf("seq no for second student: want=1 got=%d", rec.SeqNo)
	}
}

func TestFollowUpMarkDoneIsIdempotent(t *testing.T) {
	ctx, tx, svc := newFollowUpEnv(t)

	owner := testutil.SeedPerson(t, ctx, tx, "owner", types.RoleOperator)
	stu := testutil.SeedStudent(t, ctx, tx, "anna")

	rec, err := svc.Create(ctx, &types.FollowUpRecord{
		StudentID: stu.ID,
		OwnerID:   owner.ID,
		Content:   "confirm practice schedule",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.MarkDone(ctx, rec.ID, testutil.PtrString("parents confirmed")); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	got, err := svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != types.FollowUpDone || got.DoneAt == nil {
		t.Fatalf("record not done: status=%q done_at=%v", got.Status, got.DoneAt)
	}
	doneAt := *got.DoneAt

	if err := svc.MarkDone(ctx, rec.ID, testutil.PtrString("second pass")); err != nil {
		t.Fatalf("MarkDone (repeat): %v", err)
	}
	again, err := svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get (repeat): %v", err)
	}
	if !again.DoneAt.Equal(doneAt) {
		t.Fatalf("done_at moved on repeat")
	}
	if again.Result == nil || *again.Result != "parents confirmed" {
		t.Fatalf("result overwritten on repeat: %v", again.Result)
	}
}

func TestFollowUpUpdateCannotMoveRecord(t *testing.T) {
	ctx, tx, svc := newFollowUpEnv(t)

	owner := testutil.SeedPerson(t, ctx, tx, "owner", types.RoleOperator)
	stu := testutil.SeedStudent(t, ctx, tx, "anna")

	rec, err := svc.Create(ctx, &types.FollowUpRecord{
		StudentID: stu.ID,
		OwnerID:   owner.ID,
		Content:   "original",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := testutil.SeedStudent(t, ctx, tx, "ben")
	if err := svc.Update(ctx, rec.ID, map[string]any{
		"content":    "edited",
		"student_id": other.ID,
		"seq_no":     99,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != "edited" {
		t.Fatalf("content not updated")
	}
	if got.StudentID != stu.ID || got.SeqNo != 1 {
		t.Fatalf("identity fields changed: student=%s seq=%d", got.StudentID, got.SeqNo)
	}
}
