package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/person"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/reminder"
	"github.com/lessonworks/pianoschool-backend/internal/data/repos/testutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/apierr"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

func newReminderEnv(t *testing.T) (context.Context, *gorm.DB, reminder.ReminderRepo, ReminderService) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	remRepo := reminder.NewReminderRepo(tx, log)
	svc := NewReminderService(tx, log, remRepo, person.NewPersonRepo(tx, log))
	return context.Background(), tx, remRepo, svc
}

func TestCreateReminderFansOutDistinctRecipients(t *testing.T) {
	ctx, tx, remRepo, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	alice := testutil.SeedPerson(t, ctx, tx, "alice", types.RoleResearcher)
	bob := testutil.SeedPerson(t, ctx, tx, "bob", types.RoleOperator)

	rem, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID:     sender.ID,
		ReceiverID:   testutil.PtrUUID(alice.ID),
		RecipientIDs: []uuid.UUID{alice.ID, bob.ID, bob.ID},
		Content:      "check the assignment backlog",
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	recipients, err := remRepo.ListRecipients(ctx, tx, rem.ID)
	if err != nil {
		t.Fatalf("ListRecipients: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("recipients: want=2 got=%d", len(recipients))
	}
	for _, r := range recipients {
		if r.IsRead {
			t.Fatalf("recipient %s created read", r.PersonID)
		}
	}
	// Receiver stays the representative, so teacher-to-researcher.
	if rem.E2EType != types.E2ET2R {
		t.Fatalf("e2e: want=%s got=%s", types.E2ET2R, rem.E2EType)
	}
}

func TestFirstRecipientBreaksTimestampTiesByID(t *testing.T) {
	ctx, tx, remRepo, _ := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	low := testutil.SeedPerson(t, ctx, tx, "low", types.RoleResearcher)
	high := testutil.SeedPerson(t, ctx, tx, "high", types.RoleOperator)
	rem := testutil.SeedReminder(t, ctx, tx, sender.ID, types.E2ET2R)

	// One batch insert gives both rows the same created_at.
	sharedAt := time.Now().UTC().Truncate(time.Microsecond)
	rows := []*types.ReminderRecipient{
		{
			ID:         uuid.MustParse("ffffffff-0000-0000-0000-000000000000"),
			ReminderID: rem.ID,
			PersonID:   high.ID,
			CreatedAt:  sharedAt,
		},
		{
			ID:         uuid.MustParse("00000000-0000-0000-0000-00000000000f"),
			ReminderID: rem.ID,
			PersonID:   low.ID,
			CreatedAt:  sharedAt,
		},
	}
	if _, err := remRepo.CreateRecipients(ctx, tx, rows); err != nil {
		t.Fatalf("CreateRecipients: %v", err)
	}

	first, err := remRepo.FirstRecipient(ctx, tx, rem.ID)
	if err != nil {
		t.Fatalf("FirstRecipient: %v", err)
	}
	if first == nil || first.PersonID != low.ID {
		t.Fatalf("representative not the lowest id: %+v", first)
	}
}

func TestCreateReminderRejectsEmptyTargetSet(t *testing.T) {
	ctx, tx, _, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	_, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID: sender.ID,
		Content:  "nobody to tell",
	})
	if err == nil {
		t.Fatalf("expected no_recipients error")
	}
	if apierr.CodeOf(err) != "no_recipients" {
		t.Fatalf("code: want=no_recipients got=%q", apierr.CodeOf(err))
	}
}

func TestCreateReminderUsesFirstRecipientWithoutReceiver(t *testing.T) {
	ctx, tx, _, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleResearcher)
	first := testutil.SeedPerson(t, ctx, tx, "first", types.RoleTeacher)
	second := testutil.SeedPerson(t, ctx, tx, "second", types.RoleOperator)

	rem, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID:     sender.ID,
		RecipientIDs: []uuid.UUID{first.ID, second.ID},
		Content:      "researcher to teacher",
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if rem.E2EType != types.E2ER2T {
		t.Fatalf("e2e: want=%s got=%s", types.E2ER2T, rem.E2EType)
	}
}

func TestComputeE2ETypeTeacherOutranksOtherRoles(t *testing.T) {
	ctx, tx, _, svc := newReminderEnv(t)

	// Sender holds both roles; teacher wins.
	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleResearcher, types.RoleTeacher)
	receiver := testutil.SeedPerson(t, ctx, tx, "receiver", types.RoleTeacher)

	rem := testutil.SeedReminder(t, ctx, tx, sender.ID, types.E2EO2O)
	rem.ReceiverID = testutil.PtrUUID(receiver.ID)

	e2e, err := svc.ComputeE2EType(ctx, tx, rem)
	if err != nil {
		t.Fatalf("ComputeE2EType: %v", err)
	}
	if e2e != types.E2ET2T {
		t.Fatalf("e2e: want=%s got=%s", types.E2ET2T, e2e)
	}
}

func TestComputeE2ETypeDefaultsToOtherWithNoRecipients(t *testing.T) {
	ctx, tx, _, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	rem := testutil.SeedReminder(t, ctx, tx, sender.ID, types.E2EO2O)

	e2e, err := svc.ComputeE2EType(ctx, tx, rem)
	if err != nil {
		t.Fatalf("ComputeE2EType: %v", err)
	}
	if e2e != types.E2ET2O {
		t.Fatalf("e2e: want=%s got=%s", types.E2ET2O, e2e)
	}
}

func TestSetRecipientsAppendsWithoutDuplicates(t *testing.T) {
	ctx, tx, remRepo, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	alice := testutil.SeedPerson(t, ctx, tx, "alice", types.RoleResearcher)
	bob := testutil.SeedPerson(t, ctx, tx, "bob", types.RoleOperator)

	rem, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID:   sender.ID,
		ReceiverID: testutil.PtrUUID(alice.ID),
		Content:    "initial",
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	// alice is already in the set; only bob gets a new row.
	if err := svc.SetRecipients(ctx, rem.ID, []uuid.UUID{alice.ID, bob.ID}, false); err != nil {
		t.Fatalf("SetRecipients: %v", err)
	}
	recipients, err := remRepo.ListRecipients(ctx, tx, rem.ID)
	if err != nil {
		t.Fatalf("ListRecipients: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("recipients: want=2 got=%d", len(recipients))
	}
}

func TestSetRecipientsClearDiscardsReadState(t *testing.T) {
	ctx, tx, remRepo, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	alice := testutil.SeedPerson(t, ctx, tx, "alice", types.RoleResearcher)
	bob := testutil.SeedPerson(t, ctx, tx, "bob", types.RoleOperator)

	rem, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID:   sender.ID,
		ReceiverID: testutil.PtrUUID(alice.ID),
		Content:    "initial",
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if err := svc.MarkRead(ctx, rem.ID, alice.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	if err := svc.SetRecipients(ctx, rem.ID, []uuid.UUID{alice.ID, bob.ID}, true); err != nil {
		t.Fatalf("SetRecipients (clear): %v", err)
	}
	recipients, err := remRepo.ListRecipients(ctx, tx, rem.ID)
	if err != nil {
		t.Fatalf("ListRecipients: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("recipients: want=2 got=%d", len(recipients))
	}
	for _, r := range recipients {
		if r.IsRead || r.ReadAt != nil {
			t.Fatalf("replaced recipient %s kept read state", r.PersonID)
		}
	}
}

func TestSetRecipientsRecomputesE2EType(t *testing.T) {
	ctx, tx, remRepo, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	ops := testutil.SeedPerson(t, ctx, tx, "ops", types.RoleOperator)
	researcher := testutil.SeedPerson(t, ctx, tx, "researcher", types.RoleResearcher)

	rem, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID:     sender.ID,
		RecipientIDs: []uuid.UUID{ops.ID},
		Content:      "to ops first",
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if rem.E2EType != types.E2ET2O {
		t.Fatalf("e2e before: want=%s got=%s", types.E2ET2O, rem.E2EType)
	}

	if err := svc.SetRecipients(ctx, rem.ID, []uuid.UUID{researcher.ID}, true); err != nil {
		t.Fatalf("SetRecipients: %v", err)
	}
	got, err := remRepo.GetByID(ctx, tx, rem.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.E2EType != types.E2ET2R {
		t.Fatalf("e2e after: want=%s got=%s", types.E2ET2R, got.E2EType)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	ctx, tx, remRepo, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	alice := testutil.SeedPerson(t, ctx, tx, "alice", types.RoleResearcher)

	rem, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID:   sender.ID,
		ReceiverID: testutil.PtrUUID(alice.ID),
		Content:    "read me",
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	if err := svc.MarkRead(ctx, rem.ID, alice.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	first, err := remRepo.GetRecipient(ctx, tx, rem.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetRecipient: %v", err)
	}
	if !first.IsRead || first.ReadAt == nil {
		t.Fatalf("recipient not marked read")
	}
	firstReadAt := *first.ReadAt

	time.Sleep(10 * time.Millisecond)
	if err := svc.MarkRead(ctx, rem.ID, alice.ID); err != nil {
		t.Fatalf("MarkRead (repeat): %v", err)
	}
	again, err := remRepo.GetRecipient(ctx, tx, rem.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetRecipient (repeat): %v", err)
	}
	if !again.ReadAt.Equal(firstReadAt) {
		t.Fatalf("read_at moved on repeat: first=%v again=%v", firstReadAt, again.ReadAt)
	}
}

func TestMarkReadUnknownRecipientIs404(t *testing.T) {
	ctx, tx, _, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	alice := testutil.SeedPerson(t, ctx, tx, "alice", types.RoleResearcher)
	outsider := testutil.SeedPerson(t, ctx, tx, "outsider", types.RoleOperator)

	rem, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID:   sender.ID,
		ReceiverID: testutil.PtrUUID(alice.ID),
		Content:    "private",
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	err = svc.MarkRead(ctx, rem.ID, outsider.ID)
	if err == nil {
		t.Fatalf("expected not-found error")
	}
	if apierr.StatusOf(err) != 404 {
		t.Fatalf("status: want=404 got=%d", apierr.StatusOf(err))
	}
}

func TestBulkMarkReadOnlyTouchesNamedReminders(t *testing.T) {
	ctx, tx, remRepo, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	alice := testutil.SeedPerson(t, ctx, tx, "alice", types.RoleResearcher)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		rem, err := svc.CreateReminder(ctx, CreateReminderInput{
			SenderID:   sender.ID,
			ReceiverID: testutil.PtrUUID(alice.ID),
			Content:    "one of several",
		})
		if err != nil {
			t.Fatalf("CreateReminder (%d): %v", i, err)
		}
		ids = append(ids, rem.ID)
	}

	updated, err := svc.BulkMarkRead(ctx, alice.ID, ids[:2])
	if err != nil {
		t.Fatalf("BulkMarkRead: %v", err)
	}
	if updated != 2 {
		t.Fatalf("updated: want=2 got=%d", updated)
	}

	unread, err := remRepo.CountUnread(ctx, tx, alice.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if unread != 1 {
		t.Fatalf("unread: want=1 got=%d", unread)
	}
}

func TestInboxUnreadOnlyFilters(t *testing.T) {
	ctx, tx, _, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	alice := testutil.SeedPerson(t, ctx, tx, "alice", types.RoleResearcher)

	remA, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID:   sender.ID,
		ReceiverID: testutil.PtrUUID(alice.ID),
		Content:    "first",
	})
	if err != nil {
		t.Fatalf("CreateReminder A: %v", err)
	}
	if _, err := svc.CreateReminder(ctx, CreateReminderInput{
		SenderID:   sender.ID,
		ReceiverID: testutil.PtrUUID(alice.ID),
		Content:    "second",
	}); err != nil {
		t.Fatalf("CreateReminder B: %v", err)
	}
	if err := svc.MarkRead(ctx, remA.ID, alice.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	all, total, err := svc.Inbox(ctx, alice.ID, false, 0, 10)
	if err != nil {
		t.Fatalf("Inbox (all): %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("inbox all: want=2 got total=%d len=%d", total, len(all))
	}

	unread, total, err := svc.Inbox(ctx, alice.ID, true, 0, 10)
	if err != nil {
		t.Fatalf("Inbox (unread): %v", err)
	}
	if total != 1 || len(unread) != 1 {
		t.Fatalf("inbox unread: want=1 got total=%d len=%d", total, len(unread))
	}
	if unread[0].Reminder == nil || unread[0].Reminder.Content != "second" {
		t.Fatalf("unexpected unread entry")
	}
}

func TestMarkInboxReadClearsOnlyCallersUnread(t *testing.T) {
	ctx, tx, remRepo, svc := newReminderEnv(t)

	sender := testutil.SeedPerson(t, ctx, tx, "sender", types.RoleTeacher)
	alice := testutil.SeedPerson(t, ctx, tx, "alice", types.RoleResearcher)
	bob := testutil.SeedPerson(t, ctx, tx, "bob", types.RoleOperator)

	var first *types.Reminder
	for i := 0; i < 2; i++ {
		rem, err := svc.CreateReminder(ctx, CreateReminderInput{
			SenderID:     sender.ID,
			RecipientIDs: []uuid.UUID{alice.ID, bob.ID},
			Content:      "weekly recap",
		})
		if err != nil {
			t.Fatalf("CreateReminder (%d): %v", i, err)
		}
		if first == nil {
			first = rem
		}
	}

	// One row already read keeps its original read_at.
	if err := svc.MarkRead(ctx, first.ID, alice.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	readRow, err := remRepo.GetRecipient(ctx, tx, first.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetRecipient: %v", err)
	}
	firstReadAt := *readRow.ReadAt

	time.Sleep(10 * time.Millisecond)
	updated, err := svc.MarkInboxRead(ctx, alice.ID)
	if err != nil {
		t.Fatalf("MarkInboxRead: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated: want=1 got=%d", updated)
	}

	aliceUnread, err := remRepo.CountUnread(ctx, tx, alice.ID)
	if err != nil {
		t.Fatalf("CountUnread alice: %v", err)
	}
	if aliceUnread != 0 {
		t.Fatalf("alice unread: want=0 got=%d", aliceUnread)
	}
	bobUnread, err := remRepo.CountUnread(ctx, tx, bob.ID)
	if err != nil {
		t.Fatalf("CountUnread bob: %v", err)
	}
	if bobUnread != 2 {
		t.Fatalf("bob unread: want=2 got=%d", bobUnread)
	}

	again, err := remRepo.GetRecipient(ctx, tx, first.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetRecipient (after): %v", err)
	}
	if !again.ReadAt.Equal(firstReadAt) {
		t.Fatalf("read_at moved on inbox sweep: first=%v again=%v", firstReadAt, again.ReadAt)
	}
}
