package types

import (
	"testing"
	"time"
)

func TestPickRoleLetterPriority(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		want  string
	}{
		{"teacher only", []string{RoleTeacher}, "T"},
		{"researcher only", []string{RoleResearcher}, "R"},
		{"operator only", []string{RoleOperator}, "O"},
		{"teacher wins over researcher", []string{RoleResearcher, RoleTeacher}, "T"},
		{"teacher wins over operator", []string{RoleOperator, RoleTeacher}, "T"},
		{"researcher wins over operator", []string{RoleOperator, RoleResearcher}, "R"},
		{"all three", []string{RoleOperator, RoleResearcher, RoleTeacher}, "T"},
		{"no roles defaults to operator", nil, "O"},
		{"unknown role defaults to operator", []string{"janitor"}, "O"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PickRoleLetter(tc.roles); got != tc.want {
				t.Fatalf("PickRoleLetter(%v) = %q, want %q", tc.roles, got, tc.want)
			}
		})
	}
}

func TestPickRoleLetterOrderIndependent(t *testing.T) {
	a := PickRoleLetter([]string{RoleResearcher, RoleTeacher, RoleOperator})
	b := PickRoleLetter([]string{RoleOperator, RoleTeacher, RoleResearcher})
	if a != b {
		t.Fatalf("role letter depends on order: %q vs %q", a, b)
	}
}

func TestE2ELabel(t *testing.T) {
	letters := []string{"T", "R", "O"}
	seen := map[string]bool{}
	for _, s := range letters {
		for _, r := range letters {
			label := E2ELabel(s, r)
			if len(label) != 3 || label[1] != '2' {
				t.Fatalf("malformed label %q", label)
			}
			seen[label] = true
		}
	}
	if len(seen) != 9 {
		t.Fatalf("expected 9 distinct labels, got %d", len(seen))
	}
	for _, want := range []string{E2ET2T, E2ET2R, E2ET2O, E2ER2T, E2ER2R, E2ER2O, E2EO2T, E2EO2R, E2EO2O} {
		if !seen[want] {
			t.Fatalf("label %q not produced", want)
		}
	}
}

func TestReminderIsActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(24 * time.Hour)

	r := &Reminder{StartAt: now.Add(-time.Hour), EndAt: &end}
	if !r.IsActive(now) {
		t.Fatal("reminder inside window should be active")
	}
	if r.IsActive(now.Add(-2 * time.Hour)) {
		t.Fatal("reminder before start should be inactive")
	}
	if r.IsActive(end.Add(time.Second)) {
		t.Fatal("reminder after end should be inactive")
	}
	if !r.IsActive(end) {
		t.Fatal("end bound is inclusive")
	}
	if !r.IsActive(r.StartAt) {
		t.Fatal("start bound is inclusive")
	}

	open := &Reminder{StartAt: now}
	if !open.IsActive(now.Add(100 * 24 * time.Hour)) {
		t.Fatal("missing end means unbounded")
	}
}

func TestAnnouncementIsActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(time.Hour)

	a := &Announcement{PublishAt: now, ExpireAt: &exp}
	if !a.IsActive(now) {
		t.Fatal("publish bound is inclusive")
	}
	if a.IsActive(now.Add(-time.Second)) {
		t.Fatal("unpublished announcement should be inactive")
	}
	if a.IsActive(exp.Add(time.Second)) {
		t.Fatal("expired announcement should be inactive")
	}

	noExpiry := &Announcement{PublishAt: now}
	if !noExpiry.IsActive(now.Add(365 * 24 * time.Hour)) {
		t.Fatal("missing expiry means unbounded")
	}
}
