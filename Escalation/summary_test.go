package Escalation

import (
	"testing"
	"time"

	"Hearth/Models"
)

func seedEscalation(t *testing.T, f *fixture, childID uint, level int, start time.Time, resolved *time.Time) Models.Escalation {
	t.Helper()
	task := Models.Task{
		FamilyID:     f.family.ID,
		AssignedToID: childID,
		Title:        "seeded",
		Status:       Models.TaskOverdue,
	}
	if err := f.db.Create(&task).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	esc := Models.Escalation{
		TaskID:        task.ID,
		FamilyID:      f.family.ID,
		ChildID:       childID,
		Level:         level,
		NotifiedLevel: level,
		StartTime:     start,
	}
	if resolved != nil {
		reason := Models.ResolvedCompleted
		esc.ResolvedReason = &reason
		esc.ResolvedAt = resolved
	}
	if err := f.db.Create(&esc).Error; err != nil {
		t.Fatalf("failed to create escalation: %v", err)
	}
	return esc
}

func TestGetEscalationSummary_Empty(t *testing.T) {
	f := newFixture(t)

	summary, err := f.engine.GetEscalationSummary(f.family.ID, 7, time.Now())
	if err != nil {
		t.Fatalf("GetEscalationSummary failed: %v", err)
	}

	if summary.TotalEscalations != 0 {
		t.Errorf("expected 0 total escalations, got %d", summary.TotalEscalations)
	}
	if summary.CurrentlyEscalated != 0 {
		t.Errorf("expected 0 currently escalated, got %d", summary.CurrentlyEscalated)
	}
	if summary.ChildrenWithMostEscalations == nil || len(summary.ChildrenWithMostEscalations) != 0 {
		t.Errorf("expected empty children list, got %v", summary.ChildrenWithMostEscalations)
	}
}

func TestGetEscalationSummary_Aggregates(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	sibling := Models.Member{FamilyID: f.family.ID, Name: "Sibling", Role: Models.RoleChild}
	if err := f.db.Create(&sibling).Error; err != nil {
		t.Fatalf("failed to create sibling: %v", err)
	}

	// Child: two records, one resolved after 90 minutes at level 3.
	start := now.Add(-24 * time.Hour)
	resolved := start.Add(90 * time.Minute)
	seedEscalation(t, f, f.child.ID, 3, start, &resolved)
	seedEscalation(t, f, f.child.ID, 1, now.Add(-2*time.Hour), nil)

	// Sibling: one unresolved level 2 record, resolved after 30 minutes.
	start2 := now.Add(-6 * time.Hour)
	resolved2 := start2.Add(30 * time.Minute)
	seedEscalation(t, f, sibling.ID, 2, start2, &resolved2)

	// Outside the window: must not count.
	seedEscalation(t, f, f.child.ID, 4, now.AddDate(0, 0, -30), nil)

	summary, err := f.engine.GetEscalationSummary(f.family.ID, 7, now)
	if err != nil {
		t.Fatalf("GetEscalationSummary failed: %v", err)
	}

	if summary.TotalEscalations != 3 {
		t.Errorf("expected 3 total escalations, got %d", summary.TotalEscalations)
	}
	if summary.CurrentlyEscalated != 1 {
		t.Errorf("expected 1 currently escalated, got %d", summary.CurrentlyEscalated)
	}

	// Level 3 record reached 1,2,3; level 1 reached 1; level 2 reached 1,2.
	wantByLevel := map[int]int{1: 3, 2: 2, 3: 1, 4: 0}
	for level, want := range wantByLevel {
		if got := summary.EscalationsByLevel[level]; got != want {
			t.Errorf("escalationsByLevel[%d] = %d, want %d", level, got, want)
		}
	}

	// (90 + 30) / 2 minutes
	if summary.AverageResolutionMinutes != 60 {
		t.Errorf("expected 60 minute average resolution, got %v", summary.AverageResolutionMinutes)
	}

	if len(summary.ChildrenWithMostEscalations) != 2 {
		t.Fatalf("expected 2 children, got %d", len(summary.ChildrenWithMostEscalations))
	}
	if summary.ChildrenWithMostEscalations[0].ChildID != f.child.ID ||
		summary.ChildrenWithMostEscalations[0].Count != 2 {
		t.Errorf("unexpected top child: %+v", summary.ChildrenWithMostEscalations[0])
	}

	total := 0
	for _, c := range summary.EscalationsByLevel {
		total += c
	}
	if total < summary.CurrentlyEscalated {
		t.Error("sum of escalationsByLevel must cover currentlyEscalated")
	}
}

func TestGetEscalationSummary_TieBrokenByChildID(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	sibling := Models.Member{FamilyID: f.family.ID, Name: "Sibling", Role: Models.RoleChild}
	if err := f.db.Create(&sibling).Error; err != nil {
		t.Fatalf("failed to create sibling: %v", err)
	}

	seedEscalation(t, f, sibling.ID, 1, now.Add(-time.Hour), nil)
	seedEscalation(t, f, f.child.ID, 1, now.Add(-time.Hour), nil)

	summary, err := f.engine.GetEscalationSummary(f.family.ID, 7, now)
	if err != nil {
		t.Fatalf("GetEscalationSummary failed: %v", err)
	}

	if len(summary.ChildrenWithMostEscalations) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(summary.ChildrenWithMostEscalations))
	}
	if summary.ChildrenWithMostEscalations[0].ChildID > summary.ChildrenWithMostEscalations[1].ChildID {
		t.Error("tied counts must be ordered by ascending child id")
	}
}

func TestGetActiveEscalations_Ordering(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	resolved := now.Add(-time.Hour)
	seedEscalation(t, f, f.child.ID, 4, now.Add(-2*time.Hour), &resolved) // resolved, excluded
	low := seedEscalation(t, f, f.child.ID, 1, now.Add(-3*time.Hour), nil)
	older := seedEscalation(t, f, f.child.ID, 3, now.Add(-5*time.Hour), nil)
	newer := seedEscalation(t, f, f.child.ID, 3, now.Add(-1*time.Hour), nil)

	active, err := f.engine.GetActiveEscalations(f.family.ID)
	if err != nil {
		t.Fatalf("GetActiveEscalations failed: %v", err)
	}

	if len(active) != 3 {
		t.Fatalf("expected 3 active escalations, got %d", len(active))
	}
	if active[0].ID != older.ID {
		t.Error("most severe, longest running escalation must come first")
	}
	if active[1].ID != newer.ID {
		t.Error("same level orders by older start time first")
	}
	if active[2].ID != low.ID {
		t.Error("lowest level must come last")
	}
}
