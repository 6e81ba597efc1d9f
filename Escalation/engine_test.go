package Escalation

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"Hearth/Models"
	"Hearth/Notifications"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// fakeGateway records sent notifications.
type fakeGateway struct {
	mu   sync.Mutex
	sent []Notifications.Notification
}

func (g *fakeGateway) Send(ctx context.Context, n Notifications.Notification) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, n)
	return nil
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

func (g *fakeGateway) sentTo(memberID uint) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.sent {
		if s.MemberID == memberID {
			n++
		}
	}
	return n
}

type fixture struct {
	db       *gorm.DB
	engine   *Engine
	gateway  *fakeGateway
	family   Models.Family
	parent   Models.Member
	parent2  Models.Member
	child    Models.Member
	task     Models.Task
	dueTime  time.Time
	parents  []uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	gateway := &fakeGateway{}

	f := &fixture{
		db:      db,
		engine:  NewEngine(db, gateway),
		gateway: gateway,
		dueTime: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}

	f.family = Models.Family{Name: "Test Family", PendingTasks: 1}
	if err := db.Create(&f.family).Error; err != nil {
		t.Fatalf("failed to create family: %v", err)
	}

	f.parent = Models.Member{FamilyID: f.family.ID, Name: "Parent One", Role: Models.RoleParent}
	f.parent2 = Models.Member{FamilyID: f.family.ID, Name: "Parent Two", Role: Models.RoleParent}
	f.child = Models.Member{FamilyID: f.family.ID, Name: "Child", Role: Models.RoleChild}
	for _, m := range []*Models.Member{&f.parent, &f.parent2, &f.child} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("failed to create member: %v", err)
		}
	}
	f.parents = []uint{f.parent.ID, f.parent2.ID}

	due := f.dueTime
	f.task = Models.Task{
		FamilyID:     f.family.ID,
		AssignedToID: f.child.ID,
		Title:        "Take out the trash",
		DueDate:      &due,
		Status:       Models.TaskPending,
	}
	if err := db.Create(&f.task).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	return f
}

func (f *fixture) check(t *testing.T, at time.Time) {
	t.Helper()
	if err := f.engine.Check(context.Background(), &f.task, f.child.ID, f.parents, at); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
}

func (f *fixture) escalation(t *testing.T) Models.Escalation {
	t.Helper()
	var esc Models.Escalation
	if err := f.db.Where("task_id = ?", f.task.ID).First(&esc).Error; err != nil {
		t.Fatalf("failed to load escalation: %v", err)
	}
	return esc
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{29 * time.Minute, 0},
		{30 * time.Minute, 1},
		{59 * time.Minute, 1},
		{60 * time.Minute, 2},
		{119 * time.Minute, 2},
		{120 * time.Minute, 3},
		{239 * time.Minute, 3},
		{240 * time.Minute, 4},
		{10 * time.Hour, 4},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.elapsed); got != tc.want {
			t.Errorf("LevelFor(%v) = %d, want %d", tc.elapsed, got, tc.want)
		}
	}
}

func TestCheck_NoDueDate(t *testing.T) {
	f := newFixture(t)
	f.task.DueDate = nil

	f.check(t, f.dueTime.Add(10*time.Hour))

	var count int64
	f.db.Model(&Models.Escalation{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no escalation for task without due date, got %d", count)
	}
}

func TestCheck_CompletedNeverEscalates(t *testing.T) {
	f := newFixture(t)
	f.task.Status = Models.TaskCompleted

	f.check(t, f.dueTime.Add(10*time.Hour))

	var count int64
	f.db.Model(&Models.Escalation{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no escalation for completed task, got %d", count)
	}
}

func TestCheck_ExemptedNeverEscalates(t *testing.T) {
	f := newFixture(t)
	f.task.Status = Models.TaskExempted

	f.check(t, f.dueTime.Add(10*time.Hour))

	if f.gateway.count() != 0 {
		t.Errorf("expected no notifications for exempted task, got %d", f.gateway.count())
	}
}

func TestCheck_UnderThirtyMinutes(t *testing.T) {
	f := newFixture(t)

	f.check(t, f.dueTime.Add(29*time.Minute))

	var count int64
	f.db.Model(&Models.Escalation{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no escalation under 30 minutes, got %d", count)
	}
}

func TestCheck_Level1NotifiesChildOnce(t *testing.T) {
	f := newFixture(t)

	// Due 15:00, checked 15:30
	f.check(t, f.dueTime.Add(30*time.Minute))

	esc := f.escalation(t)
	if esc.Level != 1 {
		t.Errorf("expected level 1, got %d", esc.Level)
	}
	if !esc.StartTime.Equal(f.dueTime.Add(30 * time.Minute)) {
		t.Errorf("unexpected start time %v", esc.StartTime)
	}
	if f.gateway.sentTo(f.child.ID) != 1 {
		t.Errorf("expected 1 child notification, got %d", f.gateway.sentTo(f.child.ID))
	}
	if f.gateway.count() != 1 {
		t.Errorf("level 1 should notify the child only, got %d sends", f.gateway.count())
	}

	// Checked again 15:31, same level: no duplicate
	f.check(t, f.dueTime.Add(31*time.Minute))
	if f.gateway.count() != 1 {
		t.Errorf("expected no duplicate notification, got %d sends", f.gateway.count())
	}
}

func TestCheck_MarksTaskOverdue(t *testing.T) {
	f := newFixture(t)

	f.check(t, f.dueTime.Add(45*time.Minute))

	var task Models.Task
	f.db.First(&task, f.task.ID)
	if task.Status != Models.TaskOverdue {
		t.Errorf("expected status overdue, got %q", task.Status)
	}
}

func TestCheck_Level2NotifiesChildAndParents(t *testing.T) {
	f := newFixture(t)

	f.check(t, f.dueTime.Add(30*time.Minute))
	f.check(t, f.dueTime.Add(61*time.Minute))

	esc := f.escalation(t)
	if esc.Level != 2 {
		t.Errorf("expected level 2, got %d", esc.Level)
	}
	// Level 1: child. Level 2: child + both parents.
	if f.gateway.sentTo(f.child.ID) != 2 {
		t.Errorf("expected 2 child notifications, got %d", f.gateway.sentTo(f.child.ID))
	}
	if f.gateway.sentTo(f.parent.ID) != 1 || f.gateway.sentTo(f.parent2.ID) != 1 {
		t.Error("expected each parent to receive the level 2 notification")
	}
}

func TestCheck_Level3SetsParentOverride(t *testing.T) {
	f := newFixture(t)

	f.check(t, f.dueTime.Add(121*time.Minute))

	var task Models.Task
	f.db.First(&task, f.task.ID)
	if !task.ParentOverrideRequired {
		t.Error("expected parent_override_required at level 3")
	}
	if task.FullRestriction {
		t.Error("full_restriction should not be set at level 3")
	}
}

func TestCheck_Level4SetsFullRestriction(t *testing.T) {
	f := newFixture(t)

	f.check(t, f.dueTime.Add(241*time.Minute))

	var task Models.Task
	f.db.First(&task, f.task.ID)
	if !task.FullRestriction {
		t.Error("expected full_restriction at level 4")
	}
	for _, n := range f.gateway.sent {
		if n.Priority != Notifications.PriorityCritical {
			t.Errorf("level 4 notifications should be critical, got %q", n.Priority)
		}
	}
}

func TestCheck_LevelJumpNotifiesOnlyTopLevel(t *testing.T) {
	f := newFixture(t)

	// First check happens long after due: straight to level 4.
	f.check(t, f.dueTime.Add(250*time.Minute))

	esc := f.escalation(t)
	if esc.Level != 4 {
		t.Errorf("expected level 4, got %d", esc.Level)
	}
	if f.gateway.sentTo(f.child.ID) != 0 {
		t.Error("level 4 should not notify the child")
	}
	if f.gateway.count() != len(f.parents) {
		t.Errorf("expected %d parent notifications, got %d", len(f.parents), f.gateway.count())
	}
}

func TestCheck_QuietHoursDefersNotification(t *testing.T) {
	f := newFixture(t)

	settings := Models.QuietHoursSettings{
		MemberID: f.child.ID,
		Enabled:  true,
		Start:    "15:00",
		End:      "16:00",
	}
	if err := f.db.Create(&settings).Error; err != nil {
		t.Fatalf("failed to create settings: %v", err)
	}

	// 15:31 is inside the window: level recorded, nothing sent.
	f.check(t, f.dueTime.Add(31*time.Minute))

	esc := f.escalation(t)
	if esc.Level != 1 {
		t.Errorf("expected level 1 recorded during quiet hours, got %d", esc.Level)
	}
	if esc.NotifiedLevel != 0 {
		t.Errorf("expected notified_level 0 during quiet hours, got %d", esc.NotifiedLevel)
	}
	if esc.LastNotificationTime != nil {
		t.Error("last_notification_time must stay unset during quiet hours")
	}
	if f.gateway.count() != 0 {
		t.Errorf("expected no sends during quiet hours, got %d", f.gateway.count())
	}

	// 16:05 is outside the window: the deferred level 1 fires.
	f.check(t, f.dueTime.Add(65*time.Minute))

	esc = f.escalation(t)
	if esc.Level != 2 {
		t.Errorf("expected level 2 after window, got %d", esc.Level)
	}
	if esc.NotifiedLevel != 2 {
		t.Errorf("expected notified_level 2 after window, got %d", esc.NotifiedLevel)
	}
	if f.gateway.count() == 0 {
		t.Error("expected deferred notification after quiet hours end")
	}
}

func TestResolve_UnknownTaskSucceeds(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.Resolve(9999, Models.ResolvedCompleted, time.Now()); err != nil {
		t.Errorf("resolve on unknown task should succeed silently, got %v", err)
	}
}

func TestResolve_InvalidReason(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.Resolve(f.task.ID, "gave_up", time.Now()); err == nil {
		t.Error("expected error for unknown resolution reason")
	}
}

func TestResolve_FreezesLevelAndSuppressesNotifications(t *testing.T) {
	f := newFixture(t)

	f.check(t, f.dueTime.Add(30*time.Minute))
	sendsBefore := f.gateway.count()

	resolvedAt := f.dueTime.Add(40 * time.Minute)
	if err := f.engine.Resolve(f.task.ID, Models.ResolvedParentIntervened, resolvedAt); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// A later check would normally raise to level 4.
	f.check(t, f.dueTime.Add(300*time.Minute))

	esc := f.escalation(t)
	if esc.Level != 1 {
		t.Errorf("resolved escalation level changed to %d", esc.Level)
	}
	if esc.ResolvedReason == nil || *esc.ResolvedReason != Models.ResolvedParentIntervened {
		t.Error("resolved reason not recorded")
	}
	if f.gateway.count() != sendsBefore {
		t.Errorf("resolved escalation sent %d extra notifications", f.gateway.count()-sendsBefore)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	f := newFixture(t)

	f.check(t, f.dueTime.Add(30*time.Minute))

	first := f.dueTime.Add(40 * time.Minute)
	if err := f.engine.Resolve(f.task.ID, Models.ResolvedCompleted, first); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if err := f.engine.Resolve(f.task.ID, Models.ResolvedExempted, first.Add(time.Hour)); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	esc := f.escalation(t)
	if *esc.ResolvedReason != Models.ResolvedCompleted {
		t.Errorf("second resolve overwrote reason: %q", *esc.ResolvedReason)
	}
	if !esc.ResolvedAt.Equal(first) {
		t.Errorf("second resolve moved resolved_at to %v", esc.ResolvedAt)
	}
}

func TestCheck_ConcurrentSameTaskSingleNotification(t *testing.T) {
	f := newFixture(t)
	at := f.dueTime.Add(30 * time.Minute)

	// Seed the escalation row so concurrent checks race on the guarded
	// update instead of the insert.
	f.check(t, f.dueTime.Add(30*time.Minute))
	if f.gateway.count() != 1 {
		t.Fatalf("expected 1 send after first check, got %d", f.gateway.count())
	}

	at = f.dueTime.Add(61 * time.Minute) // level 2
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task := f.task
			_ = f.engine.Check(context.Background(), &task, f.child.ID, f.parents, at)
		}()
	}
	wg.Wait()

	// Level 2 adds one child + two parent notifications, exactly once.
	if got := f.gateway.count(); got != 4 {
		t.Errorf("expected 4 total sends after concurrent checks, got %d", got)
	}
	esc := f.escalation(t)
	if esc.Level != 2 || esc.NotifiedLevel != 2 {
		t.Errorf("unexpected escalation state: level=%d notified=%d", esc.Level, esc.NotifiedLevel)
	}
}
