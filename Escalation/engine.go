package Escalation

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"Hearth/Models"
	"Hearth/Notifications"
)

// Minutes past due before each level kicks in.
const (
	level1After = 30 * time.Minute
	level2After = 60 * time.Minute
	level3After = 120 * time.Minute
	level4After = 240 * time.Minute
)

// MaxLevel is the highest escalation severity.
const MaxLevel = 4

// LevelFor maps time past due to an escalation level. Anything under 30
// minutes is level 0 (no escalation).
func LevelFor(elapsed time.Duration) int {
	switch {
	case elapsed >= level4After:
		return 4
	case elapsed >= level3After:
		return 3
	case elapsed >= level2After:
		return 2
	case elapsed >= level1After:
		return 1
	default:
		return 0
	}
}

// Engine advances overdue tasks through escalation levels and triggers
// the per-level notifications exactly once per transition.
type Engine struct {
	DB      *gorm.DB
	Gateway Notifications.Gateway
}

// NewEngine creates an Engine with injected dependencies.
func NewEngine(db *gorm.DB, gateway Notifications.Gateway) *Engine {
	return &Engine{DB: db, Gateway: gateway}
}

// Check evaluates one task at the given time. It is idempotent and safe
// to call concurrently for the same task: the escalation row's guarded
// updates decide which invocation fires a level's notification.
// Notifications are dispatched after the transaction commits; delivery
// failure is logged and never rolls back the recorded level.
func (e *Engine) Check(ctx context.Context, task *Models.Task, childID uint, parentIDs []uint, now time.Time) error {
	if task.Status == Models.TaskCompleted || task.Status == Models.TaskExempted {
		return nil
	}
	if task.DueDate == nil {
		// No due time, cannot be overdue
		return nil
	}

	level := LevelFor(now.Sub(*task.DueDate))
	if level == 0 {
		return nil
	}

	var pending []Notifications.Notification
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		pending = nil

		var esc Models.Escalation
		err := tx.Where("task_id = ?", task.ID).First(&esc).Error
		if err == gorm.ErrRecordNotFound {
			// StartTime is set once, on the first transition past level 0.
			esc = Models.Escalation{
				TaskID:    task.ID,
				FamilyID:  task.FamilyID,
				ChildID:   childID,
				Level:     level,
				StartTime: now,
			}
			if err := tx.Create(&esc).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if esc.IsResolved() {
			return nil
		}

		// Level only moves up while unresolved. The WHERE clause keeps it
		// monotonic when two checks for the same task race.
		target := esc.Level
		if level > target {
			if err := tx.Model(&Models.Escalation{}).
				Where("id = ? AND level < ?", esc.ID, level).
				Update("level", level).Error; err != nil {
				return err
			}
			target = level
		}

		if task.Status == Models.TaskPending {
			if err := tx.Model(&Models.Task{}).
				Where("id = ? AND status = ?", task.ID, Models.TaskPending).
				Update("status", Models.TaskOverdue).Error; err != nil {
				return err
			}
		}

		// Marker fields are escalation state, not notifications, so quiet
		// hours do not defer them.
		if target >= 3 {
			if err := tx.Model(&Models.Task{}).Where("id = ?", task.ID).
				Update("parent_override_required", true).Error; err != nil {
				return err
			}
		}
		if target >= MaxLevel {
			if err := tx.Model(&Models.Task{}).Where("id = ?", task.ID).
				Update("full_restriction", true).Error; err != nil {
				return err
			}
		}

		if esc.NotifiedLevel >= target {
			return nil
		}

		settings, err := Models.QuietHoursFor(tx, childID)
		if err != nil {
			return err
		}
		if IsSuppressed(now, settings) {
			// Level recorded, notification deferred to the next check
			// outside the window.
			return nil
		}

		res := tx.Model(&Models.Escalation{}).
			Where("id = ? AND notified_level < ?", esc.ID, target).
			Updates(map[string]interface{}{
				"notified_level":         target,
				"last_notification_time": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another check already claimed this level's notification.
			return nil
		}

		pending = notificationsFor(task, childID, parentIDs, target)
		return nil
	})
	if err != nil {
		return err
	}

	for _, n := range pending {
		if err := e.Gateway.Send(ctx, n); err != nil {
			log.Printf("Error sending level %d notification for task %d: %v", level, task.ID, err)
		}
	}
	return nil
}

// Resolve freezes the task's escalation with the given reason. Calling it
// twice, or for a task that never escalated, is a silent success:
// resolution is terminal and idempotent.
func (e *Engine) Resolve(taskID uint, reason string, now time.Time) error {
	switch reason {
	case Models.ResolvedCompleted, Models.ResolvedParentIntervened, Models.ResolvedExempted:
	default:
		return fmt.Errorf("unknown resolution reason %q", reason)
	}

	return e.DB.Model(&Models.Escalation{}).
		Where("task_id = ? AND resolved_reason IS NULL", taskID).
		Updates(map[string]interface{}{
			"resolved_reason": reason,
			"resolved_at":     now,
		}).Error
}

func notificationsFor(task *Models.Task, childID uint, parentIDs []uint, level int) []Notifications.Notification {
	data := map[string]string{
		"task_id":  strconv.FormatUint(uint64(task.ID), 10),
		"child_id": strconv.FormatUint(uint64(childID), 10),
		"level":    strconv.Itoa(level),
	}

	var notifications []Notifications.Notification
	switch level {
	case 1:
		notifications = append(notifications, Notifications.Notification{
			MemberID: childID,
			Title:    "Task reminder",
			Body:     fmt.Sprintf("\"%s\" is waiting for you - a few minutes is all it takes!", task.Title),
			Priority: Notifications.PriorityNormal,
			Data:     data,
		})
	case 2:
		notifications = append(notifications, Notifications.Notification{
			MemberID: childID,
			Title:    "Task overdue",
			Body:     fmt.Sprintf("\"%s\" is now an hour overdue. Please finish it soon.", task.Title),
			Priority: Notifications.PriorityHigh,
			Data:     data,
		})
		for _, parentID := range parentIDs {
			notifications = append(notifications, Notifications.Notification{
				MemberID: parentID,
				Title:    "Task overdue",
				Body:     fmt.Sprintf("Task \"%s\" is an hour overdue and unanswered.", task.Title),
				Priority: Notifications.PriorityHigh,
				Data:     data,
			})
		}
	case 3:
		for _, parentID := range parentIDs {
			notifications = append(notifications, Notifications.Notification{
				MemberID: parentID,
				Title:    "Parent approval required",
				Body:     fmt.Sprintf("Task \"%s\" is 2+ hours overdue. Device restriction is on and your approval is required to proceed.", task.Title),
				Priority: Notifications.PriorityHigh,
				Data:     data,
			})
		}
	case MaxLevel:
		for _, parentID := range parentIDs {
			notifications = append(notifications, Notifications.Notification{
				MemberID: parentID,
				Title:    "Task severely overdue",
				Body:     fmt.Sprintf("Task \"%s\" is 4+ hours overdue. Full restriction is in effect.", task.Title),
				Priority: Notifications.PriorityCritical,
				Data:     data,
			})
		}
	}
	return notifications
}
