package Ledger

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"Hearth/Models"
)

const maxTxAttempts = 3

// Service performs every balance-affecting mutation as a single atomic
// transaction across member balance, family counters and the audit log.
// No other code path writes Member.Points.
type Service struct {
	DB *gorm.DB
}

// NewService creates a Service with an injected database handle.
func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type AwardResult struct {
	TaskID        uint `json:"task_id"`
	MemberID      uint `json:"member_id"`
	PointsAwarded int  `json:"points_awarded"`
	NewBalance    int  `json:"new_balance"`
	// AlreadyProcessed marks the benign no-op: the task was paid out
	// before this call. Distinct from a rejection.
	AlreadyProcessed bool `json:"already_processed"`
}

// Award pays out a task approved by a parent. A second call for an
// already-paid task returns AlreadyProcessed without touching balances.
func (s *Service) Award(familyID, taskID, approverID uint) (*AwardResult, error) {
	var result AwardResult
	err := s.runTx(func(tx *gorm.DB) error {
		approver, err := memberInFamily(tx, approverID, familyID)
		if err != nil {
			return fmt.Errorf("approver %d: %w", approverID, err)
		}
		if !approver.IsParent() {
			return fmt.Errorf("member %d may not approve tasks: %w", approverID, ErrPermissionDenied)
		}

		var task Models.Task
		if err := tx.Where("id = ? AND family_id = ?", taskID, familyID).First(&task).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
			}
			return err
		}

		member, err := memberInFamily(tx, task.AssignedToID, familyID)
		if err != nil {
			return fmt.Errorf("assignee %d: %w", task.AssignedToID, err)
		}

		var family Models.Family
		if err := tx.First(&family, familyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("family %d: %w", familyID, ErrNotFound)
			}
			return err
		}

		// An exempted task left the pending pool without a payout; paying
		// it now would double-count the family's pending decrement.
		if task.Status == Models.TaskExempted {
			return fmt.Errorf("task %d: %w", task.ID, ErrTaskExempted)
		}

		points := task.RewardPoints
		if points <= 0 {
			points = Models.DefaultRewardPoints
		}

		// Guard and mutation are one statement: only the first award
		// attempt flips points_awarded off zero.
		res := tx.Model(&Models.Task{}).
			Where("id = ? AND points_awarded = 0 AND status != ?", task.ID, Models.TaskExempted).
			Updates(map[string]interface{}{
				"points_awarded": points,
				"status":         Models.TaskCompleted,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			result = AwardResult{
				TaskID:           task.ID,
				MemberID:         member.ID,
				NewBalance:       member.Points,
				AlreadyProcessed: true,
			}
			return nil
		}

		if err := tx.Model(&Models.Member{}).Where("id = ?", member.ID).
			Updates(map[string]interface{}{
				"points":              gorm.Expr("points + ?", points),
				"total_points_earned": gorm.Expr("total_points_earned + ?", points),
				"tasks_completed":     gorm.Expr("tasks_completed + 1"),
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&Models.Family{}).Where("id = ?", family.ID).
			Updates(map[string]interface{}{
				"pending_tasks":        gorm.Expr("pending_tasks - 1"),
				"completed_tasks":      gorm.Expr("completed_tasks + 1"),
				"total_points_awarded": gorm.Expr("total_points_awarded + ?", points),
			}).Error; err != nil {
			return err
		}

		entry := Models.AuditLogEntry{
			Action:       Models.AuditPointsAwarded,
			FamilyID:     family.ID,
			ActorID:      approverID,
			MemberID:     member.ID,
			Points:       points,
			BalanceAfter: member.Points + points,
			TaskID:       task.ID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		result = AwardResult{
			TaskID:        task.ID,
			MemberID:      member.ID,
			PointsAwarded: points,
			NewBalance:    member.Points + points,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type RedeemResult struct {
	RedemptionID    string `json:"redemption_id"`
	RemainingPoints int    `json:"remaining_points"`
}

// Redeem spends a member's points on a reward, creating a pending
// redemption. The balance check and decrement are a single guarded
// statement, so the balance can never go negative even under concurrent
// attempts.
func (s *Service) Redeem(familyID, memberID, rewardID uint, pointCost int, requesterID uint) (*RedeemResult, error) {
	if pointCost <= 0 {
		return nil, ErrInvalidPointCost
	}

	var result RedeemResult
	err := s.runTx(func(tx *gorm.DB) error {
		member, err := memberInFamily(tx, memberID, familyID)
		if err != nil {
			return fmt.Errorf("member %d: %w", memberID, err)
		}

		if requesterID != memberID {
			requester, err := memberInFamily(tx, requesterID, familyID)
			if err != nil {
				return fmt.Errorf("requester %d: %w", requesterID, err)
			}
			if !requester.IsParent() {
				return fmt.Errorf("member %d may not redeem for member %d: %w", requesterID, memberID, ErrPermissionDenied)
			}
		}

		var family Models.Family
		if err := tx.First(&family, familyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("family %d: %w", familyID, ErrNotFound)
			}
			return err
		}

		var reward Models.Reward
		if err := tx.Where("id = ? AND family_id = ? AND active = ?", rewardID, familyID, true).
			First(&reward).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("reward %d: %w", rewardID, ErrNotFound)
			}
			return err
		}

		res := tx.Model(&Models.Member{}).
			Where("id = ? AND points >= ?", member.ID, pointCost).
			Updates(map[string]interface{}{
				"points":                gorm.Expr("points - ?", pointCost),
				"total_points_redeemed": gorm.Expr("total_points_redeemed + ?", pointCost),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("member %d has %d points, reward costs %d: %w",
				member.ID, member.Points, pointCost, ErrInsufficientPoints)
		}

		redemption := Models.Redemption{
			FamilyID:   family.ID,
			MemberID:   member.ID,
			RewardID:   reward.ID,
			PointCost:  pointCost,
			Status:     Models.RedemptionPending,
			RedeemedBy: requesterID,
			RedeemedAt: time.Now(),
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return err
		}

		if err := tx.Model(&Models.Family{}).Where("id = ?", family.ID).
			Updates(map[string]interface{}{
				"total_points_redeemed": gorm.Expr("total_points_redeemed + ?", pointCost),
				"pending_redemptions":   gorm.Expr("pending_redemptions + 1"),
			}).Error; err != nil {
			return err
		}

		entry := Models.AuditLogEntry{
			Action:        Models.AuditPointsRedeemed,
			FamilyID:      family.ID,
			ActorID:       requesterID,
			MemberID:      member.ID,
			Points:        -pointCost,
			BalanceAfter:  member.Points - pointCost,
			RedemptionRef: redemption.Reference,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		result = RedeemResult{
			RedemptionID:    redemption.Reference,
			RemainingPoints: member.Points - pointCost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func memberInFamily(tx *gorm.DB, memberID, familyID uint) (*Models.Member, error) {
	var member Models.Member
	if err := tx.Where("id = ? AND family_id = ?", memberID, familyID).First(&member).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// runTx retries a bounded number of times when sqlite reports a lock
// conflict, then surfaces ErrTransactionConflict.
func (s *Service) runTx(fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.DB.Transaction(fn)
		if err == nil || !isLockConflict(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return fmt.Errorf("%v: %w", err, ErrTransactionConflict)
}

func isLockConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
