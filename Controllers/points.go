package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Hearth/Ledger"
	"Hearth/Models"
)

// PointsController handles balances, redemptions and the audit log
type PointsController struct {
	DB     *gorm.DB
	Ledger *Ledger.Service
}

// NewPointsController creates a new PointsController
func NewPointsController(db *gorm.DB, ledger *Ledger.Service) *PointsController {
	return &PointsController{DB: db, Ledger: ledger}
}

// GetBalance returns a member's current balance and lifetime totals
func (c *PointsController) GetBalance(ctx *fiber.Ctx) error {
	requester, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member ID"})
	}

	if uint(id) != requester.ID && !requester.IsParent() {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Children can only view their own balance"})
	}

	var member Models.Member
	result := c.DB.Where("id = ? AND family_id = ?", id, requester.FamilyID).First(&member)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}

	return ctx.JSON(fiber.Map{
		"member_id":             member.ID,
		"name":                  member.Name,
		"points":                member.Points,
		"total_points_earned":   member.TotalPointsEarned,
		"total_points_redeemed": member.TotalPointsRedeemed,
		"tasks_completed":       member.TasksCompleted,
	})
}

type RedeemInput struct {
	MemberID  uint `json:"member_id"`
	RewardID  uint `json:"reward_id"`
	PointCost int  `json:"point_cost"`
}

// Redeem spends points on a reward. Children redeem for themselves;
// parents may redeem on a child's behalf. Omitting point_cost uses the
// reward's listed cost.
func (c *PointsController) Redeem(ctx *fiber.Ctx) error {
	requester, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	var input RedeemInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	memberID := input.MemberID
	if memberID == 0 {
		memberID = requester.ID
	}

	pointCost := input.PointCost
	if pointCost == 0 {
		var reward Models.Reward
		if err := c.DB.Where("id = ? AND family_id = ?", input.RewardID, requester.FamilyID).
			First(&reward).Error; err != nil {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reward not found"})
		}
		pointCost = reward.PointCost
	}

	result, err := c.Ledger.Redeem(requester.FamilyID, memberID, input.RewardID, pointCost, requester.ID)
	if err != nil {
		return ledgerError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(result)
}

// GetAuditLog returns the family's point movements, newest first.
// Parent only. ?limit= and ?offset= page through history.
func (c *PointsController) GetAuditLog(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	offset, _ := strconv.Atoi(ctx.Query("offset", "0"))

	entries, err := c.Ledger.AuditLog(member.FamilyID, limit, offset)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve audit log"})
	}

	return ctx.JSON(entries)
}
