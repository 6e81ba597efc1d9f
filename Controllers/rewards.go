package Controllers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Hearth/Models"
)

// RewardController handles the reward catalogue
type RewardController struct {
	DB       *gorm.DB
	validate *validator.Validate
}

// NewRewardController creates a new RewardController
func NewRewardController(db *gorm.DB) *RewardController {
	return &RewardController{DB: db, validate: validator.New()}
}

// GetRewards lists the family's rewards. ?active=true filters to the
// redeemable catalogue.
func (c *RewardController) GetRewards(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	query := c.DB.Where("family_id = ?", member.FamilyID)
	if ctx.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var rewards []Models.Reward
	if err := query.Order("point_cost ASC").Find(&rewards).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve rewards"})
	}

	return ctx.JSON(rewards)
}

type RewardInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost" validate:"required,gt=0"`
}

// CreateReward adds a reward to the catalogue. Parent only.
func (c *RewardController) CreateReward(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	var input RewardInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := c.validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reward := Models.Reward{
		FamilyID:    member.FamilyID,
		Name:        input.Name,
		Description: input.Description,
		PointCost:   input.PointCost,
		Active:      true,
	}
	if err := c.DB.Create(&reward).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create reward"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(reward)
}

// UpdateReward edits a reward's name, description or cost
func (c *RewardController) UpdateReward(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reward ID"})
	}

	var reward Models.Reward
	result := c.DB.Where("id = ? AND family_id = ?", id, member.FamilyID).First(&reward)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reward not found"})
	}

	var input RewardInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := c.validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	c.DB.Model(&reward).Updates(Models.Reward{
		Name:        input.Name,
		Description: input.Description,
		PointCost:   input.PointCost,
	})

	return ctx.JSON(reward)
}

// DeactivateReward removes a reward from the redeemable catalogue
// without touching redemption history
func (c *RewardController) DeactivateReward(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reward ID"})
	}

	var reward Models.Reward
	result := c.DB.Where("id = ? AND family_id = ?", id, member.FamilyID).First(&reward)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reward not found"})
	}

	c.DB.Model(&reward).Update("active", false)

	return ctx.JSON(fiber.Map{"message": "Reward deactivated"})
}
