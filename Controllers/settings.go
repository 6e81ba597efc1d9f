package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Hearth/Models"
)

// SettingsController manages per-member quiet hours
type SettingsController struct {
	DB *gorm.DB
}

// NewSettingsController creates a new SettingsController
func NewSettingsController(db *gorm.DB) *SettingsController {
	return &SettingsController{DB: db}
}

// GetQuietHours returns a member's quiet hours window
func (c *SettingsController) GetQuietHours(ctx *fiber.Ctx) error {
	requester, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member ID"})
	}

	var member Models.Member
	if err := c.DB.Where("id = ? AND family_id = ?", id, requester.FamilyID).First(&member).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}

	settings, err := Models.QuietHoursFor(c.DB, member.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve settings"})
	}

	return ctx.JSON(settings)
}

type QuietHoursInput struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// SetQuietHours updates a member's quiet hours window. Parent only.
func (c *SettingsController) SetQuietHours(ctx *fiber.Ctx) error {
	requester, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member ID"})
	}

	var member Models.Member
	if err := c.DB.Where("id = ? AND family_id = ?", id, requester.FamilyID).First(&member).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}

	var input QuietHoursInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.Enabled {
		if _, err := time.Parse("15:04", input.Start); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start must be HH:MM"})
		}
		if _, err := time.Parse("15:04", input.End); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end must be HH:MM"})
		}
	}

	var settings Models.QuietHoursSettings
	err = c.DB.Where("member_id = ?", member.ID).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = Models.QuietHoursSettings{
			MemberID: member.ID,
			Enabled:  input.Enabled,
			Start:    input.Start,
			End:      input.End,
		}
		if err := c.DB.Create(&settings).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
		}
		return ctx.JSON(settings)
	} else if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve settings"})
	}

	updates := map[string]interface{}{
		"enabled": input.Enabled,
		"start":   input.Start,
		"end":     input.End,
	}
	if err := c.DB.Model(&settings).Updates(updates).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
	}

	return ctx.JSON(settings)
}
