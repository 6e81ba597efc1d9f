package Models

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DeviceToken struct {
	gorm.Model
	MemberID uint   `json:"member_id" gorm:"uniqueIndex;not null"`
	Value    string `json:"value"`
}

type UpdateTokenRequest struct {
	MemberID uint   `json:"member_id" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

func UpdateToken(c *fiber.Ctx) error {
	var req UpdateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.MemberID == 0 || req.Value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Member id and token value are required",
		})
	}

	var token DeviceToken
	err := DB.Where("member_id = ?", req.MemberID).FirstOrCreate(&token, DeviceToken{
		MemberID: req.MemberID,
		Value:    req.Value,
	}).Error

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create/update token",
		})
	}

	if token.Value != req.Value {
		token.Value = req.Value
		if err := DB.Save(&token).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update token",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Token updated successfully",
	})
}

// TokenForMember returns the registered FCM token for a member, or "".
func TokenForMember(db *gorm.DB, memberID uint) string {
	var token DeviceToken
	if err := db.Where("member_id = ?", memberID).First(&token).Error; err != nil {
		return ""
	}
	return token.Value
}
