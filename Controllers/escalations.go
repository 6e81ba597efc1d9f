package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"Hearth/Escalation"
)

// EscalationController exposes the read side of the escalation engine
type EscalationController struct {
	Engine *Escalation.Engine
}

// NewEscalationController creates a new EscalationController
func NewEscalationController(engine *Escalation.Engine) *EscalationController {
	return &EscalationController{Engine: engine}
}

// GetActiveEscalations lists unresolved escalations for the family,
// most severe first
func (c *EscalationController) GetActiveEscalations(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	escalations, err := c.Engine.GetActiveEscalations(member.FamilyID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve escalations"})
	}

	return ctx.JSON(escalations)
}

// GetSummary aggregates escalation history over a trailing window.
// ?window_days= defaults to 7.
func (c *EscalationController) GetSummary(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	windowDays := 7
	if raw := ctx.Query("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid window_days"})
		}
		windowDays = parsed
	}

	summary, err := c.Engine.GetEscalationSummary(member.FamilyID, windowDays, time.Now())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build summary"})
	}

	return ctx.JSON(summary)
}
