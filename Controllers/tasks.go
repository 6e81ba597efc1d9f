package Controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Hearth/Escalation"
	"Hearth/Ledger"
	"Hearth/Models"
)

// TaskController handles task lifecycle API endpoints
type TaskController struct {
	DB       *gorm.DB
	Engine   *Escalation.Engine
	Ledger   *Ledger.Service
	validate *validator.Validate
}

// NewTaskController creates a new TaskController
func NewTaskController(db *gorm.DB, engine *Escalation.Engine, ledger *Ledger.Service) *TaskController {
	return &TaskController{
		DB:       db,
		Engine:   engine,
		Ledger:   ledger,
		validate: validator.New(),
	}
}

func requestMember(ctx *fiber.Ctx) (*Models.Member, error) {
	member, ok := ctx.Locals("member").(Models.Member)
	if !ok {
		return nil, errors.New("no member in request context")
	}
	return &member, nil
}

type CreateTaskInput struct {
	AssignedToID  uint       `json:"assigned_to_id" validate:"required"`
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description"`
	DueDate       *time.Time `json:"due_date"`
	RequiresPhoto bool       `json:"requires_photo"`
	RewardPoints  int        `json:"reward_points" validate:"gte=0"`
}

// CreateTask creates a new task assigned to a family member
func (c *TaskController) CreateTask(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	var input CreateTaskInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := c.validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var assignee Models.Member
	if err := c.DB.Where("id = ? AND family_id = ?", input.AssignedToID, member.FamilyID).
		First(&assignee).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assignee not found in this family"})
	}

	task := Models.Task{
		FamilyID:      member.FamilyID,
		AssignedToID:  input.AssignedToID,
		Title:         input.Title,
		Description:   input.Description,
		DueDate:       input.DueDate,
		Status:        Models.TaskPending,
		RequiresPhoto: input.RequiresPhoto,
		RewardPoints:  input.RewardPoints,
	}

	// Creation and the family pending counter move together.
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		return tx.Model(&Models.Family{}).Where("id = ?", member.FamilyID).
			Update("pending_tasks", gorm.Expr("pending_tasks + 1")).Error
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create task"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(task)
}

// GetTasks retrieves all tasks for the member's family, newest first.
// Children only see their own.
func (c *TaskController) GetTasks(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	query := c.DB.Where("family_id = ?", member.FamilyID)
	if !member.IsParent() {
		query = query.Where("assigned_to_id = ?", member.ID)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []Models.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}

	return ctx.JSON(tasks)
}

// GetTask retrieves a single task by ID
func (c *TaskController) GetTask(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	result := c.DB.Where("id = ? AND family_id = ?", id, member.FamilyID).First(&task)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	return ctx.JSON(task)
}

// CompleteTask marks a task as done by the assignee and resolves any
// escalation on it.
func (c *TaskController) CompleteTask(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := c.DB.Where("id = ? AND family_id = ?", id, member.FamilyID).First(&task).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	if task.AssignedToID != member.ID && !member.IsParent() {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the assignee or a parent can complete this task"})
	}
	if !task.IsOpen() {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task is not open"})
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       Models.TaskCompleted,
		"completed_at": now,
		"completed_by": member.ID,
	}
	result := c.DB.Model(&Models.Task{}).
		Where("id = ? AND status IN ?", task.ID, []string{Models.TaskPending, Models.TaskOverdue}).
		Updates(updates)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete task"})
	}
	if result.RowsAffected == 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task is not open"})
	}

	if err := c.Engine.Resolve(task.ID, Models.ResolvedCompleted, now); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Task completed but escalation not resolved"})
	}

	c.DB.Where("id = ?", task.ID).First(&task)
	return ctx.JSON(task)
}

// ApproveTask pays the task's reward out through the ledger. Parent only.
// Approving an already-paid task responds 200 with already_processed set.
func (c *TaskController) ApproveTask(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	result, err := c.Ledger.Award(member.FamilyID, uint(id), member.ID)
	if err != nil {
		return ledgerError(ctx, err)
	}

	// Approval by a parent vouches for the photo proof when one was required.
	c.DB.Model(&Models.Task{}).
		Where("id = ? AND requires_photo = ?", id, true).
		Update("photo_approved", true)

	return ctx.JSON(result)
}

// ExemptTask excuses the assignee from a task. Parent only. Any
// escalation resolves without penalty.
func (c *TaskController) ExemptTask(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := c.DB.Where("id = ? AND family_id = ?", id, member.FamilyID).First(&task).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}
	if !task.IsOpen() {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task is not open"})
	}

	now := time.Now()
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Models.Task{}).
			Where("id = ? AND status IN ?", task.ID, []string{Models.TaskPending, Models.TaskOverdue}).
			Update("status", Models.TaskExempted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// An exempted task leaves the family's pending pool without a payout.
		return tx.Model(&Models.Family{}).Where("id = ?", member.FamilyID).
			Update("pending_tasks", gorm.Expr("pending_tasks - 1")).Error
	})
	if err == gorm.ErrRecordNotFound {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task is not open"})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to exempt task"})
	}

	if err := c.Engine.Resolve(task.ID, Models.ResolvedExempted, now); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Task exempted but escalation not resolved"})
	}

	c.DB.Where("id = ?", task.ID).First(&task)
	return ctx.JSON(task)
}

// Intervene records a parent stepping in on an escalated task. The task
// stays open; only the escalation resolves.
func (c *TaskController) Intervene(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	var task Models.Task
	if err := c.DB.Where("id = ? AND family_id = ?", id, member.FamilyID).First(&task).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	if err := c.Engine.Resolve(task.ID, Models.ResolvedParentIntervened, time.Now()); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve escalation"})
	}

	return ctx.JSON(fiber.Map{"message": "Escalation resolved"})
}

// ledgerError maps ledger sentinel errors onto HTTP statuses.
func ledgerError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, Ledger.ErrPermissionDenied):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Ledger.ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Ledger.ErrInsufficientPoints),
		errors.Is(err, Ledger.ErrInvalidPointCost):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Ledger.ErrTaskExempted):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Ledger.ErrTransactionConflict):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Please retry"})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal error"})
	}
}
