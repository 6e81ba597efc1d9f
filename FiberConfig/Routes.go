package FiberConfig

import (
	"Hearth/Controllers"
	"Hearth/Escalation"
	"Hearth/Ledger"
	"Hearth/Models"
	"Hearth/middleware"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, engine *Escalation.Engine, ledger *Ledger.Service) {
	// Initialize handlers
	taskController := Controllers.NewTaskController(db, engine, ledger)
	escalationController := Controllers.NewEscalationController(engine)
	pointsController := Controllers.NewPointsController(db, ledger)
	rewardController := Controllers.NewRewardController(db)
	settingsController := Controllers.NewSettingsController(db)

	// API group
	api := app.Group("/api")

	// Task routes
	tasks := api.Group("/tasks", middleware.Verify(""))
	tasks.Get("/", taskController.GetTasks)
	tasks.Post("/", middleware.Verify(Models.RoleParent), taskController.CreateTask)
	tasks.Get("/:id", taskController.GetTask)
	tasks.Post("/:id/complete", taskController.CompleteTask)
	tasks.Post("/:id/approve", middleware.Verify(Models.RoleParent), taskController.ApproveTask)
	tasks.Post("/:id/exempt", middleware.Verify(Models.RoleParent), taskController.ExemptTask)
	tasks.Post("/:id/intervene", middleware.Verify(Models.RoleParent), taskController.Intervene)

	// Escalation routes
	escalations := api.Group("/escalations", middleware.Verify(Models.RoleParent))
	escalations.Get("/", escalationController.GetActiveEscalations)
	escalations.Get("/summary", escalationController.GetSummary)

	// Points and redemption routes
	points := api.Group("/points", middleware.Verify(""))
	points.Get("/members/:id", pointsController.GetBalance)
	points.Post("/redeem", pointsController.Redeem)
	points.Get("/audit", middleware.Verify(Models.RoleParent), pointsController.GetAuditLog)

	// Reward catalogue routes
	rewards := api.Group("/rewards", middleware.Verify(""))
	rewards.Get("/", rewardController.GetRewards)
	rewards.Post("/", middleware.Verify(Models.RoleParent), rewardController.CreateReward)
	rewards.Put("/:id", middleware.Verify(Models.RoleParent), rewardController.UpdateReward)
	rewards.Delete("/:id", middleware.Verify(Models.RoleParent), rewardController.DeactivateReward)

	// Quiet hours routes
	settings := api.Group("/settings", middleware.Verify(""))
	settings.Get("/quiet-hours/:id", settingsController.GetQuietHours)
	settings.Put("/quiet-hours/:id", middleware.Verify(Models.RoleParent), settingsController.SetQuietHours)

	// Auth and account routes
	app.Post("/api/RegisterFamily", Controllers.RegisterFamily)
	app.Post("/api/AddMember", middleware.Verify(Models.RoleParent), Controllers.AddMember)
	app.Post("/api/Login", Controllers.Login)
	app.Use("/api/Logout", Controllers.Logout)
	app.Use("/api/User", middleware.Verify(""), Controllers.User)

	// Device token registration for push notifications
	app.Post("/api/UpdateToken", middleware.Verify(""), Models.UpdateToken)
}

func FiberConfig(engine *Escalation.Engine, ledger *Ledger.Service) {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*", // Allow all origins
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupRoutes(app, Models.DB, engine, ledger)

	app.Listen(":3001")
}
