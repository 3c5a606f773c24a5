package FiberConfig

import (
	"fmt"
	"time"

	"Vistoria/Capture"
	"Vistoria/Controllers"
	"Vistoria/Models"
	"Vistoria/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func SetupRoutes(app *fiber.App, lifecycle *Models.Lifecycle, registry *Capture.Registry) {
	// Initialize handlers
	inspectionController := Controllers.NewInspectionController(lifecycle)
	sessionController := Capture.NewSessionController(registry)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/api/user", middleware.Verify(), Controllers.User)
	app.Get("/api/validate-token", middleware.Verify(), Controllers.ValidateToken)

	// Operator routes — creating and editing inspections needs a staff role
	inspections := app.Group("/api/inspections", middleware.Verify(Models.RoleAdmin, Models.RoleConsultant, Models.RoleEvents))
	inspections.Get("/", inspectionController.GetInspections)
	inspections.Get("/export", inspectionController.ExportInspections)
	inspections.Post("/", middleware.Verify(Models.RoleAdmin, Models.RoleConsultant), inspectionController.CreateInspection)
	inspections.Put("/:id", middleware.Verify(Models.RoleAdmin, Models.RoleConsultant), inspectionController.UpdateInspection)
	inspections.Patch("/:id/review", middleware.Verify(Models.RoleAdmin), inspectionController.SetReviewStatus)
	inspections.Get("/code/:code", inspectionController.GetInspectionByCode)
	inspections.Get("/code/:code/share", inspectionController.GetShareLink)

	app.Get("/api/stats/widget-data", middleware.Verify(), inspectionController.GetStats)

	// Logs API routes
	app.Get("/api/logs", middleware.Verify(Models.RoleAdmin), Controllers.GetLogs)
	app.Get("/api/logs/stats", middleware.Verify(Models.RoleAdmin), Controllers.GetLogStats)

	// Client capture routes — reached with a share code, no operator login
	capture := app.Group("/api/capture")
	capture.Get("/checklist", sessionController.GetChecklist)
	capture.Post("/sessions", sessionController.StartSession)
	capture.Get("/sessions/:token", sessionController.GetSession)
	capture.Delete("/sessions/:token", sessionController.CloseSession)
	capture.Post("/sessions/:token/advance", sessionController.Advance)
	capture.Post("/sessions/:token/back", sessionController.Back)
	capture.Post("/sessions/:token/consent", sessionController.AcceptConsent)
	capture.Post("/sessions/:token/photos", sessionController.CapturePhoto)
	capture.Post("/sessions/:token/slot", sessionController.SelectSlot)
	capture.Post("/sessions/:token/signature", sessionController.SaveSignature)
	capture.Post("/sessions/:token/finalize", sessionController.Finalize)
	capture.Post("/sessions/:token/device-error", sessionController.ReportDeviceError)
}

func FiberConfig(lifecycle *Models.Lifecycle, registry *Capture.Registry, addr string) {
	fmt.Println("Server Up...")
	app := fiber.New(fiber.Config{
		BodyLimit: 16 * 1024 * 1024, // photo payloads
	})
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           int((5 * time.Minute).Seconds()),
	}))

	SetupRoutes(app, lifecycle, registry)

	app.Listen(addr)
}
