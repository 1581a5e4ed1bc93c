package routes

import (
	"Receipt-Review-Backend/internal/api/handlers"
	"Receipt-Review-Backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App            *fiber.App
	ReceiptHandler handlers.ReceiptHandler
	TestRunHandler handlers.TestRunHandler
	Middleware     middleware.Middleware
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.Receipts()
	c.TestRuns()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts", c.Middleware.HouseholdMiddleware())

	receipts.Post("", c.ReceiptHandler.UploadReceipt)
	receipts.Get("", c.ReceiptHandler.GetReceipts)
	receipts.Get("/:id", c.ReceiptHandler.GetReceiptDetail)
	receipts.Delete("/:id", c.ReceiptHandler.DiscardReceipt)

	// Item ledger operations
	receipts.Post("/:id/items", c.ReceiptHandler.AddItem)
	receipts.Patch("/:id/items/:index", c.ReceiptHandler.UpdateItem)
	receipts.Delete("/:id/items/:index", c.ReceiptHandler.RemoveItem)
	receipts.Post("/:id/items/:index/approval", c.ReceiptHandler.SetItemApproval)
	receipts.Post("/:id/approve-all", c.ReceiptHandler.ApproveAll)
	receipts.Post("/:id/approve-remaining", c.ReceiptHandler.ApproveRemaining)
	receipts.Post("/:id/validate", c.ReceiptHandler.SaveValidated)
}

func (c *Config) TestRuns() {
	testRuns := c.App.Group("/api/v1/test-runs", c.Middleware.HouseholdMiddleware())

	testRuns.Post("", c.TestRunHandler.CreateTestRun)
	testRuns.Get("", c.TestRunHandler.GetTestRuns)
	testRuns.Get("/:id", c.TestRunHandler.GetTestRunDetail)
	testRuns.Delete("/:id", c.TestRunHandler.DeleteTestRun)

	testRuns.Post("/:id/receipts", c.TestRunHandler.AttachReceipts)
	testRuns.Post("/:id/complete", c.TestRunHandler.CompleteTestRun)
	testRuns.Post("/:id/rerun", c.TestRunHandler.RerunTestRun)

	// Quality feedback and batch analysis
	testRuns.Post("/:id/feedback", c.TestRunHandler.RecordFeedback)
	testRuns.Post("/:id/receipts/:receiptId/confirm-clean", c.TestRunHandler.ConfirmClean)
	testRuns.Post("/:id/analyze", c.TestRunHandler.RunAnalysis)
}
