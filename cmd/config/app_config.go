package config

import (
	"Receipt-Review-Backend/internal/api/handlers"
	"Receipt-Review-Backend/internal/api/routes"
	"Receipt-Review-Backend/internal/middleware"
	"Receipt-Review-Backend/internal/utils"
	"Receipt-Review-Backend/internal/utils/storage"
	"Receipt-Review-Backend/pkg/analysis"
	"Receipt-Review-Backend/pkg/extraction"
	"Receipt-Review-Backend/pkg/feedback"
	"Receipt-Review-Backend/pkg/receipt"
	"Receipt-Review-Backend/pkg/testrun"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()
	extractor := extraction.NewClient()
	summarizer := analysis.NewGeminiSummarizer()

	tolerance := receipt.DefaultTolerance
	if configured := utils.GetConfig("OCR_TOTAL_TOLERANCE"); configured != "" {
		if parsed, err := decimal.NewFromString(configured); err == nil {
			tolerance = parsed
		}
	}

	// Repository
	receiptRepository := receipt.NewReceiptRepository(db)
	testRunRepository := testrun.NewTestRunRepository(db)
	feedbackRepository := feedback.NewFeedbackRepository(db)

	// Service
	receiptService := receipt.NewReceiptService(receiptRepository, s3, extractor, tolerance)
	testRunService := testrun.NewTestRunService(testRunRepository, receiptRepository, receiptService, feedbackRepository)
	feedbackService := feedback.NewFeedbackService(feedbackRepository, testRunRepository)
	analysisService := analysis.NewAnalysisService(testRunRepository, feedbackRepository, summarizer)

	// Handler
	receiptHandler := handlers.NewReceiptHandler(receiptService, validator)
	testRunHandler := handlers.NewTestRunHandler(testRunService, feedbackService, analysisService, validator)

	// routes
	routesConfig := routes.Config{
		App:            app,
		ReceiptHandler: receiptHandler,
		TestRunHandler: testRunHandler,
		Middleware:     middlewares,
	}
	routesConfig.Setup()
	return app, nil
}
