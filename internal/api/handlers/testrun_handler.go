package handlers

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/internal/api/presenters"
	"Receipt-Review-Backend/pkg/analysis"
	"Receipt-Review-Backend/pkg/feedback"
	"Receipt-Review-Backend/pkg/testrun"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	TestRunHandler interface {
		CreateTestRun(c *fiber.Ctx) error
		GetTestRuns(c *fiber.Ctx) error
		GetTestRunDetail(c *fiber.Ctx) error
		AttachReceipts(c *fiber.Ctx) error
		CompleteTestRun(c *fiber.Ctx) error
		RerunTestRun(c *fiber.Ctx) error
		DeleteTestRun(c *fiber.Ctx) error
		RecordFeedback(c *fiber.Ctx) error
		ConfirmClean(c *fiber.Ctx) error
		RunAnalysis(c *fiber.Ctx) error
	}

	testRunHandler struct {
		testRunService  testrun.TestRunService
		feedbackService feedback.FeedbackService
		analysisService analysis.AnalysisService
		validator       *validator.Validate
	}
)

func NewTestRunHandler(
	testRunService testrun.TestRunService,
	feedbackService feedback.FeedbackService,
	analysisService analysis.AnalysisService,
	validator *validator.Validate,
) TestRunHandler {
	return &testRunHandler{
		testRunService:  testRunService,
		feedbackService: feedbackService,
		analysisService: analysisService,
		validator:       validator,
	}
}

func (h *testRunHandler) CreateTestRun(c *fiber.Ctx) error {
	req := new(domain.CreateTestRunRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateTestRun, err)
	}

	res, err := h.testRunService.Create(c.Context(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedCreateTestRun, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateTestRun)
}

func (h *testRunHandler) GetTestRuns(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	testRuns, count, err := h.testRunService.GetTestRuns(c.Context(), page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetTestRuns, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"test_runs": testRuns,
		"total":     count,
		"page":      page,
		"limit":     limit,
	}, fiber.StatusOK, domain.MessageSuccessGetTestRuns)
}

func (h *testRunHandler) GetTestRunDetail(c *fiber.Ctx) error {
	res, err := h.testRunService.GetTestRun(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetTestRun, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetTestRun)
}

func (h *testRunHandler) AttachReceipts(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)

	form, err := c.MultipartForm()
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	req := domain.AttachReceiptsRequest{ReceiptImages: form.File["receipt_images"]}
	if len(req.ReceiptImages) == 0 {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAttachReceipts, domain.ErrNoTestRunImages)
	}

	res, err := h.testRunService.AttachReceipts(c.Context(), c.Params("id"), req, householdID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedAttachReceipts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAttachReceipts)
}

func (h *testRunHandler) CompleteTestRun(c *fiber.Ctx) error {
	res, err := h.testRunService.Complete(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedCompleteTestRun, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessCompleteTestRun)
}

func (h *testRunHandler) RerunTestRun(c *fiber.Ctx) error {
	res, err := h.testRunService.Rerun(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedRerunTestRun, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessRerunTestRun)
}

func (h *testRunHandler) DeleteTestRun(c *fiber.Ctx) error {
	if err := h.testRunService.Delete(c.Context(), c.Params("id")); err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedDeleteTestRun, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteTestRun)
}

func (h *testRunHandler) RecordFeedback(c *fiber.Ctx) error {
	req := new(domain.RecordFeedbackRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRecordFeedback, err)
	}

	res, err := h.feedbackService.Record(c.Context(), c.Params("id"), *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedRecordFeedback, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessRecordFeedback)
}

func (h *testRunHandler) ConfirmClean(c *fiber.Ctx) error {
	req := new(domain.ConfirmCleanRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedConfirmClean, err)
	}

	if err := h.feedbackService.ConfirmClean(c.Context(), c.Params("id"), c.Params("receiptId"), *req); err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedConfirmClean, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusCreated, domain.MessageSuccessConfirmClean)
}

func (h *testRunHandler) RunAnalysis(c *fiber.Ctx) error {
	res, err := h.analysisService.Analyze(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedRunAnalysis, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRunAnalysis)
}
