package handlers

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/internal/api/presenters"
	"Receipt-Review-Backend/pkg/receipt"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ReceiptHandler interface {
		UploadReceipt(c *fiber.Ctx) error
		GetReceipts(c *fiber.Ctx) error
		GetReceiptDetail(c *fiber.Ctx) error
		DiscardReceipt(c *fiber.Ctx) error
		AddItem(c *fiber.Ctx) error
		UpdateItem(c *fiber.Ctx) error
		RemoveItem(c *fiber.Ctx) error
		SetItemApproval(c *fiber.Ctx) error
		ApproveAll(c *fiber.Ctx) error
		ApproveRemaining(c *fiber.Ctx) error
		SaveValidated(c *fiber.Ctx) error
	}

	receiptHandler struct {
		receiptService receipt.ReceiptService
		validator      *validator.Validate
	}
)

func NewReceiptHandler(receiptService receipt.ReceiptService, validator *validator.Validate) ReceiptHandler {
	return &receiptHandler{
		receiptService: receiptService,
		validator:      validator,
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrReceiptNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrTestRunNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadRequest
	}
}

func (h *receiptHandler) UploadReceipt(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)

	form, err := c.MultipartForm()
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	req := domain.UploadReceiptRequest{ReceiptImages: form.File["receipt_images"]}
	if len(req.ReceiptImages) == 0 {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadReceipt, domain.ErrNoReceiptImages)
	}

	res, err := h.receiptService.CreateFromUpload(c.Context(), req, householdID, false)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedUploadReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessUploadReceipt)
}

func (h *receiptHandler) GetReceipts(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	status := c.Query("status", "all")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	receipts, count, err := h.receiptService.GetReceipts(c.Context(), householdID, status, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetReceipts, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"receipts": receipts,
		"total":    count,
		"page":     page,
		"limit":    limit,
	}, fiber.StatusOK, domain.MessageSuccessGetReceipts)
}

func (h *receiptHandler) GetReceiptDetail(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	receiptID := c.Params("id")

	res, err := h.receiptService.GetReceipt(c.Context(), receiptID, householdID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedGetReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetReceipt)
}

func (h *receiptHandler) DiscardReceipt(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	receiptID := c.Params("id")

	// The failure feedback body is optional on discard.
	var feedback *domain.DiscardReceiptRequest
	if len(c.Body()) > 0 {
		req := new(domain.DiscardReceiptRequest)
		if err := c.BodyParser(req); err == nil {
			feedback = req
		}
	}

	if err := h.receiptService.DiscardReceipt(c.Context(), receiptID, householdID, feedback); err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedDiscardReceipt, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDiscardReceipt)
}

func (h *receiptHandler) AddItem(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	receiptID := c.Params("id")
	req := new(domain.AddItemRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddItem, err)
	}

	res, err := h.receiptService.AddItem(c.Context(), receiptID, householdID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedAddItem, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddItem)
}

func itemIndex(c *fiber.Ctx) (int, error) {
	return strconv.Atoi(c.Params("index"))
}

func (h *receiptHandler) UpdateItem(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	receiptID := c.Params("id")

	index, err := itemIndex(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateItem, domain.ErrItemNotFound)
	}

	req := new(domain.UpdateItemRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.receiptService.UpdateItem(c.Context(), receiptID, householdID, index, *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedUpdateItem, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateItem)
}

func (h *receiptHandler) RemoveItem(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	receiptID := c.Params("id")

	index, err := itemIndex(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRemoveItem, domain.ErrItemNotFound)
	}

	res, err := h.receiptService.RemoveItem(c.Context(), receiptID, householdID, index)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedRemoveItem, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRemoveItem)
}

func (h *receiptHandler) SetItemApproval(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	receiptID := c.Params("id")

	index, err := itemIndex(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSetApproval, domain.ErrItemNotFound)
	}

	req := new(domain.SetApprovalStateRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSetApproval, err)
	}

	res, err := h.receiptService.SetApprovalState(c.Context(), receiptID, householdID, index, req.ApprovalState)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedSetApproval, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessSetApproval)
}

func (h *receiptHandler) ApproveAll(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	receiptID := c.Params("id")

	res, err := h.receiptService.ApproveAll(c.Context(), receiptID, householdID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedApproveItems, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessApproveAll)
}

func (h *receiptHandler) ApproveRemaining(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	receiptID := c.Params("id")

	res, err := h.receiptService.ApproveRemaining(c.Context(), receiptID, householdID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedApproveItems, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessApproveRemaining)
}

func (h *receiptHandler) SaveValidated(c *fiber.Ctx) error {
	householdID := c.Locals("household_id").(string)
	receiptID := c.Params("id")

	res, err := h.receiptService.SaveValidated(c.Context(), receiptID, householdID)
	if err != nil {
		return presenters.ErrorResponse(c, statusForError(err), domain.MessageFailedValidateReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessValidateReceipt)
}
