package handlers

import (
	"errors"

	"visahub/internal/core/domain"
	"visahub/internal/core/services"
	"visahub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles the owner-facing payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// SubmitProofRequest represents the proof submission request body
type SubmitProofRequest struct {
	TransactionID string `json:"transaction_id"`
	ScreenshotURL string `json:"screenshot_url"`
}

// MyStatus returns the caller's payment record, creating it on first query
// @Summary Get own payment status
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /payments/my-status [get]
func (h *PaymentHandler) MyStatus(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	payment, err := h.paymentService.EnsureForUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch payment status")
	}

	return response.Success(c, "", payment)
}

// SubmitProof handles the owner's proof submission
// @Summary Submit payment proof
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitProofRequest true "Transaction id and screenshot"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments/submit-proof [post]
func (h *PaymentHandler) SubmitProof(c *fiber.Ctx) error {
	var req SubmitProofRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	userID := c.Locals("userID").(string)
	input := &services.SubmitProofInput{
		TransactionID: req.TransactionID,
		ScreenshotURL: req.ScreenshotURL,
	}

	payment, err := h.paymentService.SubmitProof(c.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingProof):
			return response.BadRequest(c, "Transaction ID and screenshot are required")
		case errors.Is(err, domain.ErrPaymentNotFound):
			return response.NotFound(c, "Payment record not found")
		case errors.Is(err, domain.ErrInvalidState):
			return response.BadRequest(c, "Cannot submit proof in the current payment status")
		default:
			return response.InternalServerError(c, "Failed to submit payment proof")
		}
	}

	return response.Success(c, "Payment proof submitted successfully. We will verify and send confirmation soon.", fiber.Map{
		"status":         payment.Status,
		"transaction_id": payment.TransactionID,
	})
}
