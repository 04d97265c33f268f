package handlers

import (
	"errors"

	"visahub/internal/core/domain"
	"visahub/internal/core/services"
	"visahub/internal/pkg/pagination"
	"visahub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the review surface and the transition-triggering
// operations. Routes behind this handler are admin-gated.
type AdminHandler struct {
	adminService    *services.AdminService
	userService     *services.UserService
	passportService *services.PassportService
	paymentService  *services.PaymentService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	adminService *services.AdminService,
	userService *services.UserService,
	passportService *services.PassportService,
	paymentService *services.PaymentService,
) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		userService:     userService,
		passportService: passportService,
		paymentService:  paymentService,
	}
}

// SetAmountRequest represents the amount negotiation request body
type SetAmountRequest struct {
	Amount            float64 `json:"amount"`
	BankAccountTitle  string  `json:"bank_account_title"`
	BankAccountNumber string  `json:"bank_account_number"`
	PaymentMethod     string  `json:"payment_method"`
}

// SetTokenRequest represents the token assignment request body
type SetTokenRequest struct {
	TokenNumber string `json:"token_number"`
}

// ReviewRequest represents approve/reject request body
type ReviewRequest struct {
	Notes string `json:"notes"`
}

// ListUsers returns the filtered review rows
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Free text over name/email/phone"
// @Param status query string false "Payment status filter"
// @Success 200 {object} response.Response
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	search := c.Query("search")
	status := c.Query("status")

	users, total, err := h.adminService.ListUsers(c.Context(), search, status, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Success(c, "", pagination.NewResponse(users, params, total))
}

// GetUser returns a single review row
// @Summary Get user detail
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.adminService.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to fetch user details")
		}
	}

	return response.Success(c, "", user)
}

// UpdateUser applies a partial user update
// @Summary Update user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var req services.AdminUpdateInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.AdminUpdateUser(c.Context(), c.Params("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	return response.Success(c, "User updated successfully", user)
}

// DeleteUser soft deletes a user
// @Summary Delete user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.userService.AdminDeleteUser(c.Context(), c.Params("id")); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to delete user")
		}
	}

	return response.Success(c, "User deleted successfully", nil)
}

// SetAmount records the negotiated amount for a user's payment
// @Summary Set payment amount
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body SetAmountRequest true "Amount and bank details"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/set-amount [put]
func (h *AdminHandler) SetAmount(c *fiber.Ctx) error {
	var req SetAmountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.SetAmountInput{
		Amount:            req.Amount,
		BankAccountTitle:  req.BankAccountTitle,
		BankAccountNumber: req.BankAccountNumber,
		PaymentMethod:     req.PaymentMethod,
	}

	payment, err := h.paymentService.SetAmount(c.Context(), c.Params("id"), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Valid amount is required")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to set payment amount")
		}
	}

	return response.Success(c, "Payment amount set successfully", fiber.Map{
		"user_id": c.Params("id"),
		"amount":  payment.Amount,
		"status":  payment.Status,
	})
}

// SetToken assigns a token number to a user's passport
// @Summary Set token number
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body SetTokenRequest true "Token number"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/set-token [put]
func (h *AdminHandler) SetToken(c *fiber.Ctx) error {
	var req SetTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	passport, err := h.passportService.AssignToken(c.Context(), c.Params("id"), req.TokenNumber)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Token number is required")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrTokenNumberTaken):
			return response.BadRequest(c, "This token number is already assigned to another user")
		default:
			return response.InternalServerError(c, "Failed to set token number")
		}
	}

	return response.Success(c, "Token number set successfully", fiber.Map{
		"user_id":      c.Params("id"),
		"passport_id":  passport.ID,
		"token_number": passport.TokenNumber,
	})
}

// ApprovePayment closes a payment under verification
// @Summary Approve payment
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param body body ReviewRequest false "Review notes"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/payments/{id}/approve [put]
func (h *AdminHandler) ApprovePayment(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	reviewerID := c.Locals("userID").(string)
	payment, err := h.paymentService.Approve(c.Context(), c.Params("id"), reviewerID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, domain.ErrInvalidState):
			return response.BadRequest(c, "Cannot approve payment in its current status")
		default:
			return response.InternalServerError(c, "Failed to approve payment")
		}
	}

	data := fiber.Map{"payment_id": payment.ID, "status": payment.Status}
	if payment.User != nil {
		data["user_email"] = payment.User.Email
	}
	return response.Success(c, "Payment approved successfully", data)
}

// RejectPayment reopens a payment under verification
// @Summary Reject payment
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param body body ReviewRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/payments/{id}/reject [put]
func (h *AdminHandler) RejectPayment(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	reviewerID := c.Locals("userID").(string)
	payment, err := h.paymentService.Reject(c.Context(), c.Params("id"), reviewerID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingReason):
			return response.BadRequest(c, "Rejection reason is required")
		case errors.Is(err, domain.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, domain.ErrInvalidState):
			return response.BadRequest(c, "Cannot reject payment in its current status")
		default:
			return response.InternalServerError(c, "Failed to reject payment")
		}
	}

	return response.Success(c, "Payment rejected", fiber.Map{
		"payment_id": payment.ID,
		"status":     payment.Status,
		"reason":     req.Notes,
	})
}

// GetStats returns dashboard counters
// @Summary Dashboard statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.adminService.GetStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch statistics")
	}

	return response.Success(c, "", stats)
}
