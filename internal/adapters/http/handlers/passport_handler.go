package handlers

import (
	"errors"

	"visahub/internal/core/domain"
	"visahub/internal/core/services"
	"visahub/internal/pkg/response"
	"visahub/internal/pkg/storage"

	"github.com/gofiber/fiber/v2"
)

// PassportHandler handles document submission, uploads and public lookups
type PassportHandler struct {
	passportService *services.PassportService
	store           *storage.Store
}

// NewPassportHandler creates a new passport handler
func NewPassportHandler(passportService *services.PassportService, store *storage.Store) *PassportHandler {
	return &PassportHandler{
		passportService: passportService,
		store:           store,
	}
}

// PassportRequest represents the document submission request body
type PassportRequest struct {
	PassportNumber string `json:"passport_number"`
	Country        string `json:"country"`
	Nationality    string `json:"nationality"`
	Sex            string `json:"sex"`
	DateOfBirth    string `json:"date_of_birth"`
	ExpiryDate     string `json:"expiry_date"`
	PassportImage  string `json:"passport_image"`
}

// VerifyRequest represents the public lookup request body
type VerifyRequest struct {
	PassportNumber string `json:"passport_number"`
	Nationality    string `json:"nationality"`
}

// Upsert handles document submission (create or resubmit)
// @Summary Submit passport
// @Tags Passports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PassportRequest true "Passport data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /passports [post]
func (h *PassportHandler) Upsert(c *fiber.Ctx) error {
	var req PassportRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var fields []response.FieldError
	if req.PassportNumber == "" {
		fields = append(fields, response.FieldError{Field: "passport_number", Message: "Passport number is required"})
	}
	if req.Country == "" {
		fields = append(fields, response.FieldError{Field: "country", Message: "Country is required"})
	}
	if req.Nationality == "" {
		fields = append(fields, response.FieldError{Field: "nationality", Message: "Nationality is required"})
	}
	if req.Sex != "male" && req.Sex != "female" {
		fields = append(fields, response.FieldError{Field: "sex", Message: "Sex must be male or female"})
	}
	dob, dobOK := parseDate(req.DateOfBirth)
	if !dobOK || dob == nil {
		fields = append(fields, response.FieldError{Field: "date_of_birth", Message: "Valid date of birth is required"})
	}
	expiry, expOK := parseDate(req.ExpiryDate)
	if !expOK || expiry == nil {
		fields = append(fields, response.FieldError{Field: "expiry_date", Message: "Valid expiry date is required"})
	}
	if len(fields) > 0 {
		return response.ValidationFailed(c, fields)
	}

	userID := c.Locals("userID").(string)
	input := &services.PassportInput{
		PassportNumber: req.PassportNumber,
		Country:        req.Country,
		Nationality:    req.Nationality,
		Sex:            req.Sex,
		DateOfBirth:    dob,
		ExpiryDate:     expiry,
		PassportImage:  req.PassportImage,
	}

	passport, err := h.passportService.Upsert(c.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicatePassport):
			return response.BadRequest(c, "Passport number already exists in our system")
		default:
			return response.InternalServerError(c, "Failed to save passport information")
		}
	}

	return response.Created(c, "Passport information saved successfully", fiber.Map{"passport": passport})
}

// Get returns the caller's document row
// @Summary Get own passport
// @Tags Passports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /passports [get]
func (h *PassportHandler) Get(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	passport, err := h.passportService.GetByUserID(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPassportNotFound):
			return response.NotFound(c, "Passport information not found")
		default:
			return response.InternalServerError(c, "Failed to retrieve passport information")
		}
	}

	return response.Success(c, "", fiber.Map{"passport": passport})
}

// Verify handles the public lookup by passport number
// @Summary Verify passport
// @Tags Passports
// @Accept json
// @Produce json
// @Param body body VerifyRequest true "Passport number"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /passports/verify [post]
func (h *PassportHandler) Verify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.PassportNumber == "" {
		return response.BadRequest(c, "Passport number is required")
	}

	result, err := h.passportService.Verify(c.Context(), req.PassportNumber)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPassportNotFound):
			return response.NotFound(c, "Passport number not found in our system")
		default:
			return response.InternalServerError(c, "Failed to verify passport")
		}
	}

	return response.Success(c, "Passport verified successfully", result)
}

// VerifyLabor handles the downstream labor-consumer lookup
// @Summary Verify labor result
// @Tags Passports
// @Accept json
// @Produce json
// @Param body body VerifyRequest true "Passport number and nationality"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /passports/verify-labor [post]
func (h *PassportHandler) VerifyLabor(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.PassportNumber == "" || req.Nationality == "" {
		return response.BadRequest(c, "Both passport number and nationality are required")
	}

	result, err := h.passportService.VerifyLabor(c.Context(), req.PassportNumber, req.Nationality)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPassportNotFound):
			return response.NotFound(c, "Passport number and nationality combination not found")
		default:
			return response.InternalServerError(c, "Failed to verify labor result")
		}
	}

	return response.Success(c, "Labor result verified successfully", result)
}

// UploadImage stores a passport scan
// @Summary Upload passport image
// @Tags Passports
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param passport_image formData file true "Scan (JPEG/PNG/PDF, max 10MB)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /passports/upload [post]
func (h *PassportHandler) UploadImage(c *fiber.Ctx) error {
	header, err := c.FormFile("passport_image")
	if err != nil {
		return response.BadRequest(c, "No file uploaded")
	}

	stored, err := h.store.Save(storage.PassportPhotos, header)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			return response.BadRequest(c, "File exceeds the 10MB size limit")
		case errors.Is(err, storage.ErrTypeNotAllowed):
			return response.BadRequest(c, "Only images (JPEG, PNG) and PDF files are allowed")
		default:
			return response.InternalServerError(c, "File upload failed")
		}
	}

	return response.Success(c, "File uploaded successfully", stored)
}

// UploadPaymentScreenshot stores a payment proof image
// @Summary Upload payment screenshot
// @Tags Passports
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param screenshot formData file true "Screenshot (JPEG/PNG/PDF, max 5MB)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /passports/upload-payment-screenshot [post]
func (h *PassportHandler) UploadPaymentScreenshot(c *fiber.Ctx) error {
	header, err := c.FormFile("screenshot")
	if err != nil {
		return response.BadRequest(c, "No file uploaded")
	}

	stored, err := h.store.Save(storage.PaymentScreenshots, header)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			return response.BadRequest(c, "File exceeds the 5MB size limit")
		case errors.Is(err, storage.ErrTypeNotAllowed):
			return response.BadRequest(c, "Only images (JPEG, PNG) and PDF files are allowed")
		default:
			return response.InternalServerError(c, "File upload failed")
		}
	}

	return response.Success(c, "Payment screenshot uploaded successfully", stored)
}
