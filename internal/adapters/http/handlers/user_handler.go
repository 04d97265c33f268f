package handlers

import (
	"errors"

	"visahub/internal/config"
	"visahub/internal/core/domain"
	"visahub/internal/core/services"
	"visahub/internal/pkg/response"
	"visahub/internal/pkg/storage"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles onboarding-step and profile endpoints
type UserHandler struct {
	userService *services.UserService
	store       *storage.Store
	cfg         *config.Config
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, store *storage.Store, cfg *config.Config) *UserHandler {
	return &UserHandler{
		userService: userService,
		store:       store,
		cfg:         cfg,
	}
}

// PersonalInfoRequest represents the personal step request body
type PersonalInfoRequest struct {
	NationalID    string `json:"national_id"`
	Education     string `json:"education"`
	Experience    string `json:"experience"`
	Certification string `json:"certification"`
	Password      string `json:"password"`
	PersonalPhoto string `json:"personal_photo"`
}

// ContactInfoRequest represents the contact step request body
type ContactInfoRequest struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
}

// UpdatePersonalInfo handles the personal-details onboarding step
// @Summary Save personal info
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PersonalInfoRequest true "Personal info"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/personal-info [put]
func (h *UserHandler) UpdatePersonalInfo(c *fiber.Ctx) error {
	var req PersonalInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var fields []response.FieldError
	if req.NationalID == "" {
		fields = append(fields, response.FieldError{Field: "national_id", Message: "National ID is required"})
	}
	if req.Education == "" {
		fields = append(fields, response.FieldError{Field: "education", Message: "Education level is required"})
	}
	if req.Experience == "" {
		fields = append(fields, response.FieldError{Field: "experience", Message: "Experience level is required"})
	}
	if len(fields) > 0 {
		return response.ValidationFailed(c, fields)
	}

	userID := c.Locals("userID").(string)
	input := &services.PersonalInfoInput{
		NationalID:    req.NationalID,
		Education:     req.Education,
		Experience:    req.Experience,
		Certification: req.Certification,
		Password:      req.Password,
		PersonalPhoto: req.PersonalPhoto,
	}

	user, err := h.userService.UpdatePersonalInfo(c.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrDuplicateNationalID):
			return response.BadRequest(c, "National ID already exists in our system")
		default:
			return response.InternalServerError(c, "Failed to save personal information")
		}
	}

	return response.Success(c, "Personal information saved successfully", fiber.Map{"user": user})
}

// UpdateContactInfo handles the contact onboarding step
// @Summary Save contact info
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ContactInfoRequest true "Contact info"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/contact-info [put]
func (h *UserHandler) UpdateContactInfo(c *fiber.Ctx) error {
	var req ContactInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var fields []response.FieldError
	if !isEmail(req.Email) {
		fields = append(fields, response.FieldError{Field: "email", Message: "Valid email is required"})
	}
	if len(req.Phone) < 10 {
		fields = append(fields, response.FieldError{Field: "phone", Message: "Phone number must be at least 10 digits"})
	}
	if req.CountryCode == "" {
		fields = append(fields, response.FieldError{Field: "country_code", Message: "Country code is required"})
	}
	if len(fields) > 0 {
		return response.ValidationFailed(c, fields)
	}

	userID := c.Locals("userID").(string)
	input := &services.ContactInfoInput{
		Email:       req.Email,
		Phone:       req.Phone,
		CountryCode: req.CountryCode,
	}

	result, err := h.userService.UpdateContactInfo(c.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrDuplicateEmail):
			return response.BadRequest(c, "Email already exists in our system")
		default:
			return response.InternalServerError(c, "Failed to save contact information")
		}
	}

	message := "Contact information saved successfully"
	if result.OTPSent {
		message = "Contact information saved and verification code sent to your email"
	}

	data := fiber.Map{"user": result.User, "otp_sent": result.OTPSent}
	if h.cfg.IsDev() && result.DevCode != "" {
		data["dev_code"] = result.DevCode
	}

	return response.Success(c, message, data)
}

// GetProfile returns the authenticated user's profile with relations
// @Summary Get own profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	user, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to fetch profile")
		}
	}

	return response.Success(c, "", fiber.Map{
		"user":     user.ToResponse(),
		"passport": user.Passport,
		"payment":  user.Payment,
	})
}

// UploadPhoto stores a personal photo and records it on the profile
// @Summary Upload personal photo
// @Tags Users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param personal_photo formData file true "Photo (JPEG/PNG, max 2MB)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/upload-photo [post]
func (h *UserHandler) UploadPhoto(c *fiber.Ctx) error {
	header, err := c.FormFile("personal_photo")
	if err != nil {
		return response.BadRequest(c, "No file uploaded")
	}

	stored, err := h.store.Save(storage.PersonalPhotos, header)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			return response.BadRequest(c, "Photo exceeds the 2MB size limit")
		case errors.Is(err, storage.ErrTypeNotAllowed):
			return response.BadRequest(c, "Only JPG and PNG files are allowed")
		default:
			return response.InternalServerError(c, "Photo upload failed")
		}
	}

	userID := c.Locals("userID").(string)
	if err := h.userService.UpdatePhoto(c.Context(), userID, stored.FilePath); err != nil {
		return response.InternalServerError(c, "Failed to record uploaded photo")
	}

	return response.Success(c, "Personal photo uploaded successfully", stored)
}
