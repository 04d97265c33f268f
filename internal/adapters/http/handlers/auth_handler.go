package handlers

import (
	"errors"
	"strings"
	"time"

	"visahub/internal/config"
	"visahub/internal/core/domain"
	"visahub/internal/core/services"
	"visahub/internal/pkg/password"
	"visahub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// SignupRequest represents onboarding step 1 request body
type SignupRequest struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	Nationality        string `json:"nationality"`
	CountryOfResidence string `json:"country_of_residence"`
	DateOfBirth        string `json:"date_of_birth"`
	Sex                string `json:"sex"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// VerifyEmailRequest represents OTP consumption request body
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendOTPRequest represents OTP re-issue request body
type ResendOTPRequest struct {
	Email string `json:"email"`
}

// Signup handles onboarding step 1
// @Summary Start onboarding
// @Description Create a user from the personal step and return the onboarding token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SignupRequest true "Signup data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var fields []response.FieldError
	if strings.TrimSpace(req.FirstName) == "" {
		fields = append(fields, response.FieldError{Field: "first_name", Message: "First name is required"})
	}
	if strings.TrimSpace(req.LastName) == "" {
		fields = append(fields, response.FieldError{Field: "last_name", Message: "Last name is required"})
	}
	if !isEmail(req.Email) {
		fields = append(fields, response.FieldError{Field: "email", Message: "Valid email is required"})
	}
	if !password.ValidatePassword(req.Password) {
		fields = append(fields, response.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if req.Sex != "" && req.Sex != "male" && req.Sex != "female" {
		fields = append(fields, response.FieldError{Field: "sex", Message: "Sex must be male or female"})
	}
	dob, ok := parseDate(req.DateOfBirth)
	if !ok {
		fields = append(fields, response.FieldError{Field: "date_of_birth", Message: "Valid date of birth is required"})
	}
	if len(fields) > 0 {
		return response.ValidationFailed(c, fields)
	}

	input := &services.SignupInput{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Password:           req.Password,
		Nationality:        req.Nationality,
		CountryOfResidence: req.CountryOfResidence,
		DateOfBirth:        dob,
		Sex:                req.Sex,
	}

	result, err := h.authService.Signup(c.Context(), input, sessionMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			return response.BadRequest(c, "Email already exists in our system")
		default:
			return response.InternalServerError(c, "Failed to sign up")
		}
	}

	h.setAuthCookie(c, result.AccessToken)

	return response.Created(c, "Account created. A verification code was sent to your email.", result)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate by email or phone and return a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" && req.Phone == "" {
		return response.BadRequest(c, "Email or phone is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	input := &services.LoginInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}

	result, err := h.authService.Login(c.Context(), input, sessionMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid email/phone or password")
		case errors.Is(err, domain.ErrUserInactive):
			return response.Unauthorized(c, "Account is deactivated. Please contact support.")
		case errors.Is(err, domain.ErrUserNotVerified):
			return response.Forbidden(c, "Please verify your email before logging in")
		default:
			return response.InternalServerError(c, "Internal server error during login")
		}
	}

	h.setAuthCookie(c, result.AccessToken)

	return response.Success(c, "Login successful", result)
}

// VerifyEmail handles OTP consumption
// @Summary Verify email
// @Description Consume a verification code and mark the user verified
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body VerifyEmailRequest true "Email and code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if !isEmail(req.Email) {
		return response.BadRequest(c, "Valid email is required")
	}
	if strings.TrimSpace(req.Code) == "" {
		return response.BadRequest(c, "Verification code is required")
	}

	if err := h.authService.VerifyEmail(c.Context(), req.Email, strings.TrimSpace(req.Code)); err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeInvalidOrExpired):
			return response.BadRequest(c, "Verification code is invalid or expired")
		default:
			return response.InternalServerError(c, "Failed to verify email")
		}
	}

	return response.Success(c, "Email verified successfully", nil)
}

// ResendOTP handles OTP re-issue
// @Summary Resend verification code
// @Description Issue a fresh verification code for an email address
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ResendOTPRequest true "Email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if !isEmail(req.Email) {
		return response.BadRequest(c, "Valid email is required")
	}

	issue, err := h.authService.ResendOTP(c.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "No account found for this email")
		default:
			return response.InternalServerError(c, "Failed to resend verification code")
		}
	}

	data := fiber.Map{"otp_sent": issue.Dispatched, "expires_at": issue.ExpiresAt}
	if h.cfg.IsDev() {
		data["dev_code"] = issue.Code
	}

	return response.Success(c, "Verification code sent", data)
}

// Logout revokes the caller's session
// @Summary Logout
// @Description Revoke the session backing the presented bearer token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("accessToken").(string)
	if token != "" {
		if err := h.authService.Logout(c.Context(), token); err != nil {
			return response.InternalServerError(c, "Failed to logout")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return response.Success(c, "Logged out successfully", nil)
}

// setAuthCookie stores the access token in an HTTP-only cookie
func (h *AuthHandler) setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		Expires:  time.Now().Add(time.Duration(h.cfg.JWT.AccessTokenMins) * time.Minute),
		HTTPOnly: true,
		Secure:   h.cfg.Cookie.Secure,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// sessionMeta captures transport metadata for the session row
func sessionMeta(c *fiber.Ctx) services.SessionMeta {
	return services.SessionMeta{
		UserAgent: c.Get("User-Agent"),
		IPAddress: c.IP(),
	}
}

// isEmail is a light format check; real validation happens on delivery
func isEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	dot := strings.LastIndex(email, ".")
	return at > 0 && dot > at+1 && dot < len(email)-1
}

// parseDate accepts YYYY-MM-DD; empty input is allowed
func parseDate(value string) (*time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, false
	}
	return &t, true
}
