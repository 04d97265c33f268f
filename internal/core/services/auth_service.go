package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"visahub/internal/adapters/persistence/models"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/config"
	"visahub/internal/core/domain"
	"visahub/internal/pkg/jwt"
	"visahub/internal/pkg/password"

	"gorm.io/gorm"
)

var nonDigits = regexp.MustCompile(`\D`)

// AuthService handles signup, login and session lifecycle
type AuthService struct {
	userRepo            repositories.UserRepository
	sessionRepo         repositories.SessionRepository
	verificationService *VerificationService
	cfg                 *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	verificationService *VerificationService,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:            userRepo,
		sessionRepo:         sessionRepo,
		verificationService: verificationService,
		cfg:                 cfg,
	}
}

// SignupInput represents onboarding step 1 input
type SignupInput struct {
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Email              string     `json:"email"`
	Password           string     `json:"password"`
	Nationality        string     `json:"nationality"`
	CountryOfResidence string     `json:"country_of_residence"`
	DateOfBirth        *time.Time `json:"date_of_birth"`
	Sex                string     `json:"sex"`
}

// LoginInput represents login input; identifier may be email or phone
type LoginInput struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// SessionMeta carries transport metadata recorded with each session
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *models.UserResponse `json:"user"`
	AccessToken string               `json:"access_token"`
	// OTPSent reports whether the verification email was dispatched.
	// Dispatch failure never blocks signup; the code stays valid.
	OTPSent bool `json:"otp_sent,omitempty"`
	// DevCode carries the verification code in dev mode only
	DevCode string `json:"dev_code,omitempty"`
}

// Signup creates the user at onboarding step 1 and returns a bearer token
// that identifies the draft through the remaining steps. Later steps always
// operate on the authenticated user id, never on a recency query.
func (s *AuthService) Signup(ctx context.Context, input *SignupInput, meta SessionMeta) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	exists, err := s.userRepo.ExistsByEmail(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:              email,
		PasswordHash:       hashed,
		FirstName:          strings.TrimSpace(input.FirstName),
		LastName:           strings.TrimSpace(input.LastName),
		Nationality:        input.Nationality,
		CountryOfResidence: input.CountryOfResidence,
		DateOfBirth:        input.DateOfBirth,
		Sex:                input.Sex,
		Role:               models.RoleUser,
		IsActive:           true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	issue, err := s.verificationService.Issue(ctx, email, models.VerificationTypeSignup)
	if err != nil {
		return nil, err
	}

	token, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User signed up: %s", user.Email)

	resp := &AuthResponse{
		User:        user.ToResponse(),
		AccessToken: token,
		OTPSent:     issue.Dispatched,
	}
	if s.cfg.IsDev() {
		resp.DevCode = issue.Code
	}
	return resp, nil
}

// Login authenticates a user by email or phone
func (s *AuthService) Login(ctx context.Context, input *LoginInput, meta SessionMeta) (*AuthResponse, error) {
	identifier := strings.ToLower(strings.TrimSpace(input.Email))
	if identifier == "" {
		identifier = nonDigits.ReplaceAllString(input.Phone, "")
	}
	if identifier == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmailOrPhone(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	if !user.IsVerified {
		return nil, domain.ErrUserNotVerified
	}

	if !password.Verify(input.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Login successful: %s", user.Email)

	return &AuthResponse{
		User:        user.ToResponse(),
		AccessToken: token,
	}, nil
}

// VerifyEmail consumes a verification code for an email address
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.verificationService.Consume(ctx, email, code)
}

// ResendOTP issues a fresh verification code for an email address
func (s *AuthService) ResendOTP(ctx context.Context, email string) (*IssueResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return s.verificationService.Issue(ctx, email, models.VerificationTypeSignup)
}

// Logout revokes the session backing a bearer token
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessionRepo.RevokeByTokenHash(ctx, password.HashToken(token))
}

// issueSession signs an access token and records its session row
func (s *AuthService) issueSession(ctx context.Context, user *models.User, meta SessionMeta) (string, error) {
	token, err := jwt.GenerateAccessToken(user.ID, user.Email, user.Role, s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return "", err
	}

	session := &models.Session{
		UserID:    user.ID,
		TokenHash: password.HashToken(token),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.AccessTokenMins),
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", err
	}

	return token, nil
}
