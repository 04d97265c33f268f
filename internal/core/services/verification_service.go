package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"visahub/internal/adapters/persistence/models"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/core/domain"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VerificationCodeTTL is how long an issued code stays consumable
const VerificationCodeTTL = 30 * time.Minute

// verificationCodeLength is the fixed length of issued numeric codes
const verificationCodeLength = 6

// VerificationService issues and consumes time-boxed one-time codes proving
// control of an email address.
type VerificationService struct {
	verificationRepo repositories.VerificationRepository
	userRepo         repositories.UserRepository
	mailer           Mailer
	logger           *zap.SugaredLogger
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	verificationRepo repositories.VerificationRepository,
	userRepo repositories.UserRepository,
	mailer Mailer,
	logger *zap.SugaredLogger,
) *VerificationService {
	return &VerificationService{
		verificationRepo: verificationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
		logger:           logger,
	}
}

// IssueResult reports what happened when a code was issued
type IssueResult struct {
	Code       string
	Dispatched bool
	ExpiresAt  time.Time
}

// Issue generates a fixed-length numeric code, persists it and dispatches it
// by email. Dispatch failure is non-fatal: the code remains valid and the
// failure is surfaced through Dispatched=false and the logs.
func (s *VerificationService) Issue(ctx context.Context, email, purpose string) (*IssueResult, error) {
	code, err := generateNumericCode(verificationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	record := &models.EmailVerification{
		Email:            email,
		VerificationCode: code,
		VerificationType: purpose,
		ExpiresAt:        time.Now().Add(VerificationCodeTTL),
	}
	if err := s.verificationRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	dispatched := true
	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		// The stored code stays usable for operational recovery
		s.logger.Warnw("verification code dispatch failed, code remains valid",
			"email", email, "purpose", purpose, "error", err)
		dispatched = false
	}

	return &IssueResult{
		Code:       code,
		Dispatched: dispatched,
		ExpiresAt:  record.ExpiresAt,
	}, nil
}

// Consume looks up the most recently issued unused, unexpired row matching
// email + code exactly, marks it consumed and marks the owning user verified.
// A second consume attempt with the same code fails because the row is
// already marked used.
func (s *VerificationService) Consume(ctx context.Context, email, code string) error {
	record, err := s.verificationRepo.GetLatestValid(ctx, email, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrCodeInvalidOrExpired
		}
		return err
	}

	if err := s.verificationRepo.MarkUsed(ctx, record.ID); err != nil {
		return err
	}

	if err := s.userRepo.MarkVerifiedByEmail(ctx, email); err != nil {
		return err
	}

	return nil
}

// generateNumericCode generates a cryptographically secure numeric code
func generateNumericCode(length int) (string, error) {
	result := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		result += fmt.Sprintf("%d", n.Int64())
	}
	return result, nil
}
