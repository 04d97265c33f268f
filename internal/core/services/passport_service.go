package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"visahub/internal/adapters/persistence/models"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/core/domain"

	"gorm.io/gorm"
)

// PassportService handles document records and staff token assignment
type PassportService struct {
	passportRepo repositories.PassportRepository
	userRepo     repositories.UserRepository
}

// NewPassportService creates a new passport service
func NewPassportService(passportRepo repositories.PassportRepository, userRepo repositories.UserRepository) *PassportService {
	return &PassportService{
		passportRepo: passportRepo,
		userRepo:     userRepo,
	}
}

// PassportInput represents the document submission step
type PassportInput struct {
	PassportNumber string     `json:"passport_number"`
	Country        string     `json:"country"`
	Nationality    string     `json:"nationality"`
	Sex            string     `json:"sex"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	PassportImage  string     `json:"passport_image"`
}

// VerifyResult is the public lookup payload for the downstream labor consumer
type VerifyResult struct {
	PassportNumber string  `json:"passport_number"`
	Nationality    string  `json:"nationality,omitempty"`
	TokenNumber    *string `json:"token_number"`
	OwnerName      string  `json:"owner_name,omitempty"`
	OwnerEmail     string  `json:"owner_email,omitempty"`
}

// Upsert creates or updates the owner's single document row, keyed by
// passport number for uniqueness. Resubmission by the owner overwrites the
// row and resets the verification status to pending.
func (s *PassportService) Upsert(ctx context.Context, userID string, input *PassportInput) (*models.Passport, error) {
	number := strings.TrimSpace(input.PassportNumber)

	// The number must not belong to someone else's document
	existing, err := s.passportRepo.GetByNumber(ctx, number)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.UserID != userID {
		return nil, domain.ErrDuplicatePassport
	}

	passport, err := s.passportRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		passport = &models.Passport{UserID: userID}
	}

	passport.PassportNumber = number
	passport.Country = input.Country
	passport.Nationality = input.Nationality
	passport.Sex = input.Sex
	passport.DateOfBirth = input.DateOfBirth
	passport.ExpiryDate = input.ExpiryDate
	passport.PassportImageURL = input.PassportImage
	passport.VerificationStatus = models.PassportStatusPending

	if passport.ID == "" {
		err = s.passportRepo.Create(ctx, passport)
	} else {
		err = s.passportRepo.Update(ctx, passport)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Passport %s saved for user %s", number, userID)
	return passport, nil
}

// GetByUserID returns the owner's document row
func (s *PassportService) GetByUserID(ctx context.Context, userID string) (*models.Passport, error) {
	passport, err := s.passportRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPassportNotFound
		}
		return nil, err
	}
	return passport, nil
}

// AssignToken attaches a staff token number to the user's document. The token
// must not belong to a different document; re-assigning a document's own
// token succeeds. When the user has no document row yet, staff pre-assignment
// creates a placeholder row with filler values.
func (s *PassportService) AssignToken(ctx context.Context, userID, token string) (*models.Passport, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	passport, err := s.passportRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		passport = nil
	}

	holder, err := s.passportRepo.GetByTokenNumber(ctx, token)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if holder != nil && (passport == nil || holder.ID != passport.ID) {
		return nil, domain.ErrTokenNumberTaken
	}

	if passport == nil {
		// Staff escape hatch: pre-assign before the document exists
		passport = &models.Passport{
			UserID:             userID,
			PassportNumber:     fmt.Sprintf("PENDING-%s", user.ID),
			Country:            "unknown",
			Nationality:        user.Nationality,
			Sex:                user.Sex,
			TokenNumber:        &token,
			VerificationStatus: models.PassportStatusPending,
		}
		if err := s.passportRepo.Create(ctx, passport); err != nil {
			return nil, err
		}
		log.Printf("✅ Token %s pre-assigned on placeholder passport for user %s", token, userID)
		return passport, nil
	}

	passport.TokenNumber = &token
	if err := s.passportRepo.Update(ctx, passport); err != nil {
		return nil, err
	}

	log.Printf("✅ Token %s assigned to passport %s", token, passport.ID)
	return passport, nil
}

// Verify is the public lookup by passport number
func (s *PassportService) Verify(ctx context.Context, number string) (*VerifyResult, error) {
	passport, err := s.passportRepo.GetByNumberWithUser(ctx, strings.TrimSpace(number))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPassportNotFound
		}
		return nil, err
	}
	return buildVerifyResult(passport, false), nil
}

// VerifyLabor is the public lookup by passport number + nationality pair,
// consumed by the downstream labor-verification service
func (s *PassportService) VerifyLabor(ctx context.Context, number, nationality string) (*VerifyResult, error) {
	passport, err := s.passportRepo.GetByNumberAndNationality(ctx, strings.TrimSpace(number), strings.TrimSpace(nationality))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPassportNotFound
		}
		return nil, err
	}
	return buildVerifyResult(passport, true), nil
}

func buildVerifyResult(p *models.Passport, withNationality bool) *VerifyResult {
	result := &VerifyResult{
		PassportNumber: p.PassportNumber,
		TokenNumber:    p.TokenNumber,
	}
	if withNationality {
		result.Nationality = p.Nationality
	}
	if p.User != nil {
		result.OwnerName = p.User.FullName()
		result.OwnerEmail = p.User.Email
	}
	return result
}
