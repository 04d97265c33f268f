package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"visahub/internal/adapters/persistence/models"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/core/domain"
	"visahub/internal/pkg/password"

	"gorm.io/gorm"
)

// UserService handles onboarding-step and profile mutations
type UserService struct {
	userRepo            repositories.UserRepository
	verificationService *VerificationService
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, verificationService *VerificationService) *UserService {
	return &UserService{
		userRepo:            userRepo,
		verificationService: verificationService,
	}
}

// PersonalInfoInput represents the personal-details onboarding step
type PersonalInfoInput struct {
	NationalID    string `json:"national_id"`
	Education     string `json:"education"`
	Experience    string `json:"experience"`
	Certification string `json:"certification"`
	Password      string `json:"password"`
	PersonalPhoto string `json:"personal_photo"`
}

// ContactInfoInput represents the contact onboarding step
type ContactInfoInput struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
}

// ContactInfoResult reports the outcome of the contact step
type ContactInfoResult struct {
	User    *models.UserResponse
	OTPSent bool
	// DevCode surfaces the code only when the caller runs in dev mode
	DevCode string
}

// UpdatePersonalInfo stores the personal step for the authenticated user.
// The credential is re-hashed only when supplied as plaintext; a value that
// already carries the bcrypt marker is persisted as-is, never hashed twice.
func (s *UserService) UpdatePersonalInfo(ctx context.Context, userID string, input *PersonalInfoInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	nationalID := strings.TrimSpace(input.NationalID)
	if nationalID != "" {
		taken, err := s.userRepo.ExistsByNationalID(ctx, nationalID, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrDuplicateNationalID
		}
	}

	fields := map[string]interface{}{
		"national_id":        nationalID,
		"education_level":    input.Education,
		"experience_level":   input.Experience,
		"certification":      input.Certification,
		"personal_photo_url": input.PersonalPhoto,
	}

	if input.Password != "" {
		hashed, err := password.HashIfPlain(input.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hashed
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, fields); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Personal info updated: %s", updated.Email)
	return updated.ToResponse(), nil
}

// UpdateContactInfo stores the contact step. Changing the email resets the
// verification flag and issues a fresh code to the new address.
func (s *UserService) UpdateContactInfo(ctx context.Context, userID string, input *ContactInfoInput) (*ContactInfoResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := input.CountryCode + nonDigits.ReplaceAllString(input.Phone, "")

	fields := map[string]interface{}{
		"phone": phone,
	}

	emailChanged := email != "" && email != user.Email
	if emailChanged {
		taken, err := s.userRepo.ExistsByEmail(ctx, email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrDuplicateEmail
		}
		fields["email"] = email
		fields["is_verified"] = false
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, fields); err != nil {
		return nil, err
	}

	result := &ContactInfoResult{}

	// A fresh address always gets a code; an unchanged unverified address
	// gets one too so the contact step can be retried safely.
	if emailChanged || !user.IsVerified {
		target := user.Email
		purpose := models.VerificationTypeSignup
		if emailChanged {
			target = email
			if user.IsVerified {
				purpose = models.VerificationTypeEmailChange
			}
		}
		issue, err := s.verificationService.Issue(ctx, target, purpose)
		if err != nil {
			return nil, err
		}
		result.OTPSent = issue.Dispatched
		result.DevCode = issue.Code
	}

	updated, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	result.User = updated.ToResponse()

	log.Printf("✅ Contact info updated: %s", updated.Email)
	return result, nil
}

// GetProfile returns the authenticated user with passport and payment
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByIDWithRelations(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdatePhoto records an uploaded personal photo path
func (s *UserService) UpdatePhoto(ctx context.Context, userID, photoURL string) error {
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"personal_photo_url": photoURL,
	})
}

// AdminUpdateInput represents an administrative partial user update
type AdminUpdateInput struct {
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Phone              *string `json:"phone"`
	Nationality        *string `json:"nationality"`
	CountryOfResidence *string `json:"country_of_residence"`
	EducationLevel     *string `json:"education_level"`
	ExperienceLevel    *string `json:"experience_level"`
	Certification      *string `json:"certification"`
	Password           *string `json:"password"`
	IsActive           *bool   `json:"is_active"`
}

// AdminUpdateUser applies a partial update on behalf of staff
func (s *UserService) AdminUpdateUser(ctx context.Context, userID string, input *AdminUpdateInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{}
	setIfPresent(fields, "first_name", input.FirstName)
	setIfPresent(fields, "last_name", input.LastName)
	setIfPresent(fields, "phone", input.Phone)
	setIfPresent(fields, "nationality", input.Nationality)
	setIfPresent(fields, "country_of_residence", input.CountryOfResidence)
	setIfPresent(fields, "education_level", input.EducationLevel)
	setIfPresent(fields, "experience_level", input.ExperienceLevel)
	setIfPresent(fields, "certification", input.Certification)
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := password.HashIfPlain(*input.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hashed
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, user.ID, fields); err != nil {
			return nil, err
		}
	}

	updated, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return updated.ToResponse(), nil
}

// AdminDeleteUser soft deletes a user
func (s *UserService) AdminDeleteUser(ctx context.Context, userID string) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}

func setIfPresent(fields map[string]interface{}, key string, value *string) {
	if value != nil {
		fields[key] = *value
	}
}
