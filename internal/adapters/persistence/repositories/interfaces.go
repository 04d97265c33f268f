package repositories

import (
	"context"

	"visahub/internal/adapters/persistence/models"
)

// UserListFilter narrows admin user listings
type UserListFilter struct {
	Search        string // matches name, email or phone
	PaymentStatus string
	Role          string
}

// UserRepository defines user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDWithRelations(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailOrPhone(ctx context.Context, identifier string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserListFilter, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	ExistsByNationalID(ctx context.Context, nationalID string, excludeID string) (bool, error)
	MarkVerifiedByEmail(ctx context.Context, email string) error
	CountByRole(ctx context.Context, role string) (int64, error)
}

// PassportRepository defines passport data access
type PassportRepository interface {
	Create(ctx context.Context, passport *models.Passport) error
	Update(ctx context.Context, passport *models.Passport) error
	GetByUserID(ctx context.Context, userID string) (*models.Passport, error)
	GetByNumber(ctx context.Context, number string) (*models.Passport, error)
	GetByNumberWithUser(ctx context.Context, number string) (*models.Passport, error)
	GetByNumberAndNationality(ctx context.Context, number, nationality string) (*models.Passport, error)
	GetByTokenNumber(ctx context.Context, token string) (*models.Passport, error)
}

// PaymentRepository defines payment data access. State transitions go through
// UpdateWhereStatus so the status precondition and the write are one
// conditional UPDATE, never a separate read-then-write.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByIDWithUser(ctx context.Context, id string) (*models.Payment, error)
	GetByUserID(ctx context.Context, userID string) (*models.Payment, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateWhereStatus(ctx context.Context, id, fromStatus string, fields map[string]interface{}) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// VerificationRepository defines email verification code data access
type VerificationRepository interface {
	Create(ctx context.Context, v *models.EmailVerification) error
	GetLatestValid(ctx context.Context, email, code string) (*models.EmailVerification, error)
	MarkUsed(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionRepository defines session data access
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
