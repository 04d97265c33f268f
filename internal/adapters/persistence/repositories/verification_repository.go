package repositories

import (
	"context"
	"time"

	"visahub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// verificationRepository implements VerificationRepository interface
type verificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository creates a new verification repository
func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// Create stores a new verification code
func (r *verificationRepository) Create(ctx context.Context, v *models.EmailVerification) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// GetLatestValid returns the most recently issued unused, unexpired row
// matching email + code exactly. Uniqueness is not enforced at the storage
// layer; recency ordering decides which outstanding code is authoritative.
func (r *verificationRepository) GetLatestValid(ctx context.Context, email, code string) (*models.EmailVerification, error) {
	var v models.EmailVerification
	err := r.db.WithContext(ctx).
		Where("email = ? AND verification_code = ? AND is_used = ? AND expires_at > ?",
			email, code, false, time.Now()).
		Order("created_at DESC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MarkUsed consumes a verification code
func (r *verificationRepository) MarkUsed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.EmailVerification{}).
		Where("id = ?", id).
		Update("is_used", true).Error
}

// DeleteExpired purges codes past their expiry timestamp
func (r *verificationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.EmailVerification{})
	return result.RowsAffected, result.Error
}
