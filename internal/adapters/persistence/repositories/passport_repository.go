package repositories

import (
	"context"

	"visahub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// passportRepository implements PassportRepository interface
type passportRepository struct {
	db *gorm.DB
}

// NewPassportRepository creates a new passport repository
func NewPassportRepository(db *gorm.DB) PassportRepository {
	return &passportRepository{db: db}
}

// Create creates a new passport
func (r *passportRepository) Create(ctx context.Context, passport *models.Passport) error {
	return r.db.WithContext(ctx).Create(passport).Error
}

// Update saves a full passport record
func (r *passportRepository) Update(ctx context.Context, passport *models.Passport) error {
	return r.db.WithContext(ctx).Save(passport).Error
}

// GetByUserID gets the passport owned by a user (1:1)
func (r *passportRepository) GetByUserID(ctx context.Context, userID string) (*models.Passport, error) {
	var passport models.Passport
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&passport).Error
	if err != nil {
		return nil, err
	}
	return &passport, nil
}

// GetByNumber gets a passport by document number
func (r *passportRepository) GetByNumber(ctx context.Context, number string) (*models.Passport, error) {
	var passport models.Passport
	err := r.db.WithContext(ctx).Where("passport_number = ?", number).First(&passport).Error
	if err != nil {
		return nil, err
	}
	return &passport, nil
}

// GetByNumberWithUser gets a passport with its owner preloaded
func (r *passportRepository) GetByNumberWithUser(ctx context.Context, number string) (*models.Passport, error) {
	var passport models.Passport
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("passport_number = ?", number).
		First(&passport).Error
	if err != nil {
		return nil, err
	}
	return &passport, nil
}

// GetByNumberAndNationality gets a passport by number + nationality pair
func (r *passportRepository) GetByNumberAndNationality(ctx context.Context, number, nationality string) (*models.Passport, error) {
	var passport models.Passport
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("passport_number = ? AND nationality = ?", number, nationality).
		First(&passport).Error
	if err != nil {
		return nil, err
	}
	return &passport, nil
}

// GetByTokenNumber gets the passport holding a token number
func (r *passportRepository) GetByTokenNumber(ctx context.Context, token string) (*models.Passport, error) {
	var passport models.Passport
	err := r.db.WithContext(ctx).Where("token_number = ?", token).First(&passport).Error
	if err != nil {
		return nil, err
	}
	return &passport, nil
}
