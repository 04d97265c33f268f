package services

import (
	"context"
	"errors"

	"visahub/internal/adapters/persistence/models"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/core/domain"
	"visahub/internal/pkg/pagination"

	"gorm.io/gorm"
)

// AdminService shapes the review surface: filtered joins over
// users + passports + payments. All mutations delegate to the component
// services; nothing here changes state.
type AdminService struct {
	userRepo    repositories.UserRepository
	paymentRepo repositories.PaymentRepository
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo repositories.UserRepository, paymentRepo repositories.PaymentRepository) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
	}
}

// AdminUserView is the denormalized review row; credential fields are
// projected out by construction.
type AdminUserView struct {
	*models.UserResponse
	Passport *models.Passport `json:"passport"`
	Payment  *models.Payment  `json:"payment"`
}

// Stats is the dashboard summary
type Stats struct {
	TotalUsers int64 `json:"total_users"`
	Payments   struct {
		PendingAmount       int64 `json:"pending_amount"`
		PendingPayment      int64 `json:"pending_payment"`
		PendingVerification int64 `json:"pending_verification"`
		Approved            int64 `json:"approved"`
	} `json:"payments"`
}

// ListUsers returns review rows filtered by free-text search and payment
// status, newest first. Only regular users are listed, never admins.
func (s *AdminService) ListUsers(ctx context.Context, search, paymentStatus string, params *pagination.Params) ([]*AdminUserView, int64, error) {
	filter := repositories.UserListFilter{
		Search:        search,
		PaymentStatus: paymentStatus,
		Role:          models.RoleUser,
	}

	users, total, err := s.userRepo.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*AdminUserView, 0, len(users))
	for _, user := range users {
		views = append(views, buildAdminView(user))
	}
	return views, total, nil
}

// GetUser returns a single review row
func (s *AdminService) GetUser(ctx context.Context, userID string) (*AdminUserView, error) {
	user, err := s.userRepo.GetByIDWithRelations(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return buildAdminView(user), nil
}

// GetStats returns dashboard counters
func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	total, err := s.userRepo.CountByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, err
	}
	stats.TotalUsers = total

	counters := []struct {
		status string
		target *int64
	}{
		{models.PaymentStatusPendingAmount, &stats.Payments.PendingAmount},
		{models.PaymentStatusPendingPayment, &stats.Payments.PendingPayment},
		{models.PaymentStatusPendingVerification, &stats.Payments.PendingVerification},
		{models.PaymentStatusApproved, &stats.Payments.Approved},
	}
	for _, c := range counters {
		count, err := s.paymentRepo.CountByStatus(ctx, c.status)
		if err != nil {
			return nil, err
		}
		*c.target = count
	}

	return stats, nil
}

func buildAdminView(user *models.User) *AdminUserView {
	view := &AdminUserView{
		UserResponse: user.ToResponse(),
		Passport:     user.Passport,
		Payment:      user.Payment,
	}
	// Strip the back-references so the view never nests users
	if view.Passport != nil {
		view.Passport.User = nil
	}
	if view.Payment != nil {
		view.Payment.User = nil
	}
	return view
}
