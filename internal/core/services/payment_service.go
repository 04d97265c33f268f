package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"visahub/internal/adapters/persistence/models"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/core/domain"

	"gorm.io/gorm"
)

// PaymentService drives the payment lifecycle:
//
//	pending_amount -> pending_payment -> pending_verification -> approved
//	                        ^                    |
//	                        +------- reject -----+
//
// Every transition with a state precondition is a single conditional UPDATE
// (WHERE id = ? AND status = ?) so two racing transitions resolve to exactly
// one success and one invalid-state failure, never a lost update. Payment
// state is never cached in-process.
type PaymentService struct {
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
}

// NewPaymentService creates a new payment service
func NewPaymentService(paymentRepo repositories.PaymentRepository, userRepo repositories.UserRepository) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
	}
}

// SetAmountInput represents staff amount negotiation input
type SetAmountInput struct {
	Amount            float64 `json:"amount"`
	BankAccountTitle  string  `json:"bank_account_title"`
	BankAccountNumber string  `json:"bank_account_number"`
	PaymentMethod     string  `json:"payment_method"`
}

// SubmitProofInput represents the owner's payment proof
type SubmitProofInput struct {
	TransactionID string `json:"transaction_id"`
	ScreenshotURL string `json:"screenshot_url"`
}

// EnsureForUser returns the user's payment record, creating it in
// pending_amount on the first status query.
func (s *PaymentService) EnsureForUser(ctx context.Context, userID string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByUserID(ctx, userID)
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	payment = &models.Payment{
		UserID:            userID,
		Status:            models.PaymentStatusPendingAmount,
		BankAccountTitle:  models.DefaultBankAccountTitle,
		BankAccountNumber: models.DefaultBankAccountNumber,
		PaymentMethod:     models.DefaultPaymentMethod,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// SetAmount records the negotiated amount and bank display fields and forces
// the record into pending_payment. It is deliberately allowed from any state
// so staff can correct or renegotiate an amount later.
func (s *PaymentService) SetAmount(ctx context.Context, userID string, input *SetAmountInput) (*models.Payment, error) {
	if input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	payment, err := s.EnsureForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"amount": input.Amount,
		"status": models.PaymentStatusPendingPayment,
	}
	if input.BankAccountTitle != "" {
		fields["bank_account_title"] = input.BankAccountTitle
	}
	if input.BankAccountNumber != "" {
		fields["bank_account_number"] = input.BankAccountNumber
	}
	if input.PaymentMethod != "" {
		fields["payment_method"] = input.PaymentMethod
	}

	if err := s.paymentRepo.UpdateFields(ctx, payment.ID, fields); err != nil {
		return nil, err
	}

	log.Printf("✅ Amount %.2f set for payment %s", input.Amount, payment.ID)
	return s.paymentRepo.GetByID(ctx, payment.ID)
}

// SubmitProof attaches the owner's transaction id and screenshot and moves
// the record to pending_verification. Valid only from pending_payment; any
// other state, including a resubmission while already under verification,
// fails with an invalid-state error.
func (s *PaymentService) SubmitProof(ctx context.Context, userID string, input *SubmitProofInput) (*models.Payment, error) {
	txID := strings.TrimSpace(input.TransactionID)
	screenshot := strings.TrimSpace(input.ScreenshotURL)
	if txID == "" || screenshot == "" {
		return nil, domain.ErrMissingProof
	}

	payment, err := s.paymentRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	affected, err := s.paymentRepo.UpdateWhereStatus(ctx, payment.ID, models.PaymentStatusPendingPayment,
		map[string]interface{}{
			"transaction_id": txID,
			"screenshot_url": screenshot,
			"status":         models.PaymentStatusPendingVerification,
		})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrInvalidState
	}

	log.Printf("✅ Payment proof submitted for payment %s", payment.ID)
	return s.paymentRepo.GetByID(ctx, payment.ID)
}

// Approve closes the cycle. Valid only from pending_verification.
func (s *PaymentService) Approve(ctx context.Context, paymentID, reviewerID, notes string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByIDWithUser(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	if notes == "" {
		notes = "Payment verified and approved"
	}

	now := time.Now()
	affected, err := s.paymentRepo.UpdateWhereStatus(ctx, payment.ID, models.PaymentStatusPendingVerification,
		map[string]interface{}{
			"status":      models.PaymentStatusApproved,
			"admin_notes": notes,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
		})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrInvalidState
	}

	log.Printf("✅ Payment %s approved by %s", payment.ID, reviewerID)
	return s.paymentRepo.GetByIDWithUser(ctx, payment.ID)
}

// Reject reopens the cycle. Valid only from pending_verification; the proof
// fields are cleared so a stale screenshot or transaction id can never be
// treated as valid on the next attempt - resubmission must supply fresh proof.
func (s *PaymentService) Reject(ctx context.Context, paymentID, reviewerID, reason string) (*models.Payment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.ErrMissingReason
	}

	payment, err := s.paymentRepo.GetByIDWithUser(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	now := time.Now()
	affected, err := s.paymentRepo.UpdateWhereStatus(ctx, payment.ID, models.PaymentStatusPendingVerification,
		map[string]interface{}{
			"status":         models.PaymentStatusPendingPayment,
			"screenshot_url": nil,
			"transaction_id": nil,
			"admin_notes":    reason,
			"reviewed_by":    reviewerID,
			"reviewed_at":    now,
		})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrInvalidState
	}

	log.Printf("❌ Payment %s rejected by %s", payment.ID, reviewerID)
	return s.paymentRepo.GetByIDWithUser(ctx, payment.ID)
}
