package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"visahub/internal/adapters/persistence/models"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakePaymentRepo struct {
	repositories.PaymentRepository
	byID map[string]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byID: make(map[string]*models.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id string) (*models.Payment, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePaymentRepo) GetByIDWithUser(ctx context.Context, id string) (*models.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *fakePaymentRepo) GetByUserID(_ context.Context, userID string) (*models.Payment, error) {
	for _, p := range r.byID {
		if p.UserID == userID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	p, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyPaymentFields(p, fields)
	return nil
}

func (r *fakePaymentRepo) UpdateWhereStatus(_ context.Context, id, fromStatus string, fields map[string]interface{}) (int64, error) {
	p, ok := r.byID[id]
	if !ok || p.Status != fromStatus {
		return 0, nil
	}
	applyPaymentFields(p, fields)
	return 1, nil
}

func applyPaymentFields(p *models.Payment, fields map[string]interface{}) {
	for key, value := range fields {
		switch key {
		case "status":
			p.Status = value.(string)
		case "amount":
			amount := value.(float64)
			p.Amount = &amount
		case "bank_account_title":
			p.BankAccountTitle = value.(string)
		case "bank_account_number":
			p.BankAccountNumber = value.(string)
		case "payment_method":
			p.PaymentMethod = value.(string)
		case "transaction_id":
			p.TransactionID = optionalString(value)
		case "screenshot_url":
			p.ScreenshotURL = optionalString(value)
		case "admin_notes":
			p.AdminNotes = optionalString(value)
		case "reviewed_by":
			p.ReviewedBy = optionalString(value)
		case "reviewed_at":
			at := value.(time.Time)
			p.ReviewedAt = &at
		}
	}
}

func optionalString(value interface{}) *string {
	if value == nil {
		return nil
	}
	s := value.(string)
	return &s
}

type fakeUserRepo struct {
	repositories.UserRepository
	byID map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{byID: make(map[string]*models.User)}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func newPaymentFixture(t *testing.T) (*PaymentService, *fakePaymentRepo, string) {
	t.Helper()
	user := &models.User{ID: uuid.NewString(), Email: "worker@example.com", Role: models.RoleUser}
	paymentRepo := newFakePaymentRepo()
	service := NewPaymentService(paymentRepo, newFakeUserRepo(user))
	return service, paymentRepo, user.ID
}

func TestEnsureForUserCreatesWithDefaults(t *testing.T) {
	service, _, userID := newPaymentFixture(t)

	payment, err := service.EnsureForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("EnsureForUser failed: %v", err)
	}
	if payment.Status != models.PaymentStatusPendingAmount {
		t.Errorf("expected status pending_amount, got %s", payment.Status)
	}
	if payment.BankAccountTitle != models.DefaultBankAccountTitle {
		t.Errorf("expected default bank account title, got %s", payment.BankAccountTitle)
	}

	// Second call must return the same record, not create another
	again, err := service.EnsureForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("second EnsureForUser failed: %v", err)
	}
	if again.ID != payment.ID {
		t.Errorf("expected same payment record, got %s and %s", payment.ID, again.ID)
	}
}

func TestFullPaymentLifecycle(t *testing.T) {
	service, _, userID := newPaymentFixture(t)
	ctx := context.Background()

	// Staff sets the amount: pending_amount -> pending_payment
	payment, err := service.SetAmount(ctx, userID, &SetAmountInput{Amount: 1500})
	if err != nil {
		t.Fatalf("SetAmount failed: %v", err)
	}
	if payment.Status != models.PaymentStatusPendingPayment {
		t.Fatalf("expected pending_payment, got %s", payment.Status)
	}
	if payment.Amount == nil || *payment.Amount != 1500 {
		t.Fatalf("expected amount 1500, got %v", payment.Amount)
	}

	// Owner submits proof: pending_payment -> pending_verification
	payment, err = service.SubmitProof(ctx, userID, &SubmitProofInput{
		TransactionID: "TX-001",
		ScreenshotURL: "/uploads/payment-screenshots/proof.png",
	})
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if payment.Status != models.PaymentStatusPendingVerification {
		t.Fatalf("expected pending_verification, got %s", payment.Status)
	}

	// Staff rejects: back to pending_payment with the proof cleared
	payment, err = service.Reject(ctx, payment.ID, "admin-1", "Screenshot unreadable")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if payment.Status != models.PaymentStatusPendingPayment {
		t.Fatalf("expected pending_payment after reject, got %s", payment.Status)
	}
	if payment.ScreenshotURL != nil || payment.TransactionID != nil {
		t.Error("reject must clear the stale proof fields")
	}
	if payment.AdminNotes == nil || *payment.AdminNotes != "Screenshot unreadable" {
		t.Errorf("expected rejection reason recorded, got %v", payment.AdminNotes)
	}

	// Owner resubmits fresh proof and staff approves
	payment, err = service.SubmitProof(ctx, userID, &SubmitProofInput{
		TransactionID: "TX-002",
		ScreenshotURL: "/uploads/payment-screenshots/proof2.png",
	})
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}

	payment, err = service.Approve(ctx, payment.ID, "admin-1", "")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if payment.Status != models.PaymentStatusApproved {
		t.Fatalf("expected approved, got %s", payment.Status)
	}
	if payment.ReviewedBy == nil || *payment.ReviewedBy != "admin-1" {
		t.Error("expected reviewer recorded on approval")
	}
	if payment.AdminNotes == nil || *payment.AdminNotes == "" {
		t.Error("expected default approval notes")
	}
}

func TestSubmitProofOnlyFromPendingPayment(t *testing.T) {
	service, repo, userID := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := service.EnsureForUser(ctx, userID)
	if err != nil {
		t.Fatalf("EnsureForUser failed: %v", err)
	}

	proof := &SubmitProofInput{TransactionID: "TX-1", ScreenshotURL: "/uploads/x.png"}

	for _, status := range []string{
		models.PaymentStatusPendingAmount,
		models.PaymentStatusPendingVerification,
		models.PaymentStatusApproved,
	} {
		repo.byID[payment.ID].Status = status
		if _, err := service.SubmitProof(ctx, userID, proof); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("status %s: expected ErrInvalidState, got %v", status, err)
		}
		if repo.byID[payment.ID].Status != status {
			t.Errorf("status %s: failed transition must not mutate the record", status)
		}
	}
}

func TestSubmitProofRequiresBothFields(t *testing.T) {
	service, _, userID := newPaymentFixture(t)
	ctx := context.Background()

	cases := []*SubmitProofInput{
		{TransactionID: "", ScreenshotURL: "/uploads/x.png"},
		{TransactionID: "TX-1", ScreenshotURL: ""},
		{TransactionID: "   ", ScreenshotURL: "   "},
	}
	for _, input := range cases {
		if _, err := service.SubmitProof(ctx, userID, input); !errors.Is(err, domain.ErrMissingProof) {
			t.Errorf("input %+v: expected ErrMissingProof, got %v", input, err)
		}
	}
}

func TestReviewOnlyFromPendingVerification(t *testing.T) {
	service, repo, userID := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := service.EnsureForUser(ctx, userID)
	if err != nil {
		t.Fatalf("EnsureForUser failed: %v", err)
	}

	for _, status := range []string{
		models.PaymentStatusPendingAmount,
		models.PaymentStatusPendingPayment,
		models.PaymentStatusApproved,
	} {
		repo.byID[payment.ID].Status = status
		if _, err := service.Approve(ctx, payment.ID, "admin-1", "ok"); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("approve from %s: expected ErrInvalidState, got %v", status, err)
		}
		if _, err := service.Reject(ctx, payment.ID, "admin-1", "bad proof"); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("reject from %s: expected ErrInvalidState, got %v", status, err)
		}
	}
}

func TestRejectRequiresReason(t *testing.T) {
	service, repo, userID := newPaymentFixture(t)
	ctx := context.Background()

	payment, _ := service.EnsureForUser(ctx, userID)
	repo.byID[payment.ID].Status = models.PaymentStatusPendingVerification

	if _, err := service.Reject(ctx, payment.ID, "admin-1", "  "); !errors.Is(err, domain.ErrMissingReason) {
		t.Fatalf("expected ErrMissingReason, got %v", err)
	}
	if repo.byID[payment.ID].Status != models.PaymentStatusPendingVerification {
		t.Error("reason validation failure must not change the payment state")
	}
}

func TestRejectNeverReturnsToPendingAmount(t *testing.T) {
	service, repo, userID := newPaymentFixture(t)
	ctx := context.Background()

	payment, _ := service.EnsureForUser(ctx, userID)
	repo.byID[payment.ID].Status = models.PaymentStatusPendingVerification

	rejected, err := service.Reject(ctx, payment.ID, "admin-1", "wrong amount transferred")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != models.PaymentStatusPendingPayment {
		t.Fatalf("reject must land in pending_payment, got %s", rejected.Status)
	}
}

func TestSetAmountAllowedFromAnyState(t *testing.T) {
	service, repo, userID := newPaymentFixture(t)
	ctx := context.Background()

	payment, _ := service.EnsureForUser(ctx, userID)

	for _, status := range []string{
		models.PaymentStatusPendingAmount,
		models.PaymentStatusPendingPayment,
		models.PaymentStatusPendingVerification,
		models.PaymentStatusApproved,
	} {
		repo.byID[payment.ID].Status = status
		updated, err := service.SetAmount(ctx, userID, &SetAmountInput{Amount: 2000})
		if err != nil {
			t.Fatalf("SetAmount from %s failed: %v", status, err)
		}
		if updated.Status != models.PaymentStatusPendingPayment {
			t.Errorf("SetAmount from %s: expected pending_payment, got %s", status, updated.Status)
		}
	}
}

func TestSetAmountValidation(t *testing.T) {
	service, _, userID := newPaymentFixture(t)
	ctx := context.Background()

	if _, err := service.SetAmount(ctx, userID, &SetAmountInput{Amount: 0}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("amount 0: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := service.SetAmount(ctx, userID, &SetAmountInput{Amount: -50}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("negative amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := service.SetAmount(ctx, "missing-user", &SetAmountInput{Amount: 100}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("unknown user: expected ErrUserNotFound, got %v", err)
	}
}

func TestSetAmountKeepsBankFieldsWhenOmitted(t *testing.T) {
	service, _, userID := newPaymentFixture(t)
	ctx := context.Background()

	first, err := service.SetAmount(ctx, userID, &SetAmountInput{
		Amount:            1000,
		BankAccountTitle:  "Custom Account",
		BankAccountNumber: "999",
		PaymentMethod:     "bank_transfer",
	})
	if err != nil {
		t.Fatalf("SetAmount failed: %v", err)
	}
	if first.BankAccountTitle != "Custom Account" {
		t.Fatalf("expected custom bank title, got %s", first.BankAccountTitle)
	}

	// Renegotiation with empty bank fields keeps the existing ones
	second, err := service.SetAmount(ctx, userID, &SetAmountInput{Amount: 1200})
	if err != nil {
		t.Fatalf("second SetAmount failed: %v", err)
	}
	if second.BankAccountTitle != "Custom Account" || second.BankAccountNumber != "999" {
		t.Error("empty bank fields must not overwrite the stored ones")
	}
	if second.Amount == nil || *second.Amount != 1200 {
		t.Errorf("expected renegotiated amount 1200, got %v", second.Amount)
	}
}

func TestSubmitProofWithoutPaymentRecord(t *testing.T) {
	service, _, userID := newPaymentFixture(t)

	proof := &SubmitProofInput{TransactionID: "TX-1", ScreenshotURL: "/uploads/x.png"}
	if _, err := service.SubmitProof(context.Background(), userID, proof); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestReviewUnknownPayment(t *testing.T) {
	service, _, _ := newPaymentFixture(t)
	ctx := context.Background()

	if _, err := service.Approve(ctx, "missing", "admin-1", ""); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("approve: expected ErrPaymentNotFound, got %v", err)
	}
	if _, err := service.Reject(ctx, "missing", "admin-1", "reason"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("reject: expected ErrPaymentNotFound, got %v", err)
	}
}
