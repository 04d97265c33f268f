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
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeVerificationRepo struct {
	repositories.VerificationRepository
	rows []*models.EmailVerification
}

func (r *fakeVerificationRepo) Create(_ context.Context, v *models.EmailVerification) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = time.Now()
	clone := *v
	r.rows = append(r.rows, &clone)
	return nil
}

func (r *fakeVerificationRepo) GetLatestValid(_ context.Context, email, code string) (*models.EmailVerification, error) {
	var latest *models.EmailVerification
	for _, row := range r.rows {
		if row.Email != email || row.VerificationCode != code || row.IsUsed || row.IsExpired() {
			continue
		}
		if latest == nil || row.CreatedAt.After(latest.CreatedAt) {
			latest = row
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeVerificationRepo) MarkUsed(_ context.Context, id string) error {
	for _, row := range r.rows {
		if row.ID == id {
			row.IsUsed = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeMailer struct {
	sent []string
	fail bool
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, email, code string) error {
	if m.fail {
		return errors.New("brevo unavailable")
	}
	m.sent = append(m.sent, code)
	return nil
}

func (r *fakeUserRepo) MarkVerifiedByEmail(_ context.Context, email string) error {
	for _, u := range r.byID {
		if u.Email == email {
			u.IsVerified = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func newVerificationFixture(t *testing.T, mailer *fakeMailer) (*VerificationService, *fakeVerificationRepo, *fakeUserRepo) {
	t.Helper()
	verificationRepo := &fakeVerificationRepo{}
	userRepo := newFakeUserRepo(&models.User{ID: uuid.NewString(), Email: "worker@example.com"})
	service := NewVerificationService(verificationRepo, userRepo, mailer, zap.NewNop().Sugar())
	return service, verificationRepo, userRepo
}

func TestIssueGeneratesSixDigitCode(t *testing.T) {
	mailer := &fakeMailer{}
	service, repo, _ := newVerificationFixture(t, mailer)

	result, err := service.Issue(context.Background(), "worker@example.com", models.VerificationTypeSignup)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(result.Code) != 6 {
		t.Errorf("expected 6-digit code, got %q", result.Code)
	}
	for _, r := range result.Code {
		if r < '0' || r > '9' {
			t.Errorf("expected numeric code, got %q", result.Code)
		}
	}
	if !result.Dispatched {
		t.Error("expected dispatched=true when the mailer succeeds")
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one stored code, got %d", len(repo.rows))
	}
	if remaining := time.Until(result.ExpiresAt); remaining < 29*time.Minute || remaining > 31*time.Minute {
		t.Errorf("expected ~30 minute TTL, got %s", remaining)
	}
}

func TestIssueDispatchFailureIsNonFatal(t *testing.T) {
	mailer := &fakeMailer{fail: true}
	service, repo, _ := newVerificationFixture(t, mailer)
	ctx := context.Background()

	result, err := service.Issue(ctx, "worker@example.com", models.VerificationTypeSignup)
	if err != nil {
		t.Fatalf("Issue must not fail on dispatch errors: %v", err)
	}
	if result.Dispatched {
		t.Error("expected dispatched=false when the mailer fails")
	}
	if len(repo.rows) != 1 {
		t.Fatal("code must be persisted even when dispatch fails")
	}

	// The stored code is still consumable
	if err := service.Consume(ctx, "worker@example.com", result.Code); err != nil {
		t.Fatalf("stored code must remain valid: %v", err)
	}
}

func TestConsumeMarksUserVerified(t *testing.T) {
	service, repo, userRepo := newVerificationFixture(t, &fakeMailer{})
	ctx := context.Background()

	result, err := service.Issue(ctx, "worker@example.com", models.VerificationTypeSignup)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := service.Consume(ctx, "worker@example.com", result.Code); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !repo.rows[0].IsUsed {
		t.Error("consumed code must be marked used")
	}
	for _, u := range userRepo.byID {
		if !u.IsVerified {
			t.Error("owner must be marked verified on consume")
		}
	}

	// A code is consumable exactly once
	if err := service.Consume(ctx, "worker@example.com", result.Code); !errors.Is(err, domain.ErrCodeInvalidOrExpired) {
		t.Errorf("second consume: expected ErrCodeInvalidOrExpired, got %v", err)
	}
}

func TestConsumeRejectsWrongAndExpiredCodes(t *testing.T) {
	service, repo, _ := newVerificationFixture(t, &fakeMailer{})
	ctx := context.Background()

	result, err := service.Issue(ctx, "worker@example.com", models.VerificationTypeSignup)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := service.Consume(ctx, "worker@example.com", "000000"); !errors.Is(err, domain.ErrCodeInvalidOrExpired) {
		t.Errorf("wrong code: expected ErrCodeInvalidOrExpired, got %v", err)
	}
	if err := service.Consume(ctx, "other@example.com", result.Code); !errors.Is(err, domain.ErrCodeInvalidOrExpired) {
		t.Errorf("wrong email: expected ErrCodeInvalidOrExpired, got %v", err)
	}

	repo.rows[0].ExpiresAt = time.Now().Add(-time.Minute)
	if err := service.Consume(ctx, "worker@example.com", result.Code); !errors.Is(err, domain.ErrCodeInvalidOrExpired) {
		t.Errorf("expired code: expected ErrCodeInvalidOrExpired, got %v", err)
	}
}

func TestLatestValidCodeWins(t *testing.T) {
	service, repo, _ := newVerificationFixture(t, &fakeMailer{})
	ctx := context.Background()

	first, err := service.Issue(ctx, "worker@example.com", models.VerificationTypeSignup)
	if err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}
	// Force distinct creation timestamps in the fake
	repo.rows[0].CreatedAt = time.Now().Add(-time.Minute)

	second, err := service.Issue(ctx, "worker@example.com", models.VerificationTypeSignup)
	if err != nil {
		t.Fatalf("second Issue failed: %v", err)
	}

	// Both outstanding codes stay consumable until used or expired
	if err := service.Consume(ctx, "worker@example.com", second.Code); err != nil {
		t.Errorf("newest code must be consumable: %v", err)
	}
	if first.Code != second.Code {
		if err := service.Consume(ctx, "worker@example.com", first.Code); err != nil {
			t.Errorf("older unexpired code must still be consumable: %v", err)
		}
	}
}
