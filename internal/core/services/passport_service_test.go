package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"visahub/internal/adapters/persistence/models"
	"visahub/internal/adapters/persistence/repositories"
	"visahub/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakePassportRepo struct {
	repositories.PassportRepository
	byID map[string]*models.Passport
}

func newFakePassportRepo() *fakePassportRepo {
	return &fakePassportRepo{byID: make(map[string]*models.Passport)}
}

func (r *fakePassportRepo) Create(_ context.Context, p *models.Passport) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *fakePassportRepo) Update(_ context.Context, p *models.Passport) error {
	if _, ok := r.byID[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *fakePassportRepo) GetByUserID(_ context.Context, userID string) (*models.Passport, error) {
	for _, p := range r.byID {
		if p.UserID == userID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePassportRepo) GetByNumber(_ context.Context, number string) (*models.Passport, error) {
	for _, p := range r.byID {
		if p.PassportNumber == number {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePassportRepo) GetByNumberWithUser(ctx context.Context, number string) (*models.Passport, error) {
	return r.GetByNumber(ctx, number)
}

func (r *fakePassportRepo) GetByNumberAndNationality(_ context.Context, number, nationality string) (*models.Passport, error) {
	for _, p := range r.byID {
		if p.PassportNumber == number && p.Nationality == nationality {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePassportRepo) GetByTokenNumber(_ context.Context, token string) (*models.Passport, error) {
	for _, p := range r.byID {
		if p.TokenNumber != nil && *p.TokenNumber == token {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func newPassportFixture(t *testing.T) (*PassportService, *fakePassportRepo, *models.User) {
	t.Helper()
	user := &models.User{
		ID:          uuid.NewString(),
		Email:       "worker@example.com",
		Nationality: "myanmar",
		Sex:         "male",
	}
	repo := newFakePassportRepo()
	return NewPassportService(repo, newFakeUserRepo(user)), repo, user
}

func samplePassportInput(number string) *PassportInput {
	return &PassportInput{
		PassportNumber: number,
		Country:        "thailand",
		Nationality:    "myanmar",
		Sex:            "male",
	}
}

func TestUpsertCreatesAndResubmits(t *testing.T) {
	service, _, user := newPassportFixture(t)
	ctx := context.Background()

	created, err := service.Upsert(ctx, user.ID, samplePassportInput("MA123456"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if created.VerificationStatus != models.PassportStatusPending {
		t.Errorf("expected pending status, got %s", created.VerificationStatus)
	}

	// Resubmission overwrites the same row and resets the status
	updated, err := service.Upsert(ctx, user.ID, samplePassportInput("MA999999"))
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("resubmission must reuse the row, got %s and %s", created.ID, updated.ID)
	}
	if updated.PassportNumber != "MA999999" {
		t.Errorf("expected new number, got %s", updated.PassportNumber)
	}
}

func TestUpsertRejectsForeignNumber(t *testing.T) {
	service, repo, user := newPassportFixture(t)
	ctx := context.Background()

	other := &models.Passport{UserID: uuid.NewString(), PassportNumber: "MA123456"}
	repo.Create(ctx, other)

	if _, err := service.Upsert(ctx, user.ID, samplePassportInput("MA123456")); !errors.Is(err, domain.ErrDuplicatePassport) {
		t.Fatalf("expected ErrDuplicatePassport, got %v", err)
	}
}

func TestAssignTokenConflict(t *testing.T) {
	service, repo, user := newPassportFixture(t)
	ctx := context.Background()

	token := "TOKEN-42"
	holder := &models.Passport{
		UserID:         uuid.NewString(),
		PassportNumber: "MA777777",
		TokenNumber:    &token,
	}
	repo.Create(ctx, holder)

	own, err := service.Upsert(ctx, user.ID, samplePassportInput("MA123456"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if _, err := service.AssignToken(ctx, user.ID, "TOKEN-42"); !errors.Is(err, domain.ErrTokenNumberTaken) {
		t.Fatalf("expected ErrTokenNumberTaken, got %v", err)
	}
	if repo.byID[own.ID].TokenNumber != nil {
		t.Error("failed assignment must not mutate the document")
	}
}

func TestAssignTokenSameDocumentIsIdempotent(t *testing.T) {
	service, _, user := newPassportFixture(t)
	ctx := context.Background()

	if _, err := service.Upsert(ctx, user.ID, samplePassportInput("MA123456")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	first, err := service.AssignToken(ctx, user.ID, "TOKEN-1")
	if err != nil {
		t.Fatalf("first AssignToken failed: %v", err)
	}

	// Re-assigning the document's own token is not a conflict
	second, err := service.AssignToken(ctx, user.ID, "TOKEN-1")
	if err != nil {
		t.Fatalf("re-assignment failed: %v", err)
	}
	if second.ID != first.ID || second.TokenNumber == nil || *second.TokenNumber != "TOKEN-1" {
		t.Errorf("expected same document with TOKEN-1, got %+v", second)
	}
}

func TestAssignTokenCreatesPlaceholder(t *testing.T) {
	service, _, user := newPassportFixture(t)
	ctx := context.Background()

	passport, err := service.AssignToken(ctx, user.ID, "TOKEN-9")
	if err != nil {
		t.Fatalf("AssignToken failed: %v", err)
	}
	if !strings.HasPrefix(passport.PassportNumber, "PENDING-") {
		t.Errorf("expected placeholder passport number, got %s", passport.PassportNumber)
	}
	if passport.Nationality != user.Nationality || passport.Sex != user.Sex {
		t.Error("placeholder must inherit nationality and sex from the user")
	}
	if passport.TokenNumber == nil || *passport.TokenNumber != "TOKEN-9" {
		t.Errorf("expected TOKEN-9 assigned, got %v", passport.TokenNumber)
	}
}

func TestAssignTokenValidation(t *testing.T) {
	service, _, user := newPassportFixture(t)
	ctx := context.Background()

	if _, err := service.AssignToken(ctx, user.ID, "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("blank token: expected ErrInvalidInput, got %v", err)
	}
	if _, err := service.AssignToken(ctx, "missing-user", "TOKEN-1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("unknown user: expected ErrUserNotFound, got %v", err)
	}
}

func TestVerifyLookups(t *testing.T) {
	service, _, user := newPassportFixture(t)
	ctx := context.Background()

	if _, err := service.Upsert(ctx, user.ID, samplePassportInput("MA123456")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if _, err := service.AssignToken(ctx, user.ID, "TOKEN-5"); err != nil {
		t.Fatalf("AssignToken failed: %v", err)
	}

	result, err := service.Verify(ctx, " MA123456 ")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.TokenNumber == nil || *result.TokenNumber != "TOKEN-5" {
		t.Errorf("expected TOKEN-5 in lookup, got %v", result.TokenNumber)
	}
	if result.Nationality != "" {
		t.Error("plain lookup must not expose nationality")
	}

	labor, err := service.VerifyLabor(ctx, "MA123456", "myanmar")
	if err != nil {
		t.Fatalf("VerifyLabor failed: %v", err)
	}
	if labor.Nationality != "myanmar" {
		t.Errorf("labor lookup must echo nationality, got %s", labor.Nationality)
	}

	if _, err := service.Verify(ctx, "UNKNOWN"); !errors.Is(err, domain.ErrPassportNotFound) {
		t.Errorf("unknown number: expected ErrPassportNotFound, got %v", err)
	}
	if _, err := service.VerifyLabor(ctx, "MA123456", "thailand"); !errors.Is(err, domain.ErrPassportNotFound) {
		t.Errorf("wrong nationality: expected ErrPassportNotFound, got %v", err)
	}
}
