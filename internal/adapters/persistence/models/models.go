package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Users
// ============================================================

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents users table
type User struct {
	ID                 string         `gorm:"type:char(36);primaryKey" json:"id"`
	Email              string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone              string         `gorm:"size:30;index" json:"phone"`
	PasswordHash       string         `gorm:"size:255;not null" json:"-"`
	FirstName          string         `gorm:"size:100;not null" json:"first_name"`
	LastName           string         `gorm:"size:100;not null" json:"last_name"`
	Nationality        string         `gorm:"size:100" json:"nationality"`
	CountryOfResidence string         `gorm:"size:100" json:"country_of_residence"`
	DateOfBirth        *time.Time     `gorm:"type:date" json:"date_of_birth"`
	Sex                string         `gorm:"size:10" json:"sex"`
	EducationLevel     string         `gorm:"size:50" json:"education_level"`
	ExperienceLevel    string         `gorm:"size:50" json:"experience_level"`
	Certification      string         `gorm:"size:100" json:"certification"`
	NationalID         *string        `gorm:"uniqueIndex;size:100" json:"national_id"`
	PersonalPhotoURL   string         `gorm:"type:text" json:"personal_photo_url"`
	Role               string         `gorm:"size:20;default:'user'" json:"role"`
	IsVerified         bool           `gorm:"default:false" json:"is_verified"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations (1:1)
	Passport *Passport `gorm:"foreignKey:UserID" json:"passport,omitempty"`
	Payment  *Payment  `gorm:"foreignKey:UserID" json:"payment,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID primary key
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// FullName returns the display name
func (u *User) FullName() string {
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

// UserResponse DTO - never carries the password hash
type UserResponse struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	FullName           string     `json:"full_name"`
	Nationality        string     `json:"nationality,omitempty"`
	CountryOfResidence string     `json:"country_of_residence,omitempty"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Sex                string     `json:"sex,omitempty"`
	EducationLevel     string     `json:"education_level,omitempty"`
	ExperienceLevel    string     `json:"experience_level,omitempty"`
	Certification      string     `json:"certification,omitempty"`
	NationalID         *string    `json:"national_id,omitempty"`
	PersonalPhotoURL   string     `json:"personal_photo_url,omitempty"`
	Role               string     `json:"role"`
	IsVerified         bool       `json:"is_verified"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Phone:              u.Phone,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		FullName:           u.FullName(),
		Nationality:        u.Nationality,
		CountryOfResidence: u.CountryOfResidence,
		DateOfBirth:        u.DateOfBirth,
		Sex:                u.Sex,
		EducationLevel:     u.EducationLevel,
		ExperienceLevel:    u.ExperienceLevel,
		Certification:      u.Certification,
		NationalID:         u.NationalID,
		PersonalPhotoURL:   u.PersonalPhotoURL,
		Role:               u.Role,
		IsVerified:         u.IsVerified,
		IsActive:           u.IsActive,
		CreatedAt:          u.CreatedAt,
	}
}

// ============================================================
// Passports
// ============================================================

// Passport verification statuses
const (
	PassportStatusPending  = "pending"
	PassportStatusVerified = "verified"
	PassportStatusRejected = "rejected"
)

// Passport represents passports table (1:1 with User)
type Passport struct {
	ID                 string         `gorm:"type:char(36);primaryKey" json:"id"`
	UserID             string         `gorm:"type:char(36);uniqueIndex;not null" json:"user_id"`
	PassportNumber     string         `gorm:"uniqueIndex;size:100;not null" json:"passport_number"`
	Country            string         `gorm:"size:100;not null" json:"country"`
	Nationality        string         `gorm:"size:100;not null" json:"nationality"`
	Sex                string         `gorm:"size:10;not null" json:"sex"`
	DateOfBirth        *time.Time     `gorm:"type:date" json:"date_of_birth"`
	ExpiryDate         *time.Time     `gorm:"type:date" json:"expiry_date"`
	PassportImageURL   string         `gorm:"type:text" json:"passport_image_url"`
	TokenNumber        *string        `gorm:"uniqueIndex;size:100" json:"token_number"`
	VerificationStatus string         `gorm:"size:20;default:'pending'" json:"verification_status"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Passport) TableName() string {
	return "passports"
}

func (p *Passport) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ============================================================
// Payments
// ============================================================

// Payment statuses - the lifecycle is
// pending_amount -> pending_payment -> pending_verification -> approved,
// with reject sending pending_verification back to pending_payment.
const (
	PaymentStatusPendingAmount       = "pending_amount"
	PaymentStatusPendingPayment      = "pending_payment"
	PaymentStatusPendingVerification = "pending_verification"
	PaymentStatusApproved            = "approved"
)

// Default bank display fields shown to the user before staff configures them
const (
	DefaultBankAccountTitle  = "EasyPaisa Account"
	DefaultBankAccountNumber = "03095484001"
	DefaultPaymentMethod     = "easypaisa"
)

// Payment represents payments table (1:1 with User)
type Payment struct {
	ID                string     `gorm:"type:char(36);primaryKey" json:"id"`
	UserID            string     `gorm:"type:char(36);uniqueIndex;not null" json:"user_id"`
	Amount            *float64   `gorm:"type:decimal(10,2)" json:"amount"`
	Status            string     `gorm:"size:30;default:'pending_amount';index" json:"status"`
	BankAccountTitle  string     `gorm:"size:255;default:'EasyPaisa Account'" json:"bank_account_title"`
	BankAccountNumber string     `gorm:"size:50;default:'03095484001'" json:"bank_account_number"`
	PaymentMethod     string     `gorm:"size:50;default:'easypaisa'" json:"payment_method"`
	ScreenshotURL     *string    `gorm:"type:text" json:"screenshot_url"`
	TransactionID     *string    `gorm:"size:100" json:"transaction_id"`
	AdminNotes        *string    `gorm:"type:text" json:"admin_notes"`
	ReviewedBy        *string    `gorm:"type:char(36)" json:"reviewed_by"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ============================================================
// Email verifications
// ============================================================

// Verification purposes
const (
	VerificationTypeSignup        = "signup"
	VerificationTypePasswordReset = "password_reset"
	VerificationTypeEmailChange   = "email_change"
)

// EmailVerification represents email_verifications table.
// Multiple outstanding codes may exist per email; the most recently
// issued valid row wins.
type EmailVerification struct {
	ID               string    `gorm:"type:char(36);primaryKey" json:"id"`
	Email            string    `gorm:"size:255;not null;index:idx_email_code" json:"email"`
	VerificationCode string    `gorm:"size:10;not null;index:idx_email_code" json:"-"`
	VerificationType string    `gorm:"size:20;default:'signup'" json:"verification_type"`
	IsUsed           bool      `gorm:"default:false" json:"is_used"`
	ExpiresAt        time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (EmailVerification) TableName() string {
	return "email_verifications"
}

func (v *EmailVerification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// IsExpired reports whether the code is past its expiry timestamp
func (v *EmailVerification) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// ============================================================
// Sessions
// ============================================================

// Session represents sessions table - one row per issued bearer token
type Session struct {
	ID        string     `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string     `gorm:"type:char(36);index;not null" json:"user_id"`
	TokenHash string     `gorm:"uniqueIndex;size:255;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	UserAgent string     `gorm:"type:text" json:"user_agent"`
	IPAddress string     `gorm:"size:45" json:"ip_address"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ============================================================
// Migration
// ============================================================

// AutoMigrate creates/updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Passport{},
		&Payment{},
		&EmailVerification{},
		&Session{},
	)
}
