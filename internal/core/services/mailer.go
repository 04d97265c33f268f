package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"visahub/internal/config"

	"go.uber.org/zap"
)

// Mailer dispatches transactional mail. Dispatch failure is never fatal to
// the calling flow; callers log and continue.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

const verificationSubject = "Your verification code"

// verificationTemplate renders the one-time code email
var verificationTemplate = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #003366; text-align: center;">Verify Your Email Address</h2>
  <p>Hello,</p>
  <p>Thank you for signing up! Your verification code is:</p>
  <div style="text-align: center; margin: 30px 0;">
    <h1 style="font-size: 32px; color: #005B9E; letter-spacing: 5px;">{{.Code}}</h1>
  </div>
  <p>This code will expire in {{.TTLMinutes}} minutes.</p>
  <p>If you didn't request this code, please ignore this email.</p>
</div>
`))

// BrevoMailer sends transactional emails via the Brevo HTTP API v3.
// Constructed once at bootstrap and injected; no lazy global transporter.
type BrevoMailer struct {
	apiKey      string
	senderEmail string
	senderName  string
	client      *http.Client
	logger      *zap.SugaredLogger
}

// NewBrevoMailer creates a new mailer
func NewBrevoMailer(cfg config.EmailConfig, logger *zap.SugaredLogger) *BrevoMailer {
	return &BrevoMailer{
		apiKey:      cfg.APIKey,
		senderEmail: cfg.SenderEmail,
		senderName:  cfg.SenderName,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// SendVerificationCode renders and dispatches the OTP email
func (m *BrevoMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	var buf bytes.Buffer
	data := struct {
		Code       string
		TTLMinutes int
	}{Code: code, TTLMinutes: int(VerificationCodeTTL.Minutes())}

	if err := verificationTemplate.Execute(&buf, data); err != nil {
		return err
	}

	payload := map[string]any{
		"sender":      map[string]string{"name": m.senderName, "email": m.senderEmail},
		"to":          []map[string]string{{"email": email}},
		"subject":     verificationSubject,
		"htmlContent": buf.String(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Errorw("verification email dispatch failed", "email", email, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		m.logger.Errorw("verification email rejected", "email", email, "status", resp.StatusCode)
		return fmt.Errorf("brevo returned status %d", resp.StatusCode)
	}

	m.logger.Infow("verification email sent", "email", email)
	return nil
}
