package services

import (
	"context"
	"time"

	"visahub/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupService periodically purges expired verification codes and sessions.
// Both tables only grow during normal operation; rows past expiry carry no
// information the state machine needs.
type CleanupService struct {
	verificationRepo repositories.VerificationRepository
	sessionRepo      repositories.SessionRepository
	logger           *zap.SugaredLogger
	cron             *cron.Cron
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(
	verificationRepo repositories.VerificationRepository,
	sessionRepo repositories.SessionRepository,
	logger *zap.SugaredLogger,
) *CleanupService {
	return &CleanupService{
		verificationRepo: verificationRepo,
		sessionRepo:      sessionRepo,
		logger:           logger,
		cron:             cron.New(),
	}
}

// Start registers the purge job and launches the scheduler
func (s *CleanupService) Start() {
	s.cron.AddFunc("@every 30m", s.purge)
	s.cron.Start()
	s.logger.Info("cleanup service started")
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CleanupService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cleanup service stopped")
}

func (s *CleanupService) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	codes, err := s.verificationRepo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Errorw("failed to purge expired verification codes", "error", err)
	}

	sessions, err := s.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Errorw("failed to purge expired sessions", "error", err)
	}

	if codes > 0 || sessions > 0 {
		s.logger.Infow("purged expired rows", "verification_codes", codes, "sessions", sessions)
	}
}
