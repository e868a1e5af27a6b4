package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook-api/pkg/jobs"
	"github.com/noah-isme/sma-gradebook-api/pkg/mailer"
)

// JobTypeAccountCreated is the outbox job emitted after an enrollment provisioned a login.
const JobTypeAccountCreated = "account_created"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService delivers outbox jobs through the configured mailer.
type NotificationService struct {
	mailer  mailer.Mailer
	school  mailer.School
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(m mailer.Mailer, school mailer.School, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{mailer: m, school: school, metrics: metrics, logger: logger}
}

// HandleJob is the queue handler. A returned error makes the queue retry the job.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobTypeAccountCreated:
		account, ok := job.Payload.(mailer.AccountCreated)
		if !ok {
			s.logger.Error("unexpected account email payload", zap.String("job_id", job.ID))
			s.metrics.RecordAccountEmail("dropped")
			return nil
		}
		return s.sendAccountCreated(ctx, account)
	default:
		s.logger.Warn("unknown notification job", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
}

// DeadLetter records a job that will not be attempted again: retries exhausted or the queue was full.
func (s *NotificationService) DeadLetter(job jobs.Job, err error) {
	s.metrics.RecordAccountEmail("dropped")
	s.logger.Error("notification dropped", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempts", job.Attempt), zap.Error(err))
}

func (s *NotificationService) sendAccountCreated(ctx context.Context, account mailer.AccountCreated) error {
	msg, err := mailer.RenderAccountCreated(s.school, account)
	if err != nil {
		s.metrics.RecordAccountEmail("dropped")
		s.logger.Error("render account email", zap.Error(err))
		return nil
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.RecordAccountEmail("failed")
		return fmt.Errorf("send account email to %s: %w", account.Email, err)
	}
	s.metrics.RecordAccountEmail("sent")
	s.logger.Info("account email sent", zap.String("username", account.Username))
	return nil
}
