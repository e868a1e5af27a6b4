package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook-api/pkg/jobs"
	"github.com/noah-isme/sma-gradebook-api/pkg/mailer"
)

type recordingMailer struct {
	mu       sync.Mutex
	sent     []mailer.Message
	failures int
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func accountJob() jobs.Job {
	return jobs.Job{
		ID:   "job-1",
		Type: JobTypeAccountCreated,
		Payload: mailer.AccountCreated{
			Email:    "an@example.com",
			FullName: "Nguyễn <An>",
			Username: "HS001",
			Password: "abc123xyz0",
			UserType: "học sinh",
		},
	}
}

func TestNotificationSendsAccountEmail(t *testing.T) {
	m := &recordingMailer{}
	metrics := NewMetricsService()
	svc := NewNotificationService(m, mailer.School{Name: "THPT Demo", SupportEmail: "support@example.com"}, metrics, nil)

	require.NoError(t, svc.HandleJob(context.Background(), accountJob()))
	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "an@example.com", msg.To.Address)
	assert.Contains(t, msg.HTML, "HS001")
	assert.Contains(t, msg.HTML, "abc123xyz0")
	assert.Contains(t, msg.HTML, "Nguyễn &lt;An&gt;")
	assert.NotContains(t, msg.HTML, "<An>")
	assert.Equal(t, 1.0, counterValue(t, metrics.accountEmails.WithLabelValues("sent")))
}

func TestNotificationSendFailureIsRetryable(t *testing.T) {
	m := &recordingMailer{failures: 1}
	metrics := NewMetricsService()
	svc := NewNotificationService(m, mailer.School{}, metrics, nil)

	err := svc.HandleJob(context.Background(), accountJob())
	require.Error(t, err)
	assert.Equal(t, 1.0, counterValue(t, metrics.accountEmails.WithLabelValues("failed")))

	require.NoError(t, svc.HandleJob(context.Background(), accountJob()))
	assert.Equal(t, 1, m.count())
}

func TestNotificationDropsUnusableJobs(t *testing.T) {
	m := &recordingMailer{}
	metrics := NewMetricsService()
	svc := NewNotificationService(m, mailer.School{}, metrics, nil)

	assert.NoError(t, svc.HandleJob(context.Background(), jobs.Job{Type: JobTypeAccountCreated, Payload: "nope"}))
	assert.NoError(t, svc.HandleJob(context.Background(), jobs.Job{Type: "unknown"}))
	assert.Zero(t, m.count())
	assert.Equal(t, 1.0, counterValue(t, metrics.accountEmails.WithLabelValues("dropped")))

	svc.DeadLetter(accountJob(), errors.New("gave up"))
	assert.Equal(t, 2.0, counterValue(t, metrics.accountEmails.WithLabelValues("dropped")))
}

func TestNotificationThroughQueueRetries(t *testing.T) {
	m := &recordingMailer{failures: 2}
	svc := NewNotificationService(m, mailer.School{}, nil, nil)
	queue := jobs.NewQueue("mail", svc.HandleJob, jobs.QueueConfig{
		Workers:      1,
		BufferSize:   4,
		MaxRetries:   3,
		RetryDelay:   5 * time.Millisecond,
		OnDeadLetter: svc.DeadLetter,
	})
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(accountJob()))
	assert.Eventually(t, func() bool { return m.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}
