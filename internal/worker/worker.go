package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/crm"
	"github.com/club-pata-amiga/backend/internal/emaillogs"
	"github.com/club-pata-amiga/backend/internal/models"
	"github.com/club-pata-amiga/backend/pkg/mailer"
	"github.com/club-pata-amiga/backend/pkg/queue"
)

// Processor executes queued background jobs: transactional email delivery
// and CRM contact sync.
type Processor struct {
	mailer   *mailer.Mailer
	crm      *crm.Client
	emailLog *emaillogs.Repository
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewProcessor creates a job processor.
func NewProcessor(m *mailer.Mailer, crmClient *crm.Client, emailLog *emaillogs.Repository, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{mailer: m, crm: crmClient, emailLog: emailLog, queue: q, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeEmail:
		return p.processEmail(ctx, job)
	case queue.JobTypeCRMSync:
		return p.processCRMSync(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) processEmail(ctx context.Context, job *queue.Job) error {
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	entry := &models.EmailLog{
		UserID:         payload.UserID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
	}
	if err := p.emailLog.Create(ctx, entry); err != nil {
		p.logger.Error("email log insert failed", zap.Error(err), zap.String("recipient", payload.RecipientEmail))
	}

	if !p.mailer.Enabled() {
		p.logger.Warn("mailer not configured, dropping email",
			zap.String("email_type", payload.EmailType),
			zap.String("recipient", payload.RecipientEmail))
		if entry.ID != uuid.Nil {
			_ = p.emailLog.MarkFailed(ctx, entry.ID, "mailer not configured")
		}
		return nil
	}

	if err := p.mailer.Send(ctx, payload.RecipientEmail, payload.Subject, payload.BodyHTML); err != nil {
		if entry.ID != uuid.Nil {
			_ = p.emailLog.MarkFailed(ctx, entry.ID, err.Error())
		}
		return fmt.Errorf("send email: %w", err)
	}
	if entry.ID != uuid.Nil {
		if err := p.emailLog.MarkSent(ctx, entry.ID, time.Now()); err != nil {
			p.logger.Error("email log update failed", zap.Error(err), zap.String("log_id", entry.ID.String()))
		}
	}

	p.logger.Info("email sent",
		zap.String("email_type", payload.EmailType),
		zap.String("recipient", payload.RecipientEmail))
	return nil
}

func (p *Processor) processCRMSync(ctx context.Context, job *queue.Job) error {
	var payload queue.CRMSyncPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if !p.crm.Enabled() {
		p.logger.Debug("crm not configured, skipping sync", zap.String("email", payload.Email))
		return nil
	}
	return p.crm.SyncContact(ctx, crm.Contact{
		UserID:           payload.UserID.String(),
		Email:            payload.Email,
		FullName:         payload.FullName,
		MembershipStatus: payload.MembershipStatus,
		Event:            payload.Event,
	})
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
