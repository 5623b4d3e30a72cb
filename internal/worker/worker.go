package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prospero-bookings/backend/internal/notification"
	"github.com/prospero-bookings/backend/pkg/queue"
)

// EmailProcessor delivers queued confirmation emails through the transport
// and updates the dispatch log.
type EmailProcessor struct {
	transport notification.Transport
	logs      notification.Recorder
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewEmailProcessor creates a confirmation email processor.
func NewEmailProcessor(transport notification.Transport, logs notification.Recorder, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{transport: transport, logs: logs, queue: q, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	msg := notification.Message{
		To:      payload.RecipientEmail,
		ToName:  payload.RecipientName,
		Subject: payload.Subject,
		Text:    payload.BodyText,
	}
	if err := p.transport.Send(ctx, msg); err != nil {
		if logErr := p.logs.MarkFailed(ctx, payload.EmailLogID, err.Error()); logErr != nil {
			p.logger.Warn("email log update failed", zap.Error(logErr))
		}
		return fmt.Errorf("send: %w", err)
	}
	if err := p.logs.MarkSent(ctx, payload.EmailLogID); err != nil {
		p.logger.Warn("email log update failed", zap.Error(err))
	}

	p.logger.Info("confirmation email delivered",
		zap.String("booking_id", payload.BookingID.String()),
		zap.String("recipient", payload.RecipientEmail),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
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
