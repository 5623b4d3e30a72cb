package notification

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prospero-bookings/backend/internal/models"
	"github.com/prospero-bookings/backend/pkg/queue"
)

// Dispatch modes. In sync mode the approval waits for the provider; in queue
// mode the approval only enqueues and the worker delivers.
const (
	ModeSync  = "sync"
	ModeQueue = "queue"
)

// Recorder persists email dispatch attempts.
type Recorder interface {
	Create(ctx context.Context, log *models.EmailLog) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Notifier dispatches confirmation emails inline through the transport.
// Transport faults are caught and reported as false, never propagated.
type Notifier struct {
	transport Transport
	logs      Recorder
	logger    *zap.Logger
}

// NewNotifier creates a synchronous dispatcher.
func NewNotifier(transport Transport, logs Recorder, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{transport: transport, logs: logs, logger: logger}
}

// SendConfirmation composes, records and sends the confirmation for an
// approved booking.
func (n *Notifier) SendConfirmation(ctx context.Context, b *models.Booking) bool {
	msg := ComposeConfirmation(b)
	logID := n.record(ctx, b, msg)

	if err := n.transport.Send(ctx, msg); err != nil {
		n.logger.Error("confirmation email failed",
			zap.String("booking_id", b.ID.String()),
			zap.String("recipient", msg.To),
			zap.Error(err),
		)
		n.markFailed(ctx, logID, err.Error())
		return false
	}
	n.markSent(ctx, logID)
	return true
}

// QueueDispatcher hands the confirmation to the background worker. Success
// means the job was enqueued, not that the provider accepted the message.
type QueueDispatcher struct {
	queue  *queue.Queue
	logs   Recorder
	logger *zap.Logger
}

// NewQueueDispatcher creates a queue-backed dispatcher.
func NewQueueDispatcher(q *queue.Queue, logs Recorder, logger *zap.Logger) *QueueDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDispatcher{queue: q, logs: logs, logger: logger}
}

// SendConfirmation composes the message, records a pending attempt and
// enqueues the delivery job.
func (d *QueueDispatcher) SendConfirmation(ctx context.Context, b *models.Booking) bool {
	msg := ComposeConfirmation(b)
	el := &models.EmailLog{
		ID:             uuid.New(),
		BookingID:      b.ID,
		RecipientEmail: msg.To,
		Subject:        msg.Subject,
		Status:         models.EmailLogStatusPending,
	}
	if err := d.logs.Create(ctx, el); err != nil {
		d.logger.Warn("email log create failed", zap.Error(err))
	}
	err := d.queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailLogID:     el.ID,
		BookingID:      b.ID,
		RecipientEmail: msg.To,
		RecipientName:  msg.ToName,
		Subject:        msg.Subject,
		BodyText:       msg.Text,
	})
	if err != nil {
		d.logger.Error("enqueue confirmation email failed",
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
		_ = d.logs.MarkFailed(ctx, el.ID, err.Error())
		return false
	}
	return true
}

func (n *Notifier) record(ctx context.Context, b *models.Booking, msg Message) uuid.UUID {
	el := &models.EmailLog{
		ID:             uuid.New(),
		BookingID:      b.ID,
		RecipientEmail: msg.To,
		Subject:        msg.Subject,
		Status:         models.EmailLogStatusPending,
	}
	if err := n.logs.Create(ctx, el); err != nil {
		// The dispatch log is best-effort; a log failure must not block the email.
		n.logger.Warn("email log create failed", zap.Error(err))
	}
	return el.ID
}

func (n *Notifier) markSent(ctx context.Context, id uuid.UUID) {
	if err := n.logs.MarkSent(ctx, id); err != nil {
		n.logger.Warn("email log update failed", zap.Error(err))
	}
}

func (n *Notifier) markFailed(ctx context.Context, id uuid.UUID, reason string) {
	if err := n.logs.MarkFailed(ctx, id, reason); err != nil {
		n.logger.Warn("email log update failed", zap.Error(err))
	}
}
