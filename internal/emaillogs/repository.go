package emaillogs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prospero-bookings/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a dispatch attempt.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (id, booking_id, recipient_email, subject, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q, el.ID, el.BookingID, el.RecipientEmail, el.Subject, el.Status).
		Scan(&el.CreatedAt)
}

// MarkSent marks a pending attempt as delivered to the provider.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = $1, sent_at = NOW(), error_message = NULL WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, models.EmailLogStatusSent, id)
	return err
}

// MarkFailed marks an attempt as failed with the transport's reason.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE email_logs SET status = $1, error_message = $2 WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, models.EmailLogStatusFailed, reason, id)
	return err
}

// ListByBooking returns dispatch attempts for a booking, newest first.
func (r *Repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.EmailLog, error) {
	const q = `SELECT id, booking_id, recipient_email, subject, status, sent_at, error_message, created_at
		FROM email_logs
		WHERE booking_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		var subject, errMsg *string
		if err := rows.Scan(&el.ID, &el.BookingID, &el.RecipientEmail, &subject, &el.Status, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			el.Subject = *subject
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
