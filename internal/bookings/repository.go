package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prospero-bookings/backend/internal/models"
)

// Store is the storage capability the lifecycle operations run against.
// Implementations signal ErrNotFound for missing rows and wrap engine faults
// in *StorageError; tests substitute an in-memory fake.
type Store interface {
	// ResolveKey maps an external booking id to its internal row key.
	ResolveKey(ctx context.Context, id uuid.UUID) (int64, error)
	List(ctx context.Context, limit, offset int) ([]models.BookingRecord, error)
	GetByKey(ctx context.Context, key int64) (*models.BookingRecord, error)
	Insert(ctx context.Context, rec *models.BookingRecord) error
	// Edit reads the row, applies merge and persists the result in one
	// transaction. A merge error aborts with no side effects.
	Edit(ctx context.Context, key int64, merge func(*models.BookingRecord) (*models.BookingRecord, error)) (*models.BookingRecord, error)
	// Delete removes the row and returns the pre-deletion record.
	Delete(ctx context.Context, key int64) (*models.BookingRecord, error)
	// SetStatus conditionally moves the row to the given status, refreshing
	// updated_at, unless the current status is one of blocked. It reports
	// whether a row was written.
	SetStatus(ctx context.Context, key int64, to models.BookingStatus, at time.Time, blocked ...models.BookingStatus) (bool, error)
}

const bookingColumns = `private_id, id, created_at, updated_at, org_id, status_id,
	contact_name, contact_email, event_title, event_location_id,
	event_start, event_end, event_details, request_note`

// Repository is the PostgreSQL-backed Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a bookings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// ResolveKey maps the external booking id to the internal row key.
func (r *Repository) ResolveKey(ctx context.Context, id uuid.UUID) (int64, error) {
	const q = `SELECT private_id FROM bookings WHERE id = $1`
	var key int64
	err := r.pool.QueryRow(ctx, q, id).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, &StorageError{Op: "resolve booking key", Err: err}
	}
	return key, nil
}

// List returns bookings ordered by most recently updated first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.BookingRecord, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, &StorageError{Op: "list bookings", Err: err}
	}
	defer rows.Close()
	var list []models.BookingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan booking", Err: err}
		}
		list = append(list, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list bookings", Err: err}
	}
	return list, nil
}

// GetByKey fetches a single booking by its internal row key.
func (r *Repository) GetByKey(ctx context.Context, key int64) (*models.BookingRecord, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE private_id = $1`
	rec, err := scanRecord(r.pool.QueryRow(ctx, q, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get booking", Err: err}
	}
	return rec, nil
}

// Insert persists a new booking row.
func (r *Repository) Insert(ctx context.Context, rec *models.BookingRecord) error {
	const q = `INSERT INTO bookings (
		id, created_at, updated_at, org_id, status_id,
		contact_name, contact_email, event_title, event_location_id,
		event_start, event_end, event_details, request_note
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING private_id`
	err := r.pool.QueryRow(ctx, q,
		rec.ID, rec.CreatedAt, rec.UpdatedAt, rec.OrgID, rec.StatusID,
		rec.ContactName, rec.ContactEmail, rec.EventTitle, rec.EventLocationID,
		rec.EventStart, rec.EventEnd, rec.EventDetails, rec.RequestNote,
	).Scan(&rec.PrivateID)
	if err != nil {
		return &StorageError{Op: "insert booking", Err: err}
	}
	return nil
}

// Edit runs read-merge-write inside one transaction. The row is locked for
// the duration so concurrent edits serialize instead of clobbering each
// other. A merge error (e.g. the merged record failing validation) rolls
// everything back.
func (r *Repository) Edit(ctx context.Context, key int64, merge func(*models.BookingRecord) (*models.BookingRecord, error)) (*models.BookingRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin edit", Err: err}
	}
	defer tx.Rollback(ctx)

	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE private_id = $1 FOR UPDATE`
	rec, err := scanRecord(tx.QueryRow(ctx, sel, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get booking for edit", Err: err}
	}

	merged, err := merge(rec)
	if err != nil {
		return nil, err
	}

	const upd = `UPDATE bookings SET
		updated_at = $1,
		status_id = $2,
		contact_name = $3,
		contact_email = $4,
		event_title = $5,
		event_start = $6,
		event_end = $7,
		event_details = $8,
		request_note = $9
	WHERE private_id = $10`
	tag, err := tx.Exec(ctx, upd,
		merged.UpdatedAt, merged.StatusID,
		merged.ContactName, merged.ContactEmail,
		merged.EventTitle, merged.EventStart, merged.EventEnd, merged.EventDetails,
		merged.RequestNote, key,
	)
	if err != nil {
		return nil, &StorageError{Op: "edit booking", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, &StorageError{Op: "commit edit", Err: err}
	}
	return merged, nil
}

// Delete removes the row and returns what was deleted.
func (r *Repository) Delete(ctx context.Context, key int64) (*models.BookingRecord, error) {
	const q = `DELETE FROM bookings WHERE private_id = $1
		RETURNING ` + bookingColumns
	rec, err := scanRecord(r.pool.QueryRow(ctx, q, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "delete booking", Err: err}
	}
	return rec, nil
}

// SetStatus is a single conditional update, so two concurrent transitions
// against the same booking cannot both pass the status guard.
func (r *Repository) SetStatus(ctx context.Context, key int64, to models.BookingStatus, at time.Time, blocked ...models.BookingStatus) (bool, error) {
	const q = `UPDATE bookings SET status_id = $1, updated_at = $2
		WHERE private_id = $3 AND NOT (status_id = ANY($4))`
	ids := make([]int, len(blocked))
	for i, s := range blocked {
		ids[i] = int(s)
	}
	tag, err := r.pool.Exec(ctx, q, to, at, key, ids)
	if err != nil {
		return false, &StorageError{Op: "update booking status", Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

// scanRecord reads one bookings row. Timestamps come back in the session
// time zone; they are normalized to UTC so the canonical external form
// renders directly.
func scanRecord(row pgx.Row) (*models.BookingRecord, error) {
	var rec models.BookingRecord
	err := row.Scan(
		&rec.PrivateID, &rec.ID, &rec.CreatedAt, &rec.UpdatedAt, &rec.OrgID, &rec.StatusID,
		&rec.ContactName, &rec.ContactEmail, &rec.EventTitle, &rec.EventLocationID,
		&rec.EventStart, &rec.EventEnd, &rec.EventDetails, &rec.RequestNote,
	)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Second)
	rec.UpdatedAt = rec.UpdatedAt.UTC().Truncate(time.Second)
	rec.EventStart = rec.EventStart.UTC().Truncate(time.Second)
	rec.EventEnd = rec.EventEnd.UTC().Truncate(time.Second)
	return &rec, nil
}
