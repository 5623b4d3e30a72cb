package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prospero-bookings/backend/internal/models"
)

// Dispatcher submits a booking confirmation message through the external
// email transport. It reports success as a boolean and never lets transport
// faults escape.
type Dispatcher interface {
	SendConfirmation(ctx context.Context, b *models.Booking) bool
}

// CreateInput is what a client supplies when requesting a booking. The
// backend mints the identifiers, the status and the timestamps itself.
// Event times arrive as raw strings so the schema layer owns their parsing
// and normalization.
type CreateInput struct {
	ContactName  string
	ContactEmail string
	EventTitle   string
	EventStart   string
	EventEnd     string
	EventDetails string
	RequestNote  *string
}

// Patch carries the mutable fields of a partial update. Nil means "keep the
// stored value".
type Patch struct {
	Status       *models.BookingStatus
	ContactName  *string
	ContactEmail *string
	EventTitle   *string
	EventStart   *string
	EventEnd     *string
	EventDetails *string
	RequestNote  *string
}

// Empty reports whether the patch touches none of the mutable fields.
func (p *Patch) Empty() bool {
	return p.Status == nil && p.ContactName == nil && p.ContactEmail == nil &&
		p.EventTitle == nil && p.EventStart == nil && p.EventEnd == nil &&
		p.EventDetails == nil && p.RequestNote == nil
}

// Service implements the booking lifecycle: validate, resolve the storage
// key, persist, convert, and for approvals dispatch the confirmation email.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	Create(ctx context.Context, in *CreateInput) (*models.Booking, error)
	Edit(ctx context.Context, id string, patch *Patch) (*models.Booking, error)
	Delete(ctx context.Context, id string) (*models.Booking, error)
	Approve(ctx context.Context, id string) (*models.Booking, error)
	Deny(ctx context.Context, id string) (*models.Booking, error)
	Cancel(ctx context.Context, id string) (*models.Booking, error)
}

type service struct {
	store      Store
	dispatcher Dispatcher
	logger     *zap.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewService creates the booking lifecycle service.
func NewService(store Store, dispatcher Dispatcher, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.New,
	}
}

func (s *service) List(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
	recs, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNoBookings
	}
	list := make([]*models.Booking, len(recs))
	for i := range recs {
		list[i] = recs[i].Booking()
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Booking, error) {
	key, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return rec.Booking(), nil
}

func (s *service) Create(ctx context.Context, in *CreateInput) (*models.Booking, error) {
	now := s.now().UTC().Truncate(time.Second)
	rec := &models.BookingRecord{
		ID:              s.newID(),
		CreatedAt:       now,
		UpdatedAt:       now,
		OrgID:           s.newID(),
		StatusID:        models.StatusPending,
		ContactName:     in.ContactName,
		ContactEmail:    in.ContactEmail,
		EventTitle:      in.EventTitle,
		EventLocationID: s.newID(),
		EventDetails:    in.EventDetails,
		RequestNote:     in.RequestNote,
	}

	ve := &ValidationError{}
	rec.EventStart = parseInto(ve, "event_start", in.EventStart)
	rec.EventEnd = parseInto(ve, "event_end", in.EventEnd)
	if err := ValidateRecord(rec); err != nil {
		ve = mergeValidation(ve, err)
	}
	if len(ve.Violations) > 0 {
		return nil, ve
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("booking created", zap.String("booking_id", rec.ID.String()))
	return rec.Booking(), nil
}

func (s *service) Edit(ctx context.Context, id string, patch *Patch) (*models.Booking, error) {
	key, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, ErrNothingToUpdate
	}

	// Parse timestamp inputs up front so a malformed patch never opens a
	// storage transaction.
	ve := &ValidationError{}
	var start, end *time.Time
	if patch.EventStart != nil {
		t := parseInto(ve, "event_start", *patch.EventStart)
		start = &t
	}
	if patch.EventEnd != nil {
		t := parseInto(ve, "event_end", *patch.EventEnd)
		end = &t
	}
	if len(ve.Violations) > 0 {
		return nil, ve
	}

	now := s.now().UTC().Truncate(time.Second)
	merged, err := s.store.Edit(ctx, key, func(rec *models.BookingRecord) (*models.BookingRecord, error) {
		out := *rec
		out.UpdatedAt = now
		if patch.Status != nil {
			out.StatusID = *patch.Status
		}
		if patch.ContactName != nil {
			out.ContactName = *patch.ContactName
		}
		if patch.ContactEmail != nil {
			out.ContactEmail = *patch.ContactEmail
		}
		if patch.EventTitle != nil {
			out.EventTitle = *patch.EventTitle
		}
		if start != nil {
			out.EventStart = *start
		}
		if end != nil {
			out.EventEnd = *end
		}
		if patch.EventDetails != nil {
			out.EventDetails = *patch.EventDetails
		}
		if patch.RequestNote != nil {
			out.RequestNote = patch.RequestNote
		}
		if err := ValidateRecord(&out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking edited", zap.String("booking_id", merged.ID.String()))
	return merged.Booking(), nil
}

func (s *service) Delete(ctx context.Context, id string) (*models.Booking, error) {
	key, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Delete(ctx, key)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking deleted", zap.String("booking_id", rec.ID.String()))
	return rec.Booking(), nil
}

func (s *service) Approve(ctx context.Context, id string) (*models.Booking, error) {
	key, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	written, err := s.store.SetStatus(ctx, key, models.StatusApproved, s.now().UTC().Truncate(time.Second), models.StatusApproved)
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, ErrAlreadyApproved
	}
	rec, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	b := rec.Booking()
	s.logger.Info("booking approved", zap.String("booking_id", b.ID.String()))
	if !s.dispatcher.SendConfirmation(ctx, b) {
		return b, ErrNotificationFailed
	}
	return b, nil
}

func (s *service) Deny(ctx context.Context, id string) (*models.Booking, error) {
	key, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	// Denial only applies to a request still awaiting a decision.
	written, err := s.store.SetStatus(ctx, key, models.StatusDenied, s.now().UTC().Truncate(time.Second),
		models.StatusApproved, models.StatusDenied, models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, ErrNotPending
	}
	rec, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking denied", zap.String("booking_id", rec.ID.String()))
	return rec.Booking(), nil
}

func (s *service) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	key, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	written, err := s.store.SetStatus(ctx, key, models.StatusCancelled, s.now().UTC().Truncate(time.Second), models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, ErrAlreadyCancelled
	}
	rec, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking cancelled", zap.String("booking_id", rec.ID.String()))
	return rec.Booking(), nil
}

// resolve validates the identifier syntax, then maps it to the internal row
// key. Validation failure never reaches storage.
func (s *service) resolve(ctx context.Context, id string) (int64, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return 0, err
	}
	return s.store.ResolveKey(ctx, parsed)
}

func parseInto(ve *ValidationError, path, raw string) time.Time {
	t, err := ParseTimestamp(path, raw)
	if err != nil {
		ve.add(path, "must be a valid RFC 3339 timestamp")
		return time.Time{}
	}
	return t
}

func mergeValidation(dst *ValidationError, err error) *ValidationError {
	if ve, ok := err.(*ValidationError); ok {
		dst.Violations = append(dst.Violations, ve.Violations...)
	}
	return dst
}
