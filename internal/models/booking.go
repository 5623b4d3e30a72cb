package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// BookingStatus is stored as an integer foreign key into the booking_status
// lookup table.
type BookingStatus int

const (
	StatusPending BookingStatus = iota
	StatusApproved
	StatusDenied
	StatusCancelled
)

var statusNames = map[BookingStatus]string{
	StatusPending:   "PENDING",
	StatusApproved:  "APPROVED",
	StatusDenied:    "DENIED",
	StatusCancelled: "CANCELLED",
}

// Valid reports whether s is one of the four known statuses.
func (s BookingStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s BookingStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return strconv.Itoa(int(s))
}

// MarshalJSON renders the status by name ("PENDING", "APPROVED", ...).
func (s BookingStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid booking status %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the status name or the numeric id
// (the numeric form is what older clients send).
func (s *BookingStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		for st, n := range statusNames {
			if n == name {
				*s = st
				return nil
			}
		}
		return fmt.Errorf("invalid booking status %q", name)
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("invalid booking status %s", string(data))
	}
	st := BookingStatus(id)
	if !st.Valid() {
		return fmt.Errorf("invalid booking status %d", id)
	}
	*s = st
	return nil
}

// Contact is the requester of a booking.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event describes what the room is booked for.
type Event struct {
	Title      string    `json:"title"`
	LocationID uuid.UUID `json:"locationId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Details    string    `json:"details"`
}

// Booking is the external form returned to clients. Timestamps are UTC at
// second precision, so their JSON form is always YYYY-MM-DDThh:mm:ssZ.
// RequestNote nil means "no note"; it is omitted from the JSON body.
type Booking struct {
	ID          uuid.UUID     `json:"id"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	OrgID       uuid.UUID     `json:"orgId"`
	Status      BookingStatus `json:"status"`
	Contact     Contact       `json:"contact"`
	Event       Event         `json:"event"`
	RequestNote *string       `json:"requestNote,omitempty"`
}

// BookingRecord is the flat storage form of a booking. PrivateID is the
// engine-assigned row key and never leaves the backend. The json tags name
// the storage columns and double as validation error paths.
type BookingRecord struct {
	PrivateID       int64         `json:"-"`
	ID              uuid.UUID     `json:"id"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	OrgID           uuid.UUID     `json:"org_id"`
	StatusID        BookingStatus `json:"status_id" validate:"bookingstatus"`
	ContactName     string        `json:"contact_name" validate:"required,min=2"`
	ContactEmail    string        `json:"contact_email" validate:"required,email"`
	EventTitle      string        `json:"event_title" validate:"required,min=3"`
	EventLocationID uuid.UUID     `json:"event_location_id"`
	EventStart      time.Time     `json:"event_start"`
	EventEnd        time.Time     `json:"event_end"`
	EventDetails    string        `json:"event_details" validate:"max=500"`
	RequestNote     *string       `json:"request_note"`
}

// Booking converts the flat storage form into the nested external form.
// A NULL or empty request_note becomes an absent note.
func (r *BookingRecord) Booking() *Booking {
	var note *string
	if r.RequestNote != nil && *r.RequestNote != "" {
		note = r.RequestNote
	}
	return &Booking{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		OrgID:     r.OrgID,
		Status:    r.StatusID,
		Contact: Contact{
			Name:  r.ContactName,
			Email: r.ContactEmail,
		},
		Event: Event{
			Title:      r.EventTitle,
			LocationID: r.EventLocationID,
			Start:      r.EventStart,
			End:        r.EventEnd,
			Details:    r.EventDetails,
		},
		RequestNote: note,
	}
}

// RecordFromBooking flattens a booking into its storage form. The row key is
// left unset; the store assigns it on insert.
func RecordFromBooking(b *Booking) *BookingRecord {
	return &BookingRecord{
		ID:              b.ID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		OrgID:           b.OrgID,
		StatusID:        b.Status,
		ContactName:     b.Contact.Name,
		ContactEmail:    b.Contact.Email,
		EventTitle:      b.Event.Title,
		EventLocationID: b.Event.LocationID,
		EventStart:      b.Event.Start,
		EventEnd:        b.Event.End,
		EventDetails:    b.Event.Details,
		RequestNote:     b.RequestNote,
	}
}
