package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/prospero-bookings/backend/internal/models"
)

// Message is a composed confirmation email, ready for the transport.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// ComposeConfirmation builds the confirmation message for an approved
// booking: event title, human-formatted start/end, details and the optional
// request note.
func ComposeConfirmation(b *models.Booking) Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dear %s,\n\n", b.Contact.Name)
	sb.WriteString("Your room booking has been confirmed. Here are the details of your reservation:\n\n")
	fmt.Fprintf(&sb, "Event: %s\n", b.Event.Title)
	fmt.Fprintf(&sb, "Date: %s to %s\n", humanTime(b.Event.Start), humanTime(b.Event.End))
	fmt.Fprintf(&sb, "Details: %s\n", b.Event.Details)
	if b.RequestNote != nil {
		fmt.Fprintf(&sb, "\nAdditional Notes: %s\n", *b.RequestNote)
	}
	sb.WriteString("\nIf you need to make any changes to your booking or have any questions, please don't hesitate to contact us.\n")
	sb.WriteString("\nThank you for your booking!\n\nBest regards,\nProspero\n")

	return Message{
		To:      b.Contact.Email,
		ToName:  b.Contact.Name,
		Subject: fmt.Sprintf("Booking Confirmation - %s", b.Event.Title),
		Text:    sb.String(),
	}
}

// humanTime renders a timestamp for the message body, independent of the
// canonical storage format.
func humanTime(t time.Time) string {
	return t.UTC().Format("01/02/2006, 03:04 PM")
}
