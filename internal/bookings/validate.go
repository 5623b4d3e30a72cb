package bookings

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/prospero-bookings/backend/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report violations under the storage column names from the json tags.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("bookingstatus", func(fl validator.FieldLevel) bool {
		return models.BookingStatus(fl.Field().Int()).Valid()
	})
	return v
}

// ValidateRecord checks the flat storage form against the booking schema and
// returns a *ValidationError listing every offending field.
func ValidateRecord(rec *models.BookingRecord) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.add(fe.Field(), reasonFor(fe))
	}
	return ve
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "bookingstatus":
		return "must be one of PENDING, APPROVED, DENIED or CANCELLED"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ParseID validates the syntax of an external booking identifier.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, invalid("id", "must be a valid UUID")
	}
	return id, nil
}

// ParseTimestamp parses an RFC 3339 timestamp and normalizes it to
// second-precision UTC. Fractional seconds are truncated, not rounded.
func ParseTimestamp(path, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalid(path, "must be a valid RFC 3339 timestamp")
	}
	return t.UTC().Truncate(time.Second), nil
}
