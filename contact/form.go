// Package contact implements the contact form: validation, the submission
// state machine and the senders that deliver accepted messages.
package contact

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
)

// FormData is what a visitor submits.
type FormData struct {
	Name    string `form:"name" json:"name" validate:"required,max=100"`
	Email   string `form:"email" json:"email" validate:"required,email,max=254"`
	Subject string `form:"subject" json:"subject" validate:"required,max=200"`
	Message string `form:"message" json:"message" validate:"required,max=5000"`
}

// Normalize trims surrounding whitespace from every field.
func (f FormData) Normalize() FormData {
	return FormData{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Subject: strings.TrimSpace(f.Subject),
		Message: strings.TrimSpace(f.Message),
	}
}

// Message is an accepted submission as it is delivered and stored.
type Message struct {
	ID string
	FormData
	RemoteIP  string
	CreatedAt time.Time
}

// NewMessage stamps f with a fresh ID and the current time.
func NewMessage(ctx context.Context, f FormData) Message {
	return Message{
		ID:        ulid.Make().String(),
		FormData:  f,
		RemoteIP:  RemoteIP(ctx),
		CreatedAt: time.Now().UTC(),
	}
}

type remoteIPKey struct{}

// WithRemoteIP attaches the submitter's address to ctx.
func WithRemoteIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, remoteIPKey{}, ip)
}

// RemoteIP returns the address stored by WithRemoteIP, or "".
func RemoteIP(ctx context.Context) string {
	ip, _ := ctx.Value(remoteIPKey{}).(string)
	return ip
}

// ValidationErrors maps form field names to a human readable problem.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "contact: invalid form: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// Validate checks f and returns ValidationErrors when any field is rejected.
func Validate(f FormData) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("contact: validate: %w", err)
	}
	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Please enter a valid email address."
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	}
	return "Invalid value."
}
