// Package validation checks contact submissions before they are stored.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages shown to the visitor.
const (
	MsgRequired     = "All fields are required"
	MsgInvalidEmail = "Please enter a valid email address"
)

// emailPattern is deliberately loose: something@something.something, no spaces.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Error is a rejected submission with a human readable message.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validator validates structs tagged with `validate:"..."`.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the contact rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates s. Missing fields are reported before malformed ones,
// whatever their order in the struct.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &Error{Field: fe.Field(), Message: MsgRequired}
		}
	}
	fe := fieldErrs[0]
	if fe.Tag() == "contactemail" {
		return &Error{Field: fe.Field(), Message: MsgInvalidEmail}
	}

	return &Error{Field: fe.Field(), Message: "Invalid " + fe.Field()}
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}
