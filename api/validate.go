package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is wrapped by every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError is a client-side input check that failed before any request was sent.
type ValidationError struct {
	// Subject names what was checked, e.g. "phone number format".
	Subject  string
	Value    string
	Expected string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("Invalid %s: \"%s\"", e.Subject, e.Value)
	if e.Expected != "" {
		msg += "\n\n" + e.Expected
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

var (
	idPattern     = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	phoneStrip    = regexp.MustCompile(`[\s()-]`)
	phonePattern  = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)
)

// Validation tags registered on the shared validator.
const (
	TagID     = "telnyx_id"
	TagPhone  = "telnyx_phone"
	TagBucket = "bucket_name"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	_ = v.RegisterValidation(TagID, func(fl validator.FieldLevel) bool {
		return idPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(TagPhone, func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	_ = v.RegisterValidation(TagBucket, func(fl validator.FieldLevel) bool {
		return bucketPattern.MatchString(fl.Field().String())
	})
	return v
}

// IsPhone reports whether phone is 10-15 digits with an optional leading "+"
// once spaces, parentheses and hyphens are removed.
func IsPhone(phone string) bool {
	return phonePattern.MatchString(phoneStrip.ReplaceAllString(phone, ""))
}

func idError(value, name string) *ValidationError {
	return &ValidationError{
		Subject:  name + " format",
		Value:    value,
		Expected: name + " should contain only letters, numbers, and hyphens.",
	}
}

func phoneError(value string) *ValidationError {
	return &ValidationError{
		Subject: "phone number format",
		Value:   value,
		Expected: "Use E.164 format (e.g., +12025551234).\n" +
			"The number should start with + followed by country code and number.",
	}
}

func bucketError(value string) *ValidationError {
	return &ValidationError{
		Subject: "bucket name",
		Value:   value,
		Expected: "Bucket names must:\n" +
			"  • Be 3-63 characters long\n" +
			"  • Start and end with a letter or number\n" +
			"  • Contain only lowercase letters, numbers, hyphens, and periods",
	}
}

// ValidateID checks that id contains only letters, digits and hyphens.
// name labels the value in the error message and defaults to "ID".
func ValidateID(id, name string) error {
	if name == "" {
		name = "ID"
	}
	if err := validate.Var(id, "required,"+TagID); err != nil {
		return idError(id, name)
	}
	return nil
}

// ValidatePhone checks that phone looks like an E.164 number.
func ValidatePhone(phone string) error {
	if err := validate.Var(phone, TagPhone); err != nil {
		return phoneError(phone)
	}
	return nil
}

// ValidateBucketName checks the S3 bucket naming rules.
func ValidateBucketName(name string) error {
	if err := validate.Var(name, TagBucket); err != nil {
		return bucketError(name)
	}
	return nil
}

// ValidateStruct runs the `validate` tags of s and reports the first failure
// as a *ValidationError. A `label` tag names the field in messages.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}

	fe := fieldErrs[0]
	value := fmt.Sprint(fe.Value())
	switch fe.Tag() {
	case TagID:
		return idError(value, fe.Field())
	case TagPhone:
		return phoneError(value)
	case TagBucket:
		return bucketError(value)
	case "required":
		return &ValidationError{Subject: fe.Field(), Value: value, Expected: fe.Field() + " is required."}
	case "oneof":
		return &ValidationError{
			Subject:  fe.Field(),
			Value:    value,
			Expected: "Must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ") + ".",
		}
	default:
		return &ValidationError{
			Subject:  fe.Field(),
			Value:    value,
			Expected: fmt.Sprintf("Failed the %q check.", fe.Tag()),
		}
	}
}
