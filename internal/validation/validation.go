// Package validation wraps go-playground/validator with the rules and the
// caller-facing messages used across the backend.
//
// Besides the built-in tags, three custom tags are registered:
//
//	phone_in  Indian mobile number, 10 digits starting with 6-9 (+91 or 0 prefix allowed)
//	pincode   Indian postal code, 6 digits not starting with 0
//	pan       Permanent Account Number, e.g. ABCDE1234F
package validation

import (
	"bhrc/backend/internal/apperrors"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern   = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// labels overrides the generated label of acronyms and of fields stored in a
// different unit than they are entered.
var labels = map[string]string{
	"pin_code":     "PIN code",
	"pan":          "PAN",
	"dob":          "Date of birth",
	"amount_paise": "Amount",
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	must(v.RegisterValidation("phone_in", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(NormalizePhone(fl.Field().String()))
	}))
	must(v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	}))
	must(v.RegisterValidation("pan", func(fl validator.FieldLevel) bool {
		return panPattern.MatchString(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Struct validates s against its `validate` tags. The first failing field is
// returned as an apperrors.Validation.
func Struct(s any) error {
	return convert("", validate.Struct(s))
}

// Field validates a single value against a validator tag string such as
// "required,min=3". name is used for the error field and message.
func Field(name string, value any, rules string) error {
	return convert(name, validate.Var(value, rules))
}

func convert(name string, err error) error {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return apperrors.NewValidation(name, "invalid input", err)
	}
	fe := errs[0]
	field := fe.Field()
	if name != "" {
		field = name
	}
	return apperrors.NewValidation(field, message(field, fe))
}

func message(field string, fe validator.FieldError) string {
	label := Label(field)
	switch fe.Tag() {
	case "required", "required_without", "required_if":
		return label + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", label, fe.Param())
	case "email":
		return label + " must be a valid email address"
	case "phone_in":
		return label + " must be a valid 10-digit mobile number"
	case "pincode":
		return label + " must be a valid 6-digit PIN code"
	case "pan":
		return label + " must be a valid PAN (e.g. ABCDE1234F)"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		if fe.Param() == "2006-01-02" {
			return label + " must be a date in YYYY-MM-DD format"
		}
		return label + " has an invalid date format"
	case "url", "http_url":
		return label + " must be a valid URL"
	case "uuid", "uuid4":
		return label + " must be a valid identifier"
	default:
		return label + " is invalid"
	}
}

// Label turns a JSON field name into a human readable label ("full_name" -> "Full name").
func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return "Value"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// NormalizePhone strips separators and a leading +91, 91 or 0 from an Indian mobile number.
func NormalizePhone(phone string) string {
	p := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	switch {
	case strings.HasPrefix(p, "+91"):
		p = p[3:]
	case len(p) == 12 && strings.HasPrefix(p, "91"):
		p = p[2:]
	case len(p) == 11 && strings.HasPrefix(p, "0"):
		p = p[1:]
	}
	return p
}

// Age returns the number of full years between dob and today.
func Age(dob, today time.Time) int {
	years := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		years--
	}
	return years
}
