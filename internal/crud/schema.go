// Package crud implements list/get/create/update/delete once for every entity.
//
// An entity is described by a Schema: which input fields it accepts, how each
// is validated, which columns can be filtered and searched, its status values
// and whether deleting it removes the row or only flips its status. The
// Service applies those rules over a storage.Repository.
package crud

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/validation"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tells how a raw input value is normalised before validation.
type Kind int

const (
	String Kind = iota
	Int
	Bool
	// Date is a calendar date, "YYYY-MM-DD".
	Date
	// DateTime accepts RFC 3339 and HTML datetime-local values.
	DateTime
	// List accepts a JSON array or a comma separated string.
	List
	// Email is trimmed and lower-cased.
	Email
	// Phone has separators and the country prefix stripped.
	Phone
)

// Field is an accepted input field. Name is both the JSON key and the column.
type Field struct {
	Name string
	// Rules is a validator tag string. Rules are only applied to non-empty values;
	// "required" additionally rejects missing ones.
	Rules string
	Kind  Kind
	// Immutable fields are accepted on create and ignored on update.
	Immutable bool
}

func (f Field) required() bool {
	for _, r := range strings.Split(f.Rules, ",") {
		if r == "required" {
			return true
		}
	}
	return false
}

// Schema describes an entity of type T.
type Schema[T any] struct {
	// Name is the singular label used in messages, e.g. "event".
	Name string
	// Key is the primary key column, "id" when empty.
	Key    string
	Fields []Field
	// Filters are the columns accepted as equality filters when listing.
	Filters       []string
	SearchColumns []string

	Statuses      []string
	DefaultStatus string
	// SoftDeleteStatus is written on delete; empty means rows are removed.
	SoftDeleteStatus string

	DefaultOrder string
	// Prepare runs after input is merged into T and before it is written.
	// It may reject the entity or fill computed fields.
	Prepare func(*T) error
	// Derived are columns Prepare fills, written on every update.
	Derived []string
	// ConflictMessage replaces the generic message for unique-key violations.
	ConflictMessage string
}

func (s *Schema[T]) key() string {
	if s.Key == "" {
		return "id"
	}
	return s.Key
}

func (s *Schema[T]) validStatus(status string) bool {
	for _, st := range s.Statuses {
		if st == status {
			return true
		}
	}
	return false
}

func (s *Schema[T]) statusError() error {
	return apperrors.NewValidation("status", "Status must be one of: "+strings.Join(s.Statuses, ", "))
}

// normalize keeps the known fields of input and converts them to their kind.
func (s *Schema[T]) normalize(input map[string]any, update bool) (map[string]any, error) {
	out := make(map[string]any, len(input))
	for _, f := range s.Fields {
		raw, ok := input[f.Name]
		if !ok || (update && f.Immutable) {
			continue
		}
		v, err := coerce(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// check validates values. On create every required field must be present; on
// update only the supplied ones are checked.
func (s *Schema[T]) check(values map[string]any, update bool) error {
	for _, f := range s.Fields {
		v, ok := values[f.Name]
		if !ok && update {
			continue
		}
		if isEmpty(v) {
			if f.required() {
				return apperrors.NewValidation(f.Name, validation.Label(f.Name)+" is required")
			}
			continue
		}
		if f.Rules == "" {
			continue
		}
		if err := validation.Field(f.Name, v, f.Rules); err != nil {
			return err
		}
	}

	if len(s.Statuses) == 0 {
		return nil
	}
	status, ok := values["status"]
	switch {
	case !ok && update:
	case isEmpty(status) && update:
		return apperrors.NewValidation("status", "Status is required")
	case isEmpty(status):
		values["status"] = s.DefaultStatus
	default:
		if !s.validStatus(fmt.Sprint(status)) {
			return s.statusError()
		}
	}
	return nil
}

func coerce(f Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch f.Kind {
	case Int:
		return toInt(f.Name, raw)
	case Bool:
		return toBool(f.Name, raw)
	case Date:
		s := strings.TrimSpace(toString(raw))
		if s == "" {
			return nil, nil
		}
		var d models.Date
		if err := d.UnmarshalJSON([]byte(strconv.Quote(s))); err != nil {
			return nil, apperrors.NewValidation(f.Name, validation.Label(f.Name)+" must be a date in YYYY-MM-DD format")
		}
		return d.String(), nil
	case DateTime:
		return toDateTime(f.Name, raw)
	case List:
		return toList(raw), nil
	case Email:
		return strings.ToLower(strings.TrimSpace(toString(raw))), nil
	case Phone:
		return validation.NormalizePhone(toString(raw)), nil
	default:
		return strings.TrimSpace(toString(raw)), nil
	}
}

func toString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func toInt(name string, raw any) (any, error) {
	bad := apperrors.NewValidation(name, validation.Label(name)+" must be a whole number")
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, bad
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, bad
		}
		return n, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, bad
		}
		return n, nil
	default:
		return nil, bad
	}
}

func toBool(name string, raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, apperrors.NewValidation(name, validation.Label(name)+" must be true or false")
		}
		return b, nil
	default:
		return nil, apperrors.NewValidation(name, validation.Label(name)+" must be true or false")
	}
}

// dateTimeLayouts are tried in order; zone-less values are read in local time.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func toDateTime(name string, raw any) (any, error) {
	s := strings.TrimSpace(toString(raw))
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format(time.RFC3339), nil
		}
	}
	return nil, apperrors.NewValidation(name, validation.Label(name)+" must be a date and time")
}

func toList(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			parts = append(parts, toString(item))
		}
	default:
		parts = strings.Split(toString(raw), ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []string:
		return len(x) == 0
	default:
		return false
	}
}
