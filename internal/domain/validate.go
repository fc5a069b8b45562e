// Package domain – entry payload validation.
//
// Submitted payloads are decoded into untyped JSON values (any) and checked
// here before anything is persisted. Checks run in a fixed order and the first
// failure wins, so clients always get one specific message back.
package domain

import (
	"math"
	"strconv"
	"strings"
)

// Client-facing validation messages.
const (
	MsgInvalidPayload = "Invalid JSON payload."
	MsgAgeOutOfRange  = "Age must be between 0 and 130."
	msgMissingField   = "Missing field: "
)

// Age bounds (inclusive).
const (
	MinAge = 0
	MaxAge = 130
)

// RequiredFields lists the payload keys every submission must carry, in the
// order they are checked.
var RequiredFields = []string{"firstName", "lastName", "age", "sex", "nationality", "phone"}

// ValidationError is returned when a payload fails validation. Its message is
// safe to return to clients verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// EntryInput is a validated, trimmed submission ready to be persisted.
type EntryInput struct {
	FirstName   string
	LastName    string
	Age         float64
	Sex         string
	Nationality string
	Phone       string
}

// ValidateEntry checks a decoded JSON payload. It returns nil when the payload
// is acceptable, otherwise a *ValidationError. The input is never modified.
func ValidateEntry(raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return &ValidationError{Msg: MsgInvalidPayload}
	}
	for _, key := range RequiredFields {
		v, present := obj[key]
		if !present || v == nil || strings.TrimSpace(stringify(v)) == "" {
			return &ValidationError{Msg: msgMissingField + key}
		}
	}
	age := toNumber(obj["age"])
	if math.IsNaN(age) || math.IsInf(age, 0) || age < MinAge || age > MaxAge {
		return &ValidationError{Msg: MsgAgeOutOfRange}
	}
	return nil
}

// NewEntryInput validates raw and converts it into a trimmed EntryInput.
func NewEntryInput(raw any) (EntryInput, error) {
	if err := ValidateEntry(raw); err != nil {
		return EntryInput{}, err
	}
	obj := raw.(map[string]any)
	field := func(k string) string { return strings.TrimSpace(stringify(obj[k])) }
	return EntryInput{
		FirstName:   field("firstName"),
		LastName:    field("lastName"),
		Age:         toNumber(obj["age"]),
		Sex:         field("sex"),
		Nationality: field("nationality"),
		Phone:       field("phone"),
	}, nil
}

// stringify renders a decoded JSON value in its display form. Objects are
// always non-empty; arrays join their elements with commas.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object]"
	default:
		return ""
	}
}

// toNumber converts a decoded JSON value to a float64. Values with no numeric
// reading yield NaN.
func toNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
