// Package validation implements the per-field and form-wide rules that gate
// form submission.
package validation

import (
	"regexp"
	"strconv"
	"strings"
)

// Field identifiers with dedicated rules.
const (
	FieldAge    = "age"
	FieldWeight = "weight"
	FieldHeight = "height"
	FieldBudget = "budget"
)

const (
	MsgAge         = "Please enter a valid age between 1 and 120 years."
	MsgWeight      = "Please enter a valid weight between 10 and 300 kg."
	MsgHeight      = "Please enter a valid height between 50 and 250 cm."
	MsgBudgetLow   = "Budget must be at least ₹10 per day."
	MsgBudgetHigh  = "Budget seems unusually high. Please check the amount."
	MsgRequired    = "This field is required."
	MsgFormInvalid = "Please correct the errors in the form."
)

const (
	minAge         = 1
	maxAge         = 120
	minWeightKg    = 10
	maxWeightKg    = 300
	minHeightCm    = 50
	maxHeightCm    = 250
	minDailyBudget = 10
	maxDailyBudget = 5000
)

// Result is the outcome of validating a single field.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func ok() Result { return Result{Valid: true} }

func fail(message string) Result { return Result{Valid: false, Message: message} }

var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ParseLeadingInt parses the integer prefix of raw the way a browser form
// does ("25 years" is 25, "12.7" is 12). ok is false when no digits lead.
func ParseLeadingInt(raw string) (int, bool) {
	match := intPrefix.FindString(strings.TrimSpace(raw))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseLeadingFloat parses the decimal prefix of raw ("70.5kg" is 70.5).
func ParseLeadingFloat(raw string) (float64, bool) {
	match := floatPrefix.FindString(strings.TrimSpace(raw))
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ValidateField applies the rule registered for fieldID to rawValue.
// Unknown fields only need to be non-empty.
func ValidateField(fieldID, rawValue string) Result {
	value := strings.TrimSpace(rawValue)

	switch fieldID {
	case FieldAge:
		return validateAge(value)
	case FieldWeight:
		return validateFloatRange(value, minWeightKg, maxWeightKg, MsgWeight)
	case FieldHeight:
		return validateFloatRange(value, minHeightCm, maxHeightCm, MsgHeight)
	case FieldBudget:
		return validateBudget(value)
	default:
		if value == "" {
			return fail(MsgRequired)
		}
		return ok()
	}
}

// ValidateInput validates one input as it loses focus. Fields with a numeric
// rule are always checked; any other field is only checked when required.
func ValidateInput(fieldID, rawValue string, required bool) Result {
	if HasRule(fieldID) {
		return ValidateField(fieldID, rawValue)
	}
	if required && strings.TrimSpace(rawValue) == "" {
		return fail(MsgRequired)
	}
	return ok()
}

// HasRule reports whether fieldID has a dedicated numeric rule.
func HasRule(fieldID string) bool {
	switch fieldID {
	case FieldAge, FieldWeight, FieldHeight, FieldBudget:
		return true
	}
	return false
}

func validateAge(value string) Result {
	age, parsed := ParseLeadingInt(value)
	// zero is falsy and rejected together with unparseable input
	if !parsed || age == 0 || age < minAge || age > maxAge {
		return fail(MsgAge)
	}
	return ok()
}

func validateFloatRange(value string, lo, hi float64, message string) Result {
	n, parsed := ParseLeadingFloat(value)
	if !parsed || n == 0 || n < lo || n > hi {
		return fail(message)
	}
	return ok()
}

func validateBudget(value string) Result {
	budget, parsed := ParseLeadingFloat(value)
	if !parsed || budget == 0 || budget < minDailyBudget {
		return fail(MsgBudgetLow)
	}
	if budget > maxDailyBudget {
		return fail(MsgBudgetHigh)
	}
	return ok()
}
